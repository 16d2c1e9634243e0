package ll

import (
	"bytes"
	stderrors "errors"
	"os"

	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/ll/internal/parser"
	"github.com/wippyai/qir-runtime/ll/internal/token"
)

var (
	bitcodeMagic        = []byte{'B', 'C', 0xC0, 0xDE}
	bitcodeWrapperMagic = []byte{0xDE, 0xC0, 0x17, 0x0B}
)

// Parse parses LLVM assembly. The name identifies the source in diagnostics.
func Parse(name string, src []byte) (*ast.Module, error) {
	if bytes.HasPrefix(src, bitcodeMagic) || bytes.HasPrefix(src, bitcodeWrapperMagic) {
		return nil, errors.ParseFailed(name, 0, "LLVM bitcode input is not supported, disassemble it with llvm-dis")
	}

	tokens, err := token.Tokenize(string(src))
	if err != nil {
		return nil, syntaxError(name, err)
	}
	mod, err := parser.New(tokens).Parse()
	if err != nil {
		return nil, syntaxError(name, err)
	}
	if mod.SourceFilename == "" {
		mod.SourceFilename = name
	}
	return mod, nil
}

// ParseFile reads and parses an LLVM assembly file.
func ParseFile(path string) (*ast.Module, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load(path, err)
	}
	return Parse(path, src)
}

func syntaxError(name string, err error) error {
	var te *token.Error
	if stderrors.As(err, &te) {
		return errors.ParseFailed(name, te.Line, te.Msg)
	}
	return errors.Load(name, err)
}
