package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/lower"
)

// HostFunc handles a call from the program. stack holds the arguments on
// entry and receives the results.
type HostFunc func(ctx context.Context, mod api.Module, stack []uint64)

// Signature is the expected IR signature of a bound symbol. Types are
// written "void", "i1", "i64", "double" or "ptr"; "ptr" matches typed and
// opaque pointers alike.
type Signature struct {
	Ret    string
	Params []string
}

// Sig builds a Signature.
func Sig(ret string, params ...string) Signature {
	return Signature{Ret: ret, Params: params}
}

func (s Signature) String() string {
	return s.Ret + " (" + strings.Join(s.Params, ", ") + ")"
}

// Match reports whether a routine's declared type is compatible.
func (s Signature) Match(f *ast.Func) bool {
	if f.Variadic || len(f.Params) != len(s.Params) || sigType(f.RetType) != s.Ret {
		return false
	}
	for i, p := range f.Params {
		if sigType(p.Type) != s.Params[i] {
			return false
		}
	}
	return true
}

func sigType(t *ast.Type) string {
	switch {
	case t.IsVoid():
		return "void"
	case t.IsPtr():
		return "ptr"
	case t.IsInt():
		return fmt.Sprintf("i%d", t.Bits)
	}
	return t.String()
}

// declared renders f's type in Signature notation.
func declared(f *ast.Func) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = sigType(p.Type)
	}
	if f.Variadic {
		params = append(params, "...")
	}
	return Signature{Ret: sigType(f.RetType), Params: params}.String()
}

// Binding attaches a host function to a reserved symbol.
type Binding struct {
	Func HostFunc
	Name string
	Sig  Signature
}

// Symbol reports how a declaration the program calls was satisfied.
type Symbol struct {
	Name  string
	Bound bool // false when calls fail with an unresolved symbol error
}

// Binder validates reserved symbols against a module and produces the host
// functions for a lowered program.
type Binder struct {
	mod   *ast.Module
	bound map[string]Binding
}

// NewBinder creates a binder for mod.
func NewBinder(mod *ast.Module) *Binder {
	return &Binder{mod: mod, bound: make(map[string]Binding)}
}

// Bind checks each binding against the module. Symbols the module does not
// mention are skipped. A symbol the module defines, or declares with a
// different signature, is an error.
func (b *Binder) Bind(bindings []Binding) error {
	for _, bd := range bindings {
		f := b.mod.Func(bd.Name)
		if f == nil {
			continue
		}
		if !f.IsDeclaration() {
			return errors.AlreadyDefined(bd.Name)
		}
		if !bd.Sig.Match(f) {
			return errors.SignatureMismatch(bd.Name, bd.Sig.String(), declared(f))
		}
		b.bound[bd.Name] = bd
		Logger().Debug("bound", zap.String("symbol", bd.Name), zap.Stringer("signature", bd.Sig))
	}
	return nil
}

// Resolve returns a host function for every import of res. Imports
// without a binding get unresolved(name), which should fail when called.
func (b *Binder) Resolve(res *lower.Result, unresolved func(name string) HostFunc) (map[string]HostFunc, []Symbol) {
	host := make(map[string]HostFunc, len(res.Imports))
	symbols := make([]Symbol, 0, len(res.Imports))
	for _, imp := range res.Imports {
		name := imp.Name()
		if bd, ok := b.bound[name]; ok {
			host[name] = bd.Func
			symbols = append(symbols, Symbol{Name: name, Bound: true})
			continue
		}
		host[name] = unresolved(name)
		symbols = append(symbols, Symbol{Name: name})
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Name < symbols[j].Name })

	var missing []string
	for _, s := range symbols {
		if !s.Bound {
			missing = append(missing, s.Name)
		}
	}
	if len(missing) > 0 {
		Logger().Debug("unresolved symbols", zap.Strings("names", missing))
	}
	return host, symbols
}

// Bound reports whether name has a validated binding.
func (b *Binder) Bound(name string) bool {
	_, ok := b.bound[name]
	return ok
}
