package parser

import (
	"strconv"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/ll/internal/token"
)

type Parser struct {
	mod    *ast.Module
	tokens []token.Token
	pos    int
}

func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens: tokens,
		mod:    ast.NewModule(),
	}
}

func (p *Parser) Parse() (*ast.Module, error) {
	if err := p.parseModule(); err != nil {
		return nil, err
	}
	p.resolveAttrGroups()
	return p.mod, nil
}

func (p *Parser) peek() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos]
}

func (p *Parser) peekAt(off int) *token.Token {
	if p.pos+off >= len(p.tokens) {
		return nil
	}
	return &p.tokens[p.pos+off]
}

func (p *Parser) next() *token.Token {
	if p.pos >= len(p.tokens) {
		return nil
	}
	t := &p.tokens[p.pos]
	p.pos++
	return t
}

// line reports the line of the next token, or of the last token at EOF.
func (p *Parser) line() int {
	if t := p.peek(); t != nil {
		return t.Line
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1].Line
	}
	return 1
}

func (p *Parser) errorf(format string, args ...any) error {
	return token.Errorf(p.line(), format, args...)
}

func (p *Parser) expect(typ token.Type) (*token.Token, error) {
	t := p.next()
	if t == nil {
		return nil, p.errorf("unexpected end of input, expected %v", typ)
	}
	if t.Type != typ {
		return nil, token.Errorf(t.Line, "expected %v, got %q", typ, t.Value)
	}
	return t, nil
}

func (p *Parser) expectPunct(s string) error {
	t := p.next()
	if t == nil {
		return p.errorf("unexpected end of input, expected '%s'", s)
	}
	if !t.Is(token.Punct, s) {
		return token.Errorf(t.Line, "expected '%s', got %q", s, t.Value)
	}
	return nil
}

func (p *Parser) expectKeyword(kw string) error {
	t := p.next()
	if t == nil {
		return p.errorf("unexpected end of input, expected '%s'", kw)
	}
	if !t.Is(token.Ident, kw) {
		return token.Errorf(t.Line, "expected '%s', got %q", kw, t.Value)
	}
	return nil
}

func (p *Parser) isPunct(s string) bool {
	t := p.peek()
	return t != nil && t.Is(token.Punct, s)
}

func (p *Parser) isKeyword(kw string) bool {
	t := p.peek()
	return t != nil && t.Is(token.Ident, kw)
}

func (p *Parser) acceptPunct(s string) bool {
	if p.isPunct(s) {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.pos++
		return true
	}
	return false
}

// skipBalanced consumes a parenthesised or bracketed group starting at the
// current token.
func (p *Parser) skipBalanced() error {
	open := p.next()
	if open == nil || open.Type != token.Punct {
		return p.errorf("expected group")
	}
	closer := map[string]string{"(": ")", "[": "]", "{": "}", "!{": "}", "<": ">"}[open.Value]
	if closer == "" {
		return token.Errorf(open.Line, "expected group, got %q", open.Value)
	}
	depth := 1
	for depth > 0 {
		t := p.next()
		if t == nil {
			return token.Errorf(open.Line, "unclosed '%s'", open.Value)
		}
		if t.Type != token.Punct {
			continue
		}
		switch t.Value {
		case "(", "[", "{", "!{", "<":
			depth++
		case ")", "]", "}", ">":
			depth--
		}
	}
	return nil
}

// skipLine consumes every remaining token on the given line.
func (p *Parser) skipLine(line int) {
	for {
		t := p.peek()
		if t == nil || t.Line != line {
			return
		}
		p.pos++
	}
}

func parseInt(t *token.Token) (int64, error) {
	v, err := strconv.ParseInt(t.Value, 10, 64)
	if err == nil {
		return v, nil
	}
	u, uerr := strconv.ParseUint(t.Value, 10, 64)
	if uerr != nil {
		return 0, token.Errorf(t.Line, "invalid integer %q", t.Value)
	}
	return int64(u), nil
}

func (p *Parser) parseUint() (uint64, error) {
	t, err := p.expect(token.Int)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(t.Value, 10, 64)
	if err != nil {
		return 0, token.Errorf(t.Line, "invalid unsigned integer %q", t.Value)
	}
	return v, nil
}

func (p *Parser) resolveAttrGroups() {
	for _, f := range p.mod.Funcs {
		for _, id := range f.AttrGroups {
			for k, v := range p.mod.AttrGroups[id] {
				if _, ok := f.Attrs[k]; !ok {
					f.Attrs[k] = v
				}
			}
		}
	}
}
