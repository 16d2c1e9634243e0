package parser

import (
	"strconv"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/ll/internal/token"
)

// skipAttribute consumes one keyword-like token with an optional
// parenthesised argument or an `align N` operand.
func (p *Parser) skipAttribute() error {
	t := p.next()
	if t == nil {
		return p.errorf("unexpected end of input")
	}
	if p.isPunct("(") {
		return p.skipBalanced()
	}
	if t.Is(token.Ident, "align") || t.Is(token.Ident, "alignstack") {
		if n := p.peek(); n != nil && n.Type == token.Int {
			p.pos++
		}
	}
	return nil
}

func (p *Parser) parseFunc(define bool) error {
	start := p.next()
	f := &ast.Func{Attrs: ast.Attributes{}, Line: start.Line}

	// linkage, visibility, calling convention and return attributes
	for !p.isTypeStart() {
		if p.peek() == nil {
			return p.errorf("unexpected end of input in function header")
		}
		if err := p.skipAttribute(); err != nil {
			return err
		}
	}
	ret, err := p.parseType()
	if err != nil {
		return err
	}
	name, err := p.expect(token.GlobalIdent)
	if err != nil {
		return err
	}
	f.RetType = ret
	f.Name = name.Value

	unnamed, err := p.parseParams(f)
	if err != nil {
		return err
	}
	closeLine := p.tokens[p.pos-1].Line

	if err := p.parseFuncTail(f, define, closeLine); err != nil {
		return err
	}

	if define {
		if err := p.parseBody(f, unnamed); err != nil {
			return err
		}
	}

	if p.mod.Func(f.Name) != nil {
		return token.Errorf(start.Line, "redefinition of @%s", f.Name)
	}
	p.mod.Funcs = append(p.mod.Funcs, f)
	return nil
}

// parseParams parses the parameter list and returns how many parameters
// received implicit numbers.
func (p *Parser) parseParams(f *ast.Func) (int, error) {
	if err := p.expectPunct("("); err != nil {
		return 0, err
	}
	unnamed := 0
	for !p.acceptPunct(")") {
		if p.acceptPunct("...") {
			f.Variadic = true
			continue
		}
		typ, err := p.parseType()
		if err != nil {
			return 0, err
		}
		param := ast.Param{Type: typ}
		for !p.isPunct(",") && !p.isPunct(")") {
			t := p.peek()
			if t == nil {
				return 0, p.errorf("unexpected end of input in parameter list")
			}
			if t.Type == token.LocalIdent {
				p.pos++
				param.Name = t.Value
				continue
			}
			if err := p.skipAttribute(); err != nil {
				return 0, err
			}
		}
		if param.Name == "" {
			param.Name = strconv.Itoa(unnamed)
			unnamed++
		}
		f.Params = append(f.Params, param)
		p.acceptPunct(",")
	}
	return unnamed, nil
}

// parseFuncTail parses attribute references, inline attributes and the
// remaining header keywords. A declaration ends at the end of its line, a
// definition at the opening brace.
func (p *Parser) parseFuncTail(f *ast.Func, define bool, line int) error {
	for {
		t := p.peek()
		if t == nil {
			if define {
				return p.errorf("unexpected end of input, expected '{'")
			}
			return nil
		}
		if define && t.Is(token.Punct, "{") {
			return nil
		}
		if !define && t.Line != line {
			return nil
		}

		switch t.Type {
		case token.AttrRef:
			p.pos++
			id, err := strconv.Atoi(t.Value)
			if err != nil {
				return token.Errorf(t.Line, "invalid attribute group #%s", t.Value)
			}
			f.AttrGroups = append(f.AttrGroups, id)
		case token.String:
			if err := p.parseAttr(f.Attrs); err != nil {
				return err
			}
		case token.MetaIdent:
			p.pos++
			if err := p.skipMDAttachment(); err != nil {
				return err
			}
		case token.Ident:
			switch t.Value {
			case "section", "partition", "gc":
				p.pos += 2
			case "personality", "prefix", "prologue":
				p.pos++
				if _, err := p.parseTypedValue(); err != nil {
					return err
				}
			case "unnamed_addr", "local_unnamed_addr", "comdat", "align", "addrspace":
				if err := p.skipAttribute(); err != nil {
					return err
				}
			default:
				p.pos++
				f.Attrs[t.Value] = ""
				if p.isPunct("(") {
					if err := p.skipBalanced(); err != nil {
						return err
					}
				}
			}
		default:
			return token.Errorf(t.Line, "unexpected %q in function header", t.Value)
		}
	}
}

// skipMDAttachment consumes the node of a `!kind !N` attachment.
func (p *Parser) skipMDAttachment() error {
	t := p.peek()
	if t == nil {
		return p.errorf("unexpected end of input in metadata attachment")
	}
	if t.Is(token.Punct, "!{") {
		return p.skipBalanced()
	}
	p.pos++
	if p.isPunct("(") {
		return p.skipBalanced()
	}
	return nil
}

func (p *Parser) parseBody(f *ast.Func, nextNum int) error {
	if err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.acceptPunct("}") {
		if p.peek() == nil {
			return p.errorf("unexpected end of input in @%s", f.Name)
		}
		b := &ast.Block{}
		if t := p.peek(); t.Type == token.LabelDef {
			p.pos++
			b.Label = t.Value
			if n, err := strconv.Atoi(t.Value); err == nil {
				nextNum = n + 1
			}
		} else {
			b.Label = strconv.Itoa(nextNum)
			nextNum++
		}

		for {
			in, err := p.parseInstr(&nextNum)
			if err != nil {
				return err
			}
			if in.IsTerminator() {
				b.Term = in
				break
			}
			b.Instrs = append(b.Instrs, in)
		}
		f.Blocks = append(f.Blocks, b)
	}
	if len(f.Blocks) == 0 {
		return token.Errorf(f.Line, "function @%s has an empty body", f.Name)
	}
	return nil
}
