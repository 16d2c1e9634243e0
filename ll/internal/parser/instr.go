package parser

import (
	"strconv"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/ll/internal/token"
)

var binaryOps = map[string]bool{
	"add": true, "sub": true, "mul": true, "udiv": true, "sdiv": true,
	"urem": true, "srem": true, "shl": true, "lshr": true, "ashr": true,
	"and": true, "or": true, "xor": true,
	"fadd": true, "fsub": true, "fmul": true, "fdiv": true, "frem": true,
}

var castOps = map[string]bool{
	"trunc": true, "zext": true, "sext": true, "fptrunc": true, "fpext": true,
	"fptoui": true, "fptosi": true, "uitofp": true, "sitofp": true,
	"ptrtoint": true, "inttoptr": true, "bitcast": true, "addrspacecast": true,
}

// instruction flags that do not change lowering
var instrFlags = map[string]bool{
	"nuw": true, "nsw": true, "exact": true, "disjoint": true, "nneg": true, "samesign": true,
	"fast": true, "nnan": true, "ninf": true, "nsz": true, "arcp": true,
	"contract": true, "afn": true, "reassoc": true,
}

func (p *Parser) skipFlags() {
	for {
		t := p.peek()
		if t == nil || t.Type != token.Ident || !instrFlags[t.Value] {
			return
		}
		p.pos++
	}
}

func (p *Parser) parseInstr(nextNum *int) (*ast.Instr, error) {
	t := p.peek()
	if t == nil {
		return nil, p.errorf("unexpected end of input, expected instruction")
	}
	in := &ast.Instr{Line: t.Line}

	if t.Type == token.LocalIdent {
		p.pos++
		if err := p.expectPunct("="); err != nil {
			return nil, err
		}
		in.Name = t.Value
		if n, err := strconv.Atoi(t.Value); err == nil {
			*nextNum = n + 1
		}
	}

	op, err := p.expect(token.Ident)
	if err != nil {
		return nil, err
	}
	in.Op = op.Value

	switch {
	case op.Value == "tail" || op.Value == "musttail" || op.Value == "notail":
		if err = p.expectKeyword("call"); err == nil {
			in.Op = "call"
			err = p.parseCall(in)
		}
	case op.Value == "call":
		err = p.parseCall(in)
	case op.Value == "ret":
		err = p.parseRet(in)
	case op.Value == "br":
		err = p.parseBr(in)
	case op.Value == "switch":
		err = p.parseSwitch(in)
	case op.Value == "unreachable":
	case op.Value == "icmp" || op.Value == "fcmp":
		err = p.parseCmp(in)
	case binaryOps[op.Value]:
		err = p.parseBinary(in)
	case op.Value == "fneg" || op.Value == "freeze":
		p.skipFlags()
		var v *ast.Value
		if v, err = p.parseTypedValue(); err == nil {
			in.Type = v.Type
			in.Args = []*ast.Value{v}
		}
	case castOps[op.Value]:
		err = p.parseCast(in)
	case op.Value == "select":
		err = p.parseSelect(in)
	case op.Value == "phi":
		err = p.parsePhi(in)
	default:
		in.Opaque = true
		p.skipLine(in.Line)
		return in, nil
	}
	if err != nil {
		return nil, err
	}

	if err := p.skipAttachments(); err != nil {
		return nil, err
	}
	return in, nil
}

// skipAttachments consumes trailing `, !kind !N` metadata attachments.
func (p *Parser) skipAttachments() error {
	for p.isPunct(",") {
		if t := p.peekAt(1); t == nil || t.Type != token.MetaIdent {
			return p.errorf("unexpected ',' after instruction")
		}
		p.pos += 2
		if err := p.skipMDAttachment(); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) parseCall(in *ast.Instr) error {
	// fast-math flags, calling convention and return attributes
	for !p.isTypeStart() {
		if p.peek() == nil {
			return p.errorf("unexpected end of input in call")
		}
		if err := p.skipAttribute(); err != nil {
			return err
		}
	}
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	in.Type = typ
	if typ.Kind == ast.TypeFunc {
		in.Type = typ.Ret
	}

	t := p.peek()
	switch {
	case t == nil:
		return p.errorf("unexpected end of input, expected callee")
	case t.Type == token.GlobalIdent:
		p.pos++
		in.Callee = t.Value
	case t.Type == token.LocalIdent:
		p.pos++
		in.Callee = t.Value
		in.Indirect = true
	case t.Is(token.Ident, "asm"):
		in.Opaque = true
		p.skipLine(in.Line)
		return nil
	default:
		v, err := p.parseValue(ast.Ptr)
		if err != nil {
			return err
		}
		if v.Kind == ast.ValueGlobal {
			in.Callee = v.Name
		} else {
			in.Indirect = true
		}
	}

	if err := p.expectPunct("("); err != nil {
		return err
	}
	for !p.acceptPunct(")") {
		at, err := p.parseType()
		if err != nil {
			return err
		}
		for !p.isValueStart() {
			if p.peek() == nil {
				return p.errorf("unexpected end of input in call arguments")
			}
			if err := p.skipAttribute(); err != nil {
				return err
			}
		}
		v, err := p.parseValue(at)
		if err != nil {
			return err
		}
		in.Args = append(in.Args, v)
		if !p.acceptPunct(",") && !p.isPunct(")") {
			return p.errorf("expected ',' or ')' in call arguments")
		}
	}

	// function attributes and operand bundles
	for {
		t := p.peek()
		if t == nil || t.Line != in.Line || t.Is(token.Punct, ",") {
			return nil
		}
		switch {
		case t.Type == token.AttrRef:
			p.pos++
		case t.Is(token.Punct, "["):
			if err := p.skipBalanced(); err != nil {
				return err
			}
		default:
			if err := p.skipAttribute(); err != nil {
				return err
			}
		}
	}
}

func (p *Parser) parseRet(in *ast.Instr) error {
	if p.acceptKeyword("void") {
		in.Type = ast.Void
		return nil
	}
	v, err := p.parseTypedValue()
	if err != nil {
		return err
	}
	in.Type = v.Type
	in.Args = []*ast.Value{v}
	return nil
}

func (p *Parser) parseLabelRef() (string, error) {
	if err := p.expectKeyword("label"); err != nil {
		return "", err
	}
	t, err := p.expect(token.LocalIdent)
	if err != nil {
		return "", err
	}
	return t.Value, nil
}

func (p *Parser) parseBr(in *ast.Instr) error {
	if p.isKeyword("label") {
		target, err := p.parseLabelRef()
		if err != nil {
			return err
		}
		in.Targets = []string{target}
		return nil
	}

	cond, err := p.parseTypedValue()
	if err != nil {
		return err
	}
	if err := p.expectPunct(","); err != nil {
		return err
	}
	ifTrue, err := p.parseLabelRef()
	if err != nil {
		return err
	}
	if err := p.expectPunct(","); err != nil {
		return err
	}
	ifFalse, err := p.parseLabelRef()
	if err != nil {
		return err
	}
	in.Args = []*ast.Value{cond}
	in.Targets = []string{ifTrue, ifFalse}
	return nil
}

func (p *Parser) parseSwitch(in *ast.Instr) error {
	v, err := p.parseTypedValue()
	if err != nil {
		return err
	}
	if err := p.expectPunct(","); err != nil {
		return err
	}
	def, err := p.parseLabelRef()
	if err != nil {
		return err
	}
	in.Type = v.Type
	in.Args = []*ast.Value{v}
	in.Targets = []string{def}

	if err := p.expectPunct("["); err != nil {
		return err
	}
	for !p.acceptPunct("]") {
		cv, err := p.parseTypedValue()
		if err != nil {
			return err
		}
		if cv.Kind != ast.ValueInt {
			return token.Errorf(in.Line, "switch case must be an integer constant, got %s", cv)
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		label, err := p.parseLabelRef()
		if err != nil {
			return err
		}
		in.Cases = append(in.Cases, ast.Case{Value: cv.Int, Label: label})
	}
	return nil
}

func (p *Parser) parseCmp(in *ast.Instr) error {
	p.skipFlags()
	pred, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	in.Pred = pred.Value
	a, b, err := p.parseOperandPair()
	if err != nil {
		return err
	}
	in.Type = ast.I1
	in.Args = []*ast.Value{a, b}
	return nil
}

func (p *Parser) parseBinary(in *ast.Instr) error {
	p.skipFlags()
	a, b, err := p.parseOperandPair()
	if err != nil {
		return err
	}
	in.Type = a.Type
	in.Args = []*ast.Value{a, b}
	return nil
}

// parseOperandPair parses `<ty> a, b`.
func (p *Parser) parseOperandPair() (*ast.Value, *ast.Value, error) {
	a, err := p.parseTypedValue()
	if err != nil {
		return nil, nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, nil, err
	}
	b, err := p.parseValue(a.Type)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func (p *Parser) parseCast(in *ast.Instr) error {
	p.skipFlags()
	v, err := p.parseTypedValue()
	if err != nil {
		return err
	}
	if err := p.expectKeyword("to"); err != nil {
		return err
	}
	to, err := p.parseType()
	if err != nil {
		return err
	}
	in.Type = to
	in.Args = []*ast.Value{v}
	return nil
}

func (p *Parser) parseSelect(in *ast.Instr) error {
	p.skipFlags()
	args := make([]*ast.Value, 3)
	for i := range args {
		if i > 0 {
			if err := p.expectPunct(","); err != nil {
				return err
			}
		}
		v, err := p.parseTypedValue()
		if err != nil {
			return err
		}
		args[i] = v
	}
	in.Type = args[1].Type
	in.Args = args
	return nil
}

func (p *Parser) parsePhi(in *ast.Instr) error {
	p.skipFlags()
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	in.Type = typ
	for {
		if err := p.expectPunct("["); err != nil {
			return err
		}
		v, err := p.parseValue(typ)
		if err != nil {
			return err
		}
		if err := p.expectPunct(","); err != nil {
			return err
		}
		label, err := p.expect(token.LocalIdent)
		if err != nil {
			return err
		}
		if err := p.expectPunct("]"); err != nil {
			return err
		}
		in.Incoming = append(in.Incoming, ast.Incoming{Value: v, Label: label.Value})

		// a trailing comma followed by metadata belongs to the attachments
		if next := p.peekAt(1); !p.isPunct(",") || next == nil || !next.Is(token.Punct, "[") {
			return nil
		}
		p.pos++
	}
}
