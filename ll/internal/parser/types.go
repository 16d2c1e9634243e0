package parser

import (
	"math"
	"strconv"
	"strings"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/ll/internal/token"
)

var primitiveTypes = map[string]ast.TypeKind{
	"void":     ast.TypeVoid,
	"half":     ast.TypeHalf,
	"float":    ast.TypeFloat,
	"double":   ast.TypeDouble,
	"ptr":      ast.TypePtr,
	"label":    ast.TypeLabel,
	"metadata": ast.TypeMetadata,
	"token":    ast.TypeToken,
}

func intWidth(s string) (int, bool) {
	if len(s) < 2 || s[0] != 'i' {
		return 0, false
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (p *Parser) isTypeStart() bool {
	t := p.peek()
	if t == nil {
		return false
	}
	switch t.Type {
	case token.LocalIdent:
		return true
	case token.Ident:
		if _, ok := primitiveTypes[t.Value]; ok {
			return true
		}
		_, ok := intWidth(t.Value)
		return ok
	case token.Punct:
		return t.Value == "[" || t.Value == "{" || t.Value == "<"
	}
	return false
}

func (p *Parser) parseType() (*ast.Type, error) {
	typ, err := p.parseBaseType()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("*"):
			p.pos++
			typ = ast.PointerTo(typ)
		case p.isKeyword("addrspace"):
			p.pos++
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			if err := p.expectPunct("*"); err != nil {
				return nil, err
			}
			typ = ast.PointerTo(typ)
		case p.isPunct("("):
			ft, err := p.parseFuncTypeParams(typ)
			if err != nil {
				return nil, err
			}
			typ = ft
		default:
			return typ, nil
		}
	}
}

func (p *Parser) parseBaseType() (*ast.Type, error) {
	t := p.next()
	if t == nil {
		return nil, p.errorf("unexpected end of input, expected type")
	}
	switch t.Type {
	case token.LocalIdent:
		return &ast.Type{Kind: ast.TypeNamed, Name: t.Value}, nil
	case token.Ident:
		if kind, ok := primitiveTypes[t.Value]; ok {
			if kind == ast.TypePtr && p.isKeyword("addrspace") {
				p.pos++
				if err := p.skipBalanced(); err != nil {
					return nil, err
				}
			}
			return &ast.Type{Kind: kind}, nil
		}
		if bits, ok := intWidth(t.Value); ok {
			return ast.Int(bits), nil
		}
	case token.Punct:
		switch t.Value {
		case "[":
			return p.parseSequenceType(ast.TypeArray, "]")
		case "{":
			fields, err := p.parseStructFields()
			if err != nil {
				return nil, err
			}
			return &ast.Type{Kind: ast.TypeStruct, Fields: fields}, nil
		case "<":
			if p.acceptPunct("{") {
				fields, err := p.parseStructFields()
				if err != nil {
					return nil, err
				}
				if err := p.expectPunct(">"); err != nil {
					return nil, err
				}
				return &ast.Type{Kind: ast.TypeStruct, Fields: fields, Packed: true}, nil
			}
			return p.parseSequenceType(ast.TypeVector, ">")
		}
	}
	return nil, token.Errorf(t.Line, "expected type, got %q", t.Value)
}

// parseSequenceType parses `N x T` followed by the closing bracket.
func (p *Parser) parseSequenceType(kind ast.TypeKind, closer string) (*ast.Type, error) {
	n, err := p.parseUint()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("x"); err != nil {
		return nil, err
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(closer); err != nil {
		return nil, err
	}
	return &ast.Type{Kind: kind, Len: n, Elem: elem}, nil
}

func (p *Parser) parseStructFields() ([]*ast.Type, error) {
	var fields []*ast.Type
	if p.acceptPunct("}") {
		return fields, nil
	}
	for {
		f, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.acceptPunct("}") {
			return fields, nil
		}
		if err := p.expectPunct(","); err != nil {
			return nil, err
		}
	}
}

func (p *Parser) parseFuncTypeParams(ret *ast.Type) (*ast.Type, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	ft := &ast.Type{Kind: ast.TypeFunc, Ret: ret}
	for !p.acceptPunct(")") {
		if p.acceptPunct("...") {
			ft.Variadic = true
			continue
		}
		pt, err := p.parseType()
		if err != nil {
			return nil, err
		}
		ft.Fields = append(ft.Fields, pt)
		if !p.acceptPunct(",") && !p.isPunct(")") {
			return nil, p.errorf("expected ',' or ')' in function type")
		}
	}
	return ft, nil
}

var constKeywords = map[string]bool{
	"true": true, "false": true, "null": true, "undef": true, "poison": true,
	"zeroinitializer": true, "none": true,
	"inttoptr": true, "ptrtoint": true, "bitcast": true, "addrspacecast": true,
	"getelementptr": true,
}

func (p *Parser) isValueStart() bool {
	t := p.peek()
	if t == nil {
		return false
	}
	switch t.Type {
	case token.LocalIdent, token.GlobalIdent, token.Int, token.Float, token.CString,
		token.MetaIdent, token.MetaString:
		return true
	case token.Ident:
		return constKeywords[t.Value]
	case token.Punct:
		return t.Value == "!{" || t.Value == "[" || t.Value == "<"
	}
	return false
}

func (p *Parser) parseTypedValue() (*ast.Value, error) {
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	return p.parseValue(typ)
}

// parseValue parses an operand of the given type.
func (p *Parser) parseValue(typ *ast.Type) (*ast.Value, error) {
	t := p.next()
	if t == nil {
		return nil, p.errorf("unexpected end of input, expected value")
	}

	switch t.Type {
	case token.LocalIdent:
		return &ast.Value{Kind: ast.ValueLocal, Type: typ, Name: t.Value}, nil
	case token.GlobalIdent:
		return &ast.Value{Kind: ast.ValueGlobal, Type: typ, Name: t.Value}, nil
	case token.Int:
		if typ.IsFloat() {
			f, err := strconv.ParseFloat(t.Value, 64)
			if err != nil {
				return nil, token.Errorf(t.Line, "invalid float %q", t.Value)
			}
			return &ast.Value{Kind: ast.ValueFloat, Type: typ, Float: f}, nil
		}
		v, err := parseInt(t)
		if err != nil {
			return nil, err
		}
		return &ast.Value{Kind: ast.ValueInt, Type: typ, Int: v}, nil
	case token.Float:
		f, err := parseFloat(t)
		if err != nil {
			return nil, err
		}
		return &ast.Value{Kind: ast.ValueFloat, Type: typ, Float: f}, nil
	case token.CString:
		return &ast.Value{Kind: ast.ValueBytes, Type: typ, Bytes: []byte(t.Value)}, nil
	case token.MetaIdent, token.MetaString:
		if p.isPunct("(") {
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
		}
		return &ast.Value{Kind: ast.ValueUndef, Type: typ}, nil
	case token.Punct:
		if t.Value == "!{" {
			p.pos--
			if err := p.skipBalanced(); err != nil {
				return nil, err
			}
			return &ast.Value{Kind: ast.ValueUndef, Type: typ}, nil
		}
	case token.Ident:
		switch t.Value {
		case "true":
			return &ast.Value{Kind: ast.ValueInt, Type: typ, Int: 1}, nil
		case "false":
			return &ast.Value{Kind: ast.ValueInt, Type: typ, Int: 0}, nil
		case "null", "none":
			return &ast.Value{Kind: ast.ValueNull, Type: typ}, nil
		case "undef", "poison":
			return &ast.Value{Kind: ast.ValueUndef, Type: typ}, nil
		case "zeroinitializer":
			return &ast.Value{Kind: ast.ValueZero, Type: typ}, nil
		case "inttoptr", "ptrtoint", "bitcast", "addrspacecast":
			return p.parseCastExpr(t, typ)
		case "getelementptr":
			return p.parseGEPExpr(t, typ)
		}
	}
	return nil, token.Errorf(t.Line, "unsupported value %q", t.Value)
}

func parseFloat(t *token.Token) (float64, error) {
	if strings.HasPrefix(t.Value, "0x") || strings.HasPrefix(t.Value, "0X") {
		bits, err := strconv.ParseUint(t.Value[2:], 16, 64)
		if err != nil {
			return 0, token.Errorf(t.Line, "invalid hex float %q", t.Value)
		}
		return math.Float64frombits(bits), nil
	}
	f, err := strconv.ParseFloat(t.Value, 64)
	if err != nil {
		return 0, token.Errorf(t.Line, "invalid float %q", t.Value)
	}
	return f, nil
}

func (p *Parser) parseCastExpr(op *token.Token, typ *ast.Type) (*ast.Value, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	inner, err := p.parseTypedValue()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("to"); err != nil {
		return nil, err
	}
	to, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}

	if op.Value == "inttoptr" {
		switch inner.Kind {
		case ast.ValueInt:
			return &ast.Value{Kind: ast.ValueIntToPtr, Type: to, Int: inner.Int}, nil
		case ast.ValueNull, ast.ValueZero:
			return &ast.Value{Kind: ast.ValueIntToPtr, Type: to}, nil
		}
		return nil, token.Errorf(op.Line, "unsupported inttoptr operand %s", inner)
	}

	cp := *inner
	cp.Type = to
	return &cp, nil
}

func (p *Parser) parseGEPExpr(op *token.Token, typ *ast.Type) (*ast.Value, error) {
	for p.isKeyword("inbounds") || p.isKeyword("nuw") || p.isKeyword("nusw") {
		p.pos++
	}
	if p.acceptKeyword("inrange") {
		if err := p.skipBalanced(); err != nil {
			return nil, err
		}
	}
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	elem, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(","); err != nil {
		return nil, err
	}
	base, err := p.parseTypedValue()
	if err != nil {
		return nil, err
	}
	if base.Kind != ast.ValueGlobal {
		return nil, token.Errorf(op.Line, "unsupported getelementptr base %s", base)
	}

	v := &ast.Value{Kind: ast.ValueGEP, Type: typ, Elem: elem, Name: base.Name}
	for p.acceptPunct(",") {
		if p.acceptKeyword("inrange") {
			continue
		}
		idx, err := p.parseTypedValue()
		if err != nil {
			return nil, err
		}
		switch idx.Kind {
		case ast.ValueInt:
			v.Indices = append(v.Indices, idx.Int)
		case ast.ValueZero, ast.ValueNull:
			v.Indices = append(v.Indices, 0)
		default:
			return nil, token.Errorf(op.Line, "non-constant getelementptr index %s", idx)
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return v, nil
}
