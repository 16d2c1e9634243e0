package parser

import (
	"strconv"
	"strings"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/ll/internal/token"
)

func (p *Parser) parseModule() error {
	for {
		t := p.peek()
		if t == nil {
			return nil
		}

		var err error
		switch t.Type {
		case token.Ident:
			switch {
			case t.Value == "source_filename":
				err = p.parseSourceFilename()
			case t.Value == "target":
				err = p.parseTarget()
			case t.Value == "define":
				err = p.parseFunc(true)
			case t.Value == "declare":
				err = p.parseFunc(false)
			case t.Value == "attributes":
				err = p.parseAttrGroup()
			case t.Value == "module", t.Value == "uselistorder", t.Value == "uselistorder_bb",
				strings.HasPrefix(t.Value, "$"):
				p.skipLine(t.Line)
			default:
				return token.Errorf(t.Line, "unexpected %q at top level", t.Value)
			}
		case token.LocalIdent:
			err = p.parseTypeDef()
		case token.GlobalIdent:
			err = p.parseGlobal()
		case token.MetaIdent:
			err = p.parseMetadataDef()
		default:
			return token.Errorf(t.Line, "unexpected %q at top level", t.Value)
		}
		if err != nil {
			return err
		}
	}
}

func (p *Parser) parseSourceFilename() error {
	p.next()
	if err := p.expectPunct("="); err != nil {
		return err
	}
	s, err := p.expect(token.String)
	if err != nil {
		return err
	}
	p.mod.SourceFilename = s.Value
	return nil
}

func (p *Parser) parseTarget() error {
	p.next()
	kw, err := p.expect(token.Ident)
	if err != nil {
		return err
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	s, err := p.expect(token.String)
	if err != nil {
		return err
	}
	if kw.Value == "triple" {
		p.mod.Target = s.Value
	}
	return nil
}

// parseTypeDef parses `%Name = type opaque` or `%Name = type <type>`.
func (p *Parser) parseTypeDef() error {
	name := p.next()
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if err := p.expectKeyword("type"); err != nil {
		return err
	}
	if p.acceptKeyword("opaque") {
		p.mod.NamedTypes[name.Value] = nil
		return nil
	}
	typ, err := p.parseType()
	if err != nil {
		return err
	}
	p.mod.NamedTypes[name.Value] = typ
	return nil
}

func (p *Parser) parseGlobal() error {
	name := p.next()
	if err := p.expectPunct("="); err != nil {
		return err
	}

	g := &ast.Global{Name: name.Value, Line: name.Line}
	external := false
	for {
		t := p.next()
		if t == nil {
			return p.errorf("unexpected end of input in global @%s", name.Value)
		}
		if t.Type != token.Ident {
			return token.Errorf(t.Line, "expected 'global' or 'constant', got %q", t.Value)
		}
		if t.Value == "global" || t.Value == "constant" {
			g.Constant = t.Value == "constant"
			break
		}
		if t.Value == "external" || t.Value == "extern_weak" {
			external = true
		}
		if p.isPunct("(") {
			if err := p.skipBalanced(); err != nil {
				return err
			}
		}
	}

	typ, err := p.parseType()
	if err != nil {
		return err
	}
	g.Type = typ

	if t := p.peek(); !external && t != nil && t.Line == name.Line && p.isValueStart() {
		init, err := p.parseValue(typ)
		if err != nil {
			return err
		}
		g.Init = init
	}

	// alignment, section and metadata attachments
	p.skipLine(name.Line)
	p.mod.Globals = append(p.mod.Globals, g)
	return nil
}

// parseAttrGroup parses `attributes #N = { ... }`.
func (p *Parser) parseAttrGroup() error {
	p.next()
	ref, err := p.expect(token.AttrRef)
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(ref.Value)
	if err != nil {
		return token.Errorf(ref.Line, "invalid attribute group #%s", ref.Value)
	}
	if err := p.expectPunct("="); err != nil {
		return err
	}
	if err := p.expectPunct("{"); err != nil {
		return err
	}

	attrs := ast.Attributes{}
	for !p.acceptPunct("}") {
		if err := p.parseAttr(attrs); err != nil {
			return err
		}
	}
	p.mod.AttrGroups[id] = attrs
	return nil
}

// parseAttr parses a single string or keyword attribute into attrs.
func (p *Parser) parseAttr(attrs ast.Attributes) error {
	t := p.next()
	if t == nil {
		return p.errorf("unexpected end of input in attributes")
	}
	switch t.Type {
	case token.String:
		value := ""
		if p.acceptPunct("=") {
			v, err := p.expect(token.String)
			if err != nil {
				return err
			}
			value = v.Value
		}
		attrs[t.Value] = value
	case token.Ident:
		value := ""
		switch {
		case p.isPunct("("):
			if err := p.skipBalanced(); err != nil {
				return err
			}
		case p.acceptPunct("="):
			v := p.next()
			if v == nil {
				return p.errorf("unexpected end of input in attributes")
			}
			value = v.Value
		}
		attrs[t.Value] = value
	default:
		return token.Errorf(t.Line, "unexpected %q in attributes", t.Value)
	}
	return nil
}

func (p *Parser) parseMetadataDef() error {
	name := p.next()
	if err := p.expectPunct("="); err != nil {
		return err
	}

	id, numErr := strconv.Atoi(name.Value)
	if numErr != nil {
		refs, err := p.parseNamedMetadata()
		if err != nil {
			return err
		}
		p.mod.NamedMetadata[name.Value] = refs
		return nil
	}

	node := &ast.MDNode{Distinct: p.acceptKeyword("distinct")}
	t := p.peek()
	switch {
	case t == nil:
		return p.errorf("unexpected end of input in metadata !%s", name.Value)
	case t.Is(token.Punct, "!{"):
		p.next()
		elems, err := p.parseMDElems()
		if err != nil {
			return err
		}
		node.Elems = elems
	case t.Type == token.MetaIdent:
		p.next()
		node.Specialized = t.Value
		if p.isPunct("(") {
			if err := p.skipBalanced(); err != nil {
				return err
			}
		}
	default:
		return token.Errorf(t.Line, "unexpected %q in metadata !%s", t.Value, name.Value)
	}
	p.mod.Metadata[id] = node
	return nil
}

func (p *Parser) parseNamedMetadata() ([]int, error) {
	if err := p.expectPunct("!{"); err != nil {
		return nil, err
	}
	var refs []int
	for !p.acceptPunct("}") {
		t, err := p.expect(token.MetaIdent)
		if err != nil {
			return nil, err
		}
		id, err := strconv.Atoi(t.Value)
		if err != nil {
			return nil, token.Errorf(t.Line, "expected numbered metadata, got !%s", t.Value)
		}
		refs = append(refs, id)
		if !p.acceptPunct(",") && !p.isPunct("}") {
			return nil, p.errorf("expected ',' or '}' in named metadata")
		}
	}
	return refs, nil
}

// parseMDElems parses generic node operands after the opening "!{".
func (p *Parser) parseMDElems() ([]ast.MDValue, error) {
	var elems []ast.MDValue
	for !p.acceptPunct("}") {
		v, err := p.parseMDElem()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		if !p.acceptPunct(",") && !p.isPunct("}") {
			return nil, p.errorf("expected ',' or '}' in metadata node")
		}
	}
	return elems, nil
}

func (p *Parser) parseMDElem() (ast.MDValue, error) {
	t := p.peek()
	if t == nil {
		return ast.MDValue{}, p.errorf("unexpected end of input in metadata node")
	}
	switch {
	case t.Type == token.MetaString:
		p.next()
		return ast.MDValue{Kind: ast.MDString, Str: t.Value}, nil
	case t.Type == token.MetaIdent:
		p.next()
		if id, err := strconv.Atoi(t.Value); err == nil {
			return ast.MDValue{Kind: ast.MDRef, Ref: id}, nil
		}
		if p.isPunct("(") {
			if err := p.skipBalanced(); err != nil {
				return ast.MDValue{}, err
			}
		}
		return ast.MDValue{Kind: ast.MDOther}, nil
	case t.Is(token.Punct, "!{"):
		if err := p.skipBalanced(); err != nil {
			return ast.MDValue{}, err
		}
		return ast.MDValue{Kind: ast.MDOther}, nil
	case t.Is(token.Ident, "null"):
		p.next()
		return ast.MDValue{Kind: ast.MDNull}, nil
	}

	v, err := p.parseTypedValue()
	if err != nil {
		return ast.MDValue{}, err
	}
	if v.Kind == ast.ValueInt {
		return ast.MDValue{Kind: ast.MDInt, Int: v.Int}, nil
	}
	return ast.MDValue{Kind: ast.MDOther}, nil
}
