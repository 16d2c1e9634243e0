package ast

import (
	"strconv"
	"strings"
)

// TypeKind classifies an IR type.
type TypeKind int

const (
	TypeVoid TypeKind = iota
	TypeInt
	TypeHalf
	TypeFloat
	TypeDouble
	TypePtr
	TypeNamed
	TypeArray
	TypeVector
	TypeStruct
	TypeFunc
	TypeLabel
	TypeMetadata
	TypeToken
)

// Type is an IR type. Pointers with a nil Elem are opaque (`ptr`).
type Type struct {
	Elem     *Type
	Ret      *Type
	Name     string
	Fields   []*Type // struct fields or function parameters
	Len      uint64
	Kind     TypeKind
	Bits     int
	Variadic bool
	Packed   bool
}

// Common types.
var (
	Void   = &Type{Kind: TypeVoid}
	I1     = &Type{Kind: TypeInt, Bits: 1}
	I8     = &Type{Kind: TypeInt, Bits: 8}
	I32    = &Type{Kind: TypeInt, Bits: 32}
	I64    = &Type{Kind: TypeInt, Bits: 64}
	Double = &Type{Kind: TypeDouble}
	Ptr    = &Type{Kind: TypePtr}
)

// Int returns an integer type of the given width.
func Int(bits int) *Type {
	return &Type{Kind: TypeInt, Bits: bits}
}

// PointerTo returns a typed pointer to elem.
func PointerTo(elem *Type) *Type {
	return &Type{Kind: TypePtr, Elem: elem}
}

// IsInt reports whether t is an integer type.
func (t *Type) IsInt() bool { return t != nil && t.Kind == TypeInt }

// IsPtr reports whether t is a pointer type.
func (t *Type) IsPtr() bool { return t != nil && t.Kind == TypePtr }

// IsFloat reports whether t is a floating point type.
func (t *Type) IsFloat() bool {
	return t != nil && (t.Kind == TypeHalf || t.Kind == TypeFloat || t.Kind == TypeDouble)
}

// IsVoid reports whether t is void.
func (t *Type) IsVoid() bool { return t == nil || t.Kind == TypeVoid }

// Equal reports structural equality. Named types compare by name.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case TypeInt:
		return t.Bits == o.Bits
	case TypeNamed:
		return t.Name == o.Name
	case TypePtr:
		if t.Elem == nil || o.Elem == nil {
			return t.Elem == nil && o.Elem == nil
		}
		return t.Elem.Equal(o.Elem)
	case TypeArray, TypeVector:
		return t.Len == o.Len && t.Elem.Equal(o.Elem)
	case TypeStruct:
		return t.Packed == o.Packed && typesEqual(t.Fields, o.Fields)
	case TypeFunc:
		return t.Variadic == o.Variadic && t.Ret.Equal(o.Ret) && typesEqual(t.Fields, o.Fields)
	}
	return true
}

func typesEqual(a, b []*Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// String renders the type in IR syntax.
func (t *Type) String() string {
	if t == nil {
		return "void"
	}
	switch t.Kind {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "i" + strconv.Itoa(t.Bits)
	case TypeHalf:
		return "half"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypePtr:
		if t.Elem == nil {
			return "ptr"
		}
		return t.Elem.String() + "*"
	case TypeNamed:
		return "%" + t.Name
	case TypeArray:
		return "[" + strconv.FormatUint(t.Len, 10) + " x " + t.Elem.String() + "]"
	case TypeVector:
		return "<" + strconv.FormatUint(t.Len, 10) + " x " + t.Elem.String() + ">"
	case TypeStruct:
		s := "{ " + joinTypes(t.Fields) + " }"
		if t.Packed {
			return "<" + s + ">"
		}
		return s
	case TypeFunc:
		params := joinTypes(t.Fields)
		if t.Variadic {
			if params != "" {
				params += ", "
			}
			params += "..."
		}
		return t.Ret.String() + " (" + params + ")"
	case TypeLabel:
		return "label"
	case TypeMetadata:
		return "metadata"
	case TypeToken:
		return "token"
	}
	return "?"
}

func joinTypes(ts []*Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}
