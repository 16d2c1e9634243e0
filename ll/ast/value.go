package ast

import (
	"strconv"
	"strings"
)

// ValueKind classifies an operand.
type ValueKind int

const (
	ValueLocal ValueKind = iota
	ValueGlobal
	ValueInt
	ValueFloat
	ValueNull
	ValueUndef
	ValueZero
	ValueBytes
	ValueIntToPtr
	ValueGEP
)

// Value is an instruction operand or constant.
type Value struct {
	Type    *Type
	Elem    *Type // source element type of a constant getelementptr
	Name    string
	Bytes   []byte
	Indices []int64
	Int     int64
	Float   float64
	Kind    ValueKind
}

// IsConst reports whether the value is a compile-time constant.
func (v *Value) IsConst() bool {
	return v.Kind != ValueLocal
}

func (v *Value) String() string {
	switch v.Kind {
	case ValueLocal:
		return "%" + v.Name
	case ValueGlobal:
		return "@" + v.Name
	case ValueInt:
		if v.Type != nil && v.Type.Kind == TypeInt && v.Type.Bits == 1 {
			if v.Int != 0 {
				return "true"
			}
			return "false"
		}
		return strconv.FormatInt(v.Int, 10)
	case ValueFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ValueNull:
		return "null"
	case ValueUndef:
		return "undef"
	case ValueZero:
		return "zeroinitializer"
	case ValueBytes:
		return "c" + strconv.Quote(string(v.Bytes))
	case ValueIntToPtr:
		return "inttoptr (i64 " + strconv.FormatInt(v.Int, 10) + " to " + v.Type.String() + ")"
	case ValueGEP:
		idx := make([]string, len(v.Indices))
		for i, n := range v.Indices {
			idx[i] = strconv.FormatInt(n, 10)
		}
		return "getelementptr (@" + v.Name + ", " + strings.Join(idx, ", ") + ")"
	}
	return "?"
}

// MDKind classifies a metadata operand.
type MDKind int

const (
	MDInt MDKind = iota
	MDString
	MDRef
	MDNull
	MDOther
)

// MDValue is a metadata node operand.
type MDValue struct {
	Str  string
	Int  int64
	Ref  int
	Kind MDKind
}

// Bool interprets an integer operand as a flag.
func (v MDValue) Bool() bool {
	return v.Kind == MDInt && v.Int != 0
}

// MDNode is a numbered generic metadata node. Specialized nodes such as
// debug locations are kept with no operands.
type MDNode struct {
	Elems       []MDValue
	Specialized string
	Distinct    bool
}
