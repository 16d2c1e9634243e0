package qirruntime

import "fmt"

// SizeType is the integer size used for QIR counts.
type SizeType = uint64

// ID is an opaque QIR identifier. QIR passes qubits, results, arrays and
// tuples as pointers to opaque types; they are indices, never addresses.
// Each tag instantiates a distinct type, so identifiers cannot be mixed.
type ID[T tag] struct {
	Value uint64
}

type tag interface {
	kind() string
}

type (
	qubitTag  struct{}
	resultTag struct{}
	arrayTag  struct{}
	tupleTag  struct{}
)

func (qubitTag) kind() string  { return "qubit" }
func (resultTag) kind() string { return "result" }
func (arrayTag) kind() string  { return "array" }
func (tupleTag) kind() string  { return "tuple" }

type (
	Qubit  = ID[qubitTag]
	Result = ID[resultTag]
	Array  = ID[arrayTag]
	Tuple  = ID[tupleTag]
)

// Less orders identifiers of the same kind.
func (id ID[T]) Less(other ID[T]) bool {
	return id.Value < other.Value
}

func (id ID[T]) String() string {
	var t T
	return fmt.Sprintf("%s(%d)", t.kind(), id.Value)
}

// QState is a measured qubit state.
type QState bool

const (
	Zero QState = false // |0>
	One  QState = true  // |1>
)

func (s QState) String() string {
	if s {
		return "1"
	}
	return "0"
}

// Tag is an optional output label passed by the program as a nullable C string.
type Tag struct {
	text  string
	valid bool
}

// NoTag is the null tag.
var NoTag = Tag{}

// NewTag returns a non-null tag.
func NewTag(s string) Tag {
	return Tag{text: s, valid: true}
}

// Get returns the tag text and whether the tag was non-null.
func (t Tag) Get() (string, bool) {
	return t.text, t.valid
}

// Valid reports whether the tag was non-null.
func (t Tag) Valid() bool {
	return t.valid
}

func (t Tag) String() string {
	if !t.valid {
		return "<null>"
	}
	return t.text
}

// CallableSpecialization is the suffix of a QIS function declaration.
type CallableSpecialization int

const (
	Body CallableSpecialization = iota
	Adj
	Ctl
	CtlAdj
)

func (c CallableSpecialization) String() string {
	switch c {
	case Adj:
		return "adj"
	case Ctl:
		return "ctl"
	case CtlAdj:
		return "ctladj"
	default:
		return "body"
	}
}
