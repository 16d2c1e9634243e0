package ast

import (
	"sort"
	"strconv"
	"strings"
)

// Module is a parsed IR module.
type Module struct {
	Metadata       map[int]*MDNode
	NamedMetadata  map[string][]int
	AttrGroups     map[int]Attributes
	NamedTypes     map[string]*Type // nil value for opaque types
	SourceFilename string
	Target         string
	Globals        []*Global
	Funcs          []*Func
}

// NewModule returns an empty module.
func NewModule() *Module {
	return &Module{
		Metadata:      make(map[int]*MDNode),
		NamedMetadata: make(map[string][]int),
		AttrGroups:    make(map[int]Attributes),
		NamedTypes:    make(map[string]*Type),
	}
}

// Func returns the routine with the given name, or nil.
func (m *Module) Func(name string) *Func {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global returns the global variable with the given name, or nil.
func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// FuncsWithAttr returns all routines carrying the attribute key, in
// declaration order.
func (m *Module) FuncsWithAttr(key string) []*Func {
	var out []*Func
	for _, f := range m.Funcs {
		if f.Attrs.Has(key) {
			out = append(out, f)
		}
	}
	return out
}

// ModuleFlags resolves !llvm.module.flags into key/value pairs. Each flag
// node is {behavior, !"key", value}.
func (m *Module) ModuleFlags() map[string]MDValue {
	flags := make(map[string]MDValue)
	for _, ref := range m.NamedMetadata["llvm.module.flags"] {
		node := m.Metadata[ref]
		if node == nil || len(node.Elems) != 3 || node.Elems[1].Kind != MDString {
			continue
		}
		flags[node.Elems[1].Str] = node.Elems[2]
	}
	return flags
}

// Global is a module level variable.
type Global struct {
	Type     *Type
	Init     *Value // nil for external globals
	Name     string
	Line     int
	Constant bool
}

// Param is a routine parameter.
type Param struct {
	Type *Type
	Name string
}

// Func is a routine definition or declaration.
type Func struct {
	Attrs      Attributes
	RetType    *Type
	Name       string
	Params     []Param
	Blocks     []*Block
	AttrGroups []int
	Line       int
	Variadic   bool
}

// IsDeclaration reports whether the routine has no body.
func (f *Func) IsDeclaration() bool {
	return len(f.Blocks) == 0
}

// Type returns the routine's function type.
func (f *Func) Type() *Type {
	params := make([]*Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type
	}
	return &Type{Kind: TypeFunc, Ret: f.RetType, Fields: params, Variadic: f.Variadic}
}

// Block returns the basic block with the given label, or nil.
func (f *Func) Block(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// Attributes holds string attributes. Keyword and value-less attributes map
// to the empty string.
type Attributes map[string]string

// Has reports whether the attribute is present.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Get returns the attribute value.
func (a Attributes) Get(key string) (string, bool) {
	v, ok := a[key]
	return v, ok
}

// Keys returns the attribute names sorted.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (a Attributes) String() string {
	var parts []string
	for _, k := range a.Keys() {
		if v := a[k]; v != "" {
			parts = append(parts, strconv.Quote(k)+"="+strconv.Quote(v))
		} else {
			parts = append(parts, strconv.Quote(k))
		}
	}
	return strings.Join(parts, " ")
}

// Block is a basic block. Term is the terminator and is never nil in a
// parsed module.
type Block struct {
	Term   *Instr
	Label  string
	Instrs []*Instr
}

// Instr is a single instruction.
//
// Operand layout by opcode:
//
//	call      Callee, Args
//	ret       Args[0] if non-void
//	br        Targets[0], or Args[0] with Targets[true, false]
//	switch    Args[0], Targets[0] default, Cases
//	icmp/fcmp Pred, Args[0..1]
//	binops    Args[0..1]
//	casts     Args[0], Type is the destination type
//	select    Args[0..2]
//	phi       Incoming
type Instr struct {
	Type     *Type // result type, or the operand type for ret/switch
	Op       string
	Name     string
	Pred     string
	Callee   string
	Args     []*Value
	Targets  []string
	Incoming []Incoming
	Cases    []Case
	Line     int
	Indirect bool // call through a non-constant pointer
	Opaque   bool // parsed only up to its opcode
}

// IsTerminator reports whether the instruction ends a block.
func (i *Instr) IsTerminator() bool {
	return IsTerminator(i.Op)
}

// IsTerminator reports whether op names a terminator instruction.
func IsTerminator(op string) bool {
	switch op {
	case "ret", "br", "switch", "unreachable", "indirectbr", "invoke",
		"resume", "callbr", "catchswitch", "catchret", "cleanupret":
		return true
	}
	return false
}

// Incoming is a phi operand.
type Incoming struct {
	Value *Value
	Label string
}

// Case is a switch arm.
type Case struct {
	Label string
	Value int64
}
