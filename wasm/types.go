package wasm

// Module is a WebAssembly module under construction. Function indices
// count imports first, then Funcs.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // type indices of defined functions
	Memories []MemoryType
	Exports  []Export
	Code     []FuncBody
	Data     []DataSegment
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether two signatures are identical.
func (ft FuncType) Equal(other FuncType) bool {
	if len(ft.Params) != len(other.Params) || len(ft.Results) != len(other.Results) {
		return false
	}
	for i, p := range ft.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range ft.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

// ValType is a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Import is a function import.
type Import struct {
	Module  string
	Name    string
	TypeIdx uint32
}

// Export exports a function or memory.
type Export struct {
	Name  string
	Kind  byte
	Index uint32
}

// MemoryType describes a linear memory in 64KiB pages.
type MemoryType struct {
	Max *uint32
	Min uint32
}

// LocalEntry declares Count locals of one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// FuncBody is a function's locals and instruction stream. Code includes the
// final end opcode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte
}

// DataSegment initialises memory 0 at a constant offset.
type DataSegment struct {
	Init   []byte
	Offset uint32
}

// AddType returns the index of ft, appending it if not yet present.
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	m.Types = append(m.Types, ft)
	return uint32(len(m.Types) - 1)
}

// AddImport appends a function import and returns its function index.
// Imports must be added before any function is defined.
func (m *Module) AddImport(module, name string, ft FuncType) uint32 {
	if len(m.Funcs) > 0 {
		panic("wasm: import added after function definitions")
	}
	m.Imports = append(m.Imports, Import{Module: module, Name: name, TypeIdx: m.AddType(ft)})
	return uint32(len(m.Imports) - 1)
}

// AddFunc appends a function definition and returns its function index.
func (m *Module) AddFunc(ft FuncType, body FuncBody) uint32 {
	m.Funcs = append(m.Funcs, m.AddType(ft))
	m.Code = append(m.Code, body)
	return uint32(len(m.Imports) + len(m.Funcs) - 1)
}

// ExportFunc exports a function index under name.
func (m *Module) ExportFunc(name string, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: KindFunc, Index: idx})
}
