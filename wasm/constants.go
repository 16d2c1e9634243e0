package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs. Sections are written in increasing ID order.
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionExport   byte = 7
	SectionCode     byte = 10
	SectionData     byte = 11
)

// Import/Export descriptor kinds.
const (
	KindFunc   byte = 0
	KindMemory byte = 2
)

// Value type encodings.
const (
	ValI32 ValType = 0x7F
	ValI64 ValType = 0x7E
	ValF32 ValType = 0x7D
	ValF64 ValType = 0x7C
)

// FuncTypeByte prefixes a function type in the type section.
const FuncTypeByte byte = 0x60

// BlockVoid is the empty block type.
const BlockVoid byte = 0x40

// Control instructions
const (
	OpUnreachable byte = 0x00
	OpBlock       byte = 0x02
	OpLoop        byte = 0x03
	OpIf          byte = 0x04
	OpElse        byte = 0x05
	OpEnd         byte = 0x0B
	OpBr          byte = 0x0C
	OpBrTable     byte = 0x0E
	OpReturn      byte = 0x0F
	OpCall        byte = 0x10
)

// Parametric and variable instructions
const (
	OpDrop     byte = 0x1A
	OpSelect   byte = 0x1B
	OpLocalGet byte = 0x20
	OpLocalSet byte = 0x21
)

// Constants
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
	OpF32Const byte = 0x43
	OpF64Const byte = 0x44
)

// i32 comparison
const (
	OpI32Eqz byte = 0x45
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtS byte = 0x48
	OpI32LtU byte = 0x49
	OpI32GtS byte = 0x4A
	OpI32GtU byte = 0x4B
	OpI32LeS byte = 0x4C
	OpI32LeU byte = 0x4D
	OpI32GeS byte = 0x4E
	OpI32GeU byte = 0x4F
)

// i64 comparison
const (
	OpI64Eq  byte = 0x51
	OpI64Ne  byte = 0x52
	OpI64LtS byte = 0x53
	OpI64LtU byte = 0x54
	OpI64GtS byte = 0x55
	OpI64GtU byte = 0x56
	OpI64LeS byte = 0x57
	OpI64LeU byte = 0x58
	OpI64GeS byte = 0x59
	OpI64GeU byte = 0x5A
)

// f32 comparison
const (
	OpF32Eq byte = 0x5B
	OpF32Ne byte = 0x5C
	OpF32Lt byte = 0x5D
	OpF32Gt byte = 0x5E
	OpF32Le byte = 0x5F
	OpF32Ge byte = 0x60
)

// f64 comparison
const (
	OpF64Eq byte = 0x61
	OpF64Ne byte = 0x62
	OpF64Lt byte = 0x63
	OpF64Gt byte = 0x64
	OpF64Le byte = 0x65
	OpF64Ge byte = 0x66
)

// i32 arithmetic
const (
	OpI32Add  byte = 0x6A
	OpI32Sub  byte = 0x6B
	OpI32Mul  byte = 0x6C
	OpI32DivS byte = 0x6D
	OpI32DivU byte = 0x6E
	OpI32RemS byte = 0x6F
	OpI32RemU byte = 0x70
	OpI32And  byte = 0x71
	OpI32Or   byte = 0x72
	OpI32Xor  byte = 0x73
	OpI32Shl  byte = 0x74
	OpI32ShrS byte = 0x75
	OpI32ShrU byte = 0x76
)

// i64 arithmetic
const (
	OpI64Add  byte = 0x7C
	OpI64Sub  byte = 0x7D
	OpI64Mul  byte = 0x7E
	OpI64DivS byte = 0x7F
	OpI64DivU byte = 0x80
	OpI64RemS byte = 0x81
	OpI64RemU byte = 0x82
	OpI64And  byte = 0x83
	OpI64Or   byte = 0x84
	OpI64Xor  byte = 0x85
	OpI64Shl  byte = 0x86
	OpI64ShrS byte = 0x87
	OpI64ShrU byte = 0x88
)

// Float arithmetic
const (
	OpF32Neg byte = 0x8C
	OpF32Add byte = 0x92
	OpF32Sub byte = 0x93
	OpF32Mul byte = 0x94
	OpF32Div byte = 0x95

	OpF64Neg byte = 0x9A
	OpF64Add byte = 0xA0
	OpF64Sub byte = 0xA1
	OpF64Mul byte = 0xA2
	OpF64Div byte = 0xA3
)

// Conversions
const (
	OpI32WrapI64      byte = 0xA7
	OpI32TruncF32S    byte = 0xA8
	OpI32TruncF32U    byte = 0xA9
	OpI32TruncF64S    byte = 0xAA
	OpI32TruncF64U    byte = 0xAB
	OpI64ExtendI32S   byte = 0xAC
	OpI64ExtendI32U   byte = 0xAD
	OpI64TruncF32S    byte = 0xAE
	OpI64TruncF32U    byte = 0xAF
	OpI64TruncF64S    byte = 0xB0
	OpI64TruncF64U    byte = 0xB1
	OpF32ConvertI32S  byte = 0xB2
	OpF32ConvertI32U  byte = 0xB3
	OpF32ConvertI64S  byte = 0xB4
	OpF32ConvertI64U  byte = 0xB5
	OpF32DemoteF64    byte = 0xB6
	OpF64ConvertI32S  byte = 0xB7
	OpF64ConvertI32U  byte = 0xB8
	OpF64ConvertI64S  byte = 0xB9
	OpF64ConvertI64U  byte = 0xBA
	OpF64PromoteF32   byte = 0xBB
	OpI32ReinterpretF byte = 0xBC
	OpI64ReinterpretF byte = 0xBD
	OpF32ReinterpretI byte = 0xBE
	OpF64ReinterpretI byte = 0xBF
)
