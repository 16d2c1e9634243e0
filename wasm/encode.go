package wasm

import (
	"github.com/wippyai/qir-runtime/wasm/internal/binary"
)

// Encode encodes the module to WebAssembly binary format
func (m *Module) Encode() []byte {
	w := binary.NewWriter()

	w.U32LE(Magic)
	w.U32LE(Version)

	if len(m.Types) > 0 {
		sec := binary.NewWriter()
		sec.U32(uint32(len(m.Types)))
		for _, ft := range m.Types {
			sec.Byte(FuncTypeByte)
			writeValTypes(sec, ft.Params)
			writeValTypes(sec, ft.Results)
		}
		w.Section(SectionType, sec.Bytes())
	}

	if len(m.Imports) > 0 {
		sec := binary.NewWriter()
		sec.U32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.Name(imp.Module)
			sec.Name(imp.Name)
			sec.Byte(KindFunc)
			sec.U32(imp.TypeIdx)
		}
		w.Section(SectionImport, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		sec := binary.NewWriter()
		sec.U32(uint32(len(m.Funcs)))
		for _, typeIdx := range m.Funcs {
			sec.U32(typeIdx)
		}
		w.Section(SectionFunction, sec.Bytes())
	}

	if len(m.Memories) > 0 {
		sec := binary.NewWriter()
		sec.U32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			if mem.Max != nil {
				sec.Byte(0x01)
				sec.U32(mem.Min)
				sec.U32(*mem.Max)
			} else {
				sec.Byte(0x00)
				sec.U32(mem.Min)
			}
		}
		w.Section(SectionMemory, sec.Bytes())
	}

	if len(m.Exports) > 0 {
		sec := binary.NewWriter()
		sec.U32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.Name(exp.Name)
			sec.Byte(exp.Kind)
			sec.U32(exp.Index)
		}
		w.Section(SectionExport, sec.Bytes())
	}

	if len(m.Code) > 0 {
		sec := binary.NewWriter()
		sec.U32(uint32(len(m.Code)))
		for _, body := range m.Code {
			fn := binary.NewWriter()
			fn.U32(uint32(len(body.Locals)))
			for _, l := range body.Locals {
				fn.U32(l.Count)
				fn.Byte(byte(l.ValType))
			}
			fn.Raw(body.Code)
			sec.U32(uint32(fn.Len()))
			sec.Raw(fn.Bytes())
		}
		w.Section(SectionCode, sec.Bytes())
	}

	if len(m.Data) > 0 {
		sec := binary.NewWriter()
		sec.U32(uint32(len(m.Data)))
		for _, d := range m.Data {
			// active segment for memory 0
			sec.Byte(0x00)
			sec.Byte(OpI32Const)
			sec.S32(int32(d.Offset))
			sec.Byte(OpEnd)
			sec.U32(uint32(len(d.Init)))
			sec.Raw(d.Init)
		}
		w.Section(SectionData, sec.Bytes())
	}

	return w.Bytes()
}

func writeValTypes(w *binary.Writer, types []ValType) {
	w.U32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}
