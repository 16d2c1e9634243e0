package lower

import (
	"fmt"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/wasm"
)

// valType maps an IR scalar type to its WebAssembly representation.
// Integers up to 32 bits live in i32 zero-extended to their width, i64 and
// every pointer in i64.
func valType(t *ast.Type) (wasm.ValType, error) {
	switch {
	case t == nil:
		return 0, fmt.Errorf("missing type")
	case t.Kind == ast.TypeInt && t.Bits <= 32:
		return wasm.ValI32, nil
	case t.Kind == ast.TypeInt && t.Bits == 64:
		return wasm.ValI64, nil
	case t.Kind == ast.TypePtr:
		return wasm.ValI64, nil
	case t.Kind == ast.TypeDouble:
		return wasm.ValF64, nil
	case t.Kind == ast.TypeFloat:
		return wasm.ValF32, nil
	}
	return 0, fmt.Errorf("type %s is not supported", t)
}

// funcType returns the lowered signature of a routine.
func funcType(f *ast.Func) (wasm.FuncType, error) {
	var ft wasm.FuncType
	if f.Variadic {
		return ft, fmt.Errorf("variadic routine @%s is not supported", f.Name)
	}
	for _, p := range f.Params {
		vt, err := valType(p.Type)
		if err != nil {
			return ft, fmt.Errorf("parameter %%%s of @%s: %w", p.Name, f.Name, err)
		}
		ft.Params = append(ft.Params, vt)
	}
	if !f.RetType.IsVoid() {
		vt, err := valType(f.RetType)
		if err != nil {
			return ft, fmt.Errorf("return value of @%s: %w", f.Name, err)
		}
		ft.Results = []wasm.ValType{vt}
	}
	return ft, nil
}

// narrow reports whether an integer type is held in i32 with unused high bits.
func narrow(t *ast.Type) bool {
	return t.IsInt() && t.Bits < 32
}

func mask(bits int) int32 {
	return int32(uint32(1)<<uint(bits) - 1)
}

// canonical truncates an integer constant to its width, zero-extended.
func canonical(v int64, bits int) int64 {
	if bits >= 64 {
		return v
	}
	return int64(uint64(v) & (uint64(1)<<uint(bits) - 1))
}

// layout computes sizes and alignments of IR types in linear memory.
type layout struct {
	named map[string]*ast.Type
}

func (l layout) resolve(t *ast.Type) (*ast.Type, error) {
	for t.Kind == ast.TypeNamed {
		def, ok := l.named[t.Name]
		if !ok {
			return nil, fmt.Errorf("unknown type %%%s", t.Name)
		}
		if def == nil {
			return nil, fmt.Errorf("opaque type %%%s has no size", t.Name)
		}
		t = def
	}
	return t, nil
}

func (l layout) size(t *ast.Type) (uint64, error) {
	t, err := l.resolve(t)
	if err != nil {
		return 0, err
	}
	switch t.Kind {
	case ast.TypeInt:
		n := uint64(1)
		for n*8 < uint64(t.Bits) {
			n *= 2
		}
		return n, nil
	case ast.TypePtr, ast.TypeDouble:
		return 8, nil
	case ast.TypeFloat:
		return 4, nil
	case ast.TypeArray:
		es, err := l.size(t.Elem)
		if err != nil {
			return 0, err
		}
		return es * t.Len, nil
	case ast.TypeStruct:
		var off uint64
		for _, f := range t.Fields {
			fs, fa, err := l.sizeAlign(f)
			if err != nil {
				return 0, err
			}
			if !t.Packed {
				off = alignUp(off, fa)
			}
			off += fs
		}
		if !t.Packed {
			_, a, err := l.sizeAlign(t)
			if err != nil {
				return 0, err
			}
			off = alignUp(off, a)
		}
		return off, nil
	}
	return 0, fmt.Errorf("type %s has no size", t)
}

func (l layout) align(t *ast.Type) (uint64, error) {
	t, err := l.resolve(t)
	if err != nil {
		return 0, err
	}
	switch t.Kind {
	case ast.TypeArray:
		return l.align(t.Elem)
	case ast.TypeStruct:
		a := uint64(1)
		if t.Packed {
			return a, nil
		}
		for _, f := range t.Fields {
			fa, err := l.align(f)
			if err != nil {
				return 0, err
			}
			a = max(a, fa)
		}
		return a, nil
	}
	s, err := l.size(t)
	if err != nil {
		return 0, err
	}
	return min(s, 8), nil
}

func (l layout) sizeAlign(t *ast.Type) (uint64, uint64, error) {
	s, err := l.size(t)
	if err != nil {
		return 0, 0, err
	}
	a, err := l.align(t)
	if err != nil {
		return 0, 0, err
	}
	return s, a, nil
}

// offset computes the byte offset of a constant getelementptr.
func (l layout) offset(elem *ast.Type, indices []int64) (int64, error) {
	if len(indices) == 0 {
		return 0, nil
	}
	es, err := l.size(elem)
	if err != nil {
		return 0, err
	}
	off := indices[0] * int64(es)
	t := elem
	for _, idx := range indices[1:] {
		t, err = l.resolve(t)
		if err != nil {
			return 0, err
		}
		switch t.Kind {
		case ast.TypeArray, ast.TypeVector:
			s, err := l.size(t.Elem)
			if err != nil {
				return 0, err
			}
			off += idx * int64(s)
			t = t.Elem
		case ast.TypeStruct:
			if idx < 0 || int(idx) >= len(t.Fields) {
				return 0, fmt.Errorf("field index %d out of range for %s", idx, t)
			}
			var fo uint64
			for i, f := range t.Fields {
				fs, fa, err := l.sizeAlign(f)
				if err != nil {
					return 0, err
				}
				if !t.Packed {
					fo = alignUp(fo, fa)
				}
				if i == int(idx) {
					break
				}
				fo += fs
			}
			off += int64(fo)
			t = t.Fields[idx]
		default:
			return 0, fmt.Errorf("cannot index into %s", t)
		}
	}
	return off, nil
}

func alignUp(v, a uint64) uint64 {
	if a <= 1 {
		return v
	}
	return (v + a - 1) / a * a
}
