package lower

import (
	"fmt"

	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/wasm"
)

// value pushes an operand in its own type.
func (f *funcLowerer) value(v *ast.Value) error {
	return f.valueAs(v, v.Type)
}

// valueAs pushes an operand lowered as type t. Typed and opaque pointers
// share one representation, so a pointer argument may be passed for any
// pointer parameter.
func (f *funcLowerer) valueAs(v *ast.Value, t *ast.Type) error {
	if t == nil {
		t = v.Type
	}
	vt, err := valType(t)
	if err != nil {
		return err
	}

	switch v.Kind {
	case ast.ValueLocal:
		idx, ok := f.locals[v.Name]
		if !ok {
			return fmt.Errorf("use of undefined value %%%s", v.Name)
		}
		f.code.LocalGet(idx)
		return nil
	case ast.ValueFloat:
		switch vt {
		case wasm.ValF64:
			f.code.F64Const(v.Float)
		case wasm.ValF32:
			f.code.F32Const(float32(v.Float))
		default:
			return fmt.Errorf("float constant for %s", t)
		}
		return nil
	case ast.ValueNull, ast.ValueUndef, ast.ValueZero:
		f.zero(vt)
		return nil
	}

	n, err := f.constInt(v)
	if err != nil {
		return err
	}
	return f.intConst(n, t)
}

// intConst pushes an integer or address constant of type t.
func (f *funcLowerer) intConst(n int64, t *ast.Type) error {
	vt, err := valType(t)
	if err != nil {
		return err
	}
	switch vt {
	case wasm.ValI32:
		f.code.I32Const(int32(uint32(canonical(n, t.Bits))))
	case wasm.ValI64:
		f.code.I64Const(n)
	default:
		return fmt.Errorf("integer constant for %s", t)
	}
	return nil
}

func (f *funcLowerer) zero(vt wasm.ValType) {
	switch vt {
	case wasm.ValI32:
		f.code.I32Const(0)
	case wasm.ValI64:
		f.code.I64Const(0)
	case wasm.ValF32:
		f.code.F32Const(0)
	case wasm.ValF64:
		f.code.F64Const(0)
	}
}
