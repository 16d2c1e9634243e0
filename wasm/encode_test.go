package wasm_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/qir-runtime/wasm"
)

func TestEncodeEmptyModule(t *testing.T) {
	m := &wasm.Module{}
	data := m.Encode()

	if len(data) != 8 {
		t.Errorf("expected 8 bytes for empty module, got %d", len(data))
	}
	if !bytes.Equal(data[:4], []byte{0x00, 0x61, 0x73, 0x6D}) {
		t.Error("invalid magic number")
	}
	if !bytes.Equal(data[4:8], []byte{0x01, 0x00, 0x00, 0x00}) {
		t.Error("invalid version")
	}
}

func TestEncodeExactBytes(t *testing.T) {
	m := &wasm.Module{}
	code := wasm.NewCode()
	code.LocalGet(0)
	code.End()
	idx := m.AddFunc(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}, Results: []wasm.ValType{wasm.ValI32}}, wasm.FuncBody{Code: code.Bytes()})
	m.ExportFunc("id", idx)

	want := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x06, 0x01, 0x60, 0x01, 0x7F, 0x01, 0x7F, // type
		0x03, 0x02, 0x01, 0x00, // function
		0x07, 0x06, 0x01, 0x02, 'i', 'd', 0x00, 0x00, // export
		0x0A, 0x06, 0x01, 0x04, 0x00, 0x20, 0x00, 0x0B, // code
	}
	if got := m.Encode(); !bytes.Equal(got, want) {
		t.Errorf("got  % x\nwant % x", got, want)
	}
}

func TestAddTypeDeduplicates(t *testing.T) {
	m := &wasm.Module{}
	a := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}})
	b := m.AddType(wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}})
	c := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}})
	if a != b || a == c || len(m.Types) != 2 {
		t.Errorf("a=%d b=%d c=%d types=%d", a, b, c, len(m.Types))
	}
}

func TestFunctionIndicesCountImports(t *testing.T) {
	m := &wasm.Module{}
	h := m.AddImport("qir", "h", wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}})
	x := m.AddImport("qir", "x", wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}})
	code := wasm.NewCode()
	code.End()
	f := m.AddFunc(wasm.FuncType{}, wasm.FuncBody{Code: code.Bytes()})
	if h != 0 || x != 1 || f != 2 {
		t.Errorf("indices h=%d x=%d f=%d", h, x, f)
	}

	defer func() {
		if recover() == nil {
			t.Error("adding an import after a function should panic")
		}
	}()
	m.AddImport("qir", "late", wasm.FuncType{})
}

// TestEncodedModulesRun compiles encoded modules with wazero and checks
// their results.
func TestEncodedModulesRun(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	m := &wasm.Module{}
	i64 := []wasm.ValType{wasm.ValI64}

	// add(a, b) = a + b
	add := wasm.NewCode()
	add.LocalGet(0)
	add.LocalGet(1)
	add.Op(wasm.OpI64Add)
	add.End()
	m.ExportFunc("add", m.AddFunc(wasm.FuncType{Params: []wasm.ValType{wasm.ValI64, wasm.ValI64}, Results: i64}, wasm.FuncBody{Code: add.Bytes()}))

	// pick(n) dispatches over three blocks with br_table inside a loop:
	// block 0 returns 10, block 1 jumps to block 2, block 2 returns 30.
	pick := wasm.NewCode()
	pick.Loop()
	pick.Block()
	pick.Block()
	pick.Block()
	pick.LocalGet(0)
	pick.Op(wasm.OpI32WrapI64)
	pick.BrTable([]uint32{0, 1, 2}, 2)
	pick.End()
	pick.I64Const(10)
	pick.Op(wasm.OpReturn)
	pick.End()
	pick.I64Const(2)
	pick.LocalSet(0)
	pick.Br(1)
	pick.End()
	pick.I64Const(30)
	pick.Op(wasm.OpReturn)
	pick.End()
	pick.Op(wasm.OpUnreachable)
	pick.End()
	m.ExportFunc("pick", m.AddFunc(wasm.FuncType{Params: i64, Results: i64}, wasm.FuncBody{Code: pick.Bytes()}))

	// half(x) = f64 conversion round trip with a local
	half := wasm.NewCode()
	half.LocalGet(0)
	half.Op(wasm.OpF64ConvertI64S)
	half.F64Const(0.5)
	half.Op(wasm.OpF64Mul)
	half.Op(wasm.OpI64TruncF64S)
	half.LocalSet(1)
	half.LocalGet(1)
	half.End()
	m.ExportFunc("half", m.AddFunc(wasm.FuncType{Params: i64, Results: i64}, wasm.FuncBody{
		Locals: []wasm.LocalEntry{{Count: 1, ValType: wasm.ValI64}},
		Code:   half.Bytes(),
	}))

	// data segment readable through exported memory
	m.Memories = []wasm.MemoryType{{Min: 1}}
	m.Exports = append(m.Exports, wasm.Export{Name: "memory", Kind: wasm.KindMemory, Index: 0})
	m.Data = []wasm.DataSegment{{Offset: 8, Init: []byte("r0\x00")}}

	mod, err := r.Instantiate(ctx, m.Encode())
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}

	tests := []struct {
		fn   string
		args []uint64
		want uint64
	}{
		{"add", []uint64{2, 40}, 42},
		{"pick", []uint64{0}, 10},
		{"pick", []uint64{1}, 30},
		{"pick", []uint64{2}, 30},
		{"pick", []uint64{7}, 30},
		{"half", []uint64{9}, 4},
	}
	for _, tt := range tests {
		res, err := mod.ExportedFunction(tt.fn).Call(ctx, tt.args...)
		if err != nil {
			t.Fatalf("%s%v: %v", tt.fn, tt.args, err)
		}
		if res[0] != tt.want {
			t.Errorf("%s%v = %d, want %d", tt.fn, tt.args, res[0], tt.want)
		}
	}

	got, ok := mod.Memory().Read(8, 3)
	if !ok || string(got) != "r0\x00" {
		t.Errorf("memory = %q, %v", got, ok)
	}
}

func TestEncodedImportsCompile(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	m := &wasm.Module{}
	h := m.AddImport("qir", "__quantum__qis__h__body", wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}})
	code := wasm.NewCode()
	code.I64Const(0)
	code.Call(h)
	code.End()
	m.ExportFunc("main", m.AddFunc(wasm.FuncType{}, wasm.FuncBody{Code: code.Bytes()}))

	compiled, err := r.CompileModule(ctx, m.Encode())
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}
	imports := compiled.ImportedFunctions()
	if len(imports) != 1 {
		t.Fatalf("got %d imports", len(imports))
	}
	mod, name, _ := imports[0].Import()
	if mod != "qir" || name != "__quantum__qis__h__body" {
		t.Errorf("import = %s.%s", mod, name)
	}
}
