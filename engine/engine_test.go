package engine

import (
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/ll"
	"github.com/wippyai/qir-runtime/ll/ast"
	"github.com/wippyai/qir-runtime/lower"
)

const bellSource = `
%Qubit = type opaque
%Result = type opaque

define void @main() #0 {
entry:
  call void @__quantum__qis__h__body(%Qubit* null)
  call void @__quantum__qis__cnot__body(%Qubit* null, %Qubit* inttoptr (i64 1 to %Qubit*))
  call void @__quantum__qis__mz__body(%Qubit* null, %Result* null)
  call void @custom_gate(%Qubit* null)
  ret void
}

declare void @__quantum__qis__h__body(%Qubit*)
declare void @__quantum__qis__cnot__body(%Qubit*, %Qubit*)
declare void @__quantum__qis__mz__body(%Qubit*, %Result* writeonly)
declare void @custom_gate(%Qubit*)

attributes #0 = { "entry_point" }
`

func parse(t *testing.T, src string) *ast.Module {
	t.Helper()
	mod, err := ll.Parse("bell.ll", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return mod
}

func nop(context.Context, api.Module, []uint64) {}

func TestSignatureMatch(t *testing.T) {
	mod := parse(t, `
%Qubit = type opaque
%Result = type opaque

declare void @typed(%Qubit*, %Result*)
declare void @opaque(ptr, ptr)
declare i1 @read(ptr)
declare void @angle(double, ptr)
declare void @var(ptr, ...)
`)
	tests := []struct {
		fn   string
		sig  Signature
		want bool
	}{
		{"typed", Sig("void", "ptr", "ptr"), true},
		{"opaque", Sig("void", "ptr", "ptr"), true},
		{"opaque", Sig("void", "ptr"), false},
		{"read", Sig("i1", "ptr"), true},
		{"read", Sig("void", "ptr"), false},
		{"angle", Sig("void", "double", "ptr"), true},
		{"angle", Sig("void", "i64", "ptr"), false},
		{"var", Sig("void", "ptr"), false},
	}
	for _, tt := range tests {
		if got := tt.sig.Match(mod.Func(tt.fn)); got != tt.want {
			t.Errorf("%s.Match(@%s) = %v, want %v", tt.sig, tt.fn, got, tt.want)
		}
	}
}

func TestBinderBind(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		bindings []Binding
		kind     errors.Kind
		detail   string
	}{
		{
			name:     "absent symbol skipped",
			src:      `declare void @__quantum__qis__h__body(ptr)`,
			bindings: []Binding{{Name: "__quantum__qis__x__body", Sig: Sig("void", "ptr"), Func: nop}},
		},
		{
			name: "already defined",
			src: `define void @__quantum__qis__h__body(ptr %q) {
entry:
  ret void
}`,
			bindings: []Binding{{Name: "__quantum__qis__h__body", Sig: Sig("void", "ptr"), Func: nop}},
			kind:     errors.KindAlreadyDefined,
			detail:   "could not bind to already-defined function '__quantum__qis__h__body'",
		},
		{
			name:     "signature mismatch",
			src:      `declare void @__quantum__qis__h__body(i64)`,
			bindings: []Binding{{Name: "__quantum__qis__h__body", Sig: Sig("void", "ptr"), Func: nop}},
			kind:     errors.KindSignatureMismatch,
			detail:   "declared as void (i64), expected void (ptr)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewBinder(parse(t, tt.src)).Bind(tt.bindings)
			if tt.detail == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("expected *errors.Error, got %v", err)
			}
			if e.Phase != errors.PhaseBind || e.Kind != tt.kind {
				t.Errorf("got %s/%s", e.Phase, e.Kind)
			}
			if !strings.Contains(err.Error(), tt.detail) {
				t.Errorf("error %q does not contain %q", err, tt.detail)
			}
		})
	}
}

func TestBinderResolve(t *testing.T) {
	mod := parse(t, bellSource)
	b := NewBinder(mod)
	err := b.Bind([]Binding{
		{Name: "__quantum__qis__h__body", Sig: Sig("void", "ptr"), Func: nop},
		{Name: "__quantum__qis__cnot__body", Sig: Sig("void", "ptr", "ptr"), Func: nop},
		{Name: "__quantum__qis__mz__body", Sig: Sig("void", "ptr", "ptr"), Func: nop},
		{Name: "__quantum__rt__initialize", Sig: Sig("void", "ptr"), Func: nop},
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if b.Bound("__quantum__rt__initialize") {
		t.Error("symbol absent from the module reported as bound")
	}

	res, err := lower.Lower(mod, mod.Func("main"))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	var stubbed []string
	host, symbols := b.Resolve(res, func(name string) HostFunc {
		stubbed = append(stubbed, name)
		return nop
	})
	if len(host) != 4 {
		t.Errorf("got %d host functions, want 4", len(host))
	}
	if len(stubbed) != 1 || stubbed[0] != "custom_gate" {
		t.Errorf("stubbed = %v", stubbed)
	}
	want := []Symbol{
		{Name: "__quantum__qis__cnot__body", Bound: true},
		{Name: "__quantum__qis__h__body", Bound: true},
		{Name: "__quantum__qis__mz__body", Bound: true},
		{Name: "custom_gate"},
	}
	if len(symbols) != len(want) {
		t.Fatalf("symbols = %v", symbols)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Errorf("symbols[%d] = %+v, want %+v", i, symbols[i], want[i])
		}
	}
}

func TestEngineLoadAndCall(t *testing.T) {
	for _, interp := range []bool{false, true} {
		name := "compiler"
		if interp {
			name = "interpreter"
		}
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			mod := parse(t, bellSource)
			res, err := lower.Lower(mod, mod.Func("main"))
			if err != nil {
				t.Fatalf("Lower: %v", err)
			}

			var calls []string
			record := func(name string) HostFunc {
				return func(_ context.Context, _ api.Module, stack []uint64) {
					calls = append(calls, name)
				}
			}
			host := map[string]HostFunc{}
			for _, imp := range res.Imports {
				host[imp.Name()] = record(imp.Name())
			}

			e := New(ctx, &Config{Interpreter: interp, MemoryLimitPages: 16})
			defer e.Close(ctx)

			inst, err := e.Load(ctx, res, host)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if inst.Entry() != "main" {
				t.Errorf("Entry() = %q", inst.Entry())
			}
			for range 2 {
				calls = nil
				if err := inst.Call(ctx); err != nil {
					t.Fatalf("Call: %v", err)
				}
				want := "__quantum__qis__h__body __quantum__qis__cnot__body __quantum__qis__mz__body custom_gate"
				if got := strings.Join(calls, " "); got != want {
					t.Errorf("calls = %s", got)
				}
			}
			if inst.Memory() == nil {
				t.Error("program has no memory")
			}
			if err := inst.Close(ctx); err != nil {
				t.Errorf("Close: %v", err)
			}
		})
	}
}

func TestEngineLoadMissingHostFunc(t *testing.T) {
	ctx := context.Background()
	mod := parse(t, bellSource)
	res, err := lower.Lower(mod, mod.Func("main"))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	e := New(ctx, nil)
	defer e.Close(ctx)

	_, err = e.Load(ctx, res, map[string]HostFunc{"__quantum__qis__h__body": nop})
	var qe *errors.Error
	if !stderrors.As(err, &qe) || qe.Kind != errors.KindUnresolvedSymbol {
		t.Fatalf("expected unresolved symbol error, got %v", err)
	}
}

func TestHostPanicSurfacesAsError(t *testing.T) {
	ctx := context.Background()
	mod := parse(t, bellSource)
	res, err := lower.Lower(mod, mod.Func("main"))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}

	host := map[string]HostFunc{}
	for _, imp := range res.Imports {
		host[imp.Name()] = nop
	}
	sentinel := errors.UnresolvedSymbol("custom_gate")
	host["custom_gate"] = func(context.Context, api.Module, []uint64) { panic(sentinel) }

	e := New(ctx, nil)
	defer e.Close(ctx)
	inst, err := e.Load(ctx, res, host)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	err = inst.Call(ctx)
	if !stderrors.Is(err, errors.ErrUnresolvedSymbol) {
		t.Fatalf("expected unresolved symbol error, got %v", err)
	}
}
