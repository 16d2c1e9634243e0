package lower_test

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/qir-runtime/errors"
	"github.com/wippyai/qir-runtime/ll"
	"github.com/wippyai/qir-runtime/lower"
)

func lowerSource(t *testing.T, src string) *lower.Result {
	t.Helper()
	mod, err := ll.Parse("test.ll", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	res, err := lower.Lower(mod, mod.Func("main"))
	if err != nil {
		t.Fatalf("Lower: %v", err)
	}
	return res
}

func lowerError(t *testing.T, src string) *errors.Error {
	t.Helper()
	mod, err := ll.Parse("test.ll", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = lower.Lower(mod, mod.Func("main"))
	if err == nil {
		t.Fatal("expected lowering error")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("expected *errors.Error, got %T: %v", err, err)
	}
	return e
}

// runMain instantiates a lowered module without imports and calls main.
func runMain(t *testing.T, res *lower.Result) uint64 {
	t.Helper()
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	mod, err := r.Instantiate(ctx, res.Binary())
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	out, err := mod.ExportedFunction(res.Entry).Call(ctx)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one result, got %d", len(out))
	}
	return out[0]
}

func TestLowerComputes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want uint64
	}{
		{
			name: "loop with phi",
			src: `
define i64 @main() {
entry:
  br label %loop
loop:
  %i = phi i64 [ 1, %entry ], [ %next, %loop ]
  %acc = phi i64 [ 0, %entry ], [ %sum, %loop ]
  %sum = add i64 %acc, %i
  %next = add i64 %i, 1
  %done = icmp sgt i64 %next, 10
  br i1 %done, label %exit, label %loop
exit:
  ret i64 %sum
}`,
			want: 55,
		},
		{
			name: "phi swap is parallel",
			src: `
define i64 @main() {
entry:
  br label %loop
loop:
  %a = phi i64 [ 1, %entry ], [ %b, %loop ]
  %b = phi i64 [ 2, %entry ], [ %a, %loop ]
  %n = phi i64 [ 0, %entry ], [ %n1, %loop ]
  %n1 = add i64 %n, 1
  %c = icmp eq i64 %n1, 2
  br i1 %c, label %exit, label %loop
exit:
  %r = mul i64 %a, 10
  %s = add i64 %r, %b
  ret i64 %s
}`,
			want: 21,
		},
		{
			name: "narrow integers wrap and sign extend",
			src: `
define i64 @main() {
entry:
  %a = add i8 200, 100
  %b = sdiv i8 -6, 2
  %c = icmp slt i8 %b, 1
  %d = zext i8 %a to i64
  %e = sext i8 %b to i64
  %f = zext i1 %c to i64
  %g = add i64 %d, %e
  %h = add i64 %g, %f
  ret i64 %h
}`,
			want: 42,
		},
		{
			name: "float arithmetic and select",
			src: `
define i64 @main() {
entry:
  %x = fadd double 1.5, 2.25
  %y = fmul double %x, 4.0
  %z = fptosi double %y to i64
  %big = fcmp ogt double %y, 10.0
  %s = select i1 %big, i64 %z, i64 0
  ret i64 %s
}`,
			want: 15,
		},
		{
			name: "switch",
			src: `
define i64 @main() {
entry:
  %v = add i32 2, 0
  switch i32 %v, label %other [
    i32 1, label %one
    i32 2, label %two
  ]
one:
  ret i64 100
two:
  ret i64 200
other:
  ret i64 300
}`,
			want: 200,
		},
		{
			name: "defined helper",
			src: `
define i64 @twice(i64 %x) {
entry:
  %y = shl i64 %x, 1
  ret i64 %y
}

define i64 @main() {
entry:
  %a = call i64 @twice(i64 21)
  ret i64 %a
}`,
			want: 42,
		},
		{
			name: "truncation",
			src: `
define i64 @main() {
entry:
  %a = trunc i64 511 to i8
  %b = trunc i64 3 to i1
  %c = zext i8 %a to i64
  %d = zext i1 %b to i64
  %e = add i64 %c, %d
  ret i64 %e
}`,
			want: 256,
		},
		{
			name: "unordered compare",
			src: `
define i64 @main() {
entry:
  %a = fcmp ult double 1.0, 2.0
  %b = fcmp ueq double 1.0, 1.0
  %c = and i1 %a, %b
  %d = zext i1 %c to i64
  ret i64 %d
}`,
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := lowerSource(t, tt.src)
			if got := runMain(t, res); got != tt.want {
				t.Errorf("main() = %d, want %d", got, tt.want)
			}
		})
	}
}

const adaptiveSource = `
%Qubit = type opaque
%Result = type opaque

@0 = internal constant [3 x i8] c"r1\00"

define void @main() #0 {
entry:
  call void @__quantum__qis__h__body(%Qubit* null)
  call void @__quantum__qis__mz__body(%Qubit* null, %Result* inttoptr (i64 1 to %Result*))
  %r = call i1 @__quantum__qis__read_result__body(%Result* inttoptr (i64 1 to %Result*))
  br i1 %r, label %then, label %done
then:
  call void @__quantum__qis__x__body(%Qubit* inttoptr (i64 1 to %Qubit*))
  br label %done
done:
  call void @__quantum__rt__result_record_output(%Result* inttoptr (i64 1 to %Result*), i8* getelementptr inbounds ([3 x i8], [3 x i8]* @0, i32 0, i32 0))
  ret void
}

define void @unused() {
entry:
  call void @__quantum__qis__z__body(%Qubit* null)
  ret void
}

declare void @__quantum__qis__h__body(%Qubit*)
declare void @__quantum__qis__x__body(%Qubit*)
declare void @__quantum__qis__z__body(%Qubit*)
declare void @__quantum__qis__mz__body(%Qubit*, %Result*)
declare i1 @__quantum__qis__read_result__body(%Result*)
declare void @__quantum__rt__result_record_output(%Result*, i8*)

attributes #0 = { "entry_point" }
`

func TestLowerImports(t *testing.T) {
	res := lowerSource(t, adaptiveSource)

	var names []string
	for i, imp := range res.Imports {
		if imp.Index != uint32(i) {
			t.Errorf("import %s has index %d, want %d", imp.Name(), imp.Index, i)
		}
		names = append(names, imp.Name())
	}
	want := "__quantum__qis__h__body __quantum__qis__mz__body __quantum__qis__read_result__body " +
		"__quantum__qis__x__body __quantum__rt__result_record_output"
	if got := strings.Join(names, " "); got != want {
		t.Errorf("imports = %s\nwant      %s", got, want)
	}
	if len(res.Funcs) != 1 || res.Funcs[0] != "main" {
		t.Errorf("lowered routines = %v", res.Funcs)
	}
	if _, ok := res.Import("__quantum__qis__z__body"); ok {
		t.Error("declaration reached only from an unused routine was imported")
	}
	if addr := res.Globals["0"]; addr != 8 {
		t.Errorf("global @0 at %d, want 8", addr)
	}
}

func TestLowerImportsRun(t *testing.T) {
	for _, measured := range []uint32{0, 1} {
		t.Run(fmt.Sprintf("result=%d", measured), func(t *testing.T) {
			ctx := context.Background()
			r := wazero.NewRuntime(ctx)
			defer r.Close(ctx)

			var log []string
			gate := func(name string) func(context.Context, uint64) {
				return func(_ context.Context, q uint64) {
					log = append(log, fmt.Sprintf("%s %d", name, q))
				}
			}
			_, err := r.NewHostModuleBuilder(lower.ImportModule).
				NewFunctionBuilder().WithFunc(gate("h")).Export("__quantum__qis__h__body").
				NewFunctionBuilder().WithFunc(gate("x")).Export("__quantum__qis__x__body").
				NewFunctionBuilder().WithFunc(func(_ context.Context, q, r uint64) {
				log = append(log, fmt.Sprintf("mz %d %d", q, r))
			}).Export("__quantum__qis__mz__body").
				NewFunctionBuilder().WithFunc(func(_ context.Context, r uint64) uint32 {
				log = append(log, fmt.Sprintf("read_result %d", r))
				return measured
			}).Export("__quantum__qis__read_result__body").
				NewFunctionBuilder().WithFunc(func(_ context.Context, m api.Module, r, tag uint64) {
				b, _ := m.Memory().Read(uint32(tag), 3)
				log = append(log, fmt.Sprintf("record %d %q", r, b))
			}).Export("__quantum__rt__result_record_output").
				Instantiate(ctx)
			if err != nil {
				t.Fatalf("host module: %v", err)
			}

			res := lowerSource(t, adaptiveSource)
			mod, err := r.Instantiate(ctx, res.Binary())
			if err != nil {
				t.Fatalf("Instantiate: %v", err)
			}
			if _, err := mod.ExportedFunction("main").Call(ctx); err != nil {
				t.Fatalf("main: %v", err)
			}

			want := []string{"h 0", "mz 0 1", "read_result 1"}
			if measured == 1 {
				want = append(want, "x 1")
			}
			want = append(want, `record 1 "r1\x00"`)
			if strings.Join(log, "; ") != strings.Join(want, "; ") {
				t.Errorf("calls = %v\nwant    %v", log, want)
			}
		})
	}
}

func TestLowerGlobalLayout(t *testing.T) {
	res := lowerSource(t, `
@a = internal constant [3 x i8] c"ab\00"
@b = internal global i64 7
@c = internal constant [2 x i8] c"z\00"

define i64 @main() {
entry:
  %p = ptrtoint i8* getelementptr inbounds ([2 x i8], [2 x i8]* @c, i64 0, i64 1) to i64
  ret i64 %p
}`)

	want := map[string]uint32{"a": 8, "b": 16, "c": 24}
	for name, addr := range want {
		if got := res.Globals[name]; got != addr {
			t.Errorf("@%s at %d, want %d", name, got, addr)
		}
	}
	if got := runMain(t, res); got != 25 {
		t.Errorf("address = %d, want 25", got)
	}
	if res.Pages != 1 {
		t.Errorf("pages = %d", res.Pages)
	}
}

func TestLowerErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		line   int
		symbol string
		detail string
	}{
		{
			name: "memory access",
			src: `define void @main() {
entry:
  %p = alloca i64
  ret void
}`,
			line:   3,
			symbol: "main",
			detail: "unsupported instruction 'alloca'",
		},
		{
			name: "entry with arguments",
			src: `define void @main(ptr %f) {
entry:
  ret void
}`,
			line:   1,
			symbol: "main",
			detail: "entry point must take no arguments",
		},
		{
			name: "unsupported in callee",
			src: `define void @main() {
entry:
  call void @helper()
  ret void
}

define void @helper() {
entry:
  %x = load i64, ptr null
  ret void
}`,
			line:   9,
			symbol: "helper",
			detail: "unsupported instruction 'load'",
		},
		{
			name: "wide integer",
			src: `define void @main() {
entry:
  %x = add i128 1, 2
  ret void
}`,
			line:   3,
			symbol: "main",
			detail: "i128",
		},
		{
			name: "float remainder",
			src: `define void @main() {
entry:
  %x = frem double 1.0, 2.0
  ret void
}`,
			line:   3,
			symbol: "main",
			detail: "unsupported instruction 'frem'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := lowerError(t, tt.src)
			if e.Phase != errors.PhaseCompile || e.Kind != errors.KindUnsupported {
				t.Errorf("got %s/%s, want compile/unsupported", e.Phase, e.Kind)
			}
			if e.Line != tt.line {
				t.Errorf("line = %d, want %d", e.Line, tt.line)
			}
			if e.Symbol != tt.symbol {
				t.Errorf("symbol = %q, want %q", e.Symbol, tt.symbol)
			}
			if !strings.Contains(e.Error(), tt.detail) {
				t.Errorf("error %q does not mention %q", e.Error(), tt.detail)
			}
		})
	}
}

func TestLowerIgnoresDebugIntrinsics(t *testing.T) {
	res := lowerSource(t, `
define i64 @main() {
entry:
  call void @llvm.dbg.declare(metadata !1, metadata !2, metadata !DIExpression())
  ret i64 3
}

declare void @llvm.dbg.declare(metadata, metadata, metadata)
`)
	if len(res.Imports) != 0 {
		t.Errorf("debug intrinsic imported: %v", res.Imports)
	}
	if got := runMain(t, res); got != 3 {
		t.Errorf("main() = %d", got)
	}
}

func TestLowerLogsSummary(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lower.SetLogger(zap.New(core))
	t.Cleanup(func() { lower.SetLogger(nil) })

	lowerSource(t, adaptiveSource)

	entries := logs.FilterMessage("lowered").All()
	if len(entries) != 1 {
		t.Fatalf("got %d lowering log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["source"] != "test.ll" || fields["entry"] != "main" {
		t.Errorf("fields = %v", fields)
	}
	if fields["imports"] != int64(5) {
		t.Errorf("imports = %v, want 5", fields["imports"])
	}
	if _, ok := fields["elapsed"]; !ok {
		t.Error("elapsed missing from lowering log")
	}
}
