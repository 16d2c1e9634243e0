// Package runtime executes QIR programs against pluggable backends.
//
// # Quick Start
//
//	ctx := context.Background()
//	prog, err := program.Load("bell.ll")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	exec, err := runtime.NewExecutor(ctx, prog)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exec.Close(ctx)
//
//	s := sim.New(sim.WithSeed(7))
//	report := output.NewReport(s)
//	if err := exec.Run(ctx, s, report); err != nil {
//	    log.Fatal(err)
//	}
//
// # Instructions
//
// NewExecutor binds the reserved symbols below when the program declares
// them. Each call forwards to the backends of the Run in progress.
//
//	__quantum__qis__h__body            QuantumInterface.H
//	__quantum__qis__cnot__body         QuantumInterface.CNOT
//	__quantum__qis__mz__body           QuantumInterface.MZ
//	__quantum__qis__read_result__body  QuantumInterface.ReadResult
//	__quantum__rt__array_record_output ResultInterface.ArrayRecordOutput
//	__quantum__rt__result_record_output ResultInterface.ResultRecordOutput
//
// The remaining gates (x, y, z, s, t and the s/t adjoints, rx, ry, rz, cx,
// cy, cz, swap, rzz, ccx, reset, mresetz) and recorders (tuple, bool, int)
// dispatch to the optional interfaces of the root package. A backend lacking one fails the
// Run with an unsupported error naming the symbol. __quantum__rt__initialize
// is ignored by backends that do not implement RuntimeInitializer.
//
// A program defining a reserved symbol, or declaring it with another
// signature, is rejected by NewExecutor. Any other declaration is bound to
// a stub that fails the Run when called.
//
// # Execution
//
// Run installs its backends in the executor's activation slot, calls
// SetUp, invokes the entry routine and calls TearDown. The slot is cleared
// on every exit path. A second Run on the same Executor while one is in
// flight, including one issued from inside a callback, returns an error
// matching errors.ErrReentrant. Executors are independent: each owns its
// own wazero runtime and activation slot.
//
// The first error a callback returns aborts the program and is returned by
// Run wrapped in a backend error; errors.Is and errors.As reach the
// original.
package runtime
