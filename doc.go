// Package qirruntime provides a Go execution host for QIR programs.
//
// A QIR program is LLVM IR that encodes a quantum circuit as ordinary control
// flow plus calls into a fixed set of externally declared instruction symbols
// (gates, measurements, output recording). This library loads such a program,
// resolves its entry routine, binds every reserved instruction symbol to a Go
// callback, compiles the program to native code and runs the entry routine
// against a pair of pluggable backends.
//
// # Architecture Overview
//
//	qirruntime/          Root package with identifiers and backend interfaces
//	├── program/         Program handle: loading and entry-point resolution
//	├── runtime/         Executor: binding table, activation, Run
//	├── engine/          wazero integration and symbol binder
//	├── lower/           LLVM IR to WebAssembly lowering
//	├── wasm/            WebAssembly binary encoder
//	├── ll/              Textual LLVM IR parser (QIR subset)
//	├── backend/         Concrete backends (state-vector simulator, tracer)
//	├── output/          Result aggregation and formatting
//	├── config/          TOML configuration
//	├── errors/          Structured error types
//	└── cmd/qir-run/     Command-line runner
//
// # Quick Start
//
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
//	s := sim.New(sim.WithSeed(1))
//	report := output.NewReport(s)
//	if err := exec.Run(ctx, s, report); err != nil {
//	    log.Fatal(err)
//	}
//
// # Backends
//
// QuantumInterface and ResultInterface are independent; a concrete backend may
// implement either or both. Gates beyond the required set are expressed as
// optional interfaces (PauliGates, RotationGates, ...) that the executor
// discovers by type assertion when the program calls them.
//
// # Thread Safety
//
// An Executor runs one program at a time. Run fails with a reentrancy error
// when called while another Run on the same executor is in flight; it never
// blocks or queues. Distinct executors are fully independent.
package qirruntime
