// Package engine compiles lowered QIR programs and binds their external
// symbols to Go callbacks.
//
// # Architecture
//
//	Binder   - checks reserved symbols against the module and picks a host
//	           function for every import of the lowered program
//	Engine   - owns a private wazero runtime (compiler or interpreter)
//	Instance - the instantiated program and its entry routine
//
// # Loading Flow
//
//  1. Binder.Bind validates the binding table: a reserved symbol defined in
//     the program, or declared with another signature, is rejected
//  2. lower.Lower produces a WebAssembly module importing every declaration
//     the entry reaches
//  3. Binder.Resolve maps each import to its bound callback or to a stub
//     that fails on first call
//  4. Engine.Load instantiates the host module, then the program
//
// # Value Passing
//
// Host functions receive arguments on the stack in lowered form:
//
//	IR type          stack slot
//	──────────────────────────────
//	i1 .. i32        uint32 in uint64
//	i64, pointers    uint64
//	double           api.EncodeF64 bits
//
// Tag strings live in the program's linear memory; read them through the
// api.Module passed to the host function.
package engine
