// Package trace provides a backend that records every callback it
// receives, optionally forwarding each one to another backend.
//
//	rec := trace.New(trace.WithQuantum(sim.New()), trace.WithResult(report))
//	err := exec.Run(ctx, rec, rec)
//	for _, c := range rec.Commands() {
//	    fmt.Println(c) // "h q0", "cnot q0 q1", "mz q0 r0", ...
//	}
package trace
