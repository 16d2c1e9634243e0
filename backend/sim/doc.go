// Package sim provides a state-vector simulator backend.
//
// The simulator holds 2^n complex amplitudes for the n qubits a program
// requires. It implements QuantumInterface together with every optional
// gate set, so any program the executor can bind runs on it.
//
//	s := sim.New(sim.WithSeed(1))
//	err := exec.Run(ctx, s, report)
//
// Measurement outcomes are drawn from the simulator's random source. Fix
// the seed to make runs reproducible.
package sim
