// Package program resolves the entry routine of a QIR module.
//
// A Program owns a parsed module together with the routine the executor will
// invoke. The entry routine is found either by scanning for the single
// routine carrying the "entry_point" attribute, or by name:
//
//	prog, err := program.Load("bell.ll")
//	prog, err := program.Load("bell.ll", program.WithEntryPoint("main"))
//
// Entry point attributes (required_num_qubits, required_num_results,
// qir_profiles, output_labeling_schema) and the module flags are read once
// at load time.
//
// Programs are move-only. Handing a Program to an executor moves it, after
// which the original handle reports Valid() == false.
package program
