// Package lower translates a parsed QIR program into a WebAssembly module.
//
// Only the entry routine and the routines it reaches are lowered. Routines
// the program declares but does not define become function imports from
// the "qir" module, which the engine satisfies with host functions.
//
// Value representation:
//
//	i1 .. i32        i32, zero-extended to the IR width
//	i64, pointers    i64
//	double, float    f64, f32
//
// Opaque pointers such as %Qubit* and %Result* are never dereferenced, so
// they pass through as plain i64 identifiers. Constant globals are placed
// in an exported linear memory starting at a non-zero address so that null
// stays distinct. Memory access instructions, aggregates, varargs and
// indirect calls are rejected with a compile error naming the routine and
// source line.
package lower
