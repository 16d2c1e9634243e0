// Package ll parses the textual LLVM IR emitted by QIR producers.
//
// The parser covers the base and adaptive profile subset: named opaque
// types, constant globals, function definitions and declarations with
// attribute groups, module flags metadata and the scalar instruction set
// (call, ret, br, switch, unreachable, icmp, fcmp, integer and float
// arithmetic, casts, select, phi). Other instructions are kept as opaque
// entries so later stages can report them with a source line.
//
// Basic usage:
//
//	mod, err := ll.ParseFile("bell.ll")
//	if err != nil {
//		return err
//	}
//	for _, f := range mod.FuncsWithAttr("entry_point") {
//		fmt.Println(f.Name, f.IsDeclaration())
//	}
//
// Bitcode input is rejected; run llvm-dis first.
package ll
