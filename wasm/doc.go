// Package wasm encodes WebAssembly binary modules.
//
// It covers the subset the QIR lowering emits: function types, function
// imports, one linear memory, exports, code and active data segments.
//
//	m := &wasm.Module{}
//	h := m.AddImport("qir", "__quantum__qis__h__body", wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}})
//
//	code := wasm.NewCode()
//	code.I64Const(0)
//	code.Call(h)
//	code.End()
//
//	main := m.AddFunc(wasm.FuncType{}, wasm.FuncBody{Code: code.Bytes()})
//	m.ExportFunc("main", main)
//	bin := m.Encode()
//
// Function indices count imports first. All imports must be added before the
// first function definition.
package wasm
