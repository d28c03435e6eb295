// Package wasm provides the WebAssembly module model and its binary encoder.
//
// The model holds the syntactic units a compiled nio program needs:
// function types, functions with their instruction sequences, and exports.
// Tables, memories, globals, imports, element and data segments and the
// start function are part of the model for completeness, but the encoder
// rejects a module that populates them.
//
// # Building
//
// Modules are built strictly by append. Each builder returns the index the
// entity was assigned:
//
//	m := &wasm.Module{}
//	t := m.AddType(wasm.FuncType{
//	    Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
//	    Results: []wasm.ValType{wasm.ValI32},
//	})
//	f := m.AddFunc(wasm.Func{Type: t, Body: []wasm.Instr{
//	    wasm.LocalGet(0), wasm.LocalGet(1), wasm.Op(wasm.OpI32Add),
//	}})
//	m.AddExport(wasm.Export{Name: "add", Desc: wasm.FuncExport(f)})
//
// # Encoding
//
// Encode writes the binary format to any sink:
//
//	if err := wasm.Encode(file, m); err != nil {
//	    log.Fatal(err)
//	}
//
// Sections are emitted in id order (type, function, export, code) and
// empty sections are omitted, so an empty module is exactly the 8-byte
// header. Instructions without an encoding (structured control flow,
// call_indirect) fail the whole encode call.
//
// # Decoding and inspection
//
// ParseModule decodes the same subset back into a Module. Validate checks
// index invariants, WriteText renders a WAT-like dump and Stats reports
// per-function counters.
package wasm
