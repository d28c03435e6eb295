// Package compiler chains the backend stages into one entry point.
//
// Compile runs type resolution, code generation, module validation and
// binary encoding in that order and stops at the first failure. The result
// carries the module model, its binary encoding and a WIT world describing
// the exported functions, which the runtime package uses to type calls.
//
//	res, err := compiler.New().Compile(prog)
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("out.wasm", res.Binary, 0o644)
package compiler
