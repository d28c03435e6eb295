// Package nio compiles a small expression language into WebAssembly binary
// modules.
//
// Programs arrive as an IR tree (package ir), typically decoded from JSON.
// The pipeline resolves type names, lowers definitions to functions and
// encodes the result in the core module binary format.
//
// # Architecture Overview
//
//	nio/
//	├── ir/          Program tree, printing and the JSON codec
//	├── typecheck/   Resolves written type names to IR types
//	├── annotate/    Interprets definition annotations such as @export
//	├── codegen/     Lowers resolved programs to module models
//	├── wasm/        Module model, binary encoder, decoder and validator
//	├── compiler/    Chains the stages and renders a WIT world
//	├── eval/        Reference interpreter used to check compiled output
//	├── engine/      wazero integration and value lowering
//	├── runtime/     Compile-and-run API typed by WIT signatures
//	├── errors/      Structured error types
//	└── cmd/nio/     Command-line front end
//
// # Quick Start
//
//	res, err := compiler.Compile(prog)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("add.wasm", res.Binary, 0o644)
//
// Or compile and call in one step:
//
//	rt, _ := runtime.New(ctx)
//	defer rt.Close(ctx)
//
//	mod, err := rt.Compile(ctx, prog)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	inst, err := mod.Instantiate(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	result, err := inst.Call(ctx, "add", int32(3), int32(4))
//	fmt.Println(result) // 7
//
// # Supported Subset
//
// Only Int (i32) parameters, results and let bindings lower to code.
// Arithmetic wraps on overflow. Lambdas, calls, assignments and string
// literals parse and evaluate but are rejected by code generation.
//
// # Thread Safety
//
// Compilers and Generators are safe for concurrent use. Runtime instances
// and the interpreter are not.
package nio
