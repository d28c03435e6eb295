// Package runtime provides the high-level API for compiling and running
// programs.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	// Compile an IR program and load the result
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
// # Loading Modules
//
//	Compile(program)      - compile an IR program and load it
//	LoadWASM(bytes, wit)  - load a core module binary
//
// Core modules carry no WIT metadata. LoadWASM accepts WIT text whose
// function declarations type the calls:
//
//	export add: func(x: s32, y: s32) -> s32;
//
// Functions missing from the WIT text, or every function when the text is
// empty, are typed from their core signature (i32 as s32, i64 as s64).
package runtime
