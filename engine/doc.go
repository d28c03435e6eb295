// Package engine executes core WebAssembly modules on wazero.
//
// # Architecture
//
//	Engine   - owns a wazero runtime and compiles module binaries
//	Module   - a compiled module; lists exported functions, creates instances
//	Instance - a running module whose exports can be called
//
// Start functions and a "_start" export are never run implicitly; call
// them like any other export.
//
// # Values
//
// Calls take WIT types describing each parameter and result. Core value
// types map onto WIT primitives:
//
//	Core   WIT
//	───────────
//	i32    s32 (also u32, s8, u8, s16, u16, bool, char)
//	i64    s64 (also u64)
//	f32    f32
//	f64    f64
//
// Go arguments are range-checked against their WIT type before lowering.
//
// # Thread Safety
//
// Engine and Module are safe for concurrent use. Instance is NOT
// thread-safe and should be used by a single goroutine.
package engine
