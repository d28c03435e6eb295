// Package codegen lowers a resolved IR program into a wasm.Module.
//
// Every definition becomes one function, appended in statement order, so
// the n-th definition has function index n. A definition annotated with
// export("name") is exported under that name. Parameters and results must
// be Int, lowered to i32.
//
// Top-level statements that are not definitions are folded, in order,
// into one function of type () -> () appended after all definitions and
// exported as "_start". Expression statements drop their value; typed let
// bindings allocate an i32 local visible to later statements.
//
// Supported expressions are integer literals, identifiers bound to
// parameters or locals, and the binary operators +, - and *. Other
// constructs fail with an unsupported error, and any failure aborts the
// whole module.
package codegen
