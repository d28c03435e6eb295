// Package ir defines the intermediate representation consumed by the
// compiler backend.
//
// A Program is an ordered list of statements. Statements and expressions
// are closed sets of pointer types implementing Stmt and Expr; a type
// switch over them is exhaustive. Types start out as Unresolved surface
// names and are rewritten in place by the typecheck package.
//
// Programs can be read and written as JSON with DecodeProgram and
// EncodeProgram. Each node is an object with a single key naming its
// variant:
//
//	{"statements": [
//	  {"def": {
//	    "annotations": [{"call": {"callee": {"ident": "export"}, "args": [{"string": "add"}]}}],
//	    "name": "add",
//	    "params": [{"name": "x", "type": "Int"}, {"name": "y", "type": "Int"}],
//	    "return_type": "Int",
//	    "body": {"binop": {"op": "+", "lhs": {"ident": "x"}, "rhs": {"ident": "y"}}}
//	  }}
//	]}
package ir
