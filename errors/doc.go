// Package errors provides structured error types for the nio toolchain.
//
// Errors are categorized by Phase (which pipeline stage failed) and Kind
// (error category). The Error type carries the location path, the rendered
// IR node, an optional WIT type name and the cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseCodegen, errors.KindUnsupported).
//		Path("add", "x").
//		Node(param.Type).
//		Detail("unsupported parameter type").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseCodegen, "identifier", "z")
//	err := errors.IO(errors.PhaseEncode, cause)
//
// All errors implement the standard error interface and support errors.Is/As.
// A target *Error with only a Phase or only a Kind set matches any error of
// that phase or kind.
package errors
