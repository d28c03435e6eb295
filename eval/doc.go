// Package eval is a tree-walking interpreter for IR programs.
//
// It gives every IR construct a meaning, including the ones code generation
// does not lower yet, and serves as the reference the compiled output is
// checked against. Integer arithmetic wraps at 32 bits like i32.
//
//	in := eval.New()
//	if _, err := in.Run(prog); err != nil {
//		return err
//	}
//	v, err := in.Call("add", eval.Int(3), eval.Int(4))
package eval
