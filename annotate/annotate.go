// Package annotate turns annotation expressions attached to definitions
// into structured values.
//
// Only one shape is recognized:
//
//	export("name")
//
// which is written in the IR as a Call whose callee is the identifier
// "export" and whose single argument is a string literal.
package annotate

import (
	"fmt"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/ir"
)

// Kind identifies a recognized annotation.
type Kind uint8

const (
	KindExport Kind = iota + 1
)

func (k Kind) String() string {
	switch k {
	case KindExport:
		return "export"
	default:
		return fmt.Sprintf("annotation(%d)", uint8(k))
	}
}

// Annotation is a resolved annotation with its literal arguments.
type Annotation struct {
	Args []string
	Kind Kind
}

// ExportName returns the export name carried by an export annotation.
func (a Annotation) ExportName() (string, bool) {
	if a.Kind != KindExport || len(a.Args) != 1 {
		return "", false
	}
	return a.Args[0], true
}

// Resolve converts every expression in exprs. The first unrecognized
// annotation aborts resolution.
func Resolve(exprs []ir.Expr) ([]Annotation, error) {
	out := make([]Annotation, 0, len(exprs))
	for i, e := range exprs {
		a, err := resolveOne(e)
		if err != nil {
			err.Path = append([]string{fmt.Sprintf("annotation[%d]", i)}, err.Path...)
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func resolveOne(e ir.Expr) (Annotation, *errors.Error) {
	call, ok := e.(*ir.Call)
	if !ok {
		return Annotation{}, unsupported(e, "annotation must be a call")
	}
	callee, ok := call.Callee.(*ir.Ident)
	if !ok {
		return Annotation{}, unsupported(e, "annotation callee must be an identifier")
	}

	switch callee.Name {
	case "export":
		if len(call.Args) != 1 {
			return Annotation{}, unsupported(e, fmt.Sprintf("export takes 1 argument, got %d", len(call.Args)))
		}
		name, ok := call.Args[0].(*ir.StringLit)
		if !ok {
			return Annotation{}, unsupported(e, "export name must be a string literal")
		}
		return Annotation{Kind: KindExport, Args: []string{name.Text}}, nil
	}
	return Annotation{}, unsupported(e, fmt.Sprintf("unknown annotation %q", callee.Name))
}

func unsupported(e ir.Expr, detail string) *errors.Error {
	return errors.New(errors.PhaseAnnotate, errors.KindInvalidAnnotation).
		Node(e).
		Detail("unsupported annotation: %s", detail).
		Build()
}
