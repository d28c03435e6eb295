// Package typecheck resolves surface type names in an IR program.
//
// Resolution rewrites types in place. The name "Int" becomes ir.Int;
// every other name is left unresolved so that code generation can report
// it against the construct that uses it.
package typecheck

import (
	"fmt"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/ir"
)

// builtin maps surface names to resolved types.
var builtin = map[string]ir.Type{
	"Int": ir.Int,
}

// Resolve resolves every parameter, return and binding type in p and
// walks each statement's expressions. It fails only on structurally
// broken programs.
func Resolve(p *ir.Program) error {
	if p == nil {
		return errors.InvalidInput(errors.PhaseResolve, "nil program")
	}
	for i, s := range p.Statements {
		if err := resolveStmt(s); err != nil {
			err.Path = append([]string{fmt.Sprintf("statement[%d]", i)}, err.Path...)
			return err
		}
	}
	return nil
}

// ResolveType rewrites t if it names a known type.
func ResolveType(t *ir.Type) {
	if t.Kind != ir.KindUnresolved {
		return
	}
	if r, ok := builtin[t.Name]; ok {
		*t = r
	}
}

func resolveStmt(s ir.Stmt) *errors.Error {
	switch n := s.(type) {
	case *ir.Def:
		if n == nil {
			return missing("statement")
		}
		for i := range n.Params {
			ResolveType(&n.Params[i].Type)
		}
		ResolveType(&n.ReturnType)
		return withPath(checkExpr(n.Body), n.Name, "body")
	case *ir.Let:
		if n == nil {
			return missing("statement")
		}
		ResolveType(&n.Type)
		return withPath(checkExpr(n.Value), n.Name, "value")
	case *ir.ExprStmt:
		if n == nil {
			return missing("statement")
		}
		return checkExpr(n.X)
	case nil:
		return missing("statement")
	}
	return errors.Unsupported(errors.PhaseResolve, fmt.Sprintf("statement %T", s))
}

// checkExpr walks e. Expressions carry no types of their own yet; the
// walk only rejects missing nodes.
func checkExpr(e ir.Expr) *errors.Error {
	var err *errors.Error
	ir.Inspect(e, func(n ir.Expr) bool {
		if err != nil {
			return false
		}
		if n == nil {
			err = missing("expression")
			return false
		}
		return true
	})
	return err
}

func missing(what string) *errors.Error {
	return errors.InvalidInput(errors.PhaseResolve, "missing "+what)
}

func withPath(err *errors.Error, path ...string) *errors.Error {
	if err != nil {
		err.Path = append(path, err.Path...)
	}
	return err
}
