package eval

import (
	"fmt"
	"strconv"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/ir"
)

// DefaultMaxDepth bounds nested calls.
const DefaultMaxDepth = 10000

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithMaxDepth sets the maximum call depth. Values below 1 are ignored.
func WithMaxDepth(n int) Option {
	return func(in *Interpreter) {
		if n > 0 {
			in.maxDepth = n
		}
	}
}

// Interpreter evaluates programs against a global environment that
// persists across Run calls. It is not safe for concurrent use.
type Interpreter struct {
	envs     []envRecord
	global   EnvID
	depth    int
	maxDepth int
}

// New creates an interpreter with an empty global environment.
func New(opts ...Option) *Interpreter {
	in := &Interpreter{maxDepth: DefaultMaxDepth}
	in.global = in.newEnv(noEnv)
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Run evaluates the statements of p in order and returns the value of the
// last one. Definitions and let bindings evaluate to Unit.
func (in *Interpreter) Run(p *ir.Program) (Value, error) {
	if p == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "nil program")
	}

	var last Value = Unit{}
	for i, s := range p.Statements {
		v, err := in.stmt(s)
		if err != nil {
			err.Path = append([]string{fmt.Sprintf("statement[%d]", i)}, err.Path...)
			return nil, err
		}
		last = v
	}
	return last, nil
}

// Call applies the global function name to args.
func (in *Interpreter) Call(name string, args ...Value) (Value, error) {
	v, ok := in.get(in.global, name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}
	fn, ok := v.(*Closure)
	if !ok {
		return nil, notCallable(name, v)
	}
	res, err := in.apply(fn, args)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Lookup returns the global binding for name.
func (in *Interpreter) Lookup(name string) (Value, bool) {
	return in.get(in.global, name)
}

func (in *Interpreter) stmt(s ir.Stmt) (Value, *errors.Error) {
	switch n := s.(type) {
	case *ir.Def:
		if n == nil {
			return nil, missingStatement()
		}
		params := make([]string, len(n.Params))
		for i, p := range n.Params {
			params[i] = p.Name
		}
		in.set(in.global, n.Name, &Closure{Name: n.Name, Params: params, Body: n.Body, Env: in.global})
		return Unit{}, nil

	case *ir.Let:
		if n == nil {
			return nil, missingStatement()
		}
		v, err := in.expr(in.global, n.Value)
		if err != nil {
			err.Path = append([]string{n.Name}, err.Path...)
			return nil, err
		}
		in.set(in.global, n.Name, v)
		return Unit{}, nil

	case *ir.ExprStmt:
		if n == nil {
			return nil, missingStatement()
		}
		return in.expr(in.global, n.X)
	}
	if s == nil {
		return nil, missingStatement()
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, fmt.Sprintf("statement %T", s))
}

func missingStatement() *errors.Error {
	return errors.InvalidInput(errors.PhaseRuntime, "missing statement")
}

func (in *Interpreter) expr(env EnvID, e ir.Expr) (Value, *errors.Error) {
	switch n := e.(type) {
	case *ir.BinOp:
		lhs, err := in.expr(env, n.LHS)
		if err != nil {
			return nil, err
		}
		rhs, err := in.expr(env, n.RHS)
		if err != nil {
			return nil, err
		}
		a, ok := lhs.(Int)
		if !ok {
			return nil, operandMismatch(n, lhs)
		}
		b, ok := rhs.(Int)
		if !ok {
			return nil, operandMismatch(n, rhs)
		}
		switch n.Op {
		case ir.Add:
			return a + b, nil
		case ir.Sub:
			return a - b, nil
		case ir.Mul:
			return a * b, nil
		}
		return nil, errors.New(errors.PhaseRuntime, errors.KindUnsupported).
			Node(n).
			Detail("unsupported operator %s", n.Op).
			Build()

	case *ir.Assign:
		v, err := in.expr(env, n.RHS)
		if err != nil {
			return nil, err
		}
		in.set(env, n.LHS, v)
		return v, nil

	case *ir.Lambda:
		return &Closure{Params: n.Params, Body: n.Body, Env: env}, nil

	case *ir.Call:
		callee, err := in.expr(env, n.Callee)
		if err != nil {
			return nil, err
		}
		fn, ok := callee.(*Closure)
		if !ok {
			return nil, notCallable(n.Callee.String(), callee)
		}
		if len(n.Args) != len(fn.Params) {
			return nil, arity(fn, len(n.Args))
		}
		args := make([]Value, len(n.Args))
		for i, a := range n.Args {
			if args[i], err = in.expr(env, a); err != nil {
				return nil, err
			}
		}
		return in.apply(fn, args)

	case *ir.Ident:
		v, ok := in.get(env, n.Name)
		if !ok {
			return nil, errors.NotFound(errors.PhaseRuntime, "identifier", n.Name)
		}
		return v, nil

	case *ir.IntLit:
		v, err := strconv.ParseInt(n.Text, 10, 32)
		if err != nil {
			return nil, errors.InvalidLiteral(errors.PhaseRuntime, n.Text, err)
		}
		return Int(v), nil

	case *ir.StringLit:
		return String(n.Text), nil

	case nil:
		return nil, errors.InvalidInput(errors.PhaseRuntime, "missing expression")
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, fmt.Sprintf("expression %T", e))
}

// apply binds args in a fresh environment under the closure's own and
// evaluates the body there.
func (in *Interpreter) apply(fn *Closure, args []Value) (Value, *errors.Error) {
	if len(args) != len(fn.Params) {
		return nil, arity(fn, len(args))
	}
	if in.depth >= in.maxDepth {
		return nil, errors.New(errors.PhaseRuntime, errors.KindOutOfBounds).
			Value(in.depth).
			Detail("call depth exceeds %d", in.maxDepth).
			Build()
	}

	env := in.newEnv(fn.Env)
	for i, p := range fn.Params {
		in.set(env, p, args[i])
	}

	in.depth++
	defer func() { in.depth-- }()

	v, err := in.expr(env, fn.Body)
	if err != nil && fn.Name != "" {
		err.Path = append([]string{fn.Name}, err.Path...)
	}
	return v, err
}

func operandMismatch(n *ir.BinOp, v Value) *errors.Error {
	return errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
		Node(n).
		Value(v).
		Detail("operator %s expects Int operands, got %s", n.Op, v).
		Build()
}

func notCallable(what string, v Value) *errors.Error {
	return errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
		Value(v).
		Detail("%s is not a function: %s", what, v).
		Build()
}

func arity(fn *Closure, got int) *errors.Error {
	return errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
		Value(got).
		Detail("%s expects %d arguments, got %d", fn, len(fn.Params), got).
		Build()
}
