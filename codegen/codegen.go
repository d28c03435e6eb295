package codegen

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/nio/annotate"
	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/ir"
	"github.com/wippyai/nio/wasm"
)

// EntryName is the export name of the function synthesized from
// top-level statements that are not definitions.
const EntryName = "_start"

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger for generation events.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.log = l
		}
	}
}

// Generator lowers IR programs into module models. A Generator holds no
// per-program state and may be shared.
type Generator struct {
	log *zap.Logger
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{log: Logger()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate lowers p using a Generator configured by opts.
func Generate(p *ir.Program, opts ...Option) (*wasm.Module, error) {
	return New(opts...).Generate(p)
}

// Generate lowers a resolved program. Each definition becomes one function
// in statement order; remaining top-level statements are folded into a
// trailing entry function exported as EntryName. Any failure aborts the
// whole module.
func (g *Generator) Generate(p *ir.Program) (*wasm.Module, error) {
	if p == nil {
		return nil, errors.InvalidInput(errors.PhaseCodegen, "nil program")
	}

	st := &state{
		log:     g.log,
		m:       &wasm.Module{},
		exports: make(map[string]struct{}),
	}

	var top []ir.Stmt
	for _, s := range p.Statements {
		if def, ok := s.(*ir.Def); ok && def != nil {
			if err := st.genDef(def); err != nil {
				return nil, err
			}
			continue
		}
		top = append(top, s)
	}

	if len(top) > 0 {
		if err := st.genEntry(top); err != nil {
			return nil, err
		}
	}

	g.log.Debug("module generated",
		zap.Int("types", len(st.m.Types)),
		zap.Int("funcs", len(st.m.Funcs)),
		zap.Int("exports", len(st.m.Exports)))
	return st.m, nil
}

// state is the per-program generation context.
type state struct {
	log     *zap.Logger
	m       *wasm.Module
	exports map[string]struct{}
}

func (st *state) genDef(def *ir.Def) *errors.Error {
	path := []string{def.Name}

	anns, err := annotate.Resolve(def.Annotations)
	if err != nil {
		return prefix(asError(err), path...)
	}
	if len(anns) > 1 {
		return errors.New(errors.PhaseCodegen, errors.KindInvalidAnnotation).
			Path(path...).
			Value(len(anns)).
			Detail("unsupported annotation: at most one annotation is allowed, got %d", len(anns)).
			Build()
	}
	var exportName string
	if len(anns) == 1 {
		name, ok := anns[0].ExportName()
		if !ok {
			return errors.New(errors.PhaseCodegen, errors.KindInvalidAnnotation).
				Path(path...).
				Detail("unsupported annotation: %s", anns[0].Kind).
				Build()
		}
		exportName = name
	}

	sig := wasm.FuncType{}
	for i, p := range def.Params {
		vt, ok := valType(p.Type)
		if !ok {
			return errors.New(errors.PhaseCodegen, errors.KindUnsupported).
				Path(def.Name, fmt.Sprintf("param[%d]", i)).
				WitType(p.Type.String()).
				Detail("unsupported parameter type %s for %q", p.Type, p.Name).
				Build()
		}
		sig.Params = append(sig.Params, vt)
	}
	rt, ok := valType(def.ReturnType)
	if !ok {
		return errors.New(errors.PhaseCodegen, errors.KindUnsupported).
			Path(def.Name, "return").
			WitType(def.ReturnType.String()).
			Detail("unsupported return type %s", def.ReturnType).
			Build()
	}
	sig.Results = []wasm.ValType{rt}

	typeIdx := st.m.AddType(sig)

	fb := newFuncBuilder(len(sig.Params))
	for i, p := range def.Params {
		fb.scopes.declare(fb.root, p.Name, wasm.LocalIdx(i))
	}
	if err := fb.genExpr(fb.root, def.Body); err != nil {
		return prefix(err, def.Name, "body")
	}

	funcIdx := st.m.AddFunc(fb.finish(typeIdx))
	st.log.Debug("function generated",
		zap.String("name", def.Name),
		zap.Uint32("index", uint32(funcIdx)),
		zap.Uint32("type", uint32(typeIdx)),
		zap.Int("instrs", len(fb.body)))

	if exportName != "" {
		return st.export(exportName, funcIdx, path)
	}
	return nil
}

// genEntry folds non-definition statements into one () -> () function.
func (st *state) genEntry(stmts []ir.Stmt) *errors.Error {
	fb := newFuncBuilder(0)
	for i, s := range stmts {
		if err := fb.genTopLevel(s); err != nil {
			return prefix(err, EntryName, fmt.Sprintf("statement[%d]", i))
		}
	}

	typeIdx := st.m.AddType(wasm.FuncType{})
	funcIdx := st.m.AddFunc(fb.finish(typeIdx))
	st.log.Debug("function generated",
		zap.String("name", EntryName),
		zap.Uint32("index", uint32(funcIdx)),
		zap.Int("locals", len(fb.locals)),
		zap.Int("instrs", len(fb.body)))

	return st.export(EntryName, funcIdx, []string{EntryName})
}

func (st *state) export(name string, idx wasm.FuncIdx, path []string) *errors.Error {
	if _, dup := st.exports[name]; dup {
		return errors.New(errors.PhaseCodegen, errors.KindInvalidData).
			Path(path...).
			Value(name).
			Detail("duplicate export %q", name).
			Build()
	}
	st.exports[name] = struct{}{}
	st.m.AddExport(wasm.Export{Name: name, Desc: wasm.FuncExport(idx)})
	st.log.Debug("export bound", zap.String("export", name), zap.Uint32("func", uint32(idx)))
	return nil
}

// valType maps a resolved IR type to a value type. Only Int lowers.
func valType(t ir.Type) (wasm.ValType, bool) {
	if t.IsInt() {
		return wasm.ValI32, true
	}
	return 0, false
}

// funcBuilder accumulates one function body.
type funcBuilder struct {
	scopes  scopes
	locals  []wasm.ValType
	body    []wasm.Instr
	nparams int
	root    int
}

func newFuncBuilder(nparams int) *funcBuilder {
	fb := &funcBuilder{nparams: nparams}
	fb.root = fb.scopes.push(noParent)
	return fb
}

func (fb *funcBuilder) emit(in ...wasm.Instr) {
	fb.body = append(fb.body, in...)
}

// addLocal declares a local after the parameters and returns its index.
func (fb *funcBuilder) addLocal(t wasm.ValType) wasm.LocalIdx {
	fb.locals = append(fb.locals, t)
	return wasm.LocalIdx(fb.nparams + len(fb.locals) - 1)
}

func (fb *funcBuilder) finish(t wasm.TypeIdx) wasm.Func {
	return wasm.Func{Type: t, Locals: fb.locals, Body: fb.body}
}

func (fb *funcBuilder) genTopLevel(s ir.Stmt) *errors.Error {
	switch n := s.(type) {
	case *ir.ExprStmt:
		if n == nil {
			return errors.InvalidInput(errors.PhaseCodegen, "missing statement")
		}
		if err := fb.genExpr(fb.root, n.X); err != nil {
			return err
		}
		fb.emit(wasm.Drop())
		return nil

	case *ir.Let:
		if n == nil {
			return errors.InvalidInput(errors.PhaseCodegen, "missing statement")
		}
		switch {
		case n.Type.Kind == ir.KindUntyped:
			err := errors.NotYetSupported(errors.PhaseCodegen, "untyped let binding")
			err.Node = n.String()
			return err
		case !n.Type.IsInt():
			return errors.New(errors.PhaseCodegen, errors.KindUnsupported).
				Path(n.Name).
				WitType(n.Type.String()).
				Detail("unsupported binding type %s for %q", n.Type, n.Name).
				Build()
		}
		// the value is generated before the name is bound, so it sees any
		// earlier binding it shadows
		if err := fb.genExpr(fb.root, n.Value); err != nil {
			return prefix(err, n.Name)
		}
		idx := fb.addLocal(wasm.ValI32)
		fb.scopes.declare(fb.root, n.Name, idx)
		fb.emit(wasm.LocalSet(idx))
		return nil

	case nil:
		return errors.InvalidInput(errors.PhaseCodegen, "missing statement")
	}
	return errors.Unsupported(errors.PhaseCodegen, fmt.Sprintf("statement %T", s))
}

func (fb *funcBuilder) genExpr(at int, e ir.Expr) *errors.Error {
	switch n := e.(type) {
	case *ir.BinOp:
		op, ok := binOps[n.Op]
		if !ok {
			return errors.New(errors.PhaseCodegen, errors.KindUnsupported).
				Node(n).
				Detail("unsupported operator %s", n.Op).
				Build()
		}
		if err := fb.genExpr(at, n.LHS); err != nil {
			return err
		}
		if err := fb.genExpr(at, n.RHS); err != nil {
			return err
		}
		fb.emit(wasm.Op(op))
		return nil

	case *ir.Ident:
		idx, ok := fb.scopes.lookup(at, n.Name)
		if !ok {
			return errors.NotFound(errors.PhaseCodegen, "identifier", n.Name)
		}
		fb.emit(wasm.LocalGet(idx))
		return nil

	case *ir.IntLit:
		v, err := strconv.ParseInt(n.Text, 10, 32)
		if err != nil {
			return errors.InvalidLiteral(errors.PhaseCodegen, n.Text, err)
		}
		fb.emit(wasm.I32Const(int32(v)))
		return nil

	case *ir.Assign:
		return notYet("assignment", n)
	case *ir.Lambda:
		return notYet("lambda", n)
	case *ir.Call:
		return notYet("call", n)
	case *ir.StringLit:
		return notYet("string literal", n)
	case nil:
		return errors.InvalidInput(errors.PhaseCodegen, "missing expression")
	}
	return errors.Unsupported(errors.PhaseCodegen, fmt.Sprintf("expression %T", e))
}

var binOps = map[ir.BinOpKind]wasm.Opcode{
	ir.Add: wasm.OpI32Add,
	ir.Sub: wasm.OpI32Sub,
	ir.Mul: wasm.OpI32Mul,
}

func notYet(construct string, n ir.Expr) *errors.Error {
	err := errors.NotYetSupported(errors.PhaseCodegen, construct)
	err.Node = n.String()
	return err
}

func prefix(err *errors.Error, path ...string) *errors.Error {
	err.Path = append(append([]string{}, path...), err.Path...)
	return err
}

func asError(err error) *errors.Error {
	if e, ok := err.(*errors.Error); ok {
		return e
	}
	return errors.Wrap(errors.PhaseCodegen, errors.KindInvalidAnnotation, err, "resolve annotations")
}
