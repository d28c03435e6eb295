package codegen_test

import (
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/nio/codegen"
	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/ir"
	"github.com/wippyai/nio/typecheck"
	"github.com/wippyai/nio/wasm"
)

func ident(name string) *ir.Ident { return &ir.Ident{Name: name} }
func lit(text string) *ir.IntLit  { return &ir.IntLit{Text: text} }

func export(name string) ir.Expr {
	return &ir.Call{Callee: ident("export"), Args: []ir.Expr{&ir.StringLit{Text: name}}}
}

func intParams(names ...string) []ir.Param {
	ps := make([]ir.Param, len(names))
	for i, n := range names {
		ps[i] = ir.Param{Name: n, Type: ir.Unresolved("Int")}
	}
	return ps
}

func addDef() *ir.Def {
	return &ir.Def{
		Annotations: []ir.Expr{export("add")},
		Name:        "add",
		Params:      intParams("x", "y"),
		ReturnType:  ir.Unresolved("Int"),
		Body:        &ir.BinOp{Op: ir.Add, LHS: ident("x"), RHS: ident("y")},
	}
}

func generate(t *testing.T, stmts ...ir.Stmt) (*wasm.Module, error) {
	t.Helper()
	p := &ir.Program{Statements: stmts}
	require.NoError(t, typecheck.Resolve(p))
	return codegen.Generate(p)
}

func TestGenerateAdd(t *testing.T) {
	m, err := generate(t, addDef())
	require.NoError(t, err)

	assert.Equal(t, []wasm.FuncType{{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	}}, m.Types)
	require.Len(t, m.Funcs, 1)
	assert.Equal(t, wasm.TypeIdx(0), m.Funcs[0].Type)
	assert.Empty(t, m.Funcs[0].Locals)
	assert.Equal(t, []wasm.Instr{wasm.LocalGet(0), wasm.LocalGet(1), wasm.Op(wasm.OpI32Add)}, m.Funcs[0].Body)
	assert.Equal(t, []wasm.Export{{Name: "add", Desc: wasm.FuncExport(0)}}, m.Exports)

	data, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F,
		0x03, 0x02, 0x01, 0x00,
		0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,
		0x0A, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B,
	}, data)
}

func TestGenerateEvaluationOrder(t *testing.T) {
	// (a - b) * (c + 2)
	def := &ir.Def{
		Name:       "f",
		Params:     intParams("a", "b", "c"),
		ReturnType: ir.Unresolved("Int"),
		Body: &ir.BinOp{
			Op:  ir.Mul,
			LHS: &ir.BinOp{Op: ir.Sub, LHS: ident("a"), RHS: ident("b")},
			RHS: &ir.BinOp{Op: ir.Add, LHS: ident("c"), RHS: lit("2")},
		},
	}
	m, err := generate(t, def)
	require.NoError(t, err)
	assert.Equal(t, []wasm.Instr{
		wasm.LocalGet(0),
		wasm.LocalGet(1),
		wasm.Op(wasm.OpI32Sub),
		wasm.LocalGet(2),
		wasm.I32Const(2),
		wasm.Op(wasm.OpI32Add),
		wasm.Op(wasm.OpI32Mul),
	}, m.Funcs[0].Body)
	assert.Empty(t, m.Exports)
}

func TestGenerateIndicesFollowStatementOrder(t *testing.T) {
	one := &ir.Def{Name: "one", ReturnType: ir.Unresolved("Int"), Body: lit("1")}
	two := &ir.Def{Annotations: []ir.Expr{export("two")}, Name: "two", ReturnType: ir.Unresolved("Int"), Body: lit("2")}
	m, err := generate(t, one, addDef(), two)
	require.NoError(t, err)

	require.Len(t, m.Funcs, 3)
	require.Len(t, m.Types, 3)
	for i, f := range m.Funcs {
		assert.Equal(t, wasm.TypeIdx(i), f.Type)
	}
	assert.Equal(t, []wasm.Export{
		{Name: "add", Desc: wasm.FuncExport(1)},
		{Name: "two", Desc: wasm.FuncExport(2)},
	}, m.Exports)
	assert.NoError(t, m.Validate())
}

func TestGenerateIntLiterals(t *testing.T) {
	tests := []struct {
		text string
		want int32
	}{
		{"0", 0},
		{"42", 42},
		{"-7", -7},
		{"2147483647", 2147483647},
		{"-2147483648", -2147483648},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m, err := generate(t, &ir.Def{Name: "k", ReturnType: ir.Unresolved("Int"), Body: lit(tt.text)})
			require.NoError(t, err)
			assert.Equal(t, []wasm.Instr{wasm.I32Const(tt.want)}, m.Funcs[0].Body)
		})
	}
}

func TestGenerateEntryFunction(t *testing.T) {
	m, err := generate(t,
		&ir.Let{Name: "x", Type: ir.Unresolved("Int"), Value: lit("5")},
		addDef(),
		&ir.ExprStmt{X: &ir.BinOp{Op: ir.Mul, LHS: ident("x"), RHS: lit("3")}},
		&ir.Let{Name: "x", Type: ir.Unresolved("Int"), Value: &ir.BinOp{Op: ir.Add, LHS: ident("x"), RHS: lit("1")}},
		&ir.ExprStmt{X: ident("x")},
	)
	require.NoError(t, err)

	require.Len(t, m.Funcs, 2)
	entry := m.Funcs[1]
	assert.Equal(t, wasm.FuncType{}, m.Types[entry.Type])
	assert.Equal(t, []wasm.ValType{wasm.ValI32, wasm.ValI32}, entry.Locals)
	assert.Equal(t, []wasm.Instr{
		wasm.I32Const(5),
		wasm.LocalSet(0),
		wasm.LocalGet(0),
		wasm.I32Const(3),
		wasm.Op(wasm.OpI32Mul),
		wasm.Drop(),
		wasm.LocalGet(0),
		wasm.I32Const(1),
		wasm.Op(wasm.OpI32Add),
		wasm.LocalSet(1),
		wasm.LocalGet(1),
		wasm.Drop(),
	}, entry.Body)

	idx, ok := m.ExportedFunc(codegen.EntryName)
	require.True(t, ok)
	assert.Equal(t, wasm.FuncIdx(1), idx)
	assert.NoError(t, m.Validate())

	_, err = m.Encode()
	assert.NoError(t, err)
}

func TestGenerateNoEntryWithoutTopLevelStatements(t *testing.T) {
	m, err := generate(t, addDef())
	require.NoError(t, err)
	_, ok := m.ExportedFunc(codegen.EntryName)
	assert.False(t, ok)

	m, err = generate(t)
	require.NoError(t, err)
	assert.Empty(t, m.Funcs)
}

func TestGenerateEntryCannotSeeParameters(t *testing.T) {
	_, err := generate(t, addDef(), &ir.ExprStmt{X: ident("x")})
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseCodegen, Kind: errors.KindNotFound}))
}

func TestGenerateErrors(t *testing.T) {
	withBody := func(body ir.Expr) *ir.Def {
		d := addDef()
		d.Body = body
		return d
	}

	tests := []struct {
		name  string
		stmts []ir.Stmt
		phase errors.Phase
		kind  errors.Kind
		path  []string
	}{
		{
			name:  "unknown identifier",
			stmts: []ir.Stmt{withBody(&ir.BinOp{Op: ir.Add, LHS: ident("x"), RHS: ident("z")})},
			phase: errors.PhaseCodegen, kind: errors.KindNotFound,
			path: []string{"add", "body"},
		},
		{
			name:  "literal out of range",
			stmts: []ir.Stmt{withBody(lit("2147483648"))},
			phase: errors.PhaseCodegen, kind: errors.KindInvalidLiteral,
			path: []string{"add", "body"},
		},
		{
			name:  "non-numeric literal",
			stmts: []ir.Stmt{withBody(lit("12a"))},
			phase: errors.PhaseCodegen, kind: errors.KindInvalidLiteral,
			path: []string{"add", "body"},
		},
		{
			name:  "assignment",
			stmts: []ir.Stmt{withBody(&ir.Assign{LHS: "x", RHS: lit("1")})},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"add", "body"},
		},
		{
			name:  "lambda",
			stmts: []ir.Stmt{withBody(&ir.Lambda{Params: []string{"a"}, Body: ident("a")})},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"add", "body"},
		},
		{
			name:  "call",
			stmts: []ir.Stmt{withBody(&ir.Call{Callee: ident("add"), Args: []ir.Expr{lit("1"), lit("2")}})},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"add", "body"},
		},
		{
			name:  "string literal",
			stmts: []ir.Stmt{withBody(&ir.StringLit{Text: "s"})},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"add", "body"},
		},
		{
			name:  "unknown operator",
			stmts: []ir.Stmt{withBody(&ir.BinOp{Op: ir.BinOpKind(9), LHS: lit("1"), RHS: lit("2")})},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"add", "body"},
		},
		{
			name: "unresolved parameter",
			stmts: []ir.Stmt{&ir.Def{
				Name:       "f",
				Params:     []ir.Param{{Name: "s", Type: ir.Unresolved("Str")}},
				ReturnType: ir.Unresolved("Int"),
				Body:       lit("1"),
			}},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"f", "param[0]"},
		},
		{
			name: "unit return",
			stmts: []ir.Stmt{&ir.Def{
				Name:       "f",
				ReturnType: ir.Unit,
				Body:       lit("1"),
			}},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"f", "return"},
		},
		{
			name: "two annotations",
			stmts: []ir.Stmt{&ir.Def{
				Annotations: []ir.Expr{export("a"), export("b")},
				Name:        "f",
				ReturnType:  ir.Unresolved("Int"),
				Body:        lit("1"),
			}},
			phase: errors.PhaseCodegen, kind: errors.KindInvalidAnnotation,
			path: []string{"f"},
		},
		{
			name: "unknown annotation",
			stmts: []ir.Stmt{&ir.Def{
				Annotations: []ir.Expr{&ir.Call{Callee: ident("inline")}},
				Name:        "f",
				ReturnType:  ir.Unresolved("Int"),
				Body:        lit("1"),
			}},
			phase: errors.PhaseAnnotate, kind: errors.KindInvalidAnnotation,
			path: []string{"f", "annotation[0]"},
		},
		{
			name:  "duplicate export",
			stmts: []ir.Stmt{addDef(), addDef()},
			phase: errors.PhaseCodegen, kind: errors.KindInvalidData,
			path: []string{"add"},
		},
		{
			name: "export collides with entry",
			stmts: []ir.Stmt{
				&ir.Def{Annotations: []ir.Expr{export("_start")}, Name: "f", ReturnType: ir.Unresolved("Int"), Body: lit("1")},
				&ir.ExprStmt{X: lit("1")},
			},
			phase: errors.PhaseCodegen, kind: errors.KindInvalidData,
			path: []string{"_start"},
		},
		{
			name:  "untyped let",
			stmts: []ir.Stmt{&ir.Let{Name: "v", Type: ir.Untyped, Value: lit("1")}},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"_start", "statement[0]"},
		},
		{
			name:  "let with unknown type",
			stmts: []ir.Stmt{&ir.Let{Name: "v", Type: ir.Unresolved("Str"), Value: lit("1")}},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"_start", "statement[0]", "v"},
		},
		{
			name: "let refers to itself",
			stmts: []ir.Stmt{
				&ir.ExprStmt{X: lit("0")},
				&ir.Let{Name: "v", Type: ir.Unresolved("Int"), Value: ident("v")},
			},
			phase: errors.PhaseCodegen, kind: errors.KindNotFound,
			path: []string{"_start", "statement[1]", "v"},
		},
		{
			name:  "top-level string",
			stmts: []ir.Stmt{&ir.ExprStmt{X: &ir.StringLit{Text: "hi"}}},
			phase: errors.PhaseCodegen, kind: errors.KindUnsupported,
			path: []string{"_start", "statement[0]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := generate(t, tt.stmts...)
			assert.Nil(t, m)
			require.Error(t, err)

			var e *errors.Error
			require.True(t, goerrors.As(err, &e), "got %T", err)
			assert.Equal(t, tt.phase, e.Phase)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.path, e.Path)
		})
	}
}

func TestGenerateErrorMessages(t *testing.T) {
	d := addDef()
	d.Body = ident("nope")
	_, err := generate(t, d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `identifier "nope" not found`)

	d = addDef()
	d.Body = &ir.Lambda{Body: lit("1")}
	_, err = generate(t, d)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lambda is not yet supported")
}

func TestGenerateNilProgram(t *testing.T) {
	_, err := codegen.Generate(nil)
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseCodegen, Kind: errors.KindInvalidInput}))
}

func TestGenerateLogsEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := &ir.Program{Statements: []ir.Stmt{addDef(), &ir.ExprStmt{X: lit("1")}}}
	require.NoError(t, typecheck.Resolve(p))

	_, err := codegen.Generate(p, codegen.WithLogger(zap.New(core)))
	require.NoError(t, err)

	assert.Equal(t, 2, logs.FilterMessage("function generated").Len())
	exports := logs.FilterMessage("export bound").All()
	require.Len(t, exports, 2)
	assert.Equal(t, "add", exports[0].ContextMap()["export"])
	assert.Equal(t, codegen.EntryName, exports[1].ContextMap()["export"])
	assert.Equal(t, 1, logs.FilterMessage("module generated").Len())
}

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	codegen.SetLogger(zap.New(core))
	defer codegen.SetLogger(nil)

	_, err := generate(t, addDef())
	require.NoError(t, err)
	assert.NotZero(t, logs.Len())
}
