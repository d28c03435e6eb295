package ir

// Program is an ordered sequence of top-level statements.
type Program struct {
	Statements []Stmt
}

// Stmt is a top-level statement: *Def, *Let or *ExprStmt.
type Stmt interface {
	stmtNode()
	String() string
}

// Expr is an expression node: *BinOp, *Assign, *Lambda, *Call, *Ident,
// *IntLit or *StringLit.
type Expr interface {
	exprNode()
	String() string
}

// Param is a named, typed function parameter.
type Param struct {
	Name string
	Type Type
}

// Def defines a named function. Annotations are unresolved expressions;
// the annotate package turns them into structured values.
type Def struct {
	Body        Expr
	Name        string
	Annotations []Expr
	Params      []Param
	ReturnType  Type
}

// Let binds a name to a value.
type Let struct {
	Value Expr
	Name  string
	Type  Type
}

// ExprStmt evaluates an expression for its effect.
type ExprStmt struct {
	X Expr
}

func (*Def) stmtNode()      {}
func (*Let) stmtNode()      {}
func (*ExprStmt) stmtNode() {}

// BinOpKind is an arithmetic operator.
type BinOpKind uint8

const (
	Add BinOpKind = iota
	Sub
	Mul
)

// BinOp applies Op to LHS and RHS.
type BinOp struct {
	LHS Expr
	RHS Expr
	Op  BinOpKind
}

// Assign rebinds an existing name.
type Assign struct {
	RHS Expr
	LHS string
}

// Lambda is an anonymous function.
type Lambda struct {
	Body   Expr
	Params []string
}

// Call applies Callee to Args.
type Call struct {
	Callee Expr
	Args   []Expr
}

// Ident references a name.
type Ident struct {
	Name string
}

// IntLit is an integer literal kept in its decimal source text.
type IntLit struct {
	Text string
}

// StringLit is a string literal.
type StringLit struct {
	Text string
}

func (*BinOp) exprNode()     {}
func (*Assign) exprNode()    {}
func (*Lambda) exprNode()    {}
func (*Call) exprNode()      {}
func (*Ident) exprNode()     {}
func (*IntLit) exprNode()    {}
func (*StringLit) exprNode() {}

// TypeKind discriminates Type.
type TypeKind uint8

const (
	// KindUnresolved carries a surface type name awaiting resolution.
	KindUnresolved TypeKind = iota
	// KindUntyped marks a binding written without a type annotation.
	KindUntyped
	KindUnit
	KindInt
)

// Type is a source-level type. Name is only meaningful for KindUnresolved.
type Type struct {
	Name string
	Kind TypeKind
}

// Type constructors.
var (
	Untyped = Type{Kind: KindUntyped}
	Unit    = Type{Kind: KindUnit}
	Int     = Type{Kind: KindInt}
)

// Unresolved returns a placeholder for the surface type name.
func Unresolved(name string) Type {
	return Type{Kind: KindUnresolved, Name: name}
}

// IsInt reports whether t resolved to Int.
func (t Type) IsInt() bool { return t.Kind == KindInt }

// Inspect traverses e in depth-first order, calling f for each node
// including nil children. Children are skipped when f returns false.
func Inspect(e Expr, f func(Expr) bool) {
	if !f(e) || e == nil {
		return
	}
	switch n := e.(type) {
	case *BinOp:
		Inspect(n.LHS, f)
		Inspect(n.RHS, f)
	case *Assign:
		Inspect(n.RHS, f)
	case *Lambda:
		Inspect(n.Body, f)
	case *Call:
		Inspect(n.Callee, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	}
}
