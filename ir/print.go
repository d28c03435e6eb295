package ir

import (
	"strconv"
	"strings"
)

// String renders the program one statement per line.
func (p *Program) String() string {
	var sb strings.Builder
	for i, s := range p.Statements {
		if i > 0 {
			sb.WriteByte('\n')
		}
		if s == nil {
			sb.WriteString("<nil>")
			continue
		}
		sb.WriteString(s.String())
	}
	return sb.String()
}

func (t Type) String() string {
	switch t.Kind {
	case KindUnresolved:
		return "Unresolved(" + t.Name + ")"
	case KindUntyped:
		return "_"
	case KindUnit:
		return "Unit"
	case KindInt:
		return "Int"
	default:
		return "Type(" + strconv.Itoa(int(t.Kind)) + ")"
	}
}

func (k BinOpKind) String() string {
	switch k {
	case Add:
		return "+"
	case Sub:
		return "-"
	case Mul:
		return "*"
	default:
		return "op(" + strconv.Itoa(int(k)) + ")"
	}
}

func (k BinOpKind) precedence() int {
	if k == Mul {
		return 2
	}
	return 1
}

func (d *Def) String() string {
	var sb strings.Builder
	for _, a := range d.Annotations {
		sb.WriteByte('@')
		sb.WriteString(exprString(a))
		sb.WriteByte(' ')
	}
	sb.WriteString("def ")
	sb.WriteString(d.Name)
	sb.WriteByte('(')
	for i, p := range d.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(typeName(p.Type))
	}
	sb.WriteString("): ")
	sb.WriteString(typeName(d.ReturnType))
	sb.WriteString(" = ")
	sb.WriteString(exprString(d.Body))
	return sb.String()
}

func (l *Let) String() string {
	if l.Type.Kind == KindUntyped {
		return "let " + l.Name + " = " + exprString(l.Value)
	}
	return "let " + l.Name + ": " + typeName(l.Type) + " = " + exprString(l.Value)
}

func (s *ExprStmt) String() string { return exprString(s.X) }

func (b *BinOp) String() string {
	return operand(b.LHS, b.Op, false) + " " + b.Op.String() + " " + operand(b.RHS, b.Op, true)
}

func (a *Assign) String() string { return a.LHS + " = " + exprString(a.RHS) }

func (l *Lambda) String() string {
	return "(" + strings.Join(l.Params, ", ") + ") => " + exprString(l.Body)
}

func (c *Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = exprString(a)
	}
	callee := exprString(c.Callee)
	switch c.Callee.(type) {
	case *BinOp, *Assign, *Lambda:
		callee = "(" + callee + ")"
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

func (i *Ident) String() string     { return i.Name }
func (i *IntLit) String() string    { return i.Text }
func (s *StringLit) String() string { return strconv.Quote(s.Text) }

// typeName prints a surface type the way it was written.
func typeName(t Type) string {
	if t.Kind == KindUnresolved {
		return t.Name
	}
	return t.String()
}

func exprString(e Expr) string {
	if e == nil {
		return "<nil>"
	}
	return e.String()
}

// operand parenthesizes a nested binary operand that binds looser than
// its parent, or equally on the right (operators are left-associative).
func operand(e Expr, parent BinOpKind, right bool) string {
	s := exprString(e)
	switch n := e.(type) {
	case *BinOp:
		p, c := parent.precedence(), n.Op.precedence()
		if c < p || (right && c == p) {
			return "(" + s + ")"
		}
	case *Assign, *Lambda:
		return "(" + s + ")"
	}
	return s
}
