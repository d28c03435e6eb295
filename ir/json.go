package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/wippyai/nio/errors"
)

// Wire shapes. Every statement and expression is an object with exactly
// one key naming its variant.

type programJSON struct {
	Statements []json.RawMessage `json:"statements"`
}

type paramJSON struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type defJSON struct {
	Body        json.RawMessage   `json:"body"`
	Name        string            `json:"name"`
	ReturnType  string            `json:"return_type,omitempty"`
	Annotations []json.RawMessage `json:"annotations,omitempty"`
	Params      []paramJSON       `json:"params"`
}

type letJSON struct {
	Value json.RawMessage `json:"value"`
	Name  string          `json:"name"`
	Type  string          `json:"type,omitempty"`
}

type binOpJSON struct {
	LHS json.RawMessage `json:"lhs"`
	RHS json.RawMessage `json:"rhs"`
	Op  string          `json:"op"`
}

type assignJSON struct {
	RHS json.RawMessage `json:"rhs"`
	LHS string          `json:"lhs"`
}

type lambdaJSON struct {
	Body   json.RawMessage `json:"body"`
	Params []string        `json:"params"`
}

type callJSON struct {
	Callee json.RawMessage   `json:"callee"`
	Args   []json.RawMessage `json:"args"`
}

// DecodeProgram reads a JSON-encoded program.
func DecodeProgram(r io.Reader) (*Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.ParseFailed("program", err)
	}

	var pj programJSON
	if err := strictUnmarshal(data, &pj); err != nil {
		return nil, parseErr(nil, err)
	}

	prog := &Program{Statements: make([]Stmt, 0, len(pj.Statements))}
	for i, raw := range pj.Statements {
		s, err := decodeStmt(raw, []string{fmt.Sprintf("statements[%d]", i)})
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, s)
	}
	return prog, nil
}

// EncodeProgram writes p as indented JSON.
func EncodeProgram(w io.Writer, p *Program) error {
	if p == nil {
		return errors.InvalidInput(errors.PhaseParse, "nil program")
	}
	pj := programJSON{Statements: make([]json.RawMessage, 0, len(p.Statements))}
	for i, s := range p.Statements {
		raw, err := encodeStmt(s)
		if err != nil {
			return withPath(err, fmt.Sprintf("statements[%d]", i))
		}
		pj.Statements = append(pj.Statements, raw)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pj); err != nil {
		return errors.IO(errors.PhaseParse, err)
	}
	return nil
}

func decodeStmt(raw json.RawMessage, path []string) (Stmt, error) {
	key, body, err := variant(raw, path)
	if err != nil {
		return nil, err
	}
	path = append(path, key)

	switch key {
	case "def":
		var dj defJSON
		if err := strictUnmarshal(body, &dj); err != nil {
			return nil, parseErr(path, err)
		}
		d := &Def{Name: dj.Name, ReturnType: typeFromName(dj.ReturnType)}
		for _, p := range dj.Params {
			d.Params = append(d.Params, Param{Name: p.Name, Type: typeFromName(p.Type)})
		}
		for i, a := range dj.Annotations {
			e, err := decodeExpr(a, appendPath(path, fmt.Sprintf("annotations[%d]", i)))
			if err != nil {
				return nil, err
			}
			d.Annotations = append(d.Annotations, e)
		}
		if d.Body, err = decodeExpr(dj.Body, appendPath(path, "body")); err != nil {
			return nil, err
		}
		return d, nil

	case "let":
		var lj letJSON
		if err := strictUnmarshal(body, &lj); err != nil {
			return nil, parseErr(path, err)
		}
		l := &Let{Name: lj.Name, Type: typeFromName(lj.Type)}
		if l.Value, err = decodeExpr(lj.Value, appendPath(path, "value")); err != nil {
			return nil, err
		}
		return l, nil

	case "expr":
		x, err := decodeExpr(body, path)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{X: x}, nil
	}

	return nil, errors.InvalidData(errors.PhaseParse, path[:len(path)-1],
		fmt.Sprintf("unknown statement %q", key))
}

func decodeExpr(raw json.RawMessage, path []string) (Expr, error) {
	key, body, err := variant(raw, path)
	if err != nil {
		return nil, err
	}
	path = append(path, key)

	switch key {
	case "binop":
		var bj binOpJSON
		if err := strictUnmarshal(body, &bj); err != nil {
			return nil, parseErr(path, err)
		}
		op, ok := parseOp(bj.Op)
		if !ok {
			return nil, errors.InvalidData(errors.PhaseParse, path, fmt.Sprintf("unknown operator %q", bj.Op))
		}
		b := &BinOp{Op: op}
		if b.LHS, err = decodeExpr(bj.LHS, appendPath(path, "lhs")); err != nil {
			return nil, err
		}
		if b.RHS, err = decodeExpr(bj.RHS, appendPath(path, "rhs")); err != nil {
			return nil, err
		}
		return b, nil

	case "assign":
		var aj assignJSON
		if err := strictUnmarshal(body, &aj); err != nil {
			return nil, parseErr(path, err)
		}
		a := &Assign{LHS: aj.LHS}
		if a.RHS, err = decodeExpr(aj.RHS, appendPath(path, "rhs")); err != nil {
			return nil, err
		}
		return a, nil

	case "lambda":
		var lj lambdaJSON
		if err := strictUnmarshal(body, &lj); err != nil {
			return nil, parseErr(path, err)
		}
		l := &Lambda{Params: lj.Params}
		if l.Body, err = decodeExpr(lj.Body, appendPath(path, "body")); err != nil {
			return nil, err
		}
		return l, nil

	case "call":
		var cj callJSON
		if err := strictUnmarshal(body, &cj); err != nil {
			return nil, parseErr(path, err)
		}
		c := &Call{}
		if c.Callee, err = decodeExpr(cj.Callee, appendPath(path, "callee")); err != nil {
			return nil, err
		}
		for i, a := range cj.Args {
			arg, err := decodeExpr(a, appendPath(path, fmt.Sprintf("args[%d]", i)))
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, arg)
		}
		return c, nil

	case "ident", "int", "string":
		var text string
		if err := json.Unmarshal(body, &text); err != nil {
			return nil, parseErr(path, err)
		}
		switch key {
		case "ident":
			return &Ident{Name: text}, nil
		case "int":
			return &IntLit{Text: text}, nil
		default:
			return &StringLit{Text: text}, nil
		}
	}

	return nil, errors.InvalidData(errors.PhaseParse, path[:len(path)-1],
		fmt.Sprintf("unknown expression %q", key))
}

// variant splits a single-key object into its key and value.
func variant(raw json.RawMessage, path []string) (string, json.RawMessage, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return "", nil, errors.InvalidData(errors.PhaseParse, path, "missing node")
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", nil, parseErr(path, err)
	}
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Path(path...).
			Value(keys).
			Detail("node must have exactly one key, got %d", len(m)).
			Build()
	}
	for k, v := range m {
		return k, v, nil
	}
	panic("unreachable")
}

func encodeStmt(s Stmt) (json.RawMessage, error) {
	switch n := s.(type) {
	case *Def:
		dj := defJSON{
			Name:       n.Name,
			ReturnType: typeToName(n.ReturnType),
			Params:     make([]paramJSON, len(n.Params)),
		}
		for i, p := range n.Params {
			dj.Params[i] = paramJSON{Name: p.Name, Type: typeToName(p.Type)}
		}
		for i, a := range n.Annotations {
			raw, err := encodeExpr(a)
			if err != nil {
				return nil, withPath(err, "def", fmt.Sprintf("annotations[%d]", i))
			}
			dj.Annotations = append(dj.Annotations, raw)
		}
		body, err := encodeExpr(n.Body)
		if err != nil {
			return nil, withPath(err, "def", "body")
		}
		dj.Body = body
		return wrap("def", dj)

	case *Let:
		value, err := encodeExpr(n.Value)
		if err != nil {
			return nil, withPath(err, "let", "value")
		}
		return wrap("let", letJSON{Name: n.Name, Type: typeToName(n.Type), Value: value})

	case *ExprStmt:
		x, err := encodeExpr(n.X)
		if err != nil {
			return nil, withPath(err, "expr")
		}
		return wrap("expr", x)
	}
	return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("cannot encode statement %T", s))
}

func encodeExpr(e Expr) (json.RawMessage, error) {
	switch n := e.(type) {
	case *BinOp:
		lhs, err := encodeExpr(n.LHS)
		if err != nil {
			return nil, withPath(err, "binop", "lhs")
		}
		rhs, err := encodeExpr(n.RHS)
		if err != nil {
			return nil, withPath(err, "binop", "rhs")
		}
		return wrap("binop", binOpJSON{Op: n.Op.String(), LHS: lhs, RHS: rhs})

	case *Assign:
		rhs, err := encodeExpr(n.RHS)
		if err != nil {
			return nil, withPath(err, "assign", "rhs")
		}
		return wrap("assign", assignJSON{LHS: n.LHS, RHS: rhs})

	case *Lambda:
		body, err := encodeExpr(n.Body)
		if err != nil {
			return nil, withPath(err, "lambda", "body")
		}
		params := n.Params
		if params == nil {
			params = []string{}
		}
		return wrap("lambda", lambdaJSON{Params: params, Body: body})

	case *Call:
		callee, err := encodeExpr(n.Callee)
		if err != nil {
			return nil, withPath(err, "call", "callee")
		}
		cj := callJSON{Callee: callee, Args: make([]json.RawMessage, 0, len(n.Args))}
		for i, a := range n.Args {
			raw, err := encodeExpr(a)
			if err != nil {
				return nil, withPath(err, "call", fmt.Sprintf("args[%d]", i))
			}
			cj.Args = append(cj.Args, raw)
		}
		return wrap("call", cj)

	case *Ident:
		return wrap("ident", n.Name)
	case *IntLit:
		return wrap("int", n.Text)
	case *StringLit:
		return wrap("string", n.Text)
	}
	return nil, errors.InvalidInput(errors.PhaseParse, fmt.Sprintf("cannot encode expression %T", e))
}

func wrap(key string, v any) (json.RawMessage, error) {
	raw, err := json.Marshal(map[string]any{key: v})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "marshal "+key)
	}
	return raw, nil
}

// typeFromName lowers a surface type name. Empty means no annotation.
func typeFromName(name string) Type {
	if name == "" {
		return Untyped
	}
	return Unresolved(name)
}

func typeToName(t Type) string {
	switch t.Kind {
	case KindUnresolved:
		return t.Name
	case KindUnit:
		return "Unit"
	case KindInt:
		return "Int"
	default:
		return ""
	}
}

func parseOp(s string) (BinOpKind, bool) {
	switch s {
	case "+", "add":
		return Add, true
	case "-", "sub":
		return Sub, true
	case "*", "mul":
		return Mul, true
	}
	return 0, false
}

func strictUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("trailing data after offset %s", strconv.FormatInt(dec.InputOffset(), 10))
	}
	return nil
}

func parseErr(path []string, cause error) *errors.Error {
	return errors.New(errors.PhaseParse, errors.KindInvalidData).
		Path(path...).
		Cause(cause).
		Detail("malformed program").
		Build()
}

func appendPath(path []string, elem string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, elem)
}

func withPath(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append(append([]string{}, path...), e.Path...)
	}
	return err
}
