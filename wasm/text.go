package wasm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// WriteText renders m in a WAT-like s-expression form for inspection.
// The output is not meant to be parsed back.
func (m *Module) WriteText(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "(module")
	for i, ft := range m.Types {
		fmt.Fprintf(bw, "  (type (;%d;) (func%s))\n", i, signature(ft))
	}
	for i, f := range m.Funcs {
		fmt.Fprintf(bw, "  (func (;%d;) (type %d)", i, f.Type)
		if int(f.Type) < len(m.Types) {
			bw.WriteString(signature(m.Types[f.Type]))
		}
		if len(f.Locals) > 0 {
			fmt.Fprintf(bw, "\n    (local %s)", valTypeList(f.Locals))
		}
		for _, in := range f.Body {
			fmt.Fprintf(bw, "\n    %s", in)
		}
		bw.WriteString(")\n")
	}
	for _, exp := range m.Exports {
		fmt.Fprintf(bw, "  (export %q (%s %d))\n", exp.Name, kindName(exp.Desc.Kind), exp.Desc.Idx)
	}
	fmt.Fprintln(bw, ")")

	return bw.Flush()
}

func signature(ft FuncType) string {
	var b strings.Builder
	if len(ft.Params) > 0 {
		b.WriteString(" (param ")
		b.WriteString(valTypeList(ft.Params))
		b.WriteByte(')')
	}
	if len(ft.Results) > 0 {
		b.WriteString(" (result ")
		b.WriteString(valTypeList(ft.Results))
		b.WriteByte(')')
	}
	return b.String()
}

func valTypeList(types []ValType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

func kindName(kind byte) string {
	switch kind {
	case KindFunc:
		return "func"
	case KindTable:
		return "table"
	case KindMemory:
		return "memory"
	case KindGlobal:
		return "global"
	}
	return "unknown"
}
