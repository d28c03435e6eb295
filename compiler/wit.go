package compiler

import (
	"fmt"
	"strings"

	"github.com/wippyai/nio/engine"
	"github.com/wippyai/nio/ir"
	"github.com/wippyai/nio/wasm"
)

// DefaultWorld is the world name used when none is configured.
const DefaultWorld = "program"

// WIT renders a world describing every exported function of m. Parameter
// names are taken from the definitions in p, matched by function index.
//
//	package nio:program;
//
//	world program {
//	  export add: func(x: s32, y: s32) -> s32;
//	}
func WIT(p *ir.Program, m *wasm.Module) string {
	return renderWIT(DefaultWorld, p, m)
}

func renderWIT(world string, p *ir.Program, m *wasm.Module) string {
	var defs []*ir.Def
	if p != nil {
		for _, s := range p.Statements {
			if d, ok := s.(*ir.Def); ok && d != nil {
				defs = append(defs, d)
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "package nio:%s;\n\nworld %s {\n", world, world)
	for _, exp := range m.Exports {
		if exp.Desc.Kind != wasm.KindFunc {
			continue
		}
		ft := m.FuncTypeOf(wasm.FuncIdx(exp.Desc.Idx))
		if ft == nil {
			continue
		}

		var def *ir.Def
		if int(exp.Desc.Idx) < len(defs) {
			def = defs[exp.Desc.Idx]
		}

		params := make([]string, len(ft.Params))
		for i, vt := range ft.Params {
			name := fmt.Sprintf("p%d", i)
			if def != nil && i < len(def.Params) {
				name = def.Params[i].Name
			}
			params[i] = name + ": " + witName(vt)
		}

		fmt.Fprintf(&sb, "  export %s: func(%s)", exp.Name, strings.Join(params, ", "))
		switch len(ft.Results) {
		case 0:
		case 1:
			sb.WriteString(" -> " + witName(ft.Results[0]))
		default:
			results := make([]string, len(ft.Results))
			for i, vt := range ft.Results {
				results[i] = witName(vt)
			}
			sb.WriteString(" -> tuple<" + strings.Join(results, ", ") + ">")
		}
		sb.WriteString(";\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

func witName(vt wasm.ValType) string {
	t, ok := engine.WitType(vt)
	if !ok {
		return vt.String()
	}
	return engine.TypeName(t)
}
