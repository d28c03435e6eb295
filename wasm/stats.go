package wasm

import (
	"github.com/willf/bitset"
)

// FuncStats summarizes one function of a module.
type FuncStats struct {
	UsedLocals *bitset.BitSet
	Export     string
	Index      FuncIdx
	Params     int
	Results    int
	Locals     int
	Instrs     int
	MaxStack   int
}

// UnusedParams returns how many parameters the body never touches.
func (s FuncStats) UnusedParams() int {
	n := 0
	for i := 0; i < s.Params; i++ {
		if !s.UsedLocals.Test(uint(i)) {
			n++
		}
	}
	return n
}

// Stats computes per-function statistics in function index order.
func (m *Module) Stats() []FuncStats {
	stats := make([]FuncStats, 0, len(m.Funcs))
	for i, f := range m.Funcs {
		idx := FuncIdx(i)
		s := FuncStats{
			Index:      idx,
			Export:     m.ExportName(idx),
			Locals:     len(f.Locals),
			Instrs:     len(f.Body),
			UsedLocals: UsedLocals(f),
			MaxStack:   m.maxStack(f),
		}
		if ft := m.FuncTypeOf(idx); ft != nil {
			s.Params = len(ft.Params)
			s.Results = len(ft.Results)
		}
		stats = append(stats, s)
	}
	return stats
}

// UsedLocals returns the set of local indices read or written by f.
func UsedLocals(f Func) *bitset.BitSet {
	used := &bitset.BitSet{}
	for _, in := range f.Body {
		if imm, ok := in.Imm.(LocalImm); ok {
			used.Set(uint(imm.Local))
		}
	}
	return used
}

// maxStack returns the deepest operand stack reached by a straight-line body.
func (m *Module) maxStack(f Func) int {
	depth, peak := 0, 0
	for _, in := range f.Body {
		pop, push := in.stackEffect(m)
		depth -= pop
		if depth < 0 {
			depth = 0
		}
		depth += push
		if depth > peak {
			peak = depth
		}
	}
	return peak
}
