package dump

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/wippyai/nio/wasm"
)

// rows:
// - function
//     - export, in/out, nlocals, unused params, max stack, # instructions, instruction breakdown

func dumpStats(w io.Writer, m *wasm.Module) error {
	type row struct {
		Function         string `csv:"function"`
		Funcidx          int    `csv:"funcidx"`
		In               int    `csv:"in"`
		Out              int    `csv:"out"`
		LocalCount       int    `csv:"local count"`
		UnusedParams     int    `csv:"unused params"`
		MaxStack         int    `csv:"max stack"`
		InstructionCount int    `csv:"instruction count"`
		Unreachable      int    `csv:"unreachable"`
		Call             int    `csv:"call"`
		Drop             int    `csv:"drop"`
		LocalGet         int    `csv:"local.get"`
		LocalSet         int    `csv:"local.set"`
		LocalTee         int    `csv:"local.tee"`
		GlobalGet        int    `csv:"global.get"`
		I32Const         int    `csv:"i32.const"`
		I64Const         int    `csv:"i64.const"`
		I32SmallConst    int    `csv:"i32.small.const"`
		I32Arith         int    `csv:"i32 arith"`
		I64Arith         int    `csv:"i64 arith"`
		Other            int    `csv:"other"`
	}

	csvWriter := csv.NewWriter(w)
	defer csvWriter.Flush()

	encoder := csvutil.NewEncoder(csvWriter)

	for i, s := range m.Stats() {
		r := row{
			Function:         s.Export,
			Funcidx:          int(s.Index),
			In:               s.Params,
			Out:              s.Results,
			LocalCount:       s.Locals,
			UnusedParams:     s.UnusedParams(),
			MaxStack:         s.MaxStack,
			InstructionCount: s.Instrs,
		}
		for _, instr := range m.Funcs[i].Body {
			switch op := instr.Op; {
			case op == wasm.OpUnreachable:
				r.Unreachable++
			case op == wasm.OpCall:
				r.Call++
			case op == wasm.OpDrop:
				r.Drop++
			case op == wasm.OpLocalGet:
				r.LocalGet++
			case op == wasm.OpLocalSet:
				r.LocalSet++
			case op == wasm.OpLocalTee:
				r.LocalTee++
			case op == wasm.OpGlobalGet:
				r.GlobalGet++
			case op == wasm.OpI32Const:
				if imm, ok := instr.Imm.(wasm.I32Imm); ok && imm.Value >= -128 && imm.Value < 128 {
					r.I32SmallConst++
				}
				r.I32Const++
			case op == wasm.OpI64Const:
				r.I64Const++
			case op >= wasm.OpI32Clz && op <= wasm.OpI32Rotr:
				r.I32Arith++
			case op >= wasm.OpI64Clz && op <= wasm.OpI64Rotr:
				r.I64Arith++
			default:
				r.Other++
			}
		}

		if err := encoder.Encode(&r); err != nil {
			return err
		}
	}
	return nil
}
