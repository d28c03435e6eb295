package wasm

import (
	"fmt"
	"strings"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/wasm/internal/binary"
)

// Opcode identifies an instruction. Single-byte opcodes use their byte
// value; 0xFC-prefixed opcodes carry the prefix in the high byte and the
// sub-opcode in the low byte.
type Opcode uint16

// Prefixed reports whether op is encoded with the 0xFC prefix.
func (op Opcode) Prefixed() bool {
	return op>>8 == Opcode(OpPrefixMisc)
}

func (op Opcode) String() string {
	if info, ok := opcodes[op]; ok {
		return info.name
	}
	if op.Prefixed() {
		return fmt.Sprintf("op(0xfc %d)", op&0xFF)
	}
	return fmt.Sprintf("op(0x%02x)", uint16(op))
}

// Instr is a single instruction. Imm holds the immediate operand for
// opcodes that define one and is nil otherwise.
type Instr struct {
	Imm any
	Op  Opcode
}

// BlockImm holds the block type for block, loop and if.
type BlockImm struct {
	Type int32 // Block type: -64=void, -1=i32, -2=i64, -3=f32, -4=f64, >=0=type index
}

// BranchImm holds the label index for br and br_if.
type BranchImm struct {
	Label LabelIdx
}

// BrTableImm holds the label table for br_table.
type BrTableImm struct {
	Labels  []LabelIdx
	Default LabelIdx
}

// CallImm holds the function index for call.
type CallImm struct {
	Func FuncIdx
}

// CallIndirectImm holds type and table indices for call_indirect.
type CallIndirectImm struct {
	Type  TypeIdx
	Table TableIdx
}

// LocalImm holds the local index for local.get, local.set, local.tee.
type LocalImm struct {
	Local LocalIdx
}

// GlobalImm holds the global index for global.get and global.set.
type GlobalImm struct {
	Global GlobalIdx
}

// MemArg holds memory access parameters for load and store instructions.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// I32Imm holds the constant value for i32.const.
type I32Imm struct {
	Value int32
}

// I64Imm holds the constant value for i64.const.
type I64Imm struct {
	Value int64
}

// F32Imm holds the constant value for f32.const.
type F32Imm struct {
	Value float32
}

// F64Imm holds the constant value for f64.const.
type F64Imm struct {
	Value float64
}

// Instruction constructors. Each sets the immediate its opcode defines.

func Op(op Opcode) Instr { return Instr{Op: op} }
func LocalGet(idx LocalIdx) Instr { return Instr{Op: OpLocalGet, Imm: LocalImm{idx}} }
func LocalSet(idx LocalIdx) Instr { return Instr{Op: OpLocalSet, Imm: LocalImm{idx}} }
func LocalTee(idx LocalIdx) Instr { return Instr{Op: OpLocalTee, Imm: LocalImm{idx}} }
func GlobalGet(idx GlobalIdx) Instr { return Instr{Op: OpGlobalGet, Imm: GlobalImm{idx}} }
func GlobalSet(idx GlobalIdx) Instr { return Instr{Op: OpGlobalSet, Imm: GlobalImm{idx}} }
func I32Const(v int32) Instr { return Instr{Op: OpI32Const, Imm: I32Imm{v}} }
func I64Const(v int64) Instr { return Instr{Op: OpI64Const, Imm: I64Imm{v}} }
func F32Const(v float32) Instr { return Instr{Op: OpF32Const, Imm: F32Imm{v}} }
func F64Const(v float64) Instr { return Instr{Op: OpF64Const, Imm: F64Imm{v}} }
func Call(idx FuncIdx) Instr { return Instr{Op: OpCall, Imm: CallImm{idx}} }
func Drop() Instr { return Instr{Op: OpDrop} }
func Return() Instr { return Instr{Op: OpReturn} }
func Block(bt int32) Instr { return Instr{Op: OpBlock, Imm: BlockImm{bt}} }
func Loop(bt int32) Instr { return Instr{Op: OpLoop, Imm: BlockImm{bt}} }
func If(bt int32) Instr { return Instr{Op: OpIf, Imm: BlockImm{bt}} }
func Br(l LabelIdx) Instr { return Instr{Op: OpBr, Imm: BranchImm{l}} }
func BrIf(l LabelIdx) Instr { return Instr{Op: OpBrIf, Imm: BranchImm{l}} }
func Load(op Opcode, align, offset uint32) Instr {
	return Instr{Op: op, Imm: MemArg{Align: align, Offset: offset}}
}

func (in Instr) String() string {
	var b strings.Builder
	b.WriteString(in.Op.String())
	switch imm := in.Imm.(type) {
	case nil:
	case LocalImm:
		fmt.Fprintf(&b, " %d", imm.Local)
	case GlobalImm:
		fmt.Fprintf(&b, " %d", imm.Global)
	case CallImm:
		fmt.Fprintf(&b, " %d", imm.Func)
	case I32Imm:
		fmt.Fprintf(&b, " %d", imm.Value)
	case I64Imm:
		fmt.Fprintf(&b, " %d", imm.Value)
	case F32Imm:
		fmt.Fprintf(&b, " %g", imm.Value)
	case F64Imm:
		fmt.Fprintf(&b, " %g", imm.Value)
	case MemArg:
		if imm.Offset != 0 {
			fmt.Fprintf(&b, " offset=%d", imm.Offset)
		}
		fmt.Fprintf(&b, " align=%d", uint32(1)<<imm.Align)
	case BranchImm:
		fmt.Fprintf(&b, " %d", imm.Label)
	case BlockImm:
		fmt.Fprintf(&b, " (type %d)", imm.Type)
	default:
		fmt.Fprintf(&b, " %v", imm)
	}
	return b.String()
}

type immKind uint8

const (
	immNone immKind = iota
	immBlock
	immBranch
	immBrTable
	immCall
	immCallIndirect
	immLocal
	immGlobal
	immMem
	immMemIdx // reserved 0x00 byte, no model immediate
	immI32
	immI64
	immF32
	immF64
)

// opInfo describes an opcode. pop/push give the operand stack effect;
// call computes it from the callee signature.
type opInfo struct {
	name    string
	imm     immKind
	pop     int8
	push    int8
	control bool // in the model but without an encoding
}

var opcodes = map[Opcode]opInfo{
	OpUnreachable:  {name: "unreachable"},
	OpNop:          {name: "nop"},
	OpBlock:        {name: "block", imm: immBlock, control: true},
	OpLoop:         {name: "loop", imm: immBlock, control: true},
	OpIf:           {name: "if", imm: immBlock, control: true},
	OpElse:         {name: "else", control: true},
	OpEnd:          {name: "end", control: true},
	OpBr:           {name: "br", imm: immBranch, control: true},
	OpBrIf:         {name: "br_if", imm: immBranch, control: true},
	OpBrTable:      {name: "br_table", imm: immBrTable, control: true},
	OpReturn:       {name: "return"},
	OpCall:         {name: "call", imm: immCall},
	OpCallIndirect: {name: "call_indirect", imm: immCallIndirect, control: true},

	OpDrop:   {name: "drop", pop: 1},
	OpSelect: {name: "select", pop: 3, push: 1},

	OpLocalGet:  {name: "local.get", imm: immLocal, push: 1},
	OpLocalSet:  {name: "local.set", imm: immLocal, pop: 1},
	OpLocalTee:  {name: "local.tee", imm: immLocal, pop: 1, push: 1},
	OpGlobalGet: {name: "global.get", imm: immGlobal, push: 1},
	OpGlobalSet: {name: "global.set", imm: immGlobal, pop: 1},

	OpMemorySize: {name: "memory.size", imm: immMemIdx, push: 1},
	OpMemoryGrow: {name: "memory.grow", imm: immMemIdx, pop: 1, push: 1},

	OpI32Const: {name: "i32.const", imm: immI32, push: 1},
	OpI64Const: {name: "i64.const", imm: immI64, push: 1},
	OpF32Const: {name: "f32.const", imm: immF32, push: 1},
	OpF64Const: {name: "f64.const", imm: immF64, push: 1},
}

var (
	unaryOp  = opInfo{pop: 1, push: 1}
	binaryOp = opInfo{pop: 2, push: 1}
	loadOp   = opInfo{imm: immMem, pop: 1, push: 1}
	storeOp  = opInfo{imm: immMem, pop: 2}
)

// fill registers consecutive opcodes starting at first with a shared shape.
func fill(first Opcode, shape opInfo, names ...string) {
	for i, name := range names {
		info := shape
		info.name = name
		opcodes[first+Opcode(i)] = info
	}
}

func init() {
	fill(OpI32Load, loadOp,
		"i32.load", "i64.load", "f32.load", "f64.load",
		"i32.load8_s", "i32.load8_u", "i32.load16_s", "i32.load16_u",
		"i64.load8_s", "i64.load8_u", "i64.load16_s", "i64.load16_u", "i64.load32_s", "i64.load32_u")
	fill(OpI32Store, storeOp,
		"i32.store", "i64.store", "f32.store", "f64.store",
		"i32.store8", "i32.store16", "i64.store8", "i64.store16", "i64.store32")

	fill(OpI32Eqz, unaryOp, "i32.eqz")
	fill(OpI32Eq, binaryOp,
		"i32.eq", "i32.ne", "i32.lt_s", "i32.lt_u", "i32.gt_s", "i32.gt_u", "i32.le_s", "i32.le_u", "i32.ge_s", "i32.ge_u")
	fill(OpI64Eqz, unaryOp, "i64.eqz")
	fill(OpI64Eq, binaryOp,
		"i64.eq", "i64.ne", "i64.lt_s", "i64.lt_u", "i64.gt_s", "i64.gt_u", "i64.le_s", "i64.le_u", "i64.ge_s", "i64.ge_u")
	fill(OpF32Eq, binaryOp, "f32.eq", "f32.ne", "f32.lt", "f32.gt", "f32.le", "f32.ge")
	fill(OpF64Eq, binaryOp, "f64.eq", "f64.ne", "f64.lt", "f64.gt", "f64.le", "f64.ge")

	fill(OpI32Clz, unaryOp, "i32.clz", "i32.ctz", "i32.popcnt")
	fill(OpI32Add, binaryOp,
		"i32.add", "i32.sub", "i32.mul", "i32.div_s", "i32.div_u", "i32.rem_s", "i32.rem_u",
		"i32.and", "i32.or", "i32.xor", "i32.shl", "i32.shr_s", "i32.shr_u", "i32.rotl", "i32.rotr")
	fill(OpI64Clz, unaryOp, "i64.clz", "i64.ctz", "i64.popcnt")
	fill(OpI64Add, binaryOp,
		"i64.add", "i64.sub", "i64.mul", "i64.div_s", "i64.div_u", "i64.rem_s", "i64.rem_u",
		"i64.and", "i64.or", "i64.xor", "i64.shl", "i64.shr_s", "i64.shr_u", "i64.rotl", "i64.rotr")
	fill(OpF32Abs, unaryOp, "f32.abs", "f32.neg", "f32.ceil", "f32.floor", "f32.trunc", "f32.nearest", "f32.sqrt")
	fill(OpF32Add, binaryOp, "f32.add", "f32.sub", "f32.mul", "f32.div", "f32.min", "f32.max", "f32.copysign")
	fill(OpF64Abs, unaryOp, "f64.abs", "f64.neg", "f64.ceil", "f64.floor", "f64.trunc", "f64.nearest", "f64.sqrt")
	fill(OpF64Add, binaryOp, "f64.add", "f64.sub", "f64.mul", "f64.div", "f64.min", "f64.max", "f64.copysign")

	fill(OpI32WrapI64, unaryOp,
		"i32.wrap_i64", "i32.trunc_f32_s", "i32.trunc_f32_u", "i32.trunc_f64_s", "i32.trunc_f64_u",
		"i64.extend_i32_s", "i64.extend_i32_u", "i64.trunc_f32_s", "i64.trunc_f32_u", "i64.trunc_f64_s", "i64.trunc_f64_u",
		"f32.convert_i32_s", "f32.convert_i32_u", "f32.convert_i64_s", "f32.convert_i64_u", "f32.demote_f64",
		"f64.convert_i32_s", "f64.convert_i32_u", "f64.convert_i64_s", "f64.convert_i64_u", "f64.promote_f32",
		"i32.reinterpret_f32", "i64.reinterpret_f64", "f32.reinterpret_i32", "f64.reinterpret_i64")
	fill(OpI32Extend8S, unaryOp,
		"i32.extend8_s", "i32.extend16_s", "i64.extend8_s", "i64.extend16_s", "i64.extend32_s")

	fill(OpI32TruncSatF32S, unaryOp,
		"i32.trunc_sat_f32_s", "i32.trunc_sat_f32_u", "i32.trunc_sat_f64_s", "i32.trunc_sat_f64_u",
		"i64.trunc_sat_f32_s", "i64.trunc_sat_f32_u", "i64.trunc_sat_f64_s", "i64.trunc_sat_f64_u")
}

func immMismatch(in Instr, want string) error {
	return errors.New(errors.PhaseEncode, errors.KindTypeMismatch).
		Path(in.Op.String()).
		Value(in.Imm).
		Detail("immediate must be %s, got %T", want, in.Imm).
		Build()
}

// encodeInstr appends the encoding of in to w.
func encodeInstr(w *binary.Writer, in Instr) error {
	info, ok := opcodes[in.Op]
	if !ok {
		return errors.New(errors.PhaseEncode, errors.KindUnsupported).
			Value(uint16(in.Op)).
			Detail("unknown opcode %s", in.Op).
			Build()
	}
	if info.control {
		return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("instruction %s has no encoding", info.name))
	}

	if in.Op.Prefixed() {
		w.Byte(OpPrefixMisc)
		w.WriteU32(uint32(in.Op & 0xFF))
	} else {
		w.Byte(byte(in.Op))
	}

	switch info.imm {
	case immNone:
		if in.Imm != nil {
			return immMismatch(in, "nil")
		}
	case immMemIdx:
		if in.Imm != nil {
			return immMismatch(in, "nil")
		}
		w.Byte(0x00)
	case immLocal:
		imm, ok := in.Imm.(LocalImm)
		if !ok {
			return immMismatch(in, "LocalImm")
		}
		w.WriteU32(uint32(imm.Local))
	case immGlobal:
		imm, ok := in.Imm.(GlobalImm)
		if !ok {
			return immMismatch(in, "GlobalImm")
		}
		w.WriteU32(uint32(imm.Global))
	case immCall:
		imm, ok := in.Imm.(CallImm)
		if !ok {
			return immMismatch(in, "CallImm")
		}
		w.WriteU32(uint32(imm.Func))
	case immMem:
		imm, ok := in.Imm.(MemArg)
		if !ok {
			return immMismatch(in, "MemArg")
		}
		w.WriteU32(imm.Align)
		w.WriteU32(imm.Offset)
	case immI32:
		imm, ok := in.Imm.(I32Imm)
		if !ok {
			return immMismatch(in, "I32Imm")
		}
		w.WriteS32(imm.Value)
	case immI64:
		imm, ok := in.Imm.(I64Imm)
		if !ok {
			return immMismatch(in, "I64Imm")
		}
		w.WriteS64(imm.Value)
	case immF32:
		imm, ok := in.Imm.(F32Imm)
		if !ok {
			return immMismatch(in, "F32Imm")
		}
		w.WriteF32(imm.Value)
	case immF64:
		imm, ok := in.Imm.(F64Imm)
		if !ok {
			return immMismatch(in, "F64Imm")
		}
		w.WriteF64(imm.Value)
	default:
		return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("immediate of %s", info.name))
	}
	return nil
}

// decodeInstr reads one instruction. The caller handles the terminating end.
func decodeInstr(r *binary.Reader) (Instr, error) {
	b, err := r.ReadByte()
	if err != nil {
		return Instr{}, err
	}
	op := Opcode(b)
	if b == OpPrefixMisc {
		sub, err := r.ReadU32()
		if err != nil {
			return Instr{}, err
		}
		if sub > 0xFF {
			return Instr{}, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("0xfc sub-opcode %d out of range", sub))
		}
		op = Opcode(OpPrefixMisc)<<8 | Opcode(sub)
	}

	info, ok := opcodes[op]
	if !ok || info.control {
		return Instr{}, errors.New(errors.PhaseDecode, errors.KindUnsupported).
			Value(uint16(op)).
			Detail("opcode %s at position %d", op, r.Position()-1).
			Build()
	}

	in := Instr{Op: op}
	switch info.imm {
	case immNone:
	case immMemIdx:
		if _, err := r.ReadByte(); err != nil {
			return Instr{}, err
		}
	case immLocal:
		v, err := r.ReadU32()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = LocalImm{LocalIdx(v)}
	case immGlobal:
		v, err := r.ReadU32()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = GlobalImm{GlobalIdx(v)}
	case immCall:
		v, err := r.ReadU32()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = CallImm{FuncIdx(v)}
	case immMem:
		align, err := r.ReadU32()
		if err != nil {
			return Instr{}, err
		}
		offset, err := r.ReadU32()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = MemArg{Align: align, Offset: offset}
	case immI32:
		v, err := r.ReadS32()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = I32Imm{v}
	case immI64:
		v, err := r.ReadS64()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = I64Imm{v}
	case immF32:
		v, err := r.ReadF32()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = F32Imm{v}
	case immF64:
		v, err := r.ReadF64()
		if err != nil {
			return Instr{}, err
		}
		in.Imm = F64Imm{v}
	}
	return in, nil
}

// stackEffect returns how many operands in pops and pushes. Calls resolve
// their callee signature through m.
func (in Instr) stackEffect(m *Module) (pop, push int) {
	if in.Op == OpCall {
		if imm, ok := in.Imm.(CallImm); ok && m != nil {
			if ft := m.FuncTypeOf(imm.Func); ft != nil {
				return len(ft.Params), len(ft.Results)
			}
		}
		return 0, 0
	}
	info := opcodes[in.Op]
	return int(info.pop), int(info.push)
}

// EncodeInstructions encodes a bare instruction sequence without the
// trailing end opcode.
func EncodeInstructions(instrs []Instr) ([]byte, error) {
	w := binary.NewWriter()
	for _, in := range instrs {
		if err := encodeInstr(w, in); err != nil {
			return nil, err
		}
	}
	return w.Bytes(), nil
}

// DecodeInstructions decodes a bare instruction sequence produced by
// EncodeInstructions.
func DecodeInstructions(data []byte) ([]Instr, error) {
	r := binary.NewReader(data)
	var instrs []Instr
	for r.Len() > 0 {
		in, err := decodeInstr(r)
		if err != nil {
			return nil, decodeErr(err)
		}
		instrs = append(instrs, in)
	}
	return instrs, nil
}
