package wasm_test

import (
	"bytes"
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/wasm"
)

func addModule() *wasm.Module {
	m := &wasm.Module{}
	t := m.AddType(wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
		Results: []wasm.ValType{wasm.ValI32},
	})
	f := m.AddFunc(wasm.Func{Type: t, Body: []wasm.Instr{
		wasm.LocalGet(0),
		wasm.LocalGet(1),
		wasm.Op(wasm.OpI32Add),
	}})
	m.AddExport(wasm.Export{Name: "add", Desc: wasm.FuncExport(f)})
	return m
}

func TestEncodeEmptyModule(t *testing.T) {
	data, err := (&wasm.Module{}).Encode()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}, data)
}

func TestEncodeAddModule(t *testing.T) {
	data, err := addModule().Encode()
	require.NoError(t, err)

	want := []byte{
		0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00,
		// type section
		0x01, 0x07, 0x01, 0x60, 0x02, 0x7F, 0x7F, 0x01, 0x7F,
		// function section
		0x03, 0x02, 0x01, 0x00,
		// export section
		0x07, 0x07, 0x01, 0x03, 'a', 'd', 'd', 0x00, 0x00,
		// code section
		0x0A, 0x09, 0x01, 0x07, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6A, 0x0B,
	}
	assert.Equal(t, want, data)
}

func TestEncodeSectionOrder(t *testing.T) {
	data, err := addModule().Encode()
	require.NoError(t, err)

	var ids []byte
	pos := 8
	for pos < len(data) {
		ids = append(ids, data[pos])
		size, n, err := wasm.DecodeLEB128u(data[pos+1:])
		require.NoError(t, err)
		pos += 1 + n + int(size)
	}
	assert.Equal(t, []byte{wasm.SectionType, wasm.SectionFunction, wasm.SectionExport, wasm.SectionCode}, ids)
	assert.Equal(t, len(data), pos)
}

func TestEncodeOmitsEmptySections(t *testing.T) {
	m := &wasm.Module{}
	m.AddType(wasm.FuncType{})
	data, err := m.Encode()
	require.NoError(t, err)
	// header + type section only
	assert.Equal(t, []byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00}, data[8:])
}

func TestEncodeLocalsRunLength(t *testing.T) {
	m := &wasm.Module{}
	ti := m.AddType(wasm.FuncType{})
	m.AddFunc(wasm.Func{
		Type:   ti,
		Locals: []wasm.ValType{wasm.ValI32, wasm.ValI32, wasm.ValI64, wasm.ValI32},
	})
	data, err := m.Encode()
	require.NoError(t, err)

	code := []byte{0x0A, 0x0A, 0x01, 0x08, 0x03, 0x02, 0x7F, 0x01, 0x7E, 0x01, 0x7F, 0x0B}
	assert.True(t, bytes.HasSuffix(data, code), "got % x", data)
}

func TestEncodeImmediates(t *testing.T) {
	tests := []struct {
		name string
		in   wasm.Instr
		want []byte
	}{
		{"i32.const negative", wasm.I32Const(-123456), []byte{0x41, 0xC0, 0xBB, 0x78}},
		{"i64.const", wasm.I64Const(-1), []byte{0x42, 0x7F}},
		{"f32.const", wasm.F32Const(1.5), []byte{0x43, 0x00, 0x00, 0xC0, 0x3F}},
		{"f64.const", wasm.F64Const(1), []byte{0x44, 0, 0, 0, 0, 0, 0, 0xF0, 0x3F}},
		{"local.get wide", wasm.LocalGet(624485), []byte{0x20, 0xE5, 0x8E, 0x26}},
		{"global.set", wasm.GlobalSet(1), []byte{0x24, 0x01}},
		{"call", wasm.Call(2), []byte{0x10, 0x02}},
		{"load memarg", wasm.Load(wasm.OpI32Load, 2, 16), []byte{0x28, 0x02, 0x10}},
		{"store memarg", wasm.Load(wasm.OpI64Store, 3, 0), []byte{0x37, 0x03, 0x00}},
		{"memory.grow", wasm.Op(wasm.OpMemoryGrow), []byte{0x40, 0x00}},
		{"trunc_sat", wasm.Op(wasm.OpI32TruncSatF32S), []byte{0xFC, 0x00}},
		{"trunc_sat last", wasm.Op(wasm.OpI64TruncSatF64U), []byte{0xFC, 0x07}},
		{"sign extension", wasm.Op(wasm.OpI64Extend32S), []byte{0xC4}},
		{"drop", wasm.Drop(), []byte{0x1A}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &wasm.Module{}
			ti := m.AddType(wasm.FuncType{})
			m.AddFunc(wasm.Func{Type: ti, Body: []wasm.Instr{tt.in}})
			data, err := m.Encode()
			require.NoError(t, err)

			// code section payload: count, body size, local runs, instr..., end
			want := append(append([]byte{0x00}, tt.want...), 0x0B)
			assert.True(t, bytes.HasSuffix(data, want), "got % x, want suffix % x", data, want)
		})
	}
}

func TestEncodeUnsupportedInstruction(t *testing.T) {
	for _, in := range []wasm.Instr{
		wasm.Block(wasm.BlockTypeVoid),
		wasm.Loop(wasm.BlockTypeVoid),
		wasm.If(wasm.BlockTypeI32),
		wasm.Op(wasm.OpElse),
		wasm.Op(wasm.OpEnd),
		wasm.Br(0),
		wasm.BrIf(0),
		{Op: wasm.OpBrTable, Imm: wasm.BrTableImm{}},
		{Op: wasm.OpCallIndirect, Imm: wasm.CallIndirectImm{}},
		wasm.Op(0xFF),
	} {
		t.Run(in.Op.String(), func(t *testing.T) {
			m := &wasm.Module{}
			ti := m.AddType(wasm.FuncType{})
			m.AddFunc(wasm.Func{Type: ti, Body: []wasm.Instr{wasm.Op(wasm.OpNop), in}})

			data, err := m.Encode()
			assert.Nil(t, data)
			require.Error(t, err)
			assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindUnsupported}))
		})
	}
}

func TestEncodeWrongImmediate(t *testing.T) {
	tests := []wasm.Instr{
		{Op: wasm.OpLocalGet, Imm: wasm.I32Imm{Value: 1}},
		{Op: wasm.OpI32Const},
		{Op: wasm.OpI32Add, Imm: wasm.LocalImm{}},
		{Op: wasm.OpI32Load},
	}

	for _, in := range tests {
		m := &wasm.Module{}
		ti := m.AddType(wasm.FuncType{})
		m.AddFunc(wasm.Func{Type: ti, Body: []wasm.Instr{in}})
		_, err := m.Encode()
		assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindTypeMismatch}), "%v: %v", in, err)
	}
}

func TestEncodeRejectsUnsupportedSections(t *testing.T) {
	maxPages := uint32(1)
	tests := []struct {
		name string
		m    *wasm.Module
	}{
		{"imports", &wasm.Module{Imports: []wasm.Import{{Module: "env", Name: "f"}}}},
		{"tables", &wasm.Module{Tables: []wasm.TableType{{ElemType: 0x70}}}},
		{"memories", &wasm.Module{Mems: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Max: &maxPages}}}}},
		{"globals", &wasm.Module{Globals: []wasm.Global{{Type: wasm.ValI32}}}},
		{"start", &wasm.Module{Start: &wasm.Start{}}},
		{"elements", &wasm.Module{Elems: []wasm.Element{{}}}},
		{"data", &wasm.Module{Data: []wasm.DataSegment{{Init: []byte("x")}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.m.Encode()
			assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindUnsupported}))
		})
	}
}

func TestEncodeNeverEmitsForbiddenSections(t *testing.T) {
	m := addModule()
	for i := 0; i < 3; i++ {
		ti := m.AddType(wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}})
		m.AddFunc(wasm.Func{Type: ti, Locals: []wasm.ValType{wasm.ValI32}, Body: []wasm.Instr{wasm.I32Const(int32(i))}})
	}
	data, err := m.Encode()
	require.NoError(t, err)

	pos := 8
	for pos < len(data) {
		id := data[pos]
		assert.Contains(t, []byte{wasm.SectionType, wasm.SectionFunction, wasm.SectionExport, wasm.SectionCode}, id)
		size, n, err := wasm.DecodeLEB128u(data[pos+1:])
		require.NoError(t, err)
		pos += 1 + n + int(size)
	}
}

func TestEncodeInvalidValType(t *testing.T) {
	m := &wasm.Module{Types: []wasm.FuncType{{Params: []wasm.ValType{0x70}}}}
	_, err := m.Encode()
	var e *errors.Error
	require.True(t, goerrors.As(err, &e))
	assert.Equal(t, errors.KindUnsupported, e.Kind)
	assert.Equal(t, []string{"type[0]", "params"}, e.Path)
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestEncodeSinkFailure(t *testing.T) {
	cause := goerrors.New("disk full")
	err := wasm.Encode(failingWriter{err: cause}, addModule())
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, cause))
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindIO}))

	err = wasm.Encode(shortWriter{}, addModule())
	assert.True(t, goerrors.Is(err, &errors.Error{Phase: errors.PhaseEncode, Kind: errors.KindIO}))
}

func TestEncodeToBuffer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, wasm.Encode(&buf, addModule()))

	data, err := addModule().Encode()
	require.NoError(t, err)
	assert.Equal(t, data, buf.Bytes())
}

func TestEncodeDoesNotMutate(t *testing.T) {
	m := addModule()
	first, err := m.Encode()
	require.NoError(t, err)
	second, err := m.Encode()
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, addModule(), m)
}

func TestEncodeFailureWritesNothing(t *testing.T) {
	m := addModule()
	m.Funcs[0].Body = append(m.Funcs[0].Body, wasm.Br(0))
	var buf bytes.Buffer
	require.Error(t, wasm.Encode(&buf, m))
	assert.Zero(t, buf.Len())
}
