package binary

import (
	"errors"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterU32(t *testing.T) {
	tests := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{624485, []byte{0xe5, 0x8e, 0x26}},
		{0xFFFFFFFF, []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteU32(tt.v)
		assert.Equal(t, tt.want, w.Bytes(), "WriteU32(%d)", tt.v)
	}
}

func TestWriterS32(t *testing.T) {
	tests := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{-1, []byte{0x7f}},
		{63, []byte{0x3f}},
		{-64, []byte{0x40}},
		{64, []byte{0xc0, 0x00}},
		{-65, []byte{0xbf, 0x7f}},
		{-123456, []byte{0xc0, 0xbb, 0x78}},
	}

	for _, tt := range tests {
		w := NewWriter()
		w.WriteS32(tt.v)
		assert.Equal(t, tt.want, w.Bytes(), "WriteS32(%d)", tt.v)
	}
}

func TestRoundTripU32(t *testing.T) {
	for _, v := range []uint32{0, 1, 127, 128, 16383, 16384, 624485, math.MaxUint32} {
		w := NewWriter()
		w.WriteU32(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadU32()
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Zero(t, r.Len())
	}
}

func TestRoundTripS32(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 63, -64, 64, -65, math.MaxInt32, math.MinInt32} {
		w := NewWriter()
		w.WriteS32(v)
		r := NewReader(w.Bytes())
		got, err := r.ReadS32()
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Zero(t, r.Len())
	}
}

func TestRoundTripS64(t *testing.T) {
	for _, v := range []int64{0, -1, math.MaxInt64, math.MinInt64, 1 << 40, -(1 << 40)} {
		w := NewWriter()
		w.WriteS64(v)
		got, err := NewReader(w.Bytes()).ReadS64()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestFloats(t *testing.T) {
	w := NewWriter()
	w.WriteF32(1.5)
	w.WriteF64(-2.25)
	assert.Equal(t, []byte{0x00, 0x00, 0xc0, 0x3f}, w.Bytes()[:4])

	r := NewReader(w.Bytes())
	f32, err := r.ReadF32()
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), f32)
	f64, err := r.ReadF64()
	require.NoError(t, err)
	assert.Equal(t, -2.25, f64)
}

func TestWriteBlock(t *testing.T) {
	inner := NewWriter()
	inner.WriteName("add")
	outer := NewWriter()
	outer.Byte(7)
	outer.WriteBlock(inner)
	assert.Equal(t, []byte{7, 4, 3, 'a', 'd', 'd'}, outer.Bytes())

	r := NewReader(outer.Bytes())
	_, err := r.ReadByte()
	require.NoError(t, err)
	block, err := r.ReadBlock()
	require.NoError(t, err)
	assert.Equal(t, 2, block.Position())
	name, err := block.ReadName()
	require.NoError(t, err)
	assert.Equal(t, "add", name)
	assert.Zero(t, block.Len())
}

func TestReaderErrors(t *testing.T) {
	_, err := NewReader(nil).ReadByte()
	assert.True(t, errors.Is(err, io.EOF))

	_, err = NewReader([]byte{0x01}).ReadBytes(4)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	_, err = NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}).ReadU32()
	assert.True(t, errors.Is(err, ErrOverflow))

	_, err = NewReader([]byte{0x02, 0xff, 0xfe}).ReadName()
	assert.Error(t, err)
}

func TestParseError(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	_, _ = r.ReadBytes(2)
	err := r.WrapError("code", io.EOF)
	assert.Equal(t, "wasm: code at position 2: EOF", err.Error())
	assert.True(t, errors.Is(err, io.EOF))
}
