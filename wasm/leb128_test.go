package wasm_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/nio/wasm"
)

func TestLEB128Unsigned(t *testing.T) {
	tests := []struct {
		encoded []byte
		value   uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xff, 0x01}, 255},
		{[]byte{0xff, 0x7f}, 16383},
		{[]byte{0x80, 0x80, 0x01}, 16384},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, 0xFFFFFFFF},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.encoded, wasm.EncodeLEB128u(tt.value), "encode %d", tt.value)

		got, n, err := wasm.DecodeLEB128u(tt.encoded)
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
		assert.Equal(t, len(tt.encoded), n)
	}
}

func TestLEB128Signed(t *testing.T) {
	tests := []struct {
		encoded []byte
		value   int32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x01}, 1},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0x40}, -64},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0xbf, 0x7f}, -65},
		{[]byte{0xc0, 0xbb, 0x78}, -123456},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x07}, math.MaxInt32},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x78}, math.MinInt32},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.encoded, wasm.EncodeLEB128s(tt.value), "encode %d", tt.value)

		got, n, err := wasm.DecodeLEB128s(tt.encoded)
		require.NoError(t, err)
		assert.Equal(t, tt.value, got)
		assert.Equal(t, len(tt.encoded), n)
	}
}

func TestLEB128GoldenVectors(t *testing.T) {
	assert.Equal(t, []byte{0xE5, 0x8E, 0x26}, wasm.EncodeLEB128u(624485))
	assert.Equal(t, []byte{0xC0, 0xBB, 0x78}, wasm.EncodeLEB128s(-123456))
}

func TestLEB128UnsignedRoundTrip(t *testing.T) {
	values := []uint32{0, 127, 128, 16383, 16384, 4294967295}
	// sweep every bit width
	for shift := 0; shift < 32; shift++ {
		values = append(values, uint32(1)<<shift, uint32(1)<<shift-1)
	}

	for _, v := range values {
		got, _, err := wasm.DecodeLEB128u(wasm.EncodeLEB128u(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestLEB128SignedRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 63, -64, 64, -65, 2147483647, -2147483648}
	for shift := 0; shift < 31; shift++ {
		values = append(values, int32(1)<<shift, -(int32(1) << shift))
	}

	for _, v := range values {
		got, _, err := wasm.DecodeLEB128s(wasm.EncodeLEB128s(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestLEB128Signed64(t *testing.T) {
	for _, v := range []int64{0, -1, math.MaxInt64, math.MinInt64, 1 << 35} {
		got, _, err := wasm.DecodeLEB128s64(wasm.EncodeLEB128s64(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	assert.Equal(t, []byte{0x80, 0x01}, wasm.EncodeLEB128u64(128))
}

func TestLEB128Overflow(t *testing.T) {
	_, _, err := wasm.DecodeLEB128u([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
	assert.True(t, errors.Is(err, wasm.ErrOverflow))

	_, _, err = wasm.DecodeLEB128s([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00})
	assert.True(t, errors.Is(err, wasm.ErrOverflow))
}

func TestLEB128Truncated(t *testing.T) {
	_, _, err := wasm.DecodeLEB128u([]byte{0x80})
	assert.Error(t, err)
}
