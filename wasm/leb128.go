package wasm

import (
	"github.com/wippyai/nio/wasm/internal/binary"
)

// LEB128 encoding/decoding utilities for WebAssembly binary format

// ErrOverflow is returned when a LEB128 value exceeds the maximum bit width.
var ErrOverflow = binary.ErrOverflow

// EncodeLEB128u encodes an unsigned 32-bit LEB128 value to bytes.
func EncodeLEB128u(v uint32) []byte {
	w := binary.NewWriter()
	w.WriteU32(v)
	return w.Bytes()
}

// EncodeLEB128s encodes a signed 32-bit LEB128 value to bytes.
func EncodeLEB128s(v int32) []byte {
	w := binary.NewWriter()
	w.WriteS32(v)
	return w.Bytes()
}

// EncodeLEB128u64 encodes an unsigned 64-bit LEB128 value to bytes.
func EncodeLEB128u64(v uint64) []byte {
	w := binary.NewWriter()
	w.WriteU64(v)
	return w.Bytes()
}

// EncodeLEB128s64 encodes a signed 64-bit LEB128 value to bytes.
func EncodeLEB128s64(v int64) []byte {
	w := binary.NewWriter()
	w.WriteS64(v)
	return w.Bytes()
}

// DecodeLEB128u decodes an unsigned 32-bit LEB128 value from the start of
// data and returns it with the number of bytes consumed.
func DecodeLEB128u(data []byte) (uint32, int, error) {
	r := binary.NewReader(data)
	v, err := r.ReadU32()
	if err != nil {
		return 0, 0, err
	}
	return v, r.Position(), nil
}

// DecodeLEB128s decodes a signed 32-bit LEB128 value from the start of
// data and returns it with the number of bytes consumed.
func DecodeLEB128s(data []byte) (int32, int, error) {
	r := binary.NewReader(data)
	v, err := r.ReadS32()
	if err != nil {
		return 0, 0, err
	}
	return v, r.Position(), nil
}

// DecodeLEB128s64 decodes a signed 64-bit LEB128 value from the start of
// data and returns it with the number of bytes consumed.
func DecodeLEB128s64(data []byte) (int64, int, error) {
	r := binary.NewReader(data)
	v, err := r.ReadS64()
	if err != nil {
		return 0, 0, err
	}
	return v, r.Position(), nil
}
