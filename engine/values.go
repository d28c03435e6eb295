package engine

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/wasm"
)

// WitType returns the canonical WIT type for a core value type.
func WitType(v wasm.ValType) (wit.Type, bool) {
	switch v {
	case wasm.ValI32:
		return wit.S32{}, true
	case wasm.ValI64:
		return wit.S64{}, true
	case wasm.ValF32:
		return wit.F32{}, true
	case wasm.ValF64:
		return wit.F64{}, true
	}
	return nil, false
}

// TypeName returns the WIT spelling of a primitive type.
func TypeName(t wit.Type) string {
	switch t.(type) {
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.U16:
		return "u16"
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%T", t)
}

// coreType returns the core value type a WIT primitive is passed as.
func coreType(t wit.Type) (api.ValueType, bool) {
	switch t.(type) {
	case wit.Bool, wit.S8, wit.U8, wit.S16, wit.U16, wit.S32, wit.U32, wit.Char:
		return api.ValueTypeI32, true
	case wit.S64, wit.U64:
		return api.ValueTypeI64, true
	case wit.F32:
		return api.ValueTypeF32, true
	case wit.F64:
		return api.ValueTypeF64, true
	}
	return 0, false
}

// lower converts a Go value to its stack representation under t.
func lower(t wit.Type, v any) (uint64, error) {
	switch t.(type) {
	case wit.Bool:
		b, ok := v.(bool)
		if !ok {
			return 0, mismatch(t, v)
		}
		if b {
			return 1, nil
		}
		return 0, nil
	case wit.S8:
		n, err := signed(t, v, math.MinInt8, math.MaxInt8)
		return api.EncodeI32(int32(n)), err
	case wit.S16:
		n, err := signed(t, v, math.MinInt16, math.MaxInt16)
		return api.EncodeI32(int32(n)), err
	case wit.S32:
		n, err := signed(t, v, math.MinInt32, math.MaxInt32)
		return api.EncodeI32(int32(n)), err
	case wit.S64:
		n, err := signed(t, v, math.MinInt64, math.MaxInt64)
		return api.EncodeI64(n), err
	case wit.U8:
		n, err := unsigned(t, v, math.MaxUint8)
		return n, err
	case wit.U16:
		n, err := unsigned(t, v, math.MaxUint16)
		return n, err
	case wit.U32:
		n, err := unsigned(t, v, math.MaxUint32)
		return n, err
	case wit.U64:
		return unsigned(t, v, math.MaxUint64)
	case wit.Char:
		r, ok := v.(rune)
		if !ok || r < 0 || r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
			return 0, mismatch(t, v)
		}
		return uint64(r), nil
	case wit.F32:
		switch f := v.(type) {
		case float32:
			return api.EncodeF32(f), nil
		case float64:
			return api.EncodeF32(float32(f)), nil
		}
		return 0, mismatch(t, v)
	case wit.F64:
		switch f := v.(type) {
		case float64:
			return api.EncodeF64(f), nil
		case float32:
			return api.EncodeF64(float64(f)), nil
		}
		return 0, mismatch(t, v)
	}
	return 0, errors.Unsupported(errors.PhaseRuntime, "WIT type "+TypeName(t)+" cannot be passed on the stack")
}

// lift converts a stack value back to the Go type for t.
func lift(t wit.Type, raw uint64) (any, error) {
	switch t.(type) {
	case wit.Bool:
		return raw != 0, nil
	case wit.S8:
		return int8(raw), nil
	case wit.U8:
		return uint8(raw), nil
	case wit.S16:
		return int16(raw), nil
	case wit.U16:
		return uint16(raw), nil
	case wit.S32:
		return api.DecodeI32(raw), nil
	case wit.U32:
		return api.DecodeU32(raw), nil
	case wit.S64:
		return int64(raw), nil
	case wit.U64:
		return raw, nil
	case wit.Char:
		return rune(uint32(raw)), nil
	case wit.F32:
		return api.DecodeF32(raw), nil
	case wit.F64:
		return api.DecodeF64(raw), nil
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, "WIT type "+TypeName(t)+" cannot be returned on the stack")
}

func signed(t wit.Type, v any, lo, hi int64) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	default:
		return 0, mismatch(t, v)
	}
	if n < lo || n > hi {
		return 0, errors.Overflow(errors.PhaseRuntime, nil, v, TypeName(t))
	}
	return n, nil
}

func unsigned(t wit.Type, v any, hi uint64) (uint64, error) {
	var n uint64
	switch x := v.(type) {
	case uint:
		n = uint64(x)
	case uint8:
		n = uint64(x)
	case uint16:
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case int:
		if x < 0 {
			return 0, errors.Overflow(errors.PhaseRuntime, nil, v, TypeName(t))
		}
		n = uint64(x)
	default:
		return 0, mismatch(t, v)
	}
	if n > hi {
		return 0, errors.Overflow(errors.PhaseRuntime, nil, v, TypeName(t))
	}
	return n, nil
}

func mismatch(t wit.Type, v any) error {
	return errors.New(errors.PhaseRuntime, errors.KindTypeMismatch).
		WitType(TypeName(t)).
		Value(v).
		Detail("cannot lower %T as %s", v, TypeName(t)).
		Build()
}
