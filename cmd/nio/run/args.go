package run

import (
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/nio/engine"
)

func convertArgs(values []string, types []wit.Type) ([]any, error) {
	if len(values) != len(types) {
		return nil, errors.Errorf("expected %d arguments, got %d", len(types), len(values))
	}
	args := make([]any, len(values))
	for i, v := range values {
		arg, err := convertArg(v, types[i])
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		args[i] = arg
	}
	return args, nil
}

// convertArg parses a command-line value as the Go type the engine lowers
// for t.
func convertArg(value string, t wit.Type) (any, error) {
	var (
		v   any
		err error
	)
	switch t.(type) {
	case wit.String:
		return value, nil
	case wit.Bool:
		v, err = strconv.ParseBool(value)
	case wit.U8:
		var n uint64
		n, err = strconv.ParseUint(value, 10, 8)
		v = uint8(n)
	case wit.U16:
		var n uint64
		n, err = strconv.ParseUint(value, 10, 16)
		v = uint16(n)
	case wit.U32:
		var n uint64
		n, err = strconv.ParseUint(value, 10, 32)
		v = uint32(n)
	case wit.U64:
		v, err = strconv.ParseUint(value, 10, 64)
	case wit.S8:
		var n int64
		n, err = strconv.ParseInt(value, 10, 8)
		v = int8(n)
	case wit.S16:
		var n int64
		n, err = strconv.ParseInt(value, 10, 16)
		v = int16(n)
	case wit.S32:
		var n int64
		n, err = strconv.ParseInt(value, 10, 32)
		v = int32(n)
	case wit.S64:
		v, err = strconv.ParseInt(value, 10, 64)
	case wit.F32:
		var f float64
		f, err = strconv.ParseFloat(value, 32)
		v = float32(f)
	case wit.F64:
		v, err = strconv.ParseFloat(value, 64)
	case wit.Char:
		r, size := utf8.DecodeRuneInString(value)
		if r == utf8.RuneError || size != len(value) {
			return nil, errors.Errorf("%q is not a single character", value)
		}
		return r, nil
	default:
		return nil, errors.Errorf("cannot pass %s from the command line", engine.TypeName(t))
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse %q as %s", value, engine.TypeName(t))
	}
	return v, nil
}
