package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bytecodealliance.org/wit"
)

func TestConvertArg(t *testing.T) {
	tests := []struct {
		value string
		typ   wit.Type
		want  any
	}{
		{"-7", wit.S32{}, int32(-7)},
		{"4294967295", wit.U32{}, uint32(4294967295)},
		{"-1", wit.S64{}, int64(-1)},
		{"255", wit.U8{}, uint8(255)},
		{"-128", wit.S8{}, int8(-128)},
		{"2.5", wit.F64{}, 2.5},
		{"0.5", wit.F32{}, float32(0.5)},
		{"true", wit.Bool{}, true},
		{"hi", wit.String{}, "hi"},
		{"λ", wit.Char{}, 'λ'},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := convertArg(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConvertArgErrors(t *testing.T) {
	tests := []struct {
		value string
		typ   wit.Type
	}{
		{"2147483648", wit.S32{}},
		{"-1", wit.U32{}},
		{"x", wit.S32{}},
		{"maybe", wit.Bool{}},
		{"ab", wit.Char{}},
		{"1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			_, err := convertArg(tt.value, tt.typ)
			assert.Error(t, err)
		})
	}
}

func TestConvertArgs(t *testing.T) {
	args, err := convertArgs([]string{"3", "4"}, []wit.Type{wit.S32{}, wit.S32{}})
	require.NoError(t, err)
	assert.Equal(t, []any{int32(3), int32(4)}, args)

	_, err = convertArgs([]string{"3"}, []wit.Type{wit.S32{}, wit.S32{}})
	assert.ErrorContains(t, err, "expected 2 arguments, got 1")

	_, err = convertArgs([]string{"3", "x"}, []wit.Type{wit.S32{}, wit.S32{}})
	assert.ErrorContains(t, err, "argument 1")
}
