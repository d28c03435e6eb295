package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type node string

func (n node) String() string { return string(n) }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseCodegen,
				Kind:    KindUnsupported,
				Path:    []string{"add", "x"},
				Node:    "Str",
				WitType: "string",
				Detail:  "unsupported parameter type",
			},
			contains: []string{"[codegen]", "unsupported", "add.x", "node Str", "WIT type string", "- unsupported parameter type"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[decode]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseEncode,
				Kind:   KindIO,
				Detail: "write failed",
				Cause:  errors.New("disk full"),
			},
			contains: []string{"[encode]", "io", "write failed", "caused by", "disk full"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestError_Format(t *testing.T) {
	err := NotFound(PhaseCodegen, "identifier", "z")
	assert.Equal(t, `[codegen] not_found: identifier "z" not found`, err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := IO(PhaseEncode, cause)

	assert.Same(t, cause, errors.Unwrap(err))
	assert.True(t, errors.Is(err, cause))
}

func TestError_Is(t *testing.T) {
	err := NotYetSupported(PhaseCodegen, "lambda")
	wrapped := fmt.Errorf("compile: %w", err)

	tests := []struct {
		name   string
		target error
		want   bool
	}{
		{"same phase and kind", &Error{Phase: PhaseCodegen, Kind: KindUnsupported}, true},
		{"kind only", &Error{Kind: KindUnsupported}, true},
		{"phase only", &Error{Phase: PhaseCodegen}, true},
		{"different kind", &Error{Phase: PhaseCodegen, Kind: KindNotFound}, false},
		{"different phase", &Error{Phase: PhaseEncode, Kind: KindUnsupported}, false},
		{"foreign error", errors.New("unsupported"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(wrapped, tt.target))
		})
	}
}

func TestError_As(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", InvalidLiteral(PhaseCodegen, "12x", nil))

	var e *Error
	assert.True(t, errors.As(wrapped, &e))
	assert.Equal(t, KindInvalidLiteral, e.Kind)
	assert.Equal(t, "12x", e.Value)
}

func TestBuilder(t *testing.T) {
	err := New(PhaseCodegen, KindUnsupported).
		Path("add", "return").
		Node(node("Unresolved(Str)")).
		Value(3).
		Cause(errors.New("boom")).
		Detail("unsupported %s type", "return").
		Build()

	assert.Equal(t, PhaseCodegen, err.Phase)
	assert.Equal(t, KindUnsupported, err.Kind)
	assert.Equal(t, []string{"add", "return"}, err.Path)
	assert.Equal(t, "Unresolved(Str)", err.Node)
	assert.Equal(t, 3, err.Value)
	assert.Equal(t, "unsupported return type", err.Detail)
	assert.EqualError(t, err, "[codegen] unsupported at add.return: node Unresolved(Str) - unsupported return type (caused by: boom)")
}

func TestBuilder_NilNode(t *testing.T) {
	err := New(PhaseResolve, KindInvalidData).Node(nil).Detail("nil body").Build()
	assert.Empty(t, err.Node)
	assert.Equal(t, "[resolve] invalid_data: nil body", err.Error())
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
		text  string
	}{
		{"unsupported", Unsupported(PhaseEncode, "block"), PhaseEncode, KindUnsupported, "block"},
		{"not yet supported", NotYetSupported(PhaseCodegen, "call"), PhaseCodegen, KindUnsupported, "call is not yet supported"},
		{"type mismatch", TypeMismatch(PhaseRuntime, nil, "s32", "string"), PhaseRuntime, KindTypeMismatch, "expected s32, got string"},
		{"literal", InvalidLiteral(PhaseCodegen, "abc", nil), PhaseCodegen, KindInvalidLiteral, `"abc"`},
		{"overflow", Overflow(PhaseRuntime, nil, 1<<40, "s32"), PhaseRuntime, KindOverflow, "overflows s32"},
		{"invalid data", InvalidData(PhaseDecode, nil, "bad magic"), PhaseDecode, KindInvalidData, "bad magic"},
		{"wrap", Wrap(PhaseLoad, KindInvalidData, errors.New("x"), "compile"), PhaseLoad, KindInvalidData, "compile"},
		{"not initialized", NotInitialized(PhaseRuntime, "instance"), PhaseRuntime, KindNotInitialized, "instance not initialized"},
		{"invalid input", InvalidInput(PhaseRuntime, "arity"), PhaseRuntime, KindInvalidInput, "arity"},
		{"instantiation", Instantiation(errors.New("x")), PhaseRuntime, KindInstantiation, "instantiate module"},
		{"load", Load("compile module", nil), PhaseLoad, KindInvalidData, "compile module"},
		{"parse", ParseFailed("WIT", nil), PhaseParse, KindInvalidData, "parse WIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.phase, tt.err.Phase)
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.Contains(t, tt.err.Error(), tt.text)
		})
	}
}
