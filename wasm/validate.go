package wasm

import (
	"fmt"

	"github.com/wippyai/nio/errors"
)

// Validate checks the index invariants of the module: every referenced
// type, function and local exists, and export names are unique.
func (m *Module) Validate() error {
	if err := m.validateTypeIndices(); err != nil {
		return err
	}
	if err := m.validateExports(); err != nil {
		return err
	}
	if err := m.validateBodies(); err != nil {
		return err
	}
	return nil
}

// ParseModuleValidate parses a WebAssembly binary and validates it.
// This is a convenience function combining ParseModule and Validate.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func invalid(path []string, format string, args ...any) error {
	return errors.New(errors.PhaseValidate, errors.KindOutOfBounds).
		Path(path...).
		Detail(format, args...).
		Build()
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))
	for i, f := range m.Funcs {
		if uint32(f.Type) >= numTypes {
			return invalid([]string{fmt.Sprintf("func[%d]", i)},
				"references invalid type index %d (have %d types)", f.Type, numTypes)
		}
	}
	return nil
}

func (m *Module) validateExports() error {
	numFuncs := uint32(len(m.Funcs))
	seen := make(map[string]int, len(m.Exports))
	for i, exp := range m.Exports {
		if prev, ok := seen[exp.Name]; ok {
			return errors.New(errors.PhaseValidate, errors.KindInvalidData).
				Path(fmt.Sprintf("export[%d]", i)).
				Value(exp.Name).
				Detail("duplicate export name %q (first at %d)", exp.Name, prev).
				Build()
		}
		seen[exp.Name] = i

		if exp.Desc.Kind != KindFunc {
			return errors.New(errors.PhaseValidate, errors.KindUnsupported).
				Path(fmt.Sprintf("export[%d]", i)).
				Detail("export %q has kind 0x%02x", exp.Name, exp.Desc.Kind).
				Build()
		}
		if exp.Desc.Idx >= numFuncs {
			return invalid([]string{fmt.Sprintf("export[%d]", i)},
				"export %q references invalid function index %d", exp.Name, exp.Desc.Idx)
		}
	}
	return nil
}

func (m *Module) validateBodies() error {
	numFuncs := uint32(len(m.Funcs))
	for i, f := range m.Funcs {
		ft := m.Types[f.Type]
		numLocals := uint32(len(ft.Params) + len(f.Locals))
		for j, in := range f.Body {
			path := []string{fmt.Sprintf("func[%d]", i), fmt.Sprintf("instr[%d]", j)}
			switch imm := in.Imm.(type) {
			case LocalImm:
				if uint32(imm.Local) >= numLocals {
					return invalid(path, "%s references invalid local %d (have %d)", in.Op, imm.Local, numLocals)
				}
			case CallImm:
				if uint32(imm.Func) >= numFuncs {
					return invalid(path, "call references invalid function index %d", imm.Func)
				}
			case GlobalImm:
				if int(imm.Global) >= len(m.Globals) {
					return invalid(path, "%s references invalid global %d", in.Op, imm.Global)
				}
			}
		}
	}
	return nil
}
