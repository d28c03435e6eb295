package runtime

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/nio/compiler"
	"github.com/wippyai/nio/engine"
	"github.com/wippyai/nio/errors"
)

type Module struct {
	funcTypesErr  error
	engineModule  *engine.Module
	result        *compiler.Result
	funcTypes     map[string]*funcSignature
	witText       string
	funcTypesOnce sync.Once
}

// Result returns the compilation result for modules created by
// Runtime.Compile, or nil.
func (m *Module) Result() *compiler.Result {
	return m.result
}

// WIT returns the WIT text the module was loaded with.
func (m *Module) WIT() string {
	return m.witText
}

func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	inst, err := m.engineModule.Instantiate(ctx)
	if err != nil {
		return nil, err
	}

	return &Instance{
		module:         m,
		engineInstance: inst,
	}, nil
}

type Export struct {
	Name string
	// ParamNames holds names declared in the WIT text, empty otherwise.
	ParamNames []string
	Params     []wit.Type
	Results    []wit.Type
}

// Exports lists exported functions, sorted by name, with the types Call
// would use.
func (m *Module) Exports() []Export {
	fns := m.engineModule.Functions()
	exports := make([]Export, 0, len(fns))
	for _, fn := range fns {
		exp := Export{Name: fn.Name, Params: fn.Params, Results: fn.Results}
		if sig, ok := m.declared(fn.Name); ok {
			exp.ParamNames, exp.Params, exp.Results = sig.names, sig.params, sig.results
		}
		exports = append(exports, exp)
	}
	return exports
}

type funcSignature struct {
	names   []string
	params  []wit.Type
	results []wit.Type
}

func (m *Module) parseWIT() {
	m.funcTypesOnce.Do(func() {
		if strings.TrimSpace(m.witText) != "" {
			m.funcTypes, m.funcTypesErr = parseWitFunctions(m.witText)
		}
	})
}

func (m *Module) declared(name string) (*funcSignature, bool) {
	m.parseWIT()
	sig, ok := m.funcTypes[name]
	return sig, ok
}

// GetFunctionTypes returns WIT param and result types for a function.
// WIT text is parsed lazily on first call; functions it does not declare
// fall back to their core signature.
func (m *Module) GetFunctionTypes(name string) ([]wit.Type, []wit.Type, error) {
	m.parseWIT()
	if m.funcTypesErr != nil {
		return nil, nil, m.funcTypesErr
	}

	if sig, ok := m.funcTypes[name]; ok {
		return sig.params, sig.results, nil
	}

	fn, ok := m.engineModule.Function(name)
	if !ok {
		return nil, nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}
	return fn.Params, fn.Results, nil
}

var funcPattern = regexp.MustCompile(`(?:export\s+)?([a-zA-Z_][a-zA-Z0-9_-]*)\s*:\s*func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?`)

// parseWitFunctions extracts function signatures from WIT text.
// Pattern: [export] name: func(params) -> result;
func parseWitFunctions(witText string) (map[string]*funcSignature, error) {
	funcs := make(map[string]*funcSignature)

	matches := funcPattern.FindAllStringSubmatch(witText, -1)
	for _, match := range matches {
		name := match[1]
		paramsStr := strings.TrimSpace(match[2])
		resultStr := ""
		if len(match) > 3 {
			resultStr = strings.TrimSpace(match[3])
		}

		sig := &funcSignature{}

		if paramsStr != "" {
			for _, p := range splitParams(paramsStr) {
				name, typStr := "", p
				if idx := strings.Index(p, ":"); idx != -1 {
					name, typStr = strings.TrimSpace(p[:idx]), strings.TrimSpace(p[idx+1:])
				}
				sig.names = append(sig.names, name)
				t, err := parseWitType(typStr)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse param type "+typStr)
				}
				sig.params = append(sig.params, t)
			}
		}

		if resultStr != "" && resultStr != "()" {
			inner, tupled := unwrapResults(resultStr)
			if tupled {
				for _, part := range splitParams(inner) {
					t, err := parseWitType(part)
					if err != nil {
						return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse result type "+part)
					}
					sig.results = append(sig.results, t)
				}
			} else {
				t, err := parseWitType(resultStr)
				if err != nil {
					return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "parse result type "+resultStr)
				}
				sig.results = []wit.Type{t}
			}
		}

		funcs[name] = sig
	}

	if len(funcs) == 0 {
		return nil, errors.InvalidInput(errors.PhaseParse, "no functions found in WIT text")
	}

	return funcs, nil
}

// unwrapResults strips "(a, b)" or "tuple<a, b>" down to "a, b".
func unwrapResults(s string) (string, bool) {
	switch {
	case strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"):
		return s[1 : len(s)-1], true
	case strings.HasPrefix(s, "tuple<") && strings.HasSuffix(s, ">"):
		return s[len("tuple<") : len(s)-1], true
	}
	return "", false
}

// splitParams splits parameter list, handling nested parens and angle
// brackets.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

func parseWitType(s string) (wit.Type, error) {
	return wit.ParseType(strings.TrimSpace(s))
}
