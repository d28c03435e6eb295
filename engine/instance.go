package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/nio/errors"
)

// Instance is a running module.
type Instance struct {
	module    *Module
	instance  api.Module
	funcCache map[string]api.Function
}

func (i *Instance) function(name string) (api.Function, error) {
	if i.instance == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	if fn, ok := i.funcCache[name]; ok {
		return fn, nil
	}
	fn := i.instance.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "function", name)
	}
	i.funcCache[name] = fn
	return fn, nil
}

// Call invokes an exported function. Each argument is lowered according to
// the matching entry of params and results are lifted according to
// results. A single result is returned as is, several as []any, none as nil.
func (i *Instance) Call(ctx context.Context, name string, params, results []wit.Type, args ...any) (any, error) {
	fn, err := i.function(name)
	if err != nil {
		return nil, err
	}
	def := fn.Definition()

	if len(args) != len(params) {
		return nil, errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("%s: expected %d arguments, got %d", name, len(params), len(args)))
	}
	if err := checkSignature(name, "param", params, def.ParamTypes()); err != nil {
		return nil, err
	}
	if err := checkSignature(name, "result", results, def.ResultTypes()); err != nil {
		return nil, err
	}

	stack := make([]uint64, len(args))
	for idx, arg := range args {
		v, err := lower(params[idx], arg)
		if err != nil {
			if e, ok := err.(*errors.Error); ok {
				e.Path = append([]string{name, fmt.Sprintf("arg[%d]", idx)}, e.Path...)
			}
			return nil, err
		}
		stack[idx] = v
	}

	raw, err := i.call(ctx, fn, name, stack)
	if err != nil {
		return nil, err
	}

	switch len(results) {
	case 0:
		return nil, nil
	case 1:
		return lift(results[0], raw[0])
	}
	out := make([]any, len(results))
	for idx, t := range results {
		if out[idx], err = lift(t, raw[idx]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CallRaw invokes an exported function with raw stack values.
func (i *Instance) CallRaw(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn, err := i.function(name)
	if err != nil {
		return nil, err
	}
	if want := len(fn.Definition().ParamTypes()); want != len(args) {
		return nil, errors.InvalidInput(errors.PhaseRuntime,
			fmt.Sprintf("%s: expected %d arguments, got %d", name, want, len(args)))
	}
	return i.call(ctx, fn, name, args)
}

func (i *Instance) call(ctx context.Context, fn api.Function, name string, stack []uint64) ([]uint64, error) {
	log := i.module.engine.log
	log.Debug("call", zap.String("func", name), zap.Int("args", len(stack)))

	raw, err := fn.Call(ctx, stack...)
	if err != nil {
		log.Debug("call failed", zap.String("func", name), zap.Error(err))
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidData).
			Path(name).
			Cause(err).
			Detail("wasm call failed").
			Build()
	}
	return raw, nil
}

// checkSignature verifies that declared WIT types lower to the function's
// core types.
func checkSignature(name, what string, declared []wit.Type, core []api.ValueType) error {
	if len(declared) != len(core) {
		return errors.TypeMismatch(errors.PhaseRuntime, []string{name},
			fmt.Sprintf("%d %ss", len(core), what), fmt.Sprintf("%d", len(declared)))
	}
	for idx, t := range declared {
		ct, ok := coreType(t)
		if !ok {
			return errors.Unsupported(errors.PhaseRuntime,
				fmt.Sprintf("%s %s[%d]: WIT type %s cannot be passed on the stack", name, what, idx, TypeName(t)))
		}
		if ct != core[idx] {
			return errors.TypeMismatch(errors.PhaseRuntime,
				[]string{name, fmt.Sprintf("%s[%d]", what, idx)},
				api.ValueTypeName(core[idx]), TypeName(t))
		}
	}
	return nil
}

// Close closes the instance. It is safe to call more than once.
func (i *Instance) Close(ctx context.Context) error {
	if i.instance == nil {
		return nil
	}
	err := i.instance.Close(ctx)
	i.instance = nil
	i.funcCache = nil
	return err
}
