package runtime

import (
	"context"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/nio/engine"
	"github.com/wippyai/nio/errors"
)

type Instance struct {
	module         *Module
	engineInstance *engine.Instance
}

// Call invokes an exported function, typing arguments and results from the
// module's WIT text or, failing that, from the core signature.
func (i *Instance) Call(ctx context.Context, name string, args ...any) (any, error) {
	if i.module == nil || i.engineInstance == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}

	params, results, err := i.module.GetFunctionTypes(name)
	if err != nil {
		return nil, err
	}
	return i.engineInstance.Call(ctx, name, params, results, args...)
}

// CallWithTypes invokes an exported function with explicit WIT types.
func (i *Instance) CallWithTypes(ctx context.Context, name string, params, results []wit.Type, args ...any) (any, error) {
	if i.engineInstance == nil {
		return nil, errors.NotInitialized(errors.PhaseRuntime, "instance")
	}
	return i.engineInstance.Call(ctx, name, params, results, args...)
}

func (i *Instance) Close(ctx context.Context) error {
	if i.engineInstance == nil {
		return nil
	}
	return i.engineInstance.Close(ctx)
}
