package runtime

import (
	"bytes"
	"context"

	"github.com/wippyai/nio/compiler"
	"github.com/wippyai/nio/engine"
	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/ir"
)

// componentVersion is the version/layer field of a component binary.
var componentVersion = []byte{0x0D, 0x00, 0x01, 0x00}

// Option configures a Runtime.
type Option func(*options)

type options struct {
	engine   *engine.Config
	compiler []compiler.Option
}

// WithEngineConfig sets the engine configuration.
func WithEngineConfig(cfg *engine.Config) Option {
	return func(o *options) { o.engine = cfg }
}

// WithCompilerOptions sets the options used by Compile.
func WithCompilerOptions(opts ...compiler.Option) Option {
	return func(o *options) { o.compiler = append(o.compiler, opts...) }
}

type Runtime struct {
	engine   *engine.Engine
	compiler *compiler.Compiler
}

func New(ctx context.Context, opts ...Option) (*Runtime, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	eng, err := engine.New(ctx, o.engine)
	if err != nil {
		return nil, errors.Load("create engine", err)
	}

	return &Runtime{
		engine:   eng,
		compiler: compiler.New(o.compiler...),
	}, nil
}

// Close releases all runtime resources.
// All instances must be closed before calling this.
func (r *Runtime) Close(ctx context.Context) error {
	return r.engine.Close(ctx)
}

// LoadWASM loads a core WebAssembly module (not Component Model).
// witText provides function signatures for type-safe calls since core
// modules lack type metadata.
func (r *Runtime) LoadWASM(ctx context.Context, wasm []byte, witText string) (*Module, error) {
	if isComponent(wasm) {
		return nil, errors.InvalidInput(errors.PhaseLoad, "component binaries are not supported")
	}

	mod, err := r.engine.Load(ctx, wasm)
	if err != nil {
		return nil, err
	}

	return &Module{
		engineModule: mod,
		witText:      witText,
	}, nil
}

// Compile compiles p and loads the resulting module, typed by the WIT
// descriptor produced alongside it.
func (r *Runtime) Compile(ctx context.Context, p *ir.Program) (*Module, error) {
	res, err := r.compiler.Compile(p)
	if err != nil {
		return nil, err
	}

	mod, err := r.LoadWASM(ctx, res.Binary, res.WIT)
	if err != nil {
		return nil, err
	}
	mod.result = res
	return mod, nil
}

func isComponent(data []byte) bool {
	return len(data) >= 8 && bytes.HasPrefix(data, []byte("\x00asm")) && bytes.Equal(data[4:8], componentVersion)
}
