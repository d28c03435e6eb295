package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/wasm"
)

// Engine wraps a wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	log     *zap.Logger
}

// Config holds configuration for engine creation
type Config struct {
	// Logger receives load, instantiate and call events. Defaults to the
	// package logger.
	Logger *zap.Logger

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// New creates an engine. cfg may be nil.
func New(ctx context.Context, cfg *Config) (*Engine, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	log := Logger()

	if cfg != nil {
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
		if cfg.Logger != nil {
			log = cfg.Logger
		}
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		log:     log,
	}, nil
}

// Load compiles a core module binary.
func (e *Engine) Load(ctx context.Context, bin []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Load("compile module", err)
	}

	m := &Module{engine: e, compiled: compiled}
	e.log.Debug("module loaded",
		zap.Int("bytes", len(bin)),
		zap.Int("exports", len(compiled.ExportedFunctions())))
	return m, nil
}

// Close releases the runtime and every module compiled by it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Module is a compiled module.
type Module struct {
	engine    *Engine
	compiled  wazero.CompiledModule
	funcs     []Function
	funcsOnce sync.Once
}

// Function describes an exported function by its core signature.
type Function struct {
	Name    string
	Params  []wit.Type
	Results []wit.Type
}

// Functions lists exported functions sorted by name. Parameter and result
// types are the canonical WIT types of the core signature.
func (m *Module) Functions() []Function {
	m.funcsOnce.Do(func() {
		defs := m.compiled.ExportedFunctions()
		names := make([]string, 0, len(defs))
		for name := range defs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			def := defs[name]
			m.funcs = append(m.funcs, Function{
				Name:    name,
				Params:  witTypes(def.ParamTypes()),
				Results: witTypes(def.ResultTypes()),
			})
		}
	})
	return m.funcs
}

// Function looks up an exported function by name.
func (m *Module) Function(name string) (Function, bool) {
	for _, f := range m.Functions() {
		if f.Name == name {
			return f, true
		}
	}
	return Function{}, false
}

// Instantiate creates an instance. Start functions are not run.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	modConfig := wazero.NewModuleConfig().
		WithName(""). // anonymous for parallel instantiation
		WithStartFunctions()

	inst, err := m.engine.runtime.InstantiateModule(ctx, m.compiled, modConfig)
	if err != nil {
		return nil, errors.Instantiation(err)
	}
	m.engine.log.Debug("module instantiated")

	return &Instance{
		module:    m,
		instance:  inst,
		funcCache: make(map[string]api.Function),
	}, nil
}

// Close releases the compiled module.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

func witTypes(vts []api.ValueType) []wit.Type {
	if len(vts) == 0 {
		return nil
	}
	out := make([]wit.Type, len(vts))
	for i, vt := range vts {
		// wazero value types share the binary encoding
		out[i], _ = WitType(wasm.ValType(vt))
	}
	return out
}
