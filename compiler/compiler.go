package compiler

import (
	"io"

	"go.uber.org/zap"

	"github.com/wippyai/nio/codegen"
	"github.com/wippyai/nio/ir"
	"github.com/wippyai/nio/typecheck"
	"github.com/wippyai/nio/wasm"
)

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger for the compiler and its code generator.
func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.log = l
		}
	}
}

// WithWorld sets the world name used in the WIT descriptor.
func WithWorld(name string) Option {
	return func(c *Compiler) {
		if name != "" {
			c.world = name
		}
	}
}

// Compiler runs the full pipeline. It is immutable after New and safe
// for concurrent use on distinct programs.
type Compiler struct {
	log   *zap.Logger
	gen   *codegen.Generator
	world string
}

// Result holds every artifact of one compilation.
type Result struct {
	Module *wasm.Module
	WIT    string
	Binary []byte
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{log: Logger(), world: DefaultWorld}
	for _, opt := range opts {
		opt(c)
	}
	c.gen = codegen.New(codegen.WithLogger(c.log))
	return c
}

// Compile resolves types in p, generates a module, validates it and
// encodes it. p is modified in place by type resolution.
func (c *Compiler) Compile(p *ir.Program) (*Result, error) {
	m, err := c.build(p)
	if err != nil {
		return nil, err
	}

	bin, err := m.Encode()
	if err != nil {
		return nil, err
	}
	c.log.Debug("module encoded", zap.Int("bytes", len(bin)))

	return &Result{
		Module: m,
		Binary: bin,
		WIT:    renderWIT(c.world, p, m),
	}, nil
}

// CompileTo compiles p and writes the binary to w. Nothing is written
// when compilation fails.
func (c *Compiler) CompileTo(w io.Writer, p *ir.Program) error {
	m, err := c.build(p)
	if err != nil {
		return err
	}

	return wasm.Encode(w, m)
}

func (c *Compiler) build(p *ir.Program) (*wasm.Module, error) {
	if err := typecheck.Resolve(p); err != nil {
		return nil, err
	}
	m, err := c.gen.Generate(p)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		c.log.Error("generated module failed validation", zap.Error(err))
		return nil, err
	}
	c.log.Debug("module built",
		zap.Int("funcs", len(m.Funcs)),
		zap.Int("exports", len(m.Exports)))
	return m, nil
}

// Compile compiles p with a default Compiler.
func Compile(p *ir.Program, opts ...Option) (*Result, error) {
	return New(opts...).Compile(p)
}
