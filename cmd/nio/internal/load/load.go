// Package load reads CLI inputs: JSON-encoded IR programs and binary
// modules.
package load

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/wippyai/nio/compiler"
	"github.com/wippyai/nio/ir"
	"github.com/wippyai/nio/wasm"
)

var magic = []byte{0x00, 0x61, 0x73, 0x6D}

// Input is either a program or a module binary.
type Input struct {
	Program *ir.Program
	Name    string
	Binary  []byte
}

// IsModule reports whether data starts with the module magic.
func IsModule(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}

// ReadFile reads path, or stdin when path is "-".
func ReadFile(path string) (*Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	in, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	in.Name = baseName(path)
	return in, nil
}

// Parse classifies data as a module binary or a JSON program.
func Parse(data []byte) (*Input, error) {
	if IsModule(data) {
		return &Input{Binary: data}, nil
	}
	p, err := ir.DecodeProgram(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &Input{Program: p}, nil
}

// Module returns the module model, compiling the program if necessary.
func (in *Input) Module(opts ...compiler.Option) (*wasm.Module, error) {
	if in.Program == nil {
		return wasm.ParseModuleValidate(in.Binary)
	}
	res, err := compiler.Compile(in.Program, opts...)
	if err != nil {
		return nil, err
	}
	return res.Module, nil
}

func baseName(path string) string {
	if path == "-" {
		return "stdin"
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
