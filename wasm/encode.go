package wasm

import (
	"fmt"
	"io"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/wasm/internal/binary"
)

// Encode serializes m and writes it to w in a single write. A failing sink
// is reported as an encode-phase io error; nothing is written when the
// module itself cannot be encoded.
func Encode(w io.Writer, m *Module) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	n, err := w.Write(data)
	if err != nil {
		return errors.IO(errors.PhaseEncode, err)
	}
	if n != len(data) {
		return errors.IO(errors.PhaseEncode, io.ErrShortWrite)
	}
	return nil
}

// Encode encodes the module to WebAssembly binary format. Sections are
// written in id order and empty sections are omitted.
func (m *Module) Encode() ([]byte, error) {
	if what, ok := m.hasUnsupportedSections(); ok {
		return nil, errors.Unsupported(errors.PhaseEncode, what)
	}

	w := binary.NewWriter()

	// Magic number and version
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	// Type section
	if len(m.Types) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Types)))
		for i, ft := range m.Types {
			sec.Byte(FuncTypeByte)
			if err := writeValTypes(sec, ft.Params); err != nil {
				return nil, withPath(err, fmt.Sprintf("type[%d]", i), "params")
			}
			if err := writeValTypes(sec, ft.Results); err != nil {
				return nil, withPath(err, fmt.Sprintf("type[%d]", i), "results")
			}
		}
		writeSection(w, SectionType, sec)
	}

	// Function section
	if len(m.Funcs) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			sec.WriteU32(uint32(f.Type))
		}
		writeSection(w, SectionFunction, sec)
	}

	// Export section
	if len(m.Exports) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.WriteName(exp.Name)
			sec.Byte(exp.Desc.Kind)
			sec.WriteU32(exp.Desc.Idx)
		}
		writeSection(w, SectionExport, sec)
	}

	// Code section
	if len(m.Funcs) > 0 {
		sec := binary.NewWriter()
		sec.WriteU32(uint32(len(m.Funcs)))
		for i, f := range m.Funcs {
			body, err := encodeBody(f)
			if err != nil {
				return nil, withPath(err, fmt.Sprintf("func[%d]", i))
			}
			sec.WriteBlock(body)
		}
		writeSection(w, SectionCode, sec)
	}

	return w.Bytes(), nil
}

// encodeBody writes run-length encoded locals, the instructions and the
// terminating end opcode.
func encodeBody(f Func) (*binary.Writer, error) {
	body := binary.NewWriter()

	runs := localRuns(f.Locals)
	body.WriteU32(uint32(len(runs)))
	for _, run := range runs {
		if !run.Type.Valid() {
			return nil, errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("local value type 0x%02x", byte(run.Type)))
		}
		body.WriteU32(run.Count)
		body.Byte(byte(run.Type))
	}

	for _, in := range f.Body {
		if err := encodeInstr(body, in); err != nil {
			return nil, err
		}
	}
	body.Byte(byte(OpEnd))
	return body, nil
}

// LocalRun is a group of consecutive locals sharing a value type.
type LocalRun struct {
	Count uint32
	Type  ValType
}

func localRuns(locals []ValType) []LocalRun {
	var runs []LocalRun
	for _, t := range locals {
		if n := len(runs); n > 0 && runs[n-1].Type == t {
			runs[n-1].Count++
			continue
		}
		runs = append(runs, LocalRun{Count: 1, Type: t})
	}
	return runs
}

func writeSection(w *binary.Writer, id byte, sec *binary.Writer) {
	w.Byte(id)
	w.WriteBlock(sec)
}

func writeValTypes(w *binary.Writer, types []ValType) error {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		if !t.Valid() {
			return errors.Unsupported(errors.PhaseEncode, fmt.Sprintf("value type 0x%02x", byte(t)))
		}
		w.Byte(byte(t))
	}
	return nil
}

// withPath prefixes the location of a structured error.
func withPath(err error, path ...string) error {
	if e, ok := err.(*errors.Error); ok {
		e.Path = append(path, e.Path...)
	}
	return err
}
