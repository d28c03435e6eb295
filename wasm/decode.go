package wasm

import (
	goerrors "errors"
	"fmt"
	"io"

	"github.com/wippyai/nio/errors"
	"github.com/wippyai/nio/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = goerrors.New("invalid wasm magic number")
	ErrInvalidVersion = goerrors.New("invalid wasm version")
)

// ParseModule decodes a binary module restricted to the sections the
// encoder produces: type, function, export and code. Custom sections are
// skipped; any other known section is rejected as unsupported.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	// Check magic number
	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, decodeErr(r.WrapError("header", err))
	}
	if magic != Magic {
		return nil, decodeErr(ErrInvalidMagic)
	}

	// Check version
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, decodeErr(r.WrapError("header", err))
	}
	if version != Version {
		return nil, decodeErr(ErrInvalidVersion)
	}

	m := &Module{}
	var funcTypes []TypeIdx
	var lastID byte

	for r.Len() > 0 {
		sectionID, err := r.ReadByte()
		if err != nil {
			return nil, decodeErr(r.WrapError("section header", err))
		}

		sr, err := r.ReadBlock()
		if err != nil {
			return nil, decodeErr(r.WrapError("section data", err))
		}

		if sectionID == SectionCustom {
			continue
		}
		if sectionID <= lastID {
			return nil, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("section %d appears out of order", sectionID))
		}
		lastID = sectionID

		switch sectionID {
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionFunction:
			funcTypes, err = parseFunctionSection(sr)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionCode:
			err = parseCodeSection(sr, m, funcTypes)
			funcTypes = nil
		case SectionImport, SectionTable, SectionMemory, SectionGlobal, SectionStart, SectionElement, SectionData:
			return nil, errors.Unsupported(errors.PhaseDecode, fmt.Sprintf("section %d", sectionID))
		default:
			return nil, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("unknown section ID: 0x%02x", sectionID))
		}
		if err != nil {
			return nil, decodeErr(fmt.Errorf("%s section: %w", sectionName(sectionID), err))
		}
		if sr.Len() != 0 {
			return nil, errors.InvalidData(errors.PhaseDecode, nil, fmt.Sprintf("%s section has %d trailing bytes", sectionName(sectionID), sr.Len()))
		}
	}

	if len(funcTypes) > 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, nil, "function section without code section")
	}
	return m, nil
}

func sectionName(id byte) string {
	switch id {
	case SectionType:
		return "type"
	case SectionFunction:
		return "function"
	case SectionExport:
		return "export"
	case SectionCode:
		return "code"
	}
	return fmt.Sprintf("section %d", id)
}

// decodeErr keeps structured errors as they are and wraps anything else.
func decodeErr(err error) error {
	var e *errors.Error
	if goerrors.As(err, &e) {
		return err
	}
	if goerrors.Is(err, io.EOF) || goerrors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "unexpected end of module")
	}
	return errors.Wrap(errors.PhaseDecode, errors.KindInvalidData, err, "malformed module")
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return err
		}
		if form != FuncTypeByte {
			return fmt.Errorf("type %d: unsupported type form 0x%02x", i, form)
		}
		params, err := readValTypes(r)
		if err != nil {
			return err
		}
		results, err := readValTypes(r)
		if err != nil {
			return err
		}
		m.AddType(FuncType{Params: params, Results: results})
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	if int(count) > r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	types := make([]ValType, 0, count)
	for i := uint32(0); i < count; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		vt := ValType(b)
		if !vt.Valid() {
			return nil, fmt.Errorf("invalid value type 0x%02x", b)
		}
		types = append(types, vt)
	}
	return types, nil
}

func parseFunctionSection(r *binary.Reader) ([]TypeIdx, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if int(count) > r.Len() {
		return nil, io.ErrUnexpectedEOF
	}
	types := make([]TypeIdx, 0, count)
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		types = append(types, TypeIdx(idx))
	}
	return types, nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindGlobal {
			return fmt.Errorf("export %q: invalid kind 0x%02x", name, kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.AddExport(Export{Name: name, Desc: ExportDesc{Kind: kind, Idx: idx}})
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module, funcTypes []TypeIdx) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	if int(count) != len(funcTypes) {
		return fmt.Errorf("code count %d does not match function count %d", count, len(funcTypes))
	}
	for i := uint32(0); i < count; i++ {
		br, err := r.ReadBlock()
		if err != nil {
			return err
		}
		f, err := parseBody(br)
		if err != nil {
			return fmt.Errorf("func %d: %w", i, err)
		}
		f.Type = funcTypes[i]
		m.AddFunc(f)
	}
	return nil
}

// maxLocals bounds the declared locals of one function body.
const maxLocals = 50000

func parseBody(r *binary.Reader) (Func, error) {
	var f Func

	runs, err := r.ReadU32()
	if err != nil {
		return f, err
	}
	for i := uint32(0); i < runs; i++ {
		n, err := r.ReadU32()
		if err != nil {
			return f, err
		}
		b, err := r.ReadByte()
		if err != nil {
			return f, err
		}
		vt := ValType(b)
		if !vt.Valid() {
			return f, fmt.Errorf("invalid local type 0x%02x", b)
		}
		if uint64(len(f.Locals))+uint64(n) > maxLocals {
			return f, fmt.Errorf("local count exceeds %d", maxLocals)
		}
		for j := uint32(0); j < n; j++ {
			f.Locals = append(f.Locals, vt)
		}
	}

	for {
		if r.Len() == 1 {
			end, _ := r.ReadByte()
			if Opcode(end) != OpEnd {
				return f, fmt.Errorf("body must end with 0x0b, got 0x%02x", end)
			}
			return f, nil
		}
		if r.Len() == 0 {
			return f, io.ErrUnexpectedEOF
		}
		in, err := decodeInstr(r)
		if err != nil {
			return f, err
		}
		f.Body = append(f.Body, in)
	}
}
