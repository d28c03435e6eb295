package wasm

// Index types are plain positions into the corresponding module sequence.
// They are assigned at append time and never renumbered.
type (
	TypeIdx   uint32
	FuncIdx   uint32
	TableIdx  uint32
	MemIdx    uint32
	GlobalIdx uint32
	LocalIdx  uint32
	LabelIdx  uint32
)

// Module is the in-memory representation of a WebAssembly module.
//
// Only Types, Funcs and Exports are produced by code generation. The
// remaining sequences are part of the model but the encoder rejects a
// module that populates them.
type Module struct {
	Types   []FuncType
	Imports []Import
	Funcs   []Func
	Tables  []TableType
	Mems    []MemoryType
	Globals []Global
	Exports []Export
	Start   *Start
	Elems   []Element
	Data    []DataSegment
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType represents a WebAssembly value type.
// See constants.go for ValI32, ValI64, ValF32, ValF64.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Valid reports whether v is one of the four numeric value types.
func (v ValType) Valid() bool {
	switch v {
	case ValI32, ValI64, ValF32, ValF64:
		return true
	}
	return false
}

// Func is a function definition: its signature index, the locals declared
// beyond the parameters and the instruction sequence without the trailing end.
type Func struct {
	Locals []ValType
	Body   []Instr
	Type   TypeIdx
}

// Export describes an exported item.
type Export struct {
	Name string
	Desc ExportDesc
}

// ExportDesc identifies the exported item.
// Kind uses KindFunc, KindTable, KindMemory or KindGlobal.
type ExportDesc struct {
	Kind byte
	Idx  uint32
}

// FuncExport builds a function export descriptor.
func FuncExport(idx FuncIdx) ExportDesc {
	return ExportDesc{Kind: KindFunc, Idx: uint32(idx)}
}

// Import represents an imported item.
type Import struct {
	Module string
	Name   string
	Desc   ExportDesc
}

// TableType describes a table with element type and size limits.
type TableType struct {
	Limits   Limits
	ElemType byte
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
}

// Limits describes size constraints for tables and memories.
type Limits struct {
	Max *uint32
	Min uint32
}

// Global represents a global variable with type and initialization.
type Global struct {
	Init    []Instr
	Type    ValType
	Mutable bool
}

// Start names the function run on instantiation.
type Start struct {
	Func FuncIdx
}

// Element represents an active element segment for table 0.
type Element struct {
	Offset []Instr
	Funcs  []FuncIdx
	Table  TableIdx
}

// DataSegment represents an active data segment.
type DataSegment struct {
	Offset []Instr
	Init   []byte
	Mem    MemIdx
}

// AddType appends a function type and returns its index. Types are not
// deduplicated.
func (m *Module) AddType(ft FuncType) TypeIdx {
	m.Types = append(m.Types, ft)
	return TypeIdx(len(m.Types) - 1)
}

// AddFunc appends a function and returns its index.
func (m *Module) AddFunc(f Func) FuncIdx {
	m.Funcs = append(m.Funcs, f)
	return FuncIdx(len(m.Funcs) - 1)
}

// AddExport appends an export and returns its position in the export list.
func (m *Module) AddExport(e Export) int {
	m.Exports = append(m.Exports, e)
	return len(m.Exports) - 1
}

// FuncTypeOf returns the signature of the function at idx, or nil.
func (m *Module) FuncTypeOf(idx FuncIdx) *FuncType {
	if int(idx) >= len(m.Funcs) {
		return nil
	}
	t := m.Funcs[idx].Type
	if int(t) >= len(m.Types) {
		return nil
	}
	return &m.Types[t]
}

// ExportedFunc looks up a function export by name.
func (m *Module) ExportedFunc(name string) (FuncIdx, bool) {
	for _, e := range m.Exports {
		if e.Name == name && e.Desc.Kind == KindFunc {
			return FuncIdx(e.Desc.Idx), true
		}
	}
	return 0, false
}

// ExportName returns the first export name bound to the function at idx.
func (m *Module) ExportName(idx FuncIdx) string {
	for _, e := range m.Exports {
		if e.Desc.Kind == KindFunc && e.Desc.Idx == uint32(idx) {
			return e.Name
		}
	}
	return ""
}

func (m *Module) hasUnsupportedSections() (string, bool) {
	switch {
	case len(m.Imports) > 0:
		return "import section", true
	case len(m.Tables) > 0:
		return "table section", true
	case len(m.Mems) > 0:
		return "memory section", true
	case len(m.Globals) > 0:
		return "global section", true
	case m.Start != nil:
		return "start section", true
	case len(m.Elems) > 0:
		return "element section", true
	case len(m.Data) > 0:
		return "data section", true
	}
	return "", false
}
