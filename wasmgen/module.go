package wasmgen

// Binary format constants.
const (
	Magic   uint32 = 0x6D736100 // "\0asm" little-endian
	Version uint32 = 1

	funcTypeByte byte = 0x60
	endOpcode    byte = 0x0B
)

// Section IDs, in the order they must appear.
const (
	SectionType     byte = 1
	SectionImport   byte = 2
	SectionFunction byte = 3
	SectionMemory   byte = 5
	SectionExport   byte = 7
	SectionCode     byte = 10
)

// ValType is a value type byte.
type ValType byte

const (
	I32 ValType = 0x7F
	I64 ValType = 0x7E
)

func (v ValType) String() string {
	switch v {
	case I32:
		return "i32"
	case I64:
		return "i64"
	default:
		return "unknown"
	}
}

// ExternKind tags an import or export descriptor.
type ExternKind byte

const (
	KindFunc   ExternKind = 0x00
	KindMemory ExternKind = 0x02
)

// Limits is a memory type in 64KB pages. A nil Max leaves the memory
// unbounded up to the runtime limit.
type Limits struct {
	Min uint32
	Max *uint32
}

// FuncType is a function signature.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Encode returns the type encoding: 0x60, params vector, results vector.
func (ft FuncType) Encode() []byte {
	var w writer
	writeFuncType(&w, ft)
	return w.Bytes()
}

// Import is resolved by module and symbol name. Function imports use
// TypeIdx, memory imports use Mem.
type Import struct {
	Module  string
	Name    string
	Kind    ExternKind
	TypeIdx uint32
	Mem     Limits
}

// Export exposes a function index under a name.
type Export struct {
	Name    string
	Kind    ExternKind
	FuncIdx uint32
}

// Local declares Count locals of one type.
type Local struct {
	Count uint32
	Type  ValType
}

// Func is a function body. The terminating end opcode is added on encode.
type Func struct {
	Locals []Local
	Body   []Instruction
}

// Module holds the sections of a module. Funcs and Code are parallel:
// Funcs[i] is the type index of the body in Code[i].
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32
	Memories []Limits
	Exports  []Export
	Code     []Func
}

// Encode encodes the module to WebAssembly binary format. Empty sections
// are omitted.
func (m *Module) Encode() []byte {
	var w writer
	writeU32LE(&w, Magic)
	writeU32LE(&w, Version)

	if len(m.Types) > 0 {
		w.WriteBytes(TypeSection(m.Types))
	}
	if len(m.Imports) > 0 {
		w.WriteBytes(ImportSection(m.Imports))
	}
	if len(m.Funcs) > 0 {
		w.WriteBytes(FunctionSection(m.Funcs))
	}
	if len(m.Memories) > 0 {
		w.WriteBytes(MemorySection(m.Memories))
	}
	if len(m.Exports) > 0 {
		w.WriteBytes(ExportSection(m.Exports))
	}
	if len(m.Code) > 0 {
		w.WriteBytes(CodeSection(m.Code))
	}
	return w.Bytes()
}

// TypeSection encodes a complete type section including its header.
func TypeSection(types []FuncType) []byte {
	var sec writer
	sec.WriteU32(uint32(len(types)))
	for _, ft := range types {
		writeFuncType(&sec, ft)
	}
	return section(SectionType, sec.Bytes())
}

// ImportSection encodes a complete import section including its header.
func ImportSection(imports []Import) []byte {
	var sec writer
	sec.WriteU32(uint32(len(imports)))
	for _, imp := range imports {
		sec.WriteName(imp.Module)
		sec.WriteName(imp.Name)
		sec.Byte(byte(imp.Kind))
		if imp.Kind == KindMemory {
			writeLimits(&sec, imp.Mem)
		} else {
			sec.WriteU32(imp.TypeIdx)
		}
	}
	return section(SectionImport, sec.Bytes())
}

// FunctionSection encodes a complete function section including its header.
func FunctionSection(typeIdx []uint32) []byte {
	var sec writer
	sec.WriteU32(uint32(len(typeIdx)))
	for _, idx := range typeIdx {
		sec.WriteU32(idx)
	}
	return section(SectionFunction, sec.Bytes())
}

// MemorySection encodes a complete memory section including its header.
func MemorySection(mems []Limits) []byte {
	var sec writer
	sec.WriteU32(uint32(len(mems)))
	for _, l := range mems {
		writeLimits(&sec, l)
	}
	return section(SectionMemory, sec.Bytes())
}

// ExportSection encodes a complete export section including its header.
func ExportSection(exports []Export) []byte {
	var sec writer
	sec.WriteU32(uint32(len(exports)))
	for _, exp := range exports {
		sec.WriteName(exp.Name)
		sec.Byte(byte(exp.Kind))
		sec.WriteU32(exp.FuncIdx)
	}
	return section(SectionExport, sec.Bytes())
}

// CodeSection encodes a complete code section including its header.
// Each body is prefixed with its own size.
func CodeSection(code []Func) []byte {
	var sec writer
	sec.WriteU32(uint32(len(code)))
	for _, fn := range code {
		body := fn.Encode()
		sec.WriteU32(uint32(len(body)))
		sec.WriteBytes(body)
	}
	return section(SectionCode, sec.Bytes())
}

// Encode returns the body encoding without the size prefix.
func (f Func) Encode() []byte {
	var w writer
	w.WriteU32(uint32(len(f.Locals)))
	for _, l := range f.Locals {
		w.WriteU32(l.Count)
		w.Byte(byte(l.Type))
	}
	for _, in := range f.Body {
		in.encode(&w)
	}
	w.Byte(endOpcode)
	return w.Bytes()
}

func writeFuncType(w *writer, ft FuncType) {
	w.Byte(funcTypeByte)
	writeValTypes(w, ft.Params)
	writeValTypes(w, ft.Results)
}

func writeValTypes(w *writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

func writeLimits(w *writer, l Limits) {
	if l.Max == nil {
		w.Byte(0x00)
		w.WriteU32(l.Min)
		return
	}
	w.Byte(0x01)
	w.WriteU32(l.Min)
	w.WriteU32(*l.Max)
}

func section(id byte, payload []byte) []byte {
	var w writer
	w.Byte(id)
	w.WriteU32(uint32(len(payload)))
	w.WriteBytes(payload)
	return w.Bytes()
}

func writeU32LE(w *writer, v uint32) {
	w.Byte(byte(v))
	w.Byte(byte(v >> 8))
	w.Byte(byte(v >> 16))
	w.Byte(byte(v >> 24))
}
