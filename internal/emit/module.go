package emit

import (
	"github.com/google/uuid"
)

// magic and formatVersion identify a module file's header (spec §6:
// "4-byte magic, 1-byte format version").
var magic = [4]byte{'s', 'l', 'm', 'd'}

const formatVersion byte = 1

// SymbolKind classifies an import or export table entry, per spec §6's
// `(kind: package|function|type|constant|macro, ...)` entries.
type SymbolKind byte

const (
	SymbolPackage SymbolKind = iota
	SymbolFunction
	SymbolStructType
	SymbolConstant
	SymbolMacro
)

// ImportEntry is one row of the import table. A SymbolPackage entry names
// a module search path and carries PackageIndex -1; every other kind names
// a symbol imported from the package at PackageIndex, which must already
// appear earlier in the table (spec §4.J step 2: "every symbol must be
// preceded by a package entry for its package").
type ImportEntry struct {
	Kind         SymbolKind
	Name         string
	PackageIndex int32
}

// LocalDescriptor is one entry of a function export's local-slot list.
type LocalDescriptor struct {
	Name     string
	TypeName string
}

// FunctionDescriptor is an exported function's signature plus, for a
// non-native function, its patched (offset, length, locals) bytecode
// location (spec §4.J step 3: "Function entries begin with placeholder
// (offset, length, locals) that are patched as bytecode is emitted").
type FunctionDescriptor struct {
	ParamTypes []string
	ReturnType string

	Native    bool
	NativeLib string

	Offset uint64
	Length uint64
	Locals []LocalDescriptor
}

// FieldDescriptor is one field of an exported struct.
type FieldDescriptor struct {
	Name     string
	TypeName string
}

// StructDescriptor is an exported struct's field list and directive flags.
type StructDescriptor struct {
	Fields    []FieldDescriptor
	AllowCast bool
}

// ConstantDescriptor is an exported top-level const binding: its type and
// a reference into the constant pool (for str) or its inline value (for
// i32/f32, which the pool never stores — spec §4.J step 5 only interns
// "string and numeric constants", but step 5's own const-opcode rule
// already distinguishes "carr[ies] the literal value inline for integers
// and floats" from a pool reference; an exported i32/f32 const reuses that
// same inline representation rather than manufacturing a one-entry pool
// slot for a value that was never going to be deduplicated).
type ConstantDescriptor struct {
	TypeName  string
	PoolIndex int32 // -1 unless TypeName == "str"
	IntVal    int32
	FloatVal  float32
}

// MacroDescriptor carries a macro's branch-set AST, serialized by
// SerializeMacroDef (spec §6: "macro descriptors carry the serialized
// branch-set AST"; spec §8 testable property 5 requires this round-trips
// byte-identically).
type MacroDescriptor struct {
	Serialized []byte
}

// ExportEntry is one row of the export table: a name, the kind-specific
// descriptor, and the SymbolKind discriminating which descriptor field is
// populated.
type ExportEntry struct {
	Kind SymbolKind
	Name string

	Function *FunctionDescriptor
	Struct   *StructDescriptor
	Constant *ConstantDescriptor
	Macro    *MacroDescriptor
}

// ConstantPoolEntry is one interned value. Only string constants are
// pooled in this implementation (spec §6: "payloads are VLE-length-prefixed
// bytes" — a natural fit for strings; i32/f32 are always carried inline at
// their use site per §4.J step 5, so no numeric entry is ever produced).
type ConstantPoolEntry struct {
	Value string
}

// Module is the complete in-memory form of a .cmod file, ready to
// Serialize.
type Module struct {
	BuildID uuid.UUID

	Imports []ImportEntry
	Exports []ExportEntry
	Pool    []ConstantPoolEntry

	Bytecode []byte
}

// NewModule returns an empty module with a fresh content-addressing
// BuildID (spec §6 doesn't itself name a BuildID field; this is the
// module-header placeholder a host-side module cache keys on, wired onto
// google/uuid per this repository's domain-dependency stack).
func NewModule() *Module {
	return &Module{BuildID: uuid.New()}
}

// Serialize writes the module's header, import table, export table,
// constant pool and bytecode stream in the order spec §6 lists them.
func (m *Module) Serialize() []byte {
	w := NewWriter()

	w.WriteRaw(magic[:])
	w.WriteByte(formatVersion)
	buildIDBytes, _ := m.BuildID.MarshalBinary()
	w.WriteRaw(buildIDBytes)

	w.WriteVLEUint(uint64(len(m.Imports)))
	for _, imp := range m.Imports {
		w.WriteByte(byte(imp.Kind))
		w.WriteString(imp.Name)
		w.WriteVLEInt(int64(imp.PackageIndex))
	}

	w.WriteVLEUint(uint64(len(m.Exports)))
	for _, exp := range m.Exports {
		writeExportEntry(w, exp)
	}

	w.WriteVLEUint(uint64(len(m.Pool)))
	for _, entry := range m.Pool {
		w.WriteString(entry.Value)
	}

	w.WriteRaw(m.Bytecode)

	return w.Bytes()
}

func writeExportEntry(w *Writer, exp ExportEntry) {
	w.WriteByte(byte(exp.Kind))
	w.WriteString(exp.Name)

	switch exp.Kind {
	case SymbolFunction:
		d := exp.Function
		w.WriteVLEUint(uint64(len(d.ParamTypes)))
		for _, p := range d.ParamTypes {
			w.WriteString(p)
		}
		w.WriteString(d.ReturnType)
		if d.Native {
			w.WriteByte(1)
			w.WriteString(d.NativeLib)
			return
		}
		w.WriteByte(0)
		w.WriteVLEUint(d.Offset)
		w.WriteVLEUint(d.Length)
		w.WriteVLEUint(uint64(len(d.Locals)))
		for _, l := range d.Locals {
			w.WriteString(l.Name)
			w.WriteString(l.TypeName)
		}

	case SymbolStructType:
		d := exp.Struct
		if d.AllowCast {
			w.WriteByte(1)
		} else {
			w.WriteByte(0)
		}
		w.WriteVLEUint(uint64(len(d.Fields)))
		for _, f := range d.Fields {
			w.WriteString(f.Name)
			w.WriteString(f.TypeName)
		}

	case SymbolConstant:
		d := exp.Constant
		w.WriteString(d.TypeName)
		w.WriteVLEInt(int64(d.PoolIndex))
		w.WriteInt32LE(d.IntVal)
		w.WriteFloat32LE(d.FloatVal)

	case SymbolMacro:
		d := exp.Macro
		w.WriteVLEUint(uint64(len(d.Serialized)))
		w.WriteRaw(d.Serialized)
	}
}
