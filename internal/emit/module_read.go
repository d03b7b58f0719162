package emit

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/slang-lang/slang/internal/loader"
	"github.com/slang-lang/slang/internal/sema"
)

// Header reduces m to the subset of a module's header that import
// resolution needs: its export table, translated from this package's own
// on-disk SymbolKind into internal/sema's symbol-table SymbolKind (the two
// enums were never unified, since the wire format predates, and is more
// granular than, the in-memory symbol table).
func (m *Module) Header() *loader.ModuleHeader {
	h := &loader.ModuleHeader{Exports: make([]loader.ModuleExport, 0, len(m.Exports))}
	for _, exp := range m.Exports {
		kind, ok := exportKindToSema(exp.Kind)
		if !ok {
			continue
		}
		h.Exports = append(h.Exports, loader.ModuleExport{Name: exp.Name, Kind: kind})
	}
	return h
}

func exportKindToSema(k SymbolKind) (sema.SymbolKind, bool) {
	switch k {
	case SymbolFunction:
		return sema.SymbolFunction, true
	case SymbolStructType:
		return sema.SymbolType, true
	case SymbolConstant:
		return sema.SymbolConstant, true
	case SymbolMacro:
		return sema.SymbolMacro, true
	default:
		return 0, false
	}
}

// ParseModule reads back a module file written by Module.Serialize, in the
// same field order. Used by cmd/slangc's filesystem-backed
// loader.HeaderReader to recover a dependency's export table without
// re-running the pipeline that produced it.
func ParseModule(buf []byte) (*Module, error) {
	r := NewReader(buf)

	var got [4]byte
	for i := range got {
		b, ok := r.ReadByte()
		if !ok {
			return nil, fmt.Errorf("emit: ParseModule: truncated magic")
		}
		got[i] = b
	}
	if got != magic {
		return nil, fmt.Errorf("emit: ParseModule: bad magic %q", got)
	}

	version, ok := r.ReadByte()
	if !ok {
		return nil, fmt.Errorf("emit: ParseModule: truncated version")
	}
	if version != formatVersion {
		return nil, fmt.Errorf("emit: ParseModule: unsupported format version %d", version)
	}

	idBytes := make([]byte, 16)
	for i := range idBytes {
		b, ok := r.ReadByte()
		if !ok {
			return nil, fmt.Errorf("emit: ParseModule: truncated build id")
		}
		idBytes[i] = b
	}
	buildID, err := uuid.FromBytes(idBytes)
	if err != nil {
		return nil, fmt.Errorf("emit: ParseModule: build id: %w", err)
	}

	m := &Module{BuildID: buildID}

	importCount, ok := r.ReadVLEUint()
	if !ok {
		return nil, fmt.Errorf("emit: ParseModule: truncated import count")
	}
	m.Imports = make([]ImportEntry, importCount)
	for i := range m.Imports {
		kind, ok := r.ReadByte()
		if !ok {
			return nil, fmt.Errorf("emit: ParseModule: truncated import entry %d", i)
		}
		name, ok := r.ReadString()
		if !ok {
			return nil, fmt.Errorf("emit: ParseModule: truncated import name %d", i)
		}
		pkgIndex, ok := r.ReadVLEInt()
		if !ok {
			return nil, fmt.Errorf("emit: ParseModule: truncated import package index %d", i)
		}
		m.Imports[i] = ImportEntry{Kind: SymbolKind(kind), Name: name, PackageIndex: int32(pkgIndex)}
	}

	exportCount, ok := r.ReadVLEUint()
	if !ok {
		return nil, fmt.Errorf("emit: ParseModule: truncated export count")
	}
	m.Exports = make([]ExportEntry, exportCount)
	for i := range m.Exports {
		exp, err := readExportEntry(r)
		if err != nil {
			return nil, fmt.Errorf("emit: ParseModule: export entry %d: %w", i, err)
		}
		m.Exports[i] = exp
	}

	poolCount, ok := r.ReadVLEUint()
	if !ok {
		return nil, fmt.Errorf("emit: ParseModule: truncated pool count")
	}
	m.Pool = make([]ConstantPoolEntry, poolCount)
	for i := range m.Pool {
		v, ok := r.ReadString()
		if !ok {
			return nil, fmt.Errorf("emit: ParseModule: truncated pool entry %d", i)
		}
		m.Pool[i] = ConstantPoolEntry{Value: v}
	}

	m.Bytecode = r.buf[r.pos:]

	return m, nil
}

func readExportEntry(r *Reader) (ExportEntry, error) {
	kind, ok := r.ReadByte()
	if !ok {
		return ExportEntry{}, fmt.Errorf("truncated kind")
	}
	name, ok := r.ReadString()
	if !ok {
		return ExportEntry{}, fmt.Errorf("truncated name")
	}
	exp := ExportEntry{Kind: SymbolKind(kind), Name: name}

	switch exp.Kind {
	case SymbolFunction:
		d := &FunctionDescriptor{}
		paramCount, ok := r.ReadVLEUint()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated param count")
		}
		d.ParamTypes = make([]string, paramCount)
		for i := range d.ParamTypes {
			p, ok := r.ReadString()
			if !ok {
				return ExportEntry{}, fmt.Errorf("truncated param type %d", i)
			}
			d.ParamTypes[i] = p
		}
		ret, ok := r.ReadString()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated return type")
		}
		d.ReturnType = ret

		nativeFlag, ok := r.ReadByte()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated native flag")
		}
		if nativeFlag == 1 {
			d.Native = true
			lib, ok := r.ReadString()
			if !ok {
				return ExportEntry{}, fmt.Errorf("truncated native lib")
			}
			d.NativeLib = lib
			exp.Function = d
			return exp, nil
		}

		offset, ok := r.ReadVLEUint()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated offset")
		}
		length, ok := r.ReadVLEUint()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated length")
		}
		localCount, ok := r.ReadVLEUint()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated local count")
		}
		d.Offset, d.Length = offset, length
		d.Locals = make([]LocalDescriptor, localCount)
		for i := range d.Locals {
			n, ok := r.ReadString()
			if !ok {
				return ExportEntry{}, fmt.Errorf("truncated local name %d", i)
			}
			t, ok := r.ReadString()
			if !ok {
				return ExportEntry{}, fmt.Errorf("truncated local type %d", i)
			}
			d.Locals[i] = LocalDescriptor{Name: n, TypeName: t}
		}
		exp.Function = d

	case SymbolStructType:
		d := &StructDescriptor{}
		allowCast, ok := r.ReadByte()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated allow-cast flag")
		}
		d.AllowCast = allowCast == 1
		fieldCount, ok := r.ReadVLEUint()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated field count")
		}
		d.Fields = make([]FieldDescriptor, fieldCount)
		for i := range d.Fields {
			n, ok := r.ReadString()
			if !ok {
				return ExportEntry{}, fmt.Errorf("truncated field name %d", i)
			}
			t, ok := r.ReadString()
			if !ok {
				return ExportEntry{}, fmt.Errorf("truncated field type %d", i)
			}
			d.Fields[i] = FieldDescriptor{Name: n, TypeName: t}
		}
		exp.Struct = d

	case SymbolConstant:
		d := &ConstantDescriptor{}
		t, ok := r.ReadString()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated constant type")
		}
		poolIndex, ok := r.ReadVLEInt()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated pool index")
		}
		intVal, ok := r.ReadInt32LE()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated int value")
		}
		floatVal, ok := r.ReadFloat32LE()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated float value")
		}
		d.TypeName = t
		d.PoolIndex = int32(poolIndex)
		d.IntVal = intVal
		d.FloatVal = floatVal
		exp.Constant = d

	case SymbolMacro:
		d := &MacroDescriptor{}
		n, ok := r.ReadVLEUint()
		if !ok {
			return ExportEntry{}, fmt.Errorf("truncated macro byte count")
		}
		d.Serialized = make([]byte, n)
		for i := range d.Serialized {
			b, ok := r.ReadByte()
			if !ok {
				return ExportEntry{}, fmt.Errorf("truncated macro byte %d", i)
			}
			d.Serialized[i] = b
		}
		exp.Macro = d
	}

	return exp, nil
}
