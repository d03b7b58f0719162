package emit

import (
	"sort"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/codegen"
	"github.com/slang-lang/slang/internal/constant"
	"github.com/slang-lang/slang/internal/errkind"
	"github.com/slang-lang/slang/internal/sema"
	"github.com/slang-lang/slang/internal/types"
)

// Error is an emission diagnostic — spec §7's "emitter (internal invariant
// failure)" kind.
type Error struct {
	Kind errkind.Kind
	Loc  ast.SourceLoc
	Msg  string
}

func (e *Error) Error() string { return e.Loc.String() + ": [" + e.Kind.String() + "] " + e.Msg }

func newError(format string) *Error {
	return &Error{Kind: errkind.Internal, Msg: format}
}

// Emitter runs spec §4.J's module-emission pass over a set of generated
// functions, a set of declared macros, and the shared type/semantic
// environment those functions were checked and generated against.
type Emitter struct {
	ctx  *types.Context
	senv *sema.Env
	cenv *constant.Env

	module *Module

	// packageIndex maps a declaring-module symbol id to its already
	// written package entry's index in module.Imports.
	packageIndex map[ast.SymbolID]int32
	// importedSymbol maps a remote function or struct symbol id to its
	// negative-encoded import-table reference ("-1-index", spec §4.J's
	// closing paragraph).
	importedSymbol map[ast.SymbolID]int32
}

func NewEmitter(ctx *types.Context, senv *sema.Env, cenv *constant.Env) *Emitter {
	return &Emitter{
		ctx:            ctx,
		senv:           senv,
		cenv:           cenv,
		module:         NewModule(),
		packageIndex:   make(map[ast.SymbolID]int32),
		importedSymbol: make(map[ast.SymbolID]int32),
	}
}

// EmitModule runs every step of spec §4.J in order and returns the
// populated, ready-to-Serialize Module.
func (e *Emitter) EmitModule(fns []*codegen.Function, macros []*ast.MacroDef) (*Module, error) {
	for _, fn := range fns {
		if err := e.collectImportsForFunction(fn); err != nil {
			return nil, err
		}
	}

	if err := e.buildExportTable(fns, macros); err != nil {
		return nil, err
	}

	w := NewWriter()
	for _, fn := range fns {
		entry := e.findFunctionExport(fn.Name)
		if entry == nil {
			return nil, newError("function '" + fn.Name + "' was generated but has no export entry")
		}
		if fn.Native {
			continue
		}

		offset := w.Len()
		targets := collectJumpTargets(fn)
		if err := e.emitFunctionBody(w, fn, targets); err != nil {
			return nil, err
		}
		entry.Function.Offset = uint64(offset)
		entry.Function.Length = uint64(w.Len() - offset)
	}
	e.module.Bytecode = w.Bytes()

	return e.module, nil
}

// collectJumpTargets scans every Jmp/Jnz in fn and returns the sorted set
// of block labels actually branched to — spec §4.J step 1: "Scans all
// functions to collect jump targets... these become indices in the label
// table." A block never jumped to (e.g. an if's unreachable merge block
// when both arms return) gets no label opcode emitted.
func collectJumpTargets(fn *codegen.Function) map[int]int {
	seen := make(map[int]bool)
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if in.Op == codegen.Jmp || in.Op == codegen.Jnz {
				seen[in.Label] = true
			}
		}
	}
	labels := make([]int, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Ints(labels)

	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	return index
}

// collectImportsForFunction scans fn's instructions for references to
// symbols declared outside the current module (spec §4.J step 2: "Scans
// for imports actually used... and adds each to the module's import
// table"), recording each the first time it is seen.
func (e *Emitter) collectImportsForFunction(fn *codegen.Function) error {
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			switch in.Op {
			case codegen.Invoke:
				if in.CalleeSymbol.IsValid() {
					e.noteImport(in.CalleeSymbol)
				}
			case codegen.GetField, codegen.SetField, codegen.New, codegen.ANewArray, codegen.CheckCast:
				if in.StructType.IsValid() {
					e.noteImportForType(in.StructType)
				}
			}
		}
	}
	return nil
}

// noteImport records symbolID's import-table entries (package, then
// symbol) if it was declared by another module and hasn't been recorded
// yet.
func (e *Emitter) noteImport(symbolID ast.SymbolID) {
	if _, already := e.importedSymbol[symbolID]; already {
		return
	}
	info := e.senv.Symbol(symbolID)
	if info == nil || info.DeclaringModule == sema.CurrentModuleID {
		return
	}

	pkgIdx := e.packageEntryFor(info.DeclaringModule)

	kind := SymbolFunction
	switch info.Kind {
	case sema.SymbolType:
		kind = SymbolStructType
	case sema.SymbolConstant:
		kind = SymbolConstant
	case sema.SymbolMacro:
		kind = SymbolMacro
	}

	e.module.Imports = append(e.module.Imports, ImportEntry{Kind: kind, Name: info.Name, PackageIndex: pkgIdx})
	e.importedSymbol[symbolID] = -1 - int32(len(e.module.Imports)-1)
}

func (e *Emitter) noteImportForType(typeID ast.TypeID) {
	info := e.ctx.Info(typeID)
	if info.DeclSymbol.IsValid() {
		e.noteImport(info.DeclSymbol)
	}
}

// packageEntryFor returns moduleSymbolID's package-table index, writing a
// SymbolPackage entry the first time it's referenced (spec §4.J step 2:
// "every symbol must be preceded by a package entry for its package").
func (e *Emitter) packageEntryFor(moduleSymbolID ast.SymbolID) int32 {
	if idx, ok := e.packageIndex[moduleSymbolID]; ok {
		return idx
	}
	info := e.senv.Symbol(moduleSymbolID)
	name := ""
	if info != nil {
		name = info.QualifiedName
	}
	e.module.Imports = append(e.module.Imports, ImportEntry{Kind: SymbolPackage, Name: name, PackageIndex: -1})
	idx := int32(len(e.module.Imports) - 1)
	e.packageIndex[moduleSymbolID] = idx
	return idx
}

// buildExportTable adds one entry per defined function, struct, constant
// and macro (spec §4.J step 3). Function entries are placeholders here —
// EmitModule patches Offset/Length once the bytecode for each is emitted.
func (e *Emitter) buildExportTable(fns []*codegen.Function, macros []*ast.MacroDef) error {
	for _, fn := range fns {
		d := &FunctionDescriptor{ReturnType: e.ctx.Info(fn.ReturnType).Name}
		for _, p := range fn.ParamTypes {
			d.ParamTypes = append(d.ParamTypes, e.ctx.Info(p).Name)
		}
		if fn.Native {
			d.Native = true
			d.NativeLib = fn.NativeLib
		} else {
			for _, l := range fn.Locals {
				d.Locals = append(d.Locals, LocalDescriptor{Name: l.Name, TypeName: e.ctx.Info(l.Type).Name})
			}
		}
		e.module.Exports = append(e.module.Exports, ExportEntry{Kind: SymbolFunction, Name: fn.Name, Function: d})
	}

	e.ctx.EachType(func(id ast.TypeID, info *types.Info) {
		if info.Class != types.ClassStruct || !info.DeclSymbol.IsValid() {
			return
		}
		if sym := e.senv.Symbol(info.DeclSymbol); sym == nil || sym.DeclaringModule != sema.CurrentModuleID {
			return
		}
		d := &StructDescriptor{AllowCast: e.senv.HasAttribute(info.DeclSymbol, sema.AttributeAllowCast)}
		for _, f := range info.Fields {
			d.Fields = append(d.Fields, FieldDescriptor{Name: f.Name, TypeName: e.ctx.Info(f.Type).Name})
		}
		e.module.Exports = append(e.module.Exports, ExportEntry{Kind: SymbolStructType, Name: info.Name, Struct: d})
	})

	e.senv.EachSymbol(func(id ast.SymbolID, info *sema.SymbolInfo) {
		if info.Kind != sema.SymbolConstant || info.DeclaringModule != sema.CurrentModuleID {
			return
		}
		cinfo, ok := e.cenv.GetConstInfo(id)
		if !ok {
			return
		}
		d := &ConstantDescriptor{TypeName: cinfo.Type.String(), PoolIndex: -1}
		switch cinfo.Type {
		case constant.I32:
			d.IntVal = cinfo.Int()
		case constant.F32:
			d.FloatVal = cinfo.Float()
		case constant.Str:
			d.PoolIndex = e.internString(cinfo.String())
		}
		e.module.Exports = append(e.module.Exports, ExportEntry{Kind: SymbolConstant, Name: info.Name, Constant: d})
	})

	for _, m := range macros {
		w := ast.NewWriter()
		ast.Serialize(w, m)
		e.module.Exports = append(e.module.Exports, ExportEntry{
			Kind: SymbolMacro, Name: m.Name,
			Macro: &MacroDescriptor{Serialized: w.Bytes()},
		})
	}

	return nil
}

// internString dedups s into the constant pool and returns its index.
func (e *Emitter) internString(s string) int32 {
	for i, entry := range e.module.Pool {
		if entry.Value == s {
			return int32(i)
		}
	}
	e.module.Pool = append(e.module.Pool, ConstantPoolEntry{Value: s})
	return int32(len(e.module.Pool) - 1)
}

func (e *Emitter) findFunctionExport(name string) *ExportEntry {
	for i := range e.module.Exports {
		if e.module.Exports[i].Kind == SymbolFunction && e.module.Exports[i].Name == name {
			return &e.module.Exports[i]
		}
	}
	return nil
}

// symbolRef resolves id to the compact index scheme spec §4.J's last
// paragraph describes: non-negative = this module's own export-table
// index, negative = -1-index into the import table.
func (e *Emitter) symbolRef(name string, id ast.SymbolID) int64 {
	if idx, ok := e.importedSymbol[id]; ok {
		return int64(idx)
	}
	for i, exp := range e.module.Exports {
		if exp.Name == name {
			return int64(i)
		}
	}
	return -1
}

// emitFunctionBody walks fn's blocks in declared order (spec §4.J step 4),
// emitting a label opcode for every block present in targets, then each
// instruction via its typed opcode.
func (e *Emitter) emitFunctionBody(w *Writer, fn *codegen.Function, targets map[int]int) error {
	for _, b := range fn.Blocks {
		if idx, ok := targets[b.Label]; ok {
			w.WriteByte(byte(OpLabel))
			w.WriteVLEUint(uint64(idx))
		}
		for _, in := range b.Instrs {
			if err := e.emitInstr(w, in, targets); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Emitter) emitInstr(w *Writer, in codegen.Instr, targets map[int]int) error {
	class := func(t ast.TypeID) types.Class {
		if !t.IsValid() {
			return types.ClassVoid
		}
		return e.ctx.Info(t).Class
	}

	switch in.Op {
	case codegen.Const:
		switch class(in.Type) {
		case types.ClassI32:
			w.WriteByte(byte(OpIConst))
			w.WriteInt32LE(in.IntVal)
		case types.ClassF32:
			w.WriteByte(byte(OpFConst))
			w.WriteFloat32LE(in.FloatVal)
		case types.ClassStr:
			w.WriteByte(byte(OpSConst))
			w.WriteVLEUint(uint64(e.internString(in.StrVal)))
		case types.ClassNull:
			w.WriteByte(byte(OpAConstNull))
		default:
			return newError("const: unsupported operand class")
		}

	case codegen.Load:
		w.WriteByte(byte(typedSlotOpcode(class(in.Type), OpILoad, OpFLoad, OpALoad)))
		w.WriteVLEUint(uint64(in.Slot))
	case codegen.Store:
		w.WriteByte(byte(typedSlotOpcode(class(in.Type), OpIStore, OpFStore, OpAStore)))
		w.WriteVLEUint(uint64(in.Slot))

	case codegen.LoadElement:
		w.WriteByte(byte(typedSlotOpcode(class(in.Type), OpIALoad, OpFALoad, OpAALoad)))
	case codegen.StoreElement:
		w.WriteByte(byte(typedSlotOpcode(class(in.Type), OpIAStore, OpFAStore, OpAAStore)))

	case codegen.GetField:
		w.WriteByte(byte(OpGetField))
		e.writeFieldRef(w, in)
	case codegen.SetField:
		w.WriteByte(byte(OpSetField))
		e.writeFieldRef(w, in)

	case codegen.Dup:
		w.WriteByte(byte(typedSlotOpcode(class(in.Type), OpIDup, OpFDup, OpADup)))
	case codegen.DupX1:
		w.WriteByte(byte(OpDupX1))
	case codegen.DupX2:
		w.WriteByte(byte(OpDupX2))
	case codegen.Pop:
		if class(in.Type) == types.ClassI32 || class(in.Type) == types.ClassF32 {
			w.WriteByte(byte(OpPop))
		} else {
			w.WriteByte(byte(OpAPop))
		}

	case codegen.Add:
		w.WriteByte(byte(typedArith(class(in.Type), OpIAdd, OpFAdd)))
	case codegen.Sub:
		w.WriteByte(byte(typedArith(class(in.Type), OpISub, OpFSub)))
	case codegen.Mul:
		w.WriteByte(byte(typedArith(class(in.Type), OpIMul, OpFMul)))
	case codegen.Div:
		w.WriteByte(byte(typedArith(class(in.Type), OpIDiv, OpFDiv)))
	case codegen.Mod:
		w.WriteByte(byte(OpIMod))
	case codegen.BitAnd:
		w.WriteByte(byte(OpIAnd))
	case codegen.BitOr:
		w.WriteByte(byte(OpIOr))
	case codegen.BitXor:
		w.WriteByte(byte(OpIXor))
	case codegen.Shl:
		w.WriteByte(byte(OpIShl))
	case codegen.Shr:
		w.WriteByte(byte(OpIShr))

	case codegen.CmpEq:
		w.WriteByte(byte(typedSlotOpcode(class(in.Type), OpICmpEq, OpFCmpEq, OpACmpEq)))
	case codegen.CmpNe:
		w.WriteByte(byte(typedSlotOpcode(class(in.Type), OpICmpNe, OpFCmpNe, OpACmpNe)))
	case codegen.CmpLt:
		w.WriteByte(byte(typedArith(class(in.Type), OpICmpLt, OpFCmpLt)))
	case codegen.CmpLe:
		w.WriteByte(byte(typedArith(class(in.Type), OpICmpLe, OpFCmpLe)))
	case codegen.CmpGt:
		w.WriteByte(byte(typedArith(class(in.Type), OpICmpGt, OpFCmpGt)))
	case codegen.CmpGe:
		w.WriteByte(byte(typedArith(class(in.Type), OpICmpGe, OpFCmpGe)))

	case codegen.Cast:
		if class(in.Type) == types.ClassI32 && class(in.CastTo) == types.ClassF32 {
			w.WriteByte(byte(OpI2F))
		} else {
			w.WriteByte(byte(OpF2I))
		}
	case codegen.CheckCast:
		w.WriteByte(byte(OpCheckCast))
		w.WriteVLEInt(e.symbolRef(e.ctx.Info(in.StructType).Name, e.ctx.Info(in.StructType).DeclSymbol))

	case codegen.New:
		w.WriteByte(byte(OpNew))
		w.WriteVLEInt(e.symbolRef(e.ctx.Info(in.StructType).Name, e.ctx.Info(in.StructType).DeclSymbol))
	case codegen.NewArray:
		w.WriteByte(byte(OpNewArray))
		w.WriteByte(elementTag(class(in.Type)))
	case codegen.ANewArray:
		w.WriteByte(byte(OpANewArray))
		w.WriteVLEInt(e.symbolRef(e.ctx.Info(in.StructType).Name, e.ctx.Info(in.StructType).DeclSymbol))
	case codegen.ArrayLength:
		w.WriteByte(byte(OpArrayLength))

	case codegen.Jmp:
		w.WriteByte(byte(OpJmp))
		w.WriteVLEUint(uint64(targets[in.Label]))
	case codegen.Jnz:
		w.WriteByte(byte(OpJnz))
		w.WriteVLEUint(uint64(targets[in.Label]))

	case codegen.Ret:
		switch {
		case !in.Type.IsValid():
			w.WriteByte(byte(OpRet))
		case class(in.Type) == types.ClassI32:
			w.WriteByte(byte(OpIRet))
		case class(in.Type) == types.ClassF32:
			w.WriteByte(byte(OpFRet))
		default:
			w.WriteByte(byte(OpARet))
		}

	case codegen.Invoke:
		w.WriteByte(byte(OpInvoke))
		w.WriteVLEInt(e.symbolRef(in.Callee, in.CalleeSymbol))

	default:
		return newError("unhandled IR opcode")
	}
	return nil
}

func (e *Emitter) writeFieldRef(w *Writer, in codegen.Instr) {
	info := e.ctx.Info(in.StructType)
	w.WriteVLEInt(e.symbolRef(info.Name, info.DeclSymbol))
	for i, f := range info.Fields {
		if f.Name == in.Field {
			w.WriteVLEUint(uint64(i))
			return
		}
	}
	w.WriteVLEUint(0)
}

// typedSlotOpcode picks i/f/a depending on operand class — used by
// load/store/load_element/store_element/dup/comparisons, which share one
// primitive-vs-reference split (spec §4.J step 4's worked example: "load
// -> iload/fload/aload depending on operand type").
func typedSlotOpcode(c types.Class, i, f, a Opcode) Opcode {
	switch c {
	case types.ClassI32:
		return i
	case types.ClassF32:
		return f
	default:
		return a
	}
}

// typedArith picks i/f for the arithmetic/ordered-comparison operators,
// which this type system never allows on a reference type (spec §4.F:
// arithmetic and ordering require numeric operands).
func typedArith(c types.Class, i, f Opcode) Opcode {
	if c == types.ClassF32 {
		return f
	}
	return i
}

// elementTag encodes newarray's primitive element type as a single byte
// (0 = i32, 1 = f32); anewarray instead carries the element's struct
// symbol reference, since only i32/f32 arrays ever reach this opcode
// (internal/codegen's isPrimitiveScalar gate).
func elementTag(c types.Class) byte {
	if c == types.ClassF32 {
		return 1
	}
	return 0
}
