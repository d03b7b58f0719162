// Package codegen implements spec §4.I: lowering a type-checked,
// macro-expanded AST into a linear, stack-oriented intermediate
// representation. It emits generic (type-agnostic) opcodes annotated with a
// types.TypeID; resolving a generic opcode plus its operand type into a
// concrete typed bytecode instruction (e.g. Add/i32 → iadd, Add/f32 → fadd)
// is internal/emit's job (spec §4.J: "per-instruction emission selects the
// correct opcode from a typed instruction name"), not this package's.
//
// Grounded structurally on _examples/other_examples'
// nspcc-dev-neo-go__pkg-vm-compiler-codegen.go.go, a real Go compiler
// targeting a stack-based VM: its recursive-descent Visit switch over AST
// node kinds, its label table for forward jump patching, and its per-field
// struct-initializer lowering are the closest available precedent for this
// package's shape (the teacher, evanw-esbuild, is a JS bundler with no
// stack-VM codegen of its own).
package codegen

import "github.com/slang-lang/slang/internal/ast"

// Op is a generic, type-agnostic opcode. The Instr carrying it also carries
// the types.TypeID the operation acts on (when one applies); internal/emit
// resolves (Op, Type) to a concrete bytecode mnemonic.
type Op uint8

const (
	// Const pushes a literal: Instr.Type names its type, IntVal/FloatVal/
	// StrVal (per Type's class) names its value. Spec §4.I: "const <type>
	// <value>".
	Const Op = iota

	// Load/Store move a value between the stack and a local slot.
	// Instr.Slot is the local-slot index; Instr.Type is the slot's type.
	Load
	Store

	// LoadElement/StoreElement move a value between the stack and an array
	// element; receiver and index are expected already evaluated on the
	// stack. Instr.Type is the element type.
	LoadElement
	StoreElement

	// GetField/SetField move a value between the stack and a struct field;
	// the receiver is expected already evaluated on the stack.
	// Instr.StructType names the struct type, Instr.Field the member name.
	GetField
	SetField

	// Dup duplicates the top stack value; its type (Instr.Type) selects
	// idup/fdup/adup at emit time. DupX1/DupX2 duplicate the top value and
	// insert the copy one/two slots down — used to preserve an assignment's
	// result under a struct-field (one value below) or array-element (two
	// values below) store so a chained or nested use of the assignment
	// still sees it after the store consumes its operands.
	Dup
	DupX1
	DupX2

	// Pop discards the top stack value (used to drop the unused result of
	// a non-void expression statement). Instr.Type selects pop/apop.
	Pop

	// Arithmetic and bitwise binary operators. Instr.Type is the operand
	// type (i32 for all bitwise/shift/mod per spec §4.F).
	Add
	Sub
	Mul
	Div
	Mod
	BitAnd
	BitOr
	BitXor
	Shl
	Shr

	// Comparisons; Instr.Type is the operand type, result is always i32.
	CmpEq
	CmpNe
	CmpLt
	CmpLe
	CmpGt
	CmpGe

	// Cast converts the top stack value between primitives. Instr.Type is
	// the source type, Instr.CastTo the target type.
	Cast
	// CheckCast verifies (at runtime) that the top stack struct reference
	// is an instance of Instr.StructType.
	CheckCast

	// New allocates a struct instance of Instr.StructType.
	New
	// NewArray allocates a primitive-element array; the element count is
	// already on the stack. Instr.Type is the element type.
	NewArray
	// ANewArray allocates a struct/reference-element array; the element
	// count is already on the stack. Instr.StructType is the element type.
	ANewArray
	// ArrayLength reads the length of the array reference on the stack.
	ArrayLength

	// Control flow. Jmp/Jnz target Instr.Label, a basic-block index within
	// the owning function; Label marks a block's own entry point (written
	// by internal/emit, not by this package, and only for blocks that some
	// Jmp/Jnz targets).
	Jmp
	Jnz

	// Ret returns from the function. Instr.Type is InvalidTypeID for a
	// void return, otherwise the returned type.
	Ret

	// Invoke calls another function. Instr.Callee is resolved against the
	// callee's own import/export table entry by internal/emit.
	Invoke
)

// Instr is one instruction within a BasicBlock: a generic opcode plus
// whichever operand fields it uses. Unused fields are left at their zero
// value. Grounded on spec §3's Function IR data model: "a basic block is a
// label plus an ordered list of instructions, each instruction being
// (opcode_name, arguments)".
type Instr struct {
	Op Op

	Type   ast.TypeID // operand type driving typed-opcode resolution
	CastTo ast.TypeID // Cast's target type

	StructType ast.TypeID // struct type for GetField/SetField/New/ANewArray/CheckCast
	Field      string     // field name for GetField/SetField

	Slot int // local-slot index for Load/Store

	Label int // basic-block index target for Jmp/Jnz

	IntVal   int32
	FloatVal float32
	StrVal   string

	Callee       string
	CalleeSymbol ast.SymbolID
}

// BasicBlock is a label (its own index within the owning function) plus an
// ordered instruction list.
type BasicBlock struct {
	Label  int
	Instrs []Instr
}

func (b *BasicBlock) emit(i Instr) {
	b.Instrs = append(b.Instrs, i)
}

func (b *BasicBlock) endsWithRet() bool {
	if len(b.Instrs) == 0 {
		return false
	}
	return b.Instrs[len(b.Instrs)-1].Op == Ret
}

// LocalSlot describes one entry of a function's ordered local-slot table:
// parameters first, then locals in declaration order (spec §4.I).
type LocalSlot struct {
	Name string
	Type ast.TypeID
}

// Function is one defined function's generated IR.
type Function struct {
	Name       string
	SymbolID   ast.SymbolID
	ParamTypes []ast.TypeID
	ReturnType ast.TypeID
	Locals     []LocalSlot
	Blocks     []*BasicBlock

	// Native functions have no body: internal/emit suppresses bytecode
	// emission and instead records NativeLib into the export entry (spec
	// §4.I: "native on a function suppresses body emission and records the
	// library name into the export entry").
	Native    bool
	NativeLib string
}
