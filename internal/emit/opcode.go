// Package emit implements spec §4.J: lowering this module's codegen IR
// (internal/codegen) into the typed bytecode and module file format spec
// §6 defines. Where it resolves a generic (Op, operand-type) pair to a
// concrete typed mnemonic it follows original_source/src/compiler/
// emitter.cpp's dispatch (its emit_typed/emit_typed_one_arg/
// emit_typed_one_var_arg helper lambdas) exactly; where that source is
// itself an unfinished fragment (the struct-export and constant-export
// paths both end in a FIXME/TODO there) it instead follows spec §4.J/§6's
// documented rules directly, per spec §8's explicit instruction not to
// infer behavior from the unfinished fragments.
package emit

import "fmt"

// Opcode is a single typed bytecode mnemonic, written as one byte.
type Opcode byte

const (
	OpNop Opcode = iota

	OpIConst
	OpFConst
	OpSConst
	OpAConstNull

	OpILoad
	OpFLoad
	OpALoad
	OpIStore
	OpFStore
	OpAStore

	OpIALoad
	OpFALoad
	OpAALoad
	OpIAStore
	OpFAStore
	OpAAStore

	OpGetField
	OpSetField

	OpIDup
	OpFDup
	OpADup
	OpDupX1
	OpDupX2

	OpPop
	OpAPop

	OpIAdd
	OpFAdd
	OpISub
	OpFSub
	OpIMul
	OpFMul
	OpIDiv
	OpFDiv
	OpIMod

	OpIAnd
	OpIOr
	OpIXor
	OpIShl
	OpIShr

	OpICmpEq
	OpFCmpEq
	OpACmpEq
	OpICmpNe
	OpFCmpNe
	OpACmpNe
	OpICmpLt
	OpFCmpLt
	OpICmpLe
	OpFCmpLe
	OpICmpGt
	OpFCmpGt
	OpICmpGe
	OpFCmpGe

	OpI2F
	OpF2I
	OpCheckCast

	OpNew
	OpNewArray
	OpANewArray
	OpArrayLength

	OpLabel
	OpJmp
	OpJnz

	OpRet
	OpIRet
	OpFRet
	OpARet

	OpInvoke
)

var opcodeNames = [...]string{
	OpNop:        "nop",
	OpIConst:     "iconst",
	OpFConst:     "fconst",
	OpSConst:     "sconst",
	OpAConstNull: "aconst_null",
	OpILoad:      "iload",
	OpFLoad:      "fload",
	OpALoad:      "aload",
	OpIStore:     "istore",
	OpFStore:     "fstore",
	OpAStore:     "astore",
	OpIALoad:     "iaload",
	OpFALoad:     "faload",
	OpAALoad:     "aaload",
	OpIAStore:    "iastore",
	OpFAStore:    "fastore",
	OpAAStore:    "aastore",
	OpGetField:   "getfield",
	OpSetField:   "setfield",
	OpIDup:       "idup",
	OpFDup:       "fdup",
	OpADup:       "adup",
	OpDupX1:      "dup_x1",
	OpDupX2:      "dup_x2",
	OpPop:        "pop",
	OpAPop:       "apop",
	OpIAdd:       "iadd",
	OpFAdd:       "fadd",
	OpISub:       "isub",
	OpFSub:       "fsub",
	OpIMul:       "imul",
	OpFMul:       "fmul",
	OpIDiv:       "idiv",
	OpFDiv:       "fdiv",
	OpIMod:       "imod",
	OpIAnd:       "iand",
	OpIOr:        "ior",
	OpIXor:       "ixor",
	OpIShl:       "ishl",
	OpIShr:       "ishr",
	OpICmpEq:     "icmpeq",
	OpFCmpEq:     "fcmpeq",
	OpACmpEq:     "acmpeq",
	OpICmpNe:     "icmpne",
	OpFCmpNe:     "fcmpne",
	OpACmpNe:     "acmpne",
	OpICmpLt:     "icmpl",
	OpFCmpLt:     "fcmpl",
	OpICmpLe:     "icmple",
	OpFCmpLe:     "fcmple",
	OpICmpGt:     "icmpg",
	OpFCmpGt:     "fcmpg",
	OpICmpGe:     "icmpge",
	OpFCmpGe:     "fcmpge",
	OpI2F:        "i2f",
	OpF2I:        "f2i",
	OpCheckCast:  "checkcast",
	OpNew:        "new",
	OpNewArray:   "newarray",
	OpANewArray:  "anewarray",
	OpArrayLength: "arraylength",
	OpLabel:      "label",
	OpJmp:        "jmp",
	OpJnz:        "jnz",
	OpRet:        "ret",
	OpIRet:       "iret",
	OpFRet:       "fret",
	OpARet:       "aret",
	OpInvoke:     "invoke",
}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) && opcodeNames[o] != "" {
		return opcodeNames[o]
	}
	return fmt.Sprintf("opcode(%d)", byte(o))
}
