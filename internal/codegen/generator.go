package codegen

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/constant"
	"github.com/slang-lang/slang/internal/errkind"
	"github.com/slang-lang/slang/internal/sema"
	"github.com/slang-lang/slang/internal/types"
)

// Error is a code-generation diagnostic.
type Error struct {
	Kind errkind.Kind
	Loc  ast.SourceLoc
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: [%s] %s", e.Loc, e.Kind, e.Msg) }

func newError(kind errkind.Kind, loc ast.SourceLoc, format string, args ...any) *Error {
	return &Error{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// MemCtx is the flag threaded through code generation. It has two values:
// an expression node must leave its value on the stack (CtxLoad) or must
// not (CtxNone). There is no store value: assignment targets are lowered by
// genAssign, genCompoundAssign and genIncDec, each of which emits the store
// sequence for its target's shape itself.
type MemCtx uint8

const (
	CtxLoad MemCtx = iota
	CtxNone
)

// compoundBinaryOps maps a compound-assignment lexeme to the operator it
// reduces to, mirroring types.compoundBinaryOps (re-declared here rather
// than imported since that map is unexported — both are grounded on the
// same original_source classify_binary_op). It carries all ten of the
// type checker's entries, the shift forms <<= and >>= included.
var compoundBinaryOps = map[ast.BinaryOp]ast.BinaryOp{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"&=": "&", "|=": "|", "^=": "^", "<<=": "<<", ">>=": ">>",
}

// restrictedBinaryOps mirrors types.restrictedBinaryOps: operators that
// require both operands to already be i32.
var restrictedBinaryOps = map[ast.BinaryOp]bool{
	"%": true, "<<": true, ">>": true, "&": true, "^": true, "|": true, "&&": true, "||": true,
}

var orderComparisonOps = map[ast.BinaryOp]bool{
	"<": true, "<=": true, ">": true, ">=": true,
}

// binaryOpcodes maps every binary lexeme with a direct one-instruction
// lowering to its opcode. && and || are handled separately by genBinary
// (genLogical) since the constant evaluator's own evaluateBinary folds them
// as (a!=0) op (b!=0) rather than a raw bitwise op over arbitrary i32
// operands — non-constant && / || must reproduce that normalization.
var binaryOpcodes = map[ast.BinaryOp]Op{
	"+": Add, "-": Sub, "*": Mul, "/": Div, "%": Mod,
	"&": BitAnd, "|": BitOr, "^": BitXor, "<<": Shl, ">>": Shr,
	"<": CmpLt, "<=": CmpLe, ">": CmpGt, ">=": CmpGe, "==": CmpEq, "!=": CmpNe,
}

// Generator produces Function IR for every top-level function of a module.
type Generator struct {
	ctx  *types.Context
	senv *sema.Env
	cenv *constant.Env
}

func NewGenerator(ctx *types.Context, senv *sema.Env, cenv *constant.Env) *Generator {
	return &Generator{ctx: ctx, senv: senv, cenv: cenv}
}

// unwrapDirective strips any directive(...) wrapper(s) around a top-level
// declaration — mirrors internal/types' checker.checkTopLevel unwrap, since
// a directive never changes which declaration kind follows it.
func unwrapDirective(n ast.Node) ast.Node {
	for {
		d, ok := n.(*ast.Directive)
		if !ok {
			return n
		}
		n = d.Expr
	}
}

// GenerateModule generates IR for every *ast.Function directly under root,
// in declaration order.
func (g *Generator) GenerateModule(root *ast.Block) ([]*Function, error) {
	var fns []*Function
	for _, stmt := range root.Stmts {
		fn, ok := unwrapDirective(stmt).(*ast.Function)
		if !ok {
			continue
		}
		irFn, err := g.GenerateFunction(fn)
		if err != nil {
			return nil, err
		}
		fns = append(fns, irFn)
	}
	return fns, nil
}

// GenerateFunction lowers a single function declaration to IR.
func (g *Generator) GenerateFunction(fn *ast.Function) (*Function, error) {
	if !fn.Proto.SymbolID.IsValid() {
		return nil, newError(errkind.Internal, fn.Loc(), "function '%s' has no collected symbol", fn.Proto.Name)
	}
	fnTypeID, ok := g.ctx.Env.TypeOfSymbol(fn.Proto.SymbolID)
	if !ok {
		return nil, newError(errkind.Internal, fn.Loc(), "function '%s' has no declared type", fn.Proto.Name)
	}
	sig := g.ctx.Info(fnTypeID)

	out := &Function{
		Name:       fn.Proto.Name,
		SymbolID:   fn.Proto.SymbolID,
		ParamTypes: sig.Params,
		ReturnType: sig.Return,
	}

	if g.senv.HasAttribute(fn.Proto.SymbolID, sema.AttributeNative) {
		out.Native = true
		if payload, ok := g.senv.AttributePayloadFor(fn.Proto.SymbolID, sema.AttributeNative); ok {
			for _, kv := range payload {
				if kv.Key == "lib" {
					out.NativeLib = kv.Value
				}
			}
		}
		return out, nil
	}

	if fn.Body == nil {
		return nil, newError(errkind.Internal, fn.Loc(), "function '%s' has no body and is not marked native", fn.Proto.Name)
	}

	fg := &funcGen{gen: g, retType: sig.Return}
	for _, p := range fn.Proto.Params {
		if !p.SymbolID.IsValid() {
			continue
		}
		t, _ := g.ctx.Env.TypeOfSymbol(p.SymbolID)
		fg.addSlot(p.SymbolID, p.Name, t)
	}
	fg.assignLocalSlots(fn.Body)

	fg.cur = fg.newBlock()
	if err := fg.genBlockBody(fn.Body); err != nil {
		return nil, err
	}
	if err := fg.finish(); err != nil {
		return nil, err
	}

	out.Locals = fg.locals
	out.Blocks = fg.blocks
	return out, nil
}

// funcGen holds the per-function state threaded through lowering: the
// ordered local-slot table, the basic-block list under construction, and
// the break/continue target stack for nested loops.
type funcGen struct {
	gen     *Generator
	retType ast.TypeID

	slots  map[ast.SymbolID]int
	locals []LocalSlot

	blocks []*BasicBlock
	cur    *BasicBlock

	breakTargets    []int
	continueTargets []int
}

func (fg *funcGen) ctx() *types.Context  { return fg.gen.ctx }
func (fg *funcGen) cenv() *constant.Env  { return fg.gen.cenv }

func (fg *funcGen) addSlot(symbolID ast.SymbolID, name string, t ast.TypeID) {
	if fg.slots == nil {
		fg.slots = make(map[ast.SymbolID]int)
	}
	fg.slots[symbolID] = len(fg.locals)
	fg.locals = append(fg.locals, LocalSlot{Name: name, Type: t})
}

// assignLocalSlots walks body in declaration order and allocates a slot for
// every local *ast.VarDecl reachable from it — including ones nested inside
// a macro branch's expanded body, which ast.Visit's Children() traverses
// into via MacroInvocation.Expansion. Spec §4.I: "an ordered local-slot
// table (parameters first, then locals in declaration order)". Const
// declarations never get a slot: every reference to one is replaced by a
// direct `const` instruction (spec §4.G).
func (fg *funcGen) assignLocalSlots(body *ast.Block) {
	ast.Visit(body, ast.PreOrder, func(n ast.Node) bool {
		v, ok := n.(*ast.VarDecl)
		if !ok || !v.SymbolID.IsValid() {
			return true
		}
		t, _ := fg.ctx().Env.TypeOfSymbol(v.SymbolID)
		fg.addSlot(v.SymbolID, v.Name, t)
		return true
	})
}

func (fg *funcGen) newBlock() *BasicBlock {
	b := &BasicBlock{Label: len(fg.blocks)}
	fg.blocks = append(fg.blocks, b)
	return b
}

func (fg *funcGen) emit(i Instr) { fg.cur.emit(i) }

func (fg *funcGen) emitDup(t ast.TypeID)   { fg.emit(Instr{Op: Dup, Type: t}) }
func (fg *funcGen) emitDupX1()             { fg.emit(Instr{Op: DupX1}) }
func (fg *funcGen) emitDupX2()             { fg.emit(Instr{Op: DupX2}) }
func (fg *funcGen) emitPopIfUnused(t ast.TypeID, ctx MemCtx) {
	if ctx == CtxNone {
		voidID, _ := fg.ctx().GetBuiltin("void")
		if t.IsValid() && t != voidID {
			fg.emit(Instr{Op: Pop, Type: t})
		}
	}
}

func (fg *funcGen) internalf(loc ast.SourceLoc, format string, args ...any) error {
	return newError(errkind.Internal, loc, format, args...)
}

// finish appends the implicit `ret` spec §4.I's function-body epilogue rule
// requires of a void function whose last block falls off the end, and
// reports a missing-return error for every other function whose last block
// doesn't already end in one.
func (fg *funcGen) finish() error {
	// An if/else whose arms both return leaves an empty merge block
	// switched in as the current block (genIf always allocates one so
	// statements following the if have somewhere to attach); when no
	// statement follows, that block stays empty and unreferenced by any
	// jmp/jnz. Trim it (and any other trailing empty block left the same
	// way) before judging whether the function falls off without
	// returning, so this dead block isn't mistaken for a missing return.
	for len(fg.blocks) > 1 {
		last := fg.blocks[len(fg.blocks)-1]
		if len(last.Instrs) != 0 {
			break
		}
		fg.blocks = fg.blocks[:len(fg.blocks)-1]
	}

	if len(fg.blocks) == 0 {
		return nil
	}
	last := fg.blocks[len(fg.blocks)-1]
	if last.endsWithRet() {
		return nil
	}
	voidID, _ := fg.ctx().GetBuiltin("void")
	if fg.retType == voidID {
		last.emit(Instr{Op: Ret, Type: ast.InvalidTypeID})
		return nil
	}
	return newError(errkind.MissingReturn, ast.SourceLoc{}, "function falls off its last block without returning a value")
}

// genBlockBody generates every statement of a function body in sequence,
// each discarding its value (CtxNone) — a function body's statements are
// never themselves expression-valued the way a macro branch body can be.
func (fg *funcGen) genBlockBody(b *ast.Block) error {
	for _, stmt := range b.Stmts {
		if err := fg.genStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (fg *funcGen) genStmt(n ast.Node) error {
	switch node := n.(type) {
	case nil:
		return nil

	case *ast.Directive:
		return fg.genStmt(node.Expr)

	case *ast.Block:
		return fg.genBlockBody(node)

	case *ast.VarDecl:
		return fg.genVarDecl(node)

	case *ast.ConstDecl:
		// Every use site loads the folded value directly (spec §4.G); the
		// declaration itself emits nothing.
		return nil

	case *ast.Return:
		if node.Expr == nil {
			fg.emit(Instr{Op: Ret, Type: ast.InvalidTypeID})
			return nil
		}
		if err := fg.genExpr(node.Expr, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: Ret, Type: fg.retType})
		return nil

	case *ast.If:
		return fg.genIf(node)

	case *ast.While:
		return fg.genWhile(node)

	case *ast.Break:
		if len(fg.breakTargets) == 0 {
			return newError(errkind.BreakContinueOutsideLoop, node.Loc(), "'break' used outside a loop")
		}
		fg.emit(Instr{Op: Jmp, Label: fg.breakTargets[len(fg.breakTargets)-1]})
		return nil

	case *ast.Continue:
		if len(fg.continueTargets) == 0 {
			return newError(errkind.BreakContinueOutsideLoop, node.Loc(), "'continue' used outside a loop")
		}
		fg.emit(Instr{Op: Jmp, Label: fg.continueTargets[len(fg.continueTargets)-1]})
		return nil

	default:
		// Every remaining statement shape is an expression evaluated for
		// its side effect; any non-void result is unused.
		return fg.genExpr(n, CtxNone)
	}
}

func (fg *funcGen) genVarDecl(n *ast.VarDecl) error {
	if n.Expr == nil {
		return nil
	}
	if err := fg.genExpr(n.Expr, CtxLoad); err != nil {
		return err
	}
	slot, ok := fg.slots[n.SymbolID]
	if !ok {
		return fg.internalf(n.Loc(), "local '%s' has no assigned slot", n.Name)
	}
	t, _ := fg.ctx().Env.TypeOfSymbol(n.SymbolID)
	fg.emit(Instr{Op: Store, Slot: slot, Type: t})
	return nil
}

func (fg *funcGen) genIf(n *ast.If) error {
	thenBlock := fg.newBlock()
	elseBlock := fg.newBlock()
	mergeBlock := fg.newBlock()

	if err := fg.genExpr(n.Cond, CtxLoad); err != nil {
		return err
	}
	fg.emit(Instr{Op: Jnz, Label: thenBlock.Label})
	fg.emit(Instr{Op: Jmp, Label: elseBlock.Label})

	fg.cur = thenBlock
	if err := fg.genStmt(n.Then); err != nil {
		return err
	}
	if !fg.cur.endsWithRet() {
		fg.emit(Instr{Op: Jmp, Label: mergeBlock.Label})
	}

	fg.cur = elseBlock
	if n.Else != nil {
		if err := fg.genStmt(n.Else); err != nil {
			return err
		}
	}
	if !fg.cur.endsWithRet() {
		fg.emit(Instr{Op: Jmp, Label: mergeBlock.Label})
	}

	// The merge block is unreachable iff both arms end with a return (spec
	// §4.I); it is still allocated so later statements have somewhere to
	// attach, but nothing jumps into it in that case.
	fg.cur = mergeBlock
	return nil
}

func (fg *funcGen) genWhile(n *ast.While) error {
	header := fg.newBlock()
	body := fg.newBlock()
	exit := fg.newBlock()

	fg.emit(Instr{Op: Jmp, Label: header.Label})

	fg.cur = header
	if err := fg.genExpr(n.Cond, CtxLoad); err != nil {
		return err
	}
	fg.emit(Instr{Op: Jnz, Label: body.Label})
	fg.emit(Instr{Op: Jmp, Label: exit.Label})

	fg.breakTargets = append(fg.breakTargets, exit.Label)
	fg.continueTargets = append(fg.continueTargets, header.Label)

	fg.cur = body
	err := fg.genStmt(n.Body)

	fg.breakTargets = fg.breakTargets[:len(fg.breakTargets)-1]
	fg.continueTargets = fg.continueTargets[:len(fg.continueTargets)-1]

	if err != nil {
		return err
	}
	if !fg.cur.endsWithRet() {
		fg.emit(Instr{Op: Jmp, Label: header.Label})
	}

	fg.cur = exit
	return nil
}

// genExpr lowers an expression node. Every call first asks the constant
// evaluator whether the whole subtree folds to a literal (spec §4.G); since
// constant.Evaluate already honors a disable(const_eval) directive when
// deciding const-eligibility, this single check is sufficient for codegen to
// respect that directive without any attribute lookup of its own.
func (fg *funcGen) genExpr(n ast.Node, ctx MemCtx) error {
	if v, ok, err := constant.Evaluate(fg.cenv(), n); err != nil {
		return newError(errkind.Internal, n.Loc(), "constant evaluation failed: %v", err)
	} else if ok {
		if ctx == CtxLoad {
			fg.emitConstValue(v)
		}
		return nil
	}

	switch node := n.(type) {
	case *ast.NullLiteral:
		if ctx == CtxLoad {
			nullID, _ := fg.ctx().GetBuiltin("@null")
			fg.emit(Instr{Op: Const, Type: nullID})
		}
		return nil

	case *ast.VariableRef:
		return fg.genVariableRef(node, ctx)

	case *ast.Binary:
		return fg.genBinary(node, ctx)

	case *ast.Unary:
		return fg.genUnary(node, ctx)

	case *ast.Postfix:
		return fg.genPostfix(node, ctx)

	case *ast.Cast:
		return fg.genCast(node, ctx)

	case *ast.New:
		return fg.genNew(node, ctx)

	case *ast.Access:
		return fg.genAccessLoad(node, ctx)

	case *ast.NamespaceAccess:
		return fg.genExpr(node.Expr, ctx)

	case *ast.Subscript:
		return fg.genSubscriptLoad(node, ctx)

	case *ast.Call:
		return fg.genCall(node, ctx)

	case *ast.ArrayInit:
		return fg.genArrayInit(node, ctx)

	case *ast.NamedInitList:
		return fg.genNamedInitList(node, ctx)

	case *ast.AnonInitList:
		return fg.genAnonInitList(node, ctx)

	case *ast.MacroInvocation:
		return fg.genExpr(node.Expansion, ctx)

	case *ast.Block:
		return fg.genBlockExpr(node, ctx)

	default:
		return fg.internalf(n.Loc(), "codegen: unhandled expression node kind %v", n.Kind())
	}
}

func (fg *funcGen) emitConstValue(v constant.Info) {
	instr := Instr{Op: Const}
	switch v.Type {
	case constant.I32:
		id, _ := fg.ctx().GetBuiltin("i32")
		instr.Type = id
		instr.IntVal = v.Int()
	case constant.F32:
		id, _ := fg.ctx().GetBuiltin("f32")
		instr.Type = id
		instr.FloatVal = v.Float()
	case constant.Str:
		id, _ := fg.ctx().GetBuiltin("str")
		instr.Type = id
		instr.StrVal = v.String()
	}
	fg.emit(instr)
}

func (fg *funcGen) genVariableRef(node *ast.VariableRef, ctx MemCtx) error {
	if ctx != CtxLoad {
		return nil
	}
	slot, ok := fg.slots[node.SymbolID]
	if !ok {
		return fg.internalf(node.Loc(), "variable '%s' has no assigned slot", node.Name)
	}
	fg.emit(Instr{Op: Load, Slot: slot, Type: ast.TypeOf(node)})
	return nil
}

// genBinary implements spec §4.I's seven binary-operator cases: pure
// compute, assign-to-variable, assign-to-array-element, assign-to-struct-
// field, and their compound counterparts.
func (fg *funcGen) genBinary(node *ast.Binary, ctx MemCtx) error {
	if node.Op == "=" {
		return fg.genAssign(node.Lhs, node.Rhs, ctx)
	}
	if base, ok := compoundBinaryOps[node.Op]; ok {
		return fg.genCompoundAssign(node.Lhs, base, node.Rhs, ctx)
	}
	if node.Op == "&&" || node.Op == "||" {
		return fg.genLogical(node, ctx)
	}
	return fg.genPureBinary(node, ctx)
}

func (fg *funcGen) genPureBinary(node *ast.Binary, ctx MemCtx) error {
	op, ok := binaryOpcodes[node.Op]
	if !ok {
		return fg.internalf(node.Loc(), "codegen: unknown binary operator '%s'", node.Op)
	}
	if err := fg.genExpr(node.Lhs, CtxLoad); err != nil {
		return err
	}
	if err := fg.genExpr(node.Rhs, CtxLoad); err != nil {
		return err
	}
	fg.emit(Instr{Op: op, Type: ast.TypeOf(node.Lhs)})
	fg.emitPopIfUnused(ast.TypeOf(node), ctx)
	return nil
}

// genLogical lowers && / || by normalizing each i32 operand to 0/1 via
// CmpNe against zero before combining — the constant evaluator's own
// evaluateBinary folds these the same way (boolToI32), rather than treating
// any nonzero i32 as already boolean.
func (fg *funcGen) genLogical(node *ast.Binary, ctx MemCtx) error {
	i32ID, _ := fg.ctx().GetBuiltin("i32")
	if err := fg.genExpr(node.Lhs, CtxLoad); err != nil {
		return err
	}
	fg.emit(Instr{Op: Const, Type: i32ID, IntVal: 0})
	fg.emit(Instr{Op: CmpNe, Type: i32ID})
	if err := fg.genExpr(node.Rhs, CtxLoad); err != nil {
		return err
	}
	fg.emit(Instr{Op: Const, Type: i32ID, IntVal: 0})
	fg.emit(Instr{Op: CmpNe, Type: i32ID})
	if node.Op == "&&" {
		fg.emit(Instr{Op: BitAnd, Type: i32ID})
	} else {
		fg.emit(Instr{Op: BitOr, Type: i32ID})
	}
	fg.emitPopIfUnused(i32ID, ctx)
	return nil
}

// genAssign lowers plain `x = y`. A variable target evaluates y then
// (optionally) dups it before storing, so a chained `a = b = v` sees the
// value left behind for the outer assignment (spec §4.I). A struct-field or
// array-element target evaluates its receiver (and index) first, per spec's
// literal ordering, then dups the about-to-be-consumed value one (DupX1) or
// two (DupX2) slots down so it survives the Set/Store.
func (fg *funcGen) genAssign(lhs, rhs ast.Node, ctx MemCtx) error {
	switch target := lhs.(type) {
	case *ast.VariableRef:
		if err := fg.genExpr(rhs, CtxLoad); err != nil {
			return err
		}
		t := ast.TypeOf(target)
		if ctx == CtxLoad {
			fg.emitDup(t)
		}
		slot, ok := fg.slots[target.SymbolID]
		if !ok {
			return fg.internalf(target.Loc(), "variable '%s' has no assigned slot", target.Name)
		}
		fg.emit(Instr{Op: Store, Slot: slot, Type: t})
		return nil

	case *ast.Access:
		if err := fg.genExpr(target.Lhs, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(rhs, CtxLoad); err != nil {
			return err
		}
		if ctx == CtxLoad {
			fg.emitDupX1()
		}
		fg.emit(Instr{Op: SetField, StructType: target.LhsType, Field: target.Field})
		return nil

	case *ast.Subscript:
		if err := fg.genExpr(target.Receiver, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(target.Index, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(rhs, CtxLoad); err != nil {
			return err
		}
		if ctx == CtxLoad {
			fg.emitDupX2()
		}
		fg.emit(Instr{Op: StoreElement, Type: ast.TypeOf(lhs)})
		return nil

	default:
		return fg.internalf(lhs.Loc(), "codegen: invalid assignment target %v", lhs.Kind())
	}
}

// genCompoundAssign lowers `x ∘= y` as spec §4.I literally describes:
// evaluate x, evaluate y, compute, store to x. A variable target's single
// receiver-free slot makes this trivial. A struct-field target's single
// receiver value is duplicated (Dup/DupX1) rather than re-evaluated, since
// Dup can't duplicate the wrong thing here — there's only one value to
// reuse. An array-element target needs its (receiver, index) *pair* kept
// live across the read and the write; this IR has no opcode that
// duplicates a pair (only single-value Dup/DupX1/DupX2), so the receiver
// and index are each evaluated a second time for the write half, accepting
// duplicated side effects in that one case — documented as a trade-off in
// DESIGN.md.
func (fg *funcGen) genCompoundAssign(lhs ast.Node, base ast.BinaryOp, rhs ast.Node, ctx MemCtx) error {
	op, ok := binaryOpcodes[base]
	if !ok {
		return fg.internalf(lhs.Loc(), "codegen: unknown compound-assignment base operator '%s'", base)
	}

	switch target := lhs.(type) {
	case *ast.VariableRef:
		slot, ok := fg.slots[target.SymbolID]
		if !ok {
			return fg.internalf(target.Loc(), "variable '%s' has no assigned slot", target.Name)
		}
		t := ast.TypeOf(target)
		fg.emit(Instr{Op: Load, Slot: slot, Type: t})
		if err := fg.genExpr(rhs, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: op, Type: t})
		if ctx == CtxLoad {
			fg.emitDup(t)
		}
		fg.emit(Instr{Op: Store, Slot: slot, Type: t})
		return nil

	case *ast.Access:
		fieldT := ast.TypeOf(target)
		if err := fg.genExpr(target.Lhs, CtxLoad); err != nil {
			return err
		}
		fg.emitDup(target.LhsType)
		fg.emit(Instr{Op: GetField, StructType: target.LhsType, Field: target.Field, Type: fieldT})
		if err := fg.genExpr(rhs, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: op, Type: fieldT})
		if ctx == CtxLoad {
			fg.emitDupX1()
		}
		fg.emit(Instr{Op: SetField, StructType: target.LhsType, Field: target.Field})
		return nil

	case *ast.Subscript:
		elemT := ast.TypeOf(target)
		// Write-half (receiver, index) pushed first so they sit beneath
		// everything the read half and the compute step produce.
		if err := fg.genExpr(target.Receiver, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(target.Index, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(target.Receiver, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(target.Index, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: LoadElement, Type: elemT})
		if err := fg.genExpr(rhs, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: op, Type: elemT})
		if ctx == CtxLoad {
			fg.emitDupX2()
		}
		fg.emit(Instr{Op: StoreElement, Type: elemT})
		return nil

	default:
		return fg.internalf(lhs.Loc(), "codegen: invalid compound-assignment target %v", lhs.Kind())
	}
}

func (fg *funcGen) genUnary(node *ast.Unary, ctx MemCtx) error {
	switch node.Op {
	case "++":
		return fg.genIncDec(node.Operand, true, true, ctx)
	case "--":
		return fg.genIncDec(node.Operand, false, true, ctx)

	case "+":
		return fg.genExpr(node.Operand, ctx)

	case "-":
		t := ast.TypeOf(node)
		fg.emit(fg.zeroOf(t))
		if err := fg.genExpr(node.Operand, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: Sub, Type: t})
		fg.emitPopIfUnused(t, ctx)
		return nil

	case "!":
		i32ID, _ := fg.ctx().GetBuiltin("i32")
		if err := fg.genExpr(node.Operand, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: Const, Type: i32ID, IntVal: 0})
		fg.emit(Instr{Op: CmpEq, Type: i32ID})
		fg.emitPopIfUnused(i32ID, ctx)
		return nil

	case "~":
		i32ID, _ := fg.ctx().GetBuiltin("i32")
		if err := fg.genExpr(node.Operand, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: Const, Type: i32ID, IntVal: -1})
		fg.emit(Instr{Op: BitXor, Type: i32ID})
		fg.emitPopIfUnused(i32ID, ctx)
		return nil

	default:
		return fg.internalf(node.Loc(), "codegen: unknown unary operator '%s'", node.Op)
	}
}

func (fg *funcGen) genPostfix(node *ast.Postfix, ctx MemCtx) error {
	switch node.Op {
	case "++":
		return fg.genIncDec(node.Operand, true, false, ctx)
	case "--":
		return fg.genIncDec(node.Operand, false, false, ctx)
	default:
		return fg.internalf(node.Loc(), "codegen: unknown postfix operator '%s'", node.Op)
	}
}

func (fg *funcGen) zeroOf(t ast.TypeID) Instr {
	i32ID, _ := fg.ctx().GetBuiltin("i32")
	if t == i32ID {
		return Instr{Op: Const, Type: t, IntVal: 0}
	}
	return Instr{Op: Const, Type: t, FloatVal: 0}
}

func (fg *funcGen) oneOf(t ast.TypeID) Instr {
	i32ID, _ := fg.ctx().GetBuiltin("i32")
	if t == i32ID {
		return Instr{Op: Const, Type: t, IntVal: 1}
	}
	return Instr{Op: Const, Type: t, FloatVal: 1}
}

// genIncDec lowers prefix/postfix ++/--. Prefix leaves the new value on the
// stack; postfix dups first and leaves the old value (spec §4.I). For a
// struct-field target the single receiver value is duplicated with
// Dup/DupX1; for an array-element target the (receiver, index) pair is
// evaluated twice for the same reason genCompoundAssign's Subscript case
// does.
func (fg *funcGen) genIncDec(operand ast.Node, isInc, isPrefix bool, ctx MemCtx) error {
	t := ast.TypeOf(operand)
	op := Add
	if !isInc {
		op = Sub
	}

	switch target := operand.(type) {
	case *ast.VariableRef:
		slot, ok := fg.slots[target.SymbolID]
		if !ok {
			return fg.internalf(target.Loc(), "variable '%s' has no assigned slot", target.Name)
		}
		fg.emit(Instr{Op: Load, Slot: slot, Type: t})
		if !isPrefix && ctx == CtxLoad {
			fg.emitDup(t)
		}
		fg.emit(fg.oneOf(t))
		fg.emit(Instr{Op: op, Type: t})
		if isPrefix && ctx == CtxLoad {
			fg.emitDup(t)
		}
		fg.emit(Instr{Op: Store, Slot: slot, Type: t})
		return nil

	case *ast.Access:
		if err := fg.genExpr(target.Lhs, CtxLoad); err != nil {
			return err
		}
		fg.emitDup(target.LhsType)
		fg.emit(Instr{Op: GetField, StructType: target.LhsType, Field: target.Field, Type: t})
		if !isPrefix && ctx == CtxLoad {
			fg.emitDupX1()
		}
		fg.emit(fg.oneOf(t))
		fg.emit(Instr{Op: op, Type: t})
		if isPrefix && ctx == CtxLoad {
			fg.emitDupX1()
		}
		fg.emit(Instr{Op: SetField, StructType: target.LhsType, Field: target.Field})
		return nil

	case *ast.Subscript:
		if err := fg.genExpr(target.Receiver, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(target.Index, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(target.Receiver, CtxLoad); err != nil {
			return err
		}
		if err := fg.genExpr(target.Index, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: LoadElement, Type: t})
		if !isPrefix && ctx == CtxLoad {
			fg.emitDupX2()
		}
		fg.emit(fg.oneOf(t))
		fg.emit(Instr{Op: op, Type: t})
		if isPrefix && ctx == CtxLoad {
			fg.emitDupX2()
		}
		fg.emit(Instr{Op: StoreElement, Type: t})
		return nil

	default:
		return fg.internalf(operand.Loc(), "codegen: invalid increment/decrement target %v", operand.Kind())
	}
}

func (fg *funcGen) genCast(node *ast.Cast, ctx MemCtx) error {
	if err := fg.genExpr(node.Expr, CtxLoad); err != nil {
		return err
	}
	srcT := ast.TypeOf(node.Expr)
	dstT := ast.TypeOf(node)
	srcInfo := fg.ctx().Info(srcT)
	dstInfo := fg.ctx().Info(dstT)
	if srcInfo.Class == types.ClassStruct || dstInfo.Class == types.ClassStruct {
		fg.emit(Instr{Op: CheckCast, StructType: dstT})
	} else if srcT != dstT {
		fg.emit(Instr{Op: Cast, Type: srcT, CastTo: dstT})
	}
	fg.emitPopIfUnused(dstT, ctx)
	return nil
}

// isPrimitiveScalar reports whether id is i32 or f32 — the only element
// types spec §4.I's New-array rule allocates with newarray; every other
// element type (struct, array, str) is reference-typed and uses anewarray.
func (fg *funcGen) isPrimitiveScalar(id ast.TypeID) bool {
	i32ID, _ := fg.ctx().GetBuiltin("i32")
	f32ID, _ := fg.ctx().GetBuiltin("f32")
	return id == i32ID || id == f32ID
}

func (fg *funcGen) genNew(node *ast.New, ctx MemCtx) error {
	t := ast.TypeOf(node)
	if node.Len == nil {
		fg.emit(Instr{Op: New, StructType: t})
		fg.emitPopIfUnused(t, ctx)
		return nil
	}

	if err := fg.genExpr(node.Len, CtxLoad); err != nil {
		return err
	}
	elemT := fg.ctx().Info(t).Elem
	if fg.isPrimitiveScalar(elemT) {
		fg.emit(Instr{Op: NewArray, Type: elemT})
	} else {
		fg.emit(Instr{Op: ANewArray, StructType: elemT})
	}
	fg.emitPopIfUnused(t, ctx)
	return nil
}

func (fg *funcGen) genAccessLoad(node *ast.Access, ctx MemCtx) error {
	if err := fg.genExpr(node.Lhs, CtxLoad); err != nil {
		return err
	}
	resultT := ast.TypeOf(node)
	if fg.ctx().Info(node.LhsType).Class == types.ClassArray {
		fg.emit(Instr{Op: ArrayLength, Type: resultT})
	} else {
		fg.emit(Instr{Op: GetField, StructType: node.LhsType, Field: node.Field, Type: resultT})
	}
	fg.emitPopIfUnused(resultT, ctx)
	return nil
}

func (fg *funcGen) genSubscriptLoad(node *ast.Subscript, ctx MemCtx) error {
	if err := fg.genExpr(node.Receiver, CtxLoad); err != nil {
		return err
	}
	if err := fg.genExpr(node.Index, CtxLoad); err != nil {
		return err
	}
	resultT := ast.TypeOf(node)
	fg.emit(Instr{Op: LoadElement, Type: resultT})
	fg.emitPopIfUnused(resultT, ctx)
	return nil
}

func (fg *funcGen) genCall(node *ast.Call, ctx MemCtx) error {
	for _, a := range node.Args {
		if err := fg.genExpr(a, CtxLoad); err != nil {
			return err
		}
	}
	fg.emit(Instr{Op: Invoke, Callee: node.Callee, CalleeSymbol: node.SymbolID, Type: node.ReturnType})
	fg.emitPopIfUnused(node.ReturnType, ctx)
	return nil
}

// genArrayInit lowers an array literal per spec §4.I's New-array and
// Struct-initializer rules combined: push the element count, newarray/
// anewarray, then per element dup the array reference, push the index,
// evaluate the element, store_element.
func (fg *funcGen) genArrayInit(node *ast.ArrayInit, ctx MemCtx) error {
	arrT := ast.TypeOf(node)
	elemT := fg.ctx().Info(arrT).Elem
	i32ID, _ := fg.ctx().GetBuiltin("i32")

	fg.emit(Instr{Op: Const, Type: i32ID, IntVal: int32(len(node.Elems))})
	if fg.isPrimitiveScalar(elemT) {
		fg.emit(Instr{Op: NewArray, Type: elemT})
	} else {
		fg.emit(Instr{Op: ANewArray, StructType: elemT})
	}

	for i, e := range node.Elems {
		fg.emitDup(arrT)
		fg.emit(Instr{Op: Const, Type: i32ID, IntVal: int32(i)})
		if err := fg.genExpr(e, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: StoreElement, Type: elemT})
	}
	fg.emitPopIfUnused(arrT, ctx)
	return nil
}

// genNamedInitList and genAnonInitList both lower to spec §4.I's struct-
// initializer rule: `new <type>`, then per field (in declared order): dup,
// evaluate initializer, set_field. Declared order is used rather than
// source order so a NamedInitList's fields are written in the same order an
// AnonInitList's positional fields would be.
func (fg *funcGen) genNamedInitList(node *ast.NamedInitList, ctx MemCtx) error {
	t := ast.TypeOf(node)
	structInfo, ok := fg.ctx().GetStructDefinition(t)
	if !ok {
		return fg.internalf(node.Loc(), "codegen: '%s' is not a struct type", node.StructName)
	}
	byName := make(map[string]ast.Node, len(node.Inits))
	for _, in := range node.Inits {
		byName[in.Name] = in.Expr
	}

	fg.emit(Instr{Op: New, StructType: t})
	for _, field := range structInfo.Fields {
		expr, ok := byName[field.Name]
		if !ok {
			return fg.internalf(node.Loc(), "codegen: struct '%s' field '%s' was never initialized", node.StructName, field.Name)
		}
		fg.emitDup(t)
		if err := fg.genExpr(expr, CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: SetField, StructType: t, Field: field.Name})
	}
	fg.emitPopIfUnused(t, ctx)
	return nil
}

func (fg *funcGen) genAnonInitList(node *ast.AnonInitList, ctx MemCtx) error {
	t := ast.TypeOf(node)
	structInfo, ok := fg.ctx().GetStructDefinition(t)
	if !ok {
		return fg.internalf(node.Loc(), "codegen: '%s' is not a struct type", node.StructName)
	}

	fg.emit(Instr{Op: New, StructType: t})
	for i, field := range structInfo.Fields {
		fg.emitDup(t)
		if err := fg.genExpr(node.Elems[i], CtxLoad); err != nil {
			return err
		}
		fg.emit(Instr{Op: SetField, StructType: t, Field: field.Name})
	}
	fg.emitPopIfUnused(t, ctx)
	return nil
}

// genBlockExpr lowers a macro branch body spliced into expression position
// (the original invocation's Expansion), mirroring checkBlockExpr: every
// statement but the last runs for effect, and the last contributes the
// block's value unless it's one of the statement-only shapes, in which case
// the block is void.
func (fg *funcGen) genBlockExpr(node *ast.Block, ctx MemCtx) error {
	if len(node.Stmts) == 0 {
		return nil
	}
	for _, s := range node.Stmts[:len(node.Stmts)-1] {
		if err := fg.genStmt(s); err != nil {
			return err
		}
	}
	last := node.Stmts[len(node.Stmts)-1]
	switch last.(type) {
	case *ast.VarDecl, *ast.ConstDecl, *ast.Return, *ast.If, *ast.While,
		*ast.Break, *ast.Continue, *ast.Directive, *ast.Block:
		return fg.genStmt(last)
	default:
		return fg.genExpr(last, ctx)
	}
}
