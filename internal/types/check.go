package types

import (
	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
	"github.com/slang-lang/slang/internal/sema"
)

// primitiveCasts is the fixed compile-time cast matrix (spec §4.F):
// i32<->f32 is allowed, nothing casts to or from str. Grounded on
// original_source/src/compiler/ast/ast.cpp's type_cast_expression::type_check.
var primitiveCasts = map[string]map[string]bool{
	"i32": {"i32": true, "f32": true},
	"f32": {"i32": true, "f32": true},
	"str": {},
}

// compoundBinaryOps maps a compound-assignment lexeme to the arithmetic or
// restricted operator it reduces to, mirroring original_source's
// classify_binary_op (it strips the trailing '=' from every assignment
// lexeme except plain "=" itself).
var compoundBinaryOps = map[ast.BinaryOp]ast.BinaryOp{
	"+=":  "+",
	"-=":  "-",
	"*=":  "*",
	"/=":  "/",
	"%=":  "%",
	"&=":  "&",
	"|=":  "|",
	"^=":  "^",
	"<<=": "<<",
	">>=": ">>",
}

var restrictedBinaryOps = map[ast.BinaryOp]bool{
	"%": true, "<<": true, ">>": true, "&": true, "^": true, "|": true, "&&": true, "||": true,
}

var orderComparisonOps = map[ast.BinaryOp]bool{
	"<": true, "<=": true, ">": true, ">=": true,
}

// CheckModule runs the bottom-up type-checking walk (spec §4.F) over every
// top-level statement of root. Must run after DeclareTypes, DefineTypes and
// DeclareFunctions have populated the type arena and bound every struct's
// and function's own type.
//
// A *ast.MacroInvocation that has not yet been expanded (Expansion == nil)
// is skipped rather than treated as an error: per spec §4's phase order,
// type-checking runs before macro expansion, and expansion "may feed back
// to D, then E-G" — the driving compiler (internal/compiler) re-runs the
// type phases, CheckModule included, once after an expansion pass that
// changed the tree, by which point every invocation site has either been
// replaced by its expansion or been reported as a macro-resolution error
// by internal/macro.
func CheckModule(ctx *Context, root *ast.Block) error {
	c := &checker{ctx: ctx}
	for _, stmt := range root.Stmts {
		if err := c.checkTopLevel(stmt); err != nil {
			return err
		}
	}
	return nil
}

type checker struct {
	ctx *Context

	// currentReturn is the declared return type of the function body
	// currently being checked; InvalidTypeID outside any function.
	currentReturn ast.TypeID
}

func (c *checker) checkTopLevel(n ast.Node) error {
	switch node := n.(type) {
	case *ast.Directive:
		return c.checkTopLevel(node.Expr)
	case *ast.Import:
		return nil
	case *ast.StructDef:
		// Fields were already resolved by DefineTypes; nothing left to
		// bottom-up check on the declaration itself.
		return nil
	case *ast.MacroDef:
		// Branch bodies are checked in the context of their expansion
		// site, never as free-standing code (spec §4.H).
		return nil
	case *ast.Function:
		return c.checkFunction(node)
	default:
		return c.checkStmt(n)
	}
}

func (c *checker) checkFunction(fn *ast.Function) error {
	if fn.Body == nil {
		return nil
	}
	ret, ok := c.ctx.Env.TypeOfSymbol(fn.Proto.SymbolID)
	if !ok {
		return newError(errkind.Internal, fn.Loc(), "function '%s' has no declared type", fn.Proto.Name)
	}
	info := c.ctx.Info(ret)
	prevReturn := c.currentReturn
	c.currentReturn = info.Return
	defer func() { c.currentReturn = prevReturn }()

	for _, stmt := range fn.Body.Stmts {
		if err := c.checkStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

// checkStmt type-checks a statement-position node: it may contain
// expressions to check but never itself yields a usable value.
func (c *checker) checkStmt(n ast.Node) error {
	switch node := n.(type) {
	case nil:
		return nil

	case *ast.Directive:
		return c.checkStmt(node.Expr)

	case *ast.Block:
		for _, stmt := range node.Stmts {
			if err := c.checkStmt(stmt); err != nil {
				return err
			}
		}
		return nil

	case *ast.VarDecl:
		return c.checkVarOrConstDecl(node, node.Type, node.Expr, node.SymbolID)

	case *ast.ConstDecl:
		return c.checkVarOrConstDecl(node, node.Type, node.Expr, node.SymbolID)

	case *ast.Return:
		if node.Expr == nil {
			return nil
		}
		t, err := c.checkExpr(node.Expr)
		if err != nil {
			return err
		}
		if c.currentReturn.IsValid() && !c.ctx.assignableTo(c.currentReturn, t) {
			return newError(errkind.TypeMismatch, node.Loc(), "return type '%s' does not match declared return type '%s'",
				c.ctx.Info(t).Name, c.ctx.Info(c.currentReturn).Name)
		}
		return nil

	case *ast.If:
		if _, err := c.checkExpr(node.Cond); err != nil {
			return err
		}
		if err := c.checkStmt(node.Then); err != nil {
			return err
		}
		return c.checkStmt(node.Else)

	case *ast.While:
		if _, err := c.checkExpr(node.Cond); err != nil {
			return err
		}
		return c.checkStmt(node.Body)

	case *ast.Break, *ast.Continue:
		return nil

	default:
		// Every remaining statement shape is an expression used for its
		// side effect (a call, an assignment, a postfix increment, ...).
		_, err := c.checkExpr(n)
		return err
	}
}

// checkBlockExpr type-checks a block used in expression position (a macro
// branch body): every statement but the last is checked the ordinary
// statement way, and the block's type is the last statement's type when
// that statement is itself expression-shaped, or void when it is one of
// the statement-only shapes (a declaration or control-flow construct).
func (c *checker) checkBlockExpr(block *ast.Block) (ast.TypeID, error) {
	if len(block.Stmts) == 0 {
		id, _ := c.ctx.GetBuiltin("void")
		return id, nil
	}

	for _, stmt := range block.Stmts[:len(block.Stmts)-1] {
		if err := c.checkStmt(stmt); err != nil {
			return ast.InvalidTypeID, err
		}
	}

	last := block.Stmts[len(block.Stmts)-1]
	switch last.(type) {
	case *ast.VarDecl, *ast.ConstDecl, *ast.Return, *ast.If, *ast.While,
		*ast.Break, *ast.Continue, *ast.Directive, *ast.Block:
		if err := c.checkStmt(last); err != nil {
			return ast.InvalidTypeID, err
		}
		id, _ := c.ctx.GetBuiltin("void")
		return id, nil
	default:
		return c.checkExpr(last)
	}
}

func (c *checker) checkVarOrConstDecl(n ast.Node, typeExpr *ast.TypeExpr, init ast.Node, symbolID ast.SymbolID) error {
	declType, err := c.ctx.ResolveTypeExpr(typeExpr, ast.ScopeOf(n))
	if err != nil {
		return err
	}
	if symbolID.IsValid() {
		c.ctx.Env.BindType(symbolID, declType)
	}

	if init == nil {
		return nil
	}
	initType, err := c.checkExpr(init)
	if err != nil {
		return err
	}
	if !c.ctx.assignableTo(declType, initType) {
		return newError(errkind.TypeMismatch, n.Loc(), "declared type '%s' does not match initializer type '%s'",
			c.ctx.Info(declType).Name, c.ctx.Info(initType).Name)
	}
	// A declaration is a statement, not a value-producing expression
	// (original_source's variable/constant_declaration_expression::
	// type_check returns std::nullopt) — no SetTypeOf call here.
	return nil
}

// checkExpr type-checks n, records the computed type id on the node via
// ast.SetTypeOf, and returns it.
func (c *checker) checkExpr(n ast.Node) (ast.TypeID, error) {
	switch node := n.(type) {
	case *ast.Literal:
		var id ast.TypeID
		switch node.LitKind {
		case ast.LiteralInt:
			id, _ = c.ctx.GetBuiltin("i32")
		case ast.LiteralFloat:
			id, _ = c.ctx.GetBuiltin("f32")
		default:
			id, _ = c.ctx.GetBuiltin("str")
		}
		ast.SetTypeOf(node, id)
		return id, nil

	case *ast.NullLiteral:
		id, _ := c.ctx.GetBuiltin("@null")
		ast.SetTypeOf(node, id)
		return id, nil

	case *ast.VariableRef:
		return c.checkVariableRef(node)

	case *ast.Binary:
		return c.checkBinary(node)

	case *ast.Unary:
		return c.checkUnary(node)

	case *ast.Postfix:
		return c.checkPostfix(node)

	case *ast.Cast:
		return c.checkCast(node)

	case *ast.New:
		return c.checkNew(node)

	case *ast.Access:
		return c.checkAccess(node)

	case *ast.NamespaceAccess:
		t, err := c.checkExpr(node.Expr)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		ast.SetTypeOf(node, t)
		return t, nil

	case *ast.Subscript:
		return c.checkSubscript(node)

	case *ast.Call:
		return c.checkCall(node)

	case *ast.ArrayInit:
		return c.checkArrayInit(node)

	case *ast.NamedInitList:
		return c.checkNamedInitList(node)

	case *ast.AnonInitList:
		return c.checkAnonInitList(node)

	case *ast.MacroInvocation:
		if !node.HasExpansion() {
			return ast.InvalidTypeID, nil
		}
		t, err := c.checkExpr(node.Expansion)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		ast.SetTypeOf(node, t)
		return t, nil

	case *ast.Block:
		// A macro branch's body is the only place a Block is checked in
		// expression position (internal/macro substitutes it directly as
		// a MacroInvocation's Expansion): spec §4.H lets a branch body
		// declare local variables ahead of its result, so the block's
		// value is that of its last statement when that statement is
		// itself an expression, and void otherwise.
		t, err := c.checkBlockExpr(node)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		ast.SetTypeOf(node, t)
		return t, nil

	default:
		return ast.InvalidTypeID, newError(errkind.Internal, n.Loc(), "type checker: unhandled node kind '%s'", n.Kind())
	}
}

func (c *checker) checkVariableRef(node *ast.VariableRef) (ast.TypeID, error) {
	if !node.SymbolID.IsValid() {
		return ast.InvalidTypeID, newError(errkind.Internal, node.Loc(), "variable reference '%s' was never resolved", node.Name)
	}
	t, ok := c.ctx.Env.TypeOfSymbol(node.SymbolID)
	if !ok {
		return ast.InvalidTypeID, newError(errkind.Internal, node.Loc(), "identifier '%s' has no type", node.Name)
	}
	ast.SetTypeOf(node, t)
	return t, nil
}

func (c *checker) checkBinary(node *ast.Binary) (ast.TypeID, error) {
	lhsT, err := c.checkExpr(node.Lhs)
	if err != nil {
		return ast.InvalidTypeID, err
	}
	rhsT, err := c.checkExpr(node.Rhs)
	if err != nil {
		return ast.InvalidTypeID, err
	}

	var result ast.TypeID

	switch {
	case node.Op == "=":
		if err := c.requireStorageLocation(node.Lhs); err != nil {
			return ast.InvalidTypeID, err
		}
		if !c.ctx.assignableTo(lhsT, rhsT) {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
				"types don't match in assignment: got '%s' = '%s'", c.ctx.Info(lhsT).Name, c.ctx.Info(rhsT).Name)
		}
		result = lhsT

	case node.Op == "==" || node.Op == "!=":
		if !c.ctx.equatable(lhsT, rhsT) {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
				"types don't match in comparison: got '%s' %s '%s'", c.ctx.Info(lhsT).Name, node.Op, c.ctx.Info(rhsT).Name)
		}
		result, _ = c.ctx.GetBuiltin("i32")

	default:
		base := node.Op
		compound := false
		if reduced, ok := compoundBinaryOps[node.Op]; ok {
			base, compound = reduced, true
		}
		if compound {
			if err := c.requireStorageLocation(node.Lhs); err != nil {
				return ast.InvalidTypeID, err
			}
		}

		switch {
		case restrictedBinaryOps[base]:
			i32ID, _ := c.ctx.GetBuiltin("i32")
			if lhsT != i32ID || rhsT != i32ID {
				return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
					"got binary expression of type '%s' %s '%s', expected 'i32' %s 'i32'",
					c.ctx.Info(lhsT).Name, base, c.ctx.Info(rhsT).Name, base)
			}
			result = i32ID

		case orderComparisonOps[base]:
			if err := c.requireNumericOperands(node.Loc(), base, lhsT, rhsT); err != nil {
				return ast.InvalidTypeID, err
			}
			result, _ = c.ctx.GetBuiltin("i32")

		default: // arithmetic: + - * /
			if err := c.requireNumericOperands(node.Loc(), base, lhsT, rhsT); err != nil {
				return ast.InvalidTypeID, err
			}
			result = lhsT
		}
	}

	ast.SetTypeOf(node, result)
	return result, nil
}

func (c *checker) requireNumericOperands(loc ast.SourceLoc, op ast.BinaryOp, lhsT, rhsT ast.TypeID) error {
	if !c.ctx.isNumeric(lhsT) {
		return newError(errkind.TypeMismatch, loc, "expected 'i32' or 'f32' for l.h.s. of binary operation '%s', got '%s'", op, c.ctx.Info(lhsT).Name)
	}
	if !c.ctx.isNumeric(rhsT) {
		return newError(errkind.TypeMismatch, loc, "expected 'i32' or 'f32' for r.h.s. of binary operation '%s', got '%s'", op, c.ctx.Info(rhsT).Name)
	}
	if lhsT != rhsT {
		return newError(errkind.TypeMismatch, loc, "types don't match in binary expression: got '%s' %s '%s'", c.ctx.Info(lhsT).Name, op, c.ctx.Info(rhsT).Name)
	}
	return nil
}

// requireStorageLocation reports an error unless n denotes an assignable
// location: a variable reference, a struct member access, or an array
// element (spec §4.F: compound assignment's "x must denote a storage
// location").
func (c *checker) requireStorageLocation(n ast.Node) error {
	switch n.(type) {
	case *ast.VariableRef, *ast.Access, *ast.Subscript:
		return nil
	default:
		return newError(errkind.TypeMismatch, n.Loc(), "l.h.s. of assignment is not a storage location")
	}
}

var unaryOperandTypes = map[ast.UnaryOp][]string{
	"++": {"i32", "f32"},
	"--": {"i32", "f32"},
	"+":  {"i32", "f32"},
	"-":  {"i32", "f32"},
	"!":  {"i32"},
	"~":  {"i32"},
}

func (c *checker) checkUnary(node *ast.Unary) (ast.TypeID, error) {
	operandT, err := c.checkExpr(node.Operand)
	if err != nil {
		return ast.InvalidTypeID, err
	}

	allowed, ok := unaryOperandTypes[node.Op]
	if !ok {
		return ast.InvalidTypeID, newError(errkind.Internal, node.Loc(), "unknown unary operator '%s'", node.Op)
	}
	name := c.ctx.Info(operandT).Name
	if !containsName(allowed, name) {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "invalid operand type '%s' for unary operator '%s'", name, node.Op)
	}

	ast.SetTypeOf(node, operandT)
	return operandT, nil
}

func (c *checker) checkPostfix(node *ast.Postfix) (ast.TypeID, error) {
	operandT, err := c.checkExpr(node.Operand)
	if err != nil {
		return ast.InvalidTypeID, err
	}
	if !c.ctx.isNumeric(operandT) {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
			"postfix operator '%s' can only operate on 'i32' or 'f32' (found '%s')", node.Op, c.ctx.Info(operandT).Name)
	}
	ast.SetTypeOf(node, operandT)
	return operandT, nil
}

func (c *checker) checkCast(node *ast.Cast) (ast.TypeID, error) {
	srcT, err := c.checkExpr(node.Expr)
	if err != nil {
		return ast.InvalidTypeID, err
	}
	targetT, err := c.ctx.ResolveTypeExpr(node.Target, ast.ScopeOf(node))
	if err != nil {
		return ast.InvalidTypeID, err
	}

	srcInfo := c.ctx.Info(srcT)
	if allowedTargets, isPrimitive := primitiveCasts[srcInfo.Name]; isPrimitive {
		if !allowedTargets[c.ctx.Info(targetT).Name] {
			return ast.InvalidTypeID, newError(errkind.InvalidCast, node.Loc(), "invalid cast from '%s' to '%s'", srcInfo.Name, c.ctx.Info(targetT).Name)
		}
	} else if srcInfo.Class != ClassStruct {
		return ast.InvalidTypeID, newError(errkind.InvalidCast, node.Loc(), "cannot cast value of type '%s'", srcInfo.Name)
	}
	// Struct-to-struct casts are deferred to a runtime checkcast (spec
	// §4.F); nothing further to validate at compile time.

	ast.SetTypeOf(node, targetT)
	return targetT, nil
}

func (c *checker) checkNew(node *ast.New) (ast.TypeID, error) {
	elemT, err := c.ctx.ResolveTypeExpr(node.Type, ast.ScopeOf(node))
	if err != nil {
		return ast.InvalidTypeID, err
	}

	if node.Len == nil {
		if c.ctx.Info(elemT).Class != ClassStruct {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "'new' without a size allocates a struct, got '%s'", c.ctx.Info(elemT).Name)
		}
		ast.SetTypeOf(node, elemT)
		return elemT, nil
	}

	if voidID, ok := c.ctx.GetBuiltin("void"); ok && elemT == voidID {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "cannot create an array with entries of type 'void'")
	}

	lenT, err := c.checkExpr(node.Len)
	if err != nil {
		return ast.InvalidTypeID, err
	}
	i32ID, _ := c.ctx.GetBuiltin("i32")
	if lenT != i32ID {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "expected <integer> as array size, got '%s'", c.ctx.Info(lenT).Name)
	}

	result := c.ctx.ArrayOf(elemT)
	ast.SetTypeOf(node, result)
	return result, nil
}

func (c *checker) checkAccess(node *ast.Access) (ast.TypeID, error) {
	lhsT, err := c.checkExpr(node.Lhs)
	if err != nil {
		return ast.InvalidTypeID, err
	}
	node.LhsType = lhsT

	structID := lhsT
	if c.ctx.Info(lhsT).Class == ClassArray {
		structID = c.ctx.arrayStructID
	}
	structInfo, ok := c.ctx.GetStructDefinition(structID)
	if !ok {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
			"member access on non-struct, non-array type '%s'", c.ctx.Info(lhsT).Name)
	}

	fieldT, ok := structInfo.FieldType(node.Field)
	if !ok {
		return ast.InvalidTypeID, newError(errkind.UnresolvedName, node.Loc(), "struct '%s' has no member '%s'", structInfo.Name, node.Field)
	}

	ast.SetTypeOf(node, fieldT)
	return fieldT, nil
}

func (c *checker) checkSubscript(node *ast.Subscript) (ast.TypeID, error) {
	receiverT, err := c.checkExpr(node.Receiver)
	if err != nil {
		return ast.InvalidTypeID, err
	}
	indexT, err := c.checkExpr(node.Index)
	if err != nil {
		return ast.InvalidTypeID, err
	}

	i32ID, _ := c.ctx.GetBuiltin("i32")
	if indexT != i32ID {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "expected <integer> for array element access, got '%s'", c.ctx.Info(indexT).Name)
	}
	receiverInfo := c.ctx.Info(receiverT)
	if receiverInfo.Class != ClassArray {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "cannot use subscript on non-array type '%s'", receiverInfo.Name)
	}

	ast.SetTypeOf(node, receiverInfo.Elem)
	return receiverInfo.Elem, nil
}

func (c *checker) checkCall(node *ast.Call) (ast.TypeID, error) {
	if !node.SymbolID.IsValid() {
		return ast.InvalidTypeID, newError(errkind.Internal, node.Loc(), "call to '%s' was never resolved", node.Callee)
	}
	fnTypeID, ok := c.ctx.Env.TypeOfSymbol(node.SymbolID)
	if !ok {
		return ast.InvalidTypeID, newError(errkind.Internal, node.Loc(), "function '%s' has no declared type", node.Callee)
	}
	sig := c.ctx.Info(fnTypeID)

	if len(sig.Params) != len(node.Args) {
		return ast.InvalidTypeID, newError(errkind.WrongArity, node.Loc(),
			"wrong number of arguments in call to '%s': expected %d, got %d", node.Callee, len(sig.Params), len(node.Args))
	}

	for i, arg := range node.Args {
		argT, err := c.checkExpr(arg)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		if argT != sig.Params[i] && !c.ctx.IsConvertible(argT, sig.Params[i]) {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, arg.Loc(),
				"type of argument %d to '%s' does not match signature: expected '%s', got '%s'",
				i+1, node.Callee, c.ctx.Info(sig.Params[i]).Name, c.ctx.Info(argT).Name)
		}
	}

	node.ReturnType = sig.Return
	ast.SetTypeOf(node, sig.Return)
	return sig.Return, nil
}

func (c *checker) checkArrayInit(node *ast.ArrayInit) (ast.TypeID, error) {
	var elemT ast.TypeID = ast.InvalidTypeID
	for _, e := range node.Elems {
		t, err := c.checkExpr(e)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		if !elemT.IsValid() {
			elemT = t
			continue
		}
		if elemT != t {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
				"array initializer types do not match: found '%s' and '%s'", c.ctx.Info(elemT).Name, c.ctx.Info(t).Name)
		}
	}
	if !elemT.IsValid() {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "array initializer has no elements to infer a type from")
	}

	result := c.ctx.ArrayOf(elemT)
	ast.SetTypeOf(node, result)
	return result, nil
}

func (c *checker) resolveStructByName(loc ast.SourceLoc, name string, scope ast.ScopeID) (*Info, ast.TypeID, error) {
	if builtinID, ok := c.ctx.GetBuiltin(name); ok {
		info, ok := c.ctx.GetStructDefinition(builtinID)
		if !ok {
			return nil, ast.InvalidTypeID, newError(errkind.TypeMismatch, loc, "'%s' is not a struct type", name)
		}
		return info, builtinID, nil
	}

	symID, ok := c.ctx.Env.GetSymbolID(name, sema.SymbolType, scope)
	if !ok {
		return nil, ast.InvalidTypeID, newError(errkind.UnresolvedName, loc, "unknown struct type '%s'", name)
	}
	typeID, ok := c.ctx.Env.TypeOfSymbol(symID)
	if !ok {
		return nil, ast.InvalidTypeID, newError(errkind.Internal, loc, "struct '%s' was never given a type id", name)
	}
	info, ok := c.ctx.GetStructDefinition(typeID)
	if !ok {
		return nil, ast.InvalidTypeID, newError(errkind.TypeMismatch, loc, "'%s' is not a struct type", name)
	}
	return info, typeID, nil
}

func (c *checker) checkNamedInitList(node *ast.NamedInitList) (ast.TypeID, error) {
	structInfo, typeID, err := c.resolveStructByName(node.Loc(), node.StructName, ast.ScopeOf(node))
	if err != nil {
		return ast.InvalidTypeID, err
	}

	seen := make(map[string]bool, len(node.Inits))
	for _, init := range node.Inits {
		fieldT, ok := structInfo.FieldType(init.Name)
		if !ok {
			return ast.InvalidTypeID, newError(errkind.UnresolvedName, node.Loc(), "struct '%s' has no member '%s'", node.StructName, init.Name)
		}
		if seen[init.Name] {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(), "struct member '%s.%s' initialized more than once", node.StructName, init.Name)
		}
		seen[init.Name] = true

		initT, err := c.checkExpr(init.Expr)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		if !c.ctx.assignableTo(fieldT, initT) {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
				"struct member '%s.%s' has type '%s', but initializer has type '%s'",
				node.StructName, init.Name, c.ctx.Info(fieldT).Name, c.ctx.Info(initT).Name)
		}
		ast.SetTypeOf(init, fieldT)
	}

	if len(seen) != len(structInfo.Fields) {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
			"struct '%s' has %d members, but %d are initialized", node.StructName, len(structInfo.Fields), len(seen))
	}

	ast.SetTypeOf(node, typeID)
	return typeID, nil
}

func (c *checker) checkAnonInitList(node *ast.AnonInitList) (ast.TypeID, error) {
	structInfo, typeID, err := c.resolveStructByName(node.Loc(), node.StructName, ast.ScopeOf(node))
	if err != nil {
		return ast.InvalidTypeID, err
	}

	if len(node.Elems) != len(structInfo.Fields) {
		return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
			"struct '%s' has %d members, but %d are initialized", node.StructName, len(structInfo.Fields), len(node.Elems))
	}

	for i, e := range node.Elems {
		t, err := c.checkExpr(e)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		field := structInfo.Fields[i]
		if !c.ctx.assignableTo(field.Type, t) {
			return ast.InvalidTypeID, newError(errkind.TypeMismatch, node.Loc(),
				"struct member '%s.%s' has type '%s', but initializer has type '%s'",
				node.StructName, field.Name, c.ctx.Info(field.Type).Name, c.ctx.Info(t).Name)
		}
	}

	ast.SetTypeOf(node, typeID)
	return typeID, nil
}

func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
