package constant

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/sema"
)

var loc = ast.SourceLoc{Line: 1, Col: 1}

func intLit(v int32) *ast.Literal {
	return &ast.Literal{LitKind: ast.LiteralInt, IntVal: v}
}

func fltLit(v float32) *ast.Literal {
	return &ast.Literal{LitKind: ast.LiteralFloat, FltVal: v}
}

func binary(op ast.BinaryOp, lhs, rhs ast.Node) *ast.Binary {
	return &ast.Binary{Op: op, Lhs: lhs, Rhs: rhs}
}

func unary(op ast.UnaryOp, operand ast.Node) *ast.Unary {
	return &ast.Unary{Op: op, Operand: operand}
}

func TestLiteralIsConstEval(t *testing.T) {
	env := NewEnv()
	lit := intLit(42)

	require.True(t, IsConstEval(env, lit))

	v, ok, err := Evaluate(env, lit)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(42), v.Int())
}

func TestBinaryArithmeticFolds(t *testing.T) {
	env := NewEnv()
	expr := binary("+", intLit(2), binary("*", intLit(3), intLit(4)))

	require.True(t, IsConstEval(env, expr))

	v, ok, err := Evaluate(env, expr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, I32, v.Type)
	require.Equal(t, int32(14), v.Int())
}

func TestIntegerDivisionByZeroIsHardError(t *testing.T) {
	env := NewEnv()
	expr := binary("/", intLit(1), intLit(0))

	require.True(t, IsConstEval(env, expr))

	_, _, err := Evaluate(env, expr)
	require.Error(t, err)
}

func TestShiftAmountMasksToFiveBits(t *testing.T) {
	env := NewEnv()
	// 1 << 33 should behave as 1 << 1 == 2 (33 & 0x1f == 1).
	expr := binary("<<", intLit(1), intLit(33))

	v, ok, err := Evaluate(env, expr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(2), v.Int())
}

func TestLogicalOperatorsYieldZeroOrOne(t *testing.T) {
	env := NewEnv()
	expr := binary("&&", intLit(5), intLit(0))

	v, ok, err := Evaluate(env, expr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(0), v.Int())
}

func TestBitwiseOperatorRejectsFloatOperands(t *testing.T) {
	env := NewEnv()
	expr := binary("&", fltLit(1), fltLit(2))

	// is_const_eval only checks the operator set and operand const-eval;
	// the type restriction surfaces as an Evaluate error, matching
	// eval.cpp where the f32 lambda throws inside the lookup table.
	require.True(t, IsConstEval(env, expr))

	_, _, err := Evaluate(env, expr)
	require.Error(t, err)
}

func TestUnaryNotAndComplement(t *testing.T) {
	env := NewEnv()

	notExpr := unary("!", intLit(0))
	v, ok, err := Evaluate(env, notExpr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(1), v.Int())

	complementExpr := unary("~", intLit(0))
	v, ok, err = Evaluate(env, complementExpr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(-1), v.Int())
}

func TestIntegerOverflowWrapsTwosComplement(t *testing.T) {
	env := NewEnv()
	maxI32 := int32(2147483647)
	expr := binary("+", intLit(maxI32), intLit(1))

	v, ok, err := Evaluate(env, expr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(-2147483648), v.Int())
}

func TestCastBetweenPrimitivesFolds(t *testing.T) {
	env := NewEnv()
	expr := &ast.Cast{
		Expr:   fltLit(2.5),
		Target: &ast.TypeExpr{ExprKind: ast.TypeExprName, Name: "i32"},
	}

	require.True(t, IsConstEval(env, expr))

	v, ok, err := Evaluate(env, expr)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, I32, v.Type)
	require.Equal(t, int32(2), v.Int())
}

func TestVariableReferenceIsConstEvalOnlyWhenBound(t *testing.T) {
	env := NewEnv()
	senv := sema.NewEnv()
	global := senv.NewScope(ast.InvalidScopeID, "<module>", loc)

	symID, ok := senv.DeclareSymbol(sema.SymbolInfo{Name: "N", Kind: sema.SymbolConstant, Loc: loc, Scope: global})
	require.True(t, ok)

	ref := &ast.VariableRef{Name: "N", SymbolID: symID}
	require.False(t, IsConstEval(env, ref))

	env2 := NewEnv()
	require.NoError(t, env2.SetConstInfo(loc, symID, Info{Type: I32, Value: int32(7)}))
	require.True(t, IsConstEval(env2, ref))

	v, ok, err := Evaluate(env2, ref)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(7), v.Int())
}

func TestConstDeclWithDisableDirectiveAllowsLiteral(t *testing.T) {
	senv := sema.NewEnv()
	global := senv.NewScope(ast.InvalidScopeID, "<module>", loc)
	symID, ok := senv.DeclareSymbol(sema.SymbolInfo{Name: "K", Kind: sema.SymbolConstant, Loc: loc, Scope: global})
	require.True(t, ok)

	senv.AttachAttribute(symID, sema.AttributeInfo{
		Kind:    sema.AttributeDisable,
		Loc:     loc,
		Payload: sema.AttributePayload{{Key: "name", Value: "const_eval"}},
	})

	decl := &ast.ConstDecl{
		Name:     "K",
		Type:     &ast.TypeExpr{ExprKind: ast.TypeExprName, Name: "i32"},
		Expr:     intLit(9),
		SymbolID: symID,
	}

	env := NewEnv()
	require.NoError(t, EvaluateConstants(senv, env, &ast.Block{Stmts: []ast.Node{decl}}))

	info, ok := env.GetConstInfo(symID)
	require.True(t, ok)
	require.Equal(t, int32(9), info.Int())
}

func TestConstDeclRequiresConstEligibleInitializerWhenNotDisabled(t *testing.T) {
	senv := sema.NewEnv()
	global := senv.NewScope(ast.InvalidScopeID, "<module>", loc)
	symID, ok := senv.DeclareSymbol(sema.SymbolInfo{Name: "K", Kind: sema.SymbolConstant, Loc: loc, Scope: global})
	require.True(t, ok)

	otherSymID, ok := senv.DeclareSymbol(sema.SymbolInfo{Name: "notConst", Kind: sema.SymbolVariable, Loc: loc, Scope: global})
	require.True(t, ok)

	decl := &ast.ConstDecl{
		Name:     "K",
		Type:     &ast.TypeExpr{ExprKind: ast.TypeExprName, Name: "i32"},
		Expr:     &ast.VariableRef{Name: "notConst", SymbolID: otherSymID},
		SymbolID: symID,
	}

	env := NewEnv()
	err := EvaluateConstants(senv, env, &ast.Block{Stmts: []ast.Node{decl}})
	require.Error(t, err)
}
