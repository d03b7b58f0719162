package types

import (
	"testing"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/collect"
	"github.com/slang-lang/slang/internal/resolve"
	"github.com/slang-lang/slang/internal/sema"
	"github.com/stretchr/testify/require"
)

func ti32() *ast.TypeExpr  { return ast.NewNamedTypeExpr(ast.SourceLoc{}, "i32") }
func tf32() *ast.TypeExpr  { return ast.NewNamedTypeExpr(ast.SourceLoc{}, "f32") }
func tvoid() *ast.TypeExpr { return ast.NewNamedTypeExpr(ast.SourceLoc{}, "void") }
func tstr() *ast.TypeExpr  { return ast.NewNamedTypeExpr(ast.SourceLoc{}, "str") }

func intLit(v int32) *ast.Literal {
	return ast.NewLiteral(ast.SourceLoc{}, ast.Token{Kind: ast.TokIntLiteral, Value: &ast.LiteralValue{Int: v}})
}

// prepare runs collection, import resolution's name-binding counterpart
// (ResolveNames) and the declare/define phases, returning a ready Context.
func prepare(t *testing.T, root *ast.Block) *Context {
	t.Helper()
	env := sema.NewEnv()
	_, err := collect.Module(env, root)
	require.NoError(t, err)

	rctx := resolve.NewContext(env)
	require.NoError(t, resolve.ResolveNames(rctx, root))

	ctx := NewContext(env)
	require.NoError(t, DeclareTypes(ctx, root))
	require.NoError(t, DefineTypes(ctx, root))
	require.NoError(t, DeclareFunctions(ctx, root))
	return ctx
}

func TestDeclareTypesSupportsMutuallyRecursiveStructs(t *testing.T) {
	a := ast.NewStructDef(ast.SourceLoc{}, "A", []*ast.VarDecl{
		ast.NewVarDecl(ast.SourceLoc{}, "b", ast.NewNamedTypeExpr(ast.SourceLoc{}, "B"), nil),
	})
	b := ast.NewStructDef(ast.SourceLoc{}, "B", []*ast.VarDecl{
		ast.NewVarDecl(ast.SourceLoc{}, "a", ast.NewNamedTypeExpr(ast.SourceLoc{}, "A"), nil),
	})
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{a, b})

	ctx := prepare(t, root)

	aType, ok := ctx.Env.TypeOfSymbol(a.SymbolID)
	require.True(t, ok)
	bType, ok := ctx.Env.TypeOfSymbol(b.SymbolID)
	require.True(t, ok)

	aInfo, ok := ctx.GetStructDefinition(aType)
	require.True(t, ok)
	ft, ok := aInfo.FieldType("b")
	require.True(t, ok)
	require.Equal(t, bType, ft)
}

func TestCheckModuleBindsArithmeticResultType(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "add", []ast.Param{{Name: "a", Type: ti32()}, {Name: "b", Type: ti32()}}, ti32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewBinary(ast.SourceLoc{}, "+",
				ast.NewVariableRef(ast.SourceLoc{}, "a"),
				ast.NewVariableRef(ast.SourceLoc{}, "b"))),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	ctx := prepare(t, root)

	require.NoError(t, CheckModule(ctx, root))

	i32ID, _ := ctx.GetBuiltin("i32")
	ret := fn.Body.Stmts[0].(*ast.Return)
	require.Equal(t, i32ID, ast.TypeOf(ret.Expr))
}

func TestCheckModuleRejectsMismatchedArithmeticOperands(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "bad", []ast.Param{{Name: "a", Type: ti32()}, {Name: "b", Type: tf32()}}, ti32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewBinary(ast.SourceLoc{}, "+",
				ast.NewVariableRef(ast.SourceLoc{}, "a"),
				ast.NewVariableRef(ast.SourceLoc{}, "b"))),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	ctx := prepare(t, root)

	err := CheckModule(ctx, root)
	require.Error(t, err)
	var typeErr *Error
	require.ErrorAs(t, err, &typeErr)
}

func TestCheckModuleAllowsNullAssignedToStructVariable(t *testing.T) {
	s := ast.NewStructDef(ast.SourceLoc{}, "Node", []*ast.VarDecl{
		ast.NewVarDecl(ast.SourceLoc{}, "v", ti32(), nil),
	})
	decl := ast.NewVarDecl(ast.SourceLoc{}, "n", ast.NewNamedTypeExpr(ast.SourceLoc{}, "Node"), ast.NewNullLiteral(ast.SourceLoc{}))
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{s, decl})

	ctx := prepare(t, root)
	require.NoError(t, CheckModule(ctx, root))
}

func TestCheckModuleRejectsWrongArity(t *testing.T) {
	callee := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "one_arg", []ast.Param{{Name: "a", Type: ti32()}}, tvoid()),
		ast.NewBlock(ast.SourceLoc{}, nil),
	)
	caller := ast.NewFunction(ast.SourceLoc{Line: 2},
		ast.NewPrototype(ast.SourceLoc{Line: 2}, "main", nil, tvoid()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewCall(ast.SourceLoc{Line: 3}, "one_arg", nil),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{callee, caller})
	ctx := prepare(t, root)

	err := CheckModule(ctx, root)
	require.Error(t, err)
	var typeErr *Error
	require.ErrorAs(t, err, &typeErr)
	require.Equal(t, "wrong-arity", typeErr.Kind.String())
}

func TestCheckModuleValidatesPrimitiveCastMatrix(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "f", nil, tf32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewCast(ast.SourceLoc{}, intLit(1), tf32())),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	ctx := prepare(t, root)
	require.NoError(t, CheckModule(ctx, root))

	f32ID, _ := ctx.GetBuiltin("f32")
	ret := fn.Body.Stmts[0].(*ast.Return)
	require.Equal(t, f32ID, ast.TypeOf(ret.Expr))
}

func TestCheckModuleRejectsCastToStr(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "f", nil, tstr()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewCast(ast.SourceLoc{}, intLit(1), tstr())),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	ctx := prepare(t, root)

	err := CheckModule(ctx, root)
	require.Error(t, err)
	var typeErr *Error
	require.ErrorAs(t, err, &typeErr)
	require.Equal(t, "invalid-cast", typeErr.Kind.String())
}

func TestCheckModuleValidatesNamedStructInitializer(t *testing.T) {
	s := ast.NewStructDef(ast.SourceLoc{}, "Point", []*ast.VarDecl{
		ast.NewVarDecl(ast.SourceLoc{}, "x", ti32(), nil),
		ast.NewVarDecl(ast.SourceLoc{}, "y", ti32(), nil),
	})
	init := ast.NewNamedInitList(ast.SourceLoc{}, "Point", []*ast.NamedInit{
		ast.NewNamedInit(ast.SourceLoc{}, "x", intLit(1)),
		ast.NewNamedInit(ast.SourceLoc{}, "y", intLit(2)),
	})
	decl := ast.NewVarDecl(ast.SourceLoc{}, "p", ast.NewNamedTypeExpr(ast.SourceLoc{}, "Point"), init)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{s, decl})

	ctx := prepare(t, root)
	require.NoError(t, CheckModule(ctx, root))

	pointType, ok := ctx.Env.TypeOfSymbol(s.SymbolID)
	require.True(t, ok)
	require.Equal(t, pointType, ast.TypeOf(init))
}

func TestCheckModuleRejectsIncompleteNamedStructInitializer(t *testing.T) {
	s := ast.NewStructDef(ast.SourceLoc{}, "Point", []*ast.VarDecl{
		ast.NewVarDecl(ast.SourceLoc{}, "x", ti32(), nil),
		ast.NewVarDecl(ast.SourceLoc{}, "y", ti32(), nil),
	})
	init := ast.NewNamedInitList(ast.SourceLoc{}, "Point", []*ast.NamedInit{
		ast.NewNamedInit(ast.SourceLoc{}, "x", intLit(1)),
	})
	decl := ast.NewVarDecl(ast.SourceLoc{}, "p", ast.NewNamedTypeExpr(ast.SourceLoc{}, "Point"), init)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{s, decl})

	ctx := prepare(t, root)
	err := CheckModule(ctx, root)
	require.Error(t, err)
}

func TestCheckModuleValidatesArraySubscript(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "first", []ast.Param{
			{Name: "xs", Type: ast.NewArrayTypeExpr(ast.SourceLoc{}, ti32())},
		}, ti32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewSubscript(ast.SourceLoc{},
				ast.NewVariableRef(ast.SourceLoc{}, "xs"), intLit(0))),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	ctx := prepare(t, root)
	require.NoError(t, CheckModule(ctx, root))

	i32ID, _ := ctx.GetBuiltin("i32")
	ret := fn.Body.Stmts[0].(*ast.Return)
	require.Equal(t, i32ID, ast.TypeOf(ret.Expr))
}

func TestCheckModuleValidatesArrayLengthMemberAccess(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "len_of", []ast.Param{
			{Name: "xs", Type: ast.NewArrayTypeExpr(ast.SourceLoc{}, ti32())},
		}, ti32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewAccess(ast.SourceLoc{},
				ast.NewVariableRef(ast.SourceLoc{}, "xs"), "length")),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	ctx := prepare(t, root)
	require.NoError(t, CheckModule(ctx, root))

	i32ID, _ := ctx.GetBuiltin("i32")
	ret := fn.Body.Stmts[0].(*ast.Return)
	require.Equal(t, i32ID, ast.TypeOf(ret.Expr))
}

func TestCheckModuleRequiresStorageLocationForCompoundAssignment(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "f", nil, ti32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewBinary(ast.SourceLoc{}, "+=", intLit(1), intLit(2))),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	ctx := prepare(t, root)

	err := CheckModule(ctx, root)
	require.Error(t, err)
}
