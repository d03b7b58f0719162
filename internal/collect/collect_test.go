package collect

import (
	"testing"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/sema"
	"github.com/stretchr/testify/require"
)

func i32() *ast.TypeExpr { return ast.NewNamedTypeExpr(ast.SourceLoc{}, "i32") }

func TestModuleCollectsTopLevelDeclarations(t *testing.T) {
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{
		ast.NewImport(ast.SourceLoc{Line: 1}, []string{"std", "io"}),
		ast.NewConstDecl(ast.SourceLoc{Line: 2}, "pi", i32(), ast.NewLiteral(ast.SourceLoc{}, ast.Token{})),
		ast.NewVarDecl(ast.SourceLoc{Line: 3}, "counter", i32(), nil),
		ast.NewStructDef(ast.SourceLoc{Line: 4}, "Point", []*ast.VarDecl{
			ast.NewVarDecl(ast.SourceLoc{}, "x", i32(), nil),
			ast.NewVarDecl(ast.SourceLoc{}, "y", i32(), nil),
		}),
		ast.NewFunction(ast.SourceLoc{Line: 5},
			ast.NewPrototype(ast.SourceLoc{Line: 5}, "add", []ast.Param{
				{Name: "a", Type: i32()},
				{Name: "b", Type: i32()},
			}, i32()),
			ast.NewBlock(ast.SourceLoc{}, []ast.Node{
				ast.NewReturn(ast.SourceLoc{}, ast.NewVariableRef(ast.SourceLoc{}, "a")),
			}),
		),
	})

	env := sema.NewEnv()
	ctx, err := Module(env, root)
	require.NoError(t, err)
	require.Equal(t, GlobalScopeID, env.GlobalScopeID)

	_, ok := env.GetSymbolID("std.io", sema.SymbolModule, GlobalScopeID)
	require.True(t, ok)

	_, ok = env.GetSymbolID("pi", sema.SymbolConstant, GlobalScopeID)
	require.True(t, ok)

	_, ok = env.GetSymbolID("counter", sema.SymbolVariable, GlobalScopeID)
	require.True(t, ok)

	_, ok = env.GetSymbolID("Point", sema.SymbolType, GlobalScopeID)
	require.True(t, ok)

	fnID, ok := env.GetSymbolID("add", sema.SymbolFunction, GlobalScopeID)
	require.True(t, ok)
	require.Equal(t, ctx.CurrentScope(), ast.InvalidScopeID)

	info := env.Symbol(fnID)
	require.Equal(t, "add", info.Name)
}

func TestModuleRejectsDuplicateDeclaration(t *testing.T) {
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{
		ast.NewVarDecl(ast.SourceLoc{Line: 1}, "x", i32(), nil),
		ast.NewVarDecl(ast.SourceLoc{Line: 2}, "x", i32(), nil),
	})

	env := sema.NewEnv()
	_, err := Module(env, root)
	require.Error(t, err)

	var redef *sema.RedefinitionError
	require.ErrorAs(t, err, &redef)
	require.Equal(t, "x", redef.Name)
}

func TestDirectiveAttributeAttachedToDeclaration(t *testing.T) {
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "puts", []ast.Param{
			{Name: "s", Type: i32()},
		}, i32()),
		nil,
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{
		ast.NewDirective(ast.SourceLoc{Line: 1}, "native", []ast.AttributeArg{{Key: "lib", Value: "libc"}}, fn),
	})

	env := sema.NewEnv()
	_, err := Module(env, root)
	require.NoError(t, err)

	id, ok := env.GetSymbolID("puts", sema.SymbolFunction, GlobalScopeID)
	require.True(t, ok)
	require.True(t, env.HasAttribute(id, sema.AttributeNative))

	payload, ok := env.AttributePayloadFor(id, sema.AttributeNative)
	require.True(t, ok)
	require.Equal(t, "libc", payload[0].Value)
}

func TestStructMembersDeclaredInStructScope(t *testing.T) {
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{
		ast.NewStructDef(ast.SourceLoc{Line: 1}, "Point", []*ast.VarDecl{
			ast.NewVarDecl(ast.SourceLoc{}, "x", i32(), nil),
		}),
	})

	env := sema.NewEnv()
	_, err := Module(env, root)
	require.NoError(t, err)

	_, ok := env.GetSymbolID("x", sema.SymbolVariable, GlobalScopeID)
	require.False(t, ok, "a struct member is scoped to the struct, not visible at module scope")
}
