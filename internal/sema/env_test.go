package sema

import (
	"testing"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/stretchr/testify/require"
)

func TestDeclareSymbolAndScopeLookup(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	env.GlobalScopeID = global

	id, ok := env.DeclareSymbol(SymbolInfo{
		Name:            "pi",
		QualifiedName:   "math::pi",
		Kind:            SymbolConstant,
		Scope:           global,
		DeclaringModule: CurrentModuleID,
	})
	require.True(t, ok)

	found, ok := env.GetSymbolID("pi", SymbolConstant, global)
	require.True(t, ok)
	require.Equal(t, id, found)
}

func TestDeclareSymbolRejectsRedefinition(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})

	_, ok := env.DeclareSymbol(SymbolInfo{Name: "x", Kind: SymbolVariable, Scope: global})
	require.True(t, ok)

	_, ok = env.DeclareSymbol(SymbolInfo{Name: "x", Kind: SymbolVariable, Scope: global})
	require.False(t, ok, "rebinding the same name and kind in one scope is a redefinition")
}

func TestDeclareSymbolAllowsDistinctKindsSameName(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})

	_, ok := env.DeclareSymbol(SymbolInfo{Name: "point", Kind: SymbolType, Scope: global})
	require.True(t, ok)

	_, ok = env.DeclareSymbol(SymbolInfo{Name: "point", Kind: SymbolVariable, Scope: global})
	require.True(t, ok, "a struct and a variable may share a name")
}

func TestGetSymbolIDWalksScopeChainOutward(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	inner := env.NewScope(global, "block", ast.SourceLoc{})

	outer, ok := env.DeclareSymbol(SymbolInfo{Name: "n", Kind: SymbolVariable, Scope: global})
	require.True(t, ok)

	found, ok := env.GetSymbolID("n", SymbolVariable, inner)
	require.True(t, ok)
	require.Equal(t, outer, found)
}

func TestGetSymbolIDInnerScopeShadowsOuter(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	inner := env.NewScope(global, "block", ast.SourceLoc{})

	_, ok := env.DeclareSymbol(SymbolInfo{Name: "n", Kind: SymbolVariable, Scope: global})
	require.True(t, ok)
	innerID, ok := env.DeclareSymbol(SymbolInfo{Name: "n", Kind: SymbolVariable, Scope: inner})
	require.True(t, ok)

	found, ok := env.GetSymbolID("n", SymbolVariable, inner)
	require.True(t, ok)
	require.Equal(t, innerID, found)
}

func TestGetSymbolIDQualifiedNameIgnoresScope(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	other := env.NewScope(ast.InvalidScopeID, "other-module", ast.SourceLoc{})

	id, ok := env.DeclareSymbol(SymbolInfo{
		Name:          "pi",
		QualifiedName: "math::pi",
		Kind:          SymbolConstant,
		Scope:         other,
	})
	require.True(t, ok)

	found, ok := env.GetSymbolID("math::pi", SymbolConstant, global)
	require.True(t, ok)
	require.Equal(t, id, found)
}

func TestGetSymbolIDNotFound(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})

	_, ok := env.GetSymbolID("missing", SymbolVariable, global)
	require.False(t, ok)
}

func TestGetSymbolIDByKindMatchesQualifiedAndKind(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})

	fn, ok := env.DeclareSymbol(SymbolInfo{
		Name: "make", QualifiedName: "shapes::make", Kind: SymbolFunction, Scope: global,
	})
	require.True(t, ok)

	_, ok = env.DeclareSymbol(SymbolInfo{
		Name: "make", QualifiedName: "shapes::make", Kind: SymbolMacro, Scope: global,
	})
	require.True(t, ok, "same qualified name, different kind, is not a redefinition across module boundaries")

	found, ok := env.GetSymbolIDByKind("shapes::make", SymbolFunction)
	require.True(t, ok)
	require.Equal(t, fn, found)
}

func TestBindAndLookupSymbolType(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	id, _ := env.DeclareSymbol(SymbolInfo{Name: "n", Kind: SymbolVariable, Scope: global})

	_, ok := env.TypeOfSymbol(id)
	require.False(t, ok)

	env.BindType(id, ast.TypeID(7))
	tid, ok := env.TypeOfSymbol(id)
	require.True(t, ok)
	require.Equal(t, ast.TypeID(7), tid)
}

func TestAttributeAttachmentAndPayload(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	id, _ := env.DeclareSymbol(SymbolInfo{Name: "len", Kind: SymbolFunction, Scope: global})

	require.False(t, env.HasAttribute(id, AttributeNative))

	env.AttachAttribute(id, AttributeInfo{
		Kind:    AttributeDisable,
		Payload: AttributePayload{{Key: "name", Value: "const_eval"}},
	})

	require.True(t, env.HasAttribute(id, AttributeDisable))
	require.False(t, env.HasAttribute(id, AttributeNative))

	payload, ok := env.AttributePayloadFor(id, AttributeDisable)
	require.True(t, ok)
	require.Equal(t, "const_eval", payload[0].Value)
}

func TestTransitiveImportTracking(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	id, _ := env.DeclareSymbol(SymbolInfo{Name: "helper", Kind: SymbolFunction, Scope: global})

	require.False(t, env.IsTransitiveImport(id))
	env.MarkTransitiveImport(id)
	require.True(t, env.IsTransitiveImport(id))
}

func TestAttributeKindFromName(t *testing.T) {
	kind, ok := AttributeKindFromName("native")
	require.True(t, ok)
	require.Equal(t, AttributeNative, kind)

	_, ok = AttributeKindFromName("unknown")
	require.False(t, ok)
}

func TestDeclareRejectsRedefinitionWithBothLocations(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})

	_, err := env.Declare(global, SymbolInfo{Name: "n", Kind: SymbolVariable, Loc: ast.SourceLoc{Line: 1}}, false)
	require.NoError(t, err)

	_, err = env.Declare(global, SymbolInfo{Name: "n", Kind: SymbolVariable, Loc: ast.SourceLoc{Line: 2}}, false)
	require.Error(t, err)

	var redef *RedefinitionError
	require.ErrorAs(t, err, &redef)
	require.Equal(t, 1, redef.OriginalLoc.Line)
	require.Equal(t, 2, redef.Loc.Line)
}

func TestDeclareDemotesTransitiveImportOnExplicitRedeclaration(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})

	res, err := env.Declare(global, SymbolInfo{Name: "helper", Kind: SymbolFunction}, true)
	require.NoError(t, err)
	require.True(t, env.IsTransitiveImport(res.ID))

	res2, err := env.Declare(global, SymbolInfo{Name: "helper", Kind: SymbolFunction}, false)
	require.NoError(t, err)
	require.True(t, res2.Demoted)
	require.Equal(t, res.ID, res2.ID)
	require.False(t, env.IsTransitiveImport(res.ID))
}

func TestDeclareExternalDemotesOnRediscovery(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})

	id, isNew := env.DeclareExternal(global, "shapes", SymbolModule, ast.SourceLoc{})
	require.True(t, isNew)
	env.MarkTransitiveImport(id)

	id2, isNew2 := env.DeclareExternal(global, "shapes", SymbolModule, ast.SourceLoc{})
	require.False(t, isNew2)
	require.Equal(t, id, id2)
	require.False(t, env.IsTransitiveImport(id))
}

func TestSymbolKindString(t *testing.T) {
	require.Equal(t, "function", SymbolFunction.String())
	require.Equal(t, "struct", SymbolType.String())
	require.Equal(t, "symbol-kind(255)", SymbolKind(255).String())
}

func TestEnvStringIncludesScopeAndSymbol(t *testing.T) {
	env := NewEnv()
	global := env.NewScope(ast.InvalidScopeID, "global", ast.SourceLoc{})
	env.GlobalScopeID = global
	env.DeclareSymbol(SymbolInfo{Name: "n", QualifiedName: "main::n", Kind: SymbolVariable, Scope: global})

	out := env.String()
	require.Contains(t, out, "Semantic Environment")
	require.Contains(t, out, "main::n")
}
