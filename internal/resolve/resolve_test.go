package resolve

import (
	"fmt"
	"testing"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/collect"
	"github.com/slang-lang/slang/internal/loader"
	"github.com/slang-lang/slang/internal/sema"
	"github.com/stretchr/testify/require"
)

type stubPaths struct{ resolved map[string]string }

func (s *stubPaths) Resolve(fsPath string) (string, error) { return s.resolved[fsPath], nil }

// erroringPaths simulates a module that isn't on any search path.
type erroringPaths struct{}

func (erroringPaths) Resolve(fsPath string) (string, error) {
	return "", fmt.Errorf("module %q not found", fsPath)
}

type stubHeaders struct{ headers map[string]*loader.ModuleHeader }

func (s *stubHeaders) ReadHeader(resolvedPath string) (*loader.ModuleHeader, error) {
	return s.headers[resolvedPath], nil
}

func newLoaderWithExports(exports ...loader.ModuleExport) *loader.Context {
	paths := &stubPaths{resolved: map[string]string{"std/io.cmod": "/mods/std/io.cmod"}}
	headers := &stubHeaders{headers: map[string]*loader.ModuleHeader{
		"/mods/std/io.cmod": {Exports: exports},
	}}
	return loader.NewContext(paths, headers)
}

func moduleWithImport(t *testing.T) *sema.Env {
	t.Helper()
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{
		ast.NewImport(ast.SourceLoc{Line: 1}, []string{"std", "io"}),
	})
	env := sema.NewEnv()
	_, err := collect.Module(env, root)
	require.NoError(t, err)
	return env
}

func TestResolveImportsMaterializesExportedSymbols(t *testing.T) {
	env := moduleWithImport(t)
	ld := newLoaderWithExports(loader.ModuleExport{Name: "print", Kind: sema.SymbolFunction})

	ctx := NewContext(env)
	require.NoError(t, ctx.ResolveImports(ld))

	id, ok := env.GetSymbolID("std.io::print", sema.SymbolFunction, collect.GlobalScopeID)
	require.True(t, ok)

	info := env.Symbol(id)
	require.Equal(t, "print", info.Name)
	require.Equal(t, "std.io::print", info.QualifiedName)
}

func TestResolveImportsIsIdempotentOnRerun(t *testing.T) {
	env := moduleWithImport(t)
	ld := newLoaderWithExports(loader.ModuleExport{Name: "print", Kind: sema.SymbolFunction})

	ctx := NewContext(env)
	require.NoError(t, ctx.ResolveImports(ld))
	require.NoError(t, ctx.ResolveImports(ld), "re-running resolution over unchanged imports must not error")

	id, ok := env.GetSymbolID("std.io::print", sema.SymbolFunction, collect.GlobalScopeID)
	require.True(t, ok)
	require.Equal(t, "print", env.Symbol(id).Name)
}

func TestResolveImportsErrorsOnConflictingQualifiedName(t *testing.T) {
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{
		ast.NewImport(ast.SourceLoc{Line: 1}, []string{"std", "io"}),
		ast.NewVarDecl(ast.SourceLoc{Line: 2}, "print", ast.NewNamedTypeExpr(ast.SourceLoc{}, "i32"), nil),
	})
	env := sema.NewEnv()
	_, err := collect.Module(env, root)
	require.NoError(t, err)

	ld := newLoaderWithExports(loader.ModuleExport{Name: "print", Kind: sema.SymbolFunction})

	ctx := NewContext(env)
	err = ctx.ResolveImports(ld)
	require.Error(t, err)
}

// TestResolveImportsWrapsMissingModuleWithImportLocation covers spec
// scenario (g): `import missing;` must fail citing the import statement's
// own location, not the loader's bare path-resolution error.
func TestResolveImportsWrapsMissingModuleWithImportLocation(t *testing.T) {
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{
		ast.NewImport(ast.SourceLoc{Line: 3, Col: 1}, []string{"missing"}),
	})
	env := sema.NewEnv()
	_, err := collect.Module(env, root)
	require.NoError(t, err)

	paths := &erroringPaths{}
	headers := &stubHeaders{headers: map[string]*loader.ModuleHeader{}}
	ld := loader.NewContext(paths, headers)

	ctx := NewContext(env)
	err = ctx.ResolveImports(ld)
	require.Error(t, err)

	var resolveErr *loader.ResolveError
	require.ErrorAs(t, err, &resolveErr)
	require.Equal(t, ast.SourceLoc{Line: 3, Col: 1}, resolveErr.Loc)
}

func TestResolveDelegatesToEnvGetSymbolID(t *testing.T) {
	env := moduleWithImport(t)
	ctx := NewContext(env)

	id, ok := ctx.Resolve("std.io", sema.SymbolModule, collect.GlobalScopeID)
	require.True(t, ok)
	require.Equal(t, "std.io", env.Symbol(id).Name)
}
