package loader

import (
	"fmt"
	"testing"

	"github.com/slang-lang/slang/internal/sema"
	"github.com/stretchr/testify/require"
)

type stubPaths struct {
	resolved map[string]string
}

func (s *stubPaths) Resolve(fsPath string) (string, error) {
	if p, ok := s.resolved[fsPath]; ok {
		return p, nil
	}
	return "", fmt.Errorf("module not found: %s", fsPath)
}

type stubHeaders struct {
	headers map[string]*ModuleHeader
}

func (s *stubHeaders) ReadHeader(resolvedPath string) (*ModuleHeader, error) {
	h, ok := s.headers[resolvedPath]
	if !ok {
		return nil, fmt.Errorf("no header for %s", resolvedPath)
	}
	return h, nil
}

func TestResolveModuleConvertsDottedPathAndCaches(t *testing.T) {
	paths := &stubPaths{resolved: map[string]string{"std/io.cmod": "/mods/std/io.cmod"}}
	headers := &stubHeaders{headers: map[string]*ModuleHeader{
		"/mods/std/io.cmod": {Exports: []ModuleExport{{Name: "print", Kind: sema.SymbolFunction}}},
	}}

	ctx := NewContext(paths, headers)
	r1, err := ctx.ResolveModule("std.io", false)
	require.NoError(t, err)
	require.Len(t, r1.Header.Exports, 1)

	r2, err := ctx.ResolveModule("std.io", false)
	require.NoError(t, err)
	require.Same(t, r1, r2, "second resolution of the same module reuses the cached resolver")
}

func TestResolveModulePromotesTransitiveToExplicit(t *testing.T) {
	paths := &stubPaths{resolved: map[string]string{"a.cmod": "/mods/a.cmod"}}
	headers := &stubHeaders{headers: map[string]*ModuleHeader{"/mods/a.cmod": {}}}

	ctx := NewContext(paths, headers)
	r, err := ctx.ResolveModule("a", true)
	require.NoError(t, err)
	require.True(t, r.IsTransitive())

	r2, err := ctx.ResolveModule("a", false)
	require.NoError(t, err)
	require.False(t, r2.IsTransitive())
}

func TestGetResolverFailsWhenNotLoaded(t *testing.T) {
	ctx := NewContext(&stubPaths{}, &stubHeaders{})
	_, err := ctx.GetResolver("missing")
	require.Error(t, err)
}

func TestMakeImportNamePrefixesTransitive(t *testing.T) {
	require.Equal(t, "foo", MakeImportName("foo", false))
	require.Equal(t, "$foo", MakeImportName("foo", true))
}

func TestToFSPathDefaultsExtension(t *testing.T) {
	require.Equal(t, "std/io.cmod", toFSPath("std.io"))
	require.Equal(t, "std/io/custom.cmod", toFSPath("std.io.custom"))
}
