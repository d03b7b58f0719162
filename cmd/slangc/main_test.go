package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/config"
	"github.com/slang-lang/slang/internal/emit"
)

func ti32() *ast.TypeExpr                 { return ast.NewNamedTypeExpr(ast.SourceLoc{}, "i32") }
func varRef(name string) *ast.VariableRef { return ast.NewVariableRef(ast.SourceLoc{}, name) }

// writeParserOutput serializes an add(a, b) function's AST to dir/name, the
// shape a real frontend would hand slangc.
func writeParserOutput(t *testing.T, dir, name string) string {
	t.Helper()
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "add", []ast.Param{{Name: "a", Type: ti32()}, {Name: "b", Type: ti32()}}, ti32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, ast.NewBinary(ast.SourceLoc{}, "+", varRef("a"), varRef("b"))),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, ast.WriteParserOutput(ast.ParserOutput{Root: root}), 0o644))
	return path
}

// TestCompileFileWritesModule exercises the whole CLI path end to end: a
// serialized parser output on disk produces a readable .cmod sibling file.
func TestCompileFileWritesModule(t *testing.T) {
	dir := t.TempDir()
	source := writeParserOutput(t, dir, "add.sast")

	code, err := compileFile(source, config.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, code)

	outPath := filepath.Join(dir, "add.cmod")
	buf, err := os.ReadFile(outPath)
	require.NoError(t, err)

	mod, err := emit.ParseModule(buf)
	require.NoError(t, err)
	require.Len(t, mod.Exports, 1)
	require.Equal(t, "add", mod.Exports[0].Name)
}

// TestCompileFileReportsDiagnosticAndNoOutput covers the failure path: an
// unresolved reference must print nothing to disk and return a non-zero
// exit code without an error bubbling past the diagnostic print (the error
// is nil; the caller only sees the exit code, matching a real compiler
// invocation where diagnostics go to stderr and the exit code is the
// signal).
func TestCompileFileReportsDiagnosticAndNoOutput(t *testing.T) {
	dir := t.TempDir()
	fn := ast.NewFunction(ast.SourceLoc{Line: 1},
		ast.NewPrototype(ast.SourceLoc{Line: 1}, "broken", nil, ti32()),
		ast.NewBlock(ast.SourceLoc{}, []ast.Node{
			ast.NewReturn(ast.SourceLoc{}, varRef("missing")),
		}),
	)
	root := ast.NewBlock(ast.SourceLoc{}, []ast.Node{fn})
	source := filepath.Join(dir, "broken.sast")
	require.NoError(t, os.WriteFile(source, ast.WriteParserOutput(ast.ParserOutput{Root: root}), 0o644))

	code, err := compileFile(source, config.Options{})
	require.NoError(t, err)
	require.Equal(t, 1, code)

	_, statErr := os.Stat(filepath.Join(dir, "broken.cmod"))
	require.True(t, os.IsNotExist(statErr))
}

// TestCompileFileMergesProjectFile checks that compileFile picks up a
// sibling slang.toml (here one that sets trace = true) and still compiles
// successfully when no CLI flag overrides it.
func TestCompileFileMergesProjectFile(t *testing.T) {
	dir := t.TempDir()
	source := writeParserOutput(t, dir, "add.sast")
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.ProjectFile), []byte(`trace = true`+"\n"), 0o644))

	code, err := compileFile(source, config.Options{})
	require.NoError(t, err)
	require.Equal(t, 0, code)
}
