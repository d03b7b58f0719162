package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/slang-lang/slang/internal/emit"
	"github.com/slang-lang/slang/internal/loader"
)

// fsPathResolver implements loader.PathResolver against the real
// filesystem: it tries fsPath under each search directory in order,
// exactly like a C include path, and resolves to the first hit.
type fsPathResolver struct {
	searchPaths []string
}

func (r *fsPathResolver) Resolve(fsPath string) (string, error) {
	for _, dir := range r.searchPaths {
		candidate := filepath.Join(dir, fsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	if _, err := os.Stat(fsPath); err == nil {
		return fsPath, nil
	}
	return "", fmt.Errorf("module %q not found in search paths %v", fsPath, r.searchPaths)
}

// fsHeaderReader implements loader.HeaderReader by reading a compiled
// .cmod file off disk and recovering its export table, without
// materializing any function body (internal/emit.ParseModule parses the
// whole file, but Header only projects out what import resolution needs).
type fsHeaderReader struct{}

func (fsHeaderReader) ReadHeader(resolvedPath string) (*loader.ModuleHeader, error) {
	buf, err := os.ReadFile(resolvedPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", resolvedPath, err)
	}
	mod, err := emit.ParseModule(buf)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", resolvedPath, err)
	}
	return mod.Header(), nil
}
