// Package loader resolves a module's import statements against compiled
// dependency module files, turning each into a ModuleHeader the resolve
// package can materialize as symbols in the importing unit's environment.
package loader

import (
	"fmt"
	"path"
	"strings"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/sema"
)

// PackageDelimiter separates segments of a dotted import path
// (`import std.io;`). ModuleExt is the on-disk extension of a compiled
// module, appended to a resolved path that doesn't already carry one.
const (
	PackageDelimiter = "."
	ModuleExt        = ".cmod"
)

// MakeImportName returns the resolver map key for name, prefixing it with
// "$" when transitive so an explicit and a transitive import of the same
// module name can be told apart before they're reconciled.
func MakeImportName(name string, transitive bool) string {
	if transitive {
		return "$" + name
	}
	return name
}

// ModuleExport is one entry of a compiled module's export table: a name,
// the kind of symbol it names, and (once the type system has resolved it)
// the type the symbol was given.
type ModuleExport struct {
	Name string
	Kind sema.SymbolKind
	Type ast.TypeID
}

// ModuleHeader is the subset of a compiled module's on-disk header that
// import resolution needs: its export table. (The import table, constant
// pool and bytecode live with the emitter/module-file format,
// internal/emit, which is what ultimately produces and parses this.)
type ModuleHeader struct {
	Exports []ModuleExport
}

// PathResolver locates the on-disk path for a module given its filesystem
// path (after package-delimiter substitution and extension defaulting).
// Implemented against a real search-path file manager by the compiler
// driver; tests supply an in-memory stub.
type PathResolver interface {
	Resolve(fsPath string) (string, error)
}

// HeaderReader parses a compiled module file at a resolved path far enough
// to recover its export table, without materializing the function bodies.
type HeaderReader interface {
	ReadHeader(resolvedPath string) (*ModuleHeader, error)
}

// ResolveError wraps a resolution failure with the source location that
// triggered it, matching the loader's own error shape.
type ResolveError struct {
	Loc ast.SourceLoc
	Msg string
}

func (e *ResolveError) Error() string { return fmt.Sprintf("%s: %s", e.Loc, e.Msg) }

// ModuleResolver tracks one dependency's resolved header along with
// whether it was pulled in transitively.
type ModuleResolver struct {
	Header *ModuleHeader

	transitive bool
}

// IsTransitive reports whether this module was resolved only because
// another dependency imports it, as opposed to an explicit import of the
// compiling unit.
func (r *ModuleResolver) IsTransitive() bool { return r.transitive }

// MakeExplicit clears the transitive flag: an explicit import of a module
// already pulled in transitively promotes it.
func (r *ModuleResolver) MakeExplicit() { r.transitive = false }

// Context resolves and caches module headers by import name.
type Context struct {
	paths   PathResolver
	headers HeaderReader

	resolvers map[string]*ModuleResolver
}

func NewContext(paths PathResolver, headers HeaderReader) *Context {
	return &Context{
		paths:     paths,
		headers:   headers,
		resolvers: make(map[string]*ModuleResolver),
	}
}

// ResolveModule returns the cached resolver for importName if one already
// exists — promoting it via MakeExplicit if it was transitive and this
// request isn't — or loads the module fresh otherwise.
func (c *Context) ResolveModule(importName string, transitive bool) (*ModuleResolver, error) {
	if r, ok := c.resolvers[importName]; ok {
		if r.IsTransitive() && !transitive {
			r.MakeExplicit()
		}
		return r, nil
	}

	fsPath := toFSPath(importName)
	resolvedPath, err := c.paths.Resolve(fsPath)
	if err != nil {
		return nil, err
	}

	header, err := c.headers.ReadHeader(resolvedPath)
	if err != nil {
		return nil, err
	}

	r := &ModuleResolver{Header: header, transitive: transitive}
	c.resolvers[importName] = r
	return r, nil
}

// GetResolver returns the already-resolved module for importName, failing
// if ResolveModule was never called for it.
func (c *Context) GetResolver(importName string) (*ModuleResolver, error) {
	r, ok := c.resolvers[importName]
	if !ok {
		return nil, fmt.Errorf("cannot resolve module: '%s' not loaded", importName)
	}
	return r, nil
}

// ResolveName validates that name's on-disk module exists (via the path
// resolver) and returns it unchanged, for diagnostics that want to report
// a module name only after confirming it's loadable.
func (c *Context) ResolveName(name string) (string, error) {
	if _, err := c.paths.Resolve(toFSPath(name)); err != nil {
		return "", err
	}
	return name, nil
}

func toFSPath(importName string) string {
	fsPath := strings.ReplaceAll(importName, PackageDelimiter, "/")
	if path.Ext(fsPath) == "" {
		fsPath += ModuleExt
	}
	return fsPath
}
