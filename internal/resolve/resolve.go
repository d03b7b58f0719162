// Package resolve implements the compiler's import- and name-resolution
// passes: materializing a dependency module's exported symbols into the
// importing unit's environment, and binding identifier-bearing AST nodes to
// the symbol ids collection produced.
package resolve

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/collect"
	"github.com/slang-lang/slang/internal/loader"
	"github.com/slang-lang/slang/internal/sema"
)

// Context drives both import and name resolution against a shared
// semantic environment.
type Context struct {
	Env *sema.Env
}

func NewContext(env *sema.Env) *Context {
	return &Context{Env: env}
}

// Resolve looks up name (qualified or unqualified) of the given kind,
// starting from scopeID and walking outward. It is a thin pass-through to
// sema.Env.GetSymbolID, kept as its own method so call sites read as
// resolution steps rather than reaching into the environment directly.
func (c *Context) Resolve(name string, kind sema.SymbolKind, scopeID ast.ScopeID) (ast.SymbolID, bool) {
	return c.Env.GetSymbolID(name, kind, scopeID)
}

// ResolveImports materializes, for every module_import symbol in the
// environment, a synthetic symbol for each of that module's exports. It
// builds these in a scratch environment first (mirroring the loader's own
// global scope, so qualified-name declaration can reuse collect.Context
// unmodified) and only then merges the result into Env, so that a failure
// partway through leaves Env untouched.
//
// Re-running ResolveImports on unchanged input is a no-op: every symbol it
// would add already exists, so the merge step for each is a match rather
// than an insert. This makes it safe to call again after macro expansion
// grafts new import statements into the tree.
func (c *Context) ResolveImports(ld *loader.Context) error {
	scratch := sema.NewEnv()
	importer := collect.NewContext(scratch, nil)
	if _, err := importer.PushScope("<global>", ast.SourceLoc{}); err != nil {
		return err
	}
	if importer.CurrentScope() != collect.GlobalScopeID {
		return fmt.Errorf("resolve: unexpected scope id for import-resolution global scope")
	}

	// Seed the scratch environment's id counter so symbols minted there
	// continue Env's own numbering rather than starting back at zero; this
	// is what lets mergeImportEnv adopt them by id without collision.
	scratch.SetNextSymbolID(c.Env.NextSymbolID())

	for _, id := range c.moduleImportSymbolIDs() {
		info := c.Env.Symbol(id)
		transitive := c.Env.IsTransitiveImport(id)

		resolver, err := ld.ResolveModule(info.QualifiedName, transitive)
		if err != nil {
			return &loader.ResolveError{Loc: info.Loc, Msg: err.Error()}
		}

		for _, export := range resolver.Header.Exports {
			qualified := info.QualifiedName + "::" + export.Name
			if _, err := importer.Declare(export.Name, qualified, export.Kind, info.Loc, id, transitive, sema.Reference{
				Imported: &sema.ExportedSymbol{Name: export.Name, QualifiedName: qualified, Kind: export.Kind, TypeID: export.Type},
			}); err != nil {
				return err
			}
		}
	}

	return c.mergeImportEnv(scratch)
}

// moduleImportSymbolIDs returns, in ascending id order for determinism, the
// ids of every symbol of kind SymbolModule currently in Env.
func (c *Context) moduleImportSymbolIDs() []ast.SymbolID {
	var ids []ast.SymbolID
	c.Env.EachSymbol(func(id ast.SymbolID, info *sema.SymbolInfo) {
		if info.Kind == sema.SymbolModule {
			ids = append(ids, id)
		}
	})
	return ids
}

// mergeImportEnv folds every symbol collected into scratch back into Env's
// global scope. A name already present in Env with the same qualified name
// is a no-op merge (other than possibly clearing its transitive flag); a
// name present with a *different* qualified name is a genuine conflict.
func (c *Context) mergeImportEnv(scratch *sema.Env) error {
	var ids []ast.SymbolID
	scratch.EachSymbol(func(id ast.SymbolID, _ *sema.SymbolInfo) { ids = append(ids, id) })

	for _, id := range ids {
		info := scratch.Symbol(id)

		if existingID, ok := c.Env.SymbolIDByLocalName(info.Name); ok {
			existing := c.Env.Symbol(existingID)
			if existing.QualifiedName != info.QualifiedName {
				return fmt.Errorf("%s: '%s': a symbol with the same name already exists in the symbol table (declared at %s)",
					info.Loc, info.QualifiedName, existing.Loc)
			}

			if c.Env.IsTransitiveImport(existingID) && !scratch.IsTransitiveImport(id) {
				c.Env.ClearTransitiveImport(existingID)
			}
			continue
		}

		c.Env.AdoptSymbol(id, *info)

		if scratch.IsTransitiveImport(id) {
			c.Env.MarkTransitiveImport(id)
		}
	}

	c.Env.SetNextSymbolID(scratch.NextSymbolID())

	return nil
}
