// Package collect implements the compiler's first AST walk: it populates a
// sema.Env's scope tree and symbol table with every name a module declares
// (blocks, functions, structs, macros, variables, constants, imports) but
// resolves nothing — identifier references are bound to symbols later, by
// internal/resolve.
package collect

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/sema"
)

// GlobalScopeID is the scope id assigned to a module's top-level scope. The
// AST always has a block at its root, so the first scope pushed during
// collection becomes the global scope and is guaranteed to receive this id.
const GlobalScopeID ast.ScopeID = 0

// Error is the general collection error, covering pushes/pops against an
// inconsistent scope stack; name clashes instead surface as a
// *sema.RedefinitionError.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// Context drives collection against a sema.Env, tracking the current scope
// as a stack (modeled as scope parent pointers rather than an explicit
// slice, mirroring the environment's own scope tree).
type Context struct {
	Env *sema.Env

	// reference is an optional fallback context consulted by
	// CanonicalScopeName when a scope id isn't in this context's own
	// environment — used when collecting a dependency's re-exported
	// symbols against a temporary environment chained to the importer's.
	reference *Context

	currentScope ast.ScopeID
	anonScopeNum int
}

// NewContext creates a collection context over env. reference may be nil;
// pass a non-nil reference when this context's scopes may need to resolve
// against an existing chain of scopes owned by another context.
func NewContext(env *sema.Env, reference *Context) *Context {
	env.GlobalScopeID = GlobalScopeID
	return &Context{
		Env:          env,
		reference:    reference,
		currentScope: ast.InvalidScopeID,
	}
}

func (c *Context) generateScopeName() string {
	name := fmt.Sprintf("scope#%d", c.anonScopeNum)
	c.anonScopeNum++
	return name
}

func (c *Context) hasScope(id ast.ScopeID) bool {
	return c.Env.Scope(id) != nil
}

func (c *Context) createScope(parent ast.ScopeID, name string, loc ast.SourceLoc) (ast.ScopeID, error) {
	if parent == ast.InvalidScopeID && c.Env.HasAnyScope() {
		return ast.InvalidScopeID, &Error{Msg: "scope table not empty"}
	}
	return c.Env.NewScope(parent, name, loc), nil
}

// PushScope creates a new child of the current scope and makes it current.
// An empty name generates one from the current anonymous-scope counter
// ("scope#0", "scope#1", ...); functions, structs and macros pass their own
// name instead.
func (c *Context) PushScope(name string, loc ast.SourceLoc) (ast.ScopeID, error) {
	if name == "" {
		name = c.generateScopeName()
	}
	id, err := c.createScope(c.currentScope, name, loc)
	if err != nil {
		return ast.InvalidScopeID, err
	}
	c.currentScope = id
	return id, nil
}

// PushExistingScope makes the already-created scope id current, without
// creating a new one. Used when re-entering a scope collected in an
// earlier pass.
func (c *Context) PushExistingScope(id ast.ScopeID) error {
	if id == ast.InvalidScopeID {
		return &Error{Msg: "cannot enter invalid scope"}
	}
	if !c.hasScope(id) {
		return &Error{Msg: fmt.Sprintf("cannot enter unknown scope '%d'", id)}
	}
	c.currentScope = id
	return nil
}

// PopScope makes the current scope's parent current.
func (c *Context) PopScope() error {
	scope := c.Env.Scope(c.currentScope)
	if scope == nil {
		return &Error{Msg: fmt.Sprintf("cannot find scope for id '%d'", c.currentScope)}
	}
	c.currentScope = scope.Parent
	if c.currentScope != ast.InvalidScopeID && !c.hasScope(c.currentScope) {
		if c.reference == nil || !c.reference.hasScope(c.currentScope) {
			return &Error{Msg: "invalid scope after pop"}
		}
	}
	return nil
}

// CurrentScope returns the scope currently being collected into.
func (c *Context) CurrentScope() ast.ScopeID { return c.currentScope }

// GetScope returns the scope for id, consulting the reference context if
// this context doesn't know about id itself.
func (c *Context) GetScope(id ast.ScopeID) (*sema.Scope, error) {
	if id == ast.InvalidScopeID {
		return nil, &Error{Msg: "invalid scope id"}
	}
	if s := c.Env.Scope(id); s != nil {
		return s, nil
	}
	if c.reference != nil {
		return c.reference.GetScope(id)
	}
	return nil, &Error{Msg: "scope not found in scope table"}
}

// CanonicalScopeName builds the fully qualified name of scope id by
// joining it with every ancestor's name, the global scope's own name
// included, falling back to the reference context for scope ids
// collected elsewhere.
func (c *Context) CanonicalScopeName(id ast.ScopeID) (string, error) {
	if !c.hasScope(id) {
		if c.reference == nil {
			return "", &Error{Msg: "scope not found in scope table"}
		}
		return c.reference.CanonicalScopeName(id)
	}

	s := c.Env.Scope(id)
	name := s.Name

	for next := s.Parent; next != ast.InvalidScopeID && c.hasScope(next); {
		parent := c.Env.Scope(next)
		name = qualifiedName(parent.Name, name)
		next = parent.Parent
	}

	last := s.Parent
	for last != ast.InvalidScopeID && c.hasScope(last) {
		last = c.Env.Scope(last).Parent
	}
	if last != ast.InvalidScopeID {
		if c.reference == nil {
			return "", &Error{Msg: "scope not found in scope table"}
		}
		parentName, err := c.reference.CanonicalScopeName(last)
		if err != nil {
			return "", err
		}
		return qualifiedName(parentName, name), nil
	}

	return name, nil
}

// Declare declares a symbol in the current scope. See sema.Env.Declare for
// the redefinition/demotion semantics.
func (c *Context) Declare(name, qualifiedNameStr string, kind sema.SymbolKind, loc ast.SourceLoc, declaringModule ast.SymbolID, transitive bool, ref sema.Reference) (ast.SymbolID, error) {
	res, err := c.Env.Declare(c.currentScope, sema.SymbolInfo{
		Name:            name,
		QualifiedName:   qualifiedNameStr,
		Kind:            kind,
		Loc:             loc,
		DeclaringModule: declaringModule,
		Reference:       ref,
	}, transitive)
	if err != nil {
		return ast.InvalidSymbolID, err
	}
	return res.ID, nil
}

// DeclareExternal declares qualifiedName directly into the global scope,
// used when a namespace reference is discovered to require an import that
// wasn't written explicitly. Returns true if this
// added a new module_import symbol requiring a fresh import-resolution
// pass.
func (c *Context) DeclareExternal(qualifiedNameStr string, kind sema.SymbolKind, loc ast.SourceLoc) bool {
	_, isNew := c.Env.DeclareExternal(GlobalScopeID, qualifiedNameStr, kind, loc)
	return isNew
}

// HasSymbol reports whether name (qualified or unqualified) is already
// visible as a symbol of kind, per the same lookup rule as
// sema.Env.GetSymbolID.
func (c *Context) HasSymbol(name string, kind sema.SymbolKind) bool {
	_, ok := c.Env.GetSymbolID(name, kind, c.currentScope)
	return ok
}

func qualifiedName(path, name string) string {
	return path + "::" + name
}
