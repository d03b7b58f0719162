package sema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slang-lang/slang/internal/ast"
)

// Env is the semantic environment threaded through collection, import
// resolution, name resolution, type checking, constant evaluation and
// macro expansion. It owns the scope tree, the symbol table, the
// transitive-import set and the symbol-to-type binding map, and the
// attribute map populated by directives.
//
// NewEnv leaves GlobalScopeID at ast.InvalidScopeID until the collection
// phase creates the module's top-level scope and assigns it. NewEnv also
// allocates the internal maps; a zero-value Env has nil maps and cannot
// declare scopes or symbols.
type Env struct {
	GlobalScopeID ast.ScopeID

	scopes  map[ast.ScopeID]*Scope
	symbols map[ast.SymbolID]*SymbolInfo

	nextScopeID  ast.ScopeID
	nextSymbolID ast.SymbolID

	// TransitiveImports records every symbol id pulled in indirectly through
	// an imported module's own imports, so diagnostics can distinguish a
	// directly-imported name from one merely reachable through re-export.
	TransitiveImports map[ast.SymbolID]struct{}

	// typeMap binds a symbol to the type the type system resolved for it.
	typeMap map[ast.SymbolID]ast.TypeID

	attributes map[ast.SymbolID][]AttributeInfo

	// CurrentFunctionReturnType and CurrentFunctionName track the function
	// body currently being checked, so `return` statements can validate
	// against the enclosing signature without threading it through every
	// call.
	CurrentFunctionReturnType *ast.TypeID
	CurrentFunctionName       *string
}

// NewEnv returns an environment with no scopes or symbols. Call NewScope
// once before binding anything, and assign its id to GlobalScopeID.
func NewEnv() *Env {
	return &Env{
		GlobalScopeID:     ast.InvalidScopeID,
		scopes:            make(map[ast.ScopeID]*Scope),
		symbols:           make(map[ast.SymbolID]*SymbolInfo),
		TransitiveImports: make(map[ast.SymbolID]struct{}),
		typeMap:           make(map[ast.SymbolID]ast.TypeID),
		attributes:        make(map[ast.SymbolID][]AttributeInfo),
	}
}

// NewScope creates a scope with the given parent (ast.InvalidScopeID for a
// root scope, i.e. the module's global scope) and returns its id.
func (e *Env) NewScope(parent ast.ScopeID, name string, loc ast.SourceLoc) ast.ScopeID {
	id := e.nextScopeID
	e.nextScopeID++
	e.scopes[id] = newScope(parent, name, loc)
	return id
}

// Scope returns the scope for id, or nil if id is not known to this
// environment.
func (e *Env) Scope(id ast.ScopeID) *Scope {
	return e.scopes[id]
}

// HasAnyScope reports whether any scope has been created yet. Collection
// uses this to guard against creating a second root (parentless) scope.
func (e *Env) HasAnyScope() bool {
	return len(e.scopes) > 0
}

// DeclareSymbol assigns a fresh id to info and binds info.Name to it within
// info.Scope for info.Kind. It returns ast.InvalidSymbolID and false if the
// name is already bound to a different symbol of the same kind in that
// scope (a redefinition the caller should report). It never demotes a
// transitive import out of the transitive set; callers that need that
// behavior (collection of explicit imports) should call Declare directly.
func (e *Env) DeclareSymbol(info SymbolInfo) (ast.SymbolID, bool) {
	scope := e.scopes[info.Scope]
	if scope == nil {
		panic(fmt.Sprintf("sema: cannot find scope for id '%d'", info.Scope))
	}

	id := e.nextSymbolID
	if !scope.Bind(info.Name, info.Kind, id) {
		return ast.InvalidSymbolID, false
	}
	e.nextSymbolID++

	stored := info
	e.symbols[id] = &stored
	return id, true
}

// DeclareResult is returned by Declare.
type DeclareResult struct {
	ID ast.SymbolID

	// Demoted is true when name/kind was already bound as a transitive
	// import and this call, being a non-transitive (explicit) declaration
	// of the same name, demoted the existing symbol out of the transitive
	// set rather than creating a new one.
	Demoted bool
}

// Declare binds info.Name/info.Kind in scopeID to a new symbol, unless the
// name is already bound there.
//
// If it is already bound and this declaration is non-transitive while the
// existing symbol is a transitive import, the existing symbol is demoted
// out of the transitive set and reused (no new symbol is created) — an
// explicit `import` always wins over one merely inherited from a
// dependency. Otherwise the name clash is a genuine redefinition and a
// *RedefinitionError is returned, naming both source locations.
func (e *Env) Declare(scopeID ast.ScopeID, info SymbolInfo, transitive bool) (DeclareResult, error) {
	scope := e.scopes[scopeID]
	if scope == nil {
		panic(fmt.Sprintf("sema: cannot find scope for id '%d'", scopeID))
	}

	if existing, ok := scope.Lookup(info.Name, info.Kind); ok {
		if !transitive && e.IsTransitiveImport(existing) {
			delete(e.TransitiveImports, existing)
			return DeclareResult{ID: existing, Demoted: true}, nil
		}

		original := e.symbols[existing]
		return DeclareResult{}, &RedefinitionError{
			Name:        info.Name,
			Kind:        info.Kind,
			Loc:         info.Loc,
			OriginalLoc: original.Loc,
		}
	}

	id := e.nextSymbolID
	e.nextSymbolID++
	scope.Bind(info.Name, info.Kind, id)

	stored := info
	stored.Scope = scopeID
	e.symbols[id] = &stored

	if transitive {
		e.MarkTransitiveImport(id)
	}

	return DeclareResult{ID: id}, nil
}

// DeclareExternal binds qualifiedName directly (rather than a local name)
// within globalScope's bindings, for symbols introduced by namespace
// references the collector encounters before import resolution has run.
// Returns the
// symbol id and true if a new declaration was made; returns the existing
// id and false if qualifiedName/kind was already bound — demoting it out
// of the transitive set along the way, since rediscovering a namespace
// reference makes it as good as an explicit import.
func (e *Env) DeclareExternal(globalScope ast.ScopeID, qualifiedName string, kind SymbolKind, loc ast.SourceLoc) (ast.SymbolID, bool) {
	scope := e.scopes[globalScope]
	if scope == nil {
		panic(fmt.Sprintf("sema: cannot find scope for id '%d'", globalScope))
	}

	if existing, ok := scope.Lookup(qualifiedName, kind); ok {
		delete(e.TransitiveImports, existing)
		return existing, false
	}

	id := e.nextSymbolID
	e.nextSymbolID++
	scope.Bind(qualifiedName, kind, id)

	e.symbols[id] = &SymbolInfo{
		Name:            qualifiedName,
		QualifiedName:   qualifiedName,
		Kind:            kind,
		Loc:             loc,
		Scope:           globalScope,
		DeclaringModule: ast.InvalidSymbolID,
	}

	return id, true
}

// Symbol returns the symbol-table entry for id, or nil if unknown.
func (e *Env) Symbol(id ast.SymbolID) *SymbolInfo {
	return e.symbols[id]
}

// EachSymbol calls fn once per symbol table entry, in ascending id order.
func (e *Env) EachSymbol(fn func(id ast.SymbolID, info *SymbolInfo)) {
	ids := make([]ast.SymbolID, 0, len(e.symbols))
	for id := range e.symbols {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn(id, e.symbols[id])
	}
}

// AdoptSymbol inserts info into the global scope's bindings and the symbol
// table under the caller-supplied id, without allocating a fresh one. Used
// only when merging a scratch environment's symbols (built with ids seeded
// to continue this environment's own counter, see NextSymbolID/
// SetNextSymbolID) into this one.
func (e *Env) AdoptSymbol(id ast.SymbolID, info SymbolInfo) {
	scope := e.scopes[e.GlobalScopeID]
	if scope == nil {
		panic(fmt.Sprintf("sema: cannot find global scope for id '%d'", e.GlobalScopeID))
	}
	scope.Bind(info.Name, info.Kind, id)

	stored := info
	stored.Scope = e.GlobalScopeID
	e.symbols[id] = &stored
}

// NextSymbolID and SetNextSymbolID let a caller synchronize a scratch
// environment's id counter with this one's before declaring into the
// scratch environment, so that ids minted there can be adopted here
// without colliding with ids already in use.
func (e *Env) NextSymbolID() ast.SymbolID      { return e.nextSymbolID }
func (e *Env) SetNextSymbolID(id ast.SymbolID) { e.nextSymbolID = id }
func (e *Env) NextScopeID() ast.ScopeID        { return e.nextScopeID }
func (e *Env) SetNextScopeID(id ast.ScopeID)   { e.nextScopeID = id }

// ClearTransitiveImport removes id from the transitive-import set, if
// present. A no-op if id was never marked transitive.
func (e *Env) ClearTransitiveImport(id ast.SymbolID) {
	delete(e.TransitiveImports, id)
}

// GetSymbolID resolves name (qualified or unqualified) to a symbol id of
// the given kind, searching outward from scope id.
//
// A qualified name (one containing "::") is looked up by a linear scan of
// the whole symbol table for a matching QualifiedName, independent of
// scope or kind — mirroring env::get_symbol_id's qualified-name branch, for
// which the scope argument is meaningless since module-qualified names are
// globally unique.
//
// An unqualified name is resolved by walking the scope chain from id up
// through successive parents, checking each scope's own bindings before
// continuing outward; the first match for (name, kind) wins, giving inner
// scopes precedence over outer ones.
func (e *Env) GetSymbolID(name string, kind SymbolKind, id ast.ScopeID) (ast.SymbolID, bool) {
	if strings.Contains(name, "::") {
		return e.findQualified(name, nil)
	}

	for id != ast.InvalidScopeID {
		scope := e.scopes[id]
		if scope == nil {
			panic(fmt.Sprintf("sema: cannot find scope for id '%d'", id))
		}
		if symID, ok := scope.Lookup(name, kind); ok {
			return symID, true
		}
		id = scope.Parent
	}

	return ast.InvalidSymbolID, false
}

// GetSymbolIDByKind resolves a qualified or unqualified name to a symbol id
// of the given kind via a linear scan of the whole symbol table, without
// reference to any particular scope. Used when the caller has a fully
// qualified name (or an unqualified name known to live at module scope,
// such as a top-level import target) but no scope id to anchor the search.
func (e *Env) GetSymbolIDByKind(name string, kind SymbolKind) (ast.SymbolID, bool) {
	return e.findQualified(name, &kind)
}

// SymbolIDByLocalName returns the id of the first symbol (in ascending id
// order) whose local Name equals name, regardless of kind or qualified
// name. Used only by import-environment merging, which mirrors this exact,
// deliberately loose match from the original resolver.
func (e *Env) SymbolIDByLocalName(name string) (ast.SymbolID, bool) {
	ids := make([]ast.SymbolID, 0, len(e.symbols))
	for id := range e.symbols {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if e.symbols[id].Name == name {
			return id, true
		}
	}
	return ast.InvalidSymbolID, false
}

func (e *Env) findQualified(name string, kind *SymbolKind) (ast.SymbolID, bool) {
	// Deterministic iteration keeps diagnostics reproducible across runs;
	// map order is otherwise unspecified in Go.
	ids := make([]ast.SymbolID, 0, len(e.symbols))
	for symID := range e.symbols {
		ids = append(ids, symID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, symID := range ids {
		info := e.symbols[symID]
		if info.QualifiedName != name {
			continue
		}
		if kind != nil && info.Kind != *kind {
			continue
		}
		return symID, true
	}
	return ast.InvalidSymbolID, false
}

// BindType records that symbol id resolves to type t.
func (e *Env) BindType(id ast.SymbolID, t ast.TypeID) {
	e.typeMap[id] = t
}

// TypeOfSymbol returns the type bound to id, if any.
func (e *Env) TypeOfSymbol(id ast.SymbolID) (ast.TypeID, bool) {
	t, ok := e.typeMap[id]
	return t, ok
}

// AttachAttribute records that directive attrib applies to symbol id.
func (e *Env) AttachAttribute(id ast.SymbolID, attrib AttributeInfo) {
	e.attributes[id] = append(e.attributes[id], attrib)
}

// HasAttribute reports whether symbol id carries an attribute of kind.
func (e *Env) HasAttribute(id ast.SymbolID, kind AttributeKind) bool {
	for _, a := range e.attributes[id] {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// AttributePayloadFor returns the payload of the first attribute of kind
// attached to id, if any.
func (e *Env) AttributePayloadFor(id ast.SymbolID, kind AttributeKind) (AttributePayload, bool) {
	for _, a := range e.attributes[id] {
		if a.Kind == kind {
			return a.Payload, true
		}
	}
	return nil, false
}

// MarkTransitiveImport records that symbol id was pulled in indirectly
// through another module's imports rather than named directly in an
// import statement of the module being compiled.
func (e *Env) MarkTransitiveImport(id ast.SymbolID) {
	e.TransitiveImports[id] = struct{}{}
}

// IsTransitiveImport reports whether id was recorded via
// MarkTransitiveImport.
func (e *Env) IsTransitiveImport(id ast.SymbolID) bool {
	_, ok := e.TransitiveImports[id]
	return ok
}
