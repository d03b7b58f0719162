package sema

import "github.com/slang-lang/slang/internal/ast"

// Scope is one node of the scope tree: a name introduces at most one symbol
// per SymbolKind within a scope (a variable and a struct may share a name,
// for instance, but two variables may not).
type Scope struct {
	Parent ast.ScopeID
	Name   string
	Loc    ast.SourceLoc

	// bindings maps a local name to the symbol id declared for it, per kind.
	bindings map[string]map[SymbolKind]ast.SymbolID
}

func newScope(parent ast.ScopeID, name string, loc ast.SourceLoc) *Scope {
	return &Scope{
		Parent:   parent,
		Name:     name,
		Loc:      loc,
		bindings: make(map[string]map[SymbolKind]ast.SymbolID),
	}
}

// Bind records that name resolves to id within this scope, for the given
// kind. It returns false without modifying the scope if name is already
// bound to a different symbol for that kind (a redefinition).
func (s *Scope) Bind(name string, kind SymbolKind, id ast.SymbolID) bool {
	byKind, ok := s.bindings[name]
	if !ok {
		byKind = make(map[SymbolKind]ast.SymbolID)
		s.bindings[name] = byKind
	}
	if existing, taken := byKind[kind]; taken {
		return existing == id
	}
	byKind[kind] = id
	return true
}

// Lookup returns the symbol id bound to name for kind within this scope
// only, without walking to the parent.
func (s *Scope) Lookup(name string, kind SymbolKind) (ast.SymbolID, bool) {
	byKind, ok := s.bindings[name]
	if !ok {
		return ast.InvalidSymbolID, false
	}
	id, ok := byKind[kind]
	return id, ok
}
