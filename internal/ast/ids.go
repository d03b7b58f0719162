package ast

// Scopes, symbols and types are all modeled as arena indices rather than
// pointers. This keeps the AST free of reference cycles (scopes form a tree
// with parent back-edges; symbols and types are looked up by id from tables
// owned by the semantic environment and type context) and makes every later
// phase trivially serializable, since ids are just integers.
//
// The zero value of each id type is a valid id (the first one an arena
// hands out), so "unset" is marked with the package-level Invalid
// constants (-1) and tested with IsValid.

// ScopeID identifies a scope in the semantic environment's scope arena.
type ScopeID int32

// SymbolID identifies a symbol in the semantic environment's symbol table.
type SymbolID int32

// TypeID identifies a type descriptor in the type context.
type TypeID int32

const (
	InvalidScopeID  ScopeID  = -1
	InvalidSymbolID SymbolID = -1
	InvalidTypeID   TypeID   = -1
)

func (id ScopeID) IsValid() bool  { return id >= 0 }
func (id SymbolID) IsValid() bool { return id >= 0 }
func (id TypeID) IsValid() bool   { return id >= 0 }
