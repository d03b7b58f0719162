// Package sema implements the shared semantic environment that later
// compiler phases (name resolution, type checking, constant evaluation,
// macro expansion) all read and write: a scope tree, a symbol table keyed
// by opaque ids, and an attribute map attached to symbols by directives.
package sema

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
)

// SymbolKind classifies an entry in the symbol table.
//
// module_ is kept with its trailing underscore (rather than renamed to
// "Module") to mirror the source naming and avoid colliding with the Go
// keyword-adjacent word "module" reading oddly next to "Function"/"Type".
type SymbolKind uint8

const (
	SymbolModule SymbolKind = iota
	SymbolConstant
	SymbolFunction
	SymbolType
	SymbolVariable
	SymbolMacro
	SymbolMacroArgument
)

var symbolKindNames = [...]string{
	SymbolModule:        "module_",
	SymbolConstant:      "constant",
	SymbolFunction:      "function",
	SymbolType:          "struct",
	SymbolVariable:      "variable",
	SymbolMacro:         "macro",
	SymbolMacroArgument: "macro_argument",
}

func (k SymbolKind) String() string {
	if int(k) < len(symbolKindNames) {
		return symbolKindNames[k]
	}
	return fmt.Sprintf("symbol-kind(%d)", uint8(k))
}

// CurrentModuleID marks a symbol as declared by the module currently being
// compiled, as opposed to one pulled in transitively through an import.
const CurrentModuleID = ast.InvalidSymbolID

// Reference points back to whatever declared a symbol: either an AST node
// in the module being compiled, or an entry pulled in from an imported
// module's exported-symbol table. Exactly one of the two is non-nil.
type Reference struct {
	Node     ast.Node
	Imported *ExportedSymbol
}

// ExportedSymbol is the subset of an imported module's symbol-table entry
// that a dependent module needs in order to bind against it without
// re-parsing or re-checking the exporting module.
type ExportedSymbol struct {
	Name          string
	QualifiedName string
	Kind          SymbolKind
	TypeID        ast.TypeID
}

// SymbolInfo is a fully-collected symbol-table entry.
type SymbolInfo struct {
	Name          string
	QualifiedName string
	Kind          SymbolKind
	Loc           ast.SourceLoc
	Scope         ast.ScopeID

	// DeclaringModule is CurrentModuleID for symbols declared in the module
	// currently being compiled, or the symbol id of the import statement
	// that pulled the symbol in transitively otherwise.
	DeclaringModule ast.SymbolID

	Reference Reference
}
