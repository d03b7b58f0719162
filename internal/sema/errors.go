package sema

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
)

// RedefinitionError reports that Name of Kind was already declared at
// OriginalLoc when a second declaration was attempted at Loc.
type RedefinitionError struct {
	Name        string
	Kind        SymbolKind
	Loc         ast.SourceLoc
	OriginalLoc ast.SourceLoc
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("%s: redeclaration of '%s' (was already defined at %s)",
		e.Loc, e.Name, e.OriginalLoc)
}
