package sema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/slang-lang/slang/internal/ast"
)

// String renders a diagnostic dump of the environment's scope tree, symbol
// table, transitive imports and type bindings. Intended for -v/debug
// tracing, not for diagnostics shown to end users.
func (e *Env) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Semantic Environment ---\n    Global scope id: %d\n", e.GlobalScopeID)

	if len(e.scopes) > 0 {
		b.WriteString("\n    Scope Map\n    Scope id    Parent id    Name\n    ----------------------------------\n")
		for _, id := range sortedScopeIDs(e.scopes) {
			s := e.scopes[id]
			name := s.Name
			if s.Parent == ast.InvalidScopeID {
				name += " [global]"
			}
			fmt.Fprintf(&b, "    %8d    %9d    %s\n", id, s.Parent, name)
		}

		for _, id := range sortedScopeIDs(e.scopes) {
			s := e.scopes[id]
			fmt.Fprintf(&b, "\n    Bindings for scope %d\n    Symbol id                    Type    Name\n    ---------------------------------------------\n", id)
			names := make([]string, 0, len(s.bindings))
			for n := range s.bindings {
				names = append(names, n)
			}
			sort.Strings(names)
			for _, n := range names {
				kinds := make([]int, 0, len(s.bindings[n]))
				for k := range s.bindings[n] {
					kinds = append(kinds, int(k))
				}
				sort.Ints(kinds)
				for _, k := range kinds {
					symID := s.bindings[n][SymbolKind(k)]
					fmt.Fprintf(&b, "    %9d    %20s    %s\n", symID, SymbolKind(k), n)
				}
			}
		}
	}

	if len(e.symbols) > 0 {
		b.WriteString("\n    Symbol Table\n    Symbol id                    Type    Scope id    Decl. Mod.    Name\n    -----------------------------------------------------------------------------------\n")
		for _, id := range sortedSymbolIDs(e.symbols) {
			info := e.symbols[id]
			fmt.Fprintf(&b, "    %9d    %20s    %8d    %10d    %s (%s)\n",
				id, info.Kind, info.Scope, info.DeclaringModule, info.Name, info.QualifiedName)
		}
	}

	if len(e.TransitiveImports) > 0 {
		b.WriteString("\n    Transitive Imports\n    Symbol id\n    -------------\n")
		ids := make([]ast.SymbolID, 0, len(e.TransitiveImports))
		for id := range e.TransitiveImports {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(&b, "    %9d\n", id)
		}
	}

	if len(e.typeMap) > 0 {
		b.WriteString("\n    Type map\n    Symbol id    Type id\n    ------------------------\n")
		ids := make([]ast.SymbolID, 0, len(e.typeMap))
		for id := range e.typeMap {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		for _, id := range ids {
			fmt.Fprintf(&b, "    %9d    %7d\n", id, e.typeMap[id])
		}
	}

	return b.String()
}

func sortedScopeIDs(m map[ast.ScopeID]*Scope) []ast.ScopeID {
	ids := make([]ast.ScopeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedSymbolIDs(m map[ast.SymbolID]*SymbolInfo) []ast.SymbolID {
	ids := make([]ast.SymbolID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
