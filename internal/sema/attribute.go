package sema

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
)

// AttributeKind enumerates the directives a symbol can carry, attached via
// `@directive(...)` syntax ahead of a declaration and recorded against the
// declared symbol's id so later phases (type checking, codegen) can query
// them without re-walking the AST.
type AttributeKind uint8

const (
	AttributeAllowCast AttributeKind = iota
	AttributeBuiltin
	AttributeDisable
	AttributeNative
)

var attributeKindNames = [...]string{
	AttributeAllowCast: "allow_cast",
	AttributeBuiltin:   "builtin",
	AttributeDisable:   "disable",
	AttributeNative:    "native",
}

func (k AttributeKind) String() string {
	if int(k) < len(attributeKindNames) {
		return attributeKindNames[k]
	}
	return fmt.Sprintf("attribute-kind(%d)", uint8(k))
}

// AttributeKindFromName resolves a directive's source spelling to its kind.
func AttributeKindFromName(name string) (AttributeKind, bool) {
	for i, n := range attributeKindNames {
		if n == name {
			return AttributeKind(i), true
		}
	}
	return 0, false
}

// AttributePayload carries an optional key/value argument list, e.g.
// `@disable(name: "const_eval")`. A nil payload means the attribute takes
// no arguments.
type AttributePayload []KeyValue

// KeyValue is a single `key: value` attribute argument.
type KeyValue struct {
	Key   string
	Value string
}

// AttributeInfo records one directive attached to a symbol, plus the
// location of the directive itself (distinct from the symbol's own
// location) so diagnostics can point at the `@...` clause.
type AttributeInfo struct {
	Kind    AttributeKind
	Loc     ast.SourceLoc
	Payload AttributePayload
}
