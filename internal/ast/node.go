package ast

import "fmt"

// NodeKind is the stable tag identifying one of the closed set of AST node
// shapes. It is never renumbered across a release because the same byte
// value is also the serialization tag written by Serialize (see
// serialize.go) — macro definition bodies are round-tripped through the
// module file using exactly this tag.
type NodeKind uint8

const (
	// Leaves.
	KindLiteral NodeKind = iota
	KindNull
	KindVariableRef
	KindTypeExpr

	// Structural.
	KindBlock
	KindFunction
	KindPrototype
	KindStructDef
	KindNamedInit
	KindNamedInitList
	KindAnonInitList
	KindArrayInit
	KindVarDecl
	KindConstDecl
	KindImport
	KindDirective
	KindReturn
	KindIf
	KindWhile
	KindBreak
	KindContinue

	// Operators.
	KindUnary
	KindBinary
	KindPostfix
	KindCast
	KindNew
	KindAccess
	KindNamespaceAccess
	KindSubscript
	KindCall
	KindMacroInvocation

	// Macro.
	KindMacroDef
	KindMacroBranch
	KindMacroExprList

	numKinds
)

func (k NodeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown-kind"
}

var kindNames = [numKinds]string{
	KindLiteral:         "literal",
	KindNull:             "null",
	KindVariableRef:      "variable-ref",
	KindTypeExpr:         "type-expr",
	KindBlock:            "block",
	KindFunction:         "function",
	KindPrototype:        "prototype",
	KindStructDef:        "struct-def",
	KindNamedInit:        "named-init",
	KindNamedInitList:    "named-init-list",
	KindAnonInitList:     "anon-init-list",
	KindArrayInit:        "array-init",
	KindVarDecl:          "var-decl",
	KindConstDecl:        "const-decl",
	KindImport:           "import",
	KindDirective:        "directive",
	KindReturn:           "return",
	KindIf:               "if",
	KindWhile:            "while",
	KindBreak:            "break",
	KindContinue:         "continue",
	KindUnary:            "unary",
	KindBinary:           "binary",
	KindPostfix:          "postfix",
	KindCast:             "cast",
	KindNew:              "new",
	KindAccess:           "access",
	KindNamespaceAccess:  "namespace-access",
	KindSubscript:        "subscript",
	KindCall:             "call",
	KindMacroInvocation:  "macro-invocation",
	KindMacroDef:         "macro-def",
	KindMacroBranch:      "macro-branch",
	KindMacroExprList:    "macro-expr-list",
}

// Node is implemented by every AST node shape. The set of implementers is
// closed and known at build time (see node.go's NodeKind enum), so a single
// Kind() accessor plus a per-kind switch is sufficient everywhere in this
// repository — no double-dispatch or visitor-pattern virtual tables.
type Node interface {
	// Kind returns the node's stable kind tag.
	Kind() NodeKind

	// Loc returns the node's source location.
	Loc() SourceLoc

	// Children returns this node's direct children in a fixed, kind-specific
	// order. A nil child must never appear in the returned slice.
	Children() []Node

	// Clone returns a deep, independently-owned copy of the node and its
	// entire subtree. Used by macro expansion and constant folding, which
	// rewrite the tree by returning new owned subtrees rather than mutating
	// shared ones in place.
	Clone() Node

	String() string

	// base exposes the annotation fields shared by every node kind so that
	// generic code (the visitor, the type checker's annotation pass) doesn't
	// need a type switch just to read or set them.
	base() *Base
}

// Base holds the fields every node carries regardless of kind: its source
// location and the two annotations later phases attach to it (owning scope,
// inferred type). Every concrete node type embeds Base.
type Base struct {
	Location SourceLoc
	ScopeID  ScopeID
	TypeID   TypeID
}

func (b *Base) base() *Base   { return b }
func (b *Base) Loc() SourceLoc { return b.Location }

func newBase(loc SourceLoc) Base {
	return Base{Location: loc, ScopeID: InvalidScopeID, TypeID: InvalidTypeID}
}

// ScopeOf and SetScopeOf read/write the owning-scope annotation. Collection
// records it on the scope-introducing nodes (blocks, prototypes, function
// bodies, struct definitions, macro branches); name resolution records it
// on the other nodes it walks.
func ScopeOf(n Node) ScopeID        { return n.base().ScopeID }
func SetScopeOf(n Node, id ScopeID) { n.base().ScopeID = id }

// TypeOf and SetTypeOf read/write the inferred-type annotation the type
// checker records on every node whose type it computes (spec §4.F, testable
// property #2).
func TypeOf(n Node) TypeID        { return n.base().TypeID }
func SetTypeOf(n Node, id TypeID) { n.base().TypeID = id }

// requireNonNilChildren panics with an internal-error message identifying
// the offending parent if any child in the slice is nil. Spec §4.A: "a null
// child is a hard error" for the generic visitor; node constructors call
// this eagerly so the error surfaces at construction time instead of deep
// inside a later traversal.
func requireNonNilChildren(parent Node, children ...Node) {
	for i, c := range children {
		if c == nil {
			panic(fmt.Sprintf("internal error: nil child at index %d of %s node", i, parent.Kind()))
		}
	}
}
