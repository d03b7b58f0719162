package ast

import "fmt"

// LiteralKind selects which field of a Literal node is meaningful.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralString
)

// Literal is a leaf node holding a decoded literal value straight from the
// token the parser produced for it.
type Literal struct {
	Base
	LitKind LiteralKind
	IntVal  int32
	FltVal  float32
	StrVal  string
}

func NewLiteral(loc SourceLoc, tok Token) *Literal {
	lit := &Literal{Base: newBase(loc)}
	if tok.Value == nil {
		return lit
	}
	switch tok.Kind {
	case TokIntLiteral:
		lit.LitKind = LiteralInt
		lit.IntVal = tok.Value.Int
	case TokFloatLiteral:
		lit.LitKind = LiteralFloat
		lit.FltVal = tok.Value.Float
	case TokStringLiteral:
		lit.LitKind = LiteralString
		lit.StrVal = tok.Value.Str
	}
	return lit
}

func (n *Literal) Kind() NodeKind  { return KindLiteral }
func (n *Literal) Children() []Node { return nil }
func (n *Literal) Clone() Node {
	c := *n
	return &c
}
func (n *Literal) String() string {
	switch n.LitKind {
	case LiteralInt:
		return fmt.Sprintf("%d", n.IntVal)
	case LiteralFloat:
		return fmt.Sprintf("%gf", n.FltVal)
	default:
		return fmt.Sprintf("%q", n.StrVal)
	}
}

// NullLiteral is the `null` leaf. Its type is the built-in @null type,
// coercible to any reference type (spec §4.F).
type NullLiteral struct {
	Base
}

func NewNullLiteral(loc SourceLoc) *NullLiteral { return &NullLiteral{Base: newBase(loc)} }

func (n *NullLiteral) Kind() NodeKind   { return KindNull }
func (n *NullLiteral) Children() []Node { return nil }
func (n *NullLiteral) Clone() Node {
	c := *n
	return &c
}
func (n *NullLiteral) String() string { return "null" }

// VariableRef is a reference to a name: a variable, constant, function,
// macro-argument or (pre-resolution) an ambiguous identifier. Name
// resolution fills in SymbolID; before that phase runs it is InvalidSymbolID.
type VariableRef struct {
	Base
	Name     string
	SymbolID SymbolID
}

func NewVariableRef(loc SourceLoc, name string) *VariableRef {
	return &VariableRef{Base: newBase(loc), Name: name, SymbolID: InvalidSymbolID}
}

func (n *VariableRef) Kind() NodeKind   { return KindVariableRef }
func (n *VariableRef) Children() []Node { return nil }
func (n *VariableRef) Clone() Node {
	c := *n
	return &c
}
func (n *VariableRef) String() string { return n.Name }

// TypeExprKind distinguishes the handful of shapes a type annotation can
// take in source: a bare name, an array-of another type expression.
type TypeExprKind uint8

const (
	TypeExprName TypeExprKind = iota
	TypeExprArray
)

// TypeExpr is the syntactic spelling of a type (`i32`, `[i32]`, `Foo`, …)
// before the type system resolves it to a concrete TypeID.
type TypeExpr struct {
	Base
	ExprKind TypeExprKind
	Name     string    // valid when ExprKind == TypeExprName
	Elem     *TypeExpr // valid when ExprKind == TypeExprArray
	Resolved TypeID
}

func NewNamedTypeExpr(loc SourceLoc, name string) *TypeExpr {
	return &TypeExpr{Base: newBase(loc), ExprKind: TypeExprName, Name: name, Resolved: InvalidTypeID}
}

func NewArrayTypeExpr(loc SourceLoc, elem *TypeExpr) *TypeExpr {
	requireNonNilChildren(&TypeExpr{Base: newBase(loc)}, elem)
	return &TypeExpr{Base: newBase(loc), ExprKind: TypeExprArray, Elem: elem, Resolved: InvalidTypeID}
}

func (n *TypeExpr) Kind() NodeKind { return KindTypeExpr }
func (n *TypeExpr) Children() []Node {
	if n.ExprKind == TypeExprArray {
		return []Node{n.Elem}
	}
	return nil
}
func (n *TypeExpr) Clone() Node {
	c := *n
	if n.Elem != nil {
		c.Elem = n.Elem.Clone().(*TypeExpr)
	}
	return &c
}
func (n *TypeExpr) String() string {
	if n.ExprKind == TypeExprArray {
		return "[" + n.Elem.String() + "]"
	}
	return n.Name
}
