package ast

// BinaryOp identifies a binary operator's lexeme class. Precedence and
// associativity live with the external parser; only the operator identity
// matters here (internal/types and internal/constant dispatch on it).
type BinaryOp string

// UnaryOp identifies a prefix unary operator.
type UnaryOp string

// PostfixOp identifies a postfix operator: ++ or --.
type PostfixOp string

// Binary is a two-operand operator expression: arithmetic, bitwise, shift,
// comparison, logical, assignment and compound assignment all share this
// shape; internal/types and internal/codegen distinguish them by Op.
type Binary struct {
	Base
	Op  BinaryOp
	Lhs Node
	Rhs Node
}

func NewBinary(loc SourceLoc, op BinaryOp, lhs, rhs Node) *Binary {
	requireNonNilChildren(&Binary{Base: newBase(loc)}, lhs, rhs)
	return &Binary{Base: newBase(loc), Op: op, Lhs: lhs, Rhs: rhs}
}

func (n *Binary) Kind() NodeKind   { return KindBinary }
func (n *Binary) Children() []Node { return []Node{n.Lhs, n.Rhs} }
func (n *Binary) Clone() Node {
	c := *n
	c.Lhs = n.Lhs.Clone()
	c.Rhs = n.Rhs.Clone()
	return &c
}
func (n *Binary) String() string { return n.Lhs.String() + " " + string(n.Op) + " " + n.Rhs.String() }

// Unary is a single-operand prefix operator: -, !, ~, ++, --.
type Unary struct {
	Base
	Op      UnaryOp
	Operand Node
}

func NewUnary(loc SourceLoc, op UnaryOp, operand Node) *Unary {
	requireNonNilChildren(&Unary{Base: newBase(loc)}, operand)
	return &Unary{Base: newBase(loc), Op: op, Operand: operand}
}

func (n *Unary) Kind() NodeKind   { return KindUnary }
func (n *Unary) Children() []Node { return []Node{n.Operand} }
func (n *Unary) Clone() Node {
	c := *n
	c.Operand = n.Operand.Clone()
	return &c
}
func (n *Unary) String() string { return string(n.Op) + n.Operand.String() }

// Postfix is a post-increment/post-decrement applied to an lvalue.
type Postfix struct {
	Base
	Op      PostfixOp
	Operand Node
}

func NewPostfix(loc SourceLoc, operand Node, op PostfixOp) *Postfix {
	requireNonNilChildren(&Postfix{Base: newBase(loc)}, operand)
	return &Postfix{Base: newBase(loc), Op: op, Operand: operand}
}

func (n *Postfix) Kind() NodeKind   { return KindPostfix }
func (n *Postfix) Children() []Node { return []Node{n.Operand} }
func (n *Postfix) Clone() Node {
	c := *n
	c.Operand = n.Operand.Clone()
	return &c
}
func (n *Postfix) String() string { return n.Operand.String() + string(n.Op) }

// Cast is an explicit type conversion: `expr as Type`.
type Cast struct {
	Base
	Expr   Node
	Target *TypeExpr
}

func NewCast(loc SourceLoc, expr Node, target *TypeExpr) *Cast {
	requireNonNilChildren(&Cast{Base: newBase(loc)}, expr, target)
	return &Cast{Base: newBase(loc), Expr: expr, Target: target}
}

func (n *Cast) Kind() NodeKind   { return KindCast }
func (n *Cast) Children() []Node { return []Node{n.Expr} }
func (n *Cast) Clone() Node {
	c := *n
	c.Expr = n.Expr.Clone()
	c.Target = n.Target.Clone().(*TypeExpr)
	return &c
}
func (n *Cast) String() string { return n.Expr.String() + " as " + n.Target.String() }

// New allocates a struct or an array: `new Foo` or `new i32[n]`. Len is nil
// for a plain struct allocation.
type New struct {
	Base
	Type *TypeExpr
	Len  Node
}

func NewNew(loc SourceLoc, typ *TypeExpr, length Node) *New {
	requireNonNilChildren(&New{Base: newBase(loc)}, typ)
	return &New{Base: newBase(loc), Type: typ, Len: length}
}

func (n *New) Kind() NodeKind { return KindNew }
func (n *New) Children() []Node {
	if n.Len != nil {
		return []Node{n.Type, n.Len}
	}
	return []Node{n.Type}
}
func (n *New) Clone() Node {
	c := *n
	c.Type = n.Type.Clone().(*TypeExpr)
	if n.Len != nil {
		c.Len = n.Len.Clone()
	}
	return &c
}
func (n *New) String() string { return "new " + n.Type.String() }

// Access is a struct member access: `lhs.field`. The accessed struct's type
// is filled in by the type checker (LhsType).
type Access struct {
	Base
	Lhs     Node
	Field   string
	LhsType TypeID
}

func NewAccess(loc SourceLoc, lhs Node, field string) *Access {
	requireNonNilChildren(&Access{Base: newBase(loc)}, lhs)
	return &Access{Base: newBase(loc), Lhs: lhs, Field: field, LhsType: InvalidTypeID}
}

func (n *Access) Kind() NodeKind   { return KindAccess }
func (n *Access) Children() []Node { return []Node{n.Lhs} }
func (n *Access) Clone() Node {
	c := *n
	c.Lhs = n.Lhs.Clone()
	return &c
}
func (n *Access) String() string { return n.Lhs.String() + "." + n.Field }

// NamespaceAccess is a qualified-name prefix on an expression: `a.b.expr`.
// Unlike Access (a runtime struct-member read), this is resolved entirely at
// name-resolution time by extending the qualified-name search path; Expr
// holds the innermost expression the namespace prefix applies to.
type NamespaceAccess struct {
	Base
	Segment string
	Expr    Node
}

func NewNamespaceAccess(loc SourceLoc, segment string, expr Node) *NamespaceAccess {
	requireNonNilChildren(&NamespaceAccess{Base: newBase(loc)}, expr)
	return &NamespaceAccess{Base: newBase(loc), Segment: segment, Expr: expr}
}

func (n *NamespaceAccess) Kind() NodeKind   { return KindNamespaceAccess }
func (n *NamespaceAccess) Children() []Node { return []Node{n.Expr} }
func (n *NamespaceAccess) Clone() Node {
	c := *n
	c.Expr = n.Expr.Clone()
	return &c
}
func (n *NamespaceAccess) String() string { return n.Segment + "." + n.Expr.String() }

// Subscript is array element access: `expr[index]`. The original source
// scatters this across an optional element_expr/index_expr field on three
// unrelated node classes (variable_reference_expression, call_expression,
// macro_invocation); here it is unified into one node that wraps whatever
// expression produces the array, since the indexing semantics (bounds check,
// element-type lookup) are identical in every case.
type Subscript struct {
	Base
	Receiver Node
	Index    Node
}

func NewSubscript(loc SourceLoc, receiver, index Node) *Subscript {
	requireNonNilChildren(&Subscript{Base: newBase(loc)}, receiver, index)
	return &Subscript{Base: newBase(loc), Receiver: receiver, Index: index}
}

func (n *Subscript) Kind() NodeKind   { return KindSubscript }
func (n *Subscript) Children() []Node { return []Node{n.Receiver, n.Index} }
func (n *Subscript) Clone() Node {
	c := *n
	c.Receiver = n.Receiver.Clone()
	c.Index = n.Index.Clone()
	return &c
}
func (n *Subscript) String() string { return n.Receiver.String() + "[" + n.Index.String() + "]" }

// Call is a function invocation: `callee(args...)`. ReturnType is filled in
// by the type checker.
type Call struct {
	Base
	Callee     string
	Args       []Node
	SymbolID   SymbolID
	ReturnType TypeID
}

func NewCall(loc SourceLoc, callee string, args []Node) *Call {
	return &Call{Base: newBase(loc), Callee: callee, Args: args, SymbolID: InvalidSymbolID, ReturnType: InvalidTypeID}
}

func (n *Call) Kind() NodeKind   { return KindCall }
func (n *Call) Children() []Node { return n.Args }
func (n *Call) Clone() Node {
	c := *n
	c.Args = make([]Node, len(n.Args))
	for i, a := range n.Args {
		c.Args[i] = a.Clone()
	}
	return &c
}
func (n *Call) String() string { return n.Callee + "(...)" }

// MacroInvocation invokes a macro by name with a list of unevaluated
// argument expressions. Expansion holds the grafted-in replacement subtree
// once internal/macro has expanded this invocation; it is nil beforehand.
type MacroInvocation struct {
	Base
	Name      string
	Exprs     []Node
	Expansion Node
}

func NewMacroInvocation(loc SourceLoc, name string, exprs []Node) *MacroInvocation {
	return &MacroInvocation{Base: newBase(loc), Name: name, Exprs: exprs}
}

func (n *MacroInvocation) Kind() NodeKind { return KindMacroInvocation }
func (n *MacroInvocation) Children() []Node {
	if n.Expansion != nil {
		return append(append([]Node{}, n.Exprs...), n.Expansion)
	}
	return n.Exprs
}
func (n *MacroInvocation) Clone() Node {
	c := *n
	c.Exprs = make([]Node, len(n.Exprs))
	for i, e := range n.Exprs {
		c.Exprs[i] = e.Clone()
	}
	if n.Expansion != nil {
		c.Expansion = n.Expansion.Clone()
	}
	return &c
}
func (n *MacroInvocation) String() string { return n.Name + "!(...)" }

// HasExpansion reports whether internal/macro has already expanded this
// invocation site.
func (n *MacroInvocation) HasExpansion() bool { return n.Expansion != nil }
