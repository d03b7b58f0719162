package ast

// Import is a dependency declaration: `import a.b.c;`. Path holds the dotted
// segments in source order. The loader resolves Path to a concrete module and
// materializes its exported symbols into the importing unit's scope (see
// internal/loader).
type Import struct {
	Base
	Path []string
}

func NewImport(loc SourceLoc, path []string) *Import {
	return &Import{Base: newBase(loc), Path: path}
}

func (n *Import) Kind() NodeKind   { return KindImport }
func (n *Import) Children() []Node { return nil }
func (n *Import) Clone() Node {
	c := *n
	c.Path = append([]string(nil), n.Path...)
	return &c
}
func (n *Import) String() string {
	s := "import "
	for i, seg := range n.Path {
		if i > 0 {
			s += "."
		}
		s += seg
	}
	return s
}

// AttributeArg is one key="value" pair inside a directive's argument list,
// e.g. the `lib="foo"` in `native(lib="foo")`.
type AttributeArg struct {
	Key   string
	Value string
}

// Directive is a compiler directive applied to the expression it wraps, e.g.
// `native(lib="foo") fn puts(s: string);` or `disable(const_eval) const x ...`.
// Args is a typed key-value list rather than raw strings (original_source
// src/compiler/attribute.cpp), since directive semantics dispatch on Name and
// consult individual Args by key (internal/sema, internal/codegen).
type Directive struct {
	Base
	Name string
	Args []AttributeArg
	Expr Node
}

func NewDirective(loc SourceLoc, name string, args []AttributeArg, expr Node) *Directive {
	requireNonNilChildren(&Directive{Base: newBase(loc)}, expr)
	return &Directive{Base: newBase(loc), Name: name, Args: args, Expr: expr}
}

func (n *Directive) Kind() NodeKind   { return KindDirective }
func (n *Directive) Children() []Node { return []Node{n.Expr} }
func (n *Directive) Clone() Node {
	c := *n
	c.Args = append([]AttributeArg(nil), n.Args...)
	c.Expr = n.Expr.Clone()
	return &c
}
func (n *Directive) String() string { return n.Name + "(...) " + n.Expr.String() }

// HasArg reports whether the directive carries an argument with the given
// key and returns its value.
func (n *Directive) HasArg(key string) (string, bool) {
	for _, a := range n.Args {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// VarDecl declares a local or struct-member variable: `let name: Type = expr;`
// Expr is nil for an uninitialized declaration.
type VarDecl struct {
	Base
	Name     string
	Type     *TypeExpr
	Expr     Node
	SymbolID SymbolID
}

func NewVarDecl(loc SourceLoc, name string, typ *TypeExpr, expr Node) *VarDecl {
	requireNonNilChildren(&VarDecl{Base: newBase(loc)}, typ)
	return &VarDecl{Base: newBase(loc), Name: name, Type: typ, Expr: expr, SymbolID: InvalidSymbolID}
}

func (n *VarDecl) Kind() NodeKind { return KindVarDecl }
func (n *VarDecl) Children() []Node {
	if n.Expr != nil {
		return []Node{n.Type, n.Expr}
	}
	return []Node{n.Type}
}
func (n *VarDecl) Clone() Node {
	c := *n
	c.Type = n.Type.Clone().(*TypeExpr)
	if n.Expr != nil {
		c.Expr = n.Expr.Clone()
	}
	return &c
}
func (n *VarDecl) String() string { return "let " + n.Name + ": " + n.Type.String() }

// ConstDecl declares a compile-time constant: `const name: Type = expr;`. Expr
// is mandatory and must be const-evaluable unless suppressed by a
// disable(const_eval) directive wrapping this node.
type ConstDecl struct {
	Base
	Name     string
	Type     *TypeExpr
	Expr     Node
	SymbolID SymbolID
}

func NewConstDecl(loc SourceLoc, name string, typ *TypeExpr, expr Node) *ConstDecl {
	requireNonNilChildren(&ConstDecl{Base: newBase(loc)}, typ, expr)
	return &ConstDecl{Base: newBase(loc), Name: name, Type: typ, Expr: expr, SymbolID: InvalidSymbolID}
}

func (n *ConstDecl) Kind() NodeKind   { return KindConstDecl }
func (n *ConstDecl) Children() []Node { return []Node{n.Type, n.Expr} }
func (n *ConstDecl) Clone() Node {
	c := *n
	c.Type = n.Type.Clone().(*TypeExpr)
	c.Expr = n.Expr.Clone()
	return &c
}
func (n *ConstDecl) String() string { return "const " + n.Name + ": " + n.Type.String() }

// ArrayInit is an array literal: `[e0, e1, e2]`.
type ArrayInit struct {
	Base
	Elems []Node
}

func NewArrayInit(loc SourceLoc, elems []Node) *ArrayInit {
	for _, e := range elems {
		requireNonNilChildren(&ArrayInit{Base: newBase(loc)}, e)
	}
	return &ArrayInit{Base: newBase(loc), Elems: elems}
}

func (n *ArrayInit) Kind() NodeKind   { return KindArrayInit }
func (n *ArrayInit) Children() []Node { return n.Elems }
func (n *ArrayInit) Clone() Node {
	c := *n
	c.Elems = make([]Node, len(n.Elems))
	for i, e := range n.Elems {
		c.Elems[i] = e.Clone()
	}
	return &c
}
func (n *ArrayInit) String() string { return "[...]" }

// StructDef declares a struct type and its member variables.
type StructDef struct {
	Base
	Name       string
	Members    []*VarDecl
	Directives []AttributeArg // flattened allow_cast-style flags recorded by codegen
	SymbolID   SymbolID
}

func NewStructDef(loc SourceLoc, name string, members []*VarDecl) *StructDef {
	return &StructDef{Base: newBase(loc), Name: name, Members: members, SymbolID: InvalidSymbolID}
}

func (n *StructDef) Kind() NodeKind { return KindStructDef }
func (n *StructDef) Children() []Node {
	children := make([]Node, len(n.Members))
	for i, m := range n.Members {
		children[i] = m
	}
	return children
}
func (n *StructDef) Clone() Node {
	c := *n
	c.Members = make([]*VarDecl, len(n.Members))
	for i, m := range n.Members {
		c.Members[i] = m.Clone().(*VarDecl)
	}
	return &c
}
func (n *StructDef) String() string { return "struct " + n.Name }

// NamedInit is one `name: expr` pair inside a named struct initializer.
type NamedInit struct {
	Base
	Name string
	Expr Node
}

func NewNamedInit(loc SourceLoc, name string, expr Node) *NamedInit {
	requireNonNilChildren(&NamedInit{Base: newBase(loc)}, expr)
	return &NamedInit{Base: newBase(loc), Name: name, Expr: expr}
}

func (n *NamedInit) Kind() NodeKind   { return KindNamedInit }
func (n *NamedInit) Children() []Node { return []Node{n.Expr} }
func (n *NamedInit) Clone() Node {
	c := *n
	c.Expr = n.Expr.Clone()
	return &c
}
func (n *NamedInit) String() string { return n.Name + ": ..." }

// NamedInitList is a named struct initializer: `Point{x: 1, y: 2}`.
type NamedInitList struct {
	Base
	StructName string
	Inits      []*NamedInit
}

func NewNamedInitList(loc SourceLoc, structName string, inits []*NamedInit) *NamedInitList {
	return &NamedInitList{Base: newBase(loc), StructName: structName, Inits: inits}
}

func (n *NamedInitList) Kind() NodeKind { return KindNamedInitList }
func (n *NamedInitList) Children() []Node {
	children := make([]Node, len(n.Inits))
	for i, in := range n.Inits {
		children[i] = in
	}
	return children
}
func (n *NamedInitList) Clone() Node {
	c := *n
	c.Inits = make([]*NamedInit, len(n.Inits))
	for i, in := range n.Inits {
		c.Inits[i] = in.Clone().(*NamedInit)
	}
	return &c
}
func (n *NamedInitList) String() string { return n.StructName + "{...}" }

// AnonInitList is an anonymous (positional) struct initializer:
// `Point{1, 2}`.
type AnonInitList struct {
	Base
	StructName string
	Elems      []Node
}

func NewAnonInitList(loc SourceLoc, structName string, elems []Node) *AnonInitList {
	return &AnonInitList{Base: newBase(loc), StructName: structName, Elems: elems}
}

func (n *AnonInitList) Kind() NodeKind   { return KindAnonInitList }
func (n *AnonInitList) Children() []Node { return n.Elems }
func (n *AnonInitList) Clone() Node {
	c := *n
	c.Elems = make([]Node, len(n.Elems))
	for i, e := range n.Elems {
		c.Elems[i] = e.Clone()
	}
	return &c
}
func (n *AnonInitList) String() string { return n.StructName + "{...}" }

// Block is a sequence of statements introducing a new lexical scope.
type Block struct {
	Base
	Stmts []Node
}

func NewBlock(loc SourceLoc, stmts []Node) *Block {
	return &Block{Base: newBase(loc), Stmts: stmts}
}

func (n *Block) Kind() NodeKind   { return KindBlock }
func (n *Block) Children() []Node { return n.Stmts }
func (n *Block) Clone() Node {
	c := *n
	c.Stmts = make([]Node, len(n.Stmts))
	for i, s := range n.Stmts {
		c.Stmts[i] = s.Clone()
	}
	return &c
}
func (n *Block) String() string { return "{...}" }

// Param is one function parameter: name and declared type.
type Param struct {
	Name     string
	Type     *TypeExpr
	SymbolID SymbolID
}

// Prototype is a function's signature: name, parameters, return type. It is
// not itself an expression in the original (no generate_code match), but is
// modeled here as a Node so it composes uniformly with collection, cloning
// and serialization.
type Prototype struct {
	Base
	Name       string
	Params     []Param
	ReturnType *TypeExpr
	SymbolID   SymbolID
}

func NewPrototype(loc SourceLoc, name string, params []Param, returnType *TypeExpr) *Prototype {
	requireNonNilChildren(&Prototype{Base: newBase(loc)}, returnType)
	return &Prototype{Base: newBase(loc), Name: name, Params: params, ReturnType: returnType, SymbolID: InvalidSymbolID}
}

func (n *Prototype) Kind() NodeKind { return KindPrototype }
func (n *Prototype) Children() []Node {
	children := make([]Node, 0, len(n.Params)+1)
	for _, p := range n.Params {
		children = append(children, p.Type)
	}
	children = append(children, n.ReturnType)
	return children
}
func (n *Prototype) Clone() Node {
	c := *n
	c.Params = make([]Param, len(n.Params))
	for i, p := range n.Params {
		p.Type = p.Type.Clone().(*TypeExpr)
		c.Params[i] = p
	}
	c.ReturnType = n.ReturnType.Clone().(*TypeExpr)
	return &c
}
func (n *Prototype) String() string { return "fn " + n.Name + "(...)" }

// Function is a function definition: signature plus body. Body is nil for a
// directive(native)-declared function, whose body is supplied by the host.
type Function struct {
	Base
	Proto *Prototype
	Body  *Block
}

func NewFunction(loc SourceLoc, proto *Prototype, body *Block) *Function {
	requireNonNilChildren(&Function{Base: newBase(loc)}, proto)
	return &Function{Base: newBase(loc), Proto: proto, Body: body}
}

func (n *Function) Kind() NodeKind { return KindFunction }
func (n *Function) Children() []Node {
	if n.Body != nil {
		return []Node{n.Proto, n.Body}
	}
	return []Node{n.Proto}
}
func (n *Function) Clone() Node {
	c := *n
	c.Proto = n.Proto.Clone().(*Prototype)
	if n.Body != nil {
		c.Body = n.Body.Clone().(*Block)
	}
	return &c
}
func (n *Function) String() string { return n.Proto.String() }
