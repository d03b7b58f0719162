package ast

// MacroArg is one formal argument name/placeholder-kind pair of a macro
// branch, e.g. in `macro foo! { ($a:expr) => {...} }` this is `($a, expr)`.
type MacroArg struct {
	Name string
	Kind string // placeholder kind, e.g. "expr", "list"
}

// MacroBranch is one alternative of a macro definition: a formal argument
// pattern plus a body to substitute into at the invocation site. Branch
// selection scores each branch against an invocation's argument count
// (spec §4.H): exact arity match scores 3, exact match where the pattern's
// trailing capture is an empty list scores 2, surplus arguments absorbed by
// a trailing list capture score 1, anything else scores 0.
type MacroBranch struct {
	Base
	Args             []MacroArg
	EndsWithListCapture bool
	Body             *Block
}

func NewMacroBranch(loc SourceLoc, args []MacroArg, endsWithListCapture bool, body *Block) *MacroBranch {
	requireNonNilChildren(&MacroBranch{Base: newBase(loc)}, body)
	return &MacroBranch{Base: newBase(loc), Args: args, EndsWithListCapture: endsWithListCapture, Body: body}
}

func (n *MacroBranch) Kind() NodeKind   { return KindMacroBranch }
func (n *MacroBranch) Children() []Node { return []Node{n.Body} }
func (n *MacroBranch) Clone() Node {
	c := *n
	c.Args = append([]MacroArg(nil), n.Args...)
	c.Body = n.Body.Clone().(*Block)
	return &c
}
func (n *MacroBranch) String() string { return "macro-branch(...)" }

// Score returns this branch's match score against an invocation carrying
// argCount expressions, per the four-tier rule above.
func (n *MacroBranch) Score(argCount int) int {
	switch {
	case !n.EndsWithListCapture && len(n.Args) == argCount:
		return 3
	case n.EndsWithListCapture && len(n.Args) == argCount+1:
		// Trailing list capture binds to an empty list: exact match.
		return 2
	case n.EndsWithListCapture && argCount >= len(n.Args)-1:
		return 1
	default:
		return 0
	}
}

// MacroExprList is a transient node produced during macro expansion to
// represent a captured list of expressions (the trailing `...` of a
// variadic macro branch) before it is flattened into its splice site. It
// never appears in a finished, expanded AST.
type MacroExprList struct {
	Base
	Exprs []Node
}

func NewMacroExprList(loc SourceLoc, exprs []Node) *MacroExprList {
	return &MacroExprList{Base: newBase(loc), Exprs: exprs}
}

func (n *MacroExprList) Kind() NodeKind   { return KindMacroExprList }
func (n *MacroExprList) Children() []Node { return n.Exprs }
func (n *MacroExprList) Clone() Node {
	c := *n
	c.Exprs = make([]Node, len(n.Exprs))
	for i, e := range n.Exprs {
		c.Exprs[i] = e.Clone()
	}
	return &c
}
func (n *MacroExprList) String() string { return "macro-expr-list(...)" }

// MacroDef declares a macro and its alternative branches.
type MacroDef struct {
	Base
	Name     string
	Branches []*MacroBranch
	SymbolID SymbolID
}

func NewMacroDef(loc SourceLoc, name string, branches []*MacroBranch) *MacroDef {
	return &MacroDef{Base: newBase(loc), Name: name, Branches: branches, SymbolID: InvalidSymbolID}
}

func (n *MacroDef) Kind() NodeKind { return KindMacroDef }
func (n *MacroDef) Children() []Node {
	children := make([]Node, len(n.Branches))
	for i, b := range n.Branches {
		children[i] = b
	}
	return children
}
func (n *MacroDef) Clone() Node {
	c := *n
	c.Branches = make([]*MacroBranch, len(n.Branches))
	for i, b := range n.Branches {
		c.Branches[i] = b.Clone().(*MacroBranch)
	}
	return &c
}
func (n *MacroDef) String() string { return "macro " + n.Name + "!" }

// SelectBranch picks the best-scoring branch for an invocation with
// argCount arguments. It returns the branch and whether a second branch tied
// its score (an ambiguous match, reported as errkind.MacroAmbiguousMatch
// naming both locations), or ok=false if every branch scored 0
// (errkind.MacroNoMatch).
func (n *MacroDef) SelectBranch(argCount int) (best *MacroBranch, tie *MacroBranch, ok bool) {
	bestScore := 0
	for _, b := range n.Branches {
		s := b.Score(argCount)
		if s == 0 {
			continue
		}
		switch {
		case s > bestScore:
			bestScore, best, tie = s, b, nil
		case s == bestScore && best != nil:
			tie = b
		}
	}
	return best, tie, best != nil
}
