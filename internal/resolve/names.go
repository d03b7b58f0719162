package resolve

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/sema"
)

// identifierKindPriority is the order value-position identifiers are tried
// in: a bare name standing where an expression is expected can denote a
// variable, a constant, a function (used as a value) or, inside a macro
// branch body, one of that branch's formal arguments.
var identifierKindPriority = []sema.SymbolKind{
	sema.SymbolVariable,
	sema.SymbolConstant,
	sema.SymbolFunction,
	sema.SymbolMacroArgument,
}

// NameError reports a name-resolution failure: an unresolved identifier, an
// ambiguous one, or a macro argument referenced outside its own branch.
type NameError struct {
	Loc ast.SourceLoc
	Msg string
}

func (e *NameError) Error() string { return fmt.Sprintf("%s: %s", e.Loc, e.Msg) }

// nameWalker carries the state threaded through the second full AST walk:
// the scope identifiers collection already assigned to container nodes, and
// whether the walk is currently inside a macro branch's body (macro-argument
// references are only valid there).
type nameWalker struct {
	ctx         *Context
	inMacroBody bool
}

// ResolveNames performs the second full AST walk (spec §4.E): for every
// identifier-bearing node it resolves the name against the node's enclosing
// scope (computed as the walk descends, since collection only stamps a
// ScopeID on scope-introducing container nodes) and binds the node to the
// symbol id found. Must run after ResolveImports, so that names imported
// from a dependency are already present in the environment.
func ResolveNames(ctx *Context, root *ast.Block) error {
	w := &nameWalker{ctx: ctx}
	return w.walkBlock(root, root.ScopeID)
}

func (w *nameWalker) walkBlock(b *ast.Block, scope ast.ScopeID) error {
	if b.ScopeID.IsValid() {
		scope = b.ScopeID
	}
	ast.SetScopeOf(b, scope)
	for _, stmt := range b.Stmts {
		if err := w.walk(stmt, scope); err != nil {
			return err
		}
	}
	return nil
}

// walk resolves n and recurses into its children under scope, the scope id
// in effect at n's position. Container nodes that collection gave their own
// ScopeID (blocks, function bodies, struct bodies, macro branches) switch to
// that id for their subtree; everything else inherits scope unchanged.
func (w *nameWalker) walk(n ast.Node, scope ast.ScopeID) error {
	switch node := n.(type) {
	case nil:
		return nil

	case *ast.Block:
		return w.walkBlock(node, scope)

	case *ast.Function:
		fnScope := scope
		if node.Proto.ScopeID.IsValid() {
			fnScope = node.Proto.ScopeID
		}
		for i := range node.Proto.Params {
			ast.SetScopeOf(node.Proto.Params[i].Type, fnScope)
		}
		if err := w.walk(node.Proto.ReturnType, fnScope); err != nil {
			return err
		}
		if node.Body != nil {
			return w.walkBlock(node.Body, fnScope)
		}
		return nil

	case *ast.StructDef:
		structScope := scope
		if node.ScopeID.IsValid() {
			structScope = node.ScopeID
		}
		for _, m := range node.Members {
			ast.SetScopeOf(m, structScope)
			if err := w.walk(m.Type, structScope); err != nil {
				return err
			}
			if err := w.walk(m.Expr, structScope); err != nil {
				return err
			}
		}
		return nil

	case *ast.MacroDef:
		for _, branch := range node.Branches {
			branchScope := scope
			if branch.ScopeID.IsValid() {
				branchScope = branch.ScopeID
			}
			prev := w.inMacroBody
			w.inMacroBody = true
			if err := w.walkBlock(branch.Body, branchScope); err != nil {
				return err
			}
			w.inMacroBody = prev
		}
		return nil

	case *ast.VarDecl:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Type, scope); err != nil {
			return err
		}
		return w.walk(node.Expr, scope)

	case *ast.ConstDecl:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Type, scope); err != nil {
			return err
		}
		return w.walk(node.Expr, scope)

	case *ast.Import, *ast.Directive:
		// Imports declare nothing further to resolve; directives are bound
		// at collection time and their wrapped expression is walked by the
		// caller that unwraps them below.
		if d, ok := n.(*ast.Directive); ok {
			ast.SetScopeOf(d, scope)
			return w.walk(d.Expr, scope)
		}
		ast.SetScopeOf(n, scope)
		return nil

	case *ast.Return:
		ast.SetScopeOf(node, scope)
		return w.walk(node.Expr, scope)

	case *ast.If:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Cond, scope); err != nil {
			return err
		}
		if err := w.walk(node.Then, scope); err != nil {
			return err
		}
		return w.walk(node.Else, scope)

	case *ast.While:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Cond, scope); err != nil {
			return err
		}
		return w.walk(node.Body, scope)

	case *ast.Break, *ast.Continue, *ast.Literal, *ast.NullLiteral:
		ast.SetScopeOf(n, scope)
		return nil

	case *ast.TypeExpr:
		ast.SetScopeOf(node, scope)
		if node.ExprKind == ast.TypeExprArray {
			return w.walk(node.Elem, scope)
		}
		return nil

	case *ast.VariableRef:
		ast.SetScopeOf(node, scope)
		id, err := w.resolveIdentifier(node.Name, scope, node.Loc())
		if err != nil {
			return err
		}
		node.SymbolID = id
		return nil

	case *ast.Binary:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Lhs, scope); err != nil {
			return err
		}
		return w.walk(node.Rhs, scope)

	case *ast.Unary:
		ast.SetScopeOf(node, scope)
		return w.walk(node.Operand, scope)

	case *ast.Postfix:
		ast.SetScopeOf(node, scope)
		return w.walk(node.Operand, scope)

	case *ast.Cast:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Expr, scope); err != nil {
			return err
		}
		return w.walk(node.Target, scope)

	case *ast.New:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Type, scope); err != nil {
			return err
		}
		return w.walk(node.Len, scope)

	case *ast.Access:
		ast.SetScopeOf(node, scope)
		return w.walk(node.Lhs, scope)

	case *ast.NamespaceAccess:
		// The namespace prefix extends the qualified-name search rather than
		// resolving as its own identifier; only the innermost expression is
		// walked for identifier resolution here. internal/types resolves the
		// accumulated qualified name against the environment directly.
		ast.SetScopeOf(node, scope)
		return w.walk(node.Expr, scope)

	case *ast.Subscript:
		ast.SetScopeOf(node, scope)
		if err := w.walk(node.Receiver, scope); err != nil {
			return err
		}
		return w.walk(node.Index, scope)

	case *ast.Call:
		ast.SetScopeOf(node, scope)
		id, ok := w.ctx.Env.GetSymbolID(node.Callee, sema.SymbolFunction, scope)
		if !ok {
			return &NameError{Loc: node.Loc(), Msg: "unresolved function '" + node.Callee + "'"}
		}
		node.SymbolID = id
		for _, a := range node.Args {
			if err := w.walk(a, scope); err != nil {
				return err
			}
		}
		return nil

	case *ast.MacroInvocation:
		ast.SetScopeOf(node, scope)
		for _, e := range node.Exprs {
			if err := w.walk(e, scope); err != nil {
				return err
			}
		}
		return w.walk(node.Expansion, scope)

	case *ast.ArrayInit:
		ast.SetScopeOf(node, scope)
		for _, e := range node.Elems {
			if err := w.walk(e, scope); err != nil {
				return err
			}
		}
		return nil

	case *ast.NamedInit:
		ast.SetScopeOf(node, scope)
		return w.walk(node.Expr, scope)

	case *ast.NamedInitList:
		ast.SetScopeOf(node, scope)
		for _, in := range node.Inits {
			if err := w.walk(in, scope); err != nil {
				return err
			}
		}
		return nil

	case *ast.AnonInitList:
		ast.SetScopeOf(node, scope)
		for _, e := range node.Elems {
			if err := w.walk(e, scope); err != nil {
				return err
			}
		}
		return nil

	default:
		ast.SetScopeOf(n, scope)
		return nil
	}
}

// resolveIdentifier resolves a bare value-position name at scope, trying
// kinds in identifierKindPriority order. A macro-argument match is only
// accepted while the walk is inside a macro branch body (errkind
// MacroArgOutsideBranch otherwise). If no value-position kind matches, it
// checks the ambiguous case the spec calls out by name: a type and a macro
// sharing the identifier, with nothing to disambiguate which was meant.
func (w *nameWalker) resolveIdentifier(name string, scope ast.ScopeID, loc ast.SourceLoc) (ast.SymbolID, error) {
	for _, kind := range identifierKindPriority {
		id, ok := w.ctx.Env.GetSymbolID(name, kind, scope)
		if !ok {
			continue
		}
		if kind == sema.SymbolMacroArgument && !w.inMacroBody {
			return ast.InvalidSymbolID, &NameError{Loc: loc, Msg: "macro argument '" + name + "' used outside its branch"}
		}
		return id, nil
	}

	_, typeOK := w.ctx.Env.GetSymbolID(name, sema.SymbolType, scope)
	_, macroOK := w.ctx.Env.GetSymbolID(name, sema.SymbolMacro, scope)
	if typeOK && macroOK {
		return ast.InvalidSymbolID, &NameError{Loc: loc, Msg: "ambiguous identifier '" + name + "': both a type and a macro of this name exist"}
	}

	// The name isn't visible from here through the ordinary scope chain. If
	// it nonetheless names a macro argument somewhere in the symbol table,
	// the site is using it outside the branch that declares it (the common
	// cause: a substitution left over from an incompletely expanded macro
	// invocation) — report that specific error rather than a generic
	// unresolved identifier.
	if w.macroArgumentExistsNamed(name) {
		return ast.InvalidSymbolID, &NameError{Loc: loc, Msg: "macro argument '" + name + "' used outside its branch"}
	}

	return ast.InvalidSymbolID, &NameError{Loc: loc, Msg: "unresolved identifier '" + name + "'"}
}

func (w *nameWalker) macroArgumentExistsNamed(name string) bool {
	found := false
	w.ctx.Env.EachSymbol(func(_ ast.SymbolID, info *sema.SymbolInfo) {
		if info.Kind == sema.SymbolMacroArgument && info.Name == name {
			found = true
		}
	})
	return found
}
