package macro

import "github.com/slang-lang/slang/internal/ast"

// renameIdentifiers walks a cloned macro branch body (and its argument
// list) and prefixes every declared variable name, every variable
// reference name, and every macro-argument pattern name with prefix —
// the α-renaming hygiene step (spec §4.H step 3): "every variable declared
// inside the branch and every parameter name is prefixed with a unique
// invocation-id." Grounded on ast.cpp's macros.cpp rename_visitor, which
// renames exactly these three node shapes (macro_branch args,
// variable_declaration, variable_reference) and nothing else — a bare
// reference to something outside the branch's own params/locals (a
// function call, a namespace-qualified name) is untouched, since those use
// Call.Callee / NamespaceAccess.Segment rather than a VariableRef.
func renameIdentifiers(branch *ast.MacroBranch, prefix string) {
	for i := range branch.Args {
		branch.Args[i].Name = prefix + branch.Args[i].Name
	}

	ast.Visit(branch.Body, ast.PreOrder, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.VarDecl:
			node.Name = prefix + node.Name
		case *ast.ConstDecl:
			node.Name = prefix + node.Name
		case *ast.VariableRef:
			node.Name = prefix + node.Name
		}
		return true
	})
}

// substitute replaces every *ast.VariableRef in node's subtree whose name
// is a key of subst with subst[name], cloned fresh at each use site so
// that a parameter referenced more than once doesn't alias the same node
// across both sites. It mutates node's children in place and returns node
// (or, when node itself is a substitution target, the replacement).
//
// This is the Go-AST equivalent of macros.cpp's expand_visitor: the
// original mutates a variable_reference_expression in place to carry a
// pointer to its substitution (`set_expansion`), leaving later phases to
// read through it; this AST instead replaces the reference node outright
// in its parent's child slot, since Node fields here are ordinary Go
// values rather than indirection points a later pass can dereference.
func substitute(node ast.Node, subst map[string]ast.Node) ast.Node {
	if node == nil {
		return nil
	}

	switch n := node.(type) {
	case *ast.VariableRef:
		if repl, ok := subst[n.Name]; ok {
			return repl.Clone()
		}
		return n

	case *ast.Block:
		for i, s := range n.Stmts {
			n.Stmts[i] = substitute(s, subst)
		}
		return n

	case *ast.Return:
		if n.Expr != nil {
			n.Expr = substitute(n.Expr, subst)
		}
		return n

	case *ast.If:
		n.Cond = substitute(n.Cond, subst)
		n.Then = substitute(n.Then, subst)
		if n.Else != nil {
			n.Else = substitute(n.Else, subst)
		}
		return n

	case *ast.While:
		n.Cond = substitute(n.Cond, subst)
		n.Body = substitute(n.Body, subst)
		return n

	case *ast.VarDecl:
		if n.Expr != nil {
			n.Expr = substitute(n.Expr, subst)
		}
		return n

	case *ast.ConstDecl:
		n.Expr = substitute(n.Expr, subst)
		return n

	case *ast.Directive:
		n.Expr = substitute(n.Expr, subst)
		return n

	case *ast.ArrayInit:
		for i, e := range n.Elems {
			n.Elems[i] = substitute(e, subst)
		}
		return n

	case *ast.NamedInit:
		n.Expr = substitute(n.Expr, subst)
		return n

	case *ast.NamedInitList:
		for i, in := range n.Inits {
			n.Inits[i] = substitute(in, subst).(*ast.NamedInit)
		}
		return n

	case *ast.AnonInitList:
		for i, e := range n.Elems {
			n.Elems[i] = substitute(e, subst)
		}
		return n

	case *ast.Unary:
		n.Operand = substitute(n.Operand, subst)
		return n

	case *ast.Binary:
		n.Lhs = substitute(n.Lhs, subst)
		n.Rhs = substitute(n.Rhs, subst)
		return n

	case *ast.Postfix:
		n.Operand = substitute(n.Operand, subst)
		return n

	case *ast.Cast:
		n.Expr = substitute(n.Expr, subst)
		return n

	case *ast.New:
		if n.Len != nil {
			n.Len = substitute(n.Len, subst)
		}
		return n

	case *ast.Access:
		n.Lhs = substitute(n.Lhs, subst)
		return n

	case *ast.NamespaceAccess:
		n.Expr = substitute(n.Expr, subst)
		return n

	case *ast.Subscript:
		n.Receiver = substitute(n.Receiver, subst)
		n.Index = substitute(n.Index, subst)
		return n

	case *ast.Call:
		for i, a := range n.Args {
			n.Args[i] = substitute(a, subst)
		}
		return n

	case *ast.MacroInvocation:
		for i, e := range n.Exprs {
			n.Exprs[i] = substitute(e, subst)
		}
		if n.Expansion != nil {
			n.Expansion = substitute(n.Expansion, subst)
		}
		return n

	case *ast.MacroExprList:
		for i, e := range n.Exprs {
			n.Exprs[i] = substitute(e, subst)
		}
		return n

	case *ast.Function:
		if n.Body != nil {
			n.Body = substitute(n.Body, subst).(*ast.Block)
		}
		return n

	default:
		// Literal, NullLiteral, TypeExpr, Break, Continue, Import,
		// Prototype, StructDef, MacroDef/MacroBranch/MacroExprList-as-a-
		// leaf carry no substitutable expression children.
		return n
	}
}
