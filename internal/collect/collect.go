package collect

import (
	"strings"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/sema"
)

// pendingDirective is a directive seen on the way down to the declaration it
// wraps; its attributes are attached to whatever symbol that declaration
// produces once collection reaches it.
type pendingDirective struct {
	kind    sema.AttributeKind
	payload sema.AttributePayload
	loc     ast.SourceLoc
}

// Module walks root (a module's top-level block) and populates env with
// every scope and symbol the module declares: blocks open anonymous scopes,
// functions/structs/macros open named scopes and register themselves in
// their enclosing scope, variable/constant declarations bind a local name,
// imports bind a module_import symbol keyed by their dotted path, and
// directives are recorded against whatever declaration they wrap.
//
// Module does not resolve any identifier reference — that's
// internal/resolve's job, run after import resolution has materialized
// every dependency's exports.
func Module(env *sema.Env, root *ast.Block) (*Context, error) {
	ctx := NewContext(env, nil)
	if err := collectBlock(ctx, root, nil); err != nil {
		return nil, err
	}
	return ctx, nil
}

func collectBlock(ctx *Context, b *ast.Block, pending []pendingDirective) error {
	id, err := ctx.PushScope("", b.Loc())
	if err != nil {
		return err
	}
	ast.SetScopeOf(b, id)

	for _, stmt := range b.Stmts {
		if err := collectNode(ctx, stmt, nil); err != nil {
			return err
		}
	}

	return ctx.PopScope()
}

// collectNode dispatches on n's concrete kind. pending carries directive
// attributes collected on the way down, to be attached to whatever symbol n
// itself produces.
func collectNode(ctx *Context, n ast.Node, pending []pendingDirective) error {
	switch node := n.(type) {
	case *ast.Directive:
		return collectDirective(ctx, node, pending)

	case *ast.Block:
		return collectBlock(ctx, node, pending)

	case *ast.Import:
		return collectImport(ctx, node, pending)

	case *ast.VarDecl:
		return collectVarDecl(ctx, node, pending)

	case *ast.ConstDecl:
		return collectConstDecl(ctx, node, pending)

	case *ast.Function:
		return collectFunction(ctx, node, pending)

	case *ast.StructDef:
		return collectStructDef(ctx, node, pending)

	case *ast.MacroDef:
		return collectMacroDef(ctx, node, pending)

	case *ast.If:
		if err := collectNode(ctx, node.Cond, nil); err != nil {
			return err
		}
		if err := collectNode(ctx, node.Then, nil); err != nil {
			return err
		}
		if node.Else != nil {
			return collectNode(ctx, node.Else, nil)
		}
		return nil

	case *ast.While:
		if err := collectNode(ctx, node.Cond, nil); err != nil {
			return err
		}
		return collectNode(ctx, node.Body, nil)

	default:
		// Every other node kind (expressions, return/break/continue,
		// literals) declares nothing and contains no nested block that
		// introduces its own scope on its own — nested expressions inside
		// them (e.g. a block-valued initializer) are reached through their
		// own Children() traversal only where collection actually needs to
		// recurse, which for expression trees is nowhere: identifiers
		// inside expressions are bound later, by internal/resolve.
		return nil
	}
}

func collectDirective(ctx *Context, d *ast.Directive, pending []pendingDirective) error {
	kind, ok := sema.AttributeKindFromName(d.Name)
	if !ok {
		return &Error{Msg: "unknown directive '" + d.Name + "'"}
	}

	var payload sema.AttributePayload
	for _, a := range d.Args {
		payload = append(payload, sema.KeyValue{Key: a.Key, Value: a.Value})
	}

	next := append(append([]pendingDirective(nil), pending...), pendingDirective{
		kind:    kind,
		payload: payload,
		loc:     d.Loc(),
	})

	return collectNode(ctx, d.Expr, next)
}

func collectImport(ctx *Context, imp *ast.Import, pending []pendingDirective) error {
	qualified := strings.Join(imp.Path, ".")

	id, err := ctx.Declare(qualified, qualified, sema.SymbolModule, imp.Loc(), sema.CurrentModuleID, false, sema.Reference{Node: imp})
	if err != nil {
		return err
	}
	attachPending(ctx, id, pending)
	return nil
}

func collectVarDecl(ctx *Context, v *ast.VarDecl, pending []pendingDirective) error {
	id, err := ctx.Declare(v.Name, v.Name, sema.SymbolVariable, v.Loc(), sema.CurrentModuleID, false, sema.Reference{Node: v})
	if err != nil {
		return err
	}
	v.SymbolID = id
	attachPending(ctx, id, pending)
	return nil
}

func collectConstDecl(ctx *Context, c *ast.ConstDecl, pending []pendingDirective) error {
	id, err := ctx.Declare(c.Name, c.Name, sema.SymbolConstant, c.Loc(), sema.CurrentModuleID, false, sema.Reference{Node: c})
	if err != nil {
		return err
	}
	c.SymbolID = id
	attachPending(ctx, id, pending)
	return nil
}

func collectFunction(ctx *Context, fn *ast.Function, pending []pendingDirective) error {
	id, err := ctx.Declare(fn.Proto.Name, fn.Proto.Name, sema.SymbolFunction, fn.Loc(), sema.CurrentModuleID, false, sema.Reference{Node: fn})
	if err != nil {
		return err
	}
	fn.Proto.SymbolID = id
	attachPending(ctx, id, pending)

	scopeID, err := ctx.PushScope(fn.Proto.Name, fn.Loc())
	if err != nil {
		return err
	}
	ast.SetScopeOf(fn.Proto, scopeID)

	for i := range fn.Proto.Params {
		p := &fn.Proto.Params[i]
		pid, err := ctx.Declare(p.Name, p.Name, sema.SymbolVariable, fn.Proto.Loc(), sema.CurrentModuleID, false, sema.Reference{})
		if err != nil {
			return err
		}
		p.SymbolID = pid
	}

	if fn.Body != nil {
		ast.SetScopeOf(fn.Body, scopeID)
		for _, stmt := range fn.Body.Stmts {
			if err := collectNode(ctx, stmt, nil); err != nil {
				return err
			}
		}
	}

	return ctx.PopScope()
}

func collectStructDef(ctx *Context, s *ast.StructDef, pending []pendingDirective) error {
	id, err := ctx.Declare(s.Name, s.Name, sema.SymbolType, s.Loc(), sema.CurrentModuleID, false, sema.Reference{Node: s})
	if err != nil {
		return err
	}
	s.SymbolID = id
	attachPending(ctx, id, pending)

	scopeID, err := ctx.PushScope(s.Name, s.Loc())
	if err != nil {
		return err
	}
	ast.SetScopeOf(s, scopeID)

	for _, m := range s.Members {
		mid, err := ctx.Declare(m.Name, m.Name, sema.SymbolVariable, m.Loc(), sema.CurrentModuleID, false, sema.Reference{Node: m})
		if err != nil {
			return err
		}
		m.SymbolID = mid
	}

	return ctx.PopScope()
}

func collectMacroDef(ctx *Context, m *ast.MacroDef, pending []pendingDirective) error {
	id, err := ctx.Declare(m.Name, m.Name, sema.SymbolMacro, m.Loc(), sema.CurrentModuleID, false, sema.Reference{Node: m})
	if err != nil {
		return err
	}
	m.SymbolID = id
	attachPending(ctx, id, pending)

	for _, branch := range m.Branches {
		scopeID, err := ctx.PushScope("", branch.Loc())
		if err != nil {
			return err
		}
		ast.SetScopeOf(branch, scopeID)

		for _, a := range branch.Args {
			if _, err := ctx.Declare(a.Name, a.Name, sema.SymbolMacroArgument, branch.Loc(), sema.CurrentModuleID, false, sema.Reference{}); err != nil {
				return err
			}
		}

		if err := ctx.PopScope(); err != nil {
			return err
		}
	}

	return nil
}

func attachPending(ctx *Context, id ast.SymbolID, pending []pendingDirective) {
	for _, p := range pending {
		ctx.Env.AttachAttribute(id, sema.AttributeInfo{Kind: p.kind, Loc: p.loc, Payload: p.payload})
	}
}
