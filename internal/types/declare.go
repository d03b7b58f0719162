package types

import (
	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
)

// unwrapDirective strips any directive(...) wrapper(s) around a top-level
// declaration, mirroring checker.checkTopLevel's own unwrap — a directive
// never changes which declaration kind follows it, only attaches an
// attribute collection already recorded against the declaration's symbol.
func unwrapDirective(n ast.Node) ast.Node {
	for {
		d, ok := n.(*ast.Directive)
		if !ok {
			return n
		}
		n = d.Expr
	}
}

// DeclareTypes runs the declaration phase over root's top-level statements:
// every struct gets a type id with an empty field list, so that a later
// struct's field referring back to an earlier one (or vice versa — mutual
// recursion) resolves regardless of source order.
func DeclareTypes(ctx *Context, root *ast.Block) error {
	for _, stmt := range root.Stmts {
		s, ok := unwrapDirective(stmt).(*ast.StructDef)
		if !ok {
			continue
		}
		if !s.SymbolID.IsValid() {
			return newError(errkind.Internal, s.Loc(), "struct '%s' has no collected symbol", s.Name)
		}
		ctx.DeclareStructType(s.SymbolID, s.Name)
	}
	return nil
}

// DefineTypes runs the definition phase: now that every struct name in the
// module resolves to a type id, fill in each struct's field list.
func DefineTypes(ctx *Context, root *ast.Block) error {
	for _, stmt := range root.Stmts {
		s, ok := unwrapDirective(stmt).(*ast.StructDef)
		if !ok {
			continue
		}

		typeID, found := ctx.Env.TypeOfSymbol(s.SymbolID)
		if !found {
			return newError(errkind.Internal, s.Loc(), "struct '%s' was not declared before definition", s.Name)
		}

		fields := make([]Field, 0, len(s.Members))
		for _, m := range s.Members {
			fieldType, err := ctx.ResolveTypeExpr(m.Type, ast.ScopeOf(s))
			if err != nil {
				return err
			}
			fields = append(fields, Field{Name: m.Name, Type: fieldType})
		}
		ctx.DefineStructType(typeID, fields)
	}
	return nil
}

// DeclareFunctions runs the function-declaration phase: every top-level
// function gets its prototype type (parameter types, return type)
// registered without checking its body.
func DeclareFunctions(ctx *Context, root *ast.Block) error {
	for _, stmt := range root.Stmts {
		fn, ok := unwrapDirective(stmt).(*ast.Function)
		if !ok {
			continue
		}
		if !fn.Proto.SymbolID.IsValid() {
			return newError(errkind.Internal, fn.Loc(), "function '%s' has no collected symbol", fn.Proto.Name)
		}

		params := make([]ast.TypeID, len(fn.Proto.Params))
		for i, p := range fn.Proto.Params {
			t, err := ctx.ResolveTypeExpr(p.Type, ast.ScopeOf(fn.Proto))
			if err != nil {
				return err
			}
			params[i] = t
			if p.SymbolID.IsValid() {
				ctx.Env.BindType(p.SymbolID, t)
			}
		}

		ret, err := ctx.ResolveTypeExpr(fn.Proto.ReturnType, ast.ScopeOf(fn.Proto))
		if err != nil {
			return err
		}

		ctx.DeclareFunctionType(fn.Proto.SymbolID, params, ret)
	}
	return nil
}
