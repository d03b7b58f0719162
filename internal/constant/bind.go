package constant

import (
	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
	"github.com/slang-lang/slang/internal/sema"
)

// EvaluateConstants runs phase 4.G's "evaluate constants" step: it walks
// every top-level const declaration, folds its initializer, and binds the
// resulting value to the declaration's symbol so that later references
// (including ones reached only through macro expansion, which loops back
// through this phase — spec §4: "expand macros (H, may feed back to
// D, then E–G)") resolve to a constant-pool entry rather than a variable
// load. Must run after type-check, per spec §4.G ("Runs after type
// check").
func EvaluateConstants(senv *sema.Env, env *Env, root *ast.Block) error {
	for _, stmt := range root.Stmts {
		decl, ok := unwrapDirective(stmt).(*ast.ConstDecl)
		if !ok {
			continue
		}
		if err := bindConstDecl(senv, env, decl); err != nil {
			return err
		}
	}
	return nil
}

// bindConstDecl folds decl's initializer and binds it to decl's symbol.
// Grounded on ast.cpp's constant_declaration_expression::generate_code
// (the original throws if the initializer isn't const-eval; this
// implementation returns that as a diagnostic instead of a runtime throw)
// together with spec §4.G's disable(const_eval) carve-out: a directive
// that suppresses folding still lets a const declaration through when its
// initializer is a bare literal.
func bindConstDecl(senv *sema.Env, env *Env, decl *ast.ConstDecl) error {
	if constEvalDisabled(senv, decl.SymbolID) {
		lit, ok := decl.Expr.(*ast.Literal)
		if !ok {
			return nil
		}
		return env.SetConstInfo(decl.Loc(), decl.SymbolID, literalValue(lit))
	}

	info, ok, err := Evaluate(env, decl.Expr)
	if err != nil {
		return err
	}
	if !ok {
		return newError(errkind.TypeMismatch, decl.Loc(),
			"expression in constant declaration '%s' is not compile-time computable", decl.Name)
	}
	return env.SetConstInfo(decl.Loc(), decl.SymbolID, info)
}

// unwrapDirective strips any directive(...) wrapper(s) around a top-level
// declaration — mirrors internal/types' checker.checkTopLevel unwrap, since
// a directive never changes which declaration kind follows it.
func unwrapDirective(n ast.Node) ast.Node {
	for {
		d, ok := n.(*ast.Directive)
		if !ok {
			return n
		}
		n = d.Expr
	}
}

// constEvalDisabled reports whether symbolID carries a `disable(name:
// "const_eval")` directive. Grounded on ast.cpp's repeated
// `ctx.get_directive_flag("disable", "const_eval", ...)` checks.
func constEvalDisabled(senv *sema.Env, symbolID ast.SymbolID) bool {
	payload, ok := senv.AttributePayloadFor(symbolID, sema.AttributeDisable)
	if !ok {
		return false
	}
	for _, kv := range payload {
		if kv.Key == "name" && kv.Value == "const_eval" {
			return true
		}
	}
	return false
}
