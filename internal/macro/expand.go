// Package macro implements spec §4.H: hygienic expansion of macro
// invocations into their matching branch's body, plus the built-in
// `format!` macro.
//
// Grounded on original_source/src/compiler/macro.h/.cpp (the macro
// collection/lookup environment) and
// original_source/src/compiler/ast/macros.cpp (branch scoring and the
// rename/substitute expansion algorithm, read in full).
package macro

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
	"github.com/slang-lang/slang/internal/sema"
)

// Error is a macro-processing diagnostic. Grounded on macro::macro_error
// (a generic runtime_error in the original); this package instead tags
// every failure with the errkind.Kind spec's error design assigns it.
type Error struct {
	Kind errkind.Kind
	Loc  ast.SourceLoc
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: [%s] %s", e.Loc, e.Kind, e.Msg) }

func newError(kind errkind.Kind, loc ast.SourceLoc, format string, args ...any) *Error {
	return &Error{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// maxFixedPointIterations bounds the "expand until fixed point" loop spec
// §4: "expand macros (H, ... repeats expansion until a fixed point)" calls
// for. Not itself grounded on a concrete original_source constant (no such
// cap is named there, since C++ recursion there is bounded only by the
// stack) — a hygienic macro body cannot literally re-invoke the same
// invocation node it came from (expansion replaces that node outright), so
// in practice this loop runs once per macro-expansion "generation"; the
// cap is a defensive backstop against a pathological macro that expands
// into an invocation of itself forever.
const maxFixedPointIterations = 256

// Env holds the invocation-id counter that makes every expansion's
// α-renaming prefix unique. Grounded on cg::context::generate_macro_
// invocation_id, the counter the original threads through codegen context;
// here it is its own small piece of state since macro expansion in this
// pipeline is a standalone phase rather than interleaved with codegen.
type Env struct {
	senv   *sema.Env
	nextID int

	// typeName resolves a TypeID to its built-in name ("i32"/"f32"/"str"),
	// used only by expandFormat to type-check and infer format! placeholders.
	// Installed by internal/compiler via SetTypeNameResolver (see format.go)
	// since this package has no dependency on internal/types.
	typeName func(ast.TypeID) (string, bool)

	// maxIterations overrides maxFixedPointIterations when positive.
	// Installed by internal/compiler from config.Options.MaxMacroIterations
	// — see SetMaxIterations.
	maxIterations int
}

// SetMaxIterations overrides the fixed-point loop's safety bound for this
// Env. n <= 0 restores the package default.
func (e *Env) SetMaxIterations(n int) {
	e.maxIterations = n
}

func (e *Env) maxFixedPointIterations() int {
	if e.maxIterations > 0 {
		return e.maxIterations
	}
	return maxFixedPointIterations
}

// NewEnv creates a macro-expansion environment bound to senv, the same
// symbol table collection and name resolution populated.
func NewEnv(senv *sema.Env) *Env {
	return &Env{senv: senv}
}

func (e *Env) nextInvocationID() int {
	id := e.nextID
	e.nextID++
	return id
}

// ExpandModule repeatedly finds every unexpanded *ast.MacroInvocation
// reachable from root and expands it in place, until none remain (a fixed
// point) or maxFixedPointIterations is hit. Spec §4: "expand macros (H,
// may feed back to D, then E–G)" — re-running import resolution, name
// resolution and type-checking over the freshly grafted subtrees is the
// caller's responsibility (internal/compiler's pipeline orchestrator,
// Task #10), since this package only owns the substitution itself.
func ExpandModule(senv *sema.Env, env *Env, root *ast.Block) (bool, error) {
	changed := false
	limit := env.maxFixedPointIterations()
	for i := 0; i < limit; i++ {
		var pending []*ast.MacroInvocation
		ast.Visit(root, ast.PreOrder, func(n ast.Node) bool {
			inv, ok := n.(*ast.MacroInvocation)
			if ok && !inv.HasExpansion() {
				pending = append(pending, inv)
			}
			return true
		})
		if len(pending) == 0 {
			return changed, nil
		}

		for _, inv := range pending {
			if err := env.expandInvocation(senv, inv); err != nil {
				return changed, err
			}
		}
		changed = true
	}
	return changed, newError(errkind.Internal, root.Loc(), "macro expansion did not reach a fixed point after %d iterations", limit)
}

// expandInvocation resolves inv's macro definition, selects a branch, and
// sets inv.Expansion to the cloned, hygienically renamed, substituted
// branch body.
func (e *Env) expandInvocation(senv *sema.Env, inv *ast.MacroInvocation) error {
	if inv.Name == "format" {
		return e.expandFormat(inv)
	}

	def, err := e.lookupMacro(senv, inv.Name, inv.Loc())
	if err != nil {
		return err
	}

	invocationExprs, err := e.flattenListCaptures(inv.Exprs, inv.Loc())
	if err != nil {
		return err
	}

	best, tie, ok := def.SelectBranch(len(invocationExprs))
	if !ok {
		return newError(errkind.MacroNoMatch, inv.Loc(), "could not match a branch for macro '%s' defined at %s", inv.Name, def.Loc())
	}
	if tie != nil {
		return newError(errkind.MacroAmbiguousMatch, inv.Loc(), "macro branches at %s and %s both match", best.Loc(), tie.Loc())
	}

	branch := best.Clone().(*ast.MacroBranch)

	prefix := fmt.Sprintf("$%d", e.nextInvocationID())
	renameIdentifiers(branch, prefix)

	subst, err := e.buildSubstitution(branch, invocationExprs, inv.Loc())
	if err != nil {
		return err
	}

	substitute(branch.Body, subst)
	inv.Expansion = branch.Body
	return nil
}

// lookupMacro resolves a bare macro name to its definition. Macros are
// module-level declarations (internal/collect declares every MacroDef as
// a sema.SymbolMacro at module scope, see DESIGN.md), so a name lookup by
// kind alone — without threading the invocation's lexical scope through —
// is sufficient, mirroring macro::env::get_macro's flat name table.
func (e *Env) lookupMacro(senv *sema.Env, name string, loc ast.SourceLoc) (*ast.MacroDef, error) {
	id, ok := senv.GetSymbolIDByKind(name, sema.SymbolMacro)
	if !ok {
		return nil, newError(errkind.UnresolvedName, loc, "macro '%s' not found", name)
	}
	info := senv.Symbol(id)
	def, ok := info.Reference.Node.(*ast.MacroDef)
	if !ok {
		return nil, newError(errkind.Internal, loc, "symbol '%s' is not a macro definition", name)
	}
	return def, nil
}

// flattenListCaptures implements spec §4.H step 1: "Expand any argument
// that is itself a reference bound to a prior list capture, flattening
// into the argument list. List captures may appear only as the last
// argument of an invocation." In this architecture a prior list capture
// has already been substituted in place as a literal *ast.MacroExprList
// node (see substitute's *ast.VariableRef case and buildSubstitution's
// list-capture branch below) rather than left as a reference carrying a
// deferred expansion, so flattening here means: clone every invocation
// expression, and if the last one is itself a *ast.MacroExprList, splice
// its elements in; if any non-last expression is one, that's the "list
// capture used in a non-trailing position" error.
func (e *Env) flattenListCaptures(exprs []ast.Node, loc ast.SourceLoc) ([]ast.Node, error) {
	cloned := make([]ast.Node, len(exprs))
	for i, expr := range exprs {
		cloned[i] = expr.Clone()
	}

	for i, expr := range cloned {
		if i == len(cloned)-1 {
			break
		}
		if _, ok := expr.(*ast.MacroExprList); ok {
			return nil, newError(errkind.Internal, loc, "argument %d cannot be a macro expression list", i)
		}
	}

	if len(cloned) == 0 {
		return cloned, nil
	}

	if list, ok := cloned[len(cloned)-1].(*ast.MacroExprList); ok {
		cloned = cloned[:len(cloned)-1]
		cloned = append(cloned, list.Exprs...)
	}

	return cloned, nil
}

// buildSubstitution maps each (already-renamed) branch argument name to
// the invocation expression it stands for, implementing spec §4.H step 4.
// The final argument of a branch ending in a list capture maps instead to
// a transient *ast.MacroExprList holding every remaining invocation
// expression (zero or more of them — see DESIGN.md for why this
// implementation allows zero where original_source's expand_invocation_
// args throws "Empty expression list.").
func (e *Env) buildSubstitution(branch *ast.MacroBranch, invocationExprs []ast.Node, loc ast.SourceLoc) (map[string]ast.Node, error) {
	subst := make(map[string]ast.Node, len(branch.Args))

	fixedCount := len(branch.Args)
	if branch.EndsWithListCapture {
		fixedCount--
	}

	for i, arg := range branch.Args {
		if branch.EndsWithListCapture && i == len(branch.Args)-1 {
			rest := invocationExprs[fixedCount:]
			exprs := make([]ast.Node, len(rest))
			for j, r := range rest {
				exprs[j] = r.Clone()
			}
			subst[arg.Name] = ast.NewMacroExprList(loc, exprs)
			continue
		}
		if i >= len(invocationExprs) {
			return nil, newError(errkind.Internal, loc, "macro argument '%s' has no corresponding invocation expression", arg.Name)
		}
		subst[arg.Name] = invocationExprs[i]
	}

	return subst, nil
}
