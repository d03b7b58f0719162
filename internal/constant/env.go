package constant

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
)

// Error is a constant-evaluation diagnostic: a folding rule spec §4.G
// states was violated (division/modulo by zero, or — for internal
// invariant violations such as asking for a value never computed —
// errkind.Internal).
type Error struct {
	Kind errkind.Kind
	Loc  ast.SourceLoc
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: [%s] %s", e.Loc, e.Kind, e.Msg) }

func newError(kind errkind.Kind, loc ast.SourceLoc, format string, args ...any) *Error {
	return &Error{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// Env is the constant-evaluation environment threaded through a module's
// const-eval pass: it remembers which symbols are bound to a constant
// value, interns string literals into a module-wide pool, and memoizes the
// const-eligibility and folded value of every expression node so that a
// diamond-shaped reference to the same subexpression (e.g. through a macro
// expansion) is folded once. Grounded on const_::env (constant.h).
type Env struct {
	constInfo    map[ast.SymbolID]Info
	literalPool  map[ID]Info
	internedByID map[string]ID

	evalFlag  map[ast.Node]bool
	evalValue map[ast.Node]Info

	nextID ID
}

// NewEnv returns an empty constant-evaluation environment.
func NewEnv() *Env {
	return &Env{
		constInfo:    make(map[ast.SymbolID]Info),
		literalPool:  make(map[ID]Info),
		internedByID: make(map[string]ID),
		evalFlag:     make(map[ast.Node]bool),
		evalValue:    make(map[ast.Node]Info),
	}
}

// SetConstInfo binds symbolID (a const declaration's symbol) to info.
// Rebinding the same symbol to an unequal value is an internal-consistency
// error — spec's single-binding-site const declarations never try.
// Grounded on const_::env::set_const_info.
func (e *Env) SetConstInfo(loc ast.SourceLoc, symbolID ast.SymbolID, info Info) error {
	if existing, ok := e.constInfo[symbolID]; ok {
		if !existing.Equal(info) {
			return newError(errkind.Internal, loc, "constant info already exists for this symbol with a different value")
		}
		return nil
	}
	e.constInfo[symbolID] = info
	return nil
}

// GetConstInfo returns the value bound to symbolID, if any. Grounded on
// const_::env::get_const_info.
func (e *Env) GetConstInfo(symbolID ast.SymbolID) (Info, bool) {
	info, ok := e.constInfo[symbolID]
	return info, ok
}

// Intern pools a string constant, returning a stable id for it; repeated
// interning of the same string content returns the same id. Grounded on
// const_::env::intern (declared in constant.h but its body was not present
// in the retrieved pack — dedup-by-content is the only behavior an
// "intern" operation can mean, so that is what this does).
func (e *Env) Intern(s string) ID {
	if id, ok := e.internedByID[s]; ok {
		return id
	}
	id := e.nextID
	e.nextID++
	e.internedByID[s] = id
	e.literalPool[id] = Info{Type: Str, Value: s}
	return id
}

// LiteralPool returns the module's interned string constants, keyed by id,
// for the emitter's constant section.
func (e *Env) LiteralPool() map[ID]Info {
	return e.literalPool
}

// SetExpressionConstEval records whether node was found const-eligible.
// Grounded on const_::env::set_expression_const_eval.
func (e *Env) SetExpressionConstEval(node ast.Node, isConstEval bool) {
	e.evalFlag[node] = isConstEval
}

// IsExpressionConstEval reports whether node's const-eligibility was
// already computed, and if so, what it was. Grounded on
// const_::env::is_expression_const_eval.
func (e *Env) IsExpressionConstEval(node ast.Node) (bool, bool) {
	v, ok := e.evalFlag[node]
	return v, ok
}

// IsExpressionEvaluated reports whether node's folded value was already
// computed. Grounded on const_::env::is_expression_evaluated.
func (e *Env) IsExpressionEvaluated(node ast.Node) bool {
	_, ok := e.evalValue[node]
	return ok
}

// SetExpressionValue records node's folded value. Grounded on
// const_::env::set_expression_value.
func (e *Env) SetExpressionValue(node ast.Node, info Info) {
	e.evalValue[node] = info
}

// GetExpressionValue returns node's folded value. Grounded on
// const_::env::get_expression_value; callers must only call this after
// IsExpressionEvaluated reports true.
func (e *Env) GetExpressionValue(node ast.Node) (Info, bool) {
	v, ok := e.evalValue[node]
	return v, ok
}
