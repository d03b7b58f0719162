package constant

import (
	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
)

// binaryOps is the operator set spec §4.G allows in a const-eligible
// binary expression. Grounded on eval.cpp's binary_expression::is_const_eval
// bin_ops array (18 entries, the same count and members).
var binaryOps = map[ast.BinaryOp]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"<<": true, ">>": true,
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
	"&": true, "^": true, "|": true,
	"&&": true, "||": true,
}

// unaryOps is the operator set spec §4.G allows in a const-eligible unary
// expression. Grounded on eval.cpp's unary_expression::is_const_eval.
var unaryOps = map[ast.UnaryOp]bool{
	"+": true, "-": true, "!": true, "~": true,
}

// IsConstEval reports whether node is const-eligible: spec §4.G — "a
// literal, a reference to a bound constant, a unary or binary operator
// with the supported operator set applied to const-eligible operands, or a
// cast between primitives of const-eligible operand." The result is
// memoized on env, keyed by node identity (spec: "stores results keyed by
// AST node identity").
func IsConstEval(env *Env, node ast.Node) bool {
	if v, ok := env.IsExpressionConstEval(node); ok {
		return v
	}

	v := computeIsConstEval(env, node)
	env.SetExpressionConstEval(node, v)
	return v
}

func computeIsConstEval(env *Env, node ast.Node) bool {
	switch n := node.(type) {
	case *ast.Literal:
		return true

	case *ast.NamespaceAccess:
		return IsConstEval(env, n.Expr)

	case *ast.VariableRef:
		_, ok := env.GetConstInfo(n.SymbolID)
		return ok

	case *ast.Binary:
		if !binaryOps[n.Op] {
			return false
		}
		return IsConstEval(env, n.Lhs) && IsConstEval(env, n.Rhs)

	case *ast.Unary:
		if !unaryOps[n.Op] {
			return false
		}
		return IsConstEval(env, n.Operand)

	case *ast.Cast:
		// spec §4.G: "a cast between primitives of const-eligible
		// operand" — a deliberate extension over original_source, where
		// type_cast_expression never overrides is_const_eval/evaluate and
		// so a cast is never folded (see DESIGN.md).
		if n.Target.Name != "i32" && n.Target.Name != "f32" {
			return false
		}
		return IsConstEval(env, n.Expr)

	default:
		return false
	}
}

// Evaluate folds node to its compile-time value. It returns ok == false
// when node is not const-eligible (mirrors std::optional's empty state);
// a non-nil error signals a hard compile-time failure spec §4.G calls out
// (division/modulo by zero). Every intermediate node's value is cached on
// env as it is computed, so re-evaluating a shared subexpression is free.
func Evaluate(env *Env, node ast.Node) (Info, bool, error) {
	if !IsConstEval(env, node) {
		return Info{}, false, nil
	}
	if v, ok := env.GetExpressionValue(node); ok {
		return v, true, nil
	}

	v, ok, err := computeEvaluate(env, node)
	if err != nil {
		return Info{}, false, err
	}
	if ok {
		env.SetExpressionValue(node, v)
	}
	return v, ok, nil
}

func computeEvaluate(env *Env, node ast.Node) (Info, bool, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return literalValue(n), true, nil

	case *ast.NamespaceAccess:
		return Evaluate(env, n.Expr)

	case *ast.VariableRef:
		info, ok := env.GetConstInfo(n.SymbolID)
		return info, ok, nil

	case *ast.Binary:
		return evaluateBinary(env, n)

	case *ast.Unary:
		return evaluateUnary(env, n)

	case *ast.Cast:
		return evaluateCast(env, n)

	default:
		return Info{}, false, nil
	}
}

func literalValue(n *ast.Literal) Info {
	switch n.LitKind {
	case ast.LiteralInt:
		return Info{Type: I32, Value: n.IntVal}
	case ast.LiteralFloat:
		return Info{Type: F32, Value: n.FltVal}
	default:
		return Info{Type: Str, Value: n.StrVal}
	}
}

// evaluateBinary folds a binary operator over two already-folded operands.
// Grounded on eval.cpp's binary_operation_helper / eval_map / comp_map:
// operand types must match, division/modulo by zero is a hard error,
// shifts mask their amount to 5 bits, bitwise/logical operators reject f32
// operands, and comparisons yield i32 (0 or 1) for either operand type.
func evaluateBinary(env *Env, n *ast.Binary) (Info, bool, error) {
	lhs, ok, err := Evaluate(env, n.Lhs)
	if err != nil || !ok {
		return Info{}, ok, err
	}
	rhs, ok, err := Evaluate(env, n.Rhs)
	if err != nil || !ok {
		return Info{}, ok, err
	}

	if lhs.Type != rhs.Type {
		return Info{}, false, newError(errkind.Internal, n.Loc(),
			"operand types don't match for binary operator evaluation: '%s' != '%s'", lhs.Type, rhs.Type)
	}

	switch n.Op {
	case "<", "<=", ">", ">=", "==", "!=":
		return Info{Type: I32, Value: compareConst(n.Op, lhs, rhs)}, true, nil
	default:
		return arithmeticConst(n.Loc(), n.Op, lhs, rhs)
	}
}

func compareConst(op ast.BinaryOp, lhs, rhs Info) int32 {
	var cmp bool
	if lhs.Type == I32 {
		a, b := lhs.Int(), rhs.Int()
		switch op {
		case "<":
			cmp = a < b
		case "<=":
			cmp = a <= b
		case ">":
			cmp = a > b
		case ">=":
			cmp = a >= b
		case "==":
			cmp = a == b
		case "!=":
			cmp = a != b
		}
	} else {
		a, b := lhs.Float(), rhs.Float()
		switch op {
		case "<":
			cmp = a < b
		case "<=":
			cmp = a <= b
		case ">":
			cmp = a > b
		case ">=":
			cmp = a >= b
		case "==":
			cmp = a == b
		case "!=":
			cmp = a != b
		}
	}
	if cmp {
		return 1
	}
	return 0
}

func arithmeticConst(loc ast.SourceLoc, op ast.BinaryOp, lhs, rhs Info) (Info, bool, error) {
	if lhs.Type == Str {
		return Info{}, false, newError(errkind.Internal, loc, "invalid type 'str' for binary operator '%s'", op)
	}

	isF32 := lhs.Type == F32

	switch op {
	case "%", "<<", ">>", "&", "^", "|", "&&", "||":
		if isF32 {
			return Info{}, false, newError(errkind.Internal, loc, "invalid type 'f32' for binary operator '%s'", op)
		}
	}

	if isF32 {
		a, b := lhs.Float(), rhs.Float()
		switch op {
		case "+":
			return Info{Type: F32, Value: a + b}, true, nil
		case "-":
			return Info{Type: F32, Value: a - b}, true, nil
		case "*":
			return Info{Type: F32, Value: a * b}, true, nil
		case "/":
			if b == 0 {
				return Info{}, false, newError(errkind.DivideByZero, loc, "division by zero detected while evaluating constant")
			}
			return Info{Type: F32, Value: a / b}, true, nil
		}
		return Info{}, false, nil
	}

	a, b := lhs.Int(), rhs.Int()
	switch op {
	case "+":
		return Info{Type: I32, Value: a + b}, true, nil
	case "-":
		return Info{Type: I32, Value: a - b}, true, nil
	case "*":
		return Info{Type: I32, Value: a * b}, true, nil
	case "/":
		if b == 0 {
			return Info{}, false, newError(errkind.DivideByZero, loc, "division by zero detected while evaluating constant")
		}
		return Info{Type: I32, Value: a / b}, true, nil
	case "%":
		if b == 0 {
			return Info{}, false, newError(errkind.DivideByZero, loc, "division by zero detected while evaluating constant")
		}
		return Info{Type: I32, Value: a % b}, true, nil
	case "<<":
		return Info{Type: I32, Value: a << (uint32(b) & 0x1f)}, true, nil
	case ">>":
		return Info{Type: I32, Value: a >> (uint32(b) & 0x1f)}, true, nil
	case "&":
		return Info{Type: I32, Value: a & b}, true, nil
	case "^":
		return Info{Type: I32, Value: a ^ b}, true, nil
	case "|":
		return Info{Type: I32, Value: a | b}, true, nil
	case "&&":
		return Info{Type: I32, Value: boolToI32(a != 0 && b != 0)}, true, nil
	case "||":
		return Info{Type: I32, Value: boolToI32(a != 0 || b != 0)}, true, nil
	default:
		return Info{}, false, nil
	}
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// evaluateUnary folds a unary operator over its already-folded operand.
// Grounded on eval.cpp's unary_operation_helper / eval_map: `!` and `~`
// reject f32 operands, and `!`/`~` compute their result the way the
// generated opcodes do (`!a` as `a == 0`, `~a` as `(~0) ^ a`).
func evaluateUnary(env *Env, n *ast.Unary) (Info, bool, error) {
	v, ok, err := Evaluate(env, n.Operand)
	if err != nil || !ok {
		return Info{}, ok, err
	}

	if v.Type == Str {
		return Info{}, false, newError(errkind.Internal, n.Loc(), "invalid type 'str' for unary operator '%s'", n.Op)
	}

	if v.Type == F32 {
		a := v.Float()
		switch n.Op {
		case "+":
			return Info{Type: F32, Value: a}, true, nil
		case "-":
			return Info{Type: F32, Value: -a}, true, nil
		default:
			return Info{}, false, newError(errkind.Internal, n.Loc(), "invalid type 'f32' for unary operator '%s'", n.Op)
		}
	}

	a := v.Int()
	switch n.Op {
	case "+":
		return Info{Type: I32, Value: a}, true, nil
	case "-":
		return Info{Type: I32, Value: -a}, true, nil
	case "!":
		return Info{Type: I32, Value: boolToI32(a == 0)}, true, nil
	case "~":
		return Info{Type: I32, Value: (^int32(0)) ^ a}, true, nil
	default:
		return Info{}, false, nil
	}
}

// evaluateCast folds a cast between const-eligible primitives — the
// supplemented rule spec §4.G adds over original_source (see
// computeIsConstEval). Value conversion matches Go's int32<->float32
// conversion, the same truncating/rounding semantics as the C++
// static_cast the generated "cast" opcode performs at runtime.
func evaluateCast(env *Env, n *ast.Cast) (Info, bool, error) {
	v, ok, err := Evaluate(env, n.Expr)
	if err != nil || !ok {
		return Info{}, ok, err
	}

	switch n.Target.Name {
	case "i32":
		if v.Type == I32 {
			return v, true, nil
		}
		return Info{Type: I32, Value: int32(v.Float())}, true, nil
	case "f32":
		if v.Type == F32 {
			return v, true, nil
		}
		return Info{Type: F32, Value: float32(v.Int())}, true, nil
	default:
		return Info{}, false, nil
	}
}
