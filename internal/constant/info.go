// Package constant implements the constant evaluator (spec §4.G): folding
// of const-eligible expressions into host-side values, so that a `const`
// binding or a foldable subexpression becomes a constant-pool entry instead
// of a runtime load/compute.
//
// Grounded on original_source/src/compiler/constant.h (complete, unlike
// type.h) and original_source/src/compiler/ast/eval.cpp (the per-node
// is_const_eval/evaluate overrides).
package constant

import "fmt"

// Type tags the host-side representation a Value carries. Grounded on
// const_::constant_type.
type Type uint8

const (
	I32 Type = iota
	F32
	Str
)

func (t Type) String() string {
	switch t {
	case I32:
		return "i32"
	case F32:
		return "f32"
	case Str:
		return "str"
	default:
		return fmt.Sprintf("constant-type(%d)", uint8(t))
	}
}

// Info is a single constant value: a type tag plus the value itself, held
// as the Go type matching Type (int32, float32 or string). Grounded on
// const_::const_info — the original's std::variant is a plain `any` field
// here since Type already discriminates it.
type Info struct {
	Type  Type
	Value any
}

func (i Info) Int() int32     { return i.Value.(int32) }
func (i Info) Float() float32 { return i.Value.(float32) }
func (i Info) String() string { return i.Value.(string) }

// Equal mirrors const_info::operator==, used by Env.SetConstInfo to detect
// a symbol rebound to a conflicting value.
func (i Info) Equal(other Info) bool {
	return i.Type == other.Type && i.Value == other.Value
}

// ID is an interning key for string constants pooled across the module.
// Grounded on const_::constant_id.
type ID uint64
