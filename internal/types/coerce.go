package types

import "github.com/slang-lang/slang/internal/ast"

// IsConvertible reports whether a value of type from may stand in for a
// value of type to without an explicit cast — the "small coercion table"
// spec §4.F allows at a function-call site in addition to an exact type
// match. original_source's ty::context::is_convertible is declared on the
// missing type.h and never defined in the retrieved pack (see DESIGN.md);
// the one rule grounded on concrete call sites in ast.cpp is the null→
// reference-type coercion already used for assignment and struct-field
// initializers, so that is the only entry in this table.
func (c *Context) IsConvertible(from, to ast.TypeID) bool {
	if from == to {
		return true
	}
	return c.IsReferenceType(to) && from == c.mustNull()
}

// assignableTo reports whether a value of type from may be stored into, or
// compared against, a location of type to under the match-or-null-to-
// reference rule spec §4.F states for assignment and initializers.
func (c *Context) assignableTo(to, from ast.TypeID) bool {
	return to == from || (c.IsReferenceType(to) && from == c.mustNull())
}

// equatable reports whether two operand types may appear on either side of
// `==`/`!=`: matching types, or a reference type paired with @null in
// either position (spec §4.F: "Reference equality also allows
// (reference_type, null) and (null, reference_type)").
func (c *Context) equatable(a, b ast.TypeID) bool {
	if a == b {
		return true
	}
	null := c.mustNull()
	return (c.IsReferenceType(a) && b == null) || (c.IsReferenceType(b) && a == null)
}

func (c *Context) mustNull() ast.TypeID {
	id, _ := c.GetBuiltin("@null")
	return id
}

func (c *Context) isNumeric(id ast.TypeID) bool {
	i32ID, _ := c.GetBuiltin("i32")
	f32ID, _ := c.GetBuiltin("f32")
	return id == i32ID || id == f32ID
}
