// Package types implements the compiler's type system (spec §4.F): a
// two-phase declare/define pass over struct and function types, and a
// bottom-up type-checking walk that annotates every node with the type id
// it computes and validates operator, call, cast and initializer rules.
package types

import "github.com/slang-lang/slang/internal/ast"

// Class distinguishes the shape an Info describes. Grounded on
// original_source/src/compiler/ast/ast.cpp's use of cg::type_class /
// ty::type_class (i32, f32, str, struct_, null, plus the array distinction
// ty::type_class::tc_array vs tc_plain).
type Class uint8

const (
	ClassI32 Class = iota
	ClassF32
	ClassStr
	ClassVoid
	ClassNull
	ClassArray
	ClassStruct
	ClassFunc
)

func (c Class) String() string {
	switch c {
	case ClassI32:
		return "i32"
	case ClassF32:
		return "f32"
	case ClassStr:
		return "str"
	case ClassVoid:
		return "void"
	case ClassNull:
		return "@null"
	case ClassArray:
		return "array"
	case ClassStruct:
		return "struct"
	case ClassFunc:
		return "func"
	default:
		return "unknown-class"
	}
}

// Field is one member of a struct type: its name and the type id of its
// declared type.
type Field struct {
	Name string
	Type ast.TypeID
}

// Info is one entry of the type arena. Name is the builtin or struct name
// ("i32", "Point", …); Elem is valid only for ClassArray; Fields is valid
// only for ClassStruct (and for the built-in pseudo-struct "@array", whose
// sole field is the read-only "length: i32" spec §4.F calls out by name);
// Params/Return are valid only for ClassFunc; DeclSymbol is the symbol id
// of the struct/function declaration this type was registered for, used to
// look up directives like @allow_cast attached to it.
type Info struct {
	ID         ast.TypeID
	Class      Class
	Name       string
	Elem       ast.TypeID
	Fields     []Field
	Params     []ast.TypeID
	Return     ast.TypeID
	DeclSymbol ast.SymbolID
}

func (t *Info) FieldType(name string) (ast.TypeID, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Type, true
		}
	}
	return ast.InvalidTypeID, false
}
