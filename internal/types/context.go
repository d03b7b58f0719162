package types

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
	"github.com/slang-lang/slang/internal/sema"
)

// arrayFieldName is the built-in pseudo-struct "@array" exposes: a
// read-only element count. Spec §4.F: "Member access: the receiver must be
// a struct or the built-in pseudo-struct @array (which exposes a
// read-only length: i32)".
const arrayFieldName = "length"

// Error is a type-system diagnostic tagged with the errkind.Kind the spec's
// §7 error-handling design assigns it (TypeMismatch, InvalidCast, WrongArity
// or, for a cast/member/subscript precondition violation that doesn't fit
// those three, TypeMismatch as the catch-all).
type Error struct {
	Kind errkind.Kind
	Loc  ast.SourceLoc
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: [%s] %s", e.Loc, e.Kind, e.Msg) }

func newError(kind errkind.Kind, loc ast.SourceLoc, format string, args ...any) *Error {
	return &Error{Kind: kind, Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// Context owns the type arena and the declaration-phase symbol→type
// bindings (stored on the shared sema.Env so later phases — constant
// evaluation, codegen — can look a symbol's type up without importing
// internal/types itself).
type Context struct {
	Env *sema.Env

	arena      []*Info
	byName     map[string]ast.TypeID
	arrayCache map[ast.TypeID]ast.TypeID

	// arrayStructID is the type id of the built-in "@array" pseudo-struct,
	// used by member access on an array receiver.
	arrayStructID ast.TypeID
}

// NewContext creates a type context with the language's built-in types
// already registered: the three primitives (i32, f32, str), void (a
// function's absent return type), @null (the type of the null literal) and
// the @array pseudo-struct.
func NewContext(env *sema.Env) *Context {
	c := &Context{
		Env:        env,
		byName:     make(map[string]ast.TypeID),
		arrayCache: make(map[ast.TypeID]ast.TypeID),
	}

	c.registerBuiltin(ClassI32, "i32")
	c.registerBuiltin(ClassF32, "f32")
	c.registerBuiltin(ClassStr, "str")
	c.registerBuiltin(ClassVoid, "void")
	c.registerBuiltin(ClassNull, "@null")

	i32ID := c.byName["i32"]
	c.arrayStructID = c.intern(&Info{
		Class:  ClassStruct,
		Name:   "@array",
		Fields: []Field{{Name: arrayFieldName, Type: i32ID}},
	})
	c.byName["@array"] = c.arrayStructID

	return c
}

func (c *Context) registerBuiltin(class Class, name string) {
	id := c.intern(&Info{Class: class, Name: name})
	c.byName[name] = id
}

func (c *Context) intern(info *Info) ast.TypeID {
	id := ast.TypeID(len(c.arena))
	info.ID = id
	c.arena = append(c.arena, info)
	return id
}

// Info returns the type descriptor for id. Panics on an invalid id, since
// every id in circulation past the declare phase was minted by this same
// context.
func (c *Context) Info(id ast.TypeID) *Info {
	return c.arena[int(id)]
}

// IsBuiltinName reports whether name is one of the built-in primitive or
// pseudo types, grounded on original_source's ty::is_builtin_type.
func (c *Context) IsBuiltinName(name string) bool {
	switch name {
	case "i32", "f32", "str", "void", "@null":
		return true
	default:
		return false
	}
}

// GetBuiltin returns the type id registered under name: one of the
// built-in type names, "@array", or a struct name DeclareStructType has
// registered.
func (c *Context) GetBuiltin(name string) (ast.TypeID, bool) {
	id, ok := c.byName[name]
	return id, ok
}

// ArrayOf interns (or returns the cached) array-of-elem type.
func (c *Context) ArrayOf(elem ast.TypeID) ast.TypeID {
	if id, ok := c.arrayCache[elem]; ok {
		return id
	}
	id := c.intern(&Info{Class: ClassArray, Name: "[" + c.Info(elem).Name + "]", Elem: elem})
	c.arrayCache[elem] = id
	return id
}

// IsReferenceType reports whether id names a type `null` may be assigned
// to: an array, a string, or a struct (spec §4.F).
func (c *Context) IsReferenceType(id ast.TypeID) bool {
	switch c.Info(id).Class {
	case ClassArray, ClassStr, ClassStruct:
		return true
	default:
		return false
	}
}

// DeclareStructType registers symbolID (a struct's SymbolType symbol) as a
// type with its fields not yet filled in — the declaration phase (spec
// §4.F: "registers type names without their bodies so that mutually
// recursive structs resolve"). Calling it twice for the same symbol is a
// caller error (internal), since collection already rejected a duplicate
// struct name.
func (c *Context) DeclareStructType(symbolID ast.SymbolID, name string) ast.TypeID {
	id := c.intern(&Info{Class: ClassStruct, Name: name, DeclSymbol: symbolID})
	c.byName[name] = id
	c.Env.BindType(symbolID, id)
	return id
}

// DefineStructType fills in id's field list — the definition phase (spec
// §4.F). Must run after every struct in the module has been through
// DeclareStructType, so field types that reference another struct resolve
// regardless of declaration order.
func (c *Context) DefineStructType(id ast.TypeID, fields []Field) {
	c.Info(id).Fields = fields
}

// DeclareFunctionType registers symbolID's prototype type (parameter types
// plus return type) without checking the body (spec §4.F: "Function
// declaration registers prototype types but does not check bodies").
func (c *Context) DeclareFunctionType(symbolID ast.SymbolID, params []ast.TypeID, ret ast.TypeID) ast.TypeID {
	id := c.intern(&Info{Class: ClassFunc, Params: params, Return: ret, DeclSymbol: symbolID})
	c.Env.BindType(symbolID, id)
	return id
}

// GetStructDefinition returns the struct type id's descriptor if id names a
// struct (including the built-in "@array" pseudo-struct).
func (c *Context) GetStructDefinition(id ast.TypeID) (*Info, bool) {
	info := c.Info(id)
	if info.Class != ClassStruct {
		return nil, false
	}
	return info, true
}

// EachType calls fn once per type registered in the arena, in id order
// (built-ins and the "@array" pseudo-struct first, then every declared
// struct/function type, in declaration order). internal/emit uses this to
// enumerate struct types when building a module's export table (spec
// §4.J step 3).
func (c *Context) EachType(fn func(id ast.TypeID, info *Info)) {
	for _, info := range c.arena {
		fn(info.ID, info)
	}
}

// ResolveTypeExpr resolves a syntactic type annotation to a concrete type
// id, caching the result on expr.Resolved. A named type first checks the
// builtin table, then looks up a SymbolType symbol visible from scope and
// reads its bound type id (set by DeclareStructType) — this is how a type
// annotation naming a struct declared later in the same module still
// resolves, since declaration (not definition) runs for every struct before
// any type annotation is resolved against it.
func (c *Context) ResolveTypeExpr(expr *ast.TypeExpr, scope ast.ScopeID) (ast.TypeID, error) {
	if expr.Resolved.IsValid() {
		return expr.Resolved, nil
	}

	var id ast.TypeID
	switch expr.ExprKind {
	case ast.TypeExprArray:
		elem, err := c.ResolveTypeExpr(expr.Elem, scope)
		if err != nil {
			return ast.InvalidTypeID, err
		}
		id = c.ArrayOf(elem)

	default:
		if builtinID, ok := c.GetBuiltin(expr.Name); ok {
			id = builtinID
			break
		}

		symID, ok := c.Env.GetSymbolID(expr.Name, sema.SymbolType, scope)
		if !ok {
			return ast.InvalidTypeID, newError(errkind.UnresolvedName, expr.Loc(), "unknown type '%s'", expr.Name)
		}
		typeID, ok := c.Env.TypeOfSymbol(symID)
		if !ok {
			return ast.InvalidTypeID, newError(errkind.Internal, expr.Loc(), "type '%s' was declared but never given a type id", expr.Name)
		}
		id = typeID
	}

	expr.Resolved = id
	return id, nil
}
