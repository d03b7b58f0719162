package macro

import (
	"strings"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/errkind"
)

// placeholderKind is the decoded form of one `{...}` slot in a format!
// string. Grounded on spec.md's format! paragraph: "{d} = i32, {f} = f32,
// {s} = str, {} = inferred, doubled braces = literal brace."
type placeholderKind uint8

const (
	placeholderI32 placeholderKind = iota
	placeholderF32
	placeholderStr
	placeholderInferred
)

// SetTypeNameResolver installs the callback Expand uses to resolve a `{}`
// inferred placeholder's expected conversion from its argument's already
// type-checked TypeID — grounded on macros.cpp, where the original reads
// the argument's own ty::info directly off a shared compilation context.
// This package has no dependency on internal/types (to avoid the import
// coupling that would create), so the compiler pipeline orchestrator
// (internal/compiler) supplies this resolver once it has a types.Context
// in hand.
func (e *Env) SetTypeNameResolver(fn func(ast.TypeID) (string, bool)) {
	e.typeName = fn
}

// expandFormat implements the built-in `format!` macro (spec.md "A built-in
// macro format! is provided..."). Its first argument must be a string
// literal; the rest are substituted positionally into the parsed
// placeholders. Grounded on the example expansion spec.md gives verbatim:
// format!("x={d}, y={s}", n, name) with n: i32, name: str becomes
// std::string_concat(std::string_concat(std::string_concat("x=",
// std::i32_to_string(n)), ", y="), name).
func (e *Env) expandFormat(inv *ast.MacroInvocation) error {
	if len(inv.Exprs) == 0 {
		return newError(errkind.InvalidFormatString, inv.Loc(), "format! requires a format-string argument")
	}
	lit, ok := inv.Exprs[0].(*ast.Literal)
	if !ok || lit.LitKind != ast.LiteralString {
		return newError(errkind.InvalidFormatString, inv.Loc(), "format!'s first argument must be a string literal")
	}

	frags, err := parseFormatString(lit.StrVal, inv.Loc())
	if err != nil {
		return err
	}

	args := inv.Exprs[1:]

	var placeholders int
	for _, f := range frags {
		if f.isPlaceholder {
			placeholders++
		}
	}
	if placeholders != len(args) {
		return newError(errkind.InvalidFormatString, inv.Loc(),
			"format! string has %d placeholder(s) but %d argument(s) were given", placeholders, len(args))
	}

	var parts []ast.Node
	argIdx := 0
	for _, f := range frags {
		if !f.isPlaceholder {
			if f.literal == "" {
				continue
			}
			parts = append(parts, &ast.Literal{Base: baseAt(inv.Loc()), LitKind: ast.LiteralString, StrVal: f.literal})
			continue
		}

		arg := args[argIdx]
		argIdx++

		part, err := e.formatArg(f.kind, arg, inv.Loc())
		if err != nil {
			return err
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		inv.Expansion = &ast.Literal{Base: baseAt(inv.Loc()), LitKind: ast.LiteralString, StrVal: ""}
		return nil
	}

	acc := parts[0]
	for _, p := range parts[1:] {
		acc = &ast.Call{
			Base:       baseAt(inv.Loc()),
			Callee:     "std::string_concat",
			Args:       []ast.Node{acc, p},
			SymbolID:   ast.InvalidSymbolID,
			ReturnType: ast.InvalidTypeID,
		}
	}
	inv.Expansion = acc
	return nil
}

// formatArg type-checks argument against kind and returns the node to
// splice into the concat chain: the argument itself for str, or a
// std::<type>_to_string(argument) call otherwise.
func (e *Env) formatArg(kind placeholderKind, arg ast.Node, loc ast.SourceLoc) (ast.Node, error) {
	resolved := kind
	if kind == placeholderInferred {
		if e.typeName == nil {
			return nil, newError(errkind.InvalidFormatString, loc, "cannot infer type of a bare {} placeholder here")
		}
		name, ok := e.typeName(ast.TypeOf(arg))
		if !ok {
			return nil, newError(errkind.InvalidFormatString, loc, "cannot infer type of a bare {} placeholder here")
		}
		switch name {
		case "i32":
			resolved = placeholderI32
		case "f32":
			resolved = placeholderF32
		case "str":
			resolved = placeholderStr
		default:
			return nil, newError(errkind.TypeMismatch, loc, "format! cannot convert a value of type '%s' to str", name)
		}
	} else if e.typeName != nil {
		name, ok := e.typeName(ast.TypeOf(arg))
		if ok {
			want := map[placeholderKind]string{placeholderI32: "i32", placeholderF32: "f32", placeholderStr: "str"}[kind]
			if name != want {
				return nil, newError(errkind.TypeMismatch, loc, "format! placeholder expects %s but argument has type '%s'", want, name)
			}
		}
	}

	cloned := arg.Clone()
	switch resolved {
	case placeholderStr:
		return cloned, nil
	case placeholderI32:
		return &ast.Call{Base: baseAt(loc), Callee: "std::i32_to_string", Args: []ast.Node{cloned}, SymbolID: ast.InvalidSymbolID, ReturnType: ast.InvalidTypeID}, nil
	case placeholderF32:
		return &ast.Call{Base: baseAt(loc), Callee: "std::f32_to_string", Args: []ast.Node{cloned}, SymbolID: ast.InvalidSymbolID, ReturnType: ast.InvalidTypeID}, nil
	default:
		return nil, newError(errkind.Internal, loc, "unreachable format! placeholder kind")
	}
}

type formatFragment struct {
	isPlaceholder bool
	kind          placeholderKind
	literal       string
}

// parseFormatString decodes s into an ordered sequence of literal text runs
// and placeholders, per spec.md: `{d}`/`{f}`/`{s}`/`{}` and doubled `{{`/`}}`
// escapes for a literal brace. An unmatched or malformed `{...}` is a
// compile-time error.
func parseFormatString(s string, loc ast.SourceLoc) ([]formatFragment, error) {
	var frags []formatFragment
	var buf strings.Builder

	runes := []rune(s)
	i := 0
	flush := func() {
		if buf.Len() > 0 {
			frags = append(frags, formatFragment{literal: buf.String()})
			buf.Reset()
		}
	}

	for i < len(runes) {
		switch runes[i] {
		case '{':
			if i+1 < len(runes) && runes[i+1] == '{' {
				buf.WriteByte('{')
				i += 2
				continue
			}
			j := i + 1
			for j < len(runes) && runes[j] != '}' {
				j++
			}
			if j >= len(runes) {
				return nil, newError(errkind.InvalidFormatString, loc, "unterminated '{' in format string")
			}
			spec := string(runes[i+1 : j])
			kind, err := parsePlaceholderSpec(spec, loc)
			if err != nil {
				return nil, err
			}
			flush()
			frags = append(frags, formatFragment{isPlaceholder: true, kind: kind})
			i = j + 1

		case '}':
			if i+1 < len(runes) && runes[i+1] == '}' {
				buf.WriteByte('}')
				i += 2
				continue
			}
			return nil, newError(errkind.InvalidFormatString, loc, "unmatched '}' in format string")

		default:
			buf.WriteRune(runes[i])
			i++
		}
	}
	flush()
	return frags, nil
}

func parsePlaceholderSpec(spec string, loc ast.SourceLoc) (placeholderKind, error) {
	switch spec {
	case "":
		return placeholderInferred, nil
	case "d":
		return placeholderI32, nil
	case "f":
		return placeholderF32, nil
	case "s":
		return placeholderStr, nil
	default:
		return 0, newError(errkind.InvalidFormatString, loc, "unknown format placeholder '{%s}'", spec)
	}
}

func baseAt(loc ast.SourceLoc) ast.Base {
	return ast.Base{Location: loc, ScopeID: ast.InvalidScopeID, TypeID: ast.InvalidTypeID}
}
