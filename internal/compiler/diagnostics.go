package compiler

import (
	"fmt"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/codegen"
	"github.com/slang-lang/slang/internal/collect"
	"github.com/slang-lang/slang/internal/constant"
	"github.com/slang-lang/slang/internal/emit"
	"github.com/slang-lang/slang/internal/errkind"
	"github.com/slang-lang/slang/internal/loader"
	"github.com/slang-lang/slang/internal/logger"
	"github.com/slang-lang/slang/internal/macro"
	"github.com/slang-lang/slang/internal/resolve"
	"github.com/slang-lang/slang/internal/sema"
	"github.com/slang-lang/slang/internal/types"
)

// toMsg turns any phase's own error type into a user-facing logger.Msg.
// Every phase in this pipeline reports through its own *Error (or, for a
// few older ones, a narrower Loc+Msg shape) rather than a shared type, so
// the compiler driver — the one place that holds a logger.Log — is where
// that's finally reconciled into one diagnostic shape, tagged with file
// and 1-based line/column.
func toMsg(file string, err error) logger.Msg {
	kind, loc, text := classify(err)
	return logger.Msg{
		Kind: logger.Error,
		Data: logger.MsgData{
			Text: fmt.Sprintf("[%s] %s", kind, text),
			Location: &logger.MsgLocation{
				File:   file,
				Line:   loc.Line,
				Column: loc.Col,
			},
		},
	}
}

// classify recovers (errkind.Kind, ast.SourceLoc, message) from err,
// whichever phase produced it. A phase not recognized here — there should
// be none, since every phase's Error type is listed — falls back to
// errkind.Internal with no location, rather than panicking.
func classify(err error) (errkind.Kind, ast.SourceLoc, string) {
	switch e := err.(type) {
	case *types.Error:
		return e.Kind, e.Loc, e.Msg
	case *constant.Error:
		return e.Kind, e.Loc, e.Msg
	case *macro.Error:
		return e.Kind, e.Loc, e.Msg
	case *codegen.Error:
		return e.Kind, e.Loc, e.Msg
	case *emit.Error:
		return e.Kind, e.Loc, e.Msg
	case *resolve.NameError:
		return errkind.UnresolvedName, e.Loc, e.Msg
	case *loader.ResolveError:
		return errkind.ImportNotFound, e.Loc, e.Msg
	case *sema.RedefinitionError:
		return errkind.Redefinition, e.Loc, e.Error()
	case *collect.Error:
		return errkind.Internal, ast.SourceLoc{}, e.Msg
	default:
		return errkind.Internal, ast.SourceLoc{}, err.Error()
	}
}
