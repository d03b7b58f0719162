// Package compiler orchestrates one compilation unit through the strict
// phase order spec §4 lists: parse (external) -> collect (C) -> resolve
// imports (D) -> resolve names (E) -> declare types (F) -> define types
// (F) -> declare functions (F) -> type-check (F, which also binds every
// top-level const's type per §4.G) -> evaluate constants (G) -> expand
// macros (H, may feed back to D, then E-G) -> generate code (I) -> emit
// module (J).
//
// Grounded on the teacher's own bundler.go: one driver function threading
// a shared logger.Log and a single linear sequence of named phases, each
// of which can fail independently and short-circuit the rest.
package compiler

import (
	"go.uber.org/zap"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/codegen"
	"github.com/slang-lang/slang/internal/collect"
	"github.com/slang-lang/slang/internal/config"
	"github.com/slang-lang/slang/internal/constant"
	"github.com/slang-lang/slang/internal/emit"
	"github.com/slang-lang/slang/internal/loader"
	"github.com/slang-lang/slang/internal/logger"
	"github.com/slang-lang/slang/internal/macro"
	"github.com/slang-lang/slang/internal/resolve"
	"github.com/slang-lang/slang/internal/sema"
	"github.com/slang-lang/slang/internal/types"
)

// Unit is everything one Compile call needs: the parsed source, the file
// name diagnostics are reported against, the (possibly nil) import
// resolver, and the effective options. Loader is nil only for a unit with
// no import statements — ResolveImports is skipped entirely in that case,
// rather than handed an import-less resolver.
type Unit struct {
	Root    *ast.Block
	File    string
	Loader  *loader.Context
	Options config.Options
}

// Result is everything a completed Compile call hands back: the emitted
// module (nil if any phase failed) and every diagnostic collected along
// the way. Msgs is nil when nothing was reported; on success it may still
// carry warnings.
type Result struct {
	Module *emit.Module
	Msgs   []logger.Msg
}

// Compile runs unit through every phase in order, stopping at the first
// phase that reports an error (spec §5: single compilation unit per call,
// no partial/incremental recompilation).
func Compile(unit Unit) Result {
	log := logger.NewDeferLog()
	trace := newTraceLogger(unit.Options.Trace)
	defer trace.Sync() //nolint:errcheck // best-effort flush of a stderr-backed sink

	fail := func(phase string, err error) Result {
		trace.Error("phase failed", zap.String("phase", phase), zap.Error(err))
		log.AddMsg(toMsg(unit.File, err))
		return Result{Msgs: log.Done()}
	}

	senv := sema.NewEnv()

	trace.Info("phase start", zap.String("phase", "collect"))
	if _, err := collect.Module(senv, unit.Root); err != nil {
		return fail("collect", err)
	}
	if unit.Options.ModuleName != "" {
		senv.Scope(ast.ScopeOf(unit.Root)).Name = unit.Options.ModuleName
	}

	rctx := resolve.NewContext(senv)
	if unit.Loader != nil {
		trace.Info("phase start", zap.String("phase", "resolve-imports"))
		if err := rctx.ResolveImports(unit.Loader); err != nil {
			return fail("resolve-imports", err)
		}
	}

	trace.Info("phase start", zap.String("phase", "resolve-names"))
	if err := resolve.ResolveNames(rctx, unit.Root); err != nil {
		return fail("resolve-names", err)
	}

	ctx := types.NewContext(senv)
	if err := runTypePhases(ctx, unit.Root); err != nil {
		return fail("types", err)
	}

	cenv := constant.NewEnv()
	if !unit.Options.DisableConstEval {
		trace.Info("phase start", zap.String("phase", "evaluate-constants"))
		if err := constant.EvaluateConstants(senv, cenv, unit.Root); err != nil {
			return fail("evaluate-constants", err)
		}
	}

	menv := macro.NewEnv(senv)
	menv.SetMaxIterations(unit.Options.MaxMacroIterations)
	menv.SetTypeNameResolver(func(id ast.TypeID) (string, bool) {
		info := ctx.Info(id)
		if info == nil {
			return "", false
		}
		return info.Name, true
	})

	trace.Info("phase start", zap.String("phase", "expand-macros"))
	changed, err := macro.ExpandModule(senv, menv, unit.Root)
	if err != nil {
		return fail("expand-macros", err)
	}

	if changed {
		trace.Info("macro expansion fed back", zap.String("phase", "expand-macros"))
		if unit.Loader != nil {
			if err := rctx.ResolveImports(unit.Loader); err != nil {
				return fail("resolve-imports (post-macro)", err)
			}
		}
		if err := resolve.ResolveNames(rctx, unit.Root); err != nil {
			return fail("resolve-names (post-macro)", err)
		}
		if err := runTypePhases(ctx, unit.Root); err != nil {
			return fail("types (post-macro)", err)
		}
		if !unit.Options.DisableConstEval {
			if err := constant.EvaluateConstants(senv, cenv, unit.Root); err != nil {
				return fail("evaluate-constants (post-macro)", err)
			}
		}
	}

	trace.Info("phase start", zap.String("phase", "generate-code"))
	gen := codegen.NewGenerator(ctx, senv, cenv)
	fns, err := gen.GenerateModule(unit.Root)
	if err != nil {
		return fail("generate-code", err)
	}

	trace.Info("phase start", zap.String("phase", "emit-module"), zap.Int("functions", len(fns)))
	mod, err := emit.NewEmitter(ctx, senv, cenv).EmitModule(fns, localMacroDefs(senv))
	if err != nil {
		return fail("emit-module", err)
	}

	return Result{Module: mod, Msgs: log.Done()}
}

// runTypePhases runs §4.F's three-step declaration sequence plus the
// checker, in the order spec §4 requires (declare every type before
// defining any of them, so mutually-recursive structs resolve regardless
// of source order; declare every function signature before checking any
// body, so forward calls resolve).
func runTypePhases(ctx *types.Context, root *ast.Block) error {
	if err := types.DeclareTypes(ctx, root); err != nil {
		return err
	}
	if err := types.DefineTypes(ctx, root); err != nil {
		return err
	}
	if err := types.DeclareFunctions(ctx, root); err != nil {
		return err
	}
	return types.CheckModule(ctx, root)
}

// localMacroDefs collects every macro declared in this compilation unit
// (as opposed to one materialized from an imported module's export
// table), for internal/emit's export table. Grounded on the same
// EachSymbol-filtered-by-kind idiom internal/emit's own buildExportTable
// uses for locally-declared constants.
func localMacroDefs(senv *sema.Env) []*ast.MacroDef {
	var defs []*ast.MacroDef
	senv.EachSymbol(func(id ast.SymbolID, info *sema.SymbolInfo) {
		if info.Kind != sema.SymbolMacro || info.DeclaringModule != sema.CurrentModuleID {
			return
		}
		if def, ok := info.Reference.Node.(*ast.MacroDef); ok {
			defs = append(defs, def)
		}
	})
	return defs
}

// newTraceLogger returns a zap logger for internal phase tracing, gated
// behind --trace (config.Options.Trace). This is a separate concern from
// the logger.Log diagnostic stream returned to the caller: it's for
// engineers debugging the compiler itself, never a substitute for a
// logger.Msg.
func newTraceLogger(trace bool) *zap.Logger {
	if !trace {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
