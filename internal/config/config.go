// Package config centralizes every compiler-wide option in one struct,
// following the teacher's own internal/config/config.go convention of a
// single source of truth that both the CLI and an embedder can populate.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Options holds every knob the compiler pipeline (internal/compiler) reads.
// A project-level slang.toml file can supply the same fields (LoadFile);
// cmd/slangc always lets an explicitly-set CLI flag win over the file.
type Options struct {
	// SearchPaths are module search directories consulted by the import
	// resolver, in order, for every bare import name (-I, repeatable).
	SearchPaths []string `toml:"search_paths"`

	// ModuleName, when non-empty, renames the compiled module's root
	// scope; when empty the root scope keeps the name collection gave it.
	ModuleName string `toml:"module_name"`

	// DisableConstEval skips the constant-evaluation phase for the whole
	// unit, so no const declaration is bound to a folded value, not even
	// a bare-literal one that disable(const_eval) still lets through. It
	// does not stop code generation from folding constant
	// sub-expressions. Not a
	// spec feature in its own right — see DESIGN.md — but a direct
	// generalization of the per-declaration directive spec §4.G already
	// defines, useful for isolating a const-folding bug from the rest of
	// a compile.
	DisableConstEval bool `toml:"disable_const_eval"`

	// MaxMacroIterations overrides internal/macro's fixed-point safety
	// bound. Zero means "use the package default".
	MaxMacroIterations int `toml:"max_macro_iterations"`

	// Trace enables zap-backed phase tracing in internal/compiler
	// (-v / --trace), independent of the user-facing logger.Log
	// diagnostic stream.
	Trace bool `toml:"trace"`
}

// ProjectFile is the default name LoadFile looks for in the module's
// source directory.
const ProjectFile = "slang.toml"

// LoadFile reads a slang.toml project file at path. A missing file is not
// an error: the CLI falls back entirely to flag defaults in that case.
func LoadFile(path string) (Options, error) {
	var opts Options
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Options{}, nil
		}
		return Options{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return opts, nil
}

// Merge overlays override's explicitly-set fields atop base, returning the
// combined Options. A zero-valued field in override (the CLI's default,
// when the corresponding flag was never passed) keeps base's value, so
// this is safe to call as Merge(fromFile, fromFlags) unconditionally.
func (base Options) Merge(override Options) Options {
	merged := base
	if len(override.SearchPaths) > 0 {
		merged.SearchPaths = override.SearchPaths
	}
	if override.ModuleName != "" {
		merged.ModuleName = override.ModuleName
	}
	if override.DisableConstEval {
		merged.DisableConstEval = true
	}
	if override.MaxMacroIterations > 0 {
		merged.MaxMacroIterations = override.MaxMacroIterations
	}
	if override.Trace {
		merged.Trace = true
	}
	return merged
}
