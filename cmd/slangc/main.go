// Command slangc is the compiler's command-line frontend: a thin external
// collaborator (spec §3/SPEC_FULL.md) that wires a real filesystem-backed
// loader.Context and config.Options around internal/compiler.Compile. It
// never lexes or parses source text itself (out of scope, per SPEC_FULL.md)
// — "compile" reads its <source> argument as a serialized
// ast.ParserOutput, exactly what an external frontend would hand it.
//
// Grounded on the teacher's own cmd/esbuild/main.go for the overall shape
// (parse flags, run, print diagnostics, exit with the right code) and on
// termfx-morfx/demo/cmd/main.go for the cobra command wiring itself.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/slang-lang/slang/internal/ast"
	"github.com/slang-lang/slang/internal/compiler"
	"github.com/slang-lang/slang/internal/config"
	"github.com/slang-lang/slang/internal/loader"
	"github.com/slang-lang/slang/internal/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	var searchPaths []string
	var trace bool
	var moduleName string
	var disableConstEval bool

	rootCmd := &cobra.Command{
		Use:   "slangc",
		Short: "slang compiler",
		Long:  "slangc drives the slang compiler's collection, resolution, type-checking, macro-expansion, codegen and module-emission pipeline.",
	}

	exitCode := 0

	compileCmd := &cobra.Command{
		Use:   "compile <source>",
		Short: "Compile one serialized module into a .cmod file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.Options{
				SearchPaths:      searchPaths,
				ModuleName:       moduleName,
				DisableConstEval: disableConstEval,
				Trace:            trace,
			}
			code, err := compileFile(args[0], opts)
			exitCode = code
			return err
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	compileCmd.Flags().StringArrayVarP(&searchPaths, "search-path", "I", nil, "module search directory (repeatable)")
	compileCmd.Flags().BoolVarP(&trace, "trace", "v", false, "enable zap-backed compiler phase tracing")
	compileCmd.Flags().StringVar(&moduleName, "module-name", "", "override the compiled module's qualified name")
	compileCmd.Flags().BoolVar(&disableConstEval, "disable-const-eval", false, "skip the constant-evaluation phase for this unit")

	rootCmd.AddCommand(compileCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if exitCode == 0 {
			exitCode = 1
		}
	}
	return exitCode
}

// compileFile reads source (a serialized ast.ParserOutput), merges fileOpts
// from a sibling slang.toml with the CLI-supplied opts, runs the pipeline,
// and writes the resulting module next to source with a .cmod extension.
func compileFile(source string, cliOpts config.Options) (int, error) {
	buf, err := os.ReadFile(source)
	if err != nil {
		return 1, fmt.Errorf("reading %s: %w", source, err)
	}

	parsed, err := ast.ReadParserOutput(buf)
	if err != nil {
		return 1, fmt.Errorf("reading parser output from %s: %w", source, err)
	}

	projectFile := filepath.Join(filepath.Dir(source), config.ProjectFile)
	fileOpts, err := config.LoadFile(projectFile)
	if err != nil {
		return 1, err
	}
	opts := fileOpts.Merge(cliOpts)

	ld := loader.NewContext(&fsPathResolver{searchPaths: opts.SearchPaths}, fsHeaderReader{})

	result := compiler.Compile(compiler.Unit{
		Root:    parsed.Root,
		File:    source,
		Loader:  ld,
		Options: opts,
	})

	if len(result.Msgs) > 0 {
		logger.PrintToStderr(result.Msgs, logger.OutputOptions{IncludeSource: true})
	}
	if result.Module == nil {
		return 1, nil
	}

	outPath := strings.TrimSuffix(source, filepath.Ext(source)) + loader.ModuleExt
	if err := os.WriteFile(outPath, result.Module.Serialize(), 0o644); err != nil {
		return 1, fmt.Errorf("writing %s: %w", outPath, err)
	}
	return 0, nil
}
