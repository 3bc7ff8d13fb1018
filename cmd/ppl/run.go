package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"

	"github.com/kondziu/ppl/pkg/compiler"
	"github.com/kondziu/ppl/pkg/interpreter"
	"github.com/kondziu/ppl/pkg/parser"
	"github.com/kondziu/ppl/pkg/program"
)

// runCmd executes a .ppl source file or a pre-compiled .ppc bytecode file,
// detecting which by extension.
type runCmd struct{}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "compile and execute a .ppl source file or .ppc bytecode file" }
func (*runCmd) Usage() string {
	return `run <file>:
  Execute a .ppl source file (parsed and compiled first) or a pre-compiled
  .ppc bytecode file (loaded directly).
`
}
func (*runCmd) SetFlags(f *flag.FlagSet) {}

func (r *runCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "run: no file specified")
		return subcommands.ExitUsageError
	}

	prog, err := loadProgram(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "run: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := interpreter.RunStdout(prog); err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// loadProgram reads filename and produces a *program.Program: bytecode files
// (.ppc) are decoded directly, anything else is parsed and compiled as
// source text.
func loadProgram(filename string) (*program.Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}

	if filepath.Ext(filename) == ".ppc" {
		prog, err := program.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", filename, err)
		}
		return prog, nil
	}

	ast, err := parser.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	prog, err := compiler.New().Compile(ast)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", filename, err)
	}
	return prog, nil
}
