package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/kondziu/ppl/pkg/compiler"
	"github.com/kondziu/ppl/pkg/parser"
	"github.com/kondziu/ppl/pkg/program"
)

// compileCmd compiles a .ppl source file to a .ppc bytecode file, so the
// result can be distributed or re-run without paying for parsing again.
type compileCmd struct {
	out string
}

func (*compileCmd) Name() string     { return "compile" }
func (*compileCmd) Synopsis() string { return "compile a .ppl source file to .ppc bytecode" }
func (*compileCmd) Usage() string {
	return `compile [-o out.ppc] <input.ppl>:
  Parse and compile a source file, writing the serialized bytecode.
  Defaults to replacing the input's extension with .ppc.
`
}
func (c *compileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "o", "", "output path (default: input with .ppc extension)")
}

func (c *compileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "compile: no file specified")
		return subcommands.ExitUsageError
	}
	inputFile := args[0]

	data, err := os.ReadFile(inputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: reading %s: %v\n", inputFile, err)
		return subcommands.ExitFailure
	}

	ast, err := parser.Parse(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: parse error: %v\n", err)
		return subcommands.ExitFailure
	}

	prog, err := compiler.New().Compile(ast)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: compile error: %v\n", err)
		return subcommands.ExitFailure
	}

	encoded, err := program.Encode(prog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "compile: encoding bytecode: %v\n", err)
		return subcommands.ExitFailure
	}

	outputFile := c.out
	if outputFile == "" {
		outputFile = defaultOutputPath(inputFile)
	}
	if err := os.WriteFile(outputFile, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "compile: writing %s: %v\n", outputFile, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("compiled %s -> %s\n", inputFile, outputFile)
	return subcommands.ExitSuccess
}

func defaultOutputPath(inputFile string) string {
	if idx := strings.LastIndex(inputFile, "."); idx != -1 {
		return inputFile[:idx] + ".ppc"
	}
	return inputFile + ".ppc"
}
