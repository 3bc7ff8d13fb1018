// Command ppl is the driver that wires the parser, compiler, and
// interpreter together behind a subcommand CLI. The compiler and
// interpreter's actual contract is with an *ast.Program, not with this
// binary or with source text.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

const version = "0.1.0"

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")
	subcommands.Register(&runCmd{}, "")
	subcommands.Register(&compileCmd{}, "")
	subcommands.Register(&disassembleCmd{}, "")
	subcommands.Register(&replCmd{}, "")
	subcommands.Register(&versionCmd{}, "")

	flag.Parse()
	ctx := context.Background()
	os.Exit(int(subcommands.Execute(ctx)))
}

type versionCmd struct{}

func (*versionCmd) Name() string             { return "version" }
func (*versionCmd) Synopsis() string         { return "print the ppl toolchain version" }
func (*versionCmd) Usage() string            { return "version\n" }
func (*versionCmd) SetFlags(f *flag.FlagSet) {}

func (*versionCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fmt.Printf("ppl %s\n", version)
	return subcommands.ExitSuccess
}
