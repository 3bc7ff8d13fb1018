package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/kondziu/ppl/pkg/bytecode"
	"github.com/kondziu/ppl/pkg/object"
	"github.com/kondziu/ppl/pkg/program"
)

// disassembleCmd prints a human-readable view of a .ppc bytecode file's
// constant pool and code store — useful for inspecting what the compiler
// actually emitted for a given source program.
type disassembleCmd struct{}

func (*disassembleCmd) Name() string     { return "disassemble" }
func (*disassembleCmd) Synopsis() string { return "print a .ppc bytecode file's constants and code" }
func (*disassembleCmd) Usage() string {
	return `disassemble <file.ppc>:
  Decode a bytecode file and print its constant pool and instruction stream.
`
}
func (*disassembleCmd) SetFlags(f *flag.FlagSet) {}

func (d *disassembleCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	args := f.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "disassemble: no file specified")
		return subcommands.ExitUsageError
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "disassemble: reading %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}
	prog, err := program.Decode(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "disassemble: decoding %s: %v\n", args[0], err)
		return subcommands.ExitFailure
	}

	fmt.Printf("=== %s ===\n\n", args[0])
	printConstants(prog)
	fmt.Println()
	printCode(prog)
	return subcommands.ExitSuccess
}

func printConstants(prog *program.Program) {
	fmt.Println("Constants:")
	constants := prog.Constants()
	if len(constants) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for i, c := range constants {
		fmt.Printf("  [%d] %s\n", i, formatConstant(c))
	}
}

func formatConstant(obj object.Object) string {
	switch o := obj.(type) {
	case object.Integer:
		return fmt.Sprintf("Integer(%d)", int32(o))
	case object.Boolean:
		return fmt.Sprintf("Boolean(%t)", bool(o))
	case object.Null:
		return "Null"
	case object.String:
		return fmt.Sprintf("String(%q)", string(o))
	case object.Slot:
		return fmt.Sprintf("Slot(name=%d)", o.Name)
	case object.Method:
		return fmt.Sprintf("Method(name=%d, arity=%d, locals=%d, code=[%d,%d))", o.Name, o.Arity, o.Locals, o.Start, o.End)
	case object.Class:
		return fmt.Sprintf("Class(members=%v)", o.Members)
	default:
		return fmt.Sprintf("<unknown %T>", obj)
	}
}

func printCode(prog *program.Program) {
	fmt.Println("Code:")
	code := prog.Code()
	if len(code) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for addr, instr := range code {
		fmt.Printf("  %4d: %s", addr, instr.Op)
		switch instr.Op {
		case bytecode.Return, bytecode.Drop:
		case bytecode.Print, bytecode.CallMethod, bytecode.CallFunction:
			fmt.Printf(" %d, %d", instr.A, instr.B)
		default:
			fmt.Printf(" %d", instr.A)
		}
		fmt.Println()
	}
}
