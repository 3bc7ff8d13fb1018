package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"github.com/kondziu/ppl/pkg/compiler"
	"github.com/kondziu/ppl/pkg/interpreter"
	"github.com/kondziu/ppl/pkg/parser"
)

// replCmd is an interactive read-eval-print loop over github.com/chzyer/readline
// for line editing and history.
//
// The compiler is documented as single-use (pkg/compiler.Compiler's doc
// comment) and a VM run has no cross-run persistence, so each accepted
// statement is recompiled and re-run against the whole accumulated session
// buffer rather than threaded through incremental compiler/VM state —
// simple, and faithful to what the core actually guarantees.
type replCmd struct {
	historyFile string
}

func (*replCmd) Name() string     { return "repl" }
func (*replCmd) Synopsis() string { return "start an interactive read-eval-print loop" }
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session. Statements are separated by ';'; an
  incomplete statement prompts for continuation. Ctrl-D or :quit exits.
`
}

func (r *replCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.historyFile, "history", "", "path to a readline history file (default: none)")
}

func (r *replCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ppl> ",
		HistoryFile:     r.historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "repl: %v\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	// committed holds every statement that has already compiled and run;
	// pending holds the lines of an incomplete statement still being typed.
	var committed, pending string
	var lastOutput string
	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				pending = ""
				rl.SetPrompt("ppl> ")
				continue
			}
			if errors.Is(err, io.EOF) {
				return subcommands.ExitSuccess
			}
			fmt.Fprintf(os.Stderr, "repl: %v\n", err)
			return subcommands.ExitFailure
		}

		switch strings.TrimSpace(line) {
		case ":quit", ":exit":
			return subcommands.ExitSuccess
		case "":
			continue
		}

		candidate := committed + pending + line + "\n"
		ast, perr := parser.Parse(candidate)
		if perr != nil {
			// Might just be an incomplete statement; keep accumulating and
			// try again once more input arrives. Ctrl-C abandons the
			// accumulated fragment.
			rl.SetPrompt("....> ")
			pending += line + "\n"
			continue
		}
		pending = ""
		rl.SetPrompt("ppl> ")

		prog, cerr := compiler.New().Compile(ast)
		if cerr != nil {
			// Discard just the offending statement; earlier definitions in
			// the session stay live.
			fmt.Fprintf(os.Stderr, "compile error: %v\n", cerr)
			continue
		}

		var out bytes.Buffer
		if rerr := interpreter.Run(prog, &out); rerr != nil {
			fmt.Fprintf(os.Stderr, "runtime error: %v\n", rerr)
			continue
		}

		// The whole session was re-executed; show only what this statement
		// added beyond the previous run's output.
		printed := out.String()
		if strings.HasPrefix(printed, lastOutput) {
			fmt.Print(printed[len(lastOutput):])
		} else {
			fmt.Print(printed)
		}
		lastOutput = printed
		committed = candidate
	}
}
