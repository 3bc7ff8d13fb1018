package interpreter_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kondziu/ppl/pkg/compiler"
	"github.com/kondziu/ppl/pkg/interpreter"
	"github.com/kondziu/ppl/pkg/parser"
)

// run parses, compiles, and interprets source, returning whatever was
// written through the print primitive.
func run(t *testing.T, source string) string {
	t.Helper()
	prog, err := parser.Parse(source)
	require.NoError(t, err)

	compiled, err := compiler.New().Compile(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, interpreter.Run(compiled, &out))
	return out.String()
}

func TestEndToEnd_HelloWorld(t *testing.T) {
	got := run(t, `print("hello, world\n")`)
	require.Equal(t, "hello, world\n", got)
}

func TestEndToEnd_LetAndArithmeticPrint(t *testing.T) {
	got := run(t, `let x = 21; print("~\n", x + x)`)
	require.Equal(t, "42\n", got)
}

func TestEndToEnd_Fibonacci(t *testing.T) {
	got := run(t, `
		function fib(n) -> if n <= 1 then n else fib(n - 1) + fib(n - 2);
		print("~\n", fib(10))
	`)
	require.Equal(t, "55\n", got)
}

func TestEndToEnd_WhileLoopAccumulates(t *testing.T) {
	got := run(t, `
		let i = 0;
		let sum = 0;
		while i < 5 do begin
			sum <- sum + i;
			i <- i + 1
		end;
		print("~\n", sum)
	`)
	require.Equal(t, "10\n", got)
}

func TestEndToEnd_ArrayMutationAndReadback(t *testing.T) {
	got := run(t, `
		let a = array(3, 0);
		a[0] <- 10;
		a[1] <- 20;
		a[2] <- 30;
		print("~\n", a)
	`)
	require.Equal(t, "[10, 20, 30]\n", got)
}

func TestEndToEnd_ArrayElementsAreIndependentCopies(t *testing.T) {
	got := run(t, `
		let a = array(2, array(2, 0));
		a[0][0] <- 99;
		print("~\n~\n", a[0], a[1])
	`)
	require.Equal(t, "[99, 0]\n[0, 0]\n", got)
}

func TestEndToEnd_ObjectFieldMutationViaMethod(t *testing.T) {
	got := run(t, `
		let counter = object begin
			let n = 0;
			function bump() -> this.n <- this.n + 1
		end;
		counter.bump();
		counter.bump();
		print("~\n", counter.n)
	`)
	require.Equal(t, "2\n", got)
}

func TestEndToEnd_InheritanceDispatchesUpParentChain(t *testing.T) {
	got := run(t, `
		let base = object begin
			function greet() -> 1
		end;
		let derived = object extends base begin
		end;
		print("~\n", derived.greet())
	`)
	require.Equal(t, "1\n", got)
}

func TestEndToEnd_MethodDispatchBindsOriginalReceiver(t *testing.T) {
	// q defines report, p and o just extend: calling o.report() must reach
	// q's method body but bind `this` to o, not q, so the field read comes
	// from o's own slot.
	got := run(t, `
		let q = object begin
			let tag = 0;
			function report() -> this.tag
		end;
		let p = object extends q begin
			let tag = 1
		end;
		let o = object extends p begin
			let tag = 2
		end;
		print("~\n", o.report())
	`)
	require.Equal(t, "2\n", got)
}

func TestEndToEnd_NearestAncestorWinsDispatch(t *testing.T) {
	// report is defined on both the grandparent and the parent: the walk
	// from o must stop at the parent's definition, not climb all the way.
	got := run(t, `
		let q = object begin
			function report() -> 1
		end;
		let p = object extends q begin
			function report() -> 2
		end;
		let o = object extends p begin
		end;
		print("~\n", o.report())
	`)
	require.Equal(t, "2\n", got)
}

func TestEndToEnd_ChainBottomsOutInPrimitiveDispatch(t *testing.T) {
	// Neither o nor its parent defines "+", and the chain terminates in the
	// integer 2 — the selector must reach the integer built-in table.
	got := run(t, `
		let p = object extends 2 begin end;
		let o = object extends p begin end;
		print("~\n", o + 3)
	`)
	require.Equal(t, "5\n", got)
}

func TestEndToEnd_BranchTreatsIntegerZeroAsTruthy(t *testing.T) {
	got := run(t, `if 0 then print("truthy\n") else print("falsy\n")`)
	require.Equal(t, "truthy\n", got)
}

func TestEndToEnd_BranchTreatsNullAndFalseAsFalsy(t *testing.T) {
	got := run(t, `
		if null then print("t\n") else print("null is falsy\n");
		if false then print("t\n") else print("false is falsy\n");
		if true then print("true is truthy\n") else print("f\n")
	`)
	require.Equal(t, "null is falsy\nfalse is falsy\ntrue is truthy\n", got)
}

func TestEndToEnd_MethodArityMismatchIsFatal(t *testing.T) {
	prog, err := parser.Parse(`
		let o = object begin function f(a) -> a end;
		o.f(1, 2)
	`)
	require.NoError(t, err)
	compiled, err := compiler.New().Compile(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	require.Error(t, interpreter.Run(compiled, &out))
}

func TestEndToEnd_DivisionByZeroIsFatal(t *testing.T) {
	prog, err := parser.Parse(`let x = 1 / 0`)
	require.NoError(t, err)
	compiled, err := compiler.New().Compile(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	err = interpreter.Run(compiled, &out)
	require.Error(t, err)
}

func TestEndToEnd_UnknownFieldIsFatal(t *testing.T) {
	prog, err := parser.Parse(`
		let o = object begin let x = 1 end;
		o.y
	`)
	require.NoError(t, err)
	compiled, err := compiler.New().Compile(prog)
	require.NoError(t, err)

	var out bytes.Buffer
	require.Error(t, interpreter.Run(compiled, &out))
}
