package parser

import (
	"testing"

	"github.com/kondziu/ppl/pkg/ast"
)

// selector returns the selector of e, which must be an ast.MethodCall (as
// produced by parseBinary); for `a + b * c` (parsed as `a + (b * c)`) it
// returns "+". It looks only at the outermost node: tests recurse manually
// where precedence matters.
func selector(t *testing.T, e ast.Expression) string {
	t.Helper()
	mc, ok := e.(*ast.MethodCall)
	if !ok {
		t.Fatalf("expected *ast.MethodCall, got %T", e)
	}
	return mc.Selector
}

func TestPrecedence_MultiplicationBindsTighterThanAddition(t *testing.T) {
	prog := mustParse(t, `1 + 2 * 3`)
	top := prog.Children[0].(*ast.MethodCall)
	if top.Selector != "+" {
		t.Fatalf("expected outermost operator '+', got %q", top.Selector)
	}
	right := top.Arguments[0]
	if got := selector(t, right); got != "*" {
		t.Fatalf("expected right operand to be '*', got %q", got)
	}
}

func TestPrecedence_AdditionBindsTighterThanRelational(t *testing.T) {
	prog := mustParse(t, `1 + 2 < 3 * 4`)
	top := prog.Children[0].(*ast.MethodCall)
	if top.Selector != "<" {
		t.Fatalf("expected outermost operator '<', got %q", top.Selector)
	}
	if got := selector(t, top.Subject); got != "+" {
		t.Fatalf("expected left operand to be '+', got %q", got)
	}
	if got := selector(t, top.Arguments[0]); got != "*" {
		t.Fatalf("expected right operand to be '*', got %q", got)
	}
}

func TestPrecedence_RelationalBindsTighterThanAnd(t *testing.T) {
	prog := mustParse(t, `a < b & c < d`)
	top := prog.Children[0].(*ast.MethodCall)
	if top.Selector != "&" {
		t.Fatalf("expected outermost operator '&', got %q", top.Selector)
	}
}

func TestPrecedence_AndBindsTighterThanOr(t *testing.T) {
	prog := mustParse(t, `a & b | c & d`)
	top := prog.Children[0].(*ast.MethodCall)
	if top.Selector != "|" {
		t.Fatalf("expected outermost operator '|', got %q", top.Selector)
	}
	if got := selector(t, top.Subject); got != "&" {
		t.Fatalf("expected left operand to be '&', got %q", got)
	}
}

func TestPrecedence_SameTierIsLeftAssociative(t *testing.T) {
	prog := mustParse(t, `1 - 2 - 3`)
	top := prog.Children[0].(*ast.MethodCall)
	if top.Selector != "-" {
		t.Fatalf("expected outermost operator '-', got %q", top.Selector)
	}
	left, ok := top.Subject.(*ast.MethodCall)
	if !ok {
		t.Fatalf("expected left-associative nesting, left operand is %T", top.Subject)
	}
	if left.Selector != "-" {
		t.Fatalf("expected nested operator '-', got %q", left.Selector)
	}
	if _, ok := top.Arguments[0].(*ast.IntegerLiteral); !ok {
		t.Fatalf("expected rightmost operand to be a literal, got %T", top.Arguments[0])
	}
}

func TestPrecedence_ParenthesesOverridePrecedence(t *testing.T) {
	prog := mustParse(t, `(1 + 2) * 3`)
	top := prog.Children[0].(*ast.MethodCall)
	if top.Selector != "*" {
		t.Fatalf("expected outermost operator '*', got %q", top.Selector)
	}
	if got := selector(t, top.Subject); got != "+" {
		t.Fatalf("expected left operand (parenthesized) to be '+', got %q", got)
	}
}

func TestPrecedence_IndexingBindsTighterThanOperators(t *testing.T) {
	prog := mustParse(t, `a[0] + b[1]`)
	top := prog.Children[0].(*ast.MethodCall)
	if top.Selector != "+" {
		t.Fatalf("expected outermost operator '+', got %q", top.Selector)
	}
	if _, ok := top.Subject.(*ast.IndexExpression); !ok {
		t.Fatalf("expected left operand to be an index expression, got %T", top.Subject)
	}
	if _, ok := top.Arguments[0].(*ast.IndexExpression); !ok {
		t.Fatalf("expected right operand to be an index expression, got %T", top.Arguments[0])
	}
}

func TestPrecedence_AssignmentBindsLoosestOfAll(t *testing.T) {
	prog := mustParse(t, `x <- 1 + 2 * 3`)
	asn, ok := prog.Children[0].(*ast.Assignment)
	if !ok {
		t.Fatalf("expected *ast.Assignment, got %T", prog.Children[0])
	}
	if got := selector(t, asn.Value); got != "+" {
		t.Fatalf("expected assigned value's outermost operator to be '+', got %q", got)
	}
}
