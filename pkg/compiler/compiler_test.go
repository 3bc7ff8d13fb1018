package compiler

import (
	"testing"

	"github.com/kondziu/ppl/pkg/ast"
	"github.com/kondziu/ppl/pkg/bytecode"
	"github.com/kondziu/ppl/pkg/object"
)

func compileProgram(t *testing.T, children ...ast.Expression) *Compiler {
	t.Helper()
	c := New()
	if _, err := c.Compile(&ast.Program{Children: children}); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return c
}

func entryMethod(t *testing.T, c *Compiler) object.Method {
	t.Helper()
	obj, err := c.prog.Constant(c.prog.Entry())
	if err != nil {
		t.Fatalf("resolving entry: %v", err)
	}
	m, ok := obj.(object.Method)
	if !ok {
		t.Fatalf("entry constant is not a Method, got %T", obj)
	}
	return m
}

func TestCompile_IntegerLiteralEmitsLiteralAndReturn(t *testing.T) {
	c := compileProgram(t, &ast.IntegerLiteral{Value: 42})
	entry := entryMethod(t, c)
	code := entry.Code(c.prog.Code())

	if len(code) != 2 {
		t.Fatalf("expected 2 instructions (Literal, Return), got %d: %+v", len(code), code)
	}
	if code[0].Op != bytecode.Literal {
		t.Fatalf("expected Literal, got %s", code[0].Op)
	}
	if code[1].Op != bytecode.Return {
		t.Fatalf("expected Return, got %s", code[1].Op)
	}
	got, err := c.prog.Constant(code[0].A)
	if err != nil {
		t.Fatalf("constant: %v", err)
	}
	if got != object.Integer(42) {
		t.Fatalf("expected constant Integer(42), got %+v", got)
	}
}

func TestCompile_TopLevelLetEmitsGlobal(t *testing.T) {
	c := compileProgram(t, &ast.VariableDefinition{Name: "x", Value: &ast.IntegerLiteral{Value: 1}})
	entry := entryMethod(t, c)
	code := entry.Code(c.prog.Code())

	foundSlot := false
	for _, idx := range c.prog.Globals() {
		if obj, _ := c.prog.Constant(idx); obj != nil {
			if slot, ok := obj.(object.Slot); ok {
				foundSlot = true
				name, _ := c.prog.Constant(slot.Name)
				if name != object.String("x") {
					t.Fatalf("expected global slot named 'x', got %+v", name)
				}
			}
		}
	}
	if !foundSlot {
		t.Fatalf("expected a Slot registered in globals, globals=%v", c.prog.Globals())
	}

	var sawSetGlobal bool
	for _, instr := range code {
		if instr.Op == bytecode.SetGlobal {
			sawSetGlobal = true
		}
	}
	if !sawSetGlobal {
		t.Fatalf("expected a SetGlobal instruction, got %+v", code)
	}
}

func TestCompile_LetInsideFunctionEmitsLocal(t *testing.T) {
	body := &ast.Block{Expressions: []ast.Expression{
		&ast.VariableDefinition{Name: "y", Value: &ast.IntegerLiteral{Value: 1}},
		&ast.Identifier{Name: "y"},
	}}
	fn := &ast.FunctionDefinition{Name: "f", Parameters: nil, Body: body}
	c := compileProgram(t, fn)

	var methodIdx uint32
	found := false
	for _, idx := range c.prog.Globals() {
		if obj, _ := c.prog.Constant(idx); obj != nil {
			if m, ok := obj.(object.Method); ok {
				methodIdx = idx
				found = true
				_ = m
			}
		}
	}
	if !found {
		t.Fatalf("expected function f registered as a global Method")
	}
	mObj, _ := c.prog.Constant(methodIdx)
	m := mObj.(object.Method)
	code := m.Code(c.prog.Code())

	var sawSetLocal, sawGetLocal bool
	for _, instr := range code {
		if instr.Op == bytecode.SetLocal {
			sawSetLocal = true
		}
		if instr.Op == bytecode.GetLocal {
			sawGetLocal = true
		}
	}
	if !sawSetLocal || !sawGetLocal {
		t.Fatalf("expected SetLocal and GetLocal in function body, got %+v", code)
	}
	if m.Locals != 1 {
		t.Fatalf("expected 1 local (y), got %d", m.Locals)
	}
}

func TestCompile_DuplicateLocalInSameScopeIsAnError(t *testing.T) {
	body := &ast.Block{Expressions: []ast.Expression{
		&ast.VariableDefinition{Name: "y", Value: &ast.IntegerLiteral{Value: 1}},
		&ast.VariableDefinition{Name: "y", Value: &ast.IntegerLiteral{Value: 2}},
	}}
	fn := &ast.FunctionDefinition{Name: "f", Parameters: nil, Body: body}
	c := New()
	_, err := c.Compile(&ast.Program{Children: []ast.Expression{fn}})
	if err == nil {
		t.Fatalf("expected an error for duplicate local declaration in the same scope")
	}
}

func TestCompile_BinaryOperationEmitsCallMethodWithOperatorName(t *testing.T) {
	expr := &ast.MethodCall{
		Subject:   &ast.IntegerLiteral{Value: 1},
		Selector:  "+",
		Arguments: []ast.Expression{&ast.IntegerLiteral{Value: 2}},
	}
	c := compileProgram(t, expr)
	entry := entryMethod(t, c)
	code := entry.Code(c.prog.Code())

	var call *bytecode.Instruction
	for i := range code {
		if code[i].Op == bytecode.CallMethod {
			call = &code[i]
		}
	}
	if call == nil {
		t.Fatalf("expected a CallMethod instruction, got %+v", code)
	}
	if call.B != 2 {
		t.Fatalf("expected arity 2 for a binary operator call, got %d", call.B)
	}
	name, _ := c.prog.Constant(call.A)
	if name != object.String("+") {
		t.Fatalf("expected selector '+', got %+v", name)
	}
}

func TestCompile_ArrayDefinitionWithTrivialInitEmitsArrayOpcode(t *testing.T) {
	expr := &ast.ArrayDefinition{Size: &ast.IntegerLiteral{Value: 3}, Init: &ast.IntegerLiteral{Value: 0}}
	c := compileProgram(t, expr)
	entry := entryMethod(t, c)
	code := entry.Code(c.prog.Code())

	var sawArray bool
	for _, instr := range code {
		if instr.Op == bytecode.Array {
			sawArray = true
		}
	}
	if !sawArray {
		t.Fatalf("expected an Array instruction for a trivial initializer, got %+v", code)
	}
}

func TestCompile_ArrayDefinitionWithNonTrivialInitLowersToLoop(t *testing.T) {
	// A non-trivial initializer (here, a binary operation) must be lowered
	// to the synthetic loop form rather than emitting a single Array op,
	// since the initializer has to be evaluated once per element.
	expr := &ast.ArrayDefinition{
		Size: &ast.IntegerLiteral{Value: 3},
		Init: &ast.MethodCall{Subject: &ast.IntegerLiteral{Value: 1}, Selector: "+", Arguments: []ast.Expression{&ast.IntegerLiteral{Value: 1}}},
	}
	c := compileProgram(t, expr)
	entry := entryMethod(t, c)
	code := entry.Code(c.prog.Code())

	var sawArrayOp, sawBranch bool
	for _, instr := range code {
		if instr.Op == bytecode.Array {
			sawArrayOp = true
		}
		if instr.Op == bytecode.Branch {
			sawBranch = true
		}
	}
	if !sawArrayOp {
		t.Fatalf("expected the lowered form to still allocate via Array (of nulls), got %+v", code)
	}
	if !sawBranch {
		t.Fatalf("expected the lowered form to contain a loop (Branch), got %+v", code)
	}
}

func TestCompile_ObjectDefinitionBuildsClassWithSlotsAndMethods(t *testing.T) {
	obj := &ast.ObjectDefinition{
		Members: []ast.ObjectMember{
			&ast.FieldDefinition{Name: "x", Value: &ast.IntegerLiteral{Value: 0}},
			&ast.MethodDefinition{Name: "bump", Parameters: nil, Body: &ast.IntegerLiteral{Value: 1}},
		},
	}
	c := compileProgram(t, obj)
	entry := entryMethod(t, c)
	code := entry.Code(c.prog.Code())

	var classIdx uint32
	found := false
	for _, instr := range code {
		if instr.Op == bytecode.Object {
			classIdx = instr.A
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an Object instruction, got %+v", code)
	}
	classObj, err := c.prog.Constant(classIdx)
	if err != nil {
		t.Fatalf("constant: %v", err)
	}
	class, ok := classObj.(object.Class)
	if !ok {
		t.Fatalf("expected a Class constant, got %T", classObj)
	}
	if len(class.Members) != 2 {
		t.Fatalf("expected 2 class members (1 slot + 1 method), got %d", len(class.Members))
	}

	var sawSlot, sawMethod bool
	for _, idx := range class.Members {
		m, _ := c.prog.Constant(idx)
		switch m.(type) {
		case object.Slot:
			sawSlot = true
		case object.Method:
			sawMethod = true
		}
	}
	if !sawSlot || !sawMethod {
		t.Fatalf("expected both a Slot and a Method member, slot=%v method=%v", sawSlot, sawMethod)
	}
}

func TestCompile_ConditionalEmitsBranchJumpAndTwoLabels(t *testing.T) {
	expr := &ast.Conditional{
		Condition:   &ast.BooleanLiteral{Value: true},
		Consequence: &ast.IntegerLiteral{Value: 1},
		Alternative: &ast.IntegerLiteral{Value: 2},
	}
	c := compileProgram(t, expr)
	entry := entryMethod(t, c)
	code := entry.Code(c.prog.Code())

	var labels, branches, jumps int
	for _, instr := range code {
		switch instr.Op {
		case bytecode.Label:
			labels++
		case bytecode.Branch:
			branches++
		case bytecode.Jump:
			jumps++
		}
	}
	if labels != 2 || branches != 1 || jumps != 1 {
		t.Fatalf("expected 2 labels, 1 branch, 1 jump; got labels=%d branches=%d jumps=%d", labels, branches, jumps)
	}
}
