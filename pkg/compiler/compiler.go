// Package compiler compiles AST nodes into a program.Program: a constant
// pool, a code store, and an entry point ready for either the interpreter
// or the on-disk format.
package compiler

import (
	"fmt"

	"github.com/kondziu/ppl/pkg/ast"
	"github.com/kondziu/ppl/pkg/bytecode"
	"github.com/kondziu/ppl/pkg/object"
	"github.com/kondziu/ppl/pkg/program"
)

// Compiler walks an AST and emits into a program.Program. It is single-use:
// construct one with New per compilation.
type Compiler struct {
	prog        *program.Program
	frames      []*frame
	globalNames map[string]bool
	stringCache map[string]uint32
	nullIndex   *uint32
}

// New creates an empty Compiler ready to compile a *ast.Program.
func New() *Compiler {
	return &Compiler{
		prog:        program.New(),
		globalNames: make(map[string]bool),
		stringCache: make(map[string]uint32),
	}
}

// Compile compiles the top-level program into a synthetic entry method and
// returns the finished program.Program.
func (c *Compiler) Compile(prog *ast.Program) (*program.Program, error) {
	c.pushFrame()
	start := c.prog.CodeLen()
	if err := c.compileSequence(prog.Children); err != nil {
		return nil, err
	}
	c.prog.Emit(bytecode.NewReturn())
	locals := c.currentFrame().nextLocal
	c.popFrame()
	end := c.prog.CodeLen()

	nameIdx := c.internString("entry")
	entry := object.Method{Name: nameIdx, Arity: 0, Locals: locals, Start: start, End: end}
	entryIdx := c.prog.AddConstant(entry)
	c.prog.SetEntry(entryIdx)

	return c.prog, nil
}

func (c *Compiler) currentFrame() *frame { return c.frames[len(c.frames)-1] }

func (c *Compiler) pushFrame() { c.frames = append(c.frames, newFrame()) }

func (c *Compiler) popFrame() { c.frames = c.frames[:len(c.frames)-1] }

// insideNestedScope reports whether a `let` right here should become a
// local (true) rather than a global (false): either we're compiling inside
// some function/method body, or we're at the top level but inside a block
// that has pushed a scope beyond the frame's outermost one.
func (c *Compiler) insideNestedScope() bool {
	return len(c.frames) > 1 || c.currentFrame().scopeDepth() > 1
}

func (c *Compiler) internString(s string) uint32 {
	if idx, ok := c.stringCache[s]; ok {
		return idx
	}
	idx := c.prog.AddConstant(object.String(s))
	c.stringCache[s] = idx
	return idx
}

func (c *Compiler) nullConstant() uint32 {
	if c.nullIndex != nil {
		return *c.nullIndex
	}
	idx := c.prog.AddConstant(object.Null{})
	c.nullIndex = &idx
	return idx
}

// compileSequence compiles a run of expressions the way a block or the
// top-level program body does: every expression but the last has its
// result dropped, and the sequence as a whole leaves exactly the last
// expression's value on the stack (Null if the sequence is empty).
func (c *Compiler) compileSequence(exprs []ast.Expression) error {
	if len(exprs) == 0 {
		c.prog.Emit(bytecode.NewLiteral(c.nullConstant()))
		return nil
	}
	for i, expr := range exprs {
		if err := c.compileExpression(expr); err != nil {
			return err
		}
		if i != len(exprs)-1 {
			c.prog.Emit(bytecode.NewDrop())
		}
	}
	return nil
}

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		idx := c.prog.AddConstant(object.Integer(e.Value))
		c.prog.Emit(bytecode.NewLiteral(idx))
		return nil

	case *ast.BooleanLiteral:
		idx := c.prog.AddConstant(object.Boolean(e.Value))
		c.prog.Emit(bytecode.NewLiteral(idx))
		return nil

	case *ast.NullLiteral:
		c.prog.Emit(bytecode.NewLiteral(c.nullConstant()))
		return nil

	case *ast.Identifier:
		if idx, ok := c.currentFrame().resolveLocal(e.Name); ok {
			c.prog.Emit(bytecode.NewGetLocal(idx))
		} else {
			c.prog.Emit(bytecode.NewGetGlobal(c.internString(e.Name)))
		}
		return nil

	case *ast.VariableDefinition:
		return c.compileVariableDefinition(e)

	case *ast.Assignment:
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		if idx, ok := c.currentFrame().resolveLocal(e.Name); ok {
			c.prog.Emit(bytecode.NewSetLocal(idx))
		} else {
			c.prog.Emit(bytecode.NewSetGlobal(c.internString(e.Name)))
		}
		return nil

	case *ast.Conditional:
		return c.compileConditional(e)

	case *ast.WhileLoop:
		return c.compileWhileLoop(e)

	case *ast.ArrayDefinition:
		return c.compileArrayDefinition(e)

	case *ast.IndexExpression:
		if err := c.compileExpression(e.Subject); err != nil {
			return err
		}
		if err := c.compileExpression(e.Index); err != nil {
			return err
		}
		c.prog.Emit(bytecode.NewCallMethod(c.internString("get"), 2))
		return nil

	case *ast.IndexAssignment:
		if err := c.compileExpression(e.Subject); err != nil {
			return err
		}
		if err := c.compileExpression(e.Index); err != nil {
			return err
		}
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.prog.Emit(bytecode.NewCallMethod(c.internString("set"), 3))
		return nil

	case *ast.FieldAccess:
		if err := c.compileExpression(e.Subject); err != nil {
			return err
		}
		c.prog.Emit(bytecode.NewGetSlot(c.internString(e.Field)))
		return nil

	case *ast.FieldAssignment:
		if err := c.compileExpression(e.Subject); err != nil {
			return err
		}
		if err := c.compileExpression(e.Value); err != nil {
			return err
		}
		c.prog.Emit(bytecode.NewSetSlot(c.internString(e.Field)))
		return nil

	case *ast.FunctionDefinition:
		methodIdx, err := c.compileCallable(e.Name, e.Parameters, e.Body)
		if err != nil {
			return err
		}
		c.prog.AddGlobal(methodIdx)
		c.prog.Emit(bytecode.NewLiteral(c.nullConstant()))
		return nil

	case *ast.FunctionCall:
		for _, arg := range e.Arguments {
			if err := c.compileExpression(arg); err != nil {
				return err
			}
		}
		c.prog.Emit(bytecode.NewCallFunction(c.internString(e.Name), uint8(len(e.Arguments))))
		return nil

	case *ast.MethodCall:
		if err := c.compileExpression(e.Subject); err != nil {
			return err
		}
		for _, arg := range e.Arguments {
			if err := c.compileExpression(arg); err != nil {
				return err
			}
		}
		c.prog.Emit(bytecode.NewCallMethod(c.internString(e.Selector), uint8(len(e.Arguments)+1)))
		return nil

	case *ast.ObjectDefinition:
		return c.compileObjectDefinition(e)

	case *ast.Block:
		c.currentFrame().enterScope()
		err := c.compileSequence(e.Expressions)
		if leaveErr := c.currentFrame().leaveScope(); leaveErr != nil && err == nil {
			err = leaveErr
		}
		return err

	case *ast.Print:
		for _, arg := range e.Arguments {
			if err := c.compileExpression(arg); err != nil {
				return err
			}
		}
		formatIdx := c.prog.AddConstant(object.String(e.Format))
		c.prog.Emit(bytecode.NewPrint(formatIdx, uint8(len(e.Arguments))))
		return nil

	default:
		return fmt.Errorf("compiler: unknown expression type %T", expr)
	}
}

func (c *Compiler) compileVariableDefinition(e *ast.VariableDefinition) error {
	if err := c.compileExpression(e.Value); err != nil {
		return err
	}
	if c.insideNestedScope() {
		idx, err := c.currentFrame().declareLocal(e.Name)
		if err != nil {
			return err
		}
		c.prog.Emit(bytecode.NewSetLocal(idx))
		return nil
	}

	nameIdx := c.internString(e.Name)
	slotIdx := c.prog.AddConstant(object.Slot{Name: nameIdx})
	c.prog.AddGlobal(slotIdx)
	c.globalNames[e.Name] = true
	c.prog.Emit(bytecode.NewSetGlobal(nameIdx))
	return nil
}

// compileCallable emits the Jump/body/Return/Label scaffolding shared by
// free function and object-method definitions, registers a Method constant
// for it, and returns that constant's index. params already includes the
// implicit `this` for methods — the caller is responsible for prepending
// it.
func (c *Compiler) compileCallable(name string, params []string, body ast.Expression) (uint32, error) {
	jumpLabel, jumpIdx := c.prog.FreshLabel("guard_")
	c.prog.Emit(bytecode.NewJump(jumpIdx))

	start := c.prog.CodeLen()
	c.pushFrame()
	for _, param := range params {
		if _, err := c.currentFrame().declareLocal(param); err != nil {
			c.popFrame()
			return 0, err
		}
	}
	if err := c.compileExpression(body); err != nil {
		c.popFrame()
		return 0, err
	}
	c.prog.Emit(bytecode.NewReturn())
	locals := c.currentFrame().nextLocal - uint32(len(params))
	c.popFrame()
	end := c.prog.CodeLen()

	if err := c.prog.BindLabel(jumpLabel, c.prog.CodeLen()); err != nil {
		return 0, err
	}
	c.prog.Emit(bytecode.NewLabel(jumpIdx))

	nameIdx := c.internString(name)
	method := object.Method{Name: nameIdx, Arity: uint8(len(params)), Locals: locals, Start: start, End: end}
	return c.prog.AddConstant(method), nil
}

func (c *Compiler) compileConditional(n *ast.Conditional) error {
	consequentLabel, consequentIdx := c.prog.FreshLabel("then_")
	endLabel, endIdx := c.prog.FreshLabel("endif_")

	if err := c.compileExpression(n.Condition); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewBranch(consequentIdx))

	if n.Alternative != nil {
		if err := c.compileExpression(n.Alternative); err != nil {
			return err
		}
	} else {
		c.prog.Emit(bytecode.NewLiteral(c.nullConstant()))
	}
	c.prog.Emit(bytecode.NewJump(endIdx))

	if err := c.prog.BindLabel(consequentLabel, c.prog.CodeLen()); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewLabel(consequentIdx))
	if err := c.compileExpression(n.Consequence); err != nil {
		return err
	}

	if err := c.prog.BindLabel(endLabel, c.prog.CodeLen()); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewLabel(endIdx))
	return nil
}

func (c *Compiler) compileWhileLoop(n *ast.WhileLoop) error {
	bodyLabel, bodyIdx := c.prog.FreshLabel("loop_body_")
	condLabel, condIdx := c.prog.FreshLabel("loop_cond_")

	c.prog.Emit(bytecode.NewJump(condIdx))

	if err := c.prog.BindLabel(bodyLabel, c.prog.CodeLen()); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewLabel(bodyIdx))
	if err := c.compileExpression(n.Body); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewDrop())

	if err := c.prog.BindLabel(condLabel, c.prog.CodeLen()); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewLabel(condIdx))
	if err := c.compileExpression(n.Condition); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewBranch(bodyIdx))

	// While, like every other form, is an expression; its value once the
	// condition goes false is Null.
	c.prog.Emit(bytecode.NewLiteral(c.nullConstant()))
	return nil
}

func (c *Compiler) isTrivial(expr ast.Expression) bool {
	switch expr.(type) {
	case *ast.IntegerLiteral, *ast.BooleanLiteral, *ast.NullLiteral, *ast.Identifier, *ast.FieldAccess:
		return true
	default:
		return false
	}
}

func (c *Compiler) compileArrayDefinition(n *ast.ArrayDefinition) error {
	if c.isTrivial(n.Init) {
		if err := c.compileExpression(n.Size); err != nil {
			return err
		}
		if err := c.compileExpression(n.Init); err != nil {
			return err
		}
		c.prog.Emit(bytecode.NewArray())
		return nil
	}
	return c.compileArrayDefinitionLoop(n)
}

// compileArrayDefinitionLoop lowers a non-trivial array initializer into an
// explicit loop: build an array of size copies of Null, then overwrite
// each element in turn by re-evaluating the initializer expression and
// storing it with the array's own "set" method — the only way the
// initializer is evaluated once per element rather than once overall.
func (c *Compiler) compileArrayDefinitionLoop(n *ast.ArrayDefinition) error {
	f := c.currentFrame()

	if err := c.compileExpression(n.Size); err != nil {
		return err
	}
	sizeLocal, err := f.declareLocal(fmt.Sprintf("$size%d", f.nextLocal))
	if err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewSetLocal(sizeLocal))
	c.prog.Emit(bytecode.NewDrop())

	c.prog.Emit(bytecode.NewGetLocal(sizeLocal))
	c.prog.Emit(bytecode.NewLiteral(c.nullConstant()))
	c.prog.Emit(bytecode.NewArray())
	arrayLocal, err := f.declareLocal(fmt.Sprintf("$array%d", f.nextLocal))
	if err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewSetLocal(arrayLocal))
	c.prog.Emit(bytecode.NewDrop())

	zeroIdx := c.prog.AddConstant(object.Integer(0))
	c.prog.Emit(bytecode.NewLiteral(zeroIdx))
	indexLocal, err := f.declareLocal(fmt.Sprintf("$index%d", f.nextLocal))
	if err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewSetLocal(indexLocal))
	c.prog.Emit(bytecode.NewDrop())

	bodyLabel, bodyIdx := c.prog.FreshLabel("arrinit_body_")
	condLabel, condIdx := c.prog.FreshLabel("arrinit_cond_")
	c.prog.Emit(bytecode.NewJump(condIdx))

	if err := c.prog.BindLabel(bodyLabel, c.prog.CodeLen()); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewLabel(bodyIdx))

	c.prog.Emit(bytecode.NewGetLocal(arrayLocal))
	c.prog.Emit(bytecode.NewGetLocal(indexLocal))
	if err := c.compileExpression(n.Init); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewCallMethod(c.internString("set"), 3))
	c.prog.Emit(bytecode.NewDrop())

	oneIdx := c.prog.AddConstant(object.Integer(1))
	c.prog.Emit(bytecode.NewGetLocal(indexLocal))
	c.prog.Emit(bytecode.NewLiteral(oneIdx))
	c.prog.Emit(bytecode.NewCallMethod(c.internString("add"), 2))
	c.prog.Emit(bytecode.NewSetLocal(indexLocal))
	c.prog.Emit(bytecode.NewDrop())

	if err := c.prog.BindLabel(condLabel, c.prog.CodeLen()); err != nil {
		return err
	}
	c.prog.Emit(bytecode.NewLabel(condIdx))
	c.prog.Emit(bytecode.NewGetLocal(indexLocal))
	c.prog.Emit(bytecode.NewGetLocal(sizeLocal))
	c.prog.Emit(bytecode.NewCallMethod(c.internString("lt"), 2))
	c.prog.Emit(bytecode.NewBranch(bodyIdx))

	c.prog.Emit(bytecode.NewGetLocal(arrayLocal))
	return nil
}

func (c *Compiler) compileObjectDefinition(n *ast.ObjectDefinition) error {
	var members []uint32
	var fieldValues []ast.Expression

	for _, member := range n.Members {
		switch m := member.(type) {
		case *ast.FieldDefinition:
			nameIdx := c.internString(m.Name)
			slotIdx := c.prog.AddConstant(object.Slot{Name: nameIdx})
			members = append(members, slotIdx)
			fieldValues = append(fieldValues, m.Value)
		case *ast.MethodDefinition:
			params := append([]string{"this"}, m.Parameters...)
			methodIdx, err := c.compileCallable(m.Name, params, m.Body)
			if err != nil {
				return err
			}
			members = append(members, methodIdx)
		default:
			return fmt.Errorf("compiler: unknown object member type %T", member)
		}
	}

	if n.Parent != nil {
		if err := c.compileExpression(n.Parent); err != nil {
			return err
		}
	} else {
		c.prog.Emit(bytecode.NewLiteral(c.nullConstant()))
	}

	for _, v := range fieldValues {
		if err := c.compileExpression(v); err != nil {
			return err
		}
	}

	classIdx := c.prog.AddConstant(object.Class{Members: members})
	c.prog.Emit(bytecode.NewObject(classIdx))
	return nil
}
