// Package interpreter executes a program.Program on a stack machine: an
// operand stack, a frame stack, an append-only heap of runtime objects, and
// the global namespace.
package interpreter

import (
	"fmt"
	"io"
	"os"

	"github.com/kondziu/ppl/pkg/bytecode"
	"github.com/kondziu/ppl/pkg/object"
	"github.com/kondziu/ppl/pkg/program"
)

// frame is one call-frame: the argument/local slots in declaration order,
// plus the address to resume at on Return (nil terminates the run — this
// is the entry frame's frame).
type frame struct {
	slots      []Pointer
	returnAddr *uint32
	name       string
	selector   string
}

// VM is a single run of the stack machine: it borrows a program.Program
// read-only and owns the heap, the operand stack, the frame stack, and the
// global namespace for its own lifetime. Globals persist only within one
// VM — there is no cross-run persistence.
type VM struct {
	prog *program.Program
	out  io.Writer

	heap    []Value
	operand []Pointer
	frames  []*frame

	globals map[string]Pointer
	funcs   map[string]object.Method

	ip uint32
}

// New returns a VM ready to run prog. Output from the print primitive goes
// to out; pass os.Stdout for normal use.
func New(prog *program.Program, out io.Writer) *VM {
	return &VM{
		prog:    prog,
		out:     out,
		globals: make(map[string]Pointer),
		funcs:   make(map[string]object.Method),
	}
}

// Run executes prog's entry method to completion, writing print output to
// out. It returns a *RuntimeError on any fatal condition; the error's
// message and stack trace identify the opcode, pointer, or name involved.
func Run(prog *program.Program, out io.Writer) error {
	vm := New(prog, out)
	return vm.Run()
}

// RunStdout is a convenience wrapper for the common case of running a
// program and sending print output to os.Stdout.
func RunStdout(prog *program.Program) error {
	return Run(prog, os.Stdout)
}

// Run drives the fetch-decode-execute loop until the entry frame returns or
// a fatal error is raised.
func (vm *VM) Run() error {
	if err := vm.loadGlobals(); err != nil {
		return err
	}

	entryObj, err := vm.prog.Constant(vm.prog.Entry())
	if err != nil {
		return vm.fatalf("resolving entry: %v", err)
	}
	entry, ok := entryObj.(object.Method)
	if !ok {
		return vm.fatalf("program entry (constant %d) is not a Method", vm.prog.Entry())
	}

	entryFrame := &frame{slots: make([]Pointer, uint32(entry.Arity)+entry.Locals), name: "entry"}
	for i := range entryFrame.slots {
		entryFrame.slots[i] = vm.allocNull()
	}
	vm.frames = append(vm.frames, entryFrame)
	vm.ip = entry.Start

	for {
		instr, ierr := vm.prog.InstructionAt(vm.ip)
		if ierr != nil {
			return vm.fatalf("fetching instruction at %d: %v", vm.ip, ierr)
		}
		halted, err := vm.step(instr)
		if err != nil {
			return err
		}
		if halted {
			return nil
		}
	}
}

// loadGlobals walks the program's global-slot list, allocating a Null for
// every field slot and registering every free function under its name.
// Duplicate global names are fatal.
func (vm *VM) loadGlobals() error {
	seen := make(map[string]bool)
	for _, idx := range vm.prog.Globals() {
		entry, err := vm.prog.Constant(idx)
		if err != nil {
			return vm.fatalf("loading global %d: %v", idx, err)
		}
		switch e := entry.(type) {
		case object.Slot:
			name, err := vm.constantString(e.Name)
			if err != nil {
				return err
			}
			if seen[name] {
				return vm.fatalf("duplicate global name %q", name)
			}
			seen[name] = true
			vm.globals[name] = vm.allocNull()
		case object.Method:
			name, err := vm.constantString(e.Name)
			if err != nil {
				return err
			}
			if seen[name] {
				return vm.fatalf("duplicate global name %q", name)
			}
			seen[name] = true
			vm.funcs[name] = e
		default:
			return vm.fatalf("global-slot entry %d is neither Slot nor Method", idx)
		}
	}
	return nil
}

func (vm *VM) constantString(index uint32) (string, *RuntimeError) {
	obj, err := vm.prog.Constant(index)
	if err != nil {
		return "", vm.fatalf("resolving name constant %d: %v", index, err)
	}
	s, ok := obj.(object.String)
	if !ok {
		return "", vm.fatalf("constant %d is not a String", index)
	}
	return string(s), nil
}

// --- heap ---

func (vm *VM) alloc(v Value) Pointer {
	vm.heap = append(vm.heap, v)
	return Pointer(len(vm.heap) - 1)
}

func (vm *VM) allocNull() Pointer { return vm.alloc(NullValue{}) }

func (vm *VM) deref(p Pointer) (Value, *RuntimeError) {
	if int(p) >= len(vm.heap) {
		return nil, vm.fatalf("dereferencing dangling pointer %d", p)
	}
	return vm.heap[p], nil
}

func (vm *VM) store(p Pointer, v Value) *RuntimeError {
	if int(p) >= len(vm.heap) {
		return vm.fatalf("writing over unallocated pointer %d", p)
	}
	vm.heap[p] = v
	return nil
}

// --- operand stack ---

func (vm *VM) push(p Pointer) { vm.operand = append(vm.operand, p) }

func (vm *VM) pop() (Pointer, *RuntimeError) {
	if len(vm.operand) == 0 {
		return 0, vm.fatalf("operand stack underflow")
	}
	n := len(vm.operand) - 1
	p := vm.operand[n]
	vm.operand = vm.operand[:n]
	return p, nil
}

func (vm *VM) peek() (Pointer, *RuntimeError) {
	if len(vm.operand) == 0 {
		return 0, vm.fatalf("operand stack underflow")
	}
	return vm.operand[len(vm.operand)-1], nil
}

// popN pops n values and returns them in their original (left-to-right,
// push) order — the inverse of the LIFO pop order.
func (vm *VM) popN(n int) ([]Pointer, *RuntimeError) {
	out := make([]Pointer, n)
	for i := n - 1; i >= 0; i-- {
		p, err := vm.pop()
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// --- frames ---

func (vm *VM) currentFrame() *frame { return vm.frames[len(vm.frames)-1] }

func (vm *VM) localRef(index uint32) (*Pointer, *RuntimeError) {
	f := vm.currentFrame()
	if int(index) >= len(f.slots) {
		return nil, vm.fatalf("local index %d out of range (frame has %d slots)", index, len(f.slots))
	}
	return &f.slots[index], nil
}

// step executes a single instruction, returning halted=true once the entry
// frame's Return has fired (normal termination) and a *RuntimeError on any
// fatal condition. Every code path either jumps explicitly (Jump, taken
// Branch, Return, user-method/function dispatch), advances vm.ip itself
// (primitive CallMethod dispatch), or falls through to the trailing vm.ip++.
func (vm *VM) step(instr bytecode.Instruction) (bool, *RuntimeError) {
	switch instr.Op {
	case bytecode.Label:
		// No-op at execution time; the label index was resolved at load
		// time.

	case bytecode.Literal:
		obj, err := vm.prog.Constant(instr.A)
		if err != nil {
			return false, vm.fatalf("literal: %v", err)
		}
		v, verr := literalValue(obj)
		if verr != nil {
			return false, vm.fatalf("literal: %v", verr)
		}
		vm.push(vm.alloc(v))

	case bytecode.GetLocal:
		ref, err := vm.localRef(instr.A)
		if err != nil {
			return false, err
		}
		vm.push(*ref)

	case bytecode.SetLocal:
		top, err := vm.peek()
		if err != nil {
			return false, err
		}
		ref, err := vm.localRef(instr.A)
		if err != nil {
			return false, err
		}
		*ref = top

	case bytecode.GetGlobal:
		name, err := vm.constantString(instr.A)
		if err != nil {
			return false, err
		}
		ptr, ok := vm.globals[name]
		if !ok {
			return false, vm.fatalf("undefined global %q", name)
		}
		vm.push(ptr)

	case bytecode.SetGlobal:
		name, err := vm.constantString(instr.A)
		if err != nil {
			return false, err
		}
		top, perr := vm.peek()
		if perr != nil {
			return false, perr
		}
		vm.globals[name] = top

	case bytecode.Drop:
		if _, err := vm.pop(); err != nil {
			return false, err
		}

	case bytecode.Jump:
		label, err := vm.constantString(instr.A)
		if err != nil {
			return false, err
		}
		addr, rerr := vm.prog.ResolveLabel(label)
		if rerr != nil {
			return false, vm.fatalf("jump: %v", rerr)
		}
		vm.ip = addr
		return false, nil

	case bytecode.Branch:
		cond, err := vm.pop()
		if err != nil {
			return false, err
		}
		val, derr := vm.deref(cond)
		if derr != nil {
			return false, derr
		}
		if isTruthy(val) {
			label, lerr := vm.constantString(instr.A)
			if lerr != nil {
				return false, lerr
			}
			addr, rerr := vm.prog.ResolveLabel(label)
			if rerr != nil {
				return false, vm.fatalf("branch: %v", rerr)
			}
			vm.ip = addr
			return false, nil
		}

	case bytecode.Return:
		if len(vm.frames) == 0 {
			return false, vm.fatalf("return from empty frame stack")
		}
		ret := vm.currentFrame().returnAddr
		vm.frames = vm.frames[:len(vm.frames)-1]
		if ret == nil {
			return true, nil
		}
		vm.ip = *ret
		return false, nil

	case bytecode.Array:
		if err := vm.execArray(); err != nil {
			return false, err
		}

	case bytecode.Object:
		if err := vm.execObject(instr.A); err != nil {
			return false, err
		}

	case bytecode.GetSlot:
		if err := vm.execGetSlot(instr.A); err != nil {
			return false, err
		}

	case bytecode.SetSlot:
		if err := vm.execSetSlot(instr.A); err != nil {
			return false, err
		}

	case bytecode.CallMethod:
		// execCallMethod advances (or redirects) vm.ip itself, for both
		// the primitive-dispatch and user-method-dispatch paths — it must
		// bypass the trailing vm.ip++ below either way.
		halted, err := vm.execCallMethod(instr.A, instr.B)
		if err != nil {
			return false, err
		}
		return halted, nil

	case bytecode.CallFunction:
		// Likewise: pushCallFrame already set vm.ip to the callee's start.
		if err := vm.execCallFunction(instr.A, instr.B); err != nil {
			return false, err
		}
		return false, nil

	case bytecode.Print:
		if err := vm.execPrint(instr.A, instr.B); err != nil {
			return false, err
		}

	default:
		return false, vm.fatalf("unknown opcode %s", instr.Op)
	}

	vm.ip++
	return false, nil
}

func literalValue(obj object.Object) (Value, error) {
	switch o := obj.(type) {
	case object.Integer:
		return IntegerValue(o), nil
	case object.Boolean:
		return BooleanValue(o), nil
	case object.Null:
		return NullValue{}, nil
	default:
		return nil, fmt.Errorf("constant is not a Literal-compatible type (%T)", obj)
	}
}

// isTruthy implements the Branch opcode's truthiness rule: every value is
// truthy except Null and Boolean(false) — notably Integer(0) is truthy.
func isTruthy(v Value) bool {
	switch t := v.(type) {
	case NullValue:
		return false
	case BooleanValue:
		return bool(t)
	default:
		return true
	}
}
