// Package program defines the container a compiled ppl program lives in: a
// constant pool, a global-slot list, a shared code store, a label index, and
// an entry point. pkg/compiler builds one; pkg/interpreter runs one;
// format.go serializes one.
package program

import (
	"fmt"

	"github.com/kondziu/ppl/pkg/bytecode"
	"github.com/kondziu/ppl/pkg/object"
)

// Program is the output of compilation and the input to the interpreter.
// It owns every constant, every instruction, and the label index for its
// lifetime — the interpreter only ever borrows it.
type Program struct {
	constants []object.Object
	globals   []uint32
	code      []bytecode.Instruction
	labels    map[string]uint32
	entry     uint32
	nextLabel int
}

// New returns an empty Program ready for incremental construction by the
// compiler.
func New() *Program {
	return &Program{labels: make(map[string]uint32)}
}

// AddConstant interns obj into the constant pool and returns its index.
// Unlike label names, constants are never deduplicated — the compiler is
// free to intern the same string twice and get two indices.
func (p *Program) AddConstant(obj object.Object) uint32 {
	p.constants = append(p.constants, obj)
	return uint32(len(p.constants) - 1)
}

// Constant returns the pool entry at index, or an error if it is out of
// range.
func (p *Program) Constant(index uint32) (object.Object, error) {
	if int(index) >= len(p.constants) {
		return nil, fmt.Errorf("program: constant index %d out of range (pool size %d)", index, len(p.constants))
	}
	return p.constants[index], nil
}

// ConstantCount returns the number of entries in the constant pool.
func (p *Program) ConstantCount() int { return len(p.constants) }

// Constants returns the full constant pool, in pool order. Callers must not
// mutate the returned slice.
func (p *Program) Constants() []object.Object { return p.constants }

// Emit appends instr to the shared code store and returns its address.
func (p *Program) Emit(instr bytecode.Instruction) uint32 {
	p.code = append(p.code, instr)
	return uint32(len(p.code) - 1)
}

// PatchOperand rewrites the A operand of the instruction at address, for
// back-patching a forward jump once its target address is known. The
// compiler does not call it: its jumps resolve through the label index.
func (p *Program) PatchOperand(address uint32, a uint32) {
	p.code[address].A = a
}

// CodeLen returns the number of instructions emitted so far — equivalently,
// the address the next Emit will return.
func (p *Program) CodeLen() uint32 { return uint32(len(p.code)) }

// Code returns the full instruction store. Callers must not mutate the
// returned slice.
func (p *Program) Code() []bytecode.Instruction { return p.code }

// InstructionAt returns the instruction at address, or an error if out of
// range.
func (p *Program) InstructionAt(address uint32) (bytecode.Instruction, error) {
	if int(address) >= len(p.code) {
		return bytecode.Instruction{}, fmt.Errorf("program: code address %d out of range (code length %d)", address, len(p.code))
	}
	return p.code[address], nil
}

// FreshLabel generates a label name guaranteed unused so far (e.g.
// "L0", "L1", ...), interns it as a String constant, and returns both the
// name and its constant-pool index. The compiler uses this for synthetic
// jump targets (conditional/loop lowering, function end-guards).
func (p *Program) FreshLabel(prefix string) (string, uint32) {
	for {
		name := fmt.Sprintf("%s%d", prefix, p.nextLabel)
		p.nextLabel++
		if _, taken := p.labels[name]; !taken {
			index := p.AddConstant(object.String(name))
			return name, index
		}
	}
}

// BindLabel associates name with the address of the instruction about to be
// emitted there (the address of the Label opcode itself). Label names must
// be unique across the program; binding the same name twice is an error.
func (p *Program) BindLabel(name string, address uint32) error {
	if _, exists := p.labels[name]; exists {
		return fmt.Errorf("program: duplicate label %q", name)
	}
	p.labels[name] = address
	return nil
}

// ResolveLabel returns the address bound to name, or an error if no such
// label has been bound.
func (p *Program) ResolveLabel(name string) (uint32, error) {
	address, ok := p.labels[name]
	if !ok {
		return 0, fmt.Errorf("program: unresolved label %q", name)
	}
	return address, nil
}

// AddGlobal registers index — which must refer to a Slot or Method constant
// — in the program's global-slot list. The interpreter walks this list at
// startup to populate the global namespace.
func (p *Program) AddGlobal(index uint32) {
	p.globals = append(p.globals, index)
}

// Globals returns the global-slot list, as constant-pool indices in
// registration order. Callers must not mutate the returned slice.
func (p *Program) Globals() []uint32 { return p.globals }

// SetEntry records the constant-pool index of the program's entry method.
func (p *Program) SetEntry(index uint32) { p.entry = index }

// Entry returns the constant-pool index of the program's entry method.
func (p *Program) Entry() uint32 { return p.entry }

// Validate checks the cross-reference invariants a well-formed program must
// satisfy: every index a Slot, Method, Class, or the global-slot list refers
// to is in bounds and names a constant of the required kind, every method's
// code range lies within the code store, and the entry index names a Method.
// Decode runs this on every loaded program; the compiler's output satisfies
// it by construction.
func (p *Program) Validate() error {
	for i, c := range p.constants {
		switch o := c.(type) {
		case object.Slot:
			if err := p.checkString(o.Name); err != nil {
				return fmt.Errorf("program: slot %d: name: %w", i, err)
			}
		case object.Method:
			if err := p.checkString(o.Name); err != nil {
				return fmt.Errorf("program: method %d: name: %w", i, err)
			}
			if o.Start > o.End || int(o.End) > len(p.code) {
				return fmt.Errorf("program: method %d: code range [%d, %d) outside code store (length %d)", i, o.Start, o.End, len(p.code))
			}
		case object.Class:
			for _, m := range o.Members {
				member, err := p.Constant(m)
				if err != nil {
					return fmt.Errorf("program: class %d: %w", i, err)
				}
				switch member.(type) {
				case object.Slot, object.Method:
				default:
					return fmt.Errorf("program: class %d: member %d is neither Slot nor Method", i, m)
				}
			}
		}
	}

	for _, g := range p.globals {
		entry, err := p.Constant(g)
		if err != nil {
			return fmt.Errorf("program: global slot: %w", err)
		}
		switch entry.(type) {
		case object.Slot, object.Method:
		default:
			return fmt.Errorf("program: global-slot entry %d is neither Slot nor Method", g)
		}
	}

	entry, err := p.Constant(p.entry)
	if err != nil {
		return fmt.Errorf("program: entry: %w", err)
	}
	if _, ok := entry.(object.Method); !ok {
		return fmt.Errorf("program: entry constant %d is not a Method", p.entry)
	}
	return nil
}

func (p *Program) checkString(index uint32) error {
	obj, err := p.Constant(index)
	if err != nil {
		return err
	}
	if _, ok := obj.(object.String); !ok {
		return fmt.Errorf("constant %d is not a String", index)
	}
	return nil
}
