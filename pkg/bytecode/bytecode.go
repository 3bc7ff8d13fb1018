// Package bytecode defines the instruction set executed by the ppl virtual
// machine.
//
// Every method body compiled by pkg/compiler is a contiguous run of
// Instruction values living in a single, program-wide code store
// (pkg/program.Program.Code). An Instruction names an Opcode plus up to two
// operands; the operand's meaning depends on the opcode — see the doc
// comment on each constant below.
//
// Architecture:
//
//	1. Values travel on an operand stack owned by the interpreter
//	2. Locals and globals are reached via name/index, never by address
//	3. Method/operator calls funnel through CallMethod — the single
//	   dispatch point for both user methods and built-in primitives
//
// Example compilation:
//
//	Source:  let x = 21; print("~\n", x + x)
//
//	Bytecode:
//	  Literal 0        ; constant[0] = 21
//	  SetGlobal 1      ; constant[1] = "x", constant[2] = Slot(1)
//	  Drop
//	  GetGlobal 1
//	  GetGlobal 1
//	  CallMethod 3, 2  ; constant[3] = "+"
//	  Print 4, 1       ; constant[4] = "~\n"
//	  Return
//
// Exact tag values and operand widths are normative — see the wire format
// documented in pkg/program/format.go.
package bytecode

// Opcode identifies an instruction's operation. Seventeen variants, one byte
// each when serialized.
type Opcode byte

const (
	// Label marks the address of a jump target. No-op at execution time.
	// Operand: name, a constant-pool index of a String.
	Label Opcode = iota

	// Literal materializes an Integer, Boolean, or Null constant onto the
	// heap and pushes its pointer.
	// Operand: index into the constant pool.
	Literal

	// Print pops arity arguments, interprets the format string at the
	// given constant index (replacing unescaped ~ with stringified
	// arguments), and pushes Null.
	// Operands: format (constant-pool index), arity.
	Print

	// Array pops an initializer then a size and allocates an array of
	// that many independent copies of the initializer.
	Array

	// Object pops one value per declared slot (deepest value initializes
	// the first slot) then the parent, and allocates a new object from
	// the Class at the given constant-pool index.
	// Operand: class, a constant-pool index of a Class.
	Object

	// GetSlot pops a receiver and pushes the named field's value.
	// Operand: name, a constant-pool index of a String.
	GetSlot

	// SetSlot pops a value then a receiver, stores the value in the named
	// field, and pushes the value back.
	// Operand: name, a constant-pool index of a String.
	SetSlot

	// CallMethod dispatches a message: pops arity-1 arguments then the
	// receiver, and invokes either a built-in primitive or a user method
	// found by walking the receiver's parent chain.
	// Operands: name (constant-pool index), arity (includes receiver).
	CallMethod

	// CallFunction invokes a globally registered free function.
	// Operands: name (constant-pool index), arity.
	CallFunction

	// SetLocal peeks the top of the operand stack and stores it in the
	// current frame's slot at the given index.
	// Operand: index.
	SetLocal

	// GetLocal pushes the current frame's slot at the given index.
	// Operand: index.
	GetLocal

	// SetGlobal peeks the top of the operand stack and stores it under
	// the named global, creating the entry if absent.
	// Operand: name, a constant-pool index of a String.
	SetGlobal

	// GetGlobal pushes the value of the named global.
	// Operand: name, a constant-pool index of a String.
	GetGlobal

	// Branch pops a value and jumps to the label iff the value,
	// dereferenced, is neither Null nor Boolean(false).
	// Operand: label, a constant-pool index of a String.
	Branch

	// Jump unconditionally sets the instruction pointer to the label's
	// address.
	// Operand: label, a constant-pool index of a String.
	Jump

	// Return pops the current frame and resumes at its return address,
	// or terminates the run if the frame has none.
	Return

	// Drop pops and discards the top of the operand stack.
	Drop
)

// String returns a human-readable mnemonic, used by the disassembler and by
// error messages that need to name the offending opcode.
func (op Opcode) String() string {
	switch op {
	case Label:
		return "LABEL"
	case Literal:
		return "LITERAL"
	case Print:
		return "PRINT"
	case Array:
		return "ARRAY"
	case Object:
		return "OBJECT"
	case GetSlot:
		return "GET_SLOT"
	case SetSlot:
		return "SET_SLOT"
	case CallMethod:
		return "CALL_METHOD"
	case CallFunction:
		return "CALL_FUNCTION"
	case SetLocal:
		return "SET_LOCAL"
	case GetLocal:
		return "GET_LOCAL"
	case SetGlobal:
		return "SET_GLOBAL"
	case GetGlobal:
		return "GET_GLOBAL"
	case Branch:
		return "BRANCH"
	case Jump:
		return "JUMP"
	case Return:
		return "RETURN"
	case Drop:
		return "DROP"
	default:
		return "UNKNOWN"
	}
}

// Instruction is one decoded instruction: an opcode plus its operand(s).
// Most opcodes carry a single operand (A); Print and CallMethod/CallFunction
// carry a second (B) for arity. Operands that don't apply to a given opcode
// are left zero.
type Instruction struct {
	Op Opcode
	A  uint32
	B  uint8
}

// NewLabel builds a Label instruction.
func NewLabel(name uint32) Instruction { return Instruction{Op: Label, A: name} }

// NewLiteral builds a Literal instruction.
func NewLiteral(index uint32) Instruction { return Instruction{Op: Literal, A: index} }

// NewPrint builds a Print instruction.
func NewPrint(format uint32, arity uint8) Instruction {
	return Instruction{Op: Print, A: format, B: arity}
}

// NewArray builds an Array instruction.
func NewArray() Instruction { return Instruction{Op: Array} }

// NewObject builds an Object instruction.
func NewObject(class uint32) Instruction { return Instruction{Op: Object, A: class} }

// NewGetSlot builds a GetSlot instruction.
func NewGetSlot(name uint32) Instruction { return Instruction{Op: GetSlot, A: name} }

// NewSetSlot builds a SetSlot instruction.
func NewSetSlot(name uint32) Instruction { return Instruction{Op: SetSlot, A: name} }

// NewCallMethod builds a CallMethod instruction.
func NewCallMethod(name uint32, arity uint8) Instruction {
	return Instruction{Op: CallMethod, A: name, B: arity}
}

// NewCallFunction builds a CallFunction instruction.
func NewCallFunction(name uint32, arity uint8) Instruction {
	return Instruction{Op: CallFunction, A: name, B: arity}
}

// NewSetLocal builds a SetLocal instruction.
func NewSetLocal(index uint32) Instruction { return Instruction{Op: SetLocal, A: index} }

// NewGetLocal builds a GetLocal instruction.
func NewGetLocal(index uint32) Instruction { return Instruction{Op: GetLocal, A: index} }

// NewSetGlobal builds a SetGlobal instruction.
func NewSetGlobal(name uint32) Instruction { return Instruction{Op: SetGlobal, A: name} }

// NewGetGlobal builds a GetGlobal instruction.
func NewGetGlobal(name uint32) Instruction { return Instruction{Op: GetGlobal, A: name} }

// NewBranch builds a Branch instruction.
func NewBranch(label uint32) Instruction { return Instruction{Op: Branch, A: label} }

// NewJump builds a Jump instruction.
func NewJump(label uint32) Instruction { return Instruction{Op: Jump, A: label} }

// NewReturn builds a Return instruction.
func NewReturn() Instruction { return Instruction{Op: Return} }

// NewDrop builds a Drop instruction.
func NewDrop() Instruction { return Instruction{Op: Drop} }
