// Package object defines the constant-pool entries that make up a compiled
// ppl Program: the typed, immutable values addressed by 32-bit index from
// every Instruction operand that isn't itself a literal number.
//
// A constant pool entry is one of: Integer, Boolean, Null, or String (the
// literal carriers), Slot (a named variable declaration — field or global),
// Method (a callable with its own code range), or Class (an object shape:
// an ordered list of Slot/Method member indices).
package object

import "github.com/kondziu/ppl/pkg/bytecode"

// Tag identifies a constant-pool entry's kind, both in memory and on the
// wire (see pkg/program/format.go).
type Tag byte

const (
	TagInteger Tag = 0x00
	TagNull    Tag = 0x01
	TagString  Tag = 0x02
	TagSlot    Tag = 0x03
	TagMethod  Tag = 0x04
	TagClass   Tag = 0x05
	TagBoolean Tag = 0x06
)

// Object is a constant-pool entry. It is a closed set — the concrete types
// below are its only implementations.
type Object interface {
	Tag() Tag
	object()
}

// Integer is a literal 32-bit signed integer constant.
type Integer int32

func (Integer) Tag() Tag { return TagInteger }
func (Integer) object()  {}

// Boolean is a literal true/false constant.
type Boolean bool

func (Boolean) Tag() Tag { return TagBoolean }
func (Boolean) object()  {}

// Null is the unit-value constant. There is exactly one meaning, but it is
// still interned like any other constant so Literal can reference it by
// index.
type Null struct{}

func (Null) Tag() Tag { return TagNull }
func (Null) object()  {}

// String holds the name of a global, method, label, or a print format
// string. It is never itself a runtime value reachable from source code —
// see the open-question notes on string stringification in DESIGN.md.
type String string

func (String) Tag() Tag { return TagString }
func (String) object()  {}

// Slot names a variable declaration: either an object field (when referred
// to from a Class) or a global variable (when referred to from the
// program's global-slot list). Name indexes a String constant.
type Slot struct {
	Name uint32
}

func (Slot) Tag() Tag { return TagSlot }
func (Slot) object()  {}

// Method is a callable declaration: a free function, a method, or the
// synthesized program entry point. Arity includes the implicit receiver
// for methods. Locals is the count of local slots beyond the arguments.
// Code is a half-open address range into the program's shared code store.
type Method struct {
	Name   uint32
	Arity  uint8
	Locals uint32
	Start  uint32
	End    uint32
}

func (Method) Tag() Tag { return TagMethod }
func (Method) object()  {}

// Code returns the method's instructions, sliced out of the shared code
// store by its [Start, End) range.
func (m Method) Code(store []bytecode.Instruction) []bytecode.Instruction {
	return store[m.Start:m.End]
}

// Class is an object-shape descriptor: an ordered list of constant-pool
// indices, each referring to either a Slot (field) or a Method (method).
type Class struct {
	Members []uint32
}

func (Class) Tag() Tag { return TagClass }
func (Class) object()  {}
