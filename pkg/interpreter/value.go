package interpreter

import "github.com/kondziu/ppl/pkg/object"

// Pointer is an opaque, stable heap address. Equality of two Pointers is
// identity: the memory is append-only and a pointer is unique for the
// lifetime of the VM.
type Pointer uint32

// Value is a runtime heap entry: one of Null, Integer, Boolean, Array, or a
// user Object. Unlike object.Object (the constant-pool's compile-time
// representation), a Value lives on the VM's heap and can be mutated in
// place (field writes, array element writes) without changing its Pointer.
type Value interface {
	value()
}

// NullValue is the unit value.
type NullValue struct{}

func (NullValue) value() {}

// IntegerValue is a 32-bit signed integer.
type IntegerValue int32

func (IntegerValue) value() {}

// BooleanValue is true or false.
type BooleanValue bool

func (BooleanValue) value() {}

// ArrayValue is a fixed-length sequence of pointers, set at creation.
// get/set mutate Elements in place; the slice itself never grows or
// shrinks after allocation.
type ArrayValue struct {
	Elements []Pointer
}

func (ArrayValue) value() {}

// ObjectValue is a prototype-style object: a parent pointer, an ordered set
// of named fields, and a method table. FieldOrder preserves declaration
// order so stringification and serialization are deterministic — Fields
// itself is keyed for O(1) lookup.
type ObjectValue struct {
	Parent     Pointer
	FieldOrder []string
	Fields     map[string]Pointer
	Methods    map[string]object.Method
}

func (ObjectValue) value() {}

// copyValue returns an independent copy of v, suitable for initializing one
// element of an Array literal. Value-like variants (Null, Integer, Boolean)
// copy trivially. Array and Object copy shallowly — a fresh pointer-holding
// structure whose elements/fields still point at the same shared targets.
func copyValue(v Value) Value {
	switch t := v.(type) {
	case NullValue:
		return NullValue{}
	case IntegerValue:
		return t
	case BooleanValue:
		return t
	case ArrayValue:
		elems := make([]Pointer, len(t.Elements))
		copy(elems, t.Elements)
		return ArrayValue{Elements: elems}
	case ObjectValue:
		order := make([]string, len(t.FieldOrder))
		copy(order, t.FieldOrder)
		fields := make(map[string]Pointer, len(t.Fields))
		for k, v := range t.Fields {
			fields[k] = v
		}
		methods := make(map[string]object.Method, len(t.Methods))
		for k, v := range t.Methods {
			methods[k] = v
		}
		return ObjectValue{Parent: t.Parent, FieldOrder: order, Fields: fields, Methods: methods}
	default:
		return v
	}
}
