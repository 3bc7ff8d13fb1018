package interpreter

import (
	"bytes"
	"testing"

	"github.com/kondziu/ppl/pkg/object"
	"github.com/kondziu/ppl/pkg/program"
)

func newTestVM() *VM {
	return New(program.New(), &bytes.Buffer{})
}

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		value Value
		want  bool
	}{
		{NullValue{}, false},
		{BooleanValue(false), false},
		{BooleanValue(true), true},
		{IntegerValue(0), true},
		{IntegerValue(-1), true},
		{ArrayValue{}, true},
		{ObjectValue{}, true},
	}
	for _, tc := range cases {
		if got := isTruthy(tc.value); got != tc.want {
			t.Errorf("isTruthy(%#v) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestPopNPreservesPushOrder(t *testing.T) {
	vm := newTestVM()
	a := vm.alloc(IntegerValue(1))
	b := vm.alloc(IntegerValue(2))
	c := vm.alloc(IntegerValue(3))
	vm.push(a)
	vm.push(b)
	vm.push(c)

	got, err := vm.popN(3)
	if err != nil {
		t.Fatalf("popN: %v", err)
	}
	if got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("popN returned %v, want push order [%d %d %d]", got, a, b, c)
	}
	if len(vm.operand) != 0 {
		t.Fatalf("expected operand stack drained, %d left", len(vm.operand))
	}
}

func TestPopOnEmptyStackIsFatal(t *testing.T) {
	vm := newTestVM()
	if _, err := vm.pop(); err == nil {
		t.Fatalf("expected an underflow error")
	}
}

func TestPushCallFrameSlotLayout(t *testing.T) {
	// A frame must have exactly arity + locals slots: the popped arguments
	// (receiver first for methods) followed by fresh Nulls.
	vm := newTestVM()
	recv := vm.alloc(IntegerValue(7))
	arg := vm.alloc(IntegerValue(8))
	method := object.Method{Arity: 2, Locals: 3, Start: 40}
	vm.ip = 10

	vm.pushCallFrame(method, []Pointer{recv, arg}, "m", "m")

	f := vm.currentFrame()
	if len(f.slots) != 5 {
		t.Fatalf("expected 5 slots (2 args + 3 locals), got %d", len(f.slots))
	}
	if f.slots[0] != recv || f.slots[1] != arg {
		t.Fatalf("expected receiver then argument in slots 0-1, got %v", f.slots[:2])
	}
	for i := 2; i < 5; i++ {
		v, err := vm.deref(f.slots[i])
		if err != nil {
			t.Fatalf("deref slot %d: %v", i, err)
		}
		if _, ok := v.(NullValue); !ok {
			t.Fatalf("expected slot %d initialized to Null, got %#v", i, v)
		}
	}
	if f.returnAddr == nil || *f.returnAddr != 11 {
		t.Fatalf("expected return address 11 (call site + 1), got %v", f.returnAddr)
	}
	if vm.ip != 40 {
		t.Fatalf("expected instruction pointer at method start 40, got %d", vm.ip)
	}
}

func TestCopyValueProducesIndependentArrays(t *testing.T) {
	vm := newTestVM()
	inner := vm.alloc(IntegerValue(1))
	original := ArrayValue{Elements: []Pointer{inner}}

	copied := copyValue(original).(ArrayValue)
	copied.Elements[0] = vm.alloc(IntegerValue(99))

	if original.Elements[0] != inner {
		t.Fatalf("mutating the copy leaked into the original")
	}
}

func TestAllocationAssignsMonotonicStablePointers(t *testing.T) {
	vm := newTestVM()
	p1 := vm.alloc(IntegerValue(1))
	p2 := vm.alloc(IntegerValue(2))
	if p2 != p1+1 {
		t.Fatalf("expected monotonic pointers, got %d then %d", p1, p2)
	}
	v, err := vm.deref(p1)
	if err != nil {
		t.Fatalf("deref: %v", err)
	}
	if v != IntegerValue(1) {
		t.Fatalf("pointer %d no longer refers to its value: %#v", p1, v)
	}
}

func TestDerefDanglingPointerIsFatal(t *testing.T) {
	vm := newTestVM()
	if _, err := vm.deref(Pointer(123)); err == nil {
		t.Fatalf("expected a dangling-pointer error")
	}
}
