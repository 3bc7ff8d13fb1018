package interpreter

import "github.com/kondziu/ppl/pkg/object"

// execArray implements the Array opcode: pop the initializer, pop the
// size, and allocate size independent copies of the initializer.
func (vm *VM) execArray() *RuntimeError {
	initPtr, err := vm.pop()
	if err != nil {
		return err
	}
	sizePtr, err := vm.pop()
	if err != nil {
		return err
	}
	sizeVal, derr := vm.deref(sizePtr)
	if derr != nil {
		return derr
	}
	size, ok := sizeVal.(IntegerValue)
	if !ok {
		return vm.fatalf("array size must be an Integer, got %T", sizeVal)
	}
	if size < 0 {
		return vm.fatalf("negative array size %d", size)
	}
	initVal, derr := vm.deref(initPtr)
	if derr != nil {
		return derr
	}
	elems := make([]Pointer, size)
	for i := range elems {
		elems[i] = vm.alloc(copyValue(initVal))
	}
	vm.push(vm.alloc(ArrayValue{Elements: elems}))
	return nil
}

// execObject implements the Object opcode: build a heap object from the
// Class at classIdx, popping one value per declared field slot (deepest
// stack value initializes the first declared slot) then the parent.
func (vm *VM) execObject(classIdx uint32) *RuntimeError {
	classObj, err := vm.prog.Constant(classIdx)
	if err != nil {
		return vm.fatalf("object: %v", err)
	}
	class, ok := classObj.(object.Class)
	if !ok {
		return vm.fatalf("object: constant %d is not a Class", classIdx)
	}

	var slotIdx []uint32
	var methodIdx []uint32
	for _, m := range class.Members {
		member, merr := vm.prog.Constant(m)
		if merr != nil {
			return vm.fatalf("object: resolving member %d: %v", m, merr)
		}
		switch member.(type) {
		case object.Slot:
			slotIdx = append(slotIdx, m)
		case object.Method:
			methodIdx = append(methodIdx, m)
		default:
			return vm.fatalf("object: class member %d is neither Slot nor Method", m)
		}
	}

	values, perr := vm.popN(len(slotIdx))
	if perr != nil {
		return perr
	}
	parent, perr := vm.pop()
	if perr != nil {
		return perr
	}

	fieldOrder := make([]string, 0, len(slotIdx))
	fields := make(map[string]Pointer, len(slotIdx))
	for i, idx := range slotIdx {
		slot, serr := vm.prog.Constant(idx)
		if serr != nil {
			return vm.fatalf("object: %v", serr)
		}
		name, nerr := vm.constantString(slot.(object.Slot).Name)
		if nerr != nil {
			return vm.fatalf("object: %v", nerr)
		}
		if _, exists := fields[name]; exists {
			return vm.fatalf("duplicate field %q in class", name)
		}
		fields[name] = values[i]
		fieldOrder = append(fieldOrder, name)
	}

	methods := make(map[string]object.Method, len(methodIdx))
	for _, idx := range methodIdx {
		m, merr := vm.prog.Constant(idx)
		if merr != nil {
			return vm.fatalf("object: %v", merr)
		}
		method := m.(object.Method)
		name, nerr := vm.constantString(method.Name)
		if nerr != nil {
			return vm.fatalf("object: %v", nerr)
		}
		if _, exists := methods[name]; exists {
			return vm.fatalf("duplicate method %q in class", name)
		}
		methods[name] = method
	}

	vm.push(vm.alloc(ObjectValue{Parent: parent, FieldOrder: fieldOrder, Fields: fields, Methods: methods}))
	return nil
}

func (vm *VM) execGetSlot(nameIdx uint32) *RuntimeError {
	name, err := vm.constantString(nameIdx)
	if err != nil {
		return err
	}
	recvPtr, err := vm.pop()
	if err != nil {
		return err
	}
	recv, derr := vm.deref(recvPtr)
	if derr != nil {
		return derr
	}
	obj, ok := recv.(ObjectValue)
	if !ok {
		return vm.fatalf("get %q: receiver is not a user object (%T)", name, recv)
	}
	val, ok := obj.Fields[name]
	if !ok {
		return vm.fatalf("unknown field %q", name)
	}
	vm.push(val)
	return nil
}

func (vm *VM) execSetSlot(nameIdx uint32) *RuntimeError {
	name, err := vm.constantString(nameIdx)
	if err != nil {
		return err
	}
	valPtr, err := vm.pop()
	if err != nil {
		return err
	}
	recvPtr, err := vm.pop()
	if err != nil {
		return err
	}
	recv, derr := vm.deref(recvPtr)
	if derr != nil {
		return derr
	}
	obj, ok := recv.(ObjectValue)
	if !ok {
		return vm.fatalf("set %q: receiver is not a user object (%T)", name, recv)
	}
	if _, ok := obj.Fields[name]; !ok {
		return vm.fatalf("unknown field %q", name)
	}
	obj.Fields[name] = valPtr
	if serr := vm.store(recvPtr, obj); serr != nil {
		return serr
	}
	vm.push(valPtr)
	return nil
}

// execCallFunction invokes a globally registered free function: arity must
// match argc exactly, arguments are popped preserving left-to-right order,
// and a new frame is pushed with the bumped instruction pointer as its
// return address.
func (vm *VM) execCallFunction(nameIdx uint32, argc uint8) *RuntimeError {
	name, err := vm.constantString(nameIdx)
	if err != nil {
		return err
	}
	method, ok := vm.funcs[name]
	if !ok {
		return vm.fatalf("call to unresolved function %q", name)
	}
	if method.Arity != argc {
		return vm.fatalf("function %q expects %d arguments, got %d", name, method.Arity, argc)
	}
	args, perr := vm.popN(int(argc))
	if perr != nil {
		return perr
	}
	vm.pushCallFrame(method, args, name, "")
	return nil
}

// execCallMethod dispatches a message send: pops argc-1 arguments then the
// receiver, and either invokes a built-in primitive (returning to the
// caller immediately) or finds a user method by walking the receiver's
// parent chain (pushing a new frame and jumping). Returns halted=true only
// in the pathological case where a
// primitive dispatch itself terminates the run — which never happens, but
// keeps the signature uniform with step's other control-flow cases.
func (vm *VM) execCallMethod(nameIdx uint32, argc uint8) (bool, *RuntimeError) {
	if argc == 0 {
		return false, vm.fatalf("CallMethod arity must be at least 1 (the receiver)")
	}
	selector, err := vm.constantString(nameIdx)
	if err != nil {
		return false, err
	}
	args, perr := vm.popN(int(argc) - 1)
	if perr != nil {
		return false, perr
	}
	receiver, perr := vm.pop()
	if perr != nil {
		return false, perr
	}

	result, method, merr := vm.lookup(receiver, selector, args)
	if merr != nil {
		return false, merr
	}
	if method != nil {
		if method.Arity != argc {
			return false, vm.fatalf("method %q expects %d arguments including the receiver, got %d", selector, method.Arity, argc)
		}
		vm.pushCallFrame(method.Method, append([]Pointer{receiver}, args...), method.nameForTrace, selector)
		return false, nil
	}
	vm.push(result)
	vm.ip++
	return false, nil
}

// resolvedMethod pairs an object.Method with the name used for stack
// traces, since object.Method itself only stores a constant-pool index.
type resolvedMethod struct {
	object.Method
	nameForTrace string
}

// lookup walks receiver's parent chain looking for selector in each
// object's method table. A hit returns the method to invoke (the caller
// dispatches it against the *original* receiver, not the object where the
// method was found — prototype-style `this` binding). A miss climbs to the
// parent; once the chain terminates in a primitive, selector is dispatched
// against that primitive's built-in table instead.
func (vm *VM) lookup(receiver Pointer, selector string, args []Pointer) (Pointer, *resolvedMethod, *RuntimeError) {
	cur := receiver
	for {
		val, err := vm.deref(cur)
		if err != nil {
			return 0, nil, err
		}
		obj, ok := val.(ObjectValue)
		if !ok {
			result, perr := vm.dispatchPrimitive(val, selector, args)
			return result, nil, perr
		}
		if m, ok := obj.Methods[selector]; ok {
			name, nerr := vm.constantString(m.Name)
			if nerr != nil {
				return 0, nil, nerr
			}
			return 0, &resolvedMethod{Method: m, nameForTrace: name}, nil
		}
		cur = obj.Parent
	}
}

// pushCallFrame builds the frame for a user method/function invocation:
// slots filled with args (receiver first for methods) then locals worth of
// fresh Nulls, bumps the instruction pointer past the call site, and jumps
// to the callee's start.
func (vm *VM) pushCallFrame(method object.Method, args []Pointer, name, selector string) {
	slots := make([]Pointer, int(method.Arity)+int(method.Locals))
	copy(slots, args)
	for i := len(args); i < len(slots); i++ {
		slots[i] = vm.allocNull()
	}
	ret := vm.ip + 1
	vm.frames = append(vm.frames, &frame{slots: slots, returnAddr: &ret, name: name, selector: selector})
	vm.ip = method.Start
}
