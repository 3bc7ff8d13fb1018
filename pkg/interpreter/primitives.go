package interpreter

// dispatchPrimitive implements the built-in method tables: arithmetic,
// comparison, and equality selectors on Null/Integer/Boolean, plus get/set
// on Array. It is reached once the parent-chain walk in lookup terminates
// in a value that isn't a user Object.
func (vm *VM) dispatchPrimitive(receiver Value, selector string, args []Pointer) (Pointer, *RuntimeError) {
	switch r := receiver.(type) {
	case NullValue:
		return vm.dispatchNull(selector, args)
	case IntegerValue:
		return vm.dispatchInteger(r, selector, args)
	case BooleanValue:
		return vm.dispatchBoolean(r, selector, args)
	case ArrayValue:
		return vm.dispatchArray(r, selector, args)
	default:
		return 0, vm.fatalf("no method %q on %T", selector, receiver)
	}
}

func (vm *VM) dispatchNull(selector string, args []Pointer) (Pointer, *RuntimeError) {
	switch selector {
	case "==", "eq":
		return vm.boolResult(len(args) == 1 && vm.isNull(args[0])), nil
	case "!=", "neq":
		return vm.boolResult(!(len(args) == 1 && vm.isNull(args[0]))), nil
	default:
		return 0, vm.fatalf("no method %q on Null", selector)
	}
}

func (vm *VM) isNull(p Pointer) bool {
	v, err := vm.deref(p)
	if err != nil {
		return false
	}
	_, ok := v.(NullValue)
	return ok
}

func (vm *VM) dispatchInteger(recv IntegerValue, selector string, args []Pointer) (Pointer, *RuntimeError) {
	switch selector {
	case "==", "eq", "!=", "neq":
		equal := false
		if len(args) == 1 {
			if other, ok := vm.asInteger(args[0]); ok {
				equal = recv == other
			}
		}
		if selector == "!=" || selector == "neq" {
			equal = !equal
		}
		return vm.boolResult(equal), nil
	}

	if len(args) != 1 {
		return 0, vm.fatalf("method %q on Integer expects 1 argument, got %d", selector, len(args))
	}
	other, ok := vm.asInteger(args[0])
	if !ok {
		return 0, vm.fatalf("method %q on Integer requires an Integer argument", selector)
	}

	switch selector {
	case "+", "add":
		return vm.alloc(recv + other), nil
	case "-", "sub":
		return vm.alloc(recv - other), nil
	case "*", "mul":
		return vm.alloc(recv * other), nil
	case "/", "div":
		if other == 0 {
			return 0, vm.fatalf("division by zero")
		}
		return vm.alloc(recv / other), nil
	case "%", "mod":
		if other == 0 {
			return 0, vm.fatalf("division by zero")
		}
		return vm.alloc(recv % other), nil
	case "<", "lt":
		return vm.boolResult(recv < other), nil
	case "<=", "le":
		return vm.boolResult(recv <= other), nil
	case ">", "gt":
		return vm.boolResult(recv > other), nil
	case ">=", "ge":
		return vm.boolResult(recv >= other), nil
	default:
		return 0, vm.fatalf("no method %q on Integer", selector)
	}
}

func (vm *VM) asInteger(p Pointer) (IntegerValue, bool) {
	v, err := vm.deref(p)
	if err != nil {
		return 0, false
	}
	i, ok := v.(IntegerValue)
	return i, ok
}

func (vm *VM) dispatchBoolean(recv BooleanValue, selector string, args []Pointer) (Pointer, *RuntimeError) {
	switch selector {
	case "==", "eq", "!=", "neq":
		equal := false
		if len(args) == 1 {
			if other, ok := vm.asBoolean(args[0]); ok {
				equal = recv == other
			}
		}
		if selector == "!=" || selector == "neq" {
			equal = !equal
		}
		return vm.boolResult(equal), nil
	}

	if len(args) != 1 {
		return 0, vm.fatalf("method %q on Boolean expects 1 argument, got %d", selector, len(args))
	}
	other, ok := vm.asBoolean(args[0])
	if !ok {
		return 0, vm.fatalf("method %q on Boolean requires a Boolean argument", selector)
	}

	switch selector {
	case "&", "and":
		return vm.boolResult(bool(recv) && bool(other)), nil
	case "|", "or":
		return vm.boolResult(bool(recv) || bool(other)), nil
	default:
		return 0, vm.fatalf("no method %q on Boolean", selector)
	}
}

func (vm *VM) asBoolean(p Pointer) (BooleanValue, bool) {
	v, err := vm.deref(p)
	if err != nil {
		return false, false
	}
	b, ok := v.(BooleanValue)
	return b, ok
}

func (vm *VM) dispatchArray(recv ArrayValue, selector string, args []Pointer) (Pointer, *RuntimeError) {
	switch selector {
	case "get":
		if len(args) != 1 {
			return 0, vm.fatalf("get expects 1 argument, got %d", len(args))
		}
		i, ok := vm.asInteger(args[0])
		if !ok {
			return 0, vm.fatalf("get: index must be an Integer")
		}
		if i < 0 || int(i) >= len(recv.Elements) {
			return 0, vm.fatalf("array index %d out of bounds (length %d)", i, len(recv.Elements))
		}
		return recv.Elements[i], nil
	case "set":
		if len(args) != 2 {
			return 0, vm.fatalf("set expects 2 arguments, got %d", len(args))
		}
		i, ok := vm.asInteger(args[0])
		if !ok {
			return 0, vm.fatalf("set: index must be an Integer")
		}
		if i < 0 || int(i) >= len(recv.Elements) {
			return 0, vm.fatalf("array index %d out of bounds (length %d)", i, len(recv.Elements))
		}
		recv.Elements[i] = args[1]
		return vm.allocNull(), nil
	default:
		return 0, vm.fatalf("no method %q on Array", selector)
	}
}

func (vm *VM) boolResult(b bool) Pointer { return vm.alloc(BooleanValue(b)) }
