package interpreter

import (
	"fmt"
	"strconv"
	"strings"
)

// stringify renders a heap value in print format: null; a decimal integer;
// true/false; [e1, e2, …] for arrays; object(..=parent, name=value, …) for
// user objects.
func (vm *VM) stringify(p Pointer) (string, *RuntimeError) {
	v, err := vm.deref(p)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case NullValue:
		return "null", nil
	case IntegerValue:
		return strconv.Itoa(int(t)), nil
	case BooleanValue:
		if t {
			return "true", nil
		}
		return "false", nil
	case ArrayValue:
		parts := make([]string, len(t.Elements))
		for i, e := range t.Elements {
			s, serr := vm.stringify(e)
			if serr != nil {
				return "", serr
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case ObjectValue:
		parentStr, perr := vm.stringify(t.Parent)
		if perr != nil {
			return "", perr
		}
		var b strings.Builder
		b.WriteString("object(..=")
		b.WriteString(parentStr)
		for _, name := range t.FieldOrder {
			fieldStr, ferr := vm.stringify(t.Fields[name])
			if ferr != nil {
				return "", ferr
			}
			b.WriteString(", ")
			b.WriteString(name)
			b.WriteString("=")
			b.WriteString(fieldStr)
		}
		b.WriteString(")")
		return b.String(), nil
	default:
		return "", vm.fatalf("cannot stringify value of type %T", v)
	}
}

// execPrint pops argc arguments (restoring left-to-right order), then
// interprets the format string at formatIdx: each unescaped ~ consumes the
// next argument's stringification, \\, \n, and \t are recognized escapes,
// and any other escape — or an argument-count mismatch — is fatal.
func (vm *VM) execPrint(formatIdx uint32, argc uint8) *RuntimeError {
	formatStr, serr := vm.constantString(formatIdx)
	if serr != nil {
		return serr
	}

	args, perr := vm.popN(int(argc))
	if perr != nil {
		return perr
	}

	var out strings.Builder
	next := 0
	runes := []rune(formatStr)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch ch {
		case '\\':
			i++
			if i >= len(runes) {
				return vm.fatalf("print: trailing escape character in format string")
			}
			switch runes[i] {
			case '\\':
				out.WriteByte('\\')
			case 'n':
				out.WriteByte('\n')
			case 't':
				out.WriteByte('\t')
			default:
				return vm.fatalf("print: unknown escape %q in format string", "\\"+string(runes[i]))
			}
		case '~':
			if next >= len(args) {
				return vm.fatalf("print: format string has more ~ placeholders than the %d supplied arguments", argc)
			}
			s, serr := vm.stringify(args[next])
			if serr != nil {
				return serr
			}
			out.WriteString(s)
			next++
		default:
			out.WriteRune(ch)
		}
	}
	if next != len(args) {
		return vm.fatalf("print: %d arguments supplied but format string has %d ~ placeholders", len(args), next)
	}

	if _, werr := fmt.Fprint(vm.out, out.String()); werr != nil {
		return vm.fatalf("print: writing output: %v", werr)
	}

	vm.push(vm.allocNull())
	return nil
}
