package interpreter

import (
	"fmt"
	"strings"
)

// StackFrame captures one entry in the call stack at the moment a
// RuntimeError is raised — enough to name where, in which call, and at
// which instruction execution was when it went wrong.
type StackFrame struct {
	Name     string // method/function name, or "entry" for the top level
	Selector string // the selector that reached this frame, if any
	IP       uint32 // instruction pointer within this frame at the time of error
}

// RuntimeError is every fatal condition the interpreter can raise: all
// errors are fatal to the current run — there is no user-visible recovery —
// so this is the only error type the step function ever returns.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nStack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			frame := e.StackTrace[i]
			b.WriteString(fmt.Sprintf("\n  at %s", frame.Name))
			if frame.Selector != "" {
				b.WriteString(fmt.Sprintf(" (selector: %s)", frame.Selector))
			}
			b.WriteString(fmt.Sprintf(" [ip %d]", frame.IP))
		}
	}
	return b.String()
}

func newRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}

func (vm *VM) fatalf(format string, args ...interface{}) *RuntimeError {
	return newRuntimeError(fmt.Sprintf(format, args...), vm.captureStack())
}

func (vm *VM) captureStack() []StackFrame {
	trace := make([]StackFrame, len(vm.frames))
	for i, f := range vm.frames {
		ip := vm.ip
		// An outer frame is paused at its call site: one before the return
		// address stored in the frame it called.
		if i+1 < len(vm.frames) && vm.frames[i+1].returnAddr != nil {
			ip = *vm.frames[i+1].returnAddr - 1
		}
		trace[i] = StackFrame{Name: f.name, Selector: f.selector, IP: ip}
	}
	return trace
}
