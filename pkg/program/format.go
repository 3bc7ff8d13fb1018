package program

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kondziu/ppl/pkg/bytecode"
	"github.com/kondziu/ppl/pkg/object"
)

// Encode serializes p into the wire format: u16 pool size, that many
// program objects, u16 global count, that many u32 pool indices, then a u32
// entry index. Every multi-byte field is little-endian.
func Encode(p *Program) ([]byte, error) {
	var buf bytes.Buffer

	if len(p.constants) > 0xFFFF {
		return nil, fmt.Errorf("program: constant pool too large to encode (%d entries)", len(p.constants))
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(p.constants))); err != nil {
		return nil, err
	}
	for i, c := range p.constants {
		if err := writeObject(&buf, c, p.code); err != nil {
			return nil, fmt.Errorf("program: encoding constant %d: %w", i, err)
		}
	}

	if len(p.globals) > 0xFFFF {
		return nil, fmt.Errorf("program: global list too large to encode (%d entries)", len(p.globals))
	}
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(p.globals))); err != nil {
		return nil, err
	}
	for _, g := range p.globals {
		if err := binary.Write(&buf, binary.LittleEndian, g); err != nil {
			return nil, err
		}
	}

	if err := binary.Write(&buf, binary.LittleEndian, p.entry); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode parses the wire format produced by Encode back into a Program. The
// code store and label index are rebuilt from each decoded Method's
// embedded instructions, laid out contiguously in constant-pool order.
func Decode(data []byte) (*Program, error) {
	r := bytes.NewReader(data)
	p := New()

	var poolSize uint16
	if err := binary.Read(r, binary.LittleEndian, &poolSize); err != nil {
		return nil, fmt.Errorf("program: reading pool size: %w", err)
	}

	p.constants = make([]object.Object, poolSize)
	for i := 0; i < int(poolSize); i++ {
		obj, code, err := readObject(r)
		if err != nil {
			return nil, fmt.Errorf("program: decoding constant %d: %w", i, err)
		}
		if m, ok := obj.(object.Method); ok {
			start := p.CodeLen()
			for _, instr := range code {
				p.Emit(instr)
			}
			m.Start = start
			m.End = p.CodeLen()
			obj = m
		}
		p.constants[i] = obj
	}

	var globalCount uint16
	if err := binary.Read(r, binary.LittleEndian, &globalCount); err != nil {
		return nil, fmt.Errorf("program: reading global count: %w", err)
	}
	p.globals = make([]uint32, globalCount)
	for i := range p.globals {
		if err := binary.Read(r, binary.LittleEndian, &p.globals[i]); err != nil {
			return nil, fmt.Errorf("program: reading global %d: %w", i, err)
		}
	}

	if err := binary.Read(r, binary.LittleEndian, &p.entry); err != nil {
		return nil, fmt.Errorf("program: reading entry index: %w", err)
	}

	if err := rebuildLabels(p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// rebuildLabels walks the decoded code store and re-populates the label
// index, since Label opcodes carry only a name index — the address has to
// be recovered from position.
func rebuildLabels(p *Program) error {
	for addr, instr := range p.code {
		if instr.Op != bytecode.Label {
			continue
		}
		name, err := p.Constant(instr.A)
		if err != nil {
			return fmt.Errorf("program: label at address %d: %w", addr, err)
		}
		s, ok := name.(object.String)
		if !ok {
			return fmt.Errorf("program: label at address %d names a non-String constant", addr)
		}
		if err := p.BindLabel(string(s), uint32(addr)); err != nil {
			return err
		}
	}
	return nil
}

func writeObject(w io.Writer, obj object.Object, code []bytecode.Instruction) error {
	if err := binary.Write(w, binary.LittleEndian, byte(obj.Tag())); err != nil {
		return err
	}
	switch o := obj.(type) {
	case object.Integer:
		return binary.Write(w, binary.LittleEndian, int32(o))
	case object.Null:
		return nil
	case object.String:
		return writeString(w, string(o))
	case object.Slot:
		return binary.Write(w, binary.LittleEndian, o.Name)
	case object.Method:
		if err := binary.Write(w, binary.LittleEndian, o.Name); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, o.Arity); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, o.Locals); err != nil {
			return err
		}
		codeLen := o.End - o.Start
		if err := binary.Write(w, binary.LittleEndian, codeLen); err != nil {
			return err
		}
		for _, instr := range o.Code(code) {
			if err := writeInstruction(w, instr); err != nil {
				return err
			}
		}
		return nil
	case object.Class:
		if len(o.Members) > 0xFFFF {
			return fmt.Errorf("program: class has too many members (%d)", len(o.Members))
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(o.Members))); err != nil {
			return err
		}
		for _, m := range o.Members {
			if err := binary.Write(w, binary.LittleEndian, m); err != nil {
				return err
			}
		}
		return nil
	case object.Boolean:
		var b uint8
		if o {
			b = 1
		}
		return binary.Write(w, binary.LittleEndian, b)
	default:
		return fmt.Errorf("program: unknown constant type %T", obj)
	}
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readObject(r *bytes.Reader) (object.Object, []bytecode.Instruction, error) {
	var tag byte
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return nil, nil, err
	}
	switch object.Tag(tag) {
	case object.TagInteger:
		var v int32
		if err := binary.Read(r, binary.LittleEndian, &v); err != nil {
			return nil, nil, err
		}
		return object.Integer(v), nil, nil
	case object.TagNull:
		return object.Null{}, nil, nil
	case object.TagString:
		s, err := readString(r)
		if err != nil {
			return nil, nil, err
		}
		return object.String(s), nil, nil
	case object.TagSlot:
		var name uint32
		if err := binary.Read(r, binary.LittleEndian, &name); err != nil {
			return nil, nil, err
		}
		return object.Slot{Name: name}, nil, nil
	case object.TagMethod:
		var name uint32
		var arity uint8
		var locals uint32
		var codeLen uint32
		if err := binary.Read(r, binary.LittleEndian, &name); err != nil {
			return nil, nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &arity); err != nil {
			return nil, nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &locals); err != nil {
			return nil, nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &codeLen); err != nil {
			return nil, nil, err
		}
		code := make([]bytecode.Instruction, codeLen)
		for i := range code {
			instr, err := readInstruction(r)
			if err != nil {
				return nil, nil, fmt.Errorf("reading opcode %d: %w", i, err)
			}
			code[i] = instr
		}
		return object.Method{Name: name, Arity: arity, Locals: locals}, code, nil
	case object.TagClass:
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return nil, nil, err
		}
		members := make([]uint32, n)
		for i := range members {
			if err := binary.Read(r, binary.LittleEndian, &members[i]); err != nil {
				return nil, nil, err
			}
		}
		return object.Class{Members: members}, nil, nil
	case object.TagBoolean:
		var b uint8
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return nil, nil, err
		}
		return object.Boolean(b != 0), nil, nil
	default:
		return nil, nil, fmt.Errorf("program: unknown constant tag 0x%02X", tag)
	}
}

func readString(r *bytes.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

func writeInstruction(w io.Writer, instr bytecode.Instruction) error {
	if err := binary.Write(w, binary.LittleEndian, byte(instr.Op)); err != nil {
		return err
	}
	switch instr.Op {
	case bytecode.Return, bytecode.Drop:
		return nil
	case bytecode.Print, bytecode.CallMethod, bytecode.CallFunction:
		if err := binary.Write(w, binary.LittleEndian, instr.A); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, instr.B)
	default:
		return binary.Write(w, binary.LittleEndian, instr.A)
	}
}

func readInstruction(r *bytes.Reader) (bytecode.Instruction, error) {
	var op byte
	if err := binary.Read(r, binary.LittleEndian, &op); err != nil {
		return bytecode.Instruction{}, err
	}
	instr := bytecode.Instruction{Op: bytecode.Opcode(op)}
	switch instr.Op {
	case bytecode.Return, bytecode.Drop:
		return instr, nil
	case bytecode.Print, bytecode.CallMethod, bytecode.CallFunction:
		if err := binary.Read(r, binary.LittleEndian, &instr.A); err != nil {
			return bytecode.Instruction{}, err
		}
		if err := binary.Read(r, binary.LittleEndian, &instr.B); err != nil {
			return bytecode.Instruction{}, err
		}
		return instr, nil
	default:
		if err := binary.Read(r, binary.LittleEndian, &instr.A); err != nil {
			return bytecode.Instruction{}, err
		}
		return instr, nil
	}
}
