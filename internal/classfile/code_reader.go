package classfile

import (
	"gitlab.com/tozd/go/errors"
)

type codeDecoder struct {
	*decoder
	length int
	labels []*Label
	err    error
}

func (c *codeDecoder) label(offset int) *Label {
	if offset < 0 || offset > c.length {
		if c.err == nil {
			c.err = errors.Errorf("%w: offset %d outside code of length %d", ErrMalformed, offset, c.length)
		}

		return nil
	}

	if c.labels[offset] == nil {
		c.labels[offset] = &Label{}
	}

	return c.labels[offset]
}

type placed struct {
	offset int
	insn   Instruction
}

func (d *decoder) code(owner string, m *Method, data []byte) (*Code, error) {
	r := &byteReader{data: data}
	code := &Code{MaxStack: int(r.u2()), MaxLocals: int(r.u2())}
	bytecode := r.bytes(int(r.u4()))

	if r.err != nil {
		return nil, r.err
	}

	c := &codeDecoder{decoder: d, length: len(bytecode), labels: make([]*Label, len(bytecode)+1)}

	insns, err := c.instructions(bytecode)
	if err != nil {
		return nil, err
	}

	for range int(r.u2()) {
		tc := TryCatchBlock{
			Start:   c.label(int(r.u2())),
			End:     c.label(int(r.u2())),
			Handler: c.label(int(r.u2())),
			Type:    d.optClass(r.u2()),
		}
		code.TryCatch = append(code.TryCatch, tc)
	}

	for _, a := range readAttributes(r, d) {
		ar := &byteReader{data: a.data}

		switch a.name {
		case "LineNumberTable":
			for range int(ar.u2()) {
				start := c.label(int(ar.u2()))
				code.LineNumbers = append(code.LineNumbers, LineNumber{Start: start, Line: int(ar.u2())})
			}
		case "LocalVariableTable":
			code.LocalVars = append(code.LocalVars, c.localVars(ar)...)
		case "LocalVariableTypeTable":
			code.LocalVarTypes = append(code.LocalVarTypes, c.localVars(ar)...)
		case "StackMapTable":
			code.Frames = c.frames(ar, InitialFrame(owner, m))
		default:
			code.Attributes = append(code.Attributes, &Attribute{Name: a.name, Data: a.data, pool: d.pool})
			continue
		}

		if err := d.finish(ar); err != nil {
			return nil, errors.Errorf("attribute %s: %w", a.name, err)
		}
	}

	if err := d.finish(r); err != nil {
		return nil, err
	}

	if c.err != nil {
		return nil, c.err
	}

	// Interleave labels with the decoded instructions.
	out := make([]Instruction, 0, len(insns)+len(insns)/4)
	boundary := make([]bool, len(bytecode)+1)

	for _, p := range insns {
		boundary[p.offset] = true
		if l := c.labels[p.offset]; l != nil {
			out = append(out, l)
		}

		out = append(out, p.insn)
	}

	boundary[len(bytecode)] = true
	if l := c.labels[len(bytecode)]; l != nil {
		out = append(out, l)
	}

	for off, l := range c.labels {
		if l != nil && !boundary[off] {
			return nil, errors.Errorf("%w: offset %d is not an instruction boundary", ErrMalformed, off)
		}
	}

	code.Instructions = out

	return code, nil
}

func (c *codeDecoder) localVars(r *byteReader) []LocalVariable {
	var out []LocalVariable

	for range int(r.u2()) {
		start := int(r.u2())
		length := int(r.u2())
		lv := LocalVariable{
			Start: c.label(start),
			End:   c.label(start + length),
			Name:  c.utf8(r.u2()),
			Desc:  c.utf8(r.u2()),
			Index: int(r.u2()),
		}
		out = append(out, lv)
	}

	return out
}

func (c *codeDecoder) instructions(code []byte) ([]placed, error) {
	r := &byteReader{data: code}

	var out []placed

	for !r.eof() {
		start := r.pos
		op := int(r.u1())

		var insn Instruction

		switch formatOf(op) {
		case fmtNone:
			insn = &Insn{Op: op}
		case fmtInt:
			switch op {
			case BIPUSH:
				insn = &IntInsn{Op: op, Operand: r.s1()}
			case SIPUSH:
				insn = &IntInsn{Op: op, Operand: r.s2()}
			default:
				insn = &IntInsn{Op: op, Operand: int(r.u1())}
			}
		case fmtLdc:
			var idx uint16
			if op == LDC {
				idx = uint16(r.u1())
			} else {
				idx = r.u2()
			}

			insn = &LdcInsn{Value: c.constant(idx)}
		case fmtVar:
			insn = &VarInsn{Op: op, Var: int(r.u1())}
		case fmtVarCompact:
			if op < ISTORE_0 {
				insn = &VarInsn{Op: ILOAD + (op-ILOAD_0)/4, Var: (op - ILOAD_0) % 4}
			} else {
				insn = &VarInsn{Op: ISTORE + (op-ISTORE_0)/4, Var: (op - ISTORE_0) % 4}
			}
		case fmtIinc:
			insn = &IincInsn{Var: int(r.u1()), Incr: r.s1()}
		case fmtJump:
			insn = &JumpInsn{Op: op, Target: c.label(start + r.s2())}
		case fmtJumpWide:
			insn = &JumpInsn{Op: op, Target: c.label(start + r.s4())}
		case fmtTableSwitch:
			for r.pos%4 != 0 {
				r.u1()
			}

			ts := &TableSwitchInsn{Default: c.label(start + r.s4())}
			ts.Min, ts.Max = int32(r.s4()), int32(r.s4())

			if ts.Max < ts.Min || int(ts.Max)-int(ts.Min) >= len(code) {
				return nil, errors.Errorf("%w: invalid tableswitch range at %d", ErrMalformed, start)
			}

			for range int(ts.Max) - int(ts.Min) + 1 {
				ts.Labels = append(ts.Labels, c.label(start+r.s4()))
			}

			insn = ts
		case fmtLookupSwitch:
			for r.pos%4 != 0 {
				r.u1()
			}

			ls := &LookupSwitchInsn{Default: c.label(start + r.s4())}

			n := r.s4()
			if n < 0 || n > len(code) {
				return nil, errors.Errorf("%w: invalid lookupswitch size at %d", ErrMalformed, start)
			}

			for range n {
				ls.Keys = append(ls.Keys, int32(r.s4()))
				ls.Labels = append(ls.Labels, c.label(start+r.s4()))
			}

			insn = ls
		case fmtField:
			owner, name, desc, _ := c.member(r.u2(), tagFieldref)
			insn = &FieldInsn{Op: op, Owner: owner, Name: name, Desc: desc}
		case fmtMethod:
			owner, name, desc, itf := c.member(r.u2(), tagMethodref, tagInterfaceMethodref)
			if op == INVOKEINTERFACE {
				r.u1()
				r.u1()
			}

			insn = &MethodInsn{Op: op, Owner: owner, Name: name, Desc: desc, Interface: itf}
		case fmtInvokeDynamic:
			e := c.entry(r.u2(), tagInvokeDynamic)
			r.u2()

			bm := c.bootstrapMethod(e.a)
			name, desc := c.nameAndType(e.b)
			insn = &InvokeDynamicInsn{Name: name, Desc: desc, Bootstrap: bm.Handle, Args: bm.Args}
		case fmtType:
			insn = &TypeInsn{Op: op, Type: c.class(r.u2())}
		case fmtMultiANewArray:
			insn = &MultiANewArrayInsn{Desc: c.class(r.u2()), Dims: int(r.u1())}
		case fmtWide:
			wop := int(r.u1())

			switch {
			case wop == IINC:
				insn = &IincInsn{Var: int(r.u2()), Incr: r.s2()}
			case formatOf(wop) == fmtVar:
				insn = &VarInsn{Op: wop, Var: int(r.u2())}
			default:
				return nil, errors.Errorf("%w: invalid wide opcode %#x at %d", ErrMalformed, wop, start)
			}
		default:
			return nil, errors.Errorf("%w: invalid opcode %#x at %d", ErrMalformed, op, start)
		}

		if r.err != nil {
			return nil, r.err
		}

		if c.decoder.err != nil {
			return nil, c.decoder.err
		}

		out = append(out, placed{offset: start, insn: insn})
	}

	return out, nil
}

func (c *codeDecoder) frames(r *byteReader, initial []VerificationType) []Frame {
	var frames []Frame

	locals := initial
	offset := -1

	for i := range int(r.u2()) {
		ft := int(r.u1())

		var (
			delta int
			stack []VerificationType
		)

		switch {
		case ft < 64:
			delta = ft
		case ft < 128:
			delta = ft - 64
			stack = []VerificationType{c.verificationType(r)}
		case ft == 247:
			delta = int(r.u2())
			stack = []VerificationType{c.verificationType(r)}
		case ft >= 248 && ft <= 250:
			delta = int(r.u2())

			k := 251 - ft
			if k > len(locals) {
				c.fail(errors.Errorf("%w: chop frame removes %d of %d locals", ErrMalformed, k, len(locals)))
				return nil
			}

			locals = locals[:len(locals)-k]
		case ft == 251:
			delta = int(r.u2())
		case ft >= 252 && ft <= 254:
			delta = int(r.u2())

			next := append([]VerificationType(nil), locals...)
			for range ft - 251 {
				next = append(next, c.verificationType(r))
			}

			locals = next
		case ft == 255:
			delta = int(r.u2())

			next := make([]VerificationType, 0)
			for range int(r.u2()) {
				next = append(next, c.verificationType(r))
			}

			locals = next

			for range int(r.u2()) {
				stack = append(stack, c.verificationType(r))
			}
		default:
			c.fail(errors.Errorf("%w: reserved frame type %d", ErrMalformed, ft))
			return nil
		}

		if i == 0 {
			offset = delta
		} else {
			offset += delta + 1
		}

		frames = append(frames, Frame{
			At:     c.label(offset),
			Locals: expandLocals(locals),
			Stack:  stack,
		})

		if r.err != nil {
			return nil
		}
	}

	return frames
}

// expandLocals returns a private copy of locals.
func expandLocals(locals []VerificationType) []VerificationType {
	return append([]VerificationType(nil), locals...)
}

func (c *codeDecoder) verificationType(r *byteReader) VerificationType {
	vt := VerificationType{Tag: int(r.u1())}

	switch vt.Tag {
	case ItemObject:
		vt.Class = c.class(r.u2())
	case ItemUninitialized:
		vt.New = c.label(int(r.u2()))
	case ItemTop, ItemInteger, ItemFloat, ItemDouble, ItemLong, ItemNull, ItemUninitializedThis:
	default:
		c.fail(errors.Errorf("%w: invalid verification type %d", ErrMalformed, vt.Tag))
	}

	return vt
}

// InitialFrame returns the implicit locals of a method's first frame: the
// receiver (UninitializedThis in constructors) followed by the parameters.
func InitialFrame(owner string, m *Method) []VerificationType {
	var locals []VerificationType

	if !m.IsStatic() {
		if m.Name == Constructor && owner != ObjectClass {
			locals = append(locals, VerificationType{Tag: ItemUninitializedThis})
		} else {
			locals = append(locals, VerificationType{Tag: ItemObject, Class: owner})
		}
	}

	for _, t := range ArgumentTypes(m.Desc) {
		locals = append(locals, verificationTypeOf(t))
	}

	return locals
}

func verificationTypeOf(t Type) VerificationType {
	switch t.Sort() {
	case SortBoolean, SortByte, SortChar, SortShort, SortInt:
		return VerificationType{Tag: ItemInteger}
	case SortFloat:
		return VerificationType{Tag: ItemFloat}
	case SortLong:
		return VerificationType{Tag: ItemLong}
	case SortDouble:
		return VerificationType{Tag: ItemDouble}
	default:
		return VerificationType{Tag: ItemObject, Class: t.InternalName()}
	}
}
