package classfile

import (
	"math"
	"slices"

	"gitlab.com/tozd/go/errors"
)

type classWriter struct {
	cf   *ClassFile
	pool *poolBuilder
}

// Write encodes cf. The constant pool and bootstrap table of the class cf
// was parsed from are copied first, so raw attributes that refer to them stay
// valid; raw attributes that belong to another pool are dropped.
func Write(cf *ClassFile) ([]byte, error) {
	w := &classWriter{cf: cf, pool: newPoolBuilder()}

	if cf.pool != nil {
		if err := w.pool.seed(cf.pool, cf.bootstrap); err != nil {
			return nil, err
		}
	}

	body, err := w.body()
	if err != nil {
		return nil, errors.Errorf("class %s: %w", cf.Name, err)
	}

	out := &byteWriter{}
	out.u4(magic)
	out.u2(int(cf.Minor))
	out.u2(int(cf.Major))
	out.u2(w.pool.count)
	out.write(w.pool.data)
	out.write(body)

	return out.buf, nil
}

func (w *classWriter) body() ([]byte, error) {
	cf := w.cf
	out := &byteWriter{}

	this, err := w.pool.class(cf.Name)
	if err != nil {
		return nil, err
	}

	var super uint16
	if cf.SuperName != "" {
		if super, err = w.pool.class(cf.SuperName); err != nil {
			return nil, err
		}
	}

	out.u2(int(cf.Access))
	out.u2(int(this))
	out.u2(int(super))

	if err := w.classes(out, cf.Interfaces); err != nil {
		return nil, err
	}

	out.u2(len(cf.Fields))

	for _, f := range cf.Fields {
		if err := w.field(out, f); err != nil {
			return nil, errors.Errorf("field %s: %w", f.Name, err)
		}
	}

	out.u2(len(cf.Methods))

	for _, m := range cf.Methods {
		if err := w.method(out, m); err != nil {
			return nil, errors.Errorf("method %s%s: %w", m.Name, m.Desc, err)
		}
	}

	attrs := &attrList{w: w}
	attrs.utf8("Signature", cf.Signature)
	attrs.utf8("SourceFile", cf.SourceFile)

	if len(cf.InnerClasses) > 0 {
		attrs.add("InnerClasses", func(b *byteWriter) error {
			b.u2(len(cf.InnerClasses))

			for _, ic := range cf.InnerClasses {
				idx, err := w.pool.class(ic.Name)
				if err != nil {
					return err
				}

				b.u2(int(idx))

				var outer, inner uint16
				if ic.OuterName != "" {
					if outer, err = w.pool.class(ic.OuterName); err != nil {
						return err
					}
				}

				if ic.InnerName != "" {
					if inner, err = w.pool.utf8(ic.InnerName); err != nil {
						return err
					}
				}

				b.u2(int(outer))
				b.u2(int(inner))
				b.u2(int(ic.Access))
			}

			return nil
		})
	}

	if em := cf.EnclosingMethod; em != nil {
		attrs.add("EnclosingMethod", func(b *byteWriter) error {
			owner, err := w.pool.class(em.Owner)
			if err != nil {
				return err
			}

			var nat uint16
			if em.Name != "" {
				if nat, err = w.pool.nameAndType(em.Name, em.Desc); err != nil {
					return err
				}
			}

			b.u2(int(owner))
			b.u2(int(nat))

			return nil
		})
	}

	if cf.NestHost != "" {
		attrs.add("NestHost", func(b *byteWriter) error {
			idx, err := w.pool.class(cf.NestHost)
			b.u2(int(idx))

			return err
		})
	}

	attrs.classList("NestMembers", cf.NestMembers)
	attrs.classList("PermittedSubclasses", cf.PermittedSubclasses)
	attrs.annotations("RuntimeVisibleAnnotations", cf.VisibleAnnotations)
	attrs.annotations("RuntimeInvisibleAnnotations", cf.InvisibleAnnotations)
	attrs.raw(cf.Attributes)

	if attrs.err != nil {
		return nil, attrs.err
	}

	// Every bootstrap method is known once fields and methods are encoded.
	if len(w.pool.bootstrap) > 0 {
		attrs.add("BootstrapMethods", func(b *byteWriter) error {
			b.u2(len(w.pool.bootstrap))
			for _, bm := range w.pool.bootstrap {
				b.write(bm)
			}

			return nil
		})
	}

	if err := attrs.writeTo(out); err != nil {
		return nil, err
	}

	return out.buf, nil
}

func (w *classWriter) classes(out *byteWriter, names []string) error {
	out.u2(len(names))

	for _, n := range names {
		idx, err := w.pool.class(n)
		if err != nil {
			return err
		}

		out.u2(int(idx))
	}

	return nil
}

func (w *classWriter) field(out *byteWriter, f *Field) error {
	name, err := w.pool.utf8(f.Name)
	if err != nil {
		return err
	}

	desc, err := w.pool.utf8(f.Desc)
	if err != nil {
		return err
	}

	out.u2(int(f.Access))
	out.u2(int(name))
	out.u2(int(desc))

	attrs := &attrList{w: w}

	if f.Value != nil {
		attrs.add("ConstantValue", func(b *byteWriter) error {
			idx, _, err := w.pool.constant(f.Value)
			b.u2(int(idx))

			return err
		})
	}

	attrs.utf8("Signature", f.Signature)
	attrs.annotations("RuntimeVisibleAnnotations", f.VisibleAnnotations)
	attrs.annotations("RuntimeInvisibleAnnotations", f.InvisibleAnnotations)
	attrs.raw(f.Attributes)

	return attrs.writeTo(out)
}

func (w *classWriter) method(out *byteWriter, m *Method) error {
	name, err := w.pool.utf8(m.Name)
	if err != nil {
		return err
	}

	desc, err := w.pool.utf8(m.Desc)
	if err != nil {
		return err
	}

	out.u2(int(m.Access))
	out.u2(int(name))
	out.u2(int(desc))

	attrs := &attrList{w: w}

	if m.Code != nil {
		attrs.add("Code", func(b *byteWriter) error {
			return w.code(b, m.Code)
		})
	}

	if len(m.Exceptions) > 0 {
		attrs.add("Exceptions", func(b *byteWriter) error {
			return w.classes(b, m.Exceptions)
		})
	}

	attrs.utf8("Signature", m.Signature)
	attrs.annotations("RuntimeVisibleAnnotations", m.VisibleAnnotations)
	attrs.annotations("RuntimeInvisibleAnnotations", m.InvisibleAnnotations)
	attrs.raw(m.Attributes)

	return attrs.writeTo(out)
}

// attrList collects encoded attributes and the first error.
type attrList struct {
	w     *classWriter
	count int
	buf   byteWriter
	err   error
}

func (a *attrList) add(name string, encode func(b *byteWriter) error) {
	if a.err != nil {
		return
	}

	idx, err := a.w.pool.utf8(name)
	if err != nil {
		a.err = err
		return
	}

	var body byteWriter
	if err := encode(&body); err != nil {
		a.err = errors.Errorf("attribute %s: %w", name, err)
		return
	}

	if len(body.buf) > math.MaxInt32 {
		a.err = errors.Errorf("%w: attribute %s too large", ErrMalformed, name)
		return
	}

	a.buf.u2(int(idx))
	a.buf.u4(len(body.buf))
	a.buf.write(body.buf)
	a.count++
}

func (a *attrList) utf8(name, value string) {
	if value == "" {
		return
	}

	a.add(name, func(b *byteWriter) error {
		idx, err := a.w.pool.utf8(value)
		b.u2(int(idx))

		return err
	})
}

func (a *attrList) classList(name string, classes []string) {
	if len(classes) == 0 {
		return
	}

	a.add(name, func(b *byteWriter) error {
		return a.w.classes(b, classes)
	})
}

func (a *attrList) annotations(name string, list []*Annotation) {
	if len(list) == 0 {
		return
	}

	a.add(name, func(b *byteWriter) error {
		b.u2(len(list))

		for _, an := range list {
			if err := a.w.annotation(b, an); err != nil {
				return err
			}
		}

		return nil
	})
}

// raw keeps attributes whose pool is the one being written. Attributes
// without data do not reference the pool.
func (a *attrList) raw(attrs []*Attribute) {
	for _, at := range attrs {
		if len(at.Data) > 0 && (at.pool == nil || at.pool != a.w.cf.pool) {
			continue
		}

		data := at.Data
		a.add(at.Name, func(b *byteWriter) error {
			b.write(data)
			return nil
		})
	}
}

func (a *attrList) writeTo(out *byteWriter) error {
	if a.err != nil {
		return a.err
	}

	out.u2(a.count)
	out.write(a.buf.buf)

	return nil
}

func (w *classWriter) annotation(b *byteWriter, an *Annotation) error {
	desc, err := w.pool.utf8(an.Desc)
	if err != nil {
		return err
	}

	b.u2(int(desc))
	b.u2(len(an.Values))

	for _, p := range an.Values {
		name, err := w.pool.utf8(p.Name)
		if err != nil {
			return err
		}

		b.u2(int(name))

		if err := w.elementValue(b, p.Value); err != nil {
			return err
		}
	}

	return nil
}

func (w *classWriter) elementValue(b *byteWriter, ev ElementValue) error {
	b.u1(int(ev.Tag))

	var (
		idx uint16
		err error
	)

	switch ev.Tag {
	case 'B', 'C', 'I', 'S', 'Z', 'D', 'F', 'J':
		idx, _, err = w.pool.constant(ev.Const)
	case 's', 'c':
		s, ok := ev.Const.(string)
		if !ok {
			return errors.Errorf("%w: element value %q needs a string, got %T", ErrMalformed, ev.Tag, ev.Const)
		}

		idx, err = w.pool.utf8(s)
	case 'e':
		if idx, err = w.pool.utf8(ev.EnumDesc); err != nil {
			return err
		}

		b.u2(int(idx))
		idx, err = w.pool.utf8(ev.EnumName)
	case '@':
		if ev.Annotation == nil {
			return errors.Errorf("%w: nested annotation missing", ErrMalformed)
		}

		return w.annotation(b, ev.Annotation)
	case '[':
		b.u2(len(ev.Array))

		for _, v := range ev.Array {
			if err := w.elementValue(b, v); err != nil {
				return err
			}
		}

		return nil
	default:
		return errors.Errorf("%w: invalid element value tag %q", ErrMalformed, ev.Tag)
	}

	if err != nil {
		return err
	}

	b.u2(int(idx))

	return nil
}

// code lays out instructions in two passes: the first assigns offsets and
// interns constants, the second emits bytes.
func (w *classWriter) code(b *byteWriter, c *Code) error {
	offsets := make(map[*Label]int)
	sizes := make([]int, len(c.Instructions))
	ldc := make(map[int]uint16)

	pos := 0
	for i, insn := range c.Instructions {
		if l, ok := insn.(*Label); ok {
			offsets[l] = pos
			continue
		}

		size, err := w.insnSize(insn, pos, i, ldc)
		if err != nil {
			return err
		}

		sizes[i] = size
		pos += size
	}

	if pos == 0 || pos > math.MaxUint16 {
		return errors.Errorf("%w: invalid code length %d", ErrMalformed, pos)
	}

	at := func(l *Label) (int, error) {
		off, ok := offsets[l]
		if !ok {
			return 0, errors.Errorf("%w: label not in instruction list", ErrMalformed)
		}

		return off, nil
	}

	b.u2(c.MaxStack)
	b.u2(c.MaxLocals)
	b.u4(pos)

	start := b.len()
	pos = 0

	for i, insn := range c.Instructions {
		if _, ok := insn.(*Label); ok {
			continue
		}

		if err := w.emit(b, insn, pos, ldc[i], at); err != nil {
			return err
		}

		pos += sizes[i]

		if b.len()-start != pos {
			return errors.Errorf("%w: opcode %#x encoded with wrong size", ErrMalformed, insn.Opcode())
		}
	}

	b.u2(len(c.TryCatch))

	for _, tc := range c.TryCatch {
		for _, l := range []*Label{tc.Start, tc.End, tc.Handler} {
			off, err := at(l)
			if err != nil {
				return err
			}

			b.u2(off)
		}

		var typ uint16
		if tc.Type != "" {
			var err error
			if typ, err = w.pool.class(tc.Type); err != nil {
				return err
			}
		}

		b.u2(int(typ))
	}

	attrs := &attrList{w: w}

	if len(c.LineNumbers) > 0 {
		attrs.add("LineNumberTable", func(ab *byteWriter) error {
			ab.u2(len(c.LineNumbers))

			for _, ln := range c.LineNumbers {
				off, err := at(ln.Start)
				if err != nil {
					return err
				}

				ab.u2(off)
				ab.u2(ln.Line)
			}

			return nil
		})
	}

	w.localVars(attrs, "LocalVariableTable", c.LocalVars, at)
	w.localVars(attrs, "LocalVariableTypeTable", c.LocalVarTypes, at)

	if len(c.Frames) > 0 {
		attrs.add("StackMapTable", func(ab *byteWriter) error {
			return w.frames(ab, c.Frames, at)
		})
	}

	attrs.raw(c.Attributes)

	return attrs.writeTo(b)
}

func (w *classWriter) localVars(attrs *attrList, name string, vars []LocalVariable, at func(*Label) (int, error)) {
	if len(vars) == 0 {
		return
	}

	attrs.add(name, func(b *byteWriter) error {
		b.u2(len(vars))

		for _, lv := range vars {
			start, err := at(lv.Start)
			if err != nil {
				return err
			}

			end, err := at(lv.End)
			if err != nil {
				return err
			}

			n, err := w.pool.utf8(lv.Name)
			if err != nil {
				return err
			}

			d, err := w.pool.utf8(lv.Desc)
			if err != nil {
				return err
			}

			b.u2(start)
			b.u2(end - start)
			b.u2(int(n))
			b.u2(int(d))
			b.u2(lv.Index)
		}

		return nil
	})
}

func (w *classWriter) frames(b *byteWriter, frames []Frame, at func(*Label) (int, error)) error {
	type placedFrame struct {
		offset int
		frame  Frame
	}

	placedFrames := make([]placedFrame, 0, len(frames))

	for _, f := range frames {
		off, err := at(f.At)
		if err != nil {
			return err
		}

		placedFrames = append(placedFrames, placedFrame{offset: off, frame: f})
	}

	slices.SortStableFunc(placedFrames, func(a, b placedFrame) int { return a.offset - b.offset })
	placedFrames = slices.CompactFunc(placedFrames, func(a, b placedFrame) bool { return a.offset == b.offset })

	b.u2(len(placedFrames))

	prev := -1
	for _, pf := range placedFrames {
		b.u1(255)
		b.u2(pf.offset - prev - 1)
		prev = pf.offset

		for _, list := range [][]VerificationType{pf.frame.Locals, pf.frame.Stack} {
			b.u2(len(list))

			for _, vt := range list {
				b.u1(vt.Tag)

				switch vt.Tag {
				case ItemObject:
					idx, err := w.pool.class(vt.Class)
					if err != nil {
						return err
					}

					b.u2(int(idx))
				case ItemUninitialized:
					off, err := at(vt.New)
					if err != nil {
						return err
					}

					b.u2(off)
				}
			}
		}
	}

	return nil
}

func switchPadding(pos int) int {
	return (4 - (pos+1)%4) % 4
}

func (w *classWriter) insnSize(insn Instruction, pos, i int, ldc map[int]uint16) (int, error) {
	switch in := insn.(type) {
	case *Insn:
		if formatOf(in.Op) != fmtNone {
			return 0, errors.Errorf("%w: opcode %#x needs operands", ErrMalformed, in.Op)
		}

		return 1, nil
	case *IntInsn:
		if in.Op == SIPUSH {
			return 3, nil
		}

		return 2, nil
	case *VarInsn:
		switch {
		case in.Var < 4 && in.Op != RET:
			return 1, nil
		case in.Var <= math.MaxUint8:
			return 2, nil
		default:
			return 4, nil
		}
	case *IincInsn:
		if in.Var <= math.MaxUint8 && in.Incr >= math.MinInt8 && in.Incr <= math.MaxInt8 {
			return 3, nil
		}

		return 6, nil
	case *TypeInsn, *FieldInsn:
		return 3, nil
	case *MethodInsn:
		if in.Op == INVOKEINTERFACE {
			return 5, nil
		}

		return 3, nil
	case *InvokeDynamicInsn:
		return 5, nil
	case *JumpInsn:
		if in.Op == GOTO_W || in.Op == JSR_W {
			return 5, nil
		}

		return 3, nil
	case *LdcInsn:
		idx, wide, err := w.pool.constant(in.Value)
		if err != nil {
			return 0, err
		}

		ldc[i] = idx

		if wide || idx > math.MaxUint8 {
			return 3, nil
		}

		return 2, nil
	case *TableSwitchInsn:
		if int(in.Max)-int(in.Min)+1 != len(in.Labels) {
			return 0, errors.Errorf("%w: tableswitch %d..%d has %d labels", ErrMalformed, in.Min, in.Max, len(in.Labels))
		}

		return 1 + switchPadding(pos) + 12 + 4*len(in.Labels), nil
	case *LookupSwitchInsn:
		if len(in.Keys) != len(in.Labels) {
			return 0, errors.Errorf("%w: lookupswitch has %d keys and %d labels", ErrMalformed, len(in.Keys), len(in.Labels))
		}

		return 1 + switchPadding(pos) + 8 + 8*len(in.Labels), nil
	case *MultiANewArrayInsn:
		return 4, nil
	default:
		return 0, errors.Errorf("%w: unknown instruction %T", ErrMalformed, insn)
	}
}

func (w *classWriter) emit(b *byteWriter, insn Instruction, pos int, ldcIdx uint16, at func(*Label) (int, error)) error {
	jump := func(l *Label, wide bool) error {
		off, err := at(l)
		if err != nil {
			return err
		}

		delta := off - pos
		if wide {
			b.u4(delta)
			return nil
		}

		if delta < math.MinInt16 || delta > math.MaxInt16 {
			return errors.Errorf("%w: branch offset %d out of range", ErrMalformed, delta)
		}

		b.u2(delta)

		return nil
	}

	switch in := insn.(type) {
	case *Insn:
		b.u1(in.Op)
	case *IntInsn:
		b.u1(in.Op)

		if in.Op == SIPUSH {
			b.u2(in.Operand)
		} else {
			b.u1(in.Operand)
		}
	case *VarInsn:
		switch {
		case in.Var < 4 && in.Op != RET:
			if in.Op < ISTORE {
				b.u1(ILOAD_0 + (in.Op-ILOAD)*4 + in.Var)
			} else {
				b.u1(ISTORE_0 + (in.Op-ISTORE)*4 + in.Var)
			}
		case in.Var <= math.MaxUint8:
			b.u1(in.Op)
			b.u1(in.Var)
		default:
			b.u1(WIDE)
			b.u1(in.Op)
			b.u2(in.Var)
		}
	case *IincInsn:
		if in.Var <= math.MaxUint8 && in.Incr >= math.MinInt8 && in.Incr <= math.MaxInt8 {
			b.u1(IINC)
			b.u1(in.Var)
			b.u1(in.Incr)
		} else {
			b.u1(WIDE)
			b.u1(IINC)
			b.u2(in.Var)
			b.u2(in.Incr)
		}
	case *TypeInsn:
		idx, err := w.pool.class(in.Type)
		if err != nil {
			return err
		}

		b.u1(in.Op)
		b.u2(int(idx))
	case *FieldInsn:
		idx, err := w.pool.field(in.Owner, in.Name, in.Desc)
		if err != nil {
			return err
		}

		b.u1(in.Op)
		b.u2(int(idx))
	case *MethodInsn:
		idx, err := w.pool.method(in.Owner, in.Name, in.Desc, in.Interface)
		if err != nil {
			return err
		}

		b.u1(in.Op)
		b.u2(int(idx))

		if in.Op == INVOKEINTERFACE {
			b.u1(ArgumentsSize(in.Desc) + 1)
			b.u1(0)
		}
	case *InvokeDynamicInsn:
		idx, err := w.pool.dynamic(tagInvokeDynamic, in.Name, in.Desc, BootstrapMethod{Handle: in.Bootstrap, Args: in.Args})
		if err != nil {
			return err
		}

		b.u1(INVOKEDYNAMIC)
		b.u2(int(idx))
		b.u2(0)
	case *JumpInsn:
		b.u1(in.Op)
		return jump(in.Target, in.Op == GOTO_W || in.Op == JSR_W)
	case *LdcInsn:
		switch {
		case isWideConstant(in.Value):
			b.u1(LDC2_W)
			b.u2(int(ldcIdx))
		case ldcIdx > math.MaxUint8:
			b.u1(LDC_W)
			b.u2(int(ldcIdx))
		default:
			b.u1(LDC)
			b.u1(int(ldcIdx))
		}
	case *TableSwitchInsn:
		b.u1(TABLESWITCH)

		for range switchPadding(pos) {
			b.u1(0)
		}

		if err := jump(in.Default, true); err != nil {
			return err
		}

		b.u4(int(in.Min))
		b.u4(int(in.Max))

		for _, l := range in.Labels {
			if err := jump(l, true); err != nil {
				return err
			}
		}
	case *LookupSwitchInsn:
		b.u1(LOOKUPSWITCH)

		for range switchPadding(pos) {
			b.u1(0)
		}

		if err := jump(in.Default, true); err != nil {
			return err
		}

		b.u4(len(in.Labels))

		for i, l := range in.Labels {
			b.u4(int(in.Keys[i]))

			if err := jump(l, true); err != nil {
				return err
			}
		}
	case *MultiANewArrayInsn:
		idx, err := w.pool.class(in.Desc)
		if err != nil {
			return err
		}

		b.u1(MULTIANEWARRAY)
		b.u2(int(idx))
		b.u1(in.Dims)
	}

	return nil
}

func isWideConstant(v any) bool {
	switch c := v.(type) {
	case int64, float64:
		return true
	case ConstantDynamic:
		return c.Desc == "J" || c.Desc == "D"
	default:
		return false
	}
}
