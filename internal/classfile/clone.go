package classfile

import "slices"

// Clone returns a deep copy of m. Labels of the copy are fresh.
func (m *Method) Clone() *Method {
	out := *m
	out.Exceptions = slices.Clone(m.Exceptions)
	out.VisibleAnnotations = cloneAnnotations(m.VisibleAnnotations)
	out.InvisibleAnnotations = cloneAnnotations(m.InvisibleAnnotations)
	out.Attributes = slices.Clone(m.Attributes)

	if m.Code != nil {
		out.Code = m.Code.Clone()
	}

	return &out
}

// Clone returns a deep copy of f.
func (f *Field) Clone() *Field {
	out := *f
	out.VisibleAnnotations = cloneAnnotations(f.VisibleAnnotations)
	out.InvisibleAnnotations = cloneAnnotations(f.InvisibleAnnotations)
	out.Attributes = slices.Clone(f.Attributes)

	return &out
}

// Clone returns a deep copy of cf, sharing only the immutable parsed pool.
func (c *ClassFile) Clone() *ClassFile {
	out := *c
	out.Interfaces = slices.Clone(c.Interfaces)
	out.InnerClasses = slices.Clone(c.InnerClasses)
	out.NestMembers = slices.Clone(c.NestMembers)
	out.PermittedSubclasses = slices.Clone(c.PermittedSubclasses)
	out.VisibleAnnotations = cloneAnnotations(c.VisibleAnnotations)
	out.InvisibleAnnotations = cloneAnnotations(c.InvisibleAnnotations)
	out.Attributes = slices.Clone(c.Attributes)

	if c.EnclosingMethod != nil {
		em := *c.EnclosingMethod
		out.EnclosingMethod = &em
	}

	out.Fields = make([]*Field, len(c.Fields))
	for i, f := range c.Fields {
		out.Fields[i] = f.Clone()
	}

	out.Methods = make([]*Method, len(c.Methods))
	for i, m := range c.Methods {
		out.Methods[i] = m.Clone()
	}

	return &out
}

func cloneAnnotations(list []*Annotation) []*Annotation {
	if list == nil {
		return nil
	}

	out := make([]*Annotation, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}

	return out
}

// Clone returns a deep copy of a.
func (a *Annotation) Clone() *Annotation {
	out := &Annotation{Desc: a.Desc, Values: make([]ElementPair, len(a.Values))}
	for i, p := range a.Values {
		out.Values[i] = ElementPair{Name: p.Name, Value: p.Value.clone()}
	}

	return out
}

func (ev ElementValue) clone() ElementValue {
	if ev.Annotation != nil {
		ev.Annotation = ev.Annotation.Clone()
	}

	if ev.Array != nil {
		arr := make([]ElementValue, len(ev.Array))
		for i, v := range ev.Array {
			arr[i] = v.clone()
		}

		ev.Array = arr
	}

	return ev
}

// Clone returns a deep copy of c in which every label is replaced by a new
// one.
func (c *Code) Clone() *Code {
	labels := make(map[*Label]*Label)
	lbl := func(l *Label) *Label {
		if l == nil {
			return nil
		}

		if n, ok := labels[l]; ok {
			return n
		}

		n := &Label{}
		labels[l] = n

		return n
	}

	lbls := func(ls []*Label) []*Label {
		out := make([]*Label, len(ls))
		for i, l := range ls {
			out[i] = lbl(l)
		}

		return out
	}

	out := &Code{
		MaxStack:   c.MaxStack,
		MaxLocals:  c.MaxLocals,
		Attributes: slices.Clone(c.Attributes),
	}

	out.Instructions = make([]Instruction, len(c.Instructions))
	for i, insn := range c.Instructions {
		var n Instruction

		switch in := insn.(type) {
		case *Label:
			n = lbl(in)
		case *Insn:
			cp := *in
			n = &cp
		case *IntInsn:
			cp := *in
			n = &cp
		case *VarInsn:
			cp := *in
			n = &cp
		case *TypeInsn:
			cp := *in
			n = &cp
		case *FieldInsn:
			cp := *in
			n = &cp
		case *MethodInsn:
			cp := *in
			n = &cp
		case *InvokeDynamicInsn:
			cp := *in
			cp.Args = slices.Clone(in.Args)
			n = &cp
		case *JumpInsn:
			n = &JumpInsn{Op: in.Op, Target: lbl(in.Target)}
		case *LdcInsn:
			cp := *in
			n = &cp
		case *IincInsn:
			cp := *in
			n = &cp
		case *TableSwitchInsn:
			n = &TableSwitchInsn{Min: in.Min, Max: in.Max, Default: lbl(in.Default), Labels: lbls(in.Labels)}
		case *LookupSwitchInsn:
			n = &LookupSwitchInsn{Default: lbl(in.Default), Keys: slices.Clone(in.Keys), Labels: lbls(in.Labels)}
		case *MultiANewArrayInsn:
			cp := *in
			n = &cp
		default:
			n = insn
		}

		out.Instructions[i] = n
	}

	for _, tc := range c.TryCatch {
		out.TryCatch = append(out.TryCatch, TryCatchBlock{
			Start: lbl(tc.Start), End: lbl(tc.End), Handler: lbl(tc.Handler), Type: tc.Type,
		})
	}

	for _, ln := range c.LineNumbers {
		out.LineNumbers = append(out.LineNumbers, LineNumber{Line: ln.Line, Start: lbl(ln.Start)})
	}

	cloneVars := func(vars []LocalVariable) []LocalVariable {
		var res []LocalVariable
		for _, lv := range vars {
			lv.Start, lv.End = lbl(lv.Start), lbl(lv.End)
			res = append(res, lv)
		}

		return res
	}

	out.LocalVars = cloneVars(c.LocalVars)
	out.LocalVarTypes = cloneVars(c.LocalVarTypes)

	cloneTypes := func(vts []VerificationType) []VerificationType {
		if vts == nil {
			return nil
		}

		res := make([]VerificationType, len(vts))
		for i, vt := range vts {
			vt.New = lbl(vt.New)
			res[i] = vt
		}

		return res
	}

	for _, f := range c.Frames {
		out.Frames = append(out.Frames, Frame{At: lbl(f.At), Locals: cloneTypes(f.Locals), Stack: cloneTypes(f.Stack)})
	}

	return out
}
