package transform

import (
	cf "bytegraft/internal/classfile"
	"bytegraft/internal/diagnostic"
)

// accessor adds a public static method named like m that takes the receiver
// as first argument and calls m on it.
func (s *state) accessor(m *cf.Method) error {
	if m.IsStatic() {
		return diagnostic.Unsupportedf("accessor for static method %s%s", m.Name, m.Desc)
	}

	acc := syntheticAccessor(s.dst, m)
	member := acc.Name + acc.Desc

	if existing := s.dst.FindMethod(acc.Name, acc.Desc); existing != nil {
		s.dst.RemoveMethod(existing)
		s.warn(diagnostic.CodeMethodReplaced, "replaced existing method", member)
	}

	s.dst.Methods = append(s.dst.Methods, acc)
	s.report.Methods = append(s.report.Methods, member)
	s.info(diagnostic.CodeAccessorAdded, "added static accessor for "+m.Name+m.Desc, member)

	return nil
}

func syntheticAccessor(owner *cf.ClassFile, m *cf.Method) *cf.Method {
	params := append([]cf.Type{cf.ObjectType(owner.Name)}, cf.ArgumentTypes(m.Desc)...)
	ret := cf.ReturnType(m.Desc)

	code := &cf.Code{}
	slot := 0

	for _, p := range params {
		code.Add(&cf.VarInsn{Op: cf.LoadOpcode(p), Var: slot})
		slot += p.Size()
	}

	op := cf.INVOKEVIRTUAL
	if owner.IsInterface() {
		op = cf.INVOKEINTERFACE
	}

	code.Add(
		&cf.MethodInsn{Op: op, Owner: owner.Name, Name: m.Name, Desc: m.Desc, Interface: owner.IsInterface()},
		&cf.Insn{Op: cf.ReturnOpcode(ret)},
	)

	code.MaxLocals = slot
	code.MaxStack = max(slot, ret.Size())

	return &cf.Method{
		Access: cf.AccPublic | cf.AccStatic | cf.AccSynthetic,
		Name:   m.Name,
		Desc:   cf.MethodDescriptor(ret, params...),
		Code:   code,
	}
}
