package classfile

import (
	"strings"
)

// Remapper renames classes and members. Member lookups receive the
// original owner, name and descriptor.
type Remapper interface {
	Map(internalName string) string
	MapFieldName(owner, name, desc string) string
	MapMethodName(owner, name, desc string) string
	MapInvokeDynamicMethodName(name, desc string) string
}

// MapType maps an internal name or an array descriptor.
func MapType(r Remapper, internalName string) string {
	if strings.HasPrefix(internalName, "[") {
		return MapDesc(r, internalName)
	}

	return r.Map(internalName)
}

// MapDesc maps every class name of a field or method descriptor.
func MapDesc(r Remapper, desc string) string {
	if !strings.Contains(desc, "L") {
		return desc
	}

	var sb strings.Builder

	for i := 0; i < len(desc); i++ {
		c := desc[i]
		sb.WriteByte(c)

		if c != 'L' {
			continue
		}

		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			sb.WriteString(desc[i+1:])
			break
		}

		sb.WriteString(r.Map(desc[i+1 : i+end]))
		sb.WriteByte(';')
		i += end
	}

	return sb.String()
}

// MapMethodDesc maps a method descriptor.
func MapMethodDesc(r Remapper, desc string) string {
	return MapDesc(r, desc)
}

// MapSignature maps class names in a generic signature. Malformed
// signatures are returned unchanged.
func MapSignature(r Remapper, sig string) (out string) {
	if sig == "" {
		return ""
	}

	m := &sigMapper{r: r, s: sig}

	defer func() {
		if rec := recover(); rec != nil {
			if _, ok := rec.(sigError); !ok {
				panic(rec)
			}

			out = sig
		}
	}()

	m.signature()

	return m.out.String()
}

type sigError struct{}

type sigMapper struct {
	r   Remapper
	s   string
	pos int
	out strings.Builder
}

func (m *sigMapper) peek() byte {
	if m.pos >= len(m.s) {
		panic(sigError{})
	}

	return m.s[m.pos]
}

func (m *sigMapper) next() byte {
	c := m.peek()
	m.pos++

	return c
}

func (m *sigMapper) copy() {
	m.out.WriteByte(m.next())
}

func (m *sigMapper) signature() {
	if m.peek() == '<' {
		m.typeParams()
	}

	if m.peek() == '(' {
		m.copy()

		for m.peek() != ')' {
			m.javaType()
		}

		m.copy()
		m.javaType()

		for m.pos < len(m.s) && m.peek() == '^' {
			m.copy()
			m.refType()
		}

		return
	}

	for m.pos < len(m.s) {
		m.refType()
	}
}

func (m *sigMapper) typeParams() {
	m.copy()

	for m.peek() != '>' {
		for m.peek() != ':' {
			m.copy()
		}

		for m.pos < len(m.s) && m.peek() == ':' {
			m.copy()

			switch m.peek() {
			case 'L', 'T', '[':
				m.refType()
			}
		}
	}

	m.copy()
}

func (m *sigMapper) javaType() {
	switch m.peek() {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 'V':
		m.copy()
	default:
		m.refType()
	}
}

func (m *sigMapper) refType() {
	switch m.peek() {
	case 'L':
		m.classType()
	case 'T':
		for m.peek() != ';' {
			m.copy()
		}

		m.copy()
	case '[':
		m.copy()
		m.javaType()
	default:
		panic(sigError{})
	}
}

func (m *sigMapper) ident() string {
	start := m.pos

	for {
		switch m.peek() {
		case '<', '.', ';':
			return m.s[start:m.pos]
		}

		m.pos++
	}
}

func (m *sigMapper) classType() {
	m.next()

	name := m.ident()
	mapped := m.r.Map(name)
	m.out.WriteByte('L')
	m.out.WriteString(mapped)

	for {
		switch m.peek() {
		case '<':
			m.typeArgs()
		case '.':
			m.next()

			inner := m.ident()
			full := name + "$" + inner
			fullMapped := m.r.Map(full)

			suffix := inner
			if strings.HasPrefix(fullMapped, mapped+"$") {
				suffix = fullMapped[len(mapped)+1:]
			}

			m.out.WriteByte('.')
			m.out.WriteString(suffix)

			name, mapped = full, fullMapped
		case ';':
			m.copy()
			return
		default:
			panic(sigError{})
		}
	}
}

func (m *sigMapper) typeArgs() {
	m.copy()

	for m.peek() != '>' {
		switch m.peek() {
		case '*':
			m.copy()
		case '+', '-':
			m.copy()
			m.refType()
		default:
			m.refType()
		}
	}

	m.copy()
}

// MapHandle maps the owner, name and descriptor of a method handle.
func MapHandle(r Remapper, h Handle) Handle {
	if h.IsField() {
		h.Name = r.MapFieldName(h.Owner, h.Name, h.Desc)
		h.Desc = MapDesc(r, h.Desc)
	} else {
		h.Name = r.MapMethodName(h.Owner, h.Name, h.Desc)
		h.Desc = MapMethodDesc(r, h.Desc)
	}

	h.Owner = MapType(r, h.Owner)

	return h
}

// MapValue maps a loadable constant. Numbers and strings are returned as-is.
func MapValue(r Remapper, v any) any {
	switch c := v.(type) {
	case Type:
		return TypeOf(MapDesc(r, c.Descriptor()))
	case Handle:
		return MapHandle(r, c)
	case ConstantDynamic:
		return ConstantDynamic{
			Name:      r.MapInvokeDynamicMethodName(c.Name, c.Desc),
			Desc:      MapDesc(r, c.Desc),
			Bootstrap: MapHandle(r, c.Bootstrap),
			Args:      mapValues(r, c.Args),
		}
	default:
		return v
	}
}

func mapValues(r Remapper, vs []any) []any {
	if vs == nil {
		return nil
	}

	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = MapValue(r, v)
	}

	return out
}

// RemapAnnotations maps annotation types, enum types and class values.
func RemapAnnotations(r Remapper, list []*Annotation) {
	for _, a := range list {
		remapAnnotation(r, a)
	}
}

func remapAnnotation(r Remapper, a *Annotation) {
	a.Desc = MapDesc(r, a.Desc)
	for i := range a.Values {
		remapElementValue(r, &a.Values[i].Value)
	}
}

func remapElementValue(r Remapper, ev *ElementValue) {
	switch ev.Tag {
	case 'e':
		ev.EnumDesc = MapDesc(r, ev.EnumDesc)
	case 'c':
		if s, ok := ev.Const.(string); ok {
			ev.Const = MapDesc(r, s)
		}
	case '@':
		if ev.Annotation != nil {
			remapAnnotation(r, ev.Annotation)
		}
	case '[':
		for i := range ev.Array {
			remapElementValue(r, &ev.Array[i])
		}
	}
}

// RemapCode maps every symbolic reference of c in place.
func RemapCode(r Remapper, c *Code) {
	for _, insn := range c.Instructions {
		switch in := insn.(type) {
		case *TypeInsn:
			in.Type = MapType(r, in.Type)
		case *FieldInsn:
			in.Name = r.MapFieldName(in.Owner, in.Name, in.Desc)
			in.Owner = MapType(r, in.Owner)
			in.Desc = MapDesc(r, in.Desc)
		case *MethodInsn:
			in.Name = r.MapMethodName(in.Owner, in.Name, in.Desc)
			in.Owner = MapType(r, in.Owner)
			in.Desc = MapMethodDesc(r, in.Desc)
		case *InvokeDynamicInsn:
			in.Name = r.MapInvokeDynamicMethodName(in.Name, in.Desc)
			in.Desc = MapMethodDesc(r, in.Desc)
			in.Bootstrap = MapHandle(r, in.Bootstrap)
			in.Args = mapValues(r, in.Args)
		case *LdcInsn:
			in.Value = MapValue(r, in.Value)
		case *MultiANewArrayInsn:
			in.Desc = MapDesc(r, in.Desc)
		}
	}

	for i := range c.TryCatch {
		if c.TryCatch[i].Type != "" {
			c.TryCatch[i].Type = MapType(r, c.TryCatch[i].Type)
		}
	}

	for i := range c.LocalVars {
		c.LocalVars[i].Desc = MapDesc(r, c.LocalVars[i].Desc)
	}

	for i := range c.LocalVarTypes {
		c.LocalVarTypes[i].Desc = MapSignature(r, c.LocalVarTypes[i].Desc)
	}

	for _, f := range c.Frames {
		remapFrameTypes(r, f.Locals)
		remapFrameTypes(r, f.Stack)
	}
}

func remapFrameTypes(r Remapper, vts []VerificationType) {
	for i := range vts {
		if vts[i].Tag == ItemObject {
			vts[i].Class = MapType(r, vts[i].Class)
		}
	}
}

// RemapField maps a field declared in owner.
func RemapField(r Remapper, owner string, f *Field) {
	f.Name = r.MapFieldName(owner, f.Name, f.Desc)
	f.Desc = MapDesc(r, f.Desc)
	f.Signature = MapSignature(r, f.Signature)

	RemapAnnotations(r, f.VisibleAnnotations)
	RemapAnnotations(r, f.InvisibleAnnotations)
}

// RemapMethod maps a method declared in owner, including its body.
func RemapMethod(r Remapper, owner string, m *Method) {
	m.Name = r.MapMethodName(owner, m.Name, m.Desc)
	m.Desc = MapMethodDesc(r, m.Desc)
	m.Signature = MapSignature(r, m.Signature)

	for i, e := range m.Exceptions {
		m.Exceptions[i] = MapType(r, e)
	}

	RemapAnnotations(r, m.VisibleAnnotations)
	RemapAnnotations(r, m.InvisibleAnnotations)

	if m.Code != nil {
		RemapCode(r, m.Code)
	}
}

// RemapHeader maps the identity and class-level attributes of cf, leaving
// fields and methods alone.
func RemapHeader(r Remapper, cf *ClassFile) {
	cf.Name = MapType(r, cf.Name)
	if cf.SuperName != "" {
		cf.SuperName = MapType(r, cf.SuperName)
	}

	for i, n := range cf.Interfaces {
		cf.Interfaces[i] = MapType(r, n)
	}

	cf.Signature = MapSignature(r, cf.Signature)

	for i := range cf.InnerClasses {
		ic := &cf.InnerClasses[i]
		ic.Name = MapType(r, ic.Name)

		if ic.OuterName != "" {
			ic.OuterName = MapType(r, ic.OuterName)
		}

		if ic.InnerName != "" {
			ic.InnerName = innerSimpleName(ic.Name, ic.InnerName)
		}
	}

	if em := cf.EnclosingMethod; em != nil {
		if em.Name != "" {
			em.Name = r.MapMethodName(em.Owner, em.Name, em.Desc)
			em.Desc = MapMethodDesc(r, em.Desc)
		}

		em.Owner = MapType(r, em.Owner)
	}

	if cf.NestHost != "" {
		cf.NestHost = MapType(r, cf.NestHost)
	}

	for i, n := range cf.NestMembers {
		cf.NestMembers[i] = MapType(r, n)
	}

	for i, n := range cf.PermittedSubclasses {
		cf.PermittedSubclasses[i] = MapType(r, n)
	}

	RemapAnnotations(r, cf.VisibleAnnotations)
	RemapAnnotations(r, cf.InvisibleAnnotations)
}

// innerSimpleName derives the simple name of a mapped inner class from the
// text after its last '$', skipping the digits of local classes.
func innerSimpleName(mappedName, innerName string) string {
	i := strings.LastIndexByte(mappedName, '$')
	if i < 0 {
		return innerName
	}

	i++
	for i < len(mappedName) && mappedName[i] >= '0' && mappedName[i] <= '9' {
		i++
	}

	if i == len(mappedName) {
		return innerName
	}

	return mappedName[i:]
}

// RemapClass maps cf and all of its members in place.
func RemapClass(r Remapper, cf *ClassFile) {
	owner := cf.Name

	for _, f := range cf.Fields {
		RemapField(r, owner, f)
	}

	for _, m := range cf.Methods {
		RemapMethod(r, owner, m)
	}

	RemapHeader(r, cf)
}
