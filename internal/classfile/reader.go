package classfile

import (
	"math"

	"gitlab.com/tozd/go/errors"
)

const magic = 0xCAFEBABE

type rawAttribute struct {
	name string
	data []byte
}

type rawBootstrap struct {
	handle uint16
	args   []uint16
}

// decoder resolves pool references. The first failure is kept in err and
// later lookups return zero values.
type decoder struct {
	pool      *constPool
	bootstrap []rawBootstrap
	depth     int
	err       error
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) entry(i uint16, tags ...byte) cpEntry {
	if d.err != nil {
		return cpEntry{}
	}

	e, err := d.pool.entry(i, tags...)
	if err != nil {
		d.fail(err)
	}

	return e
}

func (d *decoder) utf8(i uint16) string {
	return d.entry(i, tagUtf8).str
}

func (d *decoder) optUtf8(i uint16) string {
	if i == 0 {
		return ""
	}

	return d.utf8(i)
}

func (d *decoder) class(i uint16) string {
	return d.utf8(d.entry(i, tagClass).a)
}

func (d *decoder) optClass(i uint16) string {
	if i == 0 {
		return ""
	}

	return d.class(i)
}

func (d *decoder) nameAndType(i uint16) (string, string) {
	e := d.entry(i, tagNameAndType)
	return d.utf8(e.a), d.utf8(e.b)
}

func (d *decoder) member(i uint16, tags ...byte) (owner, name, desc string, itf bool) {
	e := d.entry(i, tags...)
	owner = d.class(e.a)
	name, desc = d.nameAndType(e.b)

	return owner, name, desc, e.tag == tagInterfaceMethodref
}

func (d *decoder) handle(i uint16) Handle {
	e := d.entry(i, tagMethodHandle)
	kind := int(e.a)

	var tags []byte

	switch {
	case kind >= H_GETFIELD && kind <= H_PUTSTATIC:
		tags = []byte{tagFieldref}
	case kind == H_INVOKEVIRTUAL || kind == H_NEWINVOKESPECIAL:
		tags = []byte{tagMethodref}
	case kind == H_INVOKESTATIC || kind == H_INVOKESPECIAL:
		tags = []byte{tagMethodref, tagInterfaceMethodref}
	case kind == H_INVOKEINTERFACE:
		tags = []byte{tagInterfaceMethodref}
	default:
		if d.err == nil {
			d.fail(errors.Errorf("%w: invalid method handle kind %d", ErrMalformed, kind))
		}

		return Handle{}
	}

	owner, name, desc, itf := d.member(e.b, tags...)

	return Handle{Kind: kind, Owner: owner, Name: name, Desc: desc, Interface: itf}
}

func (d *decoder) bootstrapMethod(i uint16) BootstrapMethod {
	if d.err != nil {
		return BootstrapMethod{}
	}

	if int(i) >= len(d.bootstrap) {
		d.fail(errors.Errorf("%w: bootstrap method %d out of range", ErrMalformed, i))
		return BootstrapMethod{}
	}

	// Dynamic constants may refer to other dynamic constants through their
	// bootstrap arguments; the nesting is finite in valid classes.
	if d.depth > 32 {
		d.fail(errors.Errorf("%w: bootstrap arguments nested too deeply", ErrMalformed))
		return BootstrapMethod{}
	}

	d.depth++
	defer func() { d.depth-- }()

	raw := d.bootstrap[i]
	bm := BootstrapMethod{Handle: d.handle(raw.handle)}

	for _, a := range raw.args {
		bm.Args = append(bm.Args, d.constant(a))
	}

	return bm
}

// constant resolves a loadable constant (ldc operand, bootstrap argument).
func (d *decoder) constant(i uint16) any {
	e := d.entry(i, tagInteger, tagFloat, tagLong, tagDouble, tagString, tagClass,
		tagMethodType, tagMethodHandle, tagDynamic)

	switch e.tag {
	case tagInteger:
		return int32(uint32(e.num))
	case tagFloat:
		return math.Float32frombits(uint32(e.num))
	case tagLong:
		return int64(e.num)
	case tagDouble:
		return math.Float64frombits(e.num)
	case tagString:
		return d.utf8(e.a)
	case tagClass:
		return ObjectType(d.utf8(e.a))
	case tagMethodType:
		return TypeOf(d.utf8(e.a))
	case tagMethodHandle:
		return d.handle(i)
	case tagDynamic:
		bm := d.bootstrapMethod(e.a)
		name, desc := d.nameAndType(e.b)

		return ConstantDynamic{Name: name, Desc: desc, Bootstrap: bm.Handle, Args: bm.Args}
	default:
		return nil
	}
}

func (d *decoder) resolvedBootstrap() []BootstrapMethod {
	out := make([]BootstrapMethod, len(d.bootstrap))
	for i := range d.bootstrap {
		out[i] = d.bootstrapMethod(uint16(i))
	}

	return out
}

func readAttributes(r *byteReader, d *decoder) []rawAttribute {
	n := int(r.u2())
	attrs := make([]rawAttribute, 0, n)

	for range n {
		name := d.utf8(r.u2())
		data := r.bytes(int(r.u4()))

		if r.err != nil {
			return nil
		}

		attrs = append(attrs, rawAttribute{name: name, data: data})
	}

	return attrs
}

type rawMember struct {
	access uint16
	name   string
	desc   string
	attrs  []rawAttribute
}

func readMembers(r *byteReader, d *decoder) []rawMember {
	n := int(r.u2())
	members := make([]rawMember, 0, n)

	for range n {
		m := rawMember{access: r.u2()}
		m.name = d.utf8(r.u2())
		m.desc = d.utf8(r.u2())
		m.attrs = readAttributes(r, d)

		if r.err != nil {
			return nil
		}

		members = append(members, m)
	}

	return members
}

// Parse decodes a class file.
func Parse(data []byte) (*ClassFile, error) {
	r := &byteReader{data: data}

	if r.u4() != magic {
		if r.err != nil {
			return nil, r.err
		}

		return nil, errors.Errorf("%w: bad magic", ErrMalformed)
	}

	cf := &ClassFile{Minor: r.u2(), Major: r.u2()}

	pool, err := readPool(r)
	if err != nil {
		return nil, err
	}

	cf.pool = pool
	d := &decoder{pool: pool}

	cf.Access = r.u2()
	cf.Name = d.class(r.u2())
	cf.SuperName = d.optClass(r.u2())

	for range int(r.u2()) {
		cf.Interfaces = append(cf.Interfaces, d.class(r.u2()))
	}

	fields := readMembers(r, d)
	methods := readMembers(r, d)
	classAttrs := readAttributes(r, d)

	if r.err != nil {
		return nil, r.err
	}

	if !r.eof() {
		return nil, errors.Errorf("%w: trailing bytes after class", ErrMalformed)
	}

	if d.err != nil {
		return nil, d.err
	}

	for _, a := range classAttrs {
		if a.name == "BootstrapMethods" {
			d.bootstrap, err = readBootstrapTable(a.data)
			if err != nil {
				return nil, err
			}
		}
	}

	cf.bootstrap = d.resolvedBootstrap()

	for _, a := range classAttrs {
		if err := d.classAttribute(cf, a); err != nil {
			return nil, errors.Errorf("class %s attribute %s: %w", cf.Name, a.name, err)
		}
	}

	for _, raw := range fields {
		f, err := d.field(raw)
		if err != nil {
			return nil, errors.Errorf("field %s.%s: %w", cf.Name, raw.name, err)
		}

		cf.Fields = append(cf.Fields, f)
	}

	for _, raw := range methods {
		m, err := d.method(cf.Name, raw)
		if err != nil {
			return nil, errors.Errorf("method %s.%s%s: %w", cf.Name, raw.name, raw.desc, err)
		}

		cf.Methods = append(cf.Methods, m)
	}

	if d.err != nil {
		return nil, d.err
	}

	return cf, nil
}

func readBootstrapTable(data []byte) ([]rawBootstrap, error) {
	r := &byteReader{data: data}
	n := int(r.u2())
	table := make([]rawBootstrap, 0, n)

	for range n {
		b := rawBootstrap{handle: r.u2()}
		for range int(r.u2()) {
			b.args = append(b.args, r.u2())
		}

		table = append(table, b)
	}

	if r.err != nil {
		return nil, r.err
	}

	return table, nil
}

// finish checks that an attribute body was consumed exactly and returns the
// first read or lookup error.
func (d *decoder) finish(r *byteReader) error {
	if r.err != nil {
		return r.err
	}

	if !r.eof() {
		return errors.Errorf("%w: attribute has trailing bytes", ErrMalformed)
	}

	return d.err
}

func (d *decoder) classList(r *byteReader) []string {
	var out []string
	for range int(r.u2()) {
		out = append(out, d.class(r.u2()))
	}

	return out
}

func (d *decoder) classAttribute(cf *ClassFile, a rawAttribute) error {
	r := &byteReader{data: a.data}

	switch a.name {
	case "BootstrapMethods":
		return nil
	case "SourceFile":
		cf.SourceFile = d.utf8(r.u2())
	case "Signature":
		cf.Signature = d.utf8(r.u2())
	case "InnerClasses":
		for range int(r.u2()) {
			ic := InnerClass{
				Name:      d.class(r.u2()),
				OuterName: d.optClass(r.u2()),
				InnerName: d.optUtf8(r.u2()),
				Access:    r.u2(),
			}
			cf.InnerClasses = append(cf.InnerClasses, ic)
		}
	case "EnclosingMethod":
		em := &EnclosingMethod{Owner: d.class(r.u2())}
		if nat := r.u2(); nat != 0 {
			em.Name, em.Desc = d.nameAndType(nat)
		}

		cf.EnclosingMethod = em
	case "NestHost":
		cf.NestHost = d.class(r.u2())
	case "NestMembers":
		cf.NestMembers = d.classList(r)
	case "PermittedSubclasses":
		cf.PermittedSubclasses = d.classList(r)
	case "RuntimeVisibleAnnotations":
		cf.VisibleAnnotations = d.annotations(r)
	case "RuntimeInvisibleAnnotations":
		cf.InvisibleAnnotations = d.annotations(r)
	default:
		cf.Attributes = append(cf.Attributes, &Attribute{Name: a.name, Data: a.data, pool: d.pool})
		return nil
	}

	return d.finish(r)
}

func (d *decoder) field(raw rawMember) (*Field, error) {
	f := &Field{Access: raw.access, Name: raw.name, Desc: raw.desc}

	for _, a := range raw.attrs {
		r := &byteReader{data: a.data}

		switch a.name {
		case "ConstantValue":
			f.Value = d.constant(r.u2())
		case "Signature":
			f.Signature = d.utf8(r.u2())
		case "RuntimeVisibleAnnotations":
			f.VisibleAnnotations = d.annotations(r)
		case "RuntimeInvisibleAnnotations":
			f.InvisibleAnnotations = d.annotations(r)
		default:
			f.Attributes = append(f.Attributes, &Attribute{Name: a.name, Data: a.data, pool: d.pool})
			continue
		}

		if err := d.finish(r); err != nil {
			return nil, errors.Errorf("attribute %s: %w", a.name, err)
		}
	}

	return f, nil
}

func (d *decoder) method(owner string, raw rawMember) (*Method, error) {
	m := &Method{Access: raw.access, Name: raw.name, Desc: raw.desc}

	var code []byte

	for _, a := range raw.attrs {
		r := &byteReader{data: a.data}

		switch a.name {
		case "Code":
			code = a.data
			continue
		case "Exceptions":
			m.Exceptions = d.classList(r)
		case "Signature":
			m.Signature = d.utf8(r.u2())
		case "RuntimeVisibleAnnotations":
			m.VisibleAnnotations = d.annotations(r)
		case "RuntimeInvisibleAnnotations":
			m.InvisibleAnnotations = d.annotations(r)
		default:
			m.Attributes = append(m.Attributes, &Attribute{Name: a.name, Data: a.data, pool: d.pool})
			continue
		}

		if err := d.finish(r); err != nil {
			return nil, errors.Errorf("attribute %s: %w", a.name, err)
		}
	}

	if code != nil {
		c, err := d.code(owner, m, code)
		if err != nil {
			return nil, errors.Errorf("code: %w", err)
		}

		m.Code = c
	}

	return m, nil
}

func (d *decoder) annotations(r *byteReader) []*Annotation {
	n := int(r.u2())
	out := make([]*Annotation, 0, n)

	for range n {
		out = append(out, d.annotation(r))
	}

	return out
}

func (d *decoder) annotation(r *byteReader) *Annotation {
	a := &Annotation{Desc: d.utf8(r.u2())}

	for range int(r.u2()) {
		name := d.utf8(r.u2())
		a.Values = append(a.Values, ElementPair{Name: name, Value: d.elementValue(r)})

		if r.err != nil || d.err != nil {
			break
		}
	}

	return a
}

func (d *decoder) elementValue(r *byteReader) ElementValue {
	ev := ElementValue{Tag: r.u1()}

	switch ev.Tag {
	case 'B', 'C', 'I', 'S', 'Z':
		ev.Const = int32(uint32(d.entry(r.u2(), tagInteger).num))
	case 'D':
		ev.Const = math.Float64frombits(d.entry(r.u2(), tagDouble).num)
	case 'F':
		ev.Const = math.Float32frombits(uint32(d.entry(r.u2(), tagFloat).num))
	case 'J':
		ev.Const = int64(d.entry(r.u2(), tagLong).num)
	case 's', 'c':
		ev.Const = d.utf8(r.u2())
	case 'e':
		ev.EnumDesc = d.utf8(r.u2())
		ev.EnumName = d.utf8(r.u2())
	case '@':
		ev.Annotation = d.annotation(r)
	case '[':
		for range int(r.u2()) {
			ev.Array = append(ev.Array, d.elementValue(r))

			if r.err != nil || d.err != nil {
				break
			}
		}
	default:
		if r.err == nil {
			d.fail(errors.Errorf("%w: invalid element value tag %q", ErrMalformed, ev.Tag))
		}
	}

	return ev
}
