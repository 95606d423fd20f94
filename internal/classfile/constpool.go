package classfile

import (
	"encoding/binary"
	"math"
	"strconv"
	"unicode/utf16"

	"gitlab.com/tozd/go/errors"
)

type cpEntry struct {
	tag byte
	// a and b are the referenced indexes: name/descriptor, class/nat,
	// kind/reference, bootstrap/nat, depending on tag.
	a, b uint16
	num  uint64
	str  string
}

type constPool struct {
	entries []cpEntry
}

func readPool(r *byteReader) (*constPool, error) {
	count := int(r.u2())
	p := &constPool{entries: make([]cpEntry, count)}

	for i := 1; i < count; i++ {
		e := cpEntry{tag: r.u1()}

		switch e.tag {
		case tagUtf8:
			s, err := decodeModifiedUTF8(r.bytes(int(r.u2())))
			if err != nil {
				return nil, err
			}

			e.str = s
		case tagInteger, tagFloat:
			e.num = uint64(r.u4())
		case tagLong, tagDouble:
			e.num = uint64(r.u4())<<32 | uint64(r.u4())
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.a = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType,
			tagDynamic, tagInvokeDynamic:
			e.a, e.b = r.u2(), r.u2()
		case tagMethodHandle:
			e.a, e.b = uint16(r.u1()), r.u2()
		default:
			if r.err != nil {
				return nil, r.err
			}

			return nil, errors.Errorf("%w: unknown constant pool tag %d at #%d", ErrMalformed, e.tag, i)
		}

		p.entries[i] = e

		if e.tag == tagLong || e.tag == tagDouble {
			i++
		}
	}

	if r.err != nil {
		return nil, r.err
	}

	return p, nil
}

func (p *constPool) entry(i uint16, tags ...byte) (cpEntry, error) {
	if int(i) == 0 || int(i) >= len(p.entries) {
		return cpEntry{}, errors.Errorf("%w: constant pool index %d out of range", ErrMalformed, i)
	}

	e := p.entries[i]
	for _, t := range tags {
		if e.tag == t {
			return e, nil
		}
	}

	return cpEntry{}, errors.Errorf("%w: constant pool #%d has tag %d, want %v", ErrMalformed, i, e.tag, tags)
}

// poolBuilder assembles a constant pool and bootstrap table for Write.
type poolBuilder struct {
	data  []byte
	count int
	index map[string]uint16

	bootstrap      [][]byte
	bootstrapIndex map[string]uint16
}

func newPoolBuilder() *poolBuilder {
	return &poolBuilder{
		count:          1,
		index:          make(map[string]uint16),
		bootstrapIndex: make(map[string]uint16),
	}
}

// seed copies every entry of src so that its indexes stay valid.
func (b *poolBuilder) seed(src *constPool, bootstrap []BootstrapMethod) error {
	for i := 1; i < len(src.entries); i++ {
		e := src.entries[i]

		key, data := encodeEntry(e)
		b.data = append(b.data, data...)

		if _, ok := b.index[key]; !ok {
			b.index[key] = uint16(i)
		}

		b.count++

		if e.tag == tagLong || e.tag == tagDouble {
			b.count++
			i++
		}
	}

	for _, bm := range bootstrap {
		key, data, err := b.encodeBootstrap(bm)
		if err != nil {
			return err
		}

		idx := uint16(len(b.bootstrap))
		b.bootstrap = append(b.bootstrap, data)

		if _, ok := b.bootstrapIndex[key]; !ok {
			b.bootstrapIndex[key] = idx
		}
	}

	return nil
}

func encodeEntry(e cpEntry) (string, []byte) {
	data := []byte{e.tag}

	switch e.tag {
	case tagUtf8:
		enc := encodeModifiedUTF8(e.str)
		data = binary.BigEndian.AppendUint16(data, uint16(len(enc)))
		data = append(data, enc...)

		return "1:" + e.str, data
	case tagInteger, tagFloat:
		data = binary.BigEndian.AppendUint32(data, uint32(e.num))
	case tagLong, tagDouble:
		data = binary.BigEndian.AppendUint64(data, e.num)
	case tagMethodHandle:
		data = append(data, byte(e.a))
		data = binary.BigEndian.AppendUint16(data, e.b)
	case tagClass, tagString, tagMethodType, tagModule, tagPackage:
		data = binary.BigEndian.AppendUint16(data, e.a)
	default:
		data = binary.BigEndian.AppendUint16(data, e.a)
		data = binary.BigEndian.AppendUint16(data, e.b)
	}

	return strconv.Itoa(int(e.tag)) + ":" + strconv.FormatUint(e.num, 16) + ":" +
		strconv.Itoa(int(e.a)) + ":" + strconv.Itoa(int(e.b)), data
}

func (b *poolBuilder) add(e cpEntry) (uint16, error) {
	key, data := encodeEntry(e)
	if idx, ok := b.index[key]; ok {
		return idx, nil
	}

	size := 1
	if e.tag == tagLong || e.tag == tagDouble {
		size = 2
	}

	if b.count+size > math.MaxUint16 {
		return 0, errors.Errorf("%w: constant pool overflow", ErrMalformed)
	}

	idx := uint16(b.count)
	b.data = append(b.data, data...)
	b.index[key] = idx
	b.count += size

	return idx, nil
}

func (b *poolBuilder) utf8(s string) (uint16, error) {
	if len(encodeModifiedUTF8(s)) > math.MaxUint16 {
		return 0, errors.Errorf("%w: string constant too long", ErrMalformed)
	}

	return b.add(cpEntry{tag: tagUtf8, str: s})
}

func (b *poolBuilder) indirect(tag byte, s string) (uint16, error) {
	u, err := b.utf8(s)
	if err != nil {
		return 0, err
	}

	return b.add(cpEntry{tag: tag, a: u})
}

func (b *poolBuilder) class(internalName string) (uint16, error) {
	return b.indirect(tagClass, internalName)
}

func (b *poolBuilder) nameAndType(name, desc string) (uint16, error) {
	n, err := b.utf8(name)
	if err != nil {
		return 0, err
	}

	d, err := b.utf8(desc)
	if err != nil {
		return 0, err
	}

	return b.add(cpEntry{tag: tagNameAndType, a: n, b: d})
}

func (b *poolBuilder) member(tag byte, owner, name, desc string) (uint16, error) {
	c, err := b.class(owner)
	if err != nil {
		return 0, err
	}

	nat, err := b.nameAndType(name, desc)
	if err != nil {
		return 0, err
	}

	return b.add(cpEntry{tag: tag, a: c, b: nat})
}

func (b *poolBuilder) field(owner, name, desc string) (uint16, error) {
	return b.member(tagFieldref, owner, name, desc)
}

func (b *poolBuilder) method(owner, name, desc string, itf bool) (uint16, error) {
	if itf {
		return b.member(tagInterfaceMethodref, owner, name, desc)
	}

	return b.member(tagMethodref, owner, name, desc)
}

func (b *poolBuilder) handle(h Handle) (uint16, error) {
	var (
		ref uint16
		err error
	)

	if h.IsField() {
		ref, err = b.field(h.Owner, h.Name, h.Desc)
	} else {
		ref, err = b.method(h.Owner, h.Name, h.Desc, h.Interface)
	}

	if err != nil {
		return 0, err
	}

	return b.add(cpEntry{tag: tagMethodHandle, a: uint16(h.Kind), b: ref})
}

func (b *poolBuilder) dynamic(tag byte, name, desc string, bm BootstrapMethod) (uint16, error) {
	bsm, err := b.addBootstrap(bm)
	if err != nil {
		return 0, err
	}

	nat, err := b.nameAndType(name, desc)
	if err != nil {
		return 0, err
	}

	return b.add(cpEntry{tag: tag, a: bsm, b: nat})
}

// constant interns a loadable constant and reports whether it takes two
// slots.
func (b *poolBuilder) constant(v any) (uint16, bool, error) {
	switch c := v.(type) {
	case int32:
		idx, err := b.add(cpEntry{tag: tagInteger, num: uint64(uint32(c))})
		return idx, false, err
	case float32:
		idx, err := b.add(cpEntry{tag: tagFloat, num: uint64(math.Float32bits(c))})
		return idx, false, err
	case int64:
		idx, err := b.add(cpEntry{tag: tagLong, num: uint64(c)})
		return idx, true, err
	case float64:
		idx, err := b.add(cpEntry{tag: tagDouble, num: math.Float64bits(c)})
		return idx, true, err
	case string:
		idx, err := b.indirect(tagString, c)
		return idx, false, err
	case Type:
		if c.Sort() == SortMethod {
			idx, err := b.indirect(tagMethodType, c.Descriptor())
			return idx, false, err
		}

		idx, err := b.class(c.InternalName())

		return idx, false, err
	case Handle:
		idx, err := b.handle(c)
		return idx, false, err
	case ConstantDynamic:
		idx, err := b.dynamic(tagDynamic, c.Name, c.Desc, BootstrapMethod{Handle: c.Bootstrap, Args: c.Args})
		d := c.Desc
		return idx, d == "J" || d == "D", err
	default:
		return 0, false, errors.Errorf("%w: unsupported constant %T", ErrMalformed, v)
	}
}

func (b *poolBuilder) encodeBootstrap(bm BootstrapMethod) (string, []byte, error) {
	h, err := b.handle(bm.Handle)
	if err != nil {
		return "", nil, err
	}

	data := binary.BigEndian.AppendUint16(nil, h)
	data = binary.BigEndian.AppendUint16(data, uint16(len(bm.Args)))

	for _, arg := range bm.Args {
		idx, _, err := b.constant(arg)
		if err != nil {
			return "", nil, err
		}

		data = binary.BigEndian.AppendUint16(data, idx)
	}

	return string(data), data, nil
}

func (b *poolBuilder) addBootstrap(bm BootstrapMethod) (uint16, error) {
	key, data, err := b.encodeBootstrap(bm)
	if err != nil {
		return 0, err
	}

	if idx, ok := b.bootstrapIndex[key]; ok {
		return idx, nil
	}

	if len(b.bootstrap) >= math.MaxUint16 {
		return 0, errors.Errorf("%w: bootstrap method table overflow", ErrMalformed)
	}

	idx := uint16(len(b.bootstrap))
	b.bootstrap = append(b.bootstrap, data)
	b.bootstrapIndex[key] = idx

	return idx, nil
}

func decodeModifiedUTF8(b []byte) (string, error) {
	units := make([]uint16, 0, len(b))

	for i := 0; i < len(b); {
		c := b[i]

		switch {
		case c&0x80 == 0:
			if c == 0 {
				return "", errors.Errorf("%w: NUL byte in modified UTF-8", ErrMalformed)
			}

			units = append(units, uint16(c))
			i++
		case c&0xe0 == 0xc0:
			if i+1 >= len(b) {
				return "", errors.Errorf("%w: truncated modified UTF-8", ErrMalformed)
			}

			units = append(units, uint16(c&0x1f)<<6|uint16(b[i+1]&0x3f))
			i += 2
		case c&0xf0 == 0xe0:
			if i+2 >= len(b) {
				return "", errors.Errorf("%w: truncated modified UTF-8", ErrMalformed)
			}

			units = append(units, uint16(c&0x0f)<<12|uint16(b[i+1]&0x3f)<<6|uint16(b[i+2]&0x3f))
			i += 3
		default:
			return "", errors.Errorf("%w: invalid modified UTF-8 byte %#x", ErrMalformed, c)
		}
	}

	return string(utf16.Decode(units)), nil
}

func encodeModifiedUTF8(s string) []byte {
	out := make([]byte, 0, len(s))

	for _, u := range utf16.Encode([]rune(s)) {
		switch {
		case u >= 0x01 && u <= 0x7f:
			out = append(out, byte(u))
		case u <= 0x7ff:
			out = append(out, byte(0xc0|u>>6), byte(0x80|u&0x3f))
		default:
			out = append(out, byte(0xe0|u>>12), byte(0x80|(u>>6)&0x3f), byte(0x80|u&0x3f))
		}
	}

	return out
}
