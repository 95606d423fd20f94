package classfile

import (
	"encoding/binary"

	"gitlab.com/tozd/go/errors"
)

// ErrMalformed is returned for class files that cannot be decoded or encoded.
var ErrMalformed = errors.New("malformed class file")

// byteReader reads big-endian values. The first out-of-range read sets err;
// later reads return zero values, so callers check err once per structure.
type byteReader struct {
	data []byte
	pos  int
	err  error
}

func (r *byteReader) need(n int) bool {
	if r.err != nil {
		return false
	}

	if n < 0 || r.pos+n > len(r.data) {
		r.err = errors.Errorf("%w: unexpected end of data at offset %d", ErrMalformed, r.pos)
		return false
	}

	return true
}

func (r *byteReader) u1() byte {
	if !r.need(1) {
		return 0
	}

	v := r.data[r.pos]
	r.pos++

	return v
}

func (r *byteReader) u2() uint16 {
	if !r.need(2) {
		return 0
	}

	v := binary.BigEndian.Uint16(r.data[r.pos:])
	r.pos += 2

	return v
}

func (r *byteReader) u4() uint32 {
	if !r.need(4) {
		return 0
	}

	v := binary.BigEndian.Uint32(r.data[r.pos:])
	r.pos += 4

	return v
}

func (r *byteReader) s1() int   { return int(int8(r.u1())) }
func (r *byteReader) s2() int   { return int(int16(r.u2())) }
func (r *byteReader) s4() int   { return int(int32(r.u4())) }
func (r *byteReader) eof() bool { return r.pos >= len(r.data) }

func (r *byteReader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}

	v := r.data[r.pos : r.pos+n]
	r.pos += n

	return v
}

// byteWriter appends big-endian values.
type byteWriter struct {
	buf []byte
}

func (w *byteWriter) u1(v int)        { w.buf = append(w.buf, byte(v)) }
func (w *byteWriter) u2(v int)        { w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v)) }
func (w *byteWriter) u4(v int)        { w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v)) }
func (w *byteWriter) write(b []byte)  { w.buf = append(w.buf, b...) }
func (w *byteWriter) len() int        { return len(w.buf) }
func (w *byteWriter) putU2(at, v int) { binary.BigEndian.PutUint16(w.buf[at:], uint16(v)) }
