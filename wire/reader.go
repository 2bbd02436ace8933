package wire

import (
	"unsafe"

	"google.golang.org/protobuf/encoding/protowire"
)

// Reader is a positional cursor over one wire-encoded message. All
// length-delimited payloads are returned as sub-slices of the buffer the
// reader was created with; the reader never copies.
type Reader struct {
	buf []byte
	pos int
}

// NewReader creates a reader over the given buffer.
func NewReader(data []byte) *Reader {
	return &Reader{buf: data}
}

// EOF reports whether the reader has consumed the whole buffer.
func (r *Reader) EOF() bool {
	return r.pos >= len(r.buf)
}

// ReadTag reads the next field tag.
func (r *Reader) ReadTag() (protowire.Number, protowire.Type, error) {
	num, typ, n := protowire.ConsumeTag(r.buf[r.pos:])
	if n < 0 {
		return 0, 0, parseError(n)
	}
	r.pos += n
	return num, typ, nil
}

// ReadVarint reads one base-128 varint.
func (r *Reader) ReadVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(r.buf[r.pos:])
	if n < 0 {
		return 0, parseError(n)
	}
	r.pos += n
	return v, nil
}

// ReadFixed32 reads one little-endian 32-bit value.
func (r *Reader) ReadFixed32() (uint32, error) {
	v, n := protowire.ConsumeFixed32(r.buf[r.pos:])
	if n < 0 {
		return 0, parseError(n)
	}
	r.pos += n
	return v, nil
}

// ReadFixed64 reads one little-endian 64-bit value.
func (r *Reader) ReadFixed64() (uint64, error) {
	v, n := protowire.ConsumeFixed64(r.buf[r.pos:])
	if n < 0 {
		return 0, parseError(n)
	}
	r.pos += n
	return v, nil
}

// ReadBytes reads one length-delimited payload. The returned slice aliases
// the reader's buffer and must not be retained past the buffer's lifetime.
func (r *Reader) ReadBytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(r.buf[r.pos:])
	if n < 0 {
		return nil, parseError(n)
	}
	r.pos += n
	return v, nil
}

// ReadString reads one length-delimited payload as a string view over the
// reader's buffer. The string must not be retained past the buffer's
// lifetime.
func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return asString(b), nil
}

// Skip consumes and discards one field value of the given wire type,
// including nested groups.
func (r *Reader) Skip(num protowire.Number, typ protowire.Type) error {
	n := protowire.ConsumeFieldValue(num, typ, r.buf[r.pos:])
	if n < 0 {
		return parseError(n)
	}
	r.pos += n
	return nil
}

// asString reinterprets a byte slice as a string without copying. The
// result aliases b's backing array.
func asString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}
