package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/signadot/objcodec/descriptor"
)

// ErrShort is wrapped by errors for input that ends early.
var ErrShort = errors.New("short input")

func malformed(ctx string, err error) error {
	return &descriptor.MalformedInputError{Context: ctx, Err: err}
}

// Reader consumes a bounded byte slice.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// ReadHeader reads the version tag of data, failing with
// *descriptor.VersionMismatchError unless it is want.
func ReadHeader(data []byte, want uint32) (*Reader, error) {
	r := NewReader(data)
	v, err := r.Uint32()
	if err != nil {
		return nil, malformed("version tag", err)
	}
	if v != want {
		return nil, &descriptor.VersionMismatchError{Found: v, Expected: want}
	}
	return r, nil
}

func (r *Reader) Remaining() int { return len(r.buf) - r.off }
func (r *Reader) Done() bool     { return r.off >= len(r.buf) }
func (r *Reader) Offset() int    { return r.off }

// Rest consumes and returns everything left.
func (r *Reader) Rest() []byte {
	b := r.buf[r.off:]
	r.off = len(r.buf)
	return b
}

func (r *Reader) Take(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, malformed(fmt.Sprintf("need %d bytes at offset %d, have %d", n, r.off, r.Remaining()), ErrShort)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) Byte() (byte, error) {
	b, err := r.Take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) Bool() (bool, error) {
	b, err := r.Byte()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, malformed(fmt.Sprintf("bad bool byte %d", b), nil)
}

func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *Reader) Uvarint() (uint64, error) {
	u, n := binary.Uvarint(r.buf[r.off:])
	switch {
	case n == 0:
		return 0, malformed(fmt.Sprintf("uvarint at offset %d", r.off), ErrShort)
	case n < 0:
		return 0, malformed(fmt.Sprintf("uvarint overflow at offset %d", r.off), nil)
	}
	r.off += n
	return u, nil
}

// Count reads an element count, rejecting counts that the remaining input
// could not hold at one byte per element.
func (r *Reader) Count() (int, error) {
	u, err := r.Uvarint()
	if err != nil {
		return 0, err
	}
	if u > uint64(r.Remaining()) {
		return 0, malformed(fmt.Sprintf("count %d exceeds remaining %d bytes", u, r.Remaining()), ErrShort)
	}
	return int(u), nil
}

func (r *Reader) Blob() ([]byte, error) {
	u, err := r.Uvarint()
	if err != nil {
		return nil, err
	}
	if u > uint64(r.Remaining()) {
		return nil, malformed(fmt.Sprintf("length %d exceeds remaining %d bytes", u, r.Remaining()), ErrShort)
	}
	return r.Take(int(u))
}

func (r *Reader) String() (string, error) {
	b, err := r.Blob()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Frame reads a length-prefixed frame as a sub-reader.
func (r *Reader) Frame() (*Reader, error) {
	b, err := r.Blob()
	if err != nil {
		return nil, err
	}
	return NewReader(b), nil
}

func (r *Reader) Int(bits int) (int64, error) {
	u, err := r.Uint(bits)
	if err != nil {
		return 0, err
	}
	switch bits {
	case 8:
		return int64(int8(u)), nil
	case 16:
		return int64(int16(u)), nil
	case 32:
		return int64(int32(u)), nil
	}
	return int64(u), nil
}

func (r *Reader) Uint(bits int) (uint64, error) {
	switch bits {
	case 8:
		b, err := r.Byte()
		return uint64(b), err
	case 16:
		u, err := r.Uint16()
		return uint64(u), err
	case 32:
		u, err := r.Uint32()
		return uint64(u), err
	}
	return r.Uint64()
}

func (r *Reader) Float32() (float32, error) {
	u, err := r.Uint32()
	return math.Float32frombits(u), err
}

func (r *Reader) Float64() (float64, error) {
	u, err := r.Uint64()
	return math.Float64frombits(u), err
}

// ScalarValue reads the canonical value of a scalar of kind k.
func (r *Reader) ScalarValue(k descriptor.ScalarKind) (any, error) {
	switch {
	case k == descriptor.BoolScalar || k == descriptor.AtomicBoolScalar:
		return r.Bool()
	case k.Signed():
		return r.Int(k.Bits())
	case k.Unsigned():
		return r.Uint(k.Bits())
	case k == descriptor.Float32Scalar:
		f, err := r.Float32()
		return float64(f), err
	case k == descriptor.Float64Scalar:
		return r.Float64()
	case k == descriptor.BytesScalar:
		b, err := r.Blob()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	case k.Textual():
		return r.String()
	}
	return nil, fmt.Errorf("not a scalar kind: %s", k)
}

// Scalar reads a scalar of kind k into v, which must be settable.
func (r *Reader) Scalar(v reflect.Value, k descriptor.ScalarKind) error {
	x, err := r.ScalarValue(k)
	if err != nil {
		return err
	}
	return descriptor.SetScalar(v, k, x)
}
