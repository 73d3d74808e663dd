// Package wire holds the big-endian primitives shared by the binary codecs.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"github.com/signadot/objcodec/descriptor"
)

const (
	VersionEvolvable uint32 = 1
	VersionFixed     uint32 = 2
)

// NullObject is the encoding of a nil top-level value: the version tag
// followed by a zero byte.
func NullObject(version uint32) []byte {
	return append(binary.BigEndian.AppendUint32(nil, version), 0)
}

// Writer appends encoded values to a byte slice.
type Writer struct {
	buf []byte
}

func NewWriter(version uint32) *Writer {
	w := &Writer{}
	w.Uint32(version)
	return w
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) Byte(b byte) { w.buf = append(w.buf, b) }

func (w *Writer) Bool(b bool) {
	if b {
		w.Byte(1)
		return
	}
	w.Byte(0)
}

func (w *Writer) Uint16(u uint16) { w.buf = binary.BigEndian.AppendUint16(w.buf, u) }
func (w *Writer) Uint32(u uint32) { w.buf = binary.BigEndian.AppendUint32(w.buf, u) }
func (w *Writer) Uint64(u uint64) { w.buf = binary.BigEndian.AppendUint64(w.buf, u) }

func (w *Writer) Uvarint(u uint64) { w.buf = binary.AppendUvarint(w.buf, u) }

func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// String writes a uvarint length then the bytes of s.
func (w *Writer) String(s string) {
	w.Uvarint(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// Blob writes a uvarint length then b.
func (w *Writer) Blob(b []byte) {
	w.Uvarint(uint64(len(b)))
	w.buf = append(w.buf, b...)
}

// Frame writes what fn produces behind a uvarint length prefix.
func (w *Writer) Frame(fn func(*Writer) error) error {
	sub := &Writer{}
	if err := fn(sub); err != nil {
		return err
	}
	w.Blob(sub.buf)
	return nil
}

// Int writes i in bits/8 bytes.
func (w *Writer) Int(i int64, bits int) {
	w.Uint(uint64(i), bits)
}

// Uint writes u in bits/8 bytes.
func (w *Writer) Uint(u uint64, bits int) {
	switch bits {
	case 8:
		w.Byte(byte(u))
	case 16:
		w.Uint16(uint16(u))
	case 32:
		w.Uint32(uint32(u))
	default:
		w.Uint64(u)
	}
}

func (w *Writer) Float32(f float32) { w.Uint32(math.Float32bits(f)) }
func (w *Writer) Float64(f float64) { w.Uint64(math.Float64bits(f)) }

// Scalar writes v, of scalar kind k, in its fixed binary form. Textual
// kinds and bytes are length prefixed.
func (w *Writer) Scalar(v reflect.Value, k descriptor.ScalarKind) error {
	x, err := descriptor.ScalarValue(v, k)
	if err != nil {
		return err
	}
	switch y := x.(type) {
	case bool:
		w.Bool(y)
	case int64:
		w.Int(y, k.Bits())
	case uint64:
		w.Uint(y, k.Bits())
	case float64:
		if k == descriptor.Float32Scalar {
			w.Float32(float32(y))
		} else {
			w.Float64(y)
		}
	case string:
		w.String(y)
	case []byte:
		w.Blob(y)
	default:
		return fmt.Errorf("unexpected scalar %T", x)
	}
	return nil
}
