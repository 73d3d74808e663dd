package evolve

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/internal/wire"
)

// Codec encodes and decodes the evolvable binary format.
type Codec struct {
	cache *descriptor.Cache
	log   *slog.Logger
}

type Option func(*Codec)

func WithCache(c *descriptor.Cache) Option {
	return func(x *Codec) { x.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(x *Codec) { x.log = l }
}

func New(opts ...Option) *Codec {
	c := &Codec{cache: descriptor.Default(), log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

var std = New()

func Marshal(v any) ([]byte, error) {
	return std.Marshal(v)
}

func Unmarshal(data []byte, v any) error {
	return std.Unmarshal(data, v)
}

// Marshal encodes v. A nil v, or nil pointer, encodes as the null object.
func (c *Codec) Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if descriptor.IsNil(rv) {
		return wire.NullObject(wire.VersionEvolvable), nil
	}
	w := wire.NewWriter(wire.VersionEvolvable)
	err := w.Frame(func(fw *wire.Writer) error {
		return c.encodeValue(fw, rv, rv.Type())
	})
	if err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// encodeValue writes the payload of a non-nil v whose static type is t.
func (c *Codec) encodeValue(w *wire.Writer, v reflect.Value, t reflect.Type) error {
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	d, err := c.cache.For(t)
	if err != nil {
		return err
	}
	switch d.Kind {
	case descriptor.Scalar:
		if d.Scalar == descriptor.BytesScalar {
			w.Raw(v.Bytes())
			return nil
		}
		return w.Scalar(v, d.Scalar)
	case descriptor.Composite:
		return c.encodeStruct(w, v, d, d.TypeName())
	case descriptor.Interface:
		cv := v.Elem()
		for cv.Kind() == reflect.Pointer {
			cv = cv.Elem()
		}
		cd, err := c.cache.For(cv.Type())
		if err != nil {
			return err
		}
		if cd.Kind != descriptor.Composite {
			return fmt.Errorf("%s held by %s is not a struct", cv.Type(), t)
		}
		return c.encodeStruct(w, cv, cd, d.NameFor(cv.Type()))
	case descriptor.Dynamic:
		return w.Dynamic(v.Interface())
	}
	return c.encodeContainer(w, v, d)
}

func (c *Codec) encodeStruct(w *wire.Writer, v reflect.Value, d *descriptor.Descriptor, name string) error {
	if !v.CanAddr() {
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		v = cp
	}
	descriptor.RunPreEncode(v)
	w.String(name)
	return descriptor.WithLock(v, func() error {
		for _, f := range d.Fields {
			fv := f.Get(v)
			if descriptor.IsNil(fv) {
				continue
			}
			err := w.Frame(func(fw *wire.Writer) error {
				fw.String(f.Name)
				return c.encodeValue(fw, fv, f.Type)
			})
			if err != nil {
				return descriptor.WithField(err, f.Name)
			}
		}
		return nil
	})
}

func (c *Codec) encodeContainer(w *wire.Writer, v reflect.Value, d *descriptor.Descriptor) error {
	t := d.Type
	if t.Kind() == reflect.Map {
		w.Uvarint(uint64(v.Len()))
		for _, k := range descriptor.SortedKeys(v) {
			if err := c.encodeElem(w, k, t.Key()); err != nil {
				return descriptor.WithKey(err, k)
			}
			if err := c.encodeElem(w, v.MapIndex(k), t.Elem()); err != nil {
				return descriptor.WithKey(err, k)
			}
		}
		return nil
	}
	w.Uvarint(uint64(v.Len()))
	for i := 0; i < v.Len(); i++ {
		if err := c.encodeElem(w, v.Index(i), t.Elem()); err != nil {
			return descriptor.WithIndex(err, i)
		}
	}
	return nil
}

// packed reports whether elements of type t are written bare.
func packed(t reflect.Type) (descriptor.ScalarKind, bool) {
	k := descriptor.ScalarKindOf(t)
	return k, k != descriptor.NotScalar && k != descriptor.BytesScalar
}

func (c *Codec) encodeElem(w *wire.Writer, v reflect.Value, t reflect.Type) error {
	if k, ok := packed(t); ok {
		return w.Scalar(v, k)
	}
	if descriptor.IsNil(v) {
		w.Byte(0)
		return nil
	}
	w.Byte(1)
	return w.Frame(func(fw *wire.Writer) error {
		return c.encodeValue(fw, v, t)
	})
}
