package fixed

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/internal/wire"
)

// Unmarshal decodes data into v, which must be a non-nil pointer to a
// value of the type that was encoded.
func (c *Codec) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("fixed: Unmarshal needs a non-nil pointer")
	}
	r, err := wire.ReadHeader(data, wire.VersionFixed)
	if err != nil {
		return err
	}
	present, err := r.Bool()
	if err != nil {
		return err
	}
	if !present {
		rv.Elem().SetZero()
		return nil
	}
	if err := c.decodeValue(r, rv.Elem()); err != nil {
		return err
	}
	if !r.Done() {
		return &descriptor.MalformedInputError{Context: fmt.Sprintf("%d trailing bytes", r.Remaining())}
	}
	return nil
}

// decodeSlot reads a presence byte and, if set, a value into dst. It
// reports whether a value was present.
func (c *Codec) decodeSlot(r *wire.Reader, dst reflect.Value) (bool, error) {
	present, err := r.Bool()
	if err != nil || !present {
		return false, err
	}
	return true, c.decodeValue(r, dst)
}

func (c *Codec) decodeValue(r *wire.Reader, dst reflect.Value) error {
	t := dst.Type()
	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		if err := c.decodeValue(r, p.Elem()); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	d, err := c.cache.For(t)
	if err != nil {
		return err
	}
	switch d.Kind {
	case descriptor.Scalar:
		return r.Scalar(dst, d.Scalar)
	case descriptor.Composite:
		if d.Polymorphic() {
			name, err := r.String()
			if err != nil {
				return err
			}
			if err := c.checkName(name, d); err != nil {
				return err
			}
		}
		return c.decodeFields(r, dst, d)
	case descriptor.Interface:
		name, err := r.String()
		if err != nil {
			return err
		}
		ct, err := d.Resolve(name)
		if err != nil {
			return err
		}
		cd, err := c.cache.For(ct)
		if err != nil {
			return err
		}
		p := reflect.New(cd.Type)
		if err := c.decodeFields(r, p.Elem(), cd); err != nil {
			return err
		}
		val, ok := descriptor.Adapt(p, t)
		if !ok {
			return fmt.Errorf("%s does not implement %s", ct, t)
		}
		dst.Set(val)
		return nil
	case descriptor.Dynamic:
		x, err := r.Dynamic()
		if err != nil || x == nil {
			return err
		}
		xv := reflect.ValueOf(x)
		if !xv.Type().AssignableTo(t) {
			return fmt.Errorf("cannot assign %s to %s", xv.Type(), t)
		}
		dst.Set(xv)
		return nil
	}
	if t.Kind() == reflect.Map {
		return c.decodeMap(r, dst, t)
	}
	return c.decodeSequence(r, dst, t)
}

// checkName fails unless the type name read ahead of a struct names the
// slot's own type, since the field layout that follows depends on it.
func (c *Codec) checkName(name string, d *descriptor.Descriptor) error {
	if name == d.TypeName() {
		return nil
	}
	ct, err := d.Resolve(name)
	if err != nil {
		return err
	}
	if ct != d.Type {
		return &descriptor.MalformedInputError{Context: fmt.Sprintf("fixed: %s written where %s is expected", ct, d.Type)}
	}
	return nil
}

func (c *Codec) decodeFields(r *wire.Reader, dst reflect.Value, d *descriptor.Descriptor) error {
	for _, f := range d.Fields {
		nv := reflect.New(f.Type).Elem()
		present, err := c.decodeSlot(r, nv)
		if err != nil {
			return descriptor.WithField(err, f.Name)
		}
		if !present {
			nv = reflect.Value{}
		}
		if err := f.Set(dst, nv); err != nil {
			return descriptor.WithField(err, f.Name)
		}
	}
	descriptor.RunPostDecode(dst)
	return nil
}

func (c *Codec) decodeMap(r *wire.Reader, dst reflect.Value, t reflect.Type) error {
	n, err := r.Count()
	if err != nil {
		return err
	}
	m := reflect.MakeMapWithSize(t, n)
	for range n {
		k := reflect.New(t.Key()).Elem()
		if _, err := c.decodeSlot(r, k); err != nil {
			return err
		}
		v := reflect.New(t.Elem()).Elem()
		if _, err := c.decodeSlot(r, v); err != nil {
			return descriptor.WithKey(err, k)
		}
		m.SetMapIndex(k, v)
	}
	dst.Set(m)
	return nil
}

func (c *Codec) decodeSequence(r *wire.Reader, dst reflect.Value, t reflect.Type) error {
	n, err := r.Count()
	if err != nil {
		return err
	}
	seq := dst
	switch t.Kind() {
	case reflect.Slice:
		seq = reflect.MakeSlice(t, n, n)
	case reflect.Array:
		if n != t.Len() {
			return &descriptor.MalformedInputError{Context: fmt.Sprintf("%d elements for %s", n, t)}
		}
	}
	et := t.Elem()
	k := descriptor.ScalarKindOf(et)
	switch {
	case k.Signed() && et.Kind() != reflect.Struct:
		bits := k.Bits()
		for i := range n {
			x, err := r.Int(bits)
			if err != nil {
				return descriptor.WithIndex(err, i)
			}
			seq.Index(i).SetInt(x)
		}
	case k.Unsigned() && et.Kind() != reflect.Struct:
		bits := k.Bits()
		for i := range n {
			x, err := r.Uint(bits)
			if err != nil {
				return descriptor.WithIndex(err, i)
			}
			seq.Index(i).SetUint(x)
		}
	case k == descriptor.Float32Scalar:
		for i := range n {
			x, err := r.Float32()
			if err != nil {
				return descriptor.WithIndex(err, i)
			}
			seq.Index(i).SetFloat(float64(x))
		}
	case k == descriptor.Float64Scalar:
		for i := range n {
			x, err := r.Float64()
			if err != nil {
				return descriptor.WithIndex(err, i)
			}
			seq.Index(i).SetFloat(x)
		}
	case k == descriptor.BoolScalar:
		for i := range n {
			x, err := r.Bool()
			if err != nil {
				return descriptor.WithIndex(err, i)
			}
			seq.Index(i).SetBool(x)
		}
	case k == descriptor.EnumScalar:
		for i := range n {
			name, err := r.String()
			if err != nil {
				return descriptor.WithIndex(err, i)
			}
			if err := descriptor.SetEnumName(seq.Index(i), name); err != nil {
				return descriptor.WithIndex(err, i)
			}
		}
	default:
		for i := range n {
			if _, err := c.decodeSlot(r, seq.Index(i)); err != nil {
				return descriptor.WithIndex(err, i)
			}
		}
	}
	if t.Kind() == reflect.Slice {
		dst.Set(seq)
	}
	return nil
}
