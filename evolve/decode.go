package evolve

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/signadot/objcodec/debug"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/internal/wire"
)

// Unmarshal decodes data into v, which must be a non-nil pointer. Fields
// of v absent from data are left as they are unless required.
func (c *Codec) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("evolve: Unmarshal needs a non-nil pointer")
	}
	r, err := wire.ReadHeader(data, wire.VersionEvolvable)
	if err != nil {
		return err
	}
	fr, err := r.Frame()
	if err != nil {
		return err
	}
	if fr.Done() {
		rv.Elem().SetZero()
		return nil
	}
	return c.decodeValue(fr, rv.Elem())
}

// decodeValue decodes the payload in r into the settable dst.
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
		if d.Scalar == descriptor.BytesScalar {
			dst.SetBytes(append([]byte(nil), r.Rest()...))
			return nil
		}
		return r.Scalar(dst, d.Scalar)
	case descriptor.Composite:
		name, err := r.String()
		if err != nil {
			return err
		}
		if debug.Merge() && name != d.TypeName() {
			debug.Logf("evolve: decoding %q into %s\n", name, t)
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
	return c.decodeContainer(r, dst, d)
}

// decodeFields merge-joins the field frames in r against d's sorted fields.
func (c *Codec) decodeFields(r *wire.Reader, dst reflect.Value, d *descriptor.Descriptor) error {
	fields := d.Fields
	i := 0
	setNull := func(f *descriptor.Field) error {
		if err := f.Set(dst, reflect.Value{}); err != nil {
			return descriptor.WithField(err, f.Name)
		}
		return nil
	}
	for !r.Done() {
		fr, err := r.Frame()
		if err != nil {
			return err
		}
		name, err := fr.String()
		if err != nil {
			return err
		}
		for i < len(fields) && fields[i].Name < name {
			if err := setNull(fields[i]); err != nil {
				return err
			}
			i++
		}
		if i == len(fields) || fields[i].Name != name {
			c.log.Debug("dropping unknown field", "type", d.Type.String(), "field", name)
			if debug.Merge() {
				debug.Logf("evolve: %s drops %q\n", d.Type, name)
			}
			continue
		}
		f := fields[i]
		i++
		nv := reflect.New(f.Type).Elem()
		if err := c.decodeValue(fr, nv); err != nil {
			return descriptor.WithField(err, f.Name)
		}
		if err := f.Set(dst, nv); err != nil {
			return descriptor.WithField(err, f.Name)
		}
	}
	for ; i < len(fields); i++ {
		if err := setNull(fields[i]); err != nil {
			return err
		}
	}
	descriptor.RunPostDecode(dst)
	return nil
}

func (c *Codec) decodeContainer(r *wire.Reader, dst reflect.Value, d *descriptor.Descriptor) error {
	t := d.Type
	n, err := r.Count()
	if err != nil {
		return err
	}
	switch t.Kind() {
	case reflect.Map:
		m := reflect.MakeMapWithSize(t, n)
		for range n {
			k := reflect.New(t.Key()).Elem()
			if err := c.decodeElem(r, k); err != nil {
				return err
			}
			v := reflect.New(t.Elem()).Elem()
			if err := c.decodeElem(r, v); err != nil {
				return descriptor.WithKey(err, k)
			}
			m.SetMapIndex(k, v)
		}
		dst.Set(m)
	case reflect.Slice:
		s := reflect.MakeSlice(t, n, n)
		for i := range n {
			if err := c.decodeElem(r, s.Index(i)); err != nil {
				return descriptor.WithIndex(err, i)
			}
		}
		dst.Set(s)
	case reflect.Array:
		if n > t.Len() {
			return &descriptor.MalformedInputError{Context: fmt.Sprintf("%d elements for %s", n, t)}
		}
		for i := range n {
			if err := c.decodeElem(r, dst.Index(i)); err != nil {
				return descriptor.WithIndex(err, i)
			}
		}
	}
	return nil
}

func (c *Codec) decodeElem(r *wire.Reader, dst reflect.Value) error {
	if k, ok := packed(dst.Type()); ok {
		return r.Scalar(dst, k)
	}
	present, err := r.Bool()
	if err != nil || !present {
		return err
	}
	fr, err := r.Frame()
	if err != nil {
		return err
	}
	return c.decodeValue(fr, dst)
}
