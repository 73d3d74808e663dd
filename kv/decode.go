package kv

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/signadot/objcodec/debug"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/registry"
)

// Unmarshal decodes data into v, a non-nil pointer to a struct or to an
// interface bound to a registry category. Ticked input is unticked
// first. Empty input zeroes v.
func (c *Codec) Unmarshal(data []byte, v any) error {
	return c.Decode(string(data), v)
}

func (c *Codec) Decode(s string, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("kv: Decode needs a non-nil pointer")
	}
	if s == "" {
		rv.Elem().SetZero()
		return nil
	}
	if isTicked(s) {
		s = Untick(s)
	}
	dst := rv.Elem()
	t := dst.Type()
	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		dst.Set(p)
		dst = p.Elem()
		t = dst.Type()
	}
	d, err := c.cache.For(t)
	if err != nil {
		return err
	}
	switch d.Kind {
	case descriptor.Composite, descriptor.Interface:
		return c.decode(s, dst)
	}
	return fmt.Errorf("kv: cannot decode into %s at top level", t)
}

// decode assigns the text s of one non-null pair to the settable dst.
func (c *Codec) decode(s string, dst reflect.Value) error {
	t := dst.Type()
	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		if err := c.decode(s, p.Elem()); err != nil {
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
		return descriptor.SetScalar(dst, d.Scalar, s)
	case descriptor.Composite:
		o, err := split(s)
		if err != nil {
			return err
		}
		return c.fields(o, dst, d)
	case descriptor.Interface:
		return c.polymorphic(s, dst, d)
	case descriptor.Dynamic:
		x, err := dynamicValue(s)
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
	o, err := split(s)
	if err != nil {
		return err
	}
	switch t.Kind() {
	case reflect.Map:
		return c.mapValue(o, dst, t)
	case reflect.Array:
		return c.probe(o, "", dst, t.Len())
	}
	return c.probe(o, "", dst, -1)
}

// probe reads prefix0, prefix1, ... from o into the sequence dst until a
// key is missing or, for arrays, max elements are read. Slices are
// replaced, and are empty rather than nil when no key is present.
func (c *Codec) probe(o *object, prefix string, dst reflect.Value, max int) error {
	t := dst.Type()
	var elems []reflect.Value
	for i := 0; max < 0 || i < max; i++ {
		p, ok := o.get(prefix + strconv.Itoa(i))
		if !ok {
			break
		}
		e := reflect.New(t.Elem()).Elem()
		if !p.null {
			if err := c.decode(p.val, e); err != nil {
				return descriptor.WithIndex(err, i)
			}
		}
		elems = append(elems, e)
	}
	if t.Kind() == reflect.Slice {
		dst.Set(reflect.MakeSlice(t, len(elems), len(elems)))
	}
	for i, e := range elems {
		dst.Index(i).Set(e)
	}
	return nil
}

func (c *Codec) mapValue(o *object, dst reflect.Value, t reflect.Type) error {
	kk := descriptor.ScalarKindOf(t.Key())
	if kk == descriptor.NotScalar {
		return fmt.Errorf("kv: unsupported map key %s", t.Key())
	}
	m := reflect.MakeMapWithSize(t, len(o.pairs))
	for _, p := range o.pairs {
		k := reflect.New(t.Key()).Elem()
		if err := descriptor.SetScalar(k, kk, p.key); err != nil {
			return descriptor.WithKey(err, p.key)
		}
		v := reflect.New(t.Elem()).Elem()
		if !p.null {
			if err := c.decode(p.val, v); err != nil {
				return descriptor.WithKey(err, p.key)
			}
		}
		m.SetMapIndex(k, v)
	}
	dst.Set(m)
	return nil
}

// fields assigns the pairs of o to the fields of dst. Keys no field
// claims are ignored.
func (c *Codec) fields(o *object, dst reflect.Value, d *descriptor.Descriptor) error {
	for _, f := range d.Fields {
		var nv reflect.Value
		if isSequence(f.Type) {
			st := f.Type
			for st.Kind() == reflect.Pointer {
				st = st.Elem()
			}
			if _, ok := o.get(f.Name + "0"); ok {
				sv := reflect.New(st).Elem()
				max := -1
				if st.Kind() == reflect.Array {
					max = st.Len()
				}
				if err := c.probe(o, f.Name, sv, max); err != nil {
					return descriptor.WithField(err, f.Name)
				}
				nv = sv
			} else if _, ok := o.get(f.Name); ok {
				nv = reflect.New(st).Elem()
				if st.Kind() == reflect.Slice {
					nv.Set(reflect.MakeSlice(st, 0, 0))
				}
			}
		} else if p, ok := o.get(f.Name); ok && !p.null {
			nv = reflect.New(f.Type).Elem()
			if err := c.decode(p.val, nv); err != nil {
				return descriptor.WithField(err, f.Name)
			}
		}
		if err := f.Set(dst, nv); err != nil {
			return descriptor.WithField(err, f.Name)
		}
	}
	for _, p := range o.pairs {
		if _, ok := d.Field(p.key); ok || p.key == c.typeKey || indexed(d, p.key) {
			continue
		}
		c.log.Debug("unknown key", "type", d.Type.String(), "key", p.key)
		if debug.Descriptor() {
			debug.Logf("kv: %s has no field for key %q\n", d.Type, p.key)
		}
	}
	descriptor.RunPostDecode(dst)
	return nil
}

// polymorphic resolves the concrete type of an interface slot from the
// type key, falling back to the category default.
func (c *Codec) polymorphic(s string, dst reflect.Value, d *descriptor.Descriptor) error {
	o, err := split(s)
	if err != nil {
		return err
	}
	var ct reflect.Type
	switch p, ok := o.get(c.typeKey); {
	case ok && !p.null:
		if ct, err = d.Resolve(p.val); err != nil {
			return err
		}
	case d.Category != nil && d.Category.Default() != nil:
		ct = d.Category.Default()
	default:
		cat := ""
		if d.Category != nil {
			cat = d.Category.Name
		}
		return &registry.UnresolvedTypeError{Category: cat}
	}
	cd, err := c.cache.For(ct)
	if err != nil {
		return err
	}
	if cd.Kind != descriptor.Composite {
		return fmt.Errorf("%s is not a struct", ct)
	}
	p := reflect.New(cd.Type)
	if err := c.fields(o, p.Elem(), cd); err != nil {
		return err
	}
	val, ok := descriptor.Adapt(p, d.Type)
	if !ok {
		return fmt.Errorf("%s does not implement %s", ct, d.Type)
	}
	dst.Set(val)
	return nil
}

// indexed reports whether key is an element key of a sequence field.
func indexed(d *descriptor.Descriptor, key string) bool {
	i := len(key)
	for i > 0 && key[i-1] >= '0' && key[i-1] <= '9' {
		i--
	}
	if i == len(key) {
		return false
	}
	f, ok := d.Field(key[:i])
	return ok && isSequence(f.Type)
}
