package text

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"

	"github.com/signadot/objcodec/debug"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/registry"
	"github.com/signadot/objcodec/tree"
)

// Decode assigns the tree n to v, a non-nil pointer. Errors carry the
// innermost source position and the field path.
func (c *Codec) Decode(n *tree.Node, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return errors.New("text: Decode needs a non-nil pointer")
	}
	if n == nil || n.Type == tree.NullType {
		rv.Elem().SetZero()
		return nil
	}
	return c.decode(n, rv.Elem())
}

func mismatch(n *tree.Node, want string) error {
	return descriptor.WithPos(&descriptor.MalformedInputError{
		Context: fmt.Sprintf("expected %s, got %s", want, n.Type),
	}, n.Pos)
}

// decode assigns the non-null node n to the settable dst.
func (c *Codec) decode(n *tree.Node, dst reflect.Value) error {
	t := dst.Type()
	if t.Kind() == reflect.Pointer {
		p := reflect.New(t.Elem())
		if err := c.decode(n, p.Elem()); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}
	d, err := c.cache.For(t)
	if err != nil {
		return descriptor.WithPos(err, n.Pos)
	}
	switch d.Kind {
	case descriptor.Scalar:
		return c.scalar(n, dst, d.Scalar)
	case descriptor.Composite:
		if n.Type != tree.ObjectType {
			return mismatch(n, "object")
		}
		return c.fields(n, dst, d)
	case descriptor.Interface:
		return c.polymorphic(n, dst, d)
	case descriptor.Dynamic:
		x := dynamicValue(n)
		if x == nil {
			return nil
		}
		xv := reflect.ValueOf(x)
		if !xv.Type().AssignableTo(t) {
			return descriptor.WithPos(fmt.Errorf("cannot assign %s to %s", xv.Type(), t), n.Pos)
		}
		dst.Set(xv)
		return nil
	}
	switch t.Kind() {
	case reflect.Map:
		return c.mapValue(n, dst, t)
	case reflect.Array:
		if n.Type != tree.ArrayType {
			return mismatch(n, "array")
		}
		if len(n.Values) > t.Len() {
			return descriptor.WithPos(&descriptor.MalformedInputError{
				Context: fmt.Sprintf("%d elements for %s", len(n.Values), t),
			}, n.Pos)
		}
		return c.elements(n, dst)
	}
	if n.Type != tree.ArrayType {
		return mismatch(n, "array")
	}
	dst.Set(reflect.MakeSlice(t, len(n.Values), len(n.Values)))
	return c.elements(n, dst)
}

func (c *Codec) elements(n *tree.Node, seq reflect.Value) error {
	for i, e := range n.Values {
		if e.Type == tree.NullType {
			continue
		}
		if err := c.decode(e, seq.Index(i)); err != nil {
			return descriptor.WithIndex(err, i)
		}
	}
	return nil
}

func (c *Codec) mapValue(n *tree.Node, dst reflect.Value, t reflect.Type) error {
	if n.Type != tree.ObjectType {
		return mismatch(n, "object")
	}
	kk := descriptor.ScalarKindOf(t.Key())
	if kk == descriptor.NotScalar {
		return descriptor.WithPos(fmt.Errorf("unsupported map key %s", t.Key()), n.Pos)
	}
	m := reflect.MakeMapWithSize(t, len(n.Fields))
	for i, f := range n.Fields {
		k := reflect.New(t.Key()).Elem()
		if err := descriptor.SetScalar(k, kk, f.String); err != nil {
			return descriptor.WithPos(err, f.Pos)
		}
		v := reflect.New(t.Elem()).Elem()
		if vn := n.Values[i]; vn.Type != tree.NullType {
			if err := c.decode(vn, v); err != nil {
				return descriptor.WithKey(err, f.String)
			}
		}
		m.SetMapIndex(k, v)
	}
	dst.Set(m)
	return nil
}

func (c *Codec) scalar(n *tree.Node, dst reflect.Value, k descriptor.ScalarKind) error {
	if !n.Type.IsLeaf() {
		return mismatch(n, "scalar")
	}
	x := n.Scalar()
	switch {
	case k == descriptor.BytesScalar:
		s, ok := x.(string)
		if !ok {
			return mismatch(n, "base64 string")
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return descriptor.WithPos(&descriptor.ConversionError{Value: s, Target: "bytes", Err: err}, n.Pos)
		}
		dst.SetBytes(b)
		return nil
	case k == descriptor.DecimalScalar && n.Type == tree.NumberType && n.Number != "":
		x = n.Number
	}
	if err := descriptor.SetScalar(dst, k, x); err != nil {
		return descriptor.WithPos(err, n.Pos)
	}
	return nil
}

// fields assigns the keys of object n to the fields of dst. The type key
// is consumed by the caller; other unknown keys become warnings.
func (c *Codec) fields(n *tree.Node, dst reflect.Value, d *descriptor.Descriptor) error {
	for _, f := range d.Fields {
		if f.WriteOnly() {
			continue
		}
		vn := n.Get(f.Name)
		if vn == nil || vn.Type == tree.NullType {
			if dv, ok := c.lookupDefault(d, f); ok {
				vn = dv
				vn.Pos = n.Pos
			}
		}
		if vn == nil || vn.Type == tree.NullType {
			if err := f.SetAt(dst, reflect.Value{}, n.Pos); err != nil {
				return descriptor.WithField(err, f.Name)
			}
			continue
		}
		nv := reflect.New(f.Type).Elem()
		if err := c.decode(vn, nv); err != nil {
			return descriptor.WithField(err, f.Name)
		}
		if err := f.SetAt(dst, nv, vn.Pos); err != nil {
			return descriptor.WithField(err, f.Name)
		}
	}
	for i, kn := range n.Fields {
		key := kn.String
		if key == c.typeKey {
			continue
		}
		if _, ok := d.Field(key); ok {
			continue
		}
		w := Warning{Pos: kn.Pos, Path: n.Values[i].Path(), Key: key}
		c.log.Debug("unknown key", "type", d.Type.String(), "key", key, "pos", kn.Pos.String())
		if debug.Text() {
			debug.Logf("text: %s\n", w)
		}
		if c.warn != nil {
			c.warn(w)
		}
	}
	descriptor.RunPostDecode(dst)
	return nil
}

func (c *Codec) lookupDefault(d *descriptor.Descriptor, f *descriptor.Field) (*tree.Node, bool) {
	if c.defaults == nil {
		return nil, false
	}
	x, ok := c.defaults.Lookup(d.TypeName(), f.Name)
	if !ok {
		return nil, false
	}
	n, err := dynamicNode(reflect.ValueOf(x))
	if err != nil {
		c.log.Debug("unusable default", "type", d.TypeName(), "field", f.Name, "error", err)
		return nil, false
	}
	return n, true
}

// polymorphic resolves the concrete type for an interface slot:
// explicit type key or tag, then a single key naming a type, then the
// category default. A bare string names an empty instance and an array
// is wrapped into the category's array sugar type. Without a default, a
// lone key close to a registered name is reported as a misspelling.
func (c *Codec) polymorphic(n *tree.Node, dst reflect.Value, d *descriptor.Descriptor) error {
	cat := d.Category
	var (
		ct   reflect.Type
		body = n
		err  error
	)
	switch {
	case n.Tag != "":
		ct, err = cat.Resolve(n.Tag)
	case n.Type == tree.ObjectType && n.Get(c.typeKey) != nil:
		tn := n.Get(c.typeKey)
		if tn.Type != tree.StringType {
			return mismatch(tn, "type name")
		}
		ct, err = cat.Resolve(tn.String)
		if err != nil {
			return descriptor.WithPos(err, tn.Pos)
		}
	case n.Type == tree.ObjectType && len(n.Fields) == 1 && cat.Has(n.Fields[0].String):
		ct, err = cat.Resolve(n.Fields[0].String)
		body = n.Values[0]
		switch body.Type {
		case tree.NullType:
			body = tree.NewObject()
			body.Pos = n.Values[0].Pos
		case tree.ObjectType:
		default:
			return mismatch(body, "object")
		}
	case n.Type == tree.StringType:
		ct, err = cat.Resolve(n.String)
		body = tree.NewObject()
		body.Pos = n.Pos
	case n.Type == tree.ArrayType:
		st, field := cat.ArraySugar()
		if st == nil {
			return mismatch(n, "object")
		}
		ct = st
		body = tree.NewObject().Set(field, n)
		body.Pos = n.Pos
	case n.Type == tree.ObjectType && cat.Default() != nil:
		ct = cat.Default()
	case n.Type == tree.ObjectType:
		ue := &registry.UnresolvedTypeError{Category: cat.Name}
		if len(n.Fields) == 1 {
			if sug := cat.Suggest(n.Fields[0].String, 3); len(sug) > 0 {
				ue.Name, ue.Suggestions = n.Fields[0].String, sug
			}
		}
		err = ue
	default:
		return mismatch(n, "object")
	}
	if err != nil {
		return descriptor.WithPos(err, n.Pos)
	}
	cd, err := c.cache.For(ct)
	if err != nil {
		return descriptor.WithPos(err, n.Pos)
	}
	if cd.Kind != descriptor.Composite {
		return descriptor.WithPos(fmt.Errorf("%s is not a struct", ct), n.Pos)
	}
	p := reflect.New(cd.Type)
	if err := c.fields(body, p.Elem(), cd); err != nil {
		return err
	}
	val, ok := descriptor.Adapt(p, d.Type)
	if !ok {
		return descriptor.WithPos(fmt.Errorf("%s does not implement %s", ct, d.Type), n.Pos)
	}
	dst.Set(val)
	return nil
}

// dynamicValue converts n to plain Go values for an unbound slot.
func dynamicValue(n *tree.Node) any {
	switch n.Type {
	case tree.ObjectType:
		m := make(map[string]any, len(n.Fields))
		for i, f := range n.Fields {
			m[f.String] = dynamicValue(n.Values[i])
		}
		return m
	case tree.ArrayType:
		res := make([]any, len(n.Values))
		for i, e := range n.Values {
			res[i] = dynamicValue(e)
		}
		return res
	}
	return n.Scalar()
}
