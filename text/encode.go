package text

import (
	"encoding/base64"
	"fmt"
	"reflect"

	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/tree"
)

// Encode builds the tree for v. A struct bound to a registry category is
// tagged with its type name at top level so it can be decoded into the
// category's base.
func (c *Codec) Encode(v any) (*tree.Node, error) {
	rv := reflect.ValueOf(v)
	if descriptor.IsNil(rv) {
		return tree.Null(), nil
	}
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	d, err := c.cache.For(rv.Type())
	if err != nil {
		return nil, err
	}
	if d.Kind == descriptor.Composite && d.Category != nil && !d.Category.IsDefault(d.Type) {
		return c.object(rv, d, d.TypeName())
	}
	return c.value(rv, rv.Type())
}

func (c *Codec) value(v reflect.Value, t reflect.Type) (*tree.Node, error) {
	if descriptor.IsNil(v) {
		return tree.Null(), nil
	}
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	d, err := c.cache.For(t)
	if err != nil {
		return nil, err
	}
	switch d.Kind {
	case descriptor.Scalar:
		return scalarNode(v, d.Scalar)
	case descriptor.Composite:
		return c.object(v, d, "")
	case descriptor.Interface:
		cv := v.Elem()
		for cv.Kind() == reflect.Pointer {
			cv = cv.Elem()
		}
		cd, err := c.cache.For(cv.Type())
		if err != nil {
			return nil, err
		}
		if cd.Kind != descriptor.Composite {
			return nil, fmt.Errorf("%s held by %s is not a struct", cv.Type(), t)
		}
		name := ""
		if !d.Category.IsDefault(cv.Type()) {
			name = d.NameFor(cv.Type())
		}
		return c.object(cv, cd, name)
	case descriptor.Dynamic:
		return dynamicNode(v.Elem())
	}
	if t.Kind() == reflect.Map {
		return c.mapNode(v, t)
	}
	res := &tree.Node{Type: tree.ArrayType}
	for i := 0; i < v.Len(); i++ {
		e, err := c.value(v.Index(i), t.Elem())
		if err != nil {
			return nil, descriptor.WithIndex(err, i)
		}
		res.Append(e)
	}
	return res, nil
}

func (c *Codec) object(v reflect.Value, d *descriptor.Descriptor, typeName string) (*tree.Node, error) {
	if !v.CanAddr() {
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		v = cp
	}
	res := tree.NewObject()
	if typeName != "" {
		res.Set(c.typeKey, tree.FromString(typeName))
	}
	descriptor.RunPreEncode(v)
	err := descriptor.WithLock(v, func() error {
		for _, f := range d.Fields {
			if f.ReadOnly() {
				continue
			}
			fv := f.Get(v)
			if descriptor.IsNil(fv) {
				continue
			}
			n, err := c.value(fv, f.Type)
			if err != nil {
				return descriptor.WithField(err, f.Name)
			}
			res.Set(f.Name, n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Codec) mapNode(v reflect.Value, t reflect.Type) (*tree.Node, error) {
	res := tree.NewObject()
	kk := descriptor.ScalarKindOf(t.Key())
	for _, k := range descriptor.SortedKeys(v) {
		var key string
		if kk != descriptor.NotScalar {
			s, err := descriptor.FormatScalar(k, kk)
			if err != nil {
				return nil, descriptor.WithKey(err, k)
			}
			key = s
		} else {
			key = fmt.Sprint(k)
		}
		n, err := c.value(v.MapIndex(k), t.Elem())
		if err != nil {
			return nil, descriptor.WithKey(err, key)
		}
		res.Set(key, n)
	}
	return res, nil
}

func scalarNode(v reflect.Value, k descriptor.ScalarKind) (*tree.Node, error) {
	x, err := descriptor.ScalarValue(v, k)
	if err != nil {
		return nil, err
	}
	switch y := x.(type) {
	case string:
		return tree.FromString(y), nil
	case bool:
		return tree.FromBool(y), nil
	case int64:
		return tree.FromInt(y), nil
	case uint64:
		return tree.FromUint(y), nil
	case float64:
		return tree.FromFloat(y), nil
	case []byte:
		return tree.FromString(base64.StdEncoding.EncodeToString(y)), nil
	}
	return nil, fmt.Errorf("unexpected scalar %T", x)
}

// dynamicNode renders the content of an unbound interface slot.
func dynamicNode(v reflect.Value) (*tree.Node, error) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return tree.Null(), nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return tree.Null(), nil
	}
	switch v.Kind() {
	case reflect.Bool:
		return tree.FromBool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return tree.FromInt(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return tree.FromUint(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return tree.FromFloat(v.Float()), nil
	case reflect.String:
		return tree.FromString(v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 && v.Kind() == reflect.Slice {
			return tree.FromString(base64.StdEncoding.EncodeToString(v.Bytes())), nil
		}
		res := &tree.Node{Type: tree.ArrayType}
		for i := 0; i < v.Len(); i++ {
			e, err := dynamicNode(v.Index(i))
			if err != nil {
				return nil, descriptor.WithIndex(err, i)
			}
			res.Append(e)
		}
		return res, nil
	case reflect.Map:
		res := tree.NewObject()
		for _, k := range descriptor.SortedKeys(v) {
			e, err := dynamicNode(v.MapIndex(k))
			if err != nil {
				return nil, descriptor.WithKey(err, k)
			}
			res.Set(fmt.Sprint(k), e)
		}
		return res, nil
	}
	return nil, fmt.Errorf("cannot encode %s in a dynamic slot", v.Type())
}
