// Package kv implements the flat key=value format.
//
// A struct encodes as its non-nil fields in descriptor order, joined by
// '&' with query-escaped values:
//
//	name=ada&pets0=...&pets1=...&tags=k%3Dv
//
// Sequence fields expand to indexed keys; an empty one is its bare name.
// Nested structs and maps encode
// to a KV string stored as one escaped value, nested sequences to a KV
// string keyed 0, 1, ... and polymorphic values carry a type key. Values
// of untyped (any) slots are tagged with their kind. A null element is
// written as its bare key.
package kv

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"

	"github.com/signadot/objcodec/descriptor"
)

// DefaultTypeKey holds the type name of a polymorphic value.
const DefaultTypeKey = "type"

// Codec encodes and decodes KV strings.
type Codec struct {
	cache   *descriptor.Cache
	log     *slog.Logger
	typeKey string
	tick    bool
}

type Option func(*Codec)

func WithCache(c *descriptor.Cache) Option {
	return func(x *Codec) { x.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(x *Codec) { x.log = l }
}

func WithTypeKey(k string) Option {
	return func(x *Codec) { x.typeKey = k }
}

// WithTick makes Marshal apply Tick to its output.
func WithTick() Option {
	return func(x *Codec) { x.tick = true }
}

func New(opts ...Option) *Codec {
	c := &Codec{cache: descriptor.Default(), log: slog.Default(), typeKey: DefaultTypeKey}
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

// Marshal encodes v, a struct or pointer to one. A nil v encodes as the
// empty string.
func (c *Codec) Marshal(v any) ([]byte, error) {
	s, err := c.Encode(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (c *Codec) Encode(v any) (string, error) {
	rv := reflect.ValueOf(v)
	if descriptor.IsNil(rv) {
		return "", nil
	}
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	d, err := c.cache.For(rv.Type())
	if err != nil {
		return "", err
	}
	if d.Kind != descriptor.Composite {
		return "", fmt.Errorf("kv: cannot encode %s at top level", rv.Type())
	}
	typeName := ""
	if d.Category != nil && !d.Category.IsDefault(d.Type) {
		typeName = d.TypeName()
	}
	s, err := c.object(rv, d, typeName)
	if err != nil {
		return "", err
	}
	if c.tick {
		s = Tick(s)
	}
	return s, nil
}

func (c *Codec) object(v reflect.Value, d *descriptor.Descriptor, typeName string) (string, error) {
	if !v.CanAddr() {
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		v = cp
	}
	var ps []pair
	if typeName != "" {
		ps = append(ps, pair{key: c.typeKey, val: typeName})
	}
	descriptor.RunPreEncode(v)
	err := descriptor.WithLock(v, func() error {
		for _, f := range d.Fields {
			fv := f.Get(v)
			if descriptor.IsNil(fv) {
				continue
			}
			if isSequence(f.Type) {
				for fv.Kind() == reflect.Pointer {
					fv = fv.Elem()
				}
				if descriptor.IsNil(fv) {
					continue
				}
				if fv.Len() == 0 {
					ps = append(ps, pair{key: f.Name, null: true})
					continue
				}
				for i := 0; i < fv.Len(); i++ {
					s, null, err := c.value(fv.Index(i), f.Type.Elem())
					if err != nil {
						return descriptor.WithField(descriptor.WithIndex(err, i), f.Name)
					}
					ps = append(ps, pair{key: f.Name + strconv.Itoa(i), val: s, null: null})
				}
				continue
			}
			s, null, err := c.value(fv, f.Type)
			if err != nil {
				return descriptor.WithField(err, f.Name)
			}
			if !null {
				ps = append(ps, pair{key: f.Name, val: s})
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return join(ps), nil
}

// isSequence reports whether a field of type t expands to indexed keys.
func isSequence(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice:
		return t.Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	}
	return false
}

// value renders v, whose static type is t, as the text of one pair.
func (c *Codec) value(v reflect.Value, t reflect.Type) (string, bool, error) {
	if descriptor.IsNil(v) {
		return "", true, nil
	}
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	d, err := c.cache.For(t)
	if err != nil {
		return "", false, err
	}
	switch d.Kind {
	case descriptor.Scalar:
		s, err := descriptor.FormatScalar(v, d.Scalar)
		return s, false, err
	case descriptor.Composite:
		s, err := c.object(v, d, "")
		return s, false, err
	case descriptor.Interface:
		cv := v.Elem()
		for cv.Kind() == reflect.Pointer {
			cv = cv.Elem()
		}
		cd, err := c.cache.For(cv.Type())
		if err != nil {
			return "", false, err
		}
		if cd.Kind != descriptor.Composite {
			return "", false, fmt.Errorf("%s held by %s is not a struct", cv.Type(), t)
		}
		s, err := c.object(cv, cd, d.NameFor(cv.Type()))
		return s, false, err
	case descriptor.Dynamic:
		return dynamicText(v)
	}
	var ps []pair
	if t.Kind() == reflect.Map {
		kk := descriptor.ScalarKindOf(t.Key())
		if kk == descriptor.NotScalar {
			return "", false, fmt.Errorf("kv: unsupported map key %s", t.Key())
		}
		for _, k := range descriptor.SortedKeys(v) {
			key, err := descriptor.FormatScalar(k, kk)
			if err != nil {
				return "", false, err
			}
			s, null, err := c.value(v.MapIndex(k), t.Elem())
			if err == nil && null && key == "" {
				err = errNullEmptyKey
			}
			if err != nil {
				return "", false, descriptor.WithKey(err, key)
			}
			ps = append(ps, pair{key: key, val: s, null: null})
		}
		return join(ps), false, nil
	}
	for i := 0; i < v.Len(); i++ {
		s, null, err := c.value(v.Index(i), t.Elem())
		if err != nil {
			return "", false, descriptor.WithIndex(err, i)
		}
		ps = append(ps, pair{key: strconv.Itoa(i), val: s, null: null})
	}
	return join(ps), false, nil
}
