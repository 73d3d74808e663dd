package fixed

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/internal/wire"
)

// Stats accumulates encoded sizes. Fields maps top-level field names to
// the bytes of their slots; MapKeys breaks map fields down per key.
type Stats struct {
	Fields  map[string]int64
	MapKeys map[string]map[string]int64
}

func (s *Stats) addField(name string, n int) {
	if s.Fields == nil {
		s.Fields = map[string]int64{}
	}
	s.Fields[name] += int64(n)
}

func (s *Stats) addKey(field, key string, n int) {
	if s.MapKeys == nil {
		s.MapKeys = map[string]map[string]int64{}
	}
	m := s.MapKeys[field]
	if m == nil {
		m = map[string]int64{}
		s.MapKeys[field] = m
	}
	m[key] += int64(n)
}

// Codec encodes and decodes the fixed binary format.
type Codec struct {
	cache *descriptor.Cache
	log   *slog.Logger
	stats *Stats
}

type Option func(*Codec)

func WithCache(c *descriptor.Cache) Option {
	return func(x *Codec) { x.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(x *Codec) { x.log = l }
}

// WithStats makes Marshal add the sizes of top-level fields to s. The
// encoded bytes are unaffected. s is not synchronized.
func WithStats(s *Stats) Option {
	return func(x *Codec) { x.stats = s }
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

type encoder struct {
	*Codec
	w *wire.Writer
	// top is set while writing the fields of the top-level struct.
	top bool
}

func (c *Codec) Marshal(v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if descriptor.IsNil(rv) {
		return wire.NullObject(wire.VersionFixed), nil
	}
	e := &encoder{Codec: c, w: wire.NewWriter(wire.VersionFixed)}
	if c.stats != nil {
		if d, err := c.cache.For(rv.Type()); err == nil && d.Kind == descriptor.Composite {
			e.top = true
		}
	}
	e.w.Byte(1)
	if err := e.value(rv, rv.Type()); err != nil {
		return nil, err
	}
	return e.w.Bytes(), nil
}

func (e *encoder) slot(v reflect.Value, t reflect.Type) error {
	if descriptor.IsNil(v) {
		e.w.Byte(0)
		return nil
	}
	e.w.Byte(1)
	return e.value(v, t)
}

func (e *encoder) value(v reflect.Value, t reflect.Type) error {
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	d, err := e.cache.For(t)
	if err != nil {
		return err
	}
	switch d.Kind {
	case descriptor.Scalar:
		return e.w.Scalar(v, d.Scalar)
	case descriptor.Composite:
		if d.Polymorphic() {
			e.w.String(d.TypeName())
		}
		return e.fields(v, d)
	case descriptor.Interface:
		cv := v.Elem()
		for cv.Kind() == reflect.Pointer {
			cv = cv.Elem()
		}
		cd, err := e.cache.For(cv.Type())
		if err != nil {
			return err
		}
		if cd.Kind != descriptor.Composite {
			return fmt.Errorf("%s held by %s is not a struct", cv.Type(), t)
		}
		e.w.String(d.NameFor(cv.Type()))
		return e.fields(cv, cd)
	case descriptor.Dynamic:
		return e.w.Dynamic(v.Interface())
	}
	if t.Kind() == reflect.Map {
		return e.mapValue(v, d, "")
	}
	return e.sequence(v, t.Elem())
}

func (e *encoder) fields(v reflect.Value, d *descriptor.Descriptor) error {
	if !v.CanAddr() {
		cp := reflect.New(v.Type()).Elem()
		cp.Set(v)
		v = cp
	}
	top := e.top
	e.top = false
	descriptor.RunPreEncode(v)
	return descriptor.WithLock(v, func() error {
		for _, f := range d.Fields {
			start := e.w.Len()
			fv := f.Get(v)
			var err error
			if top && f.Flags.Has(descriptor.FlagMap) && !descriptor.IsNil(fv) {
				e.w.Byte(1)
				md, derr := e.cache.For(f.Type)
				if derr != nil {
					return descriptor.WithField(derr, f.Name)
				}
				err = e.mapValue(reflect.Indirect(fv), md, f.Name)
			} else {
				err = e.slot(fv, f.Type)
			}
			if err != nil {
				return descriptor.WithField(err, f.Name)
			}
			if top {
				e.stats.addField(f.Name, e.w.Len()-start)
			}
		}
		return nil
	})
}

// mapValue writes a map; with statsField set, per-key sizes are recorded
// under it.
func (e *encoder) mapValue(v reflect.Value, d *descriptor.Descriptor, statsField string) error {
	t := d.Type
	e.w.Uvarint(uint64(v.Len()))
	for _, k := range descriptor.SortedKeys(v) {
		start := e.w.Len()
		if err := e.slot(k, t.Key()); err != nil {
			return descriptor.WithKey(err, k)
		}
		if err := e.slot(v.MapIndex(k), t.Elem()); err != nil {
			return descriptor.WithKey(err, k)
		}
		if statsField != "" {
			e.stats.addKey(statsField, fmt.Sprint(k), e.w.Len()-start)
		}
	}
	return nil
}

func (e *encoder) sequence(v reflect.Value, et reflect.Type) error {
	n := v.Len()
	e.w.Uvarint(uint64(n))
	k := descriptor.ScalarKindOf(et)
	switch {
	case k.Signed() && et.Kind() != reflect.Struct:
		bits := k.Bits()
		for i := range n {
			e.w.Int(v.Index(i).Int(), bits)
		}
	case k.Unsigned() && et.Kind() != reflect.Struct:
		bits := k.Bits()
		for i := range n {
			e.w.Uint(v.Index(i).Uint(), bits)
		}
	case k == descriptor.Float32Scalar:
		for i := range n {
			e.w.Float32(float32(v.Index(i).Float()))
		}
	case k == descriptor.Float64Scalar:
		for i := range n {
			e.w.Float64(v.Index(i).Float())
		}
	case k == descriptor.BoolScalar:
		for i := range n {
			e.w.Bool(v.Index(i).Bool())
		}
	case k == descriptor.EnumScalar:
		for i := range n {
			name, err := descriptor.EnumName(v.Index(i))
			if err != nil {
				return descriptor.WithIndex(err, i)
			}
			e.w.String(name)
		}
	default:
		for i := range n {
			if err := e.slot(v.Index(i), et); err != nil {
				return descriptor.WithIndex(err, i)
			}
		}
	}
	return nil
}
