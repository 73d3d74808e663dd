package wire

import (
	"fmt"
	"reflect"
	"slices"
)

// Dynamic value tags.
const (
	DynNull byte = iota
	DynBool
	DynInt
	DynFloat
	DynString
	DynList
	DynMap
	DynBytes
	DynUint
)

// Dynamic writes x, a value held by an unbound interface slot. Scalars,
// slices and string-keyed maps are supported; they decode into bool, int64,
// uint64, float64, string, []byte, []any and map[string]any.
func (w *Writer) Dynamic(x any) error {
	return w.dynamic(reflect.ValueOf(x))
}

func (w *Writer) dynamic(v reflect.Value) error {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			v = reflect.Value{}
			break
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		w.Byte(DynNull)
		return nil
	}
	switch v.Kind() {
	case reflect.Bool:
		w.Byte(DynBool)
		w.Bool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		w.Byte(DynInt)
		w.Int(v.Int(), 64)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := v.Uint(); u>>63 == 0 {
			w.Byte(DynInt)
			w.Int(int64(u), 64)
		} else {
			w.Byte(DynUint)
			w.Uint64(u)
		}
	case reflect.Float32, reflect.Float64:
		w.Byte(DynFloat)
		w.Float64(v.Float())
	case reflect.String:
		w.Byte(DynString)
		w.String(v.String())
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			w.Byte(DynBytes)
			if v.Kind() == reflect.Slice {
				w.Blob(v.Bytes())
			} else {
				b := make([]byte, v.Len())
				reflect.Copy(reflect.ValueOf(b), v)
				w.Blob(b)
			}
			return nil
		}
		w.Byte(DynList)
		w.Uvarint(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			if err := w.dynamic(v.Index(i)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case reflect.Map:
		keys := make([]string, 0, v.Len())
		vals := make(map[string]reflect.Value, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			k := iter.Key()
			if k.Kind() != reflect.String {
				return fmt.Errorf("dynamic map key %s is not a string", k.Type())
			}
			keys = append(keys, k.String())
			vals[k.String()] = iter.Value()
		}
		slices.Sort(keys)
		w.Byte(DynMap)
		w.Uvarint(uint64(len(keys)))
		for _, k := range keys {
			w.String(k)
			if err := w.dynamic(vals[k]); err != nil {
				return fmt.Errorf("[%s]: %w", k, err)
			}
		}
	default:
		return fmt.Errorf("cannot encode %s in a dynamic slot", v.Type())
	}
	return nil
}

// Dynamic reads a value written by Writer.Dynamic.
func (r *Reader) Dynamic() (any, error) {
	tag, err := r.Byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case DynNull:
		return nil, nil
	case DynBool:
		return r.Bool()
	case DynInt:
		return r.Int(64)
	case DynUint:
		return r.Uint64()
	case DynFloat:
		return r.Float64()
	case DynString:
		return r.String()
	case DynBytes:
		b, err := r.Blob()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	case DynList:
		n, err := r.Count()
		if err != nil {
			return nil, err
		}
		res := make([]any, n)
		for i := range res {
			if res[i], err = r.Dynamic(); err != nil {
				return nil, err
			}
		}
		return res, nil
	case DynMap:
		n, err := r.Count()
		if err != nil {
			return nil, err
		}
		res := make(map[string]any, n)
		for range n {
			k, err := r.String()
			if err != nil {
				return nil, err
			}
			if res[k], err = r.Dynamic(); err != nil {
				return nil, err
			}
		}
		return res, nil
	}
	return nil, malformed(fmt.Sprintf("unknown dynamic tag %d", tag), nil)
}
