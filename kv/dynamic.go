package kv

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"strconv"

	"github.com/signadot/objcodec/descriptor"
)

// Values of unbound interface slots travel as a one-pair KV string whose
// key names the kind: b bool, i int64, u uint64, f float64, s string,
// x bytes, l list (keyed 0, 1, ...) and m map with string keys.
func dynamicText(v reflect.Value) (string, bool, error) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return "", true, nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return "", true, nil
	}
	var tag, s string
	switch v.Kind() {
	case reflect.Bool:
		tag, s = "b", strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		tag, s = "i", strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := v.Uint(); u>>63 == 0 {
			tag, s = "i", strconv.FormatInt(int64(u), 10)
		} else {
			tag, s = "u", strconv.FormatUint(u, 10)
		}
	case reflect.Float32, reflect.Float64:
		tag, s = "f", strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.String:
		tag, s = "s", v.String()
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			tag, s = "x", base64.StdEncoding.EncodeToString(b)
			break
		}
		ps := make([]pair, v.Len())
		for i := range ps {
			e, null, err := dynamicText(v.Index(i))
			if err != nil {
				return "", false, descriptor.WithIndex(err, i)
			}
			ps[i] = pair{key: strconv.Itoa(i), val: e, null: null}
		}
		tag, s = "l", join(ps)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return "", false, fmt.Errorf("kv: unsupported map key %s in an untyped slot", v.Type().Key())
		}
		var ps []pair
		for _, k := range descriptor.SortedKeys(v) {
			e, null, err := dynamicText(v.MapIndex(k))
			if err == nil && null && k.String() == "" {
				err = errNullEmptyKey
			}
			if err != nil {
				return "", false, descriptor.WithKey(err, k.String())
			}
			ps = append(ps, pair{key: k.String(), val: e, null: null})
		}
		tag, s = "m", join(ps)
	default:
		return "", false, fmt.Errorf("kv: cannot encode %s in an untyped slot", v.Type())
	}
	return join([]pair{{key: tag, val: s}}), false, nil
}

// dynamicValue decodes the output of dynamicText into bool, int64,
// uint64, float64, string, []byte, []any or map[string]any.
func dynamicValue(s string) (any, error) {
	o, err := split(s)
	if err != nil {
		return nil, err
	}
	if len(o.pairs) != 1 || o.pairs[0].null {
		return nil, &descriptor.MalformedInputError{Context: fmt.Sprintf("kv: untyped value %q", s)}
	}
	p := o.pairs[0]
	bad := func(err error) error {
		return &descriptor.MalformedInputError{Context: fmt.Sprintf("kv: untyped %s value %q", p.key, p.val), Err: err}
	}
	switch p.key {
	case "b":
		b, err := strconv.ParseBool(p.val)
		if err != nil {
			return nil, bad(err)
		}
		return b, nil
	case "i":
		i, err := strconv.ParseInt(p.val, 10, 64)
		if err != nil {
			return nil, bad(err)
		}
		return i, nil
	case "u":
		u, err := strconv.ParseUint(p.val, 10, 64)
		if err != nil {
			return nil, bad(err)
		}
		return u, nil
	case "f":
		f, err := strconv.ParseFloat(p.val, 64)
		if err != nil {
			return nil, bad(err)
		}
		return f, nil
	case "s":
		return p.val, nil
	case "x":
		b, err := base64.StdEncoding.DecodeString(p.val)
		if err != nil {
			return nil, bad(err)
		}
		return b, nil
	case "l":
		lo, err := split(p.val)
		if err != nil {
			return nil, err
		}
		res := []any{}
		for i := 0; ; i++ {
			e, ok := lo.get(strconv.Itoa(i))
			if !ok {
				break
			}
			var x any
			if !e.null {
				if x, err = dynamicValue(e.val); err != nil {
					return nil, descriptor.WithIndex(err, i)
				}
			}
			res = append(res, x)
		}
		return res, nil
	case "m":
		mo, err := split(p.val)
		if err != nil {
			return nil, err
		}
		res := make(map[string]any, len(mo.pairs))
		for _, e := range mo.pairs {
			var x any
			if !e.null {
				if x, err = dynamicValue(e.val); err != nil {
					return nil, descriptor.WithKey(err, e.key)
				}
			}
			res[e.key] = x
		}
		return res, nil
	}
	return nil, bad(nil)
}
