package descriptor

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/signadot/objcodec/debug"
	"github.com/signadot/objcodec/registry"
)

func (c *Cache) build(t reflect.Type) (*Descriptor, error) {
	d := &Descriptor{Type: t, Base: t, cache: c}
	if k := ScalarKindOf(t); k != NotScalar {
		d.Kind = Scalar
		d.Scalar = k
		return d, nil
	}
	switch t.Kind() {
	case reflect.Interface:
		if cat, ok := c.reg.ForType(t); ok {
			d.Kind = Interface
			d.Category = cat
		} else {
			d.Kind = Dynamic
		}
		return d, nil
	case reflect.Slice, reflect.Array, reflect.Map:
		d.Kind = Container
		return d, nil
	case reflect.Struct:
	default:
		return nil, &PolicyError{Type: t, Message: "unsupported kind " + t.Kind().String()}
	}
	d.Kind = Composite
	d.Base, d.Category = c.bind(t)
	fields, err := c.collect(t)
	if err != nil {
		return nil, err
	}
	d.Fields = fields
	d.byName = make(map[string]*Field, len(fields))
	for _, f := range fields {
		d.byName[f.Name] = f
	}
	if debug.Descriptor() {
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name + ":" + f.Flags.String()
		}
		debug.Logf("descriptor %s base %s fields [%s]\n", t, d.Base, strings.Join(names, " "))
	}
	c.log.Debug("built descriptor", "type", t.String(), "fields", len(fields))
	return d, nil
}

type level struct {
	t     reflect.Type
	index []int
}

// ancestors lists t and its embedded structs breadth first.
func ancestors(t reflect.Type) []level {
	res := []level{{t: t}}
	seen := map[reflect.Type]bool{t: true}
	for i := 0; i < len(res); i++ {
		lv := res[i]
		for j := 0; j < lv.t.NumField(); j++ {
			sf := lv.t.Field(j)
			if !sf.Anonymous || sf.Tag.Get(TagKey) == "-" {
				continue
			}
			ft := sf.Type
			if ft.Kind() == reflect.Pointer {
				if !sf.IsExported() {
					continue
				}
				ft = ft.Elem()
			}
			if ft.Kind() != reflect.Struct || ScalarKindOf(ft) != NotScalar || seen[ft] {
				continue
			}
			if p, err := parsePolicy(lv.t, sf); err == nil && p.name != "" {
				continue
			}
			seen[ft] = true
			res = append(res, level{t: ft, index: append(slices.Clone(lv.index), j)})
		}
	}
	return res
}

func (c *Cache) bind(t reflect.Type) (reflect.Type, *registry.Category) {
	for _, a := range ancestors(t) {
		if cat, ok := c.reg.ForType(a.t); ok {
			return a.t, cat
		}
	}
	if cat, ok := c.reg.Implemented(t); ok {
		return cat.Base, cat
	}
	return t, nil
}

func (c *Cache) collect(t reflect.Type) ([]*Field, error) {
	var fields []*Field
	seen := map[string]bool{}
	lvs := ancestors(t)
	isAncestor := map[string]bool{}
	for _, lv := range lvs[1:] {
		isAncestor[indexKey(lv.index)] = true
	}
	for _, lv := range lvs {
		for j := 0; j < lv.t.NumField(); j++ {
			sf := lv.t.Field(j)
			index := append(slices.Clone(lv.index), j)
			if isAncestor[indexKey(index)] {
				continue
			}
			p, err := parsePolicy(lv.t, sf)
			if err != nil {
				return nil, err
			}
			if p.skip {
				continue
			}
			if !sf.IsExported() {
				if _, tagged := sf.Tag.Lookup(TagKey); tagged {
					return nil, &PolicyError{Type: lv.t, Field: sf.Name, Message: "unexported field carries a codec tag"}
				}
				continue
			}
			name := sf.Name
			if p.name != "" {
				name = p.name
			}
			if seen[name] {
				continue
			}
			seen[name] = true
			f, err := c.newField(t, sf, index, name, p)
			if err != nil {
				return nil, err
			}
			fields = append(fields, f)
		}
	}
	slices.SortFunc(fields, func(a, b *Field) int {
		return strings.Compare(a.Name, b.Name)
	})
	return fields, nil
}

func indexKey(index []int) string {
	return fmt.Sprint(index)
}

func (c *Cache) newField(owner reflect.Type, sf reflect.StructField, index []int, name string, p *policy) (*Field, error) {
	f := &Field{
		Name:   name,
		GoName: sf.Name,
		Index:  index,
		Type:   sf.Type,
		Elem:   sf.Type,
		Flags:  p.flags,
		Owner:  owner,
		cache:  c,
	}
	t := sf.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if k := ScalarKindOf(t); k != NotScalar {
		f.Scalar = k
		f.Flags |= scalarFlags(k)
		if k == BytesScalar {
			f.Flags |= FlagArray | FlagCollection
			f.Element = elemInfo(t.Elem())
			f.Elem = t.Elem()
		}
	} else {
		switch t.Kind() {
		case reflect.Slice, reflect.Array:
			f.Flags |= FlagArray
			if t.Kind() == reflect.Slice {
				f.Flags |= FlagCollection
			}
			f.Elem = t.Elem()
			f.Element = elemInfo(t.Elem())
			f.Flags |= elemFlags(t.Elem())
		case reflect.Map:
			f.Flags |= FlagMap
			f.Elem = t.Elem()
			f.Key = elemInfo(t.Key())
			f.Value = elemInfo(t.Elem())
			f.Flags |= elemFlags(t.Elem())
		case reflect.Struct, reflect.Interface:
			f.Flags |= FlagCodable
		default:
			return nil, &PolicyError{Type: owner, Field: sf.Name, Message: "unsupported field kind " + t.Kind().String()}
		}
	}
	if f.Flags.Has(FlagInterned) && t.Kind() != reflect.String {
		return nil, &PolicyError{Type: owner, Field: sf.Name, Message: "intern applies to strings only"}
	}
	v, err := buildValidator(owner, sf.Name, p)
	if err != nil {
		return nil, err
	}
	f.Validator = v
	return f, nil
}

func scalarFlags(k ScalarKind) Flags {
	fl := FlagNative
	if k == EnumScalar {
		fl |= FlagEnum
	}
	if k.Number() {
		fl |= FlagNumber
	}
	return fl
}

func elemFlags(t reflect.Type) Flags {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if k := ScalarKindOf(t); k != NotScalar {
		return scalarFlags(k)
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Interface:
		return FlagCodable
	}
	return 0
}

func elemInfo(t reflect.Type) ElemInfo {
	k := t.Kind()
	return ElemInfo{Type: t, Array: k == reflect.Slice || k == reflect.Array}
}
