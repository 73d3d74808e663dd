package descriptor

import (
	"reflect"

	"github.com/signadot/objcodec/registry"
)

// Descriptor is the cached metadata for one Go type. Pointers are
// described by their element type.
type Descriptor struct {
	Type     reflect.Type
	Kind     Kind
	Scalar   ScalarKind
	Base     reflect.Type
	Category *registry.Category
	Fields   []*Field

	byName map[string]*Field
	cache  *Cache
}

// Field returns the field with wire name name.
func (d *Descriptor) Field(name string) (*Field, bool) {
	f, ok := d.byName[name]
	return f, ok
}

// Polymorphic reports whether values of the described static type need a
// type name on the wire.
func (d *Descriptor) Polymorphic() bool {
	return d.Kind == Interface || d.Kind == Dynamic || d.Category != nil
}

func (d *Descriptor) IsScalar() bool {
	return d.Kind == Scalar
}

// TypeName is the name written on the wire for d: the registry name when
// bound, otherwise the Go type string.
func (d *Descriptor) TypeName() string {
	if d.Category != nil {
		if n, ok := d.Category.NameOf(d.Type); ok {
			return n
		}
	}
	return d.Type.String()
}

// New allocates a zero value of the described type and returns a pointer
// to it.
func (d *Descriptor) New() reflect.Value {
	return reflect.New(d.Type)
}

// Elem describes the element (or map value) type of a Container.
func (d *Descriptor) Elem() (*Descriptor, error) {
	return d.cache.For(d.Type.Elem())
}

// Key describes the key type of a map Container.
func (d *Descriptor) Key() (*Descriptor, error) {
	return d.cache.For(d.Type.Key())
}

// For describes t using the same cache as d.
func (d *Descriptor) For(t reflect.Type) (*Descriptor, error) {
	return d.cache.For(t)
}

// Resolve maps a wire type name to a concrete type through d's category.
func (d *Descriptor) Resolve(name string) (reflect.Type, error) {
	if d.Category == nil {
		return nil, &registry.UnresolvedTypeError{Name: name}
	}
	return d.Category.Resolve(name)
}

// Adapt returns the value p points to if it is assignable to t, else p
// itself if that is.
func Adapt(p reflect.Value, t reflect.Type) (reflect.Value, bool) {
	if p.Elem().Type().AssignableTo(t) {
		return p.Elem(), true
	}
	if p.Type().AssignableTo(t) {
		return p, true
	}
	return reflect.Value{}, false
}

// NameFor is the wire name of concrete type t held by a slot described by
// d: its registry name in d's category, else the Go type string.
func (d *Descriptor) NameFor(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d.Category != nil {
		if n, ok := d.Category.NameOf(t); ok {
			return n
		}
	}
	return t.String()
}
