package registry

import (
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// Category is the polymorphism binding for one base type.
type Category struct {
	Name string
	Base reflect.Type

	mu         sync.RWMutex
	byName     map[string]reflect.Type
	byType     map[reflect.Type]string
	defType    reflect.Type
	sugarType  reflect.Type
	sugarField string
}

func NewCategory(name string, base reflect.Type) *Category {
	return &Category{
		Name:   name,
		Base:   base,
		byName: map[string]reflect.Type{},
		byType: map[reflect.Type]string{},
	}
}

// Register binds name to t. t must be assignable to the category base.
func (c *Category) Register(name string, t reflect.Type) error {
	if !c.accepts(t) {
		return fmt.Errorf("%w: %s is not a %s", ErrNotAssignable, t, c.Base)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.byName[name]; ok && prev != t {
		return fmt.Errorf("%w: %q already names %s in category %q", ErrDuplicate, name, prev, c.Name)
	}
	c.byName[name] = t
	if _, ok := c.byType[t]; !ok {
		c.byType[t] = name
	}
	return nil
}

// MustRegister is Register that panics, for use in init functions.
func (c *Category) MustRegister(name string, t reflect.Type) *Category {
	if err := c.Register(name, t); err != nil {
		panic(err)
	}
	return c
}

func (c *Category) accepts(t reflect.Type) bool {
	if t == nil || c.Base == nil {
		return false
	}
	if c.Base.Kind() == reflect.Interface {
		return t.Implements(c.Base) || reflect.PointerTo(t).Implements(c.Base)
	}
	if t == c.Base {
		return true
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return embeds(t, c.Base)
}

// embeds reports whether struct type t embeds base, at any depth.
func embeds(t, base reflect.Type) bool {
	if t.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft == base || embeds(ft, base) {
			return true
		}
	}
	return false
}

// SetDefault sets the type used when input names no type.
func (c *Category) SetDefault(t reflect.Type) error {
	if !c.accepts(t) {
		return fmt.Errorf("%w: default %s is not a %s", ErrNotAssignable, t, c.Base)
	}
	c.mu.Lock()
	c.defType = t
	c.mu.Unlock()
	return nil
}

// SetArraySugar declares that a bare array stands for an instance of t whose
// field named field holds that array.
func (c *Category) SetArraySugar(t reflect.Type, field string) error {
	if !c.accepts(t) {
		return fmt.Errorf("%w: array sugar %s is not a %s", ErrNotAssignable, t, c.Base)
	}
	c.mu.Lock()
	c.sugarType, c.sugarField = t, field
	c.mu.Unlock()
	return nil
}

func (c *Category) Default() reflect.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defType
}

func (c *Category) ArraySugar() (reflect.Type, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sugarType, c.sugarField
}

// Resolve maps a name to its registered type.
func (c *Category) Resolve(name string) (reflect.Type, error) {
	c.mu.RLock()
	t, ok := c.byName[name]
	c.mu.RUnlock()
	if ok {
		return t, nil
	}
	return nil, &UnresolvedTypeError{
		Category:    c.Name,
		Name:        name,
		Suggestions: c.Suggest(name, 3),
	}
}

// Has reports whether name is registered.
func (c *Category) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byName[name]
	return ok
}

// NameOf returns the registered name of t. Pointer and element forms of the
// same struct type are treated alike.
func (c *Category) NameOf(t reflect.Type) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n, ok := c.byType[t]; ok {
		return n, true
	}
	if t.Kind() == reflect.Pointer {
		n, ok := c.byType[t.Elem()]
		return n, ok
	}
	n, ok := c.byType[reflect.PointerTo(t)]
	return n, ok
}

// IsDefault reports whether t is (either form of) the default type.
func (c *Category) IsDefault(t reflect.Type) bool {
	d := c.Default()
	if d == nil || t == nil {
		return false
	}
	return sameStruct(d, t)
}

func sameStruct(a, b reflect.Type) bool {
	if a == b {
		return true
	}
	if a.Kind() == reflect.Pointer {
		a = a.Elem()
	}
	if b.Kind() == reflect.Pointer {
		b = b.Elem()
	}
	return a == b
}

// Names returns the registered names in sorted order.
func (c *Category) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	res := make([]string, 0, len(c.byName))
	for n := range c.byName {
		res = append(res, n)
	}
	slices.Sort(res)
	return res
}
