package registry

import (
	"fmt"
	"reflect"
	"sync"
)

// Registry holds categories keyed by base type.
type Registry struct {
	mu     sync.RWMutex
	order  []*Category
	byBase map[reflect.Type]*Category
}

func New() *Registry {
	return &Registry{byBase: map[reflect.Type]*Category{}}
}

var defaultRegistry = New()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

func (r *Registry) Add(c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byBase[c.Base]; ok && prev != c {
		return fmt.Errorf("%w: base %s already bound to category %q", ErrDuplicate, c.Base, prev.Name)
	}
	if _, ok := r.byBase[c.Base]; !ok {
		r.order = append(r.order, c)
	}
	r.byBase[c.Base] = c
	return nil
}

// MustAdd is Add that panics.
func (r *Registry) MustAdd(c *Category) *Category {
	if err := r.Add(c); err != nil {
		panic(err)
	}
	return c
}

// ForType returns the category whose base is exactly t.
func (r *Registry) ForType(t reflect.Type) (*Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byBase[t]
	return c, ok
}

// Implemented returns the first interface-based category, in registration
// order, that t or *t implements.
func (r *Registry) Implemented(t reflect.Type) (*Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pt := reflect.PointerTo(t)
	for _, c := range r.order {
		if c.Base.Kind() != reflect.Interface {
			continue
		}
		if t.Implements(c.Base) || pt.Implements(c.Base) {
			return c, true
		}
	}
	return nil, false
}

// Categories returns the categories in registration order.
func (r *Registry) Categories() []*Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Category(nil), r.order...)
}

// Reset removes every category.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.order = nil
	r.byBase = map[reflect.Type]*Category{}
	r.mu.Unlock()
}
