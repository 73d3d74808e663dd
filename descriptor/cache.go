package descriptor

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/signadot/objcodec/registry"
)

// Cache builds descriptors on first use and keeps them for its lifetime.
// It is safe for concurrent use; racing builds of one type keep the first
// stored result.
type Cache struct {
	reg *registry.Registry
	log *slog.Logger
	m   sync.Map // reflect.Type -> *Descriptor
}

type Option func(*Cache)

// WithRegistry binds polymorphic types through r instead of
// registry.Default().
func WithRegistry(r *registry.Registry) Option {
	return func(c *Cache) { c.reg = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.log = l }
}

func NewCache(opts ...Option) *Cache {
	c := &Cache{reg: registry.Default(), log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

var defaultCache = sync.OnceValue(func() *Cache { return NewCache() })

// Default is the process-wide cache over registry.Default().
func Default() *Cache {
	return defaultCache()
}

func (c *Cache) Registry() *registry.Registry {
	return c.reg
}

// For returns the descriptor for t, building it if needed.
func (c *Cache) For(t reflect.Type) (*Descriptor, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d, ok := c.m.Load(t); ok {
		return d.(*Descriptor), nil
	}
	d, err := c.build(t)
	if err != nil {
		c.log.Debug("descriptor build failed", "type", t.String(), "error", err)
		return nil, err
	}
	actual, _ := c.m.LoadOrStore(t, d)
	return actual.(*Descriptor), nil
}

// ForValue describes the dynamic type of v.
func (c *Cache) ForValue(v any) (*Descriptor, error) {
	return c.For(reflect.TypeOf(v))
}

// Flush drops every cached descriptor.
func (c *Cache) Flush() {
	c.m.Clear()
}

// Len counts cached descriptors.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}
