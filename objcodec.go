// Package objcodec marshals Go values in one of four formats chosen at
// run time: the evolvable and fixed binary formats, the YAML based text
// format and the flat key=value format. All formats share one descriptor
// cache, and through it one type registry.
//
//	c := objcodec.New(objcodec.WithRegistry(reg))
//	data, err := c.Marshal(format.TextFormat, v)
//
// # Related Packages
//
//   - github.com/signadot/objcodec/descriptor - per-type field descriptors
//   - github.com/signadot/objcodec/registry - names for polymorphic types
//   - github.com/signadot/objcodec/blob - sealed storage envelopes
package objcodec

import (
	"fmt"
	"log/slog"

	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/evolve"
	"github.com/signadot/objcodec/fixed"
	"github.com/signadot/objcodec/format"
	"github.com/signadot/objcodec/kv"
	"github.com/signadot/objcodec/registry"
	"github.com/signadot/objcodec/text"
)

// Codec dispatches to the per-format codecs.
type Codec struct {
	cache   *descriptor.Cache
	log     *slog.Logger
	textOps []text.Option
	kvOps   []kv.Option

	evolve *evolve.Codec
	fixed  *fixed.Codec
	text   *text.Codec
	kv     *kv.Codec
}

type Option func(*Codec)

// WithRegistry uses a fresh descriptor cache bound to r.
func WithRegistry(r *registry.Registry) Option {
	return func(c *Codec) { c.cache = descriptor.NewCache(descriptor.WithRegistry(r)) }
}

func WithCache(dc *descriptor.Cache) Option {
	return func(c *Codec) { c.cache = dc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Codec) { c.log = l }
}

// WithTextOptions passes options to the text codec.
func WithTextOptions(opts ...text.Option) Option {
	return func(c *Codec) { c.textOps = append(c.textOps, opts...) }
}

// WithKVOptions passes options to the KV codec.
func WithKVOptions(opts ...kv.Option) Option {
	return func(c *Codec) { c.kvOps = append(c.kvOps, opts...) }
}

func New(opts ...Option) *Codec {
	c := &Codec{cache: descriptor.Default(), log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	c.evolve = evolve.New(evolve.WithCache(c.cache), evolve.WithLogger(c.log))
	c.fixed = fixed.New(fixed.WithCache(c.cache), fixed.WithLogger(c.log))
	c.text = text.New(append([]text.Option{text.WithCache(c.cache), text.WithLogger(c.log)}, c.textOps...)...)
	c.kv = kv.New(append([]kv.Option{kv.WithCache(c.cache), kv.WithLogger(c.log)}, c.kvOps...)...)
	return c
}

var std = New()

func Marshal(f format.Format, v any) ([]byte, error) {
	return std.Marshal(f, v)
}

func Unmarshal(f format.Format, data []byte, v any) error {
	return std.Unmarshal(f, data, v)
}

// Cache returns the descriptor cache shared by c's formats.
func (c *Codec) Cache() *descriptor.Cache {
	return c.cache
}

func (c *Codec) Marshal(f format.Format, v any) ([]byte, error) {
	switch f {
	case format.EvolvableFormat:
		return c.evolve.Marshal(v)
	case format.FixedFormat:
		return c.fixed.Marshal(v)
	case format.TextFormat:
		return c.text.Marshal(v)
	case format.KVFormat:
		return c.kv.Marshal(v)
	}
	return nil, fmt.Errorf("%w: %d", format.ErrBadFormat, int(f))
}

func (c *Codec) Unmarshal(f format.Format, data []byte, v any) error {
	switch f {
	case format.EvolvableFormat:
		return c.evolve.Unmarshal(data, v)
	case format.FixedFormat:
		return c.fixed.Unmarshal(data, v)
	case format.TextFormat:
		return c.text.Unmarshal(data, v)
	case format.KVFormat:
		return c.kv.Unmarshal(data, v)
	}
	return fmt.Errorf("%w: %d", format.ErrBadFormat, int(f))
}
