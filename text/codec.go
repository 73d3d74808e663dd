// Package text implements the human-authored format: YAML with type keys
// for polymorphic values, class-level defaults and positioned errors.
package text

import (
	"fmt"
	"log/slog"

	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/tree"
)

// DefaultTypeKey names the type of a polymorphic object.
const DefaultTypeKey = "type"

// Defaults supplies class-level field defaults.
type Defaults interface {
	Lookup(typeName, field string) (any, bool)
}

// Warning reports an input key that no field consumed.
type Warning struct {
	Pos  tree.Pos
	Path string
	Key  string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: unknown key %q at %s", w.Pos, w.Key, w.Path)
}

// Codec encodes and decodes text.
type Codec struct {
	cache    *descriptor.Cache
	log      *slog.Logger
	typeKey  string
	defaults Defaults
	warn     func(Warning)
	flow     bool
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

func WithDefaults(d Defaults) Option {
	return func(x *Codec) { x.defaults = d }
}

// WithWarnings passes unknown keys met while decoding to fn instead of
// only logging them.
func WithWarnings(fn func(Warning)) Option {
	return func(x *Codec) { x.warn = fn }
}

// WithFlow makes Marshal emit single-line flow style.
func WithFlow() Option {
	return func(x *Codec) { x.flow = true }
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

func (c *Codec) Marshal(v any) ([]byte, error) {
	n, err := c.Encode(v)
	if err != nil {
		return nil, err
	}
	return Emit(n, c.flow)
}

func (c *Codec) Unmarshal(data []byte, v any) error {
	n, err := Parse(data)
	if err != nil {
		return err
	}
	return c.Decode(n, v)
}
