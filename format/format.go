// Package format names the encodings objcodec supports.
package format

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/signadot/objcodec/internal/wire"
)

type Format int

const (
	EvolvableFormat Format = iota
	FixedFormat
	TextFormat
	KVFormat
)

var ErrBadFormat = errors.New("bad format")

func ParseFormat(v string) (Format, error) {
	f, ok := map[string]Format{
		"e":         EvolvableFormat,
		"evolve":    EvolvableFormat,
		"evolvable": EvolvableFormat,
		"f":         FixedFormat,
		"fixed":     FixedFormat,
		"t":         TextFormat,
		"text":      TextFormat,
		"yaml":      TextFormat,
		"k":         KVFormat,
		"kv":        KVFormat,
	}[v]
	if ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrBadFormat, v)
}

func (f Format) String() string {
	d, err := f.MarshalText()
	if err != nil {
		return err.Error()
	}
	return string(d)
}

func (f Format) MarshalText() ([]byte, error) {
	switch f {
	case EvolvableFormat:
		return []byte("evolve"), nil
	case FixedFormat:
		return []byte("fixed"), nil
	case TextFormat:
		return []byte("text"), nil
	case KVFormat:
		return []byte("kv"), nil
	default:
		return nil, fmt.Errorf("<err: %d is not a format>", f)
	}
}

func (f *Format) UnmarshalText(d []byte) error {
	pf, err := ParseFormat(string(d))
	if err != nil {
		return err
	}
	*f = pf
	return nil
}

// IsBinary reports whether payloads of f start with a version tag.
func (f Format) IsBinary() bool { return f == EvolvableFormat || f == FixedFormat }

// Version is the wire version tag of a binary format, 0 otherwise.
func (f Format) Version() uint32 {
	switch f {
	case EvolvableFormat:
		return wire.VersionEvolvable
	case FixedFormat:
		return wire.VersionFixed
	}
	return 0
}

// Suffix returns the file extension for this format (including the dot).
func (f Format) Suffix() string {
	switch f {
	case EvolvableFormat:
		return ".obj1"
	case FixedFormat:
		return ".obj2"
	case TextFormat:
		return ".yaml"
	case KVFormat:
		return ".kv"
	default:
		return ""
	}
}

// Detect guesses the format of a payload from its version tag. Text and
// KV payloads carry none, so only binary formats are detected.
func Detect(data []byte) (Format, bool) {
	if len(data) < 4 {
		return 0, false
	}
	v := binary.BigEndian.Uint32(data)
	for _, f := range AllFormats() {
		if f.IsBinary() && f.Version() == v {
			return f, true
		}
	}
	return 0, false
}

// AllFormats returns all supported formats.
func AllFormats() []Format {
	return []Format{EvolvableFormat, FixedFormat, TextFormat, KVFormat}
}
