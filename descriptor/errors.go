package descriptor

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/signadot/objcodec/registry"
)

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// UnresolvedTypeError is the registry's error, re-exported so callers can
// match the whole taxonomy from this package.
type UnresolvedTypeError = registry.UnresolvedTypeError

// RequiredFieldError reports a required field left null by decoding.
type RequiredFieldError struct {
	Field string
	Owner reflect.Type
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("required field %q of %s is missing", e.Field, typeName(e.Owner))
}

// ValidationError reports a value rejected by a field validator.
type ValidationError struct {
	Field string
	Value any
	Owner reflect.Type
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("value %v for field %q of %s failed validation", e.Value, e.Field, typeName(e.Owner))
}

// VersionMismatchError reports a payload written with another wire version.
type VersionMismatchError struct {
	Found    uint32
	Expected uint32
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("wire version mismatch: found %d, expected %d", e.Found, e.Expected)
}

// MalformedInputError reports input that does not follow the wire format.
type MalformedInputError struct {
	Context string
	Err     error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %v", e.Context, e.Err)
	}
	return fmt.Sprintf("malformed input: %s", e.Context)
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// EncodeLockError reports a Lockable value whose TryLock failed.
type EncodeLockError struct {
	Owner reflect.Type
}

func (e *EncodeLockError) Error() string {
	return fmt.Sprintf("could not lock %s for encoding", typeName(e.Owner))
}

// ConversionError reports a text value that cannot be coerced to a scalar.
type ConversionError struct {
	Value  string
	Target string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("cannot convert %q to %s", e.Value, e.Target)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// PolicyError reports a type that cannot be described, typically because of a
// malformed codec tag.
type PolicyError struct {
	Type    reflect.Type
	Field   string
	Message string
	Err     error
}

func (e *PolicyError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Field != "" {
		return fmt.Sprintf("policy error on %s.%s: %s", typeName(e.Type), e.Field, msg)
	}
	return fmt.Sprintf("policy error on %s: %s", typeName(e.Type), msg)
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}

// PathError annotates an error raised deep in a value walk with the path
// leading to it and, for text input, the innermost source position.
type PathError struct {
	Path string
	Pos  *Pos
	Err  error
}

func (e *PathError) Error() string {
	switch {
	case e.Pos != nil && e.Path != "":
		return fmt.Sprintf("%s (%s): %v", e.Pos, e.Path, e.Err)
	case e.Pos != nil:
		return fmt.Sprintf("%s: %v", e.Pos, e.Err)
	case e.Path != "":
		return fmt.Sprintf("at %s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// WithField prefixes the path of err with a field name.
func WithField(err error, name string) error {
	return prefix(err, name)
}

// WithIndex prefixes the path of err with a sequence index.
func WithIndex(err error, i int) error {
	return prefix(err, "["+strconv.Itoa(i)+"]")
}

// WithKey prefixes the path of err with a map key.
func WithKey(err error, key any) error {
	return prefix(err, fmt.Sprintf("[%v]", key))
}

// WithPos attaches a source position to err unless a deeper one is set.
func WithPos(err error, pos Pos) error {
	if err == nil {
		return nil
	}
	pe, ok := err.(*PathError)
	if !ok {
		return &PathError{Pos: &pos, Err: err}
	}
	if pe.Pos == nil {
		pe.Pos = &pos
	}
	return pe
}

func prefix(err error, seg string) error {
	if err == nil {
		return nil
	}
	pe, ok := err.(*PathError)
	if !ok {
		return &PathError{Path: seg, Err: err}
	}
	switch {
	case pe.Path == "":
		pe.Path = seg
	case strings.HasPrefix(pe.Path, "["):
		pe.Path = seg + pe.Path
	default:
		pe.Path = seg + "." + pe.Path
	}
	return pe
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
