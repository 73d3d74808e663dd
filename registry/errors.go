package registry

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotAssignable = errors.New("type not assignable to category base")
	ErrDuplicate     = errors.New("duplicate registration")
)

// UnresolvedTypeError reports a type name that a category could not resolve.
type UnresolvedTypeError struct {
	Category    string
	Name        string
	Suggestions []string
}

func (e *UnresolvedTypeError) Error() string {
	var b strings.Builder
	if e.Name == "" {
		fmt.Fprintf(&b, "no type given for category %q and no default type", e.Category)
	} else {
		fmt.Fprintf(&b, "unresolved type %q in category %q", e.Name, e.Category)
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}
