package kv

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/signadot/objcodec/descriptor"
)

// pair is one key of a KV string. A null value is written as the bare
// key, so the empty key cannot hold one.
type pair struct {
	key  string
	val  string
	null bool
}

func join(ps []pair) string {
	var b strings.Builder
	for i, p := range ps {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		if p.null {
			continue
		}
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.val))
	}
	return b.String()
}

// errNullEmptyKey reports a null stored under the empty key.
var errNullEmptyKey = errors.New("kv: null value under the empty key")

// object is a parsed KV string.
type object struct {
	pairs []pair
	index map[string]int
}

func split(s string) (*object, error) {
	o := &object{index: map[string]int{}}
	if s == "" {
		return o, nil
	}
	for _, part := range strings.Split(s, "&") {
		k, v, hasVal := strings.Cut(part, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, &descriptor.MalformedInputError{Context: "kv key", Err: err}
		}
		if key == "" && !hasVal {
			return nil, &descriptor.MalformedInputError{Context: fmt.Sprintf("kv: empty key in %q", s)}
		}
		p := pair{key: key, null: !hasVal}
		if hasVal {
			if p.val, err = url.QueryUnescape(v); err != nil {
				return nil, descriptor.WithKey(&descriptor.MalformedInputError{Context: "kv value", Err: err}, key)
			}
		}
		if _, dup := o.index[key]; dup {
			return nil, &descriptor.MalformedInputError{Context: fmt.Sprintf("kv: duplicate key %q", key)}
		}
		o.index[key] = len(o.pairs)
		o.pairs = append(o.pairs, p)
	}
	return o, nil
}

// get returns the pair for key and whether it is present.
func (o *object) get(key string) (pair, bool) {
	i, ok := o.index[key]
	if !ok {
		return pair{}, false
	}
	return o.pairs[i], true
}
