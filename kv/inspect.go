package kv

import (
	"strings"

	"github.com/signadot/objcodec/tree"
)

// Inspect renders a KV string as a tree without descriptors. Values that
// parse as KV strings themselves are expanded, bare keys become nulls
// and everything else stays a string.
func Inspect(s string) (*tree.Node, error) {
	if isTicked(s) {
		s = Untick(s)
	}
	o, err := split(s)
	if err != nil {
		return nil, err
	}
	return inspectObject(o), nil
}

func inspectObject(o *object) *tree.Node {
	res := tree.NewObject()
	for _, p := range o.pairs {
		res.Set(p.key, inspectValue(p))
	}
	return res
}

func inspectValue(p pair) *tree.Node {
	if p.null {
		return tree.Null()
	}
	if strings.Contains(p.val, "=") {
		if o, err := split(p.val); err == nil {
			return inspectObject(o)
		}
	}
	return tree.FromString(p.val)
}
