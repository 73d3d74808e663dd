package evolve

import (
	"encoding/hex"
	"unicode"
	"unicode/utf8"

	"github.com/signadot/objcodec/internal/wire"
	"github.com/signadot/objcodec/tree"
)

// InspectTypeKey holds the type name of inspected structs.
const InspectTypeKey = "type"

// Inspect renders an evolvable payload without descriptors. Struct frames
// become objects keyed by field name with the type name under
// InspectTypeKey; a lone length-prefixed string is shown as text and
// anything else as hex. The result is a best effort reading for tooling.
func Inspect(data []byte) (*tree.Node, error) {
	r, err := wire.ReadHeader(data, wire.VersionEvolvable)
	if err != nil {
		return nil, err
	}
	fr, err := r.Frame()
	if err != nil {
		return nil, err
	}
	if fr.Done() {
		return tree.Null(), nil
	}
	return inspectPayload(fr.Rest()), nil
}

func inspectPayload(b []byte) *tree.Node {
	if n, ok := inspectStruct(b); ok {
		return n
	}
	return tree.FromString(hex.EncodeToString(b))
}

func inspectStruct(b []byte) (*tree.Node, bool) {
	r := wire.NewReader(b)
	name, err := r.String()
	if err != nil || !printable(name) {
		return nil, false
	}
	if r.Done() {
		return tree.FromString(name), true
	}
	obj := tree.NewObject().Set(InspectTypeKey, tree.FromString(name))
	for !r.Done() {
		fr, err := r.Frame()
		if err != nil {
			return nil, false
		}
		field, err := fr.String()
		if err != nil || !printable(field) {
			return nil, false
		}
		obj.Set(field, inspectPayload(fr.Rest()))
	}
	return obj, true
}

func printable(s string) bool {
	if s == "" || len(s) > 256 || !utf8.ValidString(s) {
		return false
	}
	for _, c := range s {
		if !unicode.IsPrint(c) {
			return false
		}
	}
	return true
}
