package descriptor

import (
	"fmt"
	"reflect"
	"strings"
)

// TagKey is the struct tag key read by the builder.
const TagKey = "codec"

// ParseTag splits a codec tag into keys and values. Entries are separated by
// commas or spaces; values may be single or double quoted to carry either.
//
//	codec:"name=id,required check='value > 0'"
func ParseTag(tag string) (map[string]string, error) {
	res := map[string]string{}
	var (
		parts []string
		cur   strings.Builder
		quote byte
	)
	flush := func() {
		if p := strings.TrimSpace(cur.String()); p != "" {
			parts = append(parts, p)
		}
		cur.Reset()
	}
	for i := 0; i < len(tag); i++ {
		c := tag[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			cur.WriteByte(c)
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case c == ',' || c == ' ':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in tag %q", tag)
	}
	flush()
	for _, p := range parts {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("empty key in %q", p)
		}
		if _, dup := res[k]; dup {
			return nil, fmt.Errorf("duplicate key %q", k)
		}
		if ok {
			res[k] = unquote(strings.TrimSpace(v))
		} else {
			res[k] = ""
		}
	}
	return res, nil
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// policy is the parsed form of a codec tag.
type policy struct {
	skip      bool
	name      string
	flags     Flags
	validator string
	check     string
}

var flagKeys = map[string]Flags{
	"required":  FlagRequired,
	"readonly":  FlagReadOnly,
	"writeonly": FlagWriteOnly,
	"intern":    FlagInterned,
}

func parsePolicy(owner reflect.Type, sf reflect.StructField) (*policy, error) {
	tag, ok := sf.Tag.Lookup(TagKey)
	if !ok {
		return &policy{}, nil
	}
	if tag == "-" {
		return &policy{skip: true}, nil
	}
	kvs, err := ParseTag(tag)
	if err != nil {
		return nil, &PolicyError{Type: owner, Field: sf.Name, Message: "malformed tag", Err: err}
	}
	p := &policy{}
	for k, v := range kvs {
		if f, ok := flagKeys[k]; ok {
			if v != "" {
				return nil, &PolicyError{Type: owner, Field: sf.Name, Message: fmt.Sprintf("%s takes no value", k)}
			}
			p.flags |= f
			continue
		}
		switch k {
		case "name":
			if v == "" {
				return nil, &PolicyError{Type: owner, Field: sf.Name, Message: "empty name"}
			}
			p.name = v
		case "validate":
			p.validator = v
		case "check":
			p.check = v
		default:
			return nil, &PolicyError{Type: owner, Field: sf.Name, Message: fmt.Sprintf("unknown tag key %q", k)}
		}
	}
	if p.flags.Has(FlagReadOnly | FlagWriteOnly) {
		return nil, &PolicyError{Type: owner, Field: sf.Name, Message: "readonly and writeonly are exclusive"}
	}
	return p, nil
}
