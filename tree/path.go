package tree

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Path renders the location of y from the root, e.g. $.conf.items[2].
func (y *Node) Path() string {
	if y.Parent == nil {
		return "$"
	}
	if y.Parent.Type == ArrayType {
		return y.Parent.Path() + "[" + strconv.Itoa(y.ParentIndex) + "]"
	}
	return y.Parent.Path() + "." + pathField(y.ParentField)
}

func pathField(f string) string {
	if f != "" && strings.IndexAny(f, "'.*$[]") == -1 {
		return f
	}
	return "'" + strings.ReplaceAll(f, "'", "\\'") + "'"
}

// Query is a parsed path expression: $ followed by .field, 'quoted field',
// [index], [*] and the recursive descent "..".
type Query struct {
	IndexAll bool
	Index    *int
	Field    *string
	Subtree  bool
	Next     *Query
}

func (p *Query) String() string {
	buf := bytes.NewBuffer([]byte{'$'})
	for x := p; x != nil; x = x.Next {
		switch {
		case x.Subtree:
			buf.WriteString("..")
		case x.IndexAll:
			buf.WriteString("[*]")
		case x.Field != nil:
			buf.WriteString("." + pathField(*x.Field))
		case x.Index != nil:
			fmt.Fprintf(buf, "[%d]", *x.Index)
		}
	}
	return buf.String()
}

func ParseQuery(p string) (*Query, error) {
	if len(p) == 0 || p[0] != '$' {
		return nil, fmt.Errorf("path %q should start with '$'", p)
	}
	root := &Query{}
	if err := parseFrag(p[1:], root); err != nil {
		return nil, fmt.Errorf("path %q: %w", p, err)
	}
	return root, nil
}

func parseFrag(frag string, q *Query) error {
	if len(frag) == 0 {
		return nil
	}
	var rest string
	switch frag[0] {
	case '.':
		if len(frag) > 1 && frag[1] == '.' {
			q.Subtree = true
			rest = frag[2:]
			break
		}
		field, r, err := parseField(frag[1:])
		if err != nil {
			return err
		}
		q.Field = &field
		rest = r
	case '[':
		i := strings.IndexByte(frag[1:], ']')
		if i == -1 {
			return fmt.Errorf("expected '[' <index> ']'")
		}
		is := frag[1 : i+1]
		if is == "*" {
			q.IndexAll = true
		} else {
			u, err := strconv.ParseUint(is, 10, 31)
			if err != nil {
				return err
			}
			idx := int(u)
			q.Index = &idx
		}
		rest = frag[i+2:]
	default:
		return fmt.Errorf("expected '.' or '['")
	}
	if len(rest) == 0 {
		if q.Subtree {
			return fmt.Errorf("'..' must be followed by a selector")
		}
		return nil
	}
	q.Next = &Query{}
	return parseFrag(rest, q.Next)
}

func parseField(frag string) (field, rest string, err error) {
	if len(frag) == 0 {
		return "", "", fmt.Errorf("expected field at end of string")
	}
	if frag[0] != '\'' {
		i := strings.IndexAny(frag, ".[")
		if i == -1 {
			return frag, "", nil
		}
		return frag[:i], frag[i:], nil
	}
	escaped := false
	res := make([]byte, 0, len(frag))
	for i := 1; i < len(frag); i++ {
		c := frag[i]
		switch {
		case c == '\\' && !escaped:
			escaped = true
		case c == '\'' && !escaped:
			return string(res), frag[i+1:], nil
		default:
			escaped = false
			res = append(res, c)
		}
	}
	return "", "", fmt.Errorf("end of string scanning for \"'\"")
}

// Select returns the nodes of y matched by path expression p.
func (y *Node) Select(p string) ([]*Node, error) {
	q, err := ParseQuery(p)
	if err != nil {
		return nil, err
	}
	return y.selectQuery(nil, q)
}

func (y *Node) selectQuery(dst []*Node, q *Query) ([]*Node, error) {
	if q == nil || (q.Field == nil && q.Index == nil && !q.IndexAll && !q.Subtree) {
		if q != nil && q.Next != nil {
			return y.selectQuery(dst, q.Next)
		}
		return append(dst, y), nil
	}
	if q.Subtree {
		err := y.Visit(func(n *Node, isPost bool) (bool, error) {
			if isPost {
				return false, nil
			}
			var err error
			dst, err = n.selectQuery(dst, q.Next)
			return !n.Type.IsLeaf(), err
		})
		return dst, err
	}
	var err error
	switch y.Type {
	case ObjectType:
		if q.Field == nil {
			return dst, nil
		}
		for i := range y.Fields {
			if y.Fields[i].String == *q.Field {
				if dst, err = y.Values[i].selectQuery(dst, q.Next); err != nil {
					return nil, err
				}
			}
		}
	case ArrayType:
		switch {
		case q.Index != nil:
			if idx := *q.Index; idx < len(y.Values) {
				return y.Values[idx].selectQuery(dst, q.Next)
			}
		case q.IndexAll:
			for _, v := range y.Values {
				if dst, err = v.selectQuery(dst, q.Next); err != nil {
					return nil, err
				}
			}
		}
	}
	return dst, nil
}
