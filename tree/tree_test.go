package tree

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sample() *Node {
	items := FromSlice([]*Node{FromInt(1), NewObject().Set("name", FromString("x"))})
	return NewObject().
		Set("conf", NewObject().Set("items", items).Set("a.b", FromBool(true))).
		Set("name", FromString("top"))
}

func TestPath(t *testing.T) {
	root := sample()
	conf := root.Get("conf")
	if got := conf.Get("items").Values[1].Get("name").Path(); got != "$.conf.items[1].name" {
		t.Errorf("got %q", got)
	}
	if got := conf.Get("a.b").Path(); got != "$.conf.'a.b'" {
		t.Errorf("got %q", got)
	}
}

func TestParseQuery(t *testing.T) {
	for _, p := range []string{"$", "$.a", "$.a[3].b", "$[*].x", "$..name", "$.'a.b'"} {
		q, err := ParseQuery(p)
		if err != nil {
			t.Fatalf("%s: %v", p, err)
		}
		if q.String() != p {
			t.Errorf("round trip %q -> %q", p, q.String())
		}
	}
	for _, p := range []string{"", "a", "$.", "$[x]", "$..", "$.'open"} {
		if _, err := ParseQuery(p); err == nil {
			t.Errorf("%q: expected error", p)
		}
	}
}

func TestSelect(t *testing.T) {
	root := sample()
	tests := []struct {
		path string
		want []any
	}{
		{"$.name", []any{"top"}},
		{"$.conf.items[0]", []any{int64(1)}},
		{"$.conf.items[9]", nil},
		{"$.conf.items[*].name", []any{"x"}},
		{"$..name", []any{"top", "x"}},
		{"$.conf.'a.b'", []any{true}},
		{"$.missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			nodes, err := root.Select(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			var got []any
			for _, n := range nodes {
				got = append(got, n.Scalar())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
