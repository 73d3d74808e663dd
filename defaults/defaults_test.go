package defaults

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/objcodec/text"
)

type Config struct {
	Host    string   `codec:"name=host,required"`
	Port    int      `codec:"name=port"`
	Verbose bool     `codec:"name=verbose"`
	Tags    []string `codec:"name=tags"`
}

const base = `
defaults.Config:
  host: localhost
  port: 8080
  tags: [a, b]
`

const overlay = `
defaults.Config:
  port: 9090
  tags: null
  verbose: true
`

func TestLoadLookup(t *testing.T) {
	tbl, err := Load([]byte(base))
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := tbl.Lookup("defaults.Config", "host"); !ok || v != "localhost" {
		t.Errorf("host = %v, %v", v, ok)
	}
	if _, ok := tbl.Lookup("defaults.Config", "nope"); ok {
		t.Error("unexpected default")
	}
	if _, ok := tbl.Lookup("other", "host"); ok {
		t.Error("unexpected default")
	}
	if _, err := Load([]byte("- a\n- b\n")); err == nil {
		t.Error("expected error for a sequence")
	}
}

func TestMergeIntoText(t *testing.T) {
	tbl, err := Merge([]byte(base), []byte(overlay))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tbl.Lookup("defaults.Config", "tags"); ok {
		t.Error("null in overlay should remove tags")
	}
	c := text.New(text.WithDefaults(tbl))
	tests := []struct {
		doc  string
		want Config
	}{
		{"{}", Config{Host: "localhost", Port: 9090, Verbose: true}},
		{"host: example.com\nport: 1\n", Config{Host: "example.com", Port: 1, Verbose: true}},
		{"tags: [x]\n", Config{Host: "localhost", Port: 9090, Verbose: true, Tags: []string{"x"}}},
	}
	for _, tt := range tests {
		var got Config
		if err := c.Unmarshal([]byte(tt.doc), &got); err != nil {
			t.Fatalf("%q: %v", tt.doc, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%q (-want +got):\n%s", tt.doc, diff)
		}
	}
}
