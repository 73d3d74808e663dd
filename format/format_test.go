package format

import (
	"errors"
	"testing"
)

func TestParseFormat(t *testing.T) {
	for _, f := range AllFormats() {
		got, err := ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("%s: got %v, %v", f, got, err)
		}
		var u Format
		if err := u.UnmarshalText([]byte(f.String()[:1])); err != nil || u != f {
			t.Errorf("%s: short name gave %v, %v", f, u, err)
		}
	}
	if _, err := ParseFormat("json"); !errors.Is(err, ErrBadFormat) {
		t.Errorf("json: %v", err)
	}
	if s := Format(9).String(); s == "" {
		t.Error("empty string for bad format")
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		in   []byte
		want Format
		ok   bool
	}{
		{[]byte{0, 0, 0, 1, 5}, EvolvableFormat, true},
		{[]byte{0, 0, 0, 2}, FixedFormat, true},
		{[]byte{0, 0, 0, 3}, 0, false},
		{[]byte("a=b"), 0, false},
	}
	for _, tt := range tests {
		got, ok := Detect(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("%v: got %v, %v", tt.in, got, ok)
		}
	}
}
