package descriptor

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		want    map[string]string
		wantErr bool
	}{
		{
			name: "empty",
			tag:  "",
			want: map[string]string{},
		},
		{
			name: "flags",
			tag:  "required,intern",
			want: map[string]string{"required": "", "intern": ""},
		},
		{
			name: "space separated",
			tag:  "name=id required",
			want: map[string]string{"name": "id", "required": ""},
		},
		{
			name: "quoted value with spaces and commas",
			tag:  "check='value > 0, or not', readonly",
			want: map[string]string{"check": "value > 0, or not", "readonly": ""},
		},
		{
			name: "double quoted",
			tag:  `check="field == 'x'"`,
			want: map[string]string{"check": "field == 'x'"},
		},
		{
			name:    "unterminated quote",
			tag:     "check='value",
			wantErr: true,
		},
		{
			name:    "empty key",
			tag:     "=x",
			wantErr: true,
		},
		{
			name:    "duplicate key",
			tag:     "name=a,name=b",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTag(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
			if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseTag(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestPolicyErrors(t *testing.T) {
	type unknownKey struct {
		A int `codec:"bogus"`
	}
	type badValidator struct {
		A int `codec:"validate=nosuch"`
	}
	type badCheck struct {
		A int `codec:"check='value >'"`
	}
	type both struct {
		A int `codec:"readonly,writeonly"`
	}
	type unexportedTagged struct {
		a int `codec:"required"`
	}
	type internInt struct {
		A int `codec:"intern"`
	}
	c := NewCache()
	for _, v := range []any{unknownKey{}, badValidator{}, badCheck{}, both{}, unexportedTagged{}, internInt{}} {
		t.Run(reflect.TypeOf(v).Name(), func(t *testing.T) {
			_, err := c.ForValue(v)
			var pe *PolicyError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *PolicyError, got %v", err)
			}
		})
	}
	if c.Len() != 0 {
		t.Errorf("failed builds were cached: %d", c.Len())
	}
}
