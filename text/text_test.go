package text

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/registry"
)

type Shape interface {
	Area() float64
}

type Circle struct {
	R float64 `codec:"name=r"`
}

func (c Circle) Area() float64 { return 3 * c.R * c.R }

type Square struct {
	Side float64 `codec:"name=side"`
}

func (s *Square) Area() float64 { return s.Side * s.Side }

type Poly struct {
	Points []int `codec:"name=points"`
}

func (p *Poly) Area() float64 { return float64(len(p.Points)) }

type Drawing struct {
	Title  string            `codec:"name=title,required"`
	Main   Shape             `codec:"name=main"`
	Extra  []Shape           `codec:"name=extra"`
	Meta   any               `codec:"name=meta"`
	Scale  float32           `codec:"name=scale"`
	Count  int16             `codec:"name=count"`
	Layers map[string]uint8  `codec:"name=layers"`
	Raw    []byte            `codec:"name=raw"`
	Secret string            `codec:"name=secret,writeonly"`
	Stamp  string            `codec:"name=stamp,readonly"`
	Labels map[int]string    `codec:"name=labels"`
	Nested map[string][]bool `codec:"name=nested"`
}

func testCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	reg := registry.New()
	cat := registry.NewCategory("shape", reflect.TypeFor[Shape]())
	cat.MustRegister("circle", reflect.TypeFor[Circle]())
	cat.MustRegister("square", reflect.TypeFor[Square]())
	cat.MustRegister("poly", reflect.TypeFor[Poly]())
	if err := cat.SetDefault(reflect.TypeFor[Circle]()); err != nil {
		t.Fatal(err)
	}
	if err := cat.SetArraySugar(reflect.TypeFor[Poly](), "points"); err != nil {
		t.Fatal(err)
	}
	reg.MustAdd(cat)
	opts = append([]Option{WithCache(descriptor.NewCache(descriptor.WithRegistry(reg)))}, opts...)
	return New(opts...)
}

func TestRoundTrip(t *testing.T) {
	for _, flow := range []bool{false, true} {
		var opts []Option
		if flow {
			opts = append(opts, WithFlow())
		}
		c := testCodec(t, opts...)
		in := &Drawing{
			Title:  "plan",
			Main:   &Square{Side: 2},
			Extra:  []Shape{Circle{R: 1}, &Poly{Points: []int{1, 2}}},
			Meta:   map[string]any{"a": []any{int64(1), "x", true}},
			Scale:  1.5,
			Count:  -3,
			Layers: map[string]uint8{"top": 1, "bottom": 0},
			Raw:    []byte("raw"),
			Secret: "s3",
			Stamp:  "now",
			Labels: map[int]string{2: "two", 10: "ten"},
			Nested: map[string][]bool{"k": {true, false}},
		}
		data, err := c.Marshal(in)
		if err != nil {
			t.Fatal(err)
		}
		if strings.Contains(string(data), "now") {
			t.Errorf("readonly field encoded:\n%s", data)
		}
		if !strings.Contains(string(data), "s3") {
			t.Errorf("writeonly field not encoded:\n%s", data)
		}
		out := &Drawing{}
		if err := c.Unmarshal(data, out); err != nil {
			t.Fatalf("%v\n%s", err, data)
		}
		want := *in
		want.Secret = ""
		want.Stamp = ""
		if diff := cmp.Diff(&want, out); diff != "" {
			t.Errorf("flow=%v (-want +got):\n%s\n%s", flow, diff, data)
		}
	}
}

type Notes struct {
	S     string   `codec:"name=s"`
	Lines []string `codec:"name=lines"`
}

func TestStringsThatLookLikeOtherScalars(t *testing.T) {
	tricky := []string{
		".inf", "-.Inf", "+.inf", ".nan", ".NaN", "~", "null", "Null", "", "true", "no",
		"0x10", "0o7", "1e3", "-0", "a: b", "x #y", " pad", "a,b", "[x]", "{y}", "two\nlines",
		`quo"te`, "it's", "!tag", "&anchor", "*alias", "- dash", "plain words",
	}
	for _, flow := range []bool{false, true} {
		var opts []Option
		if flow {
			opts = append(opts, WithFlow())
		}
		c := testCodec(t, opts...)
		for _, s := range tricky {
			in := &Notes{S: s, Lines: []string{s, "ok"}}
			data, err := c.Marshal(in)
			if err != nil {
				t.Fatal(err)
			}
			out := &Notes{}
			if err := c.Unmarshal(data, out); err != nil {
				t.Errorf("flow=%v %q: %v\n%s", flow, s, err, data)
				continue
			}
			if diff := cmp.Diff(in, out); diff != "" {
				t.Errorf("flow=%v %q (-want +got):\n%s\n%s", flow, s, diff, data)
			}
		}
	}
}

func TestTypeKeyOnlyWhenNeeded(t *testing.T) {
	c := testCodec(t)
	n, err := c.Encode(&Drawing{Title: "t", Main: Circle{R: 1}, Extra: []Shape{&Square{Side: 1}}})
	if err != nil {
		t.Fatal(err)
	}
	if n.Get("main").Get(DefaultTypeKey) != nil {
		t.Error("default type should not be tagged")
	}
	if got := n.Get("extra").Values[0].Get(DefaultTypeKey); got == nil || got.String != "square" {
		t.Errorf("square not tagged: %v", got)
	}
}

const polyDoc = `title: t
main: {type: square, side: 2}
extra:
  - circle: {r: 1}
  - poly
  - [1, 2, 3]
  - !square {side: 3}
  - {r: 4}
  - square:
`

func TestPolymorphism(t *testing.T) {
	c := testCodec(t)
	var d Drawing
	if err := c.Unmarshal([]byte(polyDoc), &d); err != nil {
		t.Fatal(err)
	}
	want := Drawing{
		Title: "t",
		Main:  &Square{Side: 2},
		Extra: []Shape{
			Circle{R: 1},
			&Poly{},
			&Poly{Points: []int{1, 2, 3}},
			&Square{Side: 3},
			Circle{R: 4},
			&Square{},
		},
	}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestUnresolvedType(t *testing.T) {
	c := testCodec(t)
	err := c.Unmarshal([]byte("title: t\nmain: {type: sqaure}\n"), &Drawing{})
	var ut *registry.UnresolvedTypeError
	if !errors.As(err, &ut) {
		t.Fatalf("expected unresolved type, got %v", err)
	}
	if len(ut.Suggestions) == 0 || ut.Suggestions[0] != "square" {
		t.Errorf("suggestions = %v", ut.Suggestions)
	}
	var pe *descriptor.PathError
	if !errors.As(err, &pe) || pe.Pos == nil || pe.Pos.Line != 2 || pe.Path != "main" {
		t.Errorf("error lacks position or path: %v", err)
	}

	reg := registry.New()
	reg.MustAdd(registry.NewCategory("shape", reflect.TypeFor[Shape]()))
	bare := New(WithCache(descriptor.NewCache(descriptor.WithRegistry(reg))))
	err = bare.Unmarshal([]byte("title: t\nmain: {side: 1}\n"), &Drawing{})
	if !errors.As(err, &ut) || ut.Name != "" {
		t.Errorf("expected unresolved type without default, got %v", err)
	}

	reg = registry.New()
	cat := registry.NewCategory("shape", reflect.TypeFor[Shape]())
	cat.MustRegister("square", reflect.TypeFor[Square]())
	reg.MustAdd(cat)
	nodef := New(WithCache(descriptor.NewCache(descriptor.WithRegistry(reg))))
	err = nodef.Unmarshal([]byte("title: t\nmain:\n  sqare: {side: 1}\n"), &Drawing{})
	if !errors.As(err, &ut) {
		t.Fatalf("expected unresolved type, got %v", err)
	}
	if ut.Name != "sqare" || len(ut.Suggestions) != 1 || ut.Suggestions[0] != "square" {
		t.Errorf("got %+v", ut)
	}
	if !strings.Contains(err.Error(), "did you mean square") {
		t.Errorf("error lacks suggestion: %v", err)
	}
}

func TestConversionErrorsCarryPosition(t *testing.T) {
	c := testCodec(t)
	tests := []struct {
		doc  string
		line int
		msg  string
	}{
		{"title: t\ncount: many\n", 2, `cannot convert "many" to integer`},
		{"title: t\ncount: 70000\n", 2, `cannot convert "70000" to integer`},
		{"title: t\nscale: x\n", 2, `cannot convert "x" to double`},
		{"title: t\nnested:\n  k: [true, maybe]\n", 3, `cannot convert "maybe" to boolean`},
		{"title: t\nlabels: {x: a}\n", 2, `cannot convert "x" to long`},
	}
	for _, tt := range tests {
		err := c.Unmarshal([]byte(tt.doc), &Drawing{})
		var pe *descriptor.PathError
		if !errors.As(err, &pe) || pe.Pos == nil {
			t.Errorf("%q: no position in %v", tt.doc, err)
			continue
		}
		if pe.Pos.Line != tt.line {
			t.Errorf("%q: line %d, want %d", tt.doc, pe.Pos.Line, tt.line)
		}
		if !strings.Contains(err.Error(), tt.msg) {
			t.Errorf("%q: %v does not mention %s", tt.doc, err, tt.msg)
		}
	}
}

func TestRequiredAndWarnings(t *testing.T) {
	var warns []Warning
	c := testCodec(t, WithWarnings(func(w Warning) { warns = append(warns, w) }))
	err := c.Unmarshal([]byte("count: 1\n"), &Drawing{})
	var rf *descriptor.RequiredFieldError
	if !errors.As(err, &rf) || rf.Field != "title" {
		t.Fatalf("expected required title, got %v", err)
	}

	doc := "title: t\ncolour: red\nmain:\n  r: 1\n  edge: 2\nstamp: s\nsecret: x\n"
	var d Drawing
	if err := c.Unmarshal([]byte(doc), &d); err != nil {
		t.Fatal(err)
	}
	if d.Stamp != "s" || d.Secret != "" {
		t.Errorf("stamp=%q secret=%q", d.Stamp, d.Secret)
	}
	if len(warns) != 2 {
		t.Fatalf("warnings = %v", warns)
	}
	keys := map[string]int{}
	for _, w := range warns {
		keys[w.Key] = w.Pos.Line
	}
	if keys["colour"] != 2 || keys["edge"] != 5 {
		t.Errorf("warnings = %v", warns)
	}
}

type tableDefaults map[string]map[string]any

func (d tableDefaults) Lookup(typeName, field string) (any, bool) {
	v, ok := d[typeName][field]
	return v, ok
}

func TestDefaults(t *testing.T) {
	defs := tableDefaults{
		"text.Drawing": {"title": "untitled", "count": 7},
		"circle":       {"r": 0.5},
	}
	c := testCodec(t, WithDefaults(defs))
	var d Drawing
	if err := c.Unmarshal([]byte("main: {}\nscale: 2\n"), &d); err != nil {
		t.Fatal(err)
	}
	want := Drawing{Title: "untitled", Count: 7, Scale: 2, Main: Circle{R: 0.5}}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{"a: [1, 2", "a: 1\na: 2\n", "a: *nope\n"} {
		_, err := Parse([]byte(doc))
		var mi *descriptor.MalformedInputError
		if !errors.As(err, &mi) {
			t.Errorf("%q: expected malformed input, got %v", doc, err)
		}
	}
	n, err := Parse([]byte("base: &b {x: 1}\nderived:\n  <<: *b\n  y: 2\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Get("derived").Keys(); !reflect.DeepEqual(got, []string{"x", "y"}) {
		t.Errorf("merged keys = %v", got)
	}
}
