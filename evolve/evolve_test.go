package evolve

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/go-cmp/cmp"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/registry"
)

type Shape interface {
	Area() float64
}

type Square struct {
	Side float64
}

func (s *Square) Area() float64 { return s.Side * s.Side }

type Circle struct {
	R     float64
	Label string
}

func (c Circle) Area() float64 { return 3 * c.R * c.R }

type Level int

const (
	Low Level = iota
	Mid
	High
)

func (Level) EnumNames() []string { return []string{"low", "mid", "high"} }

type Inner struct {
	N    int32
	Tags []string
}

type Everything struct {
	S      string
	B      bool
	I8     int8
	U16    uint16
	I      int
	U64    uint64
	F32    float32
	F64    float64
	Raw    []byte
	Lvl    Level
	Levels []Level
	When   time.Time
	Ptr    *int
	Nil    *int
	In     Inner
	InPtr  *Inner
	Ins    []*Inner
	Grid   [][]int
	Fixed  [3]uint8
	ByName map[string]Inner
	ByNum  map[int]string
	Any    any
	Shape  Shape
	Shapes []Shape
}

func testCodec(t *testing.T) *Codec {
	t.Helper()
	reg := registry.New()
	cat := registry.NewCategory("shape", reflect.TypeFor[Shape]())
	cat.MustRegister("square", reflect.TypeFor[Square]())
	cat.MustRegister("circle", reflect.TypeFor[Circle]())
	reg.MustAdd(cat)
	return New(WithCache(descriptor.NewCache(descriptor.WithRegistry(reg))))
}

func TestRoundTrip(t *testing.T) {
	c := testCodec(t)
	seven := 7
	in := &Everything{
		S: "hé", B: true, I8: -8, U16: 65535, I: -1 << 40, U64: 1 << 63,
		F32: 1.5, F64: -0.25, Raw: []byte{0, 1, 2},
		Lvl: High, Levels: []Level{Mid, Low},
		When:   time.Date(2024, 5, 6, 7, 8, 9, 10, time.UTC),
		Ptr:    &seven,
		In:     Inner{N: 3, Tags: []string{"a", ""}},
		InPtr:  &Inner{N: -3},
		Ins:    []*Inner{{N: 1}, nil, {Tags: []string{}}},
		Grid:   [][]int{{1, 2}, nil, {}},
		Fixed:  [3]uint8{9, 8, 7},
		ByName: map[string]Inner{"z": {N: 26}, "a": {N: 1}},
		ByNum:  map[int]string{3: "c", 1: "a"},
		Any:    map[string]any{"k": []any{int64(1), "two", nil}},
		Shape:  &Square{Side: 2},
		Shapes: []Shape{Circle{R: 1, Label: "c"}, nil, &Square{Side: 3}},
	}
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out := &Everything{}
	if err := c.Unmarshal(data, out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip (-in +out):\n%s", diff)
	}
}

type V1 struct {
	A string
	B int
	C []int
}

type V2 struct {
	A string
	C []int
	D string
}

type V2Required struct {
	A string
	C []int
	D string `codec:"required"`
}

func TestSchemaEvolution(t *testing.T) {
	c := testCodec(t)
	data, err := c.Marshal(V1{A: "a", B: 2, C: []int{3}})
	if err != nil {
		t.Fatal(err)
	}
	out := V2{D: "keep"}
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(V2{A: "a", C: []int{3}, D: "keep"}, out); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	var req V2Required
	err = c.Unmarshal(data, &req)
	var rf *descriptor.RequiredFieldError
	if !errors.As(err, &rf) || rf.Field != "D" {
		t.Fatalf("expected required field D, got %v", err)
	}
	req = V2Required{D: "present"}
	if err := c.Unmarshal(data, &req); err != nil {
		t.Errorf("required field already set: %v", err)
	}
}

type Scenario struct {
	X     int    `codec:"name=x"`
	Arr   []int  `codec:"name=arr"`
	Label string `codec:"name=label"`
}

type ScenarioNoLabel struct {
	X   int   `codec:"name=x"`
	Arr []int `codec:"name=arr"`
}

func TestScenario(t *testing.T) {
	c := testCodec(t)
	data, err := c.Marshal(&Scenario{X: 1, Arr: []int{15, 15}, Label: "ggg"})
	if err != nil {
		t.Fatal(err)
	}
	var back Scenario
	if err := c.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	again, _ := c.Marshal(&back)
	if !bytes.Equal(data, again) {
		t.Errorf("re-encoding differs:\n%x\n%x", data, again)
	}
	var narrow ScenarioNoLabel
	if err := c.Unmarshal(data, &narrow); err != nil {
		t.Fatal(err)
	}
	if narrow.X != 1 || !reflect.DeepEqual(narrow.Arr, []int{15, 15}) {
		t.Errorf("got %+v", narrow)
	}
}

// tearing mutates its pair inside TryLock, as a writer racing the encoder
// would; the encoded pair must still agree.
type tearing struct {
	mu   sync.Mutex
	A, B int
}

func (x *tearing) TryLock() bool {
	if !x.mu.TryLock() {
		return false
	}
	x.A++
	x.B++
	return true
}

func (x *tearing) Unlock() { x.mu.Unlock() }

func TestLockable(t *testing.T) {
	c := testCodec(t)
	x := &tearing{A: 4, B: 4}
	data, err := c.Marshal(x)
	if err != nil {
		t.Fatal(err)
	}
	var out tearing
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out.A != 5 || out.B != 5 {
		t.Errorf("torn read: %d/%d", out.A, out.B)
	}
	x.mu.Lock()
	_, err = c.Marshal(x)
	x.mu.Unlock()
	var le *descriptor.EncodeLockError
	if !errors.As(err, &le) {
		t.Errorf("expected lock error, got %v", err)
	}
}

type hooked struct {
	N       int
	Encoded bool `codec:"-"`
	Decoded bool `codec:"-"`
}

func (h *hooked) PreEncode()  { h.Encoded = true }
func (h *hooked) PostDecode() { h.Decoded = true }

func TestHooks(t *testing.T) {
	c := testCodec(t)
	h := &hooked{N: 1}
	data, err := c.Marshal(h)
	if err != nil {
		t.Fatal(err)
	}
	if !h.Encoded {
		t.Error("PreEncode not called")
	}
	var out hooked
	if err := c.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !out.Decoded || out.N != 1 {
		t.Errorf("got %+v", out)
	}
}

func TestPolymorphicTopLevel(t *testing.T) {
	c := testCodec(t)
	data, err := c.Marshal(Circle{R: 2})
	if err != nil {
		t.Fatal(err)
	}
	var s Shape
	if err := c.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Shape(Circle{R: 2}), s); diff != "" {
		t.Error(diff)
	}

	type unknown struct{ Side float64 }
	data, _ = c.Marshal(unknown{Side: 1})
	err = c.Unmarshal(data, &s)
	var ut *registry.UnresolvedTypeError
	if !errors.As(err, &ut) {
		t.Errorf("expected unresolved type, got %v", err)
	}
}

func TestNullObject(t *testing.T) {
	c := testCodec(t)
	data, err := c.Marshal((*Inner)(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{0, 0, 0, 1, 0}) {
		t.Errorf("null object = %x", data)
	}
	in := &Inner{N: 5}
	if err := c.Unmarshal(data, &in); err != nil {
		t.Fatal(err)
	}
	if in != nil {
		t.Errorf("expected nil, got %+v", in)
	}
}

func TestVersionMismatch(t *testing.T) {
	c := testCodec(t)
	var x Inner
	err := c.Unmarshal([]byte{0, 0, 0, 2, 0}, &x)
	var vm *descriptor.VersionMismatchError
	if !errors.As(err, &vm) {
		t.Errorf("expected version mismatch, got %v", err)
	}
}

type withValue struct {
	Qty  int `codec:"check='value < 10'"`
	Rows []Inner
}

func TestErrorPath(t *testing.T) {
	c := testCodec(t)
	type loose struct {
		Qty  int
		Rows []Inner
	}
	data, _ := c.Marshal(loose{Qty: 12})
	err := c.Unmarshal(data, &withValue{})
	var pe *descriptor.PathError
	var ve *descriptor.ValidationError
	if !errors.As(err, &pe) || pe.Path != "Qty" || !errors.As(err, &ve) {
		t.Errorf("got %v", err)
	}
	data = data[:len(data)-1]
	if err := c.Unmarshal(data, &withValue{}); err == nil {
		t.Error("expected error on truncated input")
	}
}

type counters struct {
	Hits  atomic.Int64
	Ok    atomic.Bool
	Price apd.Decimal
}

func TestAtomicsAndDecimals(t *testing.T) {
	c := testCodec(t)
	in := &counters{}
	in.Hits.Store(42)
	in.Ok.Store(true)
	in.Price.SetString("19.990")
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out := &counters{}
	if err := c.Unmarshal(data, out); err != nil {
		t.Fatal(err)
	}
	if out.Hits.Load() != 42 || !out.Ok.Load() || out.Price.String() != "19.990" {
		t.Errorf("got %d %v %s", out.Hits.Load(), out.Ok.Load(), out.Price.String())
	}
}

func TestInspect(t *testing.T) {
	c := testCodec(t)
	data, err := c.Marshal(&Scenario{X: 1, Arr: []int{15, 15}, Label: "ggg"})
	if err != nil {
		t.Fatal(err)
	}
	n, err := Inspect(data)
	if err != nil {
		t.Fatal(err)
	}
	if got := n.Get(InspectTypeKey).String; got != "evolve.Scenario" {
		t.Errorf("type = %q", got)
	}
	if got := n.Get("x").String; got != "0000000000000001" {
		t.Errorf("x = %q", got)
	}
	if got := n.Get("label").String; got != "ggg" {
		t.Errorf("label = %q", got)
	}
	if n.Get("arr") == nil {
		t.Errorf("keys = %v", n.Keys())
	}
}
