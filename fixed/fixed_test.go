package fixed

import (
	"bytes"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/objcodec/descriptor"
	"github.com/signadot/objcodec/registry"
)

type Pet interface {
	Name() string
}

type Cat struct {
	Called string
	Lives  int8
}

func (c *Cat) Name() string { return c.Called }

type Fish struct {
	Called string
	Fins   []uint16
}

func (f Fish) Name() string { return f.Called }

type Mood int

const (
	Calm Mood = iota
	Cross
)

func (Mood) EnumNames() []string { return []string{"calm", "cross"} }

type Home struct {
	Owner   string `codec:"required"`
	Since   time.Time
	Floors  []int16
	Temps   []float64
	Ratios  [2]float32
	Lights  []bool
	Moods   []Mood
	Ages    []uint32
	Rooms   map[string][]string
	Pets    []Pet
	Keeper  Pet
	Extra   any
	Visitor *Cat
	Notes   []*string
}

func testCodec(t *testing.T, opts ...Option) *Codec {
	t.Helper()
	reg := registry.New()
	cat := registry.NewCategory("pet", reflect.TypeFor[Pet]())
	cat.MustRegister("cat", reflect.TypeFor[Cat]())
	cat.MustRegister("fish", reflect.TypeFor[Fish]())
	reg.MustAdd(cat)
	opts = append([]Option{WithCache(descriptor.NewCache(descriptor.WithRegistry(reg)))}, opts...)
	return New(opts...)
}

func sampleHome() *Home {
	note := "hello"
	return &Home{
		Owner:   "ann",
		Since:   time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC),
		Floors:  []int16{-1, 0, 1},
		Temps:   []float64{20.5, -3},
		Ratios:  [2]float32{0.5, 2},
		Lights:  []bool{true, false},
		Moods:   []Mood{Cross, Calm},
		Ages:    []uint32{1, 1 << 31},
		Rooms:   map[string][]string{"kitchen": {"sink"}, "attic": nil},
		Pets:    []Pet{&Cat{Called: "tom", Lives: 9}, Fish{Called: "nemo", Fins: []uint16{1, 2}}, nil},
		Keeper:  Fish{Called: "dory"},
		Extra:   []any{"x", int64(2), map[string]any{"y": true}},
		Visitor: &Cat{Called: "felix"},
		Notes:   []*string{&note, nil},
	}
}

func TestRoundTrip(t *testing.T) {
	c := testCodec(t)
	in := sampleHome()
	data, err := c.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	out := &Home{}
	if err := c.Unmarshal(data, out); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("round trip (-in +out):\n%s", diff)
	}
}

func TestStability(t *testing.T) {
	c := testCodec(t)
	first, err := c.Marshal(sampleHome())
	if err != nil {
		t.Fatal(err)
	}
	var back Home
	if err := c.Unmarshal(first, &back); err != nil {
		t.Fatal(err)
	}
	second, err := c.Marshal(&back)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("unstable encoding:\n%x\n%x", first, second)
	}
}

type Scenario struct {
	X     int    `codec:"name=x"`
	Arr   []int  `codec:"name=arr"`
	Label string `codec:"name=label"`
}

func TestScenarioBytes(t *testing.T) {
	c := testCodec(t)
	data, err := c.Marshal(&Scenario{X: 1, Arr: []int{15, 15}, Label: "ggg"})
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0, 0, 0, 2, // version
		1,          // present
		1, 2, // arr
		0, 0, 0, 0, 0, 0, 0, 15,
		0, 0, 0, 0, 0, 0, 0, 15,
		1, 3, 'g', 'g', 'g', // label
		1, 0, 0, 0, 0, 0, 0, 0, 1, // x
	}
	if !bytes.Equal(data, want) {
		t.Errorf("got  %x\nwant %x", data, want)
	}
	var back Scenario
	if err := c.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	again, _ := c.Marshal(&back)
	if !bytes.Equal(data, again) {
		t.Errorf("round trip differs")
	}
}

func TestNullAndErrors(t *testing.T) {
	c := testCodec(t)
	data, _ := c.Marshal(nil)
	if !bytes.Equal(data, []byte{0, 0, 0, 2, 0}) {
		t.Errorf("null object = %x", data)
	}

	type needsRef struct {
		Ref *Cat `codec:"required"`
	}
	data, err := c.Marshal(needsRef{})
	if err != nil {
		t.Fatal(err)
	}
	err = c.Unmarshal(data, &needsRef{})
	var rf *descriptor.RequiredFieldError
	if !errors.As(err, &rf) || rf.Field != "Ref" {
		t.Errorf("expected required field error, got %v", err)
	}

	data, _ = c.Marshal(&Scenario{X: 1})
	err = c.Unmarshal(append(data, 7), &Scenario{})
	var mi *descriptor.MalformedInputError
	if !errors.As(err, &mi) {
		t.Errorf("expected trailing bytes error, got %v", err)
	}
	err = c.Unmarshal(data[:len(data)-2], &Scenario{})
	if !errors.As(err, &mi) {
		t.Errorf("expected truncation error, got %v", err)
	}
	err = c.Unmarshal([]byte{0, 0, 0, 1, 0}, &Scenario{})
	var vm *descriptor.VersionMismatchError
	if !errors.As(err, &vm) {
		t.Errorf("expected version mismatch, got %v", err)
	}
}

func TestConcreteTypeMismatch(t *testing.T) {
	c := testCodec(t)
	type holdsFish struct{ P Fish }
	type holdsCat struct{ P Cat }
	data, err := c.Marshal(&holdsFish{P: Fish{Called: "nemo"}})
	if err != nil {
		t.Fatal(err)
	}
	err = c.Unmarshal(data, &holdsCat{})
	var mi *descriptor.MalformedInputError
	if !errors.As(err, &mi) {
		t.Fatalf("expected malformed input, got %v", err)
	}
	var pe *descriptor.PathError
	if !errors.As(err, &pe) || pe.Path != "P" {
		t.Errorf("error lacks path: %v", err)
	}

	var back holdsFish
	if err := c.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.P.Called != "nemo" {
		t.Errorf("got %+v", back)
	}
}

func TestStats(t *testing.T) {
	var st Stats
	c := testCodec(t, WithStats(&st))
	s := &struct {
		A  int32
		M  map[string]string
		No []int
	}{A: 1, M: map[string]string{"k": "vv", "longer": "v"}}
	data, err := c.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	plain, _ := testCodec(t).Marshal(s)
	if !bytes.Equal(data, plain) {
		t.Error("stats changed the encoding")
	}
	want := Stats{
		Fields:  map[string]int64{"A": 5, "M": 20, "No": 1},
		MapKeys: map[string]map[string]int64{"M": {"k": 7, "longer": 11}},
	}
	if diff := cmp.Diff(want, st); diff != "" {
		t.Errorf("stats (-want +got):\n%s", diff)
	}
	var sum int64
	for _, n := range st.Fields {
		sum += n
	}
	if sum != int64(len(data)-5) {
		t.Errorf("field sizes sum to %d, payload is %d", sum, len(data)-5)
	}
}

type guarded struct {
	sync.Mutex
	N int
}

func TestLockable(t *testing.T) {
	c := testCodec(t)
	g := &guarded{N: 3}
	g.Lock()
	_, err := c.Marshal(g)
	var le *descriptor.EncodeLockError
	if !errors.As(err, &le) {
		t.Errorf("expected lock error, got %v", err)
	}
	g.Unlock()
	if _, err := c.Marshal(g); err != nil {
		t.Error(err)
	}
	if !g.TryLock() {
		t.Error("lock not released")
	}
}
