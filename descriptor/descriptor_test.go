package descriptor

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/objcodec/registry"
)

type Animal interface {
	Sound() string
}

type Base struct {
	ID    string `codec:"required"`
	Shade string
}

type Dog struct {
	Base
	Shade string `codec:"name=shade"`
	Legs  int    `codec:"check='value >= 0'"`
	Tags  []string
	Meta  map[string]int
	Skip  []byte `codec:"-"`
	Name  string `codec:"intern,validate=nonempty"`
	Note  string `codec:"readonly"`
	Token string `codec:"writeonly"`

	secret int
}

func (*Dog) Sound() string { return "woof" }

type Puppy struct {
	*Dog
	Age int
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	reg := registry.New()
	cat := registry.NewCategory("animal", reflect.TypeFor[Animal]())
	cat.MustRegister("dog", reflect.TypeFor[Dog]())
	reg.MustAdd(cat)
	return NewCache(WithRegistry(reg))
}

func fieldNames(d *Descriptor) []string {
	var res []string
	for _, f := range d.Fields {
		res = append(res, f.Name)
	}
	return res
}

func TestBuildComposite(t *testing.T) {
	c := testCache(t)
	d, err := c.For(reflect.TypeFor[*Dog]())
	if err != nil {
		t.Fatal(err)
	}
	if d.Kind != Composite {
		t.Fatalf("kind = %s", d.Kind)
	}
	want := []string{"ID", "Legs", "Meta", "Name", "Note", "Shade", "Tags", "Token", "shade"}
	if diff := cmp.Diff(want, fieldNames(d)); diff != "" {
		t.Errorf("fields (-want +got):\n%s", diff)
	}
	if d.Category == nil || d.Category.Name != "animal" {
		t.Errorf("expected binding to animal, got %v", d.Category)
	}
	if d.TypeName() != "dog" {
		t.Errorf("type name = %q", d.TypeName())
	}
	checks := map[string]Flags{
		"ID":    FlagNative | FlagRequired,
		"Legs":  FlagNative | FlagNumber,
		"Tags":  FlagArray | FlagCollection | FlagNative,
		"Meta":  FlagMap | FlagNative | FlagNumber,
		"Note":  FlagNative | FlagReadOnly,
		"Token": FlagNative | FlagWriteOnly,
		"Name":  FlagNative | FlagInterned,
	}
	for name, fl := range checks {
		f, ok := d.Field(name)
		if !ok {
			t.Fatalf("no field %s", name)
		}
		if f.Flags != fl {
			t.Errorf("%s flags = %s, want %s", name, f.Flags, fl)
		}
	}
	meta, _ := d.Field("Meta")
	if meta.Key.Type != reflect.TypeFor[string]() || meta.Value.Type != reflect.TypeFor[int]() {
		t.Errorf("meta key/value = %v/%v", meta.Key.Type, meta.Value.Type)
	}
}

func TestShadowingMostDerivedFirst(t *testing.T) {
	type inner struct{ X, Y int }
	type outer struct {
		inner
		X string
	}
	c := NewCache(WithRegistry(registry.New()))
	d, err := c.For(reflect.TypeFor[outer]())
	if err != nil {
		t.Fatal(err)
	}
	x, _ := d.Field("X")
	if x.Type.Kind() != reflect.String {
		t.Errorf("X should come from outer, got %s", x.Type)
	}
	if diff := cmp.Diff([]string{"X", "Y"}, fieldNames(d)); diff != "" {
		t.Error(diff)
	}
}

func TestBindThroughEmbedding(t *testing.T) {
	c := testCache(t)
	d, err := c.For(reflect.TypeFor[Puppy]())
	if err != nil {
		t.Fatal(err)
	}
	if d.Category == nil {
		t.Fatal("Puppy should bind through its *Dog ancestor's interface")
	}
	if d.Base != reflect.TypeFor[Animal]() {
		t.Errorf("base = %v", d.Base)
	}
}

func TestKinds(t *testing.T) {
	c := testCache(t)
	tests := []struct {
		t    reflect.Type
		want Kind
	}{
		{reflect.TypeFor[int](), Scalar},
		{reflect.TypeFor[Animal](), Interface},
		{reflect.TypeFor[any](), Dynamic},
		{reflect.TypeFor[[]Dog](), Container},
		{reflect.TypeFor[map[string]int](), Container},
		{reflect.TypeFor[**Dog](), Composite},
	}
	for _, tt := range tests {
		d, err := c.For(tt.t)
		if err != nil {
			t.Fatalf("%s: %v", tt.t, err)
		}
		if d.Kind != tt.want {
			t.Errorf("%s: kind %s, want %s", tt.t, d.Kind, tt.want)
		}
	}
	if _, err := c.For(reflect.TypeFor[chan int]()); err == nil {
		t.Error("expected error for chan")
	}
}

func TestFieldSet(t *testing.T) {
	c := testCache(t)
	d, err := c.For(reflect.TypeFor[Puppy]())
	if err != nil {
		t.Fatal(err)
	}
	p := &Puppy{}
	owner := reflect.ValueOf(p)

	id, _ := d.Field("ID")
	err = id.Set(owner, reflect.Value{})
	var rf *RequiredFieldError
	if !errors.As(err, &rf) || rf.Field != "ID" {
		t.Fatalf("expected required field error, got %v", err)
	}
	if err := id.Set(owner, reflect.ValueOf("d1")); err != nil {
		t.Fatal(err)
	}
	if p.Dog == nil || p.ID != "d1" {
		t.Fatalf("embedded pointer not allocated: %+v", p)
	}
	if err := id.Set(owner, reflect.Value{}); err != nil {
		t.Errorf("null over present required value: %v", err)
	}

	legs, _ := d.Field("Legs")
	err = legs.Set(owner, reflect.ValueOf(-1))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	name, _ := d.Field("Name")
	if err := name.Set(owner, reflect.ValueOf("")); !errors.As(err, &ve) {
		t.Fatalf("expected nonempty to reject, got %v", err)
	}

	q := &Puppy{}
	s1 := string([]byte("rex"))
	s2 := string([]byte("rex"))
	_ = name.Set(owner, reflect.ValueOf(s1))
	_ = name.Set(reflect.ValueOf(q), reflect.ValueOf(s2))
	if unsafe.StringData(p.Name) != unsafe.StringData(q.Name) {
		t.Error("interned strings do not share storage")
	}

	err = legs.SetAt(owner, reflect.ValueOf(-2), Pos{Line: 3, Column: 4})
	var pe *PathError
	if !errors.As(err, &pe) || pe.Pos == nil || pe.Pos.Line != 3 {
		t.Errorf("expected positioned error, got %v", err)
	}
}

type locked struct {
	sync.Mutex
	N int
}

func TestWithLock(t *testing.T) {
	l := &locked{}
	ran := false
	if err := WithLock(reflect.ValueOf(l), func() error {
		ran = true
		if l.TryLock() {
			t.Error("value not locked during fn")
		}
		return nil
	}); err != nil || !ran {
		t.Fatalf("err=%v ran=%v", err, ran)
	}
	l.Lock()
	err := WithLock(reflect.ValueOf(l), func() error { return nil })
	var le *EncodeLockError
	if !errors.As(err, &le) {
		t.Errorf("expected lock error, got %v", err)
	}
	l.Unlock()
	if err := WithLock(reflect.ValueOf(3), func() error { return nil }); err != nil {
		t.Error(err)
	}
}

func TestCacheConcurrentBuild(t *testing.T) {
	c := testCache(t)
	var wg sync.WaitGroup
	ds := make([]*Descriptor, 16)
	for i := range ds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ds[i], _ = c.For(reflect.TypeFor[Dog]())
		}()
	}
	wg.Wait()
	for _, d := range ds[1:] {
		if d != ds[0] {
			t.Fatal("descriptors differ across racing builds")
		}
	}
	c.Flush()
	if c.Len() != 0 {
		t.Errorf("len after flush = %d", c.Len())
	}
}

func TestPathError(t *testing.T) {
	base := &RequiredFieldError{Field: "c", Owner: reflect.TypeFor[Dog]()}
	err := WithField(WithIndex(WithField(base, "b"), 2), "a")
	var pe *PathError
	if !errors.As(err, &pe) || pe.Path != "a[2].b" {
		t.Fatalf("path = %v", err)
	}
	var rf *RequiredFieldError
	if !errors.As(err, &rf) {
		t.Error("taxonomy error not reachable")
	}
	err = WithPos(err, Pos{Line: 1, Column: 2})
	if got := err.Error(); got != `line 1, column 2 (a[2].b): required field "c" of descriptor.Dog is missing` {
		t.Errorf("got %q", got)
	}
}
