package descriptor

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// ScalarKind identifies a leaf value type.
type ScalarKind uint8

const (
	NotScalar ScalarKind = iota
	StringScalar
	BoolScalar
	IntScalar
	Int8Scalar
	Int16Scalar
	Int32Scalar
	Int64Scalar
	UintScalar
	Uint8Scalar
	Uint16Scalar
	Uint32Scalar
	Uint64Scalar
	Float32Scalar
	Float64Scalar
	BytesScalar
	EnumScalar
	DecimalScalar
	TimeScalar
	AtomicInt32Scalar
	AtomicInt64Scalar
	AtomicUint32Scalar
	AtomicUint64Scalar
	AtomicBoolScalar
)

var scalarNames = [...]string{
	NotScalar:          "none",
	StringScalar:       "string",
	BoolScalar:         "bool",
	IntScalar:          "int",
	Int8Scalar:         "int8",
	Int16Scalar:        "int16",
	Int32Scalar:        "int32",
	Int64Scalar:        "int64",
	UintScalar:         "uint",
	Uint8Scalar:        "uint8",
	Uint16Scalar:       "uint16",
	Uint32Scalar:       "uint32",
	Uint64Scalar:       "uint64",
	Float32Scalar:      "float32",
	Float64Scalar:      "float64",
	BytesScalar:        "bytes",
	EnumScalar:         "enum",
	DecimalScalar:      "decimal",
	TimeScalar:         "time",
	AtomicInt32Scalar:  "atomic.Int32",
	AtomicInt64Scalar:  "atomic.Int64",
	AtomicUint32Scalar: "atomic.Uint32",
	AtomicUint64Scalar: "atomic.Uint64",
	AtomicBoolScalar:   "atomic.Bool",
}

func (k ScalarKind) String() string {
	if int(k) < len(scalarNames) {
		return scalarNames[k]
	}
	return "<unknown scalar>"
}

// Enum is implemented by named integer types whose values are encoded by
// name. The value v names EnumNames()[v].
type Enum interface {
	EnumNames() []string
}

var (
	enumType         = reflect.TypeFor[Enum]()
	decimalType      = reflect.TypeFor[apd.Decimal]()
	timeType         = reflect.TypeFor[time.Time]()
	atomicInt32Type  = reflect.TypeFor[atomic.Int32]()
	atomicInt64Type  = reflect.TypeFor[atomic.Int64]()
	atomicUint32Type = reflect.TypeFor[atomic.Uint32]()
	atomicUint64Type = reflect.TypeFor[atomic.Uint64]()
	atomicBoolType   = reflect.TypeFor[atomic.Bool]()
)

// ScalarKindOf classifies t, returning NotScalar for anything that needs a
// recursive walk.
func ScalarKindOf(t reflect.Type) ScalarKind {
	switch t {
	case decimalType:
		return DecimalScalar
	case timeType:
		return TimeScalar
	case atomicInt32Type:
		return AtomicInt32Scalar
	case atomicInt64Type:
		return AtomicInt64Scalar
	case atomicUint32Type:
		return AtomicUint32Scalar
	case atomicUint64Type:
		return AtomicUint64Scalar
	case atomicBoolType:
		return AtomicBoolScalar
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if t.Implements(enumType) || reflect.PointerTo(t).Implements(enumType) {
			return EnumScalar
		}
	}
	switch t.Kind() {
	case reflect.String:
		return StringScalar
	case reflect.Bool:
		return BoolScalar
	case reflect.Int:
		return IntScalar
	case reflect.Int8:
		return Int8Scalar
	case reflect.Int16:
		return Int16Scalar
	case reflect.Int32:
		return Int32Scalar
	case reflect.Int64:
		return Int64Scalar
	case reflect.Uint:
		return UintScalar
	case reflect.Uint8:
		return Uint8Scalar
	case reflect.Uint16:
		return Uint16Scalar
	case reflect.Uint32:
		return Uint32Scalar
	case reflect.Uint64:
		return Uint64Scalar
	case reflect.Float32:
		return Float32Scalar
	case reflect.Float64:
		return Float64Scalar
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return BytesScalar
		}
	}
	return NotScalar
}

// Bits is the fixed binary width of k, or 0 for variable width kinds.
func (k ScalarKind) Bits() int {
	switch k {
	case BoolScalar, Int8Scalar, Uint8Scalar, AtomicBoolScalar:
		return 8
	case Int16Scalar, Uint16Scalar:
		return 16
	case Int32Scalar, Uint32Scalar, Float32Scalar, AtomicInt32Scalar, AtomicUint32Scalar:
		return 32
	case IntScalar, Int64Scalar, UintScalar, Uint64Scalar, Float64Scalar,
		AtomicInt64Scalar, AtomicUint64Scalar:
		return 64
	}
	return 0
}

func (k ScalarKind) Signed() bool {
	switch k {
	case IntScalar, Int8Scalar, Int16Scalar, Int32Scalar, Int64Scalar,
		AtomicInt32Scalar, AtomicInt64Scalar:
		return true
	}
	return false
}

func (k ScalarKind) Unsigned() bool {
	switch k {
	case UintScalar, Uint8Scalar, Uint16Scalar, Uint32Scalar, Uint64Scalar,
		AtomicUint32Scalar, AtomicUint64Scalar:
		return true
	}
	return false
}

func (k ScalarKind) Float() bool {
	return k == Float32Scalar || k == Float64Scalar
}

// Number reports whether k is numeric (including decimals).
func (k ScalarKind) Number() bool {
	return k.Signed() || k.Unsigned() || k.Float() || k == DecimalScalar
}

// Textual reports whether k travels as its canonical text in binary formats.
func (k ScalarKind) Textual() bool {
	switch k {
	case StringScalar, EnumScalar, DecimalScalar, TimeScalar:
		return true
	}
	return false
}

func (k ScalarKind) target() string {
	switch k {
	case Int8Scalar, Int16Scalar, Int32Scalar, Uint8Scalar, Uint16Scalar, Uint32Scalar,
		AtomicInt32Scalar, AtomicUint32Scalar:
		return "integer"
	case IntScalar, Int64Scalar, UintScalar, Uint64Scalar, AtomicInt64Scalar, AtomicUint64Scalar:
		return "long"
	case Float32Scalar, Float64Scalar, DecimalScalar:
		return "double"
	case BoolScalar, AtomicBoolScalar:
		return "boolean"
	case BytesScalar:
		return "bytes"
	case TimeScalar:
		return "time"
	case EnumScalar:
		return "enum"
	}
	return "string"
}

func enumNames(t reflect.Type) []string {
	if e, ok := reflect.Zero(t).Interface().(Enum); ok {
		return e.EnumNames()
	}
	if e, ok := reflect.New(t).Interface().(Enum); ok {
		return e.EnumNames()
	}
	return nil
}

func addressable(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v
	}
	c := reflect.New(v.Type()).Elem()
	c.Set(v)
	return c
}

// ScalarValue reads v as a canonical Go value: string, bool, int64, uint64,
// float64 or []byte. Enums, decimals and times read as their text.
func ScalarValue(v reflect.Value, k ScalarKind) (any, error) {
	switch k {
	case StringScalar:
		return v.String(), nil
	case BoolScalar:
		return v.Bool(), nil
	case IntScalar, Int8Scalar, Int16Scalar, Int32Scalar, Int64Scalar:
		return v.Int(), nil
	case UintScalar, Uint8Scalar, Uint16Scalar, Uint32Scalar, Uint64Scalar:
		return v.Uint(), nil
	case Float32Scalar, Float64Scalar:
		return v.Float(), nil
	case BytesScalar:
		return v.Bytes(), nil
	case EnumScalar:
		return EnumName(v)
	case DecimalScalar:
		d := v.Interface().(apd.Decimal)
		return d.String(), nil
	case TimeScalar:
		return v.Interface().(time.Time).Format(time.RFC3339Nano), nil
	case AtomicInt32Scalar:
		return int64(addressable(v).Addr().Interface().(*atomic.Int32).Load()), nil
	case AtomicInt64Scalar:
		return addressable(v).Addr().Interface().(*atomic.Int64).Load(), nil
	case AtomicUint32Scalar:
		return uint64(addressable(v).Addr().Interface().(*atomic.Uint32).Load()), nil
	case AtomicUint64Scalar:
		return addressable(v).Addr().Interface().(*atomic.Uint64).Load(), nil
	case AtomicBoolScalar:
		return addressable(v).Addr().Interface().(*atomic.Bool).Load(), nil
	}
	return nil, fmt.Errorf("%s is not a scalar", v.Type())
}

// EnumName returns the name of enum value v.
func EnumName(v reflect.Value) (string, error) {
	names := enumNames(v.Type())
	var i int64
	if v.CanInt() {
		i = v.Int()
	} else {
		i = int64(v.Uint())
	}
	if i < 0 || i >= int64(len(names)) {
		return "", fmt.Errorf("enum %s value %d out of range", v.Type(), i)
	}
	return names[i], nil
}

// SetEnumName sets enum v to the value named name.
func SetEnumName(v reflect.Value, name string) error {
	for i, n := range enumNames(v.Type()) {
		if n != name {
			continue
		}
		if v.CanInt() {
			v.SetInt(int64(i))
		} else {
			v.SetUint(uint64(i))
		}
		return nil
	}
	return &ConversionError{Value: name, Target: "enum " + v.Type().String()}
}

// FormatScalar renders v in its canonical text form.
func FormatScalar(v reflect.Value, k ScalarKind) (string, error) {
	x, err := ScalarValue(v, k)
	if err != nil {
		return "", err
	}
	switch y := x.(type) {
	case string:
		return y, nil
	case bool:
		return strconv.FormatBool(y), nil
	case int64:
		return strconv.FormatInt(y, 10), nil
	case uint64:
		return strconv.FormatUint(y, 10), nil
	case float64:
		bits := 64
		if k == Float32Scalar {
			bits = 32
		}
		return strconv.FormatFloat(y, 'g', -1, bits), nil
	case []byte:
		return base64.StdEncoding.EncodeToString(y), nil
	}
	return "", fmt.Errorf("unexpected scalar %T", x)
}

// SetScalar stores the canonical value x into v (which must be settable),
// widening, narrowing and parsing text as needed. Narrowing overflow and
// unparsable text fail with *ConversionError.
func SetScalar(v reflect.Value, k ScalarKind, x any) error {
	switch k {
	case StringScalar:
		s, err := toString(x)
		if err != nil {
			return err
		}
		v.SetString(s)
	case BoolScalar:
		b, err := toBool(x)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case IntScalar, Int8Scalar, Int16Scalar, Int32Scalar, Int64Scalar:
		i, err := toInt(x, k)
		if err != nil {
			return err
		}
		if v.OverflowInt(i) {
			return &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
		}
		v.SetInt(i)
	case UintScalar, Uint8Scalar, Uint16Scalar, Uint32Scalar, Uint64Scalar:
		u, err := toUint(x, k)
		if err != nil {
			return err
		}
		if v.OverflowUint(u) {
			return &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
		}
		v.SetUint(u)
	case Float32Scalar, Float64Scalar:
		f, err := toFloat(x, k)
		if err != nil {
			return err
		}
		if k == Float32Scalar && !math.IsInf(f, 0) && v.OverflowFloat(f) {
			return &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
		}
		v.SetFloat(f)
	case BytesScalar:
		switch y := x.(type) {
		case []byte:
			v.SetBytes(y)
		case string:
			b, err := base64.StdEncoding.DecodeString(y)
			if err != nil {
				return &ConversionError{Value: y, Target: k.target(), Err: err}
			}
			v.SetBytes(b)
		default:
			return &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
		}
	case EnumScalar:
		switch y := x.(type) {
		case string:
			return SetEnumName(v, y)
		case int64:
			if y < 0 || y >= int64(len(enumNames(v.Type()))) {
				return &ConversionError{Value: fmt.Sprint(y), Target: "enum " + v.Type().String()}
			}
			if v.CanInt() {
				v.SetInt(y)
			} else {
				v.SetUint(uint64(y))
			}
		default:
			return &ConversionError{Value: fmt.Sprint(x), Target: "enum " + v.Type().String()}
		}
	case DecimalScalar:
		s, err := toString(x)
		if err != nil {
			return err
		}
		d, _, err := apd.NewFromString(s)
		if err != nil {
			return &ConversionError{Value: s, Target: k.target(), Err: err}
		}
		v.Set(reflect.ValueOf(*d))
	case TimeScalar:
		s, ok := x.(string)
		if !ok {
			return &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return &ConversionError{Value: s, Target: k.target(), Err: err}
		}
		v.Set(reflect.ValueOf(t))
	case AtomicInt32Scalar:
		i, err := toInt(x, k)
		if err != nil {
			return err
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
		}
		v.Addr().Interface().(*atomic.Int32).Store(int32(i))
	case AtomicInt64Scalar:
		i, err := toInt(x, k)
		if err != nil {
			return err
		}
		v.Addr().Interface().(*atomic.Int64).Store(i)
	case AtomicUint32Scalar:
		u, err := toUint(x, k)
		if err != nil {
			return err
		}
		if u > math.MaxUint32 {
			return &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
		}
		v.Addr().Interface().(*atomic.Uint32).Store(uint32(u))
	case AtomicUint64Scalar:
		u, err := toUint(x, k)
		if err != nil {
			return err
		}
		v.Addr().Interface().(*atomic.Uint64).Store(u)
	case AtomicBoolScalar:
		b, err := toBool(x)
		if err != nil {
			return err
		}
		v.Addr().Interface().(*atomic.Bool).Store(b)
	default:
		return fmt.Errorf("%s is not a scalar", v.Type())
	}
	return nil
}

func toString(x any) (string, error) {
	switch y := x.(type) {
	case string:
		return y, nil
	case int64:
		return strconv.FormatInt(y, 10), nil
	case uint64:
		return strconv.FormatUint(y, 10), nil
	case float64:
		return strconv.FormatFloat(y, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(y), nil
	}
	return "", &ConversionError{Value: fmt.Sprint(x), Target: "string"}
}

func toBool(x any) (bool, error) {
	switch y := x.(type) {
	case bool:
		return y, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(y))
		if err != nil {
			return false, &ConversionError{Value: y, Target: "boolean", Err: err}
		}
		return b, nil
	}
	return false, &ConversionError{Value: fmt.Sprint(x), Target: "boolean"}
}

func toInt(x any, k ScalarKind) (int64, error) {
	switch y := x.(type) {
	case int64:
		return y, nil
	case uint64:
		if y > math.MaxInt64 {
			return 0, &ConversionError{Value: fmt.Sprint(y), Target: k.target()}
		}
		return int64(y), nil
	case float64:
		if y != math.Trunc(y) || y < math.MinInt64 || y >= math.MaxInt64 {
			return 0, &ConversionError{Value: fmt.Sprint(y), Target: k.target()}
		}
		return int64(y), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(y), 10, 64)
		if err != nil {
			return 0, &ConversionError{Value: y, Target: k.target(), Err: err}
		}
		return i, nil
	}
	return 0, &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
}

func toUint(x any, k ScalarKind) (uint64, error) {
	switch y := x.(type) {
	case uint64:
		return y, nil
	case int64:
		if y < 0 {
			return 0, &ConversionError{Value: fmt.Sprint(y), Target: k.target()}
		}
		return uint64(y), nil
	case float64:
		if y != math.Trunc(y) || y < 0 || y >= math.MaxUint64 {
			return 0, &ConversionError{Value: fmt.Sprint(y), Target: k.target()}
		}
		return uint64(y), nil
	case string:
		u, err := strconv.ParseUint(strings.TrimSpace(y), 10, 64)
		if err != nil {
			return 0, &ConversionError{Value: y, Target: k.target(), Err: err}
		}
		return u, nil
	}
	return 0, &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
}

func toFloat(x any, k ScalarKind) (float64, error) {
	switch y := x.(type) {
	case float64:
		return y, nil
	case int64:
		return float64(y), nil
	case uint64:
		return float64(y), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(y), 64)
		if err != nil {
			return 0, &ConversionError{Value: y, Target: k.target(), Err: err}
		}
		return f, nil
	}
	return 0, &ConversionError{Value: fmt.Sprint(x), Target: k.target()}
}
