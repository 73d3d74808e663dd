package descriptor

import (
	"reflect"
	"unique"
)

// ElemInfo describes a map key, map value or sequence element type.
type ElemInfo struct {
	Type  reflect.Type
	Array bool
}

// Field describes one codable struct field.
type Field struct {
	Name      string
	GoName    string
	Index     []int
	Type      reflect.Type
	Elem      reflect.Type
	Flags     Flags
	Scalar    ScalarKind
	Key       ElemInfo
	Value     ElemInfo
	Element   ElemInfo
	Validator Validator
	Owner     reflect.Type

	cache *Cache
}

func (f *Field) Required() bool  { return f.Flags.Has(FlagRequired) }
func (f *Field) ReadOnly() bool  { return f.Flags.Has(FlagReadOnly) }
func (f *Field) WriteOnly() bool { return f.Flags.Has(FlagWriteOnly) }

// Descriptor returns the descriptor of the field's declared type.
func (f *Field) Descriptor() (*Descriptor, error) {
	return f.cache.For(f.Type)
}

// Get reads the field from owner, a struct value. It returns the invalid
// Value when an embedded pointer on the path is nil.
func (f *Field) Get(owner reflect.Value) reflect.Value {
	owner = reflect.Indirect(owner)
	v, err := owner.FieldByIndexErr(f.Index)
	if err != nil {
		return reflect.Value{}
	}
	return v
}

// IsNull reports whether the field currently holds no value: nil for
// nilable kinds, the zero value otherwise.
func (f *Field) IsNull(owner reflect.Value) bool {
	return isNull(f.Get(owner))
}

func isNull(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	}
	return v.IsZero()
}

// Set assigns v to the field of owner. An invalid v is a null: it leaves
// the field untouched, failing with *RequiredFieldError when the field is
// required and currently null.
func (f *Field) Set(owner, v reflect.Value) error {
	if !v.IsValid() {
		if f.Required() && f.IsNull(owner) {
			return &RequiredFieldError{Field: f.Name, Owner: f.Owner}
		}
		return nil
	}
	if f.Validator != nil && v.CanInterface() && !f.Validator.Validate(f, v.Interface()) {
		return &ValidationError{Field: f.Name, Value: v.Interface(), Owner: f.Owner}
	}
	if f.Flags.Has(FlagInterned) && v.Kind() == reflect.String {
		v = reflect.ValueOf(unique.Make(v.String()).Value()).Convert(f.Type)
	}
	dst := fieldByIndexAlloc(reflect.Indirect(owner), f.Index)
	switch {
	case v.Type().AssignableTo(f.Type):
		dst.Set(v)
	case v.Type().ConvertibleTo(f.Type):
		dst.Set(v.Convert(f.Type))
	case f.Type.Kind() == reflect.Pointer && v.Type().AssignableTo(f.Type.Elem()):
		p := reflect.New(f.Type.Elem())
		p.Elem().Set(v)
		dst.Set(p)
	default:
		return &ConversionError{Value: v.Type().String(), Target: f.Type.String()}
	}
	return nil
}

// SetAt is Set with a source position attached to any error.
func (f *Field) SetAt(owner, v reflect.Value, pos Pos) error {
	if err := f.Set(owner, v); err != nil {
		return WithPos(err, pos)
	}
	return nil
}

func fieldByIndexAlloc(v reflect.Value, index []int) reflect.Value {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}
