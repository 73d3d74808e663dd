package descriptor

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Validator vets a value before it is assigned to a field.
type Validator interface {
	Validate(f *Field, v any) bool
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(f *Field, v any) bool

func (fn ValidatorFunc) Validate(f *Field, v any) bool {
	return fn(f, v)
}

var (
	validatorMu sync.RWMutex
	validators  = map[string]Validator{
		"nonempty": ValidatorFunc(nonEmpty),
		"positive": ValidatorFunc(positive),
	}
)

// RegisterValidator makes v available to tags as validate=name. It must be
// called before any type using it is described.
func RegisterValidator(name string, v Validator) {
	validatorMu.Lock()
	defer validatorMu.Unlock()
	validators[name] = v
}

// LookupValidator returns the validator registered under name.
func LookupValidator(name string) (Validator, bool) {
	validatorMu.RLock()
	defer validatorMu.RUnlock()
	v, ok := validators[name]
	return v, ok
}

func nonEmpty(_ *Field, v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return false
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return !rv.IsZero()
}

func positive(_ *Field, v any) bool {
	rv := reflect.ValueOf(v)
	switch {
	case rv.CanInt():
		return rv.Int() > 0
	case rv.CanUint():
		return rv.Uint() > 0
	case rv.CanFloat():
		return rv.Float() > 0
	}
	return false
}

// checkValidator runs a compiled expression over the environment
// {value, field}. Anything but a true result rejects the value.
type checkValidator struct {
	src  string
	prog *vm.Program
}

// CompileCheck compiles an expression validator such as "value > 0".
func CompileCheck(src string) (Validator, error) {
	prog, err := expr.Compile(src)
	if err != nil {
		return nil, err
	}
	return &checkValidator{src: src, prog: prog}, nil
}

func (c *checkValidator) Validate(f *Field, v any) bool {
	name := ""
	if f != nil {
		name = f.Name
	}
	res, err := expr.Run(c.prog, map[string]any{"value": v, "field": name})
	if err != nil {
		return false
	}
	b, ok := res.(bool)
	return ok && b
}

func (c *checkValidator) String() string {
	return fmt.Sprintf("check(%s)", c.src)
}

type chain []Validator

func (c chain) Validate(f *Field, v any) bool {
	for _, x := range c {
		if !x.Validate(f, v) {
			return false
		}
	}
	return true
}

func buildValidator(owner reflect.Type, fieldName string, p *policy) (Validator, error) {
	var vs chain
	if p.validator != "" {
		v, ok := LookupValidator(p.validator)
		if !ok {
			return nil, &PolicyError{Type: owner, Field: fieldName, Message: fmt.Sprintf("unknown validator %q", p.validator)}
		}
		vs = append(vs, v)
	}
	if p.check != "" {
		v, err := CompileCheck(p.check)
		if err != nil {
			return nil, &PolicyError{Type: owner, Field: fieldName, Message: "bad check expression", Err: err}
		}
		vs = append(vs, v)
	}
	switch len(vs) {
	case 0:
		return nil, nil
	case 1:
		return vs[0], nil
	}
	return vs, nil
}
