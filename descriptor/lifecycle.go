package descriptor

import "reflect"

// PreEncoder is called before a value's fields are read for encoding.
type PreEncoder interface {
	PreEncode()
}

// PostDecoder is called after all of a value's fields have been assigned.
type PostDecoder interface {
	PostDecode()
}

// Lockable values are held locked while their fields are read. An embedded
// sync.Mutex satisfies it.
type Lockable interface {
	TryLock() bool
	Unlock()
}

func hook(v reflect.Value) any {
	if v.Kind() != reflect.Pointer && v.CanAddr() {
		v = v.Addr()
	}
	if !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil()) || !v.CanInterface() {
		return nil
	}
	return v.Interface()
}

// RunPreEncode calls PreEncode on v (or its address) if implemented.
func RunPreEncode(v reflect.Value) {
	if p, ok := hook(v).(PreEncoder); ok {
		p.PreEncode()
	}
}

// RunPostDecode calls PostDecode on v (or its address) if implemented.
func RunPostDecode(v reflect.Value) {
	if p, ok := hook(v).(PostDecoder); ok {
		p.PostDecode()
	}
}

// WithLock runs fn with v locked when v is Lockable, failing with
// *EncodeLockError if the lock is unavailable.
func WithLock(v reflect.Value, fn func() error) error {
	l, ok := hook(v).(Lockable)
	if !ok {
		return fn()
	}
	if !l.TryLock() {
		return &EncodeLockError{Owner: reflect.Indirect(v).Type()}
	}
	defer l.Unlock()
	return fn()
}
