// Package descriptor builds and caches per-type field metadata that drives
// every codec in this module.
//
// # Descriptors
//
// A Descriptor is built once per Go type by reflection and cached by
// reflect.Type. It is an explicit variant:
//
//   - Scalar: a leaf value (string, bool, numbers, []byte, enums, apd.Decimal,
//     time.Time, sync/atomic numerics) encoded without recursion.
//   - Composite: a struct with a name-sorted list of Fields.
//   - Interface: an abstract slot bound to a registry.Category.
//   - Dynamic: an unbound interface (any), decoded into default types.
//   - Container: a slice, array or map at top level.
//
// Struct fields are collected from the struct and then from its embedded
// structs, most-derived first; the first field claiming a wire name wins.
// Exported fields are codable unless tagged `codec:"-"`.
//
// # Field policy
//
// Per-field policy is written in a `codec` struct tag:
//
//	type Job struct {
//	    ID    string `codec:"required,intern"`
//	    Tries int    `codec:"check='value >= 0'"`
//	    Note  string `codec:"name=note,readonly"`
//	    Token string `codec:"writeonly,validate=nonempty"`
//	    Cache []byte `codec:"-"`
//	}
//
// Keys: name, required, readonly, writeonly, intern, validate (a name given to
// RegisterValidator) and check (an expr-lang boolean expression over `value`
// and `field`). Unknown keys are construction errors.
//
// # Lifecycle
//
// Values may implement PreEncoder, PostDecoder and Lockable; codecs invoke
// them around the field walk. A struct embedding sync.Mutex is Lockable
// through its pointer.
package descriptor
