// Package registry binds polymorphic base types to the concrete Go types that
// may stand in for them on the wire.
//
// A Category names a base type (usually an interface) and holds a
// bidirectional name <-> type map, plus an optional default type used when
// input carries no type information and an optional "array sugar" type used
// when a bare array appears where an object of the base type is expected.
//
//	shapes := registry.NewCategory("shape", reflect.TypeFor[Shape]())
//	shapes.Register("circle", reflect.TypeFor[*Circle]())
//	shapes.Register("square", reflect.TypeFor[*Square]())
//	registry.Default().Add(shapes)
//
// Codecs look categories up through a Registry; Default() is the process-wide
// one used when no registry is injected.
package registry
