// Package fixed implements the compact binary format (wire version 2).
//
// Nothing but values travels: struct fields are written as presence slots
// in descriptor order, so reader and writer must agree on the type. A
// struct carries its type name only when its static type is polymorphic.
// Numeric slices are written as tight runs of fixed-width values.
//
//	version uint32 BE
//	slot    = 0 | 1 value
//	struct  = [string(type name)] { slot }
//	slice   = uvarint(count) { number | enum name | slot }
//	map     = uvarint(count) { key-slot value-slot }
//
// WithStats records how many bytes each top-level field takes.
package fixed
