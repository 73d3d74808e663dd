// Package evolve implements the evolvable binary format (wire version 1).
//
// Every value travels in a length-prefixed frame. Struct payloads carry
// their type name followed by one frame per non-nil field, named and sorted
// by field name, so readers with a different field set can merge-join what
// they know and drop the rest:
//
//	version uint32 BE
//	frame   = uvarint(len) payload
//	struct  = string(type name) { frame(string(field) value) }
//	slice   = uvarint(count) { element }
//	map     = uvarint(count) { key-element value-element }
//	element = packed scalar | presence byte [frame]
//
// A nil top-level value encodes as the version followed by an empty frame.
package evolve
