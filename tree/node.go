// Package tree is the position-carrying document model used by the text
// codec and by tooling that renders binary payloads.
package tree

import (
	"strconv"

	"github.com/signadot/objcodec/descriptor"
)

// Pos is a 1-based line and column.
type Pos = descriptor.Pos

// Node is a document node. Objects hold parallel Fields (string key nodes)
// and Values; arrays hold Values.
type Node struct {
	Type        Type
	Parent      *Node
	ParentIndex int
	ParentField string
	Fields      []*Node
	Values      []*Node

	// Tag is a YAML tag such as "!dog", without the bang.
	Tag string
	Pos Pos

	String  string
	Bool    bool
	Number  string
	Float64 *float64
	Int64   *int64
	Uint64  *uint64
}

func Null() *Node {
	return &Node{Type: NullType}
}

func FromString(v string) *Node {
	return &Node{Type: StringType, String: v}
}

func FromInt(v int64) *Node {
	return &Node{Type: NumberType, Int64: &v, Number: strconv.FormatInt(v, 10)}
}

func FromUint(v uint64) *Node {
	return &Node{Type: NumberType, Uint64: &v, Number: strconv.FormatUint(v, 10)}
}

func FromFloat(f float64) *Node {
	return &Node{Type: NumberType, Float64: &f, Number: strconv.FormatFloat(f, 'g', -1, 64)}
}

func FromBool(v bool) *Node {
	return &Node{Type: BoolType, Bool: v}
}

// FromSlice builds an array node, adopting vs.
func FromSlice(vs []*Node) *Node {
	res := &Node{Type: ArrayType}
	for _, v := range vs {
		res.Append(v)
	}
	return res
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{Type: ObjectType}
}

// Set appends key: v to object y, adopting v.
func (y *Node) Set(key string, v *Node) *Node {
	v.Parent = y
	v.ParentIndex = len(y.Values)
	v.ParentField = key
	y.Fields = append(y.Fields, FromString(key))
	y.Values = append(y.Values, v)
	return y
}

// Append adds v to array y, adopting v.
func (y *Node) Append(v *Node) *Node {
	v.Parent = y
	v.ParentIndex = len(y.Values)
	y.Values = append(y.Values, v)
	return y
}

// Get returns the value of key in object y, or nil.
func (y *Node) Get(key string) *Node {
	if y == nil || y.Type != ObjectType {
		return nil
	}
	for i, f := range y.Fields {
		if f.String == key {
			return y.Values[i]
		}
	}
	return nil
}

// Keys lists the keys of object y in document order.
func (y *Node) Keys() []string {
	res := make([]string, len(y.Fields))
	for i, f := range y.Fields {
		res[i] = f.String
	}
	return res
}

// Visit walks y depth first, calling fn before (isPost false) and after
// (isPost true) each node's children. Returning false from the pre call
// skips the children.
func (y *Node) Visit(fn func(n *Node, isPost bool) (bool, error)) error {
	descend, err := fn(y, false)
	if err != nil {
		return err
	}
	if descend {
		for _, v := range y.Values {
			if err := v.Visit(fn); err != nil {
				return err
			}
		}
	}
	_, err = fn(y, true)
	return err
}

// Scalar returns the Go value of a leaf node: nil, bool, int64, uint64,
// float64 or string.
func (y *Node) Scalar() any {
	switch y.Type {
	case BoolType:
		return y.Bool
	case StringType:
		return y.String
	case NumberType:
		switch {
		case y.Int64 != nil:
			return *y.Int64
		case y.Uint64 != nil:
			return *y.Uint64
		case y.Float64 != nil:
			return *y.Float64
		}
		return y.Number
	}
	return nil
}
