package descriptor

import "strings"

// Kind is the variant of a Descriptor.
type Kind uint8

const (
	Composite Kind = iota
	Scalar
	Interface
	Dynamic
	Container
)

func (k Kind) String() string {
	switch k {
	case Composite:
		return "composite"
	case Scalar:
		return "scalar"
	case Interface:
		return "interface"
	case Dynamic:
		return "dynamic"
	case Container:
		return "container"
	}
	return "<unknown kind>"
}

// Flags are the per-field property bits.
type Flags uint16

const (
	FlagArray Flags = 1 << iota
	FlagCodable
	FlagCollection
	FlagMap
	FlagEnum
	FlagNumber
	FlagNative
	FlagRequired
	FlagReadOnly
	FlagWriteOnly
	FlagInterned
)

var flagNames = []string{
	"array", "codable", "collection", "map", "enum", "number", "native",
	"required", "readonly", "writeonly", "interned",
}

func (f Flags) Has(g Flags) bool {
	return f&g == g
}

func (f Flags) String() string {
	var parts []string
	for i, n := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}
