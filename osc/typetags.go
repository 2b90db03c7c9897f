package osc

import "fmt"

// TypeTag is a single character of an OSC type tag string.
type TypeTag rune

const (
	TypeInt32   TypeTag = 'i'
	TypeFloat32 TypeTag = 'f'
	TypeString  TypeTag = 's'
	TypeInt64   TypeTag = 'h'
	TypeFloat64 TypeTag = 'd'
	TypeInvalid TypeTag = 0
)

// Unsupported stands in for an argument whose type tag this package cannot
// decode. It carries the tag character only; the argument payload is not read.
type Unsupported rune

// String implements the fmt.Stringer interface.
func (u Unsupported) String() string {
	return fmt.Sprintf("<%c?>", rune(u))
}

// Supported reports whether t is one of the argument types this package
// encodes and decodes.
func (t TypeTag) Supported() bool {
	switch t {
	case TypeInt32, TypeFloat32, TypeString, TypeInt64, TypeFloat64:
		return true
	}
	return false
}

// ToTypeTag returns the OSC type tag for the given argument, or TypeInvalid
// if the argument type is not supported.
func ToTypeTag(arg interface{}) TypeTag {
	switch t := arg.(type) {
	case int32:
		return TypeInt32
	case float32:
		return TypeFloat32
	case string:
		return TypeString
	case int64:
		return TypeInt64
	case float64:
		return TypeFloat64
	case Unsupported:
		return TypeTag(t)
	default:
		return TypeInvalid
	}
}
