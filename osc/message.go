package osc

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// Message represents a single OSC message. An OSC message consists of an OSC
// address and zero or more arguments.
//
// Arguments hold int32, float32, string, int64 or float64 values. A decoded
// message may also hold Unsupported values for type tags the decoder does not
// know.
type Message struct {
	Address   string
	Arguments []interface{}
}

// NewMessage returns a new Message. The address parameter is the OSC address.
func NewMessage(address string, args ...interface{}) *Message {
	return &Message{Address: address, Arguments: args}
}

// Append appends the given arguments to the arguments list.
func (msg *Message) Append(args ...interface{}) {
	msg.Arguments = append(msg.Arguments, args...)
}

// CountArguments returns the number of arguments.
func (msg *Message) CountArguments() int {
	return len(msg.Arguments)
}

// TypeTags returns the type tag string: a ',' followed by one tag byte per
// argument. Arguments of a type without a tag are reported as an error.
func (msg *Message) TypeTags() (string, error) {
	tags := make([]byte, 0, len(msg.Arguments)+1)
	tags = append(tags, ',')
	for i, arg := range msg.Arguments {
		t := ToTypeTag(arg)
		if t == TypeInvalid {
			return "", &EncodeError{Index: i, Err: fmt.Errorf("%w: %T", ErrUnsupportedType, arg)}
		}
		tags = append(tags, byte(t))
	}
	return string(tags), nil
}

// Equals reports whether b carries the same address and arguments. Floats
// are compared bit for bit, so NaN payloads compare equal to themselves.
func (msg *Message) Equals(b *Message) bool {
	if msg.Address != b.Address || msg.CountArguments() != b.CountArguments() {
		return false
	}

	for i, arg := range msg.Arguments {
		switch a := arg.(type) {
		case float32:
			f, ok := b.Arguments[i].(float32)
			if !ok || math.Float32bits(a) != math.Float32bits(f) {
				return false
			}
		case float64:
			f, ok := b.Arguments[i].(float64)
			if !ok || math.Float64bits(a) != math.Float64bits(f) {
				return false
			}
		default:
			if arg != b.Arguments[i] {
				return false
			}
		}
	}

	return true
}

// String renders the message as "address typetags arg1 arg2 ...".
func (msg *Message) String() string {
	if msg == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(msg.Address)

	tags, err := msg.TypeTags()
	if err != nil {
		tags = "<invalid>"
	}
	sb.WriteByte(' ')
	sb.WriteString(tags)

	for _, arg := range msg.Arguments {
		fmt.Fprintf(&sb, " %v", arg)
	}

	return sb.String()
}

// MarshalBinary serializes the OSC message. The result has the following
// layout:
// 1. OSC Address
// 2. OSC Type Tag String
// 3. OSC Arguments
func (msg *Message) MarshalBinary() ([]byte, error) {
	if err := checkAddress(msg.Address); err != nil {
		return nil, err
	}

	typetags, err := msg.TypeTags()
	if err != nil {
		return nil, err
	}

	var data bytes.Buffer
	data.Grow(paddedLen(len(msg.Address)) + paddedLen(len(typetags)) + 8*len(msg.Arguments))

	writePaddedString(msg.Address, &data)
	writePaddedString(typetags, &data)

	for i, arg := range msg.Arguments {
		switch t := arg.(type) {
		case int32:
			writeInt32(t, &data)
		case float32:
			writeFloat32(t, &data)
		case string:
			if strings.IndexByte(t, 0) != -1 {
				return nil, &EncodeError{Index: i, Tag: TypeString, Value: t, Err: ErrInvalidString}
			}
			writePaddedString(t, &data)
		case int64:
			writeInt64(t, &data)
		case float64:
			writeFloat64(t, &data)
		default:
			return nil, &EncodeError{Index: i, Tag: ToTypeTag(arg), Err: fmt.Errorf("%w: %T", ErrUnsupportedType, arg)}
		}
	}

	return data.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface using
// the default Decoder.
func (msg *Message) UnmarshalBinary(data []byte) error {
	return Decoder{}.decodeInto(msg, data)
}

func checkAddress(address string) error {
	if !strings.HasPrefix(address, "/") || strings.IndexByte(address, 0) != -1 {
		return &EncodeError{Index: -1, Value: address, Err: ErrInvalidAddress}
	}
	return nil
}
