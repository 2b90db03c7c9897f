package osc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Decoder turns datagrams into Messages. The zero value is ready to use.
//
// By default an argument with an unknown type tag decodes to an Unsupported
// value and the read offset is not advanced, so any arguments after it are
// read from the wrong position. This matches the behaviour of existing
// listeners built on the same wire subset. Set Strict to fail with
// ErrUnsupportedType instead.
type Decoder struct {
	Strict bool
}

// Decode decodes a datagram with the default Decoder.
func Decode(data []byte) (*Message, error) {
	return Decoder{}.Decode(data)
}

// Decode decodes one OSC message from data. It never reads outside data and
// does not retain it.
func (d Decoder) Decode(data []byte) (*Message, error) {
	msg := new(Message)
	if err := d.decodeInto(msg, data); err != nil {
		return nil, err
	}
	return msg, nil
}

func (d Decoder) decodeInto(msg *Message, data []byte) error {
	address, offset, ok := readPaddedString(data, 0)
	if !ok {
		return &DecodeError{Field: "address", Index: -1, Offset: 0, Err: ErrMissingTerminator}
	}
	msg.Address = address
	msg.Arguments = nil

	// An address without a type tag string is a message without arguments.
	if offset >= len(data) {
		return nil
	}

	start := offset
	typetags, offset, ok := readPaddedString(data, offset)
	if !ok {
		return &DecodeError{Field: "type tag", Index: -1, Offset: start, Err: ErrMissingTerminator}
	}
	if len(typetags) == 0 || typetags[0] != ',' {
		return &DecodeError{Field: "type tag", Index: -1, Offset: start, Err: ErrMalformedTypeTag}
	}

	args := make([]interface{}, 0, len(typetags)-1)
	for i, c := range []byte(typetags[1:]) {
		var (
			arg interface{}
			err error
		)
		start = offset
		arg, offset, err = d.readArgument(TypeTag(c), data, offset)
		if err != nil {
			return &DecodeError{Field: "argument", Index: i, Offset: start, Err: err}
		}
		args = append(args, arg)
	}
	msg.Arguments = args

	return nil
}

// readArgument reads one argument of type t at offset and returns it together
// with the offset of the next argument.
func (d Decoder) readArgument(t TypeTag, data []byte, offset int) (interface{}, int, error) {
	switch t {
	case TypeInt32:
		b, ok := fixed(data, offset, bit32Size)
		if !ok {
			return nil, offset, ErrTruncatedArgument
		}
		return int32(binary.BigEndian.Uint32(b)), offset + bit32Size, nil

	case TypeFloat32:
		b, ok := fixed(data, offset, bit32Size)
		if !ok {
			return nil, offset, ErrTruncatedArgument
		}
		return math.Float32frombits(binary.BigEndian.Uint32(b)), offset + bit32Size, nil

	case TypeString:
		s, next, ok := readPaddedString(data, offset)
		if !ok {
			return nil, offset, ErrTruncatedArgument
		}
		return s, next, nil

	case TypeInt64:
		b, ok := fixed(data, offset, bit64Size)
		if !ok {
			return nil, offset, ErrTruncatedArgument
		}
		return int64(binary.BigEndian.Uint64(b)), offset + bit64Size, nil

	case TypeFloat64:
		b, ok := fixed(data, offset, bit64Size)
		if !ok {
			return nil, offset, ErrTruncatedArgument
		}
		return math.Float64frombits(binary.BigEndian.Uint64(b)), offset + bit64Size, nil

	default:
		if d.Strict {
			return nil, offset, fmt.Errorf("%w: %q", ErrUnsupportedType, rune(t))
		}
		return Unsupported(t), offset, nil
	}
}

// fixed returns the n bytes at offset, or false if data is too short.
func fixed(data []byte, offset, n int) ([]byte, bool) {
	if offset < 0 || offset > len(data)-n {
		return nil, false
	}
	return data[offset : offset+n], true
}
