package osc

import (
	"errors"
	"fmt"
)

// Decode error kinds. A DecodeError always wraps exactly one of them.
var (
	// ErrMissingTerminator means the address or type tag string has no
	// terminating zero byte within the datagram.
	ErrMissingTerminator = errors.New("missing string terminator")

	// ErrTruncatedArgument means an argument read would run past the end of
	// the datagram.
	ErrTruncatedArgument = errors.New("truncated argument")

	// ErrMalformedTypeTag means the type tag string does not start with ','.
	ErrMalformedTypeTag = errors.New("type tag string must start with ','")
)

// Encode error kinds. An EncodeError always wraps exactly one of them.
var (
	ErrInvalidNumber   = errors.New("invalid number")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrMissingValue    = errors.New("missing value")
	ErrInvalidAddress  = errors.New("address must start with '/' and must not contain zero bytes")
	ErrInvalidString   = errors.New("string must not contain zero bytes")
)

// ErrPacketTooLarge is returned by Client.Send for payloads that do not fit
// in a single UDP datagram.
var ErrPacketTooLarge = errors.New("packet too large")

// DecodeError describes why a datagram could not be decoded.
//
// Field names the part of the message being read ("address", "type tag" or
// "argument"); Index is the argument position for argument errors and -1
// otherwise. Offset is the byte offset at which the failing read started.
type DecodeError struct {
	Field  string
	Index  int
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("osc: decode %s %d at offset %d: %v", e.Field, e.Index, e.Offset, e.Err)
	}
	return fmt.Sprintf("osc: decode %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

// Unwrap returns the error kind for errors.Is.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError describes why an argument or address could not be encoded.
// Index is the argument position, or -1 when the address is at fault.
type EncodeError struct {
	Index int
	Tag   TypeTag
	Value string
	Err   error
}

func (e *EncodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("osc: encode address %q: %v", e.Value, e.Err)
	}
	if e.Tag == TypeInvalid {
		return fmt.Sprintf("osc: encode argument %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("osc: encode argument %d (%c %q): %v", e.Index, rune(e.Tag), e.Value, e.Err)
}

// Unwrap returns the error kind for errors.Is.
func (e *EncodeError) Unwrap() error {
	return e.Err
}

// ErrorKind returns a short stable name for the kind of a codec error, for
// use as a metric label or log attribute. Unknown errors map to "other".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingTerminator):
		return "missing_terminator"
	case errors.Is(err, ErrTruncatedArgument):
		return "truncated_argument"
	case errors.Is(err, ErrMalformedTypeTag):
		return "malformed_type_tag"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported_type"
	case errors.Is(err, ErrInvalidNumber):
		return "invalid_number"
	default:
		return "other"
	}
}
