package osc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Arg is an argument in its textual form: a type tag and the value to be
// converted to that type, as given on a command line.
type Arg struct {
	Tag   TypeTag
	Value string
}

// Parse converts the textual value to the Go type used for Tag in
// Message.Arguments.
func (a Arg) Parse() (interface{}, error) {
	v := strings.TrimSpace(a.Value)
	switch a.Tag {
	case TypeInt32:
		i, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, numError(err)
		}
		return int32(i), nil

	case TypeFloat32:
		f, err := strconv.ParseFloat(v, 32)
		if err != nil {
			return nil, numError(err)
		}
		return float32(f), nil

	case TypeString:
		if strings.IndexByte(a.Value, 0) != -1 {
			return nil, ErrInvalidString
		}
		return a.Value, nil

	case TypeInt64:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, numError(err)
		}
		return i, nil

	case TypeFloat64:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, numError(err)
		}
		return f, nil

	default:
		return nil, ErrUnsupportedType
	}
}

func numError(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return fmt.Errorf("%w: %v", ErrInvalidNumber, ne.Err)
	}
	return fmt.Errorf("%w: %v", ErrInvalidNumber, err)
}

// Encode builds a datagram for address from textual arguments. Each
// argument is converted with Arg.Parse; the first failure aborts encoding.
func Encode(address string, args []Arg) ([]byte, error) {
	if err := checkAddress(address); err != nil {
		return nil, err
	}

	msg := NewMessage(address)
	msg.Arguments = make([]interface{}, 0, len(args))
	for i, a := range args {
		v, err := a.Parse()
		if err != nil {
			return nil, &EncodeError{Index: i, Tag: a.Tag, Value: a.Value, Err: err}
		}
		msg.Append(v)
	}

	return msg.MarshalBinary()
}

// ParseArgs groups command line fields into (type, value) pairs. Every type
// must be a single supported tag character followed by a value field. Values
// are not converted here; see Arg.Parse.
func ParseArgs(fields []string) ([]Arg, error) {
	args := make([]Arg, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		index := i / 2
		t := fields[i]
		if len(t) != 1 || !TypeTag(t[0]).Supported() {
			return nil, &EncodeError{Index: index, Value: t, Err: fmt.Errorf("%w: %q", ErrUnsupportedType, t)}
		}
		if i+1 >= len(fields) {
			return nil, &EncodeError{Index: index, Tag: TypeTag(t[0]), Err: ErrMissingValue}
		}
		args = append(args, Arg{Tag: TypeTag(t[0]), Value: fields[i+1]})
	}
	return args, nil
}
