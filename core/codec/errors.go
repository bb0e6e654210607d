package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame is returned when a frame does not carry exactly the
	// expected number of fields or has an empty vehicle id.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrInvalidNumber is returned when a numeric field fails to parse.
	ErrInvalidNumber = errors.New("invalid number")
)

// DecodeError describes why a frame was rejected.
type DecodeError struct {
	Field string
	Value string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: field %s=%q", e.Err, e.Field, e.Value)
}

func (e *DecodeError) Unwrap() error { return e.Err }
