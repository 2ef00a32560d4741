package flicker

import (
	"errors"
	"fmt"
)

// ErrInvalidOptions indicates an option value outside its valid range.
var ErrInvalidOptions = errors.New("flicker: invalid options")

// OptionError names the offending option.
type OptionError struct {
	Field string
	Value float64
}

func (e *OptionError) Error() string {
	return fmt.Sprintf("%v: %s out of range (%g)", ErrInvalidOptions, e.Field, e.Value)
}

func (e *OptionError) Unwrap() error {
	return ErrInvalidOptions
}
