package router

import (
	"errors"
	"fmt"
)

// ErrInvalidArgumentType is matched by every error Handle returns for input
// that is neither absent nor a string-keyed mapping.
var ErrInvalidArgumentType = errors.New("arguments must be a string-keyed mapping")

// InvalidArgumentTypeError describes why Handle rejected its input.
type InvalidArgumentTypeError struct {
	Got    string // Go or cty type name of the rejected value
	Key    string // offending key, empty when the whole input was rejected
	Reason string
}

func (e *InvalidArgumentTypeError) Error() string {
	msg := fmt.Sprintf("router: %s, got %s", ErrInvalidArgumentType, e.Got)
	if e.Key != "" {
		msg = fmt.Sprintf("router: invalid value for %q (%s)", e.Key, e.Got)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is reports whether target is ErrInvalidArgumentType.
func (e *InvalidArgumentTypeError) Is(target error) bool {
	return target == ErrInvalidArgumentType
}
