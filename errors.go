package fetchxml

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is matched by every argument validation failure.
var ErrInvalidArgument = errors.New("invalid argument")

// ArgumentError describes an argument rejected by a Query setter.
//
// Op names the rejecting operation (e.g. "SetOrder"). Callers that decode
// untyped input use the same Op names so the failure reads the same whether
// it came from Go code or from a definition file.
type ArgumentError struct {
	Op      string
	Message string
}

// Error implements the error interface.
func (e *ArgumentError) Error() string {
	return fmt.Sprintf("fetchxml: %s: %s", e.Op, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidArgument.
func (e *ArgumentError) Unwrap() error {
	return ErrInvalidArgument
}

// InvalidArgument creates an ArgumentError for op.
func InvalidArgument(op, format string, args ...any) *ArgumentError {
	return &ArgumentError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// IsInvalidArgument reports whether err (or anything it wraps) is an
// argument validation failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
