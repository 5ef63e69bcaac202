package board

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidWidth is returned when a node is registered with a non-positive pin count, or
	// one whose range does not fit in an int.
	ErrInvalidWidth = errors.New("pin node width must be positive")

	// ErrInvalidBase is returned when a node is registered below pin 0.
	ErrInvalidBase = errors.New("pin node base must not be negative")

	// ErrRangeOverlap is returned when a requested range intersects an already registered node.
	ErrRangeOverlap = errors.New("pin node range overlaps an existing node")

	// ErrBusUnavailable is wrapped by device setup when the device's bus could not be opened or a
	// setup transaction failed.
	ErrBusUnavailable = errors.New("bus unavailable")
)

// BusUnavailableError wraps err so that errors.Is(err, ErrBusUnavailable) holds.
func BusUnavailableError(err error, format string, args ...interface{}) error {
	if err == nil {
		err = errors.New("unknown error")
	}
	return &busError{cause: err, msg: fmt.Sprintf(format, args...)}
}

type busError struct {
	cause error
	msg   string
}

func (e *busError) Error() string {
	return e.msg + ": " + ErrBusUnavailable.Error() + ": " + e.cause.Error()
}

func (e *busError) Is(target error) bool {
	return target == ErrBusUnavailable
}

func (e *busError) Unwrap() error {
	return e.cause
}
