package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned for unknown packages, orders, donations or sessions.
	ErrNotFound = errors.New("not found")
	// ErrRange is returned for donation amounts outside the accepted bounds.
	ErrRange = errors.New("amount out of range")
	// ErrInvalidTransition is returned when an order status change is not allowed.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Error is a lifecycle failure with a message fit for the caller.
// errors.Is matches it against its Kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

// Unwrap returns the sentinel kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
