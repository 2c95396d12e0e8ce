package truth

import (
	"errors"
	"fmt"
)

// ErrInvalidUsage is wrapped by every *UsageError.
var ErrInvalidUsage = errors.New("invalid assertion usage")

// UsageError describes an assertion called with invalid arguments. It is
// raised with panic, independently of the failure strategy.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	return e.Msg
}

// Unwrap returns ErrInvalidUsage and the underlying cause, if any.
func (e *UsageError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrInvalidUsage}
	}
	return []error{ErrInvalidUsage, e.Err}
}

func usagef(format string, args ...any) {
	panic(&UsageError{Msg: fmt.Sprintf(format, args...)})
}

func usageErr(err error) {
	panic(&UsageError{Msg: err.Error(), Err: err})
}
