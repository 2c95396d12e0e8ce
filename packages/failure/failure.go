package failure

import (
	"errors"

	"github.com/abdul-hamid-achik/factcheck/packages/fact"
)

// ErrAssertionFailed is the sentinel wrapped by every *Failure.
var ErrAssertionFailed = errors.New("assertion failed")

// Failure is one failed assertion, described by its ordered facts.
type Failure struct {
	Facts []fact.Fact
}

// New creates a failure from facts. The slice is copied.
func New(facts ...fact.Fact) *Failure {
	return &Failure{Facts: append([]fact.Fact(nil), facts...)}
}

// Error returns the formatted failure message.
func (f *Failure) Error() string {
	if f == nil || len(f.Facts) == 0 {
		return ErrAssertionFailed.Error()
	}
	return fact.Format(f.Facts)
}

// Unwrap returns ErrAssertionFailed so errors.Is works on failures.
func (f *Failure) Unwrap() error {
	return ErrAssertionFailed
}

// Keys returns the fact keys in order.
func (f *Failure) Keys() []string {
	keys := make([]string, len(f.Facts))
	for i, ft := range f.Facts {
		keys[i] = ft.Key
	}
	return keys
}

// Value returns the value of the first fact with the given key.
func (f *Failure) Value(key string) (string, bool) {
	for _, ft := range f.Facts {
		if ft.Key == key && ft.HasValue {
			return ft.Value, true
		}
	}
	return "", false
}
