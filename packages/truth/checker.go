package truth

import (
	"fmt"
	"testing"

	"github.com/abdul-hamid-achik/factcheck/packages/failure"
	"github.com/abdul-hamid-achik/factcheck/packages/regex"
)

// Checker creates subjects that report failures through one strategy.
// A Checker is immutable; WithMessage and derived checks return new ones.
type Checker struct {
	strategy failure.Strategy
	t        helperT
	matcher  regex.Matcher
	messages []string
	derived  *derivation
}

// helperT is the part of testing.TB that marks test helpers. Predicates
// call it so that failures point at the caller's line.
type helperT interface {
	Helper()
}

type noHelper struct{}

func (noHelper) Helper() {}

// derivation records that subjects of a Checker describe a value computed
// from another subject, e.g. the length of a string.
type derivation struct {
	path       string
	rootKind   string
	rootActual any
}

// Option configures a Checker.
type Option func(*Checker)

// WithMatcher sets the backend for pattern-source regex predicates.
// The default is regex.Regexp().
func WithMatcher(m regex.Matcher) Option {
	return func(c *Checker) {
		if m != nil {
			c.matcher = m
		}
	}
}

// New returns a Checker reporting to strategy.
func New(strategy failure.Strategy, opts ...Option) *Checker {
	if strategy == nil {
		usagef("failure strategy must not be nil")
	}
	c := &Checker{
		strategy: strategy,
		t:        noHelper{},
		matcher:  regex.Regexp(),
	}
	if bound, ok := strategy.(failure.TestBound); ok {
		c.t = bound.TB()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assert returns a Checker that stops t at the first failure.
func Assert(t testing.TB, opts ...Option) *Checker {
	return New(failure.Fatal(t), opts...)
}

// Expect returns a Checker that records failures on t and lets the test
// continue. All failures are printed when t finishes.
func Expect(t testing.TB, opts ...Option) *Checker {
	return New(failure.Expect(t), opts...)
}

// WithMessage returns a Checker whose failures start with the message.
func (c *Checker) WithMessage(format string, args ...any) *Checker {
	clone := c.clone()
	clone.messages = append(clone.messages, fmt.Sprintf(format, args...))
	return clone
}

// T returns the test helper marker of the Checker's strategy, for subject
// types defined outside this package. It does nothing unless the strategy
// reports to a test.
func (c *Checker) T() interface{ Helper() } {
	return c.t
}

func (c *Checker) clone() *Checker {
	clone := *c
	clone.messages = append([]string(nil), c.messages...)
	return &clone
}

// That returns a subject for any value.
func (c *Checker) That(actual any) *Subject {
	return newSubject(c, actual, "value")
}

// Int returns a comparable subject for an int.
func (c *Checker) Int(actual int) *ComparableSubject[int] {
	return Comparable(c, actual)
}

// String returns a subject for a string.
func (c *Checker) String(actual string) *StringSubject {
	return newStringSubject(c, &actual)
}

// NullableString returns a subject for a string that may be missing. A nil
// pointer is the null actual.
func (c *Checker) NullableString(actual *string) *StringSubject {
	return newStringSubject(c, actual)
}
