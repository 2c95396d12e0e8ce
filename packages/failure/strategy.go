package failure

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// Strategy reports one failure.
type Strategy interface {
	Fail(f *Failure)
}

// TestBound is implemented by strategies that report to a test.
type TestBound interface {
	Strategy
	TB() testing.TB
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(f *Failure)

// Fail calls fn(f).
func (fn StrategyFunc) Fail(f *Failure) {
	fn(f)
}

type fatal struct {
	t testing.TB
}

// Fatal returns a strategy that fails the test and stops it immediately.
func Fatal(t testing.TB) Strategy {
	return &fatal{t: t}
}

func (s *fatal) Fail(f *Failure) {
	s.t.Helper()
	s.t.Fatal(f.Error())
}

// TB returns the test the strategy stops.
func (s *fatal) TB() testing.TB {
	return s.t
}

// Panic returns a strategy that panics with the *Failure.
func Panic() Strategy {
	return StrategyFunc(func(f *Failure) {
		panic(f)
	})
}

// Collector records failures. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	failures []*Failure
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// Fail records f.
func (c *Collector) Fail(f *Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
}

// Failures returns a copy of the recorded failures in report order.
func (c *Collector) Failures() []*Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Failure(nil), c.failures...)
}

// Len returns the number of recorded failures.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.failures)
}

// Last returns the most recent failure, or nil.
func (c *Collector) Last() *Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.failures) == 0 {
		return nil
	}
	return c.failures[len(c.failures)-1]
}

// Err joins every recorded failure, or returns nil if there are none.
func (c *Collector) Err() error {
	failures := c.Failures()
	if len(failures) == 0 {
		return nil
	}
	errs := make([]error, len(failures))
	for i, f := range failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Expectation is a collecting strategy bound to a test. Failures mark the
// test as failed without stopping it and are printed together when the
// test finishes.
type Expectation struct {
	Collector
	t testing.TB
}

// Expect returns an Expectation for t.
func Expect(t testing.TB) *Expectation {
	e := &Expectation{t: t}
	t.Cleanup(e.report)
	return e
}

// Fail records f and marks the test failed.
func (e *Expectation) Fail(f *Failure) {
	e.t.Helper()
	e.Collector.Fail(f)
	e.t.Fail()
}

// TB returns the test the failures are recorded on.
func (e *Expectation) TB() testing.TB {
	return e.t
}

func (e *Expectation) report() {
	failures := e.Failures()
	if len(failures) == 0 {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d expectation(s) failed:", len(failures))
	for i, f := range failures {
		fmt.Fprintf(&b, "\n%d. %s", i+1, strings.ReplaceAll(f.Error(), "\n", "\n   "))
	}
	e.t.Error(b.String())
}

// ExpectFailure runs fn with a capturing strategy and returns the failure it
// reported. The test fails if fn reports no failure or more than one.
func ExpectFailure(t testing.TB, fn func(s Strategy)) *Failure {
	t.Helper()
	c := NewCollector()
	fn(c)
	switch n := c.Len(); n {
	case 0:
		t.Fatal("expected a failure to be reported, but none was")
	case 1:
	default:
		t.Fatalf("expected exactly one failure, but %d were reported:\n%v", n, c.Err())
	}
	return c.Last()
}
