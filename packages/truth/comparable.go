package truth

import (
	"cmp"
	"fmt"

	"github.com/abdul-hamid-achik/factcheck/packages/fact"
)

// ComparableSubject asserts on ordered values.
type ComparableSubject[T cmp.Ordered] struct {
	*Subject
	value   T
	present bool
}

// Comparable returns a subject for an ordered value.
func Comparable[T cmp.Ordered](ck *Checker, actual T) *ComparableSubject[T] {
	return &ComparableSubject[T]{
		Subject: newSubject(ck, actual, "comparable"),
		value:   actual,
		present: true,
	}
}

// IsEqualTo fails unless the actual value equals expected.
func (s *ComparableSubject[T]) IsEqualTo(expected T) {
	s.ck.t.Helper()
	s.Subject.IsEqualTo(expected)
}

// IsAtLeast fails unless actual >= other.
func (s *ComparableSubject[T]) IsAtLeast(other T) {
	s.ck.t.Helper()
	s.compare("expected to be at least", other, func(c int) bool { return c >= 0 })
}

// IsAtMost fails unless actual <= other.
func (s *ComparableSubject[T]) IsAtMost(other T) {
	s.ck.t.Helper()
	s.compare("expected to be at most", other, func(c int) bool { return c <= 0 })
}

// IsGreaterThan fails unless actual > other.
func (s *ComparableSubject[T]) IsGreaterThan(other T) {
	s.ck.t.Helper()
	s.compare("expected to be greater than", other, func(c int) bool { return c > 0 })
}

// IsLessThan fails unless actual < other.
func (s *ComparableSubject[T]) IsLessThan(other T) {
	s.ck.t.Helper()
	s.compare("expected to be less than", other, func(c int) bool { return c < 0 })
}

// IsInClosedRange fails unless lo <= actual <= hi. lo must not exceed hi.
func (s *ComparableSubject[T]) IsInClosedRange(lo, hi T) {
	s.ck.t.Helper()
	if cmp.Compare(lo, hi) > 0 {
		usagef("invalid range: lower bound %v is greater than upper bound %v", lo, hi)
	}
	if s.present && cmp.Compare(s.value, lo) >= 0 && cmp.Compare(s.value, hi) <= 0 {
		return
	}
	s.FailWithActual(fact.New("expected to be in range", fmt.Sprintf("[%v..%v]", lo, hi)))
}

func (s *ComparableSubject[T]) compare(key string, other T, ok func(int) bool) {
	s.ck.t.Helper()
	if s.present && ok(cmp.Compare(s.value, other)) {
		return
	}
	s.FailWithActual(fact.New(key, other))
}
