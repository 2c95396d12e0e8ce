package truth

import (
	"fmt"
	"iter"
	"slices"

	"github.com/abdul-hamid-achik/factcheck/packages/fact"
)

// IterableSubject asserts on a sequence of comparable elements. A nil slice
// is the null actual.
type IterableSubject[T comparable] struct {
	*Subject
	items   []T
	present bool
}

// Iterable returns a subject for a slice.
func Iterable[T comparable](ck *Checker, actual []T) *IterableSubject[T] {
	return newIterable(ck, actual, actual != nil, "iterable")
}

// Ints returns a subject for a slice of ints.
func Ints(ck *Checker, actual []int) *IterableSubject[int] {
	return Iterable(ck, actual)
}

// Strings returns a subject for a slice of strings.
func Strings(ck *Checker, actual []string) *IterableSubject[string] {
	return Iterable(ck, actual)
}

// Seq returns a subject for a stream of values. The sequence is drained
// once, when Seq is called. A nil sequence is the null actual.
func Seq[T comparable](ck *Checker, actual iter.Seq[T]) *IterableSubject[T] {
	if actual == nil {
		return newIterable[T](ck, nil, false, "stream")
	}
	items := slices.Collect(actual)
	if items == nil {
		items = []T{}
	}
	return newIterable(ck, items, true, "stream")
}

func newIterable[T comparable](ck *Checker, items []T, present bool, kind string) *IterableSubject[T] {
	var actual any
	if present {
		actual = items
	}
	return &IterableSubject[T]{
		Subject: newSubject(ck, actual, kind),
		items:   items,
		present: present,
	}
}

// Ordered is returned by containment assertions. InOrder additionally
// checks element order; it does nothing if the containment check failed.
type Ordered struct {
	t       helperT
	inOrder func()
}

var alreadyFailed = &Ordered{}

// InOrder fails if the elements were not in the expected order.
func (o *Ordered) InOrder() {
	if o != nil && o.inOrder != nil {
		o.t.Helper()
		o.inOrder()
	}
}

// IsEmpty fails unless there are no elements.
func (s *IterableSubject[T]) IsEmpty() {
	s.ck.t.Helper()
	if !s.present || len(s.items) != 0 {
		s.FailWithActual(fact.Simple("expected to be empty"))
	}
}

// IsNotEmpty fails if there are no elements.
func (s *IterableSubject[T]) IsNotEmpty() {
	s.ck.t.Helper()
	switch {
	case !s.present:
		s.FailWithActual(fact.Simple("expected not to be empty"))
	case len(s.items) == 0:
		s.FailWithoutActual(fact.Simple("expected not to be empty"))
	}
}

// HasSize fails unless there are exactly n elements. n must be >= 0.
func (s *IterableSubject[T]) HasSize(n int) {
	s.ck.t.Helper()
	if n < 0 {
		usagef("expectedSize(%d) must be >= 0", n)
	}
	if !s.present {
		s.FailWithActual(fact.New("expected a collection with size", n))
		return
	}
	s.Check("size()").Int(len(s.items)).IsEqualTo(n)
}

// Contains fails unless element is present.
func (s *IterableSubject[T]) Contains(element T) {
	s.ck.t.Helper()
	if !s.present || !slices.Contains(s.items, element) {
		s.FailWithActual(fact.New("expected to contain", element))
	}
}

// DoesNotContain fails if element is present.
func (s *IterableSubject[T]) DoesNotContain(element T) {
	s.ck.t.Helper()
	if !s.present || slices.Contains(s.items, element) {
		s.FailWithActual(fact.New("expected not to contain", element))
	}
}

// ContainsAnyOf fails unless at least one of elements is present.
func (s *IterableSubject[T]) ContainsAnyOf(elements ...T) {
	s.ck.t.Helper()
	s.ContainsAnyIn(elements)
}

// ContainsAnyIn fails unless at least one of expected is present.
func (s *IterableSubject[T]) ContainsAnyIn(expected []T) {
	s.ck.t.Helper()
	if s.present {
		for _, e := range expected {
			if slices.Contains(s.items, e) {
				return
			}
		}
	}
	s.FailWithActual(fact.New("expected to contain any of", expected))
}

// ContainsNoneOf fails if any of elements is present.
func (s *IterableSubject[T]) ContainsNoneOf(elements ...T) {
	s.ck.t.Helper()
	s.ContainsNoneIn(elements)
}

// ContainsNoneIn fails if any of excluded is present.
func (s *IterableSubject[T]) ContainsNoneIn(excluded []T) {
	s.ck.t.Helper()
	if !s.present {
		s.FailWithActual(fact.New("expected not to contain any of", excluded))
		return
	}
	var found []T
	for _, e := range excluded {
		if slices.Contains(s.items, e) && !slices.Contains(found, e) {
			found = append(found, e)
		}
	}
	if len(found) > 0 {
		s.FailWithoutActual(
			fact.New("expected not to contain any of", excluded),
			fact.New("but contained", found),
			fact.New("full contents", s.items),
		)
	}
}

// ContainsAtLeast fails unless every element is present, counting
// duplicates. Chain InOrder to also require their relative order.
func (s *IterableSubject[T]) ContainsAtLeast(elements ...T) *Ordered {
	s.ck.t.Helper()
	return s.ContainsAtLeastElementsIn(elements)
}

// ContainsAtLeastElementsIn is ContainsAtLeast for a slice.
func (s *IterableSubject[T]) ContainsAtLeastElementsIn(expected []T) *Ordered {
	s.ck.t.Helper()
	if !s.present {
		s.FailWithActual(fact.New("expected to contain at least", expected))
		return alreadyFailed
	}
	missing, _ := multisetDiff(expected, s.items)
	if len(missing) > 0 {
		s.FailWithActual(
			fact.New(fmt.Sprintf("missing (%d)", len(missing)), missing),
			fact.Simple("---"),
			fact.New("expected to contain at least", expected),
		)
		return alreadyFailed
	}
	return &Ordered{t: s.ck.t, inOrder: func() {
		s.ck.t.Helper()
		if !isSubsequence(expected, s.items) {
			s.FailWithActual(
				fact.Simple("required elements were all found, but order was wrong"),
				fact.New("expected order for required elements", expected),
			)
		}
	}}
}

// ContainsExactly fails unless the elements are exactly those given,
// counting duplicates. Chain InOrder to also require the same order.
func (s *IterableSubject[T]) ContainsExactly(elements ...T) *Ordered {
	s.ck.t.Helper()
	return s.ContainsExactlyElementsIn(elements)
}

// ContainsExactlyElementsIn is ContainsExactly for a slice.
func (s *IterableSubject[T]) ContainsExactlyElementsIn(expected []T) *Ordered {
	s.ck.t.Helper()
	if !s.present {
		s.FailWithActual(fact.New("expected exactly", expected))
		return alreadyFailed
	}
	missing, unexpected := multisetDiff(expected, s.items)
	if len(missing) > 0 || len(unexpected) > 0 {
		var facts []fact.Fact
		if len(missing) > 0 {
			facts = append(facts, fact.New(fmt.Sprintf("missing (%d)", len(missing)), missing))
		}
		if len(unexpected) > 0 {
			facts = append(facts, fact.New(fmt.Sprintf("unexpected (%d)", len(unexpected)), unexpected))
		}
		facts = append(facts, fact.Simple("---"), fact.New("expected", expected))
		s.FailWithActual(facts...)
		return alreadyFailed
	}
	return &Ordered{t: s.ck.t, inOrder: func() {
		s.ck.t.Helper()
		if !slices.Equal(expected, s.items) {
			s.FailWithActual(
				fact.Simple("contents match, but order was wrong"),
				fact.New("expected", expected),
			)
		}
	}}
}

// ContainsNoDuplicates fails if any element appears more than once.
func (s *IterableSubject[T]) ContainsNoDuplicates() {
	s.ck.t.Helper()
	if !s.present {
		s.FailWithActual(fact.Simple("expected not to contain duplicates"))
		return
	}
	counts := make(map[T]int, len(s.items))
	var order []T
	for _, item := range s.items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}
	var dups []string
	for _, item := range order {
		if n := counts[item]; n > 1 {
			dups = append(dups, fmt.Sprintf("%s x %d", fact.Render(item), n))
		}
	}
	if len(dups) > 0 {
		s.FailWithoutActual(
			fact.Simple("expected not to contain duplicates"),
			fact.New("but contained", dups),
			fact.New("full contents", s.items),
		)
	}
}

// multisetDiff returns the elements of expected not matched in actual and
// the elements of actual not matched in expected, in input order.
func multisetDiff[T comparable](expected, actual []T) (missing, unexpected []T) {
	remaining := make(map[T]int, len(actual))
	for _, a := range actual {
		remaining[a]++
	}
	for _, e := range expected {
		if remaining[e] > 0 {
			remaining[e]--
			continue
		}
		missing = append(missing, e)
	}
	for _, a := range actual {
		if remaining[a] > 0 {
			remaining[a]--
			unexpected = append(unexpected, a)
		}
	}
	return missing, unexpected
}

// isSubsequence reports whether want appears in have in order, not
// necessarily contiguously.
func isSubsequence[T comparable](want, have []T) bool {
	i := 0
	for _, h := range have {
		if i < len(want) && want[i] == h {
			i++
		}
	}
	return i == len(want)
}
