package truth

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abdul-hamid-achik/factcheck/packages/fact"
	"github.com/abdul-hamid-achik/factcheck/packages/regex"
)

// StringSubject asserts on strings. A nil actual (see
// Checker.NullableString) fails every predicate with a fact that names the
// missing string rather than the mismatch.
type StringSubject struct {
	*ComparableSubject[string]
}

func newStringSubject(ck *Checker, actual *string) *StringSubject {
	s := &ComparableSubject[string]{}
	if actual == nil {
		s.Subject = newSubject(ck, nil, "string")
	} else {
		s.Subject = newSubject(ck, *actual, "string")
		s.value = *actual
		s.present = true
	}
	return &StringSubject{ComparableSubject: s}
}

// ready runs before every predicate. A nil pattern argument is a usage
// error; a missing actual fails with nullFact. It reports whether the
// predicate should go on to inspect the actual value.
func (s *StringSubject) ready(nullFact fact.Fact, patterns ...*regexp.Regexp) bool {
	s.ck.t.Helper()
	for _, re := range patterns {
		if re == nil {
			usagef("%s: pattern must not be nil", nullFact.Key)
		}
	}
	if !s.present {
		s.FailWithActual(nullFact)
		return false
	}
	return true
}

// HasLength fails unless the string has n characters. n must be >= 0.
func (s *StringSubject) HasLength(n int) {
	s.ck.t.Helper()
	if n < 0 {
		usagef("expectedLength(%d) must be >= 0", n)
	}
	if !s.ready(fact.New("expected a string with length", n)) {
		return
	}
	s.Check("length()").Int(utf8.RuneCountInString(s.value)).IsEqualTo(n)
}

// IsEmpty fails unless the string is "".
func (s *StringSubject) IsEmpty() {
	s.ck.t.Helper()
	if !s.ready(fact.Simple("expected empty string")) {
		return
	}
	if s.value != "" {
		s.FailWithActual(fact.Simple("expected to be empty"))
	}
}

// IsNotEmpty fails if the string is "".
func (s *StringSubject) IsNotEmpty() {
	s.ck.t.Helper()
	if !s.ready(fact.Simple("expected nonempty string")) {
		return
	}
	if s.value == "" {
		s.FailWithoutActual(fact.Simple("expected not to be empty"))
	}
}

// Contains fails unless the string contains sub. Every string contains "".
func (s *StringSubject) Contains(sub string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that contains", sub)) {
		return
	}
	if !strings.Contains(s.value, sub) {
		s.FailWithActual(fact.New("expected to contain", sub))
	}
}

// DoesNotContain fails if the string contains sub.
func (s *StringSubject) DoesNotContain(sub string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that does not contain", sub)) {
		return
	}
	if strings.Contains(s.value, sub) {
		s.FailWithActual(fact.New("expected not to contain", sub))
	}
}

// ContainsIgnoringCase is Contains with Unicode case folding.
func (s *StringSubject) ContainsIgnoringCase(sub string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that contains (case-insensitive)", sub)) {
		return
	}
	if !strings.Contains(strings.ToLower(s.value), strings.ToLower(sub)) {
		s.FailWithActual(fact.New("expected to contain (case-insensitive)", sub))
	}
}

// IsEqualToIgnoringCase fails unless the string equals expected under
// Unicode case folding.
func (s *StringSubject) IsEqualToIgnoringCase(expected string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that is equal to (case-insensitive)", expected)) {
		return
	}
	if !strings.EqualFold(s.value, expected) {
		s.FailWithActual(fact.New("expected (case-insensitive)", expected))
	}
}

// StartsWith fails unless the string has the given prefix.
func (s *StringSubject) StartsWith(prefix string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that starts with", prefix)) {
		return
	}
	if !strings.HasPrefix(s.value, prefix) {
		s.FailWithActual(fact.New("expected to start with", prefix))
	}
}

// EndsWith fails unless the string has the given suffix.
func (s *StringSubject) EndsWith(suffix string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that ends with", suffix)) {
		return
	}
	if !strings.HasSuffix(s.value, suffix) {
		s.FailWithActual(fact.New("expected to end with", suffix))
	}
}

// Matches fails unless the whole string matches the pattern, using the
// Checker's matcher. An invalid pattern is a usage error.
func (s *StringSubject) Matches(pattern string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that matches", pattern)) {
		return
	}
	if !s.match(s.ck.matcher.Matches, pattern) {
		s.FailWithActual(fact.New("expected to match", pattern))
	}
}

// MatchesPattern fails unless the whole string matches re.
func (s *StringSubject) MatchesPattern(re *regexp.Regexp) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that matches", re), re) {
		return
	}
	if !regex.FullMatch(re, s.value) {
		s.FailWithActual(fact.New("expected to match", re))
	}
}

// DoesNotMatch fails if the whole string matches the pattern.
func (s *StringSubject) DoesNotMatch(pattern string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that does not match", pattern)) {
		return
	}
	if s.match(s.ck.matcher.Matches, pattern) {
		s.FailWithActual(fact.New("expected not to match", pattern))
	}
}

// DoesNotMatchPattern fails if the whole string matches re.
func (s *StringSubject) DoesNotMatchPattern(re *regexp.Regexp) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that does not match", re), re) {
		return
	}
	if regex.FullMatch(re, s.value) {
		s.FailWithActual(fact.New("expected not to match", re))
	}
}

// ContainsMatch fails unless some substring matches the pattern.
func (s *StringSubject) ContainsMatch(pattern string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that contains a match for", pattern)) {
		return
	}
	if !s.match(s.ck.matcher.ContainsMatch, pattern) {
		s.FailWithActual(fact.New("expected to contain a match for", pattern))
	}
}

// ContainsMatchPattern fails unless some substring matches re.
func (s *StringSubject) ContainsMatchPattern(re *regexp.Regexp) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that contains a match for", re), re) {
		return
	}
	if !re.MatchString(s.value) {
		s.FailWithActual(fact.New("expected to contain a match for", re))
	}
}

// DoesNotContainMatch fails if any substring matches the pattern.
func (s *StringSubject) DoesNotContainMatch(pattern string) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that does not contain a match for", pattern)) {
		return
	}
	if s.match(s.ck.matcher.ContainsMatch, pattern) {
		s.FailWithActual(fact.New("expected not to contain a match for", pattern))
	}
}

// DoesNotContainMatchPattern fails if any substring matches re.
func (s *StringSubject) DoesNotContainMatchPattern(re *regexp.Regexp) {
	s.ck.t.Helper()
	if !s.ready(fact.New("expected a string that does not contain a match for", re), re) {
		return
	}
	if re.MatchString(s.value) {
		s.FailWithActual(fact.New("expected not to contain a match for", re))
	}
}

func (s *StringSubject) match(fn func(s, pattern string) (bool, error), pattern string) bool {
	s.ck.t.Helper()
	ok, err := fn(s.value, pattern)
	if err != nil {
		usageErr(err)
	}
	return ok
}
