package truth

import (
	"fmt"
	"reflect"

	"github.com/abdul-hamid-achik/factcheck/packages/fact"
	"github.com/abdul-hamid-achik/factcheck/packages/failure"
	gocmp "github.com/google/go-cmp/cmp"
)

// Subject is the value under test plus the Checker that reports on it.
// Typed subjects embed it and add predicates of their own.
type Subject struct {
	ck     *Checker
	actual any
	kind   string
}

func newSubject(ck *Checker, actual any, kind string) *Subject {
	return &Subject{ck: ck, actual: actual, kind: kind}
}

// NewSubject returns a Subject for packages that build their own subject
// types on top of this one. kind names the value in derived failures, as in
// "value of: kind.path".
func NewSubject(ck *Checker, actual any, kind string) *Subject {
	return newSubject(ck, actual, kind)
}

// Actual returns the value under test.
func (s *Subject) Actual() any {
	return s.actual
}

// Checker returns the Checker the subject reports to.
func (s *Subject) Checker() *Checker {
	return s.ck
}

// Check returns a Checker for a value derived from this subject. The step
// names the derivation, e.g. Check("length()"), and failures on the derived
// subject carry "value of: <kind>.<step>" and the original actual value.
func (s *Subject) Check(format string, args ...any) *Checker {
	step := fmt.Sprintf(format, args...)
	clone := s.ck.clone()
	if parent := s.ck.derived; parent != nil {
		clone.derived = &derivation{
			path:       parent.path + "." + step,
			rootKind:   parent.rootKind,
			rootActual: parent.rootActual,
		}
	} else {
		clone.derived = &derivation{
			path:       s.kind + "." + step,
			rootKind:   s.kind,
			rootActual: s.actual,
		}
	}
	return clone
}

// FailWithActual reports facts followed by "but was: <actual>".
func (s *Subject) FailWithActual(facts ...fact.Fact) {
	s.ck.t.Helper()
	s.report(facts, true)
}

// FailWithoutActual reports facts as they are.
func (s *Subject) FailWithoutActual(facts ...fact.Fact) {
	s.ck.t.Helper()
	s.report(facts, false)
}

func (s *Subject) report(facts []fact.Fact, withActual bool) {
	s.ck.t.Helper()
	all := make([]fact.Fact, 0, len(s.ck.messages)+len(facts)+3)
	for _, msg := range s.ck.messages {
		all = append(all, fact.Simple(msg))
	}
	if d := s.ck.derived; d != nil {
		all = append(all, fact.New("value of", d.path))
	}
	all = append(all, facts...)
	if withActual {
		all = append(all, fact.New("but was", s.actual))
	}
	if d := s.ck.derived; d != nil {
		all = append(all, fact.New(d.rootKind+" was", d.rootActual))
	}
	s.ck.strategy.Fail(failure.New(all...))
}

// IsEqualTo fails unless the actual value equals expected. Compound values
// that differ also get a diff fact.
func (s *Subject) IsEqualTo(expected any) {
	s.ck.t.Helper()
	if equal(s.actual, expected) {
		return
	}
	facts := []fact.Fact{
		fact.New("expected", expected),
		fact.New("but was", s.actual),
	}
	if d := diff(expected, s.actual); d != "" {
		facts = append(facts, fact.New("diff (-expected +actual)", d))
	}
	s.FailWithoutActual(facts...)
}

// IsNotEqualTo fails if the actual value equals unexpected.
func (s *Subject) IsNotEqualTo(unexpected any) {
	s.ck.t.Helper()
	if equal(s.actual, unexpected) {
		s.FailWithoutActual(fact.New("expected not to be", unexpected))
	}
}

// IsNil fails unless the actual value is nil.
func (s *Subject) IsNil() {
	s.ck.t.Helper()
	if !isNil(s.actual) {
		s.FailWithActual(fact.New("expected", nil))
	}
}

// IsNotNil fails if the actual value is nil.
func (s *Subject) IsNotNil() {
	s.ck.t.Helper()
	if isNil(s.actual) {
		s.FailWithoutActual(fact.Simple("expected not to be null"))
	}
}

// IsIn fails unless the actual value equals one of values.
func (s *Subject) IsIn(values ...any) {
	s.ck.t.Helper()
	for _, v := range values {
		if equal(s.actual, v) {
			return
		}
	}
	s.FailWithActual(fact.New("expected any of", values))
}

// IsNotIn fails if the actual value equals any of values.
func (s *Subject) IsNotIn(values ...any) {
	s.ck.t.Helper()
	for _, v := range values {
		if equal(s.actual, v) {
			s.FailWithActual(fact.New("expected not to be any of", values))
			return
		}
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// equal compares with go-cmp and falls back to reflect.DeepEqual for values
// go-cmp refuses, such as structs with unexported fields.
func equal(a, b any) (eq bool) {
	if isNil(a) || isNil(b) {
		return isNil(a) && isNil(b)
	}
	defer func() {
		if recover() != nil {
			eq = reflect.DeepEqual(a, b)
		}
	}()
	return gocmp.Equal(a, b)
}

func diff(expected, actual any) (d string) {
	if isNil(expected) || isNil(actual) {
		return ""
	}
	if reflect.TypeOf(expected) != reflect.TypeOf(actual) {
		return ""
	}
	switch reflect.TypeOf(actual).Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice, reflect.Array:
	default:
		return ""
	}
	defer func() {
		if recover() != nil {
			d = ""
		}
	}()
	return gocmp.Diff(expected, actual)
}
