package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/abdul-hamid-achik/factcheck/packages/core/spec"
	"github.com/abdul-hamid-achik/factcheck/packages/fact"
	"github.com/abdul-hamid-achik/factcheck/packages/jsondoc"
	"github.com/abdul-hamid-achik/factcheck/packages/truth"
	"go.uber.org/zap"
)

// ExpectationError reports an expectation that could not be evaluated,
// e.g. a negative length or an invalid pattern.
type ExpectationError struct {
	Line     int
	Operator string
	Err      error
}

func (e *ExpectationError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Operator, e.Err)
}

func (e *ExpectationError) Unwrap() error {
	return e.Err
}

// snapshotFunc compares value with its stored snapshot and reports a
// mismatch on sub.
type snapshotFunc func(sub *truth.Subject, value any, name string)

type evaluation struct {
	ck      *truth.Checker
	actual  *actual
	expect  *spec.Expectation
	value   any
	baseDir string
	snap    snapshotFunc
	ints    bool
}

// evaluate applies one expectation. Failures go to the checker's strategy;
// a usage panic is returned as an *ExpectationError.
func (ev *evaluation) evaluate() (err error) {
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		if recErr, ok := rec.(error); ok && errors.Is(recErr, truth.ErrInvalidUsage) {
			err = &ExpectationError{Line: ev.expect.Line, Operator: ev.expect.Operator, Err: recErr}
			return
		}
		panic(rec)
	}()

	switch ev.actual.source {
	case spec.SourceString:
		return ev.text(ev.ck.NullableString(ev.actual.str))
	case spec.SourceJSON:
		return ev.json()
	case spec.SourceInts:
		return iterable(ev, truth.Ints(ev.ck, ev.actual.ints), intArg)
	case spec.SourceStrings, spec.SourceQuery:
		if ev.ints {
			return iterable(ev, truth.Ints(ev.ck, ev.actual.ints), intArg)
		}
		return iterable(ev, truth.Strings(ev.ck, ev.actual.strs), stringArg)
	}
	return ev.unsupported()
}

func (ev *evaluation) unsupported() error {
	return &ExpectationError{
		Line:     ev.expect.Line,
		Operator: ev.expect.Operator,
		Err:      fmt.Errorf("not supported for a %s value", ev.actual.source),
	}
}

func (ev *evaluation) text(s *truth.StringSubject) error {
	v := ev.value
	switch ev.expect.Operator {
	case "equals":
		if ev.expect.IgnoreCase {
			s.IsEqualToIgnoringCase(textArg(v))
		} else {
			s.IsEqualTo(textArg(v))
		}
	case "notEquals":
		s.IsNotEqualTo(textArg(v))
	case "isNull":
		s.IsNil()
	case "isNotNull":
		s.IsNotNil()
	case "isIn":
		s.IsIn(listArg(v)...)
	case "isNotIn":
		s.IsNotIn(listArg(v)...)
	case "matchesSnapshot":
		ev.snap(s.Subject, s.Actual(), ev.snapshotName())
	case "hasLength":
		n, _ := intArg(v)
		s.HasLength(n)
	case "isEmpty":
		s.IsEmpty()
	case "isNotEmpty":
		s.IsNotEmpty()
	case "contains":
		if ev.expect.IgnoreCase {
			s.ContainsIgnoringCase(textArg(v))
		} else {
			s.Contains(textArg(v))
		}
	case "doesNotContain":
		s.DoesNotContain(textArg(v))
	case "startsWith":
		s.StartsWith(textArg(v))
	case "endsWith":
		s.EndsWith(textArg(v))
	case "matches":
		s.Matches(textArg(v))
	case "doesNotMatch":
		s.DoesNotMatch(textArg(v))
	case "containsMatch":
		s.ContainsMatch(textArg(v))
	case "doesNotContainMatch":
		s.DoesNotContainMatch(textArg(v))
	case "isAtLeast":
		s.IsAtLeast(textArg(v))
	case "isAtMost":
		s.IsAtMost(textArg(v))
	case "isGreaterThan":
		s.IsGreaterThan(textArg(v))
	case "isLessThan":
		s.IsLessThan(textArg(v))
	case "isInRange":
		pair := listArg(v)
		if len(pair) != 2 {
			return ev.unsupported()
		}
		s.IsInClosedRange(textArg(pair[0]), textArg(pair[1]))
	default:
		return ev.unsupported()
	}
	return nil
}

func (ev *evaluation) json() error {
	doc := jsondoc.That(ev.ck, ev.actual.json)
	e := ev.expect
	switch e.Operator {
	case "isValid":
		doc.IsValid()
	case "hasPath":
		doc.HasPath(textArg(ev.value))
	case "doesNotHavePath":
		doc.DoesNotHavePath(textArg(ev.value))
	case "matchesSchema":
		path := textArg(ev.value)
		if !filepath.IsAbs(path) {
			path = filepath.Join(ev.baseDir, path)
		}
		doc.MatchesSchemaFile(path)
	case "equals", "notEquals", "isNull", "isNotNull", "matchesSnapshot":
		if e.IgnoreCase {
			return ev.text(ev.jsonText(doc))
		}
		path := e.Path
		if path == "" {
			path = "@this"
		}
		sub := doc.Path(path)
		switch e.Operator {
		case "equals":
			sub.IsEqualTo(normalizeJSON(ev.value))
		case "notEquals":
			sub.IsNotEqualTo(normalizeJSON(ev.value))
		case "isNull":
			sub.IsNil()
		case "isNotNull":
			sub.IsNotNil()
		case "matchesSnapshot":
			ev.snap(sub, sub.Actual(), ev.snapshotName())
		}
	default:
		return ev.text(ev.jsonText(doc))
	}
	return nil
}

// jsonText is the string subject for textual operators: the value at the
// expectation's path, or the whole document.
func (ev *evaluation) jsonText(doc *jsondoc.Subject) *truth.StringSubject {
	if ev.expect.Path == "" {
		return ev.ck.String(string(ev.actual.json))
	}
	return doc.StringAt(ev.expect.Path)
}

// snapshotName names the snapshot of a matchesSnapshot expectation: the
// given name, else the JSON path it applies to, so that several unnamed
// snapshots of one case do not share a key.
func (ev *evaluation) snapshotName() string {
	if name := textArg(ev.value); name != "" {
		return name
	}
	if ev.expect.Path != "" {
		return "path:" + ev.expect.Path
	}
	return ""
}

func iterable[T comparable](ev *evaluation, it *truth.IterableSubject[T], conv func(any) (T, bool)) error {
	elems := func() []T {
		list := listArg(ev.value)
		out := make([]T, 0, len(list))
		for _, item := range list {
			if el, ok := conv(item); ok {
				out = append(out, el)
			}
		}
		return out
	}
	inOrder := func(o *truth.Ordered) {
		if ev.expect.InOrder {
			o.InOrder()
		}
	}

	switch ev.expect.Operator {
	case "equals":
		it.IsEqualTo(elems())
	case "notEquals":
		it.IsNotEqualTo(elems())
	case "isNull":
		it.IsNil()
	case "isNotNull":
		it.IsNotNil()
	case "matchesSnapshot":
		ev.snap(it.Subject, it.Actual(), ev.snapshotName())
	case "isEmpty":
		it.IsEmpty()
	case "isNotEmpty":
		it.IsNotEmpty()
	case "hasSize":
		n, _ := intArg(ev.value)
		it.HasSize(n)
	case "contains":
		el, _ := conv(ev.value)
		it.Contains(el)
	case "doesNotContain":
		el, _ := conv(ev.value)
		it.DoesNotContain(el)
	case "containsAnyOf":
		it.ContainsAnyIn(elems())
	case "containsNoneOf":
		it.ContainsNoneIn(elems())
	case "containsAtLeast":
		inOrder(it.ContainsAtLeastElementsIn(elems()))
	case "containsExactly":
		inOrder(it.ContainsExactlyElementsIn(elems()))
	case "containsNoDuplicates":
		it.ContainsNoDuplicates()
	default:
		return ev.unsupported()
	}
	return nil
}

func intArg(v any) (int, bool) {
	n, ok := v.(int)
	return n, ok
}

func stringArg(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func textArg(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

func listArg(v any) []any {
	list, _ := v.([]any)
	return list
}

// normalizeJSON converts a YAML value to the form gjson produces, so that
// 42 compares equal to the JSON number 42.
func normalizeJSON(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func (r *Runner) snapshotter(file *spec.File, c *spec.Case) snapshotFunc {
	return func(sub *truth.Subject, value any, name string) {
		res := r.snapshots.Compare(file.Path, c.Name, name, value)
		if res.Passed {
			if res.IsNew || res.WasUpdated {
				r.log.Info("snapshot written",
					zap.String("file", file.Path),
					zap.String("key", res.Key),
					zap.Bool("new", res.IsNew))
			}
			return
		}
		facts := []fact.Fact{
			fact.Simple("expected to match snapshot"),
			fact.New("snapshot", res.Key),
			fact.New("reason", res.Message),
		}
		if res.Diff != "" {
			facts = append(facts, fact.New("diff (-snapshot +actual)", res.Diff))
		}
		sub.FailWithActual(facts...)
	}
}
