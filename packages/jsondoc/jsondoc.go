package jsondoc

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/factcheck/packages/fact"
	"github.com/abdul-hamid-achik/factcheck/packages/truth"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// Subject asserts on a JSON document. A nil document is the null actual.
type Subject struct {
	*truth.Subject
	raw   []byte
	valid bool
	doc   gjson.Result
}

// That returns a subject for the JSON document raw.
func That(ck *truth.Checker, raw []byte) *Subject {
	var actual any
	if raw != nil {
		actual = string(raw)
	}
	s := &Subject{
		Subject: truth.NewSubject(ck, actual, "json"),
		raw:     raw,
		valid:   raw != nil && gjson.ValidBytes(raw),
	}
	if s.valid {
		s.doc = gjson.ParseBytes(raw)
	}
	return s
}

// normalizePath converts array bracket notation to gjson dot notation,
// e.g. "items[0].tags[1]" -> "items.0.tags.1".
func normalizePath(path string) string {
	path = bracketIndex.ReplaceAllString(path, ".$1")
	return strings.TrimPrefix(path, ".")
}

func (s *Subject) lookup(path string) gjson.Result {
	if !s.valid {
		return gjson.Result{}
	}
	return s.doc.Get(normalizePath(path))
}

// IsValid fails unless the document is well-formed JSON.
func (s *Subject) IsValid() {
	s.Checker().T().Helper()
	if !s.valid {
		s.FailWithActual(fact.Simple("expected valid JSON"))
	}
}

// HasPath fails unless path exists in the document.
func (s *Subject) HasPath(path string) {
	s.Checker().T().Helper()
	if !s.valid {
		s.FailWithActual(fact.New("expected valid JSON with path", path))
		return
	}
	if !s.lookup(path).Exists() {
		s.FailWithActual(fact.New("expected to have path", path))
	}
}

// DoesNotHavePath fails if path exists in the document.
func (s *Subject) DoesNotHavePath(path string) {
	s.Checker().T().Helper()
	if !s.valid {
		s.FailWithActual(fact.New("expected valid JSON without path", path))
		return
	}
	if s.lookup(path).Exists() {
		s.FailWithActual(fact.New("expected not to have path", path))
	}
}

// Path returns a subject for the value at path. Objects decode to
// map[string]any, arrays to []any and numbers to float64. A missing path
// yields a nil actual.
func (s *Subject) Path(path string) *truth.Subject {
	return s.Check("%s", path).That(s.lookup(path).Value())
}

// StringAt returns a string subject for the value at path. Non-string
// values are given in their JSON text; a missing path is the null string.
func (s *Subject) StringAt(path string) *truth.StringSubject {
	ck := s.Check("%s", path)
	r := s.lookup(path)
	switch {
	case !r.Exists():
		return ck.NullableString(nil)
	case r.Type == gjson.String:
		return ck.String(r.String())
	default:
		return ck.String(r.Raw)
	}
}

// MatchesSchema fails unless the document validates against the JSON
// schema. Each violation becomes a fact. An unusable schema panics with a
// *truth.UsageError.
func (s *Subject) MatchesSchema(schema []byte) {
	s.Checker().T().Helper()
	if !s.valid {
		s.FailWithActual(fact.Simple("expected valid JSON matching schema"))
		return
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(s.raw),
	)
	if err != nil {
		panic(&truth.UsageError{Msg: fmt.Sprintf("invalid JSON schema: %v", err), Err: err})
	}
	if result.Valid() {
		return
	}
	facts := []fact.Fact{fact.Simple("expected to match schema")}
	for _, desc := range result.Errors() {
		facts = append(facts, fact.New("violation", desc.String()))
	}
	s.FailWithActual(facts...)
}

// MatchesSchemaFile is MatchesSchema with the schema read from path.
func (s *Subject) MatchesSchemaFile(path string) {
	s.Checker().T().Helper()
	schema, err := os.ReadFile(path)
	if err != nil {
		panic(&truth.UsageError{Msg: fmt.Sprintf("failed to read schema file: %v", err), Err: err})
	}
	s.MatchesSchema(schema)
}
