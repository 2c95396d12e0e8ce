package spec

import (
	"fmt"
	"strings"
)

// Validate checks f and returns a *ValidationError listing every problem,
// or nil.
func Validate(f *File) error {
	v := &validator{file: f, issues: append([]Issue(nil), f.issues...)}
	v.run()
	if len(v.issues) == 0 {
		return nil
	}
	return &ValidationError{Path: f.Path, Issues: v.issues}
}

type validator struct {
	file   *File
	issues []Issue
}

func (v *validator) add(line int, c *Case, format string, args ...any) {
	name := ""
	if c != nil {
		name = c.Name
	}
	v.issues = append(v.issues, Issue{Line: line, Case: name, Msg: fmt.Sprintf(format, args...)})
}

func (v *validator) run() {
	if len(v.file.Cases) == 0 {
		v.add(1, nil, "no cases defined")
	}
	seen := make(map[string]int)
	for _, c := range v.file.Cases {
		if c.Name == "" {
			v.add(c.Line, c, "case has no name")
		} else if prev, ok := seen[c.Name]; ok {
			v.add(c.Line, c, "duplicate case name (first defined at line %d)", prev)
		} else {
			seen[c.Name] = c.Line
		}
		v.checkSource(c)
		if len(c.Expect) == 0 {
			v.add(c.Line, c, "no expectations")
		}
		for _, e := range c.Expect {
			v.checkExpectation(c, e)
		}
	}
}

func (v *validator) checkSource(c *Case) {
	a := &c.Actual
	switch len(a.sources) {
	case 0:
		v.add(c.Line, c, "missing actual value (one of string, ints, strings, json, query)")
		return
	case 1:
	default:
		names := make([]string, len(a.sources))
		for i, s := range a.sources {
			names[i] = string(s)
		}
		v.add(c.Line, c, "more than one actual value: %s", strings.Join(names, ", "))
		return
	}
	if a.Source == SourceQuery {
		if a.DB == "" && v.file.DB == "" {
			v.add(c.Line, c, "query needs a db, set on the case or the file")
		}
		if a.As != "" && a.As != "strings" && a.As != "ints" {
			v.add(c.Line, c, "as must be strings or ints, got %q", a.As)
		}
	} else if a.As != "" || a.DB != "" {
		v.add(c.Line, c, "db and as apply only to query")
	}
}

func (v *validator) checkExpectation(c *Case, e *Expectation) {
	if len(e.unknown) > 0 {
		v.add(e.Line, c, "more than one operator: %s, %s", e.Operator, strings.Join(e.unknown, ", "))
		return
	}
	if e.Operator == "" {
		v.add(e.Line, c, "expectation has no operator")
		return
	}
	op, ok := LookupOperator(e.Operator)
	if !ok {
		v.add(e.Line, c, "unknown operator %q", e.Operator)
		return
	}
	source := c.Actual.Source
	if source == SourceNone {
		return
	}
	if !op.Supports(source) {
		v.add(e.Line, c, "%s does not apply to a %s value", op.Name, source)
		return
	}
	if e.InOrder && !op.InOrder {
		v.add(e.Line, c, "inOrder does not apply to %s", op.Name)
	}
	if e.Path != "" && source != SourceJSON {
		v.add(e.Line, c, "path applies only to json values")
	}
	if e.IgnoreCase && !(op.Name == "equals" || op.Name == "contains") {
		v.add(e.Line, c, "ignoreCase applies only to equals and contains")
	}
	if e.IgnoreCase && !(source == SourceString || source == SourceJSON) {
		v.add(e.Line, c, "ignoreCase applies only to string values")
	}
	if op.Arg == ArgAny {
		switch {
		case isIterable(c.Actual):
			op.Arg = ArgList
		case source == SourceString:
			op.Arg = ArgString
		}
	}
	if msg := checkArg(op, e.Value, ElementKind(c.Actual)); msg != "" {
		v.add(e.Line, c, "%s: %s", op.Name, msg)
	}
}

// ElementKind returns "int" or "string": the type of the elements of an
// iterable actual, or "string" for textual ones.
func ElementKind(a Actual) string {
	if a.Source == SourceInts || (a.Source == SourceQuery && a.As == "ints") {
		return "int"
	}
	return "string"
}

func isIterable(a Actual) bool {
	return a.Source == SourceInts || a.Source == SourceStrings || a.Source == SourceQuery
}

func checkArg(op Operator, value any, elem string) string {
	switch op.Arg {
	case ArgNone:
		if value == nil || value == true {
			return ""
		}
	case ArgAny:
		return ""
	case ArgInt:
		if _, ok := value.(int); ok {
			return ""
		}
	case ArgString:
		if _, ok := value.(string); ok {
			return ""
		}
	case ArgOptionalString:
		if _, ok := value.(string); ok || value == nil {
			return ""
		}
	case ArgElement:
		if isElement(value, elem) {
			return ""
		}
		return "expected " + article(elem) + " " + elem
	case ArgList:
		list, ok := value.([]any)
		if !ok {
			break
		}
		for i, item := range list {
			if !isElement(item, elem) {
				return fmt.Sprintf("item %d: expected %s %s", i, article(elem), elem)
			}
		}
		return ""
	case ArgPair:
		if list, ok := value.([]any); ok && len(list) == 2 && isElement(list[0], elem) && isElement(list[1], elem) {
			return ""
		}
	}
	return "expected " + op.Arg.String()
}

func isElement(v any, elem string) bool {
	switch v.(type) {
	case int:
		return elem == "int"
	case string:
		return elem == "string"
	}
	return false
}

func article(elem string) string {
	if elem == "int" {
		return "an"
	}
	return "a"
}
