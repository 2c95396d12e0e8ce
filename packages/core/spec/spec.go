package spec

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec is wrapped by every error describing a malformed case file.
var ErrInvalidSpec = errors.New("invalid spec")

// FileSuffix is the conventional case file name suffix.
const FileSuffix = ".factcheck.yaml"

// Source names where a case's actual value comes from.
type Source string

const (
	SourceNone    Source = ""
	SourceString  Source = "string"
	SourceInts    Source = "ints"
	SourceStrings Source = "strings"
	SourceJSON    Source = "json"
	SourceQuery   Source = "query"
)

// File is a parsed case file.
type File struct {
	Path      string
	Name      string
	Variables map[string]any
	// DB is the default database for query sources.
	DB    string
	Cases []*Case

	issues []Issue
}

// Case is one named set of expectations about a single actual value.
type Case struct {
	Name        string
	Description string
	Tags        []string
	Skip        bool
	SkipReason  string
	Only        bool
	Actual      Actual
	Expect      []*Expectation
	Line        int
}

// Actual is the value under test. Exactly one field matching Source is set.
type Actual struct {
	Source Source
	// String is nil for an explicit null.
	String  *string
	Ints    []int
	Strings []string
	JSON    string
	Query   string
	DB      string
	// As is the element type of query results: "strings" (default) or "ints".
	As string

	// sources lists every source key present, for validation.
	sources []Source
}

// Expectation is one operator applied to the actual value.
type Expectation struct {
	Operator   string
	Value      any
	Path       string
	InOrder    bool
	IgnoreCase bool
	Message    string
	Line       int

	unknown []string
}

// Issue is one problem found in a case file.
type Issue struct {
	Line int
	Case string
	Msg  string
}

func (i Issue) String() string {
	if i.Case != "" {
		return fmt.Sprintf("line %d: case %q: %s", i.Line, i.Case, i.Msg)
	}
	return fmt.Sprintf("line %d: %s", i.Line, i.Msg)
}

// ValidationError lists every issue found in a file.
type ValidationError struct {
	Path   string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %d problem(s)", e.Path, len(e.Issues))
	for _, issue := range e.Issues {
		msg += "\n  " + issue.String()
	}
	return msg
}

// Unwrap returns ErrInvalidSpec.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidSpec
}

// ParseFile reads and parses the case file at path.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses a case file. path is used in messages only.
func Parse(data []byte, path string) (*File, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, path, err)
	}
	f := &File{Path: path}
	if len(root.Content) == 0 {
		return f, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: line %d: top level must be a mapping", ErrInvalidSpec, path, doc.Line)
	}
	if err := f.decode(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSpec, path, err)
	}
	return f, nil
}

func (f *File) issue(line int, caseName, format string, args ...any) {
	f.issues = append(f.issues, Issue{Line: line, Case: caseName, Msg: fmt.Sprintf(format, args...)})
}

func (f *File) decode(doc *yaml.Node) error {
	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, val := doc.Content[i], doc.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			err = val.Decode(&f.Name)
		case "db":
			err = val.Decode(&f.DB)
		case "variables":
			err = val.Decode(&f.Variables)
		case "cases":
			if val.Kind != yaml.SequenceNode {
				return fmt.Errorf("line %d: cases must be a list", val.Line)
			}
			for _, n := range val.Content {
				c, err := f.decodeCase(n)
				if err != nil {
					return err
				}
				f.Cases = append(f.Cases, c)
			}
		default:
			f.issue(key.Line, "", "unknown key %q", key.Value)
		}
		if err != nil {
			return fmt.Errorf("line %d: %s: %v", val.Line, key.Value, err)
		}
	}
	return nil
}

func (f *File) decodeCase(n *yaml.Node) (*Case, error) {
	c := &Case{Line: n.Line}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: case must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch key.Value {
		case "name":
			// Scalars keep their source text, so `name: null` names the case.
			if val.Kind == yaml.ScalarNode {
				c.Name = val.Value
			} else {
				err = val.Decode(&c.Name)
			}
		case "description":
			err = val.Decode(&c.Description)
		case "tags":
			err = val.Decode(&c.Tags)
		case "only":
			err = val.Decode(&c.Only)
		case "skip":
			err = decodeSkip(val, c)
		case "string":
			c.Actual.sources = append(c.Actual.sources, SourceString)
			if val.Tag != "!!null" {
				var s string
				err = val.Decode(&s)
				c.Actual.String = &s
			}
		case "ints":
			c.Actual.sources = append(c.Actual.sources, SourceInts)
			err = val.Decode(&c.Actual.Ints)
			if err == nil && c.Actual.Ints == nil {
				c.Actual.Ints = []int{}
			}
		case "strings":
			c.Actual.sources = append(c.Actual.sources, SourceStrings)
			err = val.Decode(&c.Actual.Strings)
			if err == nil && c.Actual.Strings == nil {
				c.Actual.Strings = []string{}
			}
		case "json":
			c.Actual.sources = append(c.Actual.sources, SourceJSON)
			c.Actual.JSON, err = decodeJSON(val)
		case "query":
			c.Actual.sources = append(c.Actual.sources, SourceQuery)
			err = val.Decode(&c.Actual.Query)
		case "db":
			err = val.Decode(&c.Actual.DB)
		case "as":
			err = val.Decode(&c.Actual.As)
		case "expect":
			if val.Kind != yaml.SequenceNode {
				return nil, fmt.Errorf("line %d: expect must be a list", val.Line)
			}
			for _, en := range val.Content {
				e, err := decodeExpectation(en)
				if err != nil {
					return nil, err
				}
				c.Expect = append(c.Expect, e)
			}
		default:
			f.issue(key.Line, c.Name, "unknown key %q", key.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %v", val.Line, key.Value, err)
		}
	}
	if len(c.Actual.sources) == 1 {
		c.Actual.Source = c.Actual.sources[0]
	}
	return c, nil
}

func decodeSkip(n *yaml.Node, c *Case) error {
	if n.Tag == "!!bool" {
		return n.Decode(&c.Skip)
	}
	c.Skip = true
	return n.Decode(&c.SkipReason)
}

// decodeJSON accepts either a JSON document in a string or inline YAML,
// which is converted to JSON.
func decodeJSON(n *yaml.Node) (string, error) {
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" {
		return n.Value, nil
	}
	var v any
	if err := n.Decode(&v); err != nil {
		return "", err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var modifiers = []string{"path", "inOrder", "ignoreCase", "message"}

func decodeExpectation(n *yaml.Node) (*Expectation, error) {
	e := &Expectation{Line: n.Line}
	if n.Kind == yaml.ScalarNode {
		// Bare operator name, e.g. "- isEmpty".
		e.Operator = n.Value
		return e, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expectation must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		var err error
		switch key.Value {
		case "path":
			err = val.Decode(&e.Path)
		case "inOrder":
			err = val.Decode(&e.InOrder)
		case "ignoreCase":
			err = val.Decode(&e.IgnoreCase)
		case "message":
			err = val.Decode(&e.Message)
		default:
			if e.Operator != "" {
				e.unknown = append(e.unknown, key.Value)
				continue
			}
			e.Operator = key.Value
			err = val.Decode(&e.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %v", val.Line, key.Value, err)
		}
	}
	return e, nil
}

// IsModifier reports whether key is an expectation modifier rather than an
// operator.
func IsModifier(key string) bool {
	return slices.Contains(modifiers, key)
}
