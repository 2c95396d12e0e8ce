package spec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `name: users
db: sqlite://users.db
variables:
  who: kurt
cases:
  - name: name length
    tags: [smoke, strings]
    string: "{{who}}"
    expect:
      - hasLength: 4
      - startsWith: k
        message: prefix
      - contains: UR
        ignoreCase: true
  - name: missing name
    string: null
    expect:
      - isNull
  - name: ids
    ints: [42, 43]
    expect:
      - containsExactly: [43, 42]
      - containsAtLeast: [42]
        inOrder: true
  - name: payload
    json:
      user: {name: kurt}
    expect:
      - isValid
      - equals: kurt
        path: user.name
  - name: raw payload
    skip: not ready
    json: '{"a": 1}'
    expect:
      - hasPath: a
  - name: rows
    only: true
    query: SELECT name FROM users
    expect:
      - hasSize: 2
`

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sample), "users.factcheck.yaml")
	require.NoError(t, err)
	require.NoError(t, Validate(f))

	assert.Equal(t, "users", f.Name)
	assert.Equal(t, "sqlite://users.db", f.DB)
	assert.Equal(t, map[string]any{"who": "kurt"}, f.Variables)
	require.Len(t, f.Cases, 6)

	c := f.Cases[0]
	assert.Equal(t, "name length", c.Name)
	assert.Equal(t, []string{"smoke", "strings"}, c.Tags)
	assert.Equal(t, SourceString, c.Actual.Source)
	require.NotNil(t, c.Actual.String)
	assert.Equal(t, "{{who}}", *c.Actual.String)
	assert.Equal(t, 6, c.Line)
	require.Len(t, c.Expect, 3)
	assert.Equal(t, "hasLength", c.Expect[0].Operator)
	assert.Equal(t, 4, c.Expect[0].Value)
	assert.Equal(t, "prefix", c.Expect[1].Message)
	assert.True(t, c.Expect[2].IgnoreCase)
	assert.Equal(t, 10, c.Expect[0].Line)

	c = f.Cases[1]
	assert.Equal(t, SourceString, c.Actual.Source)
	assert.Nil(t, c.Actual.String)
	assert.Equal(t, "isNull", c.Expect[0].Operator)

	c = f.Cases[2]
	assert.Equal(t, []int{42, 43}, c.Actual.Ints)
	assert.Equal(t, []any{43, 42}, c.Expect[0].Value)
	assert.True(t, c.Expect[1].InOrder)

	c = f.Cases[3]
	assert.JSONEq(t, `{"user":{"name":"kurt"}}`, c.Actual.JSON)
	assert.Equal(t, "user.name", c.Expect[1].Path)

	c = f.Cases[4]
	assert.True(t, c.Skip)
	assert.Equal(t, "not ready", c.SkipReason)
	assert.Equal(t, `{"a": 1}`, c.Actual.JSON)

	c = f.Cases[5]
	assert.True(t, c.Only)
	assert.Equal(t, SourceQuery, c.Actual.Source)
	assert.Equal(t, "string", ElementKind(c.Actual))
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.factcheck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0644))

	f, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_ScalarCaseNames(t *testing.T) {
	src := "cases:\n  - name: null\n    string: null\n    expect: [isNull]\n  - name: 42\n    string: x\n    expect: [isNotNull]\n"

	f, err := Parse([]byte(src), "x.yaml")
	require.NoError(t, err)
	require.Len(t, f.Cases, 2)
	assert.Equal(t, "null", f.Cases[0].Name)
	assert.Nil(t, f.Cases[0].Actual.String)
	assert.Equal(t, "42", f.Cases[1].Name)
	assert.NoError(t, Validate(f))
}

func TestParse_SyntaxErrors(t *testing.T) {
	tests := map[string]string{
		"bad yaml":          "cases: [",
		"top level list":    "- a\n- b\n",
		"cases not list":    "cases: 3\n",
		"expect not list":   "cases:\n  - name: a\n    string: x\n    expect: 3\n",
		"ints not integers": "cases:\n  - name: a\n    ints: [a]\n",
	}
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src), "x.yaml")
			assert.True(t, errors.Is(err, ErrInvalidSpec), "got %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "no cases",
			src:  "name: empty\n",
			want: "no cases defined",
		},
		{
			name: "missing source",
			src:  "cases:\n  - name: a\n    expect: [isEmpty]\n",
			want: "missing actual value",
		},
		{
			name: "two sources",
			src:  "cases:\n  - name: a\n    string: x\n    ints: [1]\n    expect: [isEmpty]\n",
			want: "more than one actual value: string, ints",
		},
		{
			name: "unknown operator",
			src:  "cases:\n  - name: a\n    string: x\n    expect:\n      - isShiny: true\n",
			want: `line 5: case "a": unknown operator "isShiny"`,
		},
		{
			name: "two operators",
			src:  "cases:\n  - name: a\n    string: x\n    expect:\n      - contains: a\n        startsWith: b\n",
			want: "more than one operator: contains, startsWith",
		},
		{
			name: "wrong source",
			src:  "cases:\n  - name: a\n    string: x\n    expect:\n      - hasSize: 1\n",
			want: "hasSize does not apply to a string value",
		},
		{
			name: "bad arity",
			src:  "cases:\n  - name: a\n    string: x\n    expect:\n      - hasLength: four\n",
			want: "hasLength: expected an integer",
		},
		{
			name: "bad element",
			src:  "cases:\n  - name: a\n    ints: [1]\n    expect:\n      - containsExactly: [1, b]\n",
			want: "item 1: expected an int",
		},
		{
			name: "bad range",
			src:  "cases:\n  - name: a\n    string: x\n    expect:\n      - isInRange: [a]\n",
			want: "isInRange: expected a list of two values",
		},
		{
			name: "inOrder misuse",
			src:  "cases:\n  - name: a\n    ints: [1]\n    expect:\n      - contains: 1\n        inOrder: true\n",
			want: "inOrder does not apply to contains",
		},
		{
			name: "path misuse",
			src:  "cases:\n  - name: a\n    string: x\n    expect:\n      - contains: x\n        path: a\n",
			want: "path applies only to json values",
		},
		{
			name: "query without db",
			src:  "cases:\n  - name: a\n    query: SELECT 1\n    expect: [isNotEmpty]\n",
			want: "query needs a db",
		},
		{
			name: "duplicate names",
			src:  "cases:\n  - name: a\n    string: x\n    expect: [isNotEmpty]\n  - name: a\n    string: y\n    expect: [isNotEmpty]\n",
			want: "duplicate case name (first defined at line 2)",
		},
		{
			name: "unknown case key",
			src:  "cases:\n  - name: a\n    strng: x\n    string: x\n    expect: [isNotEmpty]\n",
			want: `unknown key "strng"`,
		},
		{
			name: "no expectations",
			src:  "cases:\n  - name: a\n    string: x\n",
			want: "no expectations",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.src), "x.yaml")
			require.NoError(t, err)

			err = Validate(f)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidSpec))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidationError_Lists(t *testing.T) {
	src := "cases:\n  - name: a\n    string: x\n    expect:\n      - nope: 1\n      - hasLength: x\n"
	f, err := Parse([]byte(src), "x.yaml")
	require.NoError(t, err)

	var verr *ValidationError
	require.ErrorAs(t, Validate(f), &verr)
	require.Len(t, verr.Issues, 2)
	assert.Equal(t, 5, verr.Issues[0].Line)
	assert.Equal(t, 6, verr.Issues[1].Line)
	assert.True(t, strings.HasPrefix(verr.Error(), "x.yaml: 2 problem(s)"))
}

func TestOperators(t *testing.T) {
	ops := Operators()
	require.NotEmpty(t, ops)
	for i := 1; i < len(ops); i++ {
		assert.Less(t, ops[i-1].Name, ops[i].Name)
	}
	op, ok := LookupOperator("containsExactly")
	require.True(t, ok)
	assert.True(t, op.InOrder)
	assert.True(t, op.Supports(SourceQuery))
	assert.False(t, op.Supports(SourceString))
	assert.True(t, IsModifier("inOrder"))
	assert.False(t, IsModifier("contains"))
}
