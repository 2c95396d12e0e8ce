package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/factcheck/packages/core/spec"
	"github.com/abdul-hamid-achik/factcheck/packages/db"
	"github.com/abdul-hamid-achik/factcheck/packages/regex"
	"github.com/abdul-hamid-achik/factcheck/packages/snapshot"
	"github.com/abdul-hamid-achik/factcheck/packages/truth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func run(t *testing.T, cfg *Config, content string) *RunResult {
	t.Helper()
	path := writeFile(t, t.TempDir(), "test.factcheck.yaml", content)
	r := NewRunner(cfg)
	t.Cleanup(func() { _ = r.Close() })
	result, err := r.RunFile(context.Background(), path)
	require.NoError(t, err)
	return result
}

func caseNamed(t *testing.T, result *RunResult, name string) *CaseResult {
	t.Helper()
	for _, cr := range result.Results {
		if cr.Name == name {
			return cr
		}
	}
	t.Fatalf("no result for case %q", name)
	return nil
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil)
		assert.NotNil(t, r.log)
		assert.NotNil(t, r.pool)
		assert.NotNil(t, r.snapshots)
	})

	t.Run("with custom config", func(t *testing.T) {
		r := NewRunner(&Config{Parallel: true, Concurrency: 10})
		assert.True(t, r.config.Parallel)
		assert.Equal(t, 10, r.config.Concurrency)
	})
}

func TestRunner_RunFile(t *testing.T) {
	result := run(t, nil, `name: basics
variables:
  who: kurt
cases:
  - name: length
    string: "{{who}}"
    expect:
      - hasLength: 4
      - startsWith: k
      - contains: UR
        ignoreCase: true
  - name: ids
    ints: [42, 43, 44]
    expect:
      - containsAtLeast: [42, 44]
        inOrder: true
      - containsNoDuplicates
  - name: null
    string: null
    expect:
      - isNull
`)
	assert.Equal(t, 3, result.Passed)
	assert.Equal(t, 0, result.Failed)
	assert.True(t, result.OK())
	assert.True(t, caseNamed(t, result, "null").Passed)
	assert.Equal(t, int64(3), result.Latency.Count)
	assert.NotEmpty(t, result.ID.String())
}

func TestRunner_CollectsEveryFailureOfACase(t *testing.T) {
	result := run(t, nil, `cases:
  - name: kurt
    string: kurt
    expect:
      - hasLength: 5
      - startsWith: x
      - endsWith: t
`)
	require.Equal(t, 1, result.Failed)
	cr := caseNamed(t, result, "kurt")
	require.Len(t, cr.Failures, 2)

	f := cr.Failures[0]
	assert.Equal(t, []string{"value of", "expected", "but was", "string was"}, f.Keys())
	assert.Equal(t, "value of  : string.length()\nexpected  : 5\nbut was   : 4\nstring was: kurt", f.Error())

	v, _ := cr.Failures[1].Value("expected to start with")
	assert.Equal(t, "x", v)
}

func TestRunner_NullActual(t *testing.T) {
	result := run(t, nil, `cases:
  - name: empty
    string: null
    expect:
      - isEmpty
`)
	cr := caseNamed(t, result, "empty")
	require.Len(t, cr.Failures, 1)
	assert.Equal(t, []string{"expected empty string", "but was"}, cr.Failures[0].Keys())
}

func TestRunner_UsageErrorIsCaseError(t *testing.T) {
	result := run(t, nil, `cases:
  - name: negative
    string: kurt
    expect:
      - hasLength: -1
  - name: bad pattern
    string: kurt
    expect:
      - matches: "("
`)
	assert.Equal(t, 2, result.Errored)
	assert.Equal(t, 0, result.Failed)
	assert.False(t, result.OK())

	cr := caseNamed(t, result, "negative")
	require.Error(t, cr.Error)
	assert.True(t, errors.Is(cr.Error, truth.ErrInvalidUsage))
	assert.Contains(t, cr.Error.Error(), "expectedLength(-1) must be >= 0")
	var exprErr *ExpectationError
	require.ErrorAs(t, cr.Error, &exprErr)
	assert.Equal(t, 5, exprErr.Line)

	cr = caseNamed(t, result, "bad pattern")
	var syntaxErr *regex.SyntaxError
	assert.ErrorAs(t, cr.Error, &syntaxErr)
}

func TestRunner_Messages(t *testing.T) {
	result := run(t, nil, `variables:
  user: admin
cases:
  - name: msg
    string: kurt
    expect:
      - hasLength: 5
        message: "name of {{user}}"
`)
	cr := caseNamed(t, result, "msg")
	require.Len(t, cr.Failures, 1)
	assert.Equal(t, "name of admin", cr.Failures[0].Keys()[0])
}

func TestRunner_Iterables(t *testing.T) {
	result := run(t, nil, `cases:
  - name: order
    ints: [3, 2, 5]
    expect:
      - containsAtLeast: [2, 3]
        inOrder: true
  - name: exact
    strings: [a, b]
    expect:
      - containsExactly: [b, a]
      - equals: [a, b]
      - hasSize: 3
`)
	cr := caseNamed(t, result, "order")
	require.Len(t, cr.Failures, 1)
	assert.Equal(t, "required elements were all found, but order was wrong", cr.Failures[0].Keys()[0])

	cr = caseNamed(t, result, "exact")
	require.Len(t, cr.Failures, 1)
	v, _ := cr.Failures[0].Value("value of")
	assert.Equal(t, "iterable.size()", v)
}

func TestRunner_JSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.schema.json", `{"type":"object","required":["user"]}`)
	path := writeFile(t, dir, "json.factcheck.yaml", `cases:
  - name: doc
    json:
      user: {name: kurt, age: 42}
      items: [{id: 1}, {id: 2}]
    expect:
      - isValid
      - hasPath: items[1].id
      - equals: 42
        path: user.age
      - equals: {name: kurt, age: 42}
        path: user
      - hasLength: 4
        path: user.name
      - matchesSchema: user.schema.json
  - name: wrong
    json: '{"user": {"name": "kurt"}}'
    expect:
      - startsWith: x
        path: user.name
`)
	r := NewRunner(nil)
	defer r.Close()
	result, err := r.RunFile(context.Background(), path)
	require.NoError(t, err)

	doc := caseNamed(t, result, "doc")
	assert.True(t, doc.Passed, "%v %v", doc.Failures, doc.Error)

	wrong := caseNamed(t, result, "wrong")
	require.Len(t, wrong.Failures, 1)
	v, _ := wrong.Failures[0].Value("value of")
	assert.Equal(t, "json.user.name", v)
}

func TestRunner_Query(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	client, err := db.Open(ctx, "sqlite://"+filepath.Join(dir, "app.db"))
	require.NoError(t, err)
	require.NoError(t, client.Exec(ctx, `
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT);
		INSERT INTO users (name) VALUES ('ada'), ('kurt');
	`))
	require.NoError(t, client.Close())

	path := writeFile(t, dir, "db.factcheck.yaml", `db: sqlite://app.db
cases:
  - name: names
    query: SELECT name FROM users ORDER BY id
    expect:
      - containsExactly: [ada, kurt]
        inOrder: true
  - name: ids
    query: SELECT id FROM users
    as: ints
    expect:
      - containsAtLeast: [2]
      - hasSize: 2
  - name: broken
    query: SELECT nope FROM users
    expect:
      - isEmpty
`)
	r := NewRunner(nil)
	defer r.Close()
	result, err := r.RunFile(ctx, path)
	require.NoError(t, err)

	assert.True(t, caseNamed(t, result, "names").Passed)
	assert.True(t, caseNamed(t, result, "ids").Passed)
	assert.Error(t, caseNamed(t, result, "broken").Error)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Errored)
}

func TestRunner_Filters(t *testing.T) {
	content := `cases:
  - name: alpha
    tags: [smoke]
    string: a
    expect: [isNotEmpty]
  - name: beta
    string: b
    expect: [isNotEmpty]
  - name: gamma
    skip: flaky
    string: c
    expect: [isNotEmpty]
`
	t.Run("name", func(t *testing.T) {
		result := run(t, &Config{NameFilter: "alp*"}, content)
		assert.Equal(t, 1, result.Passed)
		assert.Equal(t, 2, result.Skipped)
	})

	t.Run("tags", func(t *testing.T) {
		result := run(t, &Config{TagsFilter: []string{"smoke"}}, content)
		assert.Equal(t, 1, result.Passed)
		assert.True(t, caseNamed(t, result, "alpha").Passed)
	})

	t.Run("skip reason", func(t *testing.T) {
		result := run(t, nil, content)
		cr := caseNamed(t, result, "gamma")
		assert.True(t, cr.Skipped)
		assert.Equal(t, "flaky", cr.SkipReason)
	})

	t.Run("only", func(t *testing.T) {
		result := run(t, nil, content+`  - name: delta
    only: true
    string: d
    expect: [isNotEmpty]
`)
		assert.Equal(t, 1, result.Passed)
		assert.True(t, caseNamed(t, result, "delta").Passed)
		assert.Equal(t, "filtered out", caseNamed(t, result, "alpha").SkipReason)
	})
}

func TestRunner_Bail(t *testing.T) {
	content := `cases:
  - name: one
    string: a
    expect: [isEmpty]
  - name: two
    string: b
    expect: [isNotEmpty]
`
	result := run(t, &Config{Bail: true}, content)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 0, result.Passed)
	assert.Len(t, result.Results, 1)

	result = run(t, nil, content)
	assert.Len(t, result.Results, 2)
}

func TestRunner_Parallel(t *testing.T) {
	content := "cases:\n"
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		content += "  - name: " + name + "\n    string: " + name + "\n    expect:\n      - hasLength: 1\n"
	}
	result := run(t, &Config{Parallel: true, Concurrency: 3}, content)
	assert.Equal(t, 7, result.Passed)
	require.Len(t, result.Results, 7)
	assert.Equal(t, "a", result.Results[0].Name)
	assert.Equal(t, "g", result.Results[6].Name)
	assert.Equal(t, int64(7), result.Latency.Count)
}

func TestRunner_ParallelBail(t *testing.T) {
	content := `cases:
  - name: one
    string: a
    expect: [isEmpty]
  - name: two
    string: b
    expect: [isNotEmpty]
  - name: three
    string: c
    expect: [isNotEmpty]
`
	result := run(t, &Config{Parallel: true, Concurrency: 1, Bail: true}, content)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "one", result.Results[0].Name)
}

func TestRunner_ParallelCancelled(t *testing.T) {
	path := writeFile(t, t.TempDir(), "c.factcheck.yaml", `cases:
  - name: one
    string: a
    expect: [isNotEmpty]
`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(&Config{Parallel: true})
	defer r.Close()
	_, err := r.RunFile(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Snapshots(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "snap.factcheck.yaml", `cases:
  - name: body
    strings: [a, b]
    expect:
      - matchesSnapshot
`)
	ctx := context.Background()

	r := NewRunner(nil)
	result, err := r.RunFile(ctx, path)
	require.NoError(t, err)
	cr := caseNamed(t, result, "body")
	require.Len(t, cr.Failures, 1)
	assert.Equal(t, "expected to match snapshot", cr.Failures[0].Keys()[0])

	r = NewRunner(&Config{Snapshots: snapshot.NewManager(true)})
	result, err = r.RunFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, result.OK())

	r = NewRunner(nil)
	result, err = r.RunFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, result.OK())
}

func TestRunner_SnapshotsPerPath(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.factcheck.yaml", `cases:
  - name: doc
    json: {"a": 1, "b": 2}
    expect:
      - matchesSnapshot:
        path: a
      - matchesSnapshot:
        path: b
`)
	ctx := context.Background()

	r := NewRunner(&Config{Snapshots: snapshot.NewManager(true)})
	result, err := r.RunFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, result.OK())

	r = NewRunner(nil)
	result, err = r.RunFile(ctx, path)
	require.NoError(t, err)
	assert.True(t, result.OK(), "%v", caseNamed(t, result, "doc").Failures)

	data, err := os.ReadFile(snapshot.FilePath(path))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"doc::path:a"`)
	assert.Contains(t, string(data), `"doc::path:b"`)
}

func TestRunner_VariablesAndDotEnv(t *testing.T) {
	result := run(t, &Config{
		Variables: map[string]any{"who": "ada"},
		DotEnv:    map[string]string{"FACTCHECK_TEST_GREETING": "hi"},
	}, `variables:
  who: kurt
cases:
  - name: override
    string: "{{$FACTCHECK_TEST_GREETING}} {{who}}"
    expect:
      - equals: hi ada
`)
	assert.True(t, result.OK())
}

func TestRunner_UnresolvedPlaceholders(t *testing.T) {
	result := run(t, nil, `variables:
  who: kurt
cases:
  - name: actual
    string: "{{who}} {{missing}}"
    expect:
      - isNotEmpty
  - name: expected
    strings: [kurt]
    expect:
      - containsExactly: ["{{who}}", "{{other}}"]
        message: "{{$FACTCHECK_SURELY_UNSET}}"
  - name: resolved
    string: "{{who}}"
    expect:
      - equals: "{{who}}"
`)
	assert.Equal(t, 2, result.Errored)
	assert.Equal(t, 1, result.Passed)

	err := caseNamed(t, result, "actual").Error
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnresolved))
	assert.Contains(t, err.Error(), "{{missing}}")

	err = caseNamed(t, result, "expected").Error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{other}}, {{$FACTCHECK_SURELY_UNSET}}")
}

func TestRunner_GlobMatcher(t *testing.T) {
	result := run(t, &Config{Matcher: regex.Glob()}, `cases:
  - name: glob
    string: abcaaadev
    expect:
      - matches: "*aaa*"
`)
	assert.True(t, result.OK())
}

func TestRunner_InvalidFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.factcheck.yaml", `cases:
  - name: a
    string: x
    expect:
      - isShiny: true
`)
	_, err := NewRunner(nil).RunFile(context.Background(), path)
	assert.True(t, errors.Is(err, spec.ErrInvalidSpec))
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name, pattern string
		want          bool
	}{
		{"login flow", "", true},
		{"login flow", "login", true},
		{"login flow", "login*", true},
		{"login flow", "*flow", true},
		{"login flow", "*in fl*", true},
		{"login flow", "logout", false},
		{"login flow", "*login", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPattern(tt.name, tt.pattern), "%q %q", tt.name, tt.pattern)
	}
}

func TestResolveConn(t *testing.T) {
	assert.Equal(t, "sqlite://"+filepath.Join("cases", "app.db"), resolveConn("sqlite://app.db", "cases"))
	assert.Equal(t, "sqlite:/abs/app.db", resolveConn("sqlite:/abs/app.db", "cases"))
	assert.Equal(t, "sqlite::memory:", resolveConn("sqlite::memory:", "cases"))
}
