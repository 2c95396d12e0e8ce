package runner

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/abdul-hamid-achik/factcheck/packages/core/env"
	"github.com/abdul-hamid-achik/factcheck/packages/core/spec"
)

// ErrUnresolved is wrapped by the error of a case that uses a placeholder
// with no value.
var ErrUnresolved = errors.New("unresolved placeholder")

// actual is the resolved value under test for one case.
type actual struct {
	source spec.Source
	str    *string
	ints   []int
	strs   []string
	json   []byte
}

func (r *Runner) loadActual(ctx context.Context, file *spec.File, c *spec.Case, resolver *env.Resolver) (*actual, error) {
	a := &actual{source: c.Actual.Source}
	switch c.Actual.Source {
	case spec.SourceString:
		if c.Actual.String != nil {
			s := resolver.Resolve(*c.Actual.String)
			a.str = &s
		}
	case spec.SourceInts:
		a.ints = c.Actual.Ints
	case spec.SourceStrings:
		a.strs = make([]string, len(c.Actual.Strings))
		for i, s := range c.Actual.Strings {
			a.strs[i] = resolver.Resolve(s)
		}
	case spec.SourceJSON:
		a.json = []byte(resolver.Resolve(c.Actual.JSON))
	case spec.SourceQuery:
		if err := r.query(ctx, file, c, resolver, a); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("case %q has no actual value", c.Name)
	}
	return a, nil
}

func (r *Runner) query(ctx context.Context, file *spec.File, c *spec.Case, resolver *env.Resolver, a *actual) error {
	conn := c.Actual.DB
	if conn == "" {
		conn = file.DB
	}
	conn = resolveConn(resolver.Resolve(conn), filepath.Dir(file.Path))

	client, err := r.pool.Get(ctx, conn)
	if err != nil {
		return err
	}
	result, err := client.Query(ctx, resolver.Resolve(c.Actual.Query))
	if err != nil {
		return err
	}

	values := result.Column(0)
	if c.Actual.As == "ints" {
		a.ints = make([]int, len(values))
		for i, v := range values {
			n, err := toInt(v)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			a.ints[i] = n
		}
		return nil
	}
	a.strs = make([]string, len(values))
	for i, v := range values {
		if v == nil {
			a.strs[i] = "NULL"
		} else {
			a.strs[i] = fmt.Sprint(v)
		}
	}
	return nil
}

// resolveConn makes relative sqlite paths relative to the case file.
func resolveConn(conn, baseDir string) string {
	for _, prefix := range []string{"sqlite://", "sqlite:"} {
		path, ok := strings.CutPrefix(conn, prefix)
		if !ok {
			continue
		}
		if path == "" || path == ":memory:" || filepath.IsAbs(path) || strings.HasPrefix(path, "file:") {
			return conn
		}
		return prefix + filepath.Join(baseDir, path)
	}
	return conn
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("value %v is not an integer", n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("value %q is not an integer", n)
		}
		return i, nil
	case nil:
		return 0, fmt.Errorf("value is NULL")
	default:
		return 0, fmt.Errorf("value %v of type %T is not an integer", v, v)
	}
}

// checkPlaceholders fails if any placeholder in c's actual value, database
// or expectations has no value.
func checkPlaceholders(file *spec.File, c *spec.Case, resolver *env.Resolver) error {
	var names []string
	add := func(s string) {
		for _, name := range resolver.Unresolved(s) {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	var walk func(v any)
	walk = func(v any) {
		switch x := v.(type) {
		case string:
			add(x)
		case []any:
			for _, e := range x {
				walk(e)
			}
		case map[string]any:
			for _, k := range slices.Sorted(maps.Keys(x)) {
				walk(x[k])
			}
		}
	}

	if c.Actual.String != nil {
		add(*c.Actual.String)
	}
	for _, s := range c.Actual.Strings {
		add(s)
	}
	add(c.Actual.JSON)
	if c.Actual.Source == spec.SourceQuery {
		add(c.Actual.Query)
		if c.Actual.DB != "" {
			add(c.Actual.DB)
		} else {
			add(file.DB)
		}
	}
	for _, e := range c.Expect {
		walk(e.Value)
		add(e.Message)
	}

	if len(names) == 0 {
		return nil
	}
	return fmt.Errorf("%w: {{%s}}", ErrUnresolved, strings.Join(names, "}}, {{"))
}
