package runner

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/factcheck/packages/core/env"
	"github.com/abdul-hamid-achik/factcheck/packages/core/spec"
	"github.com/abdul-hamid-achik/factcheck/packages/db"
	"github.com/abdul-hamid-achik/factcheck/packages/failure"
	"github.com/abdul-hamid-achik/factcheck/packages/regex"
	"github.com/abdul-hamid-achik/factcheck/packages/snapshot"
	"github.com/abdul-hamid-achik/factcheck/packages/truth"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of cases run at once in parallel mode.
const DefaultConcurrency = 5

type Runner struct {
	config    *Config
	log       *zap.Logger
	pool      *db.Pool
	snapshots *snapshot.Manager
}

type Config struct {
	NameFilter  string
	TagsFilter  []string
	Bail        bool
	Parallel    bool
	Concurrency int
	// Matcher backs pattern operators. Defaults to regex.Regexp().
	Matcher regex.Matcher
	// Snapshots defaults to a read-only manager.
	Snapshots *snapshot.Manager
	// Variables override the variables of every file.
	Variables map[string]any
	// DotEnv supplies {{$NAME}} values missing from the process environment.
	DotEnv map[string]string
	Logger *zap.Logger
}

func NewRunner(cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	snapshots := cfg.Snapshots
	if snapshots == nil {
		snapshots = snapshot.NewManager(false)
	}
	return &Runner{
		config:    cfg,
		log:       log,
		pool:      db.NewPool(),
		snapshots: snapshots,
	}
}

// Close releases database connections.
func (r *Runner) Close() error {
	return r.pool.Close()
}

type RunResult struct {
	ID        uuid.UUID
	File      string
	Results   []*CaseResult
	StartedAt time.Time
	Duration  time.Duration
	Passed    int
	Failed    int
	Skipped   int
	Errored   int
	Latency   Latency
}

// OK reports whether no case failed or errored.
func (r *RunResult) OK() bool {
	return r.Failed == 0 && r.Errored == 0
}

type CaseResult struct {
	Name       string
	Line       int
	Tags       []string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Failures   []*failure.Failure
	// Error is set when the case could not be evaluated, e.g. a query
	// failed or an expectation had an invalid argument.
	Error error
}

// RunFile parses, validates and runs the file at path.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	file, err := spec.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}
	if err := spec.Validate(file); err != nil {
		return nil, err
	}
	r.log.Debug("parsed file", zap.String("file", path), zap.Int("cases", len(file.Cases)))
	return r.Run(ctx, file)
}

// Run runs the cases of an already validated file.
func (r *Runner) Run(ctx context.Context, file *spec.File) (*RunResult, error) {
	result := &RunResult{
		ID:        uuid.New(),
		File:      file.Path,
		StartedAt: time.Now(),
	}

	resolver := env.NewResolver()
	resolver.SetDotEnv(r.config.DotEnv)
	resolver.SetVariables(env.MergeVariables(file.Variables, r.config.Variables))
	resolver.SetWarnFunc(func(format string, args ...any) {
		r.log.Warn(fmt.Sprintf(format, args...), zap.String("file", file.Path))
	})

	hasOnly := slices.ContainsFunc(file.Cases, func(c *spec.Case) bool { return c.Only })

	var selected []*spec.Case
	for _, c := range file.Cases {
		switch {
		case !r.shouldRun(c, hasOnly):
			result.Results = append(result.Results, &CaseResult{
				Name: c.Name, Line: c.Line, Tags: c.Tags, Skipped: true, SkipReason: "filtered out",
			})
		case c.Skip:
			reason := c.SkipReason
			if reason == "" {
				reason = "skipped"
			}
			r.log.Debug("skipping case", zap.String("case", c.Name), zap.String("reason", reason))
			result.Results = append(result.Results, &CaseResult{
				Name: c.Name, Line: c.Line, Tags: c.Tags, Skipped: true, SkipReason: reason,
			})
		default:
			selected = append(selected, c)
		}
	}
	result.Skipped = len(result.Results)

	latency := newLatencyRecorder()
	var ran []*CaseResult
	if r.config.Parallel {
		var err error
		ran, err = r.runParallel(ctx, file, selected, resolver, latency)
		if err != nil {
			return nil, err
		}
	} else {
		for _, c := range selected {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			cr := r.runCase(ctx, file, c, resolver, latency)
			ran = append(ran, cr)
			if !cr.Passed && r.config.Bail {
				break
			}
		}
	}

	for _, cr := range ran {
		result.Results = append(result.Results, cr)
		switch {
		case cr.Error != nil:
			result.Errored++
		case cr.Passed:
			result.Passed++
		default:
			result.Failed++
		}
	}
	result.Duration = time.Since(result.StartedAt)
	result.Latency = latency.summary()
	return result, nil
}

// runParallel runs cases concurrently and returns their results in file
// order. With Bail set, no case starts after one has failed.
func (r *Runner) runParallel(ctx context.Context, file *spec.File, cases []*spec.Case, resolver *env.Resolver, latency *latencyRecorder) ([]*CaseResult, error) {
	concurrency := r.config.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]*CaseResult, len(cases))
	var failed atomic.Bool
	var g errgroup.Group
	g.SetLimit(concurrency)
	stop := func() bool {
		return ctx.Err() != nil || (r.config.Bail && failed.Load())
	}
	for i, c := range cases {
		if stop() {
			break
		}
		g.Go(func() error {
			// Checked again once a slot is free.
			if stop() {
				return nil
			}
			cr := r.runCase(ctx, file, c, resolver, latency)
			if !cr.Passed {
				failed.Store(true)
			}
			results[i] = cr
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ran := results[:0]
	for _, cr := range results {
		if cr != nil {
			ran = append(ran, cr)
		}
	}
	return ran, nil
}

func (r *Runner) shouldRun(c *spec.Case, hasOnly bool) bool {
	if hasOnly && !c.Only {
		return false
	}
	if r.config.NameFilter != "" && !matchesPattern(c.Name, r.config.NameFilter) {
		return false
	}
	if len(r.config.TagsFilter) > 0 && !hasAnyTag(c.Tags, r.config.TagsFilter) {
		return false
	}
	return true
}

func (r *Runner) runCase(ctx context.Context, file *spec.File, c *spec.Case, resolver *env.Resolver, latency *latencyRecorder) *CaseResult {
	result := &CaseResult{Name: c.Name, Line: c.Line, Tags: c.Tags}
	start := time.Now()
	defer func() {
		result.Duration = time.Since(start)
		latency.record(result.Duration)
	}()

	if err := checkPlaceholders(file, c, resolver); err != nil {
		result.Error = err
		r.log.Debug("case errored", zap.String("case", c.Name), zap.Error(err))
		return result
	}
	a, err := r.loadActual(ctx, file, c, resolver)
	if err != nil {
		result.Error = err
		r.log.Debug("case errored", zap.String("case", c.Name), zap.Error(err))
		return result
	}

	var opts []truth.Option
	if r.config.Matcher != nil {
		opts = append(opts, truth.WithMatcher(r.config.Matcher))
	}
	collector := failure.NewCollector()
	ck := truth.New(collector, opts...)

	for _, e := range c.Expect {
		eck := ck
		if e.Message != "" {
			eck = ck.WithMessage("%s", resolver.Resolve(e.Message))
		}
		ev := &evaluation{
			ck:      eck,
			actual:  a,
			expect:  e,
			value:   resolver.ResolveValue(e.Value),
			baseDir: filepath.Dir(file.Path),
			snap:    r.snapshotter(file, c),
			ints:    spec.ElementKind(c.Actual) == "int",
		}
		if err := ev.evaluate(); err != nil {
			result.Error = err
			r.log.Debug("expectation errored", zap.String("case", c.Name), zap.Error(err))
			break
		}
	}

	result.Failures = collector.Failures()
	result.Passed = result.Error == nil && len(result.Failures) == 0
	return result
}

// matchesPattern matches name against a filter. A filter with * at either
// end matches a substring, suffix or prefix; otherwise the name must contain
// the filter.
func matchesPattern(name, pattern string) bool {
	switch {
	case pattern == "":
		return true
	case len(pattern) > 1 && strings.HasPrefix(pattern, "*") && strings.HasSuffix(pattern, "*"):
		return strings.Contains(name, pattern[1:len(pattern)-1])
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(name, pattern[1:])
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(name, pattern[:len(pattern)-1])
	default:
		return strings.Contains(name, pattern)
	}
}

func hasAnyTag(tags []string, filters []string) bool {
	for _, filter := range filters {
		if slices.Contains(tags, filter) {
			return true
		}
	}
	return false
}
