package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/factcheck/packages/core/runner"
	"github.com/abdul-hamid-achik/factcheck/packages/failure"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary `json:"summary"`
	Runs     []JSONRun   `json:"runs"`
	Cases    []JSONCase  `json:"cases"`
	Duration float64     `json:"duration"`
	Time     string      `json:"time"`
}

type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Errored int `json:"errored"`
	Skipped int `json:"skipped"`
}

// JSONRun describes one case file run.
type JSONRun struct {
	ID       string      `json:"id"`
	File     string      `json:"file"`
	Duration float64     `json:"duration"`
	Latency  JSONLatency `json:"latency"`
}

// JSONLatency holds case duration percentiles in milliseconds.
type JSONLatency struct {
	Count int64   `json:"count"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Max   float64 `json:"max"`
}

type JSONCase struct {
	Name       string       `json:"name"`
	File       string       `json:"file"`
	Line       int          `json:"line"`
	Tags       []string     `json:"tags,omitempty"`
	Passed     bool         `json:"passed"`
	Skipped    bool         `json:"skipped,omitempty"`
	SkipReason string       `json:"skipReason,omitempty"`
	Duration   float64      `json:"duration"`
	Error      string       `json:"error,omitempty"`
	Failures   [][]JSONFact `json:"failures,omitempty"`
}

// JSONFact is one fact of a failure. Value is omitted for simple facts.
type JSONFact struct {
	Key   string  `json:"key"`
	Value *string `json:"value,omitempty"`
}

// JSONFormatter formats run results as JSON
type JSONFormatter struct {
	writer io.Writer
	runs   []JSONRun
	cases  []JSONCase
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
		runs:   make([]JSONRun, 0),
		cases:  make([]JSONCase, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	f.runs = append(f.runs, JSONRun{
		ID:       result.ID.String(),
		File:     result.File,
		Duration: milliseconds(result.Duration),
		Latency: JSONLatency{
			Count: result.Latency.Count,
			P50:   milliseconds(result.Latency.P50),
			P95:   milliseconds(result.Latency.P95),
			P99:   milliseconds(result.Latency.P99),
			Max:   milliseconds(result.Latency.Max),
		},
	})

	for _, r := range result.Results {
		c := JSONCase{
			Name:     r.Name,
			File:     result.File,
			Line:     r.Line,
			Tags:     r.Tags,
			Passed:   r.Passed,
			Skipped:  r.Skipped,
			Duration: milliseconds(r.Duration),
		}
		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			c.SkipReason = r.SkipReason
		}
		if r.Error != nil {
			c.Error = r.Error.Error()
		}
		for _, fl := range r.Failures {
			c.Failures = append(c.Failures, jsonFacts(fl))
		}
		f.cases = append(f.cases, c)
	}
}

func jsonFacts(fl *failure.Failure) []JSONFact {
	facts := make([]JSONFact, len(fl.Facts))
	for i, ft := range fl.Facts {
		facts[i] = JSONFact{Key: ft.Key}
		if ft.HasValue {
			v := ft.Value
			facts[i].Value = &v
		}
	}
	return facts
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual case results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	summary := JSONSummary{Total: len(f.cases)}
	for _, c := range f.cases {
		switch {
		case c.Skipped:
			summary.Skipped++
		case c.Error != "":
			summary.Errored++
		case c.Passed:
			summary.Passed++
		default:
			summary.Failed++
		}
	}

	output := JSONOutput{
		Summary:  summary,
		Runs:     f.runs,
		Cases:    f.cases,
		Duration: milliseconds(totalDuration),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
