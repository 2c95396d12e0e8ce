package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/factcheck/packages/core/runner"
	"gopkg.in/yaml.v3"
)

// TAPFormatter formats run results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
}

type tapResult struct {
	number     int
	name       string
	file       string
	line       int
	passed     bool
	skipped    bool
	skipReason string
	error      string
	failures   []string
}

// tapDiagnostic is the YAML block written below a "not ok" line.
type tapDiagnostic struct {
	Message  string   `yaml:"message,omitempty"`
	Severity string   `yaml:"severity"`
	File     string   `yaml:"file,omitempty"`
	Line     int      `yaml:"line,omitempty"`
	Failures []string `yaml:"failures,omitempty"`
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.RunResult) {
	for _, r := range result.Results {
		f.testCount++
		tr := tapResult{
			number:     f.testCount,
			name:       r.Name,
			file:       result.File,
			line:       r.Line,
			passed:     r.Passed,
			skipped:    r.Skipped,
			skipReason: r.SkipReason,
		}
		if r.Error != nil {
			tr.error = r.Error.Error()
		}
		for _, fl := range r.Failures {
			tr.failures = append(tr.failures, fl.Error())
		}
		f.results = append(f.results, tr)
	}
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual case results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		switch {
		case r.skipped:
			reason := r.skipReason
			if reason == "" {
				reason = "skipped"
			}
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP %s\n", r.number, r.name, reason)
		case r.passed:
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
		default:
			fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
			diag := tapDiagnostic{Severity: "fail", File: r.file, Line: r.line, Failures: r.failures}
			if r.error != "" {
				diag.Severity = "error"
				diag.Message = r.error
			}
			if err := f.writeDiagnostic(diag); err != nil {
				return err
			}
		}
	}

	fmt.Fprintf(f.writer, "# time %dms\n", totalDuration.Milliseconds())
	return nil
}

func (f *TAPFormatter) writeDiagnostic(diag tapDiagnostic) error {
	data, err := yaml.Marshal(diag)
	if err != nil {
		return fmt.Errorf("encoding diagnostic: %w", err)
	}
	fmt.Fprintf(f.writer, "  ---\n")
	fmt.Fprintf(f.writer, "%s\n", indentLines(strings.TrimRight(string(data), "\n"), "  "))
	fmt.Fprintf(f.writer, "  ...\n")
	return nil
}
