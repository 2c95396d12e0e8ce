package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/factcheck/packages/core/runner"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+result.File))

	for _, r := range result.Results {
		if r.Skipped {
			if r.SkipReason == "filtered out" && !f.verbose {
				continue
			}
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Name)
			if r.SkipReason != "" && r.SkipReason != "filtered out" {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
			continue
		}

		if r.Error != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), r.Name, red(fmt.Sprintf("(%v)", r.Error)))
		} else if r.Passed {
			fmt.Fprintf(f.writer, "  %s %s %s\n", green("✓"), r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
		} else {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("✗"), r.Name, cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))
		}

		for _, failure := range r.Failures {
			fmt.Fprintf(f.writer, "    %s\n", red("→"))
			fmt.Fprintf(f.writer, "%s\n", indentLines(failure.Error(), "      "))
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Cases: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Errored > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d errored", result.Errored)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(result.Results))
	fmt.Fprintf(f.writer, "Time:  %dms\n", result.Duration.Milliseconds())
	if f.verbose && result.Latency.Count > 0 {
		fmt.Fprintf(f.writer, "Latency: p50=%s p95=%s p99=%s max=%s\n",
			result.Latency.P50, result.Latency.P95, result.Latency.P99, result.Latency.Max)
	}
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("factcheck"), version)
}

func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
