// Package runner evaluates the cases of factcheck files.
//
// Each case gets its own failure.Collector and truth.Checker, so every
// expectation of a case is evaluated and reported even after one fails.
// Invalid assertion arguments (truth.ErrInvalidUsage) stop the case and
// are reported as its Error rather than as a failure.
//
// Cases run in file order, or concurrently with Config.Parallel. Per-case
// durations are summarized in RunResult.Latency.
package runner
