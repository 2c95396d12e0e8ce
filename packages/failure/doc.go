// Package failure turns fact lists into reported assertion failures.
//
// A Strategy decides what happens when an assertion fails:
//   - Fatal: report through testing.TB and stop the test (t.Fatal)
//   - Panic: panic with the *Failure, for callers outside a test
//   - Expect: record the failure, mark the test failed, keep going, and
//     print every recorded failure when the test finishes
//   - Collector: record failures for later inspection without any test
//
// ExpectFailure runs an assertion against a capturing strategy and returns
// the single failure it produced, which is how the assertion packages test
// their own failure messages.
package failure
