// Package truth provides fluent, fact-based assertions for Go tests.
//
// A Checker hands out subjects. A subject wraps the value under test and
// exposes predicates that either pass silently or report a failure made of
// ordered facts through the Checker's failure.Strategy:
//
//	ck := truth.Assert(t)                 // stop the test on failure
//	ck.String("kurt").HasLength(4)
//	ck.String(body).Contains("success")
//
//	ex := truth.Expect(t)                 // keep going, report at the end
//	truth.Ints(ex, got).ContainsExactly(1, 2, 3).InOrder()
//
// A failing HasLength(5) on "kurt" reads:
//
//	value of  : string.length()
//	expected  : 5
//	but was   : 4
//	string was: kurt
//
// Subjects are immutable and never modify the value under test. Invalid
// calls, such as a negative expected length, are bugs in the test rather than
// mismatches, so they panic with a *UsageError instead of going through the
// strategy.
package truth
