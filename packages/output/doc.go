// Package output provides formatters for displaying run results.
//
// Supported output formats:
//   - Console: colored terminal output, one block of facts per failure
//   - JSON: machine-readable output with every fact as a key/value pair
//   - JUnit: JUnit XML for CI integration
//   - TAP: Test Anything Protocol version 13
//
// Console writes each result as it arrives. The other formats accumulate
// results and write them on Flush.
package output
