package cmd

import "fmt"

// Exit codes for factcheck CLI
const (
	// ExitSuccess indicates all cases passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more cases failed or errored
	ExitTestFailure = 1

	// ExitParseError indicates a case file could not be parsed or is invalid
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitError carries the process exit code out of a command. Err is printed
// unless it is nil.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitError(code int, err error) error {
	return &ExitError{Code: code, Err: err}
}
