package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/factcheck/packages/core/spec"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate factcheck files without running them",
	Long: `Validate factcheck files without running them. Every case is checked
for a single actual value, known operators that apply to it, and arguments
of the right type.

Examples:
  factcheck validate users.factcheck.yaml
  factcheck validate ./cases/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return exitError(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitError(ExitUsageError, errNoFiles)
	}

	invalid := 0
	for _, file := range files {
		f, err := validateFile(file)
		if err != nil {
			invalid++
			var verr *spec.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintf(cmd.ErrOrStderr(), "Invalid: %s\n", file)
				for _, issue := range verr.Issues {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", issue)
				}
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error in %s: %v\n", file, err)
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d cases)\n", file, len(f.Cases))
	}

	if invalid > 0 {
		return exitError(ExitParseError, fmt.Errorf("%d of %d files are invalid", invalid, len(files)))
	}
	return nil
}

func validateFile(path string) (*spec.File, error) {
	f, err := spec.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}
