package cmd

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/factcheck/packages/core/spec"
	"github.com/spf13/cobra"
)

var listOperatorsFlag bool

var listCmd = &cobra.Command{
	Use:   "list <file|directory>...",
	Short: "List the cases in factcheck files",
	Long: `List the cases defined in .factcheck.yaml files, or with --operators
every expectation operator and the values it applies to.

Examples:
  factcheck list users.factcheck.yaml
  factcheck list ./cases/
  factcheck list --operators`,
	RunE: listCommand,
}

func init() {
	listCmd.Flags().BoolVar(&listOperatorsFlag, "operators", false, "List expectation operators instead of cases")
}

func listCommand(cmd *cobra.Command, args []string) error {
	if listOperatorsFlag {
		listOperators(cmd)
		return nil
	}
	if len(args) == 0 {
		return exitError(ExitUsageError, fmt.Errorf("requires at least 1 file or directory, or --operators"))
	}

	files, err := collectFiles(args)
	if err != nil {
		return exitError(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitError(ExitUsageError, errNoFiles)
	}

	out := cmd.OutOrStdout()
	for _, file := range files {
		f, err := spec.ParseFile(file)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error parsing %s: %v\n", file, err)
			continue
		}

		fmt.Fprintf(out, "\n%s:\n", file)
		for _, c := range f.Cases {
			fmt.Fprintf(out, "  - %s (line %d, %s, %d expectations)\n", c.Name, c.Line, c.Actual.Source, len(c.Expect))
			if len(c.Tags) > 0 {
				fmt.Fprintf(out, "    tags: %s\n", strings.Join(c.Tags, ", "))
			}
			if c.Skip {
				fmt.Fprintf(out, "    skipped: %s\n", c.SkipReason)
			}
		}
	}
	return nil
}

func listOperators(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	for _, op := range spec.Operators() {
		sources := make([]string, len(op.Sources))
		for i, s := range op.Sources {
			sources[i] = string(s)
		}
		fmt.Fprintf(out, "%-22s %s\n", op.Name, op.Doc)
		fmt.Fprintf(out, "%-22s takes %s; applies to %s", "", op.Arg, strings.Join(sources, ", "))
		if op.InOrder {
			fmt.Fprintf(out, "; accepts inOrder")
		}
		fmt.Fprintln(out)
	}
}
