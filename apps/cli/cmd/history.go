package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/abdul-hamid-achik/factcheck/packages/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	historyLimitFlag   int
	historyDBFlag      string
	historyNoColorFlag bool
)

var historyCmd = &cobra.Command{
	Use:   "history [file]",
	Short: "Show recorded runs",
	Long: `Show the runs recorded with 'factcheck run --history', newest first.

Examples:
  factcheck history
  factcheck history cases/users.factcheck.yaml --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Maximum number of runs to show")
	historyCmd.Flags().StringVar(&historyDBFlag, "history-path", getEnvString("FACTCHECK_HISTORY_PATH", history.DefaultPath), "History database path (env: FACTCHECK_HISTORY_PATH)")
	historyCmd.Flags().BoolVar(&historyNoColorFlag, "no-color", getEnvBool("FACTCHECK_NO_COLOR", false), "Disable colored output (env: FACTCHECK_NO_COLOR)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if historyLimitFlag <= 0 {
		return exitError(ExitUsageError, fmt.Errorf("--limit must be positive"))
	}
	if _, err := os.Stat(historyDBFlag); err != nil {
		return exitError(ExitConfigError, fmt.Errorf("no history at %s (record runs with 'factcheck run --history')", historyDBFlag))
	}
	if historyNoColorFlag {
		color.NoColor = true
	}

	ctx := commandContext(cmd)
	store, err := history.Open(ctx, historyDBFlag)
	if err != nil {
		return exitError(ExitConfigError, err)
	}
	defer store.Close()

	var file string
	if len(args) == 1 {
		file = args[0]
	}
	runs, err := store.Recent(ctx, file, historyLimitFlag)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}

	printRuns(cmd, runs)
	return nil
}

func printRuns(cmd *cobra.Command, runs []*history.Run) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "%-8s  %-19s  %-6s  %6s  %6s  %7s  %7s  %9s  %9s  %s\n",
		"RUN", "STARTED", "STATUS", "PASSED", "FAILED", "ERRORED", "SKIPPED", "P50", "P99", "FILE")
	for _, r := range runs {
		// Pad before coloring so escape codes do not break the columns.
		status := green(fmt.Sprintf("%-6s", "ok"))
		if r.Failed > 0 || r.Errored > 0 {
			status = red(fmt.Sprintf("%-6s", "fail"))
		}
		fmt.Fprintf(out, "%-8s  %-19s  %s  %6d  %6d  %7d  %7d  %9s  %9s  %s\n",
			r.ID.String()[:8],
			r.StartedAt.Local().Format(time.DateTime),
			status,
			r.Passed, r.Failed, r.Errored, r.Skipped,
			r.P50, r.P99,
			r.File,
		)
	}
}
