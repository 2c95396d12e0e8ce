package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/factcheck/packages/core/config"
	"github.com/abdul-hamid-achik/factcheck/packages/core/env"
	"github.com/abdul-hamid-achik/factcheck/packages/core/runner"
	"github.com/abdul-hamid-achik/factcheck/packages/core/spec"
	"github.com/abdul-hamid-achik/factcheck/packages/history"
	"github.com/abdul-hamid-achik/factcheck/packages/logging"
	"github.com/abdul-hamid-achik/factcheck/packages/output"
	"github.com/abdul-hamid-achik/factcheck/packages/regex"
	"github.com/abdul-hamid-achik/factcheck/packages/snapshot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run assertion cases from factcheck files",
	Long: `Run the cases defined in .factcheck.yaml files.

Examples:
  factcheck run users.factcheck.yaml
  factcheck run ./cases/ --tags smoke
  factcheck run ./cases/ --name "login*" --bail
  factcheck run ./cases/ --output junit --output-file report.xml
  factcheck run ./cases/ --var user=kurt --env-file .env
  factcheck run ./cases/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

// VariablePrefix marks process environment variables that become case
// variables, e.g. FACTCHECK_VAR_user=kurt sets {{user}}.
const VariablePrefix = "FACTCHECK_VAR_"

var (
	configFlag          string
	envFileFlag         string
	nameFlag            string
	tagsFlag            string
	varFlags            []string
	verboseFlag         int // 0=off, 1=-v, 2=-vv
	logLevelFlag        string
	noColorFlag         bool
	outputFlag          string
	outputFileFlag      string
	bailFlag            bool
	parallelFlag        bool
	concurrencyFlag     int
	matcherFlag         string
	updateSnapshotsFlag bool
	historyFlag         bool
	historyPathFlag     string
	watchFlag           bool
)

func init() {
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("FACTCHECK_CONFIG", ""), "Path to config file (env: FACTCHECK_CONFIG)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("FACTCHECK_ENV_FILE", ""), "Path to .env file for {{$NAME}} placeholders (env: FACTCHECK_ENV_FILE)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only cases matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("FACTCHECK_TAGS", ""), "Run only cases with specified tags (comma-separated) (env: FACTCHECK_TAGS)")
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable as NAME=value (repeatable)")

	// Output flags
	runCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v, -vv for more detail)")
	runCmd.Flags().StringVar(&logLevelFlag, "log-level", getEnvString("FACTCHECK_LOG_LEVEL", ""), "Log level, overrides -v (env: FACTCHECK_LOG_LEVEL)")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("FACTCHECK_NO_COLOR", false), "Disable colored output (env: FACTCHECK_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("FACTCHECK_OUTPUT", "console"), "Output format: console, json, junit, tap (env: FACTCHECK_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("FACTCHECK_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: FACTCHECK_OUTPUT_FILE)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("FACTCHECK_BAIL", false), "Stop on first failure (env: FACTCHECK_BAIL)")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("FACTCHECK_PARALLEL", false), "Run the cases of a file in parallel (env: FACTCHECK_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("FACTCHECK_CONCURRENCY", runner.DefaultConcurrency), "Number of concurrent cases when running in parallel (env: FACTCHECK_CONCURRENCY)")
	runCmd.Flags().StringVar(&matcherFlag, "matcher", getEnvString("FACTCHECK_MATCHER", "regexp"), "Pattern matcher: regexp or glob (env: FACTCHECK_MATCHER)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run cases")

	// Snapshot and history flags
	runCmd.Flags().BoolVar(&updateSnapshotsFlag, "update-snapshots", getEnvBool("FACTCHECK_UPDATE_SNAPSHOTS", false), "Write snapshot files instead of comparing (env: FACTCHECK_UPDATE_SNAPSHOTS)")
	runCmd.Flags().BoolVar(&historyFlag, "history", getEnvBool("FACTCHECK_HISTORY", false), "Record each run in the history database (env: FACTCHECK_HISTORY)")
	runCmd.Flags().StringVar(&historyPathFlag, "history-path", getEnvString("FACTCHECK_HISTORY_PATH", history.DefaultPath), "History database path (env: FACTCHECK_HISTORY_PATH)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	FormatResult(result *runner.RunResult)
	FormatError(err error)
	FormatHeader(version string)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return exitError(ExitConfigError, err)
	}

	log, err := newLogger(cfg)
	if err != nil {
		return exitError(ExitUsageError, err)
	}
	defer func() { _ = log.Sync() }()

	files, err := collectFiles(args)
	if err != nil {
		return exitError(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitError(ExitUsageError, errNoFiles)
	}

	runnerCfg, err := buildRunnerConfig(cfg, log)
	if err != nil {
		return exitError(ExitConfigError, err)
	}
	r := runner.NewRunner(runnerCfg)
	defer r.Close()

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *history.Store
	if cfg.GetHistory() {
		store, err = history.Open(ctx, cfg.HistoryPath)
		if err != nil {
			return exitError(ExitConfigError, err)
		}
		defer store.Close()
	}

	s := &session{
		runner:     r,
		store:      store,
		log:        log,
		bail:       cfg.GetBail(),
		stdout:     cmd.OutOrStdout(),
		outputFile: cfg.OutputFile,
		formatter:  func(w io.Writer) Formatter { return newFormatter(cfg, w) },
	}

	summary, err := s.run(ctx, files)
	if errors.Is(err, errOutputFile) {
		return exitError(ExitConfigError, err)
	}
	if err != nil {
		return exitError(ExitTestFailure, fmt.Errorf("error writing output: %w", err))
	}

	if !watchFlag {
		return summary.exitErr()
	}
	return s.watch(ctx, cmd.ErrOrStderr(), args, cfg.EnvFile)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadRunConfig merges the config file with the flags that were set
// explicitly, on the command line or through their environment variable.
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	flags := &config.Config{}
	set := func(name, envKey string) bool {
		return cmd.Flags().Changed(name) || (envKey != "" && os.Getenv(envKey) != "")
	}
	if set("output", "FACTCHECK_OUTPUT") {
		flags.Output = strings.ToLower(outputFlag)
	}
	if set("output-file", "FACTCHECK_OUTPUT_FILE") {
		flags.OutputFile = outputFileFlag
	}
	if set("matcher", "FACTCHECK_MATCHER") {
		flags.Matcher = strings.ToLower(matcherFlag)
	}
	if set("concurrency", "FACTCHECK_CONCURRENCY") {
		flags.Concurrency = concurrencyFlag
	}
	if set("env-file", "FACTCHECK_ENV_FILE") {
		flags.EnvFile = envFileFlag
	}
	if set("history-path", "FACTCHECK_HISTORY_PATH") {
		flags.HistoryPath = historyPathFlag
	}
	if set("bail", "FACTCHECK_BAIL") {
		flags.Bail = config.BoolPtr(bailFlag)
	}
	if set("parallel", "FACTCHECK_PARALLEL") {
		flags.Parallel = config.BoolPtr(parallelFlag)
	}
	if set("no-color", "FACTCHECK_NO_COLOR") {
		flags.NoColor = config.BoolPtr(noColorFlag)
	}
	if set("update-snapshots", "FACTCHECK_UPDATE_SNAPSHOTS") {
		flags.UpdateSnapshots = config.BoolPtr(updateSnapshotsFlag)
	}
	if set("history", "FACTCHECK_HISTORY") {
		flags.History = config.BoolPtr(historyFlag)
	}
	if verboseFlag > 0 {
		flags.Verbose = config.BoolPtr(true)
	}
	flags.Tags = splitList(tagsFlag)

	vars, err := env.ParseAssignments(varFlags)
	if err != nil {
		return nil, err
	}
	flags.Variables = env.MergeVariables(env.LoadSystemEnv(VariablePrefix), vars)

	merged := fileConfig.Merge(flags)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if logLevelFlag != "" {
		level, err := logging.ParseLevel(logLevelFlag)
		if err != nil {
			return nil, err
		}
		return logging.NewAtLevel(os.Stderr, level, cfg.GetNoColor()), nil
	}
	verbosity := verboseFlag
	if verbosity == 0 && cfg.GetVerbose() {
		verbosity = 1
	}
	return logging.New(verbosity, cfg.GetNoColor()), nil
}

func buildRunnerConfig(cfg *config.Config, log *zap.Logger) (*runner.Config, error) {
	matcher, err := regex.ByName(cfg.Matcher)
	if err != nil {
		return nil, err
	}

	var dotenv map[string]string
	if cfg.EnvFile != "" {
		dotenv, err = env.LoadDotEnv(cfg.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("loading env file: %w", err)
		}
	}

	return &runner.Config{
		NameFilter:  nameFlag,
		TagsFilter:  cfg.Tags,
		Bail:        cfg.GetBail(),
		Parallel:    cfg.GetParallel(),
		Concurrency: cfg.Concurrency,
		Matcher:     matcher,
		Snapshots:   snapshot.NewManager(cfg.GetUpdateSnapshots()),
		Variables:   cfg.Variables,
		DotEnv:      dotenv,
		Logger:      log,
	}, nil
}

func newFormatter(cfg *config.Config, w io.Writer) Formatter {
	switch cfg.Output {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w))
	case "junit":
		return output.NewJUnitFormatter(output.JUnitWithWriter(w))
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w))
	default:
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
		)
	}
}

// session runs the collected files once, or again on every change in
// watch mode.
type session struct {
	runner *runner.Runner
	store  *history.Store
	log    *zap.Logger
	bail   bool
	stdout io.Writer
	// outputFile is recreated by every run, so in watch mode it holds the
	// report of the latest run only.
	outputFile string
	formatter  func(w io.Writer) Formatter
}

// errOutputFile is wrapped by the error returned when the report file
// cannot be created.
var errOutputFile = errors.New("cannot create output file")

type runSummary struct {
	passed, failed, errored, skipped int
	invalidFiles                     int
	duration                         time.Duration
}

func (s runSummary) exitErr() error {
	switch {
	case s.invalidFiles > 0:
		return exitError(ExitParseError, nil)
	case s.failed > 0 || s.errored > 0:
		return exitError(ExitTestFailure, nil)
	}
	return nil
}

func (s *session) run(ctx context.Context, files []string) (summary runSummary, err error) {
	w := s.stdout
	if s.outputFile != "" {
		f, createErr := os.Create(s.outputFile)
		if createErr != nil {
			return summary, fmt.Errorf("%w: %w", errOutputFile, createErr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	formatter := s.formatter(w)
	formatter.FormatHeader(version)

	start := time.Now()
	for _, file := range files {
		result, err := s.runner.RunFile(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			formatter.FormatError(fmt.Errorf("%s: %w", file, err))
			summary.invalidFiles++
			if s.bail {
				break
			}
			continue
		}

		formatter.FormatResult(result)
		summary.passed += result.Passed
		summary.failed += result.Failed
		summary.errored += result.Errored
		summary.skipped += result.Skipped
		s.record(ctx, result)

		if s.bail && !result.OK() {
			break
		}
	}
	summary.duration = time.Since(start)

	if flushable, ok := formatter.(Flushable); ok {
		if err := flushable.Flush(summary.duration); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

func (s *session) record(ctx context.Context, result *runner.RunResult) {
	if s.store == nil {
		return
	}
	err := s.store.Record(ctx, &history.Run{
		ID:        result.ID,
		File:      result.File,
		StartedAt: result.StartedAt,
		Passed:    result.Passed,
		Failed:    result.Failed,
		Skipped:   result.Skipped,
		Errored:   result.Errored,
		Duration:  result.Duration,
		P50:       result.Latency.P50,
		P99:       result.Latency.P99,
	})
	if err != nil {
		s.log.Warn("failed to record run", zap.String("file", result.File), zap.Error(err))
	}
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			err := filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if d.IsDir() && d.Name() == snapshot.Dir {
					return filepath.SkipDir
				}
				if !d.IsDir() && isCaseFile(path) {
					files = append(files, path)
				}
				return nil
			})
			if err != nil {
				return nil, err
			}
		} else if isYAMLFile(arg) {
			files = append(files, arg)
		}
	}

	return files, nil
}

// isCaseFile reports whether a file found in a directory holds cases.
func isCaseFile(path string) bool {
	return strings.HasSuffix(path, spec.FileSuffix) || strings.HasSuffix(path, ".factcheck.yml")
}

// isYAMLFile reports whether a file named on the command line can hold cases.
func isYAMLFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".yaml" || ext == ".yml"
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// errNoFiles is returned by validate and list when no case file is found.
var errNoFiles = errors.New("no .factcheck.yaml files found")
