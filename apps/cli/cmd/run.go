package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitassert/packages/core/config"
	"github.com/abdul-hamid-achik/hitassert/packages/core/env"
	"github.com/abdul-hamid-achik/hitassert/packages/core/runner"
	"github.com/abdul-hamid-achik/hitassert/packages/db"
	"github.com/abdul-hamid-achik/hitassert/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>",
	Short: "Run suite files and check every response",
	Long: `Run the requests in one or more suite files and check each response
against its expectations. Directories are searched for *.hit.yaml and
*.hit.yml files.

Examples:
  hitassert run lotto.hit.yaml
  hitassert run lotto.hit.yaml --env staging
  hitassert run ./suites/ --tags smoke
  hitassert run ./suites/ --fail-fast --output junit --output-file report.xml
  hitassert run ./suites/ --wait-for http://localhost:8080/health
  hitassert run ./suites/ --history sqlite:.hitassert/history.db`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

// varEnvPrefix marks process environment variables exposed to suites,
// e.g. HITASSERT_VAR_token becomes {{token}}.
const varEnvPrefix = "HITASSERT_VAR_"

var errNoFiles = errors.New("no suite files found")

var (
	envFlag         string
	envFileFlag     string
	configFlag      string
	baseURLFlag     string
	varFlags        []string
	nameFlag        string
	tagsFlag        string
	verboseFlag     bool
	noColorFlag     bool
	outputFlag      string
	outputFileFlag  string
	bailFlag        bool
	failFastFlag    bool
	timeoutFlag     string
	rateLimitFlag   float64
	parallelFlag    bool
	concurrencyFlag int
	proxyFlag       string
	dryRunFlag      bool
	watchFlag       bool
	historyFlag     string
	waitForFlag     string
	waitStatusFlag  int
	waitTimeoutFlag string
)

func init() {
	runCmd.Flags().StringVarP(&envFlag, "env", "e", getEnvString("HITASSERT_ENV", ""), "Environment to use (env: HITASSERT_ENV)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("HITASSERT_ENV_FILE", ""), "Extra .env file with variables (env: HITASSERT_ENV_FILE)")
	runCmd.Flags().StringVar(&configFlag, "config", getEnvString("HITASSERT_CONFIG", ""), "Path to config file (env: HITASSERT_CONFIG)")
	runCmd.Flags().StringVar(&baseURLFlag, "base-url", getEnvString("HITASSERT_BASE_URL", ""), "Base URL for relative request paths (env: HITASSERT_BASE_URL)")
	runCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable, name=value (repeatable)")
	runCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Run only requests matching name pattern")
	runCmd.Flags().StringVarP(&tagsFlag, "tags", "t", getEnvString("HITASSERT_TAGS", ""), "Run only requests with these tags, comma-separated (env: HITASSERT_TAGS)")

	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show status lines, captures and latency")
	runCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITASSERT_NO_COLOR", false), "Disable colored output (env: HITASSERT_NO_COLOR)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("HITASSERT_OUTPUT", ""), "Output format: console, json, junit, tap, xlsx (env: HITASSERT_OUTPUT)")
	runCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("HITASSERT_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: HITASSERT_OUTPUT_FILE)")

	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("HITASSERT_BAIL", false), "Stop on first failed request (env: HITASSERT_BAIL)")
	runCmd.Flags().BoolVar(&failFastFlag, "fail-fast", getEnvBool("HITASSERT_FAIL_FAST", false), "Stop checking a response at its first mismatch (env: HITASSERT_FAIL_FAST)")
	runCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("HITASSERT_TIMEOUT", ""), "Request timeout, e.g. 30s (env: HITASSERT_TIMEOUT)")
	runCmd.Flags().Float64Var(&rateLimitFlag, "rate-limit", getEnvFloat("HITASSERT_RATE_LIMIT", 0), "Maximum requests per second (env: HITASSERT_RATE_LIMIT)")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("HITASSERT_PARALLEL", false), "Run requests in parallel when no dependencies (env: HITASSERT_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("HITASSERT_CONCURRENCY", 0), "Concurrent requests in parallel mode (env: HITASSERT_CONCURRENCY)")
	runCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("HITASSERT_PROXY", ""), "Proxy URL for HTTP requests (env: HITASSERT_PROXY)")
	runCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and show what would run without executing")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run")

	runCmd.Flags().StringVar(&historyFlag, "history", getEnvString("HITASSERT_HISTORY", ""), "Record runs in a database, e.g. sqlite:history.db (env: HITASSERT_HISTORY)")
	runCmd.Flags().StringVar(&waitForFlag, "wait-for", getEnvString("HITASSERT_WAIT_FOR", ""), "URL to poll before running (env: HITASSERT_WAIT_FOR)")
	runCmd.Flags().IntVar(&waitStatusFlag, "wait-status", 200, "Status the --wait-for URL must return")
	runCmd.Flags().StringVar(&waitTimeoutFlag, "wait-timeout", "30s", "How long to wait for --wait-for")
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

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// flagConfig collects the settings given on the command line or through
// HITASSERT_* variables, to be merged over the config file.
func flagConfig() (*config.Config, error) {
	cfg := &config.Config{
		DefaultEnvironment: envFlag,
		BaseURL:            baseURLFlag,
		RateLimit:          rateLimitFlag,
		Proxy:              proxyFlag,
		Concurrency:        concurrencyFlag,
		History:            historyFlag,
	}
	if outputFlag != "" {
		cfg.Reporters = []string{strings.ToLower(outputFlag)}
	}
	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err)
		}
		cfg.Timeout = int(timeout.Milliseconds())
	}
	if bailFlag {
		cfg.Bail = config.BoolPtr(true)
	}
	if failFastFlag {
		cfg.FailFast = config.BoolPtr(true)
	}
	if parallelFlag {
		cfg.Parallel = config.BoolPtr(true)
	}
	if noColorFlag {
		cfg.NoColor = config.BoolPtr(true)
	}
	return cfg, nil
}

func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid --var %q, want name=value", pair)
		}
		vars[strings.TrimSpace(name)] = value
	}
	return vars, nil
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// runTotals sums the results of every file in one pass.
type runTotals struct {
	passed, failed, errored, skipped int
	fileErrors                       int
	transportOnly                    bool
	duration                         time.Duration
}

func (t runTotals) exitCode() int {
	switch {
	case t.fileErrors > 0:
		return ExitParseError
	case t.failed == 0 && t.errored > 0 && t.transportOnly:
		return ExitNetworkError
	case t.failed > 0 || t.errored > 0:
		return ExitTestFailure
	default:
		return ExitSuccess
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return exitWith(ExitConfigError, err)
	}
	overrides, err := flagConfig()
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	cfg := fileConfig.Merge(overrides)

	cliVars, err := parseVars(varFlags)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	// precedence, lowest first: HITASSERT_VAR_* variables, --env-file, --var
	fileVars := map[string]any{}
	if envFileFlag != "" {
		extra, err := env.LoadDotEnv(envFileFlag)
		if err != nil {
			return exitWith(ExitConfigError, fmt.Errorf("loading %s: %w", envFileFlag, err))
		}
		fileVars = stringVars(extra)
	}
	vars := env.MergeVariables(env.LoadSystemEnv(varEnvPrefix), fileVars, cliVars)

	files, err := collectFiles(args)
	if err != nil {
		return exitWith(ExitUsageError, err)
	}
	if len(files) == 0 {
		return exitWith(ExitUsageError, errNoFiles)
	}

	if dryRunFlag {
		for _, file := range files {
			fmt.Fprintf(cmd.OutOrStdout(), "Would run: %s\n", file)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newRunner := func() *runner.Runner {
		return runner.NewRunner(&runner.Config{
			Environment:    cfg.DefaultEnvironment,
			ConfigEnvs:     cfg.Environments,
			Variables:      vars,
			BaseURL:        cfg.BaseURL,
			Timeout:        cfg.TimeoutDuration(),
			FollowRedirect: cfg.GetFollowRedirects(),
			MaxRedirects:   cfg.MaxRedirects,
			Proxy:          cfg.Proxy,
			DefaultHeaders: cfg.Headers,
			RateLimit:      cfg.RateLimit,
			Bail:           cfg.GetBail(),
			NameFilter:     nameFlag,
			TagsFilter:     splitTags(tagsFlag),
			Parallel:       cfg.GetParallel(),
			Concurrency:    cfg.Concurrency,
			FailFast:       cfg.GetFailFast(),
			Logger:         logger,
		})
	}

	if waitForFlag != "" {
		waitTimeout, err := time.ParseDuration(waitTimeoutFlag)
		if err != nil {
			return exitWith(ExitUsageError, fmt.Errorf("invalid wait timeout %q: %w", waitTimeoutFlag, err))
		}
		if err := newRunner().WaitFor(ctx, waitForFlag, waitStatusFlag, waitTimeout, 500*time.Millisecond); err != nil {
			return exitWith(ExitNetworkError, err)
		}
	}

	var history *db.Client
	if cfg.History != "" {
		if dir := filepath.Dir(strings.TrimPrefix(strings.TrimPrefix(cfg.History, "sqlite://"), "sqlite:")); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return exitWith(ExitConfigError, fmt.Errorf("creating history directory: %w", err))
			}
		}
		history, err = db.Open(cfg.History)
		if err != nil {
			return exitWith(ExitConfigError, err)
		}
		defer history.Close()
	}

	runAll := func() (runTotals, error) {
		formatter, closeOut, err := newFormatter(cmd, cfg)
		if err != nil {
			return runTotals{}, err
		}
		defer closeOut()
		formatter.FormatHeader(version)

		totals := runTotals{transportOnly: true}
		start := time.Now()
		for _, file := range files {
			fileStart := time.Now()
			// a fresh runner per file keeps captures from leaking across suites
			result, err := newRunner().RunFile(ctx, file)
			if err != nil {
				formatter.FormatError(err)
				totals.fileErrors++
				if cfg.GetBail() {
					break
				}
				continue
			}

			formatter.FormatResult(result)
			totals.passed += result.Passed
			totals.failed += result.Failed
			totals.errored += result.Errored
			totals.skipped += result.Skipped
			for _, rr := range result.Results {
				if rr.Error != nil && !rr.IsTransportError() {
					totals.transportOnly = false
				}
			}

			if history != nil {
				if id, err := history.RecordRun(ctx, db.FromResult(result, fileStart)); err != nil {
					logger.WithError(err).Warn("recording run history")
				} else {
					logger.WithField("run", id).Debug("run recorded")
				}
			}

			if cfg.GetBail() && !result.Success() {
				break
			}
		}
		totals.duration = time.Since(start)

		if flushable, ok := formatter.(output.Flushable); ok {
			if err := flushable.Flush(totals.duration); err != nil {
				return totals, fmt.Errorf("error writing output: %w", err)
			}
		}
		return totals, nil
	}

	totals, err := runAll()
	if err != nil {
		return exitWith(ExitUsageError, err)
	}

	if !watchFlag {
		if code := totals.exitCode(); code != ExitSuccess {
			return exitWith(code, nil)
		}
		return nil
	}

	return watch(ctx, cmd, args, files, func() {
		if _, err := runAll(); err != nil {
			logger.WithError(err).Error("re-run failed")
		}
	})
}

func stringVars(in map[string]string) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// newFormatter opens the output file, if any, and builds the formatter.
// The returned func closes the file.
func newFormatter(cmd *cobra.Command, cfg *config.Config) (output.Formatter, func(), error) {
	format := "console"
	if len(cfg.Reporters) > 0 {
		format = cfg.Reporters[0]
	}

	opts := output.Options{
		Writer:  cmd.OutOrStdout(),
		Verbose: verboseFlag,
		NoColor: cfg.GetNoColor(),
		Path:    outputFileFlag,
	}
	closeOut := func() {}

	if outputFileFlag != "" && format != "xlsx" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot create output file: %w", err)
		}
		opts.Writer = f
		closeOut = func() { _ = f.Close() }
	}

	formatter, err := output.New(format, opts)
	if err != nil {
		closeOut()
		return nil, nil, err
	}
	return formatter, closeOut, nil
}

func watch(ctx context.Context, cmd *cobra.Command, args, files []string, rerun func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				logger.WithError(err).WithField("dir", dir).Warn("cannot watch directory")
			}
			watchedDirs[dir] = true
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() && !watchedDirs[path] {
					_ = watcher.Add(path)
					watchedDirs[path] = true
				}
				return nil
			})
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !isSuiteFile(event.Name) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running...\n\n", name)
				rerun()
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.WithError(err).Warn("watcher error")
		}
	}
}

// collectFiles expands directories into the suite files they contain.
// Explicit file arguments are taken as given.
func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isSuiteFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

func isSuiteFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.HasSuffix(base, ".hit.yaml") || strings.HasSuffix(base, ".hit.yml")
}
