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
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/apiflow/packages/core/config"
	"github.com/abdul-hamid-achik/apiflow/packages/core/env"
	"github.com/abdul-hamid-achik/apiflow/packages/core/parser"
	"github.com/abdul-hamid-achik/apiflow/packages/core/runner"
	"github.com/abdul-hamid-achik/apiflow/packages/output"
)

var runCmd = &cobra.Command{
	Use:   "run <file|directory>...",
	Short: "Run API tests from YAML suite files",
	Long: `Run API tests defined in YAML suite files. Directories are searched
recursively for .yaml and .yml files.

Examples:
  apiflow run tests/users.yaml
  apiflow run ./tests/ -e API_KEY=secret --env-file .env.staging
  apiflow run ./tests/ --grep "create*" --bail
  apiflow run ./tests/ -p --concurrency 4 -o junit --out report.xml
  apiflow run ./tests/ --watch`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	envFlag         []string
	envFileFlag     string
	grepFlag        string
	verboseFlag     bool
	bailFlag        bool
	timeoutFlag     int
	baseURLFlag     string
	outputFlag      string
	outFileFlag     string
	parallelFlag    bool
	concurrencyFlag int
	rateFlag        float64
	watchFlag       bool
	insecureFlag    bool
	notifyOnFlag    string
	slackFlag       string
	teamsFlag       string
	metricsOutFlag  string
)

func init() {
	// Variables
	runCmd.Flags().StringArrayVarP(&envFlag, "env", "e", nil, "Set a variable as KEY=VALUE (repeatable)")
	runCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("APIFLOW_ENV_FILE", ""), "Path to .env file (default from config, .env) (env: APIFLOW_ENV_FILE)")

	// Selection
	runCmd.Flags().StringVarP(&grepFlag, "grep", "g", getEnvString("APIFLOW_GREP", ""), "Run only tests whose name matches the pattern (env: APIFLOW_GREP)")

	// Output flags
	runCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("APIFLOW_VERBOSE", false), "Verbose output (env: APIFLOW_VERBOSE)")
	runCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("APIFLOW_OUTPUT", "console"), "Output format: console, json, junit, tap (env: APIFLOW_OUTPUT)")
	runCmd.Flags().StringVar(&outFileFlag, "out", getEnvString("APIFLOW_OUT", ""), "Write output to file (default: stdout) (env: APIFLOW_OUT)")

	// Execution flags
	runCmd.Flags().BoolVar(&bailFlag, "bail", getEnvBool("APIFLOW_BAIL", false), "Stop a suite at its first failure (env: APIFLOW_BAIL)")
	runCmd.Flags().IntVar(&timeoutFlag, "timeout", getEnvInt("APIFLOW_TIMEOUT", 10000), "Request timeout in milliseconds (env: APIFLOW_TIMEOUT)")
	runCmd.Flags().StringVar(&baseURLFlag, "base-url", getEnvString("APIFLOW_BASE_URL", ""), "Override the baseUrl of every suite (env: APIFLOW_BASE_URL)")
	runCmd.Flags().BoolVarP(&parallelFlag, "parallel", "p", getEnvBool("APIFLOW_PARALLEL", false), "Run suite files in parallel (env: APIFLOW_PARALLEL)")
	runCmd.Flags().IntVar(&concurrencyFlag, "concurrency", getEnvInt("APIFLOW_CONCURRENCY", runner.DefaultConcurrency), "Number of files run at once with --parallel (env: APIFLOW_CONCURRENCY)")
	runCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("APIFLOW_RATE", 0), "Maximum requests per second, 0 for no limit (env: APIFLOW_RATE)")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch files for changes and re-run tests")
	runCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("APIFLOW_INSECURE", false), "Disable SSL certificate validation (env: APIFLOW_INSECURE)")

	// Reporting
	runCmd.Flags().StringVar(&notifyOnFlag, "notify-on", getEnvString("APIFLOW_NOTIFY_ON", "failure"), "When to notify: always, failure, success, recovery (env: APIFLOW_NOTIFY_ON)")
	runCmd.Flags().StringVar(&slackFlag, "slack-webhook", getEnvString("APIFLOW_SLACK_WEBHOOK", ""), "Post run summaries to a Slack webhook (env: APIFLOW_SLACK_WEBHOOK)")
	runCmd.Flags().StringVar(&teamsFlag, "teams-webhook", getEnvString("APIFLOW_TEAMS_WEBHOOK", ""), "Post run summaries to a Microsoft Teams webhook (env: APIFLOW_TEAMS_WEBHOOK)")
	runCmd.Flags().StringVar(&metricsOutFlag, "metrics-out", getEnvString("APIFLOW_METRICS_OUT", ""), "Write run metrics to a file, JSON for .json and Prometheus text otherwise (env: APIFLOW_METRICS_OUT)")
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

// flagSet reports whether a flag was given on the command line or through
// its environment variable. Only those override the project config.
func flagSet(cmd *cobra.Command, name, envKey string) bool {
	if cmd.Flags().Changed(name) {
		return true
	}
	return envKey != "" && os.Getenv(envKey) != ""
}

// cliConfig collects the run flags that were set explicitly, so that
// merging it over the project config gives command line precedence.
func cliConfig(cmd *cobra.Command) *config.Config {
	c := &config.Config{}
	if flagSet(cmd, "env-file", "APIFLOW_ENV_FILE") {
		c.DefaultEnv = envFileFlag
	}
	if flagSet(cmd, "output", "APIFLOW_OUTPUT") {
		c.Output = outputFlag
	}
	if flagSet(cmd, "base-url", "APIFLOW_BASE_URL") {
		c.BaseURL = baseURLFlag
	}
	if flagSet(cmd, "timeout", "APIFLOW_TIMEOUT") {
		c.Timeout = timeoutFlag
	}
	if flagSet(cmd, "concurrency", "APIFLOW_CONCURRENCY") {
		c.Concurrency = concurrencyFlag
	}
	if flagSet(cmd, "rate", "APIFLOW_RATE") {
		c.Rate = rateFlag
	}
	if flagSet(cmd, "parallel", "APIFLOW_PARALLEL") {
		c.Parallel = config.BoolPtr(parallelFlag)
	}
	if flagSet(cmd, "watch", "") {
		c.Watch = config.BoolPtr(watchFlag)
	}
	if flagSet(cmd, "bail", "APIFLOW_BAIL") {
		c.Bail = config.BoolPtr(bailFlag)
	}
	if flagSet(cmd, "verbose", "APIFLOW_VERBOSE") {
		c.Verbose = config.BoolPtr(verboseFlag)
	}
	if flagSet(cmd, "insecure", "APIFLOW_INSECURE") && insecureFlag {
		c.ValidateSSL = config.BoolPtr(false)
	}
	if flagSet(cmd, "notify-on", "APIFLOW_NOTIFY_ON") {
		c.Notify.When = notifyOnFlag
	}
	if flagSet(cmd, "slack-webhook", "APIFLOW_SLACK_WEBHOOK") {
		c.Notify.Slack = slackFlag
	}
	if flagSet(cmd, "teams-webhook", "APIFLOW_TEAMS_WEBHOOK") {
		c.Notify.Teams = teamsFlag
	}
	if flagSet(cmd, "metrics-out", "APIFLOW_METRICS_OUT") {
		c.Metrics.File = metricsOutFlag
	}
	return c
}

// loadVariables builds the command line and dotenv variable layers. The
// env file is required only when named explicitly.
func loadVariables(cmd *cobra.Command, cfg *config.Config) (cli, dotenv map[string]string, err error) {
	cli, err = env.ParseOverrides(envFlag)
	if err != nil {
		return nil, nil, withExitCode(ExitUsageError, err)
	}

	required := flagSet(cmd, "env-file", "APIFLOW_ENV_FILE")
	dotenv, err = env.LoadDotenvLayer(cfg.DefaultEnv, required)
	if err != nil {
		return nil, nil, withExitCode(ExitConfigError, err)
	}
	return cli, dotenv, nil
}

func runCommand(cmd *cobra.Command, args []string) error {
	cfg := projectConfig.Merge(cliConfig(cmd))
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	files, err := collectFiles(args)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}
	if len(files) == 0 {
		return withExitCode(ExitUsageError, fmt.Errorf("no .yaml or .yml files found"))
	}

	cliVars, dotenvVars, err := loadVariables(cmd, cfg)
	if err != nil {
		return err
	}

	// Setup output writer
	var outWriter io.Writer = cmd.OutOrStdout()
	if outFileFlag != "" {
		f, err := os.Create(outFileFlag)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("cannot create output file: %w", err))
		}
		defer f.Close()
		outWriter = f
	}
	if cfg.Output != "console" || outFileFlag != "" {
		// reports get plain failure messages
		color.NoColor = true
	}

	newFormatter := func() (output.Formatter, error) {
		return output.New(cfg.Output, output.Options{
			Writer:  outWriter,
			Verbose: cfg.GetVerbose(),
			NoColor: cfg.GetNoColor(),
		})
	}
	if _, err := newFormatter(); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	r := runner.NewRunner(&runner.Config{
		Timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
		BaseURL:     cfg.BaseURL,
		NameFilter:  grepFlag,
		Bail:        cfg.GetBail(),
		Parallel:    cfg.GetParallel(),
		Concurrency: cfg.Concurrency,
		RateLimit:   cfg.Rate,
		Headers:     cfg.Headers,
		NoRedirect:  !cfg.GetFollowRedirects(),
		Insecure:    !cfg.GetValidateSSL(),
		CLIVars:     cliVars,
		DotenvVars:  dotenvVars,
	}, runner.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting run",
		zap.Int("files", len(files)),
		zap.Bool("parallel", cfg.GetParallel()),
		zap.Int("timeoutMs", cfg.Timeout))

	pub := newPublisher(cfg)

	// runTests runs every file once and returns the exit code for the run
	runTests := func() int {
		formatter, _ := newFormatter()
		formatter.FormatHeader(version)

		start := time.Now()
		results := r.RunFiles(ctx, files)
		end := time.Now()
		for _, res := range results {
			formatter.FormatResult(res)
		}
		if flushable, ok := formatter.(output.Flushable); ok {
			if err := flushable.Flush(end.Sub(start)); err != nil {
				formatter.FormatError(fmt.Errorf("error writing output: %w", err))
			}
		}
		pub.publish(ctx, results, start, end)
		return runExitCode(results)
	}

	code := runTests()

	if !cfg.GetWatch() {
		if code != ExitSuccess {
			return silentExit(code)
		}
		return nil
	}

	return watch(ctx, cmd, args, files, runTests)
}

// runExitCode is ExitParseError when any file failed to load, otherwise
// ExitTestFailure when any test failed or errored.
func runExitCode(results []*runner.RunResult) int {
	code := ExitSuccess
	for _, res := range results {
		if res.Err != nil && isLoadError(res.Err) {
			return ExitParseError
		}
		if !res.Success() {
			code = ExitTestFailure
		}
	}
	return code
}

func isLoadError(err error) bool {
	var (
		parseErr      *parser.ParseError
		validationErr *parser.ValidationError
	)
	return errors.As(err, &parseErr) || errors.As(err, &validationErr) || errors.Is(err, os.ErrNotExist)
}

func watch(ctx context.Context, cmd *cobra.Command, args, files []string, runTests func() int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Add files and directories to watch
	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			}
			watchedDirs[dir] = true
		}
	}

	// Also watch the original args if they're directories
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

	rerun := make(chan string, 1)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
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

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case rerun <- name:
				default:
				}
			})

		case name := <-rerun:
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nRe-running tests...\n\n", name)
			runTests()
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(err))
		}
	}
}
