package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/apiflow/packages/core/config"
	"github.com/abdul-hamid-achik/apiflow/packages/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	noColorFlag   bool
	logLevelFlag  string
	logFormatFlag string
	logFileFlag   string

	// set up by the root pre-run hook
	projectConfig *config.Config
	logger        = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "apiflow",
	Short: "YAML-driven API tests",
	Long: `apiflow runs API tests described in YAML files. Each file holds a
suite of HTTP requests and the responses they should produce; values
captured from one response can be used by later requests.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || !ee.silent {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("APIFLOW_CONFIG", ""), "Path to config file (env: APIFLOW_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("APIFLOW_NO_COLOR", false), "Disable colored output (env: APIFLOW_NO_COLOR)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", getEnvString("APIFLOW_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: APIFLOW_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", getEnvString("APIFLOW_LOG_FORMAT", ""), "Log format: console, json (env: APIFLOW_LOG_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", getEnvString("APIFLOW_LOG_FILE", ""), "Also write logs to this file (env: APIFLOW_LOG_FILE)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
}

// setup loads the project config and builds the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	cfg = cfg.Merge(&config.Config{
		Log: config.LogConfig{
			Level:  logLevelFlag,
			Format: logFormatFlag,
			File:   logFileFlag,
		},
	})
	if noColorFlag {
		cfg.NoColor = config.BoolPtr(true)
	}
	if err := cfg.Validate(); err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("config: %w", err))
	}
	if cfg.GetNoColor() {
		color.NoColor = true
	}

	l, err := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		NoColor: color.NoColor,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	projectConfig = cfg
	logger = l
	return nil
}
