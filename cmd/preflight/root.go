package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arunakulat/DutchBay-EPC-Model/internal/config"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/inputs"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/telemetry"
)

// Exit codes. exitMissingInput is reserved for the user-correctable
// missing-archive condition so wrappers can tell it from internal failures.
const (
	exitFailure      = 1
	exitMissingInput = 2
)

var (
	cfgFile  string
	logLevel string

	// cfg is populated by PersistentPreRunE and shared with all subcommands.
	cfg *config.Config

	// app holds all wired dependencies; populated by PersistentPreRunE.
	app *AppContext
)

var rootCmd = &cobra.Command{
	Use:   "preflight",
	Short: "dutchbay preflight — pre-flight bootstrap for the validation pipeline",
	Long: `preflight prepares the local execution environment before the dutchbay
build/validation pipeline runs. It normalizes the reserved sandbox path,
detects CI vs. workstation execution, acquires an isolated dependency
sandbox on workstations, prepares the run output directory, and validates
the optional input archive.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		initLogger(logLevel)

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// --log-level flag takes precedence over value in config file.
		if cmd.Flags().Changed("log-level") {
			cfg.Telemetry.LogLevel = logLevel
		} else if cfg.Telemetry.LogLevel != "" {
			// Re-init logger with config file value if the flag was not explicitly set.
			initLogger(cfg.Telemetry.LogLevel)
		}

		app, err = buildAppContext(cfg)
		if err != nil {
			return fmt.Errorf("building app context: %w", err)
		}

		return nil
	}

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(doctorCmd)
}

// Execute is the entry point called by main. Failures print a single
// clearly marked line on stderr; a missing input archive exits with its
// reserved code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "[x] %v\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps a fatal error to the process exit code. The missing
// input archive keeps its reserved code through any amount of wrapping.
func exitCodeFor(err error) int {
	if errors.Is(err, inputs.ErrArchiveMissing) {
		return exitMissingInput
	}
	return exitFailure
}

// initLogger configures slog. Diagnostic logs go to stderr so stdout stays
// reserved for the step notices and JSON output.
func initLogger(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(telemetry.NewTraceHandler(handler)))
}
