package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/arunakulat/DutchBay-EPC-Model/internal/orchestrator"
)

var (
	jsonOut     bool
	strictMode  bool
	relaxedMode bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the one-shot pre-flight bootstrap and exit",
	Long: `Run executes the preflight steps in order: anomaly normalization,
environment detection, sandbox acquisition (skipped on CI runners), run
output directory preparation, and input archive validation.

Progress notices are printed per step; the command exits 0 on success,
2 when the configured input archive is missing, and 1 on any other
fatal error.`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&jsonOut, "json", false, "also print the aggregate result as JSON")
	runCmd.Flags().BoolVar(&strictMode, "strict", false, "export VALIDATION_MODE=strict for downstream steps")
	runCmd.Flags().BoolVar(&relaxedMode, "relaxed", false, "export VALIDATION_MODE=relaxed for downstream steps")
	runCmd.MarkFlagsMutuallyExclusive("strict", "relaxed")
}

func runRun(cmd *cobra.Command, args []string) error {
	if app.otelProvider != nil {
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := app.otelProvider.Shutdown(shutCtx); err != nil {
				slog.Warn("OTEL shutdown error", "err", err)
			}
		}()
	}

	exportValidationMode()

	result, err := app.orchestrator.Run(cmd.Context())
	if jsonOut && result != nil {
		printResult(result)
	}
	if err != nil {
		return fmt.Errorf("preflight failed: %w", err)
	}
	return nil
}

// exportValidationMode records the strict/relaxed handshake for the
// downstream steps launched from this process. With neither flag set the
// ambient VALIDATION_MODE is respected.
func exportValidationMode() {
	switch {
	case strictMode:
		os.Setenv("VALIDATION_MODE", "strict") //nolint:errcheck
	case relaxedMode:
		os.Setenv("VALIDATION_MODE", "relaxed") //nolint:errcheck
	}
}

func printResult(result *orchestrator.Result) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		// Fallback to plain text if JSON encoding somehow fails.
		fmt.Fprintf(os.Stdout, `{"status":%q}`+"\n", result.Status)
	}
}
