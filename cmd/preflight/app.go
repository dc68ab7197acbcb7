package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arunakulat/DutchBay-EPC-Model/internal/config"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/inputs"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/orchestrator"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/rundir"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/sandbox"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/telemetry"
)

// AppContext holds all constructed application dependencies shared across
// subcommands. It is built once in PersistentPreRunE and referenced by
// run.go and doctor.go.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	orchestrator *orchestrator.Orchestrator
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (opt-in, best-effort, non-fatal)
//  2. Creates the sandbox manager, run-dir preparer, and archive checker
//     on the real filesystem
//  3. Creates the orchestrator with the immutable RunContext
func buildAppContext(cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	// Telemetry is opt-in: with no endpoint configured the preflight makes
	// no network connections at all.
	if cfg.Telemetry.OTLPEndpoint != "" {
		tp, err := telemetry.InitProvider(
			context.Background(),
			cfg.Telemetry.OTLPEndpoint,
			cfg.Telemetry.ServiceName,
			cfg.Telemetry.OTLPInsecure,
		)
		if err != nil {
			slog.Warn("OTEL provider init failed — telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
		}
	}

	fs := afero.NewOsFs()
	outputDir := resolveOutputDir(cfg.Workdir, cfg.Output.Dir)

	rc := orchestrator.RunContext{
		CI:           cfg.CI,
		Workdir:      cfg.Workdir,
		InputArchive: cfg.Input.Archive,
		OutputDir:    outputDir,
	}

	app.orchestrator = orchestrator.New(
		rc,
		sandbox.NewManager(cfg.Workdir, cfg.Sandbox, fs),
		rundir.NewPreparer(outputDir, fs),
		inputs.NewChecker(fs),
		os.Stdout,
	)

	return app, nil
}

// resolveOutputDir anchors a relative output directory at the workdir, the
// same root the sandbox paths resolve against. Absolute paths and the
// unconfigured empty value pass through unchanged.
func resolveOutputDir(workdir, dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(workdir, dir)
}
