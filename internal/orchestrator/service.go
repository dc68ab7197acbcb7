package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrRunInProgress is returned when Run is called while a preflight run is
// already active in this process.
var ErrRunInProgress = errors.New("preflight run already in progress")

// Orchestrator drives the preflight steps and emits console notices.
type Orchestrator struct {
	rc      RunContext
	sandbox SandboxManager
	rundir  RunDirPreparer
	archive ArchiveChecker

	// out receives the human-readable [ok] / [--] notices. Failure lines
	// are printed by the caller on stderr, not here.
	out io.Writer

	runInProgress atomic.Bool
}

// New constructs an Orchestrator. The concrete sandbox, rundir, and inputs
// types satisfy the interfaces defined in this package. Notices are written
// to out.
func New(rc RunContext, sandbox SandboxManager, rundir RunDirPreparer, archive ArchiveChecker, out io.Writer) *Orchestrator {
	return &Orchestrator{
		rc:      rc,
		sandbox: sandbox,
		rundir:  rundir,
		archive: archive,
		out:     out,
	}
}

// Run executes the five preflight steps strictly in order. The first fatal
// error aborts the remaining steps; nothing is retried. The returned Result
// records every attempted step in order. Returns ErrRunInProgress if a run
// is already active.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	if !o.runInProgress.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.runInProgress.Store(false)

	result := &Result{Status: StatusInProgress, Context: o.rc}

	ctx, span := otel.Tracer("dutchbay-preflight").Start(ctx, "preflight.run")
	defer span.End()

	slog.InfoContext(ctx, "preflight started", "workdir", o.rc.Workdir, "ci", o.rc.CI)

	// 1. Filesystem anomaly check.
	removed, err := o.sandbox.Normalize(ctx)
	if err != nil {
		return o.fail(ctx, span, result, StepAnomaly, err)
	}
	if removed != "" {
		o.step(ctx, result, StepAnomaly, StatusOK, "removed stray file at "+removed)
	} else {
		o.step(ctx, result, StepAnomaly, StatusOK, "sandbox path clean")
	}

	// 2. Environment detection. Resolved at config load; recorded here so
	// the run transcript shows which branch was taken.
	if o.rc.CI {
		o.step(ctx, result, StepDetect, StatusOK, "continuous-integration runner")
	} else {
		o.step(ctx, result, StepDetect, StatusOK, "developer workstation")
	}

	// 3. Sandbox acquisition. CI runners ship a pre-provisioned runtime, so
	// the sandbox is neither created nor activated there.
	if o.rc.CI {
		o.step(ctx, result, StepSandbox, StatusSkipped, "CI runner provides the runtime")
	} else {
		activation, err := o.sandbox.Acquire(ctx)
		if err != nil {
			return o.fail(ctx, span, result, StepSandbox, err)
		}
		detail := "activated sandbox at " + activation.Path
		if activation.Created {
			detail += " (created)"
		}
		o.step(ctx, result, StepSandbox, StatusOK, detail)
	}

	// 4. Run output directory.
	dir, err := o.rundir.Ensure(ctx)
	switch {
	case err != nil:
		return o.fail(ctx, span, result, StepRunDir, err)
	case dir == "":
		o.step(ctx, result, StepRunDir, StatusSkipped, "no output directory configured")
	default:
		o.step(ctx, result, StepRunDir, StatusOK, "output directory ready at "+dir)
	}

	// 5. Optional input archive.
	if o.rc.InputArchive == "" {
		o.step(ctx, result, StepInput, StatusSkipped, "no input archive configured")
	} else if err := o.archive.Check(ctx, o.rc.InputArchive); err != nil {
		return o.fail(ctx, span, result, StepInput, err)
	} else {
		o.step(ctx, result, StepInput, StatusOK, "input archive present at "+o.rc.InputArchive)
	}

	result.Status = StatusOK
	span.SetAttributes(attribute.String("preflight.status", result.Status))
	span.SetStatus(codes.Ok, "")
	slog.InfoContext(ctx, "preflight completed", "status", result.Status)
	o.notice("[ok] preflight complete")

	return result, nil
}

// InspectEnvironment returns the doctor snapshot: the resolved run context
// plus the current on-disk sandbox state. It never mutates the filesystem.
func (o *Orchestrator) InspectEnvironment(ctx context.Context) (*EnvironmentReport, error) {
	state, err := o.sandbox.Inspect(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspecting sandbox: %w", err)
	}
	return &EnvironmentReport{Context: o.rc, Sandbox: state}, nil
}

// IsRunInProgress returns true while a preflight run is active.
func (o *Orchestrator) IsRunInProgress() bool {
	return o.runInProgress.Load()
}

// step records a completed step and emits its trace-correlated log line and
// console notice.
func (o *Orchestrator) step(ctx context.Context, result *Result, name, status, detail string) {
	result.Steps = append(result.Steps, StepResult{Name: name, Status: status, Detail: detail})

	if status == StatusSkipped {
		slog.InfoContext(ctx, "preflight step skipped", "step", name, "detail", detail)
		o.notice("[--] %s", detail)
		return
	}
	slog.InfoContext(ctx, "preflight step ok", "step", name, "detail", detail)
	o.notice("[ok] %s", detail)
}

// fail records the failing step, marks the run failed, and returns the
// wrapped error. Remaining steps are not attempted.
func (o *Orchestrator) fail(ctx context.Context, span trace.Span, result *Result, name string, err error) (*Result, error) {
	result.Steps = append(result.Steps, StepResult{Name: name, Status: StatusError, Error: err.Error()})
	result.Status = StatusError

	span.SetAttributes(attribute.String("preflight.status", result.Status))
	span.SetStatus(codes.Error, name+" step failed")
	slog.ErrorContext(ctx, "preflight step failed", "step", name, "error", err)

	return result, fmt.Errorf("%s: %w", name, err)
}

func (o *Orchestrator) notice(format string, args ...any) {
	fmt.Fprintf(o.out, format+"\n", args...)
}
