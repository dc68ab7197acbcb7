// Package orchestrator runs the preflight bootstrap as a linear, fail-fast
// state machine: anomaly normalization, environment detection, sandbox
// acquisition, run-directory preparation, input validation. Steps run
// strictly in order; the first fatal error aborts the remainder.
package orchestrator

import "context"

// SandboxManager is satisfied by *sandbox.Manager.
type SandboxManager interface {
	// Normalize removes a stray non-directory entry at the reserved sandbox
	// path. It returns the removed path, or "" when nothing was removed.
	Normalize(ctx context.Context) (string, error)

	// Acquire locates or provisions the sandbox and activates it.
	Acquire(ctx context.Context) (Activation, error)

	// Inspect reports the on-disk sandbox state without modifying it.
	Inspect(ctx context.Context) (SandboxState, error)
}

// RunDirPreparer is satisfied by *rundir.Preparer.
type RunDirPreparer interface {
	// Ensure creates the run output directory if one is configured and
	// returns its path. It returns "" when no directory is configured.
	Ensure(ctx context.Context) (string, error)
}

// ArchiveChecker is satisfied by *inputs.Checker.
type ArchiveChecker interface {
	// Check verifies the input archive at path exists on disk.
	Check(ctx context.Context, path string) error
}
