package sandbox

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arunakulat/DutchBay-EPC-Model/internal/inputs"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/orchestrator"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/rundir"
)

// End-to-end preflight runs over the in-memory filesystem: the real
// Manager, Preparer, and Checker wired into the orchestrator, with only
// provisioning and the process environment faked.

type preflightHarness struct {
	*testManager
	out *bytes.Buffer
}

func newHarness(t *testing.T, rc orchestrator.RunContext) (*orchestrator.Orchestrator, *preflightHarness) {
	t.Helper()

	h := &preflightHarness{testManager: newTestManager(t), out: &bytes.Buffer{}}
	o := orchestrator.New(
		rc,
		h.Manager,
		rundir.NewPreparer(rc.OutputDir, h.fs),
		inputs.NewChecker(h.fs),
		h.out,
	)
	return o, h
}

func TestPreflight_FreshWorkstation(t *testing.T) {
	t.Parallel()

	// Scenario: CI unset, no prior sandbox, no input archive.
	o, h := newHarness(t, orchestrator.RunContext{Workdir: workdir})

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusOK, result.Status)

	hidden := filepath.Join(workdir, ".venv")
	isDir, err := afero.DirExists(h.fs, hidden)
	require.NoError(t, err)
	assert.True(t, isDir, "a fresh sandbox must be created under the hidden name")
	assert.Equal(t, hidden, h.env["VIRTUAL_ENV"])
	assert.Contains(t, h.out.String(), "[--] no input archive configured")
}

func TestPreflight_MissingInputArchive(t *testing.T) {
	t.Parallel()

	// Scenario: CI unset, input archive configured but absent from disk.
	o, h := newHarness(t, orchestrator.RunContext{Workdir: workdir, InputArchive: "missing.zip"})

	result, err := o.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, inputs.ErrArchiveMissing)
	assert.Contains(t, err.Error(), "missing.zip")
	assert.Equal(t, orchestrator.StatusError, result.Status)

	// The failure arrives after the sandbox is ready, and fixing the path
	// makes a rerun succeed — no state is corrupted.
	require.NoError(t, afero.WriteFile(h.fs, "missing.zip", []byte("zip"), 0o644))
	result, err = o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusOK, result.Status)
}

func TestPreflight_CIRunner(t *testing.T) {
	t.Parallel()

	// Scenario: CI=true with a pre-existing primary directory.
	o, h := newHarness(t, orchestrator.RunContext{CI: true, Workdir: workdir})
	require.NoError(t, h.fs.MkdirAll(filepath.Join(workdir, "venv"), 0o755))

	result, err := o.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orchestrator.StatusOK, result.Status)
	assert.Empty(t, h.provisionCalls, "CI mode must not provision")
	assert.Empty(t, h.env["VIRTUAL_ENV"], "CI mode must not activate")
}

func TestPreflight_StrayFileBecomesDirectory(t *testing.T) {
	t.Parallel()

	// Scenario: the reserved sandbox path is occupied by a plain file.
	o, h := newHarness(t, orchestrator.RunContext{Workdir: workdir})
	hidden := filepath.Join(workdir, ".venv")
	require.NoError(t, afero.WriteFile(h.fs, hidden, []byte("stale"), 0o644))

	result, err := o.Run(context.Background())
	require.NoError(t, err, "the anomaly itself must not raise an error")
	assert.Equal(t, orchestrator.StatusOK, result.Status)

	isDir, err := afero.DirExists(h.fs, hidden)
	require.NoError(t, err)
	assert.True(t, isDir, "reserved path must end up a directory")
	assert.Contains(t, h.out.String(), "[ok] removed stray file at "+hidden)
}

func TestPreflight_Idempotent(t *testing.T) {
	t.Parallel()

	o, h := newHarness(t, orchestrator.RunContext{Workdir: workdir, OutputDir: "/work/_out"})

	for i := 0; i < 2; i++ {
		result, err := o.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, orchestrator.StatusOK, result.Status)
	}

	assert.Len(t, h.provisionCalls, 1, "a second run must reuse the sandbox")

	entries, err := afero.ReadDir(h.fs, workdir)
	require.NoError(t, err)
	var sandboxDirs int
	for _, e := range entries {
		if e.IsDir() && (e.Name() == "venv" || e.Name() == ".venv") {
			sandboxDirs++
		}
	}
	assert.Equal(t, 1, sandboxDirs, "exactly one sandbox directory may exist")
}
