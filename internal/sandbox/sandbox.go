// Package sandbox manages the isolated on-disk dependency sandbox used by
// developer-workstation runs. It normalizes the historical stray-file
// anomaly at the reserved sandbox path, resolves an existing sandbox
// (visible name first, hidden name second), provisions a fresh one when
// neither exists, and activates the winner for the remainder of the
// process. All filesystem access goes through afero so tests run against
// an in-memory filesystem.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/arunakulat/DutchBay-EPC-Model/internal/config"
	"github.com/arunakulat/DutchBay-EPC-Model/internal/orchestrator"
)

// Manager locates, provisions, and activates the dependency sandbox.
type Manager struct {
	cfg     config.SandboxConfig
	workdir string
	fs      afero.Fs

	// provision creates a new sandbox directory via the configured
	// interpreter. Injectable so tests can provision on the in-memory fs.
	provision func(ctx context.Context, interpreter, dir string) error
	// setenv / getenv mutate the process environment during activation.
	// Injectable so tests never touch real process state.
	setenv func(key, value string) error
	getenv func(key string) string
}

// NewManager creates a Manager rooted at workdir. Provisioning shells out
// to "<interpreter> -m venv <dir>"; activation is process-local.
func NewManager(workdir string, cfg config.SandboxConfig, fs afero.Fs) *Manager {
	return &Manager{
		cfg:       cfg,
		workdir:   workdir,
		fs:        fs,
		provision: realProvision,
		setenv:    os.Setenv,
		getenv:    os.Getenv,
	}
}

// Normalize removes a stray non-directory entry occupying the reserved
// sandbox path (the hidden name, where new sandboxes are created). After it
// returns, the reserved path is either absent or a directory. The removed
// path is returned so the caller can report the remediation; "" means
// nothing needed removing. Removal failure is fatal and not retried.
func (m *Manager) Normalize(_ context.Context) (string, error) {
	reserved := filepath.Join(m.workdir, m.cfg.HiddenName)

	info, err := m.fs.Stat(reserved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("stat %s: %w", reserved, err)
	}
	if info.IsDir() {
		return "", nil
	}

	if err := m.fs.Remove(reserved); err != nil {
		return "", fmt.Errorf("removing stray file %s: %w", reserved, err)
	}
	return reserved, nil
}

// Acquire resolves the sandbox, first match wins: an existing directory
// under the primary name, then under the hidden name, else a fresh sandbox
// provisioned under the hidden name. The winner is activated before
// returning. Exactly one sandbox is active afterwards.
func (m *Manager) Acquire(ctx context.Context) (orchestrator.Activation, error) {
	for _, name := range []string{m.cfg.PrimaryName, m.cfg.HiddenName} {
		dir := filepath.Join(m.workdir, name)
		exists, err := afero.DirExists(m.fs, dir)
		if err != nil {
			return orchestrator.Activation{}, fmt.Errorf("checking sandbox dir %s: %w", dir, err)
		}
		if exists {
			return m.activate(dir, false)
		}
	}

	dir := filepath.Join(m.workdir, m.cfg.HiddenName)
	if err := m.provision(ctx, m.cfg.Interpreter, dir); err != nil {
		return orchestrator.Activation{}, fmt.Errorf("provisioning sandbox at %s: %w", dir, err)
	}
	return m.activate(dir, true)
}

// Inspect reports the sandbox paths as they exist on disk plus the
// currently active sandbox, without modifying anything.
func (m *Manager) Inspect(_ context.Context) (orchestrator.SandboxState, error) {
	primary := filepath.Join(m.workdir, m.cfg.PrimaryName)
	hidden := filepath.Join(m.workdir, m.cfg.HiddenName)

	state := orchestrator.SandboxState{
		PrimaryPath: primary,
		HiddenPath:  hidden,
		ActivePath:  m.getenv("VIRTUAL_ENV"),
	}

	var err error
	if state.PrimaryExists, err = afero.DirExists(m.fs, primary); err != nil {
		return orchestrator.SandboxState{}, fmt.Errorf("stat %s: %w", primary, err)
	}
	if state.HiddenExists, err = afero.DirExists(m.fs, hidden); err != nil {
		return orchestrator.SandboxState{}, fmt.Errorf("stat %s: %w", hidden, err)
	}

	// A non-directory entry at the hidden path is the anomaly Normalize removes.
	if info, err := m.fs.Stat(hidden); err == nil && !info.IsDir() {
		state.AnomalyPresent = true
	}

	return state, nil
}

// activate makes the sandbox runtime take precedence for the rest of the
// process: its bin directory is prepended to PATH and VIRTUAL_ENV is set.
// Re-activating the sandbox that is already active is a no-op, and switching
// sandboxes drops the previous one's bin entry, so exactly one sandbox is on
// PATH no matter how many runs this process performs.
func (m *Manager) activate(dir string, created bool) (orchestrator.Activation, error) {
	activation := orchestrator.Activation{Path: dir, Created: created}

	active := m.getenv("VIRTUAL_ENV")
	if active == dir {
		return activation, nil
	}

	sep := string(os.PathListSeparator)
	staleBin := ""
	if active != "" {
		staleBin = filepath.Join(active, "bin")
	}

	entries := []string{filepath.Join(dir, "bin")}
	for _, p := range strings.Split(m.getenv("PATH"), sep) {
		if p == "" || p == staleBin {
			continue
		}
		entries = append(entries, p)
	}
	if err := m.setenv("PATH", strings.Join(entries, sep)); err != nil {
		return orchestrator.Activation{}, fmt.Errorf("updating PATH: %w", err)
	}
	if err := m.setenv("VIRTUAL_ENV", dir); err != nil {
		return orchestrator.Activation{}, fmt.Errorf("setting VIRTUAL_ENV: %w", err)
	}

	return activation, nil
}

// realProvision shells out to the configured interpreter to create the
// sandbox. Failure (interpreter missing, disk full) is fatal to the run.
func realProvision(ctx context.Context, interpreter, dir string) error {
	cmd := exec.CommandContext(ctx, interpreter, "-m", "venv", dir)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if msg := strings.TrimSpace(string(out)); msg != "" {
			return fmt.Errorf("%s -m venv: %w: %s", interpreter, err, msg)
		}
		return fmt.Errorf("%s -m venv: %w", interpreter, err)
	}
	return nil
}
