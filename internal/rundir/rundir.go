// Package rundir prepares the run output directory handed to downstream
// build/validation steps.
package rundir

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// Preparer ensures the configured run output directory exists.
type Preparer struct {
	dir string
	fs  afero.Fs
}

// NewPreparer creates a Preparer for dir. An empty dir means no output
// directory is configured and Ensure becomes a no-op.
func NewPreparer(dir string, fs afero.Fs) *Preparer {
	return &Preparer{dir: dir, fs: fs}
}

// Ensure creates the output directory (and parents) if missing and returns
// its path. Returns "" when no directory is configured. A non-directory
// entry occupying the path is fatal — downstream steps would silently fail
// writing into it.
func (p *Preparer) Ensure(_ context.Context) (string, error) {
	if p.dir == "" {
		return "", nil
	}

	info, err := p.fs.Stat(p.dir)
	switch {
	case err == nil && info.IsDir():
		return p.dir, nil
	case err == nil:
		return "", fmt.Errorf("output path %s exists and is not a directory", p.dir)
	case !os.IsNotExist(err):
		return "", fmt.Errorf("stat %s: %w", p.dir, err)
	}

	if err := p.fs.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", p.dir, err)
	}
	return p.dir, nil
}
