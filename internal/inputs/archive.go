// Package inputs validates externally supplied inputs before the pipeline
// consumes them.
package inputs

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// ErrArchiveMissing is returned when the configured input archive does not
// exist on disk. The CLI maps it to its own exit code so callers can tell a
// user-correctable path error from an internal failure.
var ErrArchiveMissing = errors.New("input archive not found")

// Checker verifies the optional input archive path.
type Checker struct {
	fs afero.Fs
}

// NewChecker creates a Checker backed by fs.
func NewChecker(fs afero.Fs) *Checker {
	return &Checker{fs: fs}
}

// Check verifies the file at path exists. Existence is the only check done
// here — format, size, and content validation belong to the downstream
// pipeline steps.
func (c *Checker) Check(_ context.Context, path string) error {
	if _, err := c.fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrArchiveMissing, path)
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	return nil
}
