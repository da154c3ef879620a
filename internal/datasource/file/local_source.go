// Package file opens workbooks from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a single workbook file.
type Local struct{ path string }

// NewLocal returns a Local bound to path. Safe for concurrent use.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the configured path.
func (l *Local) Name() string { return l.path }

// Open returns the file for reading. A canceled ctx short-circuits before
// touching the filesystem; os errors are wrapped so errors.Is still matches
// os.ErrNotExist.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// IsDir reports whether path names a directory (a folder of CSV tables).
func IsDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
