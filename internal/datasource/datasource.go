// Package datasource abstracts where a workbook's bytes come from.
package datasource

import (
	"bytes"
	"context"
	"io"
)

// Source opens a workbook stream. Name is a file name (or URL) used to pick
// a loader by extension and to label logs.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// Bytes is an in-memory Source, used for uploaded workbooks.
type Bytes struct {
	Filename string
	Data     []byte
}

// Open returns a reader over the buffered data.
func (b Bytes) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

// Name returns the upload's file name.
func (b Bytes) Name() string { return b.Filename }
