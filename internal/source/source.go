// Package source opens level exports and streams their records.
//
// Exports are addressed by plain file paths or s3://bucket/key URIs. Text is
// decoded from UTF-8 (with or without BOM) or BOM-marked UTF-16, which is
// what editor exports on Windows commonly produce.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Opener opens the export behind a source path.
type Opener interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// ErrS3NotConfigured is returned for s3:// paths when no S3 opener is set.
var ErrS3NotConfigured = errors.New("s3 sources are not configured")

// FileOpener opens local files.
type FileOpener struct{}

// Open opens path for reading.
func (FileOpener) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// Mux routes s3:// paths to S3 and everything else to File.
type Mux struct {
	File Opener
	S3   Opener // optional
}

// NewMux creates a Mux over local files and, if non-nil, S3.
func NewMux(s3 Opener) *Mux {
	return &Mux{File: FileOpener{}, S3: s3}
}

// Open dispatches on the path scheme.
func (m *Mux) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if IsS3(path) {
		if m.S3 == nil {
			return nil, fmt.Errorf("open %s: %w", path, ErrS3NotConfigured)
		}
		return m.S3.Open(ctx, path)
	}
	file := m.File
	if file == nil {
		file = FileOpener{}
	}
	return file.Open(ctx, path)
}

// IsS3 reports whether path is an s3:// URI.
func IsS3(path string) bool {
	return strings.HasPrefix(path, "s3://")
}
