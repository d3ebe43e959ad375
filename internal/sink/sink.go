// Package sink delivers rendered output to its destination.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Destination receives the complete rendered output of one job.
type Destination interface {
	// Name identifies the destination in logs and errors.
	Name() string
	// Commit writes data. It is called once per job.
	Commit(data []byte) error
}

// File writes to a path by way of a temporary file in the same directory,
// so the target is either the previous content or the complete new output.
type File struct {
	Path string
}

// NewFile creates a file destination.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Name returns the target path.
func (f *File) Name() string {
	return f.Path
}

// Commit writes data to a temp file and renames it over the target.
func (f *File) Commit(data []byte) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", f.Path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod %s: %w", f.Path, err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", f.Path, err)
	}
	return nil
}

// Writer sends output to an io.Writer such as stdout.
type Writer struct {
	W     io.Writer
	Label string
}

// NewWriter creates a writer destination.
func NewWriter(w io.Writer, label string) *Writer {
	return &Writer{W: w, Label: label}
}

// Name returns the label.
func (w *Writer) Name() string {
	return w.Label
}

// Commit writes data in full.
func (w *Writer) Commit(data []byte) error {
	if _, err := w.W.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", w.Label, err)
	}
	return nil
}
