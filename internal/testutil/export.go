// Package testutil builds level exports for tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ExportHeader is the header row editors write.
var ExportHeader = []string{"Name", "ActorClass", "Location", "Rotation", "Label", "StaticMeshes"}

// Row is one placed actor in an export.
type Row struct {
	Name      string
	Class     string // field 2
	Location  string // field 3
	Rotation  string // field 4
	Label     string
	Meshes    string // field 6
	truncated int    // when > 0, only the first n fields are written
}

// Fields returns the row as CSV fields.
func (r Row) Fields() []string {
	fields := []string{r.Name, r.Class, r.Location, r.Rotation, r.Label, r.Meshes}
	if r.truncated > 0 {
		return fields[:r.truncated]
	}
	return fields
}

// MeshRow places a static mesh actor.
func MeshRow(meshPath string, x, y, z float64) Row {
	return Row{
		Name:     "StaticMeshActor",
		Class:    "Class'/Script/Engine.StaticMeshActor'",
		Location: Loc(x, y, z),
		Rotation: Rot(0, 0, 0),
		Label:    "Mesh",
		Meshes:   fmt.Sprintf("(StaticMesh'%s')", meshPath),
	}
}

// BlueprintRow places a blueprint actor.
func BlueprintRow(classPath string, x, y, z float64) Row {
	return Row{
		Name:     "BlueprintActor",
		Class:    fmt.Sprintf("BlueprintGeneratedClass'%s'", classPath),
		Location: Loc(x, y, z),
		Rotation: Rot(0, 0, 0),
		Label:    "Blueprint",
		Meshes:   "()",
	}
}

// WithRotation returns r with the given rotation.
func (r Row) WithRotation(pitch, yaw, roll float64) Row {
	r.Rotation = Rot(pitch, yaw, roll)
	return r
}

// Truncated returns r cut down to its first n fields.
func (r Row) Truncated(n int) Row {
	r.truncated = n
	return r
}

// Loc formats a location field.
func Loc(x, y, z float64) string {
	return fmt.Sprintf("X=%s,Y=%s,Z=%s", num(x), num(y), num(z))
}

// Rot formats a rotation field.
func Rot(pitch, yaw, roll float64) string {
	return fmt.Sprintf("Pitch=%s,Yaw=%s,Roll=%s", num(pitch), num(yaw), num(roll))
}

func num(f float64) string {
	return fmt.Sprintf("%f", f)
}

// CSV renders a header and rows.
func CSV(rows ...Row) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(ExportHeader)
	for _, r := range rows {
		_ = w.Write(r.Fields())
	}
	w.Flush()
	return buf.String()
}

// WriteExport writes rows as a CSV file in a temp dir and returns its path.
func WriteExport(t *testing.T, name string, rows ...Row) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(CSV(rows...)), 0644); err != nil {
		t.Fatalf("write export: %v", err)
	}
	return path
}

// MemOpener serves exports from memory, keyed by path.
type MemOpener map[string]string

// Open returns the stored content for path.
func (m MemOpener) Open(_ context.Context, path string) (io.ReadCloser, error) {
	content, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return io.NopCloser(strings.NewReader(content)), nil
}
