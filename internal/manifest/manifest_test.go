package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/customobjects/internal/ir"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeManifest(t, `
sources:
  - path: exports/Precinct.csv
    scenario: Scenario_Precinct_Push_Security
  - path: s3://level-exports/Farm.csv
  - path: /abs/Town.csv
options:
  suppress_blueprints: true
  append_once: false
output: build/CustomObjects.ini
`)
	dir := filepath.Dir(path)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []ir.Source{
		{Path: filepath.Join(dir, "exports/Precinct.csv"), Scenario: "Scenario_Precinct_Push_Security"},
		{Path: "s3://level-exports/Farm.csv", Scenario: "Scenario_Farm"},
		{Path: "/abs/Town.csv", Scenario: "Scenario_Town"},
	}, m.Sources)
	assert.Equal(t, ir.Options{SuppressBlueprints: true, AppendOnce: false}, m.Options)
	assert.Equal(t, filepath.Join(dir, "build/CustomObjects.ini"), m.Output)
}

func TestParse_DefaultOptions(t *testing.T) {
	m, err := Parse([]byte("sources:\n  - path: a.csv\n"), "")
	require.NoError(t, err)

	assert.True(t, m.Options.AppendOnce)
	assert.False(t, m.Options.SuppressBlueprints)
	assert.Equal(t, "a.csv", m.Sources[0].Path)
	assert.Empty(t, m.Output)
}

func TestParse_PartialOptionsKeepDefaults(t *testing.T) {
	m, err := Parse([]byte("sources:\n  - path: a.csv\noptions:\n  suppress_blueprints: true\n"), "")
	require.NoError(t, err)

	assert.True(t, m.Options.AppendOnce)
	assert.True(t, m.Options.SuppressBlueprints)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/job.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest file")
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty document", "", "sources list is required"},
		{"empty sources", "sources: []\n", "sources list is required"},
		{"missing path", "sources:\n  - scenario: S\n", "sources[0]: path is required"},
		{"unknown field", "source:\n  - path: a.csv\n", "failed to parse YAML"},
		{"unknown option", "sources:\n  - path: a.csv\noptions:\n  once: true\n", "failed to parse YAML"},
		{"bad type", "sources:\n  - path: a.csv\noptions:\n  append_once: maybe\n", "failed to parse YAML"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
