// Package manifest loads conversion jobs described in YAML.
//
//	sources:
//	  - path: exports/Precinct.csv
//	    scenario: Scenario_Precinct_Push_Security
//	  - path: s3://level-exports/Farm.csv
//	options:
//	  suppress_blueprints: false
//	  append_once: true
//	output: build/CustomObjects.ini
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/customobjects/internal/ir"
	"github.com/roach88/customobjects/internal/source"
)

// Manifest is a conversion job read from a file.
type Manifest struct {
	// Sources are converted in the order listed. A source without a
	// scenario gets one derived from its file name.
	Sources []ir.Source `yaml:"sources"`

	// Options default to append_once: true, suppress_blueprints: false.
	Options ir.Options `yaml:"options"`

	// Output is the destination path. Optional; the command line wins.
	Output string `yaml:"output,omitempty"`
}

// Load reads a manifest file. Relative paths in the file resolve against
// the directory containing it.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}
	return Parse(data, filepath.Dir(path))
}

// Parse decodes a manifest and resolves relative paths against baseDir.
// An empty baseDir leaves paths untouched.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	m := Manifest{Options: ir.Options{AppendOnce: true}}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // reject typos like "source:"
	if err := decoder.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("invalid manifest: sources list is required and must be non-empty")
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validate(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	for i := range m.Sources {
		src := &m.Sources[i]
		if src.Scenario == "" {
			src.Scenario = ir.DefaultScenario(src.Path)
		}
		src.Path = resolve(baseDir, src.Path)
	}
	if m.Output != "" {
		m.Output = resolve(baseDir, m.Output)
	}

	return &m, nil
}

func validate(m *Manifest) error {
	if len(m.Sources) == 0 {
		return fmt.Errorf("sources list is required and must be non-empty")
	}
	for i, src := range m.Sources {
		if src.Path == "" {
			return fmt.Errorf("sources[%d]: path is required", i)
		}
	}
	return nil
}

func resolve(baseDir, path string) string {
	if baseDir == "" || source.IsS3(path) || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
