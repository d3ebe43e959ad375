package ir

import (
	"fmt"
	"strings"
)

// Kind classifies an asset reference.
type Kind int

const (
	// KindBlueprint is a blueprint-generated actor class.
	KindBlueprint Kind = iota
	// KindStaticMesh is a plain static mesh.
	KindStaticMesh
)

// String returns the tag used in the rendered Type= field.
func (k Kind) String() string {
	switch k {
	case KindBlueprint:
		return "Blueprint"
	case KindStaticMesh:
		return "StaticMesh"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Kinds lists every kind in render order.
var Kinds = []Kind{KindBlueprint, KindStaticMesh}

// Vec3 is an integer triple. Used for locations (x, y, z) and rotations.
type Vec3 [3]int

// Format renders the triple as "a;b;c".
func (v Vec3) Format() string {
	return fmt.Sprintf("%d;%d;%d", v[0], v[1], v[2])
}

// IsZero reports whether all components are zero.
func (v Vec3) IsZero() bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// Rotation holds angles in the order they appear in the export.
type Rotation struct {
	Pitch int `json:"pitch"`
	Yaw   int `json:"yaw"`
	Roll  int `json:"roll"`
}

// RPY returns the angles in the stored (Roll, Pitch, Yaw) order.
func (r Rotation) RPY() Vec3 {
	return Vec3{r.Roll, r.Pitch, r.Yaw}
}

// Fields is the typed content of one export row.
//
// Location is nil when the row has no usable location: either the pattern
// is absent or it rounds to the origin. Rotation is always set.
type Fields struct {
	BlueprintPath string   `json:"blueprint_path,omitempty"`
	MeshPath      string   `json:"mesh_path,omitempty"`
	Location      *Vec3    `json:"location,omitempty"`
	Rotation      Rotation `json:"rotation"`
}

// HasBlueprint reports whether a blueprint class path was found.
func (f Fields) HasBlueprint() bool {
	return f.BlueprintPath != ""
}

// AssetRef identifies one declared asset. Identity is (Kind, Path).
type AssetRef struct {
	Kind  Kind   `json:"kind"`
	Path  string `json:"path"`
	Index int    `json:"index"`
}

// Entry is one rendered Configs= line.
type Entry struct {
	Scenario   string `json:"scenario"`
	Kind       Kind   `json:"kind"`
	AssetIndex int    `json:"asset_index"`
	Location   Vec3   `json:"location"`
	Rotation   Vec3   `json:"rotation"` // Roll, Pitch, Yaw
	Once       bool   `json:"once,omitempty"`
}

// Source names one export and the scenario its placements belong to.
type Source struct {
	Path     string `json:"path" yaml:"path"`
	Scenario string `json:"scenario" yaml:"scenario"`
}

// DefaultScenario derives a scenario label from an export path:
// "exports/Precinct.csv" becomes "Scenario_Precinct".
func DefaultScenario(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return "Scenario_" + base
}

// Options are the job-wide switches.
type Options struct {
	// SuppressBlueprints drops every blueprint row before any other filter.
	SuppressBlueprints bool `json:"suppress_blueprints" yaml:"suppress_blueprints"`
	// AppendOnce marks every blueprint entry with the Once token.
	AppendOnce bool `json:"append_once" yaml:"append_once"`
}
