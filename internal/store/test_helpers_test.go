package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/customobjects/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestResult creates a two-source result with fixed counts.
func createTestResult() *ir.Result {
	return &ir.Result{
		Blueprints: []ir.AssetRef{{Kind: ir.KindBlueprint, Path: "/Game/BP_A.BP_A", Index: 0}},
		Meshes: []ir.AssetRef{
			{Kind: ir.KindStaticMesh, Path: "/Game/SM_A.SM_A", Index: 0},
			{Kind: ir.KindStaticMesh, Path: "/Game/SM_B.SM_B", Index: 1},
		},
		Entries: make([]ir.Entry, 4),
		Sources: []ir.SourceStats{
			{
				Source: ir.Source{Path: "exports/A.csv", Scenario: "Scenario_A"},
				Counts: ir.Counts{Rows: 5, IncludedBlueprint: 1, IncludedStaticMesh: 2, SkippedOrigin: 1, SkippedFiltered: 1},
				ProblemAssets: []string{
					"/Game/Environment/Props/Exterior/Street/SM_IndPole_03c.SM_IndPole_03c",
				},
			},
			{
				Source: ir.Source{Path: "exports/B.csv", Scenario: "Scenario_B"},
				Counts: ir.Counts{Rows: 2, Dropped: 1, IncludedStaticMesh: 1},
			},
		},
		Options: ir.Options{AppendOnce: true},
	}
}

// testTime returns a fixed start time offset by n seconds.
func testTime(n int) time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC).Add(time.Duration(n) * time.Second)
}
