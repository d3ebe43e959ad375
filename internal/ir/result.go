package ir

import (
	"fmt"
	"strings"
)

// Counts tallies row outcomes.
type Counts struct {
	Rows               int `json:"rows"`
	Dropped            int `json:"dropped"` // fewer than six fields
	IncludedBlueprint  int `json:"included_blueprint"`
	IncludedStaticMesh int `json:"included_static_mesh"`
	SkippedOrigin      int `json:"skipped_origin"`
	SkippedSuppressed  int `json:"skipped_suppressed"`
	SkippedFiltered    int `json:"skipped_filtered"`
	RowErrors          int `json:"row_errors"`
}

// Included returns the number of entries produced.
func (c Counts) Included() int {
	return c.IncludedBlueprint + c.IncludedStaticMesh
}

// Skipped returns the number of intentionally excluded rows.
func (c Counts) Skipped() int {
	return c.SkippedOrigin + c.SkippedSuppressed + c.SkippedFiltered
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.Rows += o.Rows
	c.Dropped += o.Dropped
	c.IncludedBlueprint += o.IncludedBlueprint
	c.IncludedStaticMesh += o.IncludedStaticMesh
	c.SkippedOrigin += o.SkippedOrigin
	c.SkippedSuppressed += o.SkippedSuppressed
	c.SkippedFiltered += o.SkippedFiltered
	c.RowErrors += o.RowErrors
}

// SourceStats is the per-source slice of a result.
type SourceStats struct {
	Source
	Counts
	ProblemAssets []string `json:"problem_assets,omitempty"`
}

// Result is everything a finished job produced.
type Result struct {
	Blueprints []AssetRef    `json:"blueprints"`    // ascending index
	Meshes     []AssetRef    `json:"static_meshes"` // ascending index
	Entries    []Entry       `json:"entries"`
	Sources    []SourceStats `json:"sources"`
	Options    Options       `json:"options"`
}

// Totals sums the per-source counts.
func (r *Result) Totals() Counts {
	var total Counts
	for _, s := range r.Sources {
		total.Add(s.Counts)
	}
	return total
}

// Assets returns the declarations for one kind.
func (r *Result) Assets(k Kind) []AssetRef {
	if k == KindBlueprint {
		return r.Blueprints
	}
	return r.Meshes
}

// Summary renders the end-of-job report.
func (r *Result) Summary() string {
	var b strings.Builder
	total := r.Totals()

	fmt.Fprintf(&b, "Total unique assets: %d\n", len(r.Blueprints)+len(r.Meshes))
	fmt.Fprintf(&b, "  Blueprint assets: %d\n", len(r.Blueprints))
	fmt.Fprintf(&b, "  Static mesh assets: %d\n", len(r.Meshes))
	fmt.Fprintf(&b, "Total configuration entries: %d\n", len(r.Entries))
	fmt.Fprintf(&b, "Skipped: %d (origin: %d, filtered: %d, blueprints suppressed: %d), row errors: %d\n",
		total.Skipped(), total.SkippedOrigin, total.SkippedFiltered, total.SkippedSuppressed, total.RowErrors)

	for _, s := range r.Sources {
		fmt.Fprintf(&b, "  %s [%s]: included %d (StaticMesh: %d, Blueprint: %d), skipped %d, errors %d\n",
			s.Path, s.Scenario, s.Included(), s.IncludedStaticMesh, s.IncludedBlueprint, s.Skipped(), s.RowErrors)
	}
	return b.String()
}
