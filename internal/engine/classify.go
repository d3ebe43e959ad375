package engine

import (
	"fmt"

	"github.com/roach88/customobjects/internal/ir"
	"github.com/roach88/customobjects/internal/rules"
)

// Outcome is what the classifier decided for one row.
type Outcome int

const (
	// Included rows become config entries.
	Included Outcome = iota
	// SkippedOrigin rows have no location or sit at the origin.
	SkippedOrigin
	// SkippedSuppressed rows are blueprints dropped by Options.SuppressBlueprints.
	SkippedSuppressed
	// SkippedFiltered rows matched a skip rule or lack a mesh path.
	SkippedFiltered
)

func (o Outcome) String() string {
	switch o {
	case Included:
		return "included"
	case SkippedOrigin:
		return "skipped_origin"
	case SkippedSuppressed:
		return "skipped_suppressed"
	case SkippedFiltered:
		return "skipped_filtered"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Decision is the classifier verdict for one row.
//
// Kind and Path are unset for SkippedOrigin, which is decided before the
// row is classified.
type Decision struct {
	Outcome Outcome
	Kind    ir.Kind
	Path    string
	Reason  string

	// Rule is the matching skip rule; zero when no rule was involved.
	Rule rules.Rule

	// ProblemMesh is set when a skipped mesh is one of the tracked assets.
	ProblemMesh bool
}

// Classifier decides whether a row is kept and as which kind.
type Classifier struct {
	rules *rules.Set
}

// NewClassifier creates a classifier over a rule set.
func NewClassifier(set *rules.Set) *Classifier {
	return &Classifier{rules: set}
}

// Classify applies the filter chain. The first matching step wins:
//
//  1. no location (or origin)           -> SkippedOrigin
//  2. blueprint path present:
//     a. SuppressBlueprints              -> SkippedSuppressed
//     b. universal skip rules            -> SkippedFiltered
//     c. scene category rules            -> SkippedFiltered
//     d. otherwise                       -> Included as Blueprint
//  3. mesh path:
//     a. missing, or universal skip rule -> SkippedFiltered
//     b. otherwise                       -> Included as StaticMesh
func (c *Classifier) Classify(f ir.Fields, opts ir.Options) Decision {
	if f.Location == nil {
		return Decision{Outcome: SkippedOrigin, Reason: "no location or location at origin (0,0,0)"}
	}

	if f.HasBlueprint() {
		d := Decision{Kind: ir.KindBlueprint, Path: f.BlueprintPath}

		if opts.SuppressBlueprints {
			d.Outcome = SkippedSuppressed
			d.Reason = "all blueprints suppressed"
			return d
		}
		if r, ok := c.rules.Universal(f.BlueprintPath); ok {
			return filtered(d, r)
		}
		if r, ok := c.rules.SceneCategory(f.BlueprintPath); ok {
			return filtered(d, r)
		}

		d.Outcome = Included
		return d
	}

	d := Decision{Kind: ir.KindStaticMesh, Path: f.MeshPath}
	if f.MeshPath == "" {
		d.Outcome = SkippedFiltered
		d.Reason = "no static mesh path"
		return d
	}
	if r, ok := c.rules.Universal(f.MeshPath); ok {
		d = filtered(d, r)
		_, d.ProblemMesh = c.rules.ProblemMesh(f.MeshPath)
		return d
	}

	d.Outcome = Included
	return d
}

func filtered(d Decision, r rules.Rule) Decision {
	d.Outcome = SkippedFiltered
	d.Rule = r
	d.Reason = r.Reason
	if d.Reason == "" {
		d.Reason = fmt.Sprintf("matches %q", r.Pattern)
	}
	return d
}
