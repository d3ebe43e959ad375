// Package rules holds the skip-rule table used by the classifier.
//
// The table is static configuration data authored in CUE and validated
// against an embedded schema. A single matching routine evaluates every
// stage, so changing what is filtered never touches classifier code.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaCUE string

//go:embed rules.cue
var defaultCUE string

// Stage groups rules by where the classifier consults them.
type Stage string

const (
	// StageKnownBad rules name specific problematic assets.
	StageKnownBad Stage = "known_bad"
	// StageKeyword rules apply to every asset kind.
	StageKeyword Stage = "keyword"
	// StageBlueprintKeyword rules apply to paths that look like blueprints.
	StageBlueprintKeyword Stage = "blueprint_keyword"
	// StageSceneCategory rules apply to blueprint rows after the universal check.
	StageSceneCategory Stage = "scene_category"
	// StageProblemMesh rules only annotate skipped meshes.
	StageProblemMesh Stage = "problem_mesh"
)

// Stages lists every stage in evaluation order.
var Stages = []Stage{
	StageKnownBad,
	StageKeyword,
	StageBlueprintKeyword,
	StageSceneCategory,
	StageProblemMesh,
}

// Rule is one skip pattern.
type Rule struct {
	Pattern string `json:"pattern"`
	Stage   Stage  `json:"stage"`
	Reason  string `json:"reason,omitempty"`
}

// Matches reports whether path contains the pattern (case-sensitive).
func (r Rule) Matches(path string) bool {
	return strings.Contains(path, r.Pattern)
}

// Set is a compiled rule table. Rules keep their declaration order within
// each stage. A Set is immutable and safe for concurrent use.
type Set struct {
	byStage map[Stage][]Rule
	all     []Rule
	origin  string
}

// Default compiles the embedded rule table.
func Default() (*Set, error) {
	return Compile([]byte(defaultCUE), "rules.cue")
}

// Load compiles a rule table from a CUE file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Compile(data, path)
}

// Compile validates src against the rule schema and builds a Set.
// filename is used for error positions only.
func Compile(src []byte, filename string) (*Set, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	data := ctx.CompileBytes(src, cue.Filename(filename))
	if err := data.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := schema.Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	list := v.LookupPath(cue.ParsePath("rules"))
	if !list.Exists() {
		return nil, &CompileError{Field: "rules", Message: "rules list is required", Pos: v.Pos()}
	}

	iter, err := list.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	set := &Set{byStage: make(map[Stage][]Rule), origin: filename}
	for i := 0; iter.Next(); i++ {
		var r Rule
		if err := iter.Value().Decode(&r); err != nil {
			return nil, formatCUEError(err)
		}
		if r.Pattern == "" {
			return nil, &CompileError{
				Field:   fmt.Sprintf("rules[%d].pattern", i),
				Message: "pattern must not be empty",
				Pos:     iter.Value().Pos(),
			}
		}
		set.byStage[r.Stage] = append(set.byStage[r.Stage], r)
		set.all = append(set.all, r)
	}

	return set, nil
}

// Origin names the file the set was compiled from.
func (s *Set) Origin() string {
	return s.origin
}

// All returns every rule in declaration order.
func (s *Set) All() []Rule {
	out := make([]Rule, len(s.all))
	copy(out, s.all)
	return out
}

// Stage returns the rules of one stage in declaration order.
func (s *Set) Stage(stage Stage) []Rule {
	rules := s.byStage[stage]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Universal runs the check every asset path goes through: known-bad paths,
// then keywords, then blueprint keywords when the path looks like a
// blueprint. The first matching rule is returned.
func (s *Set) Universal(path string) (Rule, bool) {
	if r, ok := s.match(StageKnownBad, path); ok {
		return r, true
	}
	if r, ok := s.match(StageKeyword, path); ok {
		return r, true
	}
	if IsBlueprintLike(path) {
		return s.match(StageBlueprintKeyword, path)
	}
	return Rule{}, false
}

// SceneCategory checks a blueprint path against the scene category list.
func (s *Set) SceneCategory(path string) (Rule, bool) {
	return s.match(StageSceneCategory, path)
}

// ProblemMesh reports whether a skipped mesh is one of the tracked assets.
func (s *Set) ProblemMesh(path string) (Rule, bool) {
	return s.match(StageProblemMesh, path)
}

func (s *Set) match(stage Stage, path string) (Rule, bool) {
	for _, r := range s.byStage[stage] {
		if r.Matches(path) {
			return r, true
		}
	}
	return Rule{}, false
}

// IsBlueprintLike is the discriminator between mesh and blueprint
// paths: anything that neither ends in ".SM_" nor mentions "StaticMesh".
// Most mesh paths ("/Game/X/SM_A.SM_A") therefore count as blueprint-like.
func IsBlueprintLike(path string) bool {
	return !strings.HasSuffix(path, ".SM_") && !strings.Contains(path, "StaticMesh")
}
