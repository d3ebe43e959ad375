package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/customobjects/internal/ir"
	"github.com/roach88/customobjects/internal/rules"
	"github.com/roach88/customobjects/internal/testutil"
)

type memDest struct {
	data    []byte
	commits int
	err     error
}

func (d *memDest) Name() string { return "mem.ini" }

func (d *memDest) Commit(b []byte) error {
	if d.err != nil {
		return d.err
	}
	d.commits++
	d.data = append([]byte(nil), b...)
	return nil
}

func newTestEngine(t *testing.T, files testutil.MemOpener) *Engine {
	t.Helper()
	set, err := rules.Default()
	require.NoError(t, err)
	return New(files, set, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func convert(t *testing.T, files testutil.MemOpener, opts ir.Options, sources ...ir.Source) (*ir.Result, *memDest, *LogRecorder) {
	t.Helper()
	dest := &memDest{}
	rec := &LogRecorder{}
	res, err := newTestEngine(t, files).Convert(context.Background(), Job{
		Sources:     sources,
		Options:     opts,
		Destination: dest,
	}, rec)
	require.NoError(t, err)
	return res, dest, rec
}

// twoSourceFiles is the reference scenario: the first source has one valid
// mesh and one origin row, the second one weapon blueprint.
func twoSourceFiles() testutil.MemOpener {
	return testutil.MemOpener{
		"a.csv": testutil.CSV(
			testutil.MeshRow("/Game/Props/SM_Crate.SM_Crate", 100, 200, 300),
			testutil.MeshRow("/Game/Props/SM_Barrel.SM_Barrel", 0, 0, 0),
		),
		"b.csv": testutil.CSV(
			testutil.BlueprintRow("/Game/Game/Actors/Weapons/BP_Rifle.BP_Rifle", 10, 10, 10),
		),
	}
}

func TestConvert_TwoSourceScenario(t *testing.T) {
	res, dest, _ := convert(t, twoSourceFiles(), ir.Options{AppendOnce: true},
		ir.Source{Path: "a.csv", Scenario: "Scenario_A"},
		ir.Source{Path: "b.csv", Scenario: "Scenario_B"},
	)

	total := res.Totals()
	assert.Equal(t, 1, total.IncludedStaticMesh)
	assert.Equal(t, 0, total.IncludedBlueprint)
	assert.Equal(t, 2, total.Skipped())
	assert.Equal(t, 1, total.SkippedOrigin)
	assert.Equal(t, 1, total.SkippedFiltered)

	out := string(dest.data)
	assert.Equal(t, 1, strings.Count(out, "StaticMeshAssets="))
	assert.Contains(t, out, ";Index 0\nStaticMeshAssets=StaticMesh'/Game/Props/SM_Crate.SM_Crate'\n")
	assert.Equal(t, 1, strings.Count(out, "Configs="))
	assert.Contains(t, out, "Type=StaticMesh")
	assert.NotContains(t, out, "Assets=BlueprintGeneratedClass")
	assert.Equal(t, 1, dest.commits)
}

func TestConvert_Golden(t *testing.T) {
	files := testutil.MemOpener{
		"precinct.csv": testutil.CSV(
			testutil.MeshRow("/Game/Props/SM_Crate.SM_Crate", 100.4, -20.6, 3).WithRotation(1, 2, 3),
			testutil.BlueprintRow("/Game/Blueprints/BP_Barrier.BP_Barrier", 5, 6, 7).WithRotation(0, 90, 0),
			testutil.MeshRow("/Game/Props/SM_Door_01.SM_Door_01", 1, 1, 1),
			testutil.MeshRow("/Game/Props/SM_Crate.SM_Crate", 400, 0, 0),
		),
		"farm.csv": testutil.CSV(
			testutil.BlueprintRow("/Game/Blueprints/BP_Cone.BP_Cone", -1, -2, -3),
			testutil.MeshRow("/Game/Props/SM_Hay.SM_Hay", 9, 9, 9).WithRotation(-45, 180, 0),
			testutil.BlueprintRow("/Game/Blueprints/BP_Barrier.BP_Barrier", 8, 8, 8),
		),
	}

	_, dest, _ := convert(t, files, ir.Options{AppendOnce: true},
		ir.Source{Path: "precinct.csv", Scenario: "Scenario_Precinct_Push_Security"},
		ir.Source{Path: "farm.csv", Scenario: "Scenario_Farm"},
	)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "two_sources", dest.data)
}

func TestConvert_RotationPermutation(t *testing.T) {
	files := testutil.MemOpener{"a.csv": testutil.CSV(
		testutil.MeshRow("/Game/SM_A.SM_A", 1, 1, 1).WithRotation(1, 2, 3),
	)}

	res, dest, _ := convert(t, files, ir.Options{}, ir.Source{Path: "a.csv", Scenario: "S"})

	require.Len(t, res.Entries, 1)
	assert.Equal(t, ir.Vec3{3, 1, 2}, res.Entries[0].Rotation)
	assert.Contains(t, string(dest.data), "Rotation=3;1;2)")
}

func TestConvert_OriginAlwaysExcluded(t *testing.T) {
	// Origin rows are excluded whatever else they contain, including rows
	// that would otherwise be included or filtered.
	files := testutil.MemOpener{"a.csv": testutil.CSV(
		testutil.MeshRow("/Game/SM_A.SM_A", 0, 0, 0),
		testutil.MeshRow("/Game/SM_A.SM_A", 0.4, -0.4, 0.5),
		testutil.BlueprintRow("/Game/Blueprints/BP_A.BP_A", -0.5, 0, 0.2),
		testutil.MeshRow("/Game/SM_Door.SM_Door", 0, 0, 0),
		testutil.Row{Class: "x", Location: "no location", Rotation: "", Meshes: "StaticMesh'/Game/SM_A.SM_A'"},
	)}

	res, dest, _ := convert(t, files, ir.Options{}, ir.Source{Path: "a.csv", Scenario: "S"})

	total := res.Totals()
	assert.Equal(t, 5, total.SkippedOrigin)
	assert.Equal(t, 0, total.Included())
	assert.Empty(t, res.Meshes)
	assert.Equal(t, "[/CustomObjects/Mutators/CustomObjects.CustomObjects_C]\n", string(dest.data))
}

func TestConvert_IndicesFollowSourceOrder(t *testing.T) {
	files := testutil.MemOpener{
		"a.csv": testutil.CSV(testutil.MeshRow("/Game/SM_A.SM_A", 1, 1, 1)),
		"b.csv": testutil.CSV(testutil.MeshRow("/Game/SM_B.SM_B", 2, 2, 2)),
	}
	a := ir.Source{Path: "a.csv", Scenario: "A"}
	b := ir.Source{Path: "b.csv", Scenario: "B"}

	forward, fwdDest, _ := convert(t, files, ir.Options{}, a, b)
	reversed, revDest, _ := convert(t, files, ir.Options{}, b, a)

	assert.Equal(t, "/Game/SM_A.SM_A", forward.Meshes[0].Path)
	assert.Equal(t, "/Game/SM_B.SM_B", reversed.Meshes[0].Path)
	assert.NotEqual(t, fwdDest.data, revDest.data)

	for _, res := range []*ir.Result{forward, reversed} {
		for _, e := range res.Entries {
			assert.Less(t, e.AssetIndex, len(res.Meshes))
		}
	}
}

func TestConvert_Idempotent(t *testing.T) {
	sources := []ir.Source{
		{Path: "a.csv", Scenario: "Scenario_A"},
		{Path: "b.csv", Scenario: "Scenario_B"},
	}

	_, first, _ := convert(t, twoSourceFiles(), ir.Options{AppendOnce: true}, sources...)
	_, second, _ := convert(t, twoSourceFiles(), ir.Options{AppendOnce: true}, sources...)

	assert.Equal(t, first.data, second.data)
	assert.Equal(t, ir.Digest(first.data), ir.Digest(second.data))
}

func TestConvert_DedupInvariant(t *testing.T) {
	files := testutil.MemOpener{
		"a.csv": testutil.CSV(
			testutil.BlueprintRow("/Game/Blueprints/BP_A.BP_A", 1, 1, 1),
			testutil.BlueprintRow("/Game/Blueprints/BP_B.BP_B", 2, 2, 2),
			testutil.BlueprintRow("/Game/Blueprints/BP_A.BP_A", 3, 3, 3),
			testutil.MeshRow("/Game/SM_A.SM_A", 4, 4, 4),
		),
		"b.csv": testutil.CSV(
			testutil.BlueprintRow("/Game/Blueprints/BP_B.BP_B", 5, 5, 5),
			testutil.MeshRow("/Game/SM_A.SM_A", 6, 6, 6),
		),
	}

	res, _, _ := convert(t, files, ir.Options{},
		ir.Source{Path: "a.csv", Scenario: "A"},
		ir.Source{Path: "b.csv", Scenario: "B"},
	)

	require.Len(t, res.Entries, 6, "placements are never deduplicated")
	assert.Len(t, res.Blueprints, 2)
	assert.Len(t, res.Meshes, 1)

	referenced := map[ir.Kind]map[int]bool{ir.KindBlueprint: {}, ir.KindStaticMesh: {}}
	for _, e := range res.Entries {
		referenced[e.Kind][e.AssetIndex] = true
	}
	for _, k := range ir.Kinds {
		assets := res.Assets(k)
		assert.Len(t, referenced[k], len(assets), "every index is referenced")
		for i, a := range assets {
			assert.Equal(t, i, a.Index)
			assert.True(t, referenced[k][i])
		}
	}

	// Both tables start at 0.
	assert.Equal(t, 0, res.Blueprints[0].Index)
	assert.Equal(t, 0, res.Meshes[0].Index)
	assert.Equal(t, []int{0, 1, 0, 0, 1, 0}, assetIndices(res.Entries))
}

func assetIndices(entries []ir.Entry) []int {
	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.AssetIndex
	}
	return out
}

func TestConvert_SuppressBlueprints(t *testing.T) {
	files := testutil.MemOpener{"a.csv": testutil.CSV(
		testutil.BlueprintRow("/Game/Blueprints/BP_A.BP_A", 1, 1, 1),
		testutil.BlueprintRow("/Game/Game/Actors/Weapons/BP_Rifle.BP_Rifle", 1, 1, 1),
		testutil.MeshRow("/Game/SM_A.SM_A", 2, 2, 2),
	)}

	res, dest, rec := convert(t, files, ir.Options{SuppressBlueprints: true, AppendOnce: true},
		ir.Source{Path: "a.csv", Scenario: "S"})

	assert.Empty(t, res.Blueprints)
	for _, e := range res.Entries {
		assert.Equal(t, ir.KindStaticMesh, e.Kind)
		assert.False(t, e.Once)
	}
	total := res.Totals()
	assert.Equal(t, 2, total.SkippedSuppressed)
	assert.Equal(t, 0, total.SkippedFiltered, "suppression runs before any other filter")
	assert.NotContains(t, string(dest.data), "Blueprint")
	assert.Contains(t, rec.Lines, "  Skipped all blueprints: 2")
}

func TestConvert_OnceOnlyOnBlueprints(t *testing.T) {
	files := testutil.MemOpener{"a.csv": testutil.CSV(
		testutil.BlueprintRow("/Game/Blueprints/BP_A.BP_A", 1, 1, 1),
		testutil.MeshRow("/Game/SM_A.SM_A", 2, 2, 2),
	)}

	res, _, _ := convert(t, files, ir.Options{AppendOnce: true}, ir.Source{Path: "a.csv", Scenario: "S"})
	require.Len(t, res.Entries, 2)
	assert.True(t, res.Entries[0].Once)
	assert.False(t, res.Entries[1].Once)

	res, _, _ = convert(t, files, ir.Options{}, ir.Source{Path: "a.csv", Scenario: "S"})
	assert.False(t, res.Entries[0].Once)
}

func TestConvert_RowErrorsAreRecovered(t *testing.T) {
	files := testutil.MemOpener{"a.csv": testutil.CSV(
		testutil.Row{Class: "x", Location: "X=1.2.3,Y=0,Z=0", Meshes: "StaticMesh'/Game/SM_Bad'"},
		testutil.MeshRow("/Game/SM_A.SM_A", 1, 1, 1),
	)}

	res, _, rec := convert(t, files, ir.Options{}, ir.Source{Path: "a.csv", Scenario: "S"})

	assert.Equal(t, 1, res.Totals().RowErrors)
	assert.Len(t, res.Entries, 1)
	assert.Contains(t, rec.Lines, `  Error processing row 1: invalid X value "1.2.3": strconv.ParseFloat: parsing "1.2.3": invalid syntax`)
	assert.Contains(t, rec.Lines, "  Row content (mesh part): StaticMesh'/Game/SM_Bad'")
}

func TestConvert_ShortRowsDroppedSilently(t *testing.T) {
	files := testutil.MemOpener{"a.csv": testutil.CSV(
		testutil.MeshRow("/Game/SM_A.SM_A", 1, 1, 1).Truncated(5),
		testutil.MeshRow("/Game/SM_B.SM_B", 1, 1, 1),
	)}

	res, _, rec := convert(t, files, ir.Options{}, ir.Source{Path: "a.csv", Scenario: "S"})

	total := res.Totals()
	assert.Equal(t, 2, total.Rows)
	assert.Equal(t, 1, total.Dropped)
	assert.Equal(t, 0, total.RowErrors)
	assert.Equal(t, 0, total.Skipped())
	for _, line := range rec.Lines {
		assert.NotContains(t, line, "row 1")
	}
}

func TestConvert_MissingMeshIsFiltered(t *testing.T) {
	files := testutil.MemOpener{"a.csv": testutil.CSV(
		testutil.Row{Class: "Class'/Script/Engine.PointLight'", Location: testutil.Loc(1, 1, 1), Meshes: "()"},
	)}

	res, _, rec := convert(t, files, ir.Options{}, ir.Source{Path: "a.csv", Scenario: "S"})
	assert.Equal(t, 1, res.Totals().SkippedFiltered)
	assert.Contains(t, rec.Lines, "  Skipping row 1: no static mesh path")
}

func TestConvert_ProblemAssetsReportedOncePerSource(t *testing.T) {
	const problem = "/Game/Environment/Props/Exterior/Street/SM_IndPole_03c.SM_IndPole_03c"
	files := testutil.MemOpener{
		"a.csv": testutil.CSV(
			testutil.MeshRow(problem, 1, 1, 1),
			testutil.MeshRow(problem, 2, 2, 2),
		),
		"b.csv": testutil.CSV(testutil.MeshRow(problem, 3, 3, 3)),
	}

	res, _, rec := convert(t, files, ir.Options{},
		ir.Source{Path: "a.csv", Scenario: "A"},
		ir.Source{Path: "b.csv", Scenario: "B"},
	)

	assert.Equal(t, []string{problem}, res.Sources[0].ProblemAssets)
	assert.Equal(t, []string{problem}, res.Sources[1].ProblemAssets)

	found := 0
	for _, line := range rec.Lines {
		if strings.HasPrefix(line, "  Found and skipped problematic asset:") {
			found++
		}
	}
	assert.Equal(t, 2, found)
	assert.NotContains(t, rec.Lines, "  No known problematic assets were found in this file.")
}

func TestConvert_EveryDecisionIsLogged(t *testing.T) {
	_, _, rec := convert(t, twoSourceFiles(), ir.Options{},
		ir.Source{Path: "a.csv", Scenario: "A"},
		ir.Source{Path: "b.csv", Scenario: "B"},
	)

	assert.Contains(t, rec.Lines, "  Including StaticMesh: /Game/Props/SM_Crate.SM_Crate")
	assert.Contains(t, rec.Lines, "  Skipping row 2: no location or location at origin (0,0,0)")
	assert.Contains(t, rec.Lines, "  Skipping Blueprint /Game/Game/Actors/Weapons/BP_Rifle.BP_Rifle: weapon")
	assert.Contains(t, rec.Lines, "Processing a.csv for scenario A...")
	assert.Contains(t, rec.Lines, "Conversion completed successfully!")
}

func TestConvert_Progress(t *testing.T) {
	files := twoSourceFiles()
	files["c.csv"] = testutil.CSV()
	files["d.csv"] = testutil.CSV()

	_, _, rec := convert(t, files, ir.Options{},
		ir.Source{Path: "a.csv", Scenario: "A"},
		ir.Source{Path: "b.csv", Scenario: "B"},
		ir.Source{Path: "c.csv", Scenario: "C"},
		ir.Source{Path: "d.csv", Scenario: "D"},
	)

	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, rec.Fractions)
}

func TestConvert_SourceReadFailureAbortsJob(t *testing.T) {
	files := twoSourceFiles()
	dest := &memDest{}
	rec := &LogRecorder{}

	res, err := newTestEngine(t, files).Convert(context.Background(), Job{
		Sources: []ir.Source{
			{Path: "a.csv", Scenario: "A"},
			{Path: "missing.csv", Scenario: "M"},
		},
		Destination: dest,
	}, rec)

	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, IsSourceError(err))
	assert.Contains(t, err.Error(), "missing.csv")
	assert.Equal(t, 0, dest.commits, "nothing is written when a source fails")
	assert.Contains(t, rec.Lines[len(rec.Lines)-1], "ERROR:")
}

func TestConvert_EmptySourceIsReadFailure(t *testing.T) {
	files := testutil.MemOpener{"empty.csv": ""}
	_, err := newTestEngine(t, files).Convert(context.Background(), Job{
		Sources:     []ir.Source{{Path: "empty.csv", Scenario: "E"}},
		Destination: &memDest{},
	}, nil)

	assert.True(t, IsSourceError(err))
}

func TestConvert_DestinationFailure(t *testing.T) {
	dest := &memDest{err: errors.New("read-only file system")}

	_, err := newTestEngine(t, twoSourceFiles()).Convert(context.Background(), Job{
		Sources:     []ir.Source{{Path: "a.csv", Scenario: "A"}},
		Destination: dest,
	}, nil)

	require.Error(t, err)
	assert.True(t, IsDestinationError(err))
	assert.Contains(t, err.Error(), "read-only file system")
}

func TestConvert_Preconditions(t *testing.T) {
	eng := newTestEngine(t, twoSourceFiles())
	ctx := context.Background()

	_, err := eng.Convert(ctx, Job{Destination: &memDest{}}, nil)
	assert.ErrorIs(t, err, ErrNoSources)
	assert.True(t, IsPreconditionError(err))

	_, err = eng.Convert(ctx, Job{Sources: []ir.Source{{Path: "a.csv", Scenario: "A"}}}, nil)
	assert.ErrorIs(t, err, ErrNoDestination)

	_, err = eng.Convert(ctx, Job{Sources: []ir.Source{{Path: "a.csv"}}, Destination: &memDest{}}, nil)
	assert.True(t, IsPreconditionError(err))
	assert.Contains(t, err.Error(), "scenario")
}
