package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/roach88/customobjects/internal/extract"
	"github.com/roach88/customobjects/internal/ir"
	"github.com/roach88/customobjects/internal/render"
	"github.com/roach88/customobjects/internal/rules"
	"github.com/roach88/customobjects/internal/sink"
	"github.com/roach88/customobjects/internal/source"
)

// Job is one conversion request.
type Job struct {
	Sources     []ir.Source
	Options     ir.Options
	Destination sink.Destination
}

// Engine converts exports into a config block.
//
// An Engine holds no per-job state and may run several jobs one after the
// other. Index tables and entries are created per job inside Convert.
type Engine struct {
	opener     source.Opener
	classifier *Classifier
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine reading exports through opener and filtering with set.
func New(opener source.Opener, set *rules.Set, opts ...Option) *Engine {
	e := &Engine{
		opener:     opener,
		classifier: NewClassifier(set),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Validate checks job preconditions without doing any I/O.
func Validate(job Job) error {
	if len(job.Sources) == 0 {
		return ErrNoSources
	}
	if job.Destination == nil {
		return ErrNoDestination
	}
	for i, src := range job.Sources {
		if src.Path == "" {
			return &JobError{Code: ErrCodePrecondition, Message: fmt.Sprintf("source %d has no path", i+1)}
		}
		if src.Scenario == "" {
			return &JobError{Code: ErrCodePrecondition, Message: fmt.Sprintf("source %d has no scenario label", i+1), Source: src.Path}
		}
	}
	return nil
}

// Convert runs a job to completion on the calling goroutine.
//
// Sources are processed strictly in order, rows in file order. Row-level
// problems are logged and skipped; a source that cannot be read or a
// destination that cannot be written fails the whole job. The output is
// rendered after every source has been consumed and committed in one call.
//
// ctx is passed to source I/O only; a job is not cancelled between rows.
func (e *Engine) Convert(ctx context.Context, job Job, obs Observer) (*ir.Result, error) {
	if err := Validate(job); err != nil {
		return nil, err
	}
	if obs == nil {
		obs = nopObserver{}
	}

	r := &run{
		engine:  e,
		obs:     obs,
		opts:    job.Options,
		index:   NewIndexTable(),
		entries: make([]ir.Entry, 0, 256),
	}

	e.logger.Info("conversion starting", "sources", len(job.Sources), "destination", job.Destination.Name())
	obs.Log("Starting conversion...")
	obs.Progress(0)

	stats := make([]ir.SourceStats, 0, len(job.Sources))
	for i, src := range job.Sources {
		s, err := r.convertSource(ctx, src)
		if err != nil {
			e.logger.Error("conversion failed", "source", src.Path, "error", err)
			obs.Log(fmt.Sprintf("ERROR: %v", err))
			return nil, err
		}
		stats = append(stats, s)
		obs.Progress(float64(i+1) / float64(len(job.Sources)))
	}

	res := &ir.Result{
		Blueprints: r.index.Sorted(ir.KindBlueprint),
		Meshes:     r.index.Sorted(ir.KindStaticMesh),
		Entries:    r.entries,
		Sources:    stats,
		Options:    job.Options,
	}

	obs.Log(fmt.Sprintf("Total unique assets: %d", len(res.Blueprints)+len(res.Meshes)))
	obs.Log(fmt.Sprintf("  Blueprint assets: %d", len(res.Blueprints)))
	obs.Log(fmt.Sprintf("  Static mesh assets: %d", len(res.Meshes)))
	obs.Log(fmt.Sprintf("Total configuration entries: %d", len(res.Entries)))

	if err := job.Destination.Commit(render.Bytes(res)); err != nil {
		derr := newDestinationError(job.Destination.Name(), err)
		e.logger.Error("conversion failed", "destination", job.Destination.Name(), "error", err)
		obs.Log(fmt.Sprintf("ERROR: %v", derr))
		return nil, derr
	}

	obs.Log(fmt.Sprintf("Output written to %s", job.Destination.Name()))
	obs.Log("Conversion completed successfully!")
	e.logger.Info("conversion complete",
		"blueprints", len(res.Blueprints),
		"static_meshes", len(res.Meshes),
		"entries", len(res.Entries))

	return res, nil
}

// run is the state owned by one job.
type run struct {
	engine  *Engine
	obs     Observer
	opts    ir.Options
	index   *IndexTable
	entries []ir.Entry
}

func (r *run) convertSource(ctx context.Context, src ir.Source) (ir.SourceStats, error) {
	stats := ir.SourceStats{Source: src}
	logger := r.engine.logger.With("source", src.Path, "scenario", src.Scenario)

	r.obs.Log(fmt.Sprintf("Processing %s for scenario %s...", filepath.Base(src.Path), src.Scenario))

	rc, err := r.engine.opener.Open(ctx, src.Path)
	if err != nil {
		return stats, newSourceError(src.Path, err)
	}
	defer rc.Close()

	reader, err := source.NewReader(rc)
	if err != nil {
		return stats, newSourceError(src.Path, err)
	}

	seenProblems := make(map[string]bool)
	for {
		rowNum, record, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, newSourceError(src.Path, err)
		}
		stats.Rows++

		if len(record) < extract.MinFields {
			stats.Dropped++
			continue
		}

		fields, err := extract.Row(record)
		if err != nil {
			stats.RowErrors++
			logger.Warn("row skipped", "row", rowNum, "error", err)
			r.obs.Log(fmt.Sprintf("  Error processing row %d: %v", rowNum, err))
			r.obs.Log(fmt.Sprintf("  Row content (mesh part): %s", record[extract.FieldMeshes]))
			continue
		}

		d := r.engine.classifier.Classify(fields, r.opts)
		logger.Debug("row classified", "row", rowNum, "outcome", d.Outcome.String(), "path", d.Path)

		switch d.Outcome {
		case Included:
			idx := r.index.GetOrAssign(d.Kind, d.Path)
			r.entries = append(r.entries, buildEntry(src.Scenario, d.Kind, idx, *fields.Location, fields.Rotation, r.opts))
			if d.Kind == ir.KindBlueprint {
				stats.IncludedBlueprint++
			} else {
				stats.IncludedStaticMesh++
			}
			r.obs.Log(fmt.Sprintf("  Including %s: %s", d.Kind, d.Path))

		case SkippedOrigin:
			stats.SkippedOrigin++
			r.obs.Log(fmt.Sprintf("  Skipping row %d: %s", rowNum, d.Reason))

		case SkippedSuppressed:
			stats.SkippedSuppressed++
			r.obs.Log(fmt.Sprintf("  Skipping %s %s: %s", d.Kind, d.Path, d.Reason))

		case SkippedFiltered:
			stats.SkippedFiltered++
			if d.Path == "" {
				r.obs.Log(fmt.Sprintf("  Skipping row %d: %s", rowNum, d.Reason))
			} else {
				r.obs.Log(fmt.Sprintf("  Skipping %s %s: %s", d.Kind, d.Path, d.Reason))
			}
			if d.ProblemMesh && !seenProblems[d.Path] {
				seenProblems[d.Path] = true
				stats.ProblemAssets = append(stats.ProblemAssets, d.Path)
				r.obs.Log(fmt.Sprintf("  Found and skipped problematic asset: %s", d.Path))
			}
		}
	}

	r.obs.Log(fmt.Sprintf("  Skipped problematic assets: %d", stats.SkippedFiltered))
	if r.opts.SuppressBlueprints {
		r.obs.Log(fmt.Sprintf("  Skipped all blueprints: %d", stats.SkippedSuppressed))
	}
	r.obs.Log(fmt.Sprintf("  Skipped objects at origin (0,0,0): %d", stats.SkippedOrigin))
	r.obs.Log(fmt.Sprintf("  Included assets: %d (StaticMesh: %d, Blueprint: %d)",
		stats.Included(), stats.IncludedStaticMesh, stats.IncludedBlueprint))
	if len(stats.ProblemAssets) == 0 {
		r.obs.Log("  No known problematic assets were found in this file.")
	}

	logger.Info("source converted",
		"rows", stats.Rows,
		"included", stats.Included(),
		"skipped", stats.Skipped(),
		"row_errors", stats.RowErrors)

	return stats, nil
}
