package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/customobjects/internal/ir"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = errors.New("run not found")

// Status is the final state of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded conversion.
type Run struct {
	ID               string     `json:"id"`
	StartedAt        time.Time  `json:"started_at"`
	ConverterVersion string     `json:"converter_version"`
	FormatVersion    string     `json:"format_version"`
	Destination      string     `json:"destination"`
	Options          ir.Options `json:"options"`
	Status           Status     `json:"status"`

	// ErrorCode and Error are set for failed runs.
	ErrorCode string `json:"error_code,omitempty"`
	Error     string `json:"error,omitempty"`

	Blueprints   int    `json:"blueprints"`
	StaticMeshes int    `json:"static_meshes"`
	Entries      int    `json:"entries"`
	Digest       string `json:"output_digest,omitempty"`

	// Sources is filled by GetRun only. A failed run lists its sources
	// with zero counts.
	Sources []ir.SourceStats `json:"sources,omitempty"`
}

// SucceededRun builds the record of a finished job.
func SucceededRun(id string, startedAt time.Time, destination string, res *ir.Result, digest string) Run {
	return Run{
		ID:               id,
		StartedAt:        startedAt,
		ConverterVersion: ir.ConverterVersion,
		FormatVersion:    ir.FormatVersion,
		Destination:      destination,
		Options:          res.Options,
		Status:           StatusSucceeded,
		Blueprints:       len(res.Blueprints),
		StaticMeshes:     len(res.Meshes),
		Entries:          len(res.Entries),
		Digest:           digest,
		Sources:          res.Sources,
	}
}

// FailedRun builds the record of a job that produced no output.
func FailedRun(id string, startedAt time.Time, destination string, sources []ir.Source, opts ir.Options, code string, err error) Run {
	stats := make([]ir.SourceStats, len(sources))
	for i, src := range sources {
		stats[i] = ir.SourceStats{Source: src}
	}
	r := Run{
		ID:               id,
		StartedAt:        startedAt,
		ConverterVersion: ir.ConverterVersion,
		FormatVersion:    ir.FormatVersion,
		Destination:      destination,
		Options:          opts,
		Status:           StatusFailed,
		ErrorCode:        code,
		Sources:          stats,
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// WriteRun records a run and its sources in one transaction.
// Writing the same id twice is an error.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	if run.ID == "" {
		return fmt.Errorf("write run: id is required")
	}
	if run.Status != StatusSucceeded && run.Status != StatusFailed {
		return fmt.Errorf("write run: invalid status %q", run.Status)
	}

	optsJSON, err := marshalOptions(run.Options)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, started_at, converter_version, format_version, destination, options,
		 status, error_code, error, blueprints, static_meshes, entries, output_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		formatTime(run.StartedAt),
		run.ConverterVersion,
		run.FormatVersion,
		run.Destination,
		optsJSON,
		string(run.Status),
		run.ErrorCode,
		run.Error,
		run.Blueprints,
		run.StaticMeshes,
		run.Entries,
		run.Digest,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for i, src := range run.Sources {
		assets, err := marshalAssets(src.ProblemAssets)
		if err != nil {
			return fmt.Errorf("write run source %d: %w", i, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_sources
			(run_id, position, path, scenario, rows, dropped, included_blueprint,
			 included_static_mesh, skipped_origin, skipped_suppressed, skipped_filtered,
			 row_errors, problem_assets)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			run.ID,
			i,
			src.Path,
			src.Scenario,
			src.Rows,
			src.Dropped,
			src.IncludedBlueprint,
			src.IncludedStaticMesh,
			src.SkippedOrigin,
			src.SkippedSuppressed,
			src.SkippedFiltered,
			src.RowErrors,
			assets,
		)
		if err != nil {
			return fmt.Errorf("write run source %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first, without their sources.
// A limit <= 0 returns every run.
//
// Returns an empty slice (not nil) when no runs are recorded.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, converter_version, format_version, destination, options,
		       status, error_code, error, blueprints, static_meshes, entries, output_digest
		FROM runs
		ORDER BY started_at DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run with its sources in job order.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, converter_version, format_version, destination, options,
		       status, error_code, error, blueprints, static_meshes, entries, output_digest
		FROM runs
		WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	run.Sources, err = s.readRunSources(ctx, id)
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

func (s *Store) readRunSources(ctx context.Context, id string) ([]ir.SourceStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, scenario, rows, dropped, included_blueprint, included_static_mesh,
		       skipped_origin, skipped_suppressed, skipped_filtered, row_errors, problem_assets
		FROM run_sources
		WHERE run_id = ?
		ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query run sources: %w", err)
	}
	defer rows.Close()

	var stats []ir.SourceStats
	for rows.Next() {
		var st ir.SourceStats
		var assets string
		if err := rows.Scan(
			&st.Path,
			&st.Scenario,
			&st.Rows,
			&st.Dropped,
			&st.IncludedBlueprint,
			&st.IncludedStaticMesh,
			&st.SkippedOrigin,
			&st.SkippedSuppressed,
			&st.SkippedFiltered,
			&st.RowErrors,
			&assets,
		); err != nil {
			return nil, fmt.Errorf("scan run source: %w", err)
		}
		if st.ProblemAssets, err = unmarshalAssets(assets); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run sources: %w", err)
	}
	return stats, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var started, opts, status string
	err := sc.Scan(
		&run.ID,
		&started,
		&run.ConverterVersion,
		&run.FormatVersion,
		&run.Destination,
		&opts,
		&status,
		&run.ErrorCode,
		&run.Error,
		&run.Blueprints,
		&run.StaticMeshes,
		&run.Entries,
		&run.Digest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}

	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.Options, err = unmarshalOptions(opts); err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	return run, nil
}
