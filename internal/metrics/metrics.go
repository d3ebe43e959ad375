// Package metrics exposes conversion counters in the Prometheus text format.
//
// The converter is a batch tool, so nothing is served over HTTP. A Recorder
// collects one or more runs into its own registry and writes a textfile
// for the node exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/roach88/customobjects/internal/ir"
)

// Row outcome label values.
const (
	OutcomeIncluded          = "included"
	OutcomeSkippedOrigin     = "skipped_origin"
	OutcomeSkippedSuppressed = "skipped_suppressed"
	OutcomeSkippedFiltered   = "skipped_filtered"
	OutcomeRowError          = "row_error"
	OutcomeDropped           = "dropped"
)

// Recorder records conversion runs.
type Recorder struct {
	reg *prometheus.Registry

	runs          *prometheus.CounterVec
	rows          *prometheus.CounterVec
	assets        *prometheus.GaugeVec
	entries       prometheus.Gauge
	problemAssets *prometheus.CounterVec
	duration      prometheus.Histogram
	lastSuccess   prometheus.Gauge
}

// NewRecorder creates a Recorder with a private registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Recorder{
		reg: reg,
		runs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customobjects_runs_total",
				Help: "Total number of conversion runs",
			},
			[]string{"status"},
		),
		rows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customobjects_rows_total",
				Help: "Export rows processed, by scenario and outcome",
			},
			[]string{"scenario", "outcome"},
		),
		assets: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "customobjects_assets",
				Help: "Distinct assets declared by the last successful run",
			},
			[]string{"kind"},
		),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Name: "customobjects_entries",
			Help: "Config entries written by the last successful run",
		}),
		problemAssets: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "customobjects_problem_assets_total",
				Help: "Known problematic assets found and skipped, by scenario",
			},
			[]string{"scenario"},
		),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "customobjects_run_duration_seconds",
			Help:    "Wall time of conversion runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Name: "customobjects_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}
}

// Registry returns the registry holding every metric of the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// RecordSuccess records a finished run.
func (r *Recorder) RecordSuccess(res *ir.Result, duration time.Duration, finished time.Time) {
	r.runs.WithLabelValues("succeeded").Inc()
	r.duration.Observe(duration.Seconds())
	r.lastSuccess.Set(float64(finished.Unix()))

	r.assets.WithLabelValues(ir.KindBlueprint.String()).Set(float64(len(res.Blueprints)))
	r.assets.WithLabelValues(ir.KindStaticMesh.String()).Set(float64(len(res.Meshes)))
	r.entries.Set(float64(len(res.Entries)))

	for _, src := range res.Sources {
		add := func(outcome string, n int) {
			r.rows.WithLabelValues(src.Scenario, outcome).Add(float64(n))
		}
		add(OutcomeIncluded, src.Included())
		add(OutcomeSkippedOrigin, src.SkippedOrigin)
		add(OutcomeSkippedSuppressed, src.SkippedSuppressed)
		add(OutcomeSkippedFiltered, src.SkippedFiltered)
		add(OutcomeRowError, src.RowErrors)
		add(OutcomeDropped, src.Dropped)

		r.problemAssets.WithLabelValues(src.Scenario).Add(float64(len(src.ProblemAssets)))
	}
}

// RecordFailure records a run that produced no output.
func (r *Recorder) RecordFailure(duration time.Duration) {
	r.runs.WithLabelValues("failed").Inc()
	r.duration.Observe(duration.Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
