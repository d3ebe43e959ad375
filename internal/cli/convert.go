package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/customobjects/internal/engine"
	"github.com/roach88/customobjects/internal/ir"
	"github.com/roach88/customobjects/internal/metrics"
	"github.com/roach88/customobjects/internal/render"
	"github.com/roach88/customobjects/internal/sink"
	"github.com/roach88/customobjects/internal/source"
	"github.com/roach88/customobjects/internal/store"
)

// StdoutOutput as --output writes the config block to stdout. Log lines
// then go to stderr.
const StdoutOutput = "-"

// ConvertOptions holds flags for the convert command.
type ConvertOptions struct {
	*RootOptions
	Output       string
	Manifest     string
	Once         bool
	NoBlueprints bool
	Rules        string
	Database     string
	MetricsFile  string

	// Opener overrides how exports are opened (for testing).
	// If nil, local files and s3:// URIs are supported.
	Opener source.Opener

	// NewRunID overrides run id generation (for testing).
	// If nil, defaults to UUIDv7.
	NewRunID func() (string, error)

	// Now overrides the clock (for testing).
	Now func() time.Time
}

// ConvertResult is the JSON payload of a successful conversion.
type ConvertResult struct {
	RunID        string           `json:"run_id"`
	Output       string           `json:"output"`
	Digest       string           `json:"output_digest"`
	Blueprints   int              `json:"blueprints"`
	StaticMeshes int              `json:"static_meshes"`
	Entries      int              `json:"entries"`
	Totals       ir.Counts        `json:"totals"`
	Sources      []ir.SourceStats `json:"sources"`
	Recorded     bool             `json:"recorded"`
	Log          []string         `json:"log"`
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	return newConvertCommand(&ConvertOptions{RootOptions: rootOpts})
}

// newConvertCommand binds the convert flags to opts.
func newConvertCommand(opts *ConvertOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [export.csv[=scenario]...]",
		Short: "Convert level exports into a CustomObjects config block",
		Long: `Convert one or more level-editor actor exports into the CustomObjects
mutator config block.

Exports are processed in order; asset indices follow first appearance across
all of them, so reordering exports changes the output. Each export gets a
scenario label, by default Scenario_<file name>. Exports may be local paths
or s3://bucket/key URIs.

A manifest can list the exports, options and output instead. Its exports
come before any given on the command line, and explicit flags override its
options.

Examples:
  customobjects convert Precinct.csv=Scenario_Precinct_Push_Security Farm.csv -o CustomObjects.ini
  customobjects convert --manifest job.yaml --db history.db
  customobjects convert Farm.csv --no-blueprints --once=false -o - --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", `output file, or "-" for stdout`)
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "YAML job manifest")
	cmd.Flags().BoolVar(&opts.Once, "once", true, "mark blueprint entries with Once")
	cmd.Flags().BoolVar(&opts.NoBlueprints, "no-blueprints", false, "skip every blueprint actor")
	cmd.Flags().StringVar(&opts.Rules, "rules", "", "CUE rule table replacing the built-in one")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite history (default $CUSTOMOBJECTS_DB)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")

	return cmd
}

func runConvert(opts *ConvertOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := commandContext(cmd)

	in, err := opts.buildInputs(args, cmd.Flags().Changed)
	if err != nil {
		return outputInputError(formatter, ErrCodeInvalidArgs, err)
	}

	set, err := LoadRules(opts.Rules)
	if err != nil {
		return outputInputError(formatter, ErrCodeRules, err)
	}
	formatter.VerboseLog("Rule table: %s (%d rules)", set.Origin(), len(set.All()))

	opener, err := opts.opener(ctx, in.Sources)
	if err != nil {
		return outputInputError(formatter, ErrCodeConfig, err)
	}

	runID, err := opts.runID()
	if err != nil {
		return outputInputError(formatter, ErrCodeGeneric, err)
	}
	formatter.RunID = runID

	// With the block on stdout, progress lines move to stderr.
	var dest sink.Destination = sink.NewFile(in.Output)
	logW := cmd.OutOrStdout()
	if in.Output == StdoutOutput {
		dest = sink.NewWriter(cmd.OutOrStdout(), "<stdout>")
		logW = cmd.ErrOrStderr()
		formatter.Writer = cmd.ErrOrStderr()
	}

	logger := opts.logger(cmd.ErrOrStderr()).With("run_id", runID)
	eng := engine.New(opener, set, engine.WithLogger(logger))

	started := opts.now()
	task := eng.Start(ctx, in.job(dest))

	var lines []string
	for ev := range task.Events() {
		switch ev.Type {
		case engine.EventLog:
			lines = append(lines, ev.Message)
			if opts.Format != "json" {
				fmt.Fprintln(logW, ev.Message)
			}
		case engine.EventProgress:
			formatter.VerboseLog("Progress: %.0f%%", ev.Progress*100)
		}
	}
	res, convErr := task.Wait()
	elapsed := opts.now().Sub(started)

	var digest string
	var run store.Run
	if convErr == nil {
		digest = ir.Digest(render.Bytes(res))
		run = store.SucceededRun(runID, started, dest.Name(), res, digest)
	} else {
		run = store.FailedRun(runID, started, dest.Name(), in.Sources, in.Options, failureCode(convErr), convErr)
	}

	recorded, recordErr := opts.record(ctx, run, logger)
	metricsErr := opts.writeMetrics(res, convErr, elapsed, started.Add(elapsed))

	if convErr != nil {
		if recordErr != nil {
			logger.Warn("failed run not recorded", "error", recordErr)
		}
		if metricsErr != nil {
			logger.Warn("metrics not written", "error", metricsErr)
		}
		code, exit := jobErrorCode(convErr)
		if opts.Format == "json" {
			_ = formatter.Fail(code, convErr.Error(), map[string]interface{}{"log": lines})
		} else {
			_ = formatter.Error(code, convErr.Error(), nil)
		}
		return WrapExitError(exit, code+": conversion failed", convErr)
	}
	if recordErr != nil {
		return outputInputError(formatter, ErrCodeHistory, recordErr)
	}
	if metricsErr != nil {
		return outputInputError(formatter, ErrCodeWriteFailed, metricsErr)
	}

	if opts.Format == "json" {
		if lines == nil {
			lines = []string{}
		}
		return formatter.Success(ConvertResult{
			RunID:        runID,
			Output:       dest.Name(),
			Digest:       digest,
			Blueprints:   len(res.Blueprints),
			StaticMeshes: len(res.Meshes),
			Entries:      len(res.Entries),
			Totals:       res.Totals(),
			Sources:      res.Sources,
			Recorded:     recorded,
			Log:          lines,
		})
	}

	fmt.Fprintf(logW, "Output digest: %s\n", digest)
	if recorded {
		fmt.Fprintf(logW, "Run recorded: %s\n", runID)
	}
	return nil
}

// opener supports local files always and s3:// URIs when a job has any.
func (o *ConvertOptions) opener(ctx context.Context, sources []ir.Source) (source.Opener, error) {
	if o.Opener != nil {
		return o.Opener, nil
	}
	for _, src := range sources {
		if source.IsS3(src.Path) {
			client, err := source.NewS3Client(ctx, o.Env.S3())
			if err != nil {
				return nil, err
			}
			return source.NewMux(source.NewS3Opener(client)), nil
		}
	}
	return source.NewMux(nil), nil
}

func (o *ConvertOptions) runID() (string, error) {
	if o.NewRunID != nil {
		return o.NewRunID()
	}
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id.String(), nil
}

func (o *ConvertOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *ConvertOptions) database() string {
	if o.Database != "" {
		return o.Database
	}
	return o.Env.DB
}

// record writes run to the history database, if one is configured.
func (o *ConvertOptions) record(ctx context.Context, run store.Run, logger *slog.Logger) (bool, error) {
	path := o.database()
	if path == "" {
		return false, nil
	}

	st, err := store.Open(path)
	if err != nil {
		return false, fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	if err := st.WriteRun(ctx, run); err != nil {
		return false, err
	}
	logger.Info("run recorded", "db", path, "status", run.Status)
	return true, nil
}

// writeMetrics writes the metrics textfile, if one is configured.
func (o *ConvertOptions) writeMetrics(res *ir.Result, convErr error, elapsed time.Duration, finished time.Time) error {
	if o.MetricsFile == "" {
		return nil
	}
	rec := metrics.NewRecorder()
	if convErr != nil {
		rec.RecordFailure(elapsed)
	} else {
		rec.RecordSuccess(res, elapsed, finished)
	}
	if err := rec.WriteTextfile(o.MetricsFile); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// failureCode is the engine error code stored in history.
func failureCode(err error) string {
	var je *engine.JobError
	if errors.As(err, &je) {
		return string(je.Code)
	}
	return ErrCodeGeneric
}
