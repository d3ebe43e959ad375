package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/customobjects/internal/store"
)

// HistoryOptions holds flags for the history command and its subcommands.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded conversion runs",
		Long: `List conversion runs recorded with convert --db, newest first.

Each run records its options, per-export counts, destination and the digest
of the config block it wrote. Use "history show <run-id>" for the per-export
breakdown.

Examples:
  customobjects history --db history.db
  customobjects history --db history.db --limit 5 --format json
  customobjects history show 0192f3c4-5a8e-7b21-9c3d-2e4f6a7b8c9d --db history.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(opts, cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite history (default $CUSTOMOBJECTS_DB)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")

	cmd.AddCommand(&cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show one recorded run",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(opts, args[0], cmd)
		},
	})

	return cmd
}

// openHistory opens an existing history database. Unlike convert, reading
// never creates one.
func (o *HistoryOptions) openHistory() (*store.Store, error) {
	path := o.Database
	if path == "" {
		path = o.Env.DB
	}
	if path == "" {
		return nil, &InputError{Code: ErrCodeInvalidArgs, Message: "no database: pass --db or set CUSTOMOBJECTS_DB"}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &InputError{Code: ErrCodeNotFound, Message: fmt.Sprintf("history database not found: %s", path)}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, inputError(ErrCodeHistory, err)
	}
	return st, nil
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := opts.openHistory()
	if err != nil {
		return outputInputError(formatter, ErrCodeHistory, err)
	}
	defer st.Close()

	runs, err := st.ListRuns(commandContext(cmd), opts.Limit)
	if err != nil {
		return outputInputError(formatter, ErrCodeHistory, err)
	}

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tBLUEPRINTS\tSTATIC MESHES\tENTRIES\tDESTINATION")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status,
			r.Blueprints, r.StaticMeshes, r.Entries, r.Destination)
	}
	return tw.Flush()
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := opts.openHistory()
	if err != nil {
		return outputInputError(formatter, ErrCodeHistory, err)
	}
	defer st.Close()

	run, err := st.GetRun(commandContext(cmd), id)
	if errors.Is(err, store.ErrRunNotFound) {
		return outputInputError(formatter, ErrCodeNotFound, &InputError{Code: ErrCodeNotFound, Message: err.Error()})
	}
	if err != nil {
		return outputInputError(formatter, ErrCodeHistory, err)
	}

	if opts.Format == "json" {
		return formatter.Success(run)
	}
	return printRun(cmd.OutOrStdout(), run, opts.Verbose)
}

func printRun(w io.Writer, run store.Run, verbose bool) error {
	fmt.Fprintf(w, "Run:         %s\n", run.ID)
	fmt.Fprintf(w, "Started:     %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(w, "Status:      %s\n", run.Status)
	if run.Status == store.StatusFailed {
		fmt.Fprintf(w, "Error:       [%s] %s\n", run.ErrorCode, run.Error)
	}
	fmt.Fprintf(w, "Destination: %s\n", run.Destination)
	fmt.Fprintf(w, "Options:     once=%t no-blueprints=%t\n", run.Options.AppendOnce, run.Options.SuppressBlueprints)
	fmt.Fprintf(w, "Converter:   %s (format %s)\n", run.ConverterVersion, run.FormatVersion)
	if run.Digest != "" {
		fmt.Fprintf(w, "Digest:      %s\n", run.Digest)
	}
	fmt.Fprintf(w, "Assets:      %d blueprint, %d static mesh; %d entries\n", run.Blueprints, run.StaticMeshes, run.Entries)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSCENARIO\tROWS\tINCLUDED\tORIGIN\tFILTERED\tSUPPRESSED\tERRORS")
	for _, s := range run.Sources {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			s.Path, s.Scenario, s.Rows, s.Included(), s.SkippedOrigin, s.SkippedFiltered, s.SkippedSuppressed, s.RowErrors)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if verbose {
		for _, s := range run.Sources {
			for _, p := range s.ProblemAssets {
				fmt.Fprintf(w, "  %s: problematic asset skipped: %s\n", s.Scenario, p)
			}
		}
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
