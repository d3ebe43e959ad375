package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/customobjects/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Env is read from CUSTOMOBJECTS_* variables before any subcommand runs.
	Env config.Env

	// Logger overrides the structured logger (for testing).
	// If nil, one is built from Env on first use.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the customobjects CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "customobjects",
		Short: "customobjects - level export to mutator config converter",
		Long: `Convert level-editor actor exports (CSV) into the CustomObjects mutator
config block. Assets are deduplicated across every export of a job and each
placement becomes one Configs entry tagged with its scenario.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}

			env, err := config.Load()
			if err != nil {
				_ = newFormatter(opts, cmd).Error(ErrCodeConfig, err.Error(), nil)
				return WrapExitError(ExitCommandError, ErrCodeConfig+": invalid environment", err)
			}
			opts.Env = env
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// logger returns the structured logger, writing to w when built here.
// --verbose forces debug level.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	level := o.Env.LogLevel
	if level == "" {
		level = "warn"
	}
	if o.Verbose {
		level = "debug"
	}
	o.Logger = config.NewLogger(level, o.Env.LogFormat, w)
	return o.Logger
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
