package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/customobjects/internal/rules"
)

// RulesOptions holds flags for the rules command.
type RulesOptions struct {
	*RootOptions
	Rules string
}

// RulesResult is the JSON payload of the rules command.
type RulesResult struct {
	Origin string       `json:"origin"`
	Count  int          `json:"count"`
	Rules  []rules.Rule `json:"rules"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RulesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show the skip-rule table",
		Long: `Show the skip rules the converter applies, grouped by stage in
evaluation order. With --rules, the given CUE table is compiled and shown
instead of the built-in one, which makes this a quick check of a table
before using it with convert.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRules(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Rules, "rules", "", "CUE rule table to show instead of the built-in one")

	return cmd
}

func runRules(opts *RulesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	set, err := LoadRules(opts.Rules)
	if err != nil {
		return outputInputError(formatter, ErrCodeRules, err)
	}

	if opts.Format == "json" {
		return formatter.Success(RulesResult{
			Origin: set.Origin(),
			Count:  len(set.All()),
			Rules:  set.All(),
		})
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Rule table: %s (%d rules)\n", set.Origin(), len(set.All()))
	for _, stage := range rules.Stages {
		stageRules := set.Stage(stage)
		fmt.Fprintf(w, "\n%s (%d)\n", stage, len(stageRules))

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, r := range stageRules {
			fmt.Fprintf(tw, "  %s\t%s\n", r.Pattern, r.Reason)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}
