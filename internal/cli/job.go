package cli

import (
	"fmt"
	"strings"

	"github.com/roach88/customobjects/internal/engine"
	"github.com/roach88/customobjects/internal/ir"
	"github.com/roach88/customobjects/internal/manifest"
	"github.com/roach88/customobjects/internal/rules"
	"github.com/roach88/customobjects/internal/sink"
)

// ParseSourceArg parses "path" or "path=scenario". Without a scenario the
// label is derived from the file name. Only an "=" after the last path
// separator splits, so directories such as "date=2024-01-01/" stay in the
// path.
func ParseSourceArg(arg string) (ir.Source, error) {
	path, scenario := arg, ""
	if i := strings.LastIndex(arg, "="); i >= 0 && i > strings.LastIndexAny(arg, `/\`) {
		path, scenario = arg[:i], arg[i+1:]
	}
	if path == "" {
		return ir.Source{}, &InputError{Code: ErrCodeInvalidArgs, Message: fmt.Sprintf("source %q has no path", arg)}
	}
	if scenario == "" {
		scenario = ir.DefaultScenario(path)
	}
	return ir.Source{Path: path, Scenario: scenario}, nil
}

// LoadRules returns the built-in rule table, or compiles path when set.
func LoadRules(path string) (*rules.Set, error) {
	if path == "" {
		set, err := rules.Default()
		if err != nil {
			return nil, inputError(ErrCodeRules, err)
		}
		return set, nil
	}
	set, err := rules.Load(path)
	if err != nil {
		return nil, inputError(ErrCodeRules, err)
	}
	return set, nil
}

// jobInputs is everything convert needs besides the rule table.
type jobInputs struct {
	Sources []ir.Source
	Options ir.Options
	Output  string
}

// job returns an engine job writing to dest.
func (in jobInputs) job(dest sink.Destination) engine.Job {
	return engine.Job{Sources: in.Sources, Options: in.Options, Destination: dest}
}

// buildInputs merges the manifest (if any), positional sources and flags.
// Manifest sources come first. Flags override manifest options only when
// set explicitly.
func (o *ConvertOptions) buildInputs(args []string, changed func(string) bool) (jobInputs, error) {
	in := jobInputs{Options: ir.Options{AppendOnce: true}}

	if o.Manifest != "" {
		m, err := manifest.Load(o.Manifest)
		if err != nil {
			return jobInputs{}, inputError(ErrCodeManifest, err)
		}
		in.Sources = append(in.Sources, m.Sources...)
		in.Options = m.Options
		in.Output = m.Output
	}

	for _, arg := range args {
		src, err := ParseSourceArg(arg)
		if err != nil {
			return jobInputs{}, err
		}
		in.Sources = append(in.Sources, src)
	}
	if len(in.Sources) == 0 {
		return jobInputs{}, &InputError{Code: ErrCodeInvalidArgs, Message: "no sources: pass export files or --manifest"}
	}

	if changed("once") {
		in.Options.AppendOnce = o.Once
	}
	if changed("no-blueprints") {
		in.Options.SuppressBlueprints = o.NoBlueprints
	}

	if o.Output != "" {
		in.Output = o.Output
	}
	if in.Output == "" {
		return jobInputs{}, &InputError{Code: ErrCodeInvalidArgs, Message: "no output: pass --output or set output in the manifest"}
	}

	return in, nil
}
