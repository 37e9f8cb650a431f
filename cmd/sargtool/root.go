package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/harshithgowdakt/orcsarg/internal/config"
	"github.com/harshithgowdakt/orcsarg/internal/encoded"
	"github.com/harshithgowdakt/orcsarg/internal/predicate"
	"github.com/harshithgowdakt/orcsarg/internal/sarg"
	"github.com/harshithgowdakt/orcsarg/internal/scan"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// app holds the state shared by every command of one invocation.
type app struct {
	cfg          *config.Config
	configPath   string
	printMetrics bool

	logger       log.Logger
	reg          *prometheus.Registry
	sargMetrics  *sarg.Metrics
	cacheMetrics *encoded.Metrics
	scanMetrics  *scan.Metrics
}

func newRootCommand() *cobra.Command {
	a := &app{cfg: config.Default()}
	root := &cobra.Command{
		Use:   "sargtool [command]",
		Short: "build and evaluate ORC search arguments",
		Long: `
  Compiles YAML predicates or SQL WHERE clauses into search arguments in conjunctive normal form
  and evaluates them against the row index statistics of files to decide
  which row groups have to be read.
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.printMetrics {
				return a.writeMetrics(cmd.ErrOrStderr())
			}
			return nil
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file; flags take precedence.")
	pf.BoolVar(&a.printMetrics, "metrics", false, "Print the collected metrics to stderr on exit.")
	a.cfg.RegisterFlags(pf)

	root.AddCommand(
		a.explainCommand(),
		a.scanCommand(),
		a.indexCommand(),
		a.dumpCommand(),
		a.compressCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if err := a.cfg.Apply(a.configPath, cmd.Flags()); err != nil {
		return err
	}
	logger, err := config.NewLogger(cmd.ErrOrStderr(), a.cfg.Log)
	if err != nil {
		return err
	}
	a.logger = log.With(logger, "cmd", cmd.Name())
	a.reg = prometheus.NewRegistry()
	a.sargMetrics = sarg.NewMetrics(a.reg)
	a.cacheMetrics = encoded.NewMetrics(a.reg)
	a.scanMetrics = scan.NewMetrics(a.reg)
	return nil
}

func (a *app) builderOptions() []sarg.BuilderOption {
	return append(a.cfg.SARG.BuilderOptions(),
		sarg.WithLogger(log.With(a.logger, "component", "sarg")),
		sarg.WithMetrics(a.sargMetrics),
	)
}

// sargSource names where a command reads its search argument from.
type sargSource struct {
	predicatePath string
	sargPath      string
	where         string
	schema        map[string]string
}

func (src *sargSource) registerFlags(f *pflag.FlagSet) {
	f.StringVar(&src.predicatePath, "predicate", "", "YAML predicate file.")
	f.StringVar(&src.sargPath, "sarg", "", "Serialized search argument (JSON).")
	f.StringVar(&src.where, "where", "", "SQL WHERE clause, e.g. \"x < 10 AND NOT y IN ('a','b')\".")
	f.StringToStringVar(&src.schema, "schema", nil, "Column types for --where, e.g. x=LONG,y=STRING.")
}

// columns merges the --schema types over the given column types.
func (src *sargSource) columns(known map[string]types.DataType) (map[string]types.DataType, error) {
	out := make(map[string]types.DataType, len(known)+len(src.schema))
	for col, dt := range known {
		out[col] = dt
	}
	for col, name := range src.schema {
		dt, err := types.ParseDataType(name)
		if err != nil {
			return nil, errors.Wrapf(err, "--schema %s", col)
		}
		out[col] = dt
	}
	return out, nil
}

// loadSearchArgument compiles a YAML predicate or a WHERE clause, or
// decodes a serialized search argument, whichever one is set. known gives
// the column types a WHERE clause may refer to besides --schema.
func (a *app) loadSearchArgument(src sargSource, known map[string]types.DataType) (*sarg.SearchArgument, error) {
	set := 0
	for _, v := range []string{src.predicatePath, src.sargPath, src.where} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("--predicate, --sarg and --where are mutually exclusive")
	}
	switch {
	case src.predicatePath != "":
		data, err := os.ReadFile(src.predicatePath)
		if err != nil {
			return nil, errors.Wrap(err, "read predicate")
		}
		s, err := predicate.Compile(data, a.builderOptions()...)
		if err != nil {
			return nil, errors.Wrapf(err, "compile %s", src.predicatePath)
		}
		return s, nil
	case src.sargPath != "":
		data, err := os.ReadFile(src.sargPath)
		if err != nil {
			return nil, errors.Wrap(err, "read search argument")
		}
		s := new(sarg.SearchArgument)
		if err := json.Unmarshal(data, s); err != nil {
			return nil, errors.Wrapf(err, "decode %s", src.sargPath)
		}
		return s, nil
	case src.where != "":
		schema, err := src.columns(known)
		if err != nil {
			return nil, err
		}
		return predicate.CompileWhere(src.where, schema, a.builderOptions()...)
	}
	return nil, errors.New("one of --predicate, --sarg or --where is required")
}

func readFileIndex(path string) (*encoded.FileIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read statistics")
	}
	idx, err := encoded.DecodeFileIndex(data)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return idx, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

// writeMetrics prints every sample as name{labels} value, sorted by name.
func (a *app) writeMetrics(w io.Writer) error {
	if a.reg == nil {
		return nil
	}
	families, err := a.reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			var suffix string
			if len(labels) > 0 {
				suffix = "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), suffix, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines,
					fmt.Sprintf("%s_count%s %d", mf.GetName(), suffix, h.GetSampleCount()),
					fmt.Sprintf("%s_sum%s %g", mf.GetName(), suffix, h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
