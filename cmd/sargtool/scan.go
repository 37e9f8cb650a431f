package main

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/spf13/cobra"

	"github.com/harshithgowdakt/orcsarg/internal/encoded"
	"github.com/harshithgowdakt/orcsarg/internal/sarg"
	"github.com/harshithgowdakt/orcsarg/internal/scan"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

func (a *app) scanCommand() *cobra.Command {
	var src sargSource
	var statsPaths []string
	var selectedOnly bool
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "select the row groups a predicate has to read",
		Long: `
  Evaluates a search argument against the row index of one or more files and
  prints, per file, the decision taken for every row group. A WHERE clause
  is typed by the columns of the files, overridden by --schema.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			indexes := make([]*encoded.FileIndex, 0, len(statsPaths))
			for _, path := range statsPaths {
				idx, err := readFileIndex(path)
				if err != nil {
					return err
				}
				indexes = append(indexes, idx)
			}
			known, err := fileColumns(indexes)
			if err != nil {
				return err
			}
			s, err := a.loadSearchArgument(src, known)
			if err != nil {
				return err
			}

			cached, err := encoded.NewCachedReader(encoded.NewIndexReader(indexes...), a.cfg.Scan.StatsCacheSize,
				encoded.WithCacheLogger(log.With(a.logger, "component", "cache")),
				encoded.WithCacheMetrics(a.cacheMetrics))
			if err != nil {
				return err
			}
			planner := scan.NewPlanner(cached,
				scan.WithParallelism(a.cfg.Scan.Parallelism),
				scan.WithLogger(log.With(a.logger, "component", "scan")),
				scan.WithMetrics(a.scanMetrics))

			plans := make([]*scan.Plan, 0, len(indexes))
			for _, idx := range indexes {
				plan, err := planner.PickRowGroups(cmd.Context(), s, idx.FileID)
				if err != nil {
					return err
				}
				if selectedOnly {
					kept := plan.RowGroups[:0]
					for _, r := range plan.RowGroups {
						if r.Decision != sarg.Skip {
							kept = append(kept, r)
						}
					}
					plan.RowGroups = kept
				}
				plans = append(plans, plan)
			}
			return writeJSON(cmd.OutOrStdout(), plans)
		},
	}
	f := cmd.Flags()
	src.registerFlags(f)
	f.StringSliceVar(&statsPaths, "stats", nil, "Row index files, plain YAML or compressed (repeatable).")
	f.BoolVar(&selectedOnly, "selected-only", false, "Omit skipped row groups from the output.")
	_ = cmd.MarkFlagRequired("stats")
	return cmd
}

// fileColumns is the union of the column types of the files. A column typed
// differently by two files is an error.
func fileColumns(indexes []*encoded.FileIndex) (map[string]types.DataType, error) {
	out := make(map[string]types.DataType)
	for _, idx := range indexes {
		for col, dt := range idx.Columns {
			if prev, ok := out[col]; ok && prev != dt {
				return nil, errors.Newf("column %s is %s in one file and %s in file %d", col, prev, dt, idx.FileID)
			}
			out[col] = dt
		}
	}
	return out, nil
}
