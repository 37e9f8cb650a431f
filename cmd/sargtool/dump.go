package main

import (
	"github.com/spf13/cobra"

	"github.com/harshithgowdakt/orcsarg/internal/encoded"
	"github.com/harshithgowdakt/orcsarg/internal/stats"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

type columnStatsJSON struct {
	Type      string `json:"type"`
	Min       string `json:"min,omitempty"`
	Max       string `json:"max,omitempty"`
	HasNull   bool   `json:"has_null"`
	AllNull   bool   `json:"all_null"`
	NumValues uint64 `json:"num_values"`
}

type rowGroupJSON struct {
	RowGroup int                        `json:"row_group"`
	Columns  map[string]columnStatsJSON `json:"columns"`
}

type stripeJSON struct {
	Stripe    int                        `json:"stripe"`
	Stats     map[string]columnStatsJSON `json:"stripe_stats"`
	RowGroups []rowGroupJSON             `json:"row_groups"`
}

type dumpJSON struct {
	FileID  int64             `json:"file_id"`
	Columns map[string]string `json:"columns"`
	Stripes []stripeJSON      `json:"stripes"`
}

func columnsJSON(rg stats.RowGroup) map[string]columnStatsJSON {
	out := make(map[string]columnStatsJSON, len(rg))
	for name, cs := range rg {
		cj := columnStatsJSON{
			Type:      cs.Type.Name(),
			HasNull:   cs.HasNull,
			AllNull:   cs.AllNull,
			NumValues: cs.NumValues,
		}
		if cs.HasRange() {
			cj.Min = types.ValueToString(cs.Type, cs.Min)
			cj.Max = types.ValueToString(cs.Type, cs.Max)
		}
		out[name] = cj
	}
	return out
}

func dumpIndex(idx *encoded.FileIndex) (*dumpJSON, error) {
	out := &dumpJSON{FileID: idx.FileID, Columns: make(map[string]string, len(idx.Columns))}
	for _, name := range idx.ColumnNames() {
		out.Columns[name] = idx.Columns[name].Name()
	}
	for s, groups := range idx.Stripes {
		merged, err := idx.StripeStatistics(s)
		if err != nil {
			return nil, err
		}
		sj := stripeJSON{Stripe: s, Stats: columnsJSON(merged)}
		for g, rg := range groups {
			sj.RowGroups = append(sj.RowGroups, rowGroupJSON{RowGroup: g, Columns: columnsJSON(rg)})
		}
		out.Stripes = append(out.Stripes, sj)
	}
	return out, nil
}

func (a *app) dumpCommand() *cobra.Command {
	var statsPath string
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "print a row index as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := readFileIndex(statsPath)
			if err != nil {
				return err
			}
			out, err := dumpIndex(idx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&statsPath, "stats", "", "Row index file, plain YAML or compressed.")
	_ = cmd.MarkFlagRequired("stats")
	return cmd
}
