package main

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/orcsarg/internal/encoded"
	"github.com/harshithgowdakt/orcsarg/internal/stats"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// rowsYAML is the input of the index command:
//
//	file_id: 1
//	columns: {id: LONG, name: STRING}
//	rows:
//	  - {id: 1, name: a}
//	  - {id: 2}
//
// A column missing from a row, or set to null, is a null.
type rowsYAML struct {
	FileID  int64                     `yaml:"file_id"`
	Columns map[string]types.DataType `yaml:"columns"`
	Rows    []map[string]yaml.Node    `yaml:"rows"`
}

func parseRows(data []byte) (*rowsYAML, map[string][]types.Value, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var in rowsYAML
	if err := dec.Decode(&in); err != nil {
		return nil, nil, errors.Wrap(err, "decode rows")
	}
	columns := make(map[string][]types.Value, len(in.Columns))
	for name := range in.Columns {
		columns[name] = make([]types.Value, len(in.Rows))
	}
	for i, row := range in.Rows {
		for name, n := range row {
			dt, ok := in.Columns[name]
			if !ok {
				return nil, nil, errors.Newf("row %d: unknown column %q", i, name)
			}
			if n.Kind == 0 || n.ShortTag() == "!!null" {
				continue
			}
			if n.Kind != yaml.ScalarNode {
				return nil, nil, errors.Newf("row %d column %q: expected a scalar", i, name)
			}
			v, err := types.ParseValue(dt, n.Value)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "row %d column %q", i, name)
			}
			columns[name][i] = v
		}
	}
	return &in, columns, nil
}

func (a *app) indexCommand() *cobra.Command {
	var dataPath, outPath string
	var stripeRows, stride int
	cmd := &cobra.Command{
		Use:   "index",
		Short: "compute the row index of rows given in YAML",
		Long: `
  Splits the rows into stripes and row groups, collects the statistics of
  every column and writes the row index, compressed with the configured codec.
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(dataPath)
			if err != nil {
				return errors.Wrap(err, "read rows")
			}
			in, columns, err := parseRows(data)
			if err != nil {
				return errors.Wrapf(err, "parse %s", dataPath)
			}
			idx, err := encoded.BuildFileIndex(in.FileID, in.Columns, columns, stripeRows, stride)
			if err != nil {
				return err
			}
			codec, err := a.cfg.Compression.NewCodec()
			if err != nil {
				return err
			}
			out, err := encoded.EncodeFileIndex(idx, codec, a.cfg.Compression.BlockSize)
			if err != nil {
				return err
			}
			if err := os.WriteFile(outPath, out, 0o644); err != nil {
				return errors.Wrap(err, "write index")
			}
			level.Info(a.logger).Log(
				"msg", "wrote row index",
				"file", in.FileID,
				"rows", len(in.Rows),
				"stripes", len(idx.Stripes),
				"codec", codec.Kind(),
				"bytes", len(out),
			)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dataPath, "data", "", "YAML rows to index.")
	f.StringVarP(&outPath, "out", "o", "", "Row index output file.")
	f.IntVar(&stripeRows, "stripe-rows", 10*stats.DefaultRowIndexStride, "Rows per stripe.")
	f.IntVar(&stride, "stride", stats.DefaultRowIndexStride, "Rows per row group.")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
