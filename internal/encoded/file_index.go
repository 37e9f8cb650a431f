package encoded

import (
	"bytes"
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/orcsarg/internal/compression"
	"github.com/harshithgowdakt/orcsarg/internal/stats"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// FileIndex is the row index of one file.
type FileIndex struct {
	FileID  int64
	Columns map[string]types.DataType
	Stripes [][]stats.RowGroup
}

// Layout returns the number of row groups of every stripe.
func (f *FileIndex) Layout() []int {
	layout := make([]int, len(f.Stripes))
	for i, s := range f.Stripes {
		layout[i] = len(s)
	}
	return layout
}

// RowGroup returns the statistics of one row group.
func (f *FileIndex) RowGroup(stripe, rowGroup int) (stats.RowGroup, error) {
	if stripe < 0 || stripe >= len(f.Stripes) {
		return nil, errors.Wrapf(ErrNotFound, "file %d stripe %d", f.FileID, stripe)
	}
	groups := f.Stripes[stripe]
	if rowGroup < 0 || rowGroup >= len(groups) {
		return nil, errors.Wrapf(ErrNotFound, "file %d stripe %d row group %d", f.FileID, stripe, rowGroup)
	}
	return groups[rowGroup], nil
}

// StripeStatistics merges the statistics of every row group of a stripe.
func (f *FileIndex) StripeStatistics(stripe int) (stats.RowGroup, error) {
	if stripe < 0 || stripe >= len(f.Stripes) {
		return nil, errors.Wrapf(ErrNotFound, "file %d stripe %d", f.FileID, stripe)
	}
	groups := f.Stripes[stripe]
	merged := make(stats.RowGroup, len(f.Columns))
	for col := range f.Columns {
		var acc stats.ColumnStatistics
		complete := len(groups) > 0
		for i, rg := range groups {
			cs, ok := rg[col]
			if !ok {
				complete = false
				break
			}
			if i == 0 {
				acc = cs
			} else {
				acc = stats.Merge(acc, cs)
			}
		}
		// A column missing from any row group has no stripe statistics.
		if complete {
			merged[col] = acc
		}
	}
	return merged, nil
}

// BuildFileIndex computes the row index of column data. Every column must
// have the same number of rows, nil being a null. Stripes hold stripeRows
// rows and are divided into row groups of stride rows.
func BuildFileIndex(
	fileID int64, schema map[string]types.DataType, columns map[string][]types.Value, stripeRows, stride int,
) (*FileIndex, error) {
	idx := &FileIndex{FileID: fileID, Columns: schema}
	numRows := -1
	for name, values := range columns {
		if _, ok := schema[name]; !ok {
			return nil, errors.Newf("column %q is not in the schema", name)
		}
		if numRows >= 0 && len(values) != numRows {
			return nil, errors.Newf("column %q has %d rows, expected %d", name, len(values), numRows)
		}
		numRows = len(values)
	}
	if numRows < 0 {
		return idx, nil
	}

	coerced := make(map[string][]types.Value, len(columns))
	for name, values := range columns {
		dt := schema[name]
		out := make([]types.Value, len(values))
		for i, v := range values {
			if v == nil {
				continue
			}
			c, err := types.CoerceValue(dt, v)
			if err != nil {
				return nil, errors.Wrapf(err, "column %q row %d", name, i)
			}
			out[i] = c
		}
		coerced[name] = out
	}

	for _, stripe := range stats.SplitRowGroups(numRows, stripeRows) {
		groups := stats.SplitRowGroups(stripe.Len(), stride)
		rowGroups := make([]stats.RowGroup, len(groups))
		for i := range rowGroups {
			rowGroups[i] = make(stats.RowGroup, len(coerced))
		}
		for name, values := range coerced {
			perGroup := stats.CollectRowGroups(schema[name], values[stripe.Start:stripe.End], stride)
			for i, cs := range perGroup {
				rowGroups[i][name] = cs
			}
		}
		idx.Stripes = append(idx.Stripes, rowGroups)
	}
	return idx, nil
}

// Bounds are kept as nodes so that parse errors carry their line. A zero
// node is an absent bound.
type columnStatsYAML struct {
	Min       yaml.Node `yaml:"min,omitempty"`
	Max       yaml.Node `yaml:"max,omitempty"`
	HasNull   bool      `yaml:"has_null,omitempty"`
	AllNull   bool      `yaml:"all_null,omitempty"`
	HasNaN    bool      `yaml:"has_nan,omitempty"`
	NumValues uint64    `yaml:"num_values,omitempty"`
}

type stripeYAML struct {
	RowGroups []map[string]columnStatsYAML `yaml:"row_groups"`
}

type fileIndexYAML struct {
	FileID  int64                     `yaml:"file_id"`
	Columns map[string]types.DataType `yaml:"columns"`
	Stripes []stripeYAML              `yaml:"stripes"`
}

func scalarNode(text string) yaml.Node {
	return yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: text}
}

// MarshalYAML renders min and max in the canonical text of their type.
func (f *FileIndex) MarshalYAML() (interface{}, error) {
	out := fileIndexYAML{FileID: f.FileID, Columns: f.Columns}
	for _, stripe := range f.Stripes {
		sy := stripeYAML{RowGroups: make([]map[string]columnStatsYAML, len(stripe))}
		for i, rg := range stripe {
			m := make(map[string]columnStatsYAML, len(rg))
			for col, cs := range rg {
				cy := columnStatsYAML{
					HasNull: cs.HasNull, AllNull: cs.AllNull, HasNaN: cs.HasNaN, NumValues: cs.NumValues,
				}
				if cs.HasRange() {
					cy.Min = scalarNode(types.ValueToString(cs.Type, cs.Min))
					cy.Max = scalarNode(types.ValueToString(cs.Type, cs.Max))
				}
				m[col] = cy
			}
			sy.RowGroups[i] = m
		}
		out.Stripes = append(out.Stripes, sy)
	}
	return out, nil
}

func parseBound(dt types.DataType, n *yaml.Node) (types.Value, error) {
	if n.Kind == 0 || n.ShortTag() == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, errors.Newf("line %d: expected a scalar", n.Line)
	}
	v, err := types.ParseValue(dt, n.Value)
	if err != nil {
		return nil, errors.Wrapf(err, "line %d", n.Line)
	}
	return v, nil
}

// ParseFileIndex decodes the YAML form of a file index. Unknown fields are
// rejected.
func ParseFileIndex(data []byte) (*FileIndex, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var in fileIndexYAML
	if err := dec.Decode(&in); err != nil {
		return nil, errors.Wrap(err, "decode file index")
	}
	idx := &FileIndex{FileID: in.FileID, Columns: in.Columns}
	for s, sy := range in.Stripes {
		groups := make([]stats.RowGroup, len(sy.RowGroups))
		for g, rg := range sy.RowGroups {
			out := make(stats.RowGroup, len(rg))
			for col, cy := range rg {
				dt, ok := in.Columns[col]
				if !ok {
					return nil, errors.Newf("stripe %d row group %d: unknown column %q", s, g, col)
				}
				cs := stats.ColumnStatistics{
					Type: dt, HasNull: cy.HasNull, AllNull: cy.AllNull, HasNaN: cy.HasNaN, NumValues: cy.NumValues,
				}
				var err error
				if cs.Min, err = parseBound(dt, &cy.Min); err != nil {
					return nil, errors.Wrapf(err, "stripe %d row group %d column %q min", s, g, col)
				}
				if cs.Max, err = parseBound(dt, &cy.Max); err != nil {
					return nil, errors.Wrapf(err, "stripe %d row group %d column %q max", s, g, col)
				}
				out[col] = cs
			}
			groups[g] = out
		}
		idx.Stripes = append(idx.Stripes, groups)
	}
	return idx, nil
}

// Compressed indexes start with indexMagic, the codec kind and the block
// size (uint32 LE), followed by the YAML document as a compressed stream.
var indexMagic = []byte("SIDX")

const indexHeaderSize = 4 + 1 + 4

// EncodeFileIndex renders idx as YAML, compressed with codec unless it is
// nil or of kind NONE.
func EncodeFileIndex(idx *FileIndex, codec compression.Codec, blockSize int) ([]byte, error) {
	raw, err := yaml.Marshal(idx)
	if err != nil {
		return nil, errors.Wrap(err, "encode file index")
	}
	if codec == nil || codec.Kind() == compression.KindNone {
		return raw, nil
	}
	stream, err := compression.CompressStream(codec, raw, blockSize)
	if err != nil {
		return nil, err
	}
	out := make([]byte, indexHeaderSize, indexHeaderSize+len(stream))
	copy(out, indexMagic)
	out[4] = byte(codec.Kind())
	binary.LittleEndian.PutUint32(out[5:9], uint32(blockSize))
	return append(out, stream...), nil
}

// DecodeFileIndex reverses EncodeFileIndex; plain YAML is accepted as is.
func DecodeFileIndex(data []byte) (*FileIndex, error) {
	if !bytes.HasPrefix(data, indexMagic) {
		return ParseFileIndex(data)
	}
	if len(data) < indexHeaderSize {
		return nil, errors.Wrap(compression.ErrCorruptChunk, "truncated file index header")
	}
	codec, err := compression.New(compression.Kind(data[4]))
	if err != nil {
		return nil, err
	}
	blockSize := int(binary.LittleEndian.Uint32(data[5:9]))
	raw, err := compression.DecompressStream(codec, data[indexHeaderSize:], blockSize)
	if err != nil {
		return nil, errors.Wrap(err, "decompress file index")
	}
	return ParseFileIndex(raw)
}

// ColumnNames returns the indexed columns in sorted order.
func (f *FileIndex) ColumnNames() []string {
	names := make([]string, 0, len(f.Columns))
	for name := range f.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
