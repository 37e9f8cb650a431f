package encoded

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/orcsarg/internal/compression"
	"github.com/harshithgowdakt/orcsarg/internal/stats"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

func longs(vs ...int64) []types.Value {
	out := make([]types.Value, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

// sampleIndex has two stripes of two row groups each: rows 0-2, 3-5, 6-8
// and 9.
func sampleIndex(t *testing.T) *FileIndex {
	t.Helper()
	schema := map[string]types.DataType{
		"id":   types.TypeLong,
		"name": types.TypeString,
		"day":  types.TypeDate,
	}
	columns := map[string][]types.Value{
		"id":   longs(1, 2, 3, 4, 5, 6, 7, 8, 9, 10),
		"name": {"a", nil, "c", "d", "e", "f", nil, nil, nil, "z"},
		"day": {
			types.Date(100), types.Date(101), types.Date(102), types.Date(103), types.Date(104),
			types.Date(105), types.Date(106), types.Date(107), types.Date(108), types.Date(109),
		},
	}
	idx, err := BuildFileIndex(7, schema, columns, 6, 3)
	require.NoError(t, err)
	return idx
}

func TestBuildFileIndex(t *testing.T) {
	idx := sampleIndex(t)
	require.Equal(t, []int{2, 2}, idx.Layout())
	require.Equal(t, []string{"day", "id", "name"}, idx.ColumnNames())

	rg, err := idx.RowGroup(0, 1)
	require.NoError(t, err)
	require.Equal(t, int64(4), rg["id"].Min)
	require.Equal(t, int64(6), rg["id"].Max)

	rg, err = idx.RowGroup(1, 0)
	require.NoError(t, err)
	require.True(t, rg["name"].AllNull)
	require.False(t, rg["name"].HasRange())

	rg, err = idx.RowGroup(1, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), rg["id"].NumValues)
	require.Equal(t, types.Date(109), rg["day"].Min)

	_, err = idx.RowGroup(1, 2)
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = idx.RowGroup(2, 0)
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestBuildFileIndexErrors(t *testing.T) {
	schema := map[string]types.DataType{"id": types.TypeLong, "x": types.TypeLong}
	tests := []struct {
		name    string
		columns map[string][]types.Value
	}{
		{"unknown column", map[string][]types.Value{"y": longs(1)}},
		{"ragged", map[string][]types.Value{"id": longs(1, 2), "x": longs(1)}},
		{"type mismatch", map[string][]types.Value{"id": {"one"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildFileIndex(1, schema, tt.columns, 10, 5)
			require.Error(t, err)
		})
	}

	idx, err := BuildFileIndex(1, schema, nil, 10, 5)
	require.NoError(t, err)
	require.Empty(t, idx.Layout())
}

func TestStripeStatistics(t *testing.T) {
	idx := sampleIndex(t)
	s0, err := idx.StripeStatistics(0)
	require.NoError(t, err)
	require.Equal(t, int64(1), s0["id"].Min)
	require.Equal(t, int64(6), s0["id"].Max)
	require.Equal(t, "a", s0["name"].Min)
	require.Equal(t, "f", s0["name"].Max)
	require.True(t, s0["name"].HasNull)

	s1, err := idx.StripeStatistics(1)
	require.NoError(t, err)
	require.Equal(t, "z", s1["name"].Min)
	require.Equal(t, "z", s1["name"].Max)
	require.Equal(t, uint64(1), s1["name"].NumValues)
	require.False(t, s1["name"].AllNull)

	_, err = idx.StripeStatistics(5)
	require.True(t, errors.Is(err, ErrNotFound))

	partial := &FileIndex{
		FileID:  2,
		Columns: map[string]types.DataType{"id": types.TypeLong},
		Stripes: [][]stats.RowGroup{{
			{"id": stats.Collect(types.TypeLong, longs(1, 2))},
			{},
		}},
	}
	merged, err := partial.StripeStatistics(0)
	require.NoError(t, err)
	_, ok := merged.ColumnStatistics("id")
	require.False(t, ok)

	// Statistics written without value counts still carry their ranges.
	uncounted := &FileIndex{
		FileID:  3,
		Columns: map[string]types.DataType{"id": types.TypeLong},
		Stripes: [][]stats.RowGroup{{
			{"id": {Type: types.TypeLong, Min: int64(1), Max: int64(5)}},
			{"id": {Type: types.TypeLong, Min: int64(9), Max: int64(12)}},
		}},
	}
	merged, err = uncounted.StripeStatistics(0)
	require.NoError(t, err)
	require.False(t, merged["id"].AllNull)
	require.Equal(t, int64(1), merged["id"].Min)
	require.Equal(t, int64(12), merged["id"].Max)

	// A row group without a range leaves the stripe range unknown.
	unknown := &FileIndex{
		FileID:  4,
		Columns: map[string]types.DataType{"id": types.TypeLong},
		Stripes: [][]stats.RowGroup{{
			{"id": {Type: types.TypeLong}},
			{"id": {Type: types.TypeLong, Min: int64(1), Max: int64(5), NumValues: 2}},
		}},
	}
	merged, err = unknown.StripeStatistics(0)
	require.NoError(t, err)
	require.False(t, merged["id"].AllNull)
	require.False(t, merged["id"].HasRange())
}

func TestFileIndexYAMLRoundTrip(t *testing.T) {
	idx := sampleIndex(t)
	data, err := yaml.Marshal(idx)
	require.NoError(t, err)
	require.Contains(t, string(data), "file_id: 7")

	parsed, err := ParseFileIndex(data)
	require.NoError(t, err)
	require.Equal(t, idx, parsed)
}

func TestParseFileIndex(t *testing.T) {
	doc := `
file_id: 3
columns:
  price: DECIMAL
  ok: BOOLEAN
stripes:
  - row_groups:
      - price: {min: "1.50", max: "20.00", num_values: 4}
        ok: {min: "false", max: "true", has_null: true, num_values: 2}
      - price: {has_null: true, all_null: true}
`
	idx, err := ParseFileIndex([]byte(doc))
	require.NoError(t, err)
	require.Equal(t, []int{2}, idx.Layout())
	rg, err := idx.RowGroup(0, 0)
	require.NoError(t, err)
	require.Equal(t, "1.50", types.ValueToString(types.TypeDecimal, rg["price"].Min))
	require.Equal(t, "20.00", types.ValueToString(types.TypeDecimal, rg["price"].Max))
	require.Equal(t, false, rg["ok"].Min)
	require.True(t, rg["ok"].HasNull)

	rg, err = idx.RowGroup(0, 1)
	require.NoError(t, err)
	require.True(t, rg["price"].AllNull)
	require.Nil(t, rg["price"].Min)
}

// Bounds may be written as plain scalars of any YAML tag.
func TestParseFileIndexPlainScalars(t *testing.T) {
	doc := `
file_id: 4
columns: {x: LONG, f: DOUBLE, d: DATE, s: STRING}
stripes:
  - row_groups:
      - x: {min: 1, max: 5}
        f: {min: -0.5, max: 2.5e3, has_nan: true, num_values: 9}
        d: {min: 2024-01-02, max: "2024-02-01"}
        s: {min: 10, max: true, has_null: true}
      - x: {min: ~, max: null, all_null: true, has_null: true}
`
	idx, err := ParseFileIndex([]byte(doc))
	require.NoError(t, err)
	rg, err := idx.RowGroup(0, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), rg["x"].Min)
	require.Equal(t, int64(5), rg["x"].Max)
	require.Equal(t, uint64(0), rg["x"].NumValues)
	require.True(t, rg["x"].HasRange())
	require.Equal(t, -0.5, rg["f"].Min)
	require.Equal(t, 2500.0, rg["f"].Max)
	require.True(t, rg["f"].HasNaN)
	require.Equal(t, "2024-01-02", types.ValueToString(types.TypeDate, rg["d"].Min))
	require.Equal(t, "10", rg["s"].Min)
	require.Equal(t, "true", rg["s"].Max)

	rg, err = idx.RowGroup(0, 1)
	require.NoError(t, err)
	require.True(t, rg["x"].AllNull)
	require.Nil(t, rg["x"].Min)
	require.Nil(t, rg["x"].Max)

	data, err := yaml.Marshal(idx)
	require.NoError(t, err)
	require.Contains(t, string(data), "has_nan: true")
	parsed, err := ParseFileIndex(data)
	require.NoError(t, err)
	require.Equal(t, idx, parsed)
}

func TestParseFileIndexErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown field", "file_id: 1\nbogus: 2\n"},
		{"unknown type", "file_id: 1\ncolumns: {a: VARCHAR}\n"},
		{"unknown column", "file_id: 1\ncolumns: {a: LONG}\nstripes:\n  - row_groups:\n      - b: {num_values: 1}\n"},
		{"bad bound", "file_id: 1\ncolumns: {a: LONG}\nstripes:\n  - row_groups:\n      - a: {min: x, max: \"2\"}\n"},
		{"non-scalar bound", "file_id: 1\ncolumns: {a: LONG}\nstripes:\n  - row_groups:\n      - a: {min: [1], max: \"2\"}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFileIndex([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestEncodeFileIndex(t *testing.T) {
	idx := sampleIndex(t)
	for _, kind := range []compression.Kind{
		compression.KindNone, compression.KindZlib, compression.KindSnappy, compression.KindLZ4, compression.KindZstd,
	} {
		t.Run(kind.String(), func(t *testing.T) {
			codec, err := compression.New(kind)
			require.NoError(t, err)
			data, err := EncodeFileIndex(idx, codec, 64)
			require.NoError(t, err)
			if kind == compression.KindNone {
				require.NotContains(t, string(data[:4]), "SIDX")
			} else {
				require.Equal(t, "SIDX", string(data[:4]))
				require.Equal(t, byte(kind), data[4])
			}
			decoded, err := DecodeFileIndex(data)
			require.NoError(t, err)
			require.Equal(t, idx, decoded)
		})
	}

	data, err := EncodeFileIndex(idx, nil, 0)
	require.NoError(t, err)
	decoded, err := DecodeFileIndex(data)
	require.NoError(t, err)
	require.Equal(t, idx, decoded)
}

func TestDecodeFileIndexErrors(t *testing.T) {
	_, err := DecodeFileIndex([]byte("SIDX\x01"))
	require.True(t, errors.Is(err, compression.ErrCorruptChunk))

	_, err = DecodeFileIndex([]byte("SIDX\x03\x00\x01\x00\x00"))
	require.True(t, errors.Is(err, compression.ErrUnsupportedCodec))

	codec, err := compression.New(compression.KindZstd)
	require.NoError(t, err)
	data, err := EncodeFileIndex(sampleIndex(t), codec, 128)
	require.NoError(t, err)
	_, err = DecodeFileIndex(data[:len(data)-3])
	require.Error(t, err)
}

func TestIndexReader(t *testing.T) {
	ctx := context.Background()
	r := NewIndexReader(sampleIndex(t))

	layout, err := r.Layout(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, layout)

	rg, err := r.RowGroupStatistics(ctx, BatchKey{FileID: 7, Stripe: 0, RowGroup: 0})
	require.NoError(t, err)
	require.Equal(t, int64(3), rg["id"].Max)

	rg, err = r.RowGroupStatistics(ctx, BatchKey{FileID: 7, Stripe: 1, RowGroup: AllRowGroups})
	require.NoError(t, err)
	require.Equal(t, int64(10), rg["id"].Max)

	_, err = r.Layout(ctx, 8)
	require.True(t, errors.Is(err, ErrNotFound))
	_, err = r.RowGroupStatistics(ctx, BatchKey{FileID: 8})
	require.True(t, errors.Is(err, ErrNotFound))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = r.Layout(cancelled, 7)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestBatchKeyString(t *testing.T) {
	require.Equal(t, "7/1/2", BatchKey{FileID: 7, Stripe: 1, RowGroup: 2}.String())
	require.Equal(t, "7/1/*", BatchKey{FileID: 7, Stripe: 1, RowGroup: AllRowGroups}.String())
}
