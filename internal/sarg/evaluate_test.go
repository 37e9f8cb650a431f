package sarg

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/orcsarg/internal/stats"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// countingProvider records how often each column was looked up.
type countingProvider struct {
	stats.RowGroup
	lookups map[string]int
}

func (p *countingProvider) ColumnStatistics(column string) (stats.ColumnStatistics, bool) {
	p.lookups[column]++
	return p.RowGroup.ColumnStatistics(column)
}

func TestEvaluateStatistics(t *testing.T) {
	sarg, err := NewBuilder().
		StartOr().
		LessThan("x", types.TypeLong, 10).
		Equals("y", types.TypeString, "hi").
		End().
		Build()
	require.NoError(t, err)

	tests := []struct {
		name      string
		rowGroup  stats.RowGroup
		wantValue TruthValue
		want      Decision
	}{
		{
			"both excluded",
			stats.RowGroup{
				"x": longStats(10, 20, false),
				"y": {Type: types.TypeString, Min: "a", Max: "b"},
			},
			No, Skip,
		},
		{
			"x matches",
			stats.RowGroup{
				"x": longStats(1, 5, false),
				"y": {Type: types.TypeString, Min: "a", Max: "b"},
			},
			Yes, Read,
		},
		{
			"nulls only",
			stats.RowGroup{
				"x": longStats(10, 20, true),
				"y": {Type: types.TypeString, Min: "a", Max: "b"},
			},
			NoNull, Read,
		},
		{
			"missing column",
			stats.RowGroup{
				"x": longStats(10, 20, false),
			},
			YesNoNull, Read,
		},
		{
			"no statistics",
			stats.RowGroup{},
			YesNoNull, ReadNoStats,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &countingProvider{RowGroup: tt.rowGroup, lookups: make(map[string]int)}
			r := sarg.EvaluateStatistics(p)
			require.Equal(t, tt.wantValue, r.Value)
			require.Equal(t, tt.want, r.Decision)
			require.Equal(t, map[string]int{"x": 1, "y": 1}, p.lookups)
		})
	}
}

func TestEvaluateStatisticsEachLeafOnce(t *testing.T) {
	// The CNF repeats leaf-0 in every clause.
	sarg, err := NewBuilder().
		StartOr().
		Equals("c", types.TypeLong, 3).
		StartAnd().Equals("a", types.TypeLong, 1).Equals("b", types.TypeLong, 2).End().
		End().
		Build()
	require.NoError(t, err)

	p := &countingProvider{
		RowGroup: stats.RowGroup{"a": longStats(1, 1, false)},
		lookups:  make(map[string]int),
	}
	r := sarg.EvaluateStatistics(p)
	require.Equal(t, Read, r.Decision)
	require.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, p.lookups)
}

func TestDecide(t *testing.T) {
	for _, tv := range TruthValues {
		want := Read
		if tv == No {
			want = Skip
		}
		require.Equal(t, want, Decide(tv), tv.String())
	}
	require.Equal(t, "READ_NO_STATS", ReadNoStats.String())
}

// A row group is only skipped when none of its rows satisfies the filter.
func TestEvaluateStatisticsNeverSkipsMatchingRows(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const rows, stride = 400, 20

	randomColumn := func() []types.Value {
		col := make([]types.Value, rows)
		for i := range col {
			if r.Intn(10) == 0 {
				continue
			}
			col[i] = int64(r.Intn(100))
		}
		return col
	}
	x, y := randomColumn(), randomColumn()
	xStats := stats.CollectRowGroups(types.TypeLong, x, stride)
	yStats := stats.CollectRowGroups(types.TypeLong, y, stride)

	for i := 0; i < 100; i++ {
		a, b, c := r.Intn(100), r.Intn(100), r.Intn(100)
		sarg, err := NewBuilder().
			StartOr().
			StartAnd().LessThan("x", types.TypeLong, a).StartNot().Equals("y", types.TypeLong, b).End().End().
			StartAnd().Between("y", types.TypeLong, c, c+5).IsNull("x", types.TypeLong).End().
			NullSafeEquals("x", types.TypeLong, b).
			In("y", types.TypeLong, a, c).
			End().
			Build()
		require.NoError(t, err)

		leaves := sarg.Leaves()
		for g, rg := range stats.SplitRowGroups(rows, stride) {
			result := sarg.EvaluateStatistics(stats.RowGroup{"x": xStats[g], "y": yStats[g]})
			if result.Decision != Skip {
				continue
			}
			for row := rg.Start; row < rg.End; row++ {
				values := make([]TruthValue, len(leaves))
				for j, l := range leaves {
					v := x[row]
					if l.Column() == "y" {
						v = y[row]
					}
					values[j] = l.Test(v)
				}
				require.False(t, sarg.Evaluate(values).CanBeTrue(),
					"row %d skipped in group %d: %s", row, g, sarg)
			}
		}
	}
}

func TestEvaluateStatisticsNaNNeverSkipsMatchingRows(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	const rows, stride = 300, 10

	f := make([]types.Value, rows)
	for i := range f {
		switch r.Intn(8) {
		case 0:
		case 1:
			f[i] = math.NaN()
		default:
			f[i] = float64(r.Intn(50))
		}
	}
	// A run of NaN only rows.
	for i := 40; i < 50; i++ {
		f[i] = math.NaN()
	}
	fStats := stats.CollectRowGroups(types.TypeFloat, f, stride)

	for i := 0; i < 100; i++ {
		a, b := float64(r.Intn(50)), float64(r.Intn(50))
		sarg, err := NewBuilder().
			StartOr().
			StartNot().LessThan("f", types.TypeFloat, a).End().
			StartAnd().StartNot().Equals("f", types.TypeFloat, b).End().LessThanEquals("f", types.TypeFloat, a).End().
			StartNot().Between("f", types.TypeFloat, math.Min(a, b), math.Max(a, b)).End().
			In("f", types.TypeFloat, b, math.NaN()).
			End().
			Build()
		require.NoError(t, err)

		leaves := sarg.Leaves()
		for g, rg := range stats.SplitRowGroups(rows, stride) {
			result := sarg.EvaluateStatistics(stats.RowGroup{"f": fStats[g]})
			if result.Decision != Skip {
				continue
			}
			for row := rg.Start; row < rg.End; row++ {
				values := make([]TruthValue, len(leaves))
				for j, l := range leaves {
					values[j] = l.Test(f[row])
				}
				require.False(t, sarg.Evaluate(values).CanBeTrue(),
					"row %d skipped in group %d: %s", row, g, sarg)
			}
		}
	}
}
