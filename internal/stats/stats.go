package stats

import (
	"fmt"

	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// ColumnStatistics summarizes one column over a row group: the range of its
// non-null values and whether nulls are present. Min and Max are nil when
// the row group holds no non-null value. NaNs are counted in NumValues but
// never bound the range; HasNaN records them.
type ColumnStatistics struct {
	Type      types.DataType
	Min       types.Value
	Max       types.Value
	HasNull   bool
	AllNull   bool
	HasNaN    bool
	NumValues uint64 // non-null values
}

func (cs ColumnStatistics) String() string {
	return fmt.Sprintf("%s[%s, %s] hasNull=%t allNull=%t",
		cs.Type.Name(),
		types.ValueToString(cs.Type, cs.Min),
		types.ValueToString(cs.Type, cs.Max),
		cs.HasNull, cs.AllNull)
}

// HasRange reports whether Min and Max are usable.
func (cs ColumnStatistics) HasRange() bool {
	return cs.Min != nil && cs.Max != nil
}

// RowGroup maps column name to the statistics of that column in one row group.
type RowGroup map[string]ColumnStatistics

// ColumnStatistics looks up the statistics of a column.
func (rg RowGroup) ColumnStatistics(column string) (ColumnStatistics, bool) {
	cs, ok := rg[column]
	return cs, ok
}

// Collect computes the statistics of values, where a nil entry is a null.
// Values must already be coerced to dt.
func Collect(dt types.DataType, values []types.Value) ColumnStatistics {
	cs := ColumnStatistics{Type: dt}
	for _, v := range values {
		if v == nil {
			cs.HasNull = true
			continue
		}
		cs.NumValues++
		if types.IsNaN(v) {
			cs.HasNaN = true
			continue
		}
		if cs.Min == nil || types.CompareValues(dt, v, cs.Min) < 0 {
			cs.Min = v
		}
		if cs.Max == nil || types.CompareValues(dt, v, cs.Max) > 0 {
			cs.Max = v
		}
	}
	cs.AllNull = cs.HasNull && cs.NumValues == 0
	return cs
}

// Merge combines the statistics of two row groups of the same column, as
// when building stripe statistics. A side without a usable range that is not
// all null makes the merged range unknown.
func Merge(a, b ColumnStatistics) ColumnStatistics {
	cs := ColumnStatistics{
		Type:      a.Type,
		HasNull:   a.HasNull || b.HasNull,
		AllNull:   a.AllNull && b.AllNull,
		HasNaN:    a.HasNaN || b.HasNaN,
		NumValues: a.NumValues + b.NumValues,
	}
	if cs.AllNull {
		return cs
	}
	unknown := func(s ColumnStatistics) bool { return !s.AllNull && !s.HasRange() }
	if unknown(a) || unknown(b) {
		return cs
	}
	switch {
	case a.AllNull:
		cs.Min, cs.Max = b.Min, b.Max
	case b.AllNull:
		cs.Min, cs.Max = a.Min, a.Max
	default:
		cs.Min, cs.Max = a.Min, a.Max
		if types.CompareValues(a.Type, b.Min, cs.Min) < 0 {
			cs.Min = b.Min
		}
		if types.CompareValues(a.Type, b.Max, cs.Max) > 0 {
			cs.Max = b.Max
		}
	}
	return cs
}

// CollectRowGroups splits values into row groups of stride rows and collects
// statistics for each of them.
func CollectRowGroups(dt types.DataType, values []types.Value, stride int) []ColumnStatistics {
	groups := SplitRowGroups(len(values), stride)
	result := make([]ColumnStatistics, len(groups))
	for i, g := range groups {
		result[i] = Collect(dt, values[g.Start:g.End])
	}
	return result
}
