package stats

// DefaultRowIndexStride is the number of rows covered by one row index entry.
const DefaultRowIndexStride = 10000

// RowRange represents a range of rows [Start, End).
type RowRange struct {
	Start int
	End   int
}

// Len returns the number of rows in the range.
func (r RowRange) Len() int { return r.End - r.Start }

// SplitRowGroups splits totalRows into row group boundaries.
func SplitRowGroups(totalRows, stride int) []RowRange {
	if stride <= 0 {
		stride = DefaultRowIndexStride
	}
	var result []RowRange
	for start := 0; start < totalRows; start += stride {
		end := start + stride
		if end > totalRows {
			end = totalRows
		}
		result = append(result, RowRange{Start: start, End: end})
	}
	return result
}
