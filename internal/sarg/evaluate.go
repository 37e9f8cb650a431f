package sarg

import (
	"sync"

	"github.com/harshithgowdakt/orcsarg/internal/stats"
)

// StatisticsProvider returns the statistics of a column for the row group
// under test. ok is false when the column has no statistics.
type StatisticsProvider interface {
	ColumnStatistics(column string) (cs stats.ColumnStatistics, ok bool)
}

// Decision is what a reader should do with a row group.
type Decision uint8

const (
	// Skip means no row of the group can satisfy the filter.
	Skip Decision = iota
	// Read means the group may contain matching rows.
	Read
	// ReadNoStats means none of the filter's columns had statistics.
	ReadNoStats
)

func (d Decision) String() string {
	switch d {
	case Skip:
		return "SKIP"
	case Read:
		return "READ"
	case ReadNoStats:
		return "READ_NO_STATS"
	}
	return "UNKNOWN"
}

// MarshalText renders the decision by name.
func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Result is the outcome of evaluating a search argument over one row group.
type Result struct {
	Value    TruthValue `json:"value"`
	Decision Decision   `json:"decision"`
}

// Decide maps a folded truth value to a decision. Only an exact No skips.
func Decide(v TruthValue) Decision {
	if v == No {
		return Skip
	}
	return Read
}

var leafValuesPool = sync.Pool{
	New: func() interface{} {
		buf := make([]TruthValue, 0, 16)
		return &buf
	},
}

// EvaluateStatistics evaluates every leaf once against the statistics of
// a row group and folds the expression. A leaf whose column has no
// statistics evaluates to YesNoNull.
func (s *SearchArgument) EvaluateStatistics(p StatisticsProvider) Result {
	buf := leafValuesPool.Get().(*[]TruthValue)
	values := (*buf)[:0]
	withStats := 0
	for _, leaf := range s.leaves {
		cs, ok := p.ColumnStatistics(leaf.column)
		if !ok {
			values = append(values, YesNoNull)
			continue
		}
		withStats++
		values = append(values, leaf.Evaluate(cs))
	}
	v := s.expression.Evaluate(values)
	*buf = values
	leafValuesPool.Put(buf)

	r := Result{Value: v, Decision: Decide(v)}
	if r.Decision == Read && withStats == 0 && len(s.leaves) > 0 {
		r.Decision = ReadNoStats
	}
	return r
}
