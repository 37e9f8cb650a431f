package predicate

import (
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/harshithgowdakt/orcsarg/internal/sarg"
	"github.com/harshithgowdakt/orcsarg/internal/stats"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

func TestCompile(t *testing.T) {
	datadriven.RunTest(t, "testdata/compile", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "compile":
			var opts []sarg.BuilderOption
			if d.HasArg("threshold") {
				var threshold int
				d.ScanArgs(t, "threshold", &threshold)
				opts = append(opts, sarg.WithCNFThreshold(threshold))
			}
			s, err := Compile([]byte(d.Input), opts...)
			if err != nil {
				return "error: " + err.Error() + "\n"
			}
			return s.String() + "\n"
		default:
			t.Fatalf("unknown command: %s", d.Cmd)
			return ""
		}
	})
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not arity", "not:\n  - isNull: {column: a, type: LONG}\n  - isNull: {column: b, type: LONG}\n", sarg.ErrUnbalanced},
		{"empty and", "and: []\n", sarg.ErrEmptyExpression},
		{"bad literal", "equals: {column: a, type: LONG, literal: abc}\n", sarg.ErrTypeMismatch},
		{"null literal", "equals: {column: a, type: LONG, literal: null}\n", sarg.ErrMalformedLiteral},
		{"empty in", "in: {column: a, type: LONG, literals: []}\n", sarg.ErrMalformedLiteral},
		{"constant", "constant: MAYBE\n", sarg.ErrInvalidTruthValue},
		{"literal on isNull", "isNull: {column: a, type: LONG, literal: 1}\n", sarg.ErrMalformedLiteral},
		{"literals on equals", "equals: {column: a, type: LONG, literals: [1]}\n", sarg.ErrMalformedLiteral},
		{"literal on in", "in: {column: a, type: LONG, literal: 1, literals: [1]}\n", sarg.ErrMalformedLiteral},
		{"no column", "isNull: {type: LONG}\n", ErrSyntax},
		{"literals not a list", "in: {column: a, type: LONG, literals: 1}\n", ErrSyntax},
		{"nested literal", "equals: {column: a, type: LONG, literal: [1]}\n", ErrSyntax},
		{"two operators", "equals: {column: a, type: LONG, literal: 1}\nisNull: {column: a, type: LONG}\n", ErrSyntax},
		{"empty document", "", ErrSyntax},
		{"bad yaml", "and: [\n", ErrSyntax},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]byte(tt.doc))
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := Compile([]byte("equals: {column: a, type: VARCHAR, literal: x}\n"))
	require.Error(t, err)
}

func TestCompileEvaluates(t *testing.T) {
	s, err := Compile([]byte(`
and:
  - greaterThanEquals: {column: day, type: DATE, literal: 2024-03-01}
  - in: {column: price, type: DECIMAL, literals: [9.99, 19.99]}
`))
	require.NoError(t, err)

	day := func(s string) types.Value {
		d, err := types.ParseDate(s)
		require.NoError(t, err)
		return d
	}
	dec := func(s string) types.Value {
		v, err := types.ParseValue(types.TypeDecimal, s)
		require.NoError(t, err)
		return v
	}
	february := stats.RowGroup{
		"day":   stats.Collect(types.TypeDate, []types.Value{day("2024-02-01"), day("2024-02-28")}),
		"price": stats.Collect(types.TypeDecimal, []types.Value{dec("9.99")}),
	}
	march := stats.RowGroup{
		"day":   stats.Collect(types.TypeDate, []types.Value{day("2024-02-20"), day("2024-03-10")}),
		"price": stats.Collect(types.TypeDecimal, []types.Value{dec("5.00"), dec("15.00")}),
	}
	require.Equal(t, sarg.Skip, s.EvaluateStatistics(february).Decision)
	require.Equal(t, sarg.Read, s.EvaluateStatistics(march).Decision)
}
