package sarg

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func leaf(i int) *ExpressionTree { return Leaf(i) }

func TestPushDownNot(t *testing.T) {
	tests := []struct {
		name string
		in   *ExpressionTree
		want string
	}{
		{"leaf", leaf(1), "leaf-1"},
		{"not leaf", Not(leaf(1)), "(not leaf-1)"},
		{"double not", Not(Not(leaf(1))), "leaf-1"},
		{"triple not", Not(Not(Not(leaf(1)))), "(not leaf-1)"},
		{"not and", Not(And(Not(leaf(1)), leaf(2))), "(or leaf-1 (not leaf-2))"},
		{"not or", Not(Or(leaf(1), Not(leaf(2)))), "(and (not leaf-1) leaf-2)"},
		{
			"nested",
			Or(Not(And(leaf(1), Not(leaf(2)))), Not(Not(leaf(3)))),
			"(or (or (not leaf-1) leaf-2) leaf-3)",
		},
		{"not YES", Not(Constant(Yes)), "NO"},
		{"not NULL", Not(Constant(Null)), "NULL"},
		{"not YES_NO", Not(Constant(YesNo)), "YES_NO"},
		{"not NO_NULL", Not(Constant(NoNull)), "YES_NULL"},
		{"not YES_NULL", Not(Constant(YesNull)), "NO_NULL"},
		{"not YES_NO_NULL", Not(Constant(YesNoNull)), "YES_NO_NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.in.String()
			require.Equal(t, tt.want, PushDownNot(tt.in).String())
			require.Equal(t, before, tt.in.String(), "input modified")
		})
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		in   *ExpressionTree
		want string
	}{
		{"leaf", leaf(1), "leaf-1"},
		{"double not", Not(Not(leaf(1))), "(not (not leaf-1))"},
		{"mixed", And(Or(leaf(1), leaf(2)), leaf(3)), "(and (or leaf-1 leaf-2) leaf-3)"},
		{
			"nested and",
			And(And(leaf(1), leaf(2)), And(leaf(3), And(leaf(4)))),
			"(and leaf-1 leaf-2 leaf-3 leaf-4)",
		},
		{
			"nested or",
			Or(Or(leaf(1), leaf(2)), Or(leaf(3), Or(leaf(4), leaf(5))), leaf(6)),
			"(or leaf-1 leaf-2 leaf-3 leaf-4 leaf-5 leaf-6)",
		},
		{
			"and of nots",
			And(And(Not(leaf(1)), leaf(2)), And(Not(leaf(3)), And(leaf(4), Not(leaf(5)))), leaf(6)),
			"(and (not leaf-1) leaf-2 (not leaf-3) leaf-4 (not leaf-5) leaf-6)",
		},
		{"under not", Not(And(leaf(1), And(leaf(2), leaf(3)))), "(not (and leaf-1 leaf-2 leaf-3))"},
		{"singleton and", And(leaf(1)), "leaf-1"},
		{"singleton chain", Or(And(Or(leaf(7)))), "leaf-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Flatten(tt.in).String())
		})
	}
}

func TestFoldMaybe(t *testing.T) {
	maybe := func() *ExpressionTree { return Constant(YesNoNull) }
	tests := []struct {
		name string
		in   *ExpressionTree
		want string
	}{
		{"and drops", And(leaf(1), maybe()), "(and leaf-1)"},
		{"and drops middle", And(leaf(1), maybe(), leaf(2)), "(and leaf-1 leaf-2)"},
		{"and drops both ends", And(maybe(), leaf(1), leaf(2), maybe()), "(and leaf-1 leaf-2)"},
		{"and of maybes", And(maybe(), maybe()), "YES_NO_NULL"},
		{"or absorbs", Or(leaf(1), maybe()), "YES_NO_NULL"},
		{"nested and", Or(leaf(1), And(leaf(2), maybe())), "(or leaf-1 (and leaf-2))"},
		{"nested or", And(Or(leaf(2), maybe()), leaf(1)), "(and leaf-1)"},
		{"not", Not(maybe()), "YES_NO_NULL"},
		{"other constants kept", And(Constant(No), leaf(1)), "(and NO leaf-1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FoldMaybe(tt.in).String())
		})
	}
}

// pairs returns or(and(start, start+1), and(start+2, start+3), ...).
func pairs(start, n int) *ExpressionTree {
	kids := make([]*ExpressionTree, n)
	for i := range kids {
		kids[i] = And(leaf(start+2*i), leaf(start+2*i+1))
	}
	return Or(kids...)
}

func TestConvertToCNF(t *testing.T) {
	tests := []struct {
		name string
		in   *ExpressionTree
		want string
	}{
		{"leaf", leaf(1), "leaf-1"},
		{"not leaf", Not(leaf(1)), "(not leaf-1)"},
		{"already cnf", And(Or(leaf(1), leaf(2)), Not(leaf(3))), "(and (or leaf-1 leaf-2) (not leaf-3))"},
		{
			"or of ands",
			Or(And(leaf(1), leaf(2)), And(leaf(3), leaf(4))),
			"(and (or leaf-1 leaf-3) (or leaf-2 leaf-3) (or leaf-1 leaf-4) (or leaf-2 leaf-4))",
		},
		{
			"uneven ands",
			Or(And(leaf(1), leaf(2), leaf(3), leaf(4)), And(leaf(5), leaf(6))),
			"(and (or leaf-1 leaf-5) (or leaf-2 leaf-5) (or leaf-3 leaf-5) (or leaf-4 leaf-5) " +
				"(or leaf-1 leaf-6) (or leaf-2 leaf-6) (or leaf-3 leaf-6) (or leaf-4 leaf-6))",
		},
		{
			"ands with other disjuncts",
			Or(And(leaf(1), leaf(2)), And(leaf(3), leaf(4)), Or(leaf(5), leaf(6)), Not(leaf(7))),
			"(and (or leaf-5 leaf-6 (not leaf-7) leaf-1 leaf-3) " +
				"(or leaf-5 leaf-6 (not leaf-7) leaf-2 leaf-3) " +
				"(or leaf-5 leaf-6 (not leaf-7) leaf-1 leaf-4) " +
				"(or leaf-5 leaf-6 (not leaf-7) leaf-2 leaf-4))",
		},
		{"too many combinations", pairs(0, 9), "YES_NO_NULL"},
		{"fallback under and", And(leaf(100), pairs(0, 9)), "(and leaf-100 YES_NO_NULL)"},
		{"nested and spliced", And(leaf(1), And(leaf(2), Or(And(leaf(3), leaf(4)), leaf(5)))),
			"(and leaf-1 leaf-2 (or leaf-5 leaf-3) (or leaf-5 leaf-4))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ConvertToCNF(tt.in).String())
		})
	}
}

func TestConvertToCNFThreeAnds(t *testing.T) {
	in := Or(
		And(leaf(0), leaf(1), leaf(2)),
		And(leaf(3), leaf(4), leaf(5)),
		And(leaf(6), leaf(7)),
		leaf(8),
	)
	cnf := ConvertToCNF(in)
	require.Equal(t, ExprAnd, cnf.Op())
	require.Len(t, cnf.Children(), 18)
	require.Equal(t, "(or leaf-8 leaf-0 leaf-3 leaf-6)", cnf.Children()[0].String())
	require.Equal(t, "(or leaf-8 leaf-1 leaf-3 leaf-6)", cnf.Children()[1].String())
	require.Equal(t, "(or leaf-8 leaf-2 leaf-3 leaf-6)", cnf.Children()[2].String())
	require.Equal(t, "(or leaf-8 leaf-0 leaf-4 leaf-6)", cnf.Children()[3].String())
	require.Equal(t, "(or leaf-8 leaf-2 leaf-5 leaf-7)", cnf.Children()[17].String())
}

func TestConvertToCNFThenFoldMaybe(t *testing.T) {
	in := And(leaf(100), pairs(0, 9))
	require.Equal(t, "(and leaf-100)", FoldMaybe(ConvertToCNF(in)).String())
}

func TestNormalizerThreshold(t *testing.T) {
	var calls, gotCombinations, gotThreshold int
	n := Normalizer{
		CombinationsThreshold: 4,
		OnFallback: func(combinations, threshold int) {
			calls++
			gotCombinations, gotThreshold = combinations, threshold
		},
	}
	require.Equal(t, 16, len(Normalizer{}.ConvertToCNF(pairs(0, 4)).Children()))
	require.Equal(t, 4, len(n.ConvertToCNF(pairs(0, 2)).Children()))
	require.Equal(t, 0, calls)

	require.Equal(t, "YES_NO_NULL", n.ConvertToCNF(pairs(0, 3)).String())
	require.Equal(t, 1, calls)
	require.Equal(t, 8, gotCombinations)
	require.Equal(t, 4, gotThreshold)
}

func collectNodes(t *ExpressionTree, seen map[*ExpressionTree]int) {
	seen[t]++
	for _, kid := range t.children {
		collectNodes(kid, seen)
	}
}

func TestConvertToCNFSharesNoNodes(t *testing.T) {
	in := Or(And(leaf(1), leaf(2)), And(leaf(3), Or(leaf(4), leaf(5))), Not(leaf(6)))
	cnf := ConvertToCNF(in)

	seen := make(map[*ExpressionTree]int)
	collectNodes(cnf, seen)
	for node, count := range seen {
		require.Equal(t, 1, count, "node %s is shared", node)
	}

	original := make(map[*ExpressionTree]int)
	collectNodes(in, original)
	for node := range original {
		require.NotContains(t, seen, node)
	}
}

func isLiteral(t *ExpressionTree) bool {
	switch t.op {
	case ExprLeaf, ExprConstant:
		return true
	case ExprNot:
		return t.children[0].op == ExprLeaf
	}
	return false
}

func isClause(t *ExpressionTree) bool {
	if t.op != ExprOr {
		return isLiteral(t)
	}
	for _, kid := range t.children {
		if !isLiteral(kid) {
			return false
		}
	}
	return true
}

func isCNF(t *ExpressionTree) bool {
	if t.op != ExprAnd {
		return isClause(t)
	}
	for _, kid := range t.children {
		if !isClause(kid) {
			return false
		}
	}
	return true
}

func randomTree(r *rand.Rand, depth, numLeaves int) *ExpressionTree {
	if depth == 0 || r.Intn(4) == 0 {
		return leaf(r.Intn(numLeaves))
	}
	switch r.Intn(3) {
	case 0:
		return Not(randomTree(r, depth-1, numLeaves))
	case 1:
		kids := make([]*ExpressionTree, 1+r.Intn(3))
		for i := range kids {
			kids[i] = randomTree(r, depth-1, numLeaves)
		}
		return And(kids...)
	default:
		kids := make([]*ExpressionTree, 1+r.Intn(3))
		for i := range kids {
			kids[i] = randomTree(r, depth-1, numLeaves)
		}
		return Or(kids...)
	}
}

func normalize(n Normalizer, t *ExpressionTree) *ExpressionTree {
	return Flatten(n.ConvertToCNF(Flatten(FoldMaybe(PushDownNot(t)))))
}

// assignments enumerates every combination of single outcomes for numLeaves leaves.
func assignments(numLeaves int) [][]TruthValue {
	result := [][]TruthValue{{}}
	for i := 0; i < numLeaves; i++ {
		var next [][]TruthValue
		for _, prefix := range result {
			for _, v := range []TruthValue{Yes, No, Null} {
				next = append(next, append(append([]TruthValue(nil), prefix...), v))
			}
		}
		result = next
	}
	return result
}

func TestNormalizePreservesMeaning(t *testing.T) {
	const numLeaves = 4
	r := rand.New(rand.NewSource(42))
	exact := Normalizer{CombinationsThreshold: 1 << 12}
	tight := Normalizer{CombinationsThreshold: 2}
	all := assignments(numLeaves)

	for i := 0; i < 300; i++ {
		tree := randomTree(r, 3, numLeaves)
		cnf := normalize(exact, tree)
		require.True(t, isCNF(cnf), "%s -> %s", tree, cnf)
		require.Equal(t, cnf.String(), normalize(exact, cnf).String(), "not idempotent: %s", tree)

		approx := normalize(tight, tree)
		for _, values := range all {
			want := tree.Evaluate(values)
			require.Equal(t, want, cnf.Evaluate(values), "%s with %v", tree, values)
			got := approx.Evaluate(values)
			require.Zero(t, want&^got, "fallback lost an outcome: %s with %v", tree, values)
		}
	}
}
