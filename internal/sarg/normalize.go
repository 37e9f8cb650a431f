package sarg

// DefaultCNFCombinationsThreshold bounds the number of clauses a single OR
// may expand into when it is distributed over its AND children. It is an
// absolute cap checked per OR, not scaled by the number of leaves or nodes of
// the predicate: a large predicate made of small ORs converts fully, while a
// single OR of nine two-clause ANDs (512 clauses) falls back to YesNoNull no
// matter how small the rest of the predicate is. Use WithCNFThreshold to
// change it.
const DefaultCNFCombinationsThreshold = 256

// PushDownNot applies De Morgan's laws until NOT only wraps leaves. Double
// negations cancel and negated constants are folded. The input is not modified.
func PushDownNot(t *ExpressionTree) *ExpressionTree {
	switch t.op {
	case ExprNot:
		child := t.children[0]
		switch child.op {
		case ExprNot:
			return PushDownNot(child.children[0])
		case ExprConstant:
			return Constant(child.constant.Not())
		case ExprAnd, ExprOr:
			op := ExprOr
			if child.op == ExprOr {
				op = ExprAnd
			}
			kids := make([]*ExpressionTree, len(child.children))
			for i, kid := range child.children {
				kids[i] = PushDownNot(Not(kid))
			}
			return &ExpressionTree{op: op, children: kids}
		default:
			return Not(child.Copy())
		}
	case ExprAnd, ExprOr:
		kids := make([]*ExpressionTree, len(t.children))
		for i, kid := range t.children {
			kids[i] = PushDownNot(kid)
		}
		return &ExpressionTree{op: t.op, children: kids}
	default:
		return t.Copy()
	}
}

// Flatten merges nested ANDs into their AND parent and nested ORs into their
// OR parent, keeping the left-to-right order. A single-child AND or OR is
// replaced by its child.
func Flatten(t *ExpressionTree) *ExpressionTree {
	if t.children == nil {
		return t.Copy()
	}
	kids := make([]*ExpressionTree, 0, len(t.children))
	for _, kid := range t.children {
		flat := Flatten(kid)
		if flat.op == t.op && t.op != ExprNot {
			kids = append(kids, flat.children...)
		} else {
			kids = append(kids, flat)
		}
	}
	if (t.op == ExprAnd || t.op == ExprOr) && len(kids) == 1 {
		return kids[0]
	}
	return &ExpressionTree{op: t.op, children: kids}
}

// FoldMaybe removes YesNoNull constants, which carry no information. They
// are dropped from an AND and turn an OR into YesNoNull. An AND left without
// children becomes YesNoNull.
func FoldMaybe(t *ExpressionTree) *ExpressionTree {
	if t.children == nil {
		return t.Copy()
	}
	kids := make([]*ExpressionTree, 0, len(t.children))
	for _, kid := range t.children {
		folded := FoldMaybe(kid)
		if folded.isConstant(YesNoNull) {
			if t.op == ExprAnd {
				continue
			}
			return Constant(YesNoNull)
		}
		kids = append(kids, folded)
	}
	if len(kids) == 0 {
		return Constant(YesNoNull)
	}
	return &ExpressionTree{op: t.op, children: kids}
}

// Normalizer converts expressions to conjunctive normal form.
type Normalizer struct {
	// CombinationsThreshold is the largest number of clauses an OR may be
	// distributed into, independent of the size of the whole expression.
	// Zero means DefaultCNFCombinationsThreshold.
	CombinationsThreshold int
	// OnFallback, when set, is called each time an OR is replaced by
	// YesNoNull because its expansion would exceed the threshold.
	OnFallback func(combinations, threshold int)
}

// ConvertToCNF converts t with the default threshold.
func ConvertToCNF(t *ExpressionTree) *ExpressionTree {
	return Normalizer{}.ConvertToCNF(t)
}

func (n Normalizer) threshold() int {
	if n.CombinationsThreshold <= 0 {
		return DefaultCNFCombinationsThreshold
	}
	return n.CombinationsThreshold
}

// ConvertToCNF rewrites a NOT-pushed tree into an AND of OR clauses by
// distributing every OR over its AND children. An OR whose expansion would
// exceed the threshold becomes YesNoNull, which can only cause extra reads.
// The result shares no node with t or with itself.
func (n Normalizer) ConvertToCNF(t *ExpressionTree) *ExpressionTree {
	if t.children == nil {
		return t.Copy()
	}
	kids := make([]*ExpressionTree, 0, len(t.children))
	for _, kid := range t.children {
		cnf := n.ConvertToCNF(kid)
		if t.op == ExprAnd && cnf.op == ExprAnd {
			kids = append(kids, cnf.children...)
		} else {
			kids = append(kids, cnf)
		}
	}
	if t.op != ExprOr {
		return &ExpressionTree{op: t.op, children: kids}
	}

	var nonAndList, andList []*ExpressionTree
	for _, kid := range kids {
		switch kid.op {
		case ExprAnd:
			andList = append(andList, kid)
		case ExprOr:
			nonAndList = append(nonAndList, kid.children...)
		default:
			nonAndList = append(nonAndList, kid)
		}
	}
	if len(andList) == 0 {
		return &ExpressionTree{op: ExprOr, children: kids}
	}
	if combinations, ok := n.checkCombinations(andList); !ok {
		if n.OnFallback != nil {
			n.OnFallback(combinations, n.threshold())
		}
		return Constant(YesNoNull)
	}
	return And(generateAllCombinations(andList, nonAndList)...)
}

// checkCombinations multiplies the clause counts of andList, stopping as
// soon as the product exceeds the threshold.
func (n Normalizer) checkCombinations(andList []*ExpressionTree) (int, bool) {
	limit := n.threshold()
	combinations := 1
	for _, and := range andList {
		combinations *= len(and.children)
		if combinations > limit {
			return combinations, false
		}
	}
	return combinations, true
}

// generateAllCombinations builds one OR clause for every way of picking one
// clause from each AND in andList; the disjuncts in nonAndList prefix every
// clause. The clauses of the first AND vary fastest.
func generateAllCombinations(andList, nonAndList []*ExpressionTree) []*ExpressionTree {
	var result [][]*ExpressionTree
	for _, kid := range andList[0].children {
		clause := make([]*ExpressionTree, 0, len(nonAndList)+len(andList))
		for _, node := range nonAndList {
			clause = append(clause, node.Copy())
		}
		result = append(result, appendDisjunct(clause, kid))
	}
	for _, and := range andList[1:] {
		work := result
		result = make([][]*ExpressionTree, 0, len(work)*len(and.children))
		for _, kid := range and.children {
			for _, prev := range work {
				clause := make([]*ExpressionTree, len(prev), len(prev)+1)
				for i, node := range prev {
					clause[i] = node.Copy()
				}
				result = append(result, appendDisjunct(clause, kid))
			}
		}
	}
	clauses := make([]*ExpressionTree, len(result))
	for i, clause := range result {
		clauses[i] = Or(clause...)
	}
	return clauses
}

func appendDisjunct(clause []*ExpressionTree, kid *ExpressionTree) []*ExpressionTree {
	if kid.op == ExprOr {
		for _, grandkid := range kid.children {
			clause = append(clause, grandkid.Copy())
		}
		return clause
	}
	return append(clause, kid.Copy())
}

// compactLeaves numbers the leaves of t in order of first appearance.
// reorder maps old leaf index to new index, -1 for unused leaves.
func compactLeaves(t *ExpressionTree, next int, reorder []int) int {
	if t.op == ExprLeaf {
		if reorder[t.leaf] == -1 {
			reorder[t.leaf] = next
			next++
		}
		return next
	}
	for _, kid := range t.children {
		next = compactLeaves(kid, next, reorder)
	}
	return next
}

// rewriteLeaves applies reorder to t in place.
func rewriteLeaves(t *ExpressionTree, reorder []int) {
	if t.op == ExprLeaf {
		t.leaf = reorder[t.leaf]
		return
	}
	for _, kid := range t.children {
		rewriteLeaves(kid, reorder)
	}
}
