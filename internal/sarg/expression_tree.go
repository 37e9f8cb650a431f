package sarg

import (
	"strconv"
	"strings"
)

// ExprOp is the kind of an ExpressionTree node.
type ExprOp uint8

const (
	ExprOr ExprOp = iota
	ExprAnd
	ExprNot
	ExprLeaf
	ExprConstant
)

func (op ExprOp) String() string {
	switch op {
	case ExprOr:
		return "or"
	case ExprAnd:
		return "and"
	case ExprNot:
		return "not"
	case ExprLeaf:
		return "leaf"
	case ExprConstant:
		return "constant"
	}
	return "unknown"
}

// ExpressionTree is a boolean expression over predicate leaves. Leaves are
// referenced by their index in the owning SearchArgument, so the same leaf
// may appear in several clauses while interior nodes are never shared.
type ExpressionTree struct {
	op       ExprOp
	children []*ExpressionTree
	leaf     int
	constant TruthValue
}

// And returns an AND node over children.
func And(children ...*ExpressionTree) *ExpressionTree {
	return &ExpressionTree{op: ExprAnd, children: children}
}

// Or returns an OR node over children.
func Or(children ...*ExpressionTree) *ExpressionTree {
	return &ExpressionTree{op: ExprOr, children: children}
}

// Not returns a NOT node over child.
func Not(child *ExpressionTree) *ExpressionTree {
	return &ExpressionTree{op: ExprNot, children: []*ExpressionTree{child}}
}

// Leaf returns a reference to the leaf with the given index.
func Leaf(index int) *ExpressionTree {
	return &ExpressionTree{op: ExprLeaf, leaf: index}
}

// Constant returns a node with a fixed truth value.
func Constant(v TruthValue) *ExpressionTree {
	return &ExpressionTree{op: ExprConstant, constant: v}
}

func (t *ExpressionTree) Op() ExprOp { return t.op }

// Children returns the child nodes. Callers must not modify them.
func (t *ExpressionTree) Children() []*ExpressionTree { return t.children }

// LeafIndex returns the leaf index of a LEAF node.
func (t *ExpressionTree) LeafIndex() int { return t.leaf }

// Value returns the truth value of a CONSTANT node.
func (t *ExpressionTree) Value() TruthValue { return t.constant }

func (t *ExpressionTree) isConstant(v TruthValue) bool {
	return t.op == ExprConstant && t.constant == v
}

// Copy returns a deep copy of t.
func (t *ExpressionTree) Copy() *ExpressionTree {
	c := &ExpressionTree{op: t.op, leaf: t.leaf, constant: t.constant}
	if t.children != nil {
		c.children = make([]*ExpressionTree, len(t.children))
		for i, child := range t.children {
			c.children[i] = child.Copy()
		}
	}
	return c
}

// Evaluate folds the tree using the truth value of every leaf.
func (t *ExpressionTree) Evaluate(leaves []TruthValue) TruthValue {
	switch t.op {
	case ExprOr:
		r := YesNoNull
		for i, child := range t.children {
			if i == 0 {
				r = child.Evaluate(leaves)
			} else {
				r = r.Or(child.Evaluate(leaves))
			}
		}
		return r
	case ExprAnd:
		r := YesNoNull
		for i, child := range t.children {
			if i == 0 {
				r = child.Evaluate(leaves)
			} else {
				r = r.And(child.Evaluate(leaves))
			}
		}
		return r
	case ExprNot:
		return t.children[0].Evaluate(leaves).Not()
	case ExprLeaf:
		return leaves[t.leaf]
	default:
		return t.constant
	}
}

func (t *ExpressionTree) String() string {
	var sb strings.Builder
	t.format(&sb)
	return sb.String()
}

func (t *ExpressionTree) format(sb *strings.Builder) {
	switch t.op {
	case ExprLeaf:
		sb.WriteString("leaf-")
		sb.WriteString(strconv.Itoa(t.leaf))
	case ExprConstant:
		sb.WriteString(t.constant.String())
	default:
		sb.WriteByte('(')
		sb.WriteString(t.op.String())
		for _, child := range t.children {
			sb.WriteByte(' ')
			child.format(sb)
		}
		sb.WriteByte(')')
	}
}
