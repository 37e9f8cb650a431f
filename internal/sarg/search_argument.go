package sarg

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// SearchArgument is a filter in conjunctive normal form over a list of
// predicate leaves. It is immutable and safe for concurrent evaluation.
type SearchArgument struct {
	expression *ExpressionTree
	leaves     []*PredicateLeaf
}

// Leaves returns the leaves in index order.
func (s *SearchArgument) Leaves() []*PredicateLeaf {
	return append([]*PredicateLeaf(nil), s.leaves...)
}

// Expression returns a copy of the normalized expression.
func (s *SearchArgument) Expression() *ExpressionTree {
	return s.expression.Copy()
}

// Evaluate folds the expression given one truth value per leaf.
func (s *SearchArgument) Evaluate(leafValues []TruthValue) TruthValue {
	return s.expression.Evaluate(leafValues)
}

func (s *SearchArgument) String() string {
	var sb strings.Builder
	for i, leaf := range s.leaves {
		sb.WriteString("leaf-")
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(" = ")
		sb.WriteString(leaf.String())
		sb.WriteString(", ")
	}
	sb.WriteString("expr = ")
	s.expression.format(&sb)
	return sb.String()
}

type leafJSON struct {
	Operator string   `json:"operator"`
	Type     string   `json:"type"`
	Column   string   `json:"column"`
	Literal  *string  `json:"literal,omitempty"`
	Literals []string `json:"literals,omitempty"`
}

type exprJSON struct {
	Op       string      `json:"op"`
	Leaf     *int        `json:"leaf,omitempty"`
	Value    string      `json:"value,omitempty"`
	Children []*exprJSON `json:"children,omitempty"`
}

type searchArgumentJSON struct {
	Leaves     []leafJSON `json:"leaves"`
	Expression *exprJSON  `json:"expression"`
}

// MarshalJSON encodes the leaves with their literals in canonical text form.
func (s *SearchArgument) MarshalJSON() ([]byte, error) {
	out := searchArgumentJSON{
		Leaves:     make([]leafJSON, len(s.leaves)),
		Expression: exprToJSON(s.expression),
	}
	for i, leaf := range s.leaves {
		lj := leafJSON{
			Operator: leaf.op.String(),
			Type:     leaf.typ.Name(),
			Column:   leaf.column,
		}
		switch {
		case leaf.literal != nil:
			lit := types.ValueToString(leaf.typ, leaf.literal)
			lj.Literal = &lit
		case leaf.literals != nil:
			lj.Literals = leaf.literalStrings()
		}
		out.Leaves[i] = lj
	}
	return json.Marshal(out)
}

func exprToJSON(t *ExpressionTree) *exprJSON {
	e := &exprJSON{Op: t.op.String()}
	switch t.op {
	case ExprLeaf:
		idx := t.leaf
		e.Leaf = &idx
	case ExprConstant:
		e.Value = t.constant.String()
	default:
		e.Children = make([]*exprJSON, len(t.children))
		for i, child := range t.children {
			e.Children[i] = exprToJSON(child)
		}
	}
	return e
}

// UnmarshalJSON decodes and validates a search argument produced by MarshalJSON.
func (s *SearchArgument) UnmarshalJSON(data []byte) error {
	var in searchArgumentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return errors.Wrap(err, "decode search argument")
	}
	leaves := make([]*PredicateLeaf, len(in.Leaves))
	for i, lj := range in.Leaves {
		leaf, err := leafFromJSON(lj)
		if err != nil {
			return errors.Wrapf(err, "leaf-%d", i)
		}
		leaves[i] = leaf
	}
	if in.Expression == nil {
		return errors.Wrap(ErrEmptyExpression, "search argument without expression")
	}
	expr, err := exprFromJSON(in.Expression, len(leaves))
	if err != nil {
		return err
	}
	s.leaves = leaves
	s.expression = expr
	return nil
}

func leafFromJSON(lj leafJSON) (*PredicateLeaf, error) {
	op, err := ParseOperator(lj.Operator)
	if err != nil {
		return nil, err
	}
	typ, err := types.ParseDataType(lj.Type)
	if err != nil {
		return nil, err
	}
	var literal types.Value
	if lj.Literal != nil {
		if literal, err = types.ParseValue(typ, *lj.Literal); err != nil {
			return nil, err
		}
	}
	var literals []types.Value
	for _, text := range lj.Literals {
		v, err := types.ParseValue(typ, text)
		if err != nil {
			return nil, err
		}
		literals = append(literals, v)
	}
	return NewPredicateLeaf(op, typ, lj.Column, literal, literals)
}

func exprFromJSON(e *exprJSON, numLeaves int) (*ExpressionTree, error) {
	switch e.Op {
	case "leaf":
		if e.Leaf == nil || *e.Leaf < 0 || *e.Leaf >= numLeaves {
			return nil, errors.Newf("leaf reference out of range (%d leaves)", numLeaves)
		}
		return Leaf(*e.Leaf), nil
	case "constant":
		v, err := ParseTruthValue(e.Value)
		if err != nil {
			return nil, err
		}
		return Constant(v), nil
	case "and", "or", "not":
		if len(e.Children) == 0 {
			return nil, errors.Wrapf(ErrEmptyExpression, "%s without children", e.Op)
		}
		if e.Op == "not" && len(e.Children) != 1 {
			return nil, errors.Wrapf(ErrUnbalanced, "not with %d children", len(e.Children))
		}
		kids := make([]*ExpressionTree, len(e.Children))
		for i, child := range e.Children {
			kid, err := exprFromJSON(child, numLeaves)
			if err != nil {
				return nil, err
			}
			kids[i] = kid
		}
		switch e.Op {
		case "and":
			return And(kids...), nil
		case "or":
			return Or(kids...), nil
		default:
			return Not(kids[0]), nil
		}
	default:
		return nil, errors.Newf("unknown expression operator %q", e.Op)
	}
}
