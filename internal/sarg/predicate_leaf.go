package sarg

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/orcsarg/internal/stats"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// Operator is the comparison a PredicateLeaf applies to its column.
type Operator uint8

const (
	OpEquals Operator = iota
	OpNullSafeEquals
	OpLessThan
	OpLessThanEquals
	OpIn
	OpBetween
	OpIsNull
)

var operatorNames = [...]string{
	OpEquals:         "EQUALS",
	OpNullSafeEquals: "NULL_SAFE_EQUALS",
	OpLessThan:       "LESS_THAN",
	OpLessThanEquals: "LESS_THAN_EQUALS",
	OpIn:             "IN",
	OpBetween:        "BETWEEN",
	OpIsNull:         "IS_NULL",
}

func (op Operator) String() string {
	if int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return "UNKNOWN"
}

// ParseOperator parses the String form of an operator.
func ParseOperator(s string) (Operator, error) {
	for i, name := range operatorNames {
		if name == s {
			return Operator(i), nil
		}
	}
	return 0, errors.Newf("unknown predicate operator %q", s)
}

// PredicateLeaf is an atomic comparison of one column against literals. It is
// immutable once constructed and its literals are coerced to the declared type.
type PredicateLeaf struct {
	op       Operator
	typ      types.DataType
	column   string
	literal  types.Value
	literals []types.Value
}

// NewPredicateLeaf validates and coerces the literals of a leaf. IN and
// BETWEEN take literalList; IS_NULL takes no literal; every other operator
// takes literal. Literals supplied where the operator takes none are rejected.
func NewPredicateLeaf(
	op Operator, typ types.DataType, column string, literal types.Value, literalList []types.Value,
) (*PredicateLeaf, error) {
	if column == "" {
		return nil, errors.Wrapf(ErrMalformedLiteral, "%s without a column", op)
	}
	if _, ok := types.TypeInfoMap[typ]; !ok {
		return nil, errors.Newf("unknown data type %d for column %s", typ, column)
	}
	leaf := &PredicateLeaf{op: op, typ: typ, column: column}
	switch op {
	case OpIsNull:
		if literal != nil || len(literalList) > 0 {
			return nil, errors.Wrapf(ErrMalformedLiteral, "IS_NULL %s takes no literal", column)
		}
	case OpIn, OpBetween:
		if literal != nil {
			return nil, errors.Wrapf(ErrMalformedLiteral, "%s %s takes a literal list", op, column)
		}
		if len(literalList) == 0 {
			return nil, errors.Wrapf(ErrMalformedLiteral, "%s %s with an empty literal list", op, column)
		}
		if op == OpBetween && len(literalList) != 2 {
			return nil, errors.Wrapf(ErrMalformedLiteral,
				"BETWEEN %s needs 2 literals, got %d", column, len(literalList))
		}
		leaf.literals = make([]types.Value, len(literalList))
		for i, lit := range literalList {
			if lit == nil {
				return nil, errors.Wrapf(ErrMalformedLiteral, "%s %s: null literal at %d", op, column, i)
			}
			v, err := types.CoerceValue(typ, lit)
			if err != nil {
				return nil, errors.Wrapf(err, "%s %s", op, column)
			}
			leaf.literals[i] = v
		}
	case OpEquals, OpNullSafeEquals, OpLessThan, OpLessThanEquals:
		if len(literalList) > 0 {
			return nil, errors.Wrapf(ErrMalformedLiteral, "%s %s takes a single literal", op, column)
		}
		if literal == nil {
			return nil, errors.Wrapf(ErrMalformedLiteral, "%s %s: null literal", op, column)
		}
		v, err := types.CoerceValue(typ, literal)
		if err != nil {
			return nil, errors.Wrapf(err, "%s %s", op, column)
		}
		leaf.literal = v
	default:
		return nil, errors.Newf("unknown predicate operator %d", op)
	}
	return leaf, nil
}

func (l *PredicateLeaf) Operator() Operator   { return l.op }
func (l *PredicateLeaf) Type() types.DataType { return l.typ }
func (l *PredicateLeaf) Column() string       { return l.column }

// Literal returns the single literal, nil for IN, BETWEEN and IS_NULL.
func (l *PredicateLeaf) Literal() types.Value { return l.literal }

// LiteralList returns a copy of the IN or BETWEEN literals.
func (l *PredicateLeaf) LiteralList() []types.Value {
	if l.literals == nil {
		return nil
	}
	return append([]types.Value(nil), l.literals...)
}

func (l *PredicateLeaf) literalStrings() []string {
	if l.literal != nil {
		return []string{types.ValueToString(l.typ, l.literal)}
	}
	out := make([]string, len(l.literals))
	for i, v := range l.literals {
		out[i] = types.ValueToString(l.typ, v)
	}
	return out
}

// key is the deduplication identity of the leaf.
func (l *PredicateLeaf) key() string {
	var sb strings.Builder
	sb.WriteString(l.op.String())
	sb.WriteByte('|')
	sb.WriteString(l.typ.Name())
	sb.WriteByte('|')
	sb.WriteString(strconv.Quote(l.column))
	for _, s := range l.literalStrings() {
		sb.WriteByte('|')
		sb.WriteString(strconv.Quote(s))
	}
	return sb.String()
}

// Equal reports whether two leaves have the same operator, type, column and literals.
func (l *PredicateLeaf) Equal(other *PredicateLeaf) bool {
	return l.key() == other.key()
}

func (l *PredicateLeaf) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(l.op.String())
	sb.WriteByte(' ')
	sb.WriteString(l.column)
	for _, s := range l.literalStrings() {
		sb.WriteByte(' ')
		sb.WriteString(s)
	}
	sb.WriteByte(')')
	return sb.String()
}

// Evaluate computes the possible outcomes of the leaf over a row group with
// the given column statistics. Statistics that cannot be interpreted yield
// YesNoNull.
func (l *PredicateLeaf) Evaluate(cs stats.ColumnStatistics) TruthValue {
	if l.op == OpIsNull {
		switch {
		case cs.AllNull:
			return Yes
		case cs.HasNull:
			return YesNo
		default:
			return No
		}
	}
	if cs.AllNull {
		if l.op == OpNullSafeEquals {
			return No
		}
		return Null
	}
	if !cs.HasRange() || l.hasNaNLiteral() {
		return YesNoNull
	}
	lo, hi := cs.Min, cs.Max
	if cs.Type != l.typ {
		var err error
		if lo, err = types.CoerceValue(l.typ, cs.Min); err != nil {
			return YesNoNull
		}
		if hi, err = types.CoerceValue(l.typ, cs.Max); err != nil {
			return YesNoNull
		}
	}
	if types.IsNaN(lo) || types.IsNaN(hi) {
		return YesNoNull
	}
	r := l.evaluateRange(lo, hi, cs.HasNull)
	// Every comparison with NaN is false.
	if cs.HasNaN {
		r |= No
	}
	if cs.HasNull && l.op != OpNullSafeEquals {
		r |= Null
	}
	return r
}

func (l *PredicateLeaf) hasNaNLiteral() bool {
	if types.IsNaN(l.literal) {
		return true
	}
	for _, v := range l.literals {
		if types.IsNaN(v) {
			return true
		}
	}
	return false
}

// evaluateRange answers the comparison for non-null values within [lo, hi].
func (l *PredicateLeaf) evaluateRange(lo, hi types.Value, hasNull bool) TruthValue {
	cmp := func(a, b types.Value) int { return types.CompareValues(l.typ, a, b) }
	single := cmp(lo, hi) == 0
	switch l.op {
	case OpEquals, OpNullSafeEquals:
		if cmp(l.literal, lo) < 0 || cmp(l.literal, hi) > 0 {
			return No
		}
		if single && cmp(l.literal, lo) == 0 && !(l.op == OpNullSafeEquals && hasNull) {
			return Yes
		}
		return YesNo
	case OpLessThan:
		if cmp(hi, l.literal) < 0 {
			return Yes
		}
		if cmp(lo, l.literal) >= 0 {
			return No
		}
		return YesNo
	case OpLessThanEquals:
		if cmp(hi, l.literal) <= 0 {
			return Yes
		}
		if cmp(lo, l.literal) > 0 {
			return No
		}
		return YesNo
	case OpIn:
		for _, lit := range l.literals {
			if cmp(lit, lo) >= 0 && cmp(lit, hi) <= 0 {
				if single {
					return Yes
				}
				return YesNo
			}
		}
		return No
	case OpBetween:
		from, to := l.literals[0], l.literals[1]
		if cmp(to, lo) < 0 || cmp(from, hi) > 0 {
			return No
		}
		if cmp(from, lo) <= 0 && cmp(to, hi) >= 0 {
			return Yes
		}
		return YesNo
	default:
		return YesNo
	}
}

// Test evaluates the leaf against a single row value, nil being SQL NULL.
func (l *PredicateLeaf) Test(v types.Value) TruthValue {
	if v == nil {
		switch l.op {
		case OpIsNull:
			return Yes
		case OpNullSafeEquals:
			return No
		default:
			return Null
		}
	}
	if l.op == OpIsNull {
		return No
	}
	v, err := types.CoerceValue(l.typ, v)
	if err != nil {
		return YesNoNull
	}
	if types.IsNaN(v) {
		return No
	}
	if l.hasNaNLiteral() {
		if l.op == OpIn {
			for _, lit := range l.literals {
				if !types.IsNaN(lit) && types.CompareValues(l.typ, lit, v) == 0 {
					return Yes
				}
			}
		}
		return No
	}
	return l.evaluateRange(v, v, false)
}
