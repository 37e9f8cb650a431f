package sarg

import (
	"github.com/cockroachdb/errors"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/harshithgowdakt/orcsarg/internal/types"
)

type frameKind uint8

const (
	frameTop frameKind = iota
	frameAnd
	frameOr
	frameNot
)

func (k frameKind) String() string {
	switch k {
	case frameAnd:
		return "and"
	case frameOr:
		return "or"
	case frameNot:
		return "not"
	default:
		return "top"
	}
}

// frame is an expression under construction; its children are finished.
type frame struct {
	kind     frameKind
	children []*ExpressionTree
}

// Builder assembles a SearchArgument from nested Start*/End calls. It is not
// safe for concurrent use. The first error poisons the builder: later calls
// are ignored and Build returns that error.
type Builder struct {
	stack      []*frame
	leaves     []*PredicateLeaf
	leafIndex  map[string]int
	err        error
	normalizer Normalizer
	logger     log.Logger
	metrics    *Metrics
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCNFThreshold overrides DefaultCNFCombinationsThreshold.
func WithCNFThreshold(n int) BuilderOption {
	return func(b *Builder) { b.normalizer.CombinationsThreshold = n }
}

// WithLogger sets the logger used to report CNF fallbacks.
func WithLogger(logger log.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// WithMetrics records builds and CNF fallbacks.
func WithMetrics(m *Metrics) BuilderOption {
	return func(b *Builder) { b.metrics = m }
}

// NewBuilder returns a builder whose implicit top level is a conjunction.
// Every leaf, constant or closed operator added outside of any Start call
// becomes a child of that conjunction, so
//
//	NewBuilder().LessThan("x", t, 1).IsNull("y", t).Build()
//
// builds (and leaf-0 leaf-1), exactly as if both had been wrapped in
// StartAnd and End. A single top-level child is returned as is.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		stack:     []*frame{{kind: frameTop}},
		leafIndex: make(map[string]int),
		logger:    log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.normalizer.OnFallback = b.onCNFFallback
	return b
}

func (b *Builder) onCNFFallback(combinations, threshold int) {
	level.Warn(b.logger).Log(
		"msg", "disjunction too large to distribute, using YES_NO_NULL",
		"combinations", combinations,
		"threshold", threshold,
	)
	if b.metrics != nil {
		b.metrics.CNFFallbacks.Inc()
	}
}

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error { return b.err }

func (b *Builder) fail(err error) error {
	if b.err == nil {
		b.err = err
	}
	return b.err
}

func (b *Builder) top() *frame { return b.stack[len(b.stack)-1] }

func (b *Builder) start(kind frameKind) *Builder {
	if b.err != nil {
		return b
	}
	b.stack = append(b.stack, &frame{kind: kind})
	return b
}

// StartAnd opens a conjunction.
func (b *Builder) StartAnd() *Builder { return b.start(frameAnd) }

// StartOr opens a disjunction.
func (b *Builder) StartOr() *Builder { return b.start(frameOr) }

// StartNot opens a negation, which must receive exactly one child.
func (b *Builder) StartNot() *Builder { return b.start(frameNot) }

// End closes the innermost open expression, simplifies it and adds it to
// its parent.
func (b *Builder) End() *Builder {
	if b.err != nil {
		return b
	}
	if len(b.stack) == 1 {
		b.fail(errors.Wrap(ErrUnbalanced, "end without a matching start"))
		return b
	}
	current := b.top()
	b.stack = b.stack[:len(b.stack)-1]

	var node *ExpressionTree
	switch current.kind {
	case frameNot:
		if len(current.children) != 1 {
			b.fail(errors.Wrapf(ErrUnbalanced,
				"can't create not expression with %d children", len(current.children)))
			return b
		}
		node = Not(current.children[0])
	case frameAnd, frameOr:
		if len(current.children) == 0 {
			b.fail(errors.Wrapf(ErrEmptyExpression,
				"can't create %s expression with no children", current.kind))
			return b
		}
		if current.kind == frameAnd {
			node = And(current.children...)
		} else {
			node = Or(current.children...)
		}
	}
	node = FoldMaybe(PushDownNot(node))
	b.top().children = append(b.top().children, node)
	return b
}

func (b *Builder) addLeaf(
	op Operator, typ types.DataType, column string, literal types.Value, literalList []types.Value,
) *Builder {
	if b.err != nil {
		return b
	}
	leaf, err := NewPredicateLeaf(op, typ, column, literal, literalList)
	if err != nil {
		b.fail(err)
		return b
	}
	key := leaf.key()
	idx, ok := b.leafIndex[key]
	if !ok {
		idx = len(b.leaves)
		b.leaves = append(b.leaves, leaf)
		b.leafIndex[key] = idx
	}
	b.top().children = append(b.top().children, Leaf(idx))
	return b
}

// LessThan adds column < literal.
func (b *Builder) LessThan(column string, typ types.DataType, literal types.Value) *Builder {
	return b.addLeaf(OpLessThan, typ, column, literal, nil)
}

// LessThanEquals adds column <= literal.
func (b *Builder) LessThanEquals(column string, typ types.DataType, literal types.Value) *Builder {
	return b.addLeaf(OpLessThanEquals, typ, column, literal, nil)
}

// Equals adds column = literal.
func (b *Builder) Equals(column string, typ types.DataType, literal types.Value) *Builder {
	return b.addLeaf(OpEquals, typ, column, literal, nil)
}

// NullSafeEquals adds column <=> literal, which is never null.
func (b *Builder) NullSafeEquals(column string, typ types.DataType, literal types.Value) *Builder {
	return b.addLeaf(OpNullSafeEquals, typ, column, literal, nil)
}

// In adds column IN (literals...).
func (b *Builder) In(column string, typ types.DataType, literals ...types.Value) *Builder {
	return b.addLeaf(OpIn, typ, column, nil, literals)
}

// Between adds column BETWEEN lower AND upper, both inclusive.
func (b *Builder) Between(column string, typ types.DataType, lower, upper types.Value) *Builder {
	return b.addLeaf(OpBetween, typ, column, nil, []types.Value{lower, upper})
}

// IsNull adds column IS NULL.
func (b *Builder) IsNull(column string, typ types.DataType) *Builder {
	return b.addLeaf(OpIsNull, typ, column, nil, nil)
}

// Literal adds a constant, typically YesNoNull for a condition that cannot
// be pushed down.
func (b *Builder) Literal(v TruthValue) *Builder {
	if b.err != nil {
		return b
	}
	if !v.Valid() {
		b.fail(errors.Wrapf(ErrInvalidTruthValue, "%d", uint8(v)))
		return b
	}
	b.top().children = append(b.top().children, Constant(v))
	return b
}

// Build ANDs the top-level children, normalizes the result to CNF, renumbers
// the leaves it still references in order of appearance and returns the
// SearchArgument.
func (b *Builder) Build() (*SearchArgument, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.stack) != 1 {
		return nil, b.fail(errors.Wrapf(ErrUnbalanced, "failed to end %d operations", len(b.stack)-1))
	}
	root := b.stack[0]
	if len(root.children) == 0 {
		return nil, b.fail(errors.Wrap(ErrEmptyExpression, "no predicates"))
	}

	expr := FoldMaybe(PushDownNot(And(root.children...)))
	expr = Flatten(expr)
	expr = b.normalizer.ConvertToCNF(expr)
	expr = Flatten(expr)

	reorder := make([]int, len(b.leaves))
	for i := range reorder {
		reorder[i] = -1
	}
	n := compactLeaves(expr, 0, reorder)
	rewriteLeaves(expr, reorder)
	leaves := make([]*PredicateLeaf, n)
	for old, idx := range reorder {
		if idx >= 0 {
			leaves[idx] = b.leaves[old]
		}
	}

	if b.metrics != nil {
		b.metrics.Builds.Inc()
	}
	level.Debug(b.logger).Log("msg", "built search argument", "leaves", n, "expr", expr)
	return &SearchArgument{expression: expr, leaves: leaves}, nil
}
