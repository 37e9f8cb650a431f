package predicate

import (
	"github.com/cockroachdb/errors"

	"github.com/harshithgowdakt/orcsarg/internal/parser"
	"github.com/harshithgowdakt/orcsarg/internal/sarg"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// CompileWhere parses a SQL WHERE clause and builds its search argument.
// Column types come from schema. Comparisons of a column with literals
// become leaves; anything else (unknown columns, column to column
// comparisons, literals that do not parse as the column type) becomes
// YES_NO_NULL and is left to the reader.
//
//	x < 10 AND NOT (s IN ('a', 'b') OR d IS NULL)
func CompileWhere(where string, schema map[string]types.DataType, opts ...sarg.BuilderOption) (*sarg.SearchArgument, error) {
	expr, err := parser.ParseExpression(where)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse where clause"), ErrSyntax)
	}
	return CompileExpr(expr, schema, opts...)
}

// CompileExpr builds the search argument of a parsed WHERE clause.
func CompileExpr(expr parser.Expression, schema map[string]types.DataType, opts ...sarg.BuilderOption) (*sarg.SearchArgument, error) {
	c := &whereCompiler{b: sarg.NewBuilder(opts...), schema: schema}
	c.compileExpr(expr)
	s, err := c.b.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "compile %s", parser.ExprToSQL(expr))
	}
	return s, nil
}

type whereCompiler struct {
	b      *sarg.Builder
	schema map[string]types.DataType
}

func (c *whereCompiler) unknown() { c.b.Literal(sarg.YesNoNull) }

// compileExpr walks the AST in pre-order, opening a builder frame for every
// logical operator.
func (c *whereCompiler) compileExpr(expr parser.Expression) {
	switch e := expr.(type) {
	case *parser.BinaryExpr:
		switch e.Op {
		case "AND":
			c.b.StartAnd()
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			c.b.End()
		case "OR":
			c.b.StartOr()
			c.compileExpr(e.Left)
			c.compileExpr(e.Right)
			c.b.End()
		default:
			c.comparison(e)
		}
	case *parser.UnaryExpr:
		if e.Op != "NOT" {
			c.unknown()
			return
		}
		c.b.StartNot()
		c.compileExpr(e.Expr)
		c.b.End()
	case *parser.InExpr:
		c.negated(e.Not, func() { c.in(e) })
	case *parser.BetweenExpr:
		c.negated(e.Not, func() { c.between(e) })
	case *parser.IsNullExpr:
		c.negated(e.Not, func() { c.isNull(e) })
	case *parser.LiteralExpr:
		c.constant(e)
	default:
		c.unknown()
	}
}

func (c *whereCompiler) negated(not bool, fn func()) {
	if not {
		c.b.StartNot()
		fn()
		c.b.End()
		return
	}
	fn()
}

// constant handles a literal used as a condition, as in WHERE TRUE.
func (c *whereCompiler) constant(lit *parser.LiteralExpr) {
	switch {
	case lit.Kind == parser.LiteralNull:
		c.b.Literal(sarg.Null)
	case lit.Kind == parser.LiteralBool && lit.Text == "TRUE":
		c.b.Literal(sarg.Yes)
	case lit.Kind == parser.LiteralBool:
		c.b.Literal(sarg.No)
	default:
		c.unknown()
	}
}

// column returns the name and type of a column reference known to the schema.
func (c *whereCompiler) column(expr parser.Expression) (string, types.DataType, bool) {
	ref, ok := expr.(*parser.ColumnRef)
	if !ok {
		return "", 0, false
	}
	dt, ok := c.schema[ref.Name]
	return ref.Name, dt, ok
}

// literal parses a non-null literal as dt.
func literal(expr parser.Expression, dt types.DataType) (types.Value, bool) {
	lit, ok := expr.(*parser.LiteralExpr)
	if !ok || lit.Kind == parser.LiteralNull {
		return nil, false
	}
	v, err := types.ParseValue(dt, lit.Text)
	if err != nil {
		return nil, false
	}
	return v, true
}

func isNullLiteral(expr parser.Expression) bool {
	lit, ok := expr.(*parser.LiteralExpr)
	return ok && lit.Kind == parser.LiteralNull
}

func (c *whereCompiler) comparison(e *parser.BinaryExpr) {
	colExpr, litExpr, flipped := extractColLit(e)
	if colExpr == nil {
		c.unknown()
		return
	}
	col, dt, ok := c.column(colExpr)
	if !ok {
		c.unknown()
		return
	}
	op := e.Op
	if flipped {
		op = flipOperator(op)
	}
	if isNullLiteral(litExpr) {
		// Only <=> compares with NULL; every other comparison is NULL.
		if op == "<=>" {
			c.b.IsNull(col, dt)
		} else {
			c.b.Literal(sarg.Null)
		}
		return
	}
	v, ok := literal(litExpr, dt)
	if !ok {
		c.unknown()
		return
	}

	b := c.b
	switch op {
	case "=":
		b.Equals(col, dt, v)
	case "<=>":
		b.NullSafeEquals(col, dt, v)
	case "!=":
		b.StartNot().Equals(col, dt, v).End()
	case "<":
		b.LessThan(col, dt, v)
	case "<=":
		b.LessThanEquals(col, dt, v)
	case ">":
		b.StartNot().LessThanEquals(col, dt, v).End()
	case ">=":
		b.StartNot().LessThan(col, dt, v).End()
	default:
		c.unknown()
	}
}

func (c *whereCompiler) in(e *parser.InExpr) {
	col, dt, ok := c.column(e.Expr)
	if !ok {
		c.unknown()
		return
	}
	values := make([]types.Value, 0, len(e.List))
	for _, item := range e.List {
		v, ok := literal(item, dt)
		if !ok {
			c.unknown()
			return
		}
		values = append(values, v)
	}
	c.b.In(col, dt, values...)
}

func (c *whereCompiler) between(e *parser.BetweenExpr) {
	col, dt, ok := c.column(e.Expr)
	if !ok {
		c.unknown()
		return
	}
	lower, ok := literal(e.Lower, dt)
	if !ok {
		c.unknown()
		return
	}
	upper, ok := literal(e.Upper, dt)
	if !ok {
		c.unknown()
		return
	}
	c.b.Between(col, dt, lower, upper)
}

func (c *whereCompiler) isNull(e *parser.IsNullExpr) {
	col, dt, ok := c.column(e.Expr)
	if !ok {
		c.unknown()
		return
	}
	c.b.IsNull(col, dt)
}

// extractColLit splits a comparison into its column and literal sides.
// flipped is set when the literal is on the left. Returns nil if the
// pattern doesn't match.
func extractColLit(e *parser.BinaryExpr) (col, lit parser.Expression, flipped bool) {
	if _, ok := e.Left.(*parser.ColumnRef); ok {
		if _, ok := e.Right.(*parser.LiteralExpr); ok {
			return e.Left, e.Right, false
		}
	}
	if _, ok := e.Right.(*parser.ColumnRef); ok {
		if _, ok := e.Left.(*parser.LiteralExpr); ok {
			return e.Right, e.Left, true
		}
	}
	return nil, nil, false
}

// flipOperator inverts comparison operators when the literal is on the left.
func flipOperator(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	default:
		return op
	}
}
