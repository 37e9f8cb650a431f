// Package predicate compiles filter expressions written in YAML into search
// arguments. A predicate is a mapping with a single operator key:
//
//	and:
//	  - lessThan: {column: x, type: LONG, literal: 10}
//	  - not:
//	      in: {column: s, type: STRING, literals: [a, b]}
//
// A top-level list is an implicit conjunction. Literals are parsed from their
// source text in the declared type, so decimals keep their scale.
package predicate

import (
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/harshithgowdakt/orcsarg/internal/sarg"
	"github.com/harshithgowdakt/orcsarg/internal/types"
)

// ErrSyntax marks a document that is not a well-formed predicate.
var ErrSyntax = errors.New("predicate syntax error")

// Compile parses a YAML predicate and builds its search argument.
func Compile(data []byte, opts ...sarg.BuilderOption) (*sarg.SearchArgument, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "parse predicate"), ErrSyntax)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.Mark(errors.New("empty predicate"), ErrSyntax)
	}
	return CompileNode(doc.Content[0], opts...)
}

// CompileNode builds the search argument of an already decoded predicate.
func CompileNode(n *yaml.Node, opts ...sarg.BuilderOption) (*sarg.SearchArgument, error) {
	c := &compiler{b: sarg.NewBuilder(opts...)}
	var err error
	if n.Kind == yaml.SequenceNode {
		err = c.list(n)
	} else {
		err = c.node(n)
	}
	if err != nil {
		return nil, err
	}
	return c.b.Build()
}

type compiler struct {
	b *sarg.Builder
}

func syntaxErrorf(n *yaml.Node, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf("line %d: "+format, append([]interface{}{n.Line}, args...)...), ErrSyntax)
}

// check attaches the position of n to an error recorded by the builder.
func (c *compiler) check(n *yaml.Node) error {
	if err := c.b.Err(); err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	return nil
}

func (c *compiler) list(n *yaml.Node) error {
	for _, child := range n.Content {
		if err := c.node(child); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) node(n *yaml.Node) error {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode || len(n.Content) != 2 {
		return syntaxErrorf(n, "expected a mapping with a single operator")
	}
	key, value := n.Content[0], n.Content[1]
	switch op := key.Value; op {
	case "and", "or":
		if value.Kind != yaml.SequenceNode {
			return syntaxErrorf(key, "%s expects a list", op)
		}
		if op == "and" {
			c.b.StartAnd()
		} else {
			c.b.StartOr()
		}
		if err := c.list(value); err != nil {
			return err
		}
		c.b.End()
		return c.check(key)
	case "not":
		c.b.StartNot()
		var err error
		if value.Kind == yaml.SequenceNode {
			err = c.list(value)
		} else {
			err = c.node(value)
		}
		if err != nil {
			return err
		}
		c.b.End()
		return c.check(key)
	case "constant":
		if value.Kind != yaml.ScalarNode {
			return syntaxErrorf(key, "constant expects a truth value")
		}
		v, err := sarg.ParseTruthValue(value.Value)
		if err != nil {
			return errors.Wrapf(err, "line %d", value.Line)
		}
		c.b.Literal(v)
		return c.check(key)
	default:
		return c.leaf(key, value)
	}
}

type leafSpec struct {
	column   string
	typ      types.DataType
	hasType  bool
	literal  *yaml.Node
	literals []*yaml.Node
}

func parseLeafSpec(op, value *yaml.Node) (*leafSpec, error) {
	if value.Kind != yaml.MappingNode {
		return nil, syntaxErrorf(op, "%s expects a mapping of column, type and literals", op.Value)
	}
	spec := &leafSpec{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		k, v := value.Content[i], value.Content[i+1]
		switch k.Value {
		case "column":
			spec.column = v.Value
		case "type":
			dt, err := types.ParseDataType(v.Value)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", v.Line)
			}
			spec.typ, spec.hasType = dt, true
		case "literal":
			spec.literal = v
		case "literals":
			if v.Kind != yaml.SequenceNode {
				return nil, syntaxErrorf(k, "literals expects a list")
			}
			spec.literals = v.Content
		default:
			return nil, syntaxErrorf(k, "unknown field %q", k.Value)
		}
	}
	if spec.column == "" {
		return nil, syntaxErrorf(op, "%s needs a column", op.Value)
	}
	if !spec.hasType {
		return nil, syntaxErrorf(op, "%s needs a type", op.Value)
	}
	return spec, nil
}

// parseLiteral returns nil for a missing or null literal.
func parseLiteral(dt types.DataType, n *yaml.Node) (types.Value, error) {
	if n == nil || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, syntaxErrorf(n, "expected a scalar literal")
	}
	v, err := types.ParseValue(dt, n.Value)
	if err != nil {
		return nil, errors.Wrapf(err, "line %d", n.Line)
	}
	return v, nil
}

// checkLiteralFields rejects literal fields the operator does not take.
func checkLiteralFields(op *yaml.Node, spec *leafSpec) error {
	var takesLiteral, takesList bool
	switch op.Value {
	case "isNull", "isNotNull":
	case "in", "between":
		takesList = true
	default:
		takesLiteral = true
	}
	if spec.literal != nil && !takesLiteral {
		return errors.Wrapf(sarg.ErrMalformedLiteral, "line %d: %s takes no literal", op.Line, op.Value)
	}
	if spec.literals != nil && !takesList {
		return errors.Wrapf(sarg.ErrMalformedLiteral, "line %d: %s takes no literals", op.Line, op.Value)
	}
	return nil
}

var leafOps = map[string]bool{
	"equals": true, "nullSafeEquals": true, "notEquals": true,
	"lessThan": true, "lessThanEquals": true, "greaterThan": true, "greaterThanEquals": true,
	"in": true, "between": true, "isNull": true, "isNotNull": true,
}

func (c *compiler) leaf(op, value *yaml.Node) error {
	if !leafOps[op.Value] {
		return syntaxErrorf(op, "unknown operator %q", op.Value)
	}
	spec, err := parseLeafSpec(op, value)
	if err != nil {
		return err
	}
	if err := checkLiteralFields(op, spec); err != nil {
		return err
	}
	literal, err := parseLiteral(spec.typ, spec.literal)
	if err != nil {
		return err
	}
	literals := make([]types.Value, len(spec.literals))
	for i, n := range spec.literals {
		if literals[i], err = parseLiteral(spec.typ, n); err != nil {
			return err
		}
	}

	b, col, typ := c.b, spec.column, spec.typ
	switch op.Value {
	case "equals":
		b.Equals(col, typ, literal)
	case "nullSafeEquals":
		b.NullSafeEquals(col, typ, literal)
	case "lessThan":
		b.LessThan(col, typ, literal)
	case "lessThanEquals":
		b.LessThanEquals(col, typ, literal)
	case "greaterThan":
		b.StartNot().LessThanEquals(col, typ, literal).End()
	case "greaterThanEquals":
		b.StartNot().LessThan(col, typ, literal).End()
	case "notEquals":
		b.StartNot().Equals(col, typ, literal).End()
	case "in":
		b.In(col, typ, literals...)
	case "between":
		if len(literals) != 2 {
			return errors.Wrapf(sarg.ErrMalformedLiteral, "line %d: between needs 2 literals, got %d", op.Line, len(literals))
		}
		b.Between(col, typ, literals[0], literals[1])
	case "isNull":
		b.IsNull(col, typ)
	case "isNotNull":
		b.StartNot().IsNull(col, typ).End()
	}
	return c.check(op)
}
