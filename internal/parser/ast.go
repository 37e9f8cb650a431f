// Package parser parses SQL WHERE clauses into an expression tree.
package parser

import (
	"strings"
)

// Expression is a node in an expression tree.
type Expression interface {
	exprNode()
}

// ColumnRef references a column by name.
type ColumnRef struct {
	Name string
}

func (*ColumnRef) exprNode() {}

// LiteralKind tells how a literal was written.
type LiteralKind uint8

const (
	LiteralNumber LiteralKind = iota
	LiteralString
	LiteralBool
	LiteralNull
)

// LiteralExpr is a literal kept as written, so that it can be parsed as the
// type of the column it is compared with.
type LiteralExpr struct {
	Kind LiteralKind
	Text string
}

func (*LiteralExpr) exprNode() {}

// BinaryExpr is a binary operation.
type BinaryExpr struct {
	Op    string // =, !=, <=>, <, >, <=, >=, AND, OR
	Left  Expression
	Right Expression
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a unary operation.
type UnaryExpr struct {
	Op   string // NOT
	Expr Expression
}

func (*UnaryExpr) exprNode() {}

// InExpr is expr [NOT] IN (list).
type InExpr struct {
	Expr Expression
	List []Expression
	Not  bool
}

func (*InExpr) exprNode() {}

// BetweenExpr is expr [NOT] BETWEEN lower AND upper.
type BetweenExpr struct {
	Expr  Expression
	Lower Expression
	Upper Expression
	Not   bool
}

func (*BetweenExpr) exprNode() {}

// IsNullExpr is expr IS [NOT] NULL.
type IsNullExpr struct {
	Expr Expression
	Not  bool
}

func (*IsNullExpr) exprNode() {}

// ExprToSQL converts an Expression AST back to its SQL text representation.
// Binary operations are parenthesized so that the text parses back to the
// same tree.
func ExprToSQL(expr Expression) string {
	if expr == nil {
		return ""
	}
	switch e := expr.(type) {
	case *ColumnRef:
		if isPlainIdentifier(e.Name) {
			return e.Name
		}
		return "`" + e.Name + "`"
	case *LiteralExpr:
		switch e.Kind {
		case LiteralString:
			return "'" + strings.ReplaceAll(e.Text, "'", "''") + "'"
		case LiteralNull:
			return "NULL"
		default:
			return e.Text
		}
	case *BinaryExpr:
		return "(" + ExprToSQL(e.Left) + " " + e.Op + " " + ExprToSQL(e.Right) + ")"
	case *UnaryExpr:
		return e.Op + " " + ExprToSQL(e.Expr)
	case *InExpr:
		items := make([]string, len(e.List))
		for i, item := range e.List {
			items[i] = ExprToSQL(item)
		}
		return ExprToSQL(e.Expr) + not(e.Not) + " IN (" + strings.Join(items, ", ") + ")"
	case *BetweenExpr:
		return ExprToSQL(e.Expr) + not(e.Not) + " BETWEEN " + ExprToSQL(e.Lower) + " AND " + ExprToSQL(e.Upper)
	case *IsNullExpr:
		if e.Not {
			return ExprToSQL(e.Expr) + " IS NOT NULL"
		}
		return ExprToSQL(e.Expr) + " IS NULL"
	default:
		return "?"
	}
}

func not(negated bool) string {
	if negated {
		return " NOT"
	}
	return ""
}

func isPlainIdentifier(name string) bool {
	if name == "" || !isIdentStart(name[0]) || LookupKeyword(name) != TokenIdentifier {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentPart(name[i]) {
			return false
		}
	}
	return true
}
