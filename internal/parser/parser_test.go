package parser

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestLexer(t *testing.T) {
	tests := []struct {
		name  string
		input string
		types []TokenType
		lits  []string
	}{
		{
			name:  "comparisons",
			input: "a<=>1 b<>2 c!=3 d<=4 e>=5 f<6 g>7",
			types: []TokenType{
				TokenIdentifier, TokenNullSafeEQ, TokenNumber,
				TokenIdentifier, TokenNEQ, TokenNumber,
				TokenIdentifier, TokenNEQ, TokenNumber,
				TokenIdentifier, TokenLTE, TokenNumber,
				TokenIdentifier, TokenGTE, TokenNumber,
				TokenIdentifier, TokenLT, TokenNumber,
				TokenIdentifier, TokenGT, TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "numbers",
			input: "-5 .5 1.25 3e10 -2.5E-3",
			types: []TokenType{TokenNumber, TokenNumber, TokenNumber, TokenNumber, TokenNumber, TokenEOF},
			lits:  []string{"-5", ".5", "1.25", "3e10", "-2.5E-3", ""},
		},
		{
			name:  "keywords are case insensitive",
			input: "a is not null and b In (1) or not c between 1 AND 2",
			types: []TokenType{
				TokenIdentifier, TokenIS, TokenNOT, TokenNULL, TokenAND,
				TokenIdentifier, TokenIN, TokenLParen, TokenNumber, TokenRParen, TokenOR,
				TokenNOT, TokenIdentifier, TokenBETWEEN, TokenNumber, TokenAND, TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "strings and quoted identifiers",
			input: "`select` = 'it''s' -- trailing comment\n",
			types: []TokenType{TokenIdentifier, TokenEQ, TokenString, TokenEOF},
			lits:  []string{"select", "=", "it's", ""},
		},
		{
			name:  "dotted identifier",
			input: "t.col_1 = TRUE;",
			types: []TokenType{TokenIdentifier, TokenEQ, TokenTRUE, TokenSemicolon, TokenEOF},
			lits:  []string{"t.col_1", "=", "TRUE", ";", ""},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := NewLexer(tt.input).Tokenize()
			require.NoError(t, err)
			types := make([]TokenType, len(tokens))
			lits := make([]string, len(tokens))
			for i, tok := range tokens {
				types[i] = tok.Type
				lits[i] = tok.Literal
			}
			require.Equal(t, tt.types, types)
			if tt.lits != nil {
				require.Equal(t, tt.lits, lits)
			}
		})
	}
}

func TestLexerPositions(t *testing.T) {
	tokens, err := NewLexer("a = 1\n  AND b").Tokenize()
	require.NoError(t, err)
	require.Equal(t, 2, tokens[3].Line)
	require.Equal(t, 3, tokens[3].Col)
}

func TestParseExpression(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"comparison", "a = 1", "(a = 1)"},
		{"not equals normalized", "a <> 'x'", "(a != 'x')"},
		{"and binds tighter than or", "a = 1 OR b = 2 AND c = 3", "((a = 1) OR ((b = 2) AND (c = 3)))"},
		{"parens", "(a = 1 OR b = 2) AND c = 3", "(((a = 1) OR (b = 2)) AND (c = 3))"},
		{"not", "NOT a < 1 AND b > 2", "(NOT (a < 1) AND (b > 2))"},
		{"in", "a IN (1, 2, 3)", "a IN (1, 2, 3)"},
		{"not in", "a NOT IN ('x', NULL)", "a NOT IN ('x', NULL)"},
		{"between", "a BETWEEN 1 AND 5 AND b = 2", "(a BETWEEN 1 AND 5 AND (b = 2))"},
		{"not between", "a NOT BETWEEN -1 AND 1", "a NOT BETWEEN -1 AND 1"},
		{"is null", "a IS NULL OR b IS NOT NULL", "(a IS NULL OR b IS NOT NULL)"},
		{"literal on left", "10 >= a", "(10 >= a)"},
		{"booleans", "flag = true", "(flag = TRUE)"},
		{"quoted keyword column", "`and` = 1", "(`and` = 1)"},
		{"trailing semicolon", "a = 1;", "(a = 1)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := ParseExpression(tt.input)
			require.NoError(t, err)
			sql := ExprToSQL(expr)
			require.Equal(t, tt.want, sql)

			reparsed, err := ParseExpression(sql)
			require.NoError(t, err)
			require.Equal(t, expr, reparsed)
		})
	}
}

func TestParseExpressionErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"empty", "", "unexpected end of input"},
		{"dangling comparison", "a <", "unexpected end of input"},
		{"missing paren", "(a = 1", "expected ')'"},
		{"unclosed list", "a IN (1, 2", "expected ')'"},
		{"in without list", "a IN 1", "expected '('"},
		{"between without and", "a BETWEEN 1 OR 2", "expected AND"},
		{"is without null", "a IS 1", "expected NULL"},
		{"trailing tokens", "a = 1 b", `unexpected token "b" after expression`},
		{"unterminated string", "a = 'x", "unterminated string"},
		{"unterminated identifier", "`a = 1", "unterminated quoted identifier"},
		{"bang", "!a", "unexpected character '!'"},
		{"minus", "a = - 1", "unexpected character '-'"},
		{"bad exponent", "a = 1e", "malformed number"},
		{"lone dot", "a = .", "malformed number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseExpression(tt.input)
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrSyntax), "got %v", err)
			require.Contains(t, err.Error(), tt.msg)
		})
	}
}
