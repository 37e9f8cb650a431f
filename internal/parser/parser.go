package parser

// Parser is a recursive descent parser for WHERE clauses.
type Parser struct {
	tokens []Token
	pos    int
}

// NewParser creates a parser from a slice of tokens.
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseExpression parses a standalone WHERE clause into an AST Expression.
// A trailing semicolon is allowed.
func ParseExpression(sql string) (Expression, error) {
	tokens, err := NewLexer(sql).Tokenize()
	if err != nil {
		return nil, err
	}
	p := NewParser(tokens)
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	p.match(TokenSemicolon)
	if p.peek().Type != TokenEOF {
		return nil, p.errorf("unexpected token %q after expression", p.peek().Literal)
	}
	return expr, nil
}

// --- Token helpers ---

func (p *Parser) peek() Token {
	return p.peekAt(p.pos)
}

func (p *Parser) peekAt(pos int) Token {
	if pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[pos]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(tt TokenType) (Token, error) {
	if p.peek().Type != tt {
		return Token{}, p.errorf("expected %s, got %q", tt, p.peek().Literal)
	}
	return p.advance(), nil
}

func (p *Parser) match(tt TokenType) bool {
	if p.peek().Type == tt {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) errorf(format string, args ...interface{}) error {
	tok := p.peek()
	return syntaxErrorf(tok.Line, tok.Col, format, args...)
}

// --- Expression parsing (recursive descent with precedence) ---
// Precedence (lowest to highest): OR, AND, NOT, comparison, primary

func (p *Parser) parseExpression() (Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenOR {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peek().Type == TokenAND {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expression, error) {
	if p.peek().Type == TokenNOT {
		p.advance()
		expr, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", Expr: expr}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	switch p.peek().Type {
	case TokenEQ, TokenNEQ, TokenNullSafeEQ, TokenLT, TokenGT, TokenLTE, TokenGTE:
		op := p.advance().Literal
		if op == "<>" {
			op = "!="
		}
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &BinaryExpr{Op: op, Left: left, Right: right}, nil
	case TokenIS:
		p.advance()
		negated := p.match(TokenNOT)
		if _, err := p.expect(TokenNULL); err != nil {
			return nil, err
		}
		return &IsNullExpr{Expr: left, Not: negated}, nil
	}

	// [NOT] IN / [NOT] BETWEEN
	negated := false
	if p.peek().Type == TokenNOT {
		next := p.peekAt(p.pos + 1).Type
		if next != TokenIN && next != TokenBETWEEN {
			return left, nil
		}
		p.advance()
		negated = true
	}
	switch p.peek().Type {
	case TokenIN:
		p.advance()
		list, err := p.parseList()
		if err != nil {
			return nil, err
		}
		return &InExpr{Expr: left, List: list, Not: negated}, nil
	case TokenBETWEEN:
		p.advance()
		lower, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenAND); err != nil {
			return nil, err
		}
		upper, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &BetweenExpr{Expr: left, Lower: lower, Upper: upper, Not: negated}, nil
	}
	return left, nil
}

// parseList parses (expr, expr, ...).
func (p *Parser) parseList() ([]Expression, error) {
	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	var list []Expression
	for {
		item, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		list = append(list, item)
		if !p.match(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}
	return list, nil
}

func (p *Parser) parsePrimary() (Expression, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.advance()
		return &LiteralExpr{Kind: LiteralNumber, Text: tok.Literal}, nil

	case TokenString:
		p.advance()
		return &LiteralExpr{Kind: LiteralString, Text: tok.Literal}, nil

	case TokenTRUE, TokenFALSE:
		p.advance()
		return &LiteralExpr{Kind: LiteralBool, Text: toUpper(tok.Literal)}, nil

	case TokenNULL:
		p.advance()
		return &LiteralExpr{Kind: LiteralNull, Text: "NULL"}, nil

	case TokenIdentifier:
		p.advance()
		return &ColumnRef{Name: tok.Literal}, nil

	case TokenLParen:
		p.advance()
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case TokenEOF:
		return nil, p.errorf("unexpected end of input in expression")

	default:
		return nil, p.errorf("unexpected token %q in expression", tok.Literal)
	}
}
