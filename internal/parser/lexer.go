package parser

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrSyntax marks a WHERE clause that cannot be tokenized or parsed.
var ErrSyntax = errors.New("syntax error")

func syntaxErrorf(line, col int, format string, args ...interface{}) error {
	return errors.Mark(errors.Newf("line %d col %d: %s", line, col, fmt.Sprintf(format, args...)), ErrSyntax)
}

// Lexer tokenizes a WHERE clause.
type Lexer struct {
	input []byte
	pos   int
	line  int
	col   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input: []byte(input),
		line:  1,
		col:   1,
	}
}

// Tokenize returns all tokens from the input.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}
	return tokens, nil
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}, nil
	}

	ch := l.input[l.pos]
	line, col := l.line, l.col
	single := func(tt TokenType) (Token, error) {
		l.advance()
		return Token{Type: tt, Literal: string(ch), Line: line, Col: col}, nil
	}

	switch {
	case ch == '(':
		return single(TokenLParen)
	case ch == ')':
		return single(TokenRParen)
	case ch == ',':
		return single(TokenComma)
	case ch == ';':
		return single(TokenSemicolon)
	case ch == '=':
		return single(TokenEQ)
	case ch == '-':
		if l.pos+1 < len(l.input) && (isDigit(l.input[l.pos+1]) || l.input[l.pos+1] == '.') {
			return l.readNumber()
		}
		return Token{}, syntaxErrorf(line, col, "unexpected character '-'")
	case ch == '!':
		l.advance()
		if l.peekByte() == '=' {
			l.advance()
			return Token{Type: TokenNEQ, Literal: "!=", Line: line, Col: col}, nil
		}
		return Token{}, syntaxErrorf(line, col, "unexpected character '!'")
	case ch == '<':
		l.advance()
		switch l.peekByte() {
		case '=':
			l.advance()
			if l.peekByte() == '>' {
				l.advance()
				return Token{Type: TokenNullSafeEQ, Literal: "<=>", Line: line, Col: col}, nil
			}
			return Token{Type: TokenLTE, Literal: "<=", Line: line, Col: col}, nil
		case '>':
			l.advance()
			return Token{Type: TokenNEQ, Literal: "<>", Line: line, Col: col}, nil
		}
		return Token{Type: TokenLT, Literal: "<", Line: line, Col: col}, nil
	case ch == '>':
		l.advance()
		if l.peekByte() == '=' {
			l.advance()
			return Token{Type: TokenGTE, Literal: ">=", Line: line, Col: col}, nil
		}
		return Token{Type: TokenGT, Literal: ">", Line: line, Col: col}, nil
	case ch == '\'':
		return l.readString()
	case ch == '`':
		return l.readQuotedIdentifier()
	case isDigit(ch) || ch == '.':
		return l.readNumber()
	case isIdentStart(ch):
		return l.readIdentifier()
	default:
		return Token{}, syntaxErrorf(line, col, "unexpected character '%c'", ch)
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos < len(l.input) {
		return l.input[l.pos]
	}
	return 0
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			l.advance()
		} else if ch == '-' && l.pos+1 < len(l.input) && l.input[l.pos+1] == '-' {
			// Line comment
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.advance()
			}
		} else {
			break
		}
	}
}

func (l *Lexer) readString() (Token, error) {
	line, col := l.line, l.col
	l.advance() // skip opening quote

	var literal []byte
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\'' {
			// Check for escaped quote ''
			if l.pos+1 < len(l.input) && l.input[l.pos+1] == '\'' {
				literal = append(literal, '\'')
				l.advance()
				l.advance()
				continue
			}
			l.advance() // skip closing quote
			return Token{Type: TokenString, Literal: string(literal), Line: line, Col: col}, nil
		}
		if ch == '\\' && l.pos+1 < len(l.input) {
			l.advance()
			switch l.input[l.pos] {
			case 'n':
				literal = append(literal, '\n')
			case 't':
				literal = append(literal, '\t')
			default:
				literal = append(literal, l.input[l.pos])
			}
			l.advance()
			continue
		}
		literal = append(literal, ch)
		l.advance()
	}
	return Token{}, syntaxErrorf(line, col, "unterminated string")
}

// readQuotedIdentifier reads a `back-quoted` column name.
func (l *Lexer) readQuotedIdentifier() (Token, error) {
	line, col := l.line, l.col
	l.advance()
	start := l.pos
	for l.pos < len(l.input) && l.input[l.pos] != '`' {
		l.advance()
	}
	if l.pos >= len(l.input) {
		return Token{}, syntaxErrorf(line, col, "unterminated quoted identifier")
	}
	name := string(l.input[start:l.pos])
	l.advance()
	if name == "" {
		return Token{}, syntaxErrorf(line, col, "empty quoted identifier")
	}
	return Token{Type: TokenIdentifier, Literal: name, Line: line, Col: col}, nil
}

func (l *Lexer) readNumber() (Token, error) {
	line, col := l.line, l.col
	start := l.pos

	if l.input[l.pos] == '-' {
		l.advance()
	}
	digits := 0
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.advance()
		digits++
	}

	// Check for decimal point
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.advance()
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
			digits++
		}
	}
	if digits == 0 {
		return Token{}, syntaxErrorf(line, col, "malformed number %q", l.input[start:l.pos])
	}

	// Exponent
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		l.advance()
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.advance()
		}
		exp := 0
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.advance()
			exp++
		}
		if exp == 0 {
			return Token{}, syntaxErrorf(line, col, "malformed number %q", l.input[start:l.pos])
		}
	}

	return Token{Type: TokenNumber, Literal: string(l.input[start:l.pos]), Line: line, Col: col}, nil
}

func (l *Lexer) readIdentifier() (Token, error) {
	line, col := l.line, l.col
	start := l.pos

	for l.pos < len(l.input) && isIdentPart(l.input[l.pos]) {
		l.advance()
	}

	literal := string(l.input[start:l.pos])
	return Token{Type: LookupKeyword(literal), Literal: literal, Line: line, Col: col}, nil
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}
func isIdentPart(ch byte) bool { return isIdentStart(ch) || isDigit(ch) || ch == '.' }
