package parser

// TokenType represents the type of a lexical token.
type TokenType int

const (
	// Literals
	TokenIdentifier TokenType = iota
	TokenNumber               // integer or float literal
	TokenString               // 'single-quoted string'

	// Keywords
	TokenAND
	TokenOR
	TokenNOT
	TokenIN
	TokenBETWEEN
	TokenIS
	TokenNULL
	TokenTRUE
	TokenFALSE

	// Operators and punctuation
	TokenLParen     // (
	TokenRParen     // )
	TokenComma      // ,
	TokenEQ         // =
	TokenNEQ        // != or <>
	TokenNullSafeEQ // <=>
	TokenLT         // <
	TokenGT         // >
	TokenLTE        // <=
	TokenGTE        // >=
	TokenSemicolon  // ;

	TokenEOF
)

var tokenNames = map[TokenType]string{
	TokenIdentifier: "identifier",
	TokenNumber:     "number",
	TokenString:     "string",
	TokenLParen:     "'('",
	TokenRParen:     "')'",
	TokenComma:      "','",
	TokenEOF:        "end of input",
}

func (tt TokenType) String() string {
	if name, ok := tokenNames[tt]; ok {
		return name
	}
	for kw, t := range keywords {
		if t == tt {
			return kw
		}
	}
	return "operator"
}

// Token represents a lexical token.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Col     int
}

var keywords = map[string]TokenType{
	"AND":     TokenAND,
	"OR":      TokenOR,
	"NOT":     TokenNOT,
	"IN":      TokenIN,
	"BETWEEN": TokenBETWEEN,
	"IS":      TokenIS,
	"NULL":    TokenNULL,
	"TRUE":    TokenTRUE,
	"FALSE":   TokenFALSE,
}

// LookupKeyword returns the keyword token type for an identifier, or TokenIdentifier.
func LookupKeyword(ident string) TokenType {
	// Case-insensitive lookup
	if tt, ok := keywords[toUpper(ident)]; ok {
		return tt
	}
	return TokenIdentifier
}

func toUpper(s string) string {
	b := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		} else {
			b[i] = c
		}
	}
	return string(b)
}
