package token

import "fmt"

// Token is the source anchor carried by every AST node. The front end fills
// it in; the lowering engine only reads it back for diagnostics.
type Token struct {
	Lexeme string
	Line   int
	Column int
}

// New returns a token at the given position.
func New(lexeme string, line, column int) Token {
	return Token{Lexeme: lexeme, Line: line, Column: column}
}

// IsZero reports whether the token carries no position.
func (t Token) IsZero() bool {
	return t.Line == 0 && t.Column == 0
}

func (t Token) String() string {
	if t.IsZero() {
		return t.Lexeme
	}
	return fmt.Sprintf("%d:%d %q", t.Line, t.Column, t.Lexeme)
}
