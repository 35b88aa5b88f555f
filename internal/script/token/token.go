package token

import (
	"storytell/internal/source"
)

// Token represents a single script token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a number, string, template or literal keyword.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case Number, String, Template, KwTrue, KwFalse, KwNull, KwUndefined:
		return true
	default:
		return false
	}
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
