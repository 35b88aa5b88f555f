package lexer

import "storytell/internal/source"

// Kind classifies one markup token.
type Kind uint8

const (
	Character Kind = iota
	EndOfLine
	Indentation
	EndOfFile
)

func (k Kind) String() string {
	switch k {
	case Character:
		return "character"
	case EndOfLine:
		return "end of line"
	case Indentation:
		return "indentation"
	case EndOfFile:
		return "end of file"
	}
	return "unknown"
}

// Token is one markup token. Char is set for Character and Indentation.
type Token struct {
	Kind Kind
	Char byte
	Span source.Span
}
