package lexer

import (
	"storytell/internal/diag"
	"storytell/internal/script/token"
)

// scanString сканирует '...' или "..." с escape-последовательностями.
// Незакрытая строка репортится, токен тянется до конца ввода.
func (lx *Lexer) scanString(quote byte) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Next() // opening quote
	for !lx.cursor.AtEnd() {
		b := lx.cursor.Next()
		switch b {
		case quote:
			return lx.emit(token.String, start)
		case '\\':
			lx.cursor.Next()
		}
	}
	tok := lx.emit(token.String, start)
	lx.errLex(diag.LexUnterminatedString, tok.Span, "unterminated string literal")
	return tok
}

// scanTemplate сканирует `...${expr}...` целиком; подстановки разбирает парсер.
func (lx *Lexer) scanTemplate() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Next() // opening backtick
	depth := 0
	for !lx.cursor.AtEnd() {
		b := lx.cursor.Next()
		switch {
		case b == '\\':
			lx.cursor.Next()
		case depth == 0 && b == '`':
			return lx.emit(token.Template, start)
		case b == '$' && lx.cursor.Peek() == '{':
			lx.cursor.Next()
			depth++
		case depth > 0 && b == '{':
			depth++
		case depth > 0 && b == '}':
			depth--
		case depth > 0 && (b == '"' || b == '\''):
			lx.skipQuoted(b)
		}
	}
	tok := lx.emit(token.Template, start)
	lx.errLex(diag.LexUnterminatedString, tok.Span, "unterminated template literal")
	return tok
}

func (lx *Lexer) skipQuoted(quote byte) {
	for !lx.cursor.AtEnd() {
		b := lx.cursor.Next()
		if b == '\\' {
			lx.cursor.Next()
			continue
		}
		if b == quote {
			return
		}
	}
}
