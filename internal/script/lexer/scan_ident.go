package lexer

import (
	"storytell/internal/diag"
	"storytell/internal/script/token"
)

// scanIdentOrKeyword сканирует идентификатор и проверяет через LookupKeyword.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.AtEnd() {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Next()
			continue
		}
		r, sz := lx.peekRune()
		if !isIdentContinueRune(r) {
			break
		}
		lx.cursor.Skip(uint32(sz)) // #nosec G115 -- rune size is at most 4
	}
	if uint32(start) == lx.cursor.Off {
		// одиночный не-буквенный юникод символ
		_, sz := lx.peekRune()
		lx.cursor.Skip(uint32(max(sz, 1))) // #nosec G115
		tok := lx.emit(token.Invalid, start)
		lx.errLex(diag.LexUnknownChar, tok.Span, "unknown character '"+tok.Text+"'")
		return tok
	}
	tok := lx.emit(token.Ident, start)
	if kw, ok := token.LookupKeyword(tok.Text); ok {
		tok.Kind = kw
	}
	return tok
}
