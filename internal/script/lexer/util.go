package lexer

import (
	"unicode"
	"unicode/utf8"
)

const utf8RuneSelf = 0x80

func isIdentStartByte(b byte) bool {
	return b == '_' || b == '$' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isAlnum(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// peekRune читает текущую руну без сдвига курсора
func (lx *Lexer) peekRune() (rune, int) {
	if lx.cursor.AtEnd() {
		return utf8.RuneError, 0
	}
	b := lx.cursor.Peek()
	if b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.cursor.Src[lx.cursor.Off:lx.cursor.Limit])
}

func isIdentContinueRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// try пробует съесть s целиком.
func (lx *Lexer) try(s string) bool {
	return lx.cursor.Eat(s)
}
