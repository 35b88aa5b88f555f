package lexer

import (
	"fmt"

	"storytell/internal/diag"
	"storytell/internal/input"
	"storytell/internal/script/token"
)

// scanNumber поддерживает 0b..., 0o..., 0x..., 123, 1.5, .5, 1e-3 и '_' между цифрами.
// Ошибочные формы репортятся, но токен всегда завершается как Number.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) {
		case 'b', 'B':
			return lx.scanRadix(start, 2)
		case 'o', 'O':
			return lx.scanRadix(start, 8)
		case 'x', 'X':
			return lx.scanRadix(start, 16)
		}
	}

	lx.scanDigits()
	if lx.isFraction() {
		lx.cursor.Next() // '.'
		lx.scanDigits()
		// второй '.' с цифрами: та же лексема, но с ошибкой
		for lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
			dot := lx.cursor.Off
			lx.cursor.Next()
			lx.errLex(diag.LexDuplicateDecimalPoint, lx.cursor.SpanAt(dot, dot+1), "duplicate decimal point in number")
			lx.scanDigits()
		}
	}

	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		mark := lx.cursor.Mark()
		lx.cursor.Next()
		if s := lx.cursor.Peek(); s == '+' || s == '-' {
			lx.cursor.Next()
		}
		if isDec(lx.cursor.Peek()) {
			lx.scanDigits()
		} else {
			lx.cursor.Reset(mark)
		}
	}

	lx.eatBadSuffix(10)
	return lx.emit(token.Number, start)
}

// isFraction reports whether the '.' under the cursor starts a fractional
// part: "1.5", "1." and ".5" do, "1.toFixed" and "1..." do not.
func (lx *Lexer) isFraction() bool {
	if lx.cursor.Peek() != '.' {
		return false
	}
	next := lx.cursor.PeekAt(1)
	if isDec(next) {
		return true
	}
	return next != '.' && !isIdentStartByte(next) && next < utf8RuneSelf
}

// scanDigits consumes a run of decimal digits and separators, reporting a
// trailing separator.
func (lx *Lexer) scanDigits() {
	for {
		b := lx.cursor.Peek()
		if !isDec(b) && b != '_' {
			return
		}
		lx.cursor.Next()
		if b == '_' && !isDec(lx.cursor.Peek()) {
			lx.badSeparator()
		}
	}
}

// badSeparator reports the '_' just consumed when no digit follows it.
func (lx *Lexer) badSeparator() {
	at := lx.cursor.Off - 1
	msg := "trailing '_' in number"
	if lx.cursor.Peek() == '_' {
		msg = "consecutive '_' in number"
	}
	lx.errLex(diag.LexTrailingSeparator, lx.cursor.SpanAt(at, at+1), msg)
}

func (lx *Lexer) scanRadix(start input.Mark, base int) token.Token {
	lx.cursor.Skip(2) // 0x / 0o / 0b
	digits := 0
	reported := false
	for {
		b := lx.cursor.Peek()
		if b == '_' {
			lx.cursor.Next()
			if !isAlnum(lx.cursor.Peek()) {
				lx.badSeparator()
			}
			continue
		}
		if !isAlnum(b) {
			break
		}
		at := lx.cursor.Off
		lx.cursor.Next()
		digits++
		if !validDigit(b, base) && !reported {
			reported = true
			lx.errLex(diag.LexInvalidDigit, lx.cursor.SpanAt(at, at+1),
				fmt.Sprintf("invalid digit '%c' in base %d number", b, base))
		}
	}
	if digits == 0 {
		lx.errLex(diag.LexBadNumber, lx.cursor.SpanFrom(start), "missing digits after base prefix")
	}
	return lx.emit(token.Number, start)
}

// eatBadSuffix consumes letters glued to a decimal number ("12abc").
func (lx *Lexer) eatBadSuffix(base int) {
	at := lx.cursor.Off
	for isAlnum(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Next()
	}
	if lx.cursor.Off > at {
		lx.errLex(diag.LexInvalidDigit, lx.cursor.SpanAt(at, at+1),
			fmt.Sprintf("invalid digit '%c' in base %d number", lx.cursor.Src[at], base))
	}
}

func validDigit(b byte, base int) bool {
	switch base {
	case 2:
		return b == '0' || b == '1'
	case 8:
		return b >= '0' && b <= '7'
	case 16:
		return isHex(b)
	}
	return isDec(b)
}
