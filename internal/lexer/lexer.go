// Package lexer classifies story file bytes into characters, line endings,
// indentation and end of file. The markup parser drives it line by line and
// reaches into the shared cursor for multi-byte delimiters.
package lexer

import (
	"storytell/internal/input"
	"storytell/internal/source"
)

type Lexer struct {
	cursor      input.Cursor
	opts        Options
	atLineStart bool // предыдущий токен: перевод строки (или начало файла)
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		cursor:      input.FromFile(file),
		opts:        opts.normalized(),
		atLineStart: true,
	}
}

// Options returns the effective options.
func (lx *Lexer) Options() Options {
	return lx.opts
}

// Cursor exposes the underlying cursor. Moving it is allowed only at
// positions the lexer itself could have reached.
func (lx *Lexer) Cursor() *input.Cursor {
	return &lx.cursor
}

// Next returns one token and advances past it.
func (lx *Lexer) Next() Token {
	start := lx.cursor.Mark()
	if lx.cursor.AtEnd() {
		return Token{Kind: EndOfFile, Span: lx.cursor.SpanFrom(start)}
	}
	if lx.atEOL() {
		lx.cursor.Skip(lx.opts.LineEnding.Width())
		lx.atLineStart = true
		return Token{Kind: EndOfLine, Span: lx.cursor.SpanFrom(start)}
	}
	ch := lx.cursor.Next()
	if ch == ' ' && lx.atLineStart {
		// остаёмся в режиме отступа до первого не-пробела
		return Token{Kind: Indentation, Char: ch, Span: lx.cursor.SpanFrom(start)}
	}
	lx.atLineStart = false
	return Token{Kind: Character, Char: ch, Span: lx.cursor.SpanFrom(start)}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() Token {
	saved, line := lx.cursor.Mark(), lx.atLineStart
	tok := lx.Next()
	lx.cursor.Reset(saved)
	lx.atLineStart = line
	return tok
}

func (lx *Lexer) atEOL() bool {
	if lx.opts.LineEnding == CRLF {
		return lx.cursor.Peek() == '\r' && lx.cursor.PeekAt(1) == '\n'
	}
	return lx.cursor.Peek() == '\n'
}

// AtEOL reports whether the cursor sits on a line ending or at end of input.
func (lx *Lexer) AtEOL() bool {
	return lx.cursor.AtEnd() || lx.atEOL()
}

// LineEnd returns the offset where the current line's ending starts.
func (lx *Lexer) LineEnd() uint32 {
	return lx.cursor.LineEnd(lx.opts.LineEnding == CRLF)
}

// IndentRun counts leading spaces from the cursor without consuming them.
// A tab counts as a whole indentation unit.
func (lx *Lexer) IndentRun() int {
	n := 0
	for i := uint32(0); ; i++ {
		switch lx.cursor.PeekAt(i) {
		case ' ':
			n++
		case '\t':
			n += lx.opts.IndentWidth
		default:
			return n
		}
	}
}

// IndentDepth is IndentRun in indentation units.
func (lx *Lexer) IndentDepth() int {
	return lx.IndentRun() / lx.opts.IndentWidth
}

// SkipIndent consumes the leading whitespace run and returns its depth.
func (lx *Lexer) SkipIndent() int {
	depth := lx.IndentDepth()
	for {
		b := lx.cursor.Peek()
		if b != ' ' && b != '\t' {
			break
		}
		lx.cursor.Next()
	}
	lx.atLineStart = false
	return depth
}

// IsBlankLine reports whether the rest of the current line is whitespace.
func (lx *Lexer) IsBlankLine() bool {
	end := lx.LineEnd()
	for off := lx.cursor.Off; off < end; off++ {
		if b := lx.cursor.Src[off]; b != ' ' && b != '\t' && b != '\r' {
			return false
		}
	}
	return true
}

// SkipLine consumes the rest of the line including its ending.
func (lx *Lexer) SkipLine() {
	lx.cursor.Off = lx.LineEnd()
	if !lx.EatEOL() {
		lx.atLineStart = false
	}
}

// EatEOL consumes a line ending if the cursor is on one.
func (lx *Lexer) EatEOL() bool {
	if lx.cursor.AtEnd() || !lx.atEOL() {
		return false
	}
	lx.Next()
	return true
}

// SkipBlankLines consumes whole blank lines and leaves the cursor at the
// start of the next non-blank line.
func (lx *Lexer) SkipBlankLines() {
	for !lx.cursor.AtEnd() && lx.IsBlankLine() {
		lx.SkipLine()
	}
}

// Reset moves back to m, restoring the line-start state.
func (lx *Lexer) Reset(m input.Mark) {
	lx.cursor.Reset(m)
	off := uint32(m)
	lx.atLineStart = off == 0 || lx.cursor.Src[off-1] == '\n'
}
