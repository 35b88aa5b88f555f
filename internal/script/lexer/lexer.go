// Package lexer tokenizes the embedded script language.
package lexer

import (
	"storytell/internal/diag"
	"storytell/internal/input"
	"storytell/internal/script/token"
	"storytell/internal/source"
)

// Options configures a Lexer.
type Options struct {
	Reporter diag.Reporter // может быть nil: тогда ошибки игнорируем (но продолжаем лексить)
}

// Lexer produces script tokens from a byte range.
type Lexer struct {
	cursor input.Cursor
	opts   Options
	look   *token.Token // 1 элементный буфер для токена
}

// New creates a lexer over src. Spans are relative to the start of src.
func New(src []byte, file source.FileID, opts Options) *Lexer {
	return &Lexer{cursor: input.New(src, file), opts: opts}
}

// NewRange creates a lexer over src[start:end] that keeps offsets relative
// to src. Used for template substitutions.
func NewRange(src []byte, file source.FileID, start, end uint32, opts Options) *Lexer {
	c := input.New(src, file)
	c.Off = start
	c.Limit = min(end, c.Limit)
	return &Lexer{cursor: c, opts: opts}
}

// Next returns the next token. After the end it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipSpace()
	if lx.cursor.AtEnd() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	ch := lx.cursor.Peek()
	switch {
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '.' && isDec(lx.cursor.PeekAt(1)):
		return lx.scanNumber()
	case ch == '"' || ch == '\'':
		return lx.scanString(ch)
	case ch == '`':
		return lx.scanTemplate()
	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek возвращает следующий токен, не потребляя его.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) skipSpace() {
	for !lx.cursor.AtEnd() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\r', '\n':
			lx.cursor.Next()
		default:
			return
		}
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return lx.cursor.SpanAt(lx.cursor.Off, lx.cursor.Off)
}

func (lx *Lexer) emit(kind token.Kind, start input.Mark) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.cursor.Slice(sp.Start, sp.End)}
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}
