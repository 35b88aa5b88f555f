// Package input provides the byte cursor shared by the markup lexer and the
// script tokenizer.
package input

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"storytell/internal/source"
)

// Cursor is a position inside a byte buffer. Branching is ASCII-only;
// multi-byte UTF-8 sequences pass through untouched.
type Cursor struct {
	Src  []byte
	File source.FileID
	Off  uint32
	// Limit is the exclusive upper bound for Off.
	Limit uint32
}

// New creates a cursor over src; spans it produces carry file.
func New(src []byte, file source.FileID) Cursor {
	limit, err := safecast.Conv[uint32](len(src))
	if err != nil {
		panic(fmt.Errorf("len content overflow: %w", err))
	}
	return Cursor{Src: src, File: file, Limit: limit}
}

// FromFile creates a cursor over the whole file.
func FromFile(f *source.File) Cursor {
	return New(f.Content, f.ID)
}

// AtEnd проверяет, достигнут ли конец буфера
func (c *Cursor) AtEnd() bool {
	return c.Off >= c.Limit
}

// Peek читает текущий байт, если есть, иначе возвращает 0
func (c *Cursor) Peek() byte {
	if c.AtEnd() {
		return 0
	}
	return c.Src[c.Off]
}

// PeekAt returns the byte n positions ahead, or 0 past the end.
func (c *Cursor) PeekAt(n uint32) byte {
	if c.Off+n >= c.Limit {
		return 0
	}
	return c.Src[c.Off+n]
}

// Next consumes one byte and returns it; 0 at the end.
func (c *Cursor) Next() byte {
	if c.AtEnd() {
		return 0
	}
	b := c.Src[c.Off]
	c.Off++
	return b
}

// Skip advances by n bytes, stopping at the end.
func (c *Cursor) Skip(n uint32) {
	c.Off = min(c.Off+n, c.Limit)
}

// Mark это метка, что бы быстро получать Span читаемого фрагмента
type Mark uint32

func (c *Cursor) Mark() Mark {
	return Mark(c.Off)
}

// Reset возвращает курсор назад к метке
func (c *Cursor) Reset(m Mark) {
	c.Off = uint32(m)
}

// SpanFrom returns [m, Off).
func (c *Cursor) SpanFrom(m Mark) source.Span {
	return source.Span{File: c.File, Start: uint32(m), End: c.Off}
}

// SpanAt returns [start, end) in the cursor's file.
func (c *Cursor) SpanAt(start, end uint32) source.Span {
	return source.Span{File: c.File, Start: start, End: end}
}

// Slice returns the bytes in [start, end) as a string.
func (c *Cursor) Slice(start, end uint32) string {
	end = min(end, c.Limit)
	if start >= end {
		return ""
	}
	return string(c.Src[start:end])
}

// HasPrefix reports whether the remaining input starts with s.
func (c *Cursor) HasPrefix(s string) bool {
	if c.AtEnd() {
		return s == ""
	}
	return bytes.HasPrefix(c.Src[c.Off:c.Limit], []byte(s))
}

// Eat consumes s if the remaining input starts with it.
func (c *Cursor) Eat(s string) bool {
	if !c.HasPrefix(s) {
		return false
	}
	c.Off += uint32(len(s)) // #nosec G115 -- prefix of a bounded buffer
	return true
}

// EatByte consumes b if it is the next byte.
func (c *Cursor) EatByte(b byte) bool {
	if !c.AtEnd() && c.Src[c.Off] == b {
		c.Off++
		return true
	}
	return false
}

// PositionOf returns the offset of the first occurrence of pattern in
// [Off, limit) without consuming anything.
func (c *Cursor) PositionOf(pattern string, limit uint32) (uint32, bool) {
	limit = min(limit, c.Limit)
	if c.Off >= limit || pattern == "" {
		return 0, false
	}
	i := bytes.Index(c.Src[c.Off:limit], []byte(pattern))
	if i < 0 {
		return 0, false
	}
	return c.Off + uint32(i), true // #nosec G115
}

// ConsumeUntil returns the text before the next occurrence of pattern and
// advances past the match. When pattern is absent nothing is consumed.
func (c *Cursor) ConsumeUntil(pattern string) (string, bool) {
	pos, ok := c.PositionOf(pattern, c.Limit)
	if !ok {
		return "", false
	}
	text := c.Slice(c.Off, pos)
	c.Off = pos + uint32(len(pattern)) // #nosec G115
	return text, true
}

// LineEnd returns the offset of the next '\n' (or of the '\r' of a "\r\n"
// pair when crlf is set), or Limit when the line is the last one.
func (c *Cursor) LineEnd(crlf bool) uint32 {
	pattern := "\n"
	if crlf {
		pattern = "\r\n"
	}
	if pos, ok := c.PositionOf(pattern, c.Limit); ok {
		return pos
	}
	return c.Limit
}

// Rest consumes everything up to end and returns it.
func (c *Cursor) Rest(end uint32) string {
	end = min(end, c.Limit)
	if end <= c.Off {
		return ""
	}
	s := c.Slice(c.Off, end)
	c.Off = end
	return s
}
