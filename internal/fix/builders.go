package fix

import (
	"storytell/internal/diag"
	"storytell/internal/source"
)

// ReplaceSpan builds a fix that replaces the text under span.
func ReplaceSpan(title string, span source.Span, text string) diag.Fix {
	return diag.Fix{Title: title, Edits: []diag.FixEdit{{Span: span, NewText: text}}}
}

// InsertText builds a fix that inserts text at a position.
func InsertText(title string, at source.Span, text string) diag.Fix {
	at.End = at.Start
	return ReplaceSpan(title, at, text)
}

// DeleteSpan builds a fix that removes the text under span.
func DeleteSpan(title string, span source.Span) diag.Fix {
	return ReplaceSpan(title, span, "")
}
