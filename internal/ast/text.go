package ast

import (
	"strings"

	"storytell/internal/source"
)

type InlineKind uint8

const (
	InlineBold InlineKind = iota
	InlineItalics
	InlineUnderline
	InlineCode
	InlineJoin
	InlineScript
)

func (k InlineKind) String() string {
	switch k {
	case InlineBold:
		return "bold"
	case InlineItalics:
		return "italics"
	case InlineUnderline:
		return "underline"
	case InlineCode:
		return "code"
	case InlineJoin:
		return "join"
	case InlineScript:
		return "script"
	}
	return "unknown"
}

// Text is literal runs interleaved with inline elements:
// Parts[0].Before, Parts[0].Inline, Parts[1].Before, ..., Tail.
type Text struct {
	Parts []TextPart
	Tail  string
	Range source.Span
}

type TextPart struct {
	Before string
	Inline *Inline
}

// Inline is a styled span, a join or a script span.
// Text is set for Bold, Italics, Underline and Code (raw in Tail).
// Raw and RawSpan are set for Script; RawSpan excludes the braces.
type Inline struct {
	Kind    InlineKind
	Text    *Text
	Raw     string
	RawSpan source.Span
	Range   source.Span
}

// Empty reports whether the text has neither parts nor tail.
func (t *Text) Empty() bool {
	return len(t.Parts) == 0 && t.Tail == ""
}

// Plain flattens the text, dropping markup. Script spans keep their braces.
func (t *Text) Plain() string {
	if len(t.Parts) == 0 {
		return t.Tail
	}
	var sb strings.Builder
	t.writePlain(&sb)
	return sb.String()
}

func (t *Text) writePlain(sb *strings.Builder) {
	for _, part := range t.Parts {
		sb.WriteString(part.Before)
		part.Inline.writePlain(sb)
	}
	sb.WriteString(t.Tail)
}

func (in *Inline) writePlain(sb *strings.Builder) {
	switch in.Kind {
	case InlineScript:
		sb.WriteByte('{')
		sb.WriteString(in.Raw)
		sb.WriteByte('}')
	case InlineJoin:
	default:
		if in.Text != nil {
			in.Text.writePlain(sb)
		}
	}
}
