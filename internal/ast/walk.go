package ast

import "storytell/internal/source"

// Inspect visits blocks depth-first in source order. Choices of groups and
// match arms are entered, with their children. Returning false from fn skips
// the block's descendants.
func Inspect(blocks []Block, fn func(Block) bool) {
	for _, b := range blocks {
		inspectBlock(b, fn)
	}
}

func inspectBlock(b Block, fn func(Block) bool) {
	if !fn(b) {
		return
	}
	switch n := b.(type) {
	case *Header:
		Inspect(n.Children, fn)
	case *ChoiceGroup:
		for _, c := range n.Choices {
			Inspect(c.Children, fn)
		}
	case *Match:
		for _, c := range n.Arms {
			Inspect(c.Children, fn)
		}
		Inspect(n.Children, fn)
	}
}

// ScriptOrigin tells where a script fragment came from.
type ScriptOrigin uint8

const (
	FromInline ScriptOrigin = iota
	FromMatch
	FromCondition
)

// ScriptRef is one script fragment found in a document. Span is the file
// span of Raw; script-local offsets are relative to Span.Start.
type ScriptRef struct {
	Origin ScriptOrigin
	Raw    string
	Span   source.Span
	Inline *Inline // only for FromInline
}

// Scripts lists every script fragment of the document in source order.
func (d *Document) Scripts() []ScriptRef {
	var out []ScriptRef
	collectText := func(t *Text) {
		walkInlines(t, func(in *Inline) {
			if in.Kind == InlineScript {
				out = append(out, ScriptRef{Origin: FromInline, Raw: in.Raw, Span: in.RawSpan, Inline: in})
			}
		})
	}
	collectChoice := func(c *Choice) {
		if c.Condition != nil {
			out = append(out, ScriptRef{Origin: FromCondition, Raw: c.Condition.Text, Span: c.Condition.Span})
		}
		collectText(&c.Text)
	}
	Inspect(d.Blocks, func(b Block) bool {
		switch n := b.(type) {
		case *Paragraph:
			collectText(&n.Text)
		case *ChoiceGroup:
			for _, c := range n.Choices {
				collectChoice(c)
			}
		case *Match:
			out = append(out, ScriptRef{Origin: FromMatch, Raw: n.Condition, Span: n.ConditionSpan})
			for _, c := range n.Arms {
				collectChoice(c)
			}
		}
		return true
	})
	return orderScripts(out)
}

// Choice texts are collected when their group is visited, before the
// children of earlier choices; restore source order.
func orderScripts(refs []ScriptRef) []ScriptRef {
	for i := 1; i < len(refs); i++ {
		for j := i; j > 0 && refs[j].Span.Start < refs[j-1].Span.Start; j-- {
			refs[j], refs[j-1] = refs[j-1], refs[j]
		}
	}
	return refs
}

func walkInlines(t *Text, fn func(*Inline)) {
	for _, part := range t.Parts {
		fn(part.Inline)
		if part.Inline.Text != nil {
			walkInlines(part.Inline.Text, fn)
		}
	}
}

// Headers returns the top-level headers of the document.
func (d *Document) Headers() []*Header {
	var out []*Header
	for _, b := range d.Blocks {
		if h, ok := b.(*Header); ok {
			out = append(out, h)
		}
	}
	return out
}

// DivertSite is a divert together with the innermost header around it
// (nil at file level).
type DivertSite struct {
	Divert *Divert
	Header *Header
}

// Diverts lists every divert of the document in source order.
func (d *Document) Diverts() []DivertSite {
	var out []DivertSite
	var visit func(blocks []Block, owner *Header)
	visit = func(blocks []Block, owner *Header) {
		for _, b := range blocks {
			switch n := b.(type) {
			case *Divert:
				out = append(out, DivertSite{Divert: n, Header: owner})
			case *Header:
				visit(n.Children, n)
			case *ChoiceGroup:
				for _, c := range n.Choices {
					visit(c.Children, owner)
				}
			case *Match:
				for _, c := range n.Arms {
					visit(c.Children, owner)
				}
				visit(n.Children, owner)
			}
		}
	}
	visit(d.Blocks, nil)
	return out
}
