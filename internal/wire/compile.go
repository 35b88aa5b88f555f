package wire

import (
	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/magic"
	"storytell/internal/paths"
	"storytell/internal/source"
)

// Options feed inference results into the compiler.
type Options struct {
	// MagicVars lists the variables assigned by each script inline.
	MagicVars map[*ast.Inline][]MagicVar
}

// CompileFile converts one parsed file and its diagnostics.
func CompileFile(doc *ast.Document, diags []diag.Diagnostic, opts Options) FileDocument {
	c := compiler{opts: opts}
	return FileDocument{
		AST:         c.blocks(doc.Blocks),
		Diagnostics: Diagnostics(diags),
	}
}

// Diagnostics converts diagnostics; nil for an empty list.
func Diagnostics(diags []diag.Diagnostic) []Diagnostic {
	if len(diags) == 0 {
		return nil
	}
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		out[i] = Diagnostic{Message: d.Message, Range: rangeOf(d.Primary)}
	}
	return out
}

// Variables converts a store snapshot.
func Variables(entries []magic.Entry) []Variable {
	out := make([]Variable, 0, len(entries))
	for _, e := range entries {
		v := Variable{Name: e.Name, Kind: int(e.Kind.Tag), Conflict: e.Conflict}
		if len(e.Props) > 0 {
			v.Properties = Variables(e.Props)
		}
		out = append(out, v)
	}
	return out
}

// MagicVarOf describes one store variable for a script inline.
func MagicVarOf(s *magic.Store, id magic.VarID) MagicVar {
	return MagicVar{Name: s.Name(id), Kind: int(s.KindOf(id).Tag)}
}

type compiler struct {
	opts Options
}

func rangeOf(sp source.Span) Range {
	return Range{Start: sp.Start, End: sp.End}
}

func (c *compiler) blocks(blocks []ast.Block) []any {
	out := make([]any, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, c.block(b))
	}
	return out
}

func (c *compiler) block(b ast.Block) any {
	switch n := b.(type) {
	case *ast.Header:
		return c.header(n)
	case *ast.Paragraph:
		text := c.text(&n.Text)
		return &Paragraph{
			Kind:       KindParagraph,
			Parts:      text.Parts,
			Tail:       text.Tail,
			Range:      rangeOf(n.Range),
			Attributes: attributes(n.Attributes),
		}
	case *ast.CodeBlock:
		return &CodeBlock{
			Kind:       KindCode,
			Code:       n.Code,
			Language:   n.Language,
			Range:      rangeOf(n.Range),
			Attributes: attributes(n.Attributes),
		}
	case *ast.ChoiceGroup:
		return &ChoiceGroup{
			Kind:       KindChoiceGroup,
			Choices:    c.choices(n.Choices),
			Range:      rangeOf(n.Range),
			Attributes: attributes(n.Attributes),
		}
	case *ast.Divert:
		return &Divert{
			Kind:       KindDivert,
			Path:       append([]string{}, n.Path...),
			Temporary:  n.Temporary,
			Range:      rangeOf(n.Range),
			Attributes: attributes(n.Attributes),
		}
	case *ast.Match:
		return &Match{
			Kind:       KindMatch,
			Condition:  n.Condition,
			Modifier:   n.Modifier,
			Arms:       c.choices(n.Arms),
			Range:      rangeOf(n.Range),
			Attributes: attributes(n.Attributes),
			Children:   c.blocks(n.Children),
		}
	}
	return nil
}

// header splits children: sub-headers go to childPaths under their
// canonical name, everything else stays in children.
func (c *compiler) header(h *ast.Header) *Header {
	out := &Header{
		Title:          h.Title,
		CanonicalTitle: paths.Canonicalize(h.Title),
		ChildPaths:     make(map[string]*Header),
		Range:          rangeOf(h.Range),
		Children:       make([]any, 0, len(h.Children)),
		Attributes:     attributes(h.Attributes),
	}
	for _, child := range h.Children {
		if sub, ok := child.(*ast.Header); ok {
			out.ChildPaths[paths.Canonicalize(sub.Title)] = c.header(sub)
			continue
		}
		out.Children = append(out.Children, c.block(child))
	}
	return out
}

func (c *compiler) choices(choices []*ast.Choice) []*Choice {
	out := make([]*Choice, 0, len(choices))
	for _, ch := range choices {
		wc := &Choice{
			Text:       c.text(&ch.Text),
			Children:   c.blocks(ch.Children),
			Range:      rangeOf(ch.Range),
			Attributes: attributes(ch.Attributes),
		}
		if ch.Condition != nil {
			wc.Condition = &Condition{Modifier: ch.Condition.Modifier, Text: ch.Condition.Text}
		}
		out = append(out, wc)
	}
	return out
}

func (c *compiler) text(t *ast.Text) *Text {
	out := &Text{
		Parts: make([]TextPart, 0, len(t.Parts)),
		Tail:  t.Tail,
		Range: rangeOf(t.Range),
	}
	for _, part := range t.Parts {
		out.Parts = append(out.Parts, TextPart{Before: part.Before, Text: c.inline(part.Inline)})
	}
	return out
}

func (c *compiler) inline(in *ast.Inline) any {
	switch in.Kind {
	case ast.InlineScript:
		vars := c.opts.MagicVars[in]
		if vars == nil {
			vars = []MagicVar{}
		}
		return &ScriptInline{Kind: InlineScript, Text: in.Raw, MagicVariables: vars, Range: rangeOf(in.Range)}
	case ast.InlineJoin:
		return &JoinInline{Kind: InlineJoin, Range: rangeOf(in.Range)}
	}
	kind := InlineBold
	switch in.Kind {
	case ast.InlineItalics:
		kind = InlineItalics
	case ast.InlineUnderline:
		kind = InlineUnderline
	case ast.InlineCode:
		kind = InlineCode
	}
	text := &Text{Parts: []TextPart{}}
	if in.Text != nil {
		text = c.text(in.Text)
	}
	return &StyledInline{Kind: kind, Text: text, Range: rangeOf(in.Range)}
}

func attributes(attrs []ast.Attribute) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		params := a.Parameters
		if params == nil {
			params = []string{}
		}
		out = append(out, Attribute{Name: a.Name, Parameters: params, Range: rangeOf(a.Span)})
	}
	return out
}
