package parser

import (
	"storytell/internal/ast"
	"storytell/internal/diag"
)

// parseChoiceList reads consecutive `-` lines at the same depth. The cursor
// sits on the first dash.
func (p *Parser) parseChoiceList(depth int) (*ast.ChoiceGroup, Outcome) {
	g := &ast.ChoiceGroup{}
	start := p.cur.Off
	out := Parsed
	for {
		c, o := p.parseChoice(depth)
		g.Choices = append(g.Choices, c)
		out = out.worse(o)

		p.lx.SkipBlankLines()
		if p.cur.AtEnd() || p.lx.IndentDepth() != depth {
			break
		}
		line := p.cur.Mark()
		p.lx.SkipIndent()
		if p.cur.Peek() != '-' || p.cur.PeekAt(1) == '>' {
			p.lx.Reset(line)
			break
		}
	}
	g.Range = p.cur.SpanAt(start, g.Choices[len(g.Choices)-1].Range.End)
	return g, out
}

// parseChoice reads `- [@if(expr)] text` and the choice body indented one
// level deeper.
func (p *Parser) parseChoice(depth int) (*ast.Choice, Outcome) {
	start := p.cur.Off
	p.cur.Next()
	p.skipSpaces()

	c := &ast.Choice{}
	out := Parsed
	for p.cur.Peek() == '@' && p.cur.PeekAt(1) != '{' {
		attr, ok, o := p.parseAttribute()
		if !ok {
			break
		}
		out = out.worse(o)
		switch attr.Name {
		case "if", "not":
			if c.Condition != nil {
				p.errAt(diag.SynBadAttribute, attr.Span, "choice already has a condition")
				out = out.worse(Recovered)
				break
			}
			rawStart := attr.Span.Start + uint32(len(attr.Name)) + 2 // #nosec G115 -- "@name("
			c.Condition = &ast.Condition{
				Modifier: attr.Name,
				Text:     attr.Raw,
				Span:     p.cur.SpanAt(rawStart, rawStart+uint32(len(attr.Raw))), // #nosec G115
			}
		default:
			c.Attributes = append(c.Attributes, attr)
		}
		p.skipSpaces()
	}

	text, diverts, o := p.parseLineText()
	out = out.worse(o)
	c.Text = text
	lineEnd := p.cur.Off
	p.finishLine()
	if text.Empty() && c.Condition == nil && len(diverts) == 0 {
		p.report(diag.SynEmptyChoice, diag.SevWarning, p.cur.SpanAt(start, lineEnd), "empty choice")
	}

	children, o := p.parseChildren(depth + 1)
	out = out.worse(o)
	for _, d := range diverts {
		c.Children = append(c.Children, d)
	}
	c.Children = append(c.Children, children...)

	end := lineEnd
	if len(children) > 0 {
		end = max(end, children[len(children)-1].Span().End)
	}
	c.Range = p.cur.SpanAt(start, end)
	return c, out
}
