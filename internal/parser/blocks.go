package parser

import (
	"strings"

	"storytell/internal/ast"
	"storytell/internal/diag"
)

// parseBlock reads one block at the cursor (start of a non-blank line).
// A paragraph with inline diverts yields the paragraph followed by the
// lifted divert blocks, hence the slice.
func (p *Parser) parseBlock(depth int) ([]ast.Block, Outcome) {
	attrs, out := p.parseAttributeLines(depth)
	if p.cur.AtEnd() || p.lx.IndentDepth() < depth {
		if len(attrs) > 0 {
			p.report(diag.SynBadAttribute, diag.SevWarning, attrs[len(attrs)-1].Span, "attribute is not attached to any block")
		}
		return nil, out
	}
	p.lx.SkipIndent()

	var (
		blocks []ast.Block
		o      Outcome
	)
	switch {
	case p.cur.Peek() == '#':
		var h *ast.Header
		h, o = p.parseHeader(depth)
		blocks = []ast.Block{h}
	case p.cur.HasPrefix("```"):
		var cb *ast.CodeBlock
		cb, o = p.parseCodeBlock()
		blocks = []ast.Block{cb}
	case p.cur.HasPrefix("@{"):
		var m *ast.Match
		m, o = p.parseMatch(depth)
		blocks = []ast.Block{m}
	case p.cur.Peek() == '-' && p.cur.PeekAt(1) != '>':
		var g *ast.ChoiceGroup
		g, o = p.parseChoiceList(depth)
		blocks = []ast.Block{g}
	default:
		// `->`/`<->` в начале строки дают пустой абзац и поднятый divert
		blocks, o = p.parseParagraph()
	}
	if len(blocks) > 0 {
		ast.SetAttributes(blocks[0], attrs)
	}
	return blocks, out.worse(o)
}

// parseAttributeLines reads consecutive `@name(params)` lines. A line that
// carries anything after the attribute is left for the block parser.
func (p *Parser) parseAttributeLines(depth int) ([]ast.Attribute, Outcome) {
	var attrs []ast.Attribute
	out := Parsed
	for {
		p.lx.SkipBlankLines()
		if p.cur.AtEnd() || p.lx.IndentDepth() < depth {
			return attrs, out
		}
		lineStart := p.cur.Mark()
		p.lx.SkipIndent()
		if p.cur.Peek() != '@' || p.cur.PeekAt(1) == '{' {
			p.lx.Reset(lineStart)
			return attrs, out
		}
		diagCount := len(p.diags)
		attr, ok, o := p.parseAttribute()
		p.skipSpaces()
		if !ok || p.cur.Off != p.textEnd() {
			p.diags = p.diags[:diagCount]
			p.lx.Reset(lineStart)
			return attrs, out
		}
		attrs = append(attrs, attr)
		out = out.worse(o)
		p.finishLine()
	}
}

// parseAttribute reads `@name` with an optional parenthesized parameter
// list. ok is false when the cursor does not hold an attribute at all.
func (p *Parser) parseAttribute() (ast.Attribute, bool, Outcome) {
	start := p.cur.Off
	if !p.cur.EatByte('@') {
		return ast.Attribute{}, false, Failed
	}
	nameStart := p.cur.Off
	for isNameByte(p.cur.Peek(), p.cur.Off == nameStart) {
		p.cur.Next()
	}
	if p.cur.Off == nameStart {
		p.cur.Off = start
		return ast.Attribute{}, false, Failed
	}
	attr := ast.Attribute{Name: p.cur.Slice(nameStart, p.cur.Off)}
	out := Parsed
	if p.cur.EatByte('(') {
		open := p.cur.Off - 1
		end := p.textEnd()
		closeAt, found := p.matchClose('(', ')', end)
		if !found {
			p.errAt(diag.SynUnclosedParen, p.cur.SpanAt(open, open+1), "missing closing symbol")
			closeAt = end
			out = Recovered
		}
		attr.Raw = p.cur.Slice(p.cur.Off, closeAt)
		attr.Parameters = splitParams(attr.Raw)
		p.cur.Off = closeAt
		if found {
			p.cur.Next()
		}
	}
	attr.Span = p.cur.SpanAt(start, p.cur.Off)
	return attr, true, out
}

func isNameByte(b byte, first bool) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b == '_':
		return true
	case b >= '0' && b <= '9', b == '-':
		return !first
	}
	return false
}

// splitParams режет по запятым верхнего уровня (вне скобок и кавычек)
func splitParams(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	var (
		params []string
		depth  int
		quote  byte
		last   int
	)
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		switch {
		case quote != 0:
			if b == '\\' {
				i++
			} else if b == quote {
				quote = 0
			}
		case b == '"' || b == '\'' || b == '`':
			quote = b
		case b == '(' || b == '[' || b == '{':
			depth++
		case b == ')' || b == ']' || b == '}':
			depth--
		case b == ',' && depth == 0:
			params = append(params, strings.TrimSpace(raw[last:i]))
			last = i + 1
		}
	}
	return append(params, strings.TrimSpace(raw[last:]))
}

// parseHeader reads `#..# title` and then every following block up to the
// next header of the same or a smaller depth.
func (p *Parser) parseHeader(depth int) (*ast.Header, Outcome) {
	start := p.cur.Off
	n := 0
	for p.cur.EatByte('#') {
		n++
	}
	p.cur.EatByte(' ')
	h := &ast.Header{Depth: n}
	h.Title, h.TitleSpan = p.restOfLine()
	lineEnd := p.cur.Off
	p.lx.EatEOL()

	children, out := p.parseSequence(depth, n)
	h.Children = children
	end := lineEnd
	if len(children) > 0 {
		end = max(end, children[len(children)-1].Span().End)
	}
	h.Range = p.cur.SpanAt(start, end)
	return h, out
}

// parseCodeBlock reads a fenced block. The language is the rest of the
// opening line; the body runs to the next fence.
func (p *Parser) parseCodeBlock() (*ast.CodeBlock, Outcome) {
	start := p.cur.Off
	p.cur.Skip(3)
	cb := &ast.CodeBlock{}
	cb.Language, _ = p.restOfLine()
	p.lx.EatEOL()

	out := Parsed
	body, found := p.cur.ConsumeUntil("```")
	if found {
		cb.Code = body
		end := p.cur.Off
		p.finishLine()
		cb.Range = p.cur.SpanAt(start, end)
		return cb, out
	}
	p.errAt(diag.SynUnclosedCodeBlock, p.cur.SpanAt(start, start+3), "missing closing symbol")
	cb.Code = p.cur.Rest(p.cur.Limit)
	cb.Range = p.cur.SpanAt(start, p.cur.Off)
	return cb, Recovered
}

// parseMatch reads `@{condition} modifier` and its indented body. Choices
// of the body become arms; other blocks stay as direct children.
func (p *Parser) parseMatch(depth int) (*ast.Match, Outcome) {
	start := p.cur.Off
	p.cur.Skip(2)
	m := &ast.Match{}
	out := Parsed

	end := p.textEnd()
	closeAt, found := p.matchClose('{', '}', end)
	if !found {
		p.errAt(diag.SynUnclosedScript, p.cur.SpanAt(start, start+2), "missing closing symbol")
		closeAt = end
		out = Recovered
	}
	m.Condition = p.cur.Slice(p.cur.Off, closeAt)
	m.ConditionSpan = p.cur.SpanAt(p.cur.Off, closeAt)
	p.cur.Off = closeAt
	if found {
		p.cur.Next()
	}

	modifier, modSpan := p.restOfLine()
	m.Modifier = modifier
	switch m.Modifier {
	case "":
		m.Mode = ast.MatchDefault
	case "if":
		m.Mode = ast.MatchIf
	case "not":
		m.Mode = ast.MatchNot
	default:
		p.errAt(diag.SynBadAttribute, modSpan, "unknown match modifier '"+m.Modifier+"'")
		out = Recovered
	}
	lineEnd := p.cur.Off
	p.lx.EatEOL()

	children, o := p.parseChildren(depth + 1)
	out = out.worse(o)
	for _, child := range children {
		if g, ok := child.(*ast.ChoiceGroup); ok {
			m.Arms = append(m.Arms, g.Choices...)
			continue
		}
		m.Children = append(m.Children, child)
	}
	end = lineEnd
	if len(children) > 0 {
		end = max(end, children[len(children)-1].Span().End)
	}
	m.Range = p.cur.SpanAt(start, end)
	return m, out
}

// parseParagraph reads one line of text. Inline diverts are lifted into
// divert blocks that follow the paragraph; a line holding only a divert
// yields no paragraph.
func (p *Parser) parseParagraph() ([]ast.Block, Outcome) {
	start := p.cur.Off
	text, diverts, out := p.parseLineText()
	end := p.cur.Off
	p.finishLine()

	var blocks []ast.Block
	if !text.Empty() {
		blocks = append(blocks, &ast.Paragraph{Text: text, Range: p.cur.SpanAt(start, end)})
	}
	for _, d := range diverts {
		blocks = append(blocks, d)
	}
	if len(blocks) == 0 {
		return nil, Failed
	}
	return blocks, out
}
