package parser

import (
	"strings"

	"storytell/internal/ast"
	"storytell/internal/diag"
)

// parseLineText parses the rest of the line as text. Inline diverts are
// taken out of the text and returned separately.
func (p *Parser) parseLineText() (ast.Text, []*ast.Divert, Outcome) {
	lifted := len(p.lifted)
	text, _, out := p.parseText(p.textEnd(), "")
	diverts := append([]*ast.Divert(nil), p.lifted[lifted:]...)
	p.lifted = p.lifted[:lifted]
	if len(diverts) > 0 {
		text.Tail = strings.TrimRight(text.Tail, " \t")
	}
	return text, diverts, out
}

// parseText reads literal runs and inline elements up to end. With a closer
// it stops right after the closer and reports closed; otherwise it runs to
// end and closed is true.
func (p *Parser) parseText(end uint32, closer string) (ast.Text, bool, Outcome) {
	start := p.cur.Off
	var (
		text ast.Text
		lit  strings.Builder
	)
	out := Parsed
	push := func(in *ast.Inline) {
		text.Parts = append(text.Parts, ast.TextPart{Before: lit.String(), Inline: in})
		lit.Reset()
	}
	literal := func(opener string, code diag.Code) {
		p.errAt(code, p.cur.SpanAt(p.cur.Off, p.cur.Off+uint32(len(opener))), "missing closing symbol") // #nosec G115
		lit.WriteString(opener)
		p.cur.Skip(uint32(len(opener))) // #nosec G115
		out = out.worse(Recovered)
	}

	for p.cur.Off < end {
		if closer != "" && p.atCloser(closer) {
			text.Tail = lit.String()
			text.Range = p.cur.SpanAt(start, p.cur.Off)
			p.cur.Skip(uint32(len(closer))) // #nosec G115
			return text, true, out
		}
		b := p.cur.Peek()
		switch {
		case b == '\\':
			p.cur.Next()
			if p.cur.Off < end {
				lit.WriteByte(p.cur.Next())
			} else {
				lit.WriteByte('\\')
			}
		case p.cur.HasPrefix("**"):
			if in, o, ok := p.parseStyled(end, "**", ast.InlineBold); ok {
				push(in)
				out = out.worse(o)
			} else {
				literal("**", diag.SynUnclosedDelimiter)
			}
		case b == '*':
			if next := p.cur.PeekAt(1); p.cur.Off+1 >= end || next == ' ' || next == '\t' {
				// одиночная звёздочка перед пробелом: просто символ
				lit.WriteByte(p.cur.Next())
			} else if in, o, ok := p.parseStyled(end, "*", ast.InlineItalics); ok {
				push(in)
				out = out.worse(o)
			} else {
				literal("*", diag.SynUnclosedDelimiter)
			}
		case p.cur.HasPrefix("__"):
			if in, o, ok := p.parseStyled(end, "__", ast.InlineUnderline); ok {
				push(in)
				out = out.worse(o)
			} else {
				literal("__", diag.SynUnclosedDelimiter)
			}
		case b == '`':
			if in, ok := p.parseCodeSpan(end); ok {
				push(in)
			} else {
				literal("`", diag.SynUnclosedDelimiter)
			}
		case b == '{':
			if in, ok := p.parseScriptSpan(end); ok {
				push(in)
			} else {
				literal("{", diag.SynUnclosedScript)
			}
		case p.cur.HasPrefix("<->"), p.cur.HasPrefix("->"):
			lifted := len(p.lifted)
			out = out.worse(p.parseInlineDivert(end))
			if len(p.lifted) > lifted && (strings.HasSuffix(lit.String(), " ") || lit.Len() == 0 && len(text.Parts) == 0) {
				// "x -> a rest" keeps one space between x and rest
				for p.cur.Off < end && (p.cur.Peek() == ' ' || p.cur.Peek() == '\t') {
					p.cur.Next()
				}
			}
		case p.cur.HasPrefix("<>"):
			at := p.cur.Off
			p.cur.Skip(2)
			push(&ast.Inline{Kind: ast.InlineJoin, Range: p.cur.SpanAt(at, p.cur.Off)})
		default:
			lit.WriteByte(p.cur.Next())
		}
	}
	text.Tail = lit.String()
	text.Range = p.cur.SpanAt(start, p.cur.Off)
	return text, closer == "", out
}

func (p *Parser) atCloser(closer string) bool {
	if closer == "*" {
		// "***" закрывает курсив, затем жирный
		return p.cur.Peek() == '*' && (p.cur.PeekAt(1) != '*' || p.cur.PeekAt(2) == '*')
	}
	return p.cur.HasPrefix(closer)
}

// parseStyled tries delim...delim. On failure the cursor, diagnostics and
// lifted diverts are rolled back and ok is false.
func (p *Parser) parseStyled(end uint32, delim string, kind ast.InlineKind) (*ast.Inline, Outcome, bool) {
	open := p.cur.Off
	p.cur.Skip(uint32(len(delim))) // #nosec G115
	if _, found := p.cur.PositionOf(delim, end); !found {
		p.cur.Off = open
		return nil, Parsed, false
	}
	diagCount, liftedCount := len(p.diags), len(p.lifted)
	inner, closed, out := p.parseText(end, delim)
	if !closed {
		p.diags = p.diags[:diagCount]
		p.lifted = p.lifted[:liftedCount]
		p.cur.Off = open
		return nil, Parsed, false
	}
	return &ast.Inline{Kind: kind, Text: &inner, Range: p.cur.SpanAt(open, p.cur.Off)}, out, true
}

// parseCodeSpan reads `raw`; the content is not interpreted.
func (p *Parser) parseCodeSpan(end uint32) (*ast.Inline, bool) {
	open := p.cur.Off
	p.cur.Next()
	closeAt, found := p.cur.PositionOf("`", end)
	if !found {
		p.cur.Off = open
		return nil, false
	}
	raw := p.cur.Slice(p.cur.Off, closeAt)
	rawSpan := p.cur.SpanAt(p.cur.Off, closeAt)
	p.cur.Off = closeAt + 1
	return &ast.Inline{
		Kind:  ast.InlineCode,
		Text:  &ast.Text{Tail: raw, Range: rawSpan},
		Range: p.cur.SpanAt(open, p.cur.Off),
	}, true
}

// parseScriptSpan reads {raw script}. Braces nest; quoted strings may hold
// braces.
func (p *Parser) parseScriptSpan(end uint32) (*ast.Inline, bool) {
	open := p.cur.Off
	p.cur.Next()
	closeAt, found := p.matchClose('{', '}', end)
	if !found {
		p.cur.Off = open
		return nil, false
	}
	in := &ast.Inline{
		Kind:    ast.InlineScript,
		Raw:     p.cur.Slice(p.cur.Off, closeAt),
		RawSpan: p.cur.SpanAt(p.cur.Off, closeAt),
	}
	p.cur.Off = closeAt + 1
	in.Range = p.cur.SpanAt(open, p.cur.Off)
	return in, true
}

// parseInlineDivert reads `->`/`<->` and a dotted path and queues the
// divert for lifting.
func (p *Parser) parseInlineDivert(end uint32) Outcome {
	start := p.cur.Off
	d := &ast.Divert{Temporary: p.cur.Eat("<->")}
	if !d.Temporary {
		p.cur.Skip(2)
	}
	arrowEnd := p.cur.Off
	for p.cur.Off < end && (p.cur.Peek() == ' ' || p.cur.Peek() == '\t') {
		p.cur.Next()
	}
	segStart := p.cur.Off
	for p.cur.Off < end && !isPathStop(p.cur.Peek()) {
		if p.cur.Peek() == '.' {
			d.Path = append(d.Path, p.cur.Slice(segStart, p.cur.Off))
			d.PathSpans = append(d.PathSpans, p.cur.SpanAt(segStart, p.cur.Off))
			p.cur.Next()
			segStart = p.cur.Off
			continue
		}
		p.cur.Next()
	}
	if p.cur.Off == segStart && len(d.Path) == 0 {
		p.errAt(diag.SynEmptyDivert, p.cur.SpanAt(start, arrowEnd), "expected a path after '"+p.cur.Slice(start, arrowEnd)+"'")
		return Recovered
	}
	d.Path = append(d.Path, p.cur.Slice(segStart, p.cur.Off))
	d.PathSpans = append(d.PathSpans, p.cur.SpanAt(segStart, p.cur.Off))
	d.Range = p.cur.SpanAt(start, p.cur.Off)
	p.lifted = append(p.lifted, d)
	return Parsed
}

func isPathStop(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '*', '`', '{', '}', '<', '\\':
		return true
	}
	return false
}
