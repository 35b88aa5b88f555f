package parser

import (
	"strings"

	"storytell/internal/diag"
	"storytell/internal/source"
)

// textEnd: конец содержимого строки; в режиме LF хвостовой '\r' отрезается
func (p *Parser) textEnd() uint32 {
	end := p.lx.LineEnd()
	if !p.crlf && end > p.cur.Off && p.cur.Src[end-1] == '\r' {
		end--
	}
	return end
}

// restOfLine consumes the current line without its ending and returns it
// trimmed, together with the span of the trimmed text.
func (p *Parser) restOfLine() (string, source.Span) {
	end := p.textEnd()
	raw := p.cur.Slice(p.cur.Off, end)
	lead := uint32(len(raw) - len(strings.TrimLeft(raw, " \t")))     // #nosec G115
	trail := uint32(len(raw) - len(strings.TrimRight(raw, " \t\r"))) // #nosec G115
	start := p.cur.Off
	p.cur.Off = p.lx.LineEnd()
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", p.cur.SpanAt(start, start)
	}
	return text, p.cur.SpanAt(start+lead, end-trail)
}

// finishLine drops whatever is left on the line and the line ending.
func (p *Parser) finishLine() {
	p.lx.SkipLine()
}

func (p *Parser) skipSpaces() {
	for b := p.cur.Peek(); b == ' ' || b == '\t'; b = p.cur.Peek() {
		p.cur.Next()
	}
}

// matchClose finds the closer matching an opener that sits just before the
// cursor. Nested openers and quoted strings are skipped. The scan stops at
// limit.
func (p *Parser) matchClose(open, close byte, limit uint32) (uint32, bool) {
	depth := 0
	var quote byte
	for off := p.cur.Off; off < limit; off++ {
		b := p.cur.Src[off]
		switch {
		case quote != 0:
			if b == '\\' {
				off++
			} else if b == quote {
				quote = 0
			}
		case b == '"' || b == '\'' || b == '`':
			quote = b
		case b == open:
			depth++
		case b == close:
			if depth == 0 {
				return off, true
			}
			depth--
		}
	}
	return 0, false
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	p.diags = append(p.diags, diag.New(sev, code, sp, msg))
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	p.report(code, diag.SevError, sp, msg)
}

// flush отдаёт накопленные диагностики репортеру с учётом MaxErrors
func (p *Parser) flush() {
	for _, d := range p.diags {
		if d.Severity == diag.SevError {
			if p.opts.Enough() {
				continue
			}
			p.opts.CurrentErrors++
		}
		if p.opts.Reporter == nil {
			continue
		}
		p.opts.Reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes, d.Fixes)
	}
	p.diags = nil
}
