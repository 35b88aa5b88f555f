package parser

import (
	"strings"

	"storytell/internal/diag"
	"storytell/internal/script/ast"
	"storytell/internal/script/lexer"
	"storytell/internal/script/token"
	"storytell/internal/source"
)

// parseExpression разбирает полное выражение, включая присваивания и ?:.
func (p *Parser) parseExpression() ast.ExprID {
	return p.parseBinaryExpr(precLowest)
}

// parseBinaryExpr: precedence climbing: берём первичное выражение и
// сворачиваем операторы, чей приоритет выше minPrec.
func (p *Parser) parseBinaryExpr(minPrec int) ast.ExprID {
	left := p.parseUnaryExpr()
	if !left.IsValid() {
		return ast.NoExprID
	}

	for {
		op := p.lx.Peek()
		if op.Kind == token.Question {
			if precAssignment <= minPrec {
				return left
			}
			left = p.parseTernary(left)
			continue
		}

		prec, rightAssoc := getBinaryOperatorPrec(op.Kind)
		if prec <= minPrec {
			return left
		}
		p.advance()

		nextMin := prec
		if rightAssoc {
			nextMin = prec - 1
		}
		right := p.parseBinaryExpr(nextMin)
		if !right.IsValid() {
			p.err(diag.SynExpectExpression, "expected expression after '"+op.Text+"'")
			return left
		}
		span := p.exprs.Get(left).Span.Cover(p.exprs.Get(right).Span)
		left = p.exprs.NewBinary(span, op.Kind, left, right)
	}
}

func (p *Parser) parseTernary(cond ast.ExprID) ast.ExprID {
	p.advance() // '?'
	then := p.parseBinaryExpr(precAssignment - 1)
	if !then.IsValid() {
		p.err(diag.SynExpectExpression, "expected expression after '?'")
		return cond
	}
	if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' in conditional expression"); !ok {
		return cond
	}
	els := p.parseBinaryExpr(precAssignment - 1)
	if !els.IsValid() {
		p.err(diag.SynExpectExpression, "expected expression after ':'")
		return cond
	}
	span := p.exprs.Get(cond).Span.Cover(p.exprs.Get(els).Span)
	return p.exprs.NewTernary(span, cond, then, els)
}

// parseUnaryExpr: префиксные операторы, затем постфиксная цепочка.
func (p *Parser) parseUnaryExpr() ast.ExprID {
	tok := p.lx.Peek()
	if !isPrefixOp(tok.Kind) {
		return p.parsePostfixExpr(p.parsePrimaryExpr())
	}
	p.advance()
	operand := p.parseUnaryExpr()
	if !operand.IsValid() {
		p.err(diag.SynExpectExpression, "expected operand after '"+tok.Text+"'")
		return ast.NoExprID
	}
	span := tok.Span.Cover(p.exprs.Get(operand).Span)
	return p.exprs.NewUnary(span, tok.Kind, operand, false)
}

// parsePostfixExpr: цикл .name, [index], (args), ++/--.
func (p *Parser) parsePostfixExpr(expr ast.ExprID) ast.ExprID {
	if !expr.IsValid() {
		return expr
	}
	for {
		start := p.exprs.Get(expr).Span
		switch p.lx.Peek().Kind {
		case token.Dot:
			p.advance()
			name, ok := p.expectName()
			if !ok {
				return expr
			}
			expr = p.exprs.NewMember(start.Cover(name.Span), expr, name.Text, name.Span)
		case token.LBracket:
			p.advance()
			index := p.parseExpression()
			closing, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'")
			if !index.IsValid() {
				p.err(diag.SynExpectExpression, "expected index expression")
				return expr
			}
			end := p.exprs.Get(index).Span
			if ok {
				end = closing.Span
			}
			expr = p.exprs.NewIndex(start.Cover(end), expr, index)
		case token.LParen:
			args, end := p.parseArgs()
			expr = p.exprs.NewCall(start.Cover(end), expr, args)
		case token.PlusPlus, token.MinusMinus:
			op := p.advance()
			return p.exprs.NewUnary(start.Cover(op.Span), op.Kind, expr, true)
		default:
			return expr
		}
	}
}

// expectName accepts identifiers and keywords after '.', e.g. `obj.new`.
func (p *Parser) expectName() (token.Token, bool) {
	tok := p.lx.Peek()
	if tok.Kind == token.Ident || (tok.Kind >= token.KwTrue && tok.Kind <= token.KwInstanceof) {
		return p.advance(), true
	}
	p.err(diag.SynExpectIdentifier, "expected property name after '.'")
	return tok, false
}

// parseArgs разбирает (a, b, c); возвращает аргументы и span до ')'.
func (p *Parser) parseArgs() ([]ast.ExprID, source.Span) {
	open := p.advance() // '('
	args, end := p.parseList(token.RParen, diag.SynUnclosedParen, "expected ')'")
	if end.Empty() {
		end = open.Span
	}
	return args, end
}

// parseList parses comma separated expressions up to closing.
func (p *Parser) parseList(closing token.Kind, code diag.Code, msg string) ([]ast.ExprID, source.Span) {
	var items []ast.ExprID
	for !p.atOr(closing, token.EOF) {
		item := p.parseBinaryExpr(precLowest)
		if !item.IsValid() {
			break
		}
		items = append(items, item)
		if !p.at(token.Comma) {
			break
		}
		p.advance()
	}
	end := p.lastSpan
	if tok, ok := p.expect(closing, code, msg); ok {
		end = tok.Span
	}
	return items, end
}

func (p *Parser) parsePrimaryExpr() ast.ExprID {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Number:
		p.advance()
		return p.exprs.NewLiteral(tok.Span, ast.LitNumber, tok.Text, strings.ReplaceAll(tok.Text, "_", ""))
	case token.String:
		p.advance()
		return p.exprs.NewLiteral(tok.Span, ast.LitString, tok.Text, unquote(tok.Text))
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.exprs.NewLiteral(tok.Span, ast.LitBool, tok.Text, tok.Text)
	case token.KwNull:
		p.advance()
		return p.exprs.NewLiteral(tok.Span, ast.LitNull, tok.Text, tok.Text)
	case token.KwUndefined:
		p.advance()
		return p.exprs.NewLiteral(tok.Span, ast.LitUndefined, tok.Text, tok.Text)
	case token.Template:
		p.advance()
		return p.parseTemplate(tok)
	case token.Ident:
		p.advance()
		return p.exprs.NewIdent(tok.Span, tok.Text)
	case token.LParen:
		p.advance()
		inner := p.parseExpression()
		closing, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'")
		if !inner.IsValid() {
			return ast.NoExprID
		}
		end := p.exprs.Get(inner).Span
		if ok {
			end = closing.Span
		}
		return p.exprs.NewGroup(tok.Span.Cover(end), inner)
	case token.LBracket:
		p.advance()
		elems, end := p.parseList(token.RBracket, diag.SynUnclosedBracket, "expected ']'")
		return p.exprs.NewArray(tok.Span.Cover(end), elems)
	case token.KwNew:
		return p.parseNew()
	case token.EOF:
		p.err(diag.SynExpectExpression, "expected expression")
		return ast.NoExprID
	case token.Invalid:
		// лексер уже отрепортил
		p.advance()
		return ast.NoExprID
	default:
		p.report(diag.SynUnexpectedToken, diag.SevError, tok.Span, "unexpected '"+tok.Text+"'")
		p.advance()
		return ast.NoExprID
	}
}

// parseNew: new Callee, new Callee(args), new a.b.C(args).
func (p *Parser) parseNew() ast.ExprID {
	kw := p.advance()
	var callee ast.ExprID
	if p.at(token.KwNew) {
		callee = p.parseNew()
	} else {
		callee = p.parsePrimaryExpr()
	}
	if !callee.IsValid() {
		return ast.NoExprID
	}
	for p.at(token.Dot) {
		p.advance()
		name, ok := p.expectName()
		if !ok {
			break
		}
		callee = p.exprs.NewMember(p.exprs.Get(callee).Span.Cover(name.Span), callee, name.Text, name.Span)
	}
	end := p.exprs.Get(callee).Span
	var args []ast.ExprID
	hasArgs := p.at(token.LParen)
	if hasArgs {
		args, end = p.parseArgs()
	}
	return p.exprs.NewNew(kw.Span.Cover(end), callee, args, hasArgs)
}

// parseTemplate splits `text${expr}text` and parses every substitution in
// place, so nested spans stay relative to the script.
func (p *Parser) parseTemplate(tok token.Token) ast.ExprID {
	raw := tok.Text
	base := tok.Span.Start
	body := strings.TrimPrefix(raw, "`")
	closed := strings.HasSuffix(body, "`") && len(raw) >= 2
	if closed {
		body = body[:len(body)-1]
	}

	var spans []ast.TemplateSpan
	var text strings.Builder
	i := 0
	for i < len(body) {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			text.WriteString(body[i : i+2])
			i += 2
			continue
		}
		if c != '$' || i+1 >= len(body) || body[i+1] != '{' {
			text.WriteByte(c)
			i++
			continue
		}
		end, ok := matchBrace(body, i+2)
		start := base + 1 + uint32(i+2) // #nosec G115 -- bounded by the script length
		if !ok {
			p.report(diag.SynUnclosedTemplate, diag.SevError,
				source.Span{File: p.file, Start: start - 2, End: tok.Span.End}, "missing closing '}' in template substitution")
			text.WriteString(body[i:])
			break
		}
		stop := base + 1 + uint32(end) // #nosec G115
		spans = append(spans, ast.TemplateSpan{Text: text.String(), Expr: p.parseSubstitution(start, stop)})
		text.Reset()
		i = end + 1
	}
	return p.exprs.NewTemplate(tok.Span, spans, text.String())
}

func (p *Parser) parseSubstitution(start, end uint32) ast.ExprID {
	lx := lexer.NewRange(p.src, p.file, start, end, lexer.Options{Reporter: p.opts.Reporter})
	sub := newParser(lx, p.src, p.file, p.exprs, p.opts)
	sub.lastSpan = source.Span{File: p.file, Start: start, End: start}
	id := sub.parseExpression()
	if !sub.at(token.EOF) {
		tok := sub.lx.Peek()
		sub.report(diag.SynUnexpectedToken, diag.SevError, tok.Span, "unexpected '"+tok.Text+"' in template substitution")
	}
	return id
}

// matchBrace returns the index of the '}' closing a substitution opened
// before from, skipping nested braces and quoted strings.
func matchBrace(s string, from int) (int, bool) {
	depth := 0
	for i := from; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"', '\'', '`':
			q := s[i]
			for i++; i < len(s) && s[i] != q; i++ {
				if s[i] == '\\' {
					i++
				}
			}
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return i, true
			}
			depth--
		}
	}
	return 0, false
}

// unquote снимает кавычки и раскрывает простые escape-последовательности.
func unquote(raw string) string {
	if raw == "" {
		return ""
	}
	quote := raw[0]
	body := raw[1:]
	if len(body) > 0 && body[len(body)-1] == quote {
		body = body[:len(body)-1]
	}
	if !strings.Contains(body, "\\") {
		return body
	}
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch body[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		default:
			sb.WriteByte(body[i])
		}
	}
	return sb.String()
}
