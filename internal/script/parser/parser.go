// Package parser builds script expression trees with precedence climbing.
package parser

import (
	"slices"

	"storytell/internal/diag"
	"storytell/internal/script/ast"
	"storytell/internal/script/lexer"
	"storytell/internal/script/token"
	"storytell/internal/source"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser: состояние парсера на один script span
type Parser struct {
	lx       *lexer.Lexer
	src      []byte
	file     source.FileID
	exprs    *ast.Exprs
	opts     *Options
	lastSpan source.Span // span последнего съеденного токена для лучшей диагностики
}

// Parse parses src (the text between the braces of a script span) into a
// statement list. Spans are relative to src. It never fails: malformed
// input yields diagnostics and whatever statements could be recovered.
func Parse(src []byte, file source.FileID, opts Options) *ast.Script {
	exprs := ast.NewExprs(0)
	p := newParser(lexer.New(src, file, lexer.Options{Reporter: opts.Reporter}), src, file, exprs, &opts)
	return &ast.Script{Exprs: exprs, Stmts: p.parseStatements()}
}

// ParseString is Parse for a string.
func ParseString(src string, file source.FileID, opts Options) *ast.Script {
	return Parse([]byte(src), file, opts)
}

func newParser(lx *lexer.Lexer, src []byte, file source.FileID, exprs *ast.Exprs, opts *Options) *Parser {
	return &Parser{
		lx:       lx,
		src:      src,
		file:     file,
		exprs:    exprs,
		opts:     opts,
		lastSpan: source.Span{File: file},
	}
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// parseStatements: цикл верхнего уровня: выражения через ';'.
func (p *Parser) parseStatements() []ast.ExprID {
	var stmts []ast.ExprID
	for !p.at(token.EOF) {
		if p.at(token.Semicolon) {
			p.advance()
			continue
		}
		id := p.parseExpression()
		if !id.IsValid() {
			// ошибка уже отрепортирована, плохой токен съеден
			continue
		}
		stmts = append(stmts, id)
		if p.atOr(token.Semicolon, token.EOF) {
			continue
		}
		// лексер уже отрепортил Invalid
		if tok := p.lx.Peek(); tok.Kind != token.Invalid {
			p.report(diag.SynUnexpectedToken, diag.SevError, tok.Span, "unexpected '"+tok.Text+"' after expression")
		}
		p.advance()
	}
	return stmts
}
