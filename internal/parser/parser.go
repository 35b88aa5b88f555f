// Package parser turns story markup into the block tree of package ast.
// Parsing a file always completes; problems become diagnostics and the
// affected construct degrades to literal text.
package parser

import (
	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/input"
	"storytell/internal/lexer"
	"storytell/internal/source"
)

type Options struct {
	Lexer         lexer.Options
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

// Outcome tags the result of every parse function.
type Outcome uint8

const (
	// Parsed means the construct was read without problems.
	Parsed Outcome = iota
	// Recovered means a construct was produced after reporting diagnostics.
	Recovered
	// Failed means nothing could be produced; the input was skipped.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case Recovered:
		return "recovered"
	}
	return "failed"
}

// worse keeps the more severe of two outcomes.
func (o Outcome) worse(other Outcome) Outcome {
	return max(o, other)
}

type Result struct {
	Doc     *ast.Document
	Outcome Outcome
}

// Parser: состояние парсера на один файл
type Parser struct {
	lx     *lexer.Lexer
	cur    *input.Cursor
	file   *source.File
	opts   Options
	crlf   bool
	diags  []diag.Diagnostic // буфер: откатывается вместе с курсором
	lifted []*ast.Divert     // inline diverts текущей строки
}

// ParseFile parses a whole story file.
func ParseFile(file *source.File, opts Options) Result {
	lx := lexer.New(file, opts.Lexer)
	p := &Parser{
		lx:   lx,
		cur:  lx.Cursor(),
		file: file,
		opts: opts,
		crlf: lx.Options().LineEnding == lexer.CRLF,
	}
	blocks, out := p.parseSequence(0, 0)
	p.flush()
	return Result{
		Doc:     &ast.Document{File: file.ID, Blocks: blocks},
		Outcome: out,
	}
}

// ParseText parses src as an anonymous file. Handy in tests and tooling.
func ParseText(src string, opts Options) Result {
	return ParseFile(source.NewFile(0, "", []byte(src), 0), opts)
}

// parseSequence collects blocks indented by at least depth units. It stops
// at end of input, on a shallower line, or (when stop > 0) on a header whose
// depth is at most stop.
func (p *Parser) parseSequence(depth, stop int) ([]ast.Block, Outcome) {
	var blocks []ast.Block
	out := Parsed
	for {
		p.lx.SkipBlankLines()
		if p.cur.AtEnd() || p.lx.IndentDepth() < depth {
			break
		}
		if stop > 0 {
			if d := p.headerAhead(); d > 0 && d <= stop {
				break
			}
		}
		start := p.cur.Off
		bs, o := p.parseBlock(depth)
		blocks = append(blocks, bs...)
		out = out.worse(o)
		if p.cur.Off == start {
			p.lx.SkipLine()
		}
	}
	return blocks, out
}

// parseChildren is the body of a choice or a match arm.
func (p *Parser) parseChildren(depth int) ([]ast.Block, Outcome) {
	return p.parseSequence(depth, 0)
}

// headerAhead returns the '#' run length of the current line, 0 if the line
// is not a header.
func (p *Parser) headerAhead() int {
	i := uint32(0)
	for b := p.cur.PeekAt(i); b == ' ' || b == '\t'; b = p.cur.PeekAt(i) {
		i++
	}
	n := 0
	for p.cur.PeekAt(i) == '#' {
		n++
		i++
	}
	return n
}
