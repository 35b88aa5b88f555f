// Package jsgen emits a story as a JavaScript program. The program is one
// array expression of header trees built from calls to functions the
// embedding page provides (see Names); it does not run the story itself.
package jsgen

import (
	"encoding/json"
	"fmt"
	"strings"

	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/paths"
	sparser "storytell/internal/script/parser"
	"storytell/internal/wire"
)

// Names are the functions the emitted program calls.
type Names struct {
	Path        string // ({title, canonicalTitle, childPaths, children})
	Paragraph   string // (text, attributes)
	CodeBlock   string // (code, language, attributes)
	ChoiceGroup string // (choices, attributes)
	Match       string // (condition, arms, children, modifier)
	Divert      string // (path)
	TempDivert  string // (path)
	Script      string // (code, variables), spliced into text
}

// DefaultNames are the names the editor's story player defines.
func DefaultNames() Names {
	return Names{
		Path:        "Path",
		Paragraph:   "Paragraph",
		CodeBlock:   "Codeblock",
		ChoiceGroup: "ChoiceGroup",
		Match:       "Match",
		Divert:      "divert",
		TempDivert:  "tempDivert",
		Script:      "Js",
	}
}

// Options configure the emitter.
type Options struct {
	Names Names
	// Vars lists the variables assigned by each script inline.
	Vars map[*ast.Inline][]wire.MagicVar
}

// Emitter writes one program. Not safe for concurrent use.
type Emitter struct {
	opts  Options
	buf   strings.Builder
	first bool
}

func New(opts Options) *Emitter {
	if opts.Names == (Names{}) {
		opts.Names = DefaultNames()
	}
	return &Emitter{opts: opts, first: true}
}

// AddDocument appends the top-level headers of doc. Blocks outside any
// header cannot be reached by a divert and are skipped.
func (e *Emitter) AddDocument(doc *ast.Document) {
	for _, b := range doc.Blocks {
		h, ok := b.(*ast.Header)
		if !ok {
			continue
		}
		if !e.first {
			e.buf.WriteString(",\n")
		}
		e.first = false
		e.buf.WriteString("  ")
		e.emitHeader(&e.buf, h)
	}
}

// String returns the program.
func (e *Emitter) String() string {
	if e.first {
		return "[]\n"
	}
	return "[\n" + e.buf.String() + "\n]\n"
}

// Emit is New, AddDocument for each doc and String.
func Emit(docs []*ast.Document, opts Options) string {
	e := New(opts)
	for _, doc := range docs {
		e.AddDocument(doc)
	}
	return e.String()
}

func (e *Emitter) emitHeader(sb *strings.Builder, h *ast.Header) {
	fmt.Fprintf(sb, "%s({title:%s,canonicalTitle:%s,childPaths:{", e.opts.Names.Path,
		quote(h.Title), quote(paths.Canonicalize(h.Title)))
	n := 0
	var others []ast.Block
	for _, c := range h.Children {
		sub, ok := c.(*ast.Header)
		if !ok {
			others = append(others, c)
			continue
		}
		if n > 0 {
			sb.WriteByte(',')
		}
		n++
		sb.WriteString(quote(paths.Canonicalize(sub.Title)))
		sb.WriteByte(':')
		e.emitHeader(sb, sub)
	}
	sb.WriteString("},children:")
	e.emitBlocks(sb, others)
	sb.WriteString("})")
}

func (e *Emitter) emitBlocks(sb *strings.Builder, blocks []ast.Block) {
	sb.WriteByte('[')
	for i, b := range blocks {
		if i > 0 {
			sb.WriteByte(',')
		}
		e.emitBlock(sb, b)
	}
	sb.WriteByte(']')
}

func (e *Emitter) emitBlock(sb *strings.Builder, b ast.Block) {
	names := e.opts.Names
	switch b := b.(type) {
	case *ast.Header:
		e.emitHeader(sb, b)
	case *ast.Paragraph:
		fmt.Fprintf(sb, "%s(", names.Paragraph)
		e.emitTemplate(sb, &b.Text)
		sb.WriteByte(',')
		emitAttributes(sb, b.Attributes)
		sb.WriteByte(')')
	case *ast.CodeBlock:
		fmt.Fprintf(sb, "%s(%s,%s,", names.CodeBlock, quote(b.Code), quote(b.Language))
		emitAttributes(sb, b.Attributes)
		sb.WriteByte(')')
	case *ast.ChoiceGroup:
		fmt.Fprintf(sb, "%s(", names.ChoiceGroup)
		e.emitChoices(sb, b.Choices, false)
		sb.WriteByte(',')
		emitAttributes(sb, b.Attributes)
		sb.WriteByte(')')
	case *ast.Match:
		fmt.Fprintf(sb, "%s(%s,", names.Match, quote(rebuild(b.Condition)))
		e.emitChoices(sb, b.Arms, true)
		sb.WriteByte(',')
		e.emitBlocks(sb, b.Children)
		fmt.Fprintf(sb, ",%s)", quote(b.Modifier))
	case *ast.Divert:
		fn := names.Divert
		if b.Temporary {
			fn = names.TempDivert
		}
		fmt.Fprintf(sb, "%s([", fn)
		for i, seg := range b.Path {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(quote(seg))
		}
		sb.WriteString("])")
	}
}

// emitChoices writes choice objects. Match arms carry their text as code.
func (e *Emitter) emitChoices(sb *strings.Builder, choices []*ast.Choice, arms bool) {
	sb.WriteByte('[')
	for i, c := range choices {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("{text:")
		if arms {
			sb.WriteString(quote(rebuild(c.Text.Plain())))
		} else {
			e.emitTemplate(sb, &c.Text)
		}
		sb.WriteString(",condition:")
		if c.Condition != nil {
			fmt.Fprintf(sb, "{modifier:%s,code:%s}", quote(c.Condition.Modifier), quote(rebuild(c.Condition.Text)))
		} else {
			sb.WriteString("null")
		}
		sb.WriteString(",children:")
		e.emitBlocks(sb, c.Children)
		sb.WriteByte('}')
	}
	sb.WriteByte(']')
}

func emitAttributes(sb *strings.Builder, attrs []ast.Attribute) {
	sb.WriteByte('[')
	for i, a := range attrs {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(sb, "{name:%s,params:[", quote(a.Name))
		for j, p := range a.Parameters {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(quote(p))
		}
		sb.WriteString("]}")
	}
	sb.WriteByte(']')
}

// rebuild normalizes script source through the script parser. Code that
// does not parse is kept as written.
func rebuild(code string) string {
	bag := diag.NewBag(1)
	script := sparser.ParseString(code, 0, sparser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.Len() > 0 || script == nil {
		return strings.TrimSpace(code)
	}
	return script.String()
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // строка всегда кодируется
	return strings.TrimSuffix(sb.String(), "\n")
}
