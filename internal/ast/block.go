// Package ast holds the markup syntax tree: blocks that make up a story file
// and the inline elements inside their text.
package ast

import "storytell/internal/source"

// BlockKind tags every block variant. The numeric values are part of the
// wire format; headers have no wire kind.
type BlockKind uint8

const (
	BlockParagraph BlockKind = iota
	BlockCode
	BlockChoiceGroup
	BlockDivert
	BlockMatch
	BlockHeader
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockCode:
		return "code"
	case BlockChoiceGroup:
		return "choices"
	case BlockDivert:
		return "divert"
	case BlockMatch:
		return "match"
	case BlockHeader:
		return "header"
	}
	return "unknown"
}

// Block is implemented by every block node.
type Block interface {
	Kind() BlockKind
	Span() source.Span
	Attrs() []Attribute
	block()
}

// Attribute is a `@name(p1, p2)` annotation. Raw keeps the text between the
// parentheses as written.
type Attribute struct {
	Name       string
	Parameters []string
	Raw        string
	Span       source.Span
}

type Header struct {
	Title      string
	TitleSpan  source.Span
	Depth      int
	Children   []Block
	Attributes []Attribute
	Range      source.Span
}

type Paragraph struct {
	Text       Text
	Attributes []Attribute
	Range      source.Span
}

type CodeBlock struct {
	Language   string
	Code       string
	Attributes []Attribute
	Range      source.Span
}

type ChoiceGroup struct {
	Choices    []*Choice
	Attributes []Attribute
	Range      source.Span
}

// Choice is one `-` entry. It is not a block on its own; it lives in a
// ChoiceGroup or as an arm of a Match.
type Choice struct {
	Text       Text
	Children   []Block
	Condition  *Condition
	Attributes []Attribute
	Range      source.Span
}

// Condition guards a choice: `- @if(expr) text`. Span covers Text.
type Condition struct {
	Modifier string
	Text     string
	Span     source.Span
}

type MatchKind uint8

const (
	MatchDefault MatchKind = iota
	MatchIf
	MatchNot
)

func (k MatchKind) String() string {
	switch k {
	case MatchIf:
		return "if"
	case MatchNot:
		return "not"
	}
	return "default"
}

// Match is `@{expr} modifier` followed by indented arms.
type Match struct {
	Condition     string
	ConditionSpan source.Span
	Modifier      string
	Mode          MatchKind
	Arms          []*Choice
	Children      []Block
	Attributes    []Attribute
	Range         source.Span
}

// Divert jumps to another header. Temporary diverts (`<->`) return to the
// divert site afterwards.
type Divert struct {
	Path       []string
	PathSpans  []source.Span
	Temporary  bool
	Attributes []Attribute
	Range      source.Span
}

func (*Header) Kind() BlockKind      { return BlockHeader }
func (*Paragraph) Kind() BlockKind   { return BlockParagraph }
func (*CodeBlock) Kind() BlockKind   { return BlockCode }
func (*ChoiceGroup) Kind() BlockKind { return BlockChoiceGroup }
func (*Match) Kind() BlockKind       { return BlockMatch }
func (*Divert) Kind() BlockKind      { return BlockDivert }

func (b *Header) Span() source.Span      { return b.Range }
func (b *Paragraph) Span() source.Span   { return b.Range }
func (b *CodeBlock) Span() source.Span   { return b.Range }
func (b *ChoiceGroup) Span() source.Span { return b.Range }
func (b *Match) Span() source.Span       { return b.Range }
func (b *Divert) Span() source.Span      { return b.Range }

func (b *Header) Attrs() []Attribute      { return b.Attributes }
func (b *Paragraph) Attrs() []Attribute   { return b.Attributes }
func (b *CodeBlock) Attrs() []Attribute   { return b.Attributes }
func (b *ChoiceGroup) Attrs() []Attribute { return b.Attributes }
func (b *Match) Attrs() []Attribute       { return b.Attributes }
func (b *Divert) Attrs() []Attribute      { return b.Attributes }

func (*Header) block()      {}
func (*Paragraph) block()   {}
func (*CodeBlock) block()   {}
func (*ChoiceGroup) block() {}
func (*Match) block()       {}
func (*Divert) block()      {}

// SetAttributes attaches pending attribute lines to a freshly parsed block.
func SetAttributes(b Block, attrs []Attribute) {
	switch n := b.(type) {
	case *Header:
		n.Attributes = attrs
	case *Paragraph:
		n.Attributes = attrs
	case *CodeBlock:
		n.Attributes = attrs
	case *ChoiceGroup:
		n.Attributes = attrs
	case *Match:
		n.Attributes = attrs
	case *Divert:
		n.Attributes = attrs
	}
}

// Document is the parse result of one file.
type Document struct {
	File   source.FileID
	Blocks []Block
}
