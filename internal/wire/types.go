// Package wire turns parsed story files into the document format read by
// the editor. Field names are part of the contract with the editor.
package wire

// Range is a half-open byte range.
type Range struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

type Attribute struct {
	Name       string   `json:"name"`
	Parameters []string `json:"parameters"`
	Range      Range    `json:"range"`
}

// Block kinds as seen by the editor. Headers carry no kind.
const (
	KindParagraph   = 0
	KindCode        = 1
	KindChoiceGroup = 2
	KindDivert      = 3
	KindMatch       = 4
)

// Inline kinds.
const (
	InlineBold      = 0
	InlineItalics   = 1
	InlineUnderline = 2
	InlineCode      = 3
	InlineJoin      = 4
	InlineScript    = 5
)

type Header struct {
	Title          string             `json:"title"`
	CanonicalTitle string             `json:"canonicalTitle"`
	ChildPaths     map[string]*Header `json:"childPaths"`
	Range          Range              `json:"range"`
	Children       []any              `json:"children"`
	Attributes     []Attribute        `json:"attributes"`
}

type Paragraph struct {
	Kind       int         `json:"kind"`
	Parts      []TextPart  `json:"parts"`
	Tail       string      `json:"tail"`
	Range      Range       `json:"range"`
	Attributes []Attribute `json:"attributes"`
}

type CodeBlock struct {
	Kind       int         `json:"kind"`
	Code       string      `json:"code"`
	Language   string      `json:"language"`
	Range      Range       `json:"range"`
	Attributes []Attribute `json:"attributes"`
}

type ChoiceGroup struct {
	Kind       int         `json:"kind"`
	Choices    []*Choice   `json:"choices"`
	Range      Range       `json:"range"`
	Attributes []Attribute `json:"attributes"`
}

type Choice struct {
	Text       *Text       `json:"text"`
	Children   []any       `json:"children"`
	Range      Range       `json:"range"`
	Attributes []Attribute `json:"attributes"`
	Condition  *Condition  `json:"condition"`
}

type Condition struct {
	Modifier string `json:"modifier"`
	Text     string `json:"text"`
}

type Divert struct {
	Kind       int         `json:"kind"`
	Path       []string    `json:"path"`
	Temporary  bool        `json:"temporary"`
	Range      Range       `json:"range"`
	Attributes []Attribute `json:"attributes"`
}

type Match struct {
	Kind       int         `json:"kind"`
	Condition  string      `json:"condition"`
	Modifier   string      `json:"modifier"`
	Arms       []*Choice   `json:"arms"`
	Range      Range       `json:"range"`
	Attributes []Attribute `json:"attributes"`
	Children   []any       `json:"children"`
}

type Text struct {
	Parts []TextPart `json:"parts"`
	Tail  string     `json:"tail"`
	Range Range      `json:"range"`
}

// TextPart.Text holds a *StyledInline, *ScriptInline or *JoinInline.
type TextPart struct {
	Before string `json:"before"`
	Text   any    `json:"text"`
}

type StyledInline struct {
	Kind  int   `json:"kind"`
	Text  *Text `json:"text"`
	Range Range `json:"range"`
}

type ScriptInline struct {
	Kind           int        `json:"kind"`
	Text           string     `json:"text"`
	MagicVariables []MagicVar `json:"magicVariables"`
	Range          Range      `json:"range"`
}

type JoinInline struct {
	Kind  int   `json:"kind"`
	Range Range `json:"range"`
}

// MagicVar is a variable assigned inside a script span, with the kind the
// whole project agrees on.
type MagicVar struct {
	Name string `json:"name"`
	Kind int    `json:"kind"`
}

type Diagnostic struct {
	Message string `json:"message"`
	Range   Range  `json:"range"`
}

// FileDocument is the result of compiling one file. Diagnostics is null
// when there are none.
type FileDocument struct {
	AST         []any        `json:"ast"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

type ProjectFile struct {
	Path        string       `json:"path"`
	AST         []any        `json:"ast"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Variable is one entry of the project variable table.
type Variable struct {
	Name       string     `json:"name"`
	Kind       int        `json:"kind"`
	Conflict   bool       `json:"conflict"`
	Properties []Variable `json:"properties,omitempty"`
}

type ProjectDocument struct {
	Files     []ProjectFile `json:"files"`
	Variables []Variable    `json:"variables"`
}
