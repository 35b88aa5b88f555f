package ast

import (
	"storytell/internal/script/token"
	"storytell/internal/source"
)

type ExprKind uint8

const (
	ExprLit ExprKind = iota
	ExprIdent
	ExprBinary
	ExprUnary
	ExprAccess
	ExprCall
	ExprArray
	ExprNew
	ExprTernary
	ExprTemplate
	ExprGroup
)

func (k ExprKind) String() string {
	switch k {
	case ExprLit:
		return "literal"
	case ExprIdent:
		return "identifier"
	case ExprBinary:
		return "binary"
	case ExprUnary:
		return "unary"
	case ExprAccess:
		return "access"
	case ExprCall:
		return "call"
	case ExprArray:
		return "array"
	case ExprNew:
		return "new"
	case ExprTernary:
		return "ternary"
	case ExprTemplate:
		return "template"
	case ExprGroup:
		return "group"
	}
	return "unknown"
}

// Expr is the common header of every expression; Payload indexes the
// per-kind arena.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type LitKind uint8

const (
	LitString LitKind = iota
	LitNumber
	LitBool
	LitNull
	LitUndefined
)

type ExprLiteralData struct {
	Kind LitKind
	Raw  string
	// Value is the unquoted string, the number text without separators,
	// or "true"/"false".
	Value string
}

type ExprIdentData struct {
	Name string
}

type ExprBinaryData struct {
	Op    token.Kind
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      token.Kind
	Operand ExprID
	Postfix bool
}

// ExprAccessData is `base.name` or `base[index]`.
type ExprAccessData struct {
	Base     ExprID
	Name     string
	NameSpan source.Span
	Index    ExprID
	Computed bool
}

type ExprCallData struct {
	Callee ExprID
	Args   []ExprID
}

type ExprArrayData struct {
	Elems []ExprID
}

type ExprNewData struct {
	Callee  ExprID
	Args    []ExprID
	HasArgs bool
}

type ExprTernaryData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

type TemplateSpan struct {
	Text string
	Expr ExprID
}

// ExprTemplateData is `text${expr}text${expr}tail`.
type ExprTemplateData struct {
	Spans []TemplateSpan
	Tail  string
}

type ExprGroupData struct {
	Inner ExprID
}
