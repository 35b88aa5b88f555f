package ast

import (
	"storytell/internal/script/token"
	"storytell/internal/source"
)

// Exprs manages allocation of expressions.
type Exprs struct {
	Arena     *Arena[Expr]
	Literals  *Arena[ExprLiteralData]
	Idents    *Arena[ExprIdentData]
	Binaries  *Arena[ExprBinaryData]
	Unaries   *Arena[ExprUnaryData]
	Accesses  *Arena[ExprAccessData]
	Calls     *Arena[ExprCallData]
	Arrays    *Arena[ExprArrayData]
	News      *Arena[ExprNewData]
	Ternaries *Arena[ExprTernaryData]
	Templates *Arena[ExprTemplateData]
	Groups    *Arena[ExprGroupData]
}

// NewExprs creates expression arenas; capHint 0 picks a small default.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 16
	}
	return &Exprs{
		Arena:     NewArena[Expr](capHint),
		Literals:  NewArena[ExprLiteralData](capHint),
		Idents:    NewArena[ExprIdentData](capHint),
		Binaries:  NewArena[ExprBinaryData](capHint),
		Unaries:   NewArena[ExprUnaryData](0),
		Accesses:  NewArena[ExprAccessData](0),
		Calls:     NewArena[ExprCallData](0),
		Arrays:    NewArena[ExprArrayData](0),
		News:      NewArena[ExprNewData](0),
		Ternaries: NewArena[ExprTernaryData](0),
		Templates: NewArena[ExprTemplateData](0),
		Groups:    NewArena[ExprGroupData](0),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewLiteral(span source.Span, kind LitKind, raw, value string) ExprID {
	return e.new(ExprLit, span, e.Literals.Allocate(ExprLiteralData{Kind: kind, Raw: raw, Value: value}))
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	p, ok := e.payload(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

func (e *Exprs) NewIdent(span source.Span, name string) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(ExprIdentData{Name: name}))
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	p, ok := e.payload(id, ExprIdent)
	if !ok {
		return nil, false
	}
	return e.Idents.Get(p), true
}

func (e *Exprs) NewBinary(span source.Span, op token.Kind, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) NewUnary(span source.Span, op token.Kind, operand ExprID, postfix bool) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand, Postfix: postfix}))
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

// NewMember creates `base.name`.
func (e *Exprs) NewMember(span source.Span, base ExprID, name string, nameSpan source.Span) ExprID {
	return e.new(ExprAccess, span, e.Accesses.Allocate(ExprAccessData{Base: base, Name: name, NameSpan: nameSpan}))
}

// NewIndex creates `base[index]`.
func (e *Exprs) NewIndex(span source.Span, base, index ExprID) ExprID {
	return e.new(ExprAccess, span, e.Accesses.Allocate(ExprAccessData{Base: base, Index: index, Computed: true}))
}

func (e *Exprs) Access(id ExprID) (*ExprAccessData, bool) {
	p, ok := e.payload(id, ExprAccess)
	if !ok {
		return nil, false
	}
	return e.Accesses.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{Callee: callee, Args: args}))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewArray(span source.Span, elems []ExprID) ExprID {
	return e.new(ExprArray, span, e.Arrays.Allocate(ExprArrayData{Elems: elems}))
}

func (e *Exprs) Array(id ExprID) (*ExprArrayData, bool) {
	p, ok := e.payload(id, ExprArray)
	if !ok {
		return nil, false
	}
	return e.Arrays.Get(p), true
}

func (e *Exprs) NewNew(span source.Span, callee ExprID, args []ExprID, hasArgs bool) ExprID {
	return e.new(ExprNew, span, e.News.Allocate(ExprNewData{Callee: callee, Args: args, HasArgs: hasArgs}))
}

func (e *Exprs) New(id ExprID) (*ExprNewData, bool) {
	p, ok := e.payload(id, ExprNew)
	if !ok {
		return nil, false
	}
	return e.News.Get(p), true
}

func (e *Exprs) NewTernary(span source.Span, cond, then, els ExprID) ExprID {
	return e.new(ExprTernary, span, e.Ternaries.Allocate(ExprTernaryData{Cond: cond, Then: then, Else: els}))
}

func (e *Exprs) Ternary(id ExprID) (*ExprTernaryData, bool) {
	p, ok := e.payload(id, ExprTernary)
	if !ok {
		return nil, false
	}
	return e.Ternaries.Get(p), true
}

func (e *Exprs) NewTemplate(span source.Span, spans []TemplateSpan, tail string) ExprID {
	return e.new(ExprTemplate, span, e.Templates.Allocate(ExprTemplateData{Spans: spans, Tail: tail}))
}

func (e *Exprs) Template(id ExprID) (*ExprTemplateData, bool) {
	p, ok := e.payload(id, ExprTemplate)
	if !ok {
		return nil, false
	}
	return e.Templates.Get(p), true
}

func (e *Exprs) NewGroup(span source.Span, inner ExprID) ExprID {
	return e.new(ExprGroup, span, e.Groups.Allocate(ExprGroupData{Inner: inner}))
}

func (e *Exprs) Group(id ExprID) (*ExprGroupData, bool) {
	p, ok := e.payload(id, ExprGroup)
	if !ok {
		return nil, false
	}
	return e.Groups.Get(p), true
}

// Unparen strips grouping parentheses.
func (e *Exprs) Unparen(id ExprID) ExprID {
	for {
		g, ok := e.Group(id)
		if !ok {
			return id
		}
		id = g.Inner
	}
}

// Children returns the direct sub-expressions of id in source order.
func (e *Exprs) Children(id ExprID) []ExprID {
	expr := e.Get(id)
	if expr == nil {
		return nil
	}
	var out []ExprID
	switch expr.Kind {
	case ExprBinary:
		b, _ := e.Binary(id)
		out = append(out, b.Left, b.Right)
	case ExprUnary:
		u, _ := e.Unary(id)
		out = append(out, u.Operand)
	case ExprAccess:
		a, _ := e.Access(id)
		out = append(out, a.Base)
		if a.Computed {
			out = append(out, a.Index)
		}
	case ExprCall:
		c, _ := e.Call(id)
		out = append(out, c.Callee)
		out = append(out, c.Args...)
	case ExprArray:
		a, _ := e.Array(id)
		out = append(out, a.Elems...)
	case ExprNew:
		n, _ := e.New(id)
		out = append(out, n.Callee)
		out = append(out, n.Args...)
	case ExprTernary:
		t, _ := e.Ternary(id)
		out = append(out, t.Cond, t.Then, t.Else)
	case ExprTemplate:
		t, _ := e.Template(id)
		for _, sp := range t.Spans {
			out = append(out, sp.Expr)
		}
	case ExprGroup:
		g, _ := e.Group(id)
		out = append(out, g.Inner)
	}
	valid := out[:0]
	for _, c := range out {
		if c.IsValid() {
			valid = append(valid, c)
		}
	}
	return valid
}

// Script is one parsed `{...}` span: statements separated by ';'.
type Script struct {
	Exprs *Exprs
	Stmts []ExprID
}
