package ast

import (
	"strings"

	"storytell/internal/script/token"
)

// Format rebuilds normalized script text for id: single spaces around binary
// operators, no redundant whitespace, original literal spelling.
func (e *Exprs) Format(id ExprID) string {
	var sb strings.Builder
	e.format(&sb, id)
	return sb.String()
}

// String rebuilds the whole script, statements joined by "; ".
func (s *Script) String() string {
	parts := make([]string, 0, len(s.Stmts))
	for _, st := range s.Stmts {
		parts = append(parts, s.Exprs.Format(st))
	}
	return strings.Join(parts, "; ")
}

func (e *Exprs) format(sb *strings.Builder, id ExprID) {
	expr := e.Get(id)
	if expr == nil {
		sb.WriteString("<?>")
		return
	}
	switch expr.Kind {
	case ExprLit:
		lit, _ := e.Literal(id)
		sb.WriteString(lit.Raw)
	case ExprIdent:
		ident, _ := e.Ident(id)
		sb.WriteString(ident.Name)
	case ExprBinary:
		b, _ := e.Binary(id)
		e.format(sb, b.Left)
		sb.WriteByte(' ')
		sb.WriteString(b.Op.String())
		sb.WriteByte(' ')
		e.format(sb, b.Right)
	case ExprUnary:
		u, _ := e.Unary(id)
		if u.Postfix {
			e.format(sb, u.Operand)
			sb.WriteString(u.Op.String())
			return
		}
		sb.WriteString(u.Op.String())
		if u.Op == token.KwTypeof || u.Op == token.KwVoid {
			sb.WriteByte(' ')
		}
		e.format(sb, u.Operand)
	case ExprAccess:
		a, _ := e.Access(id)
		e.format(sb, a.Base)
		if a.Computed {
			sb.WriteByte('[')
			e.format(sb, a.Index)
			sb.WriteByte(']')
		} else {
			sb.WriteByte('.')
			sb.WriteString(a.Name)
		}
	case ExprCall:
		c, _ := e.Call(id)
		e.format(sb, c.Callee)
		e.formatList(sb, "(", c.Args, ")")
	case ExprArray:
		a, _ := e.Array(id)
		e.formatList(sb, "[", a.Elems, "]")
	case ExprNew:
		n, _ := e.New(id)
		sb.WriteString("new ")
		e.format(sb, n.Callee)
		if n.HasArgs {
			e.formatList(sb, "(", n.Args, ")")
		}
	case ExprTernary:
		t, _ := e.Ternary(id)
		e.format(sb, t.Cond)
		sb.WriteString(" ? ")
		e.format(sb, t.Then)
		sb.WriteString(" : ")
		e.format(sb, t.Else)
	case ExprTemplate:
		t, _ := e.Template(id)
		sb.WriteByte('`')
		for _, sp := range t.Spans {
			sb.WriteString(sp.Text)
			sb.WriteString("${")
			e.format(sb, sp.Expr)
			sb.WriteByte('}')
		}
		sb.WriteString(t.Tail)
		sb.WriteByte('`')
	case ExprGroup:
		g, _ := e.Group(id)
		sb.WriteByte('(')
		e.format(sb, g.Inner)
		sb.WriteByte(')')
	}
}

func (e *Exprs) formatList(sb *strings.Builder, open string, ids []ExprID, closing string) {
	sb.WriteString(open)
	for i, id := range ids {
		if i > 0 {
			sb.WriteString(", ")
		}
		e.format(sb, id)
	}
	sb.WriteString(closing)
}
