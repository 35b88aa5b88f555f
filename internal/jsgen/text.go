package jsgen

import (
	"strconv"
	"strings"

	"storytell/internal/ast"
	"storytell/internal/wire"
)

var templateEscaper = strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", "\\${")

// emitTemplate writes text as a template literal. Styled spans become
// HTML tags and script spans become interpolated calls.
func (e *Emitter) emitTemplate(sb *strings.Builder, t *ast.Text) {
	sb.WriteByte('`')
	e.emitText(sb, t)
	sb.WriteByte('`')
}

func (e *Emitter) emitText(sb *strings.Builder, t *ast.Text) {
	if t == nil {
		return
	}
	for _, part := range t.Parts {
		_, _ = templateEscaper.WriteString(sb, part.Before)
		e.emitInline(sb, part.Inline)
	}
	_, _ = templateEscaper.WriteString(sb, t.Tail)
}

func (e *Emitter) emitInline(sb *strings.Builder, in *ast.Inline) {
	switch in.Kind {
	case ast.InlineBold:
		e.wrap(sb, "b", in.Text)
	case ast.InlineItalics:
		e.wrap(sb, "i", in.Text)
	case ast.InlineUnderline:
		e.wrap(sb, "u", in.Text)
	case ast.InlineCode:
		e.wrap(sb, "code", in.Text)
	case ast.InlineJoin:
	case ast.InlineScript:
		sb.WriteString("${")
		sb.WriteString(e.opts.Names.Script)
		sb.WriteByte('(')
		sb.WriteString(quote(rebuild(in.Raw)))
		sb.WriteByte(',')
		emitVars(sb, e.opts.Vars[in])
		sb.WriteString(")}")
	}
}

func (e *Emitter) wrap(sb *strings.Builder, tag string, t *ast.Text) {
	sb.WriteString("<" + tag + ">")
	e.emitText(sb, t)
	sb.WriteString("</" + tag + ">")
}

func emitVars(sb *strings.Builder, vars []wire.MagicVar) {
	sb.WriteByte('[')
	for i, v := range vars {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString("{name:")
		sb.WriteString(quote(v.Name))
		sb.WriteString(",type:")
		sb.WriteString(strconv.Itoa(v.Kind))
		sb.WriteByte('}')
	}
	sb.WriteByte(']')
}
