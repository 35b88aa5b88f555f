package parser

import (
	"fmt"
	"strings"

	"storytell/internal/ast"
	"storytell/internal/diag"
)

func parseWithBag(src string, opts Options) (Result, *diag.Bag) {
	bag := diag.NewBag(0)
	opts.Reporter = diag.BagReporter{Bag: bag}
	return ParseText(src, opts), bag
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

// dump renders blocks compactly so tests can compare whole trees.
func dump(blocks []ast.Block) string {
	var sb strings.Builder
	for i, b := range blocks {
		if i > 0 {
			sb.WriteByte(' ')
		}
		dumpBlock(&sb, b)
	}
	return sb.String()
}

func dumpBlock(sb *strings.Builder, b ast.Block) {
	for _, a := range b.Attrs() {
		fmt.Fprintf(sb, "@%s%q ", a.Name, a.Parameters)
	}
	switch n := b.(type) {
	case *ast.Header:
		fmt.Fprintf(sb, "(h%d %q", n.Depth, n.Title)
		if len(n.Children) > 0 {
			sb.WriteString(" " + dump(n.Children))
		}
		sb.WriteByte(')')
	case *ast.Paragraph:
		sb.WriteString("(p " + dumpText(&n.Text) + ")")
	case *ast.CodeBlock:
		fmt.Fprintf(sb, "(code %q %q)", n.Language, n.Code)
	case *ast.ChoiceGroup:
		sb.WriteString("(choices")
		for _, c := range n.Choices {
			sb.WriteByte(' ')
			dumpChoice(sb, c)
		}
		sb.WriteByte(')')
	case *ast.Match:
		fmt.Fprintf(sb, "(match %q %s", n.Condition, n.Mode)
		for _, c := range n.Arms {
			sb.WriteByte(' ')
			dumpChoice(sb, c)
		}
		if len(n.Children) > 0 {
			sb.WriteString(" " + dump(n.Children))
		}
		sb.WriteByte(')')
	case *ast.Divert:
		arrow := "->"
		if n.Temporary {
			arrow = "<->"
		}
		fmt.Fprintf(sb, "(%s %s)", arrow, strings.Join(n.Path, "."))
	}
}

func dumpChoice(sb *strings.Builder, c *ast.Choice) {
	sb.WriteString("(- ")
	if c.Condition != nil {
		fmt.Fprintf(sb, "@%s(%s) ", c.Condition.Modifier, c.Condition.Text)
	}
	sb.WriteString(dumpText(&c.Text))
	if len(c.Children) > 0 {
		sb.WriteString(" " + dump(c.Children))
	}
	sb.WriteByte(')')
}

func dumpText(t *ast.Text) string {
	var sb strings.Builder
	for _, part := range t.Parts {
		if part.Before != "" {
			fmt.Fprintf(&sb, "%q ", part.Before)
		}
		in := part.Inline
		switch in.Kind {
		case ast.InlineScript:
			fmt.Fprintf(&sb, "{%s} ", in.Raw)
		case ast.InlineJoin:
			sb.WriteString("<> ")
		default:
			fmt.Fprintf(&sb, "[%s %s] ", in.Kind, dumpText(in.Text))
		}
	}
	fmt.Fprintf(&sb, "%q", t.Tail)
	return sb.String()
}
