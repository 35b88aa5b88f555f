package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"storytell/internal/diag"
	"storytell/internal/source"
)

type palette struct {
	err, warn, info, note, gutter, caret, path *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		path:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.gutter, p.caret, p.path} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.info
}

// Pretty prints diagnostics as
//
//	path:line:col: ERROR SYN2002: message
//	   3 | text of the line
//	     |      ^~~~
//	  note: ...
//
// Items are printed in the given order.
func Pretty(w io.Writer, items []diag.Diagnostic, files Files, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range items {
		if i > 0 {
			fmt.Fprintln(w)
		}
		f := files.File(d.Primary.File)
		pos := location(f, d.Primary)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			pal.path.Sprint(displayPath(f, opts.PathMode, opts.BaseDir)+pos),
			pal.severity(d.Severity).Sprint(strings.ToUpper(d.Severity.String())),
			d.Code.ID(), d.Message)
		if f != nil {
			snippet(w, f, d.Primary, opts.Context, pal)
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				fmt.Fprintf(w, "  %s %s\n", pal.note.Sprint("note:"), n.Msg)
			}
		}
		if opts.ShowFixes {
			for _, fx := range d.Fixes {
				fmt.Fprintf(w, "  %s %s\n", pal.note.Sprint("fix:"), fx.Title)
			}
		}
	}
}

func location(f *source.File, sp source.Span) string {
	if f == nil {
		return ""
	}
	start := f.Position(sp.Start)
	return fmt.Sprintf(":%d:%d", start.Line, start.Col)
}

// snippet prints the primary line with a caret run under the span. The
// run is measured in terminal cells, so wide runes line up.
func snippet(w io.Writer, f *source.File, sp source.Span, context int, pal palette) {
	start, end := f.Resolve(sp)
	first := start.Line
	if context > 0 && uint32(context) < first { // #nosec G115
		first -= uint32(context) // #nosec G115
	} else if context > 0 {
		first = 1
	}
	width := len(strconv.Itoa(int(start.Line)))
	bar := pal.gutter.Sprint("|")
	for ln := first; ln <= start.Line; ln++ {
		text := strings.ReplaceAll(f.GetLine(ln), "\t", "    ")
		fmt.Fprintf(w, "%s %s %s\n", pal.gutter.Sprintf("%*d", width, ln), bar, text)
	}

	line := f.GetLine(start.Line)
	col := min(int(start.Col)-1, len(line))
	stop := len(line)
	if end.Line == start.Line {
		stop = min(int(end.Col)-1, len(line))
	}
	pad := cells(line[:col])
	run := max(cells(line[col:max(stop, col)]), 1)
	marks := "^" + strings.Repeat("~", run-1)
	fmt.Fprintf(w, "%s %s %s%s\n", strings.Repeat(" ", width), bar, strings.Repeat(" ", pad), pal.caret.Sprint(marks))
}

func cells(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += 4
			continue
		}
		n += runewidth.RuneWidth(r)
	}
	return n
}
