// Package fix selects the fixes attached to diagnostics and applies them
// to file contents.
package fix

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"storytell/internal/diag"
	"storytell/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// Mode determines how many fixes are taken.
type Mode uint8

const (
	// ModeOnce applies only the first fix in source order.
	ModeOnce Mode = iota
	// ModeAll applies every fix that does not overlap an earlier one.
	ModeAll
)

// Files resolves file ids to their current contents.
type Files interface {
	File(id source.FileID) *source.File
}

// Applied records one fix that made it into the result.
type Applied struct {
	Title string
	Code  diag.Code
	Path  string
	Edits int
}

// Skipped records a fix that was left out and why.
type Skipped struct {
	Title  string
	Reason string
}

// Change is the new content of one file.
type Change struct {
	File  source.FileID
	Path  string
	Text  string
	Edits int
}

// Result aggregates what Plan decided.
type Result struct {
	Applied []Applied
	Skipped []Skipped
	Changes []Change
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	order int
}

// Plan picks fixes from diagnostics and computes the resulting file texts.
// Nothing is written; callers save Changes themselves.
func Plan(files Files, diagnostics []diag.Diagnostic, mode Mode) (*Result, error) {
	res := &Result{}
	if files == nil {
		return res, fmt.Errorf("fix: no files")
	}

	var cands []candidate
	for _, d := range diagnostics {
		for _, f := range d.Fixes {
			if len(f.Edits) == 0 {
				res.Skipped = append(res.Skipped, Skipped{Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			cands = append(cands, candidate{diag: d, fix: f, order: len(cands)})
		}
	}
	if len(cands) == 0 {
		return res, ErrNoFixes
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i].diag.Primary, cands[j].diag.Primary
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return cands[i].order < cands[j].order
	})

	taken := make(map[source.FileID][]diag.FixEdit)
	for _, c := range cands {
		if mode == ModeOnce && len(res.Applied) == 1 {
			res.Skipped = append(res.Skipped, Skipped{Title: c.fix.Title, Reason: "only one fix per run"})
			continue
		}
		if reason := check(files, taken, c.fix.Edits); reason != "" {
			res.Skipped = append(res.Skipped, Skipped{Title: c.fix.Title, Reason: reason})
			continue
		}
		for _, e := range c.fix.Edits {
			taken[e.Span.File] = append(taken[e.Span.File], e)
		}
		path := ""
		if f := files.File(c.diag.Primary.File); f != nil {
			path = f.Path
		}
		res.Applied = append(res.Applied, Applied{Title: c.fix.Title, Code: c.diag.Code, Path: path, Edits: len(c.fix.Edits)})
	}
	if len(res.Applied) == 0 {
		return res, ErrNoFixes
	}

	ids := make([]source.FileID, 0, len(taken))
	for id := range taken {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		f := files.File(id)
		res.Changes = append(res.Changes, Change{File: id, Path: f.Path, Text: applyEdits(f.Content, taken[id]), Edits: len(taken[id])})
	}
	return res, nil
}

// check returns why edits cannot join the already taken ones, "" when
// they can.
func check(files Files, taken map[source.FileID][]diag.FixEdit, edits []diag.FixEdit) string {
	for i, e := range edits {
		f := files.File(e.Span.File)
		if f == nil {
			return fmt.Sprintf("unknown file %d", e.Span.File)
		}
		if e.Span.Start > e.Span.End || int(e.Span.End) > len(f.Content) {
			return fmt.Sprintf("edit %v is outside %s", e.Span, f.Path)
		}
		for _, other := range taken[e.Span.File] {
			if overlaps(e.Span, other.Span) {
				return "overlaps an earlier fix"
			}
		}
		for _, other := range edits[:i] {
			if other.Span.File == e.Span.File && overlaps(e.Span, other.Span) {
				return "edits of the fix overlap"
			}
		}
	}
	return ""
}

// overlaps treats two insertions at the same point as overlapping too.
func overlaps(a, b source.Span) bool {
	if a.Start == b.Start {
		return true
	}
	return a.Start < b.End && b.Start < a.End
}

func applyEdits(content []byte, edits []diag.FixEdit) string {
	sorted := append([]diag.FixEdit(nil), edits...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Span.Start < sorted[j].Span.Start })
	var sb strings.Builder
	sb.Grow(len(content))
	last := uint32(0)
	for _, e := range sorted {
		sb.Write(content[last:e.Span.Start])
		sb.WriteString(e.NewText)
		last = e.Span.End
	}
	sb.Write(content[last:])
	return sb.String()
}
