package paths

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/fix"
	"storytell/internal/source"
)

// Site is where a divert is written.
type Site struct {
	File   source.FileID
	Header *ast.Header // innermost enclosing header, nil at file level
}

// Failure describes an unresolved path. Index is the zero-based position
// of the first segment that did not match.
type Failure struct {
	Index    int
	Segments []string
	// Parent is the canonical name of the segment before Index.
	Parent string
	// Candidates are the names that were available at Index.
	Candidates []string
}

// Resolve walks segments from the roots selected by policy. Segments are
// canonicalized first.
func (t *Tree) Resolve(segments []string, site Site, temporary bool, policy Policy) (NodeID, *Failure) {
	canon := make([]string, len(segments))
	for i, s := range segments {
		canon[i] = Canonicalize(s)
	}
	roots := t.rootsFor(policy.scopeFor(temporary), site.File)
	id, fail := t.walk(roots, nil, canon)
	if fail == nil || !policy.LocalFallback || site.Header == nil {
		return id, fail
	}
	owner, ok := t.NodeOf(site.Header)
	if !ok {
		return id, fail
	}
	n := t.Node(owner)
	if local, localFail := t.walk(n.children, n.order, canon); localFail == nil {
		return local, nil
	}
	return id, fail
}

func (t *Tree) walk(level map[string]NodeID, order []string, segments []string) (NodeID, *Failure) {
	var cur NodeID
	for i, seg := range segments {
		next, ok := level[seg]
		if !ok {
			f := &Failure{Index: i, Segments: segments}
			if i > 0 {
				f.Parent = segments[i-1]
			}
			if order != nil {
				f.Candidates = order
			} else {
				f.Candidates = sortedKeys(level)
			}
			return 0, f
		}
		cur = next
		n := &t.nodes[cur]
		level, order = n.children, n.order
		if order == nil {
			order = []string{}
		}
	}
	return cur, nil
}

func sortedKeys(m map[string]NodeID) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Suggest returns the closest candidate to name, "" when nothing is close.
func Suggest(name string, candidates []string) string {
	if name == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(name, candidates)
	if len(ranks) == 0 {
		// опечатки: пробуем в обратную сторону, кандидат внутри имени
		for _, c := range candidates {
			if c != "" && fuzzy.MatchFold(c, name) {
				ranks = append(ranks, fuzzy.Rank{Source: c, Target: c, Distance: len(name) - len(c)})
			}
		}
	}
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}

// Message renders the diagnostic text for a failure, using the segments as
// written in the source.
func (f *Failure) Message(written []string) string {
	seg := f.Segments[f.Index]
	if f.Index < len(written) {
		seg = written[f.Index]
	}
	if f.Index == 0 {
		return fmt.Sprintf("%q is not a path.", seg)
	}
	parent := f.Parent
	if f.Index-1 < len(written) {
		parent = written[f.Index-1]
	}
	return fmt.Sprintf("%q is not a sub-path of %q.", seg, parent)
}

// Check resolves every divert of doc and reports the failures.
func (t *Tree) Check(doc *ast.Document, policy Policy, r diag.Reporter) int {
	failures := 0
	for _, site := range doc.Diverts() {
		d := site.Divert
		_, fail := t.Resolve(d.Path, Site{File: doc.File, Header: site.Header}, d.Temporary, policy)
		if fail == nil {
			continue
		}
		failures++
		code := diag.SemaUnknownPath
		if fail.Index > 0 {
			code = diag.SemaUnknownSubPath
		}
		span := d.Range
		if fail.Index < len(d.PathSpans) {
			span = d.PathSpans[fail.Index]
		}
		b := diag.ReportError(r, code, span, fail.Message(d.Path))
		if guess := Suggest(fail.Segments[fail.Index], fail.Candidates); guess != "" {
			full := guess
			if prefix := strings.Join(fail.Segments[:fail.Index], "."); prefix != "" {
				full = prefix + "." + guess
			}
			b.WithNote(span, "did you mean '"+full+"'?")
			if fail.Index < len(d.PathSpans) {
				fx := fix.ReplaceSpan("replace with '"+guess+"'", span, guess)
				b.WithFix(fx.Title, fx.Edits...)
			}
		}
		b.Emit()
	}
	return failures
}
