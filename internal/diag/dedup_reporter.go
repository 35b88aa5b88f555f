package diag

import "storytell/internal/source"

// DedupReporter forwards a diagnostic only the first time its code, primary
// span and message are seen, the same identity Bag.Dedup uses.
type DedupReporter struct {
	next Reporter
	seen map[bagKey]struct{}
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{next: next, seen: make(map[bagKey]struct{})}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, msg string, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	key := keyOf(code, primary, msg)
	if _, dup := r.seen[key]; dup {
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, msg, notes, fixes)
	}
}
