package diag

import (
	"sort"

	"storytell/internal/source"
)

// Bag collects diagnostics for one compile operation.
type Bag struct {
	items   []Diagnostic
	max     int
	dropped int
}

// NewBag creates a bag holding at most limit diagnostics; limit <= 0 means unlimited.
func NewBag(limit int) *Bag {
	return &Bag{
		items: make([]Diagnostic, 0, min(max(limit, 0), 64)),
		max:   limit,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Dropped returns how many diagnostics were refused because of the limit.
func (b *Bag) Dropped() int {
	return b.dropped
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}

func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends diagnostics from other, respecting the limit of b.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		b.Add(d)
	}
}

// Sort orders diagnostics by file, start, end, severity (desc) and code.
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

type bagKey struct {
	code Code
	span [3]uint32
	msg  string
}

func keyOf(code Code, sp source.Span, msg string) bagKey {
	return bagKey{code, [3]uint32{uint32(sp.File), sp.Start, sp.End}, msg}
}

// Dedup drops diagnostics repeating the code, span and message of an earlier one.
func (b *Bag) Dedup() {
	seen := make(map[bagKey]struct{}, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := keyOf(d.Code, d.Primary, d.Message)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	b.items = out
}

// Filter returns the diagnostics accepted by keep.
func (b *Bag) Filter(keep func(Diagnostic) bool) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
