// Package testkit holds structural checks shared by parser and fuzz tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"storytell/internal/ast"
	"storytell/internal/source"
)

// CheckDocument verifies the span invariants of a parsed file:
//  1. every block, attribute and divert segment span belongs to the file
//     and lies inside its content
//  2. every script fragment is the exact file text under its span
//  3. script fragments are listed in source order
func CheckDocument(doc *ast.Document, sf *source.File) error {
	if doc == nil || sf == nil {
		return fmt.Errorf("nil document or file")
	}
	if doc.File != sf.ID {
		return fmt.Errorf("document file id %d, want %d", doc.File, sf.ID)
	}
	size, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	within := func(what string, sp source.Span) error {
		if sp.File != sf.ID {
			return fmt.Errorf("%s span %v points to file %d", what, sp, sp.File)
		}
		if sp.Start > sp.End || sp.End > size {
			return fmt.Errorf("%s span %v outside [0,%d]", what, sp, size)
		}
		return nil
	}

	var failure error
	ast.Inspect(doc.Blocks, func(b ast.Block) bool {
		if failure != nil {
			return false
		}
		if failure = within(b.Kind().String(), b.Span()); failure != nil {
			return false
		}
		for _, a := range b.Attrs() {
			if failure = within("attribute @"+a.Name, a.Span); failure != nil {
				return false
			}
		}
		if d, ok := b.(*ast.Divert); ok {
			if len(d.PathSpans) != len(d.Path) {
				failure = fmt.Errorf("divert has %d segments but %d spans", len(d.Path), len(d.PathSpans))
				return false
			}
			for _, sp := range d.PathSpans {
				if failure = within("divert segment", sp); failure != nil {
					return false
				}
			}
		}
		return true
	})
	if failure != nil {
		return failure
	}

	var last uint32
	for i, ref := range doc.Scripts() {
		if err := within("script", ref.Span); err != nil {
			return err
		}
		if got := string(sf.Content[ref.Span.Start:ref.Span.End]); got != ref.Raw {
			return fmt.Errorf("script %d: raw %q but file has %q", i, ref.Raw, got)
		}
		if ref.Span.Start < last {
			return fmt.Errorf("script %d at %d listed after %d", i, ref.Span.Start, last)
		}
		last = ref.Span.Start
	}
	return nil
}
