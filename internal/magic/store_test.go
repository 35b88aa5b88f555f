package magic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storytell/internal/diag"
	"storytell/internal/script/parser"
	"storytell/internal/source"
)

func fragment(t *testing.T, file source.FileID, base uint32, src string) Fragment {
	t.Helper()
	bag := diag.NewBag(0)
	script := parser.ParseString(src, file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	require.Zero(t, bag.Len(), "script %q has diagnostics", src)
	return Fragment{File: file, Base: base, Script: script}
}

func kindOf(t *testing.T, s *Store, path ...string) Kind {
	t.Helper()
	id, ok := s.Lookup(path...)
	require.True(t, ok, "variable %v not found", path)
	return s.KindOf(id)
}

func TestAssignmentKinds(t *testing.T) {
	tests := []struct {
		src  string
		name string
		want Kind
	}{
		{`x = 1`, "x", Number},
		{`x = "s"`, "x", String},
		{"x = `a${b}`", "x", String},
		{`x = true`, "x", Bool},
		{`x = [1, 2]`, "x", Array},
		{`x = new Array()`, "x", Array},
		{`x = new Map()`, "x", Map},
		{`x = null`, "x", Unknown},
		{`x += "s"`, "x", String},
		{`x += 1`, "x", Number},
		{`x += y`, "x", Number},
		{`x -= 2`, "x", Number},
		{`x *= (3)`, "x", Number},
		{`x -= y`, "x", Unknown},
		{`x ??= 4`, "x", Number},
		{`x = a < b`, "x", Bool},
		{`x = !a`, "x", Bool},
		{`x = typeof a`, "x", String},
		{`x = 1 + 2 * 3`, "x", Number},
		{`x = "a" + y`, "x", String},
		{`x = c ? 1 : 2`, "x", Number},
		{`x = c ? 1 : "s"`, "x", Unknown},
		{`x++`, "x", Number},
		{`--x`, "x", Number},
		{`x.push(1)`, "x", Array},
		{`x.set("k", 1)`, "x", Map},
		{`f(x = true)`, "x", Bool},
		{`y = (x = "s")`, "y", String},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			s := NewStore()
			s.Fold(fragment(t, 1, 0, tt.src))
			assert.Equal(t, tt.want, kindOf(t, s, tt.name))
		})
	}
}

func TestCrossFileConflictAndPurge(t *testing.T) {
	s := NewStore()
	s.Fold(fragment(t, 1, 0, `x = 1`))
	s.Fold(fragment(t, 2, 0, `x = "s"`))

	conflicts := s.Conflicts()
	require.Len(t, conflicts, 1)
	assert.Equal(t, "x", conflicts[0].Name)
	assert.Len(t, conflicts[0].Assignments, 2)

	s.RemoveOrigin(2)
	assert.Empty(t, s.Conflicts())
	assert.Equal(t, Number, kindOf(t, s, "x"))
}

func TestIdentifierInheritsCommonKind(t *testing.T) {
	s := NewStore()
	s.Fold(fragment(t, 1, 0, `a = "s"; b = a; c = missing`))
	assert.Equal(t, String, kindOf(t, s, "b"))
	assert.Equal(t, Unknown, kindOf(t, s, "c"))
}

func TestAccessChains(t *testing.T) {
	t.Run("same property twice", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `a.b = 1; a.b = 2`))
		a := kindOf(t, s, "a")
		assert.True(t, a.IsObject())
		assert.Equal(t, Number, kindOf(t, s, "a", "b"))
		assert.Empty(t, s.Conflicts())
	})
	t.Run("independent properties", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `a.b = 1; a.c = "x"`))
		assert.Equal(t, Number, kindOf(t, s, "a", "b"))
		assert.Equal(t, String, kindOf(t, s, "a", "c"))
		assert.Empty(t, s.Conflicts())
	})
	t.Run("nested objects and literal keys", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `p.stats["hp"] = 10; p.items[0] = "sword"`))
		assert.True(t, kindOf(t, s, "p", "stats").IsObject())
		assert.Equal(t, Number, kindOf(t, s, "p", "stats", "hp"))
		assert.Equal(t, String, kindOf(t, s, "p", "items", "0"))
		id, _ := s.Lookup("p", "stats", "hp")
		assert.Equal(t, "p.stats.hp", s.Name(id))
	})
	t.Run("unresolvable computed key", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `a[k = 1] = 2`))
		_, ok := s.Lookup("a")
		assert.False(t, ok)
		assert.Equal(t, Number, kindOf(t, s, "k"))
	})
	t.Run("reading does not allocate", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `z = q.r`))
		_, ok := s.Lookup("q")
		assert.False(t, ok)
		assert.Equal(t, Unknown, kindOf(t, s, "z"))
	})
	t.Run("reading a known property", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `q.r = "s"; z = q.r`))
		assert.Equal(t, String, kindOf(t, s, "z"))
	})
	t.Run("mutator on property", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `bag.items.push("rope")`))
		assert.Equal(t, Array, kindOf(t, s, "bag", "items"))
	})
	t.Run("scalar turned object conflicts", func(t *testing.T) {
		s := NewStore()
		s.Fold(fragment(t, 1, 0, `a = 1; a.b = 2`))
		conflicts := s.Conflicts()
		require.Len(t, conflicts, 1)
		assert.Equal(t, "a", conflicts[0].Name)
	})
}

func TestReplaceKeepsTheObjectOfAVariable(t *testing.T) {
	s := NewStore()
	s.Fold(fragment(t, 1, 0, `a.b = 1`))
	first := kindOf(t, s, "a")

	touched := s.Replace(1, []Fragment{fragment(t, 1, 0, `a.c = "x"`)})
	require.Len(t, touched, 1)
	assert.Len(t, touched[0], 2)
	second := kindOf(t, s, "a")
	assert.True(t, second.IsObject())
	assert.Equal(t, first.Object, second.Object)

	b, ok := s.Lookup("a", "b")
	require.True(t, ok)
	v, _ := s.Variable(b)
	assert.Empty(t, v.Assignments)

	id, ok := s.Lookup("a", "c")
	require.True(t, ok)
	assert.Equal(t, String, s.KindOf(id))
	assert.Empty(t, s.Conflicts())
}

func TestReplaceKeepsPropertiesOfOtherFiles(t *testing.T) {
	s := NewStore()
	s.Fold(fragment(t, 1, 0, `a.c = "x"`))
	s.Fold(fragment(t, 2, 0, `a.b = 1`))
	before := Flatten(s.Snapshot())

	s.Replace(1, []Fragment{fragment(t, 1, 0, `a.c = "x"`)})
	assert.Equal(t, before, Flatten(s.Snapshot()))
	assert.Equal(t, Number, kindOf(t, s, "a", "b"))

	s.RemoveOrigin(1)
	assert.Equal(t, Number, kindOf(t, s, "a", "b"))
	_, ok := s.Lookup("a", "c")
	assert.True(t, ok)
	assert.Empty(t, s.Conflicts())
}

func TestAssignmentSpansAreFileRelative(t *testing.T) {
	s := NewStore()
	touched := s.Fold(fragment(t, 3, 10, `hp = 1`))
	require.Len(t, touched, 1)
	v, ok := s.Variable(touched[0])
	require.True(t, ok)
	require.Len(t, v.Assignments, 1)
	assert.Equal(t, source.Span{File: 3, Start: 10, End: 12}, v.Assignments[0].Span)
	assert.Equal(t, source.FileID(3), v.Assignments[0].Origin)
}

func TestSnapshot(t *testing.T) {
	s := NewStore()
	s.Fold(fragment(t, 1, 0, `zed = 1; alpha.b = true; alpha.a = "s"; gone = 2`))
	s.Fold(fragment(t, 2, 0, `zed = "x"`))
	s.Replace(1, []Fragment{fragment(t, 1, 0, `zed = 1; alpha.b = true; alpha.a = "s"`)})

	snap := s.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "alpha", snap[0].Name)
	require.Len(t, snap[0].Props, 2)
	assert.Equal(t, "a", snap[0].Props[0].Name)
	assert.Equal(t, "b", snap[0].Props[1].Name)
	assert.Equal(t, "zed", snap[1].Name)
	assert.True(t, snap[1].Conflict)

	flat := Flatten(snap)
	names := make([]string, len(flat))
	for i, e := range flat {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"alpha", "alpha.a", "alpha.b", "zed"}, names)
}
