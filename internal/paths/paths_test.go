package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/parser"
	"storytell/internal/source"
)

func parseDoc(t *testing.T, file source.FileID, src string) *ast.Document {
	t.Helper()
	res := parser.ParseFile(source.NewFile(file, "test.story", []byte(src), 0), parser.Options{})
	return res.Doc
}

func TestCanonicalize(t *testing.T) {
	tests := map[string]string{
		"My Title!":         "my_title",
		"Chapter 2: Ruins":  "chapter_2_ruins",
		"already_canonical": "already_canonical",
		"Ünïcode Name":      "ncode_name",
		"":                  "",
	}
	for in, want := range tests {
		got := Canonicalize(in)
		assert.Equal(t, want, got, "Canonicalize(%q)", in)
		for i := 0; i < len(got); i++ {
			b := got[i]
			assert.True(t, b == '_' || b >= 'a' && b <= 'z' || b >= '0' && b <= '9')
		}
	}
}

func TestResolveNested(t *testing.T) {
	tree := Build([]*ast.Document{parseDoc(t, 1, "# A\n## B\n")})
	site := Site{File: 1}

	id, fail := tree.Resolve([]string{"a", "b"}, site, false, Policy{})
	require.Nil(t, fail)
	assert.Equal(t, "a.b", tree.Path(id))

	_, fail = tree.Resolve([]string{"A", "B"}, site, false, Policy{})
	assert.Nil(t, fail, "segments are canonicalized")

	_, fail = tree.Resolve([]string{"a", "c"}, site, false, Policy{})
	require.NotNil(t, fail)
	assert.Equal(t, 1, fail.Index)
	assert.Equal(t, "a", fail.Parent)
	assert.Equal(t, `"c" is not a sub-path of "a".`, fail.Message([]string{"a", "c"}))

	_, fail = tree.Resolve([]string{"x"}, site, false, Policy{})
	require.NotNil(t, fail)
	assert.Equal(t, 0, fail.Index)
	assert.Equal(t, `"x" is not a path.`, fail.Message([]string{"x"}))
}

func TestDuplicateSiblingsLastWins(t *testing.T) {
	doc := parseDoc(t, 1, "# A\n## B\nfirst\n## B\nsecond\n")
	tree := Build([]*ast.Document{doc})
	id, fail := tree.Resolve([]string{"a", "b"}, Site{File: 1}, false, Policy{})
	require.Nil(t, fail)

	a := doc.Blocks[0].(*ast.Header)
	second := a.Children[1].(*ast.Header)
	want, ok := tree.NodeOf(second)
	require.True(t, ok)
	assert.Equal(t, want, id)
	assert.Equal(t, []string{"b"}, tree.Children(tree.roots["a"]))
}

func TestScopes(t *testing.T) {
	tree := Build([]*ast.Document{
		parseDoc(t, 1, "# Intro\n"),
		parseDoc(t, 2, "# Shop\n"),
	})
	fromIntro := Site{File: 1}

	_, fail := tree.Resolve([]string{"shop"}, fromIntro, false, Policy{DivertScope: ScopeProject})
	assert.Nil(t, fail)

	_, fail = tree.Resolve([]string{"shop"}, fromIntro, false, Policy{DivertScope: ScopeFile})
	assert.NotNil(t, fail)

	policy := Policy{DivertScope: ScopeFile, TempDivertScope: ScopeProject}
	_, fail = tree.Resolve([]string{"shop"}, fromIntro, true, policy)
	assert.Nil(t, fail, "temporary diverts use their own scope")
}

func TestLocalFallback(t *testing.T) {
	doc := parseDoc(t, 1, "# Cave\n## Entrance\n-> deep\n## Deep\n")
	tree := Build([]*ast.Document{doc})
	cave := doc.Blocks[0].(*ast.Header)
	site := Site{File: 1, Header: cave}

	_, fail := tree.Resolve([]string{"deep"}, site, false, Policy{})
	require.NotNil(t, fail)

	id, fail := tree.Resolve([]string{"deep"}, site, false, Policy{LocalFallback: true})
	require.Nil(t, fail)
	assert.Equal(t, "cave.deep", tree.Path(id))
}

func TestCheckReportsWithSuggestion(t *testing.T) {
	doc := parseDoc(t, 1, "# Forest\n## Clearing\n-> forest.clearng\n-> nowhere\n-> forest.clearing\n")
	tree := Build([]*ast.Document{doc})
	bag := diag.NewBag(0)

	n := tree.Check(doc, Policy{}, diag.BagReporter{Bag: bag})
	require.Equal(t, 2, n)
	items := bag.Items()
	require.Len(t, items, 2)

	assert.Equal(t, diag.SemaUnknownSubPath, items[0].Code)
	assert.Equal(t, `"clearng" is not a sub-path of "forest".`, items[0].Message)
	require.Len(t, items[0].Notes, 1)
	assert.Equal(t, "did you mean 'forest.clearing'?", items[0].Notes[0].Msg)
	require.Len(t, items[0].Fixes, 1)
	assert.Equal(t, "clearing", items[0].Fixes[0].Edits[0].NewText)
	assert.Equal(t, items[0].Primary, items[0].Fixes[0].Edits[0].Span)

	assert.Equal(t, diag.SemaUnknownPath, items[1].Code)
	assert.Equal(t, `"nowhere" is not a path.`, items[1].Message)
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "clearing", Suggest("clrng", []string{"river", "clearing"}))
	assert.Equal(t, "cave", Suggest("caves", []string{"cave", "shop"}))
	assert.Equal(t, "", Suggest("zzz", []string{"cave"}))
}
