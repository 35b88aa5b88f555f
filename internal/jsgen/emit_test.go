package jsgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storytell/internal/ast"
	"storytell/internal/parser"
	"storytell/internal/wire"
)

func parse(t *testing.T, src string) *ast.Document {
	t.Helper()
	res := parser.ParseText(src, parser.Options{})
	require.NotNil(t, res.Doc)
	return res.Doc
}

func TestEmitHeaderTree(t *testing.T) {
	doc := parse(t, "# Start\nHello **you** `c`.\n## Next Room\n<-> start\n")
	got := Emit([]*ast.Document{doc}, Options{})
	want := "[\n  Path({title:\"Start\",canonicalTitle:\"start\",childPaths:{" +
		"\"next_room\":Path({title:\"Next Room\",canonicalTitle:\"next_room\",childPaths:{},children:[tempDivert([\"start\"])]})" +
		"},children:[Paragraph(`Hello <b>you</b> <code>c</code>.`,[])]})\n]\n"
	assert.Equal(t, want, got)
}

func TestEmitSkipsBlocksOutsideHeaders(t *testing.T) {
	assert.Equal(t, "[]\n", Emit([]*ast.Document{parse(t, "Just text.\n")}, Options{}))

	e := New(Options{})
	e.AddDocument(parse(t, "# A\n"))
	e.AddDocument(parse(t, "loose\n# B\n"))
	assert.Equal(t, "[\n  Path({title:\"A\",canonicalTitle:\"a\",childPaths:{},children:[]}),\n"+
		"  Path({title:\"B\",canonicalTitle:\"b\",childPaths:{},children:[]})\n]\n", e.String())
}

func TestEmitEscapesTemplateText(t *testing.T) {
	doc := parse(t, "# A\ncost \\`$\\{x}\\` in C:\\\\dir\n")
	got := Emit([]*ast.Document{doc}, Options{})
	assert.Contains(t, got, "Paragraph(`cost \\`\\${x}\\` in C:\\\\dir`,[])")
}

func TestEmitScriptInlineWithVariables(t *testing.T) {
	doc := parse(t, "# A\nYou have {gold=gold+1} coins\n")
	var script *ast.Inline
	ast.Inspect(doc.Blocks, func(b ast.Block) bool {
		if p, ok := b.(*ast.Paragraph); ok && len(p.Text.Parts) > 0 {
			script = p.Text.Parts[0].Inline
		}
		return true
	})
	require.NotNil(t, script)
	require.Equal(t, ast.InlineScript, script.Kind)

	got := Emit([]*ast.Document{doc}, Options{
		Names: Names{Path: "P", Paragraph: "T", Script: "S", CodeBlock: "C", ChoiceGroup: "G", Match: "M", Divert: "d", TempDivert: "t"},
		Vars:  map[*ast.Inline][]wire.MagicVar{script: {{Name: "gold", Kind: 1}}},
	})
	assert.Contains(t, got, "T(`You have ${S(\"gold = gold + 1\",[{name:\"gold\",type:1}])} coins`,[])")
	assert.Contains(t, got, "P({title:\"A\"")
}

func TestEmitChoicesAndMatch(t *testing.T) {
	doc := parse(t, "# A\n- @if(gold>10) Buy -> shop\n- Leave\n@{coins > 3} if\n    - Rich\n    Always\n")
	got := Emit([]*ast.Document{doc}, Options{})
	assert.Contains(t, got, "ChoiceGroup([{text:`Buy`,condition:{modifier:\"if\",code:\"gold > 10\"},children:[divert([\"shop\"])]},"+
		"{text:`Leave`,condition:null,children:[]}],[])")
	assert.Contains(t, got, "Match(\"coins > 3\",[{text:\"Rich\",condition:null,children:[]}],[Paragraph(`Always`,[])],\"if\")")
}

func TestEmitAttributesAndCode(t *testing.T) {
	doc := parse(t, "# A\n@tag(a, b)\n```js\nlet x = 1;\n```\n")
	got := Emit([]*ast.Document{doc}, Options{})
	assert.Contains(t, got, "Codeblock(\"let x = 1;\\n\",\"js\",[{name:\"tag\",params:[\"a\",\"b\"]}])")
}

func TestRebuildKeepsUnparsableCode(t *testing.T) {
	assert.Equal(t, "a + b", rebuild("a+b"))
	assert.Equal(t, "a +", rebuild(" a + "))
}
