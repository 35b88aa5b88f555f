package parser

import (
	"testing"

	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/lexer"
	"storytell/internal/source"
	"storytell/internal/testkit"
)

func TestParseBlocks(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "header with script paragraph",
			input: "# Hello\nWorld {x += 1}\n",
			want:  `(h1 "Hello" (p "World " {x += 1} ""))`,
		},
		{
			name:  "nested headers",
			input: "# A\ntext\n## B\nmore\n# C\n",
			want:  `(h1 "A" (p "text") (h2 "B" (p "more"))) (h1 "C")`,
		},
		{
			name:  "header without space",
			input: "###Deep   \n",
			want:  `(h3 "Deep")`,
		},
		{
			name:  "blank lines skipped",
			input: "\n\none\n\n   \ntwo\n",
			want:  `(p "one") (p "two")`,
		},
		{
			name:  "code block",
			input: "```js\nlet a = 1;\nfoo()\n```   trailing\nafter\n",
			want:  `(code "js" "let a = 1;\nfoo()\n") (p "after")`,
		},
		{
			name:  "choices with bodies",
			input: "- Left\n    You go left.\n- Right\n    - Deeper\nDone\n",
			want:  `(choices (- "Left" (p "You go left.")) (- "Right" (choices (- "Deeper")))) (p "Done")`,
		},
		{
			name:  "over-indented line joins the body",
			input: "- a\n        too deep\n- b\n",
			want:  `(choices (- "a" (p "too deep")) (- "b"))`,
		},
		{
			name:  "blank line inside a body",
			input: "- a\n    one\n\n    two\n- b\n",
			want:  `(choices (- "a" (p "one") (p "two")) (- "b"))`,
		},
		{
			name:  "choice condition",
			input: "- @if(gold > 10) Buy\n- @not(has(\"key\")) Search\n",
			want:  `(choices (- @if(gold > 10) "Buy") (- @not(has("key")) "Search"))`,
		},
		{
			name:  "divert lifted from paragraph",
			input: "Run away -> forest.edge\n",
			want:  `(p "Run away") (-> forest.edge)`,
		},
		{
			name:  "divert lifted mid-line",
			input: "x -> a.b rest\n-> c  then\n",
			want:  `(p "x rest") (-> a.b) (p "then") (-> c)`,
		},
		{
			name:  "divert line",
			input: "-> start\n<-> shop.menu\n",
			want:  `(-> start) (<-> shop.menu)`,
		},
		{
			name:  "divert inside choice",
			input: "- Open the door -> room\n    It creaks.\n",
			want:  `(choices (- "Open the door" (-> room) (p "It creaks.")))`,
		},
		{
			name:  "match",
			input: "@{coins > 3} if\n    - Rich\n    - Poor\n    Always shown\n",
			want:  `(match "coins > 3" if (- "Rich") (- "Poor") (p "Always shown"))`,
		},
		{
			name:  "match default",
			input: "@{mood}\n    - happy\n",
			want:  `(match "mood" default (- "happy"))`,
		},
		{
			name:  "attributes attach to next block",
			input: "@tag(a, \"b, c\")\n@hidden\n\n# Secret\n",
			want:  `@tag["a" "\"b, c\""] @hidden[] (h1 "Secret")`,
		},
		{
			name:  "attribute-like line with text is a paragraph",
			input: "@me said hi\n",
			want:  `(p "@me said hi")`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, bag := parseWithBag(tt.input, Options{})
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
			}
			if got := dump(res.Doc.Blocks); got != tt.want {
				t.Fatalf("tree mismatch\n got: %s\nwant: %s", got, tt.want)
			}
			if res.Outcome != Parsed {
				t.Fatalf("outcome = %s, want parsed", res.Outcome)
			}
		})
	}
}

func TestParseInlines(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a **b** c", `"a " [bold "b"] " c"`},
		{"*it* and __under__", `[italics "it"] " and " [underline "under"] ""`},
		{"**bold *inner***", `[bold "bold " [italics "inner"] ""] ""`},
		{"use `a*b` here", `"use " [code "a*b"] " here"`},
		{"left<>right", `"left" <> "right"`},
		{"2 * 3 = 6", `"2 * 3 = 6"`},
		{"ends with *", `"ends with *"`},
		{`\*not\* italic`, `"*not* italic"`},
		{"{ {a: 1} } and {'}'}", `{ {a: 1} } " and " {'}'} ""`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			res, bag := parseWithBag(tt.input+"\n", Options{})
			if bag.Len() != 0 {
				t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
			}
			if len(res.Doc.Blocks) != 1 {
				t.Fatalf("expected 1 block, got %s", dump(res.Doc.Blocks))
			}
			p, ok := res.Doc.Blocks[0].(*ast.Paragraph)
			if !ok {
				t.Fatalf("expected paragraph, got %s", dump(res.Doc.Blocks))
			}
			if got := dumpText(&p.Text); got != tt.want {
				t.Fatalf("text mismatch\n got: %s\nwant: %s", got, tt.want)
			}
		})
	}
}

func TestScriptInlineSpans(t *testing.T) {
	src := "# Hello\nWorld {x += 1}\n"
	res, _ := parseWithBag(src, Options{})
	h := res.Doc.Blocks[0].(*ast.Header)
	p := h.Children[0].(*ast.Paragraph)
	if len(p.Text.Parts) != 1 || p.Text.Tail != "" || p.Text.Parts[0].Before != "World " {
		t.Fatalf("unexpected text %s", dumpText(&p.Text))
	}
	in := p.Text.Parts[0].Inline
	if got := src[in.RawSpan.Start:in.RawSpan.End]; got != "x += 1" {
		t.Fatalf("raw span covers %q", got)
	}
	if got := src[in.Range.Start:in.Range.End]; got != "{x += 1}" {
		t.Fatalf("range covers %q", got)
	}
	if h.Range.End != p.Range.End {
		t.Fatalf("header range %v does not cover its paragraph %v", h.Range, p.Range)
	}
}

func TestUnclosedDelimiters(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		code  diag.Code
		count int
	}{
		{"bold", "**Bold\n", `(p "**Bold")`, diag.SynUnclosedDelimiter, 1},
		{"italics", "*open\n", `(p "*open")`, diag.SynUnclosedDelimiter, 1},
		{"code span", "a `b\n", `(p "a ` + "`" + `b")`, diag.SynUnclosedDelimiter, 1},
		{"script", "{x = 1\n", `(p "{x = 1")`, diag.SynUnclosedScript, 1},
		{"closer on next line", "**a\nb**\n", `(p "**a") (p "b**")`, diag.SynUnclosedDelimiter, 2},
		{"code block", "```\nbody", `(code "" "body")`, diag.SynUnclosedCodeBlock, 1},
		{"empty divert", "->   \n", ``, diag.SynEmptyDivert, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, bag := parseWithBag(tt.input, Options{})
			if got := dump(res.Doc.Blocks); got != tt.want {
				t.Fatalf("tree mismatch\n got: %s\nwant: %s", got, tt.want)
			}
			if bag.Len() != tt.count {
				t.Fatalf("expected %d diagnostics, got %s", tt.count, diagnosticsSummary(bag))
			}
			for _, d := range bag.Items() {
				if d.Code != tt.code {
					t.Fatalf("unexpected diagnostic %s", diagnosticsSummary(bag))
				}
			}
			if res.Outcome == Parsed {
				t.Fatalf("outcome should not be parsed")
			}
		})
	}
}

func TestFailedStyledSpanRollsBackNestedDiagnostics(t *testing.T) {
	res, bag := parseWithBag("**a *b**\n", Options{})
	if got := dump(res.Doc.Blocks); got != `(p [bold "a *b"] "")` {
		t.Fatalf("tree mismatch: %s", got)
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.SynUnclosedDelimiter {
		t.Fatalf("expected 1 diagnostic, got %s", diagnosticsSummary(bag))
	}
}

func TestCRLFLineEndings(t *testing.T) {
	src := "# Title\r\n- one\r\n    body\r\n"
	want := `(h1 "Title" (choices (- "one" (p "body"))))`

	res, bag := parseWithBag(src, Options{Lexer: lexer.Options{LineEnding: lexer.CRLF}})
	if got := dump(res.Doc.Blocks); got != want || bag.Len() != 0 {
		t.Fatalf("crlf mode: %s / %s", got, diagnosticsSummary(bag))
	}
	// LF mode over CRLF content still strips the carriage return.
	res, bag = parseWithBag(src, Options{})
	if got := dump(res.Doc.Blocks); got != want || bag.Len() != 0 {
		t.Fatalf("lf mode: %s / %s", got, diagnosticsSummary(bag))
	}
}

func TestIndentWidth(t *testing.T) {
	res, _ := parseWithBag("- a\n  inner\n- b\n", Options{Lexer: lexer.Options{IndentWidth: 2}})
	if got := dump(res.Doc.Blocks); got != `(choices (- "a" (p "inner")) (- "b"))` {
		t.Fatalf("tree mismatch: %s", got)
	}
}

func TestMaxErrors(t *testing.T) {
	res, bag := parseWithBag("**a\n**b\n**c\n", Options{MaxErrors: 2})
	if len(res.Doc.Blocks) != 3 {
		t.Fatalf("expected 3 paragraphs, got %s", dump(res.Doc.Blocks))
	}
	if bag.Len() != 2 {
		t.Fatalf("expected 2 reported diagnostics, got %s", diagnosticsSummary(bag))
	}
}

func TestParseIsIdempotent(t *testing.T) {
	src := "# Intro\n@mood(calm)\nHello **there** {name = \"x\"} -> next\n- @if(a) One\n    ```\n    code\n    ```\n@{a} not\n    - b\n## next\n"
	first, firstBag := parseWithBag(src, Options{})
	second, secondBag := parseWithBag(src, Options{})
	if dump(first.Doc.Blocks) != dump(second.Doc.Blocks) {
		t.Fatalf("trees differ:\n%s\n%s", dump(first.Doc.Blocks), dump(second.Doc.Blocks))
	}
	if diagnosticsSummary(firstBag) != diagnosticsSummary(secondBag) {
		t.Fatalf("diagnostics differ")
	}
}

func TestDocumentScriptsAndDiverts(t *testing.T) {
	src := "# A\n- @if(ready) Go {n++}\n    -> b\n@{mood} if\n    - {x = 1}\n"
	res, _ := parseWithBag(src, Options{})
	scripts := res.Doc.Scripts()
	var raws []string
	for _, s := range scripts {
		raws = append(raws, s.Raw)
		if got := src[s.Span.Start:s.Span.End]; got != s.Raw {
			t.Fatalf("span of %q covers %q", s.Raw, got)
		}
	}
	want := []string{"ready", "n++", "mood", "x = 1"}
	if len(raws) != len(want) {
		t.Fatalf("scripts = %q, want %q", raws, want)
	}
	for i := range want {
		if raws[i] != want[i] {
			t.Fatalf("scripts = %q, want %q", raws, want)
		}
	}
	diverts := res.Doc.Diverts()
	if len(diverts) != 1 || diverts[0].Header == nil || diverts[0].Header.Title != "A" {
		t.Fatalf("unexpected diverts %+v", diverts)
	}
}

func TestSpanInvariants(t *testing.T) {
	inputs := []string{
		"# Intro\n@mood(calm)\nHello **there** {name = \"x\"} -> next\n- @if(a) One\n    ```\n    code\n    ```\n@{a} not\n    - b\n## next\n",
		"# A\r\n- @not(b) {c = 1} go\r\n    <-> a.b\r\n",
		"**a\n{x = 1\n-> \n",
	}
	for _, src := range inputs {
		file := source.NewFile(7, "inv.story", []byte(src), 0)
		res := ParseFile(file, Options{})
		if err := testkit.CheckDocument(res.Doc, file); err != nil {
			t.Fatalf("%q: %v", src, err)
		}
	}
}
