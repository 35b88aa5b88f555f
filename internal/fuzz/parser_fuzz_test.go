package fuzztests

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"storytell/internal/diag"
	"storytell/internal/host"
	"storytell/internal/parser"
	sparser "storytell/internal/script/parser"
	"storytell/internal/session"
	"storytell/internal/source"
	"storytell/internal/testkit"
	"storytell/internal/wire"
)

// parseTimeout - если парсинг дольше, это скорее всего зацикливание
const parseTimeout = 5 * time.Second

func parseMarkup(input []byte) (*source.File, parser.Result, *diag.Bag) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("fuzz.story", input))
	bag := diag.NewBag(128)
	res := parser.ParseFile(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
	return file, res, bag
}

func FuzzMarkupParser(f *testing.F) {
	addSeeds(f, markupSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input, maxFuzzInput)
		file, res, bag := parseMarkup(input)
		if err := testkit.CheckDocument(res.Doc, file); err != nil {
			t.Fatalf("span invariants: %v\ninput: %q", err, input)
		}

		// same text, same tree
		_, again, _ := parseMarkup(input)
		first, err := json.Marshal(wire.CompileFile(res.Doc, bag.Items(), wire.Options{}))
		if err != nil {
			t.Fatal(err)
		}
		second, err := json.Marshal(wire.CompileFile(again.Doc, bag.Items(), wire.Options{}))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(first, second) {
			t.Fatalf("parse is not deterministic for %q", input)
		}
	})
}

func FuzzScriptParserNoHang(f *testing.F) {
	addSeeds(f, scriptSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input, maxFuzzInput)
		done := make(chan string, 1)
		go func() {
			bag := diag.NewBag(64)
			script := sparser.Parse(input, 1, sparser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 64})
			done <- script.String()
		}()
		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("script parser hang: %q", truncate(input, 200))
		}
	})
}

func FuzzSessionCompile(f *testing.F) {
	addSeeds(f, markupSeeds)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input, maxFuzzInput)
		h := host.NewMemory(map[string]string{
			"a.story": string(input),
			"b.story": "# B\n{x = 1}\n",
		})
		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()
		s, err := session.Open(ctx, h, "", session.Config{MaxDiagnostics: 64})
		if err != nil {
			t.Fatal(err)
		}
		doc := s.Compile()
		if len(doc.Files) != 2 {
			t.Fatalf("compiled %d files", len(doc.Files))
		}
	})
}

func truncate(input []byte, n int) []byte {
	if len(input) <= n {
		return input
	}
	return append(input[:n:n], "..."...)
}
