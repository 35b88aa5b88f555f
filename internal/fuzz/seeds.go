package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxFuzzInput = 1 << 16 // 64 KiB
	maxSeedBytes = 64 << 10
)

var markupSeeds = []string{
	"",
	"# Hello\nWorld {x += 1}\n",
	"# A\ntext\n## B\nmore\n# C\n",
	"- Left\n    You go left.\n- Right\n    - Deeper\nDone\n",
	"- @if(gold > 10) Buy\n- @not(has(\"key\")) Search\n",
	"-> start\n<-> shop.menu\n",
	"@{coins > 3} if\n    - Rich\n    - Poor\n    Always shown\n",
	"@tag(a, \"b, c\")\n@hidden\n\n# Secret\n",
	"```js\nlet a = 1;\n```\n",
	"**bold *both* __under__** `code` <> join\n",
	"# Title\r\n- one\r\n    body\r\n",
	"{player.stats.hp = 10; items = [1, 2]; name = `hi ${who}`}\n",
	"**a\n*b\n{x = 1\n",
}

var scriptSeeds = []string{
	"x = 1",
	"a.b[\"c\"] += 2; d = !e",
	"n++; m = n > 2 ? \"big\" : \"small\"",
	"obj = new Map(); obj.set(1, 2)",
	"t = `a ${b + `c ${d}`}`",
	"0x1f + 1_000 + 1.5e3 + 0b101",
	"((a",
	"\"unterminated",
}

// addSeeds adds the inline seeds and every story file under testdata.
func addSeeds(f *testing.F, seeds []string) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
	root := filepath.Join("..", "..", "testdata")
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".story" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clamp(src, maxSeedBytes))
		return nil
	})
}

func clamp(src []byte, limit int) []byte {
	if len(src) > limit {
		src = src[:limit]
	}
	return append([]byte(nil), src...)
}
