package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("intro.story", []byte("# Hello"), 0)
	id2 := fs.Add("intro.story", []byte("# Hello again"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d twice", id1)
	}

	// старая версия остаётся доступной
	if got := string(fs.Get(id1).Content); got != "# Hello" {
		t.Errorf("first version content = %q", got)
	}
	if fs.Get(FileID(42)) != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestFileSetLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storytell.toml")
	if err := os.WriteFile(path, []byte("[story]\r\nname = 1\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	f := fs.Get(id)
	if got := f.Text(f.LineSpan(2)); got != "name = 1" {
		t.Errorf("LineSpan(2) covers %q", got)
	}
	if sp := f.LineSpan(9); sp.Start != f.Len() || sp.End != f.Len() {
		t.Errorf("LineSpan past the end = %+v", sp)
	}
	if _, err := fs.Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestPosition(t *testing.T) {
	f := NewFile(0, "a.story", []byte("ab\ncd\n\nef"), FileVirtual)

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{2, LineCol{1, 3}}, // the '\n' itself
		{3, LineCol{2, 1}},
		{4, LineCol{2, 2}},
		{6, LineCol{3, 1}},
		{7, LineCol{4, 1}},
		{9, LineCol{4, 3}}, // end of input
	}
	for _, tt := range tests {
		if got := f.Position(tt.off); got != tt.want {
			t.Errorf("Position(%d) = %+v, want %+v", tt.off, got, tt.want)
		}
	}
}

func TestPositionCRLF(t *testing.T) {
	f := NewFile(0, "a.story", []byte("ab\r\ncd"), 0)
	if f.Flags&FileCRLF == 0 {
		t.Fatal("expected FileCRLF flag")
	}
	if got := f.Position(4); got != (LineCol{2, 1}) {
		t.Errorf("Position(4) = %+v", got)
	}
	if got := f.GetLine(1); got != "ab" {
		t.Errorf("GetLine(1) = %q, want %q", got, "ab")
	}
	if got := f.GetLine(2); got != "cd" {
		t.Errorf("GetLine(2) = %q, want %q", got, "cd")
	}
	if got := f.GetLine(3); got != "" {
		t.Errorf("GetLine(3) = %q, want empty", got)
	}
}

func TestFileText(t *testing.T) {
	f := NewFile(3, "a.story", []byte("hello world"), 0)
	if got := f.Text(Span{File: 3, Start: 6, End: 11}); got != "world" {
		t.Errorf("Text = %q", got)
	}
	if got := f.Text(Span{File: 3, Start: 6, End: 99}); got != "world" {
		t.Errorf("clamped Text = %q", got)
	}
	if got := f.Text(Span{File: 3, Start: 20, End: 30}); got != "" {
		t.Errorf("out of range Text = %q", got)
	}
}
