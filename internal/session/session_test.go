package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storytell/internal/diag"
	"storytell/internal/host"
	"storytell/internal/magic"
	"storytell/internal/wire"
)

func openMemory(t *testing.T, files map[string]string) (*Session, *host.Memory) {
	t.Helper()
	mem := host.NewMemory(files)
	s, err := Open(context.Background(), mem, "", Config{Jobs: 2})
	require.NoError(t, err)
	return s, mem
}

func sampleProject() map[string]string {
	return map[string]string{
		"a.story":     "# A\n## B\n-> a.b\n-> a.c\n",
		"b.story":     "{x = 1}\n",
		"c.story":     "{x = \"s\"}\n",
		"dir/d.story": "# D\n",
		"notes.txt":   "not a story",
	}
}

func codes(diags []diag.Diagnostic) []diag.Code {
	out := make([]diag.Code, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Code)
	}
	return out
}

func TestOpenBuildsTree(t *testing.T) {
	s, _ := openMemory(t, sampleProject())

	tree := s.FileTree()
	require.Len(t, tree, 4)
	assert.Equal(t, "a.story", tree[0].Name)
	assert.Equal(t, "dir", tree[3].Name)
	assert.True(t, tree[3].IsDir)
	require.Len(t, tree[3].Children, 1)
	assert.Equal(t, "d.story", tree[3].Children[0].Name)

	id, ok := s.Lookup("dir/d.story")
	require.True(t, ok)
	b, err := s.Blob(id)
	require.NoError(t, err)
	assert.Equal(t, []BlobID{tree[3].ID}, b.Ancestors)
	assert.Equal(t, tree[3].ID, b.Parent)
	assert.Equal(t, "# D\n", b.Text)

	_, ok = s.Lookup("notes.txt")
	assert.False(t, ok)

	var paths []string
	for _, f := range s.Files() {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{"a.story", "b.story", "c.story", "dir/d.story"}, paths)
}

func TestDivertDiagnostics(t *testing.T) {
	s, _ := openMemory(t, sampleProject())
	id, _ := s.Lookup("a.story")

	diags, err := s.Diagnostics(id)
	require.NoError(t, err)
	require.Equal(t, []diag.Code{diag.SemaUnknownSubPath}, codes(diags))
	assert.Equal(t, `"c" is not a sub-path of "a".`, diags[0].Message)
	assert.Equal(t, "c", s.File(diags[0].Primary.File).Text(diags[0].Primary))
}

func TestConflictAcrossFiles(t *testing.T) {
	s, _ := openMemory(t, sampleProject())
	b, _ := s.Lookup("b.story")
	c, _ := s.Lookup("c.story")

	diags, err := s.Diagnostics(b)
	require.NoError(t, err)
	require.Equal(t, []diag.Code{diag.SemaKindConflict}, codes(diags))
	assert.Equal(t, `"x" is assigned a number here but a string elsewhere.`, diags[0].Message)

	diags, err = s.Diagnostics(c)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, `"x" is assigned a string here but a number elsewhere.`, diags[0].Message)

	require.NoError(t, s.Delete(c))
	diags, err = s.Diagnostics(b)
	require.NoError(t, err)
	assert.Empty(t, diags)

	x, ok := s.Store().Global("x")
	require.True(t, ok)
	assert.Equal(t, magic.Number, s.Store().KindOf(x))

	_, err = s.Diagnostics(c)
	assert.ErrorIs(t, err, ErrUnknownBlob)
}

func TestRecompileFile(t *testing.T) {
	s, mem := openMemory(t, sampleProject())
	b, _ := s.Lookup("b.story")

	doc, err := s.RecompileFile(b, "{x = \"t\"}\n")
	require.NoError(t, err)
	assert.Nil(t, doc.Diagnostics)

	data, err := wire.Marshal(doc, wire.FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"magicVariables":[{"name":"x","kind":0}]`)

	// the buffer is not written
	text, err := mem.ReadFile("b.story")
	require.NoError(t, err)
	assert.Equal(t, "{x = 1}\n", text)

	_, err = s.Save(b, "{x = true}\n")
	require.NoError(t, err)
	text, err = mem.ReadFile("b.story")
	require.NoError(t, err)
	assert.Equal(t, "{x = true}\n", text)

	diags, err := s.Diagnostics(b)
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.SemaKindConflict}, codes(diags))
}

func TestRecompileUnchangedTextKeepsVariables(t *testing.T) {
	s, _ := openMemory(t, map[string]string{
		"a.story": "{a.c = \"x\"}\n",
		"b.story": "{a.b = 1}\n",
	})
	a, _ := s.Lookup("a.story")
	before := magic.Flatten(s.Store().Snapshot())

	_, err := s.RecompileFile(a, "{a.c = \"x\"}\n")
	require.NoError(t, err)
	assert.Equal(t, before, magic.Flatten(s.Store().Snapshot()))

	id, ok := s.Store().Lookup("a", "b")
	require.True(t, ok)
	assert.Equal(t, magic.Number, s.Store().KindOf(id))

	require.NoError(t, s.Delete(a))
	id, ok = s.Store().Lookup("a", "b")
	require.True(t, ok)
	assert.Equal(t, magic.Number, s.Store().KindOf(id))
}

func TestRecompileRejectsDirectories(t *testing.T) {
	s, _ := openMemory(t, sampleProject())
	dir, _ := s.Lookup("dir")
	_, err := s.RecompileFile(dir, "")
	assert.ErrorIs(t, err, ErrNotFile)
	_, err = s.RecompileFile(99, "")
	assert.ErrorIs(t, err, ErrUnknownBlob)
}

func TestCreateRenameDelete(t *testing.T) {
	s, mem := openMemory(t, sampleProject())
	dir, _ := s.Lookup("dir")

	node, err := s.CreateEntry("e", dir, false)
	require.NoError(t, err)
	assert.Equal(t, "e.story", node.Name)
	assert.Greater(t, node.ID, dir)
	_, err = mem.ReadFile("dir/e.story")
	require.NoError(t, err)

	_, err = s.CreateEntry("e.story", dir, false)
	assert.Error(t, err)

	a, _ := s.Lookup("a.story")
	_, err = s.CreateEntry("x", a, false)
	assert.ErrorIs(t, err, ErrNotDirectory)

	sub, err := s.CreateEntry("sub", 0, true)
	require.NoError(t, err)
	assert.True(t, sub.IsDir)

	_, err = s.Rename(dir, "chapters")
	require.NoError(t, err)
	id, ok := s.Lookup("chapters/e.story")
	require.True(t, ok)
	assert.Equal(t, node.ID, id)
	assert.Equal(t, "chapters/e.story", s.File(id.FileID()).Path)
	_, err = mem.ReadFile("chapters/d.story")
	require.NoError(t, err)

	// ids are never reused
	require.NoError(t, s.Delete(sub.ID))
	again, err := s.CreateEntry("sub", 0, true)
	require.NoError(t, err)
	assert.Greater(t, again.ID, sub.ID)

	d, _ := s.Lookup("chapters/d.story")
	require.NoError(t, s.Delete(dir))
	_, err = s.Blob(d)
	assert.ErrorIs(t, err, ErrUnknownBlob)
	_, err = mem.ReadFile("chapters/d.story")
	assert.ErrorIs(t, err, host.ErrNotFound)
}

func TestCompileProject(t *testing.T) {
	s, _ := openMemory(t, sampleProject())
	doc := s.Compile()

	require.Len(t, doc.Files, 4)
	assert.Equal(t, "a.story", doc.Files[0].Path)
	assert.Len(t, doc.Files[0].Diagnostics, 1)
	assert.Nil(t, doc.Files[3].Diagnostics)

	require.Len(t, doc.Variables, 1)
	assert.Equal(t, "x", doc.Variables[0].Name)
	assert.True(t, doc.Variables[0].Conflict)
}

func TestDigestFollowsContent(t *testing.T) {
	s, _ := openMemory(t, sampleProject())
	before := s.Digest()
	b, _ := s.Lookup("b.story")
	_, err := s.RecompileFile(b, "{x = 1}\n")
	require.NoError(t, err)
	assert.Equal(t, before, s.Digest())
	_, err = s.RecompileFile(b, "{x = 2}\n")
	require.NoError(t, err)
	assert.NotEqual(t, before, s.Digest())
}

func TestOpenFailsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Open(ctx, host.NewMemory(sampleProject()), "", Config{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenRejectsEscapingRoot(t *testing.T) {
	_, err := Open(context.Background(), host.NewMemory(nil), "../up", Config{})
	assert.ErrorIs(t, err, host.ErrOutsideRoot)
}
