package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storytell/internal/diag"
	"storytell/internal/source"
	"storytell/internal/wire"
)

// execute runs the root command in-process. Flags keep their values
// between runs, so every test passes the ones it relies on.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	err := rootCmd.Execute()
	if err != nil {
		_ = closeTracer(&errOut)
	}
	return out.String(), errOut.String(), err
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	}
}

func TestStoryTitle(t *testing.T) {
	assert.Equal(t, "Dark Forest", storyTitle("dark-forest"))
	assert.Equal(t, "My Big Story", storyTitle("my_big.story"))
	assert.Equal(t, "Already Fine", storyTitle("Already  Fine"))
}

func TestInitDiagBuild(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dark-forest")
	out, _, err := execute(t, "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "storytell.toml")
	assert.Contains(t, out, "main.story")

	story, err := os.ReadFile(filepath.Join(dir, "main.story"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(story), "# Dark Forest\n"))
	assert.Contains(t, string(story), "-> dark_forest.hallway")

	_, _, err = execute(t, "init", dir)
	require.ErrorContains(t, err, "already initialized")

	out, _, err = execute(t, "diag", "--format", "json", dir)
	require.NoError(t, err)
	var report struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Zero(t, report.Count)

	cacheDir := t.TempDir()
	target := filepath.Join(t.TempDir(), "out.json")
	_, errOut, err := execute(t, "build", "--format", "json", "--cache-dir", cacheDir, "-o", target, dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "compiled 1 file(s)")

	_, errOut, err = execute(t, "build", "--format", "json", "--cache-dir", cacheDir, "-o", target, dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "cached 1 file(s)")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	var doc wire.ProjectDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "main.story", doc.Files[0].Path)
	require.Len(t, doc.Variables, 1)
	assert.Equal(t, "visits", doc.Variables[0].Name)
}

func TestDiagReportsBrokenDiverts(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.story": "# A\n## B\n-> a.bx\n",
		"b.story": "{x = 1}\n",
		"c.story": "{x = \"s\"}\n",
	})

	out, errOut, err := execute(t, "diag", "--format", "pretty", dir)
	var exit exitError
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 1, exit.code)
	assert.Contains(t, out, "a.story:3:6: ERROR SEM3002")
	assert.Contains(t, out, "note: did you mean 'a.b'?")
	assert.Contains(t, out, "SEM3003")
	assert.Contains(t, errOut, "error(s)")

	out, _, err = execute(t, "diag", "--format", "pretty", filepath.Join(dir, "b.story"))
	require.ErrorAs(t, err, &exit)
	assert.NotContains(t, out, "a.story")
	assert.Contains(t, out, "b.story:1:2")
}

func TestDiagPointsIntoBrokenManifest(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"storytell.toml": "[story]\nname = \"x\"\ncolour = \"red\"\n",
		"a.story":        "# A\n",
	})

	out, _, err := execute(t, "diag", "--format", "pretty", "--context", "0", dir)
	var exit exitError
	require.ErrorAs(t, err, &exit)
	assert.Contains(t, out, "storytell.toml:3:1: ERROR PRJ5001: unknown key story.colour")
	assert.Contains(t, out, "colour = \"red\"")

	_, _, err = execute(t, "paths", "--format", "list", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key story.colour")
}

func TestParseAndPaths(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"storytell.toml":         "[story]\nname = \"demo\"\n",
		"intro.story":            "# Intro\n## Gate Keeper\nHello {hp = 3}\n",
		"chapters/one.story":     "# One\n-> intro.gate_keeper\n",
		"chapters/notes.txt":     "not a story",
		"chapters/.hidden.story": "# Hidden\n",
	})

	out, _, err := execute(t, "parse", "--format", "json", filepath.Join(dir, "intro.story"))
	require.NoError(t, err)
	var doc wire.FileDocument
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Nil(t, doc.Diagnostics)
	assert.NotEmpty(t, doc.AST)

	_, _, err = execute(t, "parse", "--format", "json", filepath.Join(dir, "chapters", "notes.txt"))
	require.ErrorContains(t, err, "not a story file")

	out, _, err = execute(t, "paths", "--format", "list", filepath.Join(dir, "chapters"))
	require.NoError(t, err)
	// chapters/ sorts before intro.story
	assert.Equal(t, "one\nintro\nintro.gate_keeper\n", out)

	out, _, err = execute(t, "paths", "--format", "tree", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "  gate_keeper  \"Gate Keeper\"  intro.story:2\n")
}

func TestBuildJavaScript(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"storytell.toml": "[story]\nname = \"demo\"\n",
		"intro.story":    "# Intro\nHello {hp = 3}\n-> intro\n",
	})

	out, _, err := execute(t, "build", "--format", "js", "--cache-dir", t.TempDir(), "-o", "-", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[\n  Path({title:\"Intro\""), out)
	assert.Contains(t, out, "Paragraph(`Hello ${Js(\"hp = 3\",[{name:\"hp\",type:1}])}`,[])")
	assert.Contains(t, out, "divert([\"intro\"])")

	_, _, err = execute(t, "build", "--format", "yaml", "-o", "-", dir)
	require.Error(t, err)
}

func TestVarsVerbose(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.story": "# Stats\n{player.hp   =  10}\n",
		"b.story": "{flag = true}\n",
	})

	out, _, err := execute(t, "vars", "-v", "--json=false", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "flag")
	assert.Contains(t, out, "player.hp")
	assert.Contains(t, out, "a.story:2:")
	assert.Contains(t, out, "{player.hp = 10}")
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json")
	require.NoError(t, err)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "storytell", payload.Tool)
}

func TestFailedHonorsStrictMode(t *testing.T) {
	warn := diag.New(diag.SevWarning, diag.SynUnclosedDelimiter, source.Span{}, "w")
	assert.False(t, failed([]diag.Diagnostic{warn}, false))
	assert.True(t, failed([]diag.Diagnostic{warn}, true))
	assert.Equal(t, "0 error(s), 1 warning(s)", summaryLine([]diag.Diagnostic{warn}))
	assert.Equal(t, "no problems found", summaryLine(nil))
}

func TestFixRewritesDiverts(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.story": "# Forest\n## Clearing\n-> forest.clearng\n",
	})

	out, _, err := execute(t, "fix", "--all", "--dry-run", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "a.story: replace with 'clearing' (SEM3002)")
	data, err := os.ReadFile(filepath.Join(dir, "a.story"))
	require.NoError(t, err)
	assert.Equal(t, "# Forest\n## Clearing\n-> forest.clearng\n", string(data))

	_, _, err = execute(t, "fix", "--all", "--dry-run=false", dir)
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(dir, "a.story"))
	require.NoError(t, err)
	assert.Equal(t, "# Forest\n## Clearing\n-> forest.clearing\n", string(data))

	out, _, err = execute(t, "fix", "--all", "--dry-run=false", dir)
	require.NoError(t, err)
	assert.Equal(t, "no fixes to apply\n", out)
}
