// Package project reads storytell.toml and turns it into session settings.
package project

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"storytell/internal/lexer"
	"storytell/internal/paths"
	"storytell/internal/session"
)

// Manifest is a loaded storytell.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

// Config mirrors the sections of storytell.toml.
type Config struct {
	Story       StoryConfig       `toml:"story"`
	Syntax      SyntaxConfig      `toml:"syntax"`
	Diverts     DivertConfig      `toml:"diverts"`
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
}

type StoryConfig struct {
	Name      string `toml:"name"`
	Entry     string `toml:"entry,omitempty"`
	Extension string `toml:"extension,omitempty"`
}

type SyntaxConfig struct {
	LineEndings string `toml:"line_endings"` // lf, crlf или auto
	IndentWidth int    `toml:"indent_width"`
}

type DivertConfig struct {
	DivertScope     string `toml:"divert_scope"`
	TempDivertScope string `toml:"temp_divert_scope"`
	LocalFallback   bool   `toml:"local_fallback"`
}

type DiagnosticsConfig struct {
	Max int `toml:"max"`
}

// Default is the configuration `storytell init` writes.
func Default(name string) Config {
	return Config{
		Story:       StoryConfig{Name: name, Entry: "main" + session.DefaultExtension, Extension: session.DefaultExtension},
		Syntax:      SyntaxConfig{LineEndings: "auto", IndentWidth: 4},
		Diverts:     DivertConfig{DivertScope: "project", TempDivertScope: "project"},
		Diagnostics: DiagnosticsConfig{Max: 100},
	}
}

// Load finds and decodes the manifest above startDir. ok is false when
// there is none.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig decodes and validates one manifest file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, parseError(path, err)
	}
	if !meta.IsDefined("story", "name") || strings.TrimSpace(cfg.Story.Name) == "" {
		return Config{}, keyError(path, toml.Key{"story", "name"}, "missing [story].name")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, keyError(path, undecoded[0], "unknown key "+undecoded[0].String())
	}
	if _, err := cfg.Session(); err != nil {
		var se *settingError
		if errors.As(err, &se) {
			return Config{}, keyError(path, toml.Key{se.key}, err.Error())
		}
		return Config{}, &ManifestError{Path: path, Msg: err.Error()}
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// Session converts the manifest into session settings.
func (c Config) Session() (session.Config, error) {
	var out session.Config
	ext := c.Story.Extension
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	out.Extension = ext

	switch strings.ToLower(c.Syntax.LineEndings) {
	case "", "auto":
	case "lf":
		out.Lexer.LineEnding = lexer.LF
	case "crlf":
		out.Lexer.LineEnding = lexer.CRLF
	default:
		return out, &settingError{"syntax", "line_endings", fmt.Errorf("want lf, crlf or auto, got %q", c.Syntax.LineEndings)}
	}
	if c.Syntax.IndentWidth < 0 {
		return out, &settingError{"syntax", "indent_width", errors.New("must not be negative")}
	}
	out.Lexer.IndentWidth = c.Syntax.IndentWidth

	var err error
	if out.Policy.DivertScope, err = paths.ParseScope(c.Diverts.DivertScope); err != nil {
		return out, &settingError{"diverts", "divert_scope", err}
	}
	if out.Policy.TempDivertScope, err = paths.ParseScope(c.Diverts.TempDivertScope); err != nil {
		return out, &settingError{"diverts", "temp_divert_scope", err}
	}
	out.Policy.LocalFallback = c.Diverts.LocalFallback
	out.MaxDiagnostics = c.Diagnostics.Max
	return out, nil
}

// settingError names the manifest key a bad value came from.
type settingError struct {
	section, key string
	err          error
}

func (e *settingError) Error() string {
	return fmt.Sprintf("[%s].%s: %v", e.section, e.key, e.err)
}

func (e *settingError) Unwrap() error { return e.err }
