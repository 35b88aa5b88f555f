package project

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"

	"storytell/internal/diag"
	"storytell/internal/source"
)

// ManifestError is a problem in storytell.toml together with where it was
// found.
type ManifestError struct {
	Path string
	Line int    // 1-based, 0 when unknown
	Key  string // last component of the offending key, if any
	Msg  string
	Err  error

	detail string // короткое сообщение декодера для диагностики
}

func (e *ManifestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Msg, e.Err)
	}
	return e.Path + ": " + e.Msg
}

func (e *ManifestError) Unwrap() error { return e.Err }

func parseError(path string, err error) *ManifestError {
	me := &ManifestError{Path: path, Msg: "failed to parse TOML", Err: err}
	var pe toml.ParseError
	if errors.As(err, &pe) {
		me.Line = pe.Position.Line
		me.detail = pe.Message
	}
	return me
}

func keyError(path string, key toml.Key, msg string) *ManifestError {
	me := &ManifestError{Path: path, Msg: msg}
	if len(key) > 0 {
		me.Key = key[len(key)-1]
	}
	return me
}

// Report loads the manifest into fs and reports e as a PRJ5001 diagnostic
// on the line it concerns.
func (e *ManifestError) Report(fs *source.FileSet, rep diag.Reporter) error {
	id, err := fs.Load(e.Path)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	f := fs.Get(id)
	msg := e.Msg
	switch {
	case e.detail != "":
		msg += ": " + e.detail
	case e.Err != nil:
		msg += ": " + e.Err.Error()
	}
	diag.ReportError(rep, diag.PrjManifestInvalid, e.span(f), msg).Emit()
	return nil
}

func (e *ManifestError) span(f *source.File) source.Span {
	if e.Line > 0 {
		return f.LineSpan(uint32(e.Line)) // #nosec G115 -- line numbers come from the decoder
	}
	if e.Key != "" {
		if sp, ok := keySpan(f, e.Key); ok {
			return sp
		}
	}
	return source.Span{File: f.ID}
}

// keySpan finds the line that assigns key and covers the key on it.
func keySpan(f *source.File, key string) (source.Span, bool) {
	off := 0
	for _, line := range bytes.SplitAfter(f.Content, []byte("\n")) {
		trimmed := bytes.TrimLeft(line, " \t")
		rest, ok := bytes.CutPrefix(trimmed, []byte(key))
		if ok && bytes.HasPrefix(bytes.TrimLeft(rest, " \t"), []byte("=")) {
			start := off + len(line) - len(trimmed)
			// #nosec G115 -- NewFile checked the size
			return source.Span{File: f.ID, Start: uint32(start), End: uint32(start + len(key))}, true
		}
		off += len(line)
	}
	return source.Span{}, false
}
