package source

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"

	"fortio.org/safecast"
)

// NewFile builds a File with its line index and content hash.
func NewFile(id FileID, path string, content []byte, flags FileFlags) *File {
	if _, err := safecast.Conv[uint32](len(content)); err != nil {
		panic(fmt.Errorf("file %s is too large: %w", path, err))
	}
	return &File{
		ID:      id,
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags | detectFlags(content),
	}
}

// Position converts a byte offset into a 1-based line and column.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}

// Resolve converts a span into start and end positions.
func (f *File) Resolve(span Span) (start, end LineCol) {
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// Len returns the content length as an offset.
func (f *File) Len() uint32 {
	n, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}
	return n
}

// Text returns the bytes covered by span, clamped to the content.
func (f *File) Text(span Span) string {
	end := min(span.End, f.Len())
	if span.Start >= end {
		return ""
	}
	return string(f.Content[span.Start:end])
}

// GetLine returns line lineNum (1-based) without its line ending.
// A missing line yields an empty string.
func (f *File) GetLine(lineNum uint32) string {
	if lineNum == 0 {
		return ""
	}
	var start uint32
	switch {
	case lineNum == 1:
		start = 0
	case int(lineNum-2) < len(f.LineIdx):
		start = f.LineIdx[lineNum-2] + 1
	default:
		return ""
	}
	end := f.Len()
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	if start > end {
		return ""
	}
	return strings.TrimSuffix(string(f.Content[start:end]), "\r")
}

// FileSet holds sources that live outside a session, such as the
// manifest a command reports on. Ids count from 0.
type FileSet struct {
	files []*File
}

func NewFileSet() *FileSet {
	return &FileSet{}
}

// Add stores content under path and returns a new FileID. Adding the same
// path again creates a new version.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(n)
	f := NewFile(id, path, content, flags)
	fs.files = append(fs.files, f)
	return id
}

// AddVirtual adds an in-memory file with the FileVirtual flag.
func (fs *FileSet) AddVirtual(name string, content []byte) FileID {
	return fs.Add(name, content, FileVirtual)
}

// Load reads a file from disk. Content is kept byte for byte.
func (fs *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return fs.Add(path, content, 0), nil
}

// Get returns the file for id, or nil when the id is unknown.
func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return fs.files[id]
}

// LineSpan covers line lineNum (1-based) without its line ending. A
// missing line yields an empty span at the end of the file.
func (f *File) LineSpan(lineNum uint32) Span {
	end := f.Len()
	if lineNum == 0 || int(lineNum-1) > len(f.LineIdx) {
		return Span{File: f.ID, Start: end, End: end}
	}
	var start uint32
	if lineNum > 1 {
		start = f.LineIdx[lineNum-2] + 1
	}
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	if end > start && f.Content[end-1] == '\r' {
		end--
	}
	return Span{File: f.ID, Start: start, End: end}
}
