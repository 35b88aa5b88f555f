package diagfmt

import (
	"path/filepath"

	"storytell/internal/source"
)

// Files looks up sources by id. *source.FileSet and *session.Session
// both provide it.
type Files interface {
	File(id source.FileID) *source.File
}

// FileSetFiles adapts a FileSet.
type FileSetFiles struct{ Set *source.FileSet }

func (f FileSetFiles) File(id source.FileID) *source.File { return f.Set.Get(id) }

// PathMode selects how file paths are printed.
type PathMode uint8

const (
	// PathModeRelative prints the path as stored (relative to the project).
	PathModeRelative PathMode = iota
	// PathModeAbsolute joins the path with BaseDir.
	PathModeAbsolute
	PathModeBasename
)

// PrettyOpts configures human-readable output.
type PrettyOpts struct {
	Color     bool
	Context   int // lines shown before the primary line
	PathMode  PathMode
	BaseDir   string
	ShowNotes bool
	ShowFixes bool
}

// JSONOpts configures JSON output.
type JSONOpts struct {
	IncludePositions bool
	PathMode         PathMode
	BaseDir          string
	Max              int // обрезка вывода, не Bag
	IncludeNotes     bool
}

func displayPath(f *source.File, mode PathMode, base string) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if base != "" && !filepath.IsAbs(f.Path) {
			return filepath.ToSlash(filepath.Join(base, f.Path))
		}
	case PathModeBasename:
		return filepath.Base(f.Path)
	}
	return f.Path
}
