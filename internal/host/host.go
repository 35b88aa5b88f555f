// Package host is the filesystem collaborator of a session. Paths are
// slash-separated and relative to the project root.
package host

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the project root.
var ErrOutsideRoot = errors.New("path escapes project root")

// ErrNotFound is returned when an entry does not exist.
var ErrNotFound = errors.New("no such file or directory")

// Entry is one directory listing item.
type Entry struct {
	Name  string
	IsDir bool
}

// Host performs the filesystem side effects of session operations.
type Host interface {
	ReadFile(p string) (string, error)
	Write(p, text string) error
	// Rename renames the entry at p to newName inside the same directory.
	Rename(p, newName string) (newPath string, wasDir bool, err error)
	DeleteFile(p string) error
	DeleteDir(p string) error
	MakeDir(p string) error
	List(p string) ([]Entry, error)
}

// Error wraps a failed host operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("host %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(op, p string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Path: p, Err: err}
}

// Clean normalizes a relative path and rejects escaping ones. The root
// itself is "".
func Clean(p string) (string, error) {
	p = strings.ReplaceAll(p, "\\", "/")
	if path.IsAbs(p) {
		return "", ErrOutsideRoot
	}
	if escapes(p) {
		return "", ErrOutsideRoot
	}
	return path.Clean("/" + p)[1:], nil
}

func escapes(p string) bool {
	depth := 0
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			depth--
			if depth < 0 {
				return true
			}
		default:
			depth++
		}
	}
	return false
}

// Join builds a child path.
func Join(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("invalid entry name %q", name)
	}
	return nil
}
