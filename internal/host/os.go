package host

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
)

// OS is a Host over a directory on disk.
type OS struct {
	Root string
}

// NewOS returns a host rooted at root.
func NewOS(root string) (*OS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, wrap("open", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, wrap("open", root, err)
	}
	if !info.IsDir() {
		return nil, wrap("open", root, errors.New("not a directory"))
	}
	return &OS{Root: abs}, nil
}

func (h *OS) abs(op, p string) (string, error) {
	clean, err := Clean(p)
	if err != nil {
		return "", wrap(op, p, err)
	}
	return filepath.Join(h.Root, filepath.FromSlash(clean)), nil
}

func (h *OS) ReadFile(p string) (string, error) {
	full, err := h.abs("read", p)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", wrap("read", p, notFound(err))
	}
	return string(data), nil
}

func (h *OS) Write(p, text string) error {
	full, err := h.abs("write", p)
	if err != nil {
		return err
	}
	return wrap("write", p, os.WriteFile(full, []byte(text), 0o644))
}

func (h *OS) Rename(p, newName string) (string, bool, error) {
	if err := validName(newName); err != nil {
		return "", false, wrap("rename", p, err)
	}
	full, err := h.abs("rename", p)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(full)
	if err != nil {
		return "", false, wrap("rename", p, notFound(err))
	}
	clean, _ := Clean(p)
	newPath := Join(path.Dir("/" + clean)[1:], newName)
	target := filepath.Join(filepath.Dir(full), newName)
	if err := os.Rename(full, target); err != nil {
		return "", false, wrap("rename", p, err)
	}
	return newPath, info.IsDir(), nil
}

func (h *OS) DeleteFile(p string) error {
	full, err := h.abs("delete", p)
	if err != nil {
		return err
	}
	return wrap("delete", p, notFound(os.Remove(full)))
}

func (h *OS) DeleteDir(p string) error {
	full, err := h.abs("delete", p)
	if err != nil {
		return err
	}
	if full == h.Root {
		return wrap("delete", p, errors.New("refusing to delete the project root"))
	}
	return wrap("delete", p, os.RemoveAll(full))
}

func (h *OS) MakeDir(p string) error {
	full, err := h.abs("mkdir", p)
	if err != nil {
		return err
	}
	return wrap("mkdir", p, os.MkdirAll(full, 0o755))
}

func (h *OS) List(p string) ([]Entry, error) {
	full, err := h.abs("list", p)
	if err != nil {
		return nil, err
	}
	items, err := os.ReadDir(full)
	if err != nil {
		return nil, wrap("list", p, notFound(err))
	}
	out := make([]Entry, 0, len(items))
	for _, it := range items {
		out = append(out, Entry{Name: it.Name(), IsDir: it.IsDir()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func notFound(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrNotFound, err)
	}
	return err
}
