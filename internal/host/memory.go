package host

import (
	"errors"
	"path"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Host. Directories are implicit parents of files
// plus the ones created with MakeDir.
type Memory struct {
	mu    sync.Mutex
	files map[string]string
	dirs  map[string]bool
}

// NewMemory creates a host holding files (path → content).
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string), dirs: map[string]bool{"": true}}
	for p, text := range files {
		clean, err := Clean(p)
		if err != nil {
			continue
		}
		m.files[clean] = text
		m.addParents(clean)
	}
	return m
}

func (m *Memory) addParents(p string) {
	for dir := parent(p); ; dir = parent(dir) {
		m.dirs[dir] = true
		if dir == "" {
			return
		}
	}
}

func parent(p string) string {
	d := path.Dir("/" + p)[1:]
	return d
}

// Files returns a copy of the stored files.
func (m *Memory) Files() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.files))
	for k, v := range m.files {
		out[k] = v
	}
	return out
}

func (m *Memory) ReadFile(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean, err := Clean(p)
	if err != nil {
		return "", wrap("read", p, err)
	}
	text, ok := m.files[clean]
	if !ok {
		return "", wrap("read", p, ErrNotFound)
	}
	return text, nil
}

func (m *Memory) Write(p, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean, err := Clean(p)
	if err != nil {
		return wrap("write", p, err)
	}
	if !m.dirs[parent(clean)] {
		return wrap("write", p, ErrNotFound)
	}
	m.files[clean] = text
	return nil
}

func (m *Memory) Rename(p, newName string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := validName(newName); err != nil {
		return "", false, wrap("rename", p, err)
	}
	clean, err := Clean(p)
	if err != nil {
		return "", false, wrap("rename", p, err)
	}
	newPath := Join(parent(clean), newName)
	if text, ok := m.files[clean]; ok {
		delete(m.files, clean)
		m.files[newPath] = text
		return newPath, false, nil
	}
	if !m.dirs[clean] || clean == "" {
		return "", false, wrap("rename", p, ErrNotFound)
	}
	prefix := clean + "/"
	for f, text := range m.files {
		if strings.HasPrefix(f, prefix) {
			delete(m.files, f)
			m.files[newPath+"/"+f[len(prefix):]] = text
		}
	}
	for d := range m.dirs {
		if d == clean || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
			m.dirs[newPath+d[len(clean):]] = true
		}
	}
	return newPath, true, nil
}

func (m *Memory) DeleteFile(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean, err := Clean(p)
	if err != nil {
		return wrap("delete", p, err)
	}
	if _, ok := m.files[clean]; !ok {
		return wrap("delete", p, ErrNotFound)
	}
	delete(m.files, clean)
	return nil
}

func (m *Memory) DeleteDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean, err := Clean(p)
	if err != nil {
		return wrap("delete", p, err)
	}
	if clean == "" {
		return wrap("delete", p, errors.New("refusing to delete the project root"))
	}
	if !m.dirs[clean] {
		return wrap("delete", p, ErrNotFound)
	}
	prefix := clean + "/"
	for f := range m.files {
		if strings.HasPrefix(f, prefix) {
			delete(m.files, f)
		}
	}
	for d := range m.dirs {
		if d == clean || strings.HasPrefix(d, prefix) {
			delete(m.dirs, d)
		}
	}
	return nil
}

func (m *Memory) MakeDir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean, err := Clean(p)
	if err != nil {
		return wrap("mkdir", p, err)
	}
	m.dirs[clean] = true
	m.addParents(clean)
	return nil
}

func (m *Memory) List(p string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clean, err := Clean(p)
	if err != nil {
		return nil, wrap("list", p, err)
	}
	if !m.dirs[clean] {
		return nil, wrap("list", p, ErrNotFound)
	}
	var out []Entry
	for f := range m.files {
		if parent(f) == clean {
			out = append(out, Entry{Name: path.Base(f)})
		}
	}
	for d := range m.dirs {
		if d != "" && d != clean && parent(d) == clean {
			out = append(out, Entry{Name: path.Base(d), IsDir: true})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
