package session

import (
	"fmt"
	"sort"
	"strings"

	"fortio.org/safecast"

	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/magic"
	"storytell/internal/source"
)

// BlobID identifies a file or directory. Ids grow monotonically and are
// never reused within a session; a file's id is also its source.FileID.
type BlobID uint32

// Blob is one entry of the project tree.
type Blob struct {
	ID        BlobID
	Name      string
	Parent    BlobID   // 0 at the project root
	Ancestors []BlobID // root first
	IsDir     bool
	Children  []BlobID // directories only, sorted by name

	Text   string
	file   *source.File
	doc    *ast.Document
	diags  []diag.Diagnostic // parse diagnostics
	inline map[*ast.Inline][]magic.VarID
}

// Node is the serialized form of a blob and its subtree.
type Node struct {
	ID       BlobID `json:"id"`
	Name     string `json:"name"`
	IsDir    bool   `json:"isDir"`
	Children []Node `json:"children,omitempty"`
}

func (s *Session) alloc(name string, parent BlobID, isDir bool) *Blob {
	n, err := safecast.Conv[uint32](len(s.blobs))
	if err != nil {
		panic(fmt.Errorf("blob arena overflow: %w", err))
	}
	b := &Blob{ID: BlobID(n), Name: name, Parent: parent, IsDir: isDir}
	if parent != 0 {
		p := s.blobs[parent]
		b.Ancestors = append(append([]BlobID(nil), p.Ancestors...), parent)
		p.Children = s.insertSorted(p.Children, b)
	} else {
		s.top = s.insertSorted(s.top, b)
	}
	s.blobs = append(s.blobs, b)
	return b
}

func (s *Session) insertSorted(ids []BlobID, b *Blob) []BlobID {
	i := sort.Search(len(ids), func(i int) bool {
		return s.blobs[ids[i]].Name >= b.Name
	})
	ids = append(ids, 0)
	copy(ids[i+1:], ids[i:])
	ids[i] = b.ID
	return ids
}

func (s *Session) blob(id BlobID) (*Blob, error) {
	if id == 0 || int(id) >= len(s.blobs) || s.blobs[id] == nil {
		return nil, fmt.Errorf("%w %d", ErrUnknownBlob, id)
	}
	return s.blobs[id], nil
}

func (s *Session) file(id BlobID) (*Blob, error) {
	b, err := s.blob(id)
	if err != nil {
		return nil, err
	}
	if b.IsDir {
		return nil, fmt.Errorf("%w: %s", ErrNotFile, s.relPath(id))
	}
	return b, nil
}

// relPath is the slash path of a blob relative to the project root.
func (s *Session) relPath(id BlobID) string {
	b := s.blobs[id]
	parts := make([]string, 0, len(b.Ancestors)+1)
	for _, a := range b.Ancestors {
		parts = append(parts, s.blobs[a].Name)
	}
	return strings.Join(append(parts, b.Name), "/")
}

func (s *Session) hostPath(id BlobID) string {
	if s.root == "" {
		return s.relPath(id)
	}
	return s.root + "/" + s.relPath(id)
}

func (s *Session) node(id BlobID) Node {
	b := s.blobs[id]
	n := Node{ID: id, Name: b.Name, IsDir: b.IsDir}
	for _, c := range b.Children {
		n.Children = append(n.Children, s.node(c))
	}
	return n
}

// FileTree returns the project tree, entries sorted by name.
func (s *Session) FileTree() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Node, 0, len(s.top))
	for _, id := range s.top {
		out = append(out, s.node(id))
	}
	return out
}

// Blob returns a copy of the blob metadata.
func (s *Session) Blob(id BlobID) (Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.blob(id)
	if err != nil {
		return Blob{}, err
	}
	cp := *b
	cp.Ancestors = append([]BlobID(nil), b.Ancestors...)
	cp.Children = append([]BlobID(nil), b.Children...)
	return cp, nil
}

// FileInfo names one story file.
type FileInfo struct {
	ID   BlobID
	Path string
}

// Files lists the story files in id order.
func (s *Session) Files() []FileInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []FileInfo
	for _, b := range s.files() {
		out = append(out, FileInfo{ID: b.ID, Path: s.relPath(b.ID)})
	}
	return out
}

func (s *Session) files() []*Blob {
	var out []*Blob
	for _, b := range s.blobs[1:] {
		if b != nil && !b.IsDir {
			out = append(out, b)
		}
	}
	return out
}

// Lookup finds a blob by its path relative to the project root.
func (s *Session) Lookup(rel string) (BlobID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	level := s.top
	var found BlobID
	for _, name := range strings.Split(strings.Trim(rel, "/"), "/") {
		found = 0
		for _, id := range level {
			if s.blobs[id].Name == name {
				found = id
				break
			}
		}
		if found == 0 {
			return 0, false
		}
		level = s.blobs[found].Children
	}
	return found, found != 0
}

// File returns the source of a story file, nil for unknown ids.
func (s *Session) File(id source.FileID) *source.File {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.file(BlobID(id))
	if err != nil {
		return nil
	}
	return b.file
}

// Document returns the parsed markup of a story file.
func (s *Session) Document(id BlobID) (*ast.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.file(id)
	if err != nil {
		return nil, err
	}
	return b.doc, nil
}

// Store exposes the variable store.
func (s *Session) Store() *magic.Store {
	return s.store
}

// FileID converts a file blob id to the id its spans carry.
func (id BlobID) FileID() source.FileID {
	return source.FileID(id)
}
