package session

import (
	"fmt"
	"strings"

	"storytell/internal/host"
	"storytell/internal/source"
)

// CreateEntry creates a file or directory under parent (0 for the project
// root). Story files get the configured extension when name lacks it.
func (s *Session) CreateEntry(name string, parent BlobID, isDir bool) (Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" || strings.ContainsAny(name, "/\\") || strings.HasPrefix(name, ".") {
		return Node{}, fmt.Errorf("create entry: invalid name %q", name)
	}
	if !isDir && !strings.HasSuffix(name, s.cfg.Extension) {
		name += s.cfg.Extension
	}
	dir := s.root
	siblings := s.top
	if parent != 0 {
		p, err := s.blob(parent)
		if err != nil {
			return Node{}, err
		}
		if !p.IsDir {
			return Node{}, fmt.Errorf("%w: %s", ErrNotDirectory, s.relPath(parent))
		}
		dir = s.hostPath(parent)
		siblings = p.Children
	}
	for _, id := range siblings {
		if s.blobs[id].Name == name {
			return Node{}, fmt.Errorf("create entry: %q already exists", name)
		}
	}

	target := host.Join(dir, name)
	if isDir {
		if err := s.host.MakeDir(target); err != nil {
			return Node{}, err
		}
	} else if err := s.host.Write(target, ""); err != nil {
		return Node{}, err
	}

	b := s.alloc(name, parent, isDir)
	if !isDir {
		s.install(b, parseFile(s.cfg, b.ID, s.relPath(b.ID), ""))
	}
	return s.node(b.ID), nil
}

// Rename renames a blob in place. Files keep the story extension.
func (s *Session) Rename(id BlobID, name string) (Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.blob(id)
	if err != nil {
		return Node{}, err
	}
	if !b.IsDir && !strings.HasSuffix(name, s.cfg.Extension) {
		name += s.cfg.Extension
	}
	if _, _, err := s.host.Rename(s.hostPath(id), name); err != nil {
		return Node{}, err
	}

	// пересортировать среди соседей
	if b.Parent == 0 {
		s.top = s.remove(s.top, id)
	} else {
		p := s.blobs[b.Parent]
		p.Children = s.remove(p.Children, id)
	}
	b.Name = name
	if b.Parent == 0 {
		s.top = s.insertSorted(s.top, b)
	} else {
		p := s.blobs[b.Parent]
		p.Children = s.insertSorted(p.Children, b)
	}
	s.repath(id)
	return s.node(id), nil
}

// repath refreshes the source paths below id after a rename.
func (s *Session) repath(id BlobID) {
	b := s.blobs[id]
	if !b.IsDir {
		if b.file != nil {
			b.file = source.NewFile(b.file.ID, s.relPath(id), b.file.Content, b.file.Flags)
		}
		return
	}
	for _, c := range b.Children {
		s.repath(c)
	}
}

func (s *Session) remove(ids []BlobID, id BlobID) []BlobID {
	for i, x := range ids {
		if x == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// Delete removes a blob and, for directories, everything below it. The
// variables assigned by removed files are purged.
func (s *Session) Delete(id BlobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.blob(id)
	if err != nil {
		return err
	}
	if b.IsDir {
		err = s.host.DeleteDir(s.hostPath(id))
	} else {
		err = s.host.DeleteFile(s.hostPath(id))
	}
	if err != nil {
		return err
	}
	if b.Parent == 0 {
		s.top = s.remove(s.top, id)
	} else {
		p := s.blobs[b.Parent]
		p.Children = s.remove(p.Children, id)
	}
	s.drop(id)
	return nil
}

func (s *Session) drop(id BlobID) {
	b := s.blobs[id]
	for _, c := range b.Children {
		s.drop(c)
	}
	if !b.IsDir {
		s.store.RemoveOrigin(source.FileID(id))
	}
	s.blobs[id] = nil
}
