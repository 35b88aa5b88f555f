package paths

import (
	"storytell/internal/ast"
	"storytell/internal/source"
)

// NodeID indexes the node arena; 0 is the invalid node.
type NodeID uint32

// Node is one header in the tree.
type Node struct {
	Name     string // canonical
	Title    string
	File     source.FileID
	Span     source.Span
	Parent   NodeID
	children map[string]NodeID
	order    []string
}

// Tree holds the canonical header names of a project.
type Tree struct {
	nodes     []Node
	roots     map[string]NodeID
	rootOrder []string
	fileRoots map[source.FileID]map[string]NodeID
	byHeader  map[*ast.Header]NodeID
}

func NewTree() *Tree {
	return &Tree{
		nodes:     make([]Node, 1, 64),
		roots:     make(map[string]NodeID),
		fileRoots: make(map[source.FileID]map[string]NodeID),
		byHeader:  make(map[*ast.Header]NodeID),
	}
}

// Build creates a tree from the documents in order; later files win on
// duplicate top-level names.
func Build(docs []*ast.Document) *Tree {
	t := NewTree()
	for _, doc := range docs {
		t.AddDocument(doc)
	}
	return t
}

// AddDocument inserts every header of doc.
func (t *Tree) AddDocument(doc *ast.Document) {
	if t.fileRoots[doc.File] == nil {
		t.fileRoots[doc.File] = make(map[string]NodeID)
	}
	for _, h := range doc.Headers() {
		id := t.insert(0, doc.File, h)
		t.fileRoots[doc.File][t.nodes[id].Name] = id
		if _, dup := t.roots[t.nodes[id].Name]; !dup {
			t.rootOrder = append(t.rootOrder, t.nodes[id].Name)
		}
		t.roots[t.nodes[id].Name] = id
	}
}

func (t *Tree) insert(parent NodeID, file source.FileID, h *ast.Header) NodeID {
	t.nodes = append(t.nodes, Node{
		Name:   Canonicalize(h.Title),
		Title:  h.Title,
		File:   file,
		Span:   h.TitleSpan,
		Parent: parent,
	})
	id := NodeID(len(t.nodes) - 1) // #nosec G115 -- arena never exceeds uint32
	t.byHeader[h] = id
	if parent != 0 {
		p := &t.nodes[parent]
		if p.children == nil {
			p.children = make(map[string]NodeID)
		}
		name := t.nodes[id].Name
		if _, dup := p.children[name]; !dup {
			p.order = append(p.order, name)
		}
		// последний одноимённый заголовок перекрывает предыдущие
		p.children[name] = id
	}
	for _, child := range h.Children {
		if sub, ok := child.(*ast.Header); ok {
			t.insert(id, file, sub)
		}
	}
	return id
}

// Node returns the node with the given id, nil when unknown.
func (t *Tree) Node(id NodeID) *Node {
	if id == 0 || int(id) >= len(t.nodes) {
		return nil
	}
	return &t.nodes[id]
}

// NodeOf returns the node built from h.
func (t *Tree) NodeOf(h *ast.Header) (NodeID, bool) {
	id, ok := t.byHeader[h]
	return id, ok
}

// Child looks up a direct child by canonical name.
func (t *Tree) Child(parent NodeID, name string) (NodeID, bool) {
	n := t.Node(parent)
	if n == nil {
		return 0, false
	}
	id, ok := n.children[name]
	return id, ok
}

// Children lists the canonical names of a node's children in insertion
// order.
func (t *Tree) Children(parent NodeID) []string {
	if n := t.Node(parent); n != nil {
		return n.order
	}
	return nil
}

// Root looks up a project root by canonical name.
func (t *Tree) Root(name string) (NodeID, bool) {
	id, ok := t.roots[name]
	return id, ok
}

// Roots lists the canonical names of all project roots.
func (t *Tree) Roots() []string {
	return t.rootOrder
}

// Path returns the dotted canonical path of a node.
func (t *Tree) Path(id NodeID) string {
	n := t.Node(id)
	if n == nil {
		return ""
	}
	if n.Parent == 0 {
		return n.Name
	}
	return t.Path(n.Parent) + "." + n.Name
}

func (t *Tree) rootsFor(scope Scope, file source.FileID) map[string]NodeID {
	if scope == ScopeFile {
		return t.fileRoots[file]
	}
	return t.roots
}
