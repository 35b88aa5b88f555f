package session

import (
	"crypto/sha256"
	"fmt"

	"storytell/internal/ast"
	"storytell/internal/diag"
	"storytell/internal/jsgen"
	"storytell/internal/lexer"
	"storytell/internal/magic"
	"storytell/internal/parser"
	"storytell/internal/paths"
	sparser "storytell/internal/script/parser"
	"storytell/internal/source"
	"storytell/internal/wire"
)

// parsed is the pure result of parsing one file; nothing in it touches
// session state.
type parsed struct {
	file  *source.File
	doc   *ast.Document
	diags []diag.Diagnostic
	refs  []ast.ScriptRef
	frags []magic.Fragment
}

func parseFile(cfg Config, id BlobID, rel, text string) parsed {
	file := source.NewFile(source.FileID(id), rel, []byte(text), 0)
	bag := diag.NewBag(cfg.MaxDiagnostics)
	rep := diag.BagReporter{Bag: bag}

	lx := cfg.Lexer
	if lx.LineEnding == 0 {
		lx.LineEnding = lexer.LF
		if file.Flags&source.FileCRLF != 0 {
			lx.LineEnding = lexer.CRLF
		}
	}
	limit := uint(max(cfg.MaxDiagnostics, 0)) // #nosec G115
	res := parser.ParseFile(file, parser.Options{Lexer: lx, MaxErrors: limit, Reporter: rep})

	refs := res.Doc.Scripts()
	frags := make([]magic.Fragment, 0, len(refs))
	for _, ref := range refs {
		script := sparser.ParseString(ref.Raw, file.ID, sparser.Options{
			MaxErrors: limit,
			Reporter:  diag.ShiftReporter{Next: rep, Base: ref.Span.Start, File: file.ID},
		})
		frags = append(frags, magic.Fragment{File: file.ID, Base: ref.Span.Start, Script: script})
	}
	bag.Sort()
	return parsed{file: file, doc: res.Doc, diags: bag.Items(), refs: refs, frags: frags}
}

// install swaps the parse result into the blob and replaces the file's
// assignments in the store in one step.
func (s *Session) install(b *Blob, p parsed) {
	b.Text = string(p.file.Content)
	b.file = p.file
	b.doc = p.doc
	b.diags = p.diags
	b.inline = make(map[*ast.Inline][]magic.VarID)
	assigned := s.store.Replace(p.file.ID, p.frags)
	for i, ref := range p.refs {
		if ref.Origin == ast.FromInline {
			b.inline[ref.Inline] = assigned[i]
		}
	}
}

// checker holds the project-wide state semantic checks need.
type checker struct {
	tree      *paths.Tree
	conflicts []magic.Conflict
}

func (s *Session) newChecker() *checker {
	var docs []*ast.Document
	for _, b := range s.files() {
		docs = append(docs, b.doc)
	}
	return &checker{tree: paths.Build(docs), conflicts: s.store.Conflicts()}
}

// diagnostics returns parse and semantic diagnostics of one file, sorted
// and capped.
func (s *Session) diagnostics(b *Blob, c *checker) []diag.Diagnostic {
	bag := diag.NewBag(s.cfg.MaxDiagnostics)
	for _, d := range b.diags {
		bag.Add(d)
	}
	rep := diag.NewDedupReporter(diag.BagReporter{Bag: bag})
	c.tree.Check(b.doc, s.cfg.Policy, rep)
	for _, conflict := range c.conflicts {
		for _, a := range conflict.Assignments {
			if a.Origin != b.file.ID {
				continue
			}
			diag.ReportError(rep, diag.SemaKindConflict, a.Span, conflictMessage(conflict, a)).Emit()
		}
	}
	bag.Sort()
	return bag.Items()
}

func conflictMessage(c magic.Conflict, here magic.Assignment) string {
	var other magic.Kind
	for _, a := range c.Assignments {
		if a.Kind != here.Kind {
			other = a.Kind
			break
		}
	}
	return fmt.Sprintf("%q is assigned %s here but %s elsewhere.", c.Name, kindWord(here.Kind), kindWord(other))
}

func kindWord(k magic.Kind) string {
	if k.IsObject() {
		return "an object"
	}
	switch k.Tag {
	case magic.TagArray:
		return "an array"
	case magic.TagMap:
		return "a map"
	case magic.TagUnknown:
		return "an unknown value"
	}
	return "a " + k.String()
}

// magicVars describes the variables each script inline of b assigns.
func (s *Session) magicVars(b *Blob, into map[*ast.Inline][]wire.MagicVar) map[*ast.Inline][]wire.MagicVar {
	if into == nil {
		into = make(map[*ast.Inline][]wire.MagicVar, len(b.inline))
	}
	for in, ids := range b.inline {
		mv := make([]wire.MagicVar, 0, len(ids))
		for _, id := range ids {
			mv = append(mv, wire.MagicVarOf(s.store, id))
		}
		into[in] = mv
	}
	return into
}

func (s *Session) compileFile(b *Blob, c *checker) wire.FileDocument {
	return wire.CompileFile(b.doc, s.diagnostics(b, c), wire.Options{MagicVars: s.magicVars(b, nil)})
}

// CompileJS emits every file, in id order, as one JavaScript program
// calling the functions in names.
func (s *Session) CompileJS(names jsgen.Names) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.files()
	vars := make(map[*ast.Inline][]wire.MagicVar)
	for _, b := range files {
		s.magicVars(b, vars)
	}
	e := jsgen.New(jsgen.Options{Names: names, Vars: vars})
	for _, b := range files {
		if b.doc != nil {
			e.AddDocument(b.doc)
		}
	}
	return e.String()
}

// RecompileFile reparses one file from an editor buffer. The text is not
// written to the host.
func (s *Session) RecompileFile(id BlobID, text string) (wire.FileDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.file(id)
	if err != nil {
		return wire.FileDocument{}, err
	}
	s.install(b, parseFile(s.cfg, id, s.relPath(id), text))
	return s.compileFile(b, s.newChecker()), nil
}

// Save writes text through the host and recompiles the file.
func (s *Session) Save(id BlobID, text string) (wire.FileDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.file(id)
	if err != nil {
		return wire.FileDocument{}, err
	}
	if err := s.host.Write(s.hostPath(id), text); err != nil {
		return wire.FileDocument{}, err
	}
	s.install(b, parseFile(s.cfg, id, s.relPath(id), text))
	return s.compileFile(b, s.newChecker()), nil
}

// Reload rereads a file from the host, for changes made outside the session.
func (s *Session) Reload(id BlobID) (wire.FileDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.file(id)
	if err != nil {
		return wire.FileDocument{}, err
	}
	text, err := s.host.ReadFile(s.hostPath(id))
	if err != nil {
		return wire.FileDocument{}, err
	}
	s.install(b, parseFile(s.cfg, id, s.relPath(id), text))
	return s.compileFile(b, s.newChecker()), nil
}

// Compile builds the project document: every file in id order plus the
// variable table.
func (s *Session) Compile() wire.ProjectDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.newChecker()
	files := s.files()
	out := wire.ProjectDocument{Files: make([]wire.ProjectFile, 0, len(files))}
	for _, b := range files {
		fd := s.compileFile(b, c)
		out.Files = append(out.Files, wire.ProjectFile{
			Path:        s.relPath(b.ID),
			AST:         fd.AST,
			Diagnostics: fd.Diagnostics,
		})
	}
	out.Variables = wire.Variables(s.store.Snapshot())
	return out
}

// Diagnostics returns the current diagnostics of one file.
func (s *Session) Diagnostics(id BlobID) ([]diag.Diagnostic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.file(id)
	if err != nil {
		return nil, err
	}
	return s.diagnostics(b, s.newChecker()), nil
}

// AllDiagnostics returns the diagnostics of every file, in id order.
func (s *Session) AllDiagnostics() []diag.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.newChecker()
	var out []diag.Diagnostic
	for _, b := range s.files() {
		out = append(out, s.diagnostics(b, c)...)
	}
	return out
}

// Paths returns the divert tree of the current project.
func (s *Session) Paths() *paths.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newChecker().tree
}

// Digest identifies the current content of the project: the path and
// content hash of every file.
func (s *Session) Digest() [32]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := sha256.New()
	for _, b := range s.files() {
		h.Write([]byte(s.relPath(b.ID)))
		h.Write([]byte{0})
		h.Write(b.file.Hash[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
