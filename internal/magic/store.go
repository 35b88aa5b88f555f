package magic

import (
	"sync"

	"storytell/internal/script/ast"
	"storytell/internal/source"
)

// VarID indexes the variable arena; 0 is invalid.
type VarID uint32

// Assignment is one place where a variable receives a kind.
type Assignment struct {
	Origin source.FileID
	Kind   Kind
	Span   source.Span
}

// Variable is a global or an object property.
type Variable struct {
	Name        string
	Owner       ObjectID // 0 for globals
	Assignments []Assignment
}

// CommonKind returns the kind every assignment agrees on. ok is false when
// there are no assignments or they disagree.
func (v *Variable) CommonKind() (Kind, bool) {
	if len(v.Assignments) == 0 {
		return Unknown, false
	}
	first := v.Assignments[0].Kind
	for _, a := range v.Assignments[1:] {
		if a.Kind != first {
			return Unknown, false
		}
	}
	return first, true
}

// Conflicted reports whether the assignments disagree.
func (v *Variable) Conflicted() bool {
	_, ok := v.CommonKind()
	return !ok && len(v.Assignments) > 1
}

type object struct {
	home  VarID // переменная, при присваивании которой объект создан
	props map[string]VarID
	order []string
}

// Store holds every variable of a project. It is safe for concurrent use;
// each exported operation is atomic.
type Store struct {
	mu      sync.RWMutex
	vars    []Variable // vars[0] не используется
	globals map[string]VarID
	gorder  []string
	objects []object // objects[0] не используется
	homes   map[VarID]ObjectID
}

func NewStore() *Store {
	return &Store{
		vars:    make([]Variable, 1, 64),
		globals: make(map[string]VarID),
		objects: make([]object, 1, 16),
		homes:   make(map[VarID]ObjectID),
	}
}

// Fragment is one parsed script together with where it lives. Spans in
// Script are relative to Base.
type Fragment struct {
	File   source.FileID
	Base   uint32
	Script *ast.Script
}

// Fold records the assignments of one fragment and returns the variables
// it assigned, in first-assignment order.
func (s *Store) Fold(frag Fragment) []VarID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fold(frag)
}

// Replace purges every assignment made by file and folds frags in its place
// as one atomic step. The result holds the assigned variables per fragment.
func (s *Store) Replace(file source.FileID, frags []Fragment) [][]VarID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeOrigin(file)
	out := make([][]VarID, len(frags))
	for i, frag := range frags {
		out[i] = s.fold(frag)
	}
	return out
}

// RemoveOrigin drops every assignment made by file. Variables and objects
// stay allocated so their ids remain stable.
func (s *Store) RemoveOrigin(file source.FileID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeOrigin(file)
}

func (s *Store) removeOrigin(file source.FileID) {
	s.retain(func(a Assignment) bool { return a.Origin != file })
}

func (s *Store) retain(keep func(Assignment) bool) {
	for i := 1; i < len(s.vars); i++ {
		v := &s.vars[i]
		kept := v.Assignments[:0]
		for _, a := range v.Assignments {
			if keep(a) {
				kept = append(kept, a)
			}
		}
		clear(v.Assignments[len(kept):])
		v.Assignments = kept
	}
}

// Global returns the id of a global variable.
func (s *Store) Global(name string) (VarID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.globals[name]
	return id, ok
}

// Property returns the id of a property of obj.
func (s *Store) Property(obj ObjectID, name string) (VarID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(obj) >= len(s.objects) || obj == 0 {
		return 0, false
	}
	id, ok := s.objects[obj].props[name]
	return id, ok
}

// Variable returns a copy of the variable.
func (s *Store) Variable(id VarID) (Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == 0 || int(id) >= len(s.vars) {
		return Variable{}, false
	}
	v := s.vars[id]
	v.Assignments = append([]Assignment(nil), v.Assignments...)
	return v, true
}

// KindOf returns the common kind of a variable, Unknown when it has none.
func (s *Store) KindOf(id VarID) Kind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kindOf(id)
}

// Lookup resolves a dotted path such as "player.stats.hp" without
// allocating anything.
func (s *Store) Lookup(path ...string) (VarID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(path) == 0 {
		return 0, false
	}
	id, ok := s.globals[path[0]]
	for _, name := range path[1:] {
		if !ok {
			return 0, false
		}
		k := s.kindOf(id)
		if !k.IsObject() {
			return 0, false
		}
		id, ok = s.objects[k.Object].props[name]
	}
	return id, ok
}

// Name returns the dotted name of a variable, following the object each
// property belongs to back to the variable that created it.
func (s *Store) Name(id VarID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name(id, 0)
}

func (s *Store) name(id VarID, depth int) string {
	v := &s.vars[id]
	if v.Owner == 0 || depth > len(s.objects) {
		return v.Name
	}
	home := s.objects[v.Owner].home
	if home == 0 {
		return v.Name
	}
	return s.name(home, depth+1) + "." + v.Name
}

func (s *Store) kindOf(id VarID) Kind {
	if id == 0 || int(id) >= len(s.vars) {
		return Unknown
	}
	k, _ := s.vars[id].CommonKind()
	return k
}

func (s *Store) newVar(name string, owner ObjectID) VarID {
	s.vars = append(s.vars, Variable{Name: name, Owner: owner})
	return VarID(len(s.vars) - 1) // #nosec G115 -- arena never exceeds uint32
}

func (s *Store) global(name string) VarID {
	if id, ok := s.globals[name]; ok {
		return id
	}
	id := s.newVar(name, 0)
	s.globals[name] = id
	s.gorder = append(s.gorder, name)
	return id
}

func (s *Store) property(obj ObjectID, name string) VarID {
	o := &s.objects[obj]
	if id, ok := o.props[name]; ok {
		return id
	}
	id := s.newVar(name, obj)
	o.props[name] = id
	o.order = append(o.order, name)
	return id
}

// homeObject returns the object created for v, allocating it on first
// use. A variable keeps its object across purges so properties assigned
// by other files stay reachable.
func (s *Store) homeObject(v VarID) ObjectID {
	if obj, ok := s.homes[v]; ok {
		return obj
	}
	s.objects = append(s.objects, object{home: v, props: make(map[string]VarID)})
	obj := ObjectID(len(s.objects) - 1) // #nosec G115
	s.homes[v] = obj
	return obj
}

// refers reports whether file already recorded v as a reference to obj.
func (s *Store) refers(v VarID, obj ObjectID, file source.FileID) bool {
	for _, a := range s.vars[v].Assignments {
		if a.Origin == file && a.Kind == ObjectRef(obj) {
			return true
		}
	}
	return false
}

func (s *Store) assign(id VarID, a Assignment) {
	s.vars[id].Assignments = append(s.vars[id].Assignments, a)
}

// Conflict is a variable whose assignments disagree.
type Conflict struct {
	Var         VarID
	Name        string
	Assignments []Assignment
}

// Conflicts lists every variable without a common kind, in allocation
// order.
func (s *Store) Conflicts() []Conflict {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Conflict
	for i := 1; i < len(s.vars); i++ {
		v := &s.vars[i]
		if !v.Conflicted() {
			continue
		}
		out = append(out, Conflict{
			Var:         VarID(i),            // #nosec G115
			Name:        s.name(VarID(i), 0), // #nosec G115
			Assignments: append([]Assignment(nil), v.Assignments...),
		})
	}
	return out
}
