package magic

import "sort"

// Entry is one variable in a snapshot.
type Entry struct {
	Name        string
	Kind        Kind
	Conflict    bool
	Assignments int
	Props       []Entry
}

// Snapshot returns every variable that has at least one assignment, sorted
// by name. Properties of objects are nested under the variable whose
// common kind references them.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.globals))
	for name := range s.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return s.entries(names, s.globals, map[ObjectID]bool{})
}

func (s *Store) entries(names []string, ids map[string]VarID, path map[ObjectID]bool) []Entry {
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		v := &s.vars[ids[name]]
		if len(v.Assignments) == 0 {
			continue
		}
		k, ok := v.CommonKind()
		e := Entry{Name: name, Kind: k, Conflict: !ok, Assignments: len(v.Assignments)}
		if ok && k.IsObject() && !path[k.Object] {
			path[k.Object] = true
			obj := &s.objects[k.Object]
			props := append([]string(nil), obj.order...)
			sort.Strings(props)
			e.Props = s.entries(props, obj.props, path)
			delete(path, k.Object)
		}
		out = append(out, e)
	}
	return out
}

// Flatten lists a snapshot depth-first with dotted names.
func Flatten(entries []Entry) []Entry {
	var out []Entry
	var walk func(prefix string, es []Entry)
	walk = func(prefix string, es []Entry) {
		for _, e := range es {
			e.Name = prefix + e.Name
			props := e.Props
			e.Props = nil
			out = append(out, e)
			walk(e.Name+".", props)
		}
	}
	walk("", entries)
	return out
}
