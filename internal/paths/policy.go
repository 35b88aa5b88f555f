package paths

import "fmt"

// Scope selects which roots a divert may start from.
type Scope uint8

const (
	// ScopeProject searches the top-level headers of every file.
	ScopeProject Scope = iota
	// ScopeFile searches only the top-level headers of the divert's file.
	ScopeFile
)

func (s Scope) String() string {
	if s == ScopeFile {
		return "file"
	}
	return "project"
}

// ParseScope accepts "project" and "file"; empty means project.
func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "project":
		return ScopeProject, nil
	case "file":
		return ScopeFile, nil
	}
	return ScopeProject, fmt.Errorf("unknown divert scope %q (want \"project\" or \"file\")", s)
}

// Policy controls divert resolution.
type Policy struct {
	DivertScope     Scope
	TempDivertScope Scope
	// LocalFallback retries a failed lookup among the children of the
	// header that encloses the divert.
	LocalFallback bool
}

func (p Policy) scopeFor(temporary bool) Scope {
	if temporary {
		return p.TempDivertScope
	}
	return p.DivertScope
}
