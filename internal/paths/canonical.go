// Package paths builds the tree of header names that diverts point into
// and resolves divert targets against it.
package paths

import "strings"

// Canonicalize turns a header title into a path segment: ASCII letters are
// lowercased, spaces become '_', and anything outside [a-z0-9_] is dropped.
func Canonicalize(title string) string {
	var sb strings.Builder
	sb.Grow(len(title))
	for i := 0; i < len(title); i++ {
		b := title[i]
		switch {
		case b >= 'A' && b <= 'Z':
			sb.WriteByte(b + ('a' - 'A'))
		case b >= 'a' && b <= 'z', b >= '0' && b <= '9', b == '_':
			sb.WriteByte(b)
		case b == ' ':
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// Split canonicalizes every segment of a dotted path.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	for i, p := range parts {
		parts[i] = Canonicalize(p)
	}
	return parts
}
