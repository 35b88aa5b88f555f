// Package version carries build metadata, overridable with -ldflags.
package version

import (
	"strings"

	"github.com/fatih/color"
)

var (
	// Version is the semantic version of storytell.
	Version = "0.1.0-dev"
	// GitCommit is the optional commit hash.
	GitCommit = ""
	// BuildDate is the optional build date in ISO-8601.
	BuildDate = ""
)

var partColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders Version with each numeric part in its own color. The
// pre-release suffix stays plain.
func Colored() string {
	core, suffix, found := strings.Cut(Version, "-")
	parts := strings.Split(core, ".")
	for i, p := range parts {
		if i < len(partColors) {
			parts[i] = partColors[i].Sprint(p)
		}
	}
	out := strings.Join(parts, ".")
	if found {
		out += "-" + suffix
	}
	return out
}

// Info is the one-line description printed by `storytell version`.
func Info(colored bool) string {
	v := Version
	if colored {
		v = Colored()
	}
	out := "storytell " + v
	if GitCommit != "" {
		out += " (" + GitCommit
		if BuildDate != "" {
			out += ", " + BuildDate
		}
		out += ")"
	} else if BuildDate != "" {
		out += " (" + BuildDate + ")"
	}
	return out
}
