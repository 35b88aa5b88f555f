package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"storytell/internal/paths"
	"storytell/internal/session"
)

var pathsCmd = &cobra.Command{
	Use:   "paths [flags] [directory]",
	Short: "List the divert paths a project defines",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPaths,
}

func init() {
	pathsCmd.Flags().String("format", "tree", "output format (tree|list|json)")
}

type pathEntry struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	File  string `json:"file"`
	Line  uint32 `json:"line"`
}

func runPaths(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "tree", "list", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	lp, err := openProject(cmd, targetArg(args))
	if err != nil {
		return err
	}
	tree := lp.Session.Paths()
	entries := collectPaths(tree, lp.Session)

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "list":
		for _, e := range entries {
			fmt.Fprintln(out, e.Path)
		}
	default:
		printPathTree(out, entries)
	}
	return nil
}

// collectPaths walks the tree depth-first in definition order.
func collectPaths(tree *paths.Tree, s *session.Session) []pathEntry {
	var out []pathEntry
	var walk func(id paths.NodeID)
	walk = func(id paths.NodeID) {
		n := tree.Node(id)
		e := pathEntry{Path: tree.Path(id), Title: n.Title}
		if f := s.File(n.File); f != nil {
			e.File = f.Path
			e.Line = f.Position(n.Span.Start).Line
		}
		out = append(out, e)
		for _, name := range tree.Children(id) {
			if child, ok := tree.Child(id, name); ok {
				walk(child)
			}
		}
	}
	for _, name := range tree.Roots() {
		if id, ok := tree.Root(name); ok {
			walk(id)
		}
	}
	return out
}

func printPathTree(w io.Writer, entries []pathEntry) {
	for _, e := range entries {
		depth := strings.Count(e.Path, ".")
		name := e.Path[strings.LastIndexByte(e.Path, '.')+1:]
		fmt.Fprintf(w, "%s%s  %q  %s:%d\n", strings.Repeat("  ", depth), name, e.Title, e.File, e.Line)
	}
}
