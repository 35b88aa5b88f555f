package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"storytell/internal/ast"
	"storytell/internal/magic"
	sparser "storytell/internal/script/parser"
	"storytell/internal/session"
	"storytell/internal/source"
	"storytell/internal/wire"
)

var varsCmd = &cobra.Command{
	Use:   "vars [flags] [directory]",
	Short: "List the magic variables of a project",
	Long: `List every variable the inline scripts of a project assign, with the
kind all assignments agree on. -v also shows each assignment site and the
script it appears in.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVars,
}

func init() {
	varsCmd.Flags().BoolP("verbose", "v", false, "show assignment sites")
	varsCmd.Flags().Bool("json", false, "print the variable table as JSON")
}

func runVars(cmd *cobra.Command, args []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return fmt.Errorf("failed to get verbose flag: %w", err)
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("failed to get json flag: %w", err)
	}

	lp, err := openProject(cmd, targetArg(args))
	if err != nil {
		return err
	}
	store := lp.Session.Store()
	snapshot := store.Snapshot()

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(wire.Variables(snapshot))
	}

	colored, err := useColor(cmd, stdoutFile(cmd))
	if err != nil {
		return err
	}
	warn := color.New(color.FgRed, color.Bold)
	if !colored {
		warn.DisableColor()
	}

	for _, e := range magic.Flatten(snapshot) {
		kind := e.Kind.String()
		if e.Kind.IsObject() {
			kind = "object"
		}
		if e.Conflict {
			kind = warn.Sprint("conflict")
		}
		fmt.Fprintf(out, "%-24s %-8s %d\n", e.Name, kind, e.Assignments)
		if verbose {
			printSites(out, lp.Session, e.Name)
		}
	}
	return nil
}

// printSites lists where name is assigned and the script around each site.
func printSites(w io.Writer, s *session.Session, name string) {
	store := s.Store()
	id, ok := store.Lookup(strings.Split(name, ".")...)
	if !ok {
		return
	}
	v, ok := store.Variable(id)
	if !ok {
		return
	}
	for _, a := range v.Assignments {
		f := s.File(a.Origin)
		if f == nil {
			continue
		}
		pos := f.Position(a.Span.Start)
		fmt.Fprintf(w, "    %s:%d:%d  %-8s %s\n", f.Path, pos.Line, pos.Col, a.Kind, scriptAround(s, a))
	}
}

// scriptAround rebuilds the script fragment holding the assignment.
func scriptAround(s *session.Session, a magic.Assignment) string {
	doc, err := s.Document(session.BlobID(a.Origin))
	if err != nil {
		return ""
	}
	for _, ref := range doc.Scripts() {
		if !contains(ref.Span, a.Span) {
			continue
		}
		script := sparser.ParseString(ref.Raw, a.Origin, sparser.Options{})
		text := script.String()
		if ref.Origin == ast.FromInline {
			return "{" + text + "}"
		}
		return text
	}
	return ""
}

func contains(outer, inner source.Span) bool {
	return inner.Start >= outer.Start && inner.End <= outer.End
}
