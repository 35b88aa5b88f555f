package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"storytell/internal/diag"
	"storytell/internal/diagfmt"
	"storytell/internal/project"
	"storytell/internal/source"
)

var diagCmd = &cobra.Command{
	Use:   "diag [flags] [file.story|directory]",
	Short: "Check a story project or a single file",
	Long: `Run every check on a project: markup and script syntax, divert paths
and conflicting variable kinds across files. With a file argument only that
file's diagnostics are printed. Exits with status 1 when any error is found.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	diagCmd.Flags().Bool("no-notes", false, "omit diagnostic notes")
	diagCmd.Flags().Bool("fullpath", false, "emit absolute file paths")
	diagCmd.Flags().Int("context", 0, "source lines shown before each diagnostic")
	diagCmd.Flags().Bool("warnings-as-errors", false, "fail on warnings too")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	noNotes, err := cmd.Flags().GetBool("no-notes")
	if err != nil {
		return fmt.Errorf("failed to get no-notes flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	context, err := cmd.Flags().GetInt("context")
	if err != nil {
		return fmt.Errorf("failed to get context flag: %w", err)
	}
	strict, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}

	var (
		items []diag.Diagnostic
		files diagfmt.Files
		base  string
	)
	lp, err := openProject(cmd, targetArg(args))
	var manifestErr *project.ManifestError
	switch {
	case errors.As(err, &manifestErr):
		items, files, err = manifestDiagnostics(manifestErr)
		if err != nil {
			return err
		}
		base = filepath.Dir(manifestErr.Path)
	case err != nil:
		return err
	default:
		err = timer.Measure("check", func() error {
			if lp.Target != 0 {
				items, err = lp.Session.Diagnostics(lp.Target)
				return err
			}
			items = lp.Session.AllDiagnostics()
			return nil
		})
		if err != nil {
			return err
		}
		files, base = lp.Session, lp.Root
	}

	pathMode := diagfmt.PathModeRelative
	if fullPath {
		pathMode = diagfmt.PathModeAbsolute
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		opts := diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         pathMode,
			BaseDir:          base,
			IncludeNotes:     !noNotes,
		}
		if err := diagfmt.JSON(out, items, files, opts); err != nil {
			return err
		}
	default:
		colored, err := useColor(cmd, stdoutFile(cmd))
		if err != nil {
			return err
		}
		diagfmt.Pretty(out, items, files, diagfmt.PrettyOpts{
			Color:     colored,
			Context:   context,
			PathMode:  pathMode,
			BaseDir:   base,
			ShowNotes: !noNotes,
			ShowFixes: !noNotes,
		})
		if !quiet(cmd) {
			fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(items))
		}
	}

	if failed(items, strict) {
		return exitError{code: 1}
	}
	return nil
}

// manifestDiagnostics turns a broken storytell.toml into a diagnostic
// pointing into the manifest itself.
func manifestDiagnostics(me *project.ManifestError) ([]diag.Diagnostic, diagfmt.Files, error) {
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	if err := me.Report(fs, diag.BagReporter{Bag: bag}); err != nil {
		return nil, nil, errors.Join(me, err)
	}
	// путь относительно каталога манифеста
	fs.Get(0).Path = filepath.Base(me.Path)
	return bag.Items(), diagfmt.FileSetFiles{Set: fs}, nil
}

// failed reports whether items should fail the command.
func failed(items []diag.Diagnostic, strict bool) bool {
	for _, d := range items {
		if d.Severity >= diag.SevError || (strict && d.Severity == diag.SevWarning) {
			return true
		}
	}
	return false
}

func summaryLine(items []diag.Diagnostic) string {
	var errs, warns int
	for _, d := range items {
		switch d.Severity {
		case diag.SevError:
			errs++
		case diag.SevWarning:
			warns++
		}
	}
	if errs == 0 && warns == 0 {
		return "no problems found"
	}
	return fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
}
