package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"storytell/internal/diag"
	"storytell/internal/fix"
	"storytell/internal/session"
)

var fixCmd = &cobra.Command{
	Use:   "fix [flags] [file.story|directory]",
	Short: "Apply suggested fixes, such as corrected divert paths",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFix,
}

func init() {
	fixCmd.Flags().Bool("all", false, "apply every non-overlapping fix instead of the first one")
	fixCmd.Flags().Bool("dry-run", false, "show what would change without writing files")
}

func runFix(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return fmt.Errorf("failed to get all flag: %w", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	lp, err := openProject(cmd, targetArg(args))
	if err != nil {
		return err
	}
	var items []diag.Diagnostic
	if lp.Target != 0 {
		if items, err = lp.Session.Diagnostics(lp.Target); err != nil {
			return err
		}
	} else {
		items = lp.Session.AllDiagnostics()
	}

	mode := fix.ModeOnce
	if all {
		mode = fix.ModeAll
	}
	res, err := fix.Plan(lp.Session, items, mode)
	out := cmd.OutOrStdout()
	if errors.Is(err, fix.ErrNoFixes) {
		fmt.Fprintln(out, "no fixes to apply")
		return nil
	}
	if err != nil {
		return err
	}

	for _, a := range res.Applied {
		fmt.Fprintf(out, "%s: %s (%s)\n", a.Path, a.Title, a.Code.ID())
	}
	if !quiet(cmd) {
		for _, s := range res.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %s\n", s.Title, s.Reason)
		}
	}
	if dryRun {
		return nil
	}
	for _, c := range res.Changes {
		if _, err := lp.Session.Save(session.BlobID(c.File), c.Text); err != nil {
			return fmt.Errorf("save %s: %w", c.Path, err)
		}
	}
	return nil
}
