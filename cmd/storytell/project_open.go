package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"storytell/internal/host"
	"storytell/internal/project"
	"storytell/internal/session"
)

// loadedProject is an opened session plus where it came from.
type loadedProject struct {
	Root     string // absolute project directory
	Manifest *project.Manifest
	Config   project.Config
	Session  *session.Session
	// Target is the file named on the command line, 0 for the whole project.
	Target session.BlobID
}

// resolveProject finds the project for target: the directory holding the
// nearest storytell.toml, or target itself (its directory for a file) with
// default settings.
func resolveProject(target string) (root string, m *project.Manifest, cfg project.Config, err error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", nil, cfg, err
	}
	m, ok, err := project.Load(abs)
	if err != nil {
		return "", nil, cfg, err
	}
	if ok {
		return m.Root, m, m.Config, nil
	}
	st, err := os.Stat(abs)
	if err != nil {
		return "", nil, cfg, err
	}
	root = abs
	if !st.IsDir() {
		root = filepath.Dir(abs)
	}
	return root, nil, project.Default(filepath.Base(root)), nil
}

// sessionConfig applies the CLI overrides to the manifest settings.
func sessionConfig(cmd *cobra.Command, cfg project.Config) (session.Config, error) {
	sc, err := cfg.Session()
	if err != nil {
		return sc, err
	}
	maxDiag, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return sc, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiag > 0 {
		sc.MaxDiagnostics = maxDiag
	}
	return sc, nil
}

// openProject opens the project around target. A target naming a story
// file is recorded in Target.
func openProject(cmd *cobra.Command, target string) (*loadedProject, error) {
	root, m, cfg, err := resolveProject(target)
	if err != nil {
		return nil, err
	}
	sc, err := sessionConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}
	h, err := host.NewOS(root)
	if err != nil {
		return nil, err
	}

	var s *session.Session
	err = timer.Measure("open", func() error {
		var openErr error
		s, openErr = session.Open(cmd.Context(), h, "", sc)
		return openErr
	})
	if err != nil {
		return nil, err
	}

	lp := &loadedProject{Root: root, Manifest: m, Config: cfg, Session: s}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}
	if st, statErr := os.Stat(abs); statErr == nil && !st.IsDir() {
		rel, relErr := filepath.Rel(root, abs)
		if relErr != nil {
			return nil, relErr
		}
		rel = filepath.ToSlash(rel)
		id, ok := s.Lookup(rel)
		if !ok {
			return nil, fmt.Errorf("%s is not a story file of %s (extension %s)", rel, root, s.Config().Extension)
		}
		lp.Target = id
	}
	return lp, nil
}

// targetArg is the first argument or the working directory.
func targetArg(args []string) string {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "."
	}
	return args[0]
}
