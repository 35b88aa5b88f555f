package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"storytell/internal/paths"
	"storytell/internal/project"
)

var initCmd = &cobra.Command{
	Use:   "init [path|name]",
	Short: "Initialize a new story project",
	Long: `Initialize a new story project by creating a manifest (storytell.toml)
and a small sample story (main.story). If [path|name] is omitted, initializes
the current directory. A non-existing name creates the directory.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target, err := filepath.Abs(targetArg(args))
	if err != nil {
		return err
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	name := strings.TrimSpace(filepath.Base(target))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "story"
	}

	manifestPath := filepath.Join(target, project.ManifestName)
	if _, err := os.Stat(manifestPath); err == nil {
		return fmt.Errorf("project already initialized: %s exists", manifestPath)
	}
	cfg := project.Default(name)
	manifest, err := project.Encode(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(manifestPath, manifest, 0o600); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	entry := cfg.Story.Entry
	entryPath := filepath.Join(target, entry)
	createdEntry := false
	if _, err := os.Stat(entryPath); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(entryPath, []byte(sampleStory(name)), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", entry, err)
		}
		createdEntry = true
	}

	if quiet(cmd) {
		return nil
	}
	rel := target
	if wd, err := os.Getwd(); err == nil {
		if r, err := filepath.Rel(wd, target); err == nil {
			rel = r
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Initialized story project in %s\n", rel)
	fmt.Fprintf(out, "  - %s\n", project.ManifestName)
	if createdEntry {
		fmt.Fprintf(out, "  - %s\n", entry)
	} else {
		fmt.Fprintf(out, "  - %s (existing)\n", entry)
	}
	return nil
}

// storyTitle turns a directory name like "dark-forest" into "Dark Forest".
func storyTitle(name string) string {
	spaced := strings.NewReplacer("-", " ", "_", " ", ".", " ").Replace(name)
	return cases.Title(language.English).String(strings.Join(strings.Fields(spaced), " "))
}

func sampleStory(name string) string {
	title := storyTitle(name)
	root := paths.Canonicalize(title)
	return fmt.Sprintf(`# %[1]s

You wake up in a quiet room. {visits = 1}

- Open the door -> %[2]s.hallway
- Go back to sleep
    {visits += 1}
    -> %[2]s

## Hallway

The hallway is *dark*. Visit number {visits}.

@{visits > 2} if
    - Turn back -> %[2]s
`, title, root)
}
