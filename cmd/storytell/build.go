package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storytell/internal/cache"
	"storytell/internal/diag"
	"storytell/internal/jsgen"
	"storytell/internal/project"
	"storytell/internal/version"
	"storytell/internal/wire"
)

// formatJS selects the JavaScript backend instead of a wire encoding.
const formatJS = "js"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [directory]",
	Short: "Compile a whole story project into one document",
	Long: `Compile every story file of the project and write the project
document: per-file block trees and diagnostics plus the project-wide
variable table. Unchanged projects are served from the build cache.

With --format js the output is instead a JavaScript array of header trees
for the story player.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringP("output", "o", "", "write the document to this file instead of stdout")
	buildCmd.Flags().String("format", "json", "output format (json|json-indent|msgpack|js)")
	buildCmd.Flags().Bool("no-cache", false, "ignore and do not update the build cache")
	buildCmd.Flags().String("cache-dir", "", "build cache directory (default: user cache)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	outPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	var format wire.Format
	if formatStr != formatJS {
		format, err = wire.ParseFormat(formatStr)
		if err != nil {
			return err
		}
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return fmt.Errorf("failed to get no-cache flag: %w", err)
	}
	cacheDir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return fmt.Errorf("failed to get cache-dir flag: %w", err)
	}

	lp, err := openProject(cmd, targetArg(args))
	if err != nil {
		return err
	}

	var disk *cache.Disk
	if !noCache {
		disk, err = openCache(cacheDir)
		if err != nil && !quiet(cmd) {
			fmt.Fprintf(cmd.ErrOrStderr(), "cache disabled: %v\n", err)
		}
	}

	key, err := buildKey(lp, formatStr)
	if err != nil {
		return err
	}
	payload, hit := lookupBuild(cmd, disk, key)
	if !hit {
		payload, err = compileProject(lp, format, formatStr)
		if err != nil {
			return err
		}
		if disk != nil {
			if err := disk.Put(key, payload); err != nil && !quiet(cmd) {
				fmt.Fprintf(cmd.ErrOrStderr(), "cache: %v\n", err)
			}
		}
	}

	if err := writeOutput(cmd, outPath, payload.Output); err != nil {
		return err
	}
	if !quiet(cmd) {
		state := "compiled"
		if hit {
			state = "cached"
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s %d file(s), %d error(s)\n", state, len(payload.Files), payload.Errors)
	}
	if payload.Errors > 0 {
		return exitError{code: 1}
	}
	return nil
}

func openCache(dir string) (*cache.Disk, error) {
	if dir != "" {
		return cache.Open(dir)
	}
	return cache.OpenUser("storytell")
}

// buildKey covers the project content, the effective settings, the output
// format and the compiler version.
func buildKey(lp *loadedProject, format string) (project.Digest, error) {
	settings, err := project.Encode(lp.Config)
	if err != nil {
		return project.Digest{}, err
	}
	sc := lp.Session.Config()
	knobs := fmt.Sprintf("max=%d", sc.MaxDiagnostics)
	return project.Combine(project.Digest(lp.Session.Digest()), settings, []byte(knobs), []byte(format), []byte(version.Version)), nil
}

func lookupBuild(cmd *cobra.Command, disk *cache.Disk, key project.Digest) (*cache.Payload, bool) {
	if disk == nil {
		return nil, false
	}
	var p *cache.Payload
	var hit bool
	_ = timer.Measure("cache", func() error {
		var err error
		p, hit, err = disk.Get(key)
		if err != nil && !quiet(cmd) {
			fmt.Fprintf(cmd.ErrOrStderr(), "cache: %v\n", err)
		}
		return err
	})
	return p, hit
}

func compileProject(lp *loadedProject, format wire.Format, formatName string) (*cache.Payload, error) {
	var doc wire.ProjectDocument
	_ = timer.Measure("compile", func() error {
		doc = lp.Session.Compile()
		return nil
	})

	p := &cache.Payload{Format: formatName}
	for _, f := range doc.Files {
		p.Files = append(p.Files, f.Path)
	}
	for _, d := range lp.Session.AllDiagnostics() {
		if d.Severity >= diag.SevError {
			p.Errors++
		}
	}
	err := timer.Measure("encode", func() error {
		if formatName == formatJS {
			p.Output = []byte(lp.Session.CompileJS(jsgen.DefaultNames()))
			return nil
		}
		var buf bytes.Buffer
		if err := wire.Encode(&buf, doc, format); err != nil {
			return err
		}
		p.Output = buf.Bytes()
		return nil
	})
	return p, err
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
