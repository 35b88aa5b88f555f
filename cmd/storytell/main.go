package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"storytell/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "storytell",
	Short: "Interactive fiction markup compiler",
	Long: `storytell parses story markup projects, checks diverts and script
variables across files, and compiles them into a JSON or msgpack document.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupCommand,
	PersistentPostRunE: finishCommand,
}

// exitError carries a status code without printing anything extra.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(diagCmd)
	rootCmd.AddCommand(fixCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(varsCmd)
	rootCmd.AddCommand(pathsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 0, "maximum number of diagnostics per file (0 uses the manifest)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-format", "text", "trace format (text|ndjson)")
	flags.Int("trace-ring-size", 0, "keep the last N trace events and dump them on failure")
	flags.String("cpuprofile", "", "write a CPU profile to this file")
	flags.String("memprofile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}

func main() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	var exit exitError
	if !errors.As(err, &exit) {
		fmt.Fprintln(os.Stderr, "error:", err)
		exit.code = 1
	}
	dumpTrace(os.Stderr)
	os.Exit(exit.code)
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves --color for output going to f.
func useColor(cmd *cobra.Command, f *os.File) (bool, error) {
	mode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return isTerminal(f), nil
	}
	return false, fmt.Errorf("invalid --color %q (must be auto, on or off)", mode)
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

// stdoutFile is the file behind the command's stdout, os.Stdout when the
// writer is not a file.
func stdoutFile(cmd *cobra.Command) *os.File {
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		return f
	}
	return os.Stdout
}
