package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"storytell/internal/wire"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] <file.story>",
	Short: "Parse one story file and print its document",
	Long: `Parse one story file in the context of its project and print the
compiled file document: the block tree, its diagnostics and the magic
variables of its inline scripts.`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().String("format", "json-indent", "output format (json|json-indent|msgpack)")
}

func runParse(cmd *cobra.Command, args []string) error {
	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := wire.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	lp, err := openProject(cmd, args[0])
	if err != nil {
		return err
	}
	if lp.Target == 0 {
		return fmt.Errorf("%s is not a file", args[0])
	}

	var doc wire.FileDocument
	err = timer.Measure("compile", func() error {
		doc, err = lp.Session.Reload(lp.Target)
		return err
	})
	if err != nil {
		return err
	}
	return timer.Measure("encode", func() error {
		return wire.Encode(cmd.OutOrStdout(), doc, format)
	})
}
