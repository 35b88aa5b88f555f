package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"storytell/internal/observ"
	"storytell/internal/prof"
	"storytell/internal/trace"
)

var (
	activeTracer trace.Tracer = trace.Nop
	commandSpan  *trace.Span
	timer        *observ.Timer
	profiling    *prof.Session
)

// setupCommand attaches the tracer and the --timings timer before any
// command runs.
func setupCommand(cmd *cobra.Command, _ []string) error {
	flags := cmd.Root().PersistentFlags()

	output, err := flags.GetString("trace")
	if err != nil {
		return fmt.Errorf("failed to get trace flag: %w", err)
	}
	levelStr, err := flags.GetString("trace-level")
	if err != nil {
		return fmt.Errorf("failed to get trace-level flag: %w", err)
	}
	formatStr, err := flags.GetString("trace-format")
	if err != nil {
		return fmt.Errorf("failed to get trace-format flag: %w", err)
	}
	ringSize, err := flags.GetInt("trace-ring-size")
	if err != nil {
		return fmt.Errorf("failed to get trace-ring-size flag: %w", err)
	}
	showTimings, err := flags.GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}
	timer = nil
	if showTimings {
		timer = observ.NewTimer()
	}
	colored, err := useColor(cmd, stdoutFile(cmd))
	if err != nil {
		return err
	}
	color.NoColor = !colored

	if err := startProfiling(cmd); err != nil {
		return err
	}

	level, err := trace.ParseLevel(levelStr)
	if err != nil {
		return fmt.Errorf("invalid trace level: %w", err)
	}
	// --trace без уровня включает фазы
	if level == trace.LevelOff && output != "" {
		level = trace.LevelPhase
	}
	format, err := trace.ParseFormat(formatStr)
	if err != nil {
		return fmt.Errorf("invalid trace format: %w", err)
	}

	tracer, err := trace.New(trace.Config{Level: level, Format: format, Path: output, RingSize: ringSize})
	if err != nil {
		return fmt.Errorf("failed to create tracer: %w", err)
	}
	activeTracer = tracer
	commandSpan = trace.Begin(tracer, trace.ScopeCommand, cmd.CommandPath(), 0)

	ctx := trace.WithTracer(cmd.Context(), tracer)
	ctx = trace.WithSpan(ctx, commandSpan)
	cmd.SetContext(ctx)
	return nil
}

// finishCommand closes the command span and prints timings. It only runs
// when the command succeeded; failures go through dumpTrace.
func finishCommand(cmd *cobra.Command, _ []string) error {
	if timer != nil && !quiet(cmd) {
		fmt.Fprint(cmd.ErrOrStderr(), timer.Summary())
	}
	return closeTracer(cmd.ErrOrStderr())
}

func startProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	var err error
	if opts.CPU, err = flags.GetString("cpuprofile"); err != nil {
		return fmt.Errorf("failed to get cpuprofile flag: %w", err)
	}
	if opts.Mem, err = flags.GetString("memprofile"); err != nil {
		return fmt.Errorf("failed to get memprofile flag: %w", err)
	}
	if opts.Trace, err = flags.GetString("runtime-trace"); err != nil {
		return fmt.Errorf("failed to get runtime-trace flag: %w", err)
	}
	profiling, err = prof.Start(opts)
	return err
}

func closeTracer(errOut io.Writer) error {
	if err := profiling.Stop(); err != nil {
		fmt.Fprintf(errOut, "prof: %v\n", err)
	}
	profiling = nil
	if commandSpan != nil {
		commandSpan.End("")
		commandSpan = nil
	}
	if err := activeTracer.Flush(); err != nil {
		fmt.Fprintf(errOut, "trace: flush error: %v\n", err)
	}
	err := activeTracer.Close()
	activeTracer = trace.Nop
	return err
}

// dumpTrace writes the ring buffer, if any, after a failed command.
func dumpTrace(w io.Writer) {
	if m, ok := activeTracer.(*trace.MultiTracer); ok {
		if ring := m.Ring(); ring != nil {
			fmt.Fprintln(w, "trace: last events")
			if err := ring.Dump(w, trace.FormatText); err != nil {
				fmt.Fprintf(w, "trace: dump error: %v\n", err)
			}
		}
	}
	_ = closeTracer(w)
}
