package trace

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Tracer receives events. Implementations are safe for concurrent use.
type Tracer interface {
	Emit(ev *Event)
	Flush() error
	Close() error
	Level() Level
	Enabled() bool
}

// Config describes the tracer a command wants.
type Config struct {
	Level  Level
	Format Format
	// Output wins over Path; Path "" or "-" means stderr.
	Output io.Writer
	Path   string
	// RingSize > 0 also keeps the last events in memory for a dump on
	// failure.
	RingSize int
}

// New builds a tracer for cfg. A LevelOff config gives Nop.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	format := cfg.Format
	if strings.HasSuffix(cfg.Path, ".ndjson") {
		format = FormatNDJSON
	}
	w, err := open(cfg)
	if err != nil {
		return nil, err
	}
	stream := NewStreamTracer(w, cfg.Level, format)
	if cfg.RingSize <= 0 {
		return stream, nil
	}
	return NewMultiTracer(cfg.Level, stream, NewRingTracer(cfg.RingSize, cfg.Level)), nil
}

func open(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.Path == "" || cfg.Path == "-" {
		return nopCloser{os.Stderr}, nil
	}
	f, err := os.Create(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open trace output: %w", err)
	}
	return f, nil
}

// stderr не закрываем
type nopCloser struct{ io.Writer }
