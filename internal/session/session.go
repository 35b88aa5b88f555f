// Package session owns one open story project: the blob arena, the
// variable store and the compile operations an editor drives.
package session

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"storytell/internal/host"
	"storytell/internal/lexer"
	"storytell/internal/magic"
	"storytell/internal/paths"
	"storytell/internal/trace"
)

var (
	// ErrUnknownBlob is returned for ids that are not (or no longer) in the arena.
	ErrUnknownBlob = errors.New("unknown blob")
	// ErrNotDirectory is returned when a directory was expected.
	ErrNotDirectory = errors.New("blob is not a directory")
	// ErrNotFile is returned when a story file was expected.
	ErrNotFile = errors.New("blob is not a file")
)

// DefaultExtension marks story files.
const DefaultExtension = ".story"

// Config tunes parsing and checking of a project.
type Config struct {
	Extension string // story file suffix, DefaultExtension when empty
	// Lexer.LineEnding 0 picks LF or CRLF per file from its content.
	Lexer          lexer.Options
	Policy         paths.Policy
	MaxDiagnostics int // per file, 0 means unlimited
	Jobs           int // parallel parses during Open, 0 means GOMAXPROCS
}

func (c Config) normalized() Config {
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
	return c
}

// Session is one open project. All exported methods are safe for
// concurrent use; each one runs to completion before the next starts.
type Session struct {
	mu    sync.Mutex
	host  host.Host
	root  string
	cfg   Config
	blobs []*Blob // blobs[0] не используется; удалённые остаются nil
	top   []BlobID
	store *magic.Store
}

// Open scans the project under root, parses every story file and folds
// the magic variables of the whole project.
func Open(ctx context.Context, h host.Host, root string, cfg Config) (*Session, error) {
	clean, err := host.Clean(root)
	if err != nil {
		return nil, fmt.Errorf("open project %q: %w", root, err)
	}
	root = clean
	s := &Session{
		host:  h,
		root:  root,
		cfg:   cfg.normalized(),
		blobs: make([]*Blob, 1, 64),
		store: magic.NewStore(),
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePhase, "scan", trace.CurrentSpan(ctx).SpanID)
	if err := s.scan(0, root); err != nil {
		span.End("failed")
		return nil, err
	}
	span.End("")

	var files []*Blob
	for _, b := range s.blobs[1:] {
		if !b.IsDir {
			files = append(files, b)
		}
	}

	span = trace.Begin(tracer, trace.ScopePhase, "parse", trace.CurrentSpan(ctx).SpanID)
	results := make([]parsed, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Jobs)
	for i, b := range files {
		rel := s.relPath(b.ID)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fspan := trace.Begin(tracer, trace.ScopeFile, "parse:"+rel, span.ID())
			text, err := h.ReadFile(host.Join(root, rel))
			if err != nil {
				fspan.End("unreadable")
				return fmt.Errorf("read %s: %w", rel, err)
			}
			results[i] = parseFile(s.cfg, b.ID, rel, text)
			fspan.End("")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.End("failed")
		return nil, err
	}
	span.End(fmt.Sprintf("%d files", len(files)))

	// свёртка последовательная, в порядке id
	span = trace.Begin(tracer, trace.ScopePhase, "fold", trace.CurrentSpan(ctx).SpanID)
	for i, b := range files {
		s.install(b, results[i])
	}
	span.End("")
	return s, nil
}

func (s *Session) scan(parent BlobID, dir string) error {
	entries, err := s.host.List(dir)
	if err != nil {
		return fmt.Errorf("list %q: %w", dir, err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") {
			continue
		}
		if !e.IsDir && !strings.HasSuffix(e.Name, s.cfg.Extension) {
			continue
		}
		b := s.alloc(e.Name, parent, e.IsDir)
		if e.IsDir {
			if err := s.scan(b.ID, host.Join(dir, e.Name)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Config returns the normalized configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Root returns the project directory inside the host.
func (s *Session) Root() string {
	return s.root
}
