package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"storytell/internal/diagfmt"
	"storytell/internal/host"
	"storytell/internal/session"
	"storytell/internal/trace"
)

var watchCmd = &cobra.Command{
	Use:   "watch [flags] [directory]",
	Short: "Recheck a project whenever its story files change",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().Duration("debounce", 150*time.Millisecond, "wait this long for more changes before rechecking")
}

func runWatch(cmd *cobra.Command, args []string) error {
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	colored, err := useColor(cmd, stdoutFile(cmd))
	if err != nil {
		return err
	}

	lp, err := openProject(cmd, targetArg(args))
	if err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer fw.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w := &projectWatcher{
		fw:       fw,
		lp:       lp,
		out:      cmd.OutOrStdout(),
		debounce: debounce,
		opts:     diagfmt.PrettyOpts{Color: colored, PathMode: diagfmt.PathModeRelative, ShowNotes: true},
		reopen: func(ctx context.Context) (*session.Session, error) {
			h, err := host.NewOS(lp.Root)
			if err != nil {
				return nil, err
			}
			return session.Open(ctx, h, "", lp.Session.Config())
		},
	}
	if err := w.addTree(lp.Root); err != nil {
		return err
	}
	w.report()
	fmt.Fprintf(cmd.ErrOrStderr(), "watching %s\n", lp.Root)
	return w.run(ctx)
}

// projectWatcher keeps a session in step with the files on disk.
type projectWatcher struct {
	fw       *fsnotify.Watcher
	lp       *loadedProject
	out      io.Writer
	debounce time.Duration
	opts     diagfmt.PrettyOpts
	reopen   func(ctx context.Context) (*session.Session, error)
}

// addTree watches dir and every directory below it except hidden ones.
func (w *projectWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

func (w *projectWatcher) run(ctx context.Context) error {
	var (
		pending  = make(map[string]fsnotify.Op)
		deadline <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						fmt.Fprintln(w.out, err)
					}
				}
			}
			pending[ev.Name] |= ev.Op
			deadline = time.After(w.debounce)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(w.out, "watch: %v\n", err)
		case <-deadline:
			deadline = nil
			if err := w.apply(ctx, pending); err != nil {
				return err
			}
			pending = make(map[string]fsnotify.Op)
			w.report()
		}
	}
}

// apply reloads the files that were written and reopens the project
// when files appeared or disappeared.
func (w *projectWatcher) apply(ctx context.Context, changes map[string]fsnotify.Op) error {
	span := trace.Begin(trace.FromContext(ctx), trace.ScopePhase, "watch:apply", trace.CurrentSpan(ctx).SpanID)
	defer span.End(fmt.Sprintf("%d change(s)", len(changes)))

	ext := w.lp.Session.Config().Extension
	structural := false
	for name, op := range changes {
		if op.Has(fsnotify.Create) || op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			structural = true
			break
		}
		if !strings.HasSuffix(name, ext) {
			continue
		}
		rel, err := filepath.Rel(w.lp.Root, name)
		if err != nil {
			continue
		}
		id, ok := w.lp.Session.Lookup(filepath.ToSlash(rel))
		if !ok {
			structural = true
			break
		}
		if _, err := w.lp.Session.Reload(id); err != nil && !errors.Is(err, host.ErrNotFound) {
			return err
		}
	}
	if !structural {
		return nil
	}
	s, err := w.reopen(ctx)
	if err != nil {
		return err
	}
	w.lp.Session = s
	return nil
}

func (w *projectWatcher) report() {
	items := w.lp.Session.AllDiagnostics()
	fmt.Fprintf(w.out, "── %s ──\n", time.Now().Format("15:04:05"))
	diagfmt.Pretty(w.out, items, w.lp.Session, w.opts)
	fmt.Fprintln(w.out, summaryLine(items))
}
