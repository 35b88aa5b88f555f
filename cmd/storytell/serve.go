package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"storytell/internal/host"
	"storytell/internal/rpc"
	"storytell/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve sessions to an editor over JSON-RPC on stdio",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv := rpc.NewServer(os.Stdin, os.Stdout, rpc.Options{
		Open: func(ctx context.Context, root string) (*session.Session, error) {
			return openServed(ctx, cmd, root)
		},
		Log: cmd.ErrOrStderr(),
	})
	err := srv.Run(cmd.Context())
	switch {
	case errors.Is(err, rpc.ErrExit):
		return nil
	case errors.Is(err, rpc.ErrExitWithoutShutdown):
		return exitError{code: 1}
	}
	return err
}

// openServed opens the project at root (absolute, or relative to the
// server's working directory) with its manifest settings.
func openServed(ctx context.Context, cmd *cobra.Command, root string) (*session.Session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	dir, _, cfg, err := resolveProject(abs)
	if err != nil {
		return nil, err
	}
	sc, err := sessionConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}
	h, err := host.NewOS(dir)
	if err != nil {
		return nil, err
	}
	return session.Open(ctx, h, "", sc)
}
