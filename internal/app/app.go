package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/five82/moor/internal/config"
	"github.com/five82/moor/internal/docker"
	"github.com/five82/moor/internal/logstream"
	"github.com/five82/moor/internal/state"
	"github.com/five82/moor/internal/ui"
)

// Options configure the moor application.
type Options struct {
	Config  config.Config
	Logger  *slog.Logger
	Version string
}

// Run boots the dashboard and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	cfg := opts.Config

	client, err := docker.NewClient(ctx, docker.Options{
		SocketPath:     cfg.Docker.SocketPath,
		ContextCommand: cfg.Docker.ContextCommand,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("init docker client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	engine := NewEngine(ctx, store, client, followSource(client), EngineOptions{
		Tail:        cfg.Logs.Tail,
		BufferLimit: cfg.Logs.BufferLimit,
		Logger:      logger,
	})
	defer engine.Close()

	logger.Info("moor started", "socket", client.SocketPath(), "version", opts.Version)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(gctx, Intervals{
			Containers: cfg.Poll.Containers,
			Images:     cfg.Poll.Images,
			Volumes:    cfg.Poll.Volumes,
		})
	})
	g.Go(func() error {
		// Quitting the UI stops everything else.
		defer cancel()
		return ui.Run(gctx, engine, ui.Options{SocketPath: client.SocketPath(), Version: opts.Version})
	})
	err = g.Wait()
	logger.Info("moor stopped", "error", err)
	return err
}

func followSource(client *docker.Client) logstream.Source {
	return logstream.SourceFunc(func(ctx context.Context, containerID string, tail int) (logstream.Stream, error) {
		stream, err := client.Follow(ctx, containerID, tail)
		if err != nil {
			return nil, err
		}
		return stream, nil
	})
}
