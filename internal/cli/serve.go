// Package cli implements the mcdu subcommands.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/studiowebux/mcdu/internal/config"
	"github.com/studiowebux/mcdu/internal/display"
	"github.com/studiowebux/mcdu/internal/history"
	"github.com/studiowebux/mcdu/internal/relay"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long Serve waits for connections to close
const ShutdownTimeout = 5 * time.Second

// ServeOptions configures Serve
type ServeOptions struct {
	Config   *config.Config
	Logger   *slog.Logger
	Headless bool // log screens instead of drawing them
}

// Serve runs the relay and its display until ctx is cancelled or the user
// quits the display. A bind failure is returned before anything runs.
func Serve(ctx context.Context, opts ServeOptions) error {
	cfg := opts.Config
	logger := opts.Logger

	queue := cfg.NewQueue()

	var serverOpts []relay.Option
	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err != nil {
			return err
		}
		recorder, err := history.NewRecorder(path)
		if err != nil {
			return fmt.Errorf("failed to open frame history: %w", err)
		}
		defer recorder.Close()
		serverOpts = append(serverOpts, relay.WithRecorder(recorder))
		logger.Info("recording frames", "path", path)
	}

	server := relay.NewServer(cfg.Relay(), cfg.NewDecoder(), queue, logger, serverOpts...)
	if err := server.Start(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		stopCtx, stopCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer stopCancel()
		if err := server.Stop(stopCtx); err != nil {
			return fmt.Errorf("failed to stop relay: %w", err)
		}
		logger.Info("relay stopped", "stats", fmt.Sprintf("%+v", queue.Stats()))
		return nil
	})

	g.Go(func() error {
		// The display quitting ends the whole session
		defer cancel()
		if opts.Headless {
			return display.Headless(gctx, queue, logger)
		}
		return display.Run(gctx, queue, display.Options{
			Tick:       time.Duration(cfg.Display.Tick),
			ShowHeader: cfg.Display.ShowHeader,
			Header:     server.URL(),
			Status:     queueStatus(queue),
		})
	})

	return g.Wait()
}

func queueStatus(q *relay.Queue) func() string {
	return func() string {
		stats := q.Stats()
		return fmt.Sprintf("pending: %d/%d  dropped: %d  rejected: %d",
			stats.Pending, stats.Capacity, stats.Dropped, stats.Rejected)
	}
}
