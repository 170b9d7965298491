package display

import (
	"context"
	"log/slog"
)

// NotifySource is a Source that can signal when updates arrive
type NotifySource interface {
	Source
	Notify() <-chan struct{}
}

// Headless consumes updates without a terminal, logging each applied
// screen. It returns when ctx is done.
func Headless(ctx context.Context, source NotifySource, logger *slog.Logger) error {
	applied := 0
	for {
		select {
		case <-ctx.Done():
			logger.Info("display stopped", "updates", applied)
			return nil
		case <-source.Notify():
		}

		for _, update := range source.Drain() {
			applied++
			logger.Info("screen updated",
				"title", update.Title.String(),
				"scratchpad", update.Scratchpad.String(),
				"lines", len(update.Lines),
			)
			if logger.Enabled(ctx, slog.LevelDebug) {
				grid := Layout(update)
				for i, line := range grid.Lines() {
					logger.Debug("screen row", "row", i, "text", line)
				}
			}
		}
	}
}
