package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/studiowebux/mcdu/internal/client"
	"github.com/studiowebux/mcdu/internal/display"
	"github.com/studiowebux/mcdu/internal/history"
	"github.com/studiowebux/mcdu/internal/logging"
	"github.com/studiowebux/mcdu/internal/relay"
	"github.com/studiowebux/mcdu/internal/screen"
)

// HistoryOptions configures History
type HistoryOptions struct {
	DBPath  string
	List    history.ListOptions
	Format  string // text, json or yaml
	Export  string // write the frames to this file instead of printing
	Prune   int    // keep only the newest N frames; negative leaves history untouched
	Clear   bool
	Pick    bool // choose a frame interactively and inspect it
	Side    screen.Side
	Lenient bool
	Out     io.Writer
}

// History lists, exports or prunes recorded frames
func History(opts HistoryOptions) error {
	recorder, err := history.NewRecorder(opts.DBPath)
	if err != nil {
		return err
	}
	defer recorder.Close()

	if opts.Clear {
		if err := recorder.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(opts.Out, "History cleared")
		return nil
	}

	if opts.Prune >= 0 {
		removed, err := recorder.Prune(opts.Prune)
		if err != nil {
			return err
		}
		fmt.Fprintf(opts.Out, "Removed %d frame(s)\n", removed)
		return nil
	}

	frames, err := recorder.List(opts.List)
	if err != nil {
		return err
	}

	if opts.Export != "" {
		if err := history.Export(opts.Export, frames); err != nil {
			return err
		}
		fmt.Fprintf(opts.Out, "Exported %d frame(s) to %s\n", len(frames), opts.Export)
		return nil
	}

	if opts.Pick {
		frame, err := pickFrame(frames)
		if err != nil {
			return err
		}
		return inspectPayload([]byte(frame.Payload), InspectOptions{
			Side:    opts.Side,
			Lenient: opts.Lenient,
			Format:  opts.Format,
			Out:     opts.Out,
		})
	}

	if opts.Format != "" && opts.Format != "text" {
		output, err := formatValue(frames, opts.Format)
		if err != nil {
			return err
		}
		_, err = io.WriteString(opts.Out, output)
		return err
	}

	if len(frames) == 0 {
		fmt.Fprintln(opts.Out, "No frames recorded")
		return nil
	}
	for _, f := range frames {
		fmt.Fprintln(opts.Out, frameSummary(f))
	}
	return nil
}

func frameSummary(f history.Frame) string {
	status := "ok"
	if !f.Accepted() {
		status = "error: " + f.Error
	}
	return fmt.Sprintf("%6d  %s  %-21s  %7d B  %s",
		f.ID, f.ReceivedAt.Local().Format("2006-01-02 15:04:05.000"), f.Remote, f.Size, status)
}

// ReplayOptions configures Replay
type ReplayOptions struct {
	DBPath   string
	List     history.ListOptions
	URL      string        // send to a running relay; empty shows frames locally
	Interval time.Duration // pause between frames
	Display  display.Options
	Side     screen.Side
	Lenient  bool
	Logger   *slog.Logger
	Out      io.Writer
}

// Replay sends recorded frames, oldest first, either to a relay at URL or
// through a local decoder into the display
func Replay(ctx context.Context, opts ReplayOptions) error {
	recorder, err := history.NewRecorder(opts.DBPath)
	if err != nil {
		return err
	}
	frames, err := recorder.List(opts.List)
	recorder.Close()
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames to replay")
	}

	if opts.URL != "" {
		payloads := make([]string, len(frames))
		for i, f := range frames {
			payloads[i] = screen.UpdateCommand + ":" + f.Payload
		}
		result, err := client.Send(ctx, opts.URL, payloads, client.Options{Interval: opts.Interval})
		if err != nil {
			return err
		}
		fmt.Fprintf(opts.Out, "Replayed %d frame(s) to %s\n", result.Sent, opts.URL)
		return nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	queue := relay.NewQueue(len(frames), relay.DropOldest)
	decoder := screen.NewDecoder(opts.Side, opts.Lenient)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go feedReplay(ctx, frames, decoder, queue, opts.Interval, logger)

	displayOpts := opts.Display
	if displayOpts.Header == "" {
		displayOpts.Header = fmt.Sprintf("replay of %d frame(s)", len(frames))
	}
	return display.Run(ctx, queue, displayOpts)
}

// feedReplay decodes frames in order and pushes them onto queue, pausing
// interval between frames. It returns how many updates were queued.
func feedReplay(ctx context.Context, frames []history.Frame, decoder *screen.Decoder, queue *relay.Queue, interval time.Duration, logger *slog.Logger) int {
	queued := 0
	for i, f := range frames {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return queued
			case <-time.After(interval):
			}
		}

		update, err := decoder.Decode([]byte(f.Payload))
		if err != nil {
			logger.Warn("replayed frame discarded", "id", f.ID, "error", err)
			continue
		}
		evicted, err := queue.Push(update)
		if err != nil {
			logger.Warn("replayed frame dropped", "id", f.ID, "error", err)
			continue
		}
		if evicted {
			logger.Debug("queue full, oldest update dropped", "id", f.ID)
		}
		queued++
	}
	return queued
}

// ParseFormat normalizes the -o flag
func ParseFormat(format string) (string, error) {
	switch f := strings.ToLower(format); f {
	case "", "text", "json", "yaml":
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use text, json or yaml)", format)
	}
}
