package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/studiowebux/mcdu/internal/client"
	"github.com/studiowebux/mcdu/internal/screen"
)

// SendOptions configures Send
type SendOptions struct {
	URL      string
	Paths    []string
	Interval time.Duration
	Repeat   int // send the whole sequence this many times
	Out      io.Writer
}

// Send reads each message file and sends it to a relay as an update frame,
// standing in for the simulator
func Send(ctx context.Context, opts SendOptions) error {
	var frames []string
	for _, path := range opts.Paths {
		payload, err := screen.LoadFixture(path)
		if err != nil {
			return err
		}
		frames = append(frames, screen.UpdateCommand+":"+string(payload))
	}

	repeat := opts.Repeat
	if repeat < 1 {
		repeat = 1
	}
	sequence := make([]string, 0, len(frames)*repeat)
	for i := 0; i < repeat; i++ {
		sequence = append(sequence, frames...)
	}

	result, err := client.Send(ctx, opts.URL, sequence, client.Options{Interval: opts.Interval})
	if err != nil {
		return err
	}

	fmt.Fprintf(opts.Out, "Sent %d frame(s) to %s in %s\n", result.Sent, opts.URL, result.Duration.Round(time.Millisecond))
	return nil
}
