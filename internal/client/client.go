// Package client sends frames to a relay the way the simulator does.
// It backs the send and replay commands.
package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
)

// Options tunes a Send call
type Options struct {
	Interval         time.Duration     // pause between frames
	HandshakeTimeout time.Duration     // defaults to 10s
	Headers          map[string]string // extra handshake headers
	OnSent           func(index int, frame string)
}

// Result summarizes a Send call
type Result struct {
	Sent             int
	Duration         time.Duration
	DisconnectReason string
}

// Send dials rawURL, writes each frame as a text message in order and
// closes the connection. A cancelled ctx stops between frames.
func Send(ctx context.Context, rawURL string, frames []string, opts Options) (*Result, error) {
	startTime := time.Now()
	result := &Result{}

	u, err := url.Parse(rawURL)
	if err != nil {
		return result, fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return result, fmt.Errorf("invalid URL scheme %q (use 'ws' or 'wss')", u.Scheme)
	}

	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: opts.HandshakeTimeout,
	}

	headers := http.Header{}
	for key, value := range opts.Headers {
		headers.Set(key, value)
	}

	conn, resp, err := dialer.DialContext(ctx, rawURL, headers)
	if err != nil {
		if resp != nil {
			return result, fmt.Errorf("connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return result, fmt.Errorf("connection failed: %w", err)
	}
	defer conn.Close()

	for i, frame := range frames {
		if i > 0 && opts.Interval > 0 {
			timer := time.NewTimer(opts.Interval)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
		}

		if ctx.Err() != nil {
			result.DisconnectReason = "Cancelled"
			result.Duration = time.Since(startTime)
			closeGracefully(conn)
			return result, ctx.Err()
		}

		if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			result.Duration = time.Since(startTime)
			return result, fmt.Errorf("failed to send frame %d: %w", i, err)
		}
		result.Sent++

		if opts.OnSent != nil {
			opts.OnSent(i, frame)
		}
	}

	closeGracefully(conn)

	result.Duration = time.Since(startTime)
	result.DisconnectReason = "Completed successfully"
	return result, nil
}

func closeGracefully(conn *websocket.Conn) {
	// Ignore close errors as the peer may already be gone
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
}
