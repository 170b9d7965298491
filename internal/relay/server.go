package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/studiowebux/mcdu/internal/screen"
)

// Default listener settings
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8125
	DefaultPath            = "/"
	DefaultMaxMessageBytes = 1 << 20
)

// Config configures the WebSocket listener
type Config struct {
	Host            string
	Port            int
	Path            string
	ReadTimeout     time.Duration // zero waits forever for the next frame
	MaxMessageBytes int64
}

// Recorder receives every "update" frame the server handles, along with
// the decode error when the update was discarded.
type Recorder interface {
	RecordFrame(remote, payload string, decodeErr error) error
}

// Option configures a Server
type Option func(*Server)

// WithRecorder records every update frame before it is queued
func WithRecorder(r Recorder) Option {
	return func(s *Server) {
		s.recorder = r
	}
}

// Server accepts simulator connections and feeds decoded updates into a
// queue. Each connection is served by its own goroutine.
type Server struct {
	config   Config
	decoder  *screen.Decoder
	queue    *Queue
	logger   *slog.Logger
	recorder Recorder
	upgrader websocket.Upgrader

	listener   net.Listener
	httpServer *http.Server

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

// NewServer creates a relay server. A nil logger discards log output.
func NewServer(config Config, decoder *screen.Decoder, queue *Queue, logger *slog.Logger, opts ...Option) *Server {
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.MaxMessageBytes <= 0 {
		config.MaxMessageBytes = DefaultMaxMessageBytes
	}
	if decoder == nil {
		decoder = screen.NewDecoder(screen.SideLeft, false)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Server{
		config:  config,
		decoder: decoder,
		queue:   queue,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 1024,
			// The simulator's embedded browser sends a variety of origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start binds the listener and begins accepting connections in the
// background. A bind failure is returned to the caller.
func (s *Server) Start() error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprintf("%d", s.config.Port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.config.Path, s.handleWebSocket)

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("relay server stopped", "error", err)
		}
	}()

	s.logger.Info("relay listening", "addr", listener.Addr().String(), "path", s.config.Path)
	return nil
}

// Addr returns the bound address, or "" before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// URL returns the ws:// URL clients should dial
func (s *Server) URL() string {
	return "ws://" + s.Addr() + s.config.Path
}

// Stop closes the listener and every open connection, then waits for the
// connection goroutines to exit or for ctx to expire.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	err := s.httpServer.Shutdown(ctx)

	s.mu.Lock()
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return err
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

// handleWebSocket upgrades the request and reads frames until the peer
// goes away. Errors end this connection only.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	remote := conn.RemoteAddr().String()
	logger := s.logger.With("remote", remote)
	logger.Info("simulator connected")

	conn.SetReadLimit(s.config.MaxMessageBytes)

	var frames int
	for {
		if s.config.ReadTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		}

		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("connection error", "error", err)
			}
			break
		}
		if messageType != websocket.TextMessage {
			logger.Debug("non-text frame ignored", "type", messageType)
			continue
		}

		frames++
		s.handleFrame(logger, remote, string(data))
	}

	logger.Info("simulator disconnected", "frames", frames)
}

// handleFrame dispatches one text frame. Only "update" frames are decoded;
// a bad update is logged and dropped without affecting the connection.
func (s *Server) handleFrame(logger *slog.Logger, remote, frame string) {
	command, payload, ok := SplitFrame(frame)
	if !ok {
		logger.Debug("malformed frame ignored", "bytes", len(frame))
		return
	}
	if command != screen.UpdateCommand {
		logger.Debug("frame ignored", "command", command)
		return
	}

	update, decodeErr := s.decoder.Decode([]byte(payload))

	if s.recorder != nil {
		if err := s.recorder.RecordFrame(remote, payload, decodeErr); err != nil {
			logger.Warn("failed to record frame", "error", err)
		}
	}

	if decodeErr != nil {
		logger.Warn("update discarded", "error", decodeErr)
		return
	}

	evicted, err := s.queue.Push(update)
	switch {
	case err != nil:
		logger.Warn("update dropped", "policy", s.queue.Policy(), "error", err)
	case evicted:
		logger.Debug("queue full, oldest update dropped")
	}
}
