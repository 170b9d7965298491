package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/studiowebux/mcdu/internal/logging"
	"github.com/studiowebux/mcdu/internal/relay"
	"github.com/studiowebux/mcdu/internal/screen"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration written as "50ms" in config files
type Duration time.Duration

// MarshalText writes the duration in Go syntax
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText accepts "250ms", "2s" or "0"
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the mcdu configuration file
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Queue   QueueConfig   `yaml:"queue" json:"queue"`
	Decoder DecoderConfig `yaml:"decoder" json:"decoder"`
	Display DisplayConfig `yaml:"display" json:"display"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	History HistoryConfig `yaml:"history" json:"history"`
}

// ServerConfig configures the WebSocket listener
type ServerConfig struct {
	Host            string   `yaml:"host" json:"host"`
	Port            int      `yaml:"port" json:"port"`
	Path            string   `yaml:"path" json:"path"`
	ReadTimeout     Duration `yaml:"readTimeout" json:"readTimeout"`
	MaxMessageBytes int64    `yaml:"maxMessageBytes" json:"maxMessageBytes"`
}

// QueueConfig bounds the relay queue
type QueueConfig struct {
	Capacity int    `yaml:"capacity" json:"capacity"`
	Overflow string `yaml:"overflow" json:"overflow"`
}

// DecoderConfig selects the MCDU side and tag strictness
type DecoderConfig struct {
	Side       string `yaml:"side" json:"side"`
	StrictTags bool   `yaml:"strictTags" json:"strictTags"`
}

// DisplayConfig tunes the terminal display
type DisplayConfig struct {
	Tick       Duration `yaml:"tick" json:"tick"`
	ShowHeader bool     `yaml:"showHeader" json:"showHeader"`
}

// LoggingConfig configures slog output
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"` // empty logs to stderr
}

// Options converts the logging section for logging.New, expanding the
// file path
func (l LoggingConfig) Options() (logging.Options, error) {
	file, err := ExpandPath(l.File)
	if err != nil {
		return logging.Options{}, err
	}
	return logging.Options{Level: l.Level, Format: l.Format, File: file}, nil
}

// HistoryConfig configures the frame recorder
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            relay.DefaultHost,
			Port:            relay.DefaultPort,
			Path:            relay.DefaultPath,
			MaxMessageBytes: relay.DefaultMaxMessageBytes,
		},
		Queue: QueueConfig{
			Capacity: relay.DefaultQueueCapacity,
			Overflow: string(relay.DropOldest),
		},
		Decoder: DecoderConfig{
			Side:       string(screen.SideLeft),
			StrictTags: true,
		},
		Display: DisplayConfig{
			Tick:       Duration(50 * time.Millisecond),
			ShowHeader: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		History: HistoryConfig{
			Path: DatabasePath,
		},
	}
}

// Load reads a configuration file over the defaults. The format follows
// the extension: .yaml/.yml, .json or .jsonc.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	case ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSONC config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, .json or .jsonc)", ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save writes cfg to path in the format implied by its extension
func Save(cfg *Config, path string) error {
	var data []byte
	var err error

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	case ".json", ".jsonc":
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config file format: %s (use .yaml, .yml, .json or .jsonc)", ext)
	}

	if err := os.WriteFile(path, data, FilePermissions); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the relay, decoder or display cannot use
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return fmt.Errorf("server.path must start with '/', got %q", c.Server.Path)
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server.readTimeout must not be negative")
	}
	if c.Server.MaxMessageBytes <= 0 {
		return fmt.Errorf("server.maxMessageBytes must be positive, got %d", c.Server.MaxMessageBytes)
	}
	if c.Queue.Capacity < 1 {
		return fmt.Errorf("queue.capacity must be at least 1, got %d", c.Queue.Capacity)
	}
	if _, err := relay.ParseOverflowPolicy(c.Queue.Overflow); err != nil {
		return fmt.Errorf("queue.overflow: %w", err)
	}
	if _, err := screen.ParseSide(c.Decoder.Side); err != nil {
		return fmt.Errorf("decoder.side: %w", err)
	}
	if c.Display.Tick <= 0 {
		return fmt.Errorf("display.tick must be positive")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "auto":
	default:
		return fmt.Errorf("logging.format must be 'text', 'json' or 'auto', got %q", c.Logging.Format)
	}
	return nil
}

// Addr returns the listen address as host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Relay returns the listener settings for relay.NewServer
func (c *Config) Relay() relay.Config {
	return relay.Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		Path:            c.Server.Path,
		ReadTimeout:     time.Duration(c.Server.ReadTimeout),
		MaxMessageBytes: c.Server.MaxMessageBytes,
	}
}

// NewQueue builds the relay queue described by the config
func (c *Config) NewQueue() *relay.Queue {
	policy, _ := relay.ParseOverflowPolicy(c.Queue.Overflow)
	return relay.NewQueue(c.Queue.Capacity, policy)
}

// NewDecoder builds the screen decoder described by the config
func (c *Config) NewDecoder() *screen.Decoder {
	side, _ := screen.ParseSide(c.Decoder.Side)
	return screen.NewDecoder(side, !c.Decoder.StrictTags)
}

// HistoryPath returns the recorder database path with ~ expanded
func (c *Config) HistoryPath() (string, error) {
	path := c.History.Path
	if path == "" {
		path = DatabasePath
	}
	return ExpandPath(path)
}
