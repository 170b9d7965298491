package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/studiowebux/mcdu/internal/relay"
	"github.com/studiowebux/mcdu/internal/screen"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), FilePermissions); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got: %v", err)
	}
	if cfg.Server.Port != 8125 {
		t.Errorf("Expected port 8125, got %d", cfg.Server.Port)
	}
	if cfg.Queue.Overflow != "drop-oldest" {
		t.Errorf("Expected drop-oldest, got %s", cfg.Queue.Overflow)
	}
	if !cfg.Decoder.StrictTags {
		t.Error("Expected strict tags by default")
	}
	if time.Duration(cfg.Display.Tick) != 50*time.Millisecond {
		t.Errorf("Expected 50ms tick, got %v", time.Duration(cfg.Display.Tick))
	}
}

func TestLoad_YAMLKeepsDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
server:
  port: 9000
  readTimeout: 30s
queue:
  overflow: reject
display:
  tick: 100ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Expected default host, got %q", cfg.Server.Host)
	}
	if time.Duration(cfg.Server.ReadTimeout) != 30*time.Second {
		t.Errorf("Expected 30s read timeout, got %v", time.Duration(cfg.Server.ReadTimeout))
	}
	if cfg.Queue.Capacity != 64 {
		t.Errorf("Expected default capacity 64, got %d", cfg.Queue.Capacity)
	}
	if cfg.NewQueue().Policy() != relay.Reject {
		t.Errorf("Expected reject policy, got %s", cfg.NewQueue().Policy())
	}
	if time.Duration(cfg.Display.Tick) != 100*time.Millisecond {
		t.Errorf("Expected 100ms tick, got %v", time.Duration(cfg.Display.Tick))
	}
	if !cfg.Display.ShowHeader {
		t.Error("Expected showHeader to keep its default")
	}
}

func TestLoad_JSONAndJSONC(t *testing.T) {
	jsonPath := writeFile(t, "config.json", `{"decoder":{"side":"right","strictTags":false}}`)
	cfg, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load JSON failed: %v", err)
	}
	if cfg.Decoder.Side != "right" || cfg.Decoder.StrictTags {
		t.Errorf("Unexpected decoder config: %+v", cfg.Decoder)
	}
	if dec := cfg.NewDecoder(); dec.Side != screen.SideRight || !dec.Parser.Lenient {
		t.Errorf("Expected lenient right-side decoder, got %+v", dec)
	}

	jsoncPath := writeFile(t, "config.jsonc", `{
		// relay
		"server": {"port": 8200, "readTimeout": "5s"},
		"logging": {"level": "debug", "format": "json",},
	}`)
	cfg, err = Load(jsoncPath)
	if err != nil {
		t.Fatalf("Load JSONC failed: %v", err)
	}
	if cfg.Server.Port != 8200 {
		t.Errorf("Expected port 8200, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown extension", "config.toml", "", "unsupported config file format"},
		{"bad yaml", "config.yaml", "server: [", "failed to parse YAML"},
		{"bad duration", "config.yaml", "display:\n  tick: soon\n", "invalid duration"},
		{"bad policy", "config.yaml", "queue:\n  overflow: block\n", "queue.overflow"},
		{"bad side", "config.json", `{"decoder":{"side":"center"}}`, "decoder.side"},
		{"zero capacity", "config.json", `{"queue":{"capacity":0}}`, "queue.capacity"},
		{"bad path", "config.json", `{"server":{"path":"mcdu"}}`, "server.path"},
		{"bad port", "config.json", `{"server":{"port":70000}}`, "server.port"},
		{"bad level", "config.json", `{"logging":{"level":"loud"}}`, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.Port = 9100
			cfg.Server.ReadTimeout = Duration(2 * time.Second)
			cfg.History.Enabled = true

			path := filepath.Join(t.TempDir(), name)
			if err := Save(cfg, path); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.Server.Port != 9100 {
				t.Errorf("Expected port 9100, got %d", loaded.Server.Port)
			}
			if time.Duration(loaded.Server.ReadTimeout) != 2*time.Second {
				t.Errorf("Expected 2s, got %v", time.Duration(loaded.Server.ReadTimeout))
			}
			if !loaded.History.Enabled {
				t.Error("Expected history to be enabled")
			}
		})
	}
}

func TestInitializeAt_WritesDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".mcdu")

	if err := InitializeAt(dir); err != nil {
		t.Fatalf("InitializeAt failed: %v", err)
	}

	if ConfigFile != filepath.Join(dir, "config.yaml") {
		t.Errorf("Unexpected config file path: %s", ConfigFile)
	}
	if DatabasePath != filepath.Join(dir, "mcdu.db") {
		t.Errorf("Unexpected database path: %s", DatabasePath)
	}

	cfg, err := Load(ConfigFile)
	if err != nil {
		t.Fatalf("Expected default config file to load, got: %v", err)
	}
	if cfg.Server.Port != relay.DefaultPort {
		t.Errorf("Expected default port, got %d", cfg.Server.Port)
	}

	// A second call keeps the existing file
	cfg.Server.Port = 9999
	if err := Save(cfg, ConfigFile); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := InitializeAt(dir); err != nil {
		t.Fatalf("Second InitializeAt failed: %v", err)
	}
	cfg, _ = Load(ConfigFile)
	if cfg.Server.Port != 9999 {
		t.Errorf("Expected existing config to be kept, got port %d", cfg.Server.Port)
	}
}

func TestExpandPath(t *testing.T) {
	ConfigDir = "/etc/mcdu"
	defer func() { ConfigDir = "" }()

	got, err := ExpandPath("frames.db")
	if err != nil {
		t.Fatalf("ExpandPath failed: %v", err)
	}
	if got != filepath.Join("/etc/mcdu", "frames.db") {
		t.Errorf("Expected path under config dir, got %s", got)
	}

	got, _ = ExpandPath("/tmp/frames.db")
	if got != "/tmp/frames.db" {
		t.Errorf("Expected absolute path unchanged, got %s", got)
	}
}

func TestAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.Addr(); got != "127.0.0.1:8125" {
		t.Errorf("Expected 127.0.0.1:8125, got %s", got)
	}
	if got := cfg.Relay().Port; got != 8125 {
		t.Errorf("Expected relay port 8125, got %d", got)
	}
}
