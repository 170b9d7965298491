package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// FilePermissions is the default permission mode for regular files (read/write for owner, read for others)
	FilePermissions = 0644
	// DirPermissions is the default permission mode for directories (rwxr-xr-x)
	DirPermissions = 0755
)

var (
	// ConfigDir is the global configuration directory (~/.mcdu)
	ConfigDir string

	// ConfigFile is the default configuration file
	ConfigFile string

	// DatabasePath is the SQLite database file for recorded frames
	DatabasePath string

	// LogFile is the default log file used while the display owns the terminal
	LogFile string
)

// Initialize sets up the configuration directory and default config file.
// It creates ~/.mcdu/ if it doesn't exist
func Initialize() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	return InitializeAt(filepath.Join(homeDir, ".mcdu"))
}

// InitializeAt is Initialize rooted at dir
func InitializeAt(dir string) error {
	ConfigDir = dir
	ConfigFile = filepath.Join(ConfigDir, "config.yaml")
	DatabasePath = filepath.Join(ConfigDir, "mcdu.db")
	LogFile = filepath.Join(ConfigDir, "mcdu.log")

	if err := os.MkdirAll(ConfigDir, DirPermissions); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", ConfigDir, err)
	}

	// Create default config file if it doesn't exist
	if _, err := os.Stat(ConfigFile); os.IsNotExist(err) {
		if err := Save(Default(), ConfigFile); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	return nil
}

// ExpandPath expands a leading ~/ and resolves relative paths against the
// config directory
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if filepath.IsAbs(path) || ConfigDir == "" {
		return path, nil
	}

	return filepath.Join(ConfigDir, path), nil
}
