// Package history records relay frames to SQLite so sessions can be
// inspected and replayed later.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Frame is one recorded "update" frame
type Frame struct {
	ID         int64     `json:"id" yaml:"id"`
	ReceivedAt time.Time `json:"receivedAt" yaml:"receivedAt"`
	Remote     string    `json:"remote" yaml:"remote"`
	Payload    string    `json:"payload" yaml:"payload"`
	Size       int       `json:"size" yaml:"size"`
	Error      string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Accepted reports whether the frame decoded into a screen update
func (f Frame) Accepted() bool {
	return f.Error == ""
}

// ListOptions narrows a List query
type ListOptions struct {
	Limit        int    // zero returns every frame
	Remote       string // only frames from this peer
	AcceptedOnly bool   // skip frames that failed to decode
	Oldest       bool   // oldest first instead of newest first
}

// Export writes frames to path as JSON or YAML depending on the extension
func Export(path string, frames []Frame) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	var data []byte
	var err error
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(frames)
	default:
		data, err = json.MarshalIndent(frames, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal frames: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return nil
}
