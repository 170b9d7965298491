package screen

import (
	"bytes"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"
)

// UpdateCommand is the frame command that carries a wire message
const UpdateCommand = "update"

// ParseFixture turns a hand-written message into plain JSON. Fixtures may
// contain comments and trailing commas, and may be a whole "update:" frame.
func ParseFixture(data []byte) []byte {
	data = bytes.TrimSpace(data)
	data = bytes.TrimPrefix(data, []byte(UpdateCommand+":"))
	return jsonc.ToJSON(data)
}

// LoadFixture reads a JSON or JSONC wire message from disk
func LoadFixture(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return ParseFixture(data), nil
}
