package screen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/studiowebux/mcdu/internal/markup"
)

// MCDU screen geometry
const (
	Rows    = 14 // title + 12 lines + scratchpad
	Width   = 24 // characters per row
	Lines   = 12 // content lines, alternating label/data
	Columns = 3  // cells per content line
	Arrows  = 4  // up, down, left, right
)

// ErrMalformedMessage is returned when a wire message does not have the
// expected shape
var ErrMalformedMessage = errors.New("malformed screen message")

// Side selects one of the two mirrored MCDUs in a wire message
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ParseSide validates a side name
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case SideLeft, SideRight:
		return Side(s), nil
	default:
		return "", fmt.Errorf("invalid side %q (use 'left' or 'right')", s)
	}
}

// Message is one "update" payload: a screen state per MCDU
type Message struct {
	Left  ScreenState `json:"left"`
	Right ScreenState `json:"right"`
}

// State returns the screen state for side
func (m Message) State(side Side) ScreenState {
	if side == SideRight {
		return m.Right
	}
	return m.Left
}

// UnmarshalJSON requires both sides to be present. Keys match exactly.
func (m *Message) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	found, err := decodeField(fields, "left", &m.Left)
	if err != nil {
		return err
	}
	if !found {
		return missingField("left")
	}
	found, err = decodeField(fields, "right", &m.Right)
	if err != nil {
		return err
	}
	if !found {
		return missingField("right")
	}
	return nil
}

// ArrowFlags tells which scroll/slew directions are available
type ArrowFlags struct {
	Up    bool `json:"up" yaml:"up"`
	Down  bool `json:"down" yaml:"down"`
	Left  bool `json:"left" yaml:"left"`
	Right bool `json:"right" yaml:"right"`
}

// ScreenState is the raw content of one MCDU exactly as received.
// Rows of Lines are in wire order: left, right, center.
type ScreenState struct {
	Lines      [][]string
	Scratchpad string
	Title      string
	TitleLeft  string
	Arrows     ArrowFlags
}

// UnmarshalJSON decodes a screen state, rejecting missing fields, null
// cells or arrows, and rows that are not exactly three cells wide. Keys
// match exactly; the left title is accepted as either "titleLeft" or
// "title_left", but not both.
func (s *ScreenState) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}

	var (
		lines      [][]*string
		scratchpad string
		title      string
		titleLeft  string
		arrows     []*bool
	)

	required := []struct {
		name string
		dst  any
	}{
		{"lines", &lines},
		{"scratchpad", &scratchpad},
		{"title", &title},
	}
	for _, f := range required {
		found, err := decodeField(fields, f.name, f.dst)
		if err != nil {
			return err
		}
		if !found {
			return missingField(f.name)
		}
	}

	camel, err := decodeField(fields, "titleLeft", &titleLeft)
	if err != nil {
		return err
	}
	snake, err := decodeField(fields, "title_left", &titleLeft)
	if err != nil {
		return err
	}
	switch {
	case camel && snake:
		return fmt.Errorf("%w: both \"titleLeft\" and \"title_left\" present", ErrMalformedMessage)
	case !camel && !snake:
		return missingField("titleLeft")
	}

	found, err := decodeField(fields, "arrows", &arrows)
	if err != nil {
		return err
	}
	if !found {
		return missingField("arrows")
	}

	rows := make([][]string, len(lines))
	for i, row := range lines {
		if len(row) != Columns {
			return fmt.Errorf("%w: lines[%d] has %d cells, expected %d", ErrMalformedMessage, i, len(row), Columns)
		}
		rows[i] = make([]string, Columns)
		for j, cell := range row {
			if cell == nil {
				return fmt.Errorf("%w: lines[%d][%d] is null", ErrMalformedMessage, i, j)
			}
			rows[i][j] = *cell
		}
	}

	if len(arrows) != Arrows {
		return fmt.Errorf("%w: arrows has %d entries, expected %d", ErrMalformedMessage, len(arrows), Arrows)
	}
	flags := make([]bool, Arrows)
	for i, arrow := range arrows {
		if arrow == nil {
			return fmt.Errorf("%w: arrows[%d] is null", ErrMalformedMessage, i)
		}
		flags[i] = *arrow
	}

	*s = ScreenState{
		Lines:      rows,
		Scratchpad: scratchpad,
		Title:      title,
		TitleLeft:  titleLeft,
		Arrows:     ArrowFlags{Up: flags[0], Down: flags[1], Left: flags[2], Right: flags[3]},
	}
	return nil
}

// MarshalJSON writes the wire shape back out
func (s ScreenState) MarshalJSON() ([]byte, error) {
	lines := s.Lines
	if lines == nil {
		lines = [][]string{}
	}
	return json.Marshal(struct {
		Lines      [][]string `json:"lines"`
		Scratchpad string     `json:"scratchpad"`
		Title      string     `json:"title"`
		TitleLeft  string     `json:"titleLeft"`
		Arrows     []bool     `json:"arrows"`
	}{
		Lines:      lines,
		Scratchpad: s.Scratchpad,
		Title:      s.Title,
		TitleLeft:  s.TitleLeft,
		Arrows:     []bool{s.Arrows.Up, s.Arrows.Down, s.Arrows.Left, s.Arrows.Right},
	})
}

// ScreenUpdate is a decoded, renderer-ready screen.
// Rows of Lines are in display order: left, center, right.
type ScreenUpdate struct {
	Lines      [][]markup.ParsedText `json:"lines" yaml:"lines"`
	Scratchpad markup.ParsedText     `json:"scratchpad" yaml:"scratchpad"`
	Title      markup.ParsedText     `json:"title" yaml:"title"`
	TitleLeft  markup.ParsedText     `json:"titleLeft" yaml:"titleLeft"`
	Arrows     ArrowFlags            `json:"arrows" yaml:"arrows"`
}

// IsLabelLine reports whether content line i is a small label line.
// Even lines are labels, odd lines carry data.
func IsLabelLine(i int) bool {
	return i%2 == 0
}

// Column positions within a decoded row
const (
	ColumnLeft = iota
	ColumnCenter
	ColumnRight
)

// FieldError identifies the text field whose markup could not be parsed
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// objectFields splits a JSON object into its raw values by exact key
func objectFields(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return fields, nil
}

// decodeField decodes the value under name into dst. An absent key or a
// JSON null reports false.
func decodeField(fields map[string]json.RawMessage, name string, dst any) (bool, error) {
	raw, ok := fields[name]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		if errors.Is(err, ErrMalformedMessage) {
			return true, err
		}
		return true, fmt.Errorf("%w: field %q: %v", ErrMalformedMessage, name, err)
	}
	return true, nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: missing field %q", ErrMalformedMessage, name)
}
