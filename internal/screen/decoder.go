// Package screen decodes MCDU wire messages into renderer-ready updates.
//
// A wire message carries the raw state of both MCDUs. The Decoder picks one
// side, normalizes whitespace, puts each content row into display order and
// runs every text field through the markup parser. Decoding is
// all-or-nothing: any error discards the whole update.
package screen

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/studiowebux/mcdu/internal/markup"
)

const noBreakSpace = "\u00a0"

// Decoder turns wire messages into ScreenUpdates
type Decoder struct {
	Side   Side
	Parser markup.Parser
}

// NewDecoder creates a decoder for side. lenient selects the markup
// fallback where unknown tags close the innermost scope.
func NewDecoder(side Side, lenient bool) *Decoder {
	if side == "" {
		side = SideLeft
	}
	return &Decoder{Side: side, Parser: markup.Parser{Lenient: lenient}}
}

// Decode decodes one JSON wire message
func (d *Decoder) Decode(raw []byte) (ScreenUpdate, error) {
	var msg Message
	if err := json.Unmarshal(NormalizeSpaces(raw), &msg); err != nil {
		if errors.Is(err, ErrMalformedMessage) {
			return ScreenUpdate{}, err
		}
		return ScreenUpdate{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return d.DecodeState(msg.State(d.Side))
}

// DecodeState parses every text field of a raw screen state
func (d *Decoder) DecodeState(state ScreenState) (ScreenUpdate, error) {
	update := ScreenUpdate{
		Lines:  make([][]markup.ParsedText, len(state.Lines)),
		Arrows: state.Arrows,
	}

	for i, row := range state.Lines {
		if len(row) != Columns {
			return ScreenUpdate{}, fmt.Errorf("%w: lines[%d] has %d cells, expected %d", ErrMalformedMessage, i, len(row), Columns)
		}
		cells := SwapColumns(row)
		update.Lines[i] = make([]markup.ParsedText, Columns)
		for j, cell := range cells {
			parsed, err := d.parse(cell)
			if err != nil {
				return ScreenUpdate{}, &FieldError{Field: fmt.Sprintf("lines[%d][%d]", i, j), Err: err}
			}
			update.Lines[i][j] = parsed
		}
	}

	fields := []struct {
		name string
		raw  string
		dst  *markup.ParsedText
	}{
		{"scratchpad", state.Scratchpad, &update.Scratchpad},
		{"title", state.Title, &update.Title},
		{"titleLeft", state.TitleLeft, &update.TitleLeft},
	}
	for _, field := range fields {
		parsed, err := d.parse(field.raw)
		if err != nil {
			return ScreenUpdate{}, &FieldError{Field: field.name, Err: err}
		}
		*field.dst = parsed
	}

	return update, nil
}

func (d *Decoder) parse(raw string) (markup.ParsedText, error) {
	// an escaped \u00a0 in the JSON only shows up after decoding
	return d.Parser.Parse(strings.ReplaceAll(raw, noBreakSpace, " "))
}

// NormalizeSpaces replaces every no-break space with a plain space. The
// simulator pads fields with U+00A0, which must never reach the parser.
func NormalizeSpaces(raw []byte) []byte {
	return bytes.ReplaceAll(raw, []byte(noBreakSpace), []byte(" "))
}

// SwapColumns converts a row from wire order (left, right, center) to
// display order (left, center, right). The input row is left untouched.
func SwapColumns(row []string) []string {
	out := make([]string, len(row))
	copy(out, row)
	if len(out) >= Columns {
		out[1], out[2] = out[2], out[1]
	}
	return out
}
