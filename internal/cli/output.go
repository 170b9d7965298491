package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/studiowebux/mcdu/internal/display"
	"github.com/studiowebux/mcdu/internal/markup"
	"github.com/studiowebux/mcdu/internal/screen"
	"gopkg.in/yaml.v3"
)

// formatValue renders v as json or yaml
func formatValue(v any, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use text, json or yaml)", format)
	}
}

// formatUpdate renders a decoded screen in the requested format
func formatUpdate(update screen.ScreenUpdate, format string) (string, error) {
	if format == "" || format == "text" {
		return formatUpdateText(update), nil
	}
	return formatValue(update, format)
}

// formatUpdateText draws the screen as plain text followed by the styled
// runs of every non-empty field
func formatUpdateText(update screen.ScreenUpdate) string {
	var sb strings.Builder

	border := "+" + strings.Repeat("-", screen.Width) + "+\n"
	sb.WriteString(border)
	grid := display.Layout(update)
	for _, line := range grid.Lines() {
		sb.WriteString("|" + line + "|\n")
	}
	sb.WriteString(border)

	writeRuns := func(field string, text markup.ParsedText) {
		for _, run := range text.Runs {
			sb.WriteString(fmt.Sprintf("%-14s %-26q %s %s", field, run.Text, run.Color(), run.Font()))
			if align, ok := run.Align(); ok {
				sb.WriteString(" " + align.String())
			}
			sb.WriteString("\n")
		}
	}

	writeRuns("titleLeft", update.TitleLeft)
	writeRuns("title", update.Title)
	for i, row := range update.Lines {
		for j, text := range row {
			writeRuns(fmt.Sprintf("lines[%d][%d]", i, j), text)
		}
	}
	writeRuns("scratchpad", update.Scratchpad)

	arrows := update.Arrows
	sb.WriteString(fmt.Sprintf("arrows         up=%t down=%t left=%t right=%t\n", arrows.Up, arrows.Down, arrows.Left, arrows.Right))

	return sb.String()
}
