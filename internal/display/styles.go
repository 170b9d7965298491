package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/mcdu/internal/markup"
)

// MCDU palette
var palette = map[markup.Tag]lipgloss.Color{
	markup.TagAmber:   lipgloss.Color("#ff9a00"),
	markup.TagCyan:    lipgloss.Color("#00ffff"),
	markup.TagGreen:   lipgloss.Color("#00ff00"),
	markup.TagInop:    lipgloss.Color("#666666"),
	markup.TagMagenta: lipgloss.Color("#ff94ff"),
	markup.TagRed:     lipgloss.Color("#ff0000"),
	markup.TagWhite:   lipgloss.Color("#ffffff"),
	markup.TagYellow:  lipgloss.Color("#ffff00"),
}

var (
	styleScreen = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#008b8b", Dark: "#00ffff"})

	styleSubtle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
)

func cellStyle(c Cell) lipgloss.Style {
	color, ok := palette[c.Color]
	if !ok {
		color = palette[markup.TagWhite]
	}
	style := lipgloss.NewStyle().Foreground(color)
	if c.Small {
		style = style.Faint(true)
	} else {
		style = style.Bold(true)
	}
	return style
}

// render draws the grid with colors. Consecutive cells sharing a style are
// rendered as one segment.
func (g *Grid) render() string {
	rows := make([]string, len(g))
	for r := range g {
		var b strings.Builder
		var seg strings.Builder
		var segStyle Cell

		flush := func() {
			if seg.Len() == 0 {
				return
			}
			b.WriteString(cellStyle(segStyle).Render(seg.String()))
			seg.Reset()
		}

		for _, c := range g[r] {
			glyph := c.Glyph
			if glyph == "" {
				glyph = " "
				c = Cell{Color: segStyle.Color, Small: segStyle.Small}
			}
			key := Cell{Color: c.Color, Small: c.Small}
			if key != segStyle {
				flush()
				segStyle = key
			}
			seg.WriteString(glyph)
		}
		flush()
		rows[r] = b.String()
	}
	return strings.Join(rows, "\n")
}
