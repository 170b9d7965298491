package display

import (
	"strings"

	"github.com/rivo/uniseg"
	"github.com/studiowebux/mcdu/internal/markup"
	"github.com/studiowebux/mcdu/internal/screen"
)

// Grid rows
const (
	titleRow      = 0
	firstLineRow  = 1
	scratchpadRow = screen.Rows - 1
)

// Arrow glyphs
const (
	arrowUp    = "↑"
	arrowDown  = "↓"
	arrowLeft  = "←"
	arrowRight = "→"
)

type alignment int

const (
	alignLeft alignment = iota
	alignCenter
	alignRight
)

// Cell is one character position on the MCDU screen
type Cell struct {
	Glyph string // one grapheme cluster, "" when blank
	Color markup.Tag
	Small bool
}

// Grid is the full 14x24 MCDU character grid
type Grid [screen.Rows][screen.Width]Cell

// Layout places an update on the grid. Row 0 carries titleLeft and the
// centered title, rows 1-12 the content lines and row 13 the scratchpad.
// Left/right arrows sit at the end of the title row, up/down at the end of
// the scratchpad row.
func Layout(update screen.ScreenUpdate) Grid {
	var g Grid

	g.place(titleRow, update.TitleLeft, alignLeft, markup.TagBig)
	g.place(titleRow, update.Title, alignCenter, markup.TagBig)

	for i, row := range update.Lines {
		if i >= screen.Lines {
			break
		}
		font := markup.TagBig
		if screen.IsLabelLine(i) {
			font = markup.TagSmall
		}
		for col, text := range row {
			g.place(firstLineRow+i, text, columnAlign(col), font)
		}
	}

	g.place(scratchpadRow, update.Scratchpad, alignLeft, markup.TagBig)

	if update.Arrows.Left {
		g.set(titleRow, screen.Width-2, arrowLeft)
	}
	if update.Arrows.Right {
		g.set(titleRow, screen.Width-1, arrowRight)
	}
	if update.Arrows.Up {
		g.set(scratchpadRow, screen.Width-2, arrowUp)
	}
	if update.Arrows.Down {
		g.set(scratchpadRow, screen.Width-1, arrowDown)
	}

	return g
}

// Lines returns the grid as plain text, one string per row
func (g *Grid) Lines() []string {
	out := make([]string, len(g))
	for r := range g {
		var b strings.Builder
		for _, c := range g[r] {
			if c.Glyph == "" {
				b.WriteByte(' ')
				continue
			}
			b.WriteString(c.Glyph)
		}
		out[r] = b.String()
	}
	return out
}

func (g *Grid) set(row, col int, glyph string) {
	g[row][col] = Cell{Glyph: glyph, Color: markup.TagWhite}
}

// place writes text on row. An alignment formatter on the first run
// overrides the column's default alignment.
func (g *Grid) place(row int, text markup.ParsedText, align alignment, font markup.Tag) {
	if text.IsEmpty() {
		return
	}
	if a, ok := text.Runs[0].Align(); ok {
		align = alignLeft
		if a == markup.TagRight {
			align = alignRight
		}
	}

	cells := cellsOf(text, font)

	start := 0
	switch align {
	case alignRight:
		start = screen.Width - len(cells)
	case alignCenter:
		start = (screen.Width - len(cells)) / 2
	}

	for i, c := range cells {
		col := start + i
		if col < 0 || col >= screen.Width {
			continue
		}
		if c.Glyph == " " && g[row][col].Glyph != "" {
			// Spaces do not erase text placed by another column
			continue
		}
		g[row][col] = c
	}
}

func cellsOf(text markup.ParsedText, font markup.Tag) []Cell {
	var cells []Cell
	for _, run := range text.Runs {
		color := run.Color()
		small := run.FontOr(font) == markup.TagSmall

		state := -1
		rest := run.Text
		for len(rest) > 0 {
			var cluster string
			cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
			cells = append(cells, Cell{Glyph: cluster, Color: color, Small: small})
		}
	}
	return cells
}

func columnAlign(col int) alignment {
	switch col {
	case screen.ColumnLeft:
		return alignLeft
	case screen.ColumnRight:
		return alignRight
	default:
		return alignCenter
	}
}
