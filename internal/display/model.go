package display

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/mcdu/internal/screen"
)

// DefaultTick is how often the display drains its source
const DefaultTick = 50 * time.Millisecond

// Source hands over every pending update without blocking
type Source interface {
	Drain() []screen.ScreenUpdate
}

// Options configures the display
type Options struct {
	Tick       time.Duration
	ShowHeader bool
	Header     string        // shown above the screen, e.g. the listen URL
	Status     func() string // optional footer status, polled every tick
}

type tickMsg time.Time

// Model is the bubbletea model for the MCDU screen. It is the single
// consumer of decoded updates: each tick it drains the source and keeps
// the last update as the current screen.
type Model struct {
	source  Source
	opts    Options
	grid    Grid
	current *screen.ScreenUpdate
	applied int
	status  string
	width   int
	height  int
}

// New creates a display model
func New(source Source, opts Options) Model {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	return Model{source: source, opts: opts}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Tick, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Init starts the tick loop
func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles ticks, key presses and resizes
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m = m.drain()
		return m, m.tick()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// drain applies every pending update in arrival order. Each update
// replaces the whole screen, so the last one wins.
func (m Model) drain() Model {
	for _, update := range m.source.Drain() {
		m.current = &update
		m.applied++
	}
	if m.current != nil {
		m.grid = Layout(*m.current)
	}
	if m.opts.Status != nil {
		m.status = m.opts.Status()
	}
	return m
}

// Current returns the screen being shown, if any update has arrived
func (m Model) Current() (screen.ScreenUpdate, bool) {
	if m.current == nil {
		return screen.ScreenUpdate{}, false
	}
	return *m.current, true
}

// Applied returns how many updates the model has consumed
func (m Model) Applied() int {
	return m.applied
}

// View renders the screen
func (m Model) View() string {
	var body string
	if m.current == nil {
		body = styleSubtle.Render(waitingScreen())
	} else {
		body = m.grid.render()
	}

	parts := []string{}
	if m.opts.ShowHeader {
		header := "MCDU"
		if m.opts.Header != "" {
			header += "  " + m.opts.Header
		}
		parts = append(parts, styleHeader.Render(header))
	}
	parts = append(parts, styleScreen.Render(body))

	footer := fmt.Sprintf("updates: %d", m.applied)
	if m.status != "" {
		footer += "  " + m.status
	}
	footer += "  q: quit"
	parts = append(parts, styleSubtle.Render(footer))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func waitingScreen() string {
	var g Grid
	msg := "WAITING FOR SIM"
	start := (screen.Width - len(msg)) / 2
	for i, r := range msg {
		g[screen.Rows/2][start+i] = Cell{Glyph: string(r)}
	}
	lines := g.Lines()
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Run shows the display until the user quits or ctx is cancelled
func Run(ctx context.Context, source Source, opts Options) error {
	p := tea.NewProgram(New(source, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
