package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/studiowebux/mcdu/internal/history"
)

var (
	titleStyle        = lipgloss.NewStyle().MarginLeft(2).Bold(true)
	itemStyle         = lipgloss.NewStyle().PaddingLeft(4)
	selectedItemStyle = lipgloss.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("170"))
	errorItemStyle    = lipgloss.NewStyle().PaddingLeft(4).Foreground(lipgloss.Color("9"))
	helpStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1).MarginLeft(2)
)

type frameItem struct {
	frame history.Frame
}

func (i frameItem) FilterValue() string {
	return i.frame.Remote + " " + i.frame.Payload
}

func (i frameItem) Title() string {
	return frameSummary(i.frame)
}

func (i frameItem) Description() string { return "" }

type pickerModel struct {
	list     list.Model
	choice   *history.Frame
	quitting bool
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		// Let the list handle keys while the filter prompt is open
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			if i, ok := m.list.SelectedItem().(frameItem); ok {
				frame := i.frame
				m.choice = &frame
			}
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("↑/↓: navigate • /: filter • enter: inspect • q/ctrl+c: cancel")
	return fmt.Sprintf("%s\n\n%s", m.list.View(), help)
}

func newPicker(frames []history.Frame) pickerModel {
	items := make([]list.Item, len(frames))
	for i, f := range frames {
		items[i] = frameItem{frame: f}
	}

	const defaultWidth = 100
	const listHeight = 16

	l := list.New(items, frameDelegate{}, defaultWidth, listHeight)
	l.Title = "Recorded frames"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return pickerModel{list: l}
}

// pickFrame shows an interactive list of frames and returns the chosen one
func pickFrame(frames []history.Frame) (history.Frame, error) {
	if len(frames) == 0 {
		return history.Frame{}, fmt.Errorf("no frames recorded")
	}

	p := tea.NewProgram(newPicker(frames))
	finalModel, err := p.Run()
	if err != nil {
		return history.Frame{}, fmt.Errorf("error running selector: %w", err)
	}

	result := finalModel.(pickerModel)
	if result.choice == nil {
		return history.Frame{}, fmt.Errorf("selection cancelled")
	}
	return *result.choice, nil
}

// frameDelegate renders one frame per line
type frameDelegate struct{}

func (d frameDelegate) Height() int                             { return 1 }
func (d frameDelegate) Spacing() int                            { return 0 }
func (d frameDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d frameDelegate) Render(w io.Writer, m list.Model, index int, listItem list.Item) {
	i, ok := listItem.(frameItem)
	if !ok {
		return
	}

	str := i.Title()

	fn := itemStyle.Render
	if !i.frame.Accepted() {
		fn = errorItemStyle.Render
	}
	if index == m.Index() {
		fn = func(s ...string) string {
			return selectedItemStyle.Render("> " + strings.Join(s, " "))
		}
	}

	fmt.Fprint(w, fn(str))
}
