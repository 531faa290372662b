package picker

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/NeverVane/keepsake/internal/logger"
	"github.com/NeverVane/keepsake/internal/snippet"
)

// ErrAborted reports that the user left the picker without choosing.
var ErrAborted = errors.New("selection aborted")

// snippetItem adapts a snippet to the bubbles list component.
type snippetItem struct {
	sn snippet.Snippet
}

func (i snippetItem) FilterValue() string { return i.sn.Template }

func (i snippetItem) Title() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	return style.Render("$ " + i.sn.Template)
}

func (i snippetItem) Description() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	return style.Render(i.sn.Description)
}

// keyMap defines picker key bindings.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "q", "ctrl+c"),
		key.WithHelp("esc", "cancel"),
	),
}

// model is the picker state.
type model struct {
	list    list.Model
	keys    keyMap
	choice  int
	aborted bool
}

func newModel(snippets []snippet.Snippet, title string) model {
	items := make([]list.Item, len(snippets))
	for i, sn := range snippets {
		items[i] = snippetItem{sn: sn}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.Color("12")).
		Bold(true)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.Color("8"))
	delegate.SetSpacing(0)

	l := list.New(items, delegate, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(true)
	l.Styles.Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12"))

	return model{
		list:   l,
		keys:   keys,
		choice: -1,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		// While the filter input is active the list owns most keys.
		if m.list.FilterState() == list.Filtering {
			if msg.String() == "ctrl+c" {
				m.aborted = true
				return m, tea.Quit
			}
			break
		}
		switch {
		case key.Matches(msg, m.keys.Select):
			if idx := m.list.Index(); idx >= 0 {
				m.choice = idx
			}
			return m, tea.Quit
		case key.Matches(msg, m.keys.Quit):
			m.aborted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return m.list.View()
}

// Pick lets the user choose one snippet and returns its index in the
// given slice. A single snippet is chosen without interaction. When
// stdout is not a terminal the top entry wins, since the caller sorts
// matches best-first. Leaving the picker yields ErrAborted.
func Pick(snippets []snippet.Snippet, title string) (int, error) {
	if len(snippets) == 0 {
		return -1, fmt.Errorf("nothing to pick from")
	}
	if len(snippets) == 1 {
		return 0, nil
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.GetLogger().WithComponent("picker").Debug().
			Int("candidates", len(snippets)).
			Msg("No terminal, selecting top match")
		return 0, nil
	}

	m := newModel(snippets, title)
	program := tea.NewProgram(m, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return -1, fmt.Errorf("picker failed: %w", err)
	}

	result, ok := final.(model)
	if !ok || result.aborted || result.choice < 0 {
		return -1, ErrAborted
	}
	return result.choice, nil
}
