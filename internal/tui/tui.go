// Package tui renders the search widget in the terminal: an input box
// with a suggestion dropdown bound to the controller's state. It is a
// thin boundary; all debounce, ordering and fallback logic lives in
// pkg/suggest.
package tui

import (
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"recipesuggest/pkg/suggest"
)

var (
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	itemStyle      = lipgloss.NewStyle().PaddingLeft(2)
	activeStyle    = lipgloss.NewStyle().PaddingLeft(2).Bold(true).Foreground(lipgloss.Color("205"))
	loadingStyle   = lipgloss.NewStyle().Faint(true)
	navigatedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
)

// refreshMsg signals that the controller state changed.
type refreshMsg struct{}

// navigatedMsg carries the query text a submit or selection navigated
// with.
type navigatedMsg string

// Run wires a controller to the terminal widget and blocks until the
// user quits. bootstrap, when non-nil, is executed on its own
// goroutine and its index installed once built.
func Run(initialQuery string, remote suggest.Source, scfg SuggestSettings, bootstrap func() *suggest.Index) error {
	var p *tea.Program

	ctrl := suggest.NewController(suggest.Options{
		InitialText: initialQuery,
		Limit:       scfg.Limit,
		Debounce:    scfg.Debounce,
		Remote:      remote,
		Navigate: func(query string) {
			if p != nil {
				p.Send(navigatedMsg(query))
			}
		},
		Notify: func() {
			if p != nil {
				p.Send(refreshMsg{})
			}
		},
	})
	defer ctrl.Stop()

	p = tea.NewProgram(newModel(ctrl, initialQuery))
	if bootstrap != nil {
		go func() {
			if ix := bootstrap(); ix != nil {
				ctrl.SetIndex(ix)
				p.Send(refreshMsg{})
			}
		}()
	}

	_, err := p.Run()
	return err
}

// SuggestSettings carries the engine tunables the widget needs.
type SuggestSettings struct {
	Limit    int
	Debounce time.Duration
}

type model struct {
	ctrl      *suggest.Controller
	input     textinput.Model
	navigated string
}

func newModel(ctrl *suggest.Controller, initialQuery string) model {
	ti := textinput.New()
	ti.Placeholder = "Keresés receptre, vagy hozzávalóra..."
	ti.SetValue(initialQuery)
	ti.Focus()
	ti.CharLimit = 120
	ti.Width = 48
	return model{ctrl: ctrl, input: ti}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyUp:
			m.ctrl.MoveActive(-1)
			return m, nil
		case tea.KeyDown:
			m.ctrl.MoveActive(1)
			return m, nil
		case tea.KeyEnter:
			m.ctrl.SelectActive()
			return m, nil
		case tea.KeyEsc:
			m.ctrl.Close()
			return m, nil
		}

		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if m.input.Value() != before {
			m.ctrl.SetText(m.input.Value())
		}
		return m, cmd

	case refreshMsg:
		// Selection replaces the input text from the controller side.
		if st := m.ctrl.State(); st.Text != m.input.Value() {
			m.input.SetValue(st.Text)
			m.input.CursorEnd()
		}
		return m, nil

	case navigatedMsg:
		m.navigated = "/search?query=" + url.QueryEscape(string(msg))
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	st := m.ctrl.State()

	view := boxStyle.Render(m.input.View()) + "\n"
	if st.Loading {
		view += loadingStyle.Render("  keresés…") + "\n"
	}
	if st.Open {
		for i, item := range st.Suggestions {
			style := itemStyle
			if i == st.ActiveIndex {
				style = activeStyle
			}
			view += style.Render(item.Title) + "\n"
		}
	}
	if m.navigated != "" {
		view += navigatedStyle.Render("→ "+m.navigated) + "\n"
	}
	view += loadingStyle.Render("↑/↓ kiválasztás · Enter keresés · Esc bezárás · Ctrl+C kilépés")
	return view
}
