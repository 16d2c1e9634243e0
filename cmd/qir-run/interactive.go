package main

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/qir-runtime/config"
	"github.com/wippyai/qir-runtime/output"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	traceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type action int

const (
	actionOneShot action = iota
	actionShots
	actionTrace
	actionSymbols
)

var actions = []struct {
	id    action
	label string
}{
	{actionOneShot, "Run one shot"},
	{actionShots, "Run shots..."},
	{actionTrace, "Show trace of the last shot"},
	{actionSymbols, "Show symbol bindings"},
}

type modelState int

const (
	stateSelectAction modelState = iota
	stateInputShots
	stateShowResult
)

type interactiveModel struct {
	err      error
	session  *session
	cfg      config.Config
	filename string
	entry    string
	result   string
	input    textinput.Model
	selected int
	state    modelState
}

func newInteractiveModel(filename, entry string, cfg config.Config) *interactiveModel {
	return &interactiveModel{
		filename: filename,
		entry:    entry,
		cfg:      cfg,
		state:    stateSelectAction,
	}
}

type loadedMsg struct {
	err     error
	session *session
}

type resultMsg struct {
	err    error
	result string
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadProgram
}

func (m *interactiveModel) loadProgram() tea.Msg {
	s, err := newSession(context.Background(), m.filename, m.entry, m.cfg)
	return loadedMsg{session: s, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputShots && msg.String() == "q" {
				break
			}
			if m.session != nil {
				m.session.close(context.Background())
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectAction && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectAction && m.selected < len(actions)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectAction:
				if m.session == nil {
					return m, nil
				}
				if actions[m.selected].id == actionShots {
					m.prepareInput()
					m.state = stateInputShots
					return m, nil
				}
				return m, m.perform(actions[m.selected].id, 1)

			case stateInputShots:
				n, err := strconv.Atoi(strings.TrimSpace(m.input.Value()))
				if err != nil || n < 1 {
					m.err = fmt.Errorf("shots must be a positive integer")
					m.result = ""
					m.state = stateShowResult
					return m, nil
				}
				return m, m.perform(actionShots, n)

			case stateShowResult:
				m.state = stateSelectAction
				m.result = ""
				m.err = nil
			}

		case "esc":
			switch m.state {
			case stateInputShots, stateShowResult:
				m.state = stateSelectAction
				m.result = ""
				m.err = nil
			}
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.session = msg.session

	case resultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputShots {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) prepareInput() {
	ti := textinput.New()
	ti.Placeholder = strconv.Itoa(max(m.cfg.Simulator.Shots, 100))
	ti.Prompt = "shots: "
	ti.Width = 12
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) perform(a action, shots int) tea.Cmd {
	return func() tea.Msg {
		s := m.session
		switch a {
		case actionOneShot, actionShots:
			if err := s.shots(context.Background(), shots); err != nil {
				return resultMsg{err: err}
			}
			var buf bytes.Buffer
			if err := output.WriteText(&buf, s.summary(), false); err != nil {
				return resultMsg{err: err}
			}
			return resultMsg{result: buf.String()}

		case actionTrace:
			cmds := s.rec.Commands()
			if len(cmds) == 0 {
				return resultMsg{result: "no shot has run yet"}
			}
			lines := make([]string, len(cmds))
			for i, c := range cmds {
				lines[i] = traceStyle.Render(c.String())
			}
			return resultMsg{result: strings.Join(lines, "\n")}

		case actionSymbols:
			var b strings.Builder
			for _, sym := range s.exec.Bindings() {
				status := "bound"
				if !sym.Bound {
					status = errorStyle.Render("unresolved")
				}
				fmt.Fprintf(&b, "%-40s %s\n", sym.Name, status)
			}
			return resultMsg{result: strings.TrimRight(b.String(), "\n")}
		}
		return resultMsg{err: fmt.Errorf("unknown action %d", a)}
	}
}

func (m *interactiveModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if m.session == nil {
		return "Compiling program..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("QIR Runner"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(" @")
	b.WriteString(m.session.exec.EntryPoint())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectAction:
		b.WriteString("Select an action:\n\n")
		for i, a := range actions {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + a.label))
			} else {
				b.WriteString("  " + actionStyle.Render(a.label))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter run • q quit"))

	case stateInputShots:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter run • esc back"))

	case stateShowResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(filename, entry string, cfg config.Config) error {
	p := tea.NewProgram(newInteractiveModel(filename, entry, cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
