package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"conceptlens/internal/types"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		spCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.viewMode == HistoryView {
				m.viewMode = ResultView
				if m.state.CurrentSessionID == "" {
					m.viewMode = InputView
				}
				return m, nil
			}
			return m, tea.Quit
		}

		// History view owns navigation keys.
		if m.viewMode == HistoryView {
			switch msg.String() {
			case "enter":
				if item, ok := m.list.SelectedItem().(sessionItem); ok {
					m.orch.SelectSession(item.id)
					m.viewMode = ResultView
					m.refreshState()
				}
				return m, nil
			case "d":
				if m.list.FilterState() != list.Filtering {
					if item, ok := m.list.SelectedItem().(sessionItem); ok {
						m.orch.DeleteSession(item.id)
						m.refreshState()
					}
					return m, nil
				}
			}
			var cmd tea.Cmd
			m.list, cmd = m.list.Update(msg)
			return m, cmd
		}

		switch msg.Type {
		case tea.KeyEnter:
			if msg.Alt {
				break // Alt+Enter inserts a newline
			}
			return m.handleSubmit()

		case tea.KeyTab:
			// Tab cycles the staged level for the next analysis.
			if m.viewMode == InputView {
				m.orch.SetLevel(nextLevel(m.state.Level))
				m.refreshState()
				return m, nil
			}
		}

		switch msg.String() {
		case "ctrl+h":
			m.viewMode = HistoryView
			m.refreshState()
			return m, nil
		case "ctrl+n":
			m.orch.NewSession()
			m.textarea.Reset()
			m.refreshState()
			return m, nil
		case "ctrl+l":
			// Re-explain the current session at the next level up.
			if m.viewMode == ResultView {
				if sess, ok := m.state.CurrentSession(); ok {
					return m, tea.Batch(m.spinner.Tick, m.changeLevelCmd(nextLevel(sess.Level)))
				}
			}
			return m, nil
		case "ctrl+g":
			if m.viewMode == ResultView {
				return m, tea.Batch(m.spinner.Tick, m.generateVideoCmd())
			}
			return m, nil
		}

		m.textarea, tiCmd = m.textarea.Update(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		inputHeight := 4

		contentWidth := msg.Width - 4
		if contentWidth < 1 {
			contentWidth = 1
		}
		contentHeight := msg.Height - headerHeight - footerHeight - inputHeight
		if contentHeight < 1 {
			contentHeight = 1
		}

		if !m.ready {
			m.viewport = m.newViewport(contentWidth, contentHeight)
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = contentHeight
		}
		m.textarea.SetWidth(contentWidth)
		m.list.SetSize(msg.Width, msg.Height-headerHeight)

		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(contentWidth-2),
		)
		m.refreshState()

	case RefreshMsg:
		m.refreshState()

	case actionDoneMsg:
		m.refreshState()

	case spinner.TickMsg:
		if m.busy() {
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd, spCmd)
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	switch m.viewMode {
	case InputView:
		m.textarea.Reset()
		return m, tea.Batch(m.spinner.Tick, m.analyzeCmd(input))
	case ResultView:
		m.textarea.Reset()
		return m, tea.Batch(m.spinner.Tick, m.sendMessageCmd(input))
	}
	return m, nil
}

// Orchestrator actions run as commands so the event loop never blocks.
// Intermediate transitions arrive as RefreshMsg via the notify hook; the
// returned actionDoneMsg is just the final sync.

func (m Model) analyzeCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_ = m.orch.Analyze(context.Background(), types.TopicInput{Text: text})
		return actionDoneMsg{}
	}
}

func (m Model) sendMessageCmd(text string) tea.Cmd {
	return func() tea.Msg {
		_ = m.orch.SendMessage(context.Background(), text)
		return actionDoneMsg{}
	}
}

func (m Model) changeLevelCmd(level types.EducationLevel) tea.Cmd {
	return func() tea.Msg {
		_ = m.orch.ChangeLevel(context.Background(), level)
		return actionDoneMsg{}
	}
}

func (m Model) generateVideoCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.orch.GenerateVideo(context.Background())
		return actionDoneMsg{}
	}
}

// nextLevel cycles through the education levels in order.
func nextLevel(current types.EducationLevel) types.EducationLevel {
	levels := types.Levels()
	for i, l := range levels {
		if l == current {
			return levels[(i+1)%len(levels)]
		}
	}
	return levels[0]
}
