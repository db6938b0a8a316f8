// Package chat provides the interactive TUI for ConceptLens:
//   - model.go: types, construction, Init
//   - update.go: the Update loop and command dispatch
//   - view.go: rendering
package chat

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"conceptlens/cmd/lens/ui"
	"conceptlens/internal/orchestrator"
	"conceptlens/internal/types"
)

// ViewMode determines which screen is active
type ViewMode int

const (
	InputView   ViewMode = iota // new topic entry
	ResultView                  // session detail + chat
	HistoryView                 // session list
)

// RefreshMsg asks the model to re-snapshot orchestrator state. The
// orchestrator's notify hook sends one into the program for every state
// transition, including those from background media goroutines.
type RefreshMsg struct{}

// actionDoneMsg signals that a dispatched orchestrator action returned.
type actionDoneMsg struct{}

// sessionItem is a list item for the history view
type sessionItem struct {
	id, title, when, level string
}

func (i sessionItem) Title() string       { return i.title }
func (i sessionItem) Description() string { return fmt.Sprintf("%s · %s", i.when, i.level) }
func (i sessionItem) FilterValue() string { return i.title }

// Model is the main model for the interactive interface
type Model struct {
	// UI Components
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	list     list.Model
	styles   ui.Styles
	renderer *glamour.TermRenderer

	// Backend
	orch *orchestrator.Orchestrator

	// Latest orchestrator snapshot; the single source of render truth.
	state types.AppState

	viewMode ViewMode
	width    int
	height   int
	ready    bool
}

// New creates the interactive model.
func New(orch *orchestrator.Orchestrator) Model {
	styles := ui.DefaultStyles()

	ta := textarea.New()
	ta.Placeholder = "Describe a concept to explore... (Enter to analyze, Tab to change level)"
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	delegate := list.NewDefaultDelegate()
	ls := list.New(nil, delegate, 0, 0)
	ls.Title = "Exploration History"
	ls.SetShowStatusBar(false)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return Model{
		textarea: ta,
		spinner:  sp,
		list:     ls,
		styles:   styles,
		renderer: renderer,
		orch:     orch,
		state:    orch.Snapshot(),
		viewMode: InputView,
	}
}

// Init starts the blink and spinner tickers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.spinner.Tick)
}

// refreshState re-snapshots the orchestrator and keeps derived UI state in
// sync: history items, the active view, and the rendered viewport.
func (m *Model) refreshState() {
	m.state = m.orch.Snapshot()

	// History list shows newest first.
	items := make([]list.Item, len(m.state.Sessions))
	for i, s := range m.state.Sessions {
		items[len(m.state.Sessions)-1-i] = sessionItem{
			id:    s.ID,
			title: s.Result.SummaryTitle,
			when:  s.CreatedAt.Format(time.Kitchen),
			level: string(s.Level),
		}
	}
	m.list.SetItems(items)

	if m.viewMode != HistoryView {
		if m.state.CurrentSessionID != "" {
			m.viewMode = ResultView
			m.textarea.Placeholder = "Ask a follow-up question... (Enter to send)"
		} else {
			m.viewMode = InputView
			m.textarea.Placeholder = "Describe a concept to explore... (Enter to analyze, Tab to change level)"
		}
	}

	if m.ready {
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoBottom()
	}
}

func (m Model) newViewport(width, height int) viewport.Model {
	return viewport.New(width, height)
}

// busy reports whether any operation is in flight.
func (m Model) busy() bool {
	return m.state.IsAnalyzing || m.state.IsGeneratingImage ||
		m.state.IsGeneratingVideo || m.state.IsChatting
}
