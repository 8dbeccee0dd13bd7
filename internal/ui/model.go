package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/moor/internal/logstream"
	"github.com/five82/moor/internal/resource"
	"github.com/five82/moor/internal/state"
)

type pane int

const (
	paneContainers pane = iota
	paneImages
	paneVolumes
	paneLogs
	paneCount
)

// kind returns the entity kind listed in p.
func (p pane) kind() (resource.Kind, bool) {
	switch p {
	case paneContainers:
		return resource.KindContainer, true
	case paneImages:
		return resource.KindImage, true
	case paneVolumes:
		return resource.KindVolume, true
	default:
		return 0, false
	}
}

const (
	defaultWidth  = 120
	defaultHeight = 36
)

// changedMsg reports that the engine published new state.
type changedMsg struct{}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return changedMsg{}
	}
}

// Model is the dashboard's bubbletea model. It renders engine state and
// forwards user intents; it owns no dashboard state beyond focus and layout.
type Model struct {
	engine Engine
	opts   Options
	keys   keyMap

	focus pane
	snap  state.Snapshot
	logs  logstream.View

	viewport     viewport.Model
	input        textinput.Model
	filtering    bool
	filterTarget string

	err           error
	width, height int
}

// New builds a Model showing the engine's current state.
func New(engine Engine, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "filter: "
	ti.Placeholder = "substring"
	ti.CharLimit = 256

	m := Model{
		engine:   engine,
		opts:     opts,
		keys:     defaultKeyMap(),
		viewport: viewport.New(defaultWidth, defaultHeight),
		input:    ti,
		width:    defaultWidth,
		height:   defaultHeight,
	}
	m.resize()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForChange(m.engine.Changes())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.syncViewport()
		return m, nil

	case changedMsg:
		m.refresh()
		return m, waitForChange(m.engine.Changes())

	case tea.KeyMsg:
		if m.filtering {
			return m.handleFilterKey(msg)
		}
		return m.handleKey(msg)
	}

	if m.filtering {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextPane):
		m.focus = (m.focus + 1) % paneCount

	case key.Matches(msg, m.keys.PrevPane):
		m.focus = (m.focus + paneCount - 1) % paneCount

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		if m.focus == paneLogs {
			return m.scrollLogs(msg)
		}
		delta := 1
		if key.Matches(msg, m.keys.Up) {
			delta = -1
		}
		kind, _ := m.focus.kind()
		m.err = m.engine.Move(kind, delta)
		m.refresh()

	case key.Matches(msg, m.keys.Filter):
		id := m.snap.Containers.Selected
		if id == "" {
			return m, nil
		}
		m.filtering = true
		m.filterTarget = id
		m.input.SetValue(m.snap.Filter(id))
		m.input.CursorEnd()
		cmd := m.input.Focus()
		return m, cmd

	case key.Matches(msg, m.keys.Pause):
		m.engine.PauseLogs()
		m.refresh()

	case key.Matches(msg, m.keys.Resume):
		m.engine.ResumeLogs()
		m.refresh()

	default:
		if m.focus == paneLogs {
			return m.scrollLogs(msg)
		}
	}
	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit

	case key.Matches(msg, m.keys.Apply):
		m.engine.SetFilter(m.filterTarget, m.input.Value())
		m.endFilter()
		m.refresh()
		return m, nil

	case key.Matches(msg, m.keys.Cancel):
		m.engine.SetFilter(m.filterTarget, "")
		m.endFilter()
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) endFilter() {
	m.filtering = false
	m.filterTarget = ""
	m.input.Blur()
	m.input.SetValue("")
}

// scrollLogs hands a key to the log viewport and tells the engine whether
// the view still follows the end of the log.
func (m Model) scrollLogs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	sticky := m.viewport.AtBottom()
	m.engine.SetSticky(sticky)
	m.logs.Sticky = sticky
	return m, cmd
}

func (m *Model) refresh() {
	m.snap = m.engine.Snapshot()
	m.logs = m.engine.Logs()
	m.syncViewport()
}

func (m *Model) syncViewport() {
	m.viewport.SetContent(m.logs.Text)
	if m.logs.Sticky {
		m.viewport.GotoBottom()
	}
}

func (m *Model) resize() {
	_, right := m.columnWidths()
	// Header, footer, pane borders, log title and filter line.
	m.viewport.Width = max(right-4, 10)
	m.viewport.Height = max(m.height-8, 3)
	m.input.Width = max(right-len(m.input.Prompt)-6, 10)
}

func (m Model) columnWidths() (left, right int) {
	left = max(m.width/3, 28)
	right = max(m.width-left, 20)
	return left, right
}
