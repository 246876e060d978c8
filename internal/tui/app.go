package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

// keyActions maps keys to the action text sent to the daemon.
var keyActions = map[string]string{
	"h":     "focus-column-left",
	"left":  "focus-column-left",
	"l":     "focus-column-right",
	"right": "focus-column-right",
	"j":     "focus-window-down",
	"down":  "focus-window-down",
	"k":     "focus-window-up",
	"up":    "focus-window-up",
	"H":     "move-column-left",
	"L":     "move-column-right",
	"c":     "center-column",
	"f":     "fullscreen-toggle",
}

type tickMsg time.Time

type snapshotMsg struct {
	frame  *tiling.Frame
	status *ipc.StatusData
	err    error
}

type actionMsg struct {
	err error
}

// model is the root bubbletea model for the watch view.
type model struct {
	daemon  Daemon
	refresh time.Duration

	frame     *tiling.Frame
	status    *ipc.StatusData
	err       error
	actionErr string
	selected  int

	width  int
	height int
}

func newModel(d Daemon, refresh time.Duration) model {
	return model{daemon: d, refresh: refresh}
}

func (m model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) fetch() tea.Cmd {
	d := m.daemon
	return func() tea.Msg {
		st, err := d.GetStatus()
		if err != nil {
			return snapshotMsg{err: err}
		}
		fr, err := d.GetFrame()
		return snapshotMsg{frame: fr, status: st, err: err}
	}
}

func (m model) run(action string) tea.Cmd {
	d := m.daemon
	return func() tea.Msg {
		_, err := d.Action(action)
		return actionMsg{err: err}
	}
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.tick())
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if n := m.outputCount(); n > 0 {
				m.selected = (m.selected + 1) % n
			}
			return m, nil
		case "shift+tab":
			if n := m.outputCount(); n > 0 {
				m.selected = (m.selected - 1 + n) % n
			}
			return m, nil
		}
		if action, ok := keyActions[key]; ok {
			return m, m.run(action)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		return m, tea.Batch(m.fetch(), m.tick())

	case snapshotMsg:
		m.err = msg.err
		if msg.err == nil {
			m.frame = msg.frame
			m.status = msg.status
			if m.selected >= m.outputCount() {
				m.selected = 0
			}
		}

	case actionMsg:
		m.actionErr = ""
		if msg.err != nil {
			m.actionErr = msg.err.Error()
		}
		return m, m.fetch()
	}
	return m, nil
}

func (m model) outputCount() int {
	if m.frame == nil {
		return 0
	}
	return len(m.frame.Outputs)
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	statusBar := renderStatusBar(m.status, m.err, m.width)
	var outputs []tiling.OutputFrame
	if m.frame != nil && m.err == nil {
		outputs = m.frame.Outputs
	}
	outputBar := renderOutputBar(outputs, m.selected, m.width)
	helpBar := renderHelpBar(m.actionErr, m.width)

	usedHeight := lipgloss.Height(statusBar) + lipgloss.Height(outputBar) + lipgloss.Height(helpBar) + 1
	canvasHeight := max(m.height-usedHeight, 1)

	var summary string
	var canvas []string
	if m.selected < len(outputs) {
		of := outputs[m.selected]
		summary = summarizeOutput(of)
		canvas = renderOutput(of, m.width, canvasHeight)
	} else {
		canvas = emptyCanvas(m.width, canvasHeight)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		statusBar,
		outputBar,
		summary,
		strings.Join(canvas, "\n"),
		helpBar,
	)
}
