package tui

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

type fakeDaemon struct {
	frame   tiling.Frame
	down    bool
	actions []string
}

func (f *fakeDaemon) GetFrame() (*tiling.Frame, error) {
	if f.down {
		return nil, errors.New("daemon down")
	}
	return &f.frame, nil
}

func (f *fakeDaemon) GetStatus() (*ipc.StatusData, error) {
	if f.down {
		return nil, errors.New("daemon down")
	}
	return &ipc.StatusData{Backend: "headless", Focused: 2, Engine: tiling.Stats{Tiles: 2}}, nil
}

func (f *fakeDaemon) Action(text string) (*ipc.ActionResult, error) {
	f.actions = append(f.actions, text)
	if text == "fullscreen-toggle" {
		return nil, errors.New("daemon error: nothing focused")
	}
	return &ipc.ActionResult{Action: text}, nil
}

func twoWindowFrame() tiling.Frame {
	return tiling.Frame{Outputs: []tiling.OutputFrame{
		{
			Output: "A",
			Rect:   tiling.Rect{Width: 1000, Height: 500},
			Elements: []tiling.Element{
				{Window: 1, Rect: tiling.Rect{X: 0, Y: 0, Width: 500, Height: 500}, Opacity: 1, Scale: 1},
				{Window: 2, Rect: tiling.Rect{X: 500, Y: 0, Width: 500, Height: 500}, Opacity: 1, Scale: 1, Focused: true},
			},
		},
		{Output: "B", Rect: tiling.Rect{X: 1000, Width: 800, Height: 600}},
	}}
}

func TestRenderOutput(t *testing.T) {
	of := twoWindowFrame().Outputs[0]
	lines := renderOutput(of, 40, 10)
	if len(lines) != 10 {
		t.Fatalf("got %d lines, want 10", len(lines))
	}
	for i, l := range lines {
		if n := utf8.RuneCountInString(l); n != 40 {
			t.Fatalf("line %d has %d runes, want 40", i, n)
		}
	}
	all := strings.Join(lines, "\n")
	if !strings.Contains(all, "*2") {
		t.Fatalf("focused window label missing:\n%s", all)
	}
	if !strings.Contains(all, " 1 ") {
		t.Fatalf("window 1 label missing:\n%s", all)
	}
	if !strings.ContainsRune(all, '┏') || !strings.ContainsRune(all, '┌') {
		t.Fatalf("expected heavy box for focused and thin box for the other:\n%s", all)
	}
}

func TestRenderOutput_OffscreenEdgesStayOpen(t *testing.T) {
	of := tiling.OutputFrame{
		Output: "A",
		Rect:   tiling.Rect{Width: 1000, Height: 500},
		Elements: []tiling.Element{
			{Window: 3, Rect: tiling.Rect{X: -300, Y: 0, Width: 600, Height: 500}, Opacity: 1},
		},
	}
	lines := renderOutput(of, 40, 10)
	if strings.ContainsRune(strings.Join(lines, ""), '┌') {
		t.Fatalf("left corner drawn for a window scrolled off the left edge")
	}
}

func TestRenderOutput_TooSmall(t *testing.T) {
	lines := renderOutput(twoWindowFrame().Outputs[0], 3, 2)
	if len(lines) != 2 || strings.TrimSpace(strings.Join(lines, "")) != "" {
		t.Fatalf("expected blank canvas, got %q", lines)
	}
}

func TestSummarizeOutput(t *testing.T) {
	fr := twoWindowFrame()
	if got := summarizeOutput(fr.Outputs[0]); got != "2 windows • 500 px wide" {
		t.Fatalf("summary = %q", got)
	}
	if got := summarizeOutput(fr.Outputs[1]); got != "empty" {
		t.Fatalf("summary = %q", got)
	}
}

func TestKeyActionsParse(t *testing.T) {
	for key, text := range keyActions {
		if _, err := actions.Parse(text); err != nil {
			t.Errorf("key %q maps to invalid action %q: %v", key, text, err)
		}
	}
}

func TestModel_SnapshotAndKeys(t *testing.T) {
	d := &fakeDaemon{frame: twoWindowFrame()}
	var m tea.Model = newModel(d, DefaultRefresh)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	msg := newModel(d, DefaultRefresh).fetch()()
	m, _ = m.Update(msg)
	view := m.View()
	if !strings.Contains(view, "headless") || !strings.Contains(view, "1:A") || !strings.Contains(view, "2:B") {
		t.Fatalf("unexpected view:\n%s", view)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.(model).selected; got != 1 {
		t.Fatalf("selected = %d after tab, want 1", got)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if got := m.(model).selected; got != 0 {
		t.Fatalf("selected = %d after wrapping, want 0", got)
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	if cmd == nil {
		t.Fatalf("expected a command for 'l'")
	}
	m, _ = m.Update(cmd())
	if len(d.actions) != 1 || d.actions[0] != "focus-column-right" {
		t.Fatalf("actions sent: %v", d.actions)
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m, _ = m.Update(cmd())
	if !strings.Contains(m.View(), "nothing focused") {
		t.Fatalf("action error not shown:\n%s", m.View())
	}
}

func TestModel_DaemonDown(t *testing.T) {
	d := &fakeDaemon{down: true}
	var m tea.Model = newModel(d, DefaultRefresh)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	m, _ = m.Update(newModel(d, DefaultRefresh).fetch()())
	if !strings.Contains(m.View(), "daemon not running") {
		t.Fatalf("expected disconnected status:\n%s", m.View())
	}
}
