package palette

import (
	"errors"
	"strings"
	"testing"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

func testTree() *tiling.Tree {
	return &tiling.Tree{Outputs: []tiling.OutputNode{
		{Name: "DP-1", Focused: true, Workspaces: []tiling.WorkspaceNode{
			{Index: 0, Name: "web", Active: true},
			{Index: 1},
		}},
		{Name: "HDMI-1", Workspaces: []tiling.WorkspaceNode{{Index: 0, Name: "chat", Active: true}}},
	}}
}

func TestBuildMenu_ActionsParse(t *testing.T) {
	for _, item := range BuildMenu(testTree()) {
		if item.IsHeader {
			continue
		}
		if _, err := actions.Parse(item.Action); err != nil {
			t.Errorf("%q: %v", item.Label, err)
		}
	}
}

func TestBuildMenu_TreeEntries(t *testing.T) {
	items := BuildMenu(testTree())
	want := map[string]bool{
		"switch-workspace web":            true,
		"switch-workspace chat":           false,
		"switch-output DP-1":              true,
		"switch-output HDMI-1":            false,
		"move-workspace-to-output HDMI-1": false,
	}
	found := map[string]bool{}
	for _, item := range items {
		if active, ok := want[item.Action]; ok {
			found[item.Action] = true
			if item.IsActive != active {
				t.Errorf("%s: active = %v, want %v", item.Action, item.IsActive, active)
			}
		}
	}
	for action := range want {
		if !found[action] {
			t.Errorf("missing %q", action)
		}
	}

	for _, item := range BuildMenu(&tiling.Tree{Outputs: []tiling.OutputNode{{Name: "A"}}}) {
		if strings.HasPrefix(item.Action, "switch-output") {
			t.Fatalf("single output should not list outputs")
		}
	}
}

type fakeBackend struct {
	results []Item
	err     error
	shown   int
}

func (f *fakeBackend) Show(prompt string, items []Item) (Item, error) {
	if f.err != nil {
		return Item{}, f.err
	}
	r := f.results[f.shown]
	f.shown++
	return r, nil
}

type fakeDaemon struct {
	ran  []string
	fail bool
}

func (f *fakeDaemon) GetTree() (*tiling.Tree, error) { return testTree(), nil }

func (f *fakeDaemon) Action(text string) (*ipc.ActionResult, error) {
	if f.fail {
		return nil, errors.New("daemon error: nothing focused")
	}
	f.ran = append(f.ran, text)
	return &ipc.ActionResult{Action: text}, nil
}

func TestRun_SkipsHeaders(t *testing.T) {
	b := &fakeBackend{results: []Item{
		{Label: "Focus", IsHeader: true},
		{Label: "Center column", Action: "center-column"},
	}}
	d := &fakeDaemon{}
	got, err := Run(b, d)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "center-column" || b.shown != 2 || len(d.ran) != 1 {
		t.Fatalf("got %q after %d shows, ran %v", got, b.shown, d.ran)
	}
}

func TestRun_Errors(t *testing.T) {
	if _, err := Run(&fakeBackend{err: ErrCancelled}, &fakeDaemon{}); !IsCancelled(err) {
		t.Fatalf("expected cancel, got %v", err)
	}
	b := &fakeBackend{results: []Item{{Label: "Close", Action: "close-window"}}}
	if _, err := Run(b, &fakeDaemon{fail: true}); err == nil || !strings.Contains(err.Error(), "close-window") {
		t.Fatalf("expected action error, got %v", err)
	}
}

func TestLauncher_Rofi(t *testing.T) {
	l := newLauncher(kindRofi)
	var gotArgs []string
	var gotInput string
	l.run = func(name string, args []string, stdin string) (string, error) {
		if name != "rofi" {
			t.Fatalf("ran %q", name)
		}
		gotArgs, gotInput = args, stdin
		return "2\n", nil
	}
	items := []Item{
		{Label: "Focus", IsHeader: true},
		{Label: "Left <", Action: "focus-column-left", Meta: "prev"},
		{Label: "Right", Action: "focus-column-right", IsActive: true},
	}
	got, err := l.Show("scrolltile", items)
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if got.Action != "focus-column-right" {
		t.Fatalf("selected %q", got.Action)
	}
	if !containsArgs(gotArgs, "-format", "i") || !containsArgs(gotArgs, "-a", "2") || !containsArgs(gotArgs, "-selected-row", "2") {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	lines := strings.Split(gotInput, "\n")
	if lines[0] != "<b>Focus</b>\x00nonselectable\x1ftrue" {
		t.Fatalf("header row %q", lines[0])
	}
	if lines[1] != "Left &lt;\x00meta\x1fprev" {
		t.Fatalf("item row %q", lines[1])
	}
}

func TestLauncher_DmenuMatchesByLabel(t *testing.T) {
	l := newLauncher(kindDmenu)
	var input string
	l.run = func(name string, args []string, stdin string) (string, error) {
		input = stdin
		return "Dup (2)\n", nil
	}
	got, err := l.Show("p", []Item{
		{Label: "Dup", Action: "a"},
		{Label: "Dup", Action: "b"},
	})
	if err != nil {
		t.Fatalf("Show: %v", err)
	}
	if got.Action != "b" {
		t.Fatalf("selected %q, want b", got.Action)
	}
	if input != "Dup\nDup (2)" {
		t.Fatalf("input %q", input)
	}
}

func TestLauncher_Cancelled(t *testing.T) {
	l := newLauncher(kindFuzzel)
	l.run = func(string, []string, string) (string, error) { return "  \n", nil }
	if _, err := l.Show("p", []Item{{Label: "x", Action: "x"}}); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	l.run = func(string, []string, string) (string, error) { return "7", nil }
	if _, err := l.Show("p", []Item{{Label: "x", Action: "x"}}); err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestNewBackend_Unknown(t *testing.T) {
	if _, err := NewBackend("zenity"); err == nil || !strings.Contains(err.Error(), "unknown palette backend") {
		t.Fatalf("expected unknown backend error, got %v", err)
	}
}

func containsArgs(args []string, key, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == key && args[i+1] == value {
			return true
		}
	}
	return false
}
