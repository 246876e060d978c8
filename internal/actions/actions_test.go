package actions

import (
	"errors"
	"testing"
	"time"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Action
	}{
		{in: "focus-column-right", want: Action{Name: FocusColumnRight}},
		{in: "  Focus-Column   3 ", want: Action{Name: FocusColumn, Index: 3}},
		{in: "focus-window 0x1a", want: Action{Name: FocusWindow, Window: 0x1a}},
		{in: "resize width -10%", want: Action{Name: Resize, Axis: AxisWidth, Size: tiling.SizeChange{Kind: tiling.AdjustProportion, Proportion: -0.1}}},
		{in: "resize height 300", want: Action{Name: Resize, Axis: AxisHeight, Size: tiling.SizeChange{Kind: tiling.SetPixels, Pixels: 300}}},
		{in: "resize width +40", want: Action{Name: Resize, Axis: AxisWidth, Size: tiling.SizeChange{Kind: tiling.AdjustPixels, Pixels: 40}}},
		{in: "resize width auto", want: Action{Name: Resize, Axis: AxisWidth, Size: tiling.SizeChange{Kind: tiling.SetAuto}}},
		{in: "move-window-to-workspace down", want: Action{Name: MoveWindowToWorkspace, Workspace: tiling.WorkspaceRef{Relative: 1}}},
		{in: "switch-workspace 2", want: Action{Name: SwitchWorkspace, Workspace: tiling.WorkspaceRef{Index: 2}}},
		{in: "switch-workspace -2", want: Action{Name: SwitchWorkspace, Workspace: tiling.WorkspaceRef{Relative: -2}}},
		{in: "switch-workspace web", want: Action{Name: SwitchWorkspace, Workspace: tiling.WorkspaceRef{Name: "web"}}},
		{in: "create-workspace my notes", want: Action{Name: CreateWorkspace, Target: "my notes"}},
		{in: "switch-output left", want: Action{Name: SwitchOutput, Target: "left"}},
		{in: "insert-hint 7 stack-below", want: Action{Name: InsertHint, Window: 7, Hint: tiling.InsertStackBelow}},
		{in: "fullscreen-toggle", want: Action{Name: FullscreenToggle}},
		{in: "close-window 12", want: Action{Name: CloseWindow, Window: 12}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Name != tt.want.Name || got.Index != tt.want.Index || got.Window != tt.want.Window ||
				got.Workspace != tt.want.Workspace || got.Target != tt.want.Target || got.Axis != tt.want.Axis ||
				got.Hint != tt.want.Hint || got.Size.Kind != tt.want.Size.Kind || got.Size.Pixels != tt.want.Size.Pixels {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if d := got.Size.Proportion - tt.want.Size.Proportion; d > 1e-12 || d < -1e-12 {
				t.Fatalf("expected proportion %v, got %v", tt.want.Size.Proportion, got.Size.Proportion)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		in   string
		want error
	}{
		{in: "", want: ErrNoSuchAction},
		{in: "explode", want: ErrNoSuchAction},
		{in: "focus-column", want: ErrBadArgument},
		{in: "focus-column 0", want: ErrBadArgument},
		{in: "focus-column-left now", want: ErrBadArgument},
		{in: "resize depth 10", want: ErrBadArgument},
		{in: "resize width 150%", want: ErrBadArgument},
		{in: "resize width wide", want: ErrBadArgument},
		{in: "insert-hint 3 sideways", want: ErrBadArgument},
		{in: "focus-window abc", want: ErrBadArgument},
		{in: "switch-workspace +0", want: ErrBadArgument},
		{in: "close-window 1 2", want: ErrBadArgument},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := Parse(tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAction_StringRoundTrips(t *testing.T) {
	for _, in := range []string{
		"focus-column 3",
		"resize width -10%",
		"resize height 300",
		"move-column-to-workspace +2",
		"insert-hint 7 stack-above",
		"close-window",
		"switch-output HDMI-1",
	} {
		a, err := Parse(in)
		if err != nil {
			t.Fatalf("parse %q: %v", in, err)
		}
		if got := a.String(); got != in {
			t.Fatalf("expected %q, got %q", in, got)
		}
	}
}

func TestNamesCoverTable(t *testing.T) {
	names := Names()
	if len(names) != len(table) {
		t.Fatalf("expected %d names, got %d", len(table), len(names))
	}
	for _, n := range names {
		if _, err := Parse(n); errors.Is(err, ErrNoSuchAction) {
			t.Fatalf("listed name %q does not parse", n)
		}
	}
}

func newEngine(t *testing.T) *tiling.Engine {
	t.Helper()
	opts := tiling.DefaultOptions()
	opts.Gap = 0
	opts.MinColumnWidth = 50
	opts.MinTileHeight = 50
	opts.Animations = tiling.Animations{ConfigureTimeout: 250 * time.Millisecond}
	e := tiling.New(opts, nil)
	e.AddOutput("A", tiling.Size{Width: 1200, Height: 800}, 60000)
	for id := tiling.WindowID(1); id <= 3; id++ {
		if err := e.MapWindow(tiling.WindowInfo{ID: id, Size: tiling.Size{Width: 100, Height: 100}}, tiling.Placement{}); err != nil {
			t.Fatalf("map %d: %v", id, err)
		}
	}
	return e
}

func TestRun_DrivesEngine(t *testing.T) {
	e := newEngine(t)

	if _, err := Run(e, "focus-column 2"); err != nil {
		t.Fatalf("focus-column: %v", err)
	}
	if id, _ := e.Focused(); id != 2 {
		t.Fatalf("expected window 2 focused, got %d", id)
	}

	if _, err := Run(e, "resize width 300"); err != nil {
		t.Fatalf("resize: %v", err)
	}
	cols := e.Tree().Outputs[0].Workspaces[0].Columns
	if cols[0].Width != 450 || cols[1].Width != 300 || cols[2].Width != 450 {
		t.Fatalf("expected 450/300/450, got %d/%d/%d", cols[0].Width, cols[1].Width, cols[2].Width)
	}

	if _, err := Run(e, "move-window-to-workspace down"); err != nil {
		t.Fatalf("move-window-to-workspace: %v", err)
	}
	ws := e.Tree().Outputs[0].Workspaces
	if !ws[1].Active || len(ws[1].Columns) != 1 || ws[1].Columns[0].Tiles[0].Window != 2 {
		t.Fatalf("expected window 2 alone on workspace 2, got %+v", ws[1])
	}

	if _, err := Run(e, "switch-workspace up"); err != nil {
		t.Fatalf("switch-workspace: %v", err)
	}
	if _, err := Run(e, "consume-window-left"); err != nil {
		t.Fatalf("consume-window-left: %v", err)
	}
	if got := len(e.Tree().Outputs[0].Workspaces[0].Columns); got != 1 {
		t.Fatalf("expected one column after consume, got %d", got)
	}
}

func TestRun_ReportsEngineErrors(t *testing.T) {
	e := newEngine(t)

	if _, err := Run(e, "focus-column 9"); !errors.Is(err, tiling.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if _, err := Run(e, "switch-output nowhere"); !errors.Is(err, tiling.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
	if _, err := Run(e, "spin"); !errors.Is(err, ErrNoSuchAction) {
		t.Fatalf("expected ErrNoSuchAction, got %v", err)
	}

	empty := tiling.New(tiling.DefaultOptions(), nil)
	empty.AddOutput("A", tiling.Size{Width: 800, Height: 600}, 60000)
	if _, err := Run(empty, "expel-window"); !errors.Is(err, tiling.ErrNothingFocused) {
		t.Fatalf("expected ErrNothingFocused, got %v", err)
	}
}
