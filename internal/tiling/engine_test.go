package tiling

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/1broseidon/scrolltile/internal/animation"
)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Gap = 0
	opts.MinColumnWidth = 50
	opts.MinTileHeight = 50
	opts.Animations = Animations{ConfigureTimeout: 250 * time.Millisecond}
	return opts
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e := New(opts, nil)
	e.AddOutput("A", Size{Width: 1200, Height: 800}, 60000)
	return e
}

func mapWindow(t *testing.T, e *Engine, id WindowID, pl Placement) {
	t.Helper()
	if err := e.MapWindow(WindowInfo{ID: id, Size: Size{Width: 100, Height: 100}}, pl); err != nil {
		t.Fatalf("map window %d: %v", id, err)
	}
}

func ackAll(t *testing.T, e *Engine) {
	t.Helper()
	for _, req := range e.TakeConfigures() {
		if err := e.AckConfigure(req.Window, req.Serial); err != nil {
			t.Fatalf("ack %d: %v", req.Window, err)
		}
	}
}

func mustVerify(t *testing.T, e *Engine) {
	t.Helper()
	if err := e.Verify(); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}
}

func activeWorkspace(t *testing.T, e *Engine) WorkspaceNode {
	t.Helper()
	for _, on := range e.Tree().Outputs {
		if !on.Focused {
			continue
		}
		for _, wn := range on.Workspaces {
			if wn.Active {
				return wn
			}
		}
	}
	t.Fatalf("no active workspace")
	return WorkspaceNode{}
}

func columnWidths(wn WorkspaceNode) []int {
	out := make([]int, len(wn.Columns))
	for i, c := range wn.Columns {
		out[i] = c.Width
	}
	return out
}

func elementFor(f Frame, id WindowID) (Element, bool) {
	for _, of := range f.Outputs {
		for _, el := range of.Elements {
			if el.Window == id {
				return el, true
			}
		}
	}
	return Element{}, false
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestEngine_ThreeWindowsShareWidthEqually(t *testing.T) {
	e := newTestEngine(t, testOptions())
	for id := WindowID(1); id <= 3; id++ {
		mapWindow(t, e, id, Placement{})
	}
	mustVerify(t, e)

	got := columnWidths(activeWorkspace(t, e))
	if !equalInts(got, []int{400, 400, 400}) {
		t.Fatalf("expected 400/400/400, got %v", got)
	}
	if id, ok := e.Focused(); !ok || id != 3 {
		t.Fatalf("expected newest window focused, got %d %v", id, ok)
	}
}

func TestEngine_ResizeRenormalisesSiblings(t *testing.T) {
	e := newTestEngine(t, testOptions())
	for id := WindowID(1); id <= 3; id++ {
		mapWindow(t, e, id, Placement{})
	}
	if err := e.FocusColumn(2); err != nil {
		t.Fatalf("focus column: %v", err)
	}
	if err := e.ResizeColumn(SizeChange{Kind: SetPixels, Pixels: 300}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	mustVerify(t, e)

	wn := activeWorkspace(t, e)
	if got := columnWidths(wn); !equalInts(got, []int{450, 300, 450}) {
		t.Fatalf("expected 450/300/450, got %v", got)
	}
	if wn.Columns[0].Policy != "50.0%" || wn.Columns[2].Policy != "50.0%" {
		t.Fatalf("expected siblings renormalised to 1/2, got %q and %q", wn.Columns[0].Policy, wn.Columns[2].Policy)
	}
}

func TestEngine_ResizeProportion(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})

	if err := e.ResizeColumn(SizeChange{Kind: SetProportion, Proportion: 0.75}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if got := columnWidths(activeWorkspace(t, e)); !equalInts(got, []int{300, 900}) {
		t.Fatalf("expected 300/900, got %v", got)
	}

	if err := e.ResizeColumn(SizeChange{Kind: AdjustProportion, Proportion: -0.25}); err != nil {
		t.Fatalf("resize: %v", err)
	}
	if got := columnWidths(activeWorkspace(t, e)); !equalInts(got, []int{600, 600}) {
		t.Fatalf("expected 600/600, got %v", got)
	}
	mustVerify(t, e)
}

func TestEngine_WeightsStayNormalised(t *testing.T) {
	e := newTestEngine(t, testOptions())
	next := WindowID(1)
	var mapped []WindowID
	for round := 0; round < 6; round++ {
		for i := 0; i < 3; i++ {
			mapWindow(t, e, next, Placement{})
			mapped = append(mapped, next)
			next++
			mustVerify(t, e)
		}
		// Remove the oldest remaining window.
		if err := e.UnmapWindow(mapped[0]); err != nil {
			t.Fatalf("unmap: %v", err)
		}
		mapped = mapped[1:]
		mustVerify(t, e)

		if round%2 == 1 {
			if err := e.ResizeColumn(SizeChange{Kind: SetProportion, Proportion: 0.2}); err != nil {
				t.Fatalf("resize: %v", err)
			}
			mustVerify(t, e)
		}
	}
}

func TestEngine_ViewOffsetStaysClamped(t *testing.T) {
	opts := testOptions()
	opts.Gap = 8
	opts.MinColumnWidth = 400

	for _, width := range []int{800, 1000, 1920} {
		e := New(opts, nil)
		e.AddOutput("A", Size{Width: width, Height: 600}, 60000)
		for id := WindowID(1); id <= 5; id++ {
			mapWindow(t, e, id, Placement{})
		}

		steps := []func() error{
			e.FocusColumnFirst,
			e.FocusColumnRight,
			e.FocusColumnLast,
			e.FocusColumnLeft,
			e.CenterColumn,
			func() error { return e.FocusColumn(3) },
			func() error { return e.ResizeColumn(SizeChange{Kind: AdjustPixels, Pixels: 300}) },
			e.MoveColumnFirst,
		}
		for i, step := range steps {
			if err := step(); err != nil {
				t.Fatalf("width %d step %d: %v", width, i, err)
			}
			wn := activeWorkspace(t, e)
			limit := float64(max(0, wn.Width-width))
			if wn.ViewOffset < 0 || wn.ViewOffset > limit {
				t.Fatalf("width %d step %d: offset %v outside [0, %v]", width, i, wn.ViewOffset, limit)
			}
			// The active column must intersect the viewport.
			for _, c := range wn.Columns {
				if !c.Active {
					continue
				}
				left := float64(c.X) - wn.ViewOffset
				if left+float64(c.Width) <= 0 || left >= float64(width) {
					t.Fatalf("width %d step %d: active column at %v not visible", width, i, left)
				}
			}
		}
	}
}

func TestEngine_ViewScrollsToLastColumn(t *testing.T) {
	opts := testOptions()
	opts.Gap = 8
	opts.MinColumnWidth = 400
	e := New(opts, nil)
	e.AddOutput("A", Size{Width: 1000, Height: 600}, 60000)
	for id := WindowID(1); id <= 5; id++ {
		mapWindow(t, e, id, Placement{})
	}

	// Five 400px columns with 8px gaps: 8 + 5*408 = 2048.
	wn := activeWorkspace(t, e)
	if wn.Width != 2048 {
		t.Fatalf("expected strip width 2048, got %d", wn.Width)
	}
	if wn.ViewOffset != 1048 {
		t.Fatalf("expected view at 1048, got %v", wn.ViewOffset)
	}

	if err := e.FocusColumnFirst(); err != nil {
		t.Fatalf("focus first: %v", err)
	}
	if wn := activeWorkspace(t, e); wn.ViewOffset != 0 {
		t.Fatalf("expected view at 0, got %v", wn.ViewOffset)
	}
}

func TestEngine_OwnershipIsUniqueAcrossMoves(t *testing.T) {
	e := newTestEngine(t, testOptions())
	for id := WindowID(1); id <= 4; id++ {
		mapWindow(t, e, id, Placement{})
	}

	ops := []func() error{
		e.ConsumeWindowLeft,
		e.MoveWindowUp,
		e.ExpelWindow,
		e.MoveColumnLeft,
		func() error { return e.MoveWindowToWorkspace(WorkspaceRef{Relative: 1}) },
		func() error { return e.SwitchWorkspace(WorkspaceRef{Index: 1}) },
		func() error { return e.MoveColumnToWorkspace(WorkspaceRef{Relative: 1}) },
		func() error { return e.SwitchWorkspace(WorkspaceRef{Index: 1}) },
		e.ConsumeWindowRight,
		e.MoveColumnLast,
	}
	for i, op := range ops {
		if err := op(); err != nil {
			t.Fatalf("op %d: %v", i, err)
		}
		mustVerify(t, e)

		seen := map[WindowID]int{}
		for _, on := range e.Tree().Outputs {
			for _, wn := range on.Workspaces {
				for _, c := range wn.Columns {
					for _, tn := range c.Tiles {
						seen[tn.Window]++
					}
				}
			}
		}
		for id := WindowID(1); id <= 4; id++ {
			if seen[id] != 1 {
				t.Fatalf("op %d: window %d appears %d times", i, id, seen[id])
			}
		}
	}
}

func TestEngine_ExpelThenConsumeRestoresGeometry(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{Insert: InsertStackBelow})

	before := activeWorkspace(t, e)
	if len(before.Columns) != 1 || len(before.Columns[0].Tiles) != 2 {
		t.Fatalf("expected one column with two tiles, got %+v", before.Columns)
	}

	if err := e.ExpelWindow(); err != nil {
		t.Fatalf("expel: %v", err)
	}
	if got := len(activeWorkspace(t, e).Columns); got != 2 {
		t.Fatalf("expected two columns after expel, got %d", got)
	}
	if err := e.ConsumeWindowLeft(); err != nil {
		t.Fatalf("consume: %v", err)
	}
	mustVerify(t, e)

	after := activeWorkspace(t, e)
	if len(after.Columns) != 1 {
		t.Fatalf("expected expelled column to be destroyed, got %d columns", len(after.Columns))
	}
	if e.Stats().Columns != 1 {
		t.Fatalf("expected one live column, got %d", e.Stats().Columns)
	}
	bc, ac := before.Columns[0], after.Columns[0]
	if bc.Width != ac.Width || bc.Policy != ac.Policy {
		t.Fatalf("column changed: before %d/%s after %d/%s", bc.Width, bc.Policy, ac.Width, ac.Policy)
	}
	for i := range bc.Tiles {
		if bc.Tiles[i].Window != ac.Tiles[i].Window || bc.Tiles[i].Rect != ac.Tiles[i].Rect {
			t.Fatalf("tile %d changed: before %+v after %+v", i, bc.Tiles[i], ac.Tiles[i])
		}
	}
}

func TestEngine_PendingTileRendersAtCommittedSize(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})

	reqs := e.TakeConfigures()
	if len(reqs) != 1 || reqs[0].Size != (Size{Width: 1200, Height: 800}) || reqs[0].Serial != 1 {
		t.Fatalf("unexpected configure requests: %+v", reqs)
	}

	committed := Size{Width: 100, Height: 100}
	check := func(step string) {
		t.Helper()
		el, ok := elementFor(e.Snapshot(e.Now()), 1)
		if !ok {
			t.Fatalf("%s: window 1 not rendered", step)
		}
		if el.Rect.Size() != committed {
			t.Fatalf("%s: expected render size %v, got %v", step, committed, el.Rect.Size())
		}
	}
	check("first request")

	// A second window changes the request while the first is in flight.
	mapWindow(t, e, 2, Placement{})
	reqs = e.TakeConfigures()
	var second ConfigureRequest
	for _, r := range reqs {
		if r.Window == 1 {
			second = r
		}
	}
	if second.Serial != 2 || second.Size.Width != 600 {
		t.Fatalf("expected serial 2 at 600px, got %+v", second)
	}
	check("second request")

	// The ack for the superseded request is stale.
	if err := e.AckConfigure(1, 1); err != nil {
		t.Fatalf("ack: %v", err)
	}
	check("stale ack")
	for i := 0; i < 3; i++ {
		e.layoutWorkspace(WorkspaceID(e.outputs[0].workspaces[0]))
		check("re-solve")
	}

	if err := e.AckConfigure(1, 2); err != nil {
		t.Fatalf("ack: %v", err)
	}
	el, _ := elementFor(e.Snapshot(e.Now()), 1)
	if el.Rect.Size() != (Size{Width: 600, Height: 800}) {
		t.Fatalf("expected 600x800 after ack, got %v", el.Rect.Size())
	}
	if e.Stats().StaleAcks != 1 {
		t.Fatalf("expected one stale ack, got %d", e.Stats().StaleAcks)
	}
}

func TestEngine_GraceTimeoutForcesCommit(t *testing.T) {
	e := New(testOptions(), nil)
	e.AddOutput("A", Size{Width: 500, Height: 800}, 60000)
	mapWindow(t, e, 1, Placement{})

	deadline, ok := e.Deadline()
	if !ok || deadline != 250*time.Millisecond {
		t.Fatalf("expected deadline at 250ms, got %v %v", deadline, ok)
	}

	e.Advance(100 * time.Millisecond)
	el, _ := elementFor(e.Snapshot(e.Now()), 1)
	if el.Rect.Width != 100 {
		t.Fatalf("expected committed width 100 before the timeout, got %d", el.Rect.Width)
	}

	e.Advance(250 * time.Millisecond)
	el, _ = elementFor(e.Snapshot(e.Now()), 1)
	if el.Rect.Width != 500 {
		t.Fatalf("expected forced width 500, got %d", el.Rect.Width)
	}
	tn := activeWorkspace(t, e).Columns[0].Tiles[0]
	if tn.Pending {
		t.Fatalf("expected tile to be settled after the grace period")
	}
	if _, ok := e.Deadline(); ok {
		t.Fatalf("expected no deadline once settled")
	}
	if got := e.Stats().ForcedCommits; got != 1 {
		t.Fatalf("expected one forced commit, got %d", got)
	}
}

func TestEngine_SetTimeStampsNewConfigures(t *testing.T) {
	e := newTestEngine(t, testOptions())
	e.SetTime(time.Second)
	e.SetTime(500 * time.Millisecond)
	mapWindow(t, e, 1, Placement{})

	if deadline, ok := e.Deadline(); !ok || deadline != time.Second+250*time.Millisecond {
		t.Fatalf("expected deadline 250ms after the clock, got %v %v", deadline, ok)
	}
	e.Advance(time.Second + 100*time.Millisecond)
	if got := e.Stats().ForcedCommits; got != 0 {
		t.Fatalf("expected no forced commit inside the grace period, got %d", got)
	}
}

func TestEngine_ClosePromotesFocusAndEmptiesWorkspace(t *testing.T) {
	opts := testOptions()
	opts.Animations.WindowClose = animation.Params{Duration: 100 * time.Millisecond, Curve: animation.CurveLinear}
	e := newTestEngine(t, opts)
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})

	if err := e.ConsumeWindowLeft(); err != nil {
		t.Fatalf("consume: %v", err)
	}
	wn := activeWorkspace(t, e)
	if len(wn.Columns) != 1 || len(wn.Columns[0].Tiles) != 2 {
		t.Fatalf("expected both windows in one column, got %+v", wn.Columns)
	}

	if err := e.UnmapWindow(1); err != nil {
		t.Fatalf("unmap 1: %v", err)
	}
	if id, ok := e.Focused(); !ok || id != 2 {
		t.Fatalf("expected focus on 2 after closing 1, got %d %v", id, ok)
	}
	if err := e.UnmapWindow(2); err != nil {
		t.Fatalf("unmap 2: %v", err)
	}
	if _, ok := e.Focused(); ok {
		t.Fatalf("expected nothing focused while both windows close")
	}
	// Closing tiles linger until their animation ends.
	if got := e.Stats().Columns; got != 1 {
		t.Fatalf("expected the closing column to linger, got %d", got)
	}
	if e.Advance(50 * time.Millisecond); e.Stats().Tiles != 2 {
		t.Fatalf("expected tiles to survive mid-animation")
	}
	e.Advance(200 * time.Millisecond)
	mustVerify(t, e)
	if got := len(activeWorkspace(t, e).Columns); got != 0 {
		t.Fatalf("expected no columns, got %d", got)
	}

	mapWindow(t, e, 3, Placement{})
	wn = activeWorkspace(t, e)
	if len(wn.Columns) != 1 || !wn.Columns[0].Active {
		t.Fatalf("expected one fresh active column, got %+v", wn.Columns)
	}
	if wn.ViewOffset != 0 {
		t.Fatalf("expected view offset 0, got %v", wn.ViewOffset)
	}
}

func TestEngine_ClosingTilesRenderOnTop(t *testing.T) {
	opts := testOptions()
	opts.Animations.WindowClose = animation.Params{Duration: 100 * time.Millisecond, Curve: animation.CurveLinear}
	e := newTestEngine(t, opts)
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})
	ackAll(t, e)

	if err := e.UnmapWindow(1); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	frame := e.Snapshot(e.Now())
	els := frame.Outputs[0].Elements
	if len(els) != 2 {
		t.Fatalf("expected two elements, got %+v", els)
	}
	last := els[len(els)-1]
	if last.Window != 1 || last.Z != 1 {
		t.Fatalf("expected closing window on top, got %+v", last)
	}
	if last.Opacity != 1 || last.Scale != 1 {
		t.Fatalf("expected close animation to start fully opaque, got %+v", last)
	}

	e.Advance(50 * time.Millisecond)
	el, _ := elementFor(e.Snapshot(e.Now()), 1)
	if math.Abs(el.Opacity-0.5) > 1e-9 || math.Abs(el.Scale-0.75) > 1e-9 {
		t.Fatalf("expected half-faded element, got %+v", el)
	}
}

func TestEngine_FullscreenTakesWholeOutput(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})
	ackAll(t, e)

	if err := e.ToggleFullscreen(0); err != nil {
		t.Fatalf("fullscreen: %v", err)
	}
	ackAll(t, e)

	el, ok := elementFor(e.Snapshot(e.Now()), 2)
	if !ok {
		t.Fatalf("fullscreen window not rendered")
	}
	if el.Rect != (Rect{X: 0, Y: 0, Width: 1200, Height: 800}) {
		t.Fatalf("expected fullscreen rect, got %+v", el.Rect)
	}

	if err := e.ToggleFullscreen(2); err != nil {
		t.Fatalf("fullscreen off: %v", err)
	}
	ackAll(t, e)
	if got := columnWidths(activeWorkspace(t, e)); !equalInts(got, []int{600, 600}) {
		t.Fatalf("expected 600/600 after leaving fullscreen, got %v", got)
	}
}

func TestEngine_InsertHintPriority(t *testing.T) {
	e := newTestEngine(t, testOptions())
	if err := e.SetInsertHint(5, InsertStackBelow); err != nil {
		t.Fatalf("insert hint: %v", err)
	}
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 5, Placement{})

	wn := activeWorkspace(t, e)
	if len(wn.Columns) != 1 || len(wn.Columns[0].Tiles) != 2 {
		t.Fatalf("pre-registered hint should stack window 5, got %+v", wn.Columns)
	}

	// A rule placement wins over the focused tile's hint.
	if err := e.SetInsertHint(0, InsertNewColumn); err != nil {
		t.Fatalf("insert hint: %v", err)
	}
	mapWindow(t, e, 6, Placement{Insert: InsertStackAbove})
	wn = activeWorkspace(t, e)
	if len(wn.Columns) != 1 {
		t.Fatalf("rule placement should stack window 6, got %d columns", len(wn.Columns))
	}
	order := []WindowID{}
	for _, tn := range wn.Columns[0].Tiles {
		order = append(order, tn.Window)
	}
	if len(order) != 3 || order[0] != 1 || order[1] != 6 || order[2] != 5 {
		t.Fatalf("expected order [1 6 5], got %v", order)
	}

	// The focused tile's hint applies when nothing else does.
	if err := e.SetInsertHint(0, InsertNewColumn); err != nil {
		t.Fatalf("insert hint: %v", err)
	}
	mapWindow(t, e, 7, Placement{})
	if got := len(activeWorkspace(t, e).Columns); got != 2 {
		t.Fatalf("expected focused hint to open a new column, got %d columns", got)
	}
	mustVerify(t, e)
}

func TestEngine_MoveWindowDownCreatesWorkspace(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})

	if err := e.MoveWindowToWorkspace(WorkspaceRef{Relative: 1}); err != nil {
		t.Fatalf("move: %v", err)
	}
	mustVerify(t, e)

	out := e.Tree().Outputs[0]
	if len(out.Workspaces) != 3 {
		t.Fatalf("expected a new trailing workspace, got %d workspaces", len(out.Workspaces))
	}
	if !out.Workspaces[1].Active {
		t.Fatalf("expected focus to follow the window to workspace 2")
	}
	if id, _ := e.Focused(); id != 2 {
		t.Fatalf("expected window 2 focused, got %d", id)
	}
	if len(out.Workspaces[2].Columns) != 0 {
		t.Fatalf("expected trailing workspace to be empty")
	}

	if err := e.SwitchWorkspace(WorkspaceRef{Index: 1}); err != nil {
		t.Fatalf("switch: %v", err)
	}
	if id, _ := e.Focused(); id != 1 {
		t.Fatalf("expected window 1 focused, got %d", id)
	}
}

func TestEngine_EmptyWorkspacesAreDropped(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	if err := e.MoveWindowToWorkspace(WorkspaceRef{Relative: 1}); err != nil {
		t.Fatalf("move: %v", err)
	}
	// Workspace 1 became empty and inactive.
	out := e.Tree().Outputs[0]
	if len(out.Workspaces) != 2 {
		t.Fatalf("expected empty workspace to be dropped, got %d workspaces", len(out.Workspaces))
	}
	if !out.Workspaces[0].Active || len(out.Workspaces[0].Columns) != 1 {
		t.Fatalf("expected the window's workspace first and active, got %+v", out.Workspaces)
	}
	mustVerify(t, e)
}

func TestEngine_EdgePolicies(t *testing.T) {
	opts := testOptions()
	opts.EdgeDown = EdgeWorkspace
	opts.EdgeRight = EdgeOutput
	e := newTestEngine(t, opts)
	e.AddOutput("B", Size{Width: 800, Height: 600}, 60000)
	mapWindow(t, e, 1, Placement{})

	// Stop policy on the left: nothing happens and nothing is reported.
	if err := e.FocusColumnLeft(); err != nil {
		t.Fatalf("expected no error at the left edge, got %v", err)
	}

	if err := e.FocusColumnRight(); err != nil {
		t.Fatalf("focus right: %v", err)
	}
	if tr := e.Tree(); !tr.Outputs[1].Focused {
		t.Fatalf("expected focus on output B")
	}

	if err := e.SwitchOutput("A"); err != nil {
		t.Fatalf("switch output: %v", err)
	}
	if err := e.FocusWindowDown(); err != nil {
		t.Fatalf("focus down: %v", err)
	}
	out := e.Tree().Outputs[0]
	if !out.Workspaces[1].Active {
		t.Fatalf("expected focus-window-down to switch workspace")
	}
}

func TestEngine_InvalidReferencesLeaveTreeUnchanged(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	before := activeWorkspace(t, e)

	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"focus missing column", func() error { return e.FocusColumn(9) }, ErrInvalidReference},
		{"focus unknown window", func() error { return e.FocusWindow(42) }, ErrInvalidReference},
		{"unmap unknown window", func() error { return e.UnmapWindow(42) }, ErrInvalidReference},
		{"ack unknown window", func() error { return e.AckConfigure(42, 1) }, ErrInvalidReference},
		{"switch to missing workspace", func() error { return e.SwitchWorkspace(WorkspaceRef{Index: 9}) }, ErrInvalidReference},
		{"switch to unknown name", func() error { return e.SwitchWorkspace(WorkspaceRef{Name: "nope"}) }, ErrInvalidReference},
		{"unknown output", func() error { return e.SwitchOutput("nope") }, ErrInvalidReference},
		{"map twice", func() error { return e.MapWindow(WindowInfo{ID: 1}, Placement{}) }, ErrInvalidReference},
		{"close unknown window", func() error { return e.CloseWindow(42) }, ErrInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			after := activeWorkspace(t, e)
			if len(after.Columns) != len(before.Columns) || after.Index != before.Index {
				t.Fatalf("tree changed: before %+v after %+v", before, after)
			}
		})
	}
}

func TestEngine_NothingFocusedOnEmptyWorkspace(t *testing.T) {
	e := newTestEngine(t, testOptions())
	for _, run := range []func() error{
		e.FocusColumnRight,
		e.MoveColumnLeft,
		e.ExpelWindow,
		func() error { return e.ResizeColumn(SizeChange{Kind: SetAuto}) },
		func() error { return e.ToggleFullscreen(0) },
	} {
		if err := run(); !errors.Is(err, ErrNothingFocused) {
			t.Fatalf("expected ErrNothingFocused, got %v", err)
		}
	}
}

func TestEngine_OutputRemovalAndReturn(t *testing.T) {
	e := newTestEngine(t, testOptions())
	e.AddOutput("B", Size{Width: 1000, Height: 800}, 60000)
	mapWindow(t, e, 1, Placement{})
	if err := e.SwitchOutput("B"); err != nil {
		t.Fatalf("switch output: %v", err)
	}
	mapWindow(t, e, 2, Placement{})

	if err := e.RemoveOutput("B"); err != nil {
		t.Fatalf("remove output: %v", err)
	}
	mustVerify(t, e)
	tr := e.Tree()
	if len(tr.Outputs) != 1 {
		t.Fatalf("expected one output, got %d", len(tr.Outputs))
	}
	a := tr.Outputs[0]
	if len(a.Workspaces) != 3 {
		t.Fatalf("expected B's workspace to migrate to A, got %d workspaces", len(a.Workspaces))
	}
	moved := a.Workspaces[1]
	if moved.Original != "B" || len(moved.Columns) != 1 || moved.Columns[0].Tiles[0].Window != 2 {
		t.Fatalf("unexpected migrated workspace: %+v", moved)
	}
	if id, _ := e.Focused(); id != 1 {
		t.Fatalf("expected focus back on A's window, got %d", id)
	}

	e.AddOutput("B", Size{Width: 1000, Height: 800}, 60000)
	mustVerify(t, e)
	tr = e.Tree()
	if len(tr.Outputs[0].Workspaces) != 2 {
		t.Fatalf("expected A to keep two workspaces, got %d", len(tr.Outputs[0].Workspaces))
	}
	b := tr.Outputs[1]
	if len(b.Workspaces) != 2 || len(b.Workspaces[0].Columns) != 1 {
		t.Fatalf("expected the workspace to return to B, got %+v", b.Workspaces)
	}
	// Back on its 1000px output the single column fills it again.
	if w := b.Workspaces[0].Columns[0].Width; w != 1000 {
		t.Fatalf("expected 1000px column on B, got %d", w)
	}
}

func TestEngine_LastOutputRemovalParksWorkspaces(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	if err := e.RemoveOutput("A"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	tr := e.Tree()
	if len(tr.Outputs) != 0 || len(tr.Parked) != 1 {
		t.Fatalf("expected one parked workspace, got %+v", tr)
	}
	if f := e.Snapshot(e.Now()); len(f.Outputs) != 0 {
		t.Fatalf("parked workspaces render nothing")
	}
	mustVerify(t, e)

	e.AddOutput("C", Size{Width: 800, Height: 600}, 60000)
	mustVerify(t, e)
	if id, ok := e.Focused(); !ok || id != 1 {
		t.Fatalf("expected parked window to be adopted and focused, got %d %v", id, ok)
	}
}

func TestEngine_NamedWorkspacesPersist(t *testing.T) {
	opts := testOptions()
	opts.Workspaces = []NamedWorkspace{{Name: "web"}}
	e := newTestEngine(t, opts)

	if err := e.CreateWorkspace("chat"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if wn := activeWorkspace(t, e); wn.Name != "chat" {
		t.Fatalf("expected chat active, got %q", wn.Name)
	}
	if err := e.SwitchWorkspace(WorkspaceRef{Name: "web"}); err != nil {
		t.Fatalf("switch: %v", err)
	}
	e.Refresh()
	names := []string{}
	for _, wn := range e.Tree().Outputs[0].Workspaces {
		names = append(names, wn.Name)
	}
	if len(names) != 3 || names[0] != "web" || names[1] != "chat" || names[2] != "" {
		t.Fatalf("expected [web chat \"\"], got %q", names)
	}
}

func TestEngine_RepairDestroysEmptyColumns(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})

	// Corrupt the tree: empty a column behind the engine's back.
	ws := e.workspace(e.outputs[0].workspaces[0])
	c := e.column(ws.columns[0])
	for _, tid := range c.tiles {
		e.tiles.remove(Handle(tid))
	}
	c.tiles = nil
	if e.Verify() == nil {
		t.Fatalf("expected the corruption to be detected")
	}

	e.Refresh()
	mustVerify(t, e)
	if got := e.Stats().Repairs; got != 1 {
		t.Fatalf("expected one repair, got %d", got)
	}
	if got := len(activeWorkspace(t, e).Columns); got != 1 {
		t.Fatalf("expected one surviving column, got %d", got)
	}
}

func TestEngine_AnimatedViewSettles(t *testing.T) {
	opts := testOptions()
	opts.Gap = 0
	opts.MinColumnWidth = 800
	opts.Animations.ViewOffset = animation.Params{Duration: 100 * time.Millisecond, Curve: animation.CurveLinear}
	e := New(opts, nil)
	e.AddOutput("A", Size{Width: 1000, Height: 600}, 60000)
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})

	// Two 800px columns: the second sits at 800..1600, so the view heads to 600.
	if !e.Advance(50 * time.Millisecond) {
		t.Fatalf("expected view animation in flight")
	}
	if wn := activeWorkspace(t, e); math.Abs(wn.ViewOffset-300) > 1e-9 || wn.ViewTarget != 600 {
		t.Fatalf("expected view halfway to 600, got %v -> %v", wn.ViewOffset, wn.ViewTarget)
	}
	if e.Advance(150 * time.Millisecond) {
		t.Fatalf("expected all animations settled")
	}
	if wn := activeWorkspace(t, e); wn.ViewOffset != 600 {
		t.Fatalf("expected settled view at 600, got %v", wn.ViewOffset)
	}
}

func TestEngine_MoveWorkspaceToOutput(t *testing.T) {
	e := newTestEngine(t, testOptions())
	e.AddOutput("B", Size{Width: 1000, Height: 800}, 60000)
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})

	if err := e.MoveWorkspaceToOutput("C"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for unknown output, got %v", err)
	}
	if err := e.MoveWorkspaceToOutput("B"); err != nil {
		t.Fatalf("move workspace: %v", err)
	}
	mustVerify(t, e)

	tr := e.Tree()
	a, b := tr.Outputs[0], tr.Outputs[1]
	if a.Focused || !b.Focused {
		t.Fatalf("expected focus to follow the workspace to B")
	}
	if len(a.Workspaces) != 1 || len(a.Workspaces[0].Columns) != 0 {
		t.Fatalf("expected A to keep only its trailing workspace, got %+v", a.Workspaces)
	}
	if len(b.Workspaces) != 2 {
		t.Fatalf("expected the moved workspace plus a trailing one on B, got %d", len(b.Workspaces))
	}
	moved := b.Workspaces[0]
	if !moved.Active || moved.Original != "B" || !equalInts(columnWidths(moved), []int{500, 500}) {
		t.Fatalf("unexpected moved workspace: %+v", moved)
	}
	if len(b.Workspaces[1].Columns) != 0 {
		t.Fatalf("expected B's last workspace to stay empty")
	}
	if id, ok := e.Focused(); !ok || id != 2 {
		t.Fatalf("expected window 2 to keep focus, got %d %v", id, ok)
	}
}

func configureFor(reqs []ConfigureRequest, id WindowID) (ConfigureRequest, bool) {
	for _, r := range reqs {
		if r.Window == id {
			return r, true
		}
	}
	return ConfigureRequest{}, false
}

func TestEngine_SizeHintsClampConfigures(t *testing.T) {
	e := newTestEngine(t, testOptions())
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})
	ackAll(t, e)

	if err := e.SetSizeHints(1, SizeHints{Max: Size{Width: 300, Height: 200}}); err != nil {
		t.Fatalf("set hints: %v", err)
	}
	req, ok := configureFor(e.TakeConfigures(), 1)
	if !ok || req.Size != (Size{Width: 300, Height: 200}) {
		t.Fatalf("expected a 300x200 configure for window 1, got %+v %v", req, ok)
	}
	if err := e.AckConfigure(1, req.Serial); err != nil {
		t.Fatalf("ack: %v", err)
	}

	if err := e.SetSizeHints(2, SizeHints{Min: Size{Width: 1500}}); err != nil {
		t.Fatalf("set hints: %v", err)
	}
	req, ok = configureFor(e.TakeConfigures(), 2)
	if !ok || req.Size != (Size{Width: 1500, Height: 800}) {
		t.Fatalf("expected a 1500x800 configure for window 2, got %+v %v", req, ok)
	}
	mustVerify(t, e)

	// 300 + 1500 px of strip on a 1200 px output: the wide column is shown
	// from its left edge and the view never passes the strip's end.
	wn := activeWorkspace(t, e)
	if wn.Width != 1800 {
		t.Fatalf("expected an 1800px strip, got %d", wn.Width)
	}
	if wn.ViewOffset != 300 {
		t.Fatalf("expected view at the wide column's left edge, got %v", wn.ViewOffset)
	}
	if err := e.FocusColumn(1); err != nil {
		t.Fatalf("focus column: %v", err)
	}
	if wn := activeWorkspace(t, e); wn.ViewOffset != 0 {
		t.Fatalf("expected view back at 0, got %v", wn.ViewOffset)
	}

	if err := e.SetSizeHints(9, SizeHints{}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference for unknown window, got %v", err)
	}
}

func TestEngine_RemapWhileClosingTidiesOldOutput(t *testing.T) {
	opts := testOptions()
	opts.Animations.WindowClose = animation.Params{Duration: 100 * time.Millisecond, Curve: animation.CurveLinear}
	e := newTestEngine(t, opts)
	e.AddOutput("B", Size{Width: 1000, Height: 800}, 60000)
	mapWindow(t, e, 1, Placement{})
	if err := e.SwitchOutput("B"); err != nil {
		t.Fatalf("switch output: %v", err)
	}
	mapWindow(t, e, 2, Placement{})
	if err := e.UnmapWindow(2); err != nil {
		t.Fatalf("unmap: %v", err)
	}
	// The closing column keeps B's first workspace alive while we leave it.
	if err := e.SwitchWorkspace(WorkspaceRef{Relative: 1}); err != nil {
		t.Fatalf("switch workspace: %v", err)
	}
	if got := len(e.Tree().Outputs[1].Workspaces); got != 2 {
		t.Fatalf("expected two workspaces on B before remap, got %d", got)
	}
	if err := e.SwitchOutput("A"); err != nil {
		t.Fatalf("switch output: %v", err)
	}

	mapWindow(t, e, 2, Placement{})
	mustVerify(t, e)
	tr := e.Tree()
	if got := len(tr.Outputs[0].Workspaces[0].Columns); got != 2 {
		t.Fatalf("expected the remapped window on A, got %d columns", got)
	}
	b := tr.Outputs[1]
	if len(b.Workspaces) != 1 || len(b.Workspaces[0].Columns) != 0 || !b.Workspaces[0].Active {
		t.Fatalf("expected B's emptied workspace to be dropped, got %+v", b.Workspaces)
	}
}

func TestEngine_SwitchOutputKeepsViewOnFocusedColumn(t *testing.T) {
	opts := testOptions()
	opts.MinColumnWidth = 800
	opts.Animations.ViewOffset = animation.Params{Duration: 100 * time.Millisecond, Curve: animation.CurveLinear}
	e := New(opts, nil)
	e.AddOutput("A", Size{Width: 1000, Height: 600}, 60000)
	e.AddOutput("B", Size{Width: 1000, Height: 600}, 60000)
	mapWindow(t, e, 1, Placement{})
	mapWindow(t, e, 2, Placement{})
	e.Advance(200 * time.Millisecond)

	if err := e.SwitchOutput("right"); err != nil {
		t.Fatalf("switch output: %v", err)
	}
	if _, ok := e.Focused(); ok {
		t.Fatalf("expected nothing focused on empty B")
	}
	if err := e.SwitchOutput("right"); err != nil {
		t.Fatalf("switch past the last output: %v", err)
	}
	if err := e.SwitchOutput("X"); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}

	if err := e.SwitchOutput("left"); err != nil {
		t.Fatalf("switch output: %v", err)
	}
	if id, ok := e.Focused(); !ok || id != 2 {
		t.Fatalf("expected window 2 focused on A, got %d %v", id, ok)
	}
	wn := activeWorkspace(t, e)
	if wn.ViewOffset != 600 || wn.ViewTarget != 600 {
		t.Fatalf("expected A's view to stay on the focused column, got %v -> %v", wn.ViewOffset, wn.ViewTarget)
	}
	mustVerify(t, e)
}
