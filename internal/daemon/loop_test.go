package daemon

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/config"
	"github.com/1broseidon/scrolltile/internal/platform"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Layout.Gap = 0
	cfg.Layout.MinColumnWidth = 50
	cfg.Layout.MinTileHeight = 50
	for _, a := range []*config.AnimationConfig{
		&cfg.Animations.WindowOpen,
		&cfg.Animations.WindowClose,
		&cfg.Animations.WindowMovement,
		&cfg.Animations.WindowResize,
		&cfg.Animations.ViewOffset,
		&cfg.Animations.WorkspaceSwitch,
	} {
		a.Duration = 0
	}
	cfg.Animations.ConfigureTimeout = time.Second
	return cfg
}

func outputA() platform.Output {
	return platform.Output{Name: "A", Rect: tiling.Rect{Width: 1200, Height: 800}, RefreshMHz: 60000}
}

type harness struct {
	backend *platform.Headless
	loop    *Loop
	cancel  context.CancelFunc
	done    chan struct{}
}

func startLoop(t *testing.T, lc LoopConfig, backend *platform.Headless) *harness {
	t.Helper()
	lc.Backend = backend
	if lc.Config == nil {
		lc.Config = testConfig()
	}
	lc.Logger = discardLogger()
	loop, err := NewLoop(lc)
	if err != nil {
		t.Fatalf("new loop: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{backend: backend, loop: loop, cancel: cancel, done: make(chan struct{})}
	go func() { _ = backend.Run(ctx) }()
	go func() {
		defer close(h.done)
		_ = loop.Run(ctx)
	}()
	t.Cleanup(h.stop)

	select {
	case <-loop.Ready():
	case <-time.After(2 * time.Second):
		t.Fatalf("loop never became ready")
	}
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *harness) stats(t *testing.T) tiling.Stats {
	t.Helper()
	st, err := h.loop.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	return st.Engine
}

func (h *harness) columns(t *testing.T) []tiling.ColumnNode {
	t.Helper()
	tr, err := h.loop.Tree(context.Background())
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	for _, o := range tr.Outputs {
		for _, ws := range o.Workspaces {
			if ws.Active && o.Focused {
				return ws.Columns
			}
		}
	}
	return nil
}

func TestLoop_MapConfigureAckPresent(t *testing.T) {
	h := startLoop(t, LoopConfig{}, platform.NewHeadless([]platform.Output{outputA()}, platform.HeadlessOptions{}, nil))

	for id := tiling.WindowID(1); id <= 3; id++ {
		if err := h.backend.MapWindow(platform.Window{ID: id, AppID: "term", Size: tiling.Size{Width: 100, Height: 100}}); err != nil {
			t.Fatalf("map %d: %v", id, err)
		}
	}

	eventually(t, "three committed columns", func() bool {
		st := h.stats(t)
		return st.Tiles == 3 && st.Columns == 3 && st.Pending == 0
	})

	windows, err := h.backend.Windows()
	if err != nil {
		t.Fatalf("windows: %v", err)
	}
	for _, w := range windows {
		if w.Size.Width != 400 || w.Size.Height != 800 {
			t.Fatalf("window %d acked at %v, want 400x800", w.ID, w.Size)
		}
	}

	eventually(t, "every window presented", func() bool {
		for id := tiling.WindowID(1); id <= 3; id++ {
			r, _, visible := h.backend.Placement(id)
			if !visible || r.Width != 400 {
				return false
			}
		}
		return true
	})

	fr, err := h.loop.Frame(context.Background())
	if err != nil {
		t.Fatalf("frame: %v", err)
	}
	if len(fr.Outputs) != 1 || len(fr.Outputs[0].Elements) != 3 {
		t.Fatalf("unexpected frame %+v", fr)
	}
}

func TestLoop_ActionsReachEngineAndBackend(t *testing.T) {
	h := startLoop(t, LoopConfig{}, platform.NewHeadless([]platform.Output{outputA()}, platform.HeadlessOptions{}, nil))
	for id := tiling.WindowID(1); id <= 3; id++ {
		_ = h.backend.MapWindow(platform.Window{ID: id})
	}
	eventually(t, "three tiles", func() bool { return h.stats(t).Tiles == 3 })

	first := h.columns(t)[0].Tiles[0].Window
	res, err := h.loop.Action(context.Background(), "focus-column 1")
	if err != nil {
		t.Fatalf("action: %v", err)
	}
	if res.Action != "focus-column 1" || res.Focused != first {
		t.Fatalf("unexpected result %+v, want focus on %d", res, first)
	}
	eventually(t, "backend focus", func() bool { return h.backend.Focused() == first })

	if _, err := h.loop.Action(context.Background(), "fly-away"); !errors.Is(err, actions.ErrNoSuchAction) {
		t.Fatalf("expected ErrNoSuchAction, got %v", err)
	}
	if _, err := h.loop.Action(context.Background(), "focus-window 99"); !errors.Is(err, tiling.ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}

	if _, err := h.loop.Action(context.Background(), "close-window"); err != nil {
		t.Fatalf("close: %v", err)
	}
	eventually(t, "closed window removed", func() bool {
		return h.stats(t).Tiles == 2 && !h.loop.engineHas(t, first)
	})

	st, err := h.loop.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if st.Actions != 4 || st.Backend != "headless" || st.Frames == 0 {
		t.Fatalf("unexpected status %+v", st)
	}
}

func (l *Loop) engineHas(t *testing.T, id tiling.WindowID) bool {
	t.Helper()
	var ok bool
	if err := l.do(context.Background(), func() { ok = l.engine.HasWindow(id) }); err != nil {
		t.Fatalf("do: %v", err)
	}
	return ok
}

func TestLoop_UnresponsiveClientIsForcedAfterGrace(t *testing.T) {
	cfg := testConfig()
	cfg.Animations.ConfigureTimeout = 30 * time.Millisecond
	h := startLoop(t, LoopConfig{Config: cfg}, platform.NewHeadless([]platform.Output{outputA()}, platform.HeadlessOptions{IgnoreConfigures: true}, nil))

	_ = h.backend.MapWindow(platform.Window{ID: 1})
	eventually(t, "forced commit", func() bool {
		st := h.stats(t)
		return st.ForcedCommits >= 1 && st.Pending == 0
	})
}

func TestLoop_IdleClockDoesNotExpireNewConfigures(t *testing.T) {
	cfg := testConfig()
	cfg.Animations.ConfigureTimeout = 300 * time.Millisecond
	cfg.Animations.WindowOpen.Duration = 2 * time.Second
	h := startLoop(t, LoopConfig{Config: cfg}, platform.NewHeadless([]platform.Output{outputA()}, platform.HeadlessOptions{AckDelay: 50 * time.Millisecond}, nil))

	// Nothing wakes the loop while idle, so the engine clock lags behind.
	time.Sleep(500 * time.Millisecond)

	if err := h.backend.MapWindow(platform.Window{ID: 1, Size: tiling.Size{Width: 100, Height: 100}}); err != nil {
		t.Fatalf("map: %v", err)
	}
	eventually(t, "window presented", func() bool {
		_, _, visible := h.backend.Placement(1)
		return visible
	})
	if _, opacity, _ := h.backend.Placement(1); opacity >= 1 {
		t.Fatalf("open animation already finished on first frame: opacity=%v", opacity)
	}

	eventually(t, "acked configure", func() bool {
		st := h.stats(t)
		return st.Tiles == 1 && st.Pending == 0
	})
	if got := h.stats(t).ForcedCommits; got != 0 {
		t.Fatalf("configure was forced although the client acked within the grace period (%d forced)", got)
	}
}

func TestLoop_OutputHotplug(t *testing.T) {
	b := outputA()
	b.Name = "B"
	h := startLoop(t, LoopConfig{}, platform.NewHeadless([]platform.Output{outputA(), b}, platform.HeadlessOptions{}, nil))
	eventually(t, "two outputs", func() bool { return h.stats(t).Outputs == 2 })

	if err := h.backend.RemoveOutput("B"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	eventually(t, "one output", func() bool { return h.stats(t).Outputs == 1 })

	h.backend.AddOutput(platform.Output{Name: "C", Rect: tiling.Rect{X: 1200, Width: 800, Height: 600}, RefreshMHz: 144000})
	eventually(t, "output C", func() bool { return h.stats(t).Outputs == 2 })

	if got := h.loop.frameIntervalOnLoop(t); got != time.Second/144 {
		t.Fatalf("frame interval %v, want %v", got, time.Second/144)
	}
}

func (l *Loop) frameIntervalOnLoop(t *testing.T) time.Duration {
	t.Helper()
	var d time.Duration
	if err := l.do(context.Background(), func() { d = l.frameInterval() }); err != nil {
		t.Fatalf("do: %v", err)
	}
	return d
}

func TestLoop_Reload(t *testing.T) {
	var fail atomic.Bool
	load := func() (*config.LoadResult, error) {
		if fail.Load() {
			return nil, errors.New("broken yaml")
		}
		cfg := testConfig()
		cfg.Layout.Gap = 20
		return &config.LoadResult{Config: cfg, Files: []string{"/tmp/a.yaml"}}, nil
	}
	h := startLoop(t, LoopConfig{Load: load}, platform.NewHeadless([]platform.Output{outputA()}, platform.HeadlessOptions{}, nil))
	_ = h.backend.MapWindow(platform.Window{ID: 1})
	eventually(t, "one tile", func() bool { return h.stats(t).Tiles == 1 })

	var hooks atomic.Int32
	h.loop.OnReload(func(*config.LoadResult) { hooks.Add(1) })

	res, err := h.loop.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(res.Files) != 1 || hooks.Load() != 1 {
		t.Fatalf("unexpected reload result %+v hooks=%d", res, hooks.Load())
	}
	eventually(t, "gap applied", func() bool {
		cols := h.columns(t)
		return len(cols) == 1 && cols[0].Width == 1200-2*20
	})

	fail.Store(true)
	if _, err := h.loop.Reload(context.Background()); err == nil {
		t.Fatalf("expected reload error")
	}
	if hooks.Load() != 1 {
		t.Fatalf("hooks ran for a failed reload")
	}
}

func TestLoop_ReloadWithoutLoader(t *testing.T) {
	h := startLoop(t, LoopConfig{}, platform.NewHeadless(nil, platform.HeadlessOptions{}, nil))
	if _, err := h.loop.Reload(context.Background()); err == nil {
		t.Fatalf("expected error without a loader")
	}
}

func TestLoop_CallsAfterStopFail(t *testing.T) {
	h := startLoop(t, LoopConfig{}, platform.NewHeadless([]platform.Output{outputA()}, platform.HeadlessOptions{}, nil))
	h.stop()
	if _, err := h.loop.Tree(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	h.loop.Dispatch("focus-column-left")
}
