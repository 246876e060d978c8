// Package daemon runs the layout engine against a backend: one goroutine
// owns the engine and everything else talks to it through messages.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/config"
	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/metrics"
	"github.com/1broseidon/scrolltile/internal/platform"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

// ErrStopped is returned by calls made after the loop has exited.
var ErrStopped = errors.New("daemon loop stopped")

const defaultRefreshMHz = 60000

// LoopConfig holds what a Loop needs at construction.
type LoopConfig struct {
	Backend    platform.Backend
	Config     *config.Config
	ConfigPath string
	// Load re-reads the configuration for RELOAD. Nil disables reloading.
	Load    func() (*config.LoadResult, error)
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type call struct {
	fn   func()
	done chan struct{}
}

// Loop serialises backend events, IPC requests, hotkeys, reloads and frame
// ticks onto the single goroutine that owns the engine.
type Loop struct {
	backend    platform.Backend
	engine     *tiling.Engine
	logger     *slog.Logger
	metrics    *metrics.Metrics
	load       func() (*config.LoadResult, error)
	configPath string

	// Owned by the loop goroutine.
	cfg       *config.Config
	rules     *config.RuleSet
	outputPos map[string]tiling.Point
	refresh   map[string]int
	frame     tiling.Frame
	dirty     bool
	animating bool
	focused   tiling.WindowID

	start   time.Time
	calls   chan call
	ready   chan struct{}
	stopped chan struct{}

	frames  atomic.Uint64
	actions atomic.Uint64
	hotkeys atomic.Int64

	hooksMu sync.Mutex
	hooks   []func(*config.LoadResult)
}

var (
	_ ipc.Handler    = (*Loop)(nil)
	_ metrics.Source = (*Loop)(nil)
)

// NewLoop builds the engine from cfg. The config must have been validated.
func NewLoop(lc LoopConfig) (*Loop, error) {
	logger := lc.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts, err := lc.Config.EngineOptions()
	if err != nil {
		return nil, err
	}
	rules, err := lc.Config.Rules()
	if err != nil {
		return nil, err
	}
	return &Loop{
		backend:    lc.Backend,
		engine:     tiling.New(opts, logger.With("component", "engine")),
		logger:     logger,
		metrics:    lc.Metrics,
		load:       lc.Load,
		configPath: lc.ConfigPath,
		cfg:        lc.Config,
		rules:      rules,
		outputPos:  make(map[string]tiling.Point),
		refresh:    make(map[string]int),
		dirty:      true,
		start:      time.Now(),
		calls:      make(chan call, 64),
		ready:      make(chan struct{}),
		stopped:    make(chan struct{}),
	}, nil
}

// Ready is closed once the initial outputs and windows are in the engine.
func (l *Loop) Ready() <-chan struct{} { return l.ready }

// OnReload registers a hook run after every successful reload.
func (l *Loop) OnReload(fn func(*config.LoadResult)) {
	l.hooksMu.Lock()
	l.hooks = append(l.hooks, fn)
	l.hooksMu.Unlock()
}

// SetHotkeyCount records how many key bindings are grabbed, for status.
func (l *Loop) SetHotkeyCount(n int) { l.hotkeys.Store(int64(n)) }

// Run owns the engine until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)

	if err := l.bootstrap(); err != nil {
		return err
	}
	close(l.ready)
	l.logger.Info("daemon loop started", "backend", string(l.backend.Kind()))

	events := l.backend.Events()
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		l.step()
		if d, ok := l.nextWake(); ok {
			timer.Reset(d)
		} else {
			timer.Stop()
		}

		select {
		case <-ctx.Done():
			l.logger.Info("daemon loop stopped")
			return ctx.Err()
		case ev := <-events:
			l.engine.SetTime(l.now())
			l.handleEvent(ev)
		case c := <-l.calls:
			l.engine.SetTime(l.now())
			c.fn()
			close(c.done)
		case <-timer.C:
		}
	}
}

func (l *Loop) bootstrap() error {
	outputs, err := l.backend.Outputs()
	if err != nil {
		return fmt.Errorf("list outputs: %w", err)
	}
	for _, o := range outputs {
		l.addOutput(o)
	}
	windows, err := l.backend.Windows()
	if err != nil {
		return fmt.Errorf("list windows: %w", err)
	}
	for _, w := range windows {
		l.mapWindow(w)
	}
	return nil
}

func (l *Loop) now() time.Duration { return time.Since(l.start) }

// step advances animations, flushes engine output to the backend and
// presents a frame when anything changed.
func (l *Loop) step() {
	now := l.now()
	animating := l.engine.Advance(now)

	for _, req := range l.engine.TakeConfigures() {
		if err := l.backend.Configure(req); err != nil {
			l.logger.Warn("configure failed", "window", req.Window, "error", err)
		}
	}
	for _, id := range l.engine.TakeCloses() {
		if err := l.backend.Close(id); err != nil {
			l.logger.Warn("close failed", "window", id, "error", err)
		}
	}

	// One more frame after the last animating one so the final values land.
	if l.dirty || animating || l.animating {
		l.frame = l.engine.Snapshot(now)
		if err := l.backend.Present(l.frame); err != nil {
			l.logger.Warn("present failed", "error", err)
		}
		l.frames.Add(1)
		if l.metrics != nil {
			l.metrics.FramePresented()
		}
		l.dirty = false
	}
	l.animating = animating

	if id, ok := l.engine.Focused(); ok && id != l.focused {
		if err := l.backend.Focus(id); err != nil {
			l.logger.Debug("focus failed", "window", id, "error", err)
		}
		l.focused = id
	} else if !ok {
		l.focused = 0
	}

	if l.metrics != nil {
		l.metrics.Update(l.engine.Stats())
	}
}

// nextWake returns how long to sleep before the next step when nothing else
// arrives: a frame interval while animating, otherwise the earliest
// configure deadline.
func (l *Loop) nextWake() (time.Duration, bool) {
	if l.animating {
		return l.frameInterval(), true
	}
	if deadline, ok := l.engine.Deadline(); ok {
		return max(deadline-l.now(), 0), true
	}
	return 0, false
}

// frameInterval follows the fastest output.
func (l *Loop) frameInterval() time.Duration {
	best := 0
	for _, mhz := range l.refresh {
		best = max(best, mhz)
	}
	if best <= 0 {
		best = defaultRefreshMHz
	}
	return time.Duration(int64(time.Second) * 1000 / int64(best))
}

func (l *Loop) handleEvent(ev platform.Event) {
	l.dirty = true
	id := ev.Window.ID
	var err error
	switch ev.Kind {
	case platform.WindowMapped:
		l.mapWindow(ev.Window)
	case platform.WindowUnmapped:
		err = l.engine.UnmapWindow(id)
	case platform.ConfigureAck:
		err = l.engine.AckConfigure(id, ev.Serial)
	case platform.TitleChanged:
		err = l.engine.SetTitle(id, ev.Window.Title)
	case platform.SizeHintsChanged:
		err = l.engine.SetSizeHints(id, ev.Window.Hints)
	case platform.OutputAdded:
		l.addOutput(ev.Output)
	case platform.OutputRemoved:
		delete(l.refresh, ev.Output.Name)
		err = l.engine.RemoveOutput(ev.Output.Name)
	}
	if err != nil {
		l.logger.Debug("backend event rejected", "event", ev.Kind.String(), "window", id, "error", err)
	}
}

func (l *Loop) mapWindow(w platform.Window) {
	if l.engine.HasWindow(w.ID) {
		return
	}
	pl := l.rules.Placement(w.AppID, w.Title)
	if err := l.engine.MapWindow(w.Info(), pl); err != nil {
		l.logger.Warn("map window failed", "window", w.ID, "app_id", w.AppID, "error", err)
		return
	}
	l.logger.Debug("window mapped", "window", w.ID, "app_id", w.AppID, "title", w.Title)
}

// addOutput records the backend's position for the output, unless the
// config pins one, then adds it to the engine.
func (l *Loop) addOutput(o platform.Output) {
	l.outputPos[o.Name] = tiling.Point{X: o.Rect.X, Y: o.Rect.Y}
	l.refresh[o.Name] = o.RefreshMHz
	if err := l.applyConfig(l.cfg); err != nil {
		l.logger.Warn("apply output position", "output", o.Name, "error", err)
	}
	l.engine.AddOutput(o.Name, o.Rect.Size(), o.RefreshMHz)
}

// applyConfig swaps engine options and rules. Backend output positions fill
// in for outputs the config does not place.
func (l *Loop) applyConfig(cfg *config.Config) error {
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}
	rules, err := cfg.Rules()
	if err != nil {
		return err
	}
	for name, p := range l.outputPos {
		if _, ok := opts.OutputPositions[name]; !ok {
			opts.OutputPositions[name] = p
		}
	}
	l.engine.SetOptions(opts)
	l.cfg = cfg
	l.rules = rules
	l.dirty = true
	return nil
}

// do runs fn on the loop goroutine and waits for it.
func (l *Loop) do(ctx context.Context, fn func()) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case l.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrStopped
	}
}

// post queues fn without waiting. It drops fn if the loop has stopped.
func (l *Loop) post(fn func()) {
	select {
	case l.calls <- call{fn: fn, done: make(chan struct{})}:
	case <-l.stopped:
	}
}

func (l *Loop) runAction(text string) (actions.Action, error) {
	l.dirty = true
	a, err := actions.Run(l.engine, text)
	l.actions.Add(1)
	if l.metrics != nil {
		l.metrics.ObserveAction(string(a.Name), err)
	}
	return a, err
}

// Dispatch runs an action from a key binding.
func (l *Loop) Dispatch(text string) {
	l.post(func() {
		if _, err := l.runAction(text); err != nil {
			l.logger.Warn("hotkey action failed", "action", text, "error", err)
		}
	})
}

// Action runs one action for an IPC client.
func (l *Loop) Action(ctx context.Context, text string) (ipc.ActionResult, error) {
	var (
		res ipc.ActionResult
		err error
	)
	if callErr := l.do(ctx, func() {
		var a actions.Action
		a, err = l.runAction(text)
		res.Action = a.String()
		res.Focused, _ = l.engine.Focused()
	}); callErr != nil {
		return res, callErr
	}
	return res, err
}

// Status reports counters and engine stats.
func (l *Loop) Status(ctx context.Context) (ipc.StatusData, error) {
	st := ipc.StatusData{
		Backend:       string(l.backend.Kind()),
		ConfigPath:    l.configPath,
		Frames:        l.frames.Load(),
		Actions:       l.actions.Load(),
		Hotkeys:       int(l.hotkeys.Load()),
		UptimeSeconds: int64(time.Since(l.start).Seconds()),
	}
	err := l.do(ctx, func() {
		st.Engine = l.engine.Stats()
		st.Focused, _ = l.engine.Focused()
		st.Animating = l.animating
	})
	return st, err
}

// Tree returns a copy of the layout tree.
func (l *Loop) Tree(ctx context.Context) (tiling.Tree, error) {
	var tr tiling.Tree
	err := l.do(ctx, func() { tr = l.engine.Tree() })
	return tr, err
}

// Frame returns the last presented frame.
func (l *Loop) Frame(ctx context.Context) (tiling.Frame, error) {
	var fr tiling.Frame
	err := l.do(ctx, func() { fr = l.frame })
	return fr, err
}

// Reload re-reads the config off the loop, swaps it in on the loop and then
// runs the reload hooks. A config that fails to load leaves the running one
// untouched.
func (l *Loop) Reload(ctx context.Context) (ipc.ReloadResult, error) {
	if l.load == nil {
		return ipc.ReloadResult{}, errors.New("reload is not configured")
	}
	res, err := l.load()
	if err == nil {
		var applyErr error
		if err = l.do(ctx, func() { applyErr = l.applyConfig(res.Config) }); err == nil {
			err = applyErr
		}
	}
	if l.metrics != nil {
		l.metrics.ObserveReload(err)
	}
	if err != nil {
		l.logger.Warn("config reload failed, keeping current config", "error", err)
		return ipc.ReloadResult{}, err
	}

	l.hooksMu.Lock()
	hooks := append([]func(*config.LoadResult){}, l.hooks...)
	l.hooksMu.Unlock()
	for _, fn := range hooks {
		fn(res)
	}
	l.logger.Info("config reloaded", "files", len(res.Files))
	return ipc.ReloadResult{Files: res.Files}, nil
}
