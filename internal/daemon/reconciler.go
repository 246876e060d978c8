package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/1broseidon/scrolltile/internal/platform"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

// StateSource lists what the window system currently has.
type StateSource interface {
	Outputs() ([]platform.Output, error)
	Windows() ([]platform.Window, error)
}

// ReconcileTarget applies a listing to the layout.
type ReconcileTarget interface {
	Reconcile(ctx context.Context, outputs []platform.Output, windows []platform.Window) (ReconcileReport, error)
}

// ReconcileReport counts what a pass had to correct.
type ReconcileReport struct {
	Mapped         int
	Unmapped       int
	OutputsAdded   int
	OutputsRemoved int
}

// Drifted reports whether the pass changed anything.
func (r ReconcileReport) Drifted() bool {
	return r.Mapped+r.Unmapped+r.OutputsAdded+r.OutputsRemoved > 0
}

// ReconcilerConfig holds configuration for the reconciler.
type ReconcilerConfig struct {
	Interval time.Duration
	Logger   *slog.Logger
}

// Reconciler periodically checks for drift between the window system and
// the layout tree and corrects it. Events can be lost (a client that dies
// between map and property read, an output change during suspend) and this
// catches them.
type Reconciler struct {
	interval time.Duration
	source   StateSource
	target   ReconcileTarget
	logger   *slog.Logger
}

// NewReconciler creates a new reconciler with the given configuration.
func NewReconciler(cfg ReconcilerConfig, source StateSource, target ReconcileTarget) *Reconciler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		interval: interval,
		source:   source,
		target:   target,
		logger:   logger,
	}
}

func (r *Reconciler) String() string { return "reconciler" }

// Serve runs the reconciliation loop. Blocks until ctx is cancelled.
func (r *Reconciler) Serve(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reconciler started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reconciler stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.ReconcileNow(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("reconcile failed", "error", err)
			}
		}
	}
}

// ReconcileNow performs a single reconciliation pass.
func (r *Reconciler) ReconcileNow(ctx context.Context) (ReconcileReport, error) {
	outputs, err := r.source.Outputs()
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list outputs: %w", err)
	}
	windows, err := r.source.Windows()
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list windows: %w", err)
	}
	rep, err := r.target.Reconcile(ctx, outputs, windows)
	if err != nil {
		return rep, err
	}
	if rep.Drifted() {
		r.logger.Info("reconciler corrected drift",
			"mapped", rep.Mapped,
			"unmapped", rep.Unmapped,
			"outputs_added", rep.OutputsAdded,
			"outputs_removed", rep.OutputsRemoved)
	}
	return rep, nil
}

// Reconcile brings the engine in line with the given listing, then tidies
// the tree and checks its invariants.
func (l *Loop) Reconcile(ctx context.Context, outputs []platform.Output, windows []platform.Window) (ReconcileReport, error) {
	var rep ReconcileReport
	err := l.do(ctx, func() {
		rep = l.reconcile(outputs, windows)
	})
	return rep, err
}

func (l *Loop) reconcile(outputs []platform.Output, windows []platform.Window) ReconcileReport {
	var rep ReconcileReport

	known := make(map[string]tiling.OutputNode)
	for _, o := range l.engine.Tree().Outputs {
		known[o.Name] = o
	}
	present := make(map[string]bool, len(outputs))
	for _, o := range outputs {
		present[o.Name] = true
		cur, ok := known[o.Name]
		switch {
		case !ok:
			rep.OutputsAdded++
			l.addOutput(o)
		case cur.Rect.Size() != o.Rect.Size() || cur.RefreshMHz != o.RefreshMHz:
			l.addOutput(o)
		}
	}
	for name := range known {
		if present[name] {
			continue
		}
		delete(l.refresh, name)
		if err := l.engine.RemoveOutput(name); err == nil {
			rep.OutputsRemoved++
		}
	}

	alive := make(map[tiling.WindowID]bool, len(windows))
	for _, w := range windows {
		alive[w.ID] = true
		if !l.engine.HasWindow(w.ID) {
			l.mapWindow(w)
			rep.Mapped++
		}
	}
	for _, id := range l.engine.Windows() {
		if alive[id] {
			continue
		}
		if err := l.engine.UnmapWindow(id); err == nil {
			rep.Unmapped++
		}
	}

	l.engine.Refresh()
	if err := l.engine.Verify(); err != nil {
		l.logger.Error("layout tree invariants violated after reconcile", "error", err)
	}
	l.dirty = true
	return rep
}
