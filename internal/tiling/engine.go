package tiling

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

var (
	// ErrInvalidReference reports an action that names a window, column,
	// workspace or output that does not exist, or an index out of range.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrNothingFocused reports an action that needs a focused window or
	// column when there is none.
	ErrNothingFocused = errors.New("nothing focused")
)

// Stats are cumulative engine counters and current tree sizes.
type Stats struct {
	Outputs        int    `json:"outputs"`
	Workspaces     int    `json:"workspaces"`
	Columns        int    `json:"columns"`
	Tiles          int    `json:"tiles"`
	Pending        int    `json:"pending"`
	ConfiguresSent uint64 `json:"configures_sent"`
	ForcedCommits  uint64 `json:"forced_commits"`
	StaleAcks      uint64 `json:"stale_acks"`
	Repairs        uint64 `json:"repairs"`
}

// Engine owns the output → workspace → column → tile tree.
//
// Engine is not safe for concurrent use. All calls must come from one
// goroutine; collaborators only ever receive copies.
type Engine struct {
	opts Options
	log  *slog.Logger

	tiles      arena[Tile]
	columns    arena[Column]
	workspaces arena[Workspace]

	outputs     []*Output
	focusOutput int
	parked      []WorkspaceID

	byWindow map[WindowID]TileID
	// hints are insert hints registered for windows that are not mapped yet.
	hints map[WindowID]InsertHint

	configures []ConfigureRequest
	closes     []WindowID

	now   time.Duration
	stats Stats
}

// New creates an empty engine. A nil logger discards output.
func New(opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		opts:        opts,
		log:         logger,
		focusOutput: -1,
		byWindow:    make(map[WindowID]TileID),
		hints:       make(map[WindowID]InsertHint),
	}
}

// Options returns the current policy values.
func (e *Engine) Options() Options {
	return e.opts
}

// SetOptions swaps the policy values and re-solves every workspace.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
	e.positionOutputs()
	e.ensureNamedWorkspaces()
	e.relayoutAll()
	e.log.Debug("options updated")
}

// Now returns the engine clock, set by SetTime or Advance.
func (e *Engine) Now() time.Duration {
	return e.now
}

func (e *Engine) invalid(op string, kv ...any) error {
	e.log.Warn(op+": invalid reference", kv...)
	return fmt.Errorf("%s: %w", op, ErrInvalidReference)
}

func (e *Engine) nothingFocused(op string) error {
	e.log.Warn(op + ": nothing focused")
	return fmt.Errorf("%s: %w", op, ErrNothingFocused)
}

func (e *Engine) relayoutAll() {
	for _, o := range e.outputs {
		for _, wid := range o.workspaces {
			e.layoutWorkspace(wid)
		}
	}
}

// MapWindow inserts a newly mapped window.
func (e *Engine) MapWindow(info WindowInfo, pl Placement) error {
	if tid, ok := e.byWindow[info.ID]; ok {
		t := e.tile(tid)
		if t != nil && !t.closing {
			return e.invalid("map window: already mapped", "window", info.ID)
		}
		e.replaceClosing(tid)
	}

	wid, ws := e.insertTarget(pl)
	if ws == nil {
		return e.invalid("map window: no workspace", "window", info.ID)
	}

	hint := e.resolveInsertHint(info.ID, pl, ws)
	delete(e.hints, info.ID)

	t := newTile(info)
	t.fullscreen = pl.Fullscreen
	tid := TileID(e.tiles.insert(t))
	e.byWindow[info.ID] = tid

	width := e.opts.DefaultColumnWidth
	if pl.Width != nil {
		width = *pl.Width
	}

	_, active := e.activeColumn(ws)
	if active == nil || hint == InsertNewColumn || t.fullscreen || e.fullscreenTile(active) != nil {
		cid := e.insertColumn(wid, ws.active+1, width, tid)
		if width.Kind == SizeWeighted && width.Weight < 1 {
			e.shareColumn(ws, cid, width.Weight)
		}
	} else {
		at := active.active
		if hint == InsertStackBelow {
			at++
		}
		e.insertTile(active, at, tid)
		e.reweighTiles(active, tid)
	}

	t.open.Set(1, e.now, e.opts.params(e.opts.Animations.WindowOpen))

	if o := e.outputOf(wid); o != nil {
		if cur, _ := e.activeWorkspaceOf(o); cur == wid {
			e.focusOutput = e.outputIndex(o.Name)
		}
		e.tidyOutput(o)
	}
	e.layoutWorkspace(wid)
	e.log.Debug("window mapped", "window", info.ID, "app_id", info.AppID, "insert", hint)
	return nil
}

// insertTarget picks the workspace a new window lands on.
func (e *Engine) insertTarget(pl Placement) (WorkspaceID, *Workspace) {
	if pl.Workspace != "" {
		if wid, o := e.findWorkspace(pl.Workspace); wid.Valid() && o != nil {
			return wid, e.workspace(wid)
		}
	}
	if pl.Output != "" {
		if o := e.output(pl.Output); o != nil {
			return e.activeWorkspaceOf(o)
		}
	}
	if o := e.activeOutput(); o != nil {
		return e.activeWorkspaceOf(o)
	}
	// No outputs: keep the window in a parked workspace until one appears.
	if len(e.parked) == 0 {
		e.parked = append(e.parked, e.newWorkspace("", ""))
	}
	wid := e.parked[0]
	return wid, e.workspace(wid)
}

func (e *Engine) resolveInsertHint(id WindowID, pl Placement, ws *Workspace) InsertHint {
	if h, ok := e.hints[id]; ok && h != InsertUnset {
		return h
	}
	if pl.Insert != InsertUnset {
		return pl.Insert
	}
	if _, c := e.activeColumn(ws); c != nil {
		if _, t := e.activeTile(c); t != nil && t.insert != InsertUnset {
			return t.insert
		}
	}
	if e.opts.Insert != InsertUnset {
		return e.opts.Insert
	}
	return InsertNewColumn
}

// insertColumn creates a column holding tid at position at and focuses it.
func (e *Engine) insertColumn(wid WorkspaceID, at int, width SizePolicy, tid TileID) ColumnID {
	ws := e.workspace(wid)
	c := &Column{workspace: wid, width: width}
	cid := ColumnID(e.columns.insert(c))
	if len(ws.columns) == 0 {
		at = 0
	}
	at = min(max(at, 0), len(ws.columns))
	ws.columns = append(ws.columns, ColumnID{})
	copy(ws.columns[at+1:], ws.columns[at:])
	ws.columns[at] = cid
	ws.active = at
	if tid.Valid() {
		e.insertTile(c, 0, tid)
		e.tile(tid).height = Weighted(1)
	}
	e.reweighColumns(ws, cid)
	return cid
}

// insertTile puts tid into c at position at and makes it active. The caller
// reweighs the column.
func (e *Engine) insertTile(c *Column, at int, tid TileID) {
	cid := e.columnIDOf(c)
	at = min(max(at, 0), len(c.tiles))
	c.tiles = append(c.tiles, TileID{})
	copy(c.tiles[at+1:], c.tiles[at:])
	c.tiles[at] = tid
	c.active = at
	e.tile(tid).column = cid
}

// columnIDOf finds the handle of c through its workspace.
func (e *Engine) columnIDOf(c *Column) ColumnID {
	if ws := e.workspace(c.workspace); ws != nil {
		for _, cid := range ws.columns {
			if e.column(cid) == c {
				return cid
			}
		}
	}
	var found ColumnID
	e.columns.each(func(h Handle, v *Column) {
		if v == c {
			found = ColumnID(h)
		}
	})
	return found
}

// UnmapWindow starts the close animation of a window. The tile leaves the
// layout immediately and is destroyed when the animation ends.
func (e *Engine) UnmapWindow(id WindowID) error {
	tid, ok := e.byWindow[id]
	t := e.tile(tid)
	if !ok || t == nil {
		return e.invalid("unmap window", "window", id)
	}
	if t.closing {
		return nil
	}
	t.closing = true
	t.pending = false
	t.open.Set(0, e.now, e.opts.params(e.opts.Animations.WindowClose))

	c := e.column(t.column)
	ws := e.workspace(c.workspace)
	e.promoteTile(c)
	e.reweighTiles(c, TileID{})
	if !e.isLive(c) {
		e.reweighColumns(ws, ColumnID{})
		e.promoteColumn(ws)
	}
	e.log.Debug("window unmapped", "window", id)

	if !t.open.Animating() {
		e.finishClose(tid)
	}
	e.layoutWorkspace(c.workspace)
	return nil
}

// finishClose destroys a tile and, if it was the last one, its column.
func (e *Engine) finishClose(tid TileID) {
	t := e.tile(tid)
	if t == nil {
		return
	}
	c := e.column(t.column)
	if c != nil {
		e.removeTileFrom(c, tid)
	}
	if e.byWindow[t.window] == tid {
		delete(e.byWindow, t.window)
	}
	e.tiles.remove(Handle(tid))
	if c != nil && len(c.tiles) == 0 {
		e.destroyColumn(t.column)
	}
}

// replaceClosing drops a tile whose window was remapped before its close
// animation ended, then lays out and tidies what it leaves behind.
func (e *Engine) replaceClosing(tid TileID) {
	var wid WorkspaceID
	if t := e.tile(tid); t != nil {
		if c := e.column(t.column); c != nil {
			wid = c.workspace
		}
	}
	e.finishClose(tid)
	if e.workspace(wid) == nil {
		return
	}
	e.layoutWorkspace(wid)
	if o := e.outputOf(wid); o != nil {
		e.tidyOutput(o)
	}
}

func (e *Engine) removeTileFrom(c *Column, tid TileID) {
	for i, x := range c.tiles {
		if x != tid {
			continue
		}
		c.tiles = append(c.tiles[:i], c.tiles[i+1:]...)
		if i < c.active {
			c.active--
		}
		e.promoteTile(c)
		return
	}
}

// destroyColumn removes an empty column from its workspace.
func (e *Engine) destroyColumn(cid ColumnID) {
	c := e.column(cid)
	if c == nil {
		return
	}
	if ws := e.workspace(c.workspace); ws != nil {
		e.removeColumnFrom(ws, cid)
	}
	e.columns.remove(Handle(cid))
}

func (e *Engine) removeColumnFrom(ws *Workspace, cid ColumnID) {
	for i, x := range ws.columns {
		if x != cid {
			continue
		}
		ws.columns = append(ws.columns[:i], ws.columns[i+1:]...)
		if i < ws.active {
			ws.active--
		}
		e.promoteColumn(ws)
		return
	}
}

// AckConfigure records a client's acknowledgment of a configure request.
func (e *Engine) AckConfigure(id WindowID, serial uint32) error {
	t := e.tile(e.byWindow[id])
	if t == nil {
		return e.invalid("ack configure", "window", id)
	}
	if !t.ack(serial) {
		e.stats.StaleAcks++
		e.log.Debug("stale configure ack ignored", "window", id, "serial", serial, "awaiting", t.serial)
		return nil
	}
	t.settleSize(e.now, e.opts.params(e.opts.Animations.WindowResize))
	return nil
}

// SetSizeHints updates a window's size constraints and re-solves its
// workspace.
func (e *Engine) SetSizeHints(id WindowID, hints SizeHints) error {
	t := e.tile(e.byWindow[id])
	if t == nil {
		return e.invalid("set size hints", "window", id)
	}
	t.hints = hints
	if c := e.column(t.column); c != nil {
		e.layoutWorkspace(c.workspace)
	}
	return nil
}

// SetTitle updates window metadata shown in the tree.
func (e *Engine) SetTitle(id WindowID, title string) error {
	t := e.tile(e.byWindow[id])
	if t == nil {
		return e.invalid("set title", "window", id)
	}
	t.title = title
	return nil
}

// SetTime moves the engine clock forward without stepping anything. Input
// applied afterwards starts its animations and grace periods at now. The
// clock never goes backwards.
func (e *Engine) SetTime(now time.Duration) {
	if now > e.now {
		e.now = now
	}
}

// Advance steps every animation to now, force-commits configure requests
// whose grace period has expired and destroys tiles whose close animation
// has ended. It reports whether further frames are needed.
func (e *Engine) Advance(now time.Duration) bool {
	e.SetTime(now)
	timeout := e.opts.configureTimeout()
	resize := e.opts.params(e.opts.Animations.WindowResize)

	var finished []TileID
	animating := false
	e.tiles.each(func(h Handle, t *Tile) {
		if t.expired(e.now, timeout) {
			t.forceCommit()
			t.settleSize(e.now, resize)
			e.stats.ForcedCommits++
			e.log.Warn("configure not acknowledged, committing anyway",
				"window", t.window, "size", t.requested, "serial", t.serial, "timeout", timeout)
		}
		if t.advance(e.now) {
			animating = true
		}
		if t.closing && !t.open.Animating() {
			finished = append(finished, TileID(h))
		}
	})

	touched := map[WorkspaceID]bool{}
	for _, tid := range finished {
		if c := e.column(e.tile(tid).column); c != nil {
			touched[c.workspace] = true
		}
		e.finishClose(tid)
	}
	for wid := range touched {
		e.layoutWorkspace(wid)
	}
	if len(finished) > 0 {
		animating = true
	}

	e.workspaces.each(func(_ Handle, ws *Workspace) {
		if ws.view.Advance(e.now) {
			animating = true
		}
	})
	for _, o := range e.outputs {
		if o.switchPos.Advance(e.now) {
			animating = true
		}
	}
	return animating
}

// Deadline returns the earliest time a pending configure request will be
// force-committed.
func (e *Engine) Deadline() (time.Duration, bool) {
	timeout := e.opts.configureTimeout()
	var earliest time.Duration
	found := false
	e.tiles.each(func(_ Handle, t *Tile) {
		if !t.pending {
			return
		}
		d := t.pendingSince + timeout
		if !found || d < earliest {
			earliest = d
			found = true
		}
	})
	return earliest, found
}

// TakeConfigures returns and clears the queued configure requests.
func (e *Engine) TakeConfigures() []ConfigureRequest {
	out := e.configures
	e.configures = nil
	return out
}

// TakeCloses returns and clears the windows asked to close.
func (e *Engine) TakeCloses() []WindowID {
	out := e.closes
	e.closes = nil
	return out
}

// Focused returns the focused window.
func (e *Engine) Focused() (WindowID, bool) {
	_, ws := e.activeWorkspaceOf(e.activeOutput())
	if ws == nil {
		return 0, false
	}
	_, c := e.activeColumn(ws)
	if c == nil {
		return 0, false
	}
	_, t := e.activeTile(c)
	if t == nil {
		return 0, false
	}
	return t.window, true
}

// HasWindow reports whether a window is managed and not closing.
func (e *Engine) HasWindow(id WindowID) bool {
	t := e.tile(e.byWindow[id])
	return t != nil && !t.closing
}

// Windows returns every managed window that is not closing.
func (e *Engine) Windows() []WindowID {
	var out []WindowID
	e.tiles.each(func(_ Handle, t *Tile) {
		if !t.closing {
			out = append(out, t.window)
		}
	})
	return out
}

// Stats returns counters and tree sizes.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Outputs = len(e.outputs)
	s.Workspaces = e.workspaces.len()
	s.Columns = e.columns.len()
	s.Tiles = e.tiles.len()
	e.tiles.each(func(_ Handle, t *Tile) {
		if t.pending {
			s.Pending++
		}
	})
	return s
}

// Refresh runs the periodic cleanup: it drops stale workspaces, repairs
// structural damage and re-solves layouts.
func (e *Engine) Refresh() {
	for _, o := range e.outputs {
		e.tidyOutput(o)
	}
	e.repair()
	if e.focusOutput >= len(e.outputs) {
		e.focusOutput = len(e.outputs) - 1
	}
	if e.focusOutput < 0 && len(e.outputs) > 0 {
		e.focusOutput = 0
	}
	e.relayoutAll()
}
