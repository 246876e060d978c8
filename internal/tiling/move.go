package tiling

// detachTile takes a tile out of its column, destroying the column if it
// empties. The tile is left without a parent.
func (e *Engine) detachTile(tid TileID) {
	t := e.tile(tid)
	cid := t.column
	c := e.column(cid)
	if c == nil {
		return
	}
	ws := e.workspace(c.workspace)
	e.removeTileFrom(c, tid)
	t.column = ColumnID{}
	if len(c.tiles) == 0 {
		e.destroyColumn(cid)
		e.reweighColumns(ws, ColumnID{})
		return
	}
	e.reweighTiles(c, TileID{})
	if !e.isLive(c) {
		e.reweighColumns(ws, ColumnID{})
		e.promoteColumn(ws)
	}
}

// detachColumn takes a column out of its workspace.
func (e *Engine) detachColumn(cid ColumnID) {
	c := e.column(cid)
	ws := e.workspace(c.workspace)
	e.removeColumnFrom(ws, cid)
	c.workspace = WorkspaceID{}
	e.reweighColumns(ws, ColumnID{})
}

// attachColumn inserts a detached column into wid at position at and makes
// it active.
func (e *Engine) attachColumn(wid WorkspaceID, at int, cid ColumnID) {
	ws := e.workspace(wid)
	c := e.column(cid)
	c.workspace = wid
	at = min(max(at, 0), len(ws.columns))
	ws.columns = append(ws.columns, ColumnID{})
	copy(ws.columns[at+1:], ws.columns[at:])
	ws.columns[at] = cid
	ws.active = at
	e.reweighColumns(ws, cid)
}

func (e *Engine) MoveColumnLeft() error  { return e.moveColumnStep("move-column-left", -1) }
func (e *Engine) MoveColumnRight() error { return e.moveColumnStep("move-column-right", 1) }

func (e *Engine) moveColumnStep(op string, dir int) error {
	f := e.focused()
	if f.col == nil {
		return e.nothingFocused(op)
	}
	_, idx := e.liveColumns(f.ws)
	pos := indexOf(idx, f.ws.active)
	next := pos + dir
	if next < 0 || next >= len(idx) {
		return e.moveColumnAcrossOutputs(f, dir)
	}
	e.reorderColumn(f.ws, f.ws.active, idx[next])
	e.layoutWorkspace(f.wid)
	return nil
}

// reorderColumn moves the column at from to position to, keeping it active.
func (e *Engine) reorderColumn(ws *Workspace, from, to int) {
	cid := ws.columns[from]
	ws.columns = append(ws.columns[:from], ws.columns[from+1:]...)
	ws.columns = append(ws.columns[:to], append([]ColumnID{cid}, ws.columns[to:]...)...)
	ws.active = to
}

func (e *Engine) moveColumnAcrossOutputs(f focus, dir int) error {
	policy := e.opts.EdgeRight
	if dir < 0 {
		policy = e.opts.EdgeLeft
	}
	if policy != EdgeOutput {
		return nil
	}
	n := e.neighborOutput(f.out, dir)
	if n == nil {
		return nil
	}
	dst, ws := e.activeWorkspaceOf(n)
	if ws == nil {
		return nil
	}
	at := 0
	if dir < 0 {
		at = len(ws.columns)
	}
	e.detachColumn(f.cid)
	e.attachColumn(dst, at, f.cid)
	e.focusOutput = e.outputIndex(n.Name)
	e.tidyOutput(f.out)
	e.tidyOutput(n)
	e.layoutWorkspace(f.wid)
	e.layoutWorkspace(dst)
	return nil
}

func (e *Engine) MoveColumnFirst() error {
	return e.moveColumnAt("move-column-first", func(int) int { return 0 })
}

func (e *Engine) MoveColumnLast() error {
	return e.moveColumnAt("move-column-last", func(n int) int { return n - 1 })
}

// MoveColumn moves the active column to the n-th (1-based) position.
func (e *Engine) MoveColumn(n int) error {
	return e.moveColumnAt("move-column", func(int) int { return n - 1 })
}

func (e *Engine) moveColumnAt(op string, pick func(n int) int) error {
	f := e.focused()
	if f.col == nil {
		return e.nothingFocused(op)
	}
	_, idx := e.liveColumns(f.ws)
	i := pick(len(idx))
	if i < 0 || i >= len(idx) {
		return e.invalid(op, "column", i+1, "columns", len(idx))
	}
	e.reorderColumn(f.ws, f.ws.active, idx[i])
	e.layoutWorkspace(f.wid)
	return nil
}

func (e *Engine) MoveWindowUp() error   { return e.moveWindowStep("move-window-up", -1) }
func (e *Engine) MoveWindowDown() error { return e.moveWindowStep("move-window-down", 1) }

func (e *Engine) moveWindowStep(op string, dir int) error {
	f := e.focused()
	if f.t == nil {
		return e.nothingFocused(op)
	}
	_, idx := e.liveTiles(f.col)
	next := indexOf(idx, f.col.active) + dir
	if next < 0 || next >= len(idx) {
		if e.verticalEdge(dir) == EdgeWorkspace {
			return e.MoveWindowToWorkspace(WorkspaceRef{Relative: dir})
		}
		return nil
	}
	a, b := f.col.active, idx[next]
	f.col.tiles[a], f.col.tiles[b] = f.col.tiles[b], f.col.tiles[a]
	f.col.active = b
	e.layoutWorkspace(f.wid)
	return nil
}

func (e *Engine) ConsumeWindowLeft() error  { return e.consumeWindow("consume-window-left", -1) }
func (e *Engine) ConsumeWindowRight() error { return e.consumeWindow("consume-window-right", 1) }

// consumeWindow moves the focused window to the bottom of the neighbouring
// column.
func (e *Engine) consumeWindow(op string, dir int) error {
	f := e.focused()
	if f.t == nil {
		return e.nothingFocused(op)
	}
	live, idx := e.liveColumns(f.ws)
	next := indexOf(idx, f.ws.active) + dir
	if next < 0 || next >= len(live) {
		return nil
	}
	dst := live[next]
	f.t.fullscreen = false
	e.detachTile(f.tid)

	c := e.column(dst)
	if ft := e.fullscreenTile(c); ft != nil {
		ft.fullscreen = false
	}
	e.insertTile(c, len(c.tiles), f.tid)
	e.reweighTiles(c, f.tid)
	f.ws.active = indexOf(f.ws.columns, dst)
	e.layoutWorkspace(f.wid)
	return nil
}

// ExpelWindow moves the focused window into a new column right after its
// current one.
func (e *Engine) ExpelWindow() error {
	f := e.focused()
	if f.t == nil {
		return e.nothingFocused("expel-window")
	}
	if ids, _ := e.liveTiles(f.col); len(ids) < 2 {
		return nil
	}
	e.detachTile(f.tid)
	e.insertColumn(f.wid, indexOf(f.ws.columns, f.cid)+1, e.opts.DefaultColumnWidth, f.tid)
	e.layoutWorkspace(f.wid)
	return nil
}

// MoveWindowToWorkspace sends the focused window to another workspace as a
// new column, and focus follows it.
func (e *Engine) MoveWindowToWorkspace(ref WorkspaceRef) error {
	f := e.focused()
	if f.t == nil {
		return e.nothingFocused("move-window-to-workspace")
	}
	dstOut, i, err := e.resolveWorkspace(f.out, ref)
	if err != nil {
		return e.invalid("move-window-to-workspace", "workspace", ref.String())
	}
	dst := dstOut.workspaces[i]
	if dst == f.wid {
		return nil
	}
	width := f.col.width
	e.detachTile(f.tid)
	dws := e.workspace(dst)
	e.insertColumn(dst, dws.active+1, width, f.tid)
	e.afterCrossMove(f, dstOut, dst, f.tid)
	return nil
}

// MoveColumnToWorkspace sends the focused column to another workspace, and
// focus follows it.
func (e *Engine) MoveColumnToWorkspace(ref WorkspaceRef) error {
	f := e.focused()
	if f.col == nil {
		return e.nothingFocused("move-column-to-workspace")
	}
	dstOut, i, err := e.resolveWorkspace(f.out, ref)
	if err != nil {
		return e.invalid("move-column-to-workspace", "workspace", ref.String())
	}
	dst := dstOut.workspaces[i]
	if dst == f.wid {
		return nil
	}
	e.detachColumn(f.cid)
	dws := e.workspace(dst)
	at := dws.active + 1
	if len(dws.columns) == 0 {
		at = 0
	}
	e.attachColumn(dst, at, f.cid)
	e.afterCrossMove(f, dstOut, dst, f.tid)
	return nil
}

func (e *Engine) afterCrossMove(f focus, dstOut *Output, dst WorkspaceID, tid TileID) {
	e.layoutWorkspace(f.wid)
	if !e.focusTile(tid) {
		e.tidyOutput(dstOut)
	}
	e.tidyOutput(f.out)
	if dstOut != f.out {
		e.tidyOutput(dstOut)
	}
	e.layoutWorkspace(dst)
}

// MoveWorkspaceToOutput moves the focused workspace to another output. The
// workspace then belongs to that output when outputs come and go.
func (e *Engine) MoveWorkspaceToOutput(name string) error {
	src := e.activeOutput()
	if src == nil {
		return e.nothingFocused("move-workspace-to-output")
	}
	dst := e.output(name)
	if dst == nil {
		return e.invalid("move-workspace-to-output", "output", name)
	}
	if dst == src {
		return nil
	}
	wid, ws := e.activeWorkspaceOf(src)
	e.detachWorkspace(src, wid)
	e.attachWorkspace(dst, wid, max(len(dst.workspaces)-1, 0))
	ws.original = dst.Name
	e.tidyOutput(src)
	e.activateWorkspace(dst, indexOf(dst.workspaces, wid))
	e.focusOutput = e.outputIndex(dst.Name)
	e.layoutWorkspace(wid)
	if cur, _ := e.activeWorkspaceOf(src); cur.Valid() {
		e.layoutWorkspace(cur)
	}
	e.log.Info("workspace moved", "workspace", ws.name, "from", src.Name, "to", dst.Name)
	return nil
}
