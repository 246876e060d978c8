package tiling

import "strconv"

// WorkspaceRef names a workspace by 1-based index, by offset from the active
// one, or by name. Exactly one field is set.
type WorkspaceRef struct {
	Index    int
	Relative int
	Name     string
}

func (r WorkspaceRef) String() string {
	switch {
	case r.Name != "":
		return r.Name
	case r.Index > 0:
		return strconv.Itoa(r.Index)
	case r.Relative > 0:
		return "+" + strconv.Itoa(r.Relative)
	default:
		return strconv.Itoa(r.Relative)
	}
}

// focus is the chain from the focused output down to the focused tile.
// Any suffix of the chain may be missing.
type focus struct {
	out *Output
	wid WorkspaceID
	ws  *Workspace
	cid ColumnID
	col *Column
	tid TileID
	t   *Tile
}

func (e *Engine) focused() focus {
	var f focus
	f.out = e.activeOutput()
	if f.out == nil {
		return f
	}
	f.wid, f.ws = e.activeWorkspaceOf(f.out)
	if f.ws == nil {
		return f
	}
	f.cid, f.col = e.activeColumn(f.ws)
	if f.col == nil {
		return f
	}
	f.tid, f.t = e.activeTile(f.col)
	return f
}

// focusTile makes tid the focused tile, switching workspace and output as
// needed.
func (e *Engine) focusTile(tid TileID) bool {
	t := e.tile(tid)
	if t == nil || t.closing {
		return false
	}
	c := e.column(t.column)
	ws := e.workspace(c.workspace)
	o := e.viewport(ws)
	if o == nil {
		return false
	}
	for i, x := range c.tiles {
		if x == tid {
			c.active = i
		}
	}
	for i, x := range ws.columns {
		if x == t.column {
			ws.active = i
		}
	}
	if i := indexOf(o.workspaces, c.workspace); i >= 0 {
		e.activateWorkspace(o, i)
	}
	e.focusOutput = e.outputIndex(o.Name)
	e.layoutWorkspace(c.workspace)
	return true
}

func (e *Engine) FocusColumnLeft() error  { return e.focusColumnStep("focus-column-left", -1) }
func (e *Engine) FocusColumnRight() error { return e.focusColumnStep("focus-column-right", 1) }

func (e *Engine) focusColumnStep(op string, dir int) error {
	f := e.focused()
	if f.ws == nil {
		return e.nothingFocused(op)
	}
	_, idx := e.liveColumns(f.ws)
	if len(idx) == 0 {
		return e.nothingFocused(op)
	}
	next := indexOf(idx, f.ws.active) + dir
	if next < 0 || next >= len(idx) {
		return e.crossOutput(f, dir)
	}
	f.ws.active = idx[next]
	e.layoutWorkspace(f.wid)
	return nil
}

// crossOutput applies the horizontal edge policy.
func (e *Engine) crossOutput(f focus, dir int) error {
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
	e.focusOutput = e.outputIndex(n.Name)
	wid, ws := e.activeWorkspaceOf(n)
	if ws == nil {
		return nil
	}
	if _, idx := e.liveColumns(ws); len(idx) > 0 {
		if dir > 0 {
			ws.active = idx[0]
		} else {
			ws.active = idx[len(idx)-1]
		}
		e.layoutWorkspace(wid)
	}
	e.log.Debug("focus moved to output", "output", n.Name)
	return nil
}

func (e *Engine) FocusColumnFirst() error {
	return e.focusColumnAt("focus-column-first", func(n int) int { return 0 })
}

func (e *Engine) FocusColumnLast() error {
	return e.focusColumnAt("focus-column-last", func(n int) int { return n - 1 })
}

// FocusColumn focuses the n-th (1-based) column of the active workspace.
func (e *Engine) FocusColumn(n int) error {
	return e.focusColumnAt("focus-column", func(int) int { return n - 1 })
}

func (e *Engine) focusColumnAt(op string, pick func(n int) int) error {
	f := e.focused()
	if f.ws == nil {
		return e.nothingFocused(op)
	}
	_, idx := e.liveColumns(f.ws)
	if len(idx) == 0 {
		return e.nothingFocused(op)
	}
	i := pick(len(idx))
	if i < 0 || i >= len(idx) {
		return e.invalid(op, "column", i+1, "columns", len(idx))
	}
	f.ws.active = idx[i]
	e.layoutWorkspace(f.wid)
	return nil
}

func (e *Engine) FocusWindowUp() error   { return e.focusWindowStep("focus-window-up", -1) }
func (e *Engine) FocusWindowDown() error { return e.focusWindowStep("focus-window-down", 1) }

func (e *Engine) focusWindowStep(op string, dir int) error {
	f := e.focused()
	if f.col == nil {
		if f.ws != nil && e.verticalEdge(dir) == EdgeWorkspace {
			return e.switchWorkspaceBy(f.out, dir)
		}
		return e.nothingFocused(op)
	}
	_, idx := e.liveTiles(f.col)
	next := indexOf(idx, f.col.active) + dir
	if next < 0 || next >= len(idx) {
		if e.verticalEdge(dir) == EdgeWorkspace {
			return e.switchWorkspaceBy(f.out, dir)
		}
		return nil
	}
	f.col.active = idx[next]
	return nil
}

func (e *Engine) verticalEdge(dir int) EdgePolicy {
	if dir < 0 {
		return e.opts.EdgeUp
	}
	return e.opts.EdgeDown
}

// FocusWindow focuses a window wherever it is.
func (e *Engine) FocusWindow(id WindowID) error {
	tid, ok := e.byWindow[id]
	if !ok || !e.focusTile(tid) {
		return e.invalid("focus-window", "window", id)
	}
	return nil
}

// SwitchWorkspace activates a workspace on the focused output, or on the
// output that shows a named workspace.
func (e *Engine) SwitchWorkspace(ref WorkspaceRef) error {
	o := e.activeOutput()
	if o == nil {
		return e.nothingFocused("switch-workspace")
	}
	target, idx, err := e.resolveWorkspace(o, ref)
	if err != nil {
		return e.invalid("switch-workspace", "workspace", ref.String())
	}
	e.focusOutput = e.outputIndex(target.Name)
	e.activateWorkspace(target, idx)
	if wid, _ := e.activeWorkspaceOf(target); wid.Valid() {
		e.layoutWorkspace(wid)
	}
	return nil
}

func (e *Engine) switchWorkspaceBy(o *Output, dir int) error {
	if o == nil {
		return nil
	}
	return e.SwitchWorkspace(WorkspaceRef{Relative: dir})
}

// resolveWorkspace finds the output and index a reference points at.
// Relative references clamp at the first and trailing workspace.
func (e *Engine) resolveWorkspace(o *Output, ref WorkspaceRef) (*Output, int, error) {
	switch {
	case ref.Name != "":
		wid, owner := e.findWorkspace(ref.Name)
		if !wid.Valid() || owner == nil {
			return nil, 0, ErrInvalidReference
		}
		return owner, indexOf(owner.workspaces, wid), nil
	case ref.Index > 0:
		if ref.Index > len(o.workspaces) {
			return nil, 0, ErrInvalidReference
		}
		return o, ref.Index - 1, nil
	case ref.Relative != 0:
		return o, min(max(o.active+ref.Relative, 0), len(o.workspaces)-1), nil
	default:
		return nil, 0, ErrInvalidReference
	}
}

// CreateWorkspace adds a named workspace on the focused output and switches
// to it. An existing name just switches.
func (e *Engine) CreateWorkspace(name string) error {
	if name == "" {
		return e.invalid("create-workspace", "name", name)
	}
	if wid, _ := e.findWorkspace(name); wid.Valid() {
		return e.SwitchWorkspace(WorkspaceRef{Name: name})
	}
	o := e.activeOutput()
	if o == nil {
		return e.nothingFocused("create-workspace")
	}
	wid := e.newWorkspace(name, o.Name)
	at := max(len(o.workspaces)-1, 0)
	e.attachWorkspace(o, wid, at)
	e.activateWorkspace(o, indexOf(o.workspaces, wid))
	e.log.Info("workspace created", "workspace", name, "output", o.Name)
	return nil
}

// SwitchOutput focuses an output by name, or the one left or right of the
// focused output.
func (e *Engine) SwitchOutput(ref string) error {
	cur := e.activeOutput()
	var target *Output
	switch ref {
	case "left":
		target = e.neighborOutput(cur, -1)
	case "right":
		target = e.neighborOutput(cur, 1)
	default:
		target = e.output(ref)
		if target == nil {
			return e.invalid("switch-output", "output", ref)
		}
	}
	if target == nil || target == cur {
		return nil
	}
	e.focusOutput = e.outputIndex(target.Name)
	// Retarget the view so the focused column slides into place.
	if wid, _ := e.activeWorkspaceOf(target); wid.Valid() {
		e.layoutWorkspace(wid)
	}
	return nil
}

func indexOf[T comparable](xs []T, v T) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}
