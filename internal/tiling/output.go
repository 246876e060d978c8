package tiling

import (
	"sort"

	"github.com/1broseidon/scrolltile/internal/animation"
)

// Output is one display hosting a stack of workspaces.
type Output struct {
	Name    string
	Size    Size
	Refresh int // mHz
	Pos     Point

	workspaces []WorkspaceID
	active     int
	// switchPos is the (fractional) workspace index being shown; it slides
	// vertically between indexes when the active workspace changes.
	switchPos animation.Value
}

// Rect returns the output's logical rectangle.
func (o *Output) Rect() Rect {
	return Rect{X: o.Pos.X, Y: o.Pos.Y, Width: o.Size.Width, Height: o.Size.Height}
}

func (e *Engine) output(name string) *Output {
	for _, o := range e.outputs {
		if o.Name == name {
			return o
		}
	}
	return nil
}

func (e *Engine) activeOutput() *Output {
	if e.focusOutput < 0 || e.focusOutput >= len(e.outputs) {
		return nil
	}
	return e.outputs[e.focusOutput]
}

func (e *Engine) outputIndex(name string) int {
	for i, o := range e.outputs {
		if o.Name == name {
			return i
		}
	}
	return -1
}

func (e *Engine) activeWorkspaceOf(o *Output) (WorkspaceID, *Workspace) {
	if o == nil || o.active < 0 || o.active >= len(o.workspaces) {
		return WorkspaceID{}, nil
	}
	wid := o.workspaces[o.active]
	return wid, e.workspace(wid)
}

// AddOutput registers a display, or updates its mode if it already exists.
// Workspaces that originally lived on it, or were parked, move onto it.
func (e *Engine) AddOutput(name string, size Size, refresh int) {
	if o := e.output(name); o != nil {
		o.Size = size
		o.Refresh = refresh
		e.log.Info("output changed", "output", name, "size", size, "refresh_mhz", refresh)
		e.positionOutputs()
		for _, wid := range o.workspaces {
			e.layoutWorkspace(wid)
		}
		return
	}

	o := &Output{Name: name, Size: size, Refresh: refresh}
	e.outputs = append(e.outputs, o)
	e.positionOutputs()
	e.log.Info("output added", "output", name, "size", size, "refresh_mhz", refresh)

	// Parked workspaces first, then workspaces that belong here.
	for _, wid := range e.parked {
		e.attachWorkspace(o, wid, len(o.workspaces))
	}
	e.parked = nil
	for _, other := range e.outputs {
		if other == o {
			continue
		}
		for _, wid := range append([]WorkspaceID(nil), other.workspaces...) {
			if ws := e.workspace(wid); ws != nil && ws.original == name {
				e.detachWorkspace(other, wid)
				e.attachWorkspace(o, wid, len(o.workspaces))
			}
		}
		e.tidyOutput(other)
	}
	e.ensureNamedWorkspaces()

	if e.focusOutput < 0 {
		e.focusOutput = len(e.outputs) - 1
	}
	e.tidyOutput(o)
	o.switchPos.Jump(float64(o.active))
	for _, wid := range o.workspaces {
		e.layoutWorkspace(wid)
	}
}

// RemoveOutput unplugs a display. Its non-empty or named workspaces move to
// the first remaining output, or are parked when none remain.
func (e *Engine) RemoveOutput(name string) error {
	idx := e.outputIndex(name)
	if idx < 0 {
		return e.invalid("remove output", "output", name)
	}
	o := e.outputs[idx]
	e.outputs = append(e.outputs[:idx], e.outputs[idx+1:]...)
	e.positionOutputs()

	var fallback *Output
	if len(e.outputs) > 0 {
		fallback = e.outputs[0]
	}
	for _, wid := range o.workspaces {
		ws := e.workspace(wid)
		if ws == nil {
			continue
		}
		if ws.empty() && ws.name == "" {
			e.workspaces.remove(Handle(wid))
			continue
		}
		if fallback == nil {
			ws.output = ""
			e.parked = append(e.parked, wid)
			continue
		}
		// Keep the fallback's trailing empty workspace last.
		e.attachWorkspace(fallback, wid, max(len(fallback.workspaces)-1, 0))
	}
	e.log.Info("output removed", "output", name, "fallback", fallbackName(fallback), "parked", len(e.parked))

	switch {
	case len(e.outputs) == 0:
		e.focusOutput = -1
	case e.focusOutput == idx:
		e.focusOutput = 0
	case e.focusOutput > idx:
		e.focusOutput--
	}
	if fallback != nil {
		e.tidyOutput(fallback)
		for _, wid := range fallback.workspaces {
			e.layoutWorkspace(wid)
		}
	}
	return nil
}

func fallbackName(o *Output) string {
	if o == nil {
		return ""
	}
	return o.Name
}

// positionOutputs lays outputs out left to right in add order unless a
// position is configured.
func (e *Engine) positionOutputs() {
	x := 0
	for _, o := range e.outputs {
		if p, ok := e.opts.OutputPositions[o.Name]; ok {
			o.Pos = p
			continue
		}
		o.Pos = Point{X: x}
		x += o.Size.Width
	}
}

// outputsByX returns outputs ordered by logical X position.
func (e *Engine) outputsByX() []*Output {
	sorted := append([]*Output(nil), e.outputs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pos.X < sorted[j].Pos.X
	})
	return sorted
}

// neighborOutput returns the output left (dir<0) or right (dir>0) of o.
func (e *Engine) neighborOutput(o *Output, dir int) *Output {
	sorted := e.outputsByX()
	for i, s := range sorted {
		if s != o {
			continue
		}
		j := i + dir
		if j < 0 || j >= len(sorted) {
			return nil
		}
		return sorted[j]
	}
	return nil
}

func (e *Engine) newWorkspace(name, output string) WorkspaceID {
	ws := &Workspace{name: name, output: output, original: output}
	return WorkspaceID(e.workspaces.insert(ws))
}

func (e *Engine) attachWorkspace(o *Output, wid WorkspaceID, at int) {
	ws := e.workspace(wid)
	if ws == nil {
		return
	}
	at = min(max(at, 0), len(o.workspaces))
	o.workspaces = append(o.workspaces, WorkspaceID{})
	copy(o.workspaces[at+1:], o.workspaces[at:])
	o.workspaces[at] = wid
	if at <= o.active && len(o.workspaces) > 1 {
		o.active++
		o.switchPos.Offset(1)
	}
	ws.output = o.Name
	if ws.original == "" {
		ws.original = o.Name
	}
}

func (e *Engine) detachWorkspace(o *Output, wid WorkspaceID) {
	for i, w := range o.workspaces {
		if w != wid {
			continue
		}
		o.workspaces = append(o.workspaces[:i], o.workspaces[i+1:]...)
		if i < o.active || (i == o.active && o.active == len(o.workspaces)) {
			o.active = max(o.active-1, 0)
			o.switchPos.Offset(-1)
		}
		return
	}
}

// tidyOutput drops empty, unnamed workspaces that are neither active nor
// trailing, and makes sure an empty trailing workspace exists.
func (e *Engine) tidyOutput(o *Output) {
	activeID, _ := e.activeWorkspaceOf(o)
	kept := o.workspaces[:0]
	removedBefore := 0
	for i, wid := range o.workspaces {
		ws := e.workspace(wid)
		if ws == nil {
			if i < o.active {
				removedBefore++
			}
			continue
		}
		last := i == len(o.workspaces)-1
		if ws.empty() && ws.name == "" && wid != activeID && !last {
			e.workspaces.remove(Handle(wid))
			if i < o.active {
				removedBefore++
			}
			continue
		}
		kept = append(kept, wid)
	}
	o.workspaces = kept
	if removedBefore > 0 {
		o.active -= removedBefore
		o.switchPos.Offset(-float64(removedBefore))
	}

	n := len(o.workspaces)
	if n == 0 || !e.isTrailing(o.workspaces[n-1]) {
		o.workspaces = append(o.workspaces, e.newWorkspace("", o.Name))
	}
	o.active = min(max(o.active, 0), len(o.workspaces)-1)
}

// isTrailing reports whether the workspace can serve as the trailing empty
// placeholder.
func (e *Engine) isTrailing(wid WorkspaceID) bool {
	ws := e.workspace(wid)
	return ws != nil && ws.empty() && ws.name == ""
}

// ensureNamedWorkspaces creates configured named workspaces that do not
// exist yet, on their configured output or the first one.
func (e *Engine) ensureNamedWorkspaces() {
	if len(e.outputs) == 0 {
		return
	}
	for _, nw := range e.opts.Workspaces {
		if nw.Name == "" {
			continue
		}
		if wid, _ := e.findWorkspace(nw.Name); wid.Valid() {
			continue
		}
		o := e.output(nw.Output)
		if o == nil {
			o = e.outputs[0]
		}
		wid := e.newWorkspace(nw.Name, o.Name)
		if nw.Output != "" {
			e.workspace(wid).original = nw.Output
		}
		e.attachWorkspace(o, wid, max(len(o.workspaces)-1, 0))
		e.tidyOutput(o)
	}
}

// findWorkspace looks a workspace up by name across outputs and parked ones.
func (e *Engine) findWorkspace(name string) (WorkspaceID, *Output) {
	for _, o := range e.outputs {
		for _, wid := range o.workspaces {
			if ws := e.workspace(wid); ws != nil && ws.name == name {
				return wid, o
			}
		}
	}
	for _, wid := range e.parked {
		if ws := e.workspace(wid); ws != nil && ws.name == name {
			return wid, nil
		}
	}
	return WorkspaceID{}, nil
}

// outputOf returns the output currently showing wid.
func (e *Engine) outputOf(wid WorkspaceID) *Output {
	ws := e.workspace(wid)
	if ws == nil || ws.output == "" {
		return nil
	}
	return e.output(ws.output)
}

// activateWorkspace makes idx the active workspace of o and slides to it.
func (e *Engine) activateWorkspace(o *Output, idx int) {
	if idx == o.active {
		return
	}
	o.active = idx
	o.switchPos.Set(float64(idx), e.now, e.opts.params(e.opts.Animations.WorkspaceSwitch))
	e.tidyOutput(o)
	// tidyOutput may have shifted indexes below the new active one.
	if o.switchPos.Target() != float64(o.active) {
		o.switchPos.Set(float64(o.active), e.now, e.opts.params(e.opts.Animations.WorkspaceSwitch))
	}
}
