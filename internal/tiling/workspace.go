package tiling

import (
	"math"

	"github.com/1broseidon/scrolltile/internal/animation"
)

// Workspace is a horizontally scrollable strip of columns.
type Workspace struct {
	name    string
	columns []ColumnID
	active  int

	// view is the horizontal scroll position in strip coordinates.
	view animation.Value

	// output is the bound output name; empty means parked.
	output string
	// original is where the workspace was created or last sent explicitly.
	original string

	stripWidth int
}

func (ws *Workspace) empty() bool {
	return len(ws.columns) == 0
}

// liveColumns returns the columns that still have a tile that is not closing,
// with their positions in ws.columns.
func (e *Engine) liveColumns(ws *Workspace) ([]ColumnID, []int) {
	var ids []ColumnID
	var idx []int
	for i, cid := range ws.columns {
		if c := e.column(cid); c != nil && e.isLive(c) {
			ids = append(ids, cid)
			idx = append(idx, i)
		}
	}
	return ids, idx
}

func (e *Engine) activeColumn(ws *Workspace) (ColumnID, *Column) {
	if ws.active < 0 || ws.active >= len(ws.columns) {
		return ColumnID{}, nil
	}
	cid := ws.columns[ws.active]
	c := e.column(cid)
	if c == nil || !e.isLive(c) {
		return ColumnID{}, nil
	}
	return cid, c
}

// promoteColumn moves the active index off a dead or removed column,
// preferring the column to the right.
func (e *Engine) promoteColumn(ws *Workspace) {
	if len(ws.columns) == 0 {
		ws.active = 0
		return
	}
	ws.active = min(max(ws.active, 0), len(ws.columns)-1)
	live := func(i int) bool {
		c := e.column(ws.columns[i])
		return c != nil && e.isLive(c)
	}
	if live(ws.active) {
		return
	}
	for i := ws.active + 1; i < len(ws.columns); i++ {
		if live(i) {
			ws.active = i
			return
		}
	}
	for i := ws.active - 1; i >= 0; i-- {
		if live(i) {
			ws.active = i
			return
		}
	}
}

// reweighColumns keeps the live weighted columns' weights summing to 1. When
// inserted is set, that column receives a 1/k share.
func (e *Engine) reweighColumns(ws *Workspace, inserted ColumnID) {
	var ps []*SizePolicy
	idx := -1
	for _, cid := range ws.columns {
		c := e.column(cid)
		if c == nil || c.width.Kind != SizeWeighted || !e.isLive(c) {
			continue
		}
		if cid == inserted {
			idx = len(ps)
		}
		ps = append(ps, &c.width)
	}
	applyWeights(ps, func(ws []float64) {
		if idx >= 0 {
			insertWeight(ws, idx)
			return
		}
		normalizeWeights(ws)
	})
}

// shareColumn gives cid the proportion p of the weighted width and scales
// its siblings to fit.
func (e *Engine) shareColumn(ws *Workspace, cid ColumnID, p float64) {
	var ps []*SizePolicy
	idx := -1
	for _, id := range ws.columns {
		c := e.column(id)
		if c == nil || c.width.Kind != SizeWeighted || !e.isLive(c) {
			continue
		}
		if id == cid {
			idx = len(ps)
		}
		ps = append(ps, &c.width)
	}
	if idx < 0 {
		return
	}
	applyWeights(ps, func(ws []float64) { setWeight(ws, idx, p) })
}

// viewport returns the output the workspace is shown on.
func (e *Engine) viewport(ws *Workspace) *Output {
	if ws.output == "" {
		return nil
	}
	return e.output(ws.output)
}

// layoutWorkspace solves column widths and tile heights, issues configure
// requests for changed sizes, and retargets the view offset. Parked
// workspaces keep their last geometry.
func (e *Engine) layoutWorkspace(wid WorkspaceID) {
	ws := e.workspace(wid)
	if ws == nil {
		return
	}
	o := e.viewport(ws)
	if o == nil {
		return
	}

	gap := e.opts.Gap
	viewW := max(o.Size.Width-2*gap, 1)
	viewH := max(o.Size.Height-2*gap, 1)

	live, _ := e.liveColumns(ws)
	var spans []Span
	var solve []*Column
	for _, cid := range live {
		c := e.column(cid)
		if e.fullscreenTile(c) != nil {
			continue
		}
		spans = append(spans, e.columnSpan(c))
		solve = append(solve, c)
	}
	widths := SolveSpans(spans, viewW, gap, e.opts.MinColumnWidth)
	for i, c := range solve {
		c.solvW = widths[i]
	}

	x := gap
	for _, cid := range live {
		c := e.column(cid)
		if e.fullscreenTile(c) != nil {
			c.solvW = o.Size.Width
		}
		c.x = x
		e.layoutColumn(c, o, viewH)
		x += c.solvW + gap
	}
	if len(live) == 0 {
		x = 0
	}
	ws.stripWidth = x

	e.updateView(ws, o)
}

func (e *Engine) layoutColumn(c *Column, o *Output, viewH int) {
	move := e.opts.params(e.opts.Animations.WindowMovement)
	resize := e.opts.params(e.opts.Animations.WindowResize)

	if ft := e.fullscreenTile(c); ft != nil {
		e.placeTile(ft, Rect{X: c.x, Y: 0, Width: o.Size.Width, Height: o.Size.Height}, move, resize)
		return
	}

	gap := e.opts.Gap
	ids, _ := e.liveTiles(c)
	spans := make([]Span, len(ids))
	for i, tid := range ids {
		t := e.tile(tid)
		spans[i] = Span{
			Policy:  t.height,
			Natural: t.hints.Preferred.Height,
			Min:     t.hints.Min.Height,
			Max:     t.hints.Max.Height,
		}
		if t.height.Kind == SizeAuto && spans[i].Natural == 0 {
			spans[i].Natural = t.committed.Height
		}
	}
	heights := SolveSpans(spans, viewH, gap, e.opts.MinTileHeight)

	y := gap
	for i, tid := range ids {
		t := e.tile(tid)
		w := c.solvW
		if mw := t.hints.Max.Width; mw > 0 && w > mw {
			w = mw
		}
		e.placeTile(t, Rect{X: c.x, Y: y, Width: w, Height: heights[i]}, move, resize)
		y += heights[i] + gap
	}
}

func (e *Engine) placeTile(t *Tile, r Rect, move, resize animation.Params) {
	if req, ok := t.request(r.Size(), e.now); ok {
		e.configures = append(e.configures, req)
		e.stats.ConfiguresSent++
		e.log.Debug("configure requested", "window", t.window, "size", req.Size, "serial", req.Serial)
	}
	t.place(r, e.now, move)
	t.settleSize(e.now, resize)
	t.fresh = false
}

// updateView retargets the view offset so the active column is visible and
// clamps it to the strip.
func (e *Engine) updateView(ws *Workspace, o *Output) {
	p := e.opts.params(e.opts.Animations.ViewOffset)
	viewW := o.Size.Width
	maxOff := float64(max(0, ws.stripWidth-viewW))

	target := ws.view.Target()
	if _, c := e.activeColumn(ws); c != nil {
		gap := e.opts.Gap
		left := float64(c.x - gap)
		right := float64(c.x + c.solvW + gap)
		switch {
		case e.fullscreenTile(c) != nil:
			target = float64(c.x)
		case e.opts.CenterFocusedColumn == CenterAlways:
			target = float64(c.x) + float64(c.solvW)/2 - float64(viewW)/2
		case right-left > float64(viewW) || left < target:
			target = left
		case right > target+float64(viewW):
			target = right - float64(viewW)
		}
	}
	target = math.Min(math.Max(target, 0), maxOff)
	ws.view.Set(target, e.now, p)
}
