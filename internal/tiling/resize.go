package tiling

import (
	"fmt"
	"math"
)

// SizeChangeKind selects how a resize is applied.
type SizeChangeKind int

const (
	SetPixels SizeChangeKind = iota
	AdjustPixels
	SetProportion
	AdjustProportion
	SetAuto
)

// SizeChange is a resize request on one axis.
type SizeChange struct {
	Kind       SizeChangeKind
	Pixels     int
	Proportion float64
}

func (c SizeChange) String() string {
	switch c.Kind {
	case SetPixels:
		return fmt.Sprintf("%d", c.Pixels)
	case AdjustPixels:
		return fmt.Sprintf("%+d", c.Pixels)
	case SetProportion:
		return fmt.Sprintf("%g%%", c.Proportion*100)
	case AdjustProportion:
		return fmt.Sprintf("%+g%%", c.Proportion*100)
	default:
		return "auto"
	}
}

// resizePolicy applies ch to self. current is the solved size on this axis
// and extent the space the axis shares. group returns the weighted policies
// that share the axis, self included when it is weighted.
func resizePolicy(self *SizePolicy, current, extent, floor int, ch SizeChange, group func() []*SizePolicy) {
	if self.Kind == SizeFixed {
		current = self.Pixels
	}
	switch ch.Kind {
	case SetPixels, AdjustPixels:
		px := ch.Pixels
		if ch.Kind == AdjustPixels {
			px += current
		}
		*self = Fixed(min(max(px, floor, 1), max(extent, 1)))
		applyWeights(group(), normalizeWeights)

	case SetProportion, AdjustProportion:
		p := ch.Proportion
		if ch.Kind == AdjustProportion {
			base := self.Weight
			if self.Kind != SizeWeighted {
				base = float64(current) / float64(max(extent, 1))
			}
			p += base
		}
		p = math.Min(math.Max(p, minWeight), 1)
		*self = Weighted(p)
		ps := group()
		idx := -1
		for i, x := range ps {
			if x == self {
				idx = i
			}
		}
		applyWeights(ps, func(ws []float64) {
			if idx < 0 {
				normalizeWeights(ws)
				return
			}
			setWeight(ws, idx, p)
		})

	case SetAuto:
		*self = Auto()
		applyWeights(group(), normalizeWeights)
	}
}

// ResizeColumn changes the focused column's width policy and re-solves the
// workspace. Weighted siblings renormalise around the change.
func (e *Engine) ResizeColumn(ch SizeChange) error {
	f := e.focused()
	if f.col == nil {
		return e.nothingFocused("resize width")
	}
	extent := max(f.out.Size.Width-2*e.opts.Gap, 1)
	resizePolicy(&f.col.width, f.col.solvW, extent, e.opts.MinColumnWidth, ch, func() []*SizePolicy {
		var ps []*SizePolicy
		for _, cid := range f.ws.columns {
			c := e.column(cid)
			if c != nil && c.width.Kind == SizeWeighted && e.isLive(c) {
				ps = append(ps, &c.width)
			}
		}
		return ps
	})
	e.log.Debug("column resized", "change", ch.String(), "policy", f.col.width.String())
	e.layoutWorkspace(f.wid)
	return nil
}

// ResizeWindowHeight changes the focused tile's height policy within its
// column.
func (e *Engine) ResizeWindowHeight(ch SizeChange) error {
	f := e.focused()
	if f.t == nil {
		return e.nothingFocused("resize height")
	}
	extent := max(f.out.Size.Height-2*e.opts.Gap, 1)
	resizePolicy(&f.t.height, f.t.target.Height, extent, e.opts.MinTileHeight, ch, func() []*SizePolicy {
		var ps []*SizePolicy
		for _, tid := range f.col.tiles {
			t := e.tile(tid)
			if t != nil && !t.closing && t.height.Kind == SizeWeighted {
				ps = append(ps, &t.height)
			}
		}
		return ps
	})
	e.log.Debug("window resized", "window", f.t.window, "change", ch.String(), "policy", f.t.height.String())
	e.layoutWorkspace(f.wid)
	return nil
}

// CenterColumn scrolls the view so the focused column is centred.
func (e *Engine) CenterColumn() error {
	f := e.focused()
	if f.col == nil {
		return e.nothingFocused("center-column")
	}
	viewW := f.out.Size.Width
	target := float64(f.col.x) + float64(f.col.solvW)/2 - float64(viewW)/2
	maxOff := float64(max(0, f.ws.stripWidth-viewW))
	target = math.Min(math.Max(target, 0), maxOff)
	f.ws.view.Set(target, e.now, e.opts.params(e.opts.Animations.ViewOffset))
	return nil
}

// SetInsertHint sets where windows opened next to id go. For a window that
// is not mapped yet the hint is kept and used when it maps. A zero id means
// the focused window.
func (e *Engine) SetInsertHint(id WindowID, hint InsertHint) error {
	if id == 0 {
		f := e.focused()
		if f.t == nil {
			return e.nothingFocused("insert-hint")
		}
		f.t.insert = hint
		return nil
	}
	if t := e.tile(e.byWindow[id]); t != nil && !t.closing {
		t.insert = hint
		return nil
	}
	e.hints[id] = hint
	return nil
}

// ToggleFullscreen toggles fullscreen for id, or the focused window when id
// is zero. A window going fullscreen is expelled into its own column first.
func (e *Engine) ToggleFullscreen(id WindowID) error {
	tid, t, err := e.targetTile("fullscreen-toggle", id)
	if err != nil {
		return err
	}
	c := e.column(t.column)
	wid := c.workspace
	if !t.fullscreen {
		if ids, _ := e.liveTiles(c); len(ids) > 1 {
			ws := e.workspace(wid)
			at := indexOf(ws.columns, t.column) + 1
			e.detachTile(tid)
			e.insertColumn(wid, at, c.width, tid)
		}
	}
	t.fullscreen = !t.fullscreen
	e.log.Debug("fullscreen toggled", "window", t.window, "fullscreen", t.fullscreen)
	e.layoutWorkspace(wid)
	return nil
}

// CloseWindow asks the client to close. The tile stays until it unmaps.
func (e *Engine) CloseWindow(id WindowID) error {
	_, t, err := e.targetTile("close-window", id)
	if err != nil {
		return err
	}
	e.closes = append(e.closes, t.window)
	return nil
}

func (e *Engine) targetTile(op string, id WindowID) (TileID, *Tile, error) {
	if id == 0 {
		f := e.focused()
		if f.t == nil {
			return TileID{}, nil, e.nothingFocused(op)
		}
		return f.tid, f.t, nil
	}
	tid := e.byWindow[id]
	t := e.tile(tid)
	if t == nil || t.closing {
		return TileID{}, nil, e.invalid(op, "window", id)
	}
	return tid, t, nil
}
