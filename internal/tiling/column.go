package tiling

// Column is a vertical stack of tiles.
type Column struct {
	workspace WorkspaceID
	width     SizePolicy
	tiles     []TileID
	active    int

	// solved strip position and width
	x     int
	solvW int
}

func (e *Engine) column(id ColumnID) *Column {
	return e.columns.get(Handle(id))
}

func (e *Engine) tile(id TileID) *Tile {
	return e.tiles.get(Handle(id))
}

func (e *Engine) workspace(id WorkspaceID) *Workspace {
	return e.workspaces.get(Handle(id))
}

// liveTiles returns the column's tiles that are not closing, with their
// positions in c.tiles.
func (e *Engine) liveTiles(c *Column) ([]TileID, []int) {
	var ids []TileID
	var idx []int
	for i, tid := range c.tiles {
		if t := e.tile(tid); t != nil && !t.closing {
			ids = append(ids, tid)
			idx = append(idx, i)
		}
	}
	return ids, idx
}

// isLive reports whether the column still has a tile that is not closing.
func (e *Engine) isLive(c *Column) bool {
	for _, tid := range c.tiles {
		if t := e.tile(tid); t != nil && !t.closing {
			return true
		}
	}
	return false
}

func (e *Engine) activeTile(c *Column) (TileID, *Tile) {
	if c.active < 0 || c.active >= len(c.tiles) {
		return TileID{}, nil
	}
	tid := c.tiles[c.active]
	t := e.tile(tid)
	if t == nil || t.closing {
		return TileID{}, nil
	}
	return tid, t
}

// fullscreenTile returns the live fullscreen tile of the column, if any.
func (e *Engine) fullscreenTile(c *Column) *Tile {
	for _, tid := range c.tiles {
		if t := e.tile(tid); t != nil && !t.closing && t.fullscreen {
			return t
		}
	}
	return nil
}

// promoteTile moves the column's active index off a closing or removed
// tile, preferring the tile below.
func (e *Engine) promoteTile(c *Column) {
	if len(c.tiles) == 0 {
		c.active = 0
		return
	}
	c.active = min(max(c.active, 0), len(c.tiles)-1)
	if t := e.tile(c.tiles[c.active]); t != nil && !t.closing {
		return
	}
	for i := c.active + 1; i < len(c.tiles); i++ {
		if t := e.tile(c.tiles[i]); t != nil && !t.closing {
			c.active = i
			return
		}
	}
	for i := c.active - 1; i >= 0; i-- {
		if t := e.tile(c.tiles[i]); t != nil && !t.closing {
			c.active = i
			return
		}
	}
}

// reweighTiles keeps the live weighted tiles' weights summing to 1. When
// inserted is set, that tile receives a 1/k share.
func (e *Engine) reweighTiles(c *Column, inserted TileID) {
	var ps []*SizePolicy
	idx := -1
	for _, tid := range c.tiles {
		t := e.tile(tid)
		if t == nil || t.closing || t.height.Kind != SizeWeighted {
			continue
		}
		if tid == inserted {
			idx = len(ps)
		}
		ps = append(ps, &t.height)
	}
	applyWeights(ps, func(ws []float64) {
		if idx >= 0 {
			insertWeight(ws, idx)
			return
		}
		normalizeWeights(ws)
	})
}

// columnSpan builds the width span for a column from its policy and the
// size hints of its live tiles.
func (e *Engine) columnSpan(c *Column) Span {
	s := Span{Policy: c.width}
	for _, tid := range c.tiles {
		t := e.tile(tid)
		if t == nil || t.closing {
			continue
		}
		s.Natural = max(s.Natural, t.hints.Preferred.Width)
		s.Min = max(s.Min, t.hints.Min.Width)
		if mw := t.hints.Max.Width; mw > 0 && (s.Max == 0 || mw < s.Max) {
			s.Max = mw
		}
	}
	if c.width.Kind == SizeAuto && s.Natural == 0 {
		// Nothing to follow yet; fall back to the committed size.
		if _, t := e.activeTile(c); t != nil {
			s.Natural = t.committed.Width
		}
	}
	return s
}

func applyWeights(ps []*SizePolicy, fn func([]float64)) {
	if len(ps) == 0 {
		return
	}
	ws := make([]float64, len(ps))
	for i, p := range ps {
		ws[i] = p.Weight
	}
	fn(ws)
	for i, p := range ps {
		p.Weight = ws[i]
	}
}
