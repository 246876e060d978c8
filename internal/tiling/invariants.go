package tiling

import (
	"errors"
	"fmt"
	"math"
)

const weightEpsilon = 1e-9

// Verify checks the structural invariants of the tree and returns every
// violation found.
func (e *Engine) Verify() error {
	var errs []error
	tileOwner := map[TileID]ColumnID{}
	colOwner := map[ColumnID]WorkspaceID{}
	wsOwner := map[WorkspaceID]string{}

	checkWS := func(wid WorkspaceID, owner string) {
		if prev, dup := wsOwner[wid]; dup {
			errs = append(errs, fmt.Errorf("workspace %v bound to %q and %q", Handle(wid), prev, owner))
			return
		}
		wsOwner[wid] = owner
		ws := e.workspace(wid)
		if ws == nil {
			errs = append(errs, fmt.Errorf("workspace %v on %q is dead", Handle(wid), owner))
			return
		}
		if len(ws.columns) > 0 && (ws.active < 0 || ws.active >= len(ws.columns)) {
			errs = append(errs, fmt.Errorf("workspace %v active column %d out of range", Handle(wid), ws.active))
		}
		colWeights := 0.0
		weighted := 0
		for _, cid := range ws.columns {
			if prev, dup := colOwner[cid]; dup {
				errs = append(errs, fmt.Errorf("column %v in workspaces %v and %v", Handle(cid), Handle(prev), Handle(wid)))
				continue
			}
			colOwner[cid] = wid
			c := e.column(cid)
			if c == nil {
				errs = append(errs, fmt.Errorf("column %v in workspace %v is dead", Handle(cid), Handle(wid)))
				continue
			}
			if c.workspace != wid {
				errs = append(errs, fmt.Errorf("column %v parent mismatch", Handle(cid)))
			}
			if len(c.tiles) == 0 {
				errs = append(errs, fmt.Errorf("column %v is empty", Handle(cid)))
			}
			if e.isLive(c) && c.width.Kind == SizeWeighted {
				colWeights += c.width.Weight
				weighted++
			}
			tileWeights := 0.0
			weightedTiles := 0
			for _, tid := range c.tiles {
				if prev, dup := tileOwner[tid]; dup {
					errs = append(errs, fmt.Errorf("tile %v in columns %v and %v", Handle(tid), Handle(prev), Handle(cid)))
					continue
				}
				tileOwner[tid] = cid
				t := e.tile(tid)
				if t == nil {
					errs = append(errs, fmt.Errorf("tile %v in column %v is dead", Handle(tid), Handle(cid)))
					continue
				}
				if t.column != cid {
					errs = append(errs, fmt.Errorf("tile %v parent mismatch", Handle(tid)))
				}
				if !t.closing && t.height.Kind == SizeWeighted {
					tileWeights += t.height.Weight
					weightedTiles++
				}
			}
			if weightedTiles > 0 && math.Abs(tileWeights-1) > weightEpsilon {
				errs = append(errs, fmt.Errorf("column %v tile weights sum to %v", Handle(cid), tileWeights))
			}
		}
		if weighted > 0 && math.Abs(colWeights-1) > weightEpsilon {
			errs = append(errs, fmt.Errorf("workspace %v column weights sum to %v", Handle(wid), colWeights))
		}
	}

	for _, o := range e.outputs {
		for _, wid := range o.workspaces {
			checkWS(wid, o.Name)
		}
		if o.active < 0 || o.active >= len(o.workspaces) {
			errs = append(errs, fmt.Errorf("output %q active workspace %d out of range", o.Name, o.active))
		}
	}
	for _, wid := range e.parked {
		checkWS(wid, "")
	}

	if n := e.tiles.len(); n != len(tileOwner) {
		errs = append(errs, fmt.Errorf("%d tiles live, %d owned", n, len(tileOwner)))
	}
	if n := e.columns.len(); n != len(colOwner) {
		errs = append(errs, fmt.Errorf("%d columns live, %d owned", n, len(colOwner)))
	}
	if n := e.workspaces.len(); n != len(wsOwner) {
		errs = append(errs, fmt.Errorf("%d workspaces live, %d owned", n, len(wsOwner)))
	}
	return errors.Join(errs...)
}

// repair corrects structural damage. Anything found here is a logic error
// elsewhere, so it is logged at error level.
func (e *Engine) repair() {
	err := e.Verify()
	if err == nil {
		return
	}
	e.stats.Repairs++
	e.log.Error("layout tree invariant violated, repairing", "error", err)

	seenTiles := map[TileID]bool{}
	seenCols := map[ColumnID]bool{}
	seenWS := map[WorkspaceID]bool{}

	fixWS := func(wid WorkspaceID) bool {
		ws := e.workspace(wid)
		if ws == nil || seenWS[wid] {
			return false
		}
		seenWS[wid] = true
		cols := ws.columns[:0]
		for _, cid := range ws.columns {
			c := e.column(cid)
			if c == nil || seenCols[cid] {
				continue
			}
			tiles := c.tiles[:0]
			for _, tid := range c.tiles {
				t := e.tile(tid)
				if t == nil || seenTiles[tid] {
					continue
				}
				seenTiles[tid] = true
				t.column = cid
				tiles = append(tiles, tid)
			}
			c.tiles = tiles
			if len(c.tiles) == 0 {
				e.columns.remove(Handle(cid))
				continue
			}
			seenCols[cid] = true
			c.workspace = wid
			e.promoteTile(c)
			e.reweighTiles(c, TileID{})
			cols = append(cols, cid)
		}
		ws.columns = cols
		e.promoteColumn(ws)
		e.reweighColumns(ws, ColumnID{})
		return true
	}

	for _, o := range e.outputs {
		kept := o.workspaces[:0]
		for _, wid := range o.workspaces {
			if fixWS(wid) {
				kept = append(kept, wid)
			}
		}
		o.workspaces = kept
	}
	parked := e.parked[:0]
	for _, wid := range e.parked {
		if fixWS(wid) {
			parked = append(parked, wid)
		}
	}
	e.parked = parked

	// Drop anything no container owns.
	e.tiles.each(func(h Handle, t *Tile) {
		if !seenTiles[TileID(h)] {
			delete(e.byWindow, t.window)
			e.tiles.remove(h)
		}
	})
	e.columns.each(func(h Handle, _ *Column) {
		if !seenCols[ColumnID(h)] {
			e.columns.remove(h)
		}
	})
	e.workspaces.each(func(h Handle, _ *Workspace) {
		if !seenWS[WorkspaceID(h)] {
			e.workspaces.remove(h)
		}
	})
	for _, o := range e.outputs {
		e.tidyOutput(o)
	}
}
