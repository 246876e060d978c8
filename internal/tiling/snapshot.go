package tiling

import (
	"math"
	"time"
)

// Element is one window to draw.
type Element struct {
	Window  WindowID `json:"window"`
	Rect    Rect     `json:"rect"`
	Opacity float64  `json:"opacity"`
	Scale   float64  `json:"scale"`
	Z       int      `json:"z"`
	Focused bool     `json:"focused,omitempty"`
}

// OutputFrame holds the elements visible on one output, bottom to top.
type OutputFrame struct {
	Output   string    `json:"output"`
	Rect     Rect      `json:"rect"`
	Elements []Element `json:"elements"`
}

// Frame is a render snapshot. It shares nothing with the engine.
type Frame struct {
	Outputs []OutputFrame `json:"outputs"`
}

// Snapshot interpolates every animation at now and returns what each output
// shows. Within an output, regular tiles come first, then fullscreen tiles,
// then closing tiles.
func (e *Engine) Snapshot(now time.Duration) Frame {
	focused, hasFocus := e.Focused()
	frame := Frame{Outputs: make([]OutputFrame, 0, len(e.outputs))}

	for _, o := range e.outputs {
		of := OutputFrame{Output: o.Name, Rect: o.Rect()}
		var normal, full, closing []Element

		pos := o.switchPos.At(now)
		for i, wid := range o.workspaces {
			d := float64(i) - pos
			if math.Abs(d) >= 1 {
				continue
			}
			ws := e.workspace(wid)
			if ws == nil {
				continue
			}
			shift := roundInt(d * float64(o.Size.Height))
			view := ws.view.At(now)

			for _, cid := range ws.columns {
				c := e.column(cid)
				if c == nil {
					continue
				}
				for _, tid := range c.tiles {
					t := e.tile(tid)
					if t == nil {
						continue
					}
					r := t.rect(now)
					r.X = o.Pos.X + r.X - roundInt(view)
					r.Y = o.Pos.Y + r.Y + shift
					if !r.Intersects(of.Rect) {
						continue
					}
					p := math.Min(math.Max(t.open.At(now), 0), 1)
					el := Element{
						Window:  t.window,
						Rect:    r,
						Opacity: p,
						Scale:   0.5 + 0.5*p,
						Focused: hasFocus && t.window == focused && !t.closing,
					}
					switch {
					case t.closing:
						closing = append(closing, el)
					case t.fullscreen:
						full = append(full, el)
					default:
						normal = append(normal, el)
					}
				}
			}
		}

		of.Elements = append(append(normal, full...), closing...)
		for i := range of.Elements {
			of.Elements[i].Z = i
		}
		frame.Outputs = append(frame.Outputs, of)
	}
	return frame
}

// TileNode describes a tile in a Tree.
type TileNode struct {
	Window     WindowID `json:"window"`
	AppID      string   `json:"app_id,omitempty"`
	Title      string   `json:"title,omitempty"`
	Rect       Rect     `json:"rect"`
	Height     string   `json:"height"`
	Requested  Size     `json:"requested"`
	Committed  Size     `json:"committed"`
	Serial     uint32   `json:"serial"`
	Pending    bool     `json:"pending,omitempty"`
	Closing    bool     `json:"closing,omitempty"`
	Fullscreen bool     `json:"fullscreen,omitempty"`
	Active     bool     `json:"active,omitempty"`
}

// ColumnNode describes a column in a Tree.
type ColumnNode struct {
	X      int        `json:"x"`
	Width  int        `json:"width"`
	Policy string     `json:"policy"`
	Active bool       `json:"active,omitempty"`
	Tiles  []TileNode `json:"tiles"`
}

// WorkspaceNode describes a workspace in a Tree.
type WorkspaceNode struct {
	Index      int          `json:"index"`
	Name       string       `json:"name,omitempty"`
	Output     string       `json:"output,omitempty"`
	Original   string       `json:"original_output,omitempty"`
	Active     bool         `json:"active,omitempty"`
	ViewOffset float64      `json:"view_offset"`
	ViewTarget float64      `json:"view_target"`
	Width      int          `json:"width"`
	Columns    []ColumnNode `json:"columns"`
}

// OutputNode describes an output in a Tree.
type OutputNode struct {
	Name       string          `json:"name"`
	Rect       Rect            `json:"rect"`
	RefreshMHz int             `json:"refresh_mhz"`
	Focused    bool            `json:"focused,omitempty"`
	Workspaces []WorkspaceNode `json:"workspaces"`
}

// Tree is a read-only copy of the whole layout tree.
type Tree struct {
	Outputs []OutputNode    `json:"outputs"`
	Parked  []WorkspaceNode `json:"parked,omitempty"`
	Focused WindowID        `json:"focused,omitempty"`
}

// Tree returns a copy of the layout tree at the last Advance.
func (e *Engine) Tree() Tree {
	var tr Tree
	if id, ok := e.Focused(); ok {
		tr.Focused = id
	}
	for i, o := range e.outputs {
		on := OutputNode{
			Name:       o.Name,
			Rect:       o.Rect(),
			RefreshMHz: o.Refresh,
			Focused:    i == e.focusOutput,
		}
		for j, wid := range o.workspaces {
			if ws := e.workspace(wid); ws != nil {
				on.Workspaces = append(on.Workspaces, e.workspaceNode(j, ws, j == o.active))
			}
		}
		tr.Outputs = append(tr.Outputs, on)
	}
	for j, wid := range e.parked {
		if ws := e.workspace(wid); ws != nil {
			tr.Parked = append(tr.Parked, e.workspaceNode(j, ws, false))
		}
	}
	return tr
}

func (e *Engine) workspaceNode(idx int, ws *Workspace, active bool) WorkspaceNode {
	wn := WorkspaceNode{
		Index:      idx + 1,
		Name:       ws.name,
		Output:     ws.output,
		Original:   ws.original,
		Active:     active,
		ViewOffset: ws.view.At(e.now),
		ViewTarget: ws.view.Target(),
		Width:      ws.stripWidth,
		Columns:    []ColumnNode{},
	}
	for ci, cid := range ws.columns {
		c := e.column(cid)
		if c == nil {
			continue
		}
		cn := ColumnNode{
			X:      c.x,
			Width:  c.solvW,
			Policy: c.width.String(),
			Active: ci == ws.active,
			Tiles:  []TileNode{},
		}
		for ti, tid := range c.tiles {
			t := e.tile(tid)
			if t == nil {
				continue
			}
			cn.Tiles = append(cn.Tiles, TileNode{
				Window:     t.window,
				AppID:      t.appID,
				Title:      t.title,
				Rect:       t.target,
				Height:     t.height.String(),
				Requested:  t.requested,
				Committed:  t.committed,
				Serial:     t.serial,
				Pending:    t.pending,
				Closing:    t.closing,
				Fullscreen: t.fullscreen,
				Active:     ti == c.active,
			})
		}
		wn.Columns = append(wn.Columns, cn)
	}
	return wn
}
