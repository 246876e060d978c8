package tiling

import (
	"time"

	"github.com/1broseidon/scrolltile/internal/animation"
)

// WindowID identifies a client window.
type WindowID uint32

// SizeHints are the window's own size constraints. Zero means unset.
type SizeHints struct {
	Min       Size `json:"min"`
	Max       Size `json:"max"`
	Preferred Size `json:"preferred"`
}

// WindowInfo describes a newly mapped window.
type WindowInfo struct {
	ID    WindowID
	AppID string
	Title string
	// Size is the size the window mapped with. It is what the tile renders at
	// until the first configure is acknowledged.
	Size  Size
	Hints SizeHints
}

// Placement carries per-window overrides resolved from window rules.
type Placement struct {
	Insert     InsertHint
	Width      *SizePolicy
	Fullscreen bool
	Workspace  string
	Output     string
}

// ConfigureRequest asks a client to resize.
type ConfigureRequest struct {
	Window WindowID `json:"window"`
	Size   Size     `json:"size"`
	Serial uint32   `json:"serial"`
}

// Tile wraps one client window.
type Tile struct {
	window WindowID
	appID  string
	title  string
	column ColumnID

	hints      SizeHints
	height     SizePolicy
	fullscreen bool
	closing    bool
	insert     InsertHint
	fresh      bool

	requested    Size
	committed    Size
	serial       uint32
	pending      bool
	pendingSince time.Duration

	// target is the solved rect in workspace strip coordinates.
	target Rect

	x, y, w, h animation.Value
	// open runs 0→1 while opening and 1→0 while closing.
	open animation.Value
}

func newTile(info WindowInfo) *Tile {
	t := &Tile{
		window:    info.ID,
		appID:     info.AppID,
		title:     info.Title,
		hints:     info.Hints,
		height:    Weighted(1),
		committed: info.Size,
		requested: info.Size,
		fresh:     true,
	}
	t.w.Jump(float64(info.Size.Width))
	t.h.Jump(float64(info.Size.Height))
	return t
}

// Pending reports whether a configure request is awaiting acknowledgment.
func (t *Tile) Pending() bool {
	return t.pending
}

// request records a new desired size. It returns false when size equals the
// last request, in which case nothing is sent.
func (t *Tile) request(size Size, now time.Duration) (ConfigureRequest, bool) {
	if size == t.requested {
		return ConfigureRequest{}, false
	}
	t.serial++
	t.requested = size
	t.pending = true
	t.pendingSince = now
	return ConfigureRequest{Window: t.window, Size: size, Serial: t.serial}, true
}

// ack settles the tile if serial covers the newest request. Stale acks
// return false.
func (t *Tile) ack(serial uint32) bool {
	if !t.pending || serial < t.serial {
		return false
	}
	t.pending = false
	t.committed = t.requested
	return true
}

// expired reports whether the grace period for the pending request is over.
func (t *Tile) expired(now, timeout time.Duration) bool {
	return t.pending && now-t.pendingSince >= timeout
}

// forceCommit accepts the requested size without an ack.
func (t *Tile) forceCommit() {
	t.pending = false
	t.committed = t.requested
}

// settleSize animates the rendered size towards the committed size.
func (t *Tile) settleSize(now time.Duration, p animation.Params) {
	if t.fresh {
		t.w.Jump(float64(t.committed.Width))
		t.h.Jump(float64(t.committed.Height))
		return
	}
	t.w.Set(float64(t.committed.Width), now, p)
	t.h.Set(float64(t.committed.Height), now, p)
}

// place moves the tile to its solved slot. Fresh tiles jump there.
func (t *Tile) place(r Rect, now time.Duration, p animation.Params) {
	t.target = r
	if t.fresh {
		t.x.Jump(float64(r.X))
		t.y.Jump(float64(r.Y))
		return
	}
	t.x.Set(float64(r.X), now, p)
	t.y.Set(float64(r.Y), now, p)
}

// rect returns the rendered rect in strip coordinates at now.
func (t *Tile) rect(now time.Duration) Rect {
	return Rect{
		X:      roundInt(t.x.At(now)),
		Y:      roundInt(t.y.At(now)),
		Width:  roundInt(t.w.At(now)),
		Height: roundInt(t.h.At(now)),
	}
}

func (t *Tile) advance(now time.Duration) bool {
	animating := false
	for _, v := range []*animation.Value{&t.x, &t.y, &t.w, &t.h, &t.open} {
		if v.Advance(now) {
			animating = true
		}
	}
	return animating
}

func roundInt(f float64) int {
	if f < 0 {
		return -int(-f + 0.5)
	}
	return int(f + 0.5)
}
