// Package platform connects the layout engine to a window system.
package platform

import (
	"context"
	"errors"
	"fmt"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// WindowID is a platform-neutral window identifier.
type WindowID = tiling.WindowID

// Kind names a backend implementation.
type Kind string

const (
	KindX11      Kind = "x11"
	KindHeadless Kind = "headless"
)

// ErrUnknownWindow is returned for operations on windows the backend does
// not know about.
var ErrUnknownWindow = errors.New("unknown window")

// Output describes a display and its usable area.
type Output struct {
	Name       string
	Rect       tiling.Rect
	RefreshMHz int
}

// Window contains metadata for a top-level window.
type Window struct {
	ID    WindowID
	AppID string
	Title string
	Size  tiling.Size
	Hints tiling.SizeHints
}

// Info converts to the engine's mapping input.
func (w Window) Info() tiling.WindowInfo {
	return tiling.WindowInfo{ID: w.ID, AppID: w.AppID, Title: w.Title, Size: w.Size, Hints: w.Hints}
}

// EventKind identifies what an Event reports.
type EventKind int

const (
	WindowMapped EventKind = iota
	WindowUnmapped
	ConfigureAck
	TitleChanged
	SizeHintsChanged
	OutputAdded
	OutputRemoved
)

func (k EventKind) String() string {
	switch k {
	case WindowMapped:
		return "window-mapped"
	case WindowUnmapped:
		return "window-unmapped"
	case ConfigureAck:
		return "configure-ack"
	case TitleChanged:
		return "title-changed"
	case SizeHintsChanged:
		return "size-hints-changed"
	case OutputAdded:
		return "output-added"
	case OutputRemoved:
		return "output-removed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is something the window system reports. Only the fields relevant to
// Kind are set.
type Event struct {
	Kind   EventKind
	Window Window
	Serial uint32
	Output Output
}

// Backend abstracts the window system. Configure, Present, Focus and Close
// are called from the daemon loop only; Events is drained by the same loop.
type Backend interface {
	Kind() Kind
	Outputs() ([]Output, error)
	Windows() ([]Window, error)
	Events() <-chan Event

	// Configure asks a client to take a new size. The backend reports the
	// client's answer as a ConfigureAck event carrying req.Serial.
	Configure(req tiling.ConfigureRequest) error
	// Present places every window according to a render snapshot. Windows
	// missing from the frame are hidden.
	Present(frame tiling.Frame) error
	Focus(id WindowID) error
	Close(id WindowID) error

	// Run pumps events until ctx is cancelled.
	Run(ctx context.Context) error
	Disconnect()
}
