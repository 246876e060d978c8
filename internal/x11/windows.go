package x11

import (
	"strings"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// WM_NORMAL_HINTS flag bits.
const (
	hintMinSize  = 1 << 4
	hintMaxSize  = 1 << 5
	hintBaseSize = 1 << 8
)

// SizeHints is the subset of WM_NORMAL_HINTS the layout cares about.
type SizeHints struct {
	MinWidth, MinHeight   int
	MaxWidth, MaxHeight   int
	BaseWidth, BaseHeight int
}

// MoveResizeWindow moves and resizes a window to the specified geometry
func (c *Connection) MoveResizeWindow(windowID xproto.Window, x, y, width, height int) error {
	c.unmaximizeWindow(windowID)

	// Use EWMH MoveResize for better WM compatibility
	if err := ewmh.MoveresizeWindow(c.XUtil, windowID, x, y, width, height); err != nil {
		// Fallback to direct window manipulation
		xwindow.New(c.XUtil, windowID).MoveResize(x, y, width, height)
	}
	return nil
}

// ResizeWindow changes only the size, keeping the position.
func (c *Connection) ResizeWindow(windowID xproto.Window, width, height int) error {
	c.unmaximizeWindow(windowID)
	if err := ewmh.ResizeWindow(c.XUtil, windowID, width, height); err != nil {
		xwindow.New(c.XUtil, windowID).Resize(width, height)
	}
	return nil
}

// SetOpacity sets _NET_WM_WINDOW_OPACITY; compositors use it, others ignore it.
func (c *Connection) SetOpacity(windowID xproto.Window, opacity float64) error {
	return ewmh.WmWindowOpacitySet(c.XUtil, windowID, min(max(opacity, 0), 1))
}

// Listen selects events on a client window.
func (c *Connection) Listen(windowID xproto.Window, masks ...int) error {
	return xwindow.New(c.XUtil, windowID).Listen(masks...)
}

// unmaximizeWindow removes maximized state from a window
func (c *Connection) unmaximizeWindow(windowID xproto.Window) {
	states, err := ewmh.WmStateGet(c.XUtil, windowID)
	if err != nil {
		return
	}
	for _, state := range states {
		switch state {
		case "_NET_WM_STATE_MAXIMIZED_HORZ", "_NET_WM_STATE_MAXIMIZED_VERT":
			ewmh.WmStateReq(c.XUtil, windowID, 0, state)
		}
	}
}

// ClientList returns the managed windows from _NET_CLIENT_LIST.
func (c *Connection) ClientList() ([]xproto.Window, error) {
	return ewmh.ClientListGet(c.XUtil)
}

// IsNormalWindow checks if a window is a normal application window
func (c *Connection) IsNormalWindow(windowID xproto.Window) bool {
	types, err := ewmh.WmWindowTypeGet(c.XUtil, windowID)
	if err != nil {
		// If we can't determine type, assume it's normal
		return true
	}

	for _, t := range types {
		if t == "_NET_WM_WINDOW_TYPE_NORMAL" {
			return true
		}
		// Reject desktop, dock, splash, etc.
		if t == "_NET_WM_WINDOW_TYPE_DESKTOP" ||
			t == "_NET_WM_WINDOW_TYPE_DOCK" ||
			t == "_NET_WM_WINDOW_TYPE_SPLASH" ||
			t == "_NET_WM_WINDOW_TYPE_NOTIFICATION" {
			return false
		}
	}

	// If no specific type is set, assume it's normal
	return len(types) == 0
}

// ActiveWindow returns _NET_ACTIVE_WINDOW.
func (c *Connection) ActiveWindow() (xproto.Window, error) {
	return ewmh.ActiveWindowGet(c.XUtil)
}

// Geometry returns a window's size.
func (c *Connection) Geometry(windowID xproto.Window) (width, height int, err error) {
	geom, err := xproto.GetGeometry(c.XUtil.Conn(), xproto.Drawable(windowID)).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(geom.Width), int(geom.Height), nil
}

// AppID returns the WM_CLASS class, trimmed.
func (c *Connection) AppID(windowID xproto.Window) string {
	wmClass, err := icccm.WmClassGet(c.XUtil, windowID)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(wmClass.Class)
}

// Title prefers _NET_WM_NAME and falls back to WM_NAME.
func (c *Connection) Title(windowID xproto.Window) string {
	title, err := ewmh.WmNameGet(c.XUtil, windowID)
	if err == nil {
		title = strings.TrimSpace(title)
		if title != "" {
			return title
		}
	}

	title, err = icccm.WmNameGet(c.XUtil, windowID)
	if err == nil {
		return strings.TrimSpace(title)
	}
	return ""
}

// NormalHints reads WM_NORMAL_HINTS. Windows without hints get zero values.
func (c *Connection) NormalHints(windowID xproto.Window) SizeHints {
	nh, err := icccm.WmNormalHintsGet(c.XUtil, windowID)
	if err != nil {
		return SizeHints{}
	}
	return hintsFromNormal(nh)
}

func hintsFromNormal(nh *icccm.NormalHints) SizeHints {
	var h SizeHints
	if nh.Flags&hintMinSize != 0 {
		h.MinWidth, h.MinHeight = int(nh.MinWidth), int(nh.MinHeight)
	}
	if nh.Flags&hintMaxSize != 0 {
		h.MaxWidth, h.MaxHeight = int(nh.MaxWidth), int(nh.MaxHeight)
	}
	if nh.Flags&hintBaseSize != 0 {
		h.BaseWidth, h.BaseHeight = int(nh.BaseWidth), int(nh.BaseHeight)
	}
	// Some toolkits set max to a huge sentinel meaning "no limit".
	if h.MaxWidth >= 1<<15 {
		h.MaxWidth = 0
	}
	if h.MaxHeight >= 1<<15 {
		h.MaxHeight = 0
	}
	return h
}

// MoveWindow changes only the position, keeping the size.
func (c *Connection) MoveWindow(windowID xproto.Window, x, y int) error {
	if err := ewmh.MoveWindow(c.XUtil, windowID, x, y); err != nil {
		xwindow.New(c.XUtil, windowID).Move(x, y)
	}
	return nil
}
