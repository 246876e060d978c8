package x11

import (
	"github.com/BurntSushi/xgb/xproto"
)

// FocusWindow activates and raises a window using _NET_ACTIVE_WINDOW.
// The message is built by hand because the xgbutil ewmh request helpers
// panic on this library version.
func (c *Connection) FocusWindow(windowID xproto.Window) error {
	const sourceIndication = 2 // pager/direct action
	return c.sendClientMessage(c.Root, windowID,
		xproto.EventMaskSubstructureRedirect|xproto.EventMaskSubstructureNotify,
		"_NET_ACTIVE_WINDOW", sourceIndication)
}

// CloseWindow asks the client to close via WM_DELETE_WINDOW.
func (c *Connection) CloseWindow(windowID xproto.Window) error {
	del, err := c.atom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	return c.sendClientMessage(windowID, windowID, xproto.EventMaskNoEvent, "WM_PROTOCOLS", uint32(del))
}
