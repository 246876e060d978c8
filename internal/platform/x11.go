//go:build linux

package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"

	"github.com/1broseidon/scrolltile/internal/tiling"
	"github.com/1broseidon/scrolltile/internal/x11"
)

// hiddenX is where windows that are not in the frame are parked.
const hiddenX = -32000

type x11Window struct {
	Window
	requested tiling.Size
	serial    uint32
	pending   bool

	placed  tiling.Rect
	opacity float64
	hidden  bool
}

// X11 runs the layout inside an existing X session. Windows come from
// _NET_CLIENT_LIST, sizes are requested with _NET_MOVERESIZE_WINDOW and a
// ConfigureNotify from the client counts as the acknowledgement.
type X11 struct {
	conn   *x11.Connection
	logger *slog.Logger
	events chan Event
	done   chan struct{}

	mu      sync.Mutex
	windows map[xproto.Window]*x11Window
}

var _ Backend = (*X11)(nil)

// NewX11 connects to $DISPLAY.
func NewX11(logger *slog.Logger) (*X11, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := x11.NewConnection()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}
	return &X11{
		conn:    conn,
		logger:  logger,
		events:  make(chan Event, 64),
		done:    make(chan struct{}),
		windows: make(map[xproto.Window]*x11Window),
	}, nil
}

// Connection exposes the X connection so hotkeys can share it.
func (b *X11) Connection() *x11.Connection { return b.conn }

func (b *X11) Kind() Kind { return KindX11 }

func (b *X11) Events() <-chan Event { return b.events }

func (b *X11) Outputs() ([]Output, error) {
	monitors, err := b.conn.GetMonitors()
	if err != nil {
		return nil, err
	}
	out := make([]Output, 0, len(monitors))
	for _, m := range monitors {
		out = append(out, Output{
			Name:       m.Name,
			Rect:       tiling.Rect{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height},
			RefreshMHz: m.RefreshMHz,
		})
	}
	return out, nil
}

func (b *X11) Windows() ([]Window, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Window, 0, len(b.windows))
	for _, w := range b.windows {
		out = append(out, w.Window)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *X11) emit(ev Event) {
	select {
	case b.events <- ev:
	case <-b.done:
	}
}

// Run subscribes to the root window and runs the X event loop until ctx is
// cancelled.
func (b *X11) Run(ctx context.Context) error {
	xu := b.conn.XUtil
	if err := b.conn.Listen(b.conn.Root, xproto.EventMaskPropertyChange); err != nil {
		return fmt.Errorf("listen on root: %w", err)
	}
	clientList, err := xprop.Atm(xu, "_NET_CLIENT_LIST")
	if err != nil {
		return fmt.Errorf("intern _NET_CLIENT_LIST: %w", err)
	}
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		if ev.Atom == clientList {
			b.syncClients()
		}
	}).Connect(xu, b.conn.Root)

	b.syncClients()

	go func() {
		<-ctx.Done()
		close(b.done)
		b.conn.Quit()
	}()
	b.conn.EventLoop()
	return ctx.Err()
}

// syncClients diffs _NET_CLIENT_LIST against the known windows. It runs on
// the X event goroutine.
func (b *X11) syncClients() {
	clients, err := b.conn.ClientList()
	if err != nil {
		b.logger.Warn("x11: cannot read client list", "error", err)
		return
	}
	present := make(map[xproto.Window]struct{}, len(clients))
	for _, win := range clients {
		present[win] = struct{}{}
	}

	b.mu.Lock()
	var gone []Window
	for win, w := range b.windows {
		if _, ok := present[win]; !ok {
			gone = append(gone, w.Window)
			delete(b.windows, win)
		}
	}
	var fresh []xproto.Window
	for _, win := range clients {
		if _, ok := b.windows[win]; !ok {
			fresh = append(fresh, win)
		}
	}
	b.mu.Unlock()

	for _, w := range gone {
		xevent.Detach(b.conn.XUtil, xproto.Window(w.ID))
		b.emit(Event{Kind: WindowUnmapped, Window: w})
	}
	for _, win := range fresh {
		if !b.conn.IsNormalWindow(win) {
			continue
		}
		w, err := b.track(win)
		if err != nil {
			b.logger.Debug("x11: skipping window", "window", uint32(win), "error", err)
			continue
		}
		b.emit(Event{Kind: WindowMapped, Window: w})
	}
}

func (b *X11) track(win xproto.Window) (Window, error) {
	width, height, err := b.conn.Geometry(win)
	if err != nil {
		return Window{}, err
	}
	if err := b.conn.Listen(win, xproto.EventMaskStructureNotify, xproto.EventMaskPropertyChange); err != nil {
		return Window{}, err
	}
	w := Window{
		ID:    WindowID(win),
		AppID: b.conn.AppID(win),
		Title: b.conn.Title(win),
		Size:  tiling.Size{Width: width, Height: height},
		Hints: hintsOf(b.conn.NormalHints(win)),
	}

	xu := b.conn.XUtil
	xevent.ConfigureNotifyFun(func(xu *xgbutil.XUtil, ev xevent.ConfigureNotifyEvent) {
		b.configured(ev.Window, tiling.Size{Width: int(ev.Width), Height: int(ev.Height)})
	}).Connect(xu, win)
	xevent.PropertyNotifyFun(func(xu *xgbutil.XUtil, ev xevent.PropertyNotifyEvent) {
		b.propertyChanged(ev.Window, ev.Atom)
	}).Connect(xu, win)

	b.mu.Lock()
	b.windows[win] = &x11Window{Window: w, opacity: 1}
	b.mu.Unlock()
	return w, nil
}

func hintsOf(h x11.SizeHints) tiling.SizeHints {
	return tiling.SizeHints{
		Min: tiling.Size{Width: h.MinWidth, Height: h.MinHeight},
		Max: tiling.Size{Width: h.MaxWidth, Height: h.MaxHeight},
	}
}

// configured treats a ConfigureNotify as the answer to the outstanding
// request when the client took the requested size, or any other size it
// chose instead (size increments, hints).
func (b *X11) configured(win xproto.Window, size tiling.Size) {
	b.mu.Lock()
	w, ok := b.windows[win]
	if !ok || !w.pending || (size != w.requested && size == w.Size) {
		b.mu.Unlock()
		return
	}
	w.pending = false
	w.Size = size
	ev := Event{Kind: ConfigureAck, Window: w.Window, Serial: w.serial}
	b.mu.Unlock()
	b.emit(ev)
}

func (b *X11) propertyChanged(win xproto.Window, atom xproto.Atom) {
	name, err := xprop.AtomName(b.conn.XUtil, atom)
	if err != nil {
		return
	}
	var kind EventKind
	b.mu.Lock()
	w, ok := b.windows[win]
	b.mu.Unlock()
	if !ok {
		return
	}
	switch name {
	case "_NET_WM_NAME", "WM_NAME":
		kind = TitleChanged
		title := b.conn.Title(win)
		b.mu.Lock()
		w.Title = title
		b.mu.Unlock()
	case "WM_NORMAL_HINTS":
		kind = SizeHintsChanged
		hints := hintsOf(b.conn.NormalHints(win))
		b.mu.Lock()
		w.Hints = hints
		b.mu.Unlock()
	default:
		return
	}
	b.mu.Lock()
	ev := Event{Kind: kind, Window: w.Window}
	b.mu.Unlock()
	b.emit(ev)
}

func (b *X11) lookup(id WindowID) (*x11Window, error) {
	w, ok := b.windows[xproto.Window(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	return w, nil
}

func (b *X11) Configure(req tiling.ConfigureRequest) error {
	b.mu.Lock()
	w, err := b.lookup(req.Window)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	w.requested = req.Size
	w.serial = req.Serial
	w.pending = true
	b.mu.Unlock()
	return b.conn.ResizeWindow(xproto.Window(req.Window), req.Size.Width, req.Size.Height)
}

// Present moves windows to their frame positions. Sizes are left to
// Configure; only changed positions and opacities are sent.
func (b *X11) Present(frame tiling.Frame) error {
	type move struct {
		win        xproto.Window
		x, y       int
		opacity    float64
		setOpacity bool
	}
	var moves []move

	b.mu.Lock()
	seen := make(map[xproto.Window]struct{})
	for _, of := range frame.Outputs {
		for _, el := range of.Elements {
			win := xproto.Window(el.Window)
			w, ok := b.windows[win]
			if !ok {
				continue
			}
			seen[win] = struct{}{}
			if w.hidden || w.placed.X != el.Rect.X || w.placed.Y != el.Rect.Y || w.opacity != el.Opacity {
				moves = append(moves, move{win: win, x: el.Rect.X, y: el.Rect.Y, opacity: el.Opacity, setOpacity: w.opacity != el.Opacity})
				w.placed = el.Rect
				w.opacity = el.Opacity
				w.hidden = false
			}
		}
	}
	for win, w := range b.windows {
		if _, ok := seen[win]; ok || w.hidden {
			continue
		}
		w.hidden = true
		moves = append(moves, move{win: win, x: hiddenX, y: w.placed.Y})
	}
	b.mu.Unlock()

	for _, m := range moves {
		if err := b.conn.MoveWindow(m.win, m.x, m.y); err != nil {
			return err
		}
		if m.setOpacity {
			if err := b.conn.SetOpacity(m.win, m.opacity); err != nil {
				b.logger.Debug("x11: set opacity failed", "window", uint32(m.win), "error", err)
			}
		}
	}
	return nil
}

func (b *X11) Focus(id WindowID) error {
	b.mu.Lock()
	_, err := b.lookup(id)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.conn.FocusWindow(xproto.Window(id))
}

func (b *X11) Close(id WindowID) error {
	b.mu.Lock()
	_, err := b.lookup(id)
	b.mu.Unlock()
	if err != nil {
		return err
	}
	return b.conn.CloseWindow(xproto.Window(id))
}

// Disconnect closes the underlying X11 connection.
func (b *X11) Disconnect() {
	if b != nil && b.conn != nil {
		b.conn.Close()
	}
}
