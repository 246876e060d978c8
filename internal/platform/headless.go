package platform

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// HeadlessOptions tune the in-memory backend.
type HeadlessOptions struct {
	// AckDelay is how long a simulated client takes to answer a configure.
	AckDelay time.Duration
	// IgnoreConfigures makes clients never answer, to exercise the grace
	// timeout.
	IgnoreConfigures bool
	// Clamp applies each window's size hints before acking, like a real
	// client would.
	Clamp bool
}

type headlessWindow struct {
	Window
	rect    tiling.Rect
	opacity float64
	visible bool
}

// Headless is an in-memory window system. Windows and outputs are added by
// calling its methods; it answers configures on its own.
type Headless struct {
	opts   HeadlessOptions
	logger *slog.Logger

	mu       sync.Mutex
	outputs  []Output
	windows  map[WindowID]*headlessWindow
	focused  WindowID
	frame    tiling.Frame
	presents int

	queue  []Event
	wake   chan struct{}
	events chan Event
}

var _ Backend = (*Headless)(nil)

// NewHeadless creates a headless backend with the given outputs.
func NewHeadless(outputs []Output, opts HeadlessOptions, logger *slog.Logger) *Headless {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Headless{
		opts:    opts,
		logger:  logger,
		outputs: append([]Output(nil), outputs...),
		windows: make(map[WindowID]*headlessWindow),
		wake:    make(chan struct{}, 1),
		events:  make(chan Event),
	}
	return h
}

func (h *Headless) Kind() Kind { return KindHeadless }

func (h *Headless) Outputs() ([]Output, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Output(nil), h.outputs...), nil
}

func (h *Headless) Windows() ([]Window, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Window, 0, len(h.windows))
	for _, w := range h.windows {
		out = append(out, w.Window)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (h *Headless) Events() <-chan Event { return h.events }

// enqueue must be called with h.mu held.
func (h *Headless) enqueue(ev Event) {
	h.queue = append(h.queue, ev)
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// MapWindow simulates a client mapping a window.
func (h *Headless) MapWindow(w Window) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[w.ID]; ok {
		return fmt.Errorf("window %d already mapped", w.ID)
	}
	h.windows[w.ID] = &headlessWindow{Window: w}
	h.enqueue(Event{Kind: WindowMapped, Window: w})
	return nil
}

// UnmapWindow simulates a client going away.
func (h *Headless) UnmapWindow(id WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	delete(h.windows, id)
	if h.focused == id {
		h.focused = 0
	}
	h.enqueue(Event{Kind: WindowUnmapped, Window: w.Window})
	return nil
}

// SetTitle simulates a title change.
func (h *Headless) SetTitle(id WindowID, title string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	w.Title = title
	h.enqueue(Event{Kind: TitleChanged, Window: w.Window})
	return nil
}

// SetSizeHints simulates a client changing its size constraints.
func (h *Headless) SetSizeHints(id WindowID, hints tiling.SizeHints) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	w.Hints = hints
	h.enqueue(Event{Kind: SizeHintsChanged, Window: w.Window})
	return nil
}

// AddOutput simulates plugging in a display.
func (h *Headless) AddOutput(o Output) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.outputs = append(h.outputs, o)
	h.enqueue(Event{Kind: OutputAdded, Output: o})
}

// RemoveOutput simulates unplugging a display.
func (h *Headless) RemoveOutput(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, o := range h.outputs {
		if o.Name == name {
			h.outputs = append(h.outputs[:i], h.outputs[i+1:]...)
			h.enqueue(Event{Kind: OutputRemoved, Output: o})
			return nil
		}
	}
	return fmt.Errorf("output %q not found", name)
}

func (h *Headless) Configure(req tiling.ConfigureRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[req.Window]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, req.Window)
	}
	if h.opts.IgnoreConfigures {
		return nil
	}
	size := req.Size
	if h.opts.Clamp {
		size = clampToHints(size, w.Hints)
	}
	ack := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		w, ok := h.windows[req.Window]
		if !ok {
			return
		}
		w.Size = size
		h.enqueue(Event{Kind: ConfigureAck, Window: w.Window, Serial: req.Serial})
	}
	if h.opts.AckDelay <= 0 {
		w.Size = size
		h.enqueue(Event{Kind: ConfigureAck, Window: w.Window, Serial: req.Serial})
		return nil
	}
	time.AfterFunc(h.opts.AckDelay, ack)
	return nil
}

func clampToHints(s tiling.Size, hints tiling.SizeHints) tiling.Size {
	if hints.Min.Width > 0 {
		s.Width = max(s.Width, hints.Min.Width)
	}
	if hints.Min.Height > 0 {
		s.Height = max(s.Height, hints.Min.Height)
	}
	if hints.Max.Width > 0 {
		s.Width = min(s.Width, hints.Max.Width)
	}
	if hints.Max.Height > 0 {
		s.Height = min(s.Height, hints.Max.Height)
	}
	return s
}

func (h *Headless) Present(frame tiling.Frame) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frame = frame
	h.presents++
	for _, w := range h.windows {
		w.visible = false
	}
	for _, of := range frame.Outputs {
		for _, el := range of.Elements {
			if w, ok := h.windows[el.Window]; ok {
				w.rect = el.Rect
				w.opacity = el.Opacity
				w.visible = true
			}
		}
	}
	return nil
}

func (h *Headless) Focus(id WindowID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.windows[id]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownWindow, id)
	}
	h.focused = id
	return nil
}

// Close behaves like a cooperative client: the window unmaps.
func (h *Headless) Close(id WindowID) error {
	return h.UnmapWindow(id)
}

// Focused returns the window that last received focus.
func (h *Headless) Focused() WindowID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.focused
}

// LastFrame returns the most recent Present argument and how many frames
// were presented in total.
func (h *Headless) LastFrame() (tiling.Frame, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frame, h.presents
}

// Placement returns where a window was last presented and whether it was
// visible in that frame.
func (h *Headless) Placement(id WindowID) (tiling.Rect, float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	w, ok := h.windows[id]
	if !ok {
		return tiling.Rect{}, 0, false
	}
	return w.rect, w.opacity, w.visible
}

// Run delivers queued events in order until ctx is cancelled.
func (h *Headless) Run(ctx context.Context) error {
	for {
		h.mu.Lock()
		var next *Event
		if len(h.queue) > 0 {
			ev := h.queue[0]
			h.queue = h.queue[1:]
			next = &ev
		}
		h.mu.Unlock()

		if next == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-h.wake:
			}
			continue
		}

		h.logger.Debug("headless event", "kind", next.Kind.String(), "window", next.Window.ID)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case h.events <- *next:
		}
	}
}

func (h *Headless) Disconnect() {}
