// Package hotkeys grabs global key sequences and turns them into action
// text for the daemon loop.
package hotkeys

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xevent"

	"github.com/1broseidon/scrolltile/internal/x11"
)

// Dispatcher receives the action text bound to a key sequence.
type Dispatcher interface {
	Dispatch(action string)
}

// DispatchFunc adapts a function to Dispatcher.
type DispatchFunc func(action string)

func (f DispatchFunc) Dispatch(action string) { f(action) }

// Handler manages global keyboard shortcuts
type Handler struct {
	xu     *xgbutil.XUtil
	root   xproto.Window
	out    Dispatcher
	logger *slog.Logger

	mu       sync.Mutex
	bindings map[string]string
}

var ignoreModsOnce sync.Once

// NewHandler creates a hotkey handler on an existing connection.
func NewHandler(conn *x11.Connection, out Dispatcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	ignoreModsOnce.Do(func() {
		configureIgnoreMods(conn.XUtil)
	})
	return &Handler{
		xu:     conn.XUtil,
		root:   conn.Root,
		out:    out,
		logger: logger,
	}
}

// Bind replaces every grab with the given key sequence → action map. Keys
// that fail to grab are reported together; the rest stay bound.
func (h *Handler) Bind(bindings map[string]string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	keybind.Detach(h.xu, h.root)
	h.bindings = make(map[string]string, len(bindings))

	keys := make([]string, 0, len(bindings))
	for k := range bindings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		action := bindings[key]
		if err := h.RegisterFunc(key, func() {
			h.logger.Debug("hotkey", "key", key, "action", action)
			h.out.Dispatch(action)
		}); err != nil {
			errs = append(errs, fmt.Errorf("bind %s: %w", key, err))
			continue
		}
		h.bindings[key] = action
	}
	h.logger.Info("hotkeys bound", "count", len(h.bindings))
	return errors.Join(errs...)
}

// Bound returns the number of active grabs.
func (h *Handler) Bound() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.bindings)
}

// RegisterFunc registers an arbitrary hotkey callback.
func (h *Handler) RegisterFunc(keySequence string, callback func()) error {
	return keybind.KeyPressFun(func(xu *xgbutil.XUtil, ev xevent.KeyPressEvent) {
		callback()
	}).Connect(h.xu, h.root, keySequence, true)
}

// Close releases every grab.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	keybind.Detach(h.xu, h.root)
	h.bindings = nil
}

func configureIgnoreMods(xu *xgbutil.XUtil) {
	xevent.IgnoreMods = ignoreMasks(
		uint16(xproto.ModMaskLock),
		modMaskForKeysym(xu, "Num_Lock"),
		modMaskForKeysym(xu, "Scroll_Lock"),
	)
}

// ignoreMasks returns every combination of the lock modifiers, so a binding
// fires regardless of CapsLock, NumLock or ScrollLock state.
func ignoreMasks(caps, numLock, scrollLock uint16) []uint16 {
	unique := map[uint16]struct{}{0: {}}

	base := []uint16{caps}
	if numLock != 0 && numLock != caps {
		base = append(base, numLock)
	}
	if scrollLock != 0 && scrollLock != caps && scrollLock != numLock {
		base = append(base, scrollLock)
	}

	for subset := 1; subset < (1 << len(base)); subset++ {
		var mask uint16
		for bit := range base {
			if subset&(1<<bit) != 0 {
				mask |= base[bit]
			}
		}
		unique[mask] = struct{}{}
	}

	ignore := make([]uint16, 0, len(unique))
	for mask := range unique {
		ignore = append(ignore, mask)
	}
	sort.Slice(ignore, func(i, j int) bool { return ignore[i] < ignore[j] })
	return ignore
}

func modMaskForKeysym(xu *xgbutil.XUtil, keysym string) uint16 {
	for _, keycode := range keybind.StrToKeycodes(xu, keysym) {
		if mask := keybind.ModGet(xu, keycode); mask != 0 {
			return mask
		}
	}
	return 0
}
