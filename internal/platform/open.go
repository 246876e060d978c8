package platform

import (
	"fmt"
	"log/slog"
	"os"
)

// Open selects a backend once at startup. "auto" picks x11 when $DISPLAY is
// set and headless otherwise.
func Open(kind string, headless []Output, logger *slog.Logger) (Backend, error) {
	switch kind {
	case "", "auto":
		if os.Getenv("DISPLAY") == "" {
			logger.Info("no DISPLAY set, using headless backend")
			return NewHeadless(headless, HeadlessOptions{}, logger), nil
		}
		return openX11(logger)
	case string(KindX11):
		return openX11(logger)
	case string(KindHeadless):
		return NewHeadless(headless, HeadlessOptions{}, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", kind)
	}
}

func openX11(logger *slog.Logger) (Backend, error) {
	b, err := NewX11(logger)
	if err != nil {
		return nil, err
	}
	return b, nil
}
