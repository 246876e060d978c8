//go:build !linux

package platform

import (
	"errors"
	"log/slog"
)

// NewX11 is only available on Linux.
func NewX11(logger *slog.Logger) (Backend, error) {
	return nil, errors.New("x11 backend is only supported on linux")
}
