// Package palette shows the action menu through an external launcher such as
// rofi or dmenu.
package palette

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrCancelled is returned when the user closes the palette without selecting an item.
var ErrCancelled = errors.New("palette cancelled")

// Item is a single row in the palette.
type Item struct {
	Label    string // Display text
	Action   string // Action text run on selection
	Meta     string // Hidden search keywords (rofi meta field)
	IsHeader bool   // Non-selectable section header
	IsActive bool   // Highlighted as current (rofi active row)
}

// Backend shows items to the user and returns the selected one.
type Backend interface {
	Show(prompt string, items []Item) (Item, error)
}

var launchers = []string{"rofi", "fuzzel", "wofi", "dmenu"}

// DetectBackend returns the first launcher found in PATH, in priority order:
// rofi, fuzzel, wofi, dmenu.
func DetectBackend() (string, error) {
	for _, name := range launchers {
		if _, err := exec.LookPath(name); err == nil {
			return name, nil
		}
	}
	return "", fmt.Errorf("no palette backend found in PATH (looked for: %s)", strings.Join(launchers, ", "))
}

// NewBackend creates a backend by name: auto, rofi, fuzzel, wofi or dmenu.
func NewBackend(name string) (Backend, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		detected, err := DetectBackend()
		if err != nil {
			return nil, err
		}
		name = detected
	}
	kind, ok := launcherKinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette backend: %q (expected: auto, %s)", name, strings.Join(launchers, ", "))
	}
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("palette backend %q not found in PATH", name)
	}
	return newLauncher(kind), nil
}
