// Package tui implements `scrolltile watch`, a live view of the daemon's
// frames in the terminal.
package tui

import (
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

// DefaultRefresh is how often the view polls the daemon.
const DefaultRefresh = 100 * time.Millisecond

// Daemon is the part of the IPC client the view needs.
type Daemon interface {
	GetFrame() (*tiling.Frame, error)
	GetStatus() (*ipc.StatusData, error)
	Action(text string) (*ipc.ActionResult, error)
}

// Run starts the watch view and blocks until the user quits.
func Run(d Daemon, refresh time.Duration) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("watch requires an interactive terminal (stdin/stdout must be TTYs)")
	}
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	p := tea.NewProgram(newModel(d, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
