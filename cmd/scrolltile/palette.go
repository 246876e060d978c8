package main

import (
	"fmt"
	"os"

	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/palette"
)

func runPalette(args []string) int {
	fs := newFlagSet("palette")
	backendName := fs.String("backend", "auto", "Launcher: auto, rofi, fuzzel, wofi, dmenu")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrolltile palette [--backend auto]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Pick an action from a launcher menu and run it.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	backend, err := palette.NewBackend(*backendName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if _, err := palette.Run(backend, ipc.NewClient()); err != nil {
		if palette.IsCancelled(err) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
