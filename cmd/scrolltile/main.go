package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tui"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "action":
		os.Exit(runAction(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "tree":
		os.Exit(runTree(os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "watch":
		os.Exit(runWatch(os.Args[2:]))
	case "palette":
		os.Exit(runPalette(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scrolltile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the scrolltile daemon (foreground)")
	fmt.Fprintln(w, "  action <text>       Run an action, e.g. 'focus-column-right'")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "  tree                Print the layout tree")
	fmt.Fprintln(w, "  reload              Reload the daemon's configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "  watch               Live view of the daemon's frames")
	fmt.Fprintln(w, "  palette             Pick an action from rofi/fuzzel/wofi/dmenu")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'scrolltile <command> --help' for command-specific options.")
}

// parseFlags parses args and maps flag errors to exit codes. ok is false when
// the caller should return code.
func parseFlags(fs *flag.FlagSet, args []string) (code int, ok bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func printActionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: scrolltile action [--json] <action> [args...]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Actions:")
	for _, name := range actions.Names() {
		fmt.Fprintf(w, "  %s\n", name)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  scrolltile action focus-column 2")
	fmt.Fprintln(w, "  scrolltile action resize width +10%")
	fmt.Fprintln(w, "  scrolltile action move-window-to-workspace down")
}

func runAction(args []string) int {
	fs := flag.NewFlagSet("action", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the result as JSON")
	fs.Usage = func() { printActionUsage(os.Stderr) }
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() == 0 {
		printActionUsage(os.Stderr)
		return 2
	}

	text := strings.Join(fs.Args(), " ")
	if _, err := actions.Parse(text); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	res, err := ipc.NewClient().Action(text)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(res)
	}
	if res.Focused != 0 {
		fmt.Printf("%s (focused: %d)\n", res.Action, res.Focused)
	} else {
		fmt.Println(res.Action)
	}
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print status as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrolltile status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	status, err := ipc.NewClient().GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(status)
	}
	fmt.Printf("backend:         %s\n", status.Backend)
	fmt.Printf("config:          %s\n", status.ConfigPath)
	fmt.Printf("focused:         %d\n", status.Focused)
	fmt.Printf("animating:       %v\n", status.Animating)
	fmt.Printf("outputs:         %d\n", status.Engine.Outputs)
	fmt.Printf("workspaces:      %d\n", status.Engine.Workspaces)
	fmt.Printf("columns:         %d\n", status.Engine.Columns)
	fmt.Printf("tiles:           %d\n", status.Engine.Tiles)
	fmt.Printf("pending:         %d\n", status.Engine.Pending)
	fmt.Printf("frames:          %d\n", status.Frames)
	fmt.Printf("actions:         %d\n", status.Actions)
	fmt.Printf("hotkeys:         %d\n", status.Hotkeys)
	fmt.Printf("forced_commits:  %d\n", status.Engine.ForcedCommits)
	fmt.Printf("uptime_seconds:  %d\n", status.UptimeSeconds)
	return 0
}

func runTree(args []string) int {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print the tree as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrolltile tree [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print outputs, workspaces, columns and windows.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	tree, err := ipc.NewClient().GetTree()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if *asJSON {
		return printJSON(tree)
	}
	writeTree(os.Stdout, *tree)
	return 0
}

func runReload(args []string) int {
	fs := flag.NewFlagSet("reload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrolltile reload")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Ask the daemon to reload its configuration.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	res, err := ipc.NewClient().Reload()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("config reloaded (%d files)\n", len(res.Files))
	return 0
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	refresh := fs.Duration("refresh", tui.DefaultRefresh, "How often to poll the daemon")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: scrolltile watch [--refresh 100ms]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Live ASCII view of the frames the daemon presents.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Keybindings:")
		fmt.Fprintln(os.Stderr, "  h/l, ←/→  Focus column left/right")
		fmt.Fprintln(os.Stderr, "  j/k, ↓/↑  Focus window down/up")
		fmt.Fprintln(os.Stderr, "  H/L       Move column left/right")
		fmt.Fprintln(os.Stderr, "  c, f      Center column, toggle fullscreen")
		fmt.Fprintln(os.Stderr, "  Tab       Next output")
		fmt.Fprintln(os.Stderr, "  q, Ctrl+C Quit")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if *refresh < 10*time.Millisecond {
		fmt.Fprintln(os.Stderr, "--refresh must be at least 10ms")
		return 2
	}
	if err := tui.Run(ipc.NewClient(), *refresh); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func printJSON(v any) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
