package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// writeTree prints the layout tree indented by level.
func writeTree(w io.Writer, tree tiling.Tree) {
	if len(tree.Outputs) == 0 {
		fmt.Fprintln(w, "no outputs")
	}
	for _, o := range tree.Outputs {
		fmt.Fprintf(w, "output %s %dx%d+%d+%d @%.3fHz%s\n",
			o.Name, o.Rect.Width, o.Rect.Height, o.Rect.X, o.Rect.Y,
			float64(o.RefreshMHz)/1000, flags(o.Focused, "focused"))
		for _, ws := range o.Workspaces {
			writeWorkspace(w, ws, 1, tree.Focused)
		}
	}
	if len(tree.Parked) > 0 {
		fmt.Fprintln(w, "parked")
		for _, ws := range tree.Parked {
			writeWorkspace(w, ws, 1, tree.Focused)
		}
	}
}

func writeWorkspace(w io.Writer, ws tiling.WorkspaceNode, depth int, focused tiling.WindowID) {
	indent := strings.Repeat("  ", depth)
	name := ""
	if ws.Name != "" {
		name = fmt.Sprintf(" %q", ws.Name)
	}
	fmt.Fprintf(w, "%sworkspace %d%s view %.0f/%d%s\n",
		indent, ws.Index, name, ws.ViewOffset, ws.Width, flags(ws.Active, "active"))
	if len(ws.Columns) == 0 {
		fmt.Fprintf(w, "%s  (empty)\n", indent)
	}
	for i, c := range ws.Columns {
		fmt.Fprintf(w, "%s  column %d x=%d w=%d %s%s\n",
			indent, i+1, c.X, c.Width, c.Policy, flags(c.Active, "active"))
		for _, t := range c.Tiles {
			var states []string
			if t.Window == focused {
				states = append(states, "focused")
			}
			if t.Pending {
				states = append(states, "pending")
			}
			if t.Fullscreen {
				states = append(states, "fullscreen")
			}
			if t.Closing {
				states = append(states, "closing")
			}
			label := t.AppID
			if t.Title != "" {
				label = fmt.Sprintf("%s %q", t.AppID, t.Title)
			}
			fmt.Fprintf(w, "%s    window %d %s %dx%d%s\n",
				indent, t.Window, strings.TrimSpace(label), t.Rect.Width, t.Rect.Height, flags(len(states) > 0, states...))
		}
	}
}

func flags(on bool, names ...string) string {
	if !on || len(names) == 0 {
		return ""
	}
	return " [" + strings.Join(names, ",") + "]"
}
