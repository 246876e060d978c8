package palette

import (
	"errors"
	"fmt"

	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

// Daemon is the part of the IPC client the palette needs.
type Daemon interface {
	GetTree() (*tiling.Tree, error)
	Action(text string) (*ipc.ActionResult, error)
}

type entry struct {
	label  string
	action string
	meta   string
}

type section struct {
	title   string
	entries []entry
}

var staticSections = []section{
	{"Focus", []entry{
		{"Focus column left", "focus-column-left", "previous"},
		{"Focus column right", "focus-column-right", "next"},
		{"Focus first column", "focus-column-first", "home start"},
		{"Focus last column", "focus-column-last", "end"},
		{"Focus window up", "focus-window-up", "above"},
		{"Focus window down", "focus-window-down", "below"},
	}},
	{"Move", []entry{
		{"Move column left", "move-column-left", "swap"},
		{"Move column right", "move-column-right", "swap"},
		{"Move column to start", "move-column-first", "home"},
		{"Move column to end", "move-column-last", "end"},
		{"Move window up", "move-window-up", "reorder"},
		{"Move window down", "move-window-down", "reorder"},
		{"Consume into left column", "consume-window-left", "stack merge"},
		{"Consume into right column", "consume-window-right", "stack merge"},
		{"Expel window", "expel-window", "split unstack"},
	}},
	{"Size", []entry{
		{"Center column", "center-column", "scroll"},
		{"Wider (+10%)", "resize width +10%", "grow width"},
		{"Narrower (-10%)", "resize width -10%", "shrink width"},
		{"Half width", "resize width 50%", "proportion"},
		{"Full width", "resize width 100%", "maximize"},
		{"Taller (+10%)", "resize height +10%", "grow height"},
		{"Shorter (-10%)", "resize height -10%", "shrink height"},
		{"Reset height", "resize height auto", "auto"},
		{"Toggle fullscreen", "fullscreen-toggle", "maximize"},
	}},
	{"Workspaces", []entry{
		{"Workspace up", "switch-workspace up", "previous"},
		{"Workspace down", "switch-workspace down", "next"},
		{"Send window up", "move-window-to-workspace up", "move"},
		{"Send window down", "move-window-to-workspace down", "move"},
		{"Send column up", "move-column-to-workspace up", "move"},
		{"Send column down", "move-column-to-workspace down", "move"},
	}},
	{"Window", []entry{
		{"Close window", "close-window", "quit kill"},
	}},
}

// BuildMenu returns the palette rows. tree adds entries for named workspaces
// and the other outputs; it may be nil.
func BuildMenu(tree *tiling.Tree) []Item {
	var items []Item
	add := func(s section) {
		if len(s.entries) == 0 {
			return
		}
		items = append(items, Item{Label: s.title, IsHeader: true})
		for _, e := range s.entries {
			items = append(items, Item{Label: e.label, Action: e.action, Meta: e.meta})
		}
	}
	for _, s := range staticSections {
		add(s)
	}
	if tree == nil {
		return items
	}

	var named []Item
	for _, o := range tree.Outputs {
		for _, ws := range o.Workspaces {
			if ws.Name == "" {
				continue
			}
			named = append(named, Item{
				Label:    fmt.Sprintf("Go to %q on %s", ws.Name, o.Name),
				Action:   "switch-workspace " + ws.Name,
				Meta:     "workspace " + ws.Name,
				IsActive: ws.Active && o.Focused,
			})
		}
	}
	if len(named) > 0 {
		items = append(items, Item{Label: "Named workspaces", IsHeader: true})
		items = append(items, named...)
	}

	if len(tree.Outputs) > 1 {
		items = append(items, Item{Label: "Outputs", IsHeader: true})
		for _, o := range tree.Outputs {
			items = append(items,
				Item{Label: "Focus " + o.Name, Action: "switch-output " + o.Name, Meta: "monitor", IsActive: o.Focused},
				Item{Label: "Move workspace to " + o.Name, Action: "move-workspace-to-output " + o.Name, Meta: "monitor"},
			)
		}
	}
	return items
}

// Run shows the menu and runs the chosen action. It returns the action text,
// or ErrCancelled when nothing was picked.
func Run(b Backend, d Daemon) (string, error) {
	tree, err := d.GetTree()
	if err != nil {
		return "", err
	}
	items := BuildMenu(tree)
	for {
		picked, err := b.Show("scrolltile", items)
		if err != nil {
			return "", err
		}
		// Launchers without non-selectable rows can return a header.
		if picked.IsHeader || picked.Action == "" {
			continue
		}
		if _, err := d.Action(picked.Action); err != nil {
			return picked.Action, fmt.Errorf("%s: %w", picked.Action, err)
		}
		return picked.Action, nil
	}
}

// IsCancelled reports whether err means the user dismissed the palette.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
