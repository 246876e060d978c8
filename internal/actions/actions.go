// Package actions parses the textual action language used by key bindings,
// the IPC socket and the MCP server, and applies actions to a layout engine.
package actions

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// ErrNoSuchAction is returned for an action name outside the known set.
var ErrNoSuchAction = errors.New("no such action")

// ErrBadArgument is returned when an action's arguments do not parse.
var ErrBadArgument = errors.New("bad action argument")

// Name identifies an action.
type Name string

const (
	FocusColumnLeft       Name = "focus-column-left"
	FocusColumnRight      Name = "focus-column-right"
	FocusColumnFirst      Name = "focus-column-first"
	FocusColumnLast       Name = "focus-column-last"
	FocusColumn           Name = "focus-column"
	FocusWindowUp         Name = "focus-window-up"
	FocusWindowDown       Name = "focus-window-down"
	FocusWindow           Name = "focus-window"
	MoveColumnLeft        Name = "move-column-left"
	MoveColumnRight       Name = "move-column-right"
	MoveColumnFirst       Name = "move-column-first"
	MoveColumnLast        Name = "move-column-last"
	MoveColumn            Name = "move-column"
	MoveWindowUp          Name = "move-window-up"
	MoveWindowDown        Name = "move-window-down"
	ConsumeWindowLeft     Name = "consume-window-left"
	ConsumeWindowRight    Name = "consume-window-right"
	ExpelWindow           Name = "expel-window"
	MoveWindowToWorkspace Name = "move-window-to-workspace"
	MoveColumnToWorkspace Name = "move-column-to-workspace"
	MoveWorkspaceToOutput Name = "move-workspace-to-output"
	Resize                Name = "resize"
	CenterColumn          Name = "center-column"
	InsertHint            Name = "insert-hint"
	SwitchWorkspace       Name = "switch-workspace"
	CreateWorkspace       Name = "create-workspace"
	SwitchOutput          Name = "switch-output"
	FullscreenToggle      Name = "fullscreen-toggle"
	CloseWindow           Name = "close-window"
)

// Axis selects the dimension a resize acts on.
type Axis string

const (
	AxisWidth  Axis = "width"
	AxisHeight Axis = "height"
)

type argKind int

const (
	argNone argKind = iota
	argIndex
	argWindow
	argOptionalWindow
	argWorkspace
	argName
	argResize
	argInsertHint
)

var table = map[Name]argKind{
	FocusColumnLeft:       argNone,
	FocusColumnRight:      argNone,
	FocusColumnFirst:      argNone,
	FocusColumnLast:       argNone,
	FocusColumn:           argIndex,
	FocusWindowUp:         argNone,
	FocusWindowDown:       argNone,
	FocusWindow:           argWindow,
	MoveColumnLeft:        argNone,
	MoveColumnRight:       argNone,
	MoveColumnFirst:       argNone,
	MoveColumnLast:        argNone,
	MoveColumn:            argIndex,
	MoveWindowUp:          argNone,
	MoveWindowDown:        argNone,
	ConsumeWindowLeft:     argNone,
	ConsumeWindowRight:    argNone,
	ExpelWindow:           argNone,
	MoveWindowToWorkspace: argWorkspace,
	MoveColumnToWorkspace: argWorkspace,
	MoveWorkspaceToOutput: argName,
	Resize:                argResize,
	CenterColumn:          argNone,
	InsertHint:            argInsertHint,
	SwitchWorkspace:       argWorkspace,
	CreateWorkspace:       argName,
	SwitchOutput:          argName,
	FullscreenToggle:      argOptionalWindow,
	CloseWindow:           argOptionalWindow,
}

// Names lists every action name in sorted order.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, string(n))
	}
	sort.Strings(names)
	return names
}

// Action is a parsed action. Only the fields its Name uses are set.
type Action struct {
	Name      Name
	Index     int
	Window    tiling.WindowID
	Workspace tiling.WorkspaceRef
	Target    string
	Axis      Axis
	Size      tiling.SizeChange
	Hint      tiling.InsertHint
}

// String renders the action back into its textual form.
func (a Action) String() string {
	switch table[a.Name] {
	case argIndex:
		return fmt.Sprintf("%s %d", a.Name, a.Index)
	case argWindow:
		return fmt.Sprintf("%s %d", a.Name, a.Window)
	case argOptionalWindow:
		if a.Window == 0 {
			return string(a.Name)
		}
		return fmt.Sprintf("%s %d", a.Name, a.Window)
	case argWorkspace:
		return fmt.Sprintf("%s %s", a.Name, a.Workspace)
	case argName:
		return fmt.Sprintf("%s %s", a.Name, a.Target)
	case argResize:
		return fmt.Sprintf("%s %s %s", a.Name, a.Axis, a.Size)
	case argInsertHint:
		return fmt.Sprintf("%s %d %s", a.Name, a.Window, a.Hint)
	default:
		return string(a.Name)
	}
}

// Parse parses text such as "focus-column 3" or "resize width -10%".
func Parse(text string) (Action, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return Action{}, fmt.Errorf("%w: empty action", ErrNoSuchAction)
	}
	a := Action{Name: Name(strings.ToLower(fields[0]))}
	kind, ok := table[a.Name]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrNoSuchAction, fields[0])
	}
	args := fields[1:]

	want := map[argKind]int{
		argNone:       0,
		argIndex:      1,
		argWindow:     1,
		argWorkspace:  1,
		argResize:     2,
		argInsertHint: 2,
	}
	switch kind {
	case argOptionalWindow:
		if len(args) > 1 {
			return Action{}, badArg(a.Name, "expected at most one window id")
		}
	case argName:
		if len(args) == 0 {
			return Action{}, badArg(a.Name, "expected a name")
		}
	default:
		if len(args) != want[kind] {
			return Action{}, badArg(a.Name, fmt.Sprintf("expected %d argument(s), got %d", want[kind], len(args)))
		}
	}

	var err error
	switch kind {
	case argIndex:
		a.Index, err = strconv.Atoi(args[0])
		if err != nil || a.Index < 1 {
			return Action{}, badArg(a.Name, fmt.Sprintf("invalid index %q", args[0]))
		}
	case argWindow:
		if a.Window, err = parseWindow(args[0]); err != nil {
			return Action{}, badArg(a.Name, err.Error())
		}
	case argOptionalWindow:
		if len(args) == 1 {
			if a.Window, err = parseWindow(args[0]); err != nil {
				return Action{}, badArg(a.Name, err.Error())
			}
		}
	case argWorkspace:
		if a.Workspace, err = ParseWorkspaceRef(args[0]); err != nil {
			return Action{}, badArg(a.Name, err.Error())
		}
	case argName:
		a.Target = strings.Join(args, " ")
	case argResize:
		switch Axis(strings.ToLower(args[0])) {
		case AxisWidth:
			a.Axis = AxisWidth
		case AxisHeight:
			a.Axis = AxisHeight
		default:
			return Action{}, badArg(a.Name, fmt.Sprintf("unknown axis %q (expected width or height)", args[0]))
		}
		if a.Size, err = ParseSizeChange(args[1]); err != nil {
			return Action{}, badArg(a.Name, err.Error())
		}
	case argInsertHint:
		if a.Window, err = parseWindow(args[0]); err != nil {
			return Action{}, badArg(a.Name, err.Error())
		}
		if a.Hint, err = tiling.ParseInsertHint(args[1]); err != nil {
			return Action{}, badArg(a.Name, err.Error())
		}
	}
	return a, nil
}

func badArg(name Name, msg string) error {
	return fmt.Errorf("%w: %s: %s", ErrBadArgument, name, msg)
}

func parseWindow(s string) (tiling.WindowID, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), windowBase(s), 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return tiling.WindowID(n), nil
}

func windowBase(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}

// ParseWorkspaceRef parses a 1-based index, "up", "down", "+N", "-N" or a
// workspace name.
func ParseWorkspaceRef(s string) (tiling.WorkspaceRef, error) {
	switch s {
	case "":
		return tiling.WorkspaceRef{}, errors.New("empty workspace reference")
	case "up":
		return tiling.WorkspaceRef{Relative: -1}, nil
	case "down":
		return tiling.WorkspaceRef{Relative: 1}, nil
	}
	if s[0] == '+' || s[0] == '-' {
		n, err := strconv.Atoi(s)
		if err != nil || n == 0 {
			return tiling.WorkspaceRef{}, fmt.Errorf("invalid relative workspace %q", s)
		}
		return tiling.WorkspaceRef{Relative: n}, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 {
			return tiling.WorkspaceRef{}, fmt.Errorf("workspace index %d out of range", n)
		}
		return tiling.WorkspaceRef{Index: n}, nil
	}
	return tiling.WorkspaceRef{Name: s}, nil
}

// ParseSizeChange parses "N" (pixels), "N%" (proportion), "+N"/"-N" (pixel
// delta), "+N%"/"-N%" (proportion delta) or "auto".
func ParseSizeChange(s string) (tiling.SizeChange, error) {
	if s == "auto" {
		return tiling.SizeChange{Kind: tiling.SetAuto}, nil
	}
	relative := strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-")
	if num, ok := strings.CutSuffix(s, "%"); ok {
		p, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return tiling.SizeChange{}, fmt.Errorf("invalid proportion %q", s)
		}
		if relative {
			return tiling.SizeChange{Kind: tiling.AdjustProportion, Proportion: p / 100}, nil
		}
		if p <= 0 || p > 100 {
			return tiling.SizeChange{}, fmt.Errorf("proportion %q out of range (0, 100]", s)
		}
		return tiling.SizeChange{Kind: tiling.SetProportion, Proportion: p / 100}, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "px"))
	if err != nil {
		return tiling.SizeChange{}, fmt.Errorf("invalid size %q", s)
	}
	if relative {
		return tiling.SizeChange{Kind: tiling.AdjustPixels, Pixels: n}, nil
	}
	if n <= 0 {
		return tiling.SizeChange{}, fmt.Errorf("size %q must be positive", s)
	}
	return tiling.SizeChange{Kind: tiling.SetPixels, Pixels: n}, nil
}
