package actions

import (
	"fmt"

	"github.com/1broseidon/scrolltile/internal/tiling"
)

// Apply runs a on the engine. Errors from the engine are returned unchanged
// so callers can match tiling.ErrInvalidReference and tiling.ErrNothingFocused.
func Apply(e *tiling.Engine, a Action) error {
	switch a.Name {
	case FocusColumnLeft:
		return e.FocusColumnLeft()
	case FocusColumnRight:
		return e.FocusColumnRight()
	case FocusColumnFirst:
		return e.FocusColumnFirst()
	case FocusColumnLast:
		return e.FocusColumnLast()
	case FocusColumn:
		return e.FocusColumn(a.Index)
	case FocusWindowUp:
		return e.FocusWindowUp()
	case FocusWindowDown:
		return e.FocusWindowDown()
	case FocusWindow:
		return e.FocusWindow(a.Window)
	case MoveColumnLeft:
		return e.MoveColumnLeft()
	case MoveColumnRight:
		return e.MoveColumnRight()
	case MoveColumnFirst:
		return e.MoveColumnFirst()
	case MoveColumnLast:
		return e.MoveColumnLast()
	case MoveColumn:
		return e.MoveColumn(a.Index)
	case MoveWindowUp:
		return e.MoveWindowUp()
	case MoveWindowDown:
		return e.MoveWindowDown()
	case ConsumeWindowLeft:
		return e.ConsumeWindowLeft()
	case ConsumeWindowRight:
		return e.ConsumeWindowRight()
	case ExpelWindow:
		return e.ExpelWindow()
	case MoveWindowToWorkspace:
		return e.MoveWindowToWorkspace(a.Workspace)
	case MoveColumnToWorkspace:
		return e.MoveColumnToWorkspace(a.Workspace)
	case MoveWorkspaceToOutput:
		return e.MoveWorkspaceToOutput(a.Target)
	case Resize:
		if a.Axis == AxisHeight {
			return e.ResizeWindowHeight(a.Size)
		}
		return e.ResizeColumn(a.Size)
	case CenterColumn:
		return e.CenterColumn()
	case InsertHint:
		return e.SetInsertHint(a.Window, a.Hint)
	case SwitchWorkspace:
		return e.SwitchWorkspace(a.Workspace)
	case CreateWorkspace:
		return e.CreateWorkspace(a.Target)
	case SwitchOutput:
		return e.SwitchOutput(a.Target)
	case FullscreenToggle:
		return e.ToggleFullscreen(a.Window)
	case CloseWindow:
		return e.CloseWindow(a.Window)
	default:
		return fmt.Errorf("%w: %q", ErrNoSuchAction, a.Name)
	}
}

// Run parses text and applies it.
func Run(e *tiling.Engine, text string) (Action, error) {
	a, err := Parse(text)
	if err != nil {
		return Action{}, err
	}
	return a, Apply(e, a)
}
