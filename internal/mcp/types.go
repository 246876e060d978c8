package mcp

import "github.com/1broseidon/scrolltile/internal/tiling"

// RunActionInput is the input for the run_action tool.
type RunActionInput struct {
	Action string `json:"action" jsonschema:"Action text, e.g. focus-column-right, focus-column 2, resize width +10%, move-window-to-workspace down"`
}

// RunActionOutput is the output for the run_action tool.
type RunActionOutput struct {
	Action  string          `json:"action"`
	Focused tiling.WindowID `json:"focused,omitempty"`
}

// EmptyInput is the input for tools that take no arguments.
type EmptyInput struct{}

// ListActionsOutput is the output for the list_actions tool.
type ListActionsOutput struct {
	Actions []string `json:"actions"`
}

// ReloadOutput is the output for the reload_config tool.
type ReloadOutput struct {
	Files []string `json:"files"`
}
