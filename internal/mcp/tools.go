package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/scrolltile/internal/actions"
	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

func (s *Server) handleRunAction(_ context.Context, _ *mcpsdk.CallToolRequest, args RunActionInput) (*mcpsdk.CallToolResult, RunActionOutput, error) {
	text := strings.TrimSpace(args.Action)
	if text == "" {
		return nil, RunActionOutput{}, fmt.Errorf("action is required")
	}
	// Parse locally so a typo never reaches the daemon.
	if _, err := actions.Parse(text); err != nil {
		return nil, RunActionOutput{}, err
	}
	res, err := s.daemon.Action(text)
	if err != nil {
		s.logger.Warn("run_action failed", "action", text, "error", err)
		return nil, RunActionOutput{}, err
	}
	s.logger.Info("run_action", "action", res.Action, "focused", res.Focused)
	return nil, RunActionOutput{Action: res.Action, Focused: res.Focused}, nil
}

func (s *Server) handleListActions(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ListActionsOutput, error) {
	return nil, ListActionsOutput{Actions: actions.Names()}, nil
}

func (s *Server) handleGetTree(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, tiling.Tree, error) {
	tr, err := s.daemon.GetTree()
	if err != nil {
		return nil, tiling.Tree{}, err
	}
	return nil, *tr, nil
}

func (s *Server) handleGetFrame(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, tiling.Frame, error) {
	fr, err := s.daemon.GetFrame()
	if err != nil {
		return nil, tiling.Frame{}, err
	}
	return nil, *fr, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ipc.StatusData, error) {
	st, err := s.daemon.GetStatus()
	if err != nil {
		return nil, ipc.StatusData{}, err
	}
	return nil, *st, nil
}

func (s *Server) handleReload(_ context.Context, _ *mcpsdk.CallToolRequest, _ EmptyInput) (*mcpsdk.CallToolResult, ReloadOutput, error) {
	res, err := s.daemon.Reload()
	if err != nil {
		return nil, ReloadOutput{}, err
	}
	s.logger.Info("reload_config", "files", len(res.Files))
	return nil, ReloadOutput{Files: res.Files}, nil
}
