// Package mcp exposes the running daemon to MCP clients over stdio.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/scrolltile/internal/ipc"
	"github.com/1broseidon/scrolltile/internal/tiling"
)

const (
	ServerName    = "scrolltile"
	ServerVersion = "0.1.0"
)

// Daemon is the part of the IPC client the tools use.
type Daemon interface {
	Action(text string) (*ipc.ActionResult, error)
	GetStatus() (*ipc.StatusData, error)
	GetTree() (*tiling.Tree, error)
	GetFrame() (*tiling.Frame, error)
	Reload() (*ipc.ReloadResult, error)
}

// Server is the MCP server. Every tool is a round trip to the daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	daemon    Daemon
	logger    *slog.Logger
}

// NewServer creates an MCP server talking to daemon.
func NewServer(daemon Daemon, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{daemon: daemon, logger: logger}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "run_action",
		Description: "Run one window-management action in the scrolltile daemon, exactly as a key binding would. Use list_actions for the names. Returns the normalised action and the window focused afterwards.",
	}, s.handleRunAction)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_actions",
		Description: "List every action name run_action accepts.",
	}, s.handleListActions)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_tree",
		Description: "Return the layout tree: outputs, their workspaces, columns and tiles with rects, size policies and configure state.",
	}, s.handleGetTree)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_frame",
		Description: "Return the last presented frame: for each output, the windows drawn with absolute rect, opacity, scale and z order.",
	}, s.handleGetFrame)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_status",
		Description: "Return daemon status: backend, focused window, frame and action counters and engine statistics.",
	}, s.handleGetStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "reload_config",
		Description: "Reload the daemon's configuration file. The running configuration is kept when the new one is invalid.",
	}, s.handleReload)
}
