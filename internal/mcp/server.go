package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"planboard/internal/domain"
	"planboard/internal/service"
)

// Server is the MCP server for one user's planning canvas.
// It exposes tools, resources and prompts so AI agents can lay out a
// training session next to the coach.
type Server struct {
	mcp      *server.MCPServer
	sessions *service.SessionManager
	session  *service.Session
	catalog  domain.DrillCatalog
	layout   *LayoutEngine
	log      *slog.Logger
}

// Deps holds everything the MCP server needs from the app layer.
type Deps struct {
	Sessions *service.SessionManager
	Catalog  domain.DrillCatalog
	Identity domain.Identity
	Log      *slog.Logger
}

// New opens the user's session and registers every tool. A layout that
// failed to load is logged and the agent starts on an empty board.
func New(ctx context.Context, deps Deps) (*Server, error) {
	if deps.Identity.UserID == "" {
		return nil, fmt.Errorf("mcp server: user id is required")
	}
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	sess, err := deps.Sessions.Open(ctx, deps.Identity)
	if err != nil {
		log.Warn("layout load failed, starting empty", "user_id", deps.Identity.UserID, "error", err)
	}

	s := &Server{
		sessions: deps.Sessions,
		session:  sess,
		catalog:  deps.Catalog,
		layout:   NewLayoutEngine(),
		log:      log,
	}
	s.mcp = server.NewMCPServer(
		"planboard-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerCardTools()
	s.registerConnectionTools()
	s.registerBoardTools()
	s.registerResources()
	s.registerPrompts()
	return s, nil
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("mcp: starting stdio server", "user_id", s.userID())
	return server.ServeStdio(s.mcp)
}

func (s *Server) userID() string { return s.session.Identity().UserID }

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

func boolPtr(v bool) *bool { return &v }
