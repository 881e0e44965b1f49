package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"planboard/internal/domain"
	"planboard/internal/service"
)

func (s *Server) registerConnectionTools() {
	// ── connect_cards ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("connect_cards",
		mcp.WithDescription("Draw a directed arrow from one card's anchor to another card's anchor. Both cards must exist and must differ."),
		mcp.WithString("sourceCardId", mcp.Description("Card the arrow starts from"), mcp.Required()),
		mcp.WithString("sourceAnchor",
			mcp.Description("Side of the source card"),
			mcp.Enum("top", "right", "bottom", "left"),
			mcp.Required(),
		),
		mcp.WithString("targetCardId", mcp.Description("Card the arrow points to"), mcp.Required()),
		mcp.WithString("targetAnchor",
			mcp.Description("Side of the target card"),
			mcp.Enum("top", "right", "bottom", "left"),
			mcp.Required(),
		),
	), s.handleConnectCards)

	// ── list_connections ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List all arrows on the canvas with their SVG path"),
		mcp.WithString("cardId", mcp.Description("Only arrows touching this card (optional)")),
	), s.handleListConnections)

	// ── delete_connection (destructive) ────────────────
	s.mcp.AddTool(mcp.NewTool("delete_connection",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete one arrow."),
		mcp.WithString("connectionId", mcp.Description("Connection ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteConnection)

	// ── clear_connections (destructive) ────────────────
	s.mcp.AddTool(mcp.NewTool("clear_connections",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete every arrow on the canvas. Cards are kept."),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleClearConnections)
}

// ── Handlers ───────────────────────────────────────────────

type connectionSummary struct {
	domain.Connection
	Path     string `json:"path,omitempty"`
	Selected bool   `json:"selected,omitempty"`
}

func (s *Server) handleConnectCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("sourceCardId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := req.RequireString("targetCardId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fromAnchor, err := requireAnchor(req, "sourceAnchor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toAnchor, err := requireAnchor(req, "targetAnchor")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if from == to {
		return mcp.NewToolResultError("an arrow must connect two different cards"), nil
	}

	var conn domain.Connection
	ok := s.session.Mutate(func(ws *service.Workspace) bool {
		var created bool
		conn, created = ws.Board.Connections.Connect(from, fromAnchor, to, toAnchor)
		return created
	})
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("cannot connect %s to %s: card not found", from, to)), nil
	}
	return jsonResult(conn)
}

func (s *Server) handleListConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cardID := req.GetString("cardId", "")
	out := []connectionSummary{}
	s.session.Read(func(ws *service.Workspace) {
		sel := ws.Board.Selection().ConnectionID()
		for _, c := range ws.Board.Connections.Connections() {
			if cardID != "" && !c.Touches(cardID) {
				continue
			}
			sum := connectionSummary{Connection: c, Selected: c.ID == sel}
			if cv, ok := ws.Board.Connections.Curve(c.ID); ok {
				sum.Path = cv.Path
			}
			out = append(out, sum)
		}
	})
	return jsonResult(out)
}

func (s *Server) handleDeleteConnection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("connectionId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.session.Mutate(func(ws *service.Workspace) bool { return ws.Board.Connections.DeleteConnection(id) }) {
		return mcp.NewToolResultError(fmt.Sprintf("connection not found: %s", id)), nil
	}
	return textResult(fmt.Sprintf("Connection %s deleted", id)), nil
}

func (s *Server) handleClearConnections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var n int
	s.session.Mutate(func(ws *service.Workspace) bool {
		n = ws.Board.Connections.ClearAllConnections()
		return n > 0
	})
	return textResult(fmt.Sprintf("Removed %d connections", n)), nil
}
