package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"planboard/internal/domain"
	"planboard/internal/geometry"
	"planboard/internal/service"
)

func (s *Server) registerBoardTools() {
	// ── get_viewport ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_viewport",
		mcp.WithDescription("Get the current pan offset and zoom scale of the canvas"),
	), s.handleGetViewport)

	// ── set_viewport ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_viewport",
		mcp.WithDescription("Set the pan offset and zoom scale. Scale is clamped to the allowed zoom range; a non-positive scale resets the view."),
		mcp.WithNumber("scale", mcp.Description("Zoom factor"), mcp.Required()),
		mcp.WithNumber("offsetX", mcp.Description("Horizontal pan in screen pixels"), mcp.Required()),
		mcp.WithNumber("offsetY", mcp.Description("Vertical pan in screen pixels"), mcp.Required()),
	), s.handleSetViewport)

	// ── arrange_cards ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_cards",
		mcp.WithDescription("Lay out cards left to right on the grid, wrapping into rows. Without cardIds every card is arranged."),
		mcp.WithArray("cardIds",
			mcp.Description("Cards to arrange, in order (optional)"),
			mcp.WithStringItems(),
		),
		mcp.WithNumber("x", mcp.Description("Start X (optional, default 0)")),
		mcp.WithNumber("y", mcp.Description("Start Y (optional, default 0)")),
	), s.handleArrangeCards)

	// ── list_timeline ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_timeline",
		mcp.WithDescription("List the session timeline (drills dropped on the timeline strip) and the total planned minutes"),
	), s.handleListTimeline)

	// ── list_drills ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_drills",
		mcp.WithDescription("List the drill library. Use a drill's id as drillId in add_card."),
	), s.handleListDrills)

	// ── save_layout ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_layout",
		mcp.WithDescription("Persist the canvas now. The whole layout is overwritten."),
	), s.handleSaveLayout)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleGetViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var vp domain.Viewport
	s.session.Read(func(ws *service.Workspace) { vp = ws.Board.Viewport.State() })
	return jsonResult(vp)
}

func (s *Server) handleSetViewport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scale, err := req.RequireFloat("scale")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	offset, err := requirePoint(req, "offsetX", "offsetY")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var vp domain.Viewport
	s.session.Mutate(func(ws *service.Workspace) bool {
		before := ws.Board.Viewport.State()
		ws.Board.Viewport.Set(domain.Viewport{Scale: scale, Offset: offset})
		vp = ws.Board.Viewport.State()
		return vp != before
	})
	return jsonResult(vp)
}

func (s *Server) handleArrangeCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := req.GetStringSlice("cardIds", nil)
	start, ok := optionalPoint(req, "x", "y")
	if !ok {
		start = geometry.Point{}
	}

	var (
		moved   int
		missing []string
	)
	s.session.Mutate(func(ws *service.Workspace) bool {
		var cards []domain.Card
		if len(ids) == 0 {
			cards = ws.Board.Cards.Cards()
		} else {
			for _, id := range ids {
				c, found := ws.Board.Cards.Card(id)
				if !found {
					missing = append(missing, id)
					continue
				}
				cards = append(cards, c)
			}
		}
		for i, p := range s.layout.ArrangeRow(cards, start) {
			if cards[i].Position != p && ws.Board.Cards.MoveCard(cards[i].ID, p) {
				moved++
			}
		}
		return moved > 0
	})
	if len(missing) > 0 {
		return textResult(fmt.Sprintf("Moved %d cards; not found: %v", moved, missing)), nil
	}
	return textResult(fmt.Sprintf("Moved %d cards", moved)), nil
}

func (s *Server) handleListTimeline(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Entries      []domain.TimelineEntry `json:"entries"`
		TotalMinutes int                    `json:"totalMinutes"`
	}
	s.session.Read(func(ws *service.Workspace) {
		resp.Entries = ws.Board.Timeline.Entries()
		resp.TotalMinutes = ws.Board.Timeline.TotalMinutes()
	})
	return jsonResult(resp)
}

func (s *Server) handleListDrills(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lister, ok := s.catalog.(drillLister)
	if !ok {
		return mcp.NewToolResultError("no drill catalog configured"), nil
	}
	return jsonResult(lister.List())
}

func (s *Server) handleSaveLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := s.sessions.Save(ctx, s.userID()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", err)), nil
	}
	info := s.session.Info()
	return textResult(fmt.Sprintf("Layout saved at %s (revision %d)", info.LastSaved.Format("2006-01-02 15:04:05"), info.SavedRevision)), nil
}
