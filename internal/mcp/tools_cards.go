package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/geometry"
	"planboard/internal/service"
)

func (s *Server) registerCardTools() {
	// ── list_cards ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_cards",
		mcp.WithDescription("List all cards on the canvas in render order (selected card last)"),
		mcp.WithString("kind", mcp.Description("Filter by card kind (optional)")),
	), s.handleListCards)

	// ── add_card ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_card",
		mcp.WithDescription("Add a card. Position is auto-calculated on a free grid spot if x/y are omitted. Widgets (ai_readiness_widget, weekly_calendar_widget) need the premium tier."),
		mcp.WithString("kind",
			mcp.Description("Card kind: note, drill, text, ai_readiness_widget, weekly_calendar_widget"),
			mcp.Required(),
		),
		mcp.WithString("title", mcp.Description("Card title (optional)")),
		mcp.WithString("text", mcp.Description("Body text (optional)")),
		mcp.WithString("color", mcp.Description("Card color as #rrggbb (optional)")),
		mcp.WithString("drillId", mcp.Description("Drill library id; fills a drill card from the catalog (optional)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
	), s.handleAddCard)

	// ── move_card ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_card",
		mcp.WithDescription("Move a card to a new canvas position"),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithNumber("x", mcp.Description("New X position"), mcp.Required()),
		mcp.WithNumber("y", mcp.Description("New Y position"), mcp.Required()),
	), s.handleMoveCard)

	// ── resize_card ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("resize_card",
		mcp.WithDescription("Resize a card. Sizes below the minimum are clamped."),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("New width"), mcp.Required()),
		mcp.WithNumber("height", mcp.Description("New height"), mcp.Required()),
	), s.handleResizeCard)

	// ── update_card_content ────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_card_content",
		mcp.WithDescription(`Patch a card's content. Pass a JSON object with any of: title, text, color, font, duration, intensity, drillId, mediaRef. e.g. {"title":"Rondo","duration":12}`),
		mcp.WithString("cardId", mcp.Description("Card ID"), mcp.Required()),
		mcp.WithString("patch", mcp.Description("JSON content patch"), mcp.Required()),
	), s.handleUpdateCardContent)

	// ── delete_card (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("delete_card",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a card and every connection touching it."),
		mcp.WithString("cardId", mcp.Description("Card ID to delete"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteCard)
}

// ── Handlers ───────────────────────────────────────────────

type cardSummary struct {
	ID       string          `json:"id"`
	Kind     domain.CardKind `json:"kind"`
	Title    string          `json:"title,omitempty"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Duration int             `json:"duration,omitempty"`
	Selected bool            `json:"selected,omitempty"`
}

func summarizeCard(c domain.Card, selectedID string) cardSummary {
	return cardSummary{
		ID:       c.ID,
		Kind:     c.Kind,
		Title:    c.Content.Title,
		X:        c.Position.X,
		Y:        c.Position.Y,
		Width:    c.Size.W,
		Height:   c.Size.H,
		Duration: c.Content.Duration(),
		Selected: c.ID == selectedID,
	}
}

func (s *Server) handleListCards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := domain.CardKind(req.GetString("kind", ""))
	var out []cardSummary
	s.session.Read(func(ws *service.Workspace) {
		sel := ws.Board.Selection().CardID()
		for _, c := range ws.Board.Cards.RenderOrder() {
			if kind != "" && c.Kind != kind {
				continue
			}
			out = append(out, summarizeCard(c, sel))
		}
	})
	if out == nil {
		out = []cardSummary{}
	}
	return jsonResult(out)
}

func (s *Server) handleAddCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind := domain.CardKind(raw)
	if !kind.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown card kind %q", raw)), nil
	}
	if !canvas.Offered(s.session.Identity().Tier, kind) {
		return mcp.NewToolResultError(domain.ErrKindNotOffered.Error()), nil
	}

	content := domain.CardContent{
		Title: req.GetString("title", ""),
		Text:  req.GetString("text", ""),
		Color: req.GetString("color", ""),
	}
	if drillID := req.GetString("drillId", ""); drillID != "" {
		if kind != domain.CardKindDrill {
			return mcp.NewToolResultError("drillId is only allowed for drill cards"), nil
		}
		if s.catalog == nil {
			return mcp.NewToolResultError("no drill catalog configured"), nil
		}
		d, ok := s.catalog.LookupDrill(drillID)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("drill not found: %s", drillID)), nil
		}
		fromCatalog := d.Content()
		if content.Title != "" {
			fromCatalog.Title = content.Title
		}
		content = fromCatalog
	}

	var card domain.Card
	s.session.Mutate(func(ws *service.Workspace) bool {
		pos, ok := optionalPoint(req, "x", "y")
		if !ok {
			pos = s.layout.NextPosition(ws.Board.Cards.Cards(), ws.Board.Options().SizeFor(kind))
		}
		card, err = ws.Board.Cards.AddCardAt(kind, &content, pos)
		return err == nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidKind) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("add card: %w", err)
	}
	return jsonResult(card)
}

func (s *Server) handleMoveCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("cardId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pos, err := requirePoint(req, "x", "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.session.Mutate(func(ws *service.Workspace) bool { return ws.Board.Cards.MoveCard(id, pos) }) {
		return mcp.NewToolResultError(fmt.Sprintf("card not found: %s", id)), nil
	}
	return textResult(fmt.Sprintf("Card %s moved to (%.0f, %.0f)", id, pos.X, pos.Y)), nil
}

func (s *Server) handleResizeCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("cardId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	wh, err := requirePoint(req, "width", "height")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var size geometry.Size
	ok := s.session.Mutate(func(ws *service.Workspace) bool {
		if !ws.Board.Cards.ResizeCard(id, geometry.Sz(wh.X, wh.Y)) {
			return false
		}
		c, _ := ws.Board.Cards.Card(id)
		size = c.Size
		return true
	})
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("card not found: %s", id)), nil
	}
	return textResult(fmt.Sprintf("Card %s resized to %.0fx%.0f", id, size.W, size.H)), nil
}

func (s *Server) handleUpdateCardContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("cardId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := req.RequireString("patch")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var patch domain.ContentPatch
	if err := parseJSON(raw, &patch); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid patch JSON: %v", err)), nil
	}

	var (
		card  domain.Card
		found bool
	)
	s.session.Mutate(func(ws *service.Workspace) bool {
		if _, found = ws.Board.Cards.Card(id); !found {
			return false
		}
		changed := ws.Board.Cards.UpdateCardContent(id, patch)
		card, _ = ws.Board.Cards.Card(id)
		return changed
	})
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("card not found: %s", id)), nil
	}
	return jsonResult(card)
}

func (s *Server) handleDeleteCard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("cardId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !s.session.Mutate(func(ws *service.Workspace) bool { return ws.Board.Cards.RemoveCard(id) }) {
		return mcp.NewToolResultError(fmt.Sprintf("card not found: %s", id)), nil
	}
	return textResult(fmt.Sprintf("Card %s deleted", id)), nil
}
