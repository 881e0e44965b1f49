package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/service"
	"planboard/internal/storage"
)

type testCatalog map[string]domain.DrillSummary

func (c testCatalog) LookupDrill(id string) (domain.DrillSummary, bool) {
	d, ok := c[id]
	return d, ok
}

func (c testCatalog) List() []domain.DrillSummary {
	out := make([]domain.DrillSummary, 0, len(c))
	for _, d := range c {
		out = append(out, d)
	}
	return out
}

func testServer(t *testing.T, tier domain.AccessTier) (*Server, *storage.MemoryLayoutStore) {
	t.Helper()
	store := storage.NewMemoryLayoutStore()
	opts := canvas.DefaultOptions()
	cat := testCatalog{"rondo": {ID: "rondo", Title: "Rondo 4v2", DurationMinutes: 12, Intensity: "high"}}
	layouts := service.NewLayoutService(store, cat, opts.MinSize, service.SaveOptions{Attempts: 1}, nil)
	sessions := service.NewSessionManager(layouts, nil, service.ManagerOptions{Canvas: opts}, nil)
	t.Cleanup(func() { _ = sessions.Close(context.Background()) })

	srv, err := New(context.Background(), Deps{
		Sessions: sessions,
		Catalog:  cat,
		Identity: domain.Identity{UserID: "coach-1", Tier: tier},
	})
	if err != nil {
		t.Fatal(err)
	}
	return srv, store
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_cards":          srv.handleListCards,
		"add_card":            srv.handleAddCard,
		"move_card":           srv.handleMoveCard,
		"resize_card":         srv.handleResizeCard,
		"update_card_content": srv.handleUpdateCardContent,
		"delete_card":         srv.handleDeleteCard,
		"connect_cards":       srv.handleConnectCards,
		"list_connections":    srv.handleListConnections,
		"delete_connection":   srv.handleDeleteConnection,
		"clear_connections":   srv.handleClearConnections,
		"get_viewport":        srv.handleGetViewport,
		"set_viewport":        srv.handleSetViewport,
		"arrange_cards":       srv.handleArrangeCards,
		"list_timeline":       srv.handleListTimeline,
		"list_drills":         srv.handleListDrills,
		"save_layout":         srv.handleSaveLayout,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func addCard(t *testing.T, srv *Server, args map[string]any) domain.Card {
	t.Helper()
	r := callTool(t, srv, "add_card", args)
	if r.IsError {
		t.Fatalf("add_card: %s", resultText(r))
	}
	var c domain.Card
	if err := json.Unmarshal([]byte(resultText(r)), &c); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	return c
}

func TestAddCard_AutoLayoutAvoidsOverlap(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	a := addCard(t, srv, map[string]any{"kind": "note", "title": "Goals"})
	b := addCard(t, srv, map[string]any{"kind": "note"})
	if a.Rect().Intersects(b.Rect()) {
		t.Errorf("auto-laid-out cards overlap: %+v and %+v", a.Rect(), b.Rect())
	}
	if a.Content.Title != "Goals" {
		t.Errorf("title = %q", a.Content.Title)
	}
}

func TestAddCard_FromCatalog(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	c := addCard(t, srv, map[string]any{"kind": "drill", "drillId": "rondo", "x": 10.0, "y": 20.0})
	if c.Content.Title != "Rondo 4v2" || c.Content.Duration() != 12 {
		t.Errorf("content = %+v", c.Content)
	}
	if c.Position.X != 10 || c.Position.Y != 20 {
		t.Errorf("position = %+v", c.Position)
	}

	r := callTool(t, srv, "add_card", map[string]any{"kind": "drill", "drillId": "missing"})
	if !r.IsError {
		t.Error("unknown drill should be a tool error")
	}
}

func TestAddCard_WidgetNeedsPremium(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	r := callTool(t, srv, "add_card", map[string]any{"kind": "weekly_calendar_widget"})
	if !r.IsError {
		t.Fatal("free tier should not get widgets")
	}

	premium, _ := testServer(t, domain.TierPremium)
	addCard(t, premium, map[string]any{"kind": "weekly_calendar_widget"})
}

func TestResizeCard_Clamps(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	c := addCard(t, srv, map[string]any{"kind": "note"})
	r := callTool(t, srv, "resize_card", map[string]any{"cardId": c.ID, "width": 1.0, "height": 1.0})
	if r.IsError || !strings.Contains(resultText(r), "80x60") {
		t.Errorf("resize result = %q", resultText(r))
	}
}

func TestConnectAndDeleteCascade(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	a := addCard(t, srv, map[string]any{"kind": "note"})
	b := addCard(t, srv, map[string]any{"kind": "note"})

	r := callTool(t, srv, "connect_cards", map[string]any{
		"sourceCardId": a.ID, "sourceAnchor": "right",
		"targetCardId": a.ID, "targetAnchor": "left",
	})
	if !r.IsError {
		t.Fatal("same-card connection should be rejected")
	}

	r = callTool(t, srv, "connect_cards", map[string]any{
		"sourceCardId": a.ID, "sourceAnchor": "right",
		"targetCardId": b.ID, "targetAnchor": "left",
	})
	if r.IsError {
		t.Fatalf("connect: %s", resultText(r))
	}

	var conns []connectionSummary
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "list_connections", map[string]any{}))), &conns)
	if len(conns) != 1 || !strings.HasPrefix(conns[0].Path, "M ") {
		t.Fatalf("connections = %+v", conns)
	}

	callTool(t, srv, "delete_card", map[string]any{"cardId": b.ID})
	conns = nil
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "list_connections", map[string]any{}))), &conns)
	if len(conns) != 0 {
		t.Errorf("connections after delete = %+v, want none", conns)
	}
}

func TestMoveCard_Missing(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	r := callTool(t, srv, "move_card", map[string]any{"cardId": "nope", "x": 1.0, "y": 2.0})
	if !r.IsError {
		t.Error("moving a missing card should be a tool error")
	}
}

func TestSetViewport_Clamps(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	r := callTool(t, srv, "set_viewport", map[string]any{"scale": 10.0, "offsetX": 5.0, "offsetY": 6.0})
	var vp domain.Viewport
	if err := json.Unmarshal([]byte(resultText(r)), &vp); err != nil {
		t.Fatal(err)
	}
	if vp.Scale != 3.0 || vp.Offset.X != 5 || vp.Offset.Y != 6 {
		t.Errorf("viewport = %+v", vp)
	}
}

func TestSaveLayout_WritesStore(t *testing.T) {
	srv, store := testServer(t, domain.TierFree)
	addCard(t, srv, map[string]any{"kind": "note", "title": "Warm-up"})
	r := callTool(t, srv, "save_layout", map[string]any{})
	if r.IsError {
		t.Fatalf("save: %s", resultText(r))
	}
	l, err := store.LoadLayout(context.Background(), "coach-1")
	if err != nil || l == nil {
		t.Fatalf("load: %v, %v", l, err)
	}
	if len(l.Cards) != 1 || l.Cards[0].Content.Title != "Warm-up" {
		t.Errorf("stored cards = %+v", l.Cards)
	}
}

func TestListDrills(t *testing.T) {
	srv, _ := testServer(t, domain.TierFree)
	r := callTool(t, srv, "list_drills", map[string]any{})
	if !strings.Contains(resultText(r), "rondo") {
		t.Errorf("list_drills = %q", resultText(r))
	}
}
