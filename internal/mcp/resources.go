package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"planboard/internal/domain"
	"planboard/internal/service"
)

// drillLister is the optional listing side of a drill catalog.
type drillLister interface {
	List() []domain.DrillSummary
}

const (
	layoutURI   = "planboard://layout"
	drillsURI   = "planboard://drills"
	cardURIBase = "planboard://cards/"
)

func (s *Server) registerResources() {
	// ── planboard://layout ─────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		layoutURI,
		"Canvas Layout",
		mcp.WithResourceDescription("The whole canvas as it would be saved: cards, connections, viewport and timeline"),
		mcp.WithMIMEType("application/json"),
	), s.handleLayoutResource)

	// ── planboard://drills ─────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		drillsURI,
		"Drill Library",
		mcp.WithMIMEType("application/json"),
	), s.handleDrillsResource)

	// ── planboard://cards/{cardId} ─────────────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			cardURIBase+"{cardId}",
			"Card with its connections",
		),
		s.handleCardResource,
	)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleLayoutResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var l *domain.Layout
	s.session.Read(func(ws *service.Workspace) { l = ws.Board.Snapshot() })
	return jsonResource(layoutURI, l)
}

func (s *Server) handleDrillsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	drills := []domain.DrillSummary{}
	if lister, ok := s.catalog.(drillLister); ok {
		drills = lister.List()
	}
	return jsonResource(drillsURI, drills)
}

func (s *Server) handleCardResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := strings.TrimPrefix(uri, cardURIBase)
	if id == "" || id == uri {
		return nil, fmt.Errorf("could not extract cardId from URI: %s", uri)
	}

	var (
		resp struct {
			Card        domain.Card         `json:"card"`
			Connections []domain.Connection `json:"connections"`
		}
		found bool
	)
	s.session.Read(func(ws *service.Workspace) {
		resp.Card, found = ws.Board.Cards.Card(id)
		resp.Connections = []domain.Connection{}
		for _, c := range ws.Board.Connections.Connections() {
			if c.Touches(id) {
				resp.Connections = append(resp.Connections, c)
			}
		}
	})
	if !found {
		return nil, fmt.Errorf("card not found: %s", id)
	}
	return jsonResource(uri, resp)
}
