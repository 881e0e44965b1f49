package api

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/geometry"
	"planboard/internal/interaction"
	"planboard/internal/render"
	"planboard/internal/service"
)

// DrillLister is the optional listing side of a drill catalog.
type DrillLister interface {
	List() []domain.DrillSummary
}

// Handler holds API route handlers.
type Handler struct {
	sessions *service.SessionManager
	catalog  domain.DrillCatalog
	preview  render.Options
}

func NewHandler(sessions *service.SessionManager, catalog domain.DrillCatalog, preview render.Options) *Handler {
	return &Handler{sessions: sessions, catalog: catalog, preview: preview}
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusNotFound, errorBody(what+" not found"))
}

// ── Layout ──────────────────────────────────────────────────

// GetLayout handles GET /api/layout.
func (h *Handler) GetLayout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	var l *domain.Layout
	s.Read(func(ws *service.Workspace) { l = ws.Board.Snapshot() })
	writeJSON(w, http.StatusOK, LayoutResponse{Session: s.Info(), Layout: l})
}

// SaveLayout handles POST /api/layout/save. By default the save runs in the
// background and the result arrives on the event stream; ?wait=true blocks
// until it is written.
func (h *Handler) SaveLayout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	userID := s.Identity().UserID
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		if err := h.sessions.Save(r.Context(), userID); err != nil {
			if errors.Is(err, domain.ErrLayoutNotLoaded) {
				writeJSON(w, http.StatusConflict, errorBody(err.Error()))
				return
			}
			slog.Error("save layout failed", slog.String("user_id", userID), slog.String("error", err.Error()))
			writeJSON(w, http.StatusBadGateway, errResponse{Error: "save failed: " + err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, s.Info())
		return
	}
	if err := h.sessions.SaveAsync(userID); err != nil {
		if errors.Is(err, domain.ErrLayoutNotLoaded) {
			writeJSON(w, http.StatusConflict, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusAccepted, s.Info())
}

// ReloadLayout handles POST /api/layout/reload.
func (h *Handler) ReloadLayout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	userID := s.Identity().UserID
	if err := h.sessions.Reload(r.Context(), userID); err != nil {
		slog.Error("reload layout failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("reload failed: "+err.Error()))
		return
	}
	h.GetLayout(w, r)
}

// Preview handles GET /api/preview.png.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var (
		buf bytes.Buffer
		err error
	)
	sessionFrom(r).Read(func(ws *service.Workspace) {
		err = render.PNG(&buf, ws.Board, h.preview)
	})
	if err != nil {
		slog.Error("render preview failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// ── Cards ───────────────────────────────────────────────────

// ListCards handles GET /api/cards. Cards come in render order.
func (h *Handler) ListCards(w http.ResponseWriter, r *http.Request) {
	var resp CardListResponse
	sessionFrom(r).Read(func(ws *service.Workspace) {
		resp.Cards = ws.Board.Cards.RenderOrder()
		resp.SelectedID = ws.Board.Selection().CardID()
	})
	writeJSON(w, http.StatusOK, resp)
}

// CreateCard handles POST /api/cards.
func (h *Handler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req CreateCardRequest
	if !decode(w, r, &req) {
		return
	}
	s := sessionFrom(r)
	if !canvas.Offered(s.Identity().Tier, req.Kind) {
		writeJSON(w, http.StatusForbidden, errorBody(domain.ErrKindNotOffered.Error()))
		return
	}

	content := req.Content
	if req.DrillID != "" {
		if req.Kind != domain.CardKindDrill {
			writeJSON(w, http.StatusBadRequest, errResponse{Error: "invalid request", Fields: map[string]string{"drillId": "drillId is only allowed for drill cards"}})
			return
		}
		if h.catalog == nil {
			notFound(w, "drill")
			return
		}
		d, ok := h.catalog.LookupDrill(req.DrillID)
		if !ok {
			notFound(w, "drill")
			return
		}
		c := d.Content()
		content = &c
	}

	var (
		card domain.Card
		err  error
	)
	s.Mutate(func(ws *service.Workspace) bool {
		if req.Position != nil {
			card, err = ws.Board.Cards.AddCardAt(req.Kind, content, *req.Position)
		} else {
			card, err = ws.Board.Cards.AddCard(req.Kind, content)
		}
		return err == nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidKind) {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

// UpdateCard handles PATCH /api/cards/{id}.
func (h *Handler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req UpdateCardRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		card  domain.Card
		found bool
	)
	sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		cards := ws.Board.Cards
		if _, found = cards.Card(id); !found {
			return false
		}
		changed := false
		if req.Position != nil {
			changed = cards.MoveCard(id, *req.Position) || changed
		}
		if req.Size != nil {
			changed = cards.ResizeCard(id, geometry.Sz(req.Size.W, req.Size.H)) || changed
		}
		if req.Content != nil && !req.Content.Empty() {
			changed = cards.UpdateCardContent(id, *req.Content) || changed
		}
		card, _ = cards.Card(id)
		return changed
	})
	if !found {
		notFound(w, "card")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/cards/{id}. Connections touching the card
// go with it.
func (h *Handler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed := sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		return ws.Board.Cards.RemoveCard(id)
	})
	if !removed {
		notFound(w, "card")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectCard handles POST /api/cards/{id}/select.
func (h *Handler) SelectCard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var (
		card domain.Card
		ok   bool
	)
	sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		if ok = ws.Board.Cards.SelectCard(id); ok {
			card, _ = ws.Board.Cards.Card(id)
		}
		return ok
	})
	if !ok {
		notFound(w, "card")
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// ── Connections ─────────────────────────────────────────────

// ListConnections handles GET /api/connections.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	var resp ConnectionListResponse
	sessionFrom(r).Read(func(ws *service.Workspace) {
		conns := ws.Board.Connections
		resp.Connections = make([]ConnectionView, 0, conns.Len())
		for _, c := range conns.Connections() {
			view := ConnectionView{Connection: c}
			if cv, ok := conns.Curve(c.ID); ok {
				view.Path = cv.Path
			}
			resp.Connections = append(resp.Connections, view)
		}
		resp.SelectedID = ws.Board.Selection().ConnectionID()
		resp.TemporaryPath, _ = conns.TemporaryPath()
	})
	writeJSON(w, http.StatusOK, resp)
}

// CreateConnection handles POST /api/connections.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if !decode(w, r, &req) {
		return
	}
	var (
		conn domain.Connection
		ok   bool
	)
	sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		conn, ok = ws.Board.Connections.Connect(req.SourceCardID, req.SourceAnchor, req.TargetCardID, req.TargetAnchor)
		return ok
	})
	if !ok {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("both cards must exist"))
		return
	}
	writeJSON(w, http.StatusCreated, conn)
}

// DeleteConnection handles DELETE /api/connections/{id}.
func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed := sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		return ws.Board.Connections.DeleteConnection(id)
	})
	if !removed {
		notFound(w, "connection")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearConnections handles DELETE /api/connections.
func (h *Handler) ClearConnections(w http.ResponseWriter, r *http.Request) {
	var n int
	sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		n = ws.Board.Connections.ClearAllConnections()
		return n > 0
	})
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

// SetControlPoints handles PUT /api/connections/{id}/control-points.
func (h *Handler) SetControlPoints(w http.ResponseWriter, r *http.Request) {
	var req ControlPointsRequest
	if !decode(w, r, &req) {
		return
	}
	h.controlPoints(w, r, &domain.ControlPoints{C1: *req.C1, C2: *req.C2})
}

// ResetControlPoints handles DELETE /api/connections/{id}/control-points.
func (h *Handler) ResetControlPoints(w http.ResponseWriter, r *http.Request) {
	h.controlPoints(w, r, nil)
}

func (h *Handler) controlPoints(w http.ResponseWriter, r *http.Request, cp *domain.ControlPoints) {
	id := chi.URLParam(r, "id")
	var (
		view ConnectionView
		ok   bool
	)
	sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		conns := ws.Board.Connections
		if ok = conns.SetControlPoints(id, cp); !ok {
			return false
		}
		view.Connection, _ = conns.Connection(id)
		if cv, found := conns.Curve(id); found {
			view.Path = cv.Path
		}
		return true
	})
	if !ok {
		notFound(w, "connection")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ── Interaction ─────────────────────────────────────────────

// DispatchEvent handles POST /api/events: one normalized input event fed
// through the session's interaction machine.
func (h *Handler) DispatchEvent(w http.ResponseWriter, r *http.Request) {
	var ev interaction.Event
	if !decode(w, r, &ev) {
		return
	}
	var resp EventResponse
	sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		resp.Handled = ws.Machine.Dispatch(ev)
		resp.State = ws.Machine.State().String()
		resp.CardID = ws.Board.Selection().CardID()
		resp.ConnectionID = ws.Board.Selection().ConnectionID()
		return resp.Handled
	})
	writeJSON(w, http.StatusOK, resp)
}

// ── Viewport ────────────────────────────────────────────────

// GetViewport handles GET /api/viewport.
func (h *Handler) GetViewport(w http.ResponseWriter, r *http.Request) {
	var resp ViewportResponse
	sessionFrom(r).Read(func(ws *service.Workspace) { resp = viewportOf(ws.Board.Viewport) })
	writeJSON(w, http.StatusOK, resp)
}

// SetViewport handles PUT /api/viewport. The scale is clamped to the
// configured range.
func (h *Handler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequest
	if !decode(w, r, &req) {
		return
	}
	var resp ViewportResponse
	sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		vp := ws.Board.Viewport
		if req.Size != nil {
			vp.SetSize(geometry.Sz(req.Size.W, req.Size.H))
		}
		vp.Set(domain.Viewport{Scale: req.Scale, Offset: req.Offset})
		resp = viewportOf(vp)
		return true
	})
	writeJSON(w, http.StatusOK, resp)
}

func viewportOf(vp *canvas.Viewport) ViewportResponse {
	return ViewportResponse{Scale: vp.Scale(), Offset: vp.Offset(), Size: vp.Size()}
}

// ── Toolbar, timeline, drills ───────────────────────────────

// Toolbar handles GET /api/toolbar.
func (h *Handler) Toolbar(w http.ResponseWriter, r *http.Request) {
	tier := sessionFrom(r).Identity().Tier
	writeJSON(w, http.StatusOK, ToolbarResponse{Tier: tier, Items: canvas.Toolbar(tier, labelerFrom(r))})
}

// ListTimeline handles GET /api/timeline.
func (h *Handler) ListTimeline(w http.ResponseWriter, r *http.Request) {
	var resp TimelineResponse
	sessionFrom(r).Read(func(ws *service.Workspace) {
		resp.Entries = ws.Board.Timeline.Entries()
		resp.TotalMinutes = ws.Board.Timeline.TotalMinutes()
	})
	writeJSON(w, http.StatusOK, resp)
}

// DeleteTimelineEntry handles DELETE /api/timeline/{id}.
func (h *Handler) DeleteTimelineEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed := sessionFrom(r).Mutate(func(ws *service.Workspace) bool {
		return ws.Board.Timeline.Remove(id)
	})
	if !removed {
		notFound(w, "timeline entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDrills handles GET /api/drills.
func (h *Handler) ListDrills(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.catalog.(DrillLister)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"drills": []domain.DrillSummary{}})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"drills": lister.List()})
}
