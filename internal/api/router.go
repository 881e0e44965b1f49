package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"planboard/internal/domain"
	"planboard/internal/labels"
	"planboard/internal/render"
	"planboard/internal/service"
)

// Streamer serves a user's live event stream.
type Streamer interface {
	Stream(w http.ResponseWriter, r *http.Request, userID string)
}

// Deps are the collaborators of the router. Labels, Catalog and Events may
// be nil.
type Deps struct {
	Sessions *service.SessionManager
	Labels   *labels.Bundle
	Catalog  domain.DrillCatalog
	Events   Streamer
	Preview  render.Options

	AuthEnabled bool
	AuthToken   string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Sessions, d.Catalog, d.Preview)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.AuthEnabled, d.AuthToken))
	r.Use(SessionMiddleware(d.Sessions, d.Labels))

	r.Get("/layout", h.GetLayout)
	r.Post("/layout/save", h.SaveLayout)
	r.Post("/layout/reload", h.ReloadLayout)
	r.Get("/preview.png", h.Preview)

	r.Get("/cards", h.ListCards)
	r.Post("/cards", h.CreateCard)
	r.Patch("/cards/{id}", h.UpdateCard)
	r.Delete("/cards/{id}", h.DeleteCard)
	r.Post("/cards/{id}/select", h.SelectCard)

	r.Get("/connections", h.ListConnections)
	r.Post("/connections", h.CreateConnection)
	r.Delete("/connections", h.ClearConnections)
	r.Delete("/connections/{id}", h.DeleteConnection)
	r.Put("/connections/{id}/control-points", h.SetControlPoints)
	r.Delete("/connections/{id}/control-points", h.ResetControlPoints)

	r.Post("/events", h.DispatchEvent)

	r.Get("/viewport", h.GetViewport)
	r.Put("/viewport", h.SetViewport)

	r.Get("/toolbar", h.Toolbar)
	r.Get("/timeline", h.ListTimeline)
	r.Delete("/timeline/{id}", h.DeleteTimelineEntry)
	r.Get("/drills", h.ListDrills)

	if d.Events != nil {
		r.Get("/events/stream", func(w http.ResponseWriter, r *http.Request) {
			d.Events.Stream(w, r, sessionFrom(r).Identity().UserID)
		})
	}
	return r
}
