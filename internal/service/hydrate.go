package service

import (
	"math"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// HydrateReport counts what Hydrate had to repair in a stored layout.
type HydrateReport struct {
	DuplicateCards    int  `json:"duplicateCards,omitempty"`
	UnknownKinds      int  `json:"unknownKinds,omitempty"`
	MissingDrills     int  `json:"missingDrills,omitempty"`
	OrphanConnections int  `json:"orphanConnections,omitempty"`
	DroppedTimeline   int  `json:"droppedTimeline,omitempty"`
	ClampedCards      int  `json:"clampedCards,omitempty"`
	ViewportReset     bool `json:"viewportReset,omitempty"`
}

// Dropped is the number of records removed outright.
func (r HydrateReport) Dropped() int {
	return r.DuplicateCards + r.UnknownKinds + r.MissingDrills + r.OrphanConnections + r.DroppedTimeline
}

// Clean reports whether the stored layout needed no repair.
func (r HydrateReport) Clean() bool {
	return r == HydrateReport{}
}

// Hydrate repairs a stored layout instead of failing the load:
//   - cards with an empty or repeated id, an unknown kind, or (when catalog
//     is non-nil) a drill reference the catalog no longer has are dropped
//   - card sizes are clamped to minSize
//   - connections whose endpoints are missing, identical or carry invalid
//     anchors are dropped, as are repeated connection ids
//   - timeline entries with an empty or repeated id are dropped
//   - a viewport with a non-positive or non-finite scale is discarded
//
// The input is not modified.
func Hydrate(l *domain.Layout, catalog domain.DrillCatalog, minSize geometry.Size) (*domain.Layout, HydrateReport) {
	var rep HydrateReport
	out := &domain.Layout{
		Cards:       make([]domain.Card, 0, len(l.Cards)),
		Connections: make([]domain.Connection, 0, len(l.Connections)),
		LastUpdated: l.LastUpdated,
	}

	cards := make(map[string]bool, len(l.Cards))
	for _, c := range l.Cards {
		switch {
		case c.ID == "" || cards[c.ID]:
			rep.DuplicateCards++
			continue
		case !c.Kind.Valid():
			rep.UnknownKinds++
			continue
		case c.Kind == domain.CardKindDrill && catalog != nil && c.Content.DrillID != "":
			if _, ok := catalog.LookupDrill(c.Content.DrillID); !ok {
				rep.MissingDrills++
				continue
			}
		}
		if clamped := c.Size.AtLeast(minSize); clamped != c.Size {
			c.Size = clamped
			rep.ClampedCards++
		}
		c.Content = c.Content.Clone()
		cards[c.ID] = true
		out.Cards = append(out.Cards, c)
	}

	conns := make(map[string]bool, len(l.Connections))
	for _, c := range l.Connections {
		if c.ID == "" || conns[c.ID] ||
			!cards[c.SourceCardID] || !cards[c.TargetCardID] ||
			c.SourceCardID == c.TargetCardID ||
			!c.SourceAnchor.Valid() || !c.TargetAnchor.Valid() {
			rep.OrphanConnections++
			continue
		}
		conns[c.ID] = true
		out.Connections = append(out.Connections, c.Clone())
	}

	entries := make(map[string]bool, len(l.Timeline))
	for _, e := range l.Timeline {
		if e.ID == "" || entries[e.ID] {
			rep.DroppedTimeline++
			continue
		}
		entries[e.ID] = true
		out.Timeline = append(out.Timeline, e)
	}

	if l.Viewport != nil {
		v := *l.Viewport
		if v.Scale > 0 && finite(v.Scale) && finite(v.Offset.X) && finite(v.Offset.Y) {
			out.Viewport = &v
		} else {
			rep.ViewportReset = true
		}
	}
	return out, rep
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
