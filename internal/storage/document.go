// Package storage implements domain.LayoutStore on top of MongoDB, SQL
// databases (SQLite, PostgreSQL, MySQL) and process memory.
package storage

import (
	"encoding/json"
	"fmt"

	"planboard/internal/domain"
)

// Top-level keys owned by the canvas. Anything else in a stored document
// belongs to some other part of the platform and must survive a save.
const (
	fieldCards       = "cards"
	fieldConnections = "connections"
	fieldViewport    = "viewport"
	fieldTimeline    = "timeline"
	fieldLastUpdated = "lastUpdated"
)

// normalized returns a copy of l with nil slices replaced by empty ones so
// every backend stores arrays rather than nulls.
func normalized(l *domain.Layout) domain.Layout {
	out := *l
	if out.Cards == nil {
		out.Cards = []domain.Card{}
	}
	if out.Connections == nil {
		out.Connections = []domain.Connection{}
	}
	if out.Timeline == nil {
		out.Timeline = []domain.TimelineEntry{}
	}
	return out
}

// mergeDocument overlays the layout's fields onto an existing JSON document
// and returns the encoded result. A nil viewport removes the stored one.
func mergeDocument(existing []byte, l *domain.Layout) ([]byte, error) {
	doc := map[string]json.RawMessage{}
	if len(existing) > 0 {
		if err := json.Unmarshal(existing, &doc); err != nil {
			return nil, fmt.Errorf("decode stored document: %w", err)
		}
	}

	n := normalized(l)
	set := func(key string, v any) error {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		doc[key] = raw
		return nil
	}
	if err := set(fieldCards, n.Cards); err != nil {
		return nil, err
	}
	if err := set(fieldConnections, n.Connections); err != nil {
		return nil, err
	}
	if err := set(fieldTimeline, n.Timeline); err != nil {
		return nil, err
	}
	if err := set(fieldLastUpdated, n.LastUpdated); err != nil {
		return nil, err
	}
	if n.Viewport != nil {
		if err := set(fieldViewport, n.Viewport); err != nil {
			return nil, err
		}
	} else {
		delete(doc, fieldViewport)
	}
	return json.Marshal(doc)
}

func decodeDocument(raw []byte) (*domain.Layout, error) {
	var l domain.Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	return &l, nil
}
