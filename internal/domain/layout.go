package domain

import (
	"context"
	"time"

	"planboard/internal/geometry"
)

// Viewport is the pan/zoom transform from canvas space to screen space:
// screen = canvas*Scale + Offset.
type Viewport struct {
	Scale  float64        `json:"scale" bson:"scale"`
	Offset geometry.Point `json:"offset" bson:"offset"`
}

// DefaultViewport is the identity transform.
func DefaultViewport() Viewport {
	return Viewport{Scale: 1}
}

// TimelineEntry is a snapshot of a drill card taken when it was dropped on
// the timeline. It does not follow later edits to the card.
type TimelineEntry struct {
	ID              string    `json:"id" bson:"id"`
	CardID          string    `json:"cardId" bson:"cardId"`
	Title           string    `json:"title" bson:"title"`
	DurationMinutes int       `json:"durationMinutes" bson:"durationMinutes"`
	AddedAt         time.Time `json:"addedAt" bson:"addedAt"`
}

// Layout is the persisted document for one user's canvas. It is always
// written and read as a whole.
type Layout struct {
	Cards       []Card          `json:"cards" bson:"cards"`
	Connections []Connection    `json:"connections" bson:"connections"`
	Viewport    *Viewport       `json:"viewport,omitempty" bson:"viewport,omitempty"`
	Timeline    []TimelineEntry `json:"timeline,omitempty" bson:"timeline,omitempty"`
	LastUpdated time.Time       `json:"lastUpdated" bson:"lastUpdated"`
}

// EmptyLayout is the state of a user with nothing saved yet.
func EmptyLayout() *Layout {
	return &Layout{Cards: []Card{}, Connections: []Connection{}}
}

// LayoutStore persists layouts keyed by user id.
//
// SaveLayout upserts and merges at the top level of the stored document, so
// sibling fields written by other parts of the platform survive. LoadLayout
// returns (nil, nil) when the user has no saved layout.
type LayoutStore interface {
	SaveLayout(ctx context.Context, userID string, l *Layout) error
	LoadLayout(ctx context.Context, userID string) (*Layout, error)
	Close(ctx context.Context) error
}
