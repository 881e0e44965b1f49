package interaction

import (
	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// DropTarget is a screen region that reacts when a dragged card is released
// over it. The reaction is independent of the card's own move.
type DropTarget interface {
	Region() geometry.Rect
	Drop(card domain.Card) bool
}

// TimelineDropTarget appends drill cards to the board timeline.
type TimelineDropTarget struct {
	Rect     geometry.Rect
	Timeline *canvas.Timeline
}

func (t TimelineDropTarget) Region() geometry.Rect { return t.Rect }

func (t TimelineDropTarget) Drop(card domain.Card) bool {
	_, ok := t.Timeline.Append(card)
	return ok
}
