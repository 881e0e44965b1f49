// Package interaction turns normalized pointer, wheel, key and text events
// into calls against a canvas.Board. It is the only writer into board state
// during a live editing session.
package interaction

import (
	"planboard/internal/domain"
	"planboard/internal/geometry"
)

type State int

const (
	Idle State = iota
	PanningCanvas
	DraggingCard
	ResizingCard
	DraggingConnectionHandle
	EditingCardText
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PanningCanvas:
		return "panning_canvas"
	case DraggingCard:
		return "dragging_card"
	case ResizingCard:
		return "resizing_card"
	case DraggingConnectionHandle:
		return "dragging_connection_handle"
	case EditingCardText:
		return "editing_card_text"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// TargetKind says what the pointer was over when an event fired.
type TargetKind string

const (
	TargetBackground       TargetKind = "background"
	TargetCardHandle       TargetKind = "card_handle"
	TargetCardBody         TargetKind = "card_body"
	TargetResizeCorner     TargetKind = "resize_corner"
	TargetConnectionHandle TargetKind = "connection_handle"
	TargetConnection       TargetKind = "connection"
)

type Target struct {
	Kind         TargetKind      `json:"kind" validate:"omitempty,oneof=background card_handle card_body resize_corner connection_handle connection"`
	CardID       string          `json:"cardId,omitempty"`
	Anchor       geometry.Anchor `json:"anchor,omitempty" validate:"omitempty,oneof=top right bottom left"`
	ConnectionID string          `json:"connectionId,omitempty"`
}

type EventType string

const (
	PointerDown  EventType = "pointer_down"
	PointerMove  EventType = "pointer_move"
	PointerUp    EventType = "pointer_up"
	Wheel        EventType = "wheel"
	KeyDelete    EventType = "key_delete"
	KeyEscape    EventType = "key_escape"
	EditStart    EventType = "edit_start"
	EditChange   EventType = "edit_change"
	EditEnd      EventType = "edit_end"
	DropExternal EventType = "drop_external"
)

type Modifiers struct {
	Ctrl  bool `json:"ctrl,omitempty"`
	Meta  bool `json:"meta,omitempty"`
	Shift bool `json:"shift,omitempty"`
	Alt   bool `json:"alt,omitempty"`
}

// Event is a host-toolkit-independent input event. Screen is in screen
// pixels; the machine converts to canvas space through the board viewport.
type Event struct {
	Type      EventType            `json:"type" validate:"required,oneof=pointer_down pointer_move pointer_up wheel key_delete key_escape edit_start edit_change edit_end drop_external"`
	Screen    geometry.Point       `json:"screen"`
	Target    Target               `json:"target"`
	Modifiers Modifiers            `json:"modifiers"`
	DeltaY    float64              `json:"deltaY,omitempty"`
	Patch     *domain.ContentPatch `json:"patch,omitempty"`
	Drill     *domain.DrillSummary `json:"drill,omitempty"`
}
