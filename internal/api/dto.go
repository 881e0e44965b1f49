package api

import (
	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/geometry"
	"planboard/internal/service"
)

// LayoutResponse is the full board state plus session bookkeeping.
type LayoutResponse struct {
	Session service.SessionInfo `json:"session"`
	Layout  *domain.Layout      `json:"layout"`
}

// CreateCardRequest adds a card. Without a position the card spawns at the
// staggered default spot. DrillID fills a drill card's content from the
// catalog.
type CreateCardRequest struct {
	Kind     domain.CardKind     `json:"kind" validate:"required,oneof=note drill ai_readiness_widget weekly_calendar_widget text"`
	Content  *domain.CardContent `json:"content,omitempty"`
	Position *geometry.Point     `json:"position,omitempty"`
	DrillID  string              `json:"drillId,omitempty"`
}

type UpdateCardRequest struct {
	Position *geometry.Point      `json:"position,omitempty"`
	Size     *SizeRequest         `json:"size,omitempty"`
	Content  *domain.ContentPatch `json:"content,omitempty"`
}

type SizeRequest struct {
	W float64 `json:"w" validate:"gt=0"`
	H float64 `json:"h" validate:"gt=0"`
}

type CardListResponse struct {
	Cards      []domain.Card `json:"cards"`
	SelectedID string        `json:"selectedId,omitempty"`
}

type CreateConnectionRequest struct {
	SourceCardID string          `json:"sourceCardId" validate:"required"`
	SourceAnchor geometry.Anchor `json:"sourceAnchor" validate:"required,oneof=top right bottom left"`
	TargetCardID string          `json:"targetCardId" validate:"required,nefield=SourceCardID"`
	TargetAnchor geometry.Anchor `json:"targetAnchor" validate:"required,oneof=top right bottom left"`
}

type ControlPointsRequest struct {
	C1 *geometry.Point `json:"c1" validate:"required"`
	C2 *geometry.Point `json:"c2" validate:"required"`
}

// ConnectionView is a stored connection with its rendered path.
type ConnectionView struct {
	domain.Connection
	Path string `json:"path"`
}

// ConnectionListResponse carries TemporaryPath while a connection is being
// dragged out of a handle.
type ConnectionListResponse struct {
	Connections   []ConnectionView `json:"connections"`
	SelectedID    string           `json:"selectedId,omitempty"`
	TemporaryPath string           `json:"temporaryPath,omitempty"`
}

type ViewportRequest struct {
	Scale  float64        `json:"scale" validate:"gt=0"`
	Offset geometry.Point `json:"offset"`
	Size   *SizeRequest   `json:"size,omitempty"`
}

type ViewportResponse struct {
	Scale  float64        `json:"scale"`
	Offset geometry.Point `json:"offset"`
	Size   geometry.Size  `json:"size"`
}

type EventResponse struct {
	Handled      bool   `json:"handled"`
	State        string `json:"state"`
	CardID       string `json:"selectedCardId,omitempty"`
	ConnectionID string `json:"selectedConnectionId,omitempty"`
}

type ToolbarResponse struct {
	Tier  domain.AccessTier    `json:"tier"`
	Items []canvas.ToolbarItem `json:"items"`
}

type TimelineResponse struct {
	Entries      []domain.TimelineEntry `json:"entries"`
	TotalMinutes int                    `json:"totalMinutes"`
}
