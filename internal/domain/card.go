package domain

import "planboard/internal/geometry"

type CardKind string

const (
	CardKindNote           CardKind = "note"
	CardKindDrill          CardKind = "drill"
	CardKindAIReadiness    CardKind = "ai_readiness_widget"
	CardKindWeeklyCalendar CardKind = "weekly_calendar_widget"
	CardKindText           CardKind = "text"
)

// CardKinds lists every kind in toolbar order.
var CardKinds = []CardKind{
	CardKindNote,
	CardKindDrill,
	CardKindText,
	CardKindAIReadiness,
	CardKindWeeklyCalendar,
}

func (k CardKind) Valid() bool {
	switch k {
	case CardKindNote, CardKindDrill, CardKindAIReadiness, CardKindWeeklyCalendar, CardKindText:
		return true
	}
	return false
}

// IsWidget reports whether the kind is one of the dashboard widgets that are
// only offered to premium accounts.
func (k CardKind) IsWidget() bool {
	return k == CardKindAIReadiness || k == CardKindWeeklyCalendar
}

type Card struct {
	ID       string         `json:"id" bson:"id"`
	Kind     CardKind       `json:"kind" bson:"kind"`
	Content  CardContent    `json:"content" bson:"content"`
	Position geometry.Point `json:"position" bson:"position"`
	Size     geometry.Size  `json:"size" bson:"size"`
}

// Rect returns the card's canvas-space bounding box.
func (c Card) Rect() geometry.Rect {
	return geometry.RectOf(c.Position, c.Size)
}

// CardContent is the kind-specific payload of a card. Fields that do not
// apply to a card's kind are simply left empty.
type CardContent struct {
	// note / text
	Title string `json:"title,omitempty" bson:"title,omitempty"`
	Text  string `json:"text,omitempty" bson:"text,omitempty"`
	Color string `json:"color,omitempty" bson:"color,omitempty"`
	Font  string `json:"font,omitempty" bson:"font,omitempty"`

	// drill
	DurationMinutes *int   `json:"duration,omitempty" bson:"duration,omitempty"`
	Intensity       string `json:"intensity,omitempty" bson:"intensity,omitempty"`
	DrillID         string `json:"drillId,omitempty" bson:"drillId,omitempty"`
	MediaRef        string `json:"mediaRef,omitempty" bson:"mediaRef,omitempty"`
}

// Duration returns the planned minutes, or 0 when unset.
func (c CardContent) Duration() int {
	if c.DurationMinutes == nil {
		return 0
	}
	return *c.DurationMinutes
}

// ContentPatch is a partial update to CardContent. Nil fields are left alone.
type ContentPatch struct {
	Title           *string `json:"title,omitempty"`
	Text            *string `json:"text,omitempty"`
	Color           *string `json:"color,omitempty"`
	Font            *string `json:"font,omitempty"`
	DurationMinutes *int    `json:"duration,omitempty"`
	Intensity       *string `json:"intensity,omitempty"`
	DrillID         *string `json:"drillId,omitempty"`
	MediaRef        *string `json:"mediaRef,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p ContentPatch) Empty() bool {
	return p == ContentPatch{}
}

// Apply merges the patch into c.
func (p ContentPatch) Apply(c *CardContent) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Text != nil {
		c.Text = *p.Text
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.Font != nil {
		c.Font = *p.Font
	}
	if p.DurationMinutes != nil {
		d := *p.DurationMinutes
		c.DurationMinutes = &d
	}
	if p.Intensity != nil {
		c.Intensity = *p.Intensity
	}
	if p.DrillID != nil {
		c.DrillID = *p.DrillID
	}
	if p.MediaRef != nil {
		c.MediaRef = *p.MediaRef
	}
}

// Clone returns a deep copy so callers can't alias the duration pointer.
func (c CardContent) Clone() CardContent {
	out := c
	if c.DurationMinutes != nil {
		d := *c.DurationMinutes
		out.DurationMinutes = &d
	}
	return out
}
