package canvas

import "planboard/internal/domain"

type ToolbarAction string

const (
	ActionAddCard          ToolbarAction = "add_card"
	ActionClearConnections ToolbarAction = "clear_connections"
)

// ToolbarItem is one button in the canvas toolbar.
type ToolbarItem struct {
	Action ToolbarAction   `json:"action"`
	Kind   domain.CardKind `json:"kind,omitempty"`
	Label  string          `json:"label"`
}

var kindLabels = map[domain.CardKind]struct{ key, fallback string }{
	domain.CardKindNote:           {"canvas.toolbar.note", "Add note"},
	domain.CardKindDrill:          {"canvas.toolbar.drill", "Add drill"},
	domain.CardKindText:           {"canvas.toolbar.text", "Add text"},
	domain.CardKindAIReadiness:    {"canvas.toolbar.ai_readiness", "AI readiness"},
	domain.CardKindWeeklyCalendar: {"canvas.toolbar.weekly_calendar", "Weekly calendar"},
}

// Offered reports whether the toolbar lets a user of the given tier add a
// card of the given kind. Widgets are premium only.
func Offered(tier domain.AccessTier, kind domain.CardKind) bool {
	if !kind.Valid() {
		return false
	}
	return !kind.IsWidget() || tier == domain.TierPremium
}

// Toolbar lists the items available to tier with labels resolved through
// labeler. A nil labeler uses the built-in English fallbacks.
func Toolbar(tier domain.AccessTier, labeler domain.Labeler) []ToolbarItem {
	if labeler == nil {
		labeler = domain.FallbackLabeler{}
	}
	items := make([]ToolbarItem, 0, len(domain.CardKinds)+1)
	for _, kind := range domain.CardKinds {
		if !Offered(tier, kind) {
			continue
		}
		l := kindLabels[kind]
		items = append(items, ToolbarItem{
			Action: ActionAddCard,
			Kind:   kind,
			Label:  labeler.Label(l.key, l.fallback),
		})
	}
	items = append(items, ToolbarItem{
		Action: ActionClearConnections,
		Label:  labeler.Label("canvas.toolbar.clear_connections", "Clear connections"),
	})
	return items
}
