package canvas

import (
	"time"

	"github.com/google/uuid"

	"planboard/internal/domain"
)

// Timeline is the ordered session plan built by dropping drill cards onto
// the timeline strip.
type Timeline struct {
	entries []domain.TimelineEntry
	now     func() time.Time
}

func newTimeline() *Timeline {
	return &Timeline{now: time.Now}
}

// Append snapshots a drill card's title and duration into a new entry.
// Other kinds are ignored.
func (t *Timeline) Append(card domain.Card) (domain.TimelineEntry, bool) {
	if card.Kind != domain.CardKindDrill {
		return domain.TimelineEntry{}, false
	}
	e := domain.TimelineEntry{
		ID:              uuid.NewString(),
		CardID:          card.ID,
		Title:           card.Content.Title,
		DurationMinutes: card.Content.Duration(),
		AddedAt:         t.now().UTC(),
	}
	t.entries = append(t.entries, e)
	return e, true
}

func (t *Timeline) Remove(id string) bool {
	for i, e := range t.entries {
		if e.ID == id {
			t.entries = append(t.entries[:i], t.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Timeline) Entries() []domain.TimelineEntry {
	out := make([]domain.TimelineEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Timeline) Len() int { return len(t.entries) }

// TotalMinutes sums the planned duration of every entry.
func (t *Timeline) TotalMinutes() int {
	total := 0
	for _, e := range t.entries {
		total += e.DurationMinutes
	}
	return total
}

func (t *Timeline) replace(entries []domain.TimelineEntry) {
	t.entries = t.entries[:0]
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.ID == "" || seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		t.entries = append(t.entries, e)
	}
}
