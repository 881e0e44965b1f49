package domain

// AccessTier is the coarse subscription flag supplied by the identity layer.
type AccessTier string

const (
	TierFree    AccessTier = "free"
	TierPremium AccessTier = "premium"
)

// ParseTier maps unknown or empty values to the free tier.
func ParseTier(s string) AccessTier {
	if AccessTier(s) == TierPremium {
		return TierPremium
	}
	return TierFree
}

// Identity is everything the canvas needs to know about the signed-in user.
type Identity struct {
	UserID string     `json:"userId"`
	Tier   AccessTier `json:"tier"`
}

// DrillSummary is the slice of a drill-library record used to create a
// drill card.
type DrillSummary struct {
	ID              string `json:"id" yaml:"id"`
	Title           string `json:"title" yaml:"title"`
	DurationMinutes int    `json:"durationMinutes" yaml:"durationMinutes"`
	Intensity       string `json:"intensity" yaml:"intensity"`
	MediaRef        string `json:"mediaRef" yaml:"mediaRef"`
}

// Content builds the card payload for a drill card.
func (d DrillSummary) Content() CardContent {
	dur := d.DurationMinutes
	return CardContent{
		Title:           d.Title,
		DurationMinutes: &dur,
		Intensity:       d.Intensity,
		DrillID:         d.ID,
		MediaRef:        d.MediaRef,
	}
}

type DrillCatalog interface {
	LookupDrill(id string) (DrillSummary, bool)
}

// Labeler resolves a user-facing string by key. fallback is returned when
// the key has no translation.
type Labeler interface {
	Label(key, fallback string) string
}

// FallbackLabeler always returns the fallback.
type FallbackLabeler struct{}

func (FallbackLabeler) Label(_, fallback string) string { return fallback }
