package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// ─────────────────────────────────────────────────────────────
// LayoutService: save/load of layout documents
// ─────────────────────────────────────────────────────────────

type SaveOptions struct {
	Attempts uint
	Delay    time.Duration
}

// LayoutService wraps a LayoutStore with stamping, retry and hydration.
type LayoutService struct {
	store   domain.LayoutStore
	catalog domain.DrillCatalog
	minSize geometry.Size
	save    SaveOptions
	log     *slog.Logger
	now     func() time.Time
}

// NewLayoutService builds the service. catalog may be nil, in which case
// drill references are not checked on load.
func NewLayoutService(store domain.LayoutStore, catalog domain.DrillCatalog, minSize geometry.Size, save SaveOptions, log *slog.Logger) *LayoutService {
	if log == nil {
		log = slog.Default()
	}
	if save.Attempts == 0 {
		save.Attempts = 1
	}
	return &LayoutService{
		store:   store,
		catalog: catalog,
		minSize: minSize,
		save:    save,
		log:     log,
		now:     time.Now,
	}
}

// Save stamps LastUpdated and writes the whole layout, retrying transient
// failures. The returned layout is the one that was written.
func (s *LayoutService) Save(ctx context.Context, userID string, l *domain.Layout) (*domain.Layout, error) {
	out := *l
	out.LastUpdated = s.now().UTC()

	err := retry.Do(
		func() error {
			return s.store.SaveLayout(ctx, userID, &out)
		},
		retry.Context(ctx),
		retry.Attempts(s.save.Attempts),
		retry.Delay(s.save.Delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn("layout save failed, retrying", "user_id", userID, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		s.log.Error("layout save failed", "user_id", userID, "error", err)
		return nil, fmt.Errorf("save layout: %w", err)
	}
	return &out, nil
}

// Load fetches and hydrates a user's layout. A user with nothing saved gets
// an empty layout. On a store error the error is returned together with an
// empty layout so the caller can still start a session.
func (s *LayoutService) Load(ctx context.Context, userID string) (*domain.Layout, HydrateReport, error) {
	stored, err := s.store.LoadLayout(ctx, userID)
	if err != nil {
		s.log.Error("layout load failed", "user_id", userID, "error", err)
		return domain.EmptyLayout(), HydrateReport{}, fmt.Errorf("load layout: %w", err)
	}
	if stored == nil {
		return domain.EmptyLayout(), HydrateReport{}, nil
	}
	l, rep := Hydrate(stored, s.catalog, s.minSize)
	if !rep.Clean() {
		s.log.Warn("repaired stored layout", "user_id", userID,
			"dropped", rep.Dropped(), "clamped", rep.ClampedCards, "viewport_reset", rep.ViewportReset)
	}
	return l, rep, nil
}

// Catalog is the drill catalog hydration checks against, or nil.
func (s *LayoutService) Catalog() domain.DrillCatalog { return s.catalog }

func (s *LayoutService) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}
