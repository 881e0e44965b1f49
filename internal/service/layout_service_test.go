package service_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"planboard/internal/domain"
	"planboard/internal/geometry"
	"planboard/internal/service"
	"planboard/internal/storage"
)

// flakyStore fails the first `failures` saves, and every load while
// loadErr is set.
type flakyStore struct {
	*storage.MemoryLayoutStore

	mu       sync.Mutex
	failures int
	saves    int
	loadErr  error
}

func newFlakyStore(failures int) *flakyStore {
	return &flakyStore{MemoryLayoutStore: storage.NewMemoryLayoutStore(), failures: failures}
}

func (f *flakyStore) SaveLayout(ctx context.Context, userID string, l *domain.Layout) error {
	f.mu.Lock()
	f.saves++
	fail := f.saves <= f.failures
	f.mu.Unlock()
	if fail {
		return errors.New("connection reset")
	}
	return f.MemoryLayoutStore.SaveLayout(ctx, userID, l)
}

func (f *flakyStore) LoadLayout(ctx context.Context, userID string) (*domain.Layout, error) {
	f.mu.Lock()
	err := f.loadErr
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.MemoryLayoutStore.LoadLayout(ctx, userID)
}

func (f *flakyStore) setLoadErr(err error) {
	f.mu.Lock()
	f.loadErr = err
	f.mu.Unlock()
}

func (f *flakyStore) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

type catalogMap map[string]domain.DrillSummary

func (c catalogMap) LookupDrill(id string) (domain.DrillSummary, bool) {
	d, ok := c[id]
	return d, ok
}

var minSize = geometry.Sz(80, 60)

// ─────────────────────────────────────────────────────────────
// Save / Load
// ─────────────────────────────────────────────────────────────

func TestLayoutService_SaveRetries(t *testing.T) {
	store := newFlakyStore(2)
	svc := service.NewLayoutService(store, nil, minSize, service.SaveOptions{Attempts: 3, Delay: time.Millisecond}, nil)

	written, err := svc.Save(context.Background(), "u1", domain.EmptyLayout())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if store.saveCount() != 3 {
		t.Errorf("saves = %d, want 3", store.saveCount())
	}
	if written.LastUpdated.IsZero() {
		t.Error("LastUpdated should be stamped")
	}
}

func TestLayoutService_SaveGivesUp(t *testing.T) {
	store := newFlakyStore(10)
	svc := service.NewLayoutService(store, nil, minSize, service.SaveOptions{Attempts: 2, Delay: time.Millisecond}, nil)

	if _, err := svc.Save(context.Background(), "u1", domain.EmptyLayout()); err == nil {
		t.Fatal("expected error")
	}
	if store.saveCount() != 2 {
		t.Errorf("saves = %d, want 2", store.saveCount())
	}
}

func TestLayoutService_LoadMissingIsEmpty(t *testing.T) {
	svc := service.NewLayoutService(storage.NewMemoryLayoutStore(), nil, minSize, service.SaveOptions{}, nil)
	l, rep, err := svc.Load(context.Background(), "new-user")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(l.Cards) != 0 || len(l.Connections) != 0 || l.Viewport != nil || !rep.Clean() {
		t.Errorf("expected empty layout, got %+v %+v", l, rep)
	}
}

func TestLayoutService_LoadErrorReturnsEmptyLayout(t *testing.T) {
	store := newFlakyStore(0)
	store.loadErr = errors.New("timeout")
	svc := service.NewLayoutService(store, nil, minSize, service.SaveOptions{}, nil)

	l, _, err := svc.Load(context.Background(), "u1")
	if err == nil {
		t.Fatal("expected error")
	}
	if l == nil || len(l.Cards) != 0 {
		t.Errorf("expected an empty layout alongside the error, got %+v", l)
	}
}

// ─────────────────────────────────────────────────────────────
// Hydrate
// ─────────────────────────────────────────────────────────────

func TestHydrate_DropsBrokenRecords(t *testing.T) {
	in := &domain.Layout{
		Cards: []domain.Card{
			{ID: "a", Kind: domain.CardKindNote, Size: geometry.Sz(200, 150)},
			{ID: "a", Kind: domain.CardKindNote, Size: geometry.Sz(200, 150)},
			{ID: "b", Kind: "sticker", Size: geometry.Sz(200, 150)},
			{ID: "c", Kind: domain.CardKindDrill, Content: domain.CardContent{DrillID: "gone"}, Size: geometry.Sz(200, 150)},
			{ID: "d", Kind: domain.CardKindDrill, Content: domain.CardContent{DrillID: "kept"}, Size: geometry.Sz(10, 10)},
		},
		Connections: []domain.Connection{
			{ID: "ok", SourceCardID: "a", SourceAnchor: "right", TargetCardID: "d", TargetAnchor: "left"},
			{ID: "missing", SourceCardID: "a", SourceAnchor: "right", TargetCardID: "c", TargetAnchor: "left"},
			{ID: "self", SourceCardID: "a", SourceAnchor: "right", TargetCardID: "a", TargetAnchor: "left"},
			{ID: "anchor", SourceCardID: "a", SourceAnchor: "middle", TargetCardID: "d", TargetAnchor: "left"},
		},
		Viewport: &domain.Viewport{Scale: math.NaN()},
	}
	catalog := catalogMap{"kept": {ID: "kept", Title: "Kept drill"}}

	out, rep := service.Hydrate(in, catalog, minSize)

	if len(out.Cards) != 2 || out.Cards[0].ID != "a" || out.Cards[1].ID != "d" {
		t.Fatalf("cards = %+v", out.Cards)
	}
	if out.Cards[1].Size != minSize {
		t.Errorf("size not clamped: %v", out.Cards[1].Size)
	}
	if len(out.Connections) != 1 || out.Connections[0].ID != "ok" {
		t.Errorf("connections = %+v", out.Connections)
	}
	if out.Viewport != nil || !rep.ViewportReset {
		t.Error("NaN viewport should be reset")
	}
	want := service.HydrateReport{
		DuplicateCards: 1, UnknownKinds: 1, MissingDrills: 1,
		OrphanConnections: 3, ClampedCards: 1, ViewportReset: true,
	}
	if rep != want {
		t.Errorf("report = %+v, want %+v", rep, want)
	}
	if len(in.Cards) != 5 {
		t.Error("input must not be modified")
	}
}

func TestHydrate_NoCatalogKeepsDrills(t *testing.T) {
	in := &domain.Layout{Cards: []domain.Card{
		{ID: "c", Kind: domain.CardKindDrill, Content: domain.CardContent{DrillID: "any"}, Size: geometry.Sz(200, 150)},
	}}
	out, rep := service.Hydrate(in, nil, minSize)
	if len(out.Cards) != 1 || !rep.Clean() {
		t.Errorf("drill should survive without a catalog: %+v %+v", out.Cards, rep)
	}
}
