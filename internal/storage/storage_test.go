package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

func sampleLayout() *domain.Layout {
	dur := 15
	return &domain.Layout{
		Cards: []domain.Card{
			{ID: "n1", Kind: domain.CardKindNote, Content: domain.CardContent{Title: "Plan", Color: "#ffeb3b"},
				Position: geometry.Pt(100, 100), Size: geometry.Sz(200, 150)},
			{ID: "d1", Kind: domain.CardKindDrill, Content: domain.CardContent{Title: "Rondo", DurationMinutes: &dur, DrillID: "drill-7"},
				Position: geometry.Pt(400, 120), Size: geometry.Sz(240, 160)},
		},
		Connections: []domain.Connection{
			{ID: "c1", SourceCardID: "n1", SourceAnchor: geometry.AnchorRight, TargetCardID: "d1", TargetAnchor: geometry.AnchorLeft,
				ControlPoints: &domain.ControlPoints{C1: geometry.Pt(1, 2), C2: geometry.Pt(3, 4)}},
		},
		Viewport:    &domain.Viewport{Scale: 1.5, Offset: geometry.Pt(-20, 30)},
		Timeline:    []domain.TimelineEntry{{ID: "t1", CardID: "d1", Title: "Rondo", DurationMinutes: 15, AddedAt: time.Unix(1700000000, 0).UTC()}},
		LastUpdated: time.Unix(1700000100, 0).UTC(),
	}
}

func assertSameLayout(t *testing.T, got, want *domain.Layout) {
	t.Helper()
	if got == nil {
		t.Fatal("layout is nil")
	}
	if len(got.Cards) != len(want.Cards) || len(got.Connections) != len(want.Connections) {
		t.Fatalf("got %d cards / %d connections, want %d / %d",
			len(got.Cards), len(got.Connections), len(want.Cards), len(want.Connections))
	}
	for i := range want.Cards {
		g, w := got.Cards[i], want.Cards[i]
		if g.ID != w.ID || g.Kind != w.Kind || g.Position != w.Position || g.Size != w.Size ||
			g.Content.Title != w.Content.Title || g.Content.Duration() != w.Content.Duration() {
			t.Errorf("card %d: got %+v, want %+v", i, g, w)
		}
	}
	gc, wc := got.Connections[0], want.Connections[0]
	if gc.ID != wc.ID || gc.SourceAnchor != wc.SourceAnchor || gc.ControlPoints == nil || *gc.ControlPoints != *wc.ControlPoints {
		t.Errorf("connection: got %+v, want %+v", gc, wc)
	}
	if got.Viewport == nil || *got.Viewport != *want.Viewport {
		t.Errorf("viewport: got %+v", got.Viewport)
	}
	if len(got.Timeline) != 1 || !got.Timeline[0].AddedAt.Equal(want.Timeline[0].AddedAt) {
		t.Errorf("timeline: got %+v", got.Timeline)
	}
	if !got.LastUpdated.Equal(want.LastUpdated) {
		t.Errorf("lastUpdated: got %v", got.LastUpdated)
	}
}

// ─────────────────────────────────────────────────────────────
// Memory store
// ─────────────────────────────────────────────────────────────

func TestMemoryLayoutStore_LoadMissing(t *testing.T) {
	s := NewMemoryLayoutStore()
	l, err := s.LoadLayout(context.Background(), "nobody")
	if err != nil || l != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", l, err)
	}
}

func TestMemoryLayoutStore_RoundTripAndSiblings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLayoutStore()
	s.PutRaw("u1", []byte(`{"profile":{"team":"U12"},"viewport":{"scale":2,"offset":{"x":0,"y":0}}}`))

	want := sampleLayout()
	if err := s.SaveLayout(ctx, "u1", want); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	got, err := s.LoadLayout(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	assertSameLayout(t, got, want)

	raw, _ := s.Raw("u1")
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}
	if string(doc["profile"]) != `{"team":"U12"}` {
		t.Errorf("sibling field clobbered: %s", raw)
	}
}

func TestMemoryLayoutStore_NilViewportRemovesStored(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLayoutStore()
	l := sampleLayout()
	_ = s.SaveLayout(ctx, "u1", l)
	l.Viewport = nil
	_ = s.SaveLayout(ctx, "u1", l)

	got, _ := s.LoadLayout(ctx, "u1")
	if got.Viewport != nil {
		t.Errorf("viewport should be gone, got %+v", got.Viewport)
	}
}

func TestMemoryLayoutStore_UsersAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryLayoutStore()
	_ = s.SaveLayout(ctx, "a", sampleLayout())
	if l, _ := s.LoadLayout(ctx, "b"); l != nil {
		t.Error("user b should have no layout")
	}
}

// ─────────────────────────────────────────────────────────────
// SQLite store
// ─────────────────────────────────────────────────────────────

func newSQLiteStore(t *testing.T) *SQLLayoutStore {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "layouts.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s, err := NewSQLLayoutStore(context.Background(), db, DialectSQLite, nil)
	if err != nil {
		t.Fatalf("NewSQLLayoutStore: %v", err)
	}
	t.Cleanup(func() { s.Close(context.Background()) })
	return s
}

func TestSQLLayoutStore_LoadMissing(t *testing.T) {
	s := newSQLiteStore(t)
	l, err := s.LoadLayout(context.Background(), "nobody")
	if err != nil || l != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", l, err)
	}
}

func TestSQLLayoutStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	want := sampleLayout()
	if err := s.SaveLayout(ctx, "u1", want); err != nil {
		t.Fatalf("SaveLayout: %v", err)
	}
	got, err := s.LoadLayout(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	assertSameLayout(t, got, want)
}

func TestSQLLayoutStore_OverwriteKeepsSiblings(t *testing.T) {
	ctx := context.Background()
	s := newSQLiteStore(t)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO layouts (user_id, document, updated_at) VALUES (?, ?, ?)`,
		"u1", `{"onboarding":{"done":true},"cards":[]}`, 1)
	if err != nil {
		t.Fatal(err)
	}

	first := sampleLayout()
	if err := s.SaveLayout(ctx, "u1", first); err != nil {
		t.Fatal(err)
	}
	second := sampleLayout()
	second.Cards = second.Cards[:1]
	second.Connections = nil
	if err := s.SaveLayout(ctx, "u1", second); err != nil {
		t.Fatal(err)
	}

	got, _ := s.LoadLayout(ctx, "u1")
	if len(got.Cards) != 1 || len(got.Connections) != 0 {
		t.Errorf("last save should win: %d cards, %d connections", len(got.Cards), len(got.Connections))
	}
	raw, err := s.RawDocument(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(raw, `"onboarding":{"done":true}`) {
		t.Errorf("sibling field lost: %s", raw)
	}
	if !strings.Contains(raw, `"connections":[]`) {
		t.Errorf("empty connections should be stored as an array: %s", raw)
	}
}

func TestOpen_MemoryAndSQLite(t *testing.T) {
	ctx := context.Background()
	mem, err := Open(ctx, Options{Driver: DriverMemory}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mem.(*MemoryLayoutStore); !ok {
		t.Errorf("memory driver returned %T", mem)
	}

	lite, err := Open(ctx, Options{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "a", "b.db")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer lite.Close(ctx)
	if err := lite.SaveLayout(ctx, "u", sampleLayout()); err != nil {
		t.Errorf("save through Open: %v", err)
	}

	if _, err := Open(ctx, Options{Driver: "cassandra"}, nil); err == nil {
		t.Error("expected error for unknown driver")
	}
}

// ─────────────────────────────────────────────────────────────
// Connection strings
// ─────────────────────────────────────────────────────────────

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "discrete fields",
			opts: Options{Host: "db", Username: "coach", Password: "pw", Database: "plans"},
			want: "dbname='plans' host='db' password='pw' port='5432' sslmode='disable' user='coach'",
		},
		{
			name: "password needing quotes",
			opts: Options{Host: "db", Port: 6432, Username: "coach", Password: `p w'd\x`, Database: "plans", SSLMode: "require"},
			want: `dbname='plans' host='db' password='p w\'d\\x' port='6432' sslmode='require' user='coach'`,
		},
		{
			name: "url",
			opts: Options{DSN: "postgres://coach:pw@db:5433/plans?sslmode=require"},
			want: "dbname='plans' host='db' password='pw' port='5433' sslmode='require' user='coach'",
		},
		{
			name: "keyword dsn passes through",
			opts: Options{DSN: "host=db dbname=plans"},
			want: "host=db dbname=plans",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := postgresDSN(tt.opts)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN(Options{Host: "db", Username: "coach", Password: "pw", Database: "plans"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dsn, "coach:pw@tcp(db:3306)/plans") || !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("got %q", dsn)
	}
}

func TestDatabaseFromURI(t *testing.T) {
	tests := map[string]string{
		"mongodb+srv://u:p@cluster0.mongodb.net/coaching?retryWrites=true": "coaching",
		"mongodb://localhost:27017":                                        "planboard",
		"mongodb://localhost:27017/":                                       "planboard",
	}
	for uri, want := range tests {
		if got := databaseFromURI(uri); got != want {
			t.Errorf("databaseFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}
