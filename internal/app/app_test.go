package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"planboard/internal/config"
	"planboard/internal/geometry"
	"planboard/internal/service"
	"planboard/internal/storage"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Storage.Driver = config.DriverMemory
	cfg.Autosave.Enabled = false
	cfg.Canvas.Timeline = config.RectConfig{X: 0, Y: 500, W: 800, H: 100}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCanvasOptions_FromConfig(t *testing.T) {
	cfg := config.NewDefaultConfig().Canvas
	cfg.MinCardWidth, cfg.MinCardHeight = 100, 70
	cfg.Stagger = 25
	opts := CanvasOptions(cfg)
	if opts.MinSize != geometry.Sz(100, 70) {
		t.Errorf("min size = %+v", opts.MinSize)
	}
	if opts.Stagger != 25 || opts.SpawnOffset != geometry.Pt(100, 100) {
		t.Errorf("stagger = %v, spawn = %+v", opts.Stagger, opts.SpawnOffset)
	}
	if opts.MinScale != 0.2 || opts.MaxScale != 3.0 {
		t.Errorf("scale range = [%v, %v]", opts.MinScale, opts.MaxScale)
	}
}

func TestBuild_WiresCatalogLabelsAndTimeline(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "drills.yaml")
	if err := os.WriteFile(catalogPath, []byte("drills:\n  - id: rondo\n    title: Rondo\n    durationMinutes: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	labelsDir := filepath.Join(dir, "labels")
	if err := os.MkdirAll(labelsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(labelsDir, "es.yaml"), []byte("canvas.toolbar.note: Añadir nota\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(t)
	cfg.Catalog.Path = catalogPath
	cfg.Labels.Dir = labelsDir

	store := storage.NewMemoryLayoutStore()
	a := newApplication([]Option{WithConfig(cfg), WithLogger(discardLogger()), WithLayoutStore(store)})
	comps, err := build(context.Background(), a, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(func() { _ = comps.close(context.Background()) })

	srv := httptest.NewServer(newRouter(comps, nil))
	defer srv.Close()

	get := func(path string, header map[string]string) *http.Response {
		t.Helper()
		req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		for k, v := range header {
			req.Header.Set(k, v)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	resp := get("/health/live", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health: status = %d", resp.StatusCode)
	}

	resp = get("/api/toolbar", map[string]string{"X-User-ID": "coach-1", "Accept-Language": "es-ES"})
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("toolbar: status = %d, body = %s", resp.StatusCode, body)
	}
	if !strings.Contains(string(body), "Añadir nota") {
		t.Errorf("toolbar should use the es table: %s", body)
	}

	resp = get("/api/drills", map[string]string{"X-User-ID": "coach-1"})
	var drills struct {
		Drills []map[string]any `json:"drills"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&drills)
	resp.Body.Close()
	if len(drills.Drills) != 1 {
		t.Errorf("drills = %v, want the catalog entry", drills.Drills)
	}

	s, ok := comps.sessions.Get("coach-1")
	if !ok {
		t.Fatal("session should be open after an API call")
	}
	var zones int
	s.Read(func(ws *service.Workspace) { zones = len(ws.Machine.DropTargets()) })
	if zones != 1 {
		t.Errorf("drop targets = %d, want the configured timeline", zones)
	}
}

func TestBuild_BadCatalogFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing.yaml")
	a := newApplication([]Option{WithConfig(cfg), WithLogger(discardLogger())})
	if _, err := build(context.Background(), a, nil); err == nil {
		t.Fatal("expected error for a missing catalog file")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
