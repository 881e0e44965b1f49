package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: AuthModeToken}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestStorageConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     StorageConfig
		wantErr bool
	}{
		{"empty driver is memory", StorageConfig{}, false},
		{"sqlite needs a path", StorageConfig{Driver: DriverSQLite}, true},
		{"sqlite with path", StorageConfig{Driver: DriverSQLite, Path: "x.db"}, false},
		{"postgres with dsn", StorageConfig{Driver: DriverPostgres, DSN: "postgres://u@h/db"}, false},
		{"postgres needs host", StorageConfig{Driver: DriverPostgres}, true},
		{"mongodb with host", StorageConfig{Driver: DriverMongoDB, Host: "localhost"}, false},
		{"unknown driver", StorageConfig{Driver: "redis"}, true},
		{"bad ssl mode", StorageConfig{Driver: DriverMySQL, Host: "h", SSLMode: "maybe"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCanvasConfig_MaxScaleBelowMin(t *testing.T) {
	cfg := NewDefaultConfig().Canvas
	cfg.MinScale = 1
	cfg.MaxScale = 0.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("max scale below min scale should fail")
	}
}

func TestAutosaveConfig_EvictIdle(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := Parse([]byte("autosave:\n  evict_idle: 5m\n"), cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Autosave.EvictIdle != 5*time.Minute {
		t.Errorf("evict_idle = %v", cfg.Autosave.EvictIdle)
	}
	cfg.Autosave.EvictIdle = -time.Second
	if err := cfg.Autosave.Validate(); err == nil {
		t.Error("negative evict_idle should fail")
	}
}

func TestParse_OverridesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("PLANBOARD_TEST_DSN", "file:test.db")
	doc := `
app:
  log_level: debug
  http:
    port: 9090
storage:
  driver: sqlite
  dsn: ${PLANBOARD_TEST_DSN}
canvas:
  stagger: 30
  timeline: {x: 0, y: 600, w: 1200, h: 120}
save:
  delay: 1s
`
	cfg := NewDefaultConfig()
	if err := Parse([]byte(doc), cfg); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug {
		t.Errorf("log level = %v, want debug", cfg.App.LogLevel)
	}
	if cfg.App.HTTP.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.App.HTTP.Port)
	}
	if cfg.Storage.DSN != "file:test.db" {
		t.Errorf("dsn = %q, want expanded env value", cfg.Storage.DSN)
	}
	if cfg.Canvas.Stagger != 30 || cfg.Canvas.MinCardWidth != 80 {
		t.Errorf("canvas = %+v, want stagger override with default min size", cfg.Canvas)
	}
	if cfg.Canvas.Timeline.H != 120 {
		t.Errorf("timeline = %+v", cfg.Canvas.Timeline)
	}
	if cfg.Save.Delay != time.Second {
		t.Errorf("save delay = %v, want 1s", cfg.Save.Delay)
	}
}

func TestParse_ValidationError(t *testing.T) {
	cfg := NewDefaultConfig()
	err := Parse([]byte("app:\n  http:\n    port: 70000\n"), cfg)
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadOptional_MissingFileKeepsDefaults(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), cfg); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if cfg.App.HTTP.Port != 8080 {
		t.Errorf("port = %d, want default", cfg.App.HTTP.Port)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  mode: token\n  token: s3cret\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := NewDefaultConfig()
	if err := Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Auth.AuthEnabled() || cfg.Auth.Token != "s3cret" {
		t.Errorf("auth = %+v", cfg.Auth)
	}
}
