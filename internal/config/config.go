package config

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMongoDB  = "mongodb"
)

// Config is the whole application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Auth     AuthConfig        `yaml:"auth"`
	Storage  StorageConfig     `yaml:"storage"`
	Canvas   CanvasConfig      `yaml:"canvas"`
	Autosave AutosaveConfig    `yaml:"autosave"`
	Save     SaveConfig        `yaml:"save"`
	Labels   LabelsConfig      `yaml:"labels"`
	Catalog  CatalogConfig     `yaml:"catalog"`
	Events   EventsConfig      `yaml:"events"`
	Preview  PreviewConfig     `yaml:"preview"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	sections := []Validator{
		&c.App, &c.Auth, &c.Storage, &c.Canvas, &c.Autosave, &c.Save, &c.Labels, &c.Preview,
	}
	for _, s := range sections {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Address returns the HTTP listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.ShutdownTimeout, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how the API is protected:
//   - "disabled" (default): no bearer token required, for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
//
// Identity itself always comes from the X-User-ID header set by the
// platform gateway.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when bearer authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// StorageConfig selects and addresses the layout store. DSN (or URI for
// MongoDB) wins over the discrete connection fields.
type StorageConfig struct {
	Driver     string        `yaml:"driver"`
	DSN        string        `yaml:"dsn"`
	Path       string        `yaml:"path"`
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Username   string        `yaml:"username"`
	Password   string        `yaml:"password"`
	Database   string        `yaml:"database"`
	SSLMode    string        `yaml:"ssl_mode"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = DriverMemory
	}
	err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(DriverMemory, DriverSQLite, DriverPostgres, DriverMySQL, DriverMongoDB)),
		validation.Field(&c.Path,
			validation.When(c.Driver == DriverSQLite && c.DSN == "", validation.Required)),
		validation.Field(&c.Host,
			validation.When(c.Driver != DriverMemory && c.Driver != DriverSQLite && c.DSN == "", validation.Required)),
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
		validation.Field(&c.SSLMode, validation.In("", "disable", "require", "verify-ca", "verify-full")),
	)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// CanvasConfig tunes card placement, sizing, zoom limits and the timeline
// drop region (screen space).
type CanvasConfig struct {
	MinCardWidth  float64    `yaml:"min_card_width"`
	MinCardHeight float64    `yaml:"min_card_height"`
	SpawnX        float64    `yaml:"spawn_x"`
	SpawnY        float64    `yaml:"spawn_y"`
	Stagger       float64    `yaml:"stagger"`
	StaggerCycle  int        `yaml:"stagger_cycle"`
	MinScale      float64    `yaml:"min_scale"`
	MaxScale      float64    `yaml:"max_scale"`
	ZoomStep      float64    `yaml:"zoom_step"`
	HitTolerance  float64    `yaml:"hit_tolerance"`
	Timeline      RectConfig `yaml:"timeline"`
}

func (c *CanvasConfig) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.MinCardWidth, validation.Required, validation.Min(1.0)),
		validation.Field(&c.MinCardHeight, validation.Required, validation.Min(1.0)),
		validation.Field(&c.Stagger, validation.Min(0.0)),
		validation.Field(&c.StaggerCycle, validation.Required, validation.Min(1)),
		validation.Field(&c.MinScale, validation.Required, validation.Min(0.01)),
		validation.Field(&c.MaxScale, validation.Required, validation.Min(c.MinScale)),
		validation.Field(&c.ZoomStep, validation.Required, validation.Min(1.0001)),
		validation.Field(&c.HitTolerance, validation.Required, validation.Min(0.1)),
	)
	if err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	if c.Timeline.W < 0 || c.Timeline.H < 0 {
		return fmt.Errorf("canvas: timeline size must not be negative")
	}
	return nil
}

// RectConfig is a screen-space rectangle. A zero size disables it.
type RectConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

// AutosaveConfig schedules periodic saves of dirty sessions. Each run also
// evicts sessions idle for EvictIdle; zero keeps them until shutdown.
type AutosaveConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Schedule  string        `yaml:"schedule"`
	EvictIdle time.Duration `yaml:"evict_idle"`
}

func (c *AutosaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Schedule, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.EvictIdle, validation.Min(time.Duration(0))),
	)
}

// SaveConfig controls retries of a failed save.
type SaveConfig struct {
	Attempts uint          `yaml:"attempts"`
	Delay    time.Duration `yaml:"delay"`
	Timeout  time.Duration `yaml:"timeout"`
}

func (c *SaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Attempts, validation.Required, validation.Max(uint(10))),
		validation.Field(&c.Delay, validation.Min(time.Duration(0))),
		validation.Field(&c.Timeout, validation.Required),
	)
}

// LabelsConfig points at the per-locale label tables. An empty Dir serves
// the built-in fallbacks only.
type LabelsConfig struct {
	Dir           string `yaml:"dir"`
	DefaultLocale string `yaml:"default_locale"`
	Watch         bool   `yaml:"watch"`
}

func (c *LabelsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DefaultLocale, validation.Required, validation.In("en", "es", "fr", "de")),
	)
}

// CatalogConfig points at the drill library export. An empty Path disables
// drill lookups.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// EventsConfig tunes the server-sent event stream.
type EventsConfig struct {
	ChangeThrottle time.Duration `yaml:"change_throttle"`
}

// PreviewConfig controls the PNG preview.
type PreviewConfig struct {
	Padding  float64 `yaml:"padding"`
	MaxSide  int     `yaml:"max_side"`
	FontSize float64 `yaml:"font_size"`
}

func (c *PreviewConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxSide, validation.Required, validation.Min(64), validation.Max(8192)),
		validation.Field(&c.FontSize, validation.Required, validation.Min(4.0)),
	)
}

// NewDefaultConfig returns a Config with sensible defaults; a config file
// only needs to override what differs.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port:            8080,
				ShutdownTimeout: 10 * time.Second,
			},
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Storage: StorageConfig{
			Driver:     DriverSQLite,
			Path:       "./data/planboard.db",
			Collection: "layouts",
			Timeout:    10 * time.Second,
		},
		Canvas: CanvasConfig{
			MinCardWidth:  80,
			MinCardHeight: 60,
			SpawnX:        100,
			SpawnY:        100,
			Stagger:       20,
			StaggerCycle:  10,
			MinScale:      0.2,
			MaxScale:      3.0,
			ZoomStep:      1.1,
			HitTolerance:  10,
		},
		Autosave: AutosaveConfig{
			Enabled:   true,
			Schedule:  "@every 30s",
			EvictIdle: 30 * time.Minute,
		},
		Save: SaveConfig{
			Attempts: 3,
			Delay:    200 * time.Millisecond,
			Timeout:  30 * time.Second,
		},
		Labels: LabelsConfig{
			DefaultLocale: "en",
		},
		Events: EventsConfig{
			ChangeThrottle: 250 * time.Millisecond,
		},
		Preview: PreviewConfig{
			Padding:  40,
			MaxSide:  1600,
			FontSize: 13,
		},
	}
}
