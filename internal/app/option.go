package app

import (
	"log/slog"

	"planboard/internal/config"
	"planboard/internal/domain"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *config.Config
	logger *slog.Logger
	store  domain.LayoutStore
}

// WithConfig sets the application configuration.
func WithConfig(cfg *config.Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithLogger replaces the JSON stdout logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(a *application) {
		a.logger = l
	}
}

// WithLayoutStore bypasses the configured storage driver.
func WithLayoutStore(s domain.LayoutStore) Option {
	return func(a *application) {
		a.store = s
	}
}

func newApplication(opts []Option) *application {
	a := &application{}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
