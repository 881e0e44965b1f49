// Package app wires configuration, storage, sessions and the HTTP and MCP
// surfaces together and runs them.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"planboard/internal/api"
	"planboard/internal/service"
	"planboard/internal/sse"
)

// Run starts the HTTP server, the event broker and autosave, and blocks
// until ctx is cancelled or a shutdown signal arrives. Dirty sessions are
// flushed before it returns.
func Run(ctx context.Context, opts ...Option) error {
	a := newApplication(opts)
	if a.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := a.config

	if a.logger == nil {
		a.logger = newLogger(os.Stdout, cfg.App.LogLevel)
		slog.SetDefault(a.logger)
	}
	logger := a.logger

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("autosave", cfg.Autosave.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.Events.ChangeThrottle, logger)
	defer broker.Close()

	comps, err := build(ctx, a, broker)
	if err != nil {
		return err
	}

	var autosaver *service.Autosaver
	if cfg.Autosave.Enabled {
		autosaver, err = service.NewAutosaver(comps.sessions, cfg.Autosave.Schedule, logger)
		if err != nil {
			_ = comps.close(ctx)
			return fmt.Errorf("init autosave: %w", err)
		}
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           newRouter(comps, broker),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if autosaver != nil {
		g.Go(func() error {
			autosaver.Start()
			logger.Info("Autosave scheduled", slog.String("schedule", cfg.Autosave.Schedule))
			<-gCtx.Done()
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.HTTP.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		if autosaver != nil {
			autosaver.Stop(shutdownCtx)
		}
		if err := comps.close(shutdownCtx); err != nil {
			logger.Error("Layout flush failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// newRouter mounts health checks and the API under /api.
func newRouter(c *components, events api.Streamer) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(api.Deps{
		Sessions:    c.sessions,
		Labels:      c.labels,
		Catalog:     c.drillCatalog(),
		Events:      events,
		Preview:     previewOptions(c.cfg.Preview),
		AuthEnabled: c.cfg.Auth.AuthEnabled(),
		AuthToken:   c.cfg.Auth.Token,
	}))
	return r
}
