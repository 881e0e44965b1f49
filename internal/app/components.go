package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"planboard/internal/canvas"
	"planboard/internal/catalog"
	"planboard/internal/config"
	"planboard/internal/domain"
	"planboard/internal/fswatch"
	"planboard/internal/geometry"
	"planboard/internal/labels"
	"planboard/internal/render"
	"planboard/internal/service"
	"planboard/internal/storage"
)

// components is everything both the HTTP server and the MCP server run on.
type components struct {
	cfg      *config.Config
	log      *slog.Logger
	catalog  *catalog.FileCatalog
	labels   *labels.Bundle
	layouts  *service.LayoutService
	sessions *service.SessionManager
	watchers []*fswatch.Watcher
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// CanvasOptions maps the canvas section onto board options.
func CanvasOptions(c config.CanvasConfig) canvas.Options {
	opts := canvas.DefaultOptions()
	opts.MinSize = geometry.Sz(c.MinCardWidth, c.MinCardHeight)
	opts.SpawnOffset = geometry.Pt(c.SpawnX, c.SpawnY)
	opts.Stagger = c.Stagger
	opts.StaggerCycle = c.StaggerCycle
	opts.MinScale = c.MinScale
	opts.MaxScale = c.MaxScale
	opts.ZoomStep = c.ZoomStep
	opts.HitTolerance = c.HitTolerance
	return opts
}

// StorageOptions maps the storage section onto store options.
func StorageOptions(c config.StorageConfig) storage.Options {
	return storage.Options{
		Driver:     storage.Driver(c.Driver),
		DSN:        c.DSN,
		Path:       c.Path,
		Host:       c.Host,
		Port:       c.Port,
		Username:   c.Username,
		Password:   c.Password,
		Database:   c.Database,
		SSLMode:    c.SSLMode,
		Collection: c.Collection,
	}
}

func previewOptions(c config.PreviewConfig) render.Options {
	return render.Options{Padding: c.Padding, MaxSide: c.MaxSide, FontSize: c.FontSize}
}

// build opens storage, the catalog and label tables and creates the
// session manager. emitter receives layout events; nil drops them.
func build(ctx context.Context, a *application, emitter service.EventEmitter) (*components, error) {
	cfg := a.config
	log := a.logger
	c := &components{cfg: cfg, log: log}

	store := a.store
	if store == nil {
		timeout := cfg.Storage.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		openCtx, cancel := context.WithTimeout(ctx, timeout)
		s, err := storage.Open(openCtx, StorageOptions(cfg.Storage), log)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		store = s
	}

	var drills domain.DrillCatalog
	if cfg.Catalog.Path != "" {
		cat, err := catalog.Open(cfg.Catalog.Path, log)
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("init drill catalog: %w", err)
		}
		c.catalog = cat
		drills = cat
		if cfg.Catalog.Watch {
			w, err := cat.Watch()
			if err != nil {
				log.Warn("drill catalog watch failed", slog.String("error", err.Error()))
			} else {
				c.watchers = append(c.watchers, w)
			}
		}
	}

	bundle, err := labels.NewBundle(cfg.Labels.DefaultLocale, log)
	if err != nil {
		c.closeWatchers()
		_ = store.Close(ctx)
		return nil, fmt.Errorf("init labels: %w", err)
	}
	c.labels = bundle
	if dir := cfg.Labels.Dir; dir != "" {
		if err := bundle.LoadDir(dir); err != nil {
			// Every label has an in-code fallback, so keep going.
			log.Warn("labels load failed, using fallbacks", slog.String("dir", dir), slog.String("error", err.Error()))
		} else if cfg.Labels.Watch {
			w, err := bundle.Watch(dir)
			if err != nil {
				log.Warn("labels watch failed", slog.String("error", err.Error()))
			} else {
				c.watchers = append(c.watchers, w)
			}
		}
	}

	canvasOpts := CanvasOptions(cfg.Canvas)
	c.layouts = service.NewLayoutService(store, drills, canvasOpts.MinSize, service.SaveOptions{
		Attempts: cfg.Save.Attempts,
		Delay:    cfg.Save.Delay,
	}, log)

	tl := cfg.Canvas.Timeline
	c.sessions = service.NewSessionManager(c.layouts, emitter, service.ManagerOptions{
		Canvas:         canvasOpts,
		TimelineRegion: geometry.Rect{X: tl.X, Y: tl.Y, W: tl.W, H: tl.H},
		SaveTimeout:    cfg.Save.Timeout,
		IdleTimeout:    cfg.Autosave.EvictIdle,
	}, log)
	return c, nil
}

// drillCatalog returns the catalog as the interface, keeping a nil
// *FileCatalog from turning into a non-nil interface.
func (c *components) drillCatalog() domain.DrillCatalog {
	if c.catalog == nil {
		return nil
	}
	return c.catalog
}

func (c *components) closeWatchers() {
	for _, w := range c.watchers {
		if err := w.Close(); err != nil {
			c.log.Warn("close watcher", slog.String("error", err.Error()))
		}
	}
	c.watchers = nil
}

// close flushes dirty sessions and releases everything build opened.
func (c *components) close(ctx context.Context) error {
	c.closeWatchers()
	err := c.sessions.Close(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Error("flush sessions on shutdown", slog.String("error", err.Error()))
	}
	return err
}
