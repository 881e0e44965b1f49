package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

const autosaveJobID = "autosave"

// Autosaver periodically flushes dirty sessions on a cron schedule. A run
// that is still going when the next tick fires makes that tick a no-op.
type Autosaver struct {
	sessions *SessionManager
	cron     *cron.Cron
	flights  flights
	log      *slog.Logger
}

// NewAutosaver schedules autosave runs with a robfig/cron spec such as
// "@every 30s" or "*/5 * * * *".
func NewAutosaver(sessions *SessionManager, spec string, log *slog.Logger) (*Autosaver, error) {
	if log == nil {
		log = slog.Default()
	}
	a := &Autosaver{sessions: sessions, cron: cron.New(), log: log}
	if _, err := a.cron.AddFunc(spec, func() { a.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("schedule autosave %q: %w", spec, err)
	}
	return a, nil
}

// RunOnce saves every dirty session now. It returns -1 if another run is
// in progress.
func (a *Autosaver) RunOnce(ctx context.Context) int {
	if !a.flights.Acquire(autosaveJobID) {
		a.log.Debug("autosave already running, skipping tick")
		return -1
	}
	defer a.flights.Release(autosaveJobID)

	n, err := a.sessions.SaveDirty(ctx)
	if err != nil {
		a.log.Warn("autosave finished with errors", "saved", n, "error", err)
	} else if n > 0 {
		a.log.Info("autosave", "saved", n)
	}
	if idle := a.sessions.opts.IdleTimeout; idle > 0 {
		if evicted := a.sessions.EvictIdle(idle); len(evicted) > 0 {
			a.log.Info("evicted idle sessions", "count", len(evicted))
		}
	}
	return n
}

func (a *Autosaver) Start() { a.cron.Start() }

// Stop halts the schedule and waits for a running save, or for ctx.
func (a *Autosaver) Stop(ctx context.Context) {
	stopped := a.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
	if err := a.flights.Wait(ctx); err != nil {
		a.log.Warn("autosave still running at shutdown", "error", err)
	}
}
