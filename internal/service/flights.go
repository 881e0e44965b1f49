package service

import (
	"context"
	"sync"
)

// ExportedFlights lets _test packages drive the background-work tracker.
type ExportedFlights = flights

// ─────────────────────────────────────────────────────────────
// flights: background saves and exclusive runs
// ─────────────────────────────────────────────────────────────

// flights tracks goroutines started for persistence so shutdown can wait
// for them, and hands out exclusive keys so a scheduled job never overlaps
// itself.
type flights struct {
	mu   sync.Mutex
	busy map[string]struct{}
	wg   sync.WaitGroup
}

// Acquire claims key. False means a holder is still in flight.
func (f *flights) Acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy == nil {
		f.busy = make(map[string]struct{})
	}
	if _, ok := f.busy[key]; ok {
		return false
	}
	f.busy[key] = struct{}{}
	f.wg.Add(1)
	return true
}

// Release gives key back after a successful Acquire.
func (f *flights) Release(key string) {
	f.mu.Lock()
	delete(f.busy, key)
	f.mu.Unlock()
	f.wg.Done()
}

// Busy reports whether key is currently held.
func (f *flights) Busy(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.busy[key]
	return ok
}

// Go runs fn in a goroutine that Wait accounts for.
func (f *flights) Go(fn func()) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		fn()
	}()
}

// Wait blocks until every flight has landed. It returns ctx.Err() if ctx
// ends first; the flights keep running.
func (f *flights) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
