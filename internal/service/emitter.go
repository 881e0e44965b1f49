package service

import (
	"context"
	"sync"
	"time"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from the delivery channel
// ─────────────────────────────────────────────────────────────

// EventEmitter pushes events to connected clients. The SSE broker
// implements it for the HTTP surface; tests use MockEmitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

const (
	EventLayoutLoaded     = "layout:loaded"
	EventLayoutLoadFailed = "layout:load-failed"
	EventLayoutSaved      = "layout:saved"
	EventLayoutSaveFailed = "layout:save-failed"
	EventLayoutChanged    = "layout:changed"
)

// LayoutEvent is the payload of every layout:* event.
type LayoutEvent struct {
	UserID      string         `json:"userId"`
	Revision    uint64         `json:"revision"`
	LastUpdated time.Time      `json:"lastUpdated,omitzero"`
	Error       string         `json:"error,omitempty"`
	Hydrate     *HydrateReport `json:"hydrate,omitempty"`
}

// Owner lets user-scoped transports route the event.
func (e LayoutEvent) Owner() string { return e.UserID }

// NopEmitter drops every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Named returns the recorded emissions of one event type.
func (m *MockEmitter) Named(event string) []EmittedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []EmittedEvent
	for _, e := range m.Events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}
