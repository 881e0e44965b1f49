// Package sse implements a Server-Sent Events broker that fans layout events
// out to the browser tabs of the user they belong to.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"planboard/internal/service"
)

// Event represents an SSE event to deliver. An empty UserID reaches every
// client.
type Event struct {
	Type   string `json:"type"`
	UserID string `json:"-"`
	Data   any    `json:"data"`
}

type owned interface{ Owner() string }

type client struct {
	userID string
	ch     chan []byte
}

type subscribeReq struct {
	c    *client
	done chan struct{}
}

// Broker manages SSE client connections and routes events by user.
//
// A single event loop goroutine owns the client set and the throttle state.
// Public methods talk to it through channels.
//
// layout:changed fires on every pointer move while dragging, so it is
// throttled per user: the first change in a window goes out immediately,
// later ones collapse into a single trailing event at the end of the window.
type Broker struct {
	changeMin time.Duration
	log       *slog.Logger

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

var _ service.EventEmitter = (*Broker)(nil)

// NewBroker creates a broker with the given layout:changed throttle window.
func NewBroker(changeThrottle time.Duration, log *slog.Logger) *Broker {
	if changeThrottle <= 0 {
		changeThrottle = 250 * time.Millisecond
	}
	if log == nil {
		log = slog.Default()
	}
	b := &Broker{
		changeMin:     changeThrottle,
		log:           log,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]*client)
	lastChange := make(map[string]time.Time)
	pending := make(map[string]Event)

	ticker := time.NewTicker(b.changeMin)
	defer ticker.Stop()

	deliver := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			b.log.Warn("sse: marshal event", "type", event.Type, "error", err)
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
		for ch, c := range clients {
			if event.UserID != "" && c.userID != event.UserID {
				continue
			}
			select {
			case ch <- raw:
			default:
				// slow client, drop rather than stall the loop
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.c.ch] = req.c
			close(req.done)

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			if event.Type != service.EventLayoutChanged {
				deliver(event)
				continue
			}
			now := time.Now()
			if now.Sub(lastChange[event.UserID]) >= b.changeMin {
				lastChange[event.UserID] = now
				delete(pending, event.UserID)
				deliver(event)
			} else {
				pending[event.UserID] = event
			}

		case now := <-ticker.C:
			for user, event := range pending {
				if now.Sub(lastChange[user]) < b.changeMin {
					continue
				}
				lastChange[user] = now
				delete(pending, user)
				deliver(event)
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client for userID's events. An empty userID
// receives only unowned events.
func (b *Broker) Subscribe(userID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	req := subscribeReq{c: &client{userID: userID, ch: ch}, done: make(chan struct{})}
	select {
	case b.subscribeCh <- req:
		<-req.done
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish queues an event for delivery.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// Emit implements service.EventEmitter. Payloads that name an owner are
// delivered to that user only.
func (b *Broker) Emit(_ context.Context, event string, data any) {
	e := Event{Type: event, Data: data}
	if o, ok := data.(owned); ok {
		e.UserID = o.Owner()
	}
	b.Publish(e)
}

// Stream serves the event stream of userID until the request ends or the
// broker closes.
func (b *Broker) Stream(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(userID)
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
