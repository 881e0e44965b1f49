package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"planboard/internal/canvas"
	"planboard/internal/domain"
	"planboard/internal/geometry"
	"planboard/internal/interaction"
)

type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
)

// Workspace is the live editing state of one session.
type Workspace struct {
	Board   *canvas.Board
	Machine *interaction.Machine
}

// SessionInfo is a point-in-time summary of a session.
type SessionInfo struct {
	UserID        string            `json:"userId"`
	Tier          domain.AccessTier `json:"tier"`
	Status        Status            `json:"status"`
	Revision      uint64            `json:"revision"`
	SavedRevision uint64            `json:"savedRevision"`
	Dirty         bool              `json:"dirty"`
	Saving        bool              `json:"saving"`
	LastSaved     time.Time         `json:"lastSaved,omitzero"`
	LastError     string            `json:"lastError,omitempty"`
	// LoadFailed is set while the stored layout could not be read. Saves
	// are refused until a reload succeeds.
	LoadFailed bool `json:"loadFailed,omitempty"`
}

// Session is one user's canvas. All access to the workspace goes through
// Mutate or Read, which serialize on the session lock.
type Session struct {
	mu       sync.Mutex
	identity domain.Identity
	ws       *Workspace
	status   Status

	revision      uint64
	savedRevision uint64
	lastSaved     time.Time
	lastErr       error
	loadFailed    bool

	saving  bool
	pending bool
	// writing is a one-slot gate held across snapshot and store write, so
	// writes of one session never overlap. Reload holds it too.
	writing chan struct{}

	lastAccess atomic.Int64
	onChange   func(revision uint64)
}

func (s *Session) touch() { s.lastAccess.Store(time.Now().UnixNano()) }

func (s *Session) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastAccess.Load()))
}

func (s *Session) Identity() domain.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Mutate runs fn with exclusive access to the workspace. When fn reports a
// change the revision is bumped and the session becomes dirty.
func (s *Session) Mutate(fn func(ws *Workspace) bool) bool {
	s.touch()
	s.mu.Lock()
	changed := fn(s.ws)
	var rev uint64
	if changed {
		s.revision++
		rev = s.revision
	}
	notify := s.onChange
	s.mu.Unlock()

	if changed && notify != nil {
		notify(rev)
	}
	return changed
}

// Read runs fn with exclusive access to the workspace. fn must not mutate.
func (s *Session) Read(fn func(ws *Workspace)) {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.ws)
}

func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision != s.savedRevision
}

func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	info := SessionInfo{
		UserID:        s.identity.UserID,
		Tier:          s.identity.Tier,
		Status:        s.status,
		Revision:      s.revision,
		SavedRevision: s.savedRevision,
		Dirty:         s.revision != s.savedRevision,
		Saving:        s.saving,
		LastSaved:     s.lastSaved,
		LoadFailed:    s.loadFailed,
	}
	if s.lastErr != nil {
		info.LastError = s.lastErr.Error()
	}
	return info
}

// ─────────────────────────────────────────────────────────────
// SessionManager
// ─────────────────────────────────────────────────────────────

type ManagerOptions struct {
	Canvas canvas.Options
	// TimelineRegion is the screen rect of the timeline strip. A zero rect
	// disables the timeline drop target.
	TimelineRegion geometry.Rect
	SaveTimeout    time.Duration
	// IdleTimeout is how long a session may go untouched before the
	// autosaver evicts it. Zero keeps sessions until Close.
	IdleTimeout time.Duration
}

// SessionManager owns every open session, keyed by user id. Sessions of
// different users share nothing.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	layouts *LayoutService
	emitter EventEmitter
	opts    ManagerOptions
	log     *slog.Logger
	flights flights
}

func NewSessionManager(layouts *LayoutService, emitter EventEmitter, opts ManagerOptions, log *slog.Logger) *SessionManager {
	if emitter == nil {
		emitter = NopEmitter{}
	}
	if log == nil {
		log = slog.Default()
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = 30 * time.Second
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		layouts:  layouts,
		emitter:  emitter,
		opts:     opts,
		log:      log,
	}
}

func (m *SessionManager) newWorkspace() *Workspace {
	board := canvas.NewBoard(m.opts.Canvas)
	var targets []interaction.DropTarget
	if r := m.opts.TimelineRegion; r.W > 0 && r.H > 0 {
		targets = append(targets, interaction.TimelineDropTarget{Rect: r, Timeline: board.Timeline})
	}
	machine := interaction.NewMachine(board, targets...)
	if cat := m.layouts.Catalog(); cat != nil {
		machine.SetCatalog(cat)
	}
	return &Workspace{Board: board, Machine: machine}
}

// Open returns the session for id.UserID, loading it from the store the
// first time. A load failure still yields a usable, empty session together
// with the error; that session refuses saves so the stored layout is never
// overwritten by the empty board. Opening it again retries the load as long
// as nothing was edited in the meantime.
func (m *SessionManager) Open(ctx context.Context, id domain.Identity) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[id.UserID]; ok {
		s.touch()
		m.mu.Unlock()
		s.mu.Lock()
		s.identity.Tier = id.Tier
		retry := s.loadFailed && s.revision == s.savedRevision
		s.mu.Unlock()
		if retry {
			return s, m.reload(ctx, s, true)
		}
		return s, nil
	}
	s := &Session{identity: id, ws: m.newWorkspace(), status: StatusLoading, writing: make(chan struct{}, 1)}
	s.touch()
	s.onChange = func(rev uint64) {
		m.emitter.Emit(context.Background(), EventLayoutChanged, LayoutEvent{UserID: id.UserID, Revision: rev})
	}
	// Hold the session lock across the load so callers that find the
	// session in the map block until it is ready.
	s.mu.Lock()
	m.sessions[id.UserID] = s
	m.mu.Unlock()

	s.loadFailed = true
	err := m.loadLocked(ctx, s)
	s.status = StatusReady
	s.mu.Unlock()
	return s, err
}

// loadLocked replaces the session board with the stored layout. On error
// the board is left as it is. s.mu must be held.
func (m *SessionManager) loadLocked(ctx context.Context, s *Session) error {
	userID := s.identity.UserID
	l, rep, err := m.layouts.Load(ctx, userID)
	if err != nil {
		s.lastErr = err
		m.emitter.Emit(ctx, EventLayoutLoadFailed, LayoutEvent{UserID: userID, Revision: s.revision, Error: err.Error()})
		return err
	}
	s.ws.Board.Restore(l)
	s.ws.Machine.Cancel()
	s.savedRevision = s.revision
	s.loadFailed = false
	s.lastErr = nil
	ev := LayoutEvent{UserID: userID, Revision: s.revision, LastUpdated: l.LastUpdated}
	if !rep.Clean() {
		ev.Hydrate = &rep
	}
	m.emitter.Emit(ctx, EventLayoutLoaded, ev)
	return nil
}

// reload waits for any write of s to finish and loads the stored layout.
// With onlyIfFailed it gives up unless the session is still failed and
// unedited.
func (m *SessionManager) reload(ctx context.Context, s *Session, onlyIfFailed bool) error {
	select {
	case s.writing <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.writing }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if onlyIfFailed && (!s.loadFailed || s.revision != s.savedRevision) {
		return nil
	}
	return m.loadLocked(ctx, s)
}

// Get returns an already-open session.
func (m *SessionManager) Get(userID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if ok {
		s.touch()
	}
	return s, ok
}

// Sessions returns every open session ordered by user id.
func (m *SessionManager) Sessions() []*Session {
	m.mu.Lock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].identity.UserID < out[j].identity.UserID })
	return out
}

// Reload discards in-memory state and reloads the stored layout. If the
// store cannot be read the current board is kept.
func (m *SessionManager) Reload(ctx context.Context, userID string) error {
	s, ok := m.Get(userID)
	if !ok {
		return domain.ErrNotFound
	}
	return m.reload(ctx, s, false)
}

// Save writes the session's current state and waits for the result. It
// queues behind a write already in flight for the same user. On failure
// the in-memory state is kept and the session stays dirty.
func (m *SessionManager) Save(ctx context.Context, userID string) error {
	s, ok := m.Get(userID)
	if !ok {
		return domain.ErrNotFound
	}
	return m.save(ctx, s)
}

// save is the only path to the store. The snapshot is taken once the gate
// is held, so the last write to finish always carries the newest state.
func (m *SessionManager) save(ctx context.Context, s *Session) error {
	select {
	case s.writing <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.writing }()

	s.mu.Lock()
	userID := s.identity.UserID
	if s.loadFailed {
		rev := s.revision
		s.mu.Unlock()
		m.emitter.Emit(ctx, EventLayoutSaveFailed, LayoutEvent{UserID: userID, Revision: rev, Error: domain.ErrLayoutNotLoaded.Error()})
		return domain.ErrLayoutNotLoaded
	}
	snap := s.ws.Board.Snapshot()
	rev := s.revision
	s.mu.Unlock()

	written, err := m.layouts.Save(ctx, userID, snap)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
	} else {
		s.lastErr = nil
		s.lastSaved = written.LastUpdated
		if rev > s.savedRevision {
			s.savedRevision = rev
		}
	}
	s.mu.Unlock()

	if err != nil {
		m.emitter.Emit(ctx, EventLayoutSaveFailed, LayoutEvent{UserID: userID, Revision: rev, Error: err.Error()})
		return err
	}
	m.emitter.Emit(ctx, EventLayoutSaved, LayoutEvent{UserID: userID, Revision: rev, LastUpdated: written.LastUpdated})
	return nil
}

// SaveAsync starts a save in the background and returns at once. Results
// arrive as layout:saved / layout:save-failed events. If a save for the
// same user is already running, one more save is queued behind it so the
// newest state is the last one written.
func (m *SessionManager) SaveAsync(userID string) error {
	s, ok := m.Get(userID)
	if !ok {
		return domain.ErrNotFound
	}
	s.mu.Lock()
	if s.loadFailed {
		s.mu.Unlock()
		return domain.ErrLayoutNotLoaded
	}
	if s.saving {
		s.pending = true
		s.mu.Unlock()
		return nil
	}
	s.saving = true
	s.mu.Unlock()

	m.flights.Go(func() {
		for {
			ctx, cancel := context.WithTimeout(context.Background(), m.opts.SaveTimeout)
			_ = m.save(ctx, s)
			cancel()

			s.mu.Lock()
			if !s.pending {
				s.saving = false
				s.mu.Unlock()
				return
			}
			s.pending = false
			s.mu.Unlock()
		}
	})
	return nil
}

// SaveDirty synchronously saves every session with unsaved changes and
// returns how many were written.
func (m *SessionManager) SaveDirty(ctx context.Context) (int, error) {
	var (
		saved int
		errs  []error
	)
	for _, s := range m.Sessions() {
		s.mu.Lock()
		skip := s.revision == s.savedRevision || s.loadFailed
		s.mu.Unlock()
		if skip {
			continue
		}
		if err := m.save(ctx, s); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errors.Join(errs...)
}

// EvictIdle drops sessions untouched for at least idle. A session is kept
// while it is in use, saving, or holding edits that are not stored yet;
// flush with SaveDirty first. Edits on a session whose load failed can
// never be stored and do not keep it. It returns the evicted user ids.
func (m *SessionManager) EvictIdle(idle time.Duration) []string {
	now := time.Now()
	var evicted []string

	m.mu.Lock()
	for userID, s := range m.sessions {
		if s.idleFor(now) < idle || !s.mu.TryLock() {
			continue
		}
		unsaved := s.revision != s.savedRevision
		keep := s.saving || len(s.writing) > 0 || (unsaved && !s.loadFailed)
		s.mu.Unlock()
		if keep {
			continue
		}
		if unsaved {
			m.log.Warn("evicting session with edits that were never stored", "user_id", userID)
		}
		delete(m.sessions, userID)
		evicted = append(evicted, userID)
	}
	m.mu.Unlock()

	sort.Strings(evicted)
	return evicted
}

// Close waits for background saves, flushes dirty sessions and closes the
// layout store.
func (m *SessionManager) Close(ctx context.Context) error {
	if err := m.flights.Wait(ctx); err != nil {
		m.log.Warn("background saves still running at close", "error", err)
	}
	_, saveErr := m.SaveDirty(ctx)
	return errors.Join(saveErr, m.layouts.Close(ctx))
}
