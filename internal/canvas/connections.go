package canvas

import (
	"github.com/google/uuid"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// TemporaryConnection is the single in-progress connection whose endpoint
// follows the pointer. It is never persisted.
type TemporaryConnection struct {
	SourceCardID string          `json:"sourceCardId"`
	SourceAnchor geometry.Anchor `json:"sourceAnchor"`
	Endpoint     geometry.Point  `json:"endpoint"`
}

// ConnectionStore owns the completed connections of a board and the
// optional temporary connection.
type ConnectionStore struct {
	opts  Options
	order []string
	byID  map[string]*domain.Connection
	temp  *TemporaryConnection

	sel   *Selection
	cards *CardStore
}

func newConnectionStore(opts Options, sel *Selection, cards *CardStore) *ConnectionStore {
	return &ConnectionStore{
		opts:  opts,
		byID:  make(map[string]*domain.Connection),
		sel:   sel,
		cards: cards,
	}
}

// ── Queries ─────────────────────────────────────────────────

func (s *ConnectionStore) Len() int { return len(s.order) }

func (s *ConnectionStore) Connection(id string) (domain.Connection, bool) {
	c, ok := s.byID[id]
	if !ok {
		return domain.Connection{}, false
	}
	return c.Clone(), true
}

// Connections returns copies of every completed connection in creation
// order.
func (s *ConnectionStore) Connections() []domain.Connection {
	out := make([]domain.Connection, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

func (s *ConnectionStore) Selected() (domain.Connection, bool) {
	return s.Connection(s.sel.ConnectionID())
}

// Temporary returns the in-progress connection, if one is active.
func (s *ConnectionStore) Temporary() (TemporaryConnection, bool) {
	if s.temp == nil {
		return TemporaryConnection{}, false
	}
	return *s.temp, true
}

// ── Temporary connection lifecycle ──────────────────────────

// BeginConnection starts a temporary connection from the given anchor of
// the source card. Any earlier temporary connection is discarded. It
// reports false when the source card or the anchor is invalid.
func (s *ConnectionStore) BeginConnection(sourceCardID string, anchor geometry.Anchor, pointer geometry.Point) bool {
	s.temp = nil
	if _, ok := s.cards.byID[sourceCardID]; !ok || !anchor.Valid() {
		return false
	}
	s.temp = &TemporaryConnection{
		SourceCardID: sourceCardID,
		SourceAnchor: anchor,
		Endpoint:     pointer,
	}
	return true
}

// UpdateTemporaryEndpoint moves the free end of the temporary connection.
func (s *ConnectionStore) UpdateTemporaryEndpoint(pointer geometry.Point) {
	if s.temp == nil {
		return
	}
	s.temp.Endpoint = pointer
}

// CompleteConnection turns the temporary connection into a real one ending
// at the target card's anchor. The temporary state is cleared either way.
// An invalid target (missing card, same card as the source, bad anchor)
// simply cancels the gesture.
func (s *ConnectionStore) CompleteConnection(targetCardID string, anchor geometry.Anchor) (domain.Connection, bool) {
	temp := s.temp
	s.temp = nil
	if temp == nil || targetCardID == temp.SourceCardID || !anchor.Valid() {
		return domain.Connection{}, false
	}
	if _, ok := s.cards.byID[targetCardID]; !ok {
		return domain.Connection{}, false
	}
	if _, ok := s.cards.byID[temp.SourceCardID]; !ok {
		return domain.Connection{}, false
	}
	c := &domain.Connection{
		ID:           uuid.NewString(),
		SourceCardID: temp.SourceCardID,
		SourceAnchor: temp.SourceAnchor,
		TargetCardID: targetCardID,
		TargetAnchor: anchor,
	}
	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
	return c.Clone(), true
}

// CancelConnection drops the temporary connection, if any.
func (s *ConnectionStore) CancelConnection() {
	s.temp = nil
}

// Connect creates a connection directly, without a drag gesture.
func (s *ConnectionStore) Connect(sourceCardID string, sourceAnchor geometry.Anchor, targetCardID string, targetAnchor geometry.Anchor) (domain.Connection, bool) {
	if !s.BeginConnection(sourceCardID, sourceAnchor, geometry.Point{}) {
		return domain.Connection{}, false
	}
	return s.CompleteConnection(targetCardID, targetAnchor)
}

// ── Mutations ───────────────────────────────────────────────

// SelectConnection selects a connection and deselects any card. An empty
// id clears the connection selection; an unknown id changes nothing.
func (s *ConnectionStore) SelectConnection(id string) bool {
	if id == "" {
		if s.sel.ConnectionID() != "" {
			s.sel.Clear()
		}
		return true
	}
	if _, ok := s.byID[id]; !ok {
		return false
	}
	s.sel.setConnection(id)
	return true
}

func (s *ConnectionStore) DeleteConnection(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	s.remove(func(c *domain.Connection) bool { return c.ID == id })
	return true
}

// ClearAllConnections removes every completed connection and returns how
// many there were.
func (s *ConnectionStore) ClearAllConnections() int {
	return s.remove(func(*domain.Connection) bool { return true })
}

// RemoveConnectionsForCard removes every connection with cardID as either
// endpoint.
func (s *ConnectionStore) RemoveConnectionsForCard(cardID string) int {
	if s.temp != nil && s.temp.SourceCardID == cardID {
		s.temp = nil
	}
	return s.remove(func(c *domain.Connection) bool { return c.Touches(cardID) })
}

// SetControlPoints stores manual Bézier handles for a connection. Passing
// nil reverts to the computed curve.
func (s *ConnectionStore) SetControlPoints(id string, cp *domain.ControlPoints) bool {
	c, ok := s.byID[id]
	if !ok {
		return false
	}
	if cp == nil {
		c.ControlPoints = nil
	} else {
		v := *cp
		c.ControlPoints = &v
	}
	return true
}

func (s *ConnectionStore) remove(match func(*domain.Connection) bool) int {
	kept := s.order[:0]
	removed := 0
	for _, id := range s.order {
		c := s.byID[id]
		if match(c) {
			delete(s.byID, id)
			if s.sel.ConnectionID() == id {
				s.sel.Clear()
			}
			removed++
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	return removed
}

// replace swaps in a new connection set, dropping any whose endpoints are
// missing, identical or carry invalid anchors.
func (s *ConnectionStore) replace(conns []domain.Connection) {
	s.order = s.order[:0]
	s.byID = make(map[string]*domain.Connection, len(conns))
	s.temp = nil
	for _, c := range conns {
		if !s.validStored(c) {
			continue
		}
		cc := c.Clone()
		s.byID[cc.ID] = &cc
		s.order = append(s.order, cc.ID)
	}
}

func (s *ConnectionStore) validStored(c domain.Connection) bool {
	if c.ID == "" || c.SourceCardID == c.TargetCardID {
		return false
	}
	if _, dup := s.byID[c.ID]; dup {
		return false
	}
	if !c.SourceAnchor.Valid() || !c.TargetAnchor.Valid() {
		return false
	}
	_, okSrc := s.cards.byID[c.SourceCardID]
	_, okDst := s.cards.byID[c.TargetCardID]
	return okSrc && okDst
}

// ── Geometry ────────────────────────────────────────────────

// CurveFor returns the connector curve between the anchors of source and
// target. Stored control points win over the computed default.
func CurveFor(c domain.Connection, source, target domain.Card) geometry.Curve {
	start := geometry.AnchorPoint(source.Rect(), c.SourceAnchor)
	end := geometry.AnchorPoint(target.Rect(), c.TargetAnchor)
	if c.ControlPoints != nil {
		return geometry.ExplicitCurve(start, c.ControlPoints.C1, c.ControlPoints.C2, end)
	}
	return geometry.ComputeCurve(start, end, c.SourceAnchor, c.TargetAnchor)
}

// Curve returns the canvas-space curve of a stored connection.
func (s *ConnectionStore) Curve(id string) (geometry.Curve, bool) {
	c, ok := s.byID[id]
	if !ok {
		return geometry.Curve{}, false
	}
	src, okSrc := s.cards.byID[c.SourceCardID]
	dst, okDst := s.cards.byID[c.TargetCardID]
	if !okSrc || !okDst {
		return geometry.Curve{}, false
	}
	return CurveFor(*c, *src, *dst), true
}

// TemporaryPath returns the straight path of the in-progress connection.
func (s *ConnectionStore) TemporaryPath() (string, bool) {
	if s.temp == nil {
		return "", false
	}
	src, ok := s.cards.byID[s.temp.SourceCardID]
	if !ok {
		return "", false
	}
	start := geometry.AnchorPoint(src.Rect(), s.temp.SourceAnchor)
	return geometry.ComputeTemporaryPath(start, s.temp.Endpoint), true
}

// HitTest returns the topmost connection whose curve passes within
// tolerance canvas units of p. A non-positive tolerance uses the
// configured default.
func (s *ConnectionStore) HitTest(p geometry.Point, tolerance float64) (string, bool) {
	if tolerance <= 0 {
		tolerance = s.opts.HitTolerance
	}
	for i := len(s.order) - 1; i >= 0; i-- {
		id := s.order[i]
		curve, ok := s.Curve(id)
		if ok && curve.Hit(p, tolerance) {
			return id, true
		}
	}
	return "", false
}
