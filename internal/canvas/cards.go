package canvas

import (
	"fmt"

	"github.com/google/uuid"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// CardStore owns the cards on a board. Operations on ids that are not in
// the store are no-ops and report false.
type CardStore struct {
	opts  Options
	order []string
	byID  map[string]*domain.Card
	added int

	sel   *Selection
	vp    *Viewport
	conns *ConnectionStore
}

func newCardStore(opts Options, sel *Selection, vp *Viewport) *CardStore {
	return &CardStore{
		opts: opts,
		byID: make(map[string]*domain.Card),
		sel:  sel,
		vp:   vp,
	}
}

// ── Queries ─────────────────────────────────────────────────

func (s *CardStore) Len() int { return len(s.order) }

// Card returns a copy of the card with the given id.
func (s *CardStore) Card(id string) (domain.Card, bool) {
	c, ok := s.byID[id]
	if !ok {
		return domain.Card{}, false
	}
	return cloneCard(*c), true
}

// Cards returns copies of every card in creation order.
func (s *CardStore) Cards() []domain.Card {
	out := make([]domain.Card, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneCard(*s.byID[id]))
	}
	return out
}

// RenderOrder is creation order with the selected card moved to the end so
// it draws above the others.
func (s *CardStore) RenderOrder() []domain.Card {
	out := make([]domain.Card, 0, len(s.order))
	var selected *domain.Card
	for _, id := range s.order {
		c := s.byID[id]
		if id == s.sel.CardID() {
			selected = c
			continue
		}
		out = append(out, cloneCard(*c))
	}
	if selected != nil {
		out = append(out, cloneCard(*selected))
	}
	return out
}

// Selected returns the selected card, if any.
func (s *CardStore) Selected() (domain.Card, bool) {
	return s.Card(s.sel.CardID())
}

// TopmostAt returns the id of the topmost card whose rect contains the
// canvas point p.
func (s *CardStore) TopmostAt(p geometry.Point) (string, bool) {
	order := s.RenderOrder()
	for i := len(order) - 1; i >= 0; i-- {
		if order[i].Rect().Contains(p) {
			return order[i].ID, true
		}
	}
	return "", false
}

// ── Mutations ───────────────────────────────────────────────

// AddCard creates a card near the visible center of the viewport. Each
// successive add is staggered so new cards don't land exactly on top of
// each other; the stagger wraps after StaggerCycle adds. The new card is
// selected.
func (s *CardStore) AddCard(kind domain.CardKind, content *domain.CardContent) (domain.Card, error) {
	step := float64(s.added % s.opts.StaggerCycle)
	pos := s.vp.VisibleCenter().
		Add(s.opts.SpawnOffset).
		Add(geometry.Pt(step*s.opts.Stagger, step*s.opts.Stagger))

	card, err := s.insert(kind, content, pos)
	if err != nil {
		return domain.Card{}, err
	}
	s.added++
	return card, nil
}

// AddCardAt creates a card with its top-left corner at an explicit canvas
// point, as when a drill is dropped in from the catalog.
func (s *CardStore) AddCardAt(kind domain.CardKind, content *domain.CardContent, pos geometry.Point) (domain.Card, error) {
	return s.insert(kind, content, pos)
}

func (s *CardStore) insert(kind domain.CardKind, content *domain.CardContent, pos geometry.Point) (domain.Card, error) {
	if !kind.Valid() {
		return domain.Card{}, fmt.Errorf("add card %q: %w", kind, domain.ErrInvalidKind)
	}
	c := &domain.Card{
		ID:       uuid.NewString(),
		Kind:     kind,
		Position: pos,
		Size:     s.opts.SizeFor(kind),
	}
	if content != nil {
		c.Content = content.Clone()
	}
	s.byID[c.ID] = c
	s.order = append(s.order, c.ID)
	s.sel.setCard(c.ID)
	return cloneCard(*c), nil
}

// MoveCard sets a card's canvas-space position. The canvas is unbounded so
// no clamping happens.
func (s *CardStore) MoveCard(id string, pos geometry.Point) bool {
	c, ok := s.byID[id]
	if !ok {
		return false
	}
	c.Position = pos
	return true
}

// ResizeCard sets a card's size, clamped to the configured minimum.
func (s *CardStore) ResizeCard(id string, size geometry.Size) bool {
	c, ok := s.byID[id]
	if !ok {
		return false
	}
	c.Size = size.AtLeast(s.opts.MinSize)
	return true
}

// UpdateCardContent merges patch into the card's content.
func (s *CardStore) UpdateCardContent(id string, patch domain.ContentPatch) bool {
	c, ok := s.byID[id]
	if !ok {
		return false
	}
	patch.Apply(&c.Content)
	return true
}

// RemoveCard deletes a card together with every connection that touches it.
func (s *CardStore) RemoveCard(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.sel.CardID() == id {
		s.sel.Clear()
	}
	if s.conns != nil {
		s.conns.RemoveConnectionsForCard(id)
	}
	return true
}

// SelectCard selects a card and deselects any connection. An empty id
// clears the card selection; an unknown id changes nothing.
func (s *CardStore) SelectCard(id string) bool {
	if id == "" {
		if s.sel.CardID() != "" {
			s.sel.Clear()
		}
		return true
	}
	if _, ok := s.byID[id]; !ok {
		return false
	}
	s.sel.setCard(id)
	return true
}

// replace swaps in a new card set wholesale. Used by Board.Restore.
func (s *CardStore) replace(cards []domain.Card) {
	s.order = s.order[:0]
	s.byID = make(map[string]*domain.Card, len(cards))
	s.added = 0
	for _, c := range cards {
		if _, dup := s.byID[c.ID]; dup || c.ID == "" {
			continue
		}
		cc := cloneCard(c)
		cc.Size = cc.Size.AtLeast(s.opts.MinSize)
		s.byID[cc.ID] = &cc
		s.order = append(s.order, cc.ID)
	}
}

func cloneCard(c domain.Card) domain.Card {
	c.Content = c.Content.Clone()
	return c
}
