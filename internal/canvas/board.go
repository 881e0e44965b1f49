package canvas

import (
	"planboard/internal/domain"
)

// Board is one user's canvas: cards, connections, viewport and timeline,
// sharing a single selection.
type Board struct {
	Cards       *CardStore
	Connections *ConnectionStore
	Viewport    *Viewport
	Timeline    *Timeline

	opts Options
	sel  *Selection
}

// NewBoard returns an empty board. Zero-valued option fields fall back to
// DefaultOptions.
func NewBoard(opts Options) *Board {
	opts = opts.normalize()
	sel := &Selection{}
	vp := newViewport(opts)
	cards := newCardStore(opts, sel, vp)
	conns := newConnectionStore(opts, sel, cards)
	cards.conns = conns
	return &Board{
		Cards:       cards,
		Connections: conns,
		Viewport:    vp,
		Timeline:    newTimeline(),
		opts:        opts,
		sel:         sel,
	}
}

func (b *Board) Options() Options      { return b.opts }
func (b *Board) Selection() *Selection { return b.sel }

// DeleteSelected removes the selected card (with its connections) or the
// selected connection.
func (b *Board) DeleteSelected() bool {
	if id := b.sel.CardID(); id != "" {
		return b.Cards.RemoveCard(id)
	}
	if id := b.sel.ConnectionID(); id != "" {
		return b.Connections.DeleteConnection(id)
	}
	return false
}

// Snapshot captures the board as a persistable layout. LastUpdated is left
// for the persistence layer to stamp.
func (b *Board) Snapshot() *domain.Layout {
	vp := b.Viewport.State()
	return &domain.Layout{
		Cards:       b.Cards.Cards(),
		Connections: b.Connections.Connections(),
		Viewport:    &vp,
		Timeline:    b.Timeline.Entries(),
	}
}

// Restore replaces the whole board with l. Selection, the temporary
// connection and the add stagger are reset, and the viewport is reset
// unless l carries one. Connections that reference missing cards are
// dropped. A nil layout empties the board.
func (b *Board) Restore(l *domain.Layout) {
	if l == nil {
		l = domain.EmptyLayout()
	}
	b.sel.Clear()
	b.Cards.replace(l.Cards)
	b.Connections.replace(l.Connections)
	b.Timeline.replace(l.Timeline)
	if l.Viewport != nil {
		b.Viewport.Set(*l.Viewport)
	} else {
		b.Viewport.Reset()
	}
}
