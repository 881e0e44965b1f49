package mcpserver

import (
	"testing"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

func card(x, y, w, h float64) domain.Card {
	return domain.Card{Position: geometry.Pt(x, y), Size: geometry.Sz(w, h)}
}

func TestNextPosition_EmptyCanvas(t *testing.T) {
	le := NewLayoutEngine()
	if p := le.NextPosition(nil, geometry.Sz(200, 150)); p != (geometry.Point{}) {
		t.Errorf("expected origin for empty canvas, got %+v", p)
	}
}

func TestNextPosition_ClearsExistingCards(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Card{
		card(0, 0, 200, 150),
		card(260, 0, 240, 160),
	}
	size := geometry.Sz(200, 150)
	p := le.NextPosition(existing, size)

	r := geometry.RectOf(p, size)
	for _, c := range existing {
		if r.Intersects(c.Rect().Inset(-Padding)) {
			t.Errorf("position %+v overlaps card at %+v", p, c.Position)
		}
	}
	if p.Y != 0 {
		t.Errorf("expected a spot on the first row, got %+v", p)
	}
}

func TestNextPosition_FallsBelowWhenRowIsFull(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Card{card(0, 0, MaxRowW, 100)}
	p := le.NextPosition(existing, geometry.Sz(200, 150))
	if p.X != 0 || p.Y < 100+Padding {
		t.Errorf("expected a spot below the full row, got %+v", p)
	}
}

func TestArrangeRow_NoOverlaps(t *testing.T) {
	le := NewLayoutEngine()
	cards := make([]domain.Card, 8)
	for i := range cards {
		cards[i] = card(0, 0, 300, 200)
	}
	positions := le.ArrangeRow(cards, geometry.Point{})

	for i := range positions {
		a := geometry.RectOf(positions[i], cards[i].Size)
		if a.X+a.W > MaxRowW {
			t.Errorf("card %d overflows the row: %+v", i, a)
		}
		for j := i + 1; j < len(positions); j++ {
			b := geometry.RectOf(positions[j], cards[j].Size)
			if a.Intersects(b) {
				t.Errorf("cards %d and %d overlap: %+v and %+v", i, j, a, b)
			}
		}
	}
}

func TestSnap(t *testing.T) {
	le := NewLayoutEngine()
	tests := []struct {
		input, want float64
	}{
		{0, 0},
		{9, 0},
		{11, 20},
		{20, 20},
		{35, 40},
		{100, 100},
	}
	for _, tt := range tests {
		if got := le.snap(tt.input); got != tt.want {
			t.Errorf("snap(%.0f) = %.0f, want %.0f", tt.input, got, tt.want)
		}
	}
}
