package mcpserver

import (
	"math"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

const (
	GridSize = 20.0
	Padding  = 40.0 // 2 grid cells between cards
	MaxRowW  = 1600.0
)

// LayoutEngine places agent-created cards on free grid spots so they don't
// land on top of what the coach already laid out.
type LayoutEngine struct {
	gridSize float64
	padding  float64
	maxRowW  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
		maxRowW:  MaxRowW,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// NextPosition finds the first grid position, scanning rows top to bottom,
// where a card of the given size clears every existing card by the padding.
func (le *LayoutEngine) NextPosition(existing []domain.Card, size geometry.Size) geometry.Point {
	if len(existing) == 0 {
		return geometry.Point{}
	}

	occupied := make([]geometry.Rect, len(existing))
	for i, c := range existing {
		occupied[i] = c.Rect().Inset(-le.padding)
	}

	maxY := 0.0
	for _, c := range existing {
		maxY = math.Max(maxY, c.Position.Y+c.Size.H)
	}

	for y := 0.0; y <= maxY+le.padding; y += le.gridSize {
		for x := 0.0; x+size.W <= le.maxRowW; x += le.gridSize {
			candidate := geometry.RectOf(geometry.Pt(le.snap(x), le.snap(y)), size)
			if !overlapsAny(candidate, occupied) {
				return candidate.Min()
			}
		}
	}
	return geometry.Pt(0, le.snap(maxY+le.padding))
}

func overlapsAny(r geometry.Rect, rects []geometry.Rect) bool {
	for _, o := range rects {
		if r.Intersects(o) {
			return true
		}
	}
	return false
}

// ArrangeRow lays cards out left to right from start, wrapping at the row
// width. It returns the new positions in the same order.
func (le *LayoutEngine) ArrangeRow(cards []domain.Card, start geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(cards))
	x, y := le.snap(start.X), le.snap(start.Y)
	rowHeight := 0.0
	for i, c := range cards {
		if x > le.snap(start.X) && x+c.Size.W > le.maxRowW {
			x = le.snap(start.X)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}
		out[i] = geometry.Pt(x, y)
		rowHeight = math.Max(rowHeight, c.Size.H)
		x += le.snap(c.Size.W + le.padding)
	}
	return out
}
