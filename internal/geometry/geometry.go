// Package geometry holds the pure, stateless math behind the planning canvas:
// points and rectangles, anchor points on card edges, connector curves and the
// hit-testing used to pick a connection under the pointer.
package geometry

import "math"

// Point is a 2D coordinate. Whether it is canvas-space or screen-space is up
// to the caller.
type Point struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }

// Dist returns the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Size is a width/height pair.
type Size struct {
	W float64 `json:"w" bson:"w"`
	H float64 `json:"h" bson:"h"`
}

// Sz is shorthand for Size{w, h}.
func Sz(w, h float64) Size { return Size{W: w, H: h} }

// AtLeast clamps each dimension of s to be no smaller than min.
func (s Size) AtLeast(min Size) Size {
	return Size{W: math.Max(s.W, min.W), H: math.Max(s.H, min.H)}
}

// Rect is an axis-aligned bounding box anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

// RectOf builds a Rect from a position and a size.
func RectOf(pos Point, size Size) Rect {
	return Rect{X: pos.X, Y: pos.Y, W: size.W, H: size.H}
}

func (r Rect) Min() Point    { return Point{r.X, r.Y} }
func (r Rect) Max() Point    { return Point{r.X + r.W, r.Y + r.H} }
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Intersects reports whether r and o overlap with a non-empty area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && r.X+r.W > o.X &&
		r.Y < o.Y+o.H && r.Y+r.H > o.Y
}

// Union returns the smallest Rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	minX := math.Min(r.X, o.X)
	minY := math.Min(r.Y, o.Y)
	maxX := math.Max(r.X+r.W, o.X+o.W)
	maxY := math.Max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Inset grows (negative d) or shrinks (positive d) r on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}
