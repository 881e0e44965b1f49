package geometry

import (
	"math"
	"strconv"
	"strings"
)

// Curve is a cubic Bézier connector from Start to End with control points
// C1 and C2, plus its SVG path description.
type Curve struct {
	Start Point  `json:"start"`
	C1    Point  `json:"c1"`
	C2    Point  `json:"c2"`
	End   Point  `json:"end"`
	Path  string `json:"path"`
}

// ComputeCurve builds the default connector between start and end.
//
// The axis with the larger absolute delta wins: when |dx| > |dy| both control
// points share the horizontal midpoint x and keep their endpoint's y,
// otherwise both share the vertical midpoint y and keep their endpoint's x.
// The anchor sides are accepted for signature symmetry and do not affect the
// result.
func ComputeCurve(start, end Point, from, to Anchor) Curve {
	dx := end.X - start.X
	dy := end.Y - start.Y

	var c1, c2 Point
	if math.Abs(dx) > math.Abs(dy) {
		midX := (start.X + end.X) / 2
		c1 = Point{midX, start.Y}
		c2 = Point{midX, end.Y}
	} else {
		midY := (start.Y + end.Y) / 2
		c1 = Point{start.X, midY}
		c2 = Point{end.X, midY}
	}
	return ExplicitCurve(start, c1, c2, end)
}

// ExplicitCurve builds a Curve from caller-supplied control points. Stored
// control points on a connection go through here and bypass ComputeCurve.
func ExplicitCurve(start, c1, c2, end Point) Curve {
	return Curve{
		Start: start,
		C1:    c1,
		C2:    c2,
		End:   end,
		Path:  CubicPath(start, c1, c2, end),
	}
}

// CubicPath formats "M sx sy C c1x c1y, c2x c2y, ex ey".
func CubicPath(start, c1, c2, end Point) string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, start)
	b.WriteString(" C ")
	writePoint(&b, c1)
	b.WriteString(", ")
	writePoint(&b, c2)
	b.WriteString(", ")
	writePoint(&b, end)
	return b.String()
}

// ComputeTemporaryPath is the straight segment drawn while a connection is
// being dragged and has no confirmed target yet.
func ComputeTemporaryPath(start, end Point) string {
	var b strings.Builder
	b.WriteString("M ")
	writePoint(&b, start)
	b.WriteString(" L ")
	writePoint(&b, end)
	return b.String()
}

func writePoint(b *strings.Builder, p Point) {
	b.WriteString(formatCoord(p.X))
	b.WriteByte(' ')
	b.WriteString(formatCoord(p.Y))
}

func formatCoord(v float64) string {
	// Avoid "-0" in path strings.
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PointAt evaluates the curve at parameter t in [0, 1].
func (c Curve) PointAt(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.Start.X + b*c.C1.X + d*c.C2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + d*c.C2.Y + e*c.End.Y,
	}
}

// curveSamples is the number of straight segments used to approximate a
// curve for distance queries.
const curveSamples = 64

// Distance returns the approximate shortest distance from p to the curve.
func (c Curve) Distance(p Point) float64 {
	best := math.Inf(1)
	prev := c.Start
	for i := 1; i <= curveSamples; i++ {
		next := c.PointAt(float64(i) / curveSamples)
		if d := SegmentDistance(p, prev, next); d < best {
			best = d
		}
		prev = next
	}
	return best
}

// Bounds returns the bounding box of the curve's control polygon. The curve
// always lies inside it.
func (c Curve) Bounds() Rect {
	minX := math.Min(math.Min(c.Start.X, c.End.X), math.Min(c.C1.X, c.C2.X))
	minY := math.Min(math.Min(c.Start.Y, c.End.Y), math.Min(c.C1.Y, c.C2.Y))
	maxX := math.Max(math.Max(c.Start.X, c.End.X), math.Max(c.C1.X, c.C2.X))
	maxY := math.Max(math.Max(c.Start.Y, c.End.Y), math.Max(c.C1.Y, c.C2.Y))
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Hit reports whether p falls inside the tolerance band on either side of
// the curve. The band is what an invisible wide stroke would cover.
func (c Curve) Hit(p Point, tolerance float64) bool {
	if !c.Bounds().Inset(-tolerance).Contains(p) {
		return false
	}
	return c.Distance(p) <= tolerance
}

// SegmentDistance returns the distance from p to the segment ab.
func SegmentDistance(p, a, b Point) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / lenSq
	t = math.Max(0, math.Min(1, t))
	return p.Dist(Point{a.X + t*abx, a.Y + t*aby})
}

// ArrowHead returns the two base corners of an arrowhead whose tip sits at
// tip and which points along the direction from -> tip. size is the
// arrowhead length; the half-width is size/2.
func ArrowHead(from, tip Point, size float64) (Point, Point) {
	dx := tip.X - from.X
	dy := tip.Y - from.Y
	length := math.Hypot(dx, dy)
	if length < 1e-9 {
		return tip, tip
	}
	dx /= length
	dy /= length
	half := size / 2
	base := Point{tip.X - dx*size, tip.Y - dy*size}
	return Point{base.X + dy*half, base.Y - dx*half},
		Point{base.X - dy*half, base.Y + dx*half}
}

// DistanceToCubic is the free-function form of Curve.Distance.
func DistanceToCubic(p, start, c1, c2, end Point) float64 {
	return Curve{Start: start, C1: c1, C2: c2, End: end}.Distance(p)
}
