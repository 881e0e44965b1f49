package geometry

// Anchor names one of the four side midpoints a connection can attach to.
type Anchor string

const (
	AnchorTop    Anchor = "top"
	AnchorRight  Anchor = "right"
	AnchorBottom Anchor = "bottom"
	AnchorLeft   Anchor = "left"
)

// Anchors lists every anchor in clockwise order starting at the top.
var Anchors = []Anchor{AnchorTop, AnchorRight, AnchorBottom, AnchorLeft}

// Valid reports whether a is one of the four named anchors.
func (a Anchor) Valid() bool {
	switch a {
	case AnchorTop, AnchorRight, AnchorBottom, AnchorLeft:
		return true
	}
	return false
}

// Vertical reports whether the anchor sits on a horizontal edge, so that a
// connector leaves it vertically.
func (a Anchor) Vertical() bool {
	return a == AnchorTop || a == AnchorBottom
}

// AnchorPoint returns the midpoint of the requested side of r. An unknown
// anchor resolves to the center of r.
func AnchorPoint(r Rect, a Anchor) Point {
	switch a {
	case AnchorTop:
		return Point{r.X + r.W/2, r.Y}
	case AnchorBottom:
		return Point{r.X + r.W/2, r.Y + r.H}
	case AnchorLeft:
		return Point{r.X, r.Y + r.H/2}
	case AnchorRight:
		return Point{r.X + r.W, r.Y + r.H/2}
	}
	return r.Center()
}

// NearestAnchor returns the anchor of r closest to p.
func NearestAnchor(r Rect, p Point) Anchor {
	best := AnchorTop
	bestDist := -1.0
	for _, a := range Anchors {
		d := AnchorPoint(r, a).Dist(p)
		if bestDist < 0 || d < bestDist {
			best, bestDist = a, d
		}
	}
	return best
}
