package geometry_test

import (
	"math"
	"testing"

	"planboard/internal/geometry"
)

// ─────────────────────────────────────────────────────────────
// Anchors
// ─────────────────────────────────────────────────────────────

func TestAnchorPoint_SideMidpoints(t *testing.T) {
	r := geometry.Rect{X: 10, Y: 20, W: 200, H: 100}
	tests := []struct {
		anchor geometry.Anchor
		want   geometry.Point
	}{
		{geometry.AnchorTop, geometry.Pt(110, 20)},
		{geometry.AnchorBottom, geometry.Pt(110, 120)},
		{geometry.AnchorLeft, geometry.Pt(10, 70)},
		{geometry.AnchorRight, geometry.Pt(210, 70)},
		{geometry.Anchor("diagonal"), geometry.Pt(110, 70)},
	}
	for _, tt := range tests {
		if got := geometry.AnchorPoint(r, tt.anchor); got != tt.want {
			t.Errorf("AnchorPoint(%q) = %v, want %v", tt.anchor, got, tt.want)
		}
	}
}

func TestAnchor_Valid(t *testing.T) {
	for _, a := range geometry.Anchors {
		if !a.Valid() {
			t.Errorf("%q should be valid", a)
		}
	}
	if geometry.Anchor("").Valid() || geometry.Anchor("center").Valid() {
		t.Error("unexpected valid anchor")
	}
}

func TestNearestAnchor(t *testing.T) {
	r := geometry.Rect{X: 0, Y: 0, W: 100, H: 100}
	if got := geometry.NearestAnchor(r, geometry.Pt(98, 55)); got != geometry.AnchorRight {
		t.Errorf("expected right, got %q", got)
	}
	if got := geometry.NearestAnchor(r, geometry.Pt(50, -30)); got != geometry.AnchorTop {
		t.Errorf("expected top, got %q", got)
	}
}

// ─────────────────────────────────────────────────────────────
// Curves
// ─────────────────────────────────────────────────────────────

func TestComputeCurve_HorizontalDominant(t *testing.T) {
	start, end := geometry.Pt(0, 0), geometry.Pt(300, 100)
	c := geometry.ComputeCurve(start, end, geometry.AnchorRight, geometry.AnchorLeft)

	if c.C1.Y != start.Y || c.C2.Y != end.Y {
		t.Fatalf("control y mismatch: c1=%v c2=%v", c.C1, c.C2)
	}
	if c.C1.X != 150 || c.C2.X != 150 {
		t.Fatalf("control x should be the horizontal midpoint: c1=%v c2=%v", c.C1, c.C2)
	}
	if c.Path != "M 0 0 C 150 0, 150 100, 300 100" {
		t.Errorf("unexpected path %q", c.Path)
	}
}

func TestComputeCurve_VerticalDominantAndTie(t *testing.T) {
	cases := []struct {
		name       string
		start, end geometry.Point
	}{
		{"vertical", geometry.Pt(10, 0), geometry.Pt(40, 200)},
		{"tie", geometry.Pt(0, 0), geometry.Pt(-80, 80)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := geometry.ComputeCurve(tc.start, tc.end, geometry.AnchorBottom, geometry.AnchorTop)
			midY := (tc.start.Y + tc.end.Y) / 2
			if c.C1.X != tc.start.X || c.C2.X != tc.end.X {
				t.Errorf("control x mismatch: c1=%v c2=%v", c.C1, c.C2)
			}
			if c.C1.Y != midY || c.C2.Y != midY {
				t.Errorf("control y should be %v: c1=%v c2=%v", midY, c.C1, c.C2)
			}
		})
	}
}

func TestComputeCurve_IgnoresAnchors(t *testing.T) {
	start, end := geometry.Pt(0, 0), geometry.Pt(100, 20)
	a := geometry.ComputeCurve(start, end, geometry.AnchorTop, geometry.AnchorTop)
	b := geometry.ComputeCurve(start, end, geometry.AnchorLeft, geometry.AnchorBottom)
	if a != b {
		t.Errorf("anchors changed the curve: %+v vs %+v", a, b)
	}
}

func TestComputeTemporaryPath(t *testing.T) {
	got := geometry.ComputeTemporaryPath(geometry.Pt(1.5, 2), geometry.Pt(-3, 4.25))
	if got != "M 1.5 2 L -3 4.25" {
		t.Errorf("got %q", got)
	}
}

func TestCurve_PointAtEndpoints(t *testing.T) {
	c := geometry.ComputeCurve(geometry.Pt(0, 0), geometry.Pt(200, 50), "", "")
	if p := c.PointAt(0); p != c.Start {
		t.Errorf("PointAt(0) = %v", p)
	}
	if p := c.PointAt(1); p.Dist(c.End) > 1e-9 {
		t.Errorf("PointAt(1) = %v", p)
	}
}

func TestCurve_HitTolerance(t *testing.T) {
	// Straight horizontal curve so distances are easy to reason about.
	c := geometry.ExplicitCurve(geometry.Pt(0, 0), geometry.Pt(50, 0), geometry.Pt(150, 0), geometry.Pt(200, 0))

	if !c.Hit(geometry.Pt(100, 9), 10) {
		t.Error("expected hit inside tolerance band")
	}
	if c.Hit(geometry.Pt(100, 11), 10) {
		t.Error("expected miss outside tolerance band")
	}
	if d := geometry.DistanceToCubic(geometry.Pt(100, -4), c.Start, c.C1, c.C2, c.End); math.Abs(d-4) > 1e-6 {
		t.Errorf("distance = %v, want 4", d)
	}
}

func TestArrowHead(t *testing.T) {
	l, r := geometry.ArrowHead(geometry.Pt(0, 0), geometry.Pt(10, 0), 4)
	if l.X != 6 || r.X != 6 {
		t.Fatalf("base should sit 4 units behind the tip: %v %v", l, r)
	}
	if math.Abs(l.Y)+math.Abs(r.Y) != 4 || l.Y == r.Y {
		t.Errorf("base corners should straddle the axis: %v %v", l, r)
	}
}

// ─────────────────────────────────────────────────────────────
// Rects
// ─────────────────────────────────────────────────────────────

func TestRect_ContainsAndIntersects(t *testing.T) {
	r := geometry.Rect{X: 0, Y: 0, W: 10, H: 10}
	if !r.Contains(geometry.Pt(10, 10)) {
		t.Error("edges should be inclusive")
	}
	if r.Intersects(geometry.Rect{X: 10, Y: 0, W: 5, H: 5}) {
		t.Error("touching rects should not intersect")
	}
	if !r.Intersects(geometry.Rect{X: 9, Y: 9, W: 5, H: 5}) {
		t.Error("overlapping rects should intersect")
	}
}

func TestSize_AtLeast(t *testing.T) {
	got := geometry.Sz(1, 100).AtLeast(geometry.Sz(80, 60))
	if got != geometry.Sz(80, 100) {
		t.Errorf("got %v", got)
	}
}
