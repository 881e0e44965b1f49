package canvas

import (
	"math"

	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// Viewport maps canvas space to screen space:
//
//	screen = canvas*scale + offset
//	canvas = (screen - offset) / scale
//
// Changing the viewport never touches card or connection data.
type Viewport struct {
	opts   Options
	scale  float64
	offset geometry.Point
	size   geometry.Size
}

func newViewport(opts Options) *Viewport {
	return &Viewport{opts: opts, scale: 1}
}

func (v *Viewport) Scale() float64          { return v.scale }
func (v *Viewport) Offset() geometry.Point  { return v.offset }
func (v *Viewport) Size() geometry.Size     { return v.size }
func (v *Viewport) State() domain.Viewport  { return domain.Viewport{Scale: v.scale, Offset: v.offset} }
func (v *Viewport) SetSize(s geometry.Size) { v.size = s }

// Pan shifts the view by a screen-space delta.
func (v *Viewport) Pan(delta geometry.Point) {
	v.offset = v.offset.Add(delta)
}

// ZoomBy multiplies the scale by factor, clamped to [MinScale, MaxScale].
// The canvas point under pivot stays where it is on screen. With a nil
// pivot the center of the screen is used. Non-positive or non-finite
// factors are ignored. It reports whether the scale changed.
func (v *Viewport) ZoomBy(factor float64, pivot *geometry.Point) bool {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return false
	}
	next := v.clampScale(v.scale * factor)
	if next == v.scale {
		return false
	}
	p := geometry.Pt(v.size.W/2, v.size.H/2)
	if pivot != nil {
		p = *pivot
	}
	anchor := v.ScreenToCanvas(p)
	v.scale = next
	v.offset = p.Sub(anchor.Scale(next))
	return true
}

func (v *Viewport) ScreenToCanvas(p geometry.Point) geometry.Point {
	return p.Sub(v.offset).Scale(1 / v.scale)
}

func (v *Viewport) CanvasToScreen(p geometry.Point) geometry.Point {
	return p.Scale(v.scale).Add(v.offset)
}

// ScreenRect maps a canvas-space rect to screen space.
func (v *Viewport) ScreenRect(r geometry.Rect) geometry.Rect {
	min := v.CanvasToScreen(r.Min())
	return geometry.Rect{X: min.X, Y: min.Y, W: r.W * v.scale, H: r.H * v.scale}
}

// VisibleCenter is the canvas point at the middle of the screen.
func (v *Viewport) VisibleCenter() geometry.Point {
	return v.ScreenToCanvas(geometry.Pt(v.size.W/2, v.size.H/2))
}

// Reset returns to the identity transform. The screen size is kept.
func (v *Viewport) Reset() {
	v.scale = 1
	v.offset = geometry.Point{}
}

// Set installs a stored viewport. An unusable scale resets to the identity
// transform; an out-of-range one is clamped.
func (v *Viewport) Set(s domain.Viewport) {
	if !validViewport(s) {
		v.Reset()
		return
	}
	v.scale = v.clampScale(s.Scale)
	v.offset = s.Offset
}

func (v *Viewport) clampScale(s float64) float64 {
	return math.Max(v.opts.MinScale, math.Min(v.opts.MaxScale, s))
}

func validViewport(s domain.Viewport) bool {
	finite := func(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
	return s.Scale > 0 && finite(s.Scale) && finite(s.Offset.X) && finite(s.Offset.Y)
}
