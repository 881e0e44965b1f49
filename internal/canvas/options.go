// Package canvas holds the in-memory state of one planning canvas: the card
// store, the connection store, the viewport transform, the timeline and the
// selection they share. Nothing in here does I/O.
package canvas

import (
	"planboard/internal/domain"
	"planboard/internal/geometry"
)

// Options tunes card placement, sizing and zoom limits.
type Options struct {
	MinSize      geometry.Size
	SpawnOffset  geometry.Point
	Stagger      float64
	StaggerCycle int
	MinScale     float64
	MaxScale     float64
	ZoomStep     float64
	HitTolerance float64
	DefaultSizes map[domain.CardKind]geometry.Size
}

func DefaultOptions() Options {
	return Options{
		MinSize:      geometry.Sz(80, 60),
		SpawnOffset:  geometry.Pt(100, 100),
		Stagger:      20,
		StaggerCycle: 10,
		MinScale:     0.2,
		MaxScale:     3.0,
		ZoomStep:     1.1,
		HitTolerance: 10,
		DefaultSizes: map[domain.CardKind]geometry.Size{
			domain.CardKindNote:           geometry.Sz(200, 150),
			domain.CardKindDrill:          geometry.Sz(240, 160),
			domain.CardKindText:           geometry.Sz(200, 100),
			domain.CardKindAIReadiness:    geometry.Sz(320, 220),
			domain.CardKindWeeklyCalendar: geometry.Sz(420, 260),
		},
	}
}

// normalize fills zero or nonsensical fields from DefaultOptions.
func (o Options) normalize() Options {
	def := DefaultOptions()
	if o.MinSize.W <= 0 || o.MinSize.H <= 0 {
		o.MinSize = def.MinSize
	}
	if o.StaggerCycle <= 0 {
		o.StaggerCycle = def.StaggerCycle
	}
	if o.MinScale <= 0 {
		o.MinScale = def.MinScale
	}
	if o.MaxScale < o.MinScale {
		o.MaxScale = def.MaxScale
		if o.MaxScale < o.MinScale {
			o.MaxScale = o.MinScale
		}
	}
	if o.ZoomStep <= 1 {
		o.ZoomStep = def.ZoomStep
	}
	if o.HitTolerance <= 0 {
		o.HitTolerance = def.HitTolerance
	}
	if o.DefaultSizes == nil {
		o.DefaultSizes = def.DefaultSizes
	}
	return o
}

// SizeFor returns the initial size for a new card of the given kind.
func (o Options) SizeFor(kind domain.CardKind) geometry.Size {
	if s, ok := o.DefaultSizes[kind]; ok {
		return s.AtLeast(o.MinSize)
	}
	return o.MinSize
}
