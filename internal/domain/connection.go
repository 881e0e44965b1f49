package domain

import "planboard/internal/geometry"

// Connection is a completed, directed edge between two cards' anchors.
// Selection lives on the board, not on the connection.
type Connection struct {
	ID            string          `json:"id" bson:"id"`
	SourceCardID  string          `json:"sourceCardId" bson:"sourceCardId"`
	SourceAnchor  geometry.Anchor `json:"sourceAnchor" bson:"sourceAnchor"`
	TargetCardID  string          `json:"targetCardId" bson:"targetCardId"`
	TargetAnchor  geometry.Anchor `json:"targetAnchor" bson:"targetAnchor"`
	ControlPoints *ControlPoints  `json:"controlPoints,omitempty" bson:"controlPoints,omitempty"`
}

// ControlPoints are manually adjusted Bézier handles. When present they
// replace the computed default curve.
type ControlPoints struct {
	C1 geometry.Point `json:"c1" bson:"c1"`
	C2 geometry.Point `json:"c2" bson:"c2"`
}

// Touches reports whether cardID is either endpoint of c.
func (c Connection) Touches(cardID string) bool {
	return c.SourceCardID == cardID || c.TargetCardID == cardID
}

func (c Connection) Clone() Connection {
	out := c
	if c.ControlPoints != nil {
		cp := *c.ControlPoints
		out.ControlPoints = &cp
	}
	return out
}
