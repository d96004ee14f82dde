package geom

// Transform is the rigid placement applied to a board: rotate about Origin by
// Rotation degrees, then translate by Translation.
type Transform struct {
	Rotation    float64 `json:"rotation"`
	Origin      Point   `json:"origin"`
	Translation Point   `json:"translation"`
}

// Apply maps a point from source-board coordinates into panel coordinates.
func (t Transform) Apply(p Point) Point {
	return Rotate(p, t.Origin, t.Rotation).Add(t.Translation)
}

// Undo maps a panel point back to the source board. It is the exact inverse
// of Apply: translate back, then rotate by the negated angle.
func (t Transform) Undo(p Point) Point {
	return Rotate(p.Sub(t.Translation), t.Origin, -t.Rotation)
}

// UndoTransform is Transform{rotation, origin, translation}.Undo(p).
func UndoTransform(p Point, rotation float64, origin, translation Point) Point {
	return Transform{Rotation: rotation, Origin: origin, Translation: translation}.Undo(p)
}
