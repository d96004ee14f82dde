// Package substrate models board and panel outlines as polygon sets and
// implements the operations the panel builder needs on them: boolean union
// and difference, buffering, mill fillets, island removal and tab synthesis.
//
// A Substrate never edits rings in place. Every mutating method builds a new
// shape slice, so substrates and the shapes they hand out can be shared
// freely between the panel aggregate and per-board lists.
package substrate

import (
	"math"

	polyclip "github.com/akavel/polyclip-go"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// Substrate is a set of disjoint polygons with holes.
type Substrate struct {
	shapes []Shape
}

// New builds a substrate from possibly overlapping shapes.
func New(shapes ...Shape) *Substrate {
	s := &Substrate{}
	pieces := make([][]Shape, 0, len(shapes))
	for _, sh := range shapes {
		if len(sh.Exterior) < 3 {
			continue
		}
		pieces = append(pieces, normalizeShape(sh))
	}
	s.shapes = unionAll(pieces)
	return s
}

// FromRing builds a substrate covering a single ring.
func FromRing(ring geom.Ring) *Substrate {
	return New(Shape{Exterior: ring})
}

// FromRect builds a substrate covering an axis-aligned rectangle.
func FromRect(r geom.Rect) *Substrate {
	return FromRing(r.Normalize().Ring())
}

// Inflate builds a substrate from ring grown by d. Convex rings get mitred
// corners, other rings a round buffer.
func Inflate(ring geom.Ring, d float64) *Substrate {
	if ring.IsConvex() {
		return FromRing(geom.OffsetConvex(ring, d))
	}
	return FromRing(ring).Buffer(d)
}

func normalizeShape(sh Shape) []Shape {
	out := Shape{Exterior: sh.Exterior.Oriented(true)}
	for _, h := range sh.Holes {
		if len(h) >= 3 {
			out.Holes = append(out.Holes, h.Oriented(false))
		}
	}
	return []Shape{out}
}

// Clone returns an independent substrate with the same geometry.
func (s *Substrate) Clone() *Substrate {
	return &Substrate{shapes: s.Shapes()}
}

// Shapes returns the connected components.
func (s *Substrate) Shapes() []Shape {
	out := make([]Shape, len(s.shapes))
	copy(out, s.shapes)
	return out
}

func (s *Substrate) IsEmpty() bool {
	return len(s.shapes) == 0
}

// Union merges the other substrates into s.
func (s *Substrate) Union(others ...*Substrate) {
	pieces := [][]Shape{s.shapes}
	for _, o := range others {
		if o != nil && !o.IsEmpty() {
			pieces = append(pieces, o.shapes)
		}
	}
	s.shapes = unionAll(pieces)
}

// UnionRings merges plain rings into s.
func (s *Substrate) UnionRings(rings ...geom.Ring) {
	pieces := [][]Shape{s.shapes}
	for _, r := range rings {
		if len(r) >= 3 {
			pieces = append(pieces, []Shape{{Exterior: r.Oriented(true)}})
		}
	}
	s.shapes = unionAll(pieces)
}

// Difference removes other from s.
func (s *Substrate) Difference(other *Substrate) {
	if other == nil {
		return
	}
	s.shapes = construct(polyclip.DIFFERENCE, s.shapes, other.shapes)
}

// Intersection returns the common part of s and other.
func (s *Substrate) Intersection(other *Substrate) *Substrate {
	return &Substrate{shapes: construct(polyclip.INTERSECTION, s.shapes, other.shapes)}
}

// Buffer returns s offset by d with round joins; negative d erodes.
func (s *Substrate) Buffer(d float64) *Substrate {
	return &Substrate{shapes: bufferShapes(s.shapes, d)}
}

// BufferMitre offsets convex pieces with mitred corners, so rectangles stay
// rectangles. Other pieces fall back to the round buffer.
func (s *Substrate) BufferMitre(d float64) *Substrate {
	pieces := make([][]Shape, 0, len(s.shapes))
	for _, sh := range s.shapes {
		if len(sh.Holes) == 0 && sh.Exterior.IsConvex() {
			grown := geom.OffsetConvex(sh.Exterior, d)
			if grown.Area() >= minRingArea && grown.IsCCW() == sh.Exterior.IsCCW() {
				pieces = append(pieces, []Shape{{Exterior: grown.Oriented(true)}})
			}
			continue
		}
		pieces = append(pieces, bufferShapes([]Shape{sh}, d))
	}
	return &Substrate{shapes: unionAll(pieces)}
}

// MillFillets rounds the concave corners with the given radius, as a milling
// bit of that radius would leave them. Convex corners are preserved.
func (s *Substrate) MillFillets(radius float64) {
	if radius <= 0 {
		return
	}
	eps := geom.FromMM(0.001)
	shapes := bufferShapes(s.shapes, radius-eps)
	shapes = bufferShapes(shapes, -radius)
	s.shapes = bufferShapes(shapes, eps)
}

// RemoveIslands drops components lying inside another component's outline,
// such as pieces of material left in a milled slot.
func (s *Substrate) RemoveIslands() {
	if len(s.shapes) < 2 {
		return
	}
	var mainland []Shape
	for i, sh := range s.shapes {
		island := false
		for j, other := range s.shapes {
			if i != j && ringInside(sh.Exterior, other.Exterior) {
				island = true
				break
			}
		}
		if !island {
			mainland = append(mainland, sh)
		}
	}
	s.shapes = mainland
}

// BoundingBox returns the bounding rectangle; zero for an empty substrate.
func (s *Substrate) BoundingBox() geom.Rect {
	return shapesBoundingBox(s.shapes)
}

// Bounds returns (minX, minY, maxX, maxY).
func (s *Substrate) Bounds() (float64, float64, float64, float64) {
	return s.BoundingBox().Bounds()
}

// Exterior returns the substrate with all holes filled.
func (s *Substrate) Exterior() *Substrate {
	pieces := make([][]Shape, len(s.shapes))
	for i, sh := range s.shapes {
		pieces[i] = []Shape{{Exterior: sh.Exterior}}
	}
	return &Substrate{shapes: unionAll(pieces)}
}

// IsSinglePiece reports whether the substrate is one connected component.
func (s *Substrate) IsSinglePiece() bool {
	return len(s.shapes) == 1
}

func (s *Substrate) Area() float64 {
	var a float64
	for _, sh := range s.shapes {
		a += sh.Area()
	}
	return a
}

// Contains reports whether p lies in the material.
func (s *Substrate) Contains(p geom.Point) bool {
	for _, sh := range s.shapes {
		if sh.Contains(p) {
			return true
		}
	}
	return false
}

// DistanceTo returns 0 for points in the material and the distance to the
// closest boundary otherwise. An empty substrate is infinitely far.
func (s *Substrate) DistanceTo(p geom.Point) float64 {
	d := math.Inf(1)
	for _, sh := range s.shapes {
		d = math.Min(d, sh.DistanceTo(p))
	}
	return d
}

// Serialize returns every boundary ring with canonical winding: exteriors
// counter-clockwise, holes clockwise.
func (s *Substrate) Serialize() []geom.Ring {
	var rings []geom.Ring
	for _, sh := range s.shapes {
		rings = append(rings, sh.Exterior.Oriented(true))
		for _, h := range sh.Holes {
			rings = append(rings, h.Oriented(false))
		}
	}
	return rings
}
