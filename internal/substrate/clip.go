package substrate

import (
	"math"
	"sort"

	polyclip "github.com/akavel/polyclip-go"

	"github.com/piwi3910/PanelCut/internal/geom"
)

const (
	// cleanTolerance merges result vertices closer than this (internal units).
	cleanTolerance = 1e-3
	// minRingArea drops slivers produced by floating point noise.
	minRingArea = 1.0
)

// Shape is one connected component: an exterior ring and its holes.
type Shape struct {
	Exterior geom.Ring   `json:"exterior"`
	Holes    []geom.Ring `json:"holes,omitempty"`
}

func (s Shape) Area() float64 {
	a := s.Exterior.Area()
	for _, h := range s.Holes {
		a -= h.Area()
	}
	return a
}

func (s Shape) BoundingBox() geom.Rect {
	return s.Exterior.BoundingBox()
}

// Contains reports whether p lies in the material of the shape.
func (s Shape) Contains(p geom.Point) bool {
	if !s.Exterior.Contains(p) {
		return false
	}
	for _, h := range s.Holes {
		if h.Contains(p) {
			return false
		}
	}
	return true
}

// DistanceTo is zero inside the material, otherwise the distance to the
// nearest boundary.
func (s Shape) DistanceTo(p geom.Point) float64 {
	if s.Contains(p) {
		return 0
	}
	d := s.Exterior.DistanceTo(p)
	for _, h := range s.Holes {
		d = math.Min(d, h.DistanceTo(p))
	}
	return d
}

func shapesBoundingBox(shapes []Shape) geom.Rect {
	if len(shapes) == 0 {
		return geom.Rect{}
	}
	bb := shapes[0].BoundingBox()
	for _, s := range shapes[1:] {
		bb = bb.Union(s.BoundingBox())
	}
	return bb
}

func toContour(r geom.Ring) polyclip.Contour {
	c := make(polyclip.Contour, len(r))
	for i, p := range r {
		c[i] = polyclip.Point{X: p.X, Y: p.Y}
	}
	return c
}

func toClip(shapes []Shape) polyclip.Polygon {
	var poly polyclip.Polygon
	for _, s := range shapes {
		poly = append(poly, toContour(s.Exterior))
		for _, h := range s.Holes {
			poly = append(poly, toContour(h))
		}
	}
	return poly
}

// fromClip turns a flat contour list into shapes. A contour nested inside an
// odd number of others is a hole of the smallest contour that contains it.
func fromClip(poly polyclip.Polygon) []Shape {
	var rings []geom.Ring
	for _, c := range poly {
		r := make(geom.Ring, len(c))
		for i, p := range c {
			r[i] = geom.Point{X: p.X, Y: p.Y}
		}
		r = r.Clean(cleanTolerance)
		if len(r) < 3 || r.Area() < minRingArea {
			continue
		}
		rings = append(rings, r)
	}
	return nestRings(rings)
}

// nestRings classifies rings by containment depth: even depth is material,
// odd depth is a hole.
func nestRings(rings []geom.Ring) []Shape {
	sort.SliceStable(rings, func(i, j int) bool {
		return rings[i].Area() > rings[j].Area()
	})

	depth := make([]int, len(rings))
	parent := make([]int, len(rings))
	for i := range rings {
		parent[i] = -1
		// Larger rings come first, so the last container found is the smallest.
		for j := 0; j < i; j++ {
			if ringInside(rings[i], rings[j]) {
				depth[i]++
				parent[i] = j
			}
		}
	}

	index := make(map[int]int)
	var shapes []Shape
	for i, r := range rings {
		if depth[i]%2 == 0 {
			index[i] = len(shapes)
			shapes = append(shapes, Shape{Exterior: r.Oriented(true)})
		}
	}
	for i, r := range rings {
		if depth[i]%2 == 1 && parent[i] >= 0 {
			if si, ok := index[parent[i]]; ok {
				shapes[si].Holes = append(shapes[si].Holes, r.Oriented(false))
			}
		}
	}
	return shapes
}

// ringInside reports whether inner lies inside outer. Vertices on the outer
// boundary are ignored; a ring touching outer only on its boundary is outside.
func ringInside(inner, outer geom.Ring) bool {
	if !outer.BoundingBox().ExpandAll(cleanTolerance).ContainsRect(inner.BoundingBox()) {
		return false
	}
	for _, p := range inner {
		if outer.DistanceTo(p) <= cleanTolerance {
			continue
		}
		return outer.Contains(p)
	}
	// Every vertex sits on the outer boundary: decide on an edge midpoint.
	for i := range inner {
		mid := inner[i].Add(inner[(i+1)%len(inner)]).Mul(0.5)
		if outer.DistanceTo(mid) > cleanTolerance {
			return outer.Contains(mid)
		}
	}
	return false
}

// construct runs a polyclip operation with the trivial cases handled here.
func construct(op polyclip.Op, a, b []Shape) []Shape {
	switch op {
	case polyclip.UNION:
		if len(a) == 0 {
			return b
		}
		if len(b) == 0 {
			return a
		}
		if disjoint(a, b) {
			out := make([]Shape, 0, len(a)+len(b))
			out = append(out, a...)
			return append(out, b...)
		}
	case polyclip.DIFFERENCE:
		if len(a) == 0 {
			return nil
		}
		if len(b) == 0 || disjoint(a, b) {
			return a
		}
	case polyclip.INTERSECTION:
		if len(a) == 0 || len(b) == 0 || disjoint(a, b) {
			return nil
		}
	}
	return fromClip(toClip(a).Construct(op, toClip(b)))
}

// disjoint is a conservative bounding box test; touching boxes are not
// disjoint so shared edges still get merged.
func disjoint(a, b []Shape) bool {
	return !shapesBoundingBox(a).ExpandAll(1).Intersects(shapesBoundingBox(b))
}

// unionAll merges pieces pairwise so each polyclip call sees operands of
// similar size.
func unionAll(pieces [][]Shape) []Shape {
	switch len(pieces) {
	case 0:
		return nil
	case 1:
		return pieces[0]
	}
	mid := len(pieces) / 2
	return construct(polyclip.UNION, unionAll(pieces[:mid]), unionAll(pieces[mid:]))
}
