package substrate

import (
	polyclip "github.com/akavel/polyclip-go"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// arcSegments is the number of segments used for a full circle when buffering
// with round joins.
const arcSegments = 32

// bufferShapes offsets the shapes by d with round joins. Negative values
// erode.
func bufferShapes(shapes []Shape, d float64) []Shape {
	switch {
	case len(shapes) == 0 || d == 0:
		return shapes
	case d > 0:
		return dilate(shapes, d)
	default:
		return erode(shapes, -d)
	}
}

// dilate computes the Minkowski sum with a disc of radius r: the shapes plus a
// rectangle around every edge and a disc on every convex vertex.
func dilate(shapes []Shape, r float64) []Shape {
	pieces := [][]Shape{shapes}
	for _, s := range shapes {
		rings := append([]geom.Ring{s.Exterior.Oriented(true)}, orientedHoles(s.Holes)...)
		for _, ring := range rings {
			pieces = append(pieces, ringBufferPieces(ring, r)...)
		}
	}
	return unionAll(pieces)
}

func orientedHoles(holes []geom.Ring) []geom.Ring {
	out := make([]geom.Ring, len(holes))
	for i, h := range holes {
		out[i] = h.Oriented(false)
	}
	return out
}

// ringBufferPieces expects the material on the left of the ring (exteriors
// counter-clockwise, holes clockwise).
func ringBufferPieces(ring geom.Ring, r float64) [][]Shape {
	n := len(ring)
	var pieces [][]Shape
	for i := 0; i < n; i++ {
		a, b, c := ring[i], ring[(i+1)%n], ring[(i+2)%n]
		if a.Near(b, cleanTolerance) {
			continue
		}
		dir := b.Sub(a).Normalize()
		off := dir.Perp().Mul(r)
		quad := geom.Ring{a.Sub(off), b.Sub(off), b.Add(off), a.Add(off)}
		pieces = append(pieces, []Shape{{Exterior: quad.Oriented(true)}})

		if b.Sub(a).Cross(c.Sub(b)) > 0 {
			pieces = append(pieces, []Shape{{Exterior: geom.CirclePolygon(b, r, arcSegments)}})
		}
	}
	return pieces
}

// erode shrinks the shapes by r: subtract the dilated complement.
func erode(shapes []Shape, r float64) []Shape {
	frame := shapesBoundingBox(shapes).ExpandAll(2*r + 1)
	complement := construct(polyclip.DIFFERENCE, []Shape{{Exterior: frame.Ring()}}, shapes)
	return construct(polyclip.DIFFERENCE, shapes, dilate(complement, r))
}
