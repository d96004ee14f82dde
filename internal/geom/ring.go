package geom

import "math"

// Ring is a closed sequence of points; the last point implicitly connects to
// the first and is not repeated.
type Ring []Point

// SignedArea uses the shoelace formula. Counter-clockwise rings are positive.
func (r Ring) SignedArea() float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	var area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += r[i].X*r[j].Y - r[j].X*r[i].Y
	}
	return area / 2
}

func (r Ring) Area() float64 {
	return math.Abs(r.SignedArea())
}

func (r Ring) IsCCW() bool {
	return r.SignedArea() > 0
}

// Reverse returns a copy with the opposite orientation.
func (r Ring) Reverse() Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[len(r)-1-i] = p
	}
	return out
}

// Oriented returns a copy of the ring wound counter-clockwise when ccw is set,
// clockwise otherwise.
func (r Ring) Oriented(ccw bool) Ring {
	if r.IsCCW() == ccw {
		out := make(Ring, len(r))
		copy(out, r)
		return out
	}
	return r.Reverse()
}

// Closed returns the ring as a polyline ending on its first point.
func (r Ring) Closed() Polyline {
	if len(r) == 0 {
		return nil
	}
	out := make(Polyline, 0, len(r)+1)
	out = append(out, r...)
	return append(out, r[0])
}

func (r Ring) Translate(d Point) Ring {
	out := make(Ring, len(r))
	for i, p := range r {
		out[i] = p.Add(d)
	}
	return out
}

func (r Ring) BoundingBox() Rect {
	return BoundingBox(r)
}

// Contains is an even-odd point-in-polygon test. Points exactly on the
// boundary may report either way; use DistanceTo to test the boundary.
func (r Ring) Contains(p Point) bool {
	inside := false
	n := len(r)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r[i], r[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}

// DistanceTo returns the distance from p to the ring boundary.
func (r Ring) DistanceTo(p Point) float64 {
	return r.Closed().DistanceTo(p)
}

// IsConvex reports whether every turn of the ring goes the same way.
func (r Ring) IsConvex() bool {
	n := len(r)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a, b, c := r[i], r[(i+1)%n], r[(i+2)%n]
		cross := b.Sub(a).Cross(c.Sub(b))
		if math.Abs(cross) < 1e-9 {
			continue
		}
		s := 1
		if cross < 0 {
			s = -1
		}
		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}
	return sign != 0
}

// Clean drops repeated points and vertices lying on the line through their
// neighbours (within tol).
func (r Ring) Clean(tol float64) Ring {
	pts := make(Ring, 0, len(r))
	for _, p := range r {
		if len(pts) > 0 && pts[len(pts)-1].Near(p, tol) {
			continue
		}
		pts = append(pts, p)
	}
	if len(pts) > 1 && pts[0].Near(pts[len(pts)-1], tol) {
		pts = pts[:len(pts)-1]
	}

	changed := true
	for changed && len(pts) > 3 {
		changed = false
		for i := 0; i < len(pts); i++ {
			prev := pts[(i+len(pts)-1)%len(pts)]
			next := pts[(i+1)%len(pts)]
			if segmentDistance(pts[i], prev, next) <= tol {
				pts = append(pts[:i], pts[i+1:]...)
				changed = true
				break
			}
		}
	}
	return pts
}

// OffsetConvex offsets a convex ring by d with mitred corners. Positive d
// grows the ring. The result keeps the input orientation.
func OffsetConvex(r Ring, d float64) Ring {
	n := len(r)
	if n < 3 || d == 0 {
		out := make(Ring, n)
		copy(out, r)
		return out
	}
	// For a CCW ring the outward normal of edge a->b is (dy, -dx).
	sign := 1.0
	if !r.IsCCW() {
		sign = -1
	}
	type line struct{ p, dir Point }
	lines := make([]line, n)
	for i := 0; i < n; i++ {
		a, b := r[i], r[(i+1)%n]
		dir := b.Sub(a).Normalize()
		normal := Point{X: dir.Y, Y: -dir.X}.Mul(sign * d)
		lines[i] = line{p: a.Add(normal), dir: dir}
	}
	out := make(Ring, n)
	for i := 0; i < n; i++ {
		prev := lines[(i+n-1)%n]
		cur := lines[i]
		if p, ok := lineIntersection(prev.p, prev.dir, cur.p, cur.dir); ok {
			out[i] = p
		} else {
			out[i] = cur.p
		}
	}
	return out
}

// lineIntersection intersects two infinite lines given as point + direction.
func lineIntersection(p1, d1, p2, d2 Point) (Point, bool) {
	den := d1.Cross(d2)
	if math.Abs(den) < 1e-12 {
		return Point{}, false
	}
	t := p2.Sub(p1).Cross(d2) / den
	return p1.Add(d1.Mul(t)), true
}

// CirclePolygon approximates a circle with a regular polygon, counter-clockwise.
func CirclePolygon(center Point, radius float64, segments int) Ring {
	if segments < 3 {
		segments = 3
	}
	out := make(Ring, segments)
	for i := 0; i < segments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(segments)
		out[i] = Point{
			X: center.X + radius*math.Cos(angle),
			Y: center.Y + radius*math.Sin(angle),
		}
	}
	return out
}
