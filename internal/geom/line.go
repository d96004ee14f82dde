package geom

import "math"

// Polyline is an open sequence of connected points. A polyline whose last
// point equals its first is a closed ring.
type Polyline []Point

// Segment builds a two-point polyline.
func Segment(a, b Point) Polyline {
	return Polyline{a, b}
}

func (l Polyline) Length() float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += l[i].Dist(l[i-1])
	}
	return total
}

// IsClosed reports whether the polyline ends where it starts.
func (l Polyline) IsClosed() bool {
	return len(l) > 2 && l[0].Near(l[len(l)-1], 1e-6)
}

func (l Polyline) Start() Point { return l[0] }
func (l Polyline) End() Point   { return l[len(l)-1] }

func (l Polyline) Reverse() Polyline {
	out := make(Polyline, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}

func (l Polyline) BoundingBox() Rect {
	return BoundingBox(l)
}

// Ring drops the closing point of a closed polyline.
func (l Polyline) Ring() Ring {
	if l.IsClosed() {
		return Ring(append(Polyline(nil), l[:len(l)-1]...))
	}
	return Ring(append(Polyline(nil), l...))
}

// Interpolate returns the point at distance d along the polyline, clamped to
// its ends.
func (l Polyline) Interpolate(d float64) Point {
	if len(l) == 0 {
		return Point{}
	}
	if d <= 0 {
		return l[0]
	}
	for i := 1; i < len(l); i++ {
		seg := l[i].Dist(l[i-1])
		if d <= seg {
			if seg == 0 {
				return l[i]
			}
			return l[i-1].Add(l[i].Sub(l[i-1]).Mul(d / seg))
		}
		d -= seg
	}
	return l[len(l)-1]
}

// Simplify applies Douglas-Peucker with the given tolerance. The end points
// are always kept.
func (l Polyline) Simplify(tol float64) Polyline {
	if len(l) < 3 {
		out := make(Polyline, len(l))
		copy(out, l)
		return out
	}
	keep := make([]bool, len(l))
	keep[0], keep[len(l)-1] = true, true
	douglasPeucker(l, 0, len(l)-1, tol, keep)

	out := make(Polyline, 0, len(l))
	for i, p := range l {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

func douglasPeucker(l Polyline, first, last int, tol float64, keep []bool) {
	if last-first < 2 {
		return
	}
	maxDist := -1.0
	index := first
	for i := first + 1; i < last; i++ {
		d := segmentDistance(l[i], l[first], l[last])
		if d > maxDist {
			maxDist = d
			index = i
		}
	}
	if maxDist > tol {
		keep[index] = true
		douglasPeucker(l, first, index, tol, keep)
		douglasPeucker(l, index, last, tol, keep)
	}
}

// Prolong extends the first and last segments tangentially by d.
func (l Polyline) Prolong(d float64) Polyline {
	out := make(Polyline, len(l))
	copy(out, l)
	n := len(out)
	if n < 2 {
		return out
	}
	out[0] = out[0].Add(out[0].Sub(out[1]).Normalize().Mul(d))
	out[n-1] = out[n-1].Add(out[n-1].Sub(out[n-2]).Normalize().Mul(d))
	return out
}

// ParallelOffset shifts the polyline sideways by d to its left (the side of
// Perp of the travel direction); negative d shifts right. Corners are mitred.
func (l Polyline) ParallelOffset(d float64) Polyline {
	n := len(l)
	if n < 2 {
		out := make(Polyline, n)
		copy(out, l)
		return out
	}
	type line struct{ p, dir Point }
	var lines []line
	for i := 1; i < n; i++ {
		dir := l[i].Sub(l[i-1]).Normalize()
		if dir.Len() == 0 {
			continue
		}
		lines = append(lines, line{p: l[i-1].Add(dir.Perp().Mul(d)), dir: dir})
	}
	if len(lines) == 0 {
		out := make(Polyline, n)
		copy(out, l)
		return out
	}

	out := Polyline{lines[0].p}
	for i := 1; i < len(lines); i++ {
		if p, ok := lineIntersection(lines[i-1].p, lines[i-1].dir, lines[i].p, lines[i].dir); ok {
			out = append(out, p)
		} else {
			out = append(out, lines[i].p)
		}
	}
	lastDir := lines[len(lines)-1].dir
	out = append(out, l[n-1].Add(lastDir.Perp().Mul(d)))
	return out
}

// DistanceTo returns the smallest distance from p to any segment.
func (l Polyline) DistanceTo(p Point) float64 {
	if len(l) == 1 {
		return p.Dist(l[0])
	}
	best := math.Inf(1)
	for i := 1; i < len(l); i++ {
		best = math.Min(best, segmentDistance(p, l[i-1], l[i]))
	}
	return best
}

// Locate returns the arc-length position of the point of l closest to p.
func (l Polyline) Locate(p Point) float64 {
	best := math.Inf(1)
	var pos, walked float64
	for i := 1; i < len(l); i++ {
		a, b := l[i-1], l[i]
		seg := b.Sub(a)
		segLen := seg.Len()
		t := 0.0
		if segLen > 0 {
			t = math.Max(0, math.Min(1, p.Sub(a).Dot(seg)/(segLen*segLen)))
		}
		d := p.Dist(a.Add(seg.Mul(t)))
		if d < best {
			best = d
			pos = walked + t*segLen
		}
		walked += segLen
	}
	return pos
}

// Slice returns the part of l between arc-length positions from and to
// (from <= to), including the interpolated end points.
func (l Polyline) Slice(from, to float64) Polyline {
	out := Polyline{l.Interpolate(from)}
	var walked float64
	for i := 1; i < len(l); i++ {
		walked += l[i].Dist(l[i-1])
		if walked > from && walked < to {
			out = append(out, l[i])
		}
	}
	return append(out, l.Interpolate(to))
}

// SubPath returns the path along l from the point nearest to `from` to the
// point nearest to `to`. On a closed polyline the shorter way round is taken.
func (l Polyline) SubPath(from, to Point) Polyline {
	s1, s2 := l.Locate(from), l.Locate(to)
	if !l.IsClosed() {
		if s1 <= s2 {
			return l.Slice(s1, s2)
		}
		return l.Slice(s2, s1).Reverse()
	}

	total := l.Length()
	// Walk a doubled ring so a forward path may wrap past the seam.
	doubled := make(Polyline, 0, 2*len(l))
	doubled = append(doubled, l...)
	doubled = append(doubled, l[1:]...)

	fwdEnd := s2
	if fwdEnd < s1 {
		fwdEnd += total
	}
	bwdEnd := s1
	if bwdEnd < s2 {
		bwdEnd += total
	}
	if fwdEnd-s1 <= bwdEnd-s2 {
		return doubled.Slice(s1, fwdEnd)
	}
	return doubled.Slice(s2, bwdEnd).Reverse()
}

// RayHit casts a ray from origin along dir (a unit vector) and returns the
// closest intersection with l within maxLen.
func RayHit(origin, dir Point, maxLen float64, l Polyline) (Point, float64, bool) {
	end := origin.Add(dir.Mul(maxLen))
	best := math.Inf(1)
	var hit Point
	for i := 1; i < len(l); i++ {
		if p, ok := SegmentIntersection(origin, end, l[i-1], l[i]); ok {
			d := p.Dist(origin)
			if d < best {
				best = d
				hit = p
			}
		}
	}
	if math.IsInf(best, 1) {
		return Point{}, 0, false
	}
	return hit, best, true
}

// SegmentIntersection intersects segments a-b and c-d. Collinear overlaps
// report the overlap point closest to a.
func SegmentIntersection(a, b, c, d Point) (Point, bool) {
	r := b.Sub(a)
	s := d.Sub(c)
	den := r.Cross(s)
	qp := c.Sub(a)
	const eps = 1e-12

	if math.Abs(den) < eps {
		if math.Abs(qp.Cross(r)) > 1e-9*math.Max(1, r.Len()) {
			return Point{}, false
		}
		rr := r.Dot(r)
		if rr == 0 {
			return Point{}, false
		}
		t0 := qp.Dot(r) / rr
		t1 := t0 + s.Dot(r)/rr
		lo, hi := math.Min(t0, t1), math.Max(t0, t1)
		if hi < 0 || lo > 1 {
			return Point{}, false
		}
		return a.Add(r.Mul(math.Max(0, lo))), true
	}

	t := qp.Cross(s) / den
	u := qp.Cross(r) / den
	const tol = 1e-9
	if t < -tol || t > 1+tol || u < -tol || u > 1+tol {
		return Point{}, false
	}
	return a.Add(r.Mul(t)), true
}

// segmentDistance returns the distance from p to segment a-b.
func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.Dist(a)
	}
	t := math.Max(0, math.Min(1, p.Sub(a).Dot(ab)/l2))
	return p.Dist(a.Add(ab.Mul(t)))
}

// LineMerge joins segments that share end points into maximal polylines.
// Chains that come back to their start are returned closed.
func LineMerge(lines []Polyline) []Polyline {
	const tol = 1e-6
	used := make([]bool, len(lines))
	var merged []Polyline

	for start := range lines {
		if used[start] || len(lines[start]) < 2 {
			continue
		}
		used[start] = true
		chain := append(Polyline(nil), lines[start]...)

		for _, atTail := range []bool{true, false} {
			changed := true
			for changed && !chain.IsClosed() {
				changed = false
				for i, l := range lines {
					if used[i] || len(l) < 2 {
						continue
					}
					end := chain[0]
					if atTail {
						end = chain[len(chain)-1]
					}
					var next Polyline
					switch {
					case end.Near(l[0], tol):
						next = l
					case end.Near(l[len(l)-1], tol):
						next = l.Reverse()
					default:
						continue
					}
					if atTail {
						chain = append(chain, next[1:]...)
					} else {
						chain = append(next.Reverse()[:len(next)-1], chain...)
					}
					used[i] = true
					changed = true
					break
				}
			}
		}
		merged = append(merged, chain)
	}
	return merged
}
