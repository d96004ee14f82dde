package geom

import "math"

// DefaultPrecision is the number of decimals kept by RoundPoint when callers
// compare computed coordinates for equality.
const DefaultPrecision = 4

// Point is a 2D coordinate in internal units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

// Mul scales the point as a vector.
func (p Point) Mul(k float64) Point {
	return Point{X: p.X * k, Y: p.Y * k}
}

func (p Point) Dot(o Point) float64 {
	return p.X*o.X + p.Y*o.Y
}

// Cross returns the z component of the 3D cross product.
func (p Point) Cross(o Point) float64 {
	return p.X*o.Y - p.Y*o.X
}

func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

func (p Point) Dist(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Normalize returns the unit vector in the direction of p. The zero vector is
// returned unchanged.
func (p Point) Normalize() Point {
	l := p.Len()
	if l == 0 {
		return p
	}
	return Point{X: p.X / l, Y: p.Y / l}
}

// Perp returns p rotated by +90 degrees.
func (p Point) Perp() Point {
	return Point{X: -p.Y, Y: p.X}
}

// Near reports whether two points are within tol of each other.
func (p Point) Near(o Point, tol float64) bool {
	return p.Dist(o) <= tol
}

// RoundPoint rounds both coordinates to the given number of decimals.
func RoundPoint(p Point, decimals int) Point {
	return Point{X: roundTo(p.X, decimals), Y: roundTo(p.Y, decimals)}
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}

// Rotate rotates p about origin by angle degrees (counter-clockwise in the
// mathematical sense).
func Rotate(p, origin Point, angle float64) Point {
	if angle == 0 {
		return p
	}
	sin, cos := math.Sincos(angle * math.Pi / 180)
	d := p.Sub(origin)
	return Point{
		X: origin.X + d.X*cos - d.Y*sin,
		Y: origin.Y + d.X*sin + d.Y*cos,
	}
}

// Direction returns the unit vector for an orientation given in degrees.
func Direction(angle float64) Point {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	return Point{X: cos, Y: sin}
}
