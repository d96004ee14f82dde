package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned box. W and H may be negative while a rectangle is
// being built; call Normalize before using it in geometric algorithms.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// RectFromBounds builds a rectangle from its min and max corners.
func RectFromBounds(minX, minY, maxX, maxY float64) Rect {
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Normalize flips negative sizes so W >= 0 and H >= 0, moving the origin so
// the covered area does not change.
func (r Rect) Normalize() Rect {
	if r.W < 0 {
		r.X += r.W
		r.W = -r.W
	}
	if r.H < 0 {
		r.Y += r.H
		r.H = -r.H
	}
	return r
}

// Expand grows the rectangle by dx on the left and right and dy on the top and
// bottom. Negative values shrink it.
func (r Rect) Expand(dx, dy float64) Rect {
	return Rect{X: r.X - dx, Y: r.Y - dy, W: r.W + 2*dx, H: r.H + 2*dy}
}

// ExpandAll is Expand(d, d).
func (r Rect) ExpandAll(d float64) Rect {
	return r.Expand(d, d)
}

func (r Rect) Translate(p Point) Rect {
	return Rect{X: r.X + p.X, Y: r.Y + p.Y, W: r.W, H: r.H}
}

// Flip swaps the axes.
func (r Rect) Flip() Rect {
	return Rect{X: r.Y, Y: r.X, W: r.H, H: r.W}
}

// MirrorX mirrors the rectangle about the vertical line x = axis.
func (r Rect) MirrorX(axis float64) Rect {
	return Rect{X: 2*axis - r.X, Y: r.Y, W: -r.W, H: r.H}.Normalize()
}

// MirrorY mirrors the rectangle about the horizontal line y = axis.
func (r Rect) MirrorY(axis float64) Rect {
	return Rect{X: r.X, Y: 2*axis - r.Y, W: r.W, H: -r.H}.Normalize()
}

func (r Rect) MinX() float64 { return math.Min(r.X, r.X+r.W) }
func (r Rect) MinY() float64 { return math.Min(r.Y, r.Y+r.H) }
func (r Rect) MaxX() float64 { return math.Max(r.X, r.X+r.W) }
func (r Rect) MaxY() float64 { return math.Max(r.Y, r.Y+r.H) }

// Bounds returns (minX, minY, maxX, maxY).
func (r Rect) Bounds() (float64, float64, float64, float64) {
	return r.MinX(), r.MinY(), r.MaxX(), r.MaxY()
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) Area() float64 {
	return math.Abs(r.W * r.H)
}

// Corners returns the corners in ring order starting at the min corner.
func (r Rect) Corners() [4]Point {
	minX, minY, maxX, maxY := r.Bounds()
	return [4]Point{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}}
}

// Ring converts the rectangle to a counter-clockwise ring of 4 points.
func (r Rect) Ring() Ring {
	c := r.Corners()
	return Ring{c[0], c[1], c[2], c[3]}
}

// RectFromRing returns the bounding rectangle of a ring.
func RectFromRing(ring Ring) Rect {
	return BoundingBox(ring)
}

// Union returns the smallest rectangle covering both.
func (r Rect) Union(o Rect) Rect {
	minX, minY, maxX, maxY := r.Bounds()
	oMinX, oMinY, oMaxX, oMaxY := o.Bounds()
	return RectFromBounds(math.Min(minX, oMinX), math.Min(minY, oMinY),
		math.Max(maxX, oMaxX), math.Max(maxY, oMaxY))
}

// Contains reports whether p is inside or on the border of r.
func (r Rect) Contains(p Point) bool {
	minX, minY, maxX, maxY := r.Bounds()
	return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
}

// ContainsRect reports whether o lies entirely within r.
func (r Rect) ContainsRect(o Rect) bool {
	minX, minY, maxX, maxY := o.Bounds()
	return r.Contains(Point{minX, minY}) && r.Contains(Point{maxX, maxY})
}

// Intersects reports whether the interiors of the rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	minX, minY, maxX, maxY := r.Bounds()
	oMinX, oMinY, oMaxX, oMaxY := o.Bounds()
	return minX < oMaxX && oMinX < maxX && minY < oMaxY && oMinY < maxY
}

func (r Rect) String() string {
	return fmt.Sprintf("%.3f, %.3f, %.3f x %.3f mm", ToMM(r.X), ToMM(r.Y), ToMM(r.W), ToMM(r.H))
}

// BoundingBox returns the bounding rectangle of a point set. An empty set
// yields the zero rectangle.
func BoundingBox(pts []Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return RectFromBounds(minX, minY, maxX, maxY)
}
