package partition

import (
	"sort"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// Side names a side of a bounding box. Y grows downwards, so Top is the
// minimal Y side.
type Side int

const (
	Left Side = iota
	Right
	Top
	Bottom
)

// Sides lists all sides in a fixed order.
var Sides = [4]Side{Left, Right, Top, Bottom}

func (s Side) String() string {
	return [...]string{"left", "right", "top", "bottom"}[s]
}

// Vertical reports whether the side is parallel to the Y axis.
func (s Side) Vertical() bool {
	return s == Left || s == Right
}

func (s Side) Opposite() Side {
	return [...]Side{Right, Left, Bottom, Top}[s]
}

// sign is -1 for sides facing the negative axis direction.
func (s Side) sign() float64 {
	if s == Left || s == Top {
		return -1
	}
	return 1
}

// Outward is the unit normal pointing away from the box.
func (s Side) Outward() geom.Point {
	if s.Vertical() {
		return geom.Pt(s.sign(), 0)
	}
	return geom.Pt(0, s.sign())
}

// Face returns the coordinate of the side of r.
func (s Side) Face(r geom.Rect) float64 {
	switch s {
	case Left:
		return r.MinX()
	case Right:
		return r.MaxX()
	case Top:
		return r.MinY()
	default:
		return r.MaxY()
	}
}

// Span returns the extent of the side of r along the side.
func (s Side) Span(r geom.Rect) Interval {
	if s.Vertical() {
		return Interval{Min: r.MinY(), Max: r.MaxY()}
	}
	return Interval{Min: r.MinX(), Max: r.MaxX()}
}

// Neighbor is a box visible from a side of another box. Shadow is the part of
// that side the neighbour covers.
type Neighbor struct {
	Index  int
	Shadow IntervalSet
}

// Neighbors holds the neighbours of every box on every side.
type Neighbors struct {
	boxes []geom.Rect
	sides [][4][]Neighbor
}

// NewNeighbors finds the neighbours of each box. Candidates lie beyond a side
// and overlap it perpendicularly; nearer candidates go first and take what is
// still visible of the side.
func NewNeighbors(boxes []geom.Rect) *Neighbors {
	n := &Neighbors{boxes: boxes, sides: make([][4][]Neighbor, len(boxes))}
	for i := range boxes {
		for _, side := range Sides {
			n.sides[i][side] = n.find(i, side)
		}
	}
	return n
}

func (n *Neighbors) find(i int, side Side) []Neighbor {
	box := n.boxes[i]
	span := side.Span(box)
	face := side.Face(box)
	opposite := side.Opposite()

	type candidate struct {
		index int
		gap   float64
	}
	var candidates []candidate
	for j, other := range n.boxes {
		if j == i || !span.Overlaps(side.Span(other)) {
			continue
		}
		gap := side.sign() * (opposite.Face(other) - face)
		if gap < 0 {
			continue
		}
		candidates = append(candidates, candidate{index: j, gap: gap})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].gap < candidates[b].gap
	})

	visible := IntervalSet{span}
	var out []Neighbor
	for _, c := range candidates {
		if visible.Empty() {
			break
		}
		otherSpan := side.Span(n.boxes[c.index])
		shadow := visible.Intersect(otherSpan)
		if shadow.Empty() {
			continue
		}
		out = append(out, Neighbor{Index: c.index, Shadow: shadow})
		visible = visible.Subtract(otherSpan)
	}
	return out
}

// Of returns the neighbours of box i on the given side, nearest first.
func (n *Neighbors) Of(i int, side Side) []Neighbor {
	return n.sides[i][side]
}

func (n *Neighbors) Left(i int) []Neighbor   { return n.Of(i, Left) }
func (n *Neighbors) Right(i int) []Neighbor  { return n.Of(i, Right) }
func (n *Neighbors) Top(i int) []Neighbor    { return n.Of(i, Top) }
func (n *Neighbors) Bottom(i int) []Neighbor { return n.Of(i, Bottom) }
