package partition

import (
	"sort"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// Partition splits the plane around a set of boards into one cell per board.
// Ghost boxes (frame or rail pieces) take part in neighbour search but never
// contribute backbone lines.
type Partition struct {
	boxes  []geom.Rect
	boards int
	h, v   [][]AxialLine
}

type sideSegment struct {
	coord float64
	span  Interval
}

// NewPartition builds the cells for boards and ghosts. Where a side faces a
// neighbour the cell boundary runs in the middle of the gap; elsewhere it runs
// safeH (left and right sides) or safeV (top and bottom sides) outside the box.
func NewPartition(boards, ghosts []geom.Rect, safeH, safeV float64) *Partition {
	boxes := make([]geom.Rect, 0, len(boards)+len(ghosts))
	for _, b := range boards {
		boxes = append(boxes, b.Normalize())
	}
	for _, g := range ghosts {
		boxes = append(boxes, g.Normalize())
	}

	p := &Partition{
		boxes:  boxes,
		boards: len(boards),
		h:      make([][]AxialLine, len(boxes)),
		v:      make([][]AxialLine, len(boxes)),
	}
	neighbors := NewNeighbors(boxes)
	for i := range boxes {
		p.h[i], p.v[i] = cellLines(boxes, neighbors, i, safeH, safeV)
	}
	return p
}

func cellLines(boxes []geom.Rect, neighbors *Neighbors, i int, safeH, safeV float64) ([]AxialLine, []AxialLine) {
	box := boxes[i]
	var segments [4][]sideSegment
	for _, side := range Sides {
		face := side.Face(box)
		uncovered := IntervalSet{side.Span(box)}
		for _, n := range neighbors.Of(i, side) {
			mid := (face + side.Opposite().Face(boxes[n.Index])) / 2
			for _, iv := range n.Shadow {
				segments[side] = append(segments[side], sideSegment{coord: mid, span: iv})
				uncovered = uncovered.Subtract(iv)
			}
		}
		margin := safeV
		if side.Vertical() {
			margin = safeH
		}
		for _, iv := range uncovered {
			segments[side] = append(segments[side], sideSegment{coord: face + side.sign()*margin, span: iv})
		}
		sort.Slice(segments[side], func(a, b int) bool {
			return segments[side][a].span.Min < segments[side][b].span.Min
		})
	}

	var h, v []AxialLine
	add := func(vertical bool, l AxialLine) {
		if l.Length() <= 0 {
			return
		}
		if vertical {
			v = append(v, l)
		} else {
			h = append(h, l)
		}
	}

	for _, side := range Sides {
		segs := segments[side]
		if len(segs) == 0 {
			continue
		}
		startSide, endSide := Top, Bottom
		if !side.Vertical() {
			startSide, endSide = Left, Right
		}
		for k, seg := range segs {
			l := AxialLine{X: seg.coord, Min: seg.span.Min, Max: seg.span.Max}
			// Stretch the end segments to the perpendicular lines so the cell
			// closes at its corners.
			if k == 0 {
				l.Min = cornerCoord(segments[startSide], side)
			}
			if k == len(segs)-1 {
				l.Max = cornerCoord(segments[endSide], side)
			}
			add(side.Vertical(), l)

			if k+1 < len(segs) && segs[k+1].coord != seg.coord {
				lo, hi := seg.coord, segs[k+1].coord
				if lo > hi {
					lo, hi = hi, lo
				}
				add(!side.Vertical(), AxialLine{X: seg.span.Max, Min: lo, Max: hi})
			}
		}
	}
	return h, v
}

// cornerCoord returns the coordinate of the perpendicular segment covering the
// corner shared with side: the first segment for left and top, the last one
// for right and bottom.
func cornerCoord(perpendicular []sideSegment, side Side) float64 {
	if side.sign() < 0 {
		return perpendicular[0].coord
	}
	return perpendicular[len(perpendicular)-1].coord
}

// Lines returns the horizontal and vertical lines of cell i. Horizontal lines
// carry their Y in X.
func (p *Partition) Lines(i int) (h, v []AxialLine) {
	return append([]AxialLine(nil), p.h[i]...), append([]AxialLine(nil), p.v[i]...)
}

// PartitionPolylines returns the boundary of cell i merged into polylines.
// Closed boundaries are counter-clockwise.
func (p *Partition) PartitionPolylines(i int) []geom.Polyline {
	var segments []geom.Polyline
	for _, l := range p.h[i] {
		segments = append(segments, l.Horizontal())
	}
	for _, l := range p.v[i] {
		segments = append(segments, l.Vertical())
	}
	merged := geom.LineMerge(segments)
	for k, m := range merged {
		if m.IsClosed() {
			merged[k] = m.Ring().Oriented(true).Closed()
		}
	}
	return merged
}

// Backbone returns the lines shared by at least two cells, except those
// bordering a ghost, clipped to bounds.
func (p *Partition) Backbone(bounds geom.Rect) []geom.Polyline {
	bounds = bounds.Normalize()
	h := p.shared(p.h)
	v := p.shared(p.v)

	h = cutAll(cutAll(h, bounds.MinX()), bounds.MaxX())
	v = cutAll(cutAll(v, bounds.MinY()), bounds.MaxY())

	var out []geom.Polyline
	for _, l := range h {
		if l.Min >= bounds.MinX() && l.Max <= bounds.MaxX() {
			out = append(out, l.Horizontal())
		}
	}
	for _, l := range v {
		if l.Min >= bounds.MinY() && l.Max <= bounds.MaxY() {
			out = append(out, l.Vertical())
		}
	}
	return out
}

func (p *Partition) shared(lines [][]AxialLine) []AxialLine {
	count := make(map[AxialLine]int)
	for _, cell := range lines {
		seen := make(map[AxialLine]bool)
		for _, l := range cell {
			if !seen[l] {
				seen[l] = true
				count[l]++
			}
		}
	}
	for _, ghost := range lines[p.boards:] {
		for _, l := range ghost {
			delete(count, l)
		}
	}

	var out []AxialLine
	for l, c := range count {
		if c >= 2 {
			out = append(out, l)
		}
	}
	sortLines(out)
	return out
}
