package panel

import (
	"math"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/partition"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// DefaultTabMaxLength bounds how far an annotated tab searches for the board
// and for a partition line.
var DefaultTabMaxLength = geom.FromMM(100)

// TabAnnotation asks for a tab of Width starting at Origin and heading along
// Direction into the board.
type TabAnnotation struct {
	Ref       string     `json:"ref,omitempty"`
	Origin    geom.Point `json:"origin"`
	Direction geom.Point `json:"direction"`
	Width     float64    `json:"width"`
	MaxLength float64    `json:"maxLength"`
}

func newAnnotation(origin, dir geom.Point, width float64) TabAnnotation {
	return TabAnnotation{Origin: origin, Direction: dir, Width: width, MaxLength: DefaultTabMaxLength}
}

// annotationsFromFootprint converts a kikit annotation footprint. Tab
// footprints point along their orientation and carry their width as
// "KIKIT: width: <length>"; Board footprints yield nothing.
func annotationsFromFootprint(f *board.Footprint) ([]TabAnnotation, error) {
	if f.Name != "Tab" {
		return nil, nil
	}
	w, ok := f.Properties()["width"]
	if !ok {
		return nil, panelErrorf("tab annotation %s has no width", f.Reference)
	}
	width, err := geom.ParseLength(w)
	if err != nil {
		return nil, panelErrorf("tab annotation %s: %v", f.Reference, err)
	}
	a := newAnnotation(f.Position, geom.Direction(f.Angle), width)
	a.Ref = f.Reference
	return []TabAnnotation{a}, nil
}

// MaxTabCount returns how many tabs of width fit on an edge when neighbouring
// tabs keep minDistance apart.
func MaxTabCount(edgeLen, width, minDistance float64) int {
	if edgeLen < width {
		return 0
	}
	c := 1 + math.Floor((edgeLen-minDistance)/(minDistance+width))
	return max(0, int(c))
}

// TabSpacing returns the offsets of count evenly spread tabs along an edge of
// the given length. A count below one gives no tabs.
func TabSpacing(length float64, count int) []float64 {
	if count <= 0 {
		return nil
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = length * float64(i+1) / float64(count+1)
	}
	return out
}

// ClearTabAnnotations drops every tab annotation of every board.
func (p *Panel) ClearTabAnnotations() {
	for i := range p.annotations {
		p.annotations[i] = nil
	}
}

// BuildTabsFromAnnotations builds the annotated tabs of every board against
// its partition lines, adds them to the panel and returns their cuts.
// Annotations whose tab misses the board or never reaches a partition line
// are dropped.
func (p *Panel) BuildTabsFromAnnotations() []geom.Polyline {
	var rings []geom.Ring
	var cuts []geom.Polyline
	for i, s := range p.substrates {
		lines := p.PartitionLines(i)
		for _, a := range p.annotations[i] {
			t, err := s.Tab(a.Origin, a.Direction, a.Width, lines, a.MaxLength)
			if err != nil {
				p.log.Debug("tab dropped", "board", i, "ref", a.Ref, "reason", err.Error())
				continue
			}
			if t == nil {
				p.log.Debug("tab dropped", "board", i, "ref", a.Ref, "reason", "no partition line reached")
				continue
			}
			p.tabs = append(p.tabs, *t)
			rings = append(rings, t.Polygon)
			cuts = append(cuts, t.Cut)
		}
	}
	p.boardSubstrate.UnionRings(rings...)
	p.log.Debug("tabs built from annotations", "tabs", len(rings))
	return cuts
}

// sideDirection is the tab direction for tabs on a side: into the box.
func sideDirection(side partition.Side) geom.Point {
	return side.Outward().Mul(-1)
}

// buildTabAnnotations places tabs on the parts of every board's bounding box
// facing a neighbour. countFn and widthFn receive the length of the facing
// part and the tab direction.
func (p *Panel) buildTabAnnotations(countFn func(float64, geom.Point) int, widthFn func(float64, geom.Point) float64, ghosts []*substrate.Substrate) {
	boxes := make([]geom.Rect, 0, len(p.substrates)+len(ghosts))
	for _, s := range p.substrates {
		boxes = append(boxes, s.BoundingBox())
	}
	for _, g := range ghosts {
		boxes = append(boxes, g.BoundingBox())
	}
	neighbors := partition.NewNeighbors(boxes)
	added := 0
	for i := range p.substrates {
		for _, side := range partition.Sides {
			dir := sideDirection(side)
			face := side.Face(boxes[i])
			for _, n := range neighbors.Of(i, side) {
				for _, section := range n.Shadow {
					length := section.Length()
					width := widthFn(length, dir)
					for _, offset := range TabSpacing(length, countFn(length, dir)) {
						var origin geom.Point
						if side.Vertical() {
							origin = geom.Pt(face, section.Min+offset)
						} else {
							origin = geom.Pt(section.Min+offset, face)
						}
						p.annotations[i] = append(p.annotations[i], newAnnotation(origin, dir, width))
						added++
					}
				}
			}
		}
	}
	p.log.Debug("tab annotations added", "count", added)
}

// BuildTabAnnotationsFixed annotates every facing edge with up to hCount tabs
// on left and right sides and vCount tabs on top and bottom sides. Short
// edges get fewer tabs so that tabs stay minDistance apart. Ghosts are
// substrates to come, such as a frame.
func (p *Panel) BuildTabAnnotationsFixed(hCount, vCount int, hWidth, vWidth, minDistance float64, ghosts []*substrate.Substrate) {
	widthFn := func(_ float64, dir geom.Point) float64 {
		return math.Abs(dir.X)*hWidth + math.Abs(dir.Y)*vWidth
	}
	countFn := func(length float64, dir geom.Point) int {
		limit := hCount
		if dir.X == 0 {
			limit = vCount
		}
		return min(limit, MaxTabCount(length, widthFn(length, dir), minDistance))
	}
	p.buildTabAnnotations(countFn, widthFn, ghosts)
}

// BuildTabAnnotationsSpacing annotates every facing edge with as many tabs as
// fit with the given spacing.
func (p *Panel) BuildTabAnnotationsSpacing(spacing, hWidth, vWidth float64, ghosts []*substrate.Substrate) {
	widthFn := func(_ float64, dir geom.Point) float64 {
		return math.Abs(dir.X)*hWidth + math.Abs(dir.Y)*vWidth
	}
	countFn := func(length float64, dir geom.Point) int {
		return MaxTabCount(length, widthFn(length, dir), spacing)
	}
	p.buildTabAnnotations(countFn, widthFn, ghosts)
}

// BuildTabAnnotationsCorners annotates the four bounding box corners of
// every board with a tab pointing to the box centre.
func (p *Panel) BuildTabAnnotationsCorners(width float64) {
	for i, s := range p.substrates {
		bb := s.BoundingBox()
		mid := bb.Center()
		for _, x := range []float64{bb.MinX(), bb.MaxX()} {
			for _, y := range []float64{bb.MinY(), bb.MaxY()} {
				corner := geom.Pt(x, y)
				a := newAnnotation(corner, mid.Sub(corner).Normalize(), width)
				p.annotations[i] = append(p.annotations[i], a)
			}
		}
	}
}

// BuildFullTabs fills everything between the board bounding boxes and the
// outer bounds of the partition lines, and returns the bounding box edges as
// cuts. The partition lines must be built first. Mouse bites make little
// sense along such cuts.
func (p *Panel) BuildFullTabs() ([]geom.Polyline, error) {
	if len(p.substrates) == 0 || len(p.partitionLines) == 0 {
		return nil, panelErrorf("full tabs need boards and partition lines")
	}
	boxes := substrate.New()
	var outer geom.Rect
	first := true
	for i, s := range p.substrates {
		boxes.Union(substrate.FromRect(s.BoundingBox()))
		for _, l := range p.partitionLines[i] {
			if first {
				outer, first = l.BoundingBox(), false
				continue
			}
			outer = outer.Union(l.BoundingBox())
		}
	}
	if first {
		return nil, panelErrorf("full tabs need partition lines")
	}
	fill := substrate.FromRect(outer)
	fill.Difference(boxes)
	p.boardSubstrate.Union(fill.Buffer(geom.FromMM(0.01)))

	var cuts []geom.Polyline
	for _, s := range p.substrates {
		ring := s.BoundingBox().Ring()
		for j := range ring {
			cuts = append(cuts, geom.Segment(ring[j], ring[(j+1)%len(ring)]))
		}
	}
	return cuts, nil
}
