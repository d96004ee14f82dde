package panel

import (
	"sort"

	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

var railOverlap = geom.FromMM(0.001)

// MakeFrame surrounds the panel with a frame of the given width, its inner
// edge hSpace and vSpace away from the boards, and returns the cuts
// separating the frame corners from its sides, so the frame can be broken off
// in pieces. Material already reaching further out, such as tabs, moves the
// frame outwards.
func (p *Panel) MakeFrame(width, hSpace, vSpace float64) []geom.Polyline {
	inner := p.boardSubstrate.BoundingBox()
	if len(p.substrates) > 0 {
		inner = inner.Union(p.boardsBoundingBox().Expand(hSpace, vSpace))
	}
	inner = inner.ExpandAll(-railOverlap)
	outer := inner.ExpandAll(width)
	p.boardSubstrate.Union(substrate.New(substrate.Shape{
		Exterior: outer.Ring(),
		Holes:    []geom.Ring{inner.Ring().Oriented(false)},
	}))

	area := p.boardsBoundingBox()
	cuts := frameCutsV(area, inner, outer)
	return append(cuts, frameCutsH(area, inner, outer)...)
}

func (p *Panel) boardsBoundingBox() geom.Rect {
	var area geom.Rect
	for i, s := range p.substrates {
		if i == 0 {
			area = s.BoundingBox()
			continue
		}
		area = area.Union(s.BoundingBox())
	}
	return area
}

func frameCutsV(area, frameInner, outer geom.Rect) []geom.Polyline {
	ys := []float64{frameInner.MinY(), frameInner.MaxY(), outer.MinY(), outer.MaxY()}
	sort.Float64s(ys)
	var cuts []geom.Polyline
	for _, span := range [][2]float64{{ys[0], ys[1]}, {ys[2], ys[3]}} {
		for _, x := range []float64{area.MinX(), area.MaxX()} {
			cuts = append(cuts, geom.Segment(geom.Pt(x, span[0]), geom.Pt(x, span[1])))
		}
	}
	return cuts
}

func frameCutsH(area, frameInner, outer geom.Rect) []geom.Polyline {
	xs := []float64{frameInner.MinX(), frameInner.MaxX(), outer.MinX(), outer.MaxX()}
	sort.Float64s(xs)
	var cuts []geom.Polyline
	for _, span := range [][2]float64{{xs[0], xs[1]}, {xs[2], xs[3]}} {
		for _, y := range []float64{area.MinY(), area.MaxY()} {
			cuts = append(cuts, geom.Segment(geom.Pt(span[0], y), geom.Pt(span[1], y)))
		}
	}
	return cuts
}

// MakeTightFrame builds a frame like MakeFrame and fills the whole panel with
// material except for a slot of slotWidth around every board.
func (p *Panel) MakeTightFrame(width, slotWidth, hSpace, vSpace float64) {
	p.MakeFrame(width, hSpace, vSpace)
	slot := substrate.New()
	for _, s := range p.substrates {
		slot.Union(s.Exterior())
	}
	body := substrate.FromRect(p.boardSubstrate.BoundingBox())
	body.Difference(slot.Buffer(slotWidth))
	p.boardSubstrate.Union(body)
}

// MakeRailsTB adds rails of the given thickness along the top and bottom of
// the panel.
func (p *Panel) MakeRailsTB(thickness float64) {
	minX, minY, maxX, maxY := p.boardSubstrate.Bounds()
	p.boardSubstrate.Union(
		substrate.FromRect(geom.RectFromBounds(minX, maxY-railOverlap, maxX, maxY+thickness)),
		substrate.FromRect(geom.RectFromBounds(minX, minY-thickness, maxX, minY+railOverlap)))
}

// MakeRailsLR adds rails of the given thickness along the left and right of
// the panel.
func (p *Panel) MakeRailsLR(thickness float64) {
	minX, minY, maxX, maxY := p.boardSubstrate.Bounds()
	p.boardSubstrate.Union(
		substrate.FromRect(geom.RectFromBounds(minX-thickness, minY, minX+railOverlap, maxY)),
		substrate.FromRect(geom.RectFromBounds(maxX-railOverlap, minY, maxX+thickness, maxY)))
}
