package panel

import (
	"math"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// Mouse-bite defaults: holes sit offset to the left of the cut, and cuts are
// prolonged at both ends so the perforation reaches past the corners.
var (
	DefaultMouseBiteOffset       = geom.FromMM(0.25)
	DefaultMouseBiteProlongation = geom.FromMM(0.5)
)

var (
	vCutCurveTolerance = geom.FromMM(0.01)
	vCutSkewTolerance  = geom.FromMM(0.5)
	vCutOverhang       = geom.FromMM(3)
	vCutWidth          = geom.FromMM(0.4)
	vCutLabelSize      = geom.FromMM(2)
)

// AddVCutH adds a horizontal V-cut at y. Cuts at the same coordinate merge.
func (p *Panel) AddVCutH(y float64) {
	p.hVCuts[y] = struct{}{}
}

// AddVCutV adds a vertical V-cut at x. Cuts at the same coordinate merge.
func (p *Panel) AddVCutV(x float64) {
	p.vVCuts[x] = struct{}{}
}

// MakeVCuts turns straight axis-aligned cuts into V-cuts spanning the whole
// panel. With boundCurves a curved or slightly skewed cut (within 0.5 mm) is
// replaced by the line through its end points; otherwise it is a *VCutError.
func (p *Panel) MakeVCuts(cuts []geom.Polyline, boundCurves bool) error {
	for _, cut := range cuts {
		if len(cut) < 2 {
			continue
		}
		if len(cut.Simplify(vCutCurveTolerance)) > 2 && !boundCurves {
			return &VCutError{Message: "cannot V-cut a curve", Cut: cut}
		}
		start := geom.RoundPoint(cut.Start(), geom.DefaultPrecision)
		end := geom.RoundPoint(cut.End(), geom.DefaultPrecision)
		if start == end {
			continue
		}
		switch {
		case start.X == end.X || (boundCurves && math.Abs(start.X-end.X) <= vCutSkewTolerance):
			p.AddVCutV((start.X + end.X) / 2)
		case start.Y == end.Y || (boundCurves && math.Abs(start.Y-end.Y) <= vCutSkewTolerance):
			p.AddVCutH((start.Y + end.Y) / 2)
		default:
			return &VCutError{Message: "cannot perform V-cut which is not horizontal or vertical", Cut: cut}
		}
	}
	p.log.Debug("v-cuts", "horizontal", len(p.hVCuts), "vertical", len(p.vVCuts))
	return nil
}

// renderVCuts draws one segment and one label per V-cut coordinate across the
// panel bounding box. With a clearance set it also returns the keepout area
// of every cut.
func (p *Panel) renderVCuts() ([]board.Item, []geom.Ring) {
	bb := p.boardSubstrate.BoundingBox()
	h, v := p.VCuts()
	var items []board.Item
	var keepouts []geom.Ring
	label := func(pos geom.Point, angle float64) *board.Text {
		return &board.Text{
			Text:      "V-CUT",
			Position:  pos,
			Angle:     angle,
			Height:    vCutLabelSize,
			Thickness: vCutWidth,
			Justify:   "left",
			OnLayer:   p.vCutLayer,
		}
	}

	minY, maxY := bb.MinY()-vCutOverhang, bb.MaxY()+vCutOverhang
	for _, x := range v {
		items = append(items,
			&board.Segment{Start: geom.Pt(x, minY), End: geom.Pt(x, maxY), Width: vCutWidth, OnLayer: p.vCutLayer},
			label(geom.Pt(x, minY-vCutOverhang), 90))
		if p.vCutClearance != 0 {
			keepouts = append(keepouts, geom.RectFromBounds(x-p.vCutClearance/2, bb.MinY(), x+p.vCutClearance/2, bb.MaxY()).Ring())
		}
	}
	minX, maxX := bb.MinX()-vCutOverhang, bb.MaxX()+vCutOverhang
	for _, y := range h {
		items = append(items,
			&board.Segment{Start: geom.Pt(minX, y), End: geom.Pt(maxX, y), Width: vCutWidth, OnLayer: p.vCutLayer},
			label(geom.Pt(maxX+vCutOverhang, y), 0))
		if p.vCutClearance != 0 {
			keepouts = append(keepouts, geom.RectFromBounds(bb.MinX(), y-p.vCutClearance/2, bb.MaxX(), y+p.vCutClearance/2).Ring())
		}
	}
	return items, keepouts
}

// MakeMouseBites drills a row of holes along every cut. Cuts are prolonged by
// prolongation, the holes run offset to the left of the cut at most spacing
// apart, and only holes touching the panel material are kept.
func (p *Panel) MakeMouseBites(cuts []geom.Polyline, diameter, spacing, offset, prolongation float64) {
	reach := geom.FromMM(0.01)
	holes := 0
	for _, cut := range cuts {
		if len(cut) < 2 {
			continue
		}
		cut = cut.Simplify(geom.FromMM(0.001)).Prolong(prolongation)
		line := cut.ParallelOffset(offset)
		length := line.Length()
		count := 1
		if spacing > 0 {
			count = int(length/spacing) + 1
		}
		for i := 0; i < count; i++ {
			var hole geom.Point
			if count == 1 {
				hole = line.Interpolate(length / 2)
			} else {
				hole = line.Interpolate(float64(i) * length / float64(count-1))
			}
			if p.boardSubstrate.DistanceTo(hole) <= reach {
				p.AddNPTHole(hole, diameter, false)
				holes++
			}
		}
	}
	p.log.Debug("mouse bites", "cuts", len(cuts), "holes", holes)
}

// keepoutZone turns area into a rule area on both copper layers.
func keepoutZone(area substrate.Shape, rules board.KeepoutRules) *board.Zone {
	holes := make([]geom.Ring, len(area.Holes))
	for i, h := range area.Holes {
		holes[i] = append(geom.Ring(nil), h...)
	}
	return &board.Zone{
		Outline: append(geom.Ring(nil), area.Exterior...),
		Holes:   holes,
		Layers:  []board.Layer{board.FCu, board.BCu},
		Keepout: &rules,
	}
}
