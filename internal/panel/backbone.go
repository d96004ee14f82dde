package panel

import (
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/partition"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// BuildPartitionLineFromBB computes the partition lines of every board and
// the backbone lines of the panel from the board bounding boxes. Ghosts are
// substrates to come, such as a frame: boards facing them split the gap with
// them, but no backbone runs along them.
func (p *Panel) BuildPartitionLineFromBB(ghosts []*substrate.Substrate, safeMargin float64) {
	boards := make([]geom.Rect, len(p.substrates))
	for i, s := range p.substrates {
		boards[i] = s.BoundingBox()
	}
	ghostBoxes := make([]geom.Rect, len(ghosts))
	for i, g := range ghosts {
		ghostBoxes[i] = g.BoundingBox()
	}
	part := partition.NewPartition(boards, ghostBoxes, safeMargin, safeMargin)
	p.partitionLines = make([][]geom.Polyline, len(p.substrates))
	for i := range p.substrates {
		p.partitionLines[i] = part.PartitionPolylines(i)
	}
	p.backboneLines = part.Backbone(p.boardSubstrate.BoundingBox())
	p.log.Debug("partition built", "boards", len(boards), "ghosts", len(ghosts), "backbone", len(p.backboneLines))
}

// RenderBackbone turns the backbone lines into material: vertical lines
// vThickness wide and horizontal ones hThickness wide. A zero thickness skips
// that direction. With vCut or hCut set it returns cuts across the backbone
// next to every junction, so the backbone breaks off between the boards.
func (p *Panel) RenderBackbone(vThickness, hThickness float64, vCut, hCut bool) []geom.Polyline {
	junctions := make(map[geom.Point]int)
	for _, l := range p.backboneLines {
		junctions[l.Start()]++
		junctions[l.End()]++
	}

	var pieces []geom.Ring
	var cuts []geom.Polyline
	hv, hh := vThickness/2, hThickness/2
	for _, l := range p.backboneLines {
		start, end := l.Start(), l.End()
		if start.Y == end.Y && hThickness > 0 {
			pieces = append(pieces, geom.RectFromBounds(min(start.X, end.X), start.Y-hh, max(start.X, end.X), start.Y+hh).Ring())
			if hCut {
				for _, c := range backboneCutCandidates(junctions, start, end, geom.Pt(hv, 0)) {
					cuts = append(cuts, geom.Segment(
						geom.Pt(c.at.X, c.at.Y-c.sign*hh),
						geom.Pt(c.at.X, c.at.Y+c.sign*hh)))
				}
			}
		}
		if start.X == end.X && vThickness > 0 {
			pieces = append(pieces, geom.RectFromBounds(start.X-hv, min(start.Y, end.Y), start.X+hv, max(start.Y, end.Y)).Ring())
			if vCut {
				for _, c := range backboneCutCandidates(junctions, start, end, geom.Pt(0, hh)) {
					// Vertical cuts run the other way round.
					cuts = append(cuts, geom.Segment(
						geom.Pt(c.at.X+c.sign*hv, c.at.Y),
						geom.Pt(c.at.X-c.sign*hv, c.at.Y)))
				}
			}
		}
	}
	p.appendPieces(pieces)
	p.log.Debug("backbone rendered", "pieces", len(pieces), "cuts", len(cuts))
	return cuts
}

type backboneCut struct {
	at   geom.Point
	sign float64
}

// backboneCutCandidates places cuts at the ends of a backbone line. A start
// in a junction of three or more lines gets a cut just past the crossing
// backbone (shift is half its thickness); an end gets one at the end of a
// plain corner or just before a crossing.
func backboneCutCandidates(junctions map[geom.Point]int, start, end, shift geom.Point) []backboneCut {
	var out []backboneCut
	if junctions[start] > 2 {
		out = append(out, backboneCut{at: start.Add(shift), sign: -1})
	}
	switch n := junctions[end]; {
	case n == 2:
		out = append(out, backboneCut{at: end, sign: 1})
	case n > 2:
		out = append(out, backboneCut{at: end.Sub(shift), sign: 1})
	}
	return out
}
