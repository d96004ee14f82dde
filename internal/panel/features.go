package panel

import (
	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// AddNPTHole drills a non-plated hole. With paste set the hole also opens
// the paste layers.
func (p *Panel) AddNPTHole(position geom.Point, diameter float64, paste bool) {
	p.board.Add(board.NPTH(position, diameter, paste))
}

// AddFiducial places a round copper pad with a solder mask opening on the
// top side, or on the bottom side when bottom is set.
func (p *Panel) AddFiducial(position geom.Point, copperDiameter, openingDiameter float64, bottom bool) {
	p.board.Add(board.Fiducial(position, copperDiameter, openingDiameter, bottom))
}

// PanelCorners returns the top-left, top-right, bottom-left and bottom-right
// corners of the panel, moved inwards by the offsets.
func (p *Panel) PanelCorners(hOffset, vOffset float64) [4]geom.Point {
	minX, minY, maxX, maxY := p.boardSubstrate.Bounds()
	return [4]geom.Point{
		geom.Pt(minX+hOffset, minY+vOffset),
		geom.Pt(maxX-hOffset, minY+vOffset),
		geom.Pt(minX+hOffset, maxY-vOffset),
		geom.Pt(maxX-hOffset, maxY-vOffset),
	}
}

// AddCornerTooling drills up to four tooling holes in the panel corners, in
// the order of PanelCorners. There must be material (frame or rails) there.
func (p *Panel) AddCornerTooling(count int, hOffset, vOffset, diameter float64, paste bool) {
	corners := p.PanelCorners(hOffset, vOffset)
	for _, c := range corners[:max(0, min(count, len(corners)))] {
		p.AddNPTHole(c, diameter, paste)
	}
}

// AddCornerFiducials places up to four fiducial pairs, top and bottom, in
// the panel corners.
func (p *Panel) AddCornerFiducials(count int, hOffset, vOffset, copperDiameter, openingDiameter float64) {
	corners := p.PanelCorners(hOffset, vOffset)
	for _, c := range corners[:max(0, min(count, len(corners)))] {
		p.AddFiducial(c, copperDiameter, openingDiameter, false)
		p.AddFiducial(c, copperDiameter, openingDiameter, true)
	}
}

// AddMillFillets rounds the inner corners of the panel the way a mill of the
// given radius leaves them.
func (p *Panel) AddMillFillets(radius float64) {
	p.boardSubstrate.MillFillets(radius)
}

// AddKeepout adds a rule area on both copper layers and returns it.
func (p *Panel) AddKeepout(area substrate.Shape, rules board.KeepoutRules) *board.Zone {
	z := keepoutZone(area, rules)
	p.board.Add(z)
	return z
}

// CopperFillNonBoardAreas pours copper on both outer layers over everything
// that is not a board: frame, rails and tabs. The panel must be one piece.
func (p *Panel) CopperFillNonBoardAreas() error {
	if !p.boardSubstrate.IsSinglePiece() {
		return panelErrorf("the substrate has to be a single piece to fill unused areas")
	}
	p.board.RaiseZonePriorities(1)

	outline := p.boardSubstrate.Exterior().Shapes()[0].Exterior.Oriented(true)
	var holes []geom.Ring
	for _, s := range p.substrates {
		for _, sh := range s.Exterior().Shapes() {
			holes = append(holes, sh.Exterior.Oriented(false))
		}
	}
	for _, layer := range []board.Layer{board.FCu, board.BCu} {
		z := &board.Zone{Outline: outline, Holes: holes, Layers: []board.Layer{layer}}
		p.board.Add(z.Clone())
	}
	return nil
}

// AddText places a text on the panel, mirrored when on a bottom layer.
func (p *Panel) AddText(text string, position geom.Point, angle, height float64, layer board.Layer) {
	p.board.Add(&board.Text{
		Text:      text,
		Position:  position,
		Angle:     angle,
		Height:    height,
		Thickness: height / 5,
		Justify:   "center",
		Mirrored:  layer.IsBottom(),
		OnLayer:   layer,
	})
}
