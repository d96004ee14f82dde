package engine

import (
	"fmt"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/model"
	"github.com/piwi3910/PanelCut/internal/panel"
)

// MeasureBoards fills in the outline size of every board from its file, and
// its thickness when not set. Boards are returned as copies.
func MeasureBoards(loader board.Loader, boards []model.Board) ([]model.Board, error) {
	measured := make([]model.Board, len(boards))
	for i, b := range boards {
		src, err := loader.Load(b.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to measure board %s: %w", b.Label, err)
		}
		bb, err := src.EdgeBoundingBox(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to measure board %s: %w", b.Label, err)
		}
		b.Width = geom.ToMM(bb.W)
		b.Height = geom.ToMM(bb.H)
		if b.Thickness == 0 {
			b.Thickness = geom.ToMM(src.Thickness)
		}
		if b.Quantity == 0 {
			b.Quantity = 1
		}
		measured[i] = b
	}
	return measured, nil
}

// ToLayoutItems converts the placements of a packed blank into panel layout
// items with the blank's top-left corner at origin. Items are meant to be
// appended with the top-left origin: a rotated board turns about that corner
// and so sits left of its destination.
func ToLayoutItems(pl model.PanelLayout, origin geom.Point) []panel.LayoutItem {
	items := make([]panel.LayoutItem, 0, len(pl.Placements))
	for _, p := range pl.Placements {
		x := p.X
		rotation := 0.0
		if p.Rotated {
			x += p.PlacedWidth()
			rotation = 90
		}
		items = append(items, panel.LayoutItem{
			Path:        p.Board.Path,
			Destination: origin.Add(geom.Pt(geom.FromMM(x), geom.FromMM(p.Y))),
			Rotation:    rotation,
		})
	}
	return items
}

// cornerClearance is the corner area tooling holes and fiducials need when
// there is no frame to hold them.
func cornerClearance(t model.ToolingSettings, f model.FiducialSettings) (w, h float64) {
	if t.Count > 0 {
		w = max(w, t.HOffset+t.Size)
		h = max(h, t.VOffset+t.Size)
	}
	if f.Count > 0 {
		w = max(w, f.HOffset+f.Opening)
		h = max(h, f.VOffset+f.Opening)
	}
	return w, h
}
