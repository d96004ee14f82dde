package panel

import (
	"fmt"
	"strings"

	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// PlacementClass decides which boards of a grid are turned upside down.
type PlacementClass int

const (
	BasicGrid PlacementClass = iota
	// OddEvenRows rotates every odd row by 180°.
	OddEvenRows
	// OddEvenColumns rotates every odd column by 180°.
	OddEvenColumns
	// OddEvenRowsColumns rotates boards in an odd row and an odd column.
	OddEvenRowsColumns
)

var placementNames = [...]string{"grid", "rows", "columns", "rowscols"}

func (c PlacementClass) String() string {
	if c < 0 || int(c) >= len(placementNames) {
		return fmt.Sprintf("PlacementClass(%d)", int(c))
	}
	return placementNames[c]
}

// ParsePlacementClass reads a placement class name as printed by String.
func ParsePlacementClass(s string) (PlacementClass, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range placementNames {
		if n == s {
			return PlacementClass(i), nil
		}
	}
	return BasicGrid, fmt.Errorf("unknown placement class %q", s)
}

// Rotation returns the extra rotation of the board in row i, column j.
func (c PlacementClass) Rotation(i, j int) float64 {
	var odd bool
	switch c {
	case OddEvenRows:
		odd = i%2 == 1
	case OddEvenColumns:
		odd = j%2 == 1
	case OddEvenRowsColumns:
		odd = (i*j)%2 == 1
	}
	if odd {
		return 180
	}
	return 0
}

// GridOptions describe a rows × cols grid of copies of one board.
//
// "Ver" settings apply to the top and bottom sides of the boards and the
// spacing between rows; "Hor" settings to the left and right sides and the
// spacing between columns. A tab count of zero adds no tabs on those sides;
// a tab width of zero makes full-width tabs.
type GridOptions struct {
	Rows, Cols  int
	Destination geom.Point
	SourceArea  *geom.Rect
	Tolerance   float64
	Rotation    float64
	Placement   PlacementClass

	VerSpace, HorSpace       float64
	VerTabCount, HorTabCount int
	VerTabWidth, HorTabWidth float64

	OuterVerTabThickness, OuterHorTabThickness float64
	ForceOuterCutsH, ForceOuterCutsV           bool

	NetRenamePattern string
	RefRenamePattern string
}

// grid is the geometry of a placed grid: cell (i, j) has its top-left
// corner at dest plus whole board sizes and spaces.
type grid struct {
	dest       geom.Point
	size       geom.Rect
	rows, cols int
	hs, vs     float64
}

func (g grid) cell(i, j int) geom.Rect {
	return geom.Rect{
		X: g.dest.X + float64(j)*(g.size.W+g.hs),
		Y: g.dest.Y + float64(i)*(g.size.H+g.vs),
		W: g.size.W,
		H: g.size.H,
	}
}

func (g grid) width() float64 {
	return float64(g.cols)*g.size.W + float64(g.cols-1)*g.hs
}

func (g grid) height() float64 {
	return float64(g.rows)*g.size.H + float64(g.rows-1)*g.vs
}

func (g grid) rect() geom.Rect {
	return geom.Rect{X: g.dest.X, Y: g.dest.Y, W: g.width(), H: g.height()}
}

func renamer(pattern string) Renamer {
	if pattern == "" {
		pattern = DefaultRenamePattern
	}
	return PatternRenamer(pattern)
}

// placeBoardsInGrid appends the boards centred on their cells and returns the
// grid geometry aligned with the first board.
func (p *Panel) placeBoardsInGrid(path string, o GridOptions) (grid, error) {
	if o.Rows < 1 || o.Cols < 1 {
		return grid{}, panelErrorf("grid needs at least one row and one column, got %d×%d", o.Rows, o.Cols)
	}
	var size, first geom.Rect
	for i := 0; i < o.Rows; i++ {
		for j := 0; j < o.Cols; j++ {
			dest := geom.Pt(
				o.Destination.X+float64(j)*(size.W+o.HorSpace),
				o.Destination.Y+float64(i)*(size.H+o.VerSpace))
			bb, err := p.AppendBoard(path, dest, AppendOptions{
				SourceArea: o.SourceArea,
				Tolerance:  o.Tolerance,
				Origin:     Center,
				Rotation:   o.Rotation + o.Placement.Rotation(i, j),
				NetRenamer: renamer(o.NetRenamePattern),
				RefRenamer: renamer(o.RefRenamePattern),
			})
			if err != nil {
				return grid{}, err
			}
			if i == 0 && j == 0 {
				first = bb
			}
			size = bb
		}
	}
	p.log.Debug("grid placed", "rows", o.Rows, "cols", o.Cols, "placement", o.Placement.String())
	return grid{
		dest: geom.Pt(first.X, first.Y),
		size: first,
		rows: o.Rows, cols: o.Cols,
		hs: o.HorSpace, vs: o.VerSpace,
	}, nil
}

// MakeGrid places a grid of copies of the board at path and connects them
// with tabs. It returns the grid bounding box, outer tabs excluded, and the
// cuts separating the boards from the tabs.
func (p *Panel) MakeGrid(path string, o GridOptions) (geom.Rect, []geom.Polyline, error) {
	g, err := p.placeBoardsInGrid(path, o)
	if err != nil {
		return geom.Rect{}, nil, err
	}

	var rings []geom.Ring
	var pieces []*substrate.Substrate
	var cuts []geom.Polyline
	if o.VerTabCount > 0 {
		if o.VerTabWidth == 0 {
			r, c := g.fullVerticalTabs(o.OuterVerTabThickness, o.OuterHorTabThickness, o.ForceOuterCutsV)
			rings, cuts = append(rings, r...), append(cuts, c...)
		} else {
			s, c, err := p.verGridTabs(g, o.VerTabWidth, o.VerTabCount, o.OuterVerTabThickness)
			if err != nil {
				return geom.Rect{}, nil, err
			}
			pieces, cuts = append(pieces, s...), append(cuts, c...)
		}
	}
	if o.HorTabCount > 0 {
		if o.HorTabWidth == 0 {
			r, c := g.fullHorizontalTabs(o.OuterVerTabThickness, o.OuterHorTabThickness, o.ForceOuterCutsH)
			rings, cuts = append(rings, r...), append(cuts, c...)
		} else {
			s, c, err := p.horGridTabs(g, o.HorTabWidth, o.HorTabCount, o.OuterHorTabThickness)
			if err != nil {
				return geom.Rect{}, nil, err
			}
			pieces, cuts = append(pieces, s...), append(cuts, c...)
		}
	}
	p.appendPieces(rings)
	p.boardSubstrate.Union(pieces...)
	p.log.Debug("grid tabs", "full", len(rings), "discrete", len(pieces), "cuts", len(cuts))
	return g.rect(), cuts, nil
}

// MakeTightGrid places a grid like MakeGrid inside a width × height frame.
// The frame fills the panel except for a slot of slotWidth milled around
// every board; tabs bridge the slot. Full-width tabs are not available.
func (p *Panel) MakeTightGrid(path string, o GridOptions, slotWidth, width, height float64) (geom.Rect, []geom.Polyline, error) {
	g, err := p.placeBoardsInGrid(path, o)
	if err != nil {
		return geom.Rect{}, nil, err
	}
	panelRect := g.rect()

	var pieces []*substrate.Substrate
	var cuts []geom.Polyline
	if o.VerTabCount > 0 {
		s, c, err := p.verGridTabs(g, o.VerTabWidth, o.VerTabCount, slotWidth)
		if err != nil {
			return geom.Rect{}, nil, err
		}
		pieces, cuts = append(pieces, s...), append(cuts, c...)
	}
	if o.HorTabCount > 0 {
		s, c, err := p.horGridTabs(g, o.HorTabWidth, o.HorTabCount, slotWidth)
		if err != nil {
			return geom.Rect{}, nil, err
		}
		pieces, cuts = append(pieces, s...), append(cuts, c...)
	}

	xDiff := (width - panelRect.W) / 2
	yDiff := (height - panelRect.H) / 2
	if xDiff < 0 || yDiff < 0 {
		return geom.Rect{}, nil, panelErrorf("the frame is too small: %g × %g mm cannot hold a %g × %g mm grid",
			geom.ToMM(width), geom.ToMM(height), geom.ToMM(panelRect.W), geom.ToMM(panelRect.H))
	}
	outer := panelRect.Expand(xDiff, yDiff)
	frame := substrate.FromRect(outer)
	frame.Difference(p.boardSubstrate.Exterior().Buffer(slotWidth))
	p.boardSubstrate.Union(frame)
	p.boardSubstrate.Union(pieces...)
	if o.VerTabCount != 0 || o.HorTabCount != 0 {
		p.boardSubstrate.RemoveIslands()
	}
	return outer, cuts, nil
}

// fullVerticalTabs fills the spaces between rows across the whole grid
// width. Outer tabs run along the top and bottom of the grid.
func (g grid) fullVerticalTabs(outerVer, outerHor float64, forceOuterCuts bool) ([]geom.Ring, []geom.Polyline) {
	d := g.dest
	w, h := g.width(), g.height()
	pt := func(x, y float64) geom.Point { return geom.Pt(d.X+x, d.Y+y) }
	var rings []geom.Ring
	var cuts []geom.Polyline
	for i := 0; i < g.rows-1; i++ {
		pos := float64(i+1)*g.size.H + float64(i)*g.vs
		tl, tr := pt(-outerHor, pos), pt(w+outerHor, pos)
		br, bl := pt(w+outerHor, pos+g.vs), pt(-outerHor, pos+g.vs)
		if g.vs > 0 {
			rings = append(rings, geom.Ring{tl, tr, br, bl})
			cuts = append(cuts, geom.Segment(tr, tl))
		}
		cuts = append(cuts, geom.Segment(bl, br))
	}
	if outerVer > 0 {
		rings = append(rings,
			geom.Ring{pt(-outerHor, 0), pt(-outerHor, -outerVer), pt(w+outerHor, -outerVer), pt(w+outerHor, 0)},
			geom.Ring{pt(-outerHor, h), pt(-outerHor, h+outerVer), pt(w+outerHor, h+outerVer), pt(w+outerHor, h)})
	}
	if forceOuterCuts || outerVer > 0 {
		cuts = append(cuts,
			geom.Segment(pt(-outerHor, 0), pt(w+outerHor, 0)),
			geom.Segment(pt(w+outerHor, h), pt(-outerHor, h)))
	}
	return rings, cuts
}

// fullHorizontalTabs fills the spaces between columns across the whole grid
// height. Outer tabs run along the left and right of the grid.
func (g grid) fullHorizontalTabs(outerVer, outerHor float64, forceOuterCuts bool) ([]geom.Ring, []geom.Polyline) {
	d := g.dest
	w, h := g.width(), g.height()
	pt := func(x, y float64) geom.Point { return geom.Pt(d.X+x, d.Y+y) }
	var rings []geom.Ring
	var cuts []geom.Polyline
	for j := 0; j < g.cols-1; j++ {
		pos := float64(j+1)*g.size.W + float64(j)*g.hs
		tl, tr := pt(pos, -outerVer), pt(pos+g.hs, -outerVer)
		br, bl := pt(pos+g.hs, h+outerVer), pt(pos, h+outerVer)
		if g.hs > 0 {
			rings = append(rings, geom.Ring{tl, tr, br, bl})
			cuts = append(cuts, geom.Segment(tl, bl))
		}
		cuts = append(cuts, geom.Segment(br, tr))
	}
	if outerHor > 0 {
		rings = append(rings,
			geom.Ring{pt(-outerHor, -outerVer), pt(0, -outerVer), pt(0, h+outerVer), pt(-outerHor, h+outerVer)},
			geom.Ring{pt(w+outerHor, -outerVer), pt(w, -outerVer), pt(w, h+outerVer), pt(w+outerHor, h+outerVer)})
	}
	if forceOuterCuts || outerHor > 0 {
		cuts = append(cuts,
			geom.Segment(pt(0, h+outerVer), pt(0, -outerVer)),
			geom.Segment(pt(w, -outerVer), pt(w, h+outerVer)))
	}
	return rings, cuts
}

// gridTabCount clamps a requested per-cell tab count to what fits on an edge.
func gridTabCount(edge, width float64, count int) int {
	return max(0, min(count, MaxTabCount(edge, width, 0)))
}

// verGridTabs builds tabs on the top and bottom sides of every cell.
func (p *Panel) verGridTabs(g grid, width float64, count int, outer float64) ([]*substrate.Substrate, []geom.Polyline, error) {
	var pieces []*substrate.Substrate
	var cuts []geom.Polyline
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			c := g.cell(i, j)
			for _, off := range TabSpacing(c.W, gridTabCount(c.W, width, count)) {
				x := c.X + off
				if i == 0 && outer > 0 {
					s, cut, err := p.outerTab(geom.Pt(x, c.MinY()-outer), geom.Pt(0, 1), width)
					if err != nil {
						return nil, nil, err
					}
					pieces, cuts = appendTab(pieces, cuts, s, cut)
				}
				if i == g.rows-1 && outer > 0 {
					s, cut, err := p.outerTab(geom.Pt(x, c.MaxY()+outer), geom.Pt(0, -1), width)
					if err != nil {
						return nil, nil, err
					}
					pieces, cuts = appendTab(pieces, cuts, s, cut)
				}
				if i < g.rows-1 && g.vs > 0 {
					s, cut, err := p.gapTab(geom.Pt(x, c.MaxY()+g.vs/2), geom.Pt(0, 1), width)
					if err != nil {
						return nil, nil, err
					}
					pieces, cuts = appendTab(pieces, cuts, s, cut)
				}
			}
		}
	}
	return pieces, cuts, nil
}

// horGridTabs builds tabs on the left and right sides of every cell.
func (p *Panel) horGridTabs(g grid, width float64, count int, outer float64) ([]*substrate.Substrate, []geom.Polyline, error) {
	var pieces []*substrate.Substrate
	var cuts []geom.Polyline
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			c := g.cell(i, j)
			for _, off := range TabSpacing(c.H, gridTabCount(c.H, width, count)) {
				y := c.Y + off
				if j == 0 && outer > 0 {
					s, cut, err := p.outerTab(geom.Pt(c.MinX()-outer, y), geom.Pt(1, 0), width)
					if err != nil {
						return nil, nil, err
					}
					pieces, cuts = appendTab(pieces, cuts, s, cut)
				}
				if j == g.cols-1 && outer > 0 {
					s, cut, err := p.outerTab(geom.Pt(c.MaxX()+outer, y), geom.Pt(-1, 0), width)
					if err != nil {
						return nil, nil, err
					}
					pieces, cuts = appendTab(pieces, cuts, s, cut)
				}
				if j < g.cols-1 && g.hs > 0 {
					s, cut, err := p.gapTab(geom.Pt(c.MaxX()+g.hs/2, y), geom.Pt(1, 0), width)
					if err != nil {
						return nil, nil, err
					}
					pieces, cuts = appendTab(pieces, cuts, s, cut)
				}
			}
		}
	}
	return pieces, cuts, nil
}

func appendTab(pieces []*substrate.Substrate, cuts []geom.Polyline, s *substrate.Substrate, cut geom.Polyline) ([]*substrate.Substrate, []geom.Polyline) {
	if s == nil {
		return pieces, cuts
	}
	return append(pieces, s), append(cuts, cut)
}

var tabGrow = geom.FromMM(0.01)

// outerTab builds a tab from origin, outside the grid, to the board face it
// heads for. The cut runs along the face.
func (p *Panel) outerTab(origin, dir geom.Point, width float64) (*substrate.Substrate, geom.Polyline, error) {
	t, err := p.boardSubstrate.Tab(origin, dir, width, nil, DefaultTabMaxLength)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build outer tab: %w", err)
	}
	if t == nil {
		return nil, nil, nil
	}
	p.tabs = append(p.tabs, *t)
	return substrate.FromRing(t.Polygon).BufferMitre(tabGrow), t.Cut, nil
}

// gapTab bridges the gap whose midline passes through mid: one half heads
// along dir to the board on that side, the other half against dir. The cut
// runs along the midline.
func (p *Panel) gapTab(mid, dir geom.Point, width float64) (*substrate.Substrate, geom.Polyline, error) {
	a, err := p.boardSubstrate.Tab(mid, dir, width, nil, DefaultTabMaxLength)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build tab: %w", err)
	}
	b, err := p.boardSubstrate.Tab(mid, dir.Mul(-1), width, nil, DefaultTabMaxLength)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build tab: %w", err)
	}
	if a == nil || b == nil {
		return nil, nil, nil
	}
	s := substrate.FromRing(a.Polygon).BufferMitre(tabGrow)
	s.Union(substrate.FromRing(b.Polygon).BufferMitre(tabGrow))

	half := dir.Perp().Mul(width / 2)
	cut := geom.Segment(mid.Sub(half), mid.Add(half))
	tab := substrate.Tab{Cut: cut}
	if shapes := s.Shapes(); len(shapes) > 0 {
		tab.Polygon = shapes[0].Exterior.Oriented(true)
	}
	p.tabs = append(p.tabs, tab)
	return s, cut, nil
}
