package panel

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

var mm = geom.FromMM

// rectBoard returns a w × h mm board with its top-left corner at the origin.
func rectBoard(w, h float64) *board.Board {
	b := board.New()
	c := []geom.Point{geom.Pt(0, 0), geom.Pt(mm(w), 0), geom.Pt(mm(w), mm(h)), geom.Pt(0, mm(h))}
	for i := range c {
		b.Add(&board.Segment{Start: c[i], End: c[(i+1)%4], Width: mm(0.1), OnLayer: board.EdgeCuts})
	}
	return b
}

func newPanel(t *testing.T, boards map[string]*board.Board, opts ...Option) (*Panel, *board.Store) {
	t.Helper()
	store := board.NewStore()
	for path, b := range boards {
		store.Put(path, b)
	}
	return New(store, opts...), store
}

func countNPTH(b *board.Board) int {
	n := 0
	for _, f := range b.Footprints {
		if f.Name == "NPTH" {
			n++
		}
	}
	return n
}

// ─── Tab Counting ───

func TestMaxTabCount_ZeroForShortEdge(t *testing.T) {
	assert.Equal(t, 0, MaxTabCount(mm(2), mm(3), mm(1)))
	assert.Equal(t, 1, MaxTabCount(mm(3), mm(3), mm(1)))
}

func TestMaxTabCount_Monotonic(t *testing.T) {
	edge := mm(100)
	prev := MaxTabCount(edge, mm(1), mm(5))
	for w := 2.0; w <= 40; w++ {
		c := MaxTabCount(edge, mm(w), mm(5))
		assert.LessOrEqual(t, c, prev, "width %g", w)
		prev = c
	}
	prev = MaxTabCount(edge, mm(3), mm(0.5))
	for d := 1.0; d <= 60; d++ {
		c := MaxTabCount(edge, mm(3), mm(d))
		assert.LessOrEqual(t, c, prev, "distance %g", d)
		prev = c
	}
}

func TestTabSpacing_NoTabsBelowOne(t *testing.T) {
	assert.Empty(t, TabSpacing(mm(20), 0))
	assert.Empty(t, TabSpacing(mm(20), -1))
}

func TestTabSpacing(t *testing.T) {
	for n := 1; n <= 7; n++ {
		offsets := TabSpacing(mm(20), n)
		require.Len(t, offsets, n)
		for i, o := range offsets {
			assert.Greater(t, o, 0.0)
			assert.Less(t, o, mm(20))
			if i > 0 {
				assert.Greater(t, o, offsets[i-1])
			}
		}
	}
	assert.Equal(t, []float64{mm(10)}, TabSpacing(mm(20), 1))
}

// ─── Appending Boards ───

func TestAppendBoard_PlacesAndRenames(t *testing.T) {
	b := rectBoard(20, 10)
	b.AddNet("GND")
	b.Add(&board.Track{Start: geom.Pt(mm(1), mm(1)), End: geom.Pt(mm(5), mm(1)), Width: mm(0.2), Net: "GND", OnLayer: board.FCu})
	b.Add(&board.Footprint{Reference: "R1", Position: geom.Pt(mm(5), mm(5)), OnLayer: board.FCu})
	p, _ := newPanel(t, map[string]*board.Board{"a.kicad_pcb": b})

	bb, err := p.AppendBoard("a.kicad_pcb", geom.Pt(mm(100), mm(100)), AppendOptions{
		RefRenamer: PatternRenamer("{orig}-{n}"),
	})
	require.NoError(t, err)

	assert.InDelta(t, mm(90), bb.MinX(), 1e-6)
	assert.InDelta(t, mm(95), bb.MinY(), 1e-6)
	assert.Equal(t, 1, p.BoardCount())
	assert.Equal(t, []string{"Board_1-GND"}, p.Board().Nets)
	require.Len(t, p.Board().Tracks, 1)
	assert.Equal(t, "Board_1-GND", p.Board().Tracks[0].Net)
	f, ok := p.Board().FootprintByReference("R1-1")
	require.True(t, ok)
	assert.InDelta(t, mm(95), f.Position.X, 1e-6)
	assert.Empty(t, p.Board().EdgeItems(), "edges become substrate, not items")
	assert.True(t, p.Substrate().IsSinglePiece())
}

func TestAppendBoard_RotatesAboutOrigin(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 10)})

	bb, err := p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{Origin: TopLeft, Rotation: 90})
	require.NoError(t, err)
	assert.InDelta(t, mm(10), bb.W, 1e-3)
	assert.InDelta(t, mm(20), bb.H, 1e-3)
	assert.InDelta(t, 0, bb.MaxX(), 1e-3)
}

func TestAppendBoard_MissingFile(t *testing.T) {
	p, _ := newPanel(t, nil)
	_, err := p.AppendBoard("nope", geom.Pt(0, 0), AppendOptions{})
	assert.ErrorIs(t, err, board.ErrNotFound)
}

func TestAppendBoard_ThicknessMismatch(t *testing.T) {
	thin := rectBoard(10, 10)
	thin.Thickness = mm(1.0)
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(10, 10), "b": thin})

	_, err := p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{})
	require.NoError(t, err)
	_, err = p.AppendBoard("b", geom.Pt(mm(20), 0), AppendOptions{})

	var pe *PanelError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "thickness")
	assert.Equal(t, 1, p.BoardCount())
}

func TestAppendBoard_CopperLayerMismatch(t *testing.T) {
	four := rectBoard(10, 10)
	four.CopperLayers = 4
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(10, 10), "b": four})

	_, err := p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{})
	require.NoError(t, err)
	_, err = p.AppendBoard("b", geom.Pt(mm(20), 0), AppendOptions{})

	var pe *PanelError
	assert.True(t, errors.As(err, &pe))
	assert.Equal(t, 1, p.BoardCount())
	assert.Len(t, p.Substrates(), 1)

	_, err = p.AppendBoard("a", geom.Pt(mm(40), 0), AppendOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, p.BoardCount())
	assert.Len(t, p.Substrates(), 2)
}

func TestAppendBoard_OpenOutlineIsReframed(t *testing.T) {
	b := board.New()
	b.Add(&board.Segment{Start: geom.Pt(0, 0), End: geom.Pt(mm(10), 0), OnLayer: board.EdgeCuts})
	b.Add(&board.Segment{Start: geom.Pt(mm(10), 0), End: geom.Pt(mm(10), mm(10)), OnLayer: board.EdgeCuts})
	b.Add(&board.Segment{Start: geom.Pt(mm(10), mm(10)), End: geom.Pt(0, mm(10)), OnLayer: board.EdgeCuts})
	b.Add(&board.Track{Start: geom.Pt(mm(2), mm(5)), End: geom.Pt(mm(8), mm(5)), Width: mm(0.2), Net: "GND", OnLayer: board.FCu})
	b.Thickness = mm(1.0)
	p, _ := newPanel(t, map[string]*board.Board{"open.kicad_pcb": b, "a": rectBoard(10, 10)})

	_, err := p.AppendBoard("open.kicad_pcb", geom.Pt(mm(200), mm(50)), AppendOptions{Rotation: 90})

	var pe *substrate.PositionError
	require.True(t, errors.As(err, &pe))
	assert.True(t, strings.HasPrefix(pe.Message, "open.kicad_pcb: Cannot close board outline"))
	tol := mm(0.001)
	assert.True(t, pe.Point.Near(geom.Pt(0, 0), tol) || pe.Point.Near(geom.Pt(0, mm(10)), tol),
		"loose end reported in source coordinates, got %v", pe.Point)

	assert.Zero(t, p.BoardCount())
	assert.Empty(t, p.Substrates())
	assert.Empty(t, p.Board().Tracks)
	assert.True(t, p.Substrate().IsEmpty())

	_, err = p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{})
	require.NoError(t, err, "a failed board does not fix the panel thickness")
}

func TestAppendBoard_TabAnnotation(t *testing.T) {
	b := rectBoard(20, 20)
	b.Add(&board.Footprint{
		Reference: "T1",
		Library:   "kikit",
		Name:      "Tab",
		Position:  geom.Pt(mm(25), mm(10)),
		Angle:     180,
		Graphics:  []board.Item{&board.Text{Text: "KIKIT: width: 3mm"}},
	})
	p, _ := newPanel(t, map[string]*board.Board{"a": b})

	_, err := p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{SourceArea: &geom.Rect{X: mm(-1), Y: mm(-1), W: mm(30), H: mm(22)}})
	require.NoError(t, err)

	anns := p.Annotations(0)
	require.Len(t, anns, 1)
	assert.Equal(t, "T1", anns[0].Ref)
	assert.Equal(t, mm(3), anns[0].Width)
	assert.InDelta(t, -1, anns[0].Direction.X, 1e-9)
	assert.Empty(t, p.Board().Footprints, "annotations are not copied")

	cuts := p.BuildTabsFromAnnotations()
	require.Len(t, cuts, 1)
	require.Len(t, p.Tabs(), 1)
	assert.InDelta(t, mm(3)*mm(5), p.Tabs()[0].Polygon.Area(), mm(0.1)*mm(1))
}

// ─── Grid ───

func TestMakeGrid_SingleBoardHasNoSpacing(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})

	rect, cuts, err := p.MakeGrid("a", GridOptions{
		Rows: 1, Cols: 1,
		VerSpace: mm(2), HorSpace: mm(2),
		VerTabCount: 1, HorTabCount: 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, mm(20), rect.W, 1e-6)
	assert.InDelta(t, mm(20), rect.H, 1e-6)
	assert.Empty(t, cuts)
}

func TestMakeGrid_DiscreteTabsAcrossGap(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})

	rect, cuts, err := p.MakeGrid("a", GridOptions{
		Rows: 1, Cols: 2,
		HorSpace:    mm(2),
		VerTabCount: 0, HorTabCount: 2, HorTabWidth: mm(3),
	})
	require.NoError(t, err)
	assert.InDelta(t, mm(42), rect.W, 1e-6)
	assert.Len(t, p.Tabs(), 2)
	assert.True(t, p.Substrate().IsSinglePiece())

	require.NoError(t, p.MakeVCuts(cuts, false))
	h, v := p.VCuts()
	assert.Empty(t, h)
	require.Len(t, v, 1)
	assert.InDelta(t, rect.X+mm(21), v[0], 1e-3)
}

func TestMakeGrid_TabCountLimitedByEdge(t *testing.T) {
	tests := []struct {
		name  string
		count int
		width float64
		want  int
	}{
		{"more tabs than fit", 10, mm(3), MaxTabCount(mm(20), mm(3), 0)},
		{"tab wider than edge", 1, mm(25), 0},
		{"negative count", -1, mm(3), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})

			_, _, err := p.MakeGrid("a", GridOptions{
				Rows: 1, Cols: 2,
				HorSpace:    mm(2),
				HorTabCount: tt.count, HorTabWidth: tt.width,
			})
			require.NoError(t, err)
			assert.Len(t, p.Tabs(), tt.want)
		})
	}
}

func TestMakeGrid_FullTabs(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 10)})

	_, cuts, err := p.MakeGrid("a", GridOptions{
		Rows: 2, Cols: 1,
		VerSpace:    mm(2),
		VerTabCount: 1,
	})
	require.NoError(t, err)
	assert.Len(t, cuts, 2)
	assert.True(t, p.Substrate().IsSinglePiece())

	require.NoError(t, p.MakeVCuts(cuts, false))
	h, _ := p.VCuts()
	assert.Len(t, h, 2)
}

func TestMakeGrid_OuterTabs(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})

	_, cuts, err := p.MakeGrid("a", GridOptions{
		Rows: 1, Cols: 1,
		HorTabCount: 1, HorTabWidth: mm(3),
		OuterHorTabThickness: mm(5),
	})
	require.NoError(t, err)
	assert.Len(t, cuts, 2)
	assert.Len(t, p.Tabs(), 2)
	assert.InDelta(t, mm(30), p.Substrate().BoundingBox().W, mm(0.05))
}

func TestMakeGrid_PlacementRotatesOddColumns(t *testing.T) {
	b := rectBoard(20, 10)
	b.Add(&board.Footprint{Reference: "R1", Position: geom.Pt(mm(2), mm(2)), OnLayer: board.FCu})
	p, _ := newPanel(t, map[string]*board.Board{"a": b})

	_, _, err := p.MakeGrid("a", GridOptions{Rows: 1, Cols: 2, HorSpace: mm(2), Placement: OddEvenColumns})
	require.NoError(t, err)

	first, ok := p.Board().FootprintByReference("Board_1-R1")
	require.True(t, ok)
	second, ok := p.Board().FootprintByReference("Board_2-R1")
	require.True(t, ok)
	assert.Equal(t, 0.0, first.Angle)
	assert.Equal(t, 180.0, second.Angle)
}

func TestMakeGrid_RejectsEmptyGrid(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})
	_, _, err := p.MakeGrid("a", GridOptions{Rows: 0, Cols: 2})

	var pe *PanelError
	assert.True(t, errors.As(err, &pe))
}

func TestPlacementClass_Rotation(t *testing.T) {
	assert.Equal(t, 0.0, BasicGrid.Rotation(1, 1))
	assert.Equal(t, 180.0, OddEvenRows.Rotation(1, 0))
	assert.Equal(t, 0.0, OddEvenRows.Rotation(0, 1))
	assert.Equal(t, 180.0, OddEvenColumns.Rotation(0, 1))
	assert.Equal(t, 180.0, OddEvenRowsColumns.Rotation(1, 3))
	assert.Equal(t, 0.0, OddEvenRowsColumns.Rotation(1, 2))

	c, err := ParsePlacementClass("rows")
	require.NoError(t, err)
	assert.Equal(t, OddEvenRows, c)
}

func TestMakeTightGrid_FrameTooSmall(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})
	_, _, err := p.MakeTightGrid("a", GridOptions{
		Rows: 1, Cols: 2, HorSpace: mm(4),
		VerTabCount: 1, HorTabCount: 1, VerTabWidth: mm(3), HorTabWidth: mm(3),
	}, mm(2), mm(40), mm(40))

	var pe *PanelError
	require.True(t, errors.As(err, &pe))
	assert.Contains(t, pe.Message, "too small")
}

func TestMakeTightGrid(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})
	outer, cuts, err := p.MakeTightGrid("a", GridOptions{
		Rows: 1, Cols: 1,
		VerTabCount: 1, HorTabCount: 1, VerTabWidth: mm(3), HorTabWidth: mm(3),
	}, mm(2), mm(40), mm(40))
	require.NoError(t, err)

	assert.InDelta(t, mm(40), outer.W, 1e-6)
	assert.Len(t, cuts, 4)
	assert.True(t, p.Substrate().IsSinglePiece())
}

// ─── Cuts ───

func TestVCuts_SameCoordinateRendersOnce(t *testing.T) {
	p, store := newPanel(t, map[string]*board.Board{"a": rectBoard(100, 100)})
	_, err := p.AppendBoard("a", geom.Pt(mm(50), mm(50)), AppendOptions{})
	require.NoError(t, err)

	p.AddVCutV(mm(50))
	p.AddVCutV(mm(50))
	require.NoError(t, p.Save(store, "panel"))

	out, err := store.Load("panel")
	require.NoError(t, err)
	segments, labels := 0, 0
	for _, d := range out.Drawings {
		switch it := d.(type) {
		case *board.Segment:
			if it.OnLayer == board.CmtsUser {
				segments++
				assert.Equal(t, mm(50), it.Start.X)
			}
		case *board.Text:
			if it.Text == "V-CUT" {
				labels++
			}
		}
	}
	assert.Equal(t, 1, segments)
	assert.Equal(t, 1, labels)
	assert.Empty(t, out.Zones)
}

func TestVCuts_ClearanceAddsKeepout(t *testing.T) {
	p, store := newPanel(t, map[string]*board.Board{"a": rectBoard(100, 100)}, WithVCutClearance(mm(1)))
	_, err := p.AppendBoard("a", geom.Pt(mm(50), mm(50)), AppendOptions{})
	require.NoError(t, err)
	p.AddVCutH(mm(30))
	require.NoError(t, p.Save(store, "panel"))

	out, err := store.Load("panel")
	require.NoError(t, err)
	require.Len(t, out.Zones, 1)
	require.NotNil(t, out.Zones[0].Keepout)
	assert.InDelta(t, mm(1), out.Zones[0].BoundingBox().H, 1e-6)
	assert.Empty(t, p.Board().Zones, "rendering does not touch the panel board")
}

func TestMakeVCuts_Errors(t *testing.T) {
	p, _ := newPanel(t, nil)

	diagonal := geom.Polyline{geom.Pt(0, 0), geom.Pt(mm(10), mm(10))}
	var ve *VCutError
	require.True(t, errors.As(p.MakeVCuts([]geom.Polyline{diagonal}, false), &ve))
	assert.Contains(t, ve.Message, "not horizontal or vertical")

	curve := geom.Polyline{geom.Pt(0, 0), geom.Pt(mm(5), mm(2)), geom.Pt(mm(10), 0)}
	require.True(t, errors.As(p.MakeVCuts([]geom.Polyline{curve}, false), &ve))
	assert.Contains(t, ve.Message, "curve")
}

func TestMakeVCuts_SkipsZeroLength(t *testing.T) {
	p, _ := newPanel(t, nil)
	pt := geom.Pt(mm(7), mm(3))

	require.NoError(t, p.MakeVCuts([]geom.Polyline{geom.Segment(pt, pt)}, false))
	h, v := p.VCuts()
	assert.Empty(t, h)
	assert.Empty(t, v)
}

func TestMakeVCuts_BoundCurves(t *testing.T) {
	p, _ := newPanel(t, nil)
	curve := geom.Polyline{geom.Pt(mm(10), 0), geom.Pt(mm(11), mm(5)), geom.Pt(mm(10.4), mm(10))}

	require.NoError(t, p.MakeVCuts([]geom.Polyline{curve}, true))
	_, v := p.VCuts()
	require.Len(t, v, 1)
	assert.InDelta(t, mm(10.2), v[0], 1e-3)
}

func TestMakeMouseBites_HoleCount(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(30, 10)})
	_, err := p.AppendBoard("a", geom.Pt(mm(15), mm(5)), AppendOptions{})
	require.NoError(t, err)

	cut := geom.Segment(geom.Pt(mm(10), mm(5)), geom.Pt(mm(20), mm(5)))
	p.MakeMouseBites([]geom.Polyline{cut}, mm(0.5), mm(2), DefaultMouseBiteOffset, DefaultMouseBiteProlongation)

	assert.Equal(t, 6, countNPTH(p.Board()))
}

func TestMakeMouseBites_SkipsHolesOffMaterial(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(30, 10)})
	_, err := p.AppendBoard("a", geom.Pt(mm(15), mm(5)), AppendOptions{})
	require.NoError(t, err)

	cut := geom.Segment(geom.Pt(mm(10), mm(50)), geom.Pt(mm(20), mm(50)))
	p.MakeMouseBites([]geom.Polyline{cut}, mm(0.5), mm(2), DefaultMouseBiteOffset, DefaultMouseBiteProlongation)

	assert.Zero(t, countNPTH(p.Board()))
}

// ─── Frames and Rails ───

func TestMakeFrame(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})
	_, err := p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{})
	require.NoError(t, err)

	cuts := p.MakeFrame(mm(5), 0, 0)
	assert.Len(t, cuts, 8)
	bb := p.Substrate().BoundingBox()
	assert.InDelta(t, mm(30), bb.W, mm(0.01))
	assert.InDelta(t, mm(30), bb.H, mm(0.01))
	assert.True(t, p.Substrate().IsSinglePiece())
}

func TestMakeFrame_KeepsSpace(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})
	_, err := p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{})
	require.NoError(t, err)

	p.MakeFrame(mm(5), mm(3), mm(2))
	bb := p.Substrate().BoundingBox()
	assert.InDelta(t, mm(36), bb.W, mm(0.01))
	assert.InDelta(t, mm(34), bb.H, mm(0.01))
	assert.False(t, p.Substrate().IsSinglePiece(), "nothing bridges the space")
}

func TestMakeTightFrame_SlotsAroundBoards(t *testing.T) {
	p := gridWithoutTabs(t, 1, 2, 6)

	p.MakeTightFrame(mm(5), mm(2), 0, 0)
	s := p.Substrate()
	assert.False(t, s.Contains(geom.Pt(mm(11), 0)), "slot")
	assert.True(t, s.Contains(geom.Pt(mm(13), 0)), "body between the boards")
	assert.True(t, s.Contains(geom.Pt(0, 0)), "board")
}

func TestMakeRails(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 10)})
	_, err := p.AppendBoard("a", geom.Pt(0, 0), AppendOptions{})
	require.NoError(t, err)

	p.MakeRailsTB(mm(5))
	assert.InDelta(t, mm(20), p.Substrate().BoundingBox().H, mm(0.01))
	p.MakeRailsLR(mm(3))
	assert.InDelta(t, mm(26), p.Substrate().BoundingBox().W, mm(0.01))
	assert.True(t, p.Substrate().IsSinglePiece())
}

// ─── Partition, Backbone and Annotation Tabs ───

func gridWithoutTabs(t *testing.T, rows, cols int, space float64) *Panel {
	t.Helper()
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 20)})
	_, _, err := p.MakeGrid("a", GridOptions{Rows: rows, Cols: cols, HorSpace: mm(space), VerSpace: mm(space)})
	require.NoError(t, err)
	return p
}

func TestAnnotationTabs_BridgeGapToPartition(t *testing.T) {
	p := gridWithoutTabs(t, 1, 2, 4)
	p.BuildPartitionLineFromBB(nil, 0)
	p.BuildTabAnnotationsFixed(1, 1, mm(3), mm(3), mm(1), nil)

	assert.Len(t, p.Annotations(0), 1)
	assert.Len(t, p.Annotations(1), 1)

	cuts := p.BuildTabsFromAnnotations()
	assert.Len(t, cuts, 2)
	assert.True(t, p.Substrate().Contains(geom.Pt(mm(11), 0)))
	assert.True(t, p.Substrate().Contains(geom.Pt(mm(13), 0)))

	p.ClearTabAnnotations()
	assert.Empty(t, p.Annotations(0))
}

func TestAnnotationTabs_GhostFrame(t *testing.T) {
	p := gridWithoutTabs(t, 1, 1, 0)
	bb := p.Substrate().BoundingBox()
	ghost := substrate.FromRect(geom.Rect{X: bb.MaxX() + mm(4), Y: bb.Y - mm(10), W: mm(5), H: bb.H + mm(20)})

	p.BuildPartitionLineFromBB([]*substrate.Substrate{ghost}, mm(2))
	p.BuildTabAnnotationsSpacing(mm(5), mm(2), mm(2), []*substrate.Substrate{ghost})

	anns := p.Annotations(0)
	assert.Equal(t, MaxTabCount(mm(20)-mm(0.002), mm(2), mm(5)), len(anns))
	for _, a := range anns {
		assert.Equal(t, geom.Pt(-1, 0), a.Direction)
	}
	assert.Empty(t, p.BackboneLines())
}

func TestAnnotationTabs_Corners(t *testing.T) {
	p := gridWithoutTabs(t, 1, 1, 0)
	p.BuildTabAnnotationsCorners(mm(2))

	anns := p.Annotations(0)
	require.Len(t, anns, 4)
	assert.InDelta(t, 1, anns[0].Direction.Len(), 1e-9)
}

func TestBuildFullTabs(t *testing.T) {
	p := gridWithoutTabs(t, 1, 2, 4)
	_, err := p.BuildFullTabs()
	require.Error(t, err, "partition lines are required")

	p.BuildPartitionLineFromBB(nil, mm(3))
	cuts, err := p.BuildFullTabs()
	require.NoError(t, err)
	assert.Len(t, cuts, 8)
	assert.True(t, p.Substrate().IsSinglePiece())
}

func TestRenderBackbone_InnerCross(t *testing.T) {
	p := gridWithoutTabs(t, 2, 2, 4)
	p.BuildPartitionLineFromBB(nil, 0)
	require.Len(t, p.BackboneLines(), 4)

	cuts := p.RenderBackbone(mm(2), mm(2), true, true)
	assert.Len(t, cuts, 4)
	assert.True(t, p.Substrate().Contains(geom.Pt(0, mm(12))))
	assert.True(t, p.Substrate().Contains(geom.Pt(mm(12), 0)))
}

// ─── Features ───

func TestCopperFill_NeedsSinglePiece(t *testing.T) {
	p := gridWithoutTabs(t, 1, 2, 4)
	var pe *PanelError
	require.True(t, errors.As(p.CopperFillNonBoardAreas(), &pe))

	p.MakeFrame(mm(5), 0, 0)
	p.Board().Add(&board.Zone{Layers: []board.Layer{board.FCu}, Priority: 3})
	require.NoError(t, p.CopperFillNonBoardAreas())

	zones := p.Board().Zones
	require.Len(t, zones, 3)
	assert.Equal(t, 4, zones[0].Priority)
	assert.Len(t, zones[1].Holes, 2)
	assert.Equal(t, board.BCu, zones[2].Layer())
}

func TestCornerTooling(t *testing.T) {
	p := gridWithoutTabs(t, 1, 1, 0)
	p.MakeFrame(mm(5), 0, 0)

	p.AddCornerTooling(2, mm(2.5), mm(2.5), mm(1.5), false)
	assert.Equal(t, 2, countNPTH(p.Board()))
	p.AddCornerFiducials(4, mm(5), mm(2.5), mm(1), mm(2))
	assert.Len(t, p.Board().Footprints, 10)

	corners := p.PanelCorners(0, 0)
	bb := p.Substrate().BoundingBox()
	assert.Equal(t, geom.Pt(bb.MinX(), bb.MinY()), corners[0])
	assert.Equal(t, geom.Pt(bb.MaxX(), bb.MaxY()), corners[3])
}

func TestAddKeepout(t *testing.T) {
	p, _ := newPanel(t, nil)
	z := p.AddKeepout(substrate.Shape{Exterior: geom.Rect{W: mm(5), H: mm(5)}.Ring()}, board.KeepoutRules{NoTracks: true})

	require.NotNil(t, z.Keepout)
	assert.True(t, z.Keepout.NoTracks)
	assert.False(t, z.Keepout.NoCopper)
	assert.Equal(t, []board.Layer{board.FCu, board.BCu}, z.Layers)
}

func TestAppendLayout(t *testing.T) {
	p, _ := newPanel(t, map[string]*board.Board{"a": rectBoard(20, 10), "b": rectBoard(10, 10)})
	boxes, err := p.AppendLayout([]LayoutItem{
		{Path: "a", Destination: geom.Pt(0, 0)},
		{Path: "b", Destination: geom.Pt(mm(20), 0), Rotation: 90},
	}, AppendOptions{Origin: TopLeft})
	require.NoError(t, err)
	require.Len(t, boxes, 2)
	assert.Equal(t, 2, p.BoardCount())

	_, err = p.AppendLayout([]LayoutItem{{Path: "missing"}}, AppendOptions{})
	assert.ErrorIs(t, err, board.ErrNotFound)
}
