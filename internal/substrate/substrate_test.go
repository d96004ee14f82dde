package substrate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PanelCut/internal/geom"
)

var mm = geom.FromMM

func mm2(a float64) float64 { return a * mm(1) * mm(1) }

func rectMM(x, y, w, h float64) geom.Rect {
	return geom.Rect{X: mm(x), Y: mm(y), W: mm(w), H: mm(h)}
}

func assertRectNear(t *testing.T, want, got geom.Rect, tol float64) {
	t.Helper()
	assert.InDelta(t, want.MinX(), got.MinX(), tol, "minX")
	assert.InDelta(t, want.MinY(), got.MinY(), tol, "minY")
	assert.InDelta(t, want.MaxX(), got.MaxX(), tol, "maxX")
	assert.InDelta(t, want.MaxY(), got.MaxY(), tol, "maxY")
}

// ─── Boolean Operations ───

func TestUnion_Idempotent(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	s.Union(FromRect(rectMM(0, 0, 10, 10)))

	require.True(t, s.IsSinglePiece())
	assert.InDelta(t, mm2(100), s.Area(), mm2(1e-6))
	assertRectNear(t, rectMM(0, 0, 10, 10), s.BoundingBox(), 1e-6)
}

func TestUnion_MergesOverlappingShapes(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	s.Union(FromRect(rectMM(5, 0, 10, 10)))

	require.True(t, s.IsSinglePiece())
	assert.InDelta(t, mm2(150), s.Area(), mm2(1e-6))
}

func TestUnion_KeepsDisjointShapesApart(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	s.Union(FromRect(rectMM(20, 0, 10, 10)), nil)

	assert.Len(t, s.Shapes(), 2)
	assert.Equal(t, rectMM(0, 0, 30, 10), s.BoundingBox())
}

func TestDifference_CreatesHole(t *testing.T) {
	s := FromRect(rectMM(0, 0, 30, 30))
	s.Difference(FromRect(rectMM(10, 10, 10, 10)))

	shapes := s.Shapes()
	require.Len(t, shapes, 1)
	require.Len(t, shapes[0].Holes, 1)
	assert.InDelta(t, mm2(800), s.Area(), mm2(1e-6))
	assert.False(t, s.Contains(geom.Pt(mm(15), mm(15))))
	assert.True(t, s.Contains(geom.Pt(mm(5), mm(15))))
}

func TestSerialize_CanonicalWinding(t *testing.T) {
	s := FromRect(rectMM(0, 0, 30, 30))
	s.Difference(FromRect(rectMM(10, 10, 10, 10)))

	rings := s.Serialize()
	require.Len(t, rings, 2)
	assert.True(t, rings[0].IsCCW(), "exterior is counter-clockwise")
	assert.False(t, rings[1].IsCCW(), "hole is clockwise")
}

func TestExterior_FillsHoles(t *testing.T) {
	s := FromRect(rectMM(0, 0, 30, 30))
	s.Difference(FromRect(rectMM(10, 10, 10, 10)))

	ext := s.Exterior()
	assert.InDelta(t, mm2(900), ext.Area(), mm2(1e-6))
	// The receiver keeps its hole.
	assert.InDelta(t, mm2(800), s.Area(), mm2(1e-6))
}

func TestClone_IsIndependent(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	c := s.Clone()
	c.Union(FromRect(rectMM(20, 0, 10, 10)))

	assert.Len(t, s.Shapes(), 1)
	assert.Len(t, c.Shapes(), 2)
}

func TestDistanceTo(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	assert.Equal(t, 0.0, s.DistanceTo(geom.Pt(mm(5), mm(5))))
	assert.InDelta(t, mm(3), s.DistanceTo(geom.Pt(mm(13), mm(5))), 1e-6)
	assert.True(t, math.IsInf((&Substrate{}).DistanceTo(geom.Pt(0, 0)), 1))
}

// ─── Islands ───

func TestRemoveIslands_DropsPieceInsideHole(t *testing.T) {
	s := FromRect(rectMM(0, 0, 30, 30))
	s.Difference(FromRect(rectMM(10, 10, 10, 10)))
	s.Union(FromRect(rectMM(14.5, 12, 1, 6)))

	require.Len(t, s.Shapes(), 2, "the sliver is a separate component")
	s.RemoveIslands()

	shapes := s.Shapes()
	require.Len(t, shapes, 1)
	assert.Len(t, shapes[0].Holes, 1, "holes of the mainland survive")
	assert.InDelta(t, mm2(800), s.Area(), mm2(1e-6))
}

func TestRemoveIslands_KeepsSideBySideShapes(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	s.Union(FromRect(rectMM(20, 0, 10, 10)))
	s.RemoveIslands()
	assert.Len(t, s.Shapes(), 2)
}

// ─── Buffering ───

func TestBuffer_Grow(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	grown := s.Buffer(mm(1))

	require.True(t, grown.IsSinglePiece())
	assertRectNear(t, rectMM(-1, -1, 12, 12), grown.BoundingBox(), mm(0.001))
	// Square, four side strips and four quarter discs.
	assert.InDelta(t, mm2(100+40+math.Pi), grown.Area(), mm2(0.05))
	// The receiver is unchanged.
	assert.Equal(t, rectMM(0, 0, 10, 10), s.BoundingBox())
}

func TestBuffer_Shrink(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	shrunk := s.Buffer(-mm(1))

	require.True(t, shrunk.IsSinglePiece())
	assertRectNear(t, rectMM(1, 1, 8, 8), shrunk.BoundingBox(), mm(0.001))
	assert.InDelta(t, mm2(64), shrunk.Area(), mm2(0.01))
}

func TestBuffer_ShrinkRemovesThinParts(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 1))
	assert.True(t, s.Buffer(-mm(1)).IsEmpty())
}

func TestInflate_ConvexStaysRectangular(t *testing.T) {
	s := Inflate(rectMM(0, 0, 10, 10).Ring(), mm(2))
	assertRectNear(t, rectMM(-2, -2, 14, 14), s.BoundingBox(), 1e-6)
	assert.InDelta(t, mm2(196), s.Area(), mm2(1e-6))
}

func TestMillFillets_RoundsInnerCorner(t *testing.T) {
	lShape := geom.Ring{
		{X: 0, Y: 0}, {X: mm(20), Y: 0}, {X: mm(20), Y: mm(10)},
		{X: mm(10), Y: mm(10)}, {X: mm(10), Y: mm(20)}, {X: 0, Y: mm(20)},
	}
	s := FromRing(lShape)
	before := s.Area()
	s.MillFillets(mm(1))

	require.True(t, s.IsSinglePiece())
	assertRectNear(t, rectMM(0, 0, 20, 20), s.BoundingBox(), mm(0.01))
	added := s.Area() - before
	// A fillet of radius r fills r^2 (1 - pi/4) at the concave corner.
	assert.InDelta(t, mm2(1-math.Pi/4), added, mm2(0.08))

	for _, corner := range []geom.Point{
		geom.Pt(0, 0), geom.Pt(mm(20), 0), geom.Pt(mm(20), mm(10)), geom.Pt(mm(10), mm(20)), geom.Pt(0, mm(20)),
	} {
		assert.LessOrEqual(t, s.DistanceTo(corner), mm(0.02), "convex corner %v stays sharp", corner)
	}
	assert.True(t, s.Contains(geom.Pt(mm(10.2), mm(10.2))), "concave corner is filled")
}

func TestMillFillets_ZeroRadiusNoop(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	s.MillFillets(0)
	assert.Equal(t, rectMM(0, 0, 10, 10), s.BoundingBox())
}

// ─── Outline Extraction ───

func TestFromStrokes_ChainsLooseSegments(t *testing.T) {
	strokes := []geom.Polyline{
		geom.Segment(geom.Pt(0, 0), geom.Pt(mm(10), 0)),
		geom.Segment(geom.Pt(0, mm(10)), geom.Pt(mm(10), mm(10))),
		geom.Segment(geom.Pt(mm(10), mm(10)), geom.Pt(mm(10), 0)),
		geom.Segment(geom.Pt(0, 0), geom.Pt(0, mm(10))),
	}
	s, err := FromStrokes(strokes, 0)
	require.NoError(t, err)
	require.True(t, s.IsSinglePiece())
	assert.InDelta(t, mm2(100), s.Area(), mm2(1e-6))
}

func TestFromStrokes_NestedOutlineIsCutout(t *testing.T) {
	strokes := []geom.Polyline{
		rectMM(0, 0, 30, 30).Ring().Closed(),
		geom.CirclePolygon(geom.Pt(mm(15), mm(15)), mm(5), 64).Closed(),
	}
	s, err := FromStrokes(strokes, 0)
	require.NoError(t, err)

	shapes := s.Shapes()
	require.Len(t, shapes, 1)
	assert.Len(t, shapes[0].Holes, 1)
	assert.False(t, s.Contains(geom.Pt(mm(15), mm(15))))
}

func TestFromStrokes_Buffered(t *testing.T) {
	strokes := []geom.Polyline{rectMM(0, 0, 10, 10).Ring().Closed()}

	grown, err := FromStrokes(strokes, mm(0.001))
	require.NoError(t, err)
	assertRectNear(t, rectMM(-0.001, -0.001, 10.002, 10.002), grown.BoundingBox(), 1e-6)

	shrunk, err := FromStrokes(strokes, -mm(0.001))
	require.NoError(t, err)
	assertRectNear(t, rectMM(0.001, 0.001, 9.998, 9.998), shrunk.BoundingBox(), 1e-6)
}

func TestFromStrokes_OpenOutline(t *testing.T) {
	strokes := []geom.Polyline{
		geom.Segment(geom.Pt(0, 0), geom.Pt(mm(10), 0)),
		geom.Segment(geom.Pt(mm(10), 0), geom.Pt(mm(10), mm(10))),
		geom.Segment(geom.Pt(mm(10), mm(10)), geom.Pt(0, mm(10))),
	}
	_, err := FromStrokes(strokes, 0)
	require.Error(t, err)

	var posErr *PositionError
	require.True(t, errors.As(err, &posErr))
	assert.Contains(t, posErr.Message, "Cannot close board outline")
}

func TestPositionError_Reframe(t *testing.T) {
	err := &PositionError{Message: "broken", Point: geom.Pt(mm(1), mm(2))}
	shift := func(p geom.Point) geom.Point { return p.Add(geom.Pt(mm(10), 0)) }

	re := err.Reframe(shift, "board.dxf")
	assert.Equal(t, "board.dxf: broken", re.Message)
	assert.Equal(t, geom.Pt(mm(11), mm(2)), re.Point)
	assert.Equal(t, "broken", err.Message, "receiver is untouched")
	assert.Contains(t, re.Error(), "11.0000")
}

// ─── Tabs ───

func TestTab_WithoutPartition(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	tab, err := s.Tab(geom.Pt(mm(15), mm(5)), geom.Pt(-1, 0), mm(2), nil, mm(100))
	require.NoError(t, err)
	require.NotNil(t, tab)

	assert.InDelta(t, mm2(10), tab.Polygon.Area(), mm2(1e-6))
	assertRectNear(t, rectMM(10, 4, 5, 2), tab.Polygon.BoundingBox(), 1e-6)
	assert.InDelta(t, mm(2), tab.Cut.Length(), 1e-6)
	for _, p := range tab.Cut {
		assert.InDelta(t, mm(10), p.X, 1e-6, "cut lies on the board face")
	}
}

func TestTab_ReachesPartitionLine(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	partition := []geom.Polyline{geom.Segment(geom.Pt(mm(12), -mm(10)), geom.Pt(mm(12), mm(20)))}

	tab, err := s.Tab(geom.Pt(mm(10), mm(5)), geom.Pt(-1, 0), mm(2), partition, mm(100))
	require.NoError(t, err)
	require.NotNil(t, tab)

	assert.InDelta(t, mm2(4), tab.Polygon.Area(), mm2(1e-6))
	assertRectNear(t, rectMM(10, 4, 2, 2), tab.Polygon.BoundingBox(), 1e-6)
	assert.True(t, tab.Polygon.IsCCW())
}

func TestTab_PartitionOnTheFace(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	partition := []geom.Polyline{geom.Segment(geom.Pt(mm(10), -mm(10)), geom.Pt(mm(10), mm(20)))}

	tab, err := s.Tab(geom.Pt(mm(10), mm(5)), geom.Pt(-1, 0), mm(2), partition, mm(100))
	require.NoError(t, err)
	assert.Nil(t, tab)
}

func TestTab_PartitionOutOfReach(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	partition := []geom.Polyline{geom.Segment(geom.Pt(mm(200), -mm(10)), geom.Pt(mm(200), mm(20)))}

	tab, err := s.Tab(geom.Pt(mm(10), mm(5)), geom.Pt(-1, 0), mm(2), partition, mm(50))
	require.NoError(t, err)
	assert.Nil(t, tab)
}

func TestTab_DirectionIsRounded(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	tab, err := s.Tab(geom.Pt(mm(15), mm(5)), geom.Pt(-1, 0.00001), mm(2), nil, mm(100))
	require.NoError(t, err)
	require.NotNil(t, tab)
	assert.InDelta(t, mm2(10), tab.Polygon.Area(), mm2(1e-6))
}

func TestTab_MissingSubstrate(t *testing.T) {
	s := FromRect(rectMM(0, 0, 10, 10))
	origin := geom.Pt(mm(50), mm(50))
	_, err := s.Tab(origin, geom.Pt(1, 0), mm(2), nil, mm(100))

	var posErr *PositionError
	require.True(t, errors.As(err, &posErr))
	assert.Equal(t, origin, posErr.Point)
}
