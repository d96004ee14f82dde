package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/PanelCut/internal/geom"
)

func grid2x2() []geom.Rect {
	return []geom.Rect{
		{X: 0, Y: 0, W: 20, H: 20},
		{X: 22, Y: 0, W: 20, H: 20},
		{X: 0, Y: 22, W: 20, H: 20},
		{X: 22, Y: 22, W: 20, H: 20},
	}
}

// ─── Interval Tests ───

func TestIntervalSet_Subtract(t *testing.T) {
	s := IntervalSet{{Min: 0, Max: 10}}
	assert.Equal(t, IntervalSet{{Min: 0, Max: 3}, {Min: 5, Max: 10}}, s.Subtract(Interval{Min: 3, Max: 5}))
	assert.Equal(t, IntervalSet{{Min: 0, Max: 10}}, s.Subtract(Interval{Min: 10, Max: 12}), "touching is not overlapping")
	assert.True(t, s.Subtract(Interval{Min: -1, Max: 11}).Empty())
}

func TestIntervalSet_Intersect(t *testing.T) {
	s := IntervalSet{{Min: 0, Max: 3}, {Min: 5, Max: 10}}
	assert.Equal(t, IntervalSet{{Min: 2, Max: 3}, {Min: 5, Max: 6}}, s.Intersect(Interval{Min: 2, Max: 6}))
	assert.True(t, s.Intersect(Interval{Min: 3, Max: 5}).Empty())
}

func TestIntervalSet_Union(t *testing.T) {
	s := IntervalSet{{Min: 5, Max: 10}}
	u := s.Union(IntervalSet{{Min: 0, Max: 5}, {Min: 12, Max: 13}})
	assert.Equal(t, IntervalSet{{Min: 0, Max: 10}, {Min: 12, Max: 13}}, u)
	assert.InDelta(t, 11, u.Length(), 1e-12)
}

// ─── AxialLine Tests ───

func TestAxialLine_Cut(t *testing.T) {
	l := AxialLine{X: 1, Min: 0, Max: 10}
	assert.Equal(t, []AxialLine{{X: 1, Min: 0, Max: 4}, {X: 1, Min: 4, Max: 10}}, l.Cut(4))
	assert.Equal(t, []AxialLine{l}, l.Cut(0), "cut at an end keeps the line")
	assert.Equal(t, []AxialLine{l}, l.Cut(20))
}

func TestAxialLine_IsComparable(t *testing.T) {
	set := map[AxialLine]bool{}
	set[AxialLine{X: 1, Min: 0, Max: 2}] = true
	set[AxialLine{X: 1, Min: 0, Max: 2}] = true
	assert.Len(t, set, 1)
}

// ─── Neighbor Tests ───

func TestNeighbors_Row(t *testing.T) {
	boxes := []geom.Rect{
		{X: 0, Y: 0, W: 10, H: 10},
		{X: 12, Y: 0, W: 10, H: 10},
		{X: 24, Y: 0, W: 10, H: 10},
	}
	n := NewNeighbors(boxes)

	require.Len(t, n.Left(1), 1)
	assert.Equal(t, 0, n.Left(1)[0].Index)
	require.Len(t, n.Right(1), 1)
	assert.Equal(t, 2, n.Right(1)[0].Index)
	assert.Empty(t, n.Top(1))
	assert.Empty(t, n.Bottom(1))

	// The far box is hidden behind the middle one.
	require.Len(t, n.Right(0), 1)
	assert.Equal(t, 1, n.Right(0)[0].Index)
}

func TestNeighbors_PartialShadow(t *testing.T) {
	boxes := []geom.Rect{
		{X: 0, Y: 0, W: 10, H: 20},
		{X: 12, Y: 0, W: 10, H: 5},
		{X: 30, Y: 0, W: 10, H: 20},
	}
	n := NewNeighbors(boxes)

	right := n.Right(0)
	require.Len(t, right, 2)
	assert.Equal(t, 1, right[0].Index)
	assert.Equal(t, IntervalSet{{Min: 0, Max: 5}}, right[0].Shadow)
	assert.Equal(t, 2, right[1].Index)
	assert.Equal(t, IntervalSet{{Min: 5, Max: 20}}, right[1].Shadow)
}

// ─── Partition Tests ───

func TestPartition_LoneBoardIsClosedCCW(t *testing.T) {
	p := NewPartition([]geom.Rect{{X: 0, Y: 0, W: 20, H: 10}}, nil, 2, 3)
	lines := p.PartitionPolylines(0)
	require.Len(t, lines, 1)

	ring := lines[0]
	require.True(t, ring.IsClosed())
	assert.True(t, ring.Ring().IsCCW())
	assert.Equal(t, geom.Rect{X: -2, Y: -3, W: 24, H: 16}, ring.BoundingBox())
}

func TestPartition_GapMidline(t *testing.T) {
	boards := []geom.Rect{{X: 0, Y: 0, W: 20, H: 20}, {X: 22, Y: 0, W: 20, H: 20}}
	p := NewPartition(boards, nil, 0, 0)

	_, v0 := p.Lines(0)
	_, v1 := p.Lines(1)
	assert.Contains(t, v0, AxialLine{X: 21, Min: 0, Max: 20})
	assert.Contains(t, v1, AxialLine{X: 21, Min: 0, Max: 20})

	for i := range boards {
		lines := p.PartitionPolylines(i)
		require.Len(t, lines, 1)
		assert.True(t, lines[0].IsClosed())
	}
	assert.Equal(t, geom.Rect{X: 0, Y: 0, W: 21, H: 20}, p.PartitionPolylines(0)[0].BoundingBox())
	assert.Equal(t, geom.Rect{X: 21, Y: 0, W: 21, H: 20}, p.PartitionPolylines(1)[0].BoundingBox())
}

func TestPartition_StepClosesCell(t *testing.T) {
	boards := []geom.Rect{
		{X: 0, Y: 0, W: 10, H: 20},
		{X: 12, Y: 0, W: 10, H: 5},
	}
	p := NewPartition(boards, nil, 3, 3)

	lines := p.PartitionPolylines(0)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].IsClosed(), "the step between midline and margin is bridged")
}

func TestBackbone_InnerCross(t *testing.T) {
	p := NewPartition(grid2x2(), nil, 0, 0)
	backbone := p.Backbone(geom.Rect{X: 0, Y: 0, W: 42, H: 42})

	require.Len(t, backbone, 4)
	var h, v int
	for _, l := range backbone {
		require.Len(t, l, 2)
		if l[0].Y == l[1].Y {
			h++
			assert.Equal(t, 21.0, l[0].Y)
		} else {
			v++
			assert.Equal(t, 21.0, l[0].X)
		}
	}
	assert.Equal(t, 2, h)
	assert.Equal(t, 2, v)
}

func TestBackbone_DropsPiecesOutsideBounds(t *testing.T) {
	p := NewPartition(grid2x2(), nil, 3, 3)
	backbone := p.Backbone(geom.Rect{X: 0, Y: 0, W: 42, H: 42})

	for _, l := range backbone {
		bb := l.BoundingBox()
		assert.True(t, geom.Rect{X: 0, Y: 0, W: 42, H: 42}.ContainsRect(bb), "backbone %v leaves the panel", bb)
	}
	assert.Len(t, backbone, 4)
}

func TestBackbone_IgnoresGhostLines(t *testing.T) {
	boards := []geom.Rect{{X: 0, Y: 10, W: 20, H: 20}}
	rail := []geom.Rect{{X: 0, Y: 0, W: 20, H: 5}}
	p := NewPartition(boards, rail, 0, 0)

	h, _ := p.Lines(0)
	assert.Contains(t, h, AxialLine{X: 7.5, Min: 0, Max: 20}, "cell boundary runs between board and rail")
	assert.Empty(t, p.Backbone(geom.Rect{X: 0, Y: 0, W: 20, H: 30}))
}
