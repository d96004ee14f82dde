package substrate

import (
	"math"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// Tab is a bridge of material connecting a board to its surroundings. Cut is
// the line along which the tab gets separated from the board.
type Tab struct {
	Polygon geom.Ring     `json:"polygon"`
	Cut     geom.Polyline `json:"cut"`
}

// partitionStep moves the reversed rays off the board face before they search
// for a partition line.
var partitionStep = geom.FromMM(0.01)

// Tab builds a tab of the given width. The tab starts at origin and heads
// along dir into the substrate; two rays cast at the tab sides find the face
// the tab attaches to.
//
// With no partition lines the tab spans from the face back to the origin.
// Otherwise it spans from the face outwards to the first partition line both
// reversed rays reach; when none is reached, Tab returns (nil, nil). A ray
// pair that misses the substrate is a *PositionError at origin.
func (s *Substrate) Tab(origin, dir geom.Point, width float64, partitionLines []geom.Polyline, maxLength float64) (*Tab, error) {
	dir = geom.RoundPoint(dir, geom.DefaultPrecision).Normalize()
	side := dir.Perp().Mul(width / 2)
	originA, originB := origin.Add(side), origin.Sub(side)

	var boundary geom.Polyline
	var hitA, hitB geom.Point
	best := math.Inf(1)
	for _, sh := range s.shapes {
		l := sh.Exterior.Closed()
		a, da, okA := geom.RayHit(originA, dir, maxLength, l)
		b, db, okB := geom.RayHit(originB, dir, maxLength, l)
		if !okA || !okB {
			continue
		}
		if d := math.Max(da, db); d < best {
			best = d
			boundary, hitA, hitB = l, a, b
		}
	}
	if boundary == nil {
		return nil, &PositionError{Message: "Tab does not reach the board; place it on the board edge or outside", Point: origin}
	}

	face := boundary.SubPath(hitB, hitA)
	if len(partitionLines) == 0 {
		ring := append(geom.Ring(nil), face...)
		ring = append(ring, originA, originB)
		return finishTab(ring, face, width)
	}

	outward := dir.Mul(-1)
	step := outward.Mul(partitionStep)
	var partFace geom.Polyline
	best = math.Inf(1)
	for _, p := range partitionLines {
		pa, da, okA := geom.RayHit(hitA.Add(step), outward, maxLength, p)
		pb, db, okB := geom.RayHit(hitB.Add(step), outward, maxLength, p)
		if !okA || !okB {
			continue
		}
		if d := math.Max(da, db); d < best {
			best = d
			partFace = p.SubPath(pa, pb)
		}
	}
	if partFace == nil {
		return nil, nil
	}
	ring := make(geom.Ring, 0, len(face)+len(partFace))
	ring = append(ring, face...)
	ring = append(ring, partFace...)
	return finishTab(ring, face, width)
}

func finishTab(ring geom.Ring, cut geom.Polyline, width float64) (*Tab, error) {
	ring = ring.Clean(cleanTolerance)
	if len(ring) < 3 || ring.Area() < width*geom.FromMM(0.0001) {
		return nil, nil
	}
	return &Tab{Polygon: ring.Oriented(true), Cut: cut}, nil
}
