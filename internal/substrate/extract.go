package substrate

import (
	"sort"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// chainTolerance is the largest gap between stroke endpoints that still
// counts as connected.
var chainTolerance = geom.FromMM(0.01)

// FromStrokes assembles board outline strokes into a substrate and offsets it
// by buffer. Closed strokes are used as is; open strokes are chained end to
// end. Outlines nested an odd number of times become holes (cutouts).
//
// A chain that does not close returns a *PositionError at its loose end.
func FromStrokes(strokes []geom.Polyline, buffer float64) (*Substrate, error) {
	var rings []geom.Ring
	var open []geom.Polyline
	for _, s := range strokes {
		if len(s) < 2 {
			continue
		}
		if s.IsClosed() && len(s) >= 4 {
			rings = append(rings, s.Ring())
			continue
		}
		open = append(open, s)
	}

	chained, err := chainStrokes(open, chainTolerance)
	if err != nil {
		return nil, err
	}
	rings = append(rings, chained...)
	if len(rings) == 0 {
		return &Substrate{}, nil
	}

	shapes := nestRings(rings)
	s := &Substrate{}
	pieces := make([][]Shape, len(shapes))
	for i, sh := range shapes {
		pieces[i] = []Shape{sh}
	}
	s.shapes = unionAll(pieces)

	if buffer == 0 {
		return s, nil
	}
	if len(s.shapes) == 1 && len(s.shapes[0].Holes) == 0 && s.shapes[0].Exterior.IsConvex() {
		// Mitred offset keeps rectangular outlines rectangular.
		return FromRing(geom.OffsetConvex(s.shapes[0].Exterior, buffer)), nil
	}
	return s.Buffer(buffer), nil
}

// chainStrokes joins open polylines whose endpoints meet into closed rings.
func chainStrokes(strokes []geom.Polyline, tolerance float64) ([]geom.Ring, error) {
	used := make([]bool, len(strokes))
	var rings []geom.Ring

	for start := range strokes {
		if used[start] {
			continue
		}
		used[start] = true
		chain := append(geom.Polyline{}, strokes[start]...)

		for changed := true; changed; {
			changed = false
			tail := chain.End()
			for i, s := range strokes {
				if used[i] {
					continue
				}
				switch {
				case tail.Near(s.Start(), tolerance):
					chain = append(chain, s[1:]...)
				case tail.Near(s.End(), tolerance):
					rev := s.Reverse()
					chain = append(chain, rev[1:]...)
				default:
					continue
				}
				used[i] = true
				changed = true
				break
			}
		}

		if len(chain) < 4 || !chain.Start().Near(chain.End(), tolerance) {
			return nil, &PositionError{Message: "Cannot close board outline", Point: chain.End()}
		}
		rings = append(rings, geom.Ring(chain[:len(chain)-1]))
	}

	sort.SliceStable(rings, func(i, j int) bool {
		return rings[i].Area() > rings[j].Area()
	})
	return rings, nil
}
