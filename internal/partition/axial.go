package partition

import (
	"sort"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// AxialLine is an axis-parallel segment: X is the fixed coordinate, Min and
// Max bound the varying one. Whether it is horizontal or vertical is implied
// by the collection holding it. AxialLine is comparable and is deduplicated
// by value.
type AxialLine struct {
	X   float64 `json:"x"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (l AxialLine) Length() float64 {
	return l.Max - l.Min
}

// Cut splits the line at y. A cut outside the open range returns the line
// unchanged.
func (l AxialLine) Cut(y float64) []AxialLine {
	if y <= l.Min || y >= l.Max {
		return []AxialLine{l}
	}
	return []AxialLine{{X: l.X, Min: l.Min, Max: y}, {X: l.X, Min: y, Max: l.Max}}
}

// Horizontal renders the line as a horizontal segment at y = X.
func (l AxialLine) Horizontal() geom.Polyline {
	return geom.Segment(geom.Pt(l.Min, l.X), geom.Pt(l.Max, l.X))
}

// Vertical renders the line as a vertical segment at x = X.
func (l AxialLine) Vertical() geom.Polyline {
	return geom.Segment(geom.Pt(l.X, l.Min), geom.Pt(l.X, l.Max))
}

func cutAll(lines []AxialLine, at float64) []AxialLine {
	var out []AxialLine
	for _, l := range lines {
		out = append(out, l.Cut(at)...)
	}
	return out
}

// sortLines orders lines by coordinate, then by range, for stable output.
func sortLines(lines []AxialLine) {
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Min != b.Min {
			return a.Min < b.Min
		}
		return a.Max < b.Max
	})
}
