// Package partition derives where tabs and cuts may go from the bounding
// boxes of the placed boards. Each board gets a cell whose boundary (the
// partition line) runs along the middle of the gaps to its neighbours; lines
// shared by several cells form the backbone of the panel.
package partition

import "sort"

// Interval is a closed range [Min, Max] on one axis.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (i Interval) Length() float64 {
	return i.Max - i.Min
}

// Overlaps reports whether the interiors of the intervals intersect.
func (i Interval) Overlaps(o Interval) bool {
	return i.Min < o.Max && o.Min < i.Max
}

// IntervalSet is a sorted list of disjoint intervals.
type IntervalSet []Interval

// Intersect returns the parts of the set inside iv. Results of zero length are
// dropped.
func (s IntervalSet) Intersect(iv Interval) IntervalSet {
	var out IntervalSet
	for _, x := range s {
		lo, hi := max(x.Min, iv.Min), min(x.Max, iv.Max)
		if lo < hi {
			out = append(out, Interval{Min: lo, Max: hi})
		}
	}
	return out
}

// Subtract returns the parts of the set outside iv.
func (s IntervalSet) Subtract(iv Interval) IntervalSet {
	var out IntervalSet
	for _, x := range s {
		if !x.Overlaps(iv) {
			out = append(out, x)
			continue
		}
		if x.Min < iv.Min {
			out = append(out, Interval{Min: x.Min, Max: iv.Min})
		}
		if iv.Max < x.Max {
			out = append(out, Interval{Min: iv.Max, Max: x.Max})
		}
	}
	return out
}

// Union merges two sets.
func (s IntervalSet) Union(o IntervalSet) IntervalSet {
	all := append(append(IntervalSet{}, s...), o...)
	sort.Slice(all, func(i, j int) bool { return all[i].Min < all[j].Min })
	var out IntervalSet
	for _, x := range all {
		if n := len(out); n > 0 && x.Min <= out[n-1].Max {
			out[n-1].Max = max(out[n-1].Max, x.Max)
			continue
		}
		out = append(out, x)
	}
	return out
}

func (s IntervalSet) Empty() bool {
	return len(s) == 0
}

// Length is the total covered length.
func (s IntervalSet) Length() float64 {
	var l float64
	for _, x := range s {
		l += x.Length()
	}
	return l
}
