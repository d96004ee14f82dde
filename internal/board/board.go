package board

import (
	"errors"
	"regexp"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// ErrNoEdges is returned when a board has no outline on the edge layer.
var ErrNoEdges = errors.New("board has no Edge.Cuts outline")

// Board is a board design: design settings plus its items.
type Board struct {
	Thickness    float64      `json:"thickness"`
	CopperLayers int          `json:"copperLayers"`
	Nets         []string     `json:"nets,omitempty"`
	Drawings     []Item       `json:"-"`
	Footprints   []*Footprint `json:"footprints,omitempty"`
	Tracks       []*Track     `json:"tracks,omitempty"`
	Zones        []*Zone      `json:"zones,omitempty"`
}

// New returns an empty two-layer board of the common 1.6 mm thickness.
func New() *Board {
	return &Board{Thickness: geom.FromMM(1.6), CopperLayers: 2}
}

// Add places item on the board without copying it.
func (b *Board) Add(item Item) {
	switch it := item.(type) {
	case *Footprint:
		b.Footprints = append(b.Footprints, it)
	case *Track:
		b.Tracks = append(b.Tracks, it)
	case *Zone:
		b.Zones = append(b.Zones, it)
	default:
		b.Drawings = append(b.Drawings, item)
	}
}

// Append adds a deep copy of item, so items can move between boards.
func (b *Board) Append(item Item) {
	b.Add(item.Clone())
}

// AddNet registers a net name once.
func (b *Board) AddNet(name string) {
	if name == "" {
		return
	}
	for _, n := range b.Nets {
		if n == name {
			return
		}
	}
	b.Nets = append(b.Nets, name)
}

// Items lists every item: drawings, footprints, tracks, then zones.
func (b *Board) Items() []Item {
	items := make([]Item, 0, len(b.Drawings)+len(b.Footprints)+len(b.Tracks)+len(b.Zones))
	items = append(items, b.Drawings...)
	for _, f := range b.Footprints {
		items = append(items, f)
	}
	for _, t := range b.Tracks {
		items = append(items, t)
	}
	for _, z := range b.Zones {
		items = append(items, z)
	}
	return items
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{
		Thickness:    b.Thickness,
		CopperLayers: b.CopperLayers,
		Nets:         append([]string(nil), b.Nets...),
	}
	for _, it := range b.Items() {
		c.Append(it)
	}
	return c
}

// EdgeItems returns the drawings on the edge layer, footprint graphics
// included.
func (b *Board) EdgeItems() []Item {
	var edges []Item
	for _, d := range b.Drawings {
		if d.Layer() == EdgeCuts {
			edges = append(edges, d)
		}
	}
	for _, f := range b.Footprints {
		for _, g := range f.Graphics {
			if g.Layer() == EdgeCuts {
				edges = append(edges, g)
			}
		}
	}
	return edges
}

// EdgeBoundingBox returns the bounding box of the board outline. When area is
// given only edges lying entirely inside it count.
func (b *Board) EdgeBoundingBox(area *geom.Rect) (geom.Rect, error) {
	var bb geom.Rect
	found := false
	for _, e := range b.EdgeItems() {
		ebb := e.BoundingBox()
		if area != nil && !area.ContainsRect(ebb) {
			continue
		}
		if !found {
			bb, found = ebb, true
			continue
		}
		bb = bb.Union(ebb)
	}
	if !found {
		return geom.Rect{}, ErrNoEdges
	}
	return bb, nil
}

// Selection holds the items of a board found inside an area.
type Selection struct {
	Drawings   []Item
	Footprints []*Footprint
	Tracks     []*Track
	Zones      []*Zone
}

// Collect returns the items whose bounding box lies entirely in area. The
// items are shared with the board, not copied.
func (b *Board) Collect(area geom.Rect) Selection {
	var s Selection
	for _, d := range b.Drawings {
		if area.ContainsRect(d.BoundingBox()) {
			s.Drawings = append(s.Drawings, d)
		}
	}
	for _, f := range b.Footprints {
		if area.ContainsRect(f.BoundingBox()) {
			s.Footprints = append(s.Footprints, f)
		}
	}
	for _, t := range b.Tracks {
		if area.ContainsRect(t.BoundingBox()) {
			s.Tracks = append(s.Tracks, t)
		}
	}
	for _, z := range b.Zones {
		if area.ContainsRect(z.BoundingBox()) {
			s.Zones = append(s.Zones, z)
		}
	}
	return s
}

// RenameNets renames every named net and the pads, tracks and zones using it.
// The unnamed net stays unnamed.
func (b *Board) RenameNets(rename func(string) string) {
	mapping := make(map[string]string, len(b.Nets))
	names := make([]string, 0, len(b.Nets))
	for _, n := range b.Nets {
		if n == "" {
			continue
		}
		mapping[n] = rename(n)
		names = append(names, mapping[n])
	}
	lookup := func(n string) string {
		if m, ok := mapping[n]; ok {
			return m
		}
		return n
	}
	for _, f := range b.Footprints {
		for _, p := range f.Pads {
			p.Net = lookup(p.Net)
		}
	}
	for _, t := range b.Tracks {
		t.Net = lookup(t.Net)
	}
	for _, z := range b.Zones {
		z.Net = lookup(z.Net)
	}
	b.Nets = names
}

// RenameRefs renames the reference of every footprint.
func (b *Board) RenameRefs(rename func(string) string) {
	for _, f := range b.Footprints {
		f.Reference = rename(f.Reference)
	}
}

// MatchReference returns the footprints whose reference matches re.
func (b *Board) MatchReference(re *regexp.Regexp) []*Footprint {
	var out []*Footprint
	for _, f := range b.Footprints {
		if re.MatchString(f.Reference) {
			out = append(out, f)
		}
	}
	return out
}

// FootprintByReference returns the first footprint with the given reference.
func (b *Board) FootprintByReference(ref string) (*Footprint, bool) {
	for _, f := range b.Footprints {
		if f.Reference == ref {
			return f, true
		}
	}
	return nil, false
}

// RaiseZonePriorities bumps every zone's priority, making room for a new
// zone at the bottom.
func (b *Board) RaiseZonePriorities(amount int) {
	for _, z := range b.Zones {
		z.Priority += amount
	}
}
