package board

import (
	"github.com/piwi3910/PanelCut/internal/geom"
)

// Track is a copper trace segment.
type Track struct {
	Start   geom.Point `json:"start"`
	End     geom.Point `json:"end"`
	Width   float64    `json:"width"`
	Net     string     `json:"net"`
	OnLayer Layer      `json:"layer"`
}

func (t *Track) Rotate(origin geom.Point, angle float64) {
	t.Start = geom.Rotate(t.Start, origin, angle)
	t.End = geom.Rotate(t.End, origin, angle)
}

func (t *Track) Move(d geom.Point) {
	t.Start = t.Start.Add(d)
	t.End = t.End.Add(d)
}

func (t *Track) Layer() Layer { return t.OnLayer }
func (t *Track) Clone() Item  { c := *t; return &c }

func (t *Track) BoundingBox() geom.Rect {
	return geom.BoundingBox([]geom.Point{t.Start, t.End}).ExpandAll(t.Width / 2)
}

// KeepoutRules turns a zone into a rule area.
type KeepoutRules struct {
	NoTracks bool `json:"noTracks"`
	NoVias   bool `json:"noVias"`
	NoCopper bool `json:"noCopper"`
}

// Zone is a copper pour or keepout area on one or more layers.
type Zone struct {
	Outline  geom.Ring     `json:"outline"`
	Holes    []geom.Ring   `json:"holes,omitempty"`
	Layers   []Layer       `json:"layers"`
	Net      string        `json:"net,omitempty"`
	Priority int           `json:"priority"`
	Keepout  *KeepoutRules `json:"keepout,omitempty"`
}

func (z *Zone) Rotate(origin geom.Point, angle float64) {
	rot := func(r geom.Ring) {
		for i, p := range r {
			r[i] = geom.Rotate(p, origin, angle)
		}
	}
	rot(z.Outline)
	for _, h := range z.Holes {
		rot(h)
	}
}

func (z *Zone) Move(d geom.Point) {
	z.Outline = z.Outline.Translate(d)
	for i, h := range z.Holes {
		z.Holes[i] = h.Translate(d)
	}
}

// Layer returns the first layer of the zone.
func (z *Zone) Layer() Layer {
	if len(z.Layers) == 0 {
		return ""
	}
	return z.Layers[0]
}

func (z *Zone) BoundingBox() geom.Rect { return z.Outline.BoundingBox() }

func (z *Zone) Clone() Item {
	c := *z
	c.Outline = append(geom.Ring(nil), z.Outline...)
	c.Holes = make([]geom.Ring, len(z.Holes))
	for i, h := range z.Holes {
		c.Holes[i] = append(geom.Ring(nil), h...)
	}
	c.Layers = append([]Layer(nil), z.Layers...)
	if z.Keepout != nil {
		k := *z.Keepout
		c.Keepout = &k
	}
	return &c
}

// Pad is a round footprint pad. A pad with a drill and no copper is a
// non-plated hole.
type Pad struct {
	Number     string     `json:"number"`
	Position   geom.Point `json:"position"`
	Size       float64    `json:"size"`
	Drill      float64    `json:"drill,omitempty"`
	Plated     bool       `json:"plated"`
	MaskMargin float64    `json:"maskMargin,omitempty"`
	Net        string     `json:"net,omitempty"`
	Layers     []Layer    `json:"layers"`
}

func (p *Pad) BoundingBox() geom.Rect {
	r := max(p.Size, p.Drill) / 2
	return geom.Rect{X: p.Position.X - r, Y: p.Position.Y - r, W: 2 * r, H: 2 * r}
}
