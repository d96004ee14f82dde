package board

import (
	"strings"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// annotationPrefix starts the text carrying annotation parameters.
const annotationPrefix = "KIKIT:"

// annotationLibrary holds the footprints the panel builder interprets.
const annotationLibrary = "kikit"

// Footprint is a placed component: pads plus its own graphics.
type Footprint struct {
	Reference string     `json:"reference"`
	Value     string     `json:"value,omitempty"`
	Library   string     `json:"library,omitempty"`
	Name      string     `json:"name,omitempty"`
	Position  geom.Point `json:"position"`
	Angle     float64    `json:"angle"`
	OnLayer   Layer      `json:"layer"`
	Pads      []*Pad     `json:"pads,omitempty"`
	Graphics  []Item     `json:"-"`
}

func (f *Footprint) Rotate(origin geom.Point, angle float64) {
	f.Position = geom.Rotate(f.Position, origin, angle)
	f.Angle += angle
	for _, p := range f.Pads {
		p.Position = geom.Rotate(p.Position, origin, angle)
	}
	for _, g := range f.Graphics {
		g.Rotate(origin, angle)
	}
}

func (f *Footprint) Move(d geom.Point) {
	f.Position = f.Position.Add(d)
	for _, p := range f.Pads {
		p.Position = p.Position.Add(d)
	}
	for _, g := range f.Graphics {
		g.Move(d)
	}
}

func (f *Footprint) Layer() Layer { return f.OnLayer }

// BoundingBox covers pads and graphics; a bare footprint is a point.
func (f *Footprint) BoundingBox() geom.Rect {
	bb := geom.Rect{X: f.Position.X, Y: f.Position.Y}
	for _, p := range f.Pads {
		bb = bb.Union(p.BoundingBox())
	}
	for _, g := range f.Graphics {
		bb = bb.Union(g.BoundingBox())
	}
	return bb
}

func (f *Footprint) Clone() Item {
	c := *f
	c.Pads = make([]*Pad, len(f.Pads))
	for i, p := range f.Pads {
		pc := *p
		pc.Layers = append([]Layer(nil), p.Layers...)
		c.Pads[i] = &pc
	}
	c.Graphics = make([]Item, len(f.Graphics))
	for i, g := range f.Graphics {
		c.Graphics[i] = g.Clone()
	}
	return &c
}

// TakeEdgeCuts removes the footprint graphics on the board edge layer and
// returns them.
func (f *Footprint) TakeEdgeCuts() []Item {
	var edges, rest []Item
	for _, g := range f.Graphics {
		if g.Layer() == EdgeCuts {
			edges = append(edges, g)
		} else {
			rest = append(rest, g)
		}
	}
	f.Graphics = rest
	return edges
}

// IsAnnotation reports whether the footprint is an annotation marker rather
// than a real component.
func (f *Footprint) IsAnnotation() bool {
	return f.Library == annotationLibrary && (f.Name == "Tab" || f.Name == "Board")
}

// Properties parses the "KIKIT: key: value; key: value" text of the
// footprint. A footprint without such text has no properties.
func (f *Footprint) Properties() map[string]string {
	for _, g := range f.Graphics {
		t, ok := g.(*Text)
		if !ok || !strings.HasPrefix(t.Text, annotationPrefix) {
			continue
		}
		return ParseParameterList(strings.TrimPrefix(t.Text, annotationPrefix))
	}
	return map[string]string{}
}

// ParseParameterList reads "key: value; key: value" pairs. Entries without a
// colon are skipped.
func ParseParameterList(s string) map[string]string {
	out := make(map[string]string)
	for _, entry := range strings.Split(s, ";") {
		key, value, ok := strings.Cut(entry, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return out
}

// NPTH builds a non-plated hole footprint. With paste set the hole also
// opens the paste layers.
func NPTH(position geom.Point, diameter float64, paste bool) *Footprint {
	layers := []Layer{FCu, BCu, FMask, BMask}
	if paste {
		layers = append(layers, FPaste, BPaste)
	}
	return &Footprint{
		Library:  annotationLibrary,
		Name:     "NPTH",
		Position: position,
		OnLayer:  FCu,
		Pads: []*Pad{{
			Position: position,
			Size:     diameter,
			Drill:    diameter,
			Layers:   layers,
		}},
	}
}

// Fiducial builds a round copper pad with a solder mask opening.
func Fiducial(position geom.Point, copperDiameter, openingDiameter float64, bottom bool) *Footprint {
	copper, mask := FCu, FMask
	if bottom {
		copper, mask = BCu, BMask
	}
	return &Footprint{
		Library:  annotationLibrary,
		Name:     "Fiducial",
		Position: position,
		OnLayer:  copper,
		Pads: []*Pad{{
			Number:     "1",
			Position:   position,
			Size:       copperDiameter,
			MaskMargin: (openingDiameter - copperDiameter) / 2,
			Layers:     []Layer{copper, mask},
		}},
	}
}
