// Package board is the board model the panel builder copies items between:
// graphic drawings, footprints, tracks and zones, each able to rotate, move
// and report its layer. Boards are read and written through a Loader and a
// Saver; Store keeps them in memory and DXF reads and writes drawing files.
package board

import (
	"math"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// Layer is a board layer name.
type Layer string

const (
	EdgeCuts Layer = "Edge.Cuts"
	FCu      Layer = "F.Cu"
	BCu      Layer = "B.Cu"
	FSilkS   Layer = "F.SilkS"
	BSilkS   Layer = "B.SilkS"
	FMask    Layer = "F.Mask"
	BMask    Layer = "B.Mask"
	FPaste   Layer = "F.Paste"
	BPaste   Layer = "B.Paste"
	CmtsUser Layer = "Cmts.User"
	Eco1User Layer = "Eco1.User"
	Eco2User Layer = "Eco2.User"
)

// IsBottom reports whether the layer is on the back side.
func (l Layer) IsBottom() bool {
	return len(l) > 2 && l[:2] == "B."
}

// Item is anything placed on a board.
type Item interface {
	Rotate(origin geom.Point, angle float64)
	Move(delta geom.Point)
	Layer() Layer
	BoundingBox() geom.Rect
	Clone() Item
}

// Stroker is an item with a geometric outline, such as a board edge.
type Stroker interface {
	Strokes() []geom.Polyline
}

// Strokes collects the outlines of all items that have one.
func Strokes(items []Item) []geom.Polyline {
	var out []geom.Polyline
	for _, it := range items {
		if s, ok := it.(Stroker); ok {
			out = append(out, s.Strokes()...)
		}
	}
	return out
}

// Segment is a straight graphic line.
type Segment struct {
	Start   geom.Point `json:"start"`
	End     geom.Point `json:"end"`
	Width   float64    `json:"width"`
	OnLayer Layer      `json:"layer"`
}

func (s *Segment) Rotate(origin geom.Point, angle float64) {
	s.Start = geom.Rotate(s.Start, origin, angle)
	s.End = geom.Rotate(s.End, origin, angle)
}

func (s *Segment) Move(d geom.Point) {
	s.Start = s.Start.Add(d)
	s.End = s.End.Add(d)
}

func (s *Segment) Layer() Layer            { return s.OnLayer }
func (s *Segment) BoundingBox() geom.Rect   { return geom.BoundingBox([]geom.Point{s.Start, s.End}) }
func (s *Segment) Clone() Item              { c := *s; return &c }
func (s *Segment) Strokes() []geom.Polyline { return []geom.Polyline{geom.Segment(s.Start, s.End)} }

// Arc is a circular arc swept counter-clockwise from StartAngle to EndAngle
// (degrees).
type Arc struct {
	Center     geom.Point `json:"center"`
	Radius     float64    `json:"radius"`
	StartAngle float64    `json:"startAngle"`
	EndAngle   float64    `json:"endAngle"`
	Width      float64    `json:"width"`
	OnLayer    Layer      `json:"layer"`
}

func (a *Arc) Rotate(origin geom.Point, angle float64) {
	a.Center = geom.Rotate(a.Center, origin, angle)
	a.StartAngle += angle
	a.EndAngle += angle
}

func (a *Arc) Move(d geom.Point) { a.Center = a.Center.Add(d) }
func (a *Arc) Layer() Layer      { return a.OnLayer }
func (a *Arc) Clone() Item       { c := *a; return &c }

// Sweep returns the swept angle in (0, 360].
func (a *Arc) Sweep() float64 {
	sweep := math.Mod(a.EndAngle-a.StartAngle, 360)
	if sweep <= 0 {
		sweep += 360
	}
	return sweep
}

func (a *Arc) Strokes() []geom.Polyline {
	sweep := a.Sweep()
	n := max(2, int(math.Ceil(sweep/360*64)))
	pts := make(geom.Polyline, n+1)
	for i := 0; i <= n; i++ {
		angle := a.StartAngle + sweep*float64(i)/float64(n)
		pts[i] = a.Center.Add(geom.Direction(angle).Mul(a.Radius))
	}
	return []geom.Polyline{pts}
}

func (a *Arc) BoundingBox() geom.Rect {
	return a.Strokes()[0].BoundingBox()
}

// Circle is a full circle outline.
type Circle struct {
	Center  geom.Point `json:"center"`
	Radius  float64    `json:"radius"`
	Width   float64    `json:"width"`
	OnLayer Layer      `json:"layer"`
}

func (c *Circle) Rotate(origin geom.Point, angle float64) {
	c.Center = geom.Rotate(c.Center, origin, angle)
}

func (c *Circle) Move(d geom.Point) { c.Center = c.Center.Add(d) }
func (c *Circle) Layer() Layer      { return c.OnLayer }
func (c *Circle) Clone() Item       { cc := *c; return &cc }

func (c *Circle) BoundingBox() geom.Rect {
	return geom.Rect{X: c.Center.X - c.Radius, Y: c.Center.Y - c.Radius, W: 2 * c.Radius, H: 2 * c.Radius}
}

func (c *Circle) Strokes() []geom.Polyline {
	return []geom.Polyline{geom.CirclePolygon(c.Center, c.Radius, 64).Closed()}
}

// Polygon is a closed graphic polygon.
type Polygon struct {
	Points  geom.Ring `json:"points"`
	Width   float64   `json:"width"`
	Filled  bool      `json:"filled"`
	OnLayer Layer     `json:"layer"`
}

func (p *Polygon) Rotate(origin geom.Point, angle float64) {
	for i, pt := range p.Points {
		p.Points[i] = geom.Rotate(pt, origin, angle)
	}
}

func (p *Polygon) Move(d geom.Point) {
	p.Points = p.Points.Translate(d)
}

func (p *Polygon) Layer() Layer            { return p.OnLayer }
func (p *Polygon) BoundingBox() geom.Rect   { return p.Points.BoundingBox() }
func (p *Polygon) Strokes() []geom.Polyline { return []geom.Polyline{p.Points.Closed()} }

func (p *Polygon) Clone() Item {
	c := *p
	c.Points = append(geom.Ring(nil), p.Points...)
	return &c
}

// Text is a graphic text. Height is the glyph height.
type Text struct {
	Text      string     `json:"text"`
	Position  geom.Point `json:"position"`
	Angle     float64    `json:"angle"`
	Height    float64    `json:"height"`
	Thickness float64    `json:"thickness"`
	Justify   string     `json:"justify,omitempty"`
	Mirrored  bool       `json:"mirrored,omitempty"`
	OnLayer   Layer      `json:"layer"`
}

func (t *Text) Rotate(origin geom.Point, angle float64) {
	t.Position = geom.Rotate(t.Position, origin, angle)
	t.Angle += angle
}

func (t *Text) Move(d geom.Point) { t.Position = t.Position.Add(d) }
func (t *Text) Layer() Layer      { return t.OnLayer }
func (t *Text) Clone() Item       { c := *t; return &c }

// BoundingBox estimates the extent from the glyph height.
func (t *Text) BoundingBox() geom.Rect {
	w := float64(len(t.Text)) * t.Height * 0.6
	return geom.Rect{X: t.Position.X - w/2, Y: t.Position.Y - t.Height/2, W: w, H: t.Height}
}
