package board

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// DXF reads and writes boards as DXF drawings in millimetres. Every entity of
// a loaded drawing becomes a board edge; the design settings a drawing cannot
// carry come from the DXF value itself. DXF's Y axis points up, so Y is
// mirrored on the way in and out.
type DXF struct {
	Thickness    float64
	CopperLayers int
}

// NewDXF returns a DXF loader for 1.6 mm two-layer boards.
func NewDXF() DXF {
	return DXF{Thickness: geom.FromMM(1.6), CopperLayers: 2}
}

func dxfPoint(x, y float64) geom.Point {
	return geom.Pt(geom.FromMM(x), -geom.FromMM(y))
}

// Load reads a DXF drawing. LWPOLYLINEs are treated as closed outlines and
// their bulges are flattened into arc points.
func (x DXF) Load(path string) (*Board, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	d, err := dxf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open DXF file %s: %w", path, err)
	}
	entities := d.Entities()
	if len(entities) == 0 {
		return nil, fmt.Errorf("DXF file %s contains no entities", path)
	}

	b := &Board{Thickness: x.Thickness, CopperLayers: x.CopperLayers}
	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			if pts := lwPolylinePoints(e); len(pts) >= 3 {
				b.Add(&Polygon{Points: pts, OnLayer: EdgeCuts})
			}
		case *entity.Circle:
			b.Add(&Circle{
				Center:  dxfPoint(e.Center[0], e.Center[1]),
				Radius:  geom.FromMM(e.Radius),
				OnLayer: EdgeCuts,
			})
		case *entity.Arc:
			// Mirroring Y turns a counter-clockwise arc from s to e into one
			// from -e to -s.
			b.Add(&Arc{
				Center:     dxfPoint(e.Circle.Center[0], e.Circle.Center[1]),
				Radius:     geom.FromMM(e.Circle.Radius),
				StartAngle: -e.Angle[1],
				EndAngle:   -e.Angle[0],
				OnLayer:    EdgeCuts,
			})
		case *entity.Line:
			b.Add(&Segment{
				Start:   dxfPoint(e.Start[0], e.Start[1]),
				End:     dxfPoint(e.End[0], e.End[1]),
				OnLayer: EdgeCuts,
			})
		default:
			// Other entity types carry no outline.
		}
	}
	if len(b.Drawings) == 0 {
		return nil, fmt.Errorf("DXF file %s contains no outline entities", path)
	}
	return b, nil
}

// lwPolylinePoints converts an LWPOLYLINE to a ring. Bulge values on vertices
// produce interpolated arc segments.
func lwPolylinePoints(lw *entity.LwPolyline) geom.Ring {
	var ring geom.Ring
	for i, v := range lw.Vertices {
		current := dxfPoint(v[0], v[1])
		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}
		if math.Abs(bulge) <= 1e-9 {
			ring = append(ring, current)
			continue
		}
		nv := lw.Vertices[(i+1)%len(lw.Vertices)]
		// The mirrored drawing sweeps the other way.
		arc := bulgeArcPoints(current, dxfPoint(nv[0], nv[1]), -bulge, 32)
		ring = append(ring, arc[:len(arc)-1]...)
	}
	return ring
}

// bulgeArcPoints generates points along an arc defined by two end points and
// a DXF bulge factor, the tangent of a quarter of the included angle.
func bulgeArcPoints(p1, p2 geom.Point, bulge float64, segments int) geom.Polyline {
	chord := p2.Sub(p1)
	chordLen := chord.Len()
	if chordLen < 1e-9 {
		return geom.Polyline{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	// The centre sits on the chord bisector, on the side opposite to the bulge.
	perp := chord.Perp().Mul(1 / chordLen)
	if bulge > 0 {
		perp = perp.Mul(-1)
	}
	center := p1.Add(chord.Mul(0.5)).Sub(perp.Mul(radius - sagitta))

	start := math.Atan2(p1.Y-center.Y, p1.X-center.X)
	end := math.Atan2(p2.Y-center.Y, p2.X-center.X)
	if bulge < 0 && end > start {
		end -= 2 * math.Pi
	}
	if bulge > 0 && end < start {
		end += 2 * math.Pi
	}

	pts := make(geom.Polyline, segments+1)
	for i := 0; i <= segments; i++ {
		a := start + (end-start)*float64(i)/float64(segments)
		pts[i] = geom.Pt(center.X+radius*math.Cos(a), center.Y+radius*math.Sin(a))
	}
	return pts
}

// Save writes every item on a DXF layer named after its board layer. Pads
// become circles; drilled holes go to the "Drill" layer.
func (x DXF) Save(b *Board, path string) error {
	w := &dxfWriter{d: dxf.NewDrawing(), layers: make(map[string]bool)}
	for _, it := range b.Items() {
		if err := w.item(it); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := w.d.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

type dxfWriter struct {
	d      *drawing.Drawing
	layers map[string]bool
}

func toDXF(p geom.Point) (float64, float64) {
	return geom.ToMM(p.X), -geom.ToMM(p.Y)
}

func (w *dxfWriter) use(l Layer) error {
	name := string(l)
	if name == "" {
		name = string(CmtsUser)
	}
	if w.layers[name] {
		return w.d.ChangeLayer(name)
	}
	w.layers[name] = true
	_, err := w.d.AddLayer(name, dxf.DefaultColor, dxf.DefaultLineType, true)
	return err
}

func (w *dxfWriter) line(a, b geom.Point) error {
	x1, y1 := toDXF(a)
	x2, y2 := toDXF(b)
	_, err := w.d.Line(x1, y1, 0, x2, y2, 0)
	return err
}

func (w *dxfWriter) ring(r geom.Ring) error {
	verts := make([][]float64, len(r))
	for i, p := range r {
		x, y := toDXF(p)
		verts[i] = []float64{x, y}
	}
	_, err := w.d.LwPolyline(true, verts...)
	return err
}

func (w *dxfWriter) circle(c geom.Point, r float64) error {
	x, y := toDXF(c)
	_, err := w.d.Circle(x, y, 0, geom.ToMM(r))
	return err
}

func (w *dxfWriter) item(it Item) error {
	if _, ok := it.(*Footprint); !ok {
		if err := w.use(it.Layer()); err != nil {
			return err
		}
	}
	switch v := it.(type) {
	case *Segment:
		return w.line(v.Start, v.End)
	case *Track:
		return w.line(v.Start, v.End)
	case *Arc:
		x, y := toDXF(v.Center)
		_, err := w.d.Arc(x, y, 0, geom.ToMM(v.Radius), -v.EndAngle, -v.StartAngle)
		return err
	case *Circle:
		return w.circle(v.Center, v.Radius)
	case *Polygon:
		return w.ring(v.Points)
	case *Text:
		x, y := toDXF(v.Position)
		_, err := w.d.Text(v.Text, x, y, 0, geom.ToMM(v.Height))
		return err
	case *Zone:
		if err := w.ring(v.Outline); err != nil {
			return err
		}
		for _, h := range v.Holes {
			if err := w.ring(h); err != nil {
				return err
			}
		}
		return nil
	case *Footprint:
		return w.footprint(v)
	}
	return fmt.Errorf("unsupported item %T", it)
}

func (w *dxfWriter) footprint(f *Footprint) error {
	for _, p := range f.Pads {
		if p.Drill > 0 {
			if err := w.use("Drill"); err != nil {
				return err
			}
			if err := w.circle(p.Position, p.Drill/2); err != nil {
				return err
			}
		}
		if p.Size > p.Drill && len(p.Layers) > 0 {
			if err := w.use(p.Layers[0]); err != nil {
				return err
			}
			if err := w.circle(p.Position, p.Size/2); err != nil {
				return err
			}
		}
	}
	for _, g := range f.Graphics {
		if err := w.item(g); err != nil {
			return err
		}
	}
	return nil
}
