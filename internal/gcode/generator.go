// Package gcode writes router programs that cut finished panels out of raw
// laminate, and reads them back for checks and time estimates.
package gcode

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/model"
	"github.com/piwi3910/PanelCut/internal/panel"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// circleSegments is the number of chords of a milled hole.
const circleSegments = 24

// Generator produces router programs for panels.
type Generator struct {
	Settings model.RouterSettings
	dialect  model.GCodeDialect
}

func New(settings model.RouterSettings) *Generator {
	return &Generator{
		Settings: settings,
		dialect:  model.GetDialect(settings.Dialect),
	}
}

// point is a machine coordinate in mm with Y pointing up.
type point struct{ x, y float64 }

// hole is a drilled feature in machine coordinates.
type hole struct {
	at       point
	diameter float64
}

// program carries the state of one generated panel program.
type program struct {
	b    strings.Builder
	minX float64
	maxY float64
}

// machine maps a panel point onto the router table: origin at the panel's
// bottom-left corner, Y up.
func (pr *program) machine(p geom.Point) point {
	return point{x: geom.ToMM(p.X - pr.minX), y: geom.ToMM(pr.maxY - p.Y)}
}

func (pr *program) ring(r geom.Ring) []point {
	pts := make([]point, len(r))
	for i, p := range r {
		pts[i] = pr.machine(p)
	}
	return pts
}

// Generate returns the router program of one panel. Holes are drilled
// first, inner cutouts milled next and the outline last, so the panel stays
// held by the laminate until the final contour.
func (g *Generator) Generate(p *panel.Panel, title string) string {
	sub := p.Substrate()
	minX, _, _, maxY := sub.Bounds()
	pr := &program{minX: minX, maxY: maxY}

	holes := g.collectHoles(pr, p)
	toolR := geom.FromMM(g.Settings.ToolDiameter / 2)

	g.writeHeader(pr, p, title, len(holes))

	if len(holes) > 0 {
		pr.b.WriteString(g.comment("--- Drilling ---"))
		for _, h := range holes {
			g.writeHole(pr, h)
		}
	}

	cutout := 0
	for _, sh := range sub.Shapes() {
		for _, inner := range sh.Holes {
			cutout++
			path := substrate.FromRing(inner).Buffer(-toolR)
			if path.IsEmpty() {
				pr.b.WriteString(g.comment(fmt.Sprintf("WARNING: cutout %d is narrower than the tool, skipped", cutout)))
				continue
			}
			for _, c := range path.Shapes() {
				pr.b.WriteString(g.comment(fmt.Sprintf("--- Cutout %d ---", cutout)))
				g.writeContour(pr, pr.ring(c.Exterior), true)
			}
		}
	}

	for i, sh := range sub.Exterior().Buffer(toolR).Shapes() {
		pr.b.WriteString(g.comment(fmt.Sprintf("--- Outline %d ---", i+1)))
		g.writeContour(pr, pr.ring(sh.Exterior), false)
	}

	g.writeFooter(pr)
	return pr.b.String()
}

// GenerateAll produces one program per panel.
func (g *Generator) GenerateAll(panels []*panel.Panel, title string) []string {
	codes := make([]string, 0, len(panels))
	for i, p := range panels {
		codes = append(codes, g.Generate(p, fmt.Sprintf("%s #%d", title, i+1)))
	}
	return codes
}

// collectHoles returns the drilled pads of a panel ordered row by row, so
// the spindle sweeps the table instead of jumping across it.
func (g *Generator) collectHoles(pr *program, p *panel.Panel) []hole {
	var holes []hole
	for _, f := range p.Board().Footprints {
		for _, pad := range f.Pads {
			if pad.Drill <= 0 {
				continue
			}
			holes = append(holes, hole{at: pr.machine(pad.Position), diameter: geom.ToMM(pad.Drill)})
		}
	}
	sort.SliceStable(holes, func(i, j int) bool {
		if math.Abs(holes[i].at.y-holes[j].at.y) > 1e-6 {
			return holes[i].at.y < holes[j].at.y
		}
		return holes[i].at.x < holes[j].at.x
	})
	return holes
}

func (g *Generator) writeHeader(pr *program, p *panel.Panel, title string, holes int) {
	d := g.dialect
	bb := p.Substrate().BoundingBox()
	s := g.Settings

	pr.b.WriteString(g.comment(fmt.Sprintf("PanelCut router program: %s", title)))
	pr.b.WriteString(g.comment(fmt.Sprintf("Panel: %.2f x %.2f mm, %d boards, %d holes",
		geom.ToMM(bb.W), geom.ToMM(bb.H), p.BoardCount(), holes)))
	pr.b.WriteString(g.comment(fmt.Sprintf("Tool: %.2fmm, Feed: %.0f mm/min, Plunge: %.0f mm/min",
		s.ToolDiameter, s.FeedRate, s.PlungeRate)))
	pr.b.WriteString(g.comment(fmt.Sprintf("Depth: %.2fmm in %.2fmm passes", s.CutDepth, s.PassDepth)))
	pr.b.WriteString(g.comment(fmt.Sprintf("Dialect: %s", d.Name)))
	pr.b.WriteString("\n")

	for _, code := range d.StartCode {
		pr.b.WriteString(code + "\n")
	}
	if d.SpindleStart != "" {
		pr.b.WriteString(fmt.Sprintf(d.SpindleStart+"\n", s.SpindleSpeed))
	}
	pr.b.WriteString(fmt.Sprintf("%s Z%s\n", d.RapidMove, g.format(s.SafeZ)))
	pr.b.WriteString("\n")
}

func (g *Generator) writeFooter(pr *program) {
	d := g.dialect
	pr.b.WriteString("\n")
	pr.b.WriteString(g.comment("=== Job complete ==="))
	if d.SpindleStop != "" {
		pr.b.WriteString(d.SpindleStop + "\n")
	}
	for _, code := range d.EndCode {
		pr.b.WriteString(strings.ReplaceAll(code, "[SafeZ]", g.format(g.Settings.SafeZ)) + "\n")
	}
}

// writeHole plunges holes up to DrillMax and mills larger ones as a circle
// of the tool centre.
func (g *Generator) writeHole(pr *program, h hole) {
	d := g.dialect
	s := g.Settings
	if h.diameter <= s.DrillMax || h.diameter <= s.ToolDiameter {
		pr.b.WriteString(fmt.Sprintf("%s X%s Y%s\n", d.RapidMove, g.format(h.at.x), g.format(h.at.y)))
		pr.b.WriteString(fmt.Sprintf("%s Z%s F%s\n", d.FeedMove, g.format(-s.CutDepth), g.format(s.PlungeRate)))
		pr.b.WriteString(fmt.Sprintf("%s Z%s\n", d.RapidMove, g.format(s.SafeZ)))
		return
	}
	r := (h.diameter - s.ToolDiameter) / 2
	pts := make([]point, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = point{x: h.at.x + r*math.Cos(a), y: h.at.y + r*math.Sin(a)}
	}
	g.writeContour(pr, pts, true)
}

// writeContour mills a closed tool-centre path in depth passes. Inside
// contours run counter-clockwise for climb milling, outside contours
// clockwise; conventional milling flips both.
func (g *Generator) writeContour(pr *program, pts []point, inside bool) {
	if len(pts) < 3 {
		return
	}
	d := g.dialect
	s := g.Settings

	wantCCW := inside == s.Climb
	if ccw := signedArea(pts) > 0; ccw != wantCCW {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}

	start := pts[0]
	pr.b.WriteString(fmt.Sprintf("%s X%s Y%s\n", d.RapidMove, g.format(start.x), g.format(start.y)))
	for _, depth := range passDepths(s.CutDepth, s.PassDepth) {
		pr.b.WriteString(fmt.Sprintf("%s Z%s F%s\n", d.FeedMove, g.format(-depth), g.format(s.PlungeRate)))
		pr.b.WriteString(fmt.Sprintf("%s X%s Y%s F%s\n", d.FeedMove, g.format(pts[1].x), g.format(pts[1].y), g.format(s.FeedRate)))
		for _, p := range pts[2:] {
			pr.b.WriteString(fmt.Sprintf("%s X%s Y%s\n", d.FeedMove, g.format(p.x), g.format(p.y)))
		}
		pr.b.WriteString(fmt.Sprintf("%s X%s Y%s\n", d.FeedMove, g.format(start.x), g.format(start.y)))
	}
	pr.b.WriteString(fmt.Sprintf("%s Z%s\n", d.RapidMove, g.format(s.SafeZ)))
}

// passDepths splits a cut into equal steps no deeper than pass.
func passDepths(total, pass float64) []float64 {
	if pass <= 0 || pass >= total {
		return []float64{total}
	}
	n := int(math.Ceil(total/pass - 1e-9))
	depths := make([]float64, n)
	for i := range depths {
		depths[i] = total * float64(i+1) / float64(n)
	}
	return depths
}

// signedArea is positive for counter-clockwise paths.
func signedArea(pts []point) float64 {
	var a float64
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		a += p.x*q.y - q.x*p.y
	}
	return a / 2
}

// comment wraps text in the dialect's comment syntax.
func (g *Generator) comment(text string) string {
	return g.dialect.CommentPrefix + " " + text + g.dialect.CommentSuffix + "\n"
}

// format formats a coordinate according to the dialect's decimal places.
func (g *Generator) format(v float64) string {
	return fmt.Sprintf("%.*f", g.dialect.DecimalPlaces, v)
}
