// Package export renders finished panels into fabrication documents: a PDF
// drawing with cut and hole tables, and QR-coded traveler labels.
package export

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-pdf/fpdf"

	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/model"
	"github.com/piwi3910/PanelCut/internal/panel"
)

// Report is everything a fabrication sheet documents. Layout is only set for
// automatic layouts and then holds one entry per panel.
type Report struct {
	Title  string
	Preset model.Preset
	Panels []*panel.Panel
	Layout model.LayoutResult
}

// boardColor represents an RGB color for a placed board.
type boardColor struct {
	R, G, B int
}

var boardColors = []boardColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	legendHeight = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
	tableRowH    = 5.0
)

// Hole is a drilled or fiducial feature listed in the hole table.
type Hole struct {
	Kind     string  // "NPTH" or "Fiducial"
	X, Y     float64 // mm, panel coordinates
	Diameter float64 // mm, drill for holes, copper for fiducials
	Side     string
}

// CollectHoles lists the tooling holes, mouse-bite holes and fiducials of a
// panel ordered by kind, then Y, then X.
func CollectHoles(p *panel.Panel) []Hole {
	var holes []Hole
	for _, f := range p.Board().Footprints {
		if (f.Name != "NPTH" && f.Name != "Fiducial") || len(f.Pads) == 0 {
			continue
		}
		pad := f.Pads[0]
		h := Hole{
			Kind: f.Name,
			X:    geom.ToMM(f.Position.X),
			Y:    geom.ToMM(f.Position.Y),
			Side: "both",
		}
		if f.Name == "NPTH" {
			h.Diameter = geom.ToMM(pad.Drill)
		} else {
			h.Diameter = geom.ToMM(pad.Size)
			h.Side = "top"
			if f.OnLayer.IsBottom() {
				h.Side = "bottom"
			}
		}
		holes = append(holes, h)
	}
	sort.SliceStable(holes, func(i, j int) bool {
		if holes[i].Kind != holes[j].Kind {
			return holes[i].Kind < holes[j].Kind
		}
		if holes[i].Y != holes[j].Y {
			return holes[i].Y < holes[j].Y
		}
		return holes[i].X < holes[j].X
	})
	return holes
}

// ExportPDF writes a fabrication sheet: one drawing page and one table page
// per panel, followed by a summary page.
func ExportPDF(path string, r Report) error {
	if len(r.Panels) == 0 {
		return fmt.Errorf("no panels to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.SetTitle(reportTitle(r), true)

	for i, p := range r.Panels {
		pdf.AddPage()
		renderPanelPage(pdf, r, p, i)
		pdf.AddPage()
		renderTablesPage(pdf, p, i+1)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, r)

	return pdf.OutputFileAndClose(path)
}

func reportTitle(r Report) string {
	if r.Title != "" {
		return r.Title
	}
	if r.Preset.Name != "" {
		return r.Preset.Name
	}
	return "Panel"
}

// drawing maps panel coordinates (nm) onto the page.
type drawing struct {
	bb      geom.Rect
	scale   float64
	offsetX float64
	offsetY float64
}

func (d drawing) pt(p geom.Point) fpdf.PointType {
	return fpdf.PointType{
		X: d.offsetX + (p.X-d.bb.X)*d.scale,
		Y: d.offsetY + (p.Y-d.bb.Y)*d.scale,
	}
}

func (d drawing) ring(r geom.Ring) []fpdf.PointType {
	pts := make([]fpdf.PointType, len(r))
	for i, p := range r {
		pts[i] = d.pt(p)
	}
	return pts
}

func newDrawing(bb geom.Rect) drawing {
	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - legendHeight
	scale := math.Min(drawWidth/bb.W, drawHeight/bb.H)
	return drawing{
		bb:      bb,
		scale:   scale,
		offsetX: marginLeft + (drawWidth-bb.W*scale)/2,
		offsetY: drawAreaTop,
	}
}

// renderPanelPage draws the outline of a single panel with its boards, cuts
// and holes.
func renderPanelPage(pdf *fpdf.Fpdf, r Report, p *panel.Panel, idx int) {
	sub := p.Substrate()
	bb := sub.BoundingBox()
	wMM, hMM := geom.ToMM(bb.W), geom.ToMM(bb.H)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Panel %d: %s (%.1f x %.1f mm)", idx+1, reportTitle(r), wMM, hMM)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	hCuts, vCuts := p.VCuts()
	holes := CollectHoles(p)
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Boards: %d | Tabs: %d | V-cuts: %d | Holes: %d | Area: %.0f mm²",
		p.BoardCount(), len(p.Tabs()), len(hCuts)+len(vCuts), countKind(holes, "NPTH"), sub.Area()/(geom.NmPerMM*geom.NmPerMM))
	if idx < len(r.Layout.Panels) {
		stats += fmt.Sprintf(" | Efficiency: %.1f%%", r.Layout.Panels[idx].Efficiency())
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	if bb.W <= 0 || bb.H <= 0 {
		return
	}
	d := newDrawing(bb)

	// Panel substrate (FR4 color), holes in white
	pdf.SetLineWidth(0.3)
	pdf.SetDrawColor(40, 40, 40)
	for _, sh := range sub.Shapes() {
		pdf.SetFillColor(200, 215, 160)
		pdf.Polygon(d.ring(sh.Exterior), "FD")
		pdf.SetFillColor(255, 255, 255)
		for _, hole := range sh.Holes {
			pdf.Polygon(d.ring(hole), "FD")
		}
	}

	// Boards
	pdf.SetLineWidth(0.2)
	for i, s := range p.Substrates() {
		col := boardColors[i%len(boardColors)]
		pdf.SetFillColor(col.R, col.G, col.B)
		for _, sh := range s.Shapes() {
			pdf.Polygon(d.ring(sh.Exterior), "FD")
		}
		c := d.pt(s.BoundingBox().Center())
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetTextColor(0, 0, 0)
		label := fmt.Sprintf("%d", i+1)
		lw := pdf.GetStringWidth(label)
		pdf.SetXY(c.X-lw/2, c.Y-2)
		pdf.CellFormat(lw, 4, label, "", 0, "C", false, 0, "")
	}

	drawVCuts(pdf, d, hCuts, vCuts)
	drawHoles(pdf, d, holes)
	drawDimensionAnnotations(pdf, wMM, hMM, d.offsetX, d.offsetY, bb.W*d.scale, bb.H*d.scale)
	drawBoardLegend(pdf, r, idx, d.offsetY+bb.H*d.scale+6)
}

// drawVCuts renders V-groove lines dashed across the whole panel.
func drawVCuts(pdf *fpdf.Fpdf, d drawing, hCuts, vCuts []float64) {
	pdf.SetDrawColor(200, 0, 0)
	pdf.SetLineWidth(0.25)
	pdf.SetDashPattern([]float64{2, 1}, 0)
	minX, minY, maxX, maxY := d.bb.Bounds()
	for _, y := range hCuts {
		a, b := d.pt(geom.Pt(minX, y)), d.pt(geom.Pt(maxX, y))
		pdf.Line(a.X-3, a.Y, b.X+3, b.Y)
	}
	for _, x := range vCuts {
		a, b := d.pt(geom.Pt(x, minY)), d.pt(geom.Pt(x, maxY))
		pdf.Line(a.X, a.Y-3, b.X, b.Y+3)
	}
	pdf.SetDashPattern([]float64{}, 0)
	pdf.SetDrawColor(0, 0, 0)
}

func drawHoles(pdf *fpdf.Fpdf, d drawing, holes []Hole) {
	pdf.SetLineWidth(0.1)
	for _, h := range holes {
		c := d.pt(geom.Pt(geom.FromMM(h.X), geom.FromMM(h.Y)))
		radius := math.Max(geom.FromMM(h.Diameter/2)*d.scale, 0.3)
		if h.Kind == "Fiducial" {
			pdf.SetFillColor(218, 165, 32)
			pdf.SetDrawColor(218, 165, 32)
		} else {
			pdf.SetFillColor(255, 255, 255)
			pdf.SetDrawColor(0, 0, 0)
		}
		pdf.Circle(c.X, c.Y, radius, "FD")
	}
	pdf.SetDrawColor(0, 0, 0)
}

// drawDimensionAnnotations adds width and height labels outside the panel.
func drawDimensionAnnotations(pdf *fpdf.Fpdf, wMM, hMM, offsetX, offsetY, canvasW, canvasH float64) {
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(80, 80, 80)

	widthLabel := fmt.Sprintf("%.2f mm", wMM)
	wLabelW := pdf.GetStringWidth(widthLabel)
	pdf.SetXY(offsetX+(canvasW-wLabelW)/2, offsetY+canvasH+1)
	pdf.CellFormat(wLabelW, 4, widthLabel, "", 0, "C", false, 0, "")

	heightLabel := fmt.Sprintf("%.2f mm", hMM)
	pdf.TransformBegin()
	pdf.TransformRotate(90, offsetX-3, offsetY+canvasH/2)
	hLabelW := pdf.GetStringWidth(heightLabel)
	pdf.SetXY(offsetX-3-hLabelW/2, offsetY+canvasH/2-2)
	pdf.CellFormat(hLabelW, 4, heightLabel, "", 0, "C", false, 0, "")
	pdf.TransformEnd()

	pdf.SetTextColor(0, 0, 0)
}

// drawBoardLegend lists the boards of an automatic layout by their number on
// the drawing. Grid panels repeat one board and get no legend.
func drawBoardLegend(pdf *fpdf.Fpdf, r Report, idx int, startY float64) {
	if idx >= len(r.Layout.Panels) {
		return
	}
	placements := r.Layout.Panels[idx].Placements
	if len(placements) == 0 {
		return
	}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetXY(marginLeft, startY)
	pdf.CellFormat(30, 4, "Boards placed:", "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	xPos := marginLeft + 32
	maxX := pageWidth - marginRight
	for i, pl := range placements {
		col := boardColors[i%len(boardColors)]
		label := fmt.Sprintf("%d %s (%.1fx%.1f)", i+1, pl.Board.Label, pl.Board.Width, pl.Board.Height)
		if pl.Rotated {
			label += " R"
		}
		labelW := pdf.GetStringWidth(label) + 6
		if xPos+labelW > maxX {
			startY += 5
			xPos = marginLeft
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.Rect(xPos, startY+0.5, 3, 3, "F")
		pdf.SetXY(xPos+4, startY)
		pdf.CellFormat(labelW-4, 4, label, "", 0, "L", false, 0, "")
		xPos += labelW + 2
	}
}

// renderTablesPage lists V-cut positions and holes of a panel. Rows that do
// not fit on the page are counted instead of wrapped.
func renderTablesPage(pdf *fpdf.Fpdf, p *panel.Panel, num int) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight,
		fmt.Sprintf("Panel %d: Cuts and Holes", num), "", 0, "L", false, 0, "")

	top := marginTop + headerHeight + 4
	hCuts, vCuts := p.VCuts()
	var cutRows [][]string
	for _, y := range hCuts {
		cutRows = append(cutRows, []string{"horizontal", fmt.Sprintf("Y = %.3f", geom.ToMM(y))})
	}
	for _, x := range vCuts {
		cutRows = append(cutRows, []string{"vertical", fmt.Sprintf("X = %.3f", geom.ToMM(x))})
	}
	drawTable(pdf, marginLeft, top, "V-Cuts", []string{"Direction", "Position (mm)"}, []float64{30, 40}, cutRows)

	var holeRows [][]string
	for _, h := range CollectHoles(p) {
		holeRows = append(holeRows, []string{
			h.Kind,
			fmt.Sprintf("%.3f", h.X),
			fmt.Sprintf("%.3f", h.Y),
			fmt.Sprintf("%.2f", h.Diameter),
			h.Side,
		})
	}
	drawTable(pdf, marginLeft+85, top, "Holes and Fiducials",
		[]string{"Kind", "X (mm)", "Y (mm)", "Dia (mm)", "Side"}, []float64{25, 28, 28, 22, 22}, holeRows)
}

func drawTable(pdf *fpdf.Fpdf, x, y float64, title string, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(x, y)
	pdf.CellFormat(100, 7, title, "", 0, "L", false, 0, "")
	y += 9

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetXY(x, y)
		pdf.CellFormat(60, tableRowH, "none", "", 0, "L", false, 0, "")
		return
	}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := x
	for i, h := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", true, 0, "")
		xPos += widths[i]
	}
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	maxY := pageHeight - marginBottom - tableRowH
	for i, row := range rows {
		if y > maxY {
			pdf.SetFont("Helvetica", "I", 8)
			pdf.SetXY(x, y)
			pdf.CellFormat(100, tableRowH, fmt.Sprintf("... %d more", len(rows)-i), "", 0, "L", false, 0, "")
			break
		}
		if i%2 == 0 {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		xPos = x
		for j, cell := range row {
			pdf.SetXY(xPos, y)
			pdf.CellFormat(widths[j], tableRowH, cell, "1", 0, "C", true, 0, "")
			xPos += widths[j]
		}
		y += tableRowH
	}
}

// renderSummaryPage draws the final summary page with the panel list and the
// preset used.
func renderSummaryPage(pdf *fpdf.Fpdf, r Report) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Panelization Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18
	summaryItems := []struct {
		label string
		value string
	}{
		{"Panels", fmt.Sprintf("%d", len(r.Panels))},
		{"Boards Placed", fmt.Sprintf("%d", countBoards(r.Panels))},
	}
	if len(r.Layout.Panels) > 0 {
		summaryItems = append(summaryItems,
			struct{ label, value string }{"Overall Efficiency", fmt.Sprintf("%.1f%%", r.Layout.TotalEfficiency())},
			struct{ label, value string }{"Unplaced Boards", fmt.Sprintf("%d", len(r.Layout.Unplaced))})
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}
	y += 3

	var rows [][]string
	for i, p := range r.Panels {
		bb := p.Substrate().BoundingBox()
		hCuts, vCuts := p.VCuts()
		row := []string{
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%.1f x %.1f mm", geom.ToMM(bb.W), geom.ToMM(bb.H)),
			fmt.Sprintf("%d", p.BoardCount()),
			fmt.Sprintf("%d", len(p.Tabs())),
			fmt.Sprintf("%d", len(hCuts)+len(vCuts)),
			"-",
		}
		if i < len(r.Layout.Panels) {
			row[5] = fmt.Sprintf("%.1f%%", r.Layout.Panels[i].Efficiency())
		}
		rows = append(rows, row)
	}
	drawTable(pdf, marginLeft, y, "Panel Breakdown",
		[]string{"Panel", "Size", "Boards", "Tabs", "V-Cuts", "Efficiency"},
		[]float64{20, 50, 25, 25, 25, 30}, rows)
	y += 15 + tableRowH*float64(len(rows)+1)

	if len(r.Layout.Unplaced) > 0 {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Unplaced Boards", "", 0, "L", false, 0, "")
		y += 8
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, b := range r.Layout.Unplaced {
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s: %.1f x %.1f mm (qty: %d)", b.Label, b.Width, b.Height, b.Quantity)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
		y += 3
	}

	renderPresetSummary(pdf, r.Preset, pageWidth/2+10, marginTop+18)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, "Generated by PanelCut - PCB Panelizer", "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

func renderPresetSummary(pdf *fpdf.Fpdf, pr model.Preset, x, y float64) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(x, y)
	pdf.CellFormat(100, 7, "Preset", "", 0, "L", false, 0, "")
	y += 9

	items := []struct {
		label string
		value string
	}{
		{"Name", pr.Name},
		{"Layout", fmt.Sprintf("%s %dx%d, space %.1f/%.1f mm", pr.Layout.Type, pr.Layout.Rows, pr.Layout.Cols, pr.Layout.HSpace, pr.Layout.VSpace)},
		{"Tabs", fmt.Sprintf("%s, width %.1f/%.1f mm", pr.Tabs.Type, pr.Tabs.HWidth, pr.Tabs.VWidth)},
		{"Cuts", describeCuts(pr.Cuts)},
		{"Framing", fmt.Sprintf("%s, width %.1f mm, space %.1f mm", pr.Framing.Type, pr.Framing.Width, pr.Framing.Space)},
		{"Tooling", fmt.Sprintf("%d x %.2f mm", pr.Tooling.Count, pr.Tooling.Size)},
		{"Fiducials", fmt.Sprintf("%d x %.2f/%.2f mm", pr.Fiducials.Count, pr.Fiducials.CopperSize, pr.Fiducials.Opening)},
		{"Mill Radius", fmt.Sprintf("%.2f mm", pr.Post.MillRadius)},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range items {
		pdf.SetXY(x+5, y)
		pdf.CellFormat(30, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(90, 5, item.value, "", 0, "L", false, 0, "")
		y += 5
	}
}

func describeCuts(c model.CutSettings) string {
	switch c.Type {
	case model.CutsMouseBites:
		return fmt.Sprintf("mouse bites %.2f mm every %.2f mm", c.Drill, c.Spacing)
	case model.CutsVCuts:
		return fmt.Sprintf("V-cuts, clearance %.2f mm", c.Clearance)
	default:
		return string(c.Type)
	}
}

func countKind(holes []Hole, kind string) int {
	n := 0
	for _, h := range holes {
		if h.Kind == kind {
			n++
		}
	}
	return n
}

// countBoards returns the total number of boards across all panels.
func countBoards(panels []*panel.Panel) int {
	total := 0
	for _, p := range panels {
		total += p.BoardCount()
	}
	return total
}
