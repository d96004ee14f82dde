package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// LabelInfo holds the data encoded into each panel traveler label.
type LabelInfo struct {
	Title      string   `json:"title"`
	Panel      int      `json:"panel"`
	Preset     string   `json:"preset,omitempty"`
	Width      float64  `json:"width_mm"`
	Height     float64  `json:"height_mm"`
	Boards     int      `json:"boards"`
	Labels     []string `json:"labels,omitempty"`
	VCuts      int      `json:"vcuts"`
	Holes      int      `json:"holes"`
	Blank      string   `json:"blank,omitempty"`
	Efficiency float64  `json:"efficiency,omitempty"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
const (
	labelPageWidth  = 215.9 // US Letter width in mm
	labelPageHeight = 279.4 // US Letter height in mm
	labelMarginTop  = 12.7
	labelMarginLeft = 4.8
	labelWidth      = 66.7
	labelHeight     = 25.4
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0
	labelPadding    = 2.0
)

// ExportLabels generates a PDF of QR-coded traveler labels, copies per panel.
// The QR code carries the panel metadata as JSON so a scan on the line finds
// the matching fabrication sheet.
func ExportLabels(path string, r Report, copies int) error {
	labels := CollectLabelInfos(r)
	if len(labels) == 0 {
		return fmt.Errorf("no panels to generate labels for")
	}
	if copies < 1 {
		copies = 1
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	i := 0
	for _, label := range labels {
		for c := 0; c < copies; c++ {
			if i%labelsPerPage == 0 {
				pdf.AddPage()
			}
			posOnPage := i % labelsPerPage
			x := labelMarginLeft + float64(posOnPage%labelCols)*labelWidth
			y := labelMarginTop + float64(posOnPage/labelCols)*labelHeight
			if err := renderLabel(pdf, x, y, label); err != nil {
				return fmt.Errorf("failed to render label for panel %d: %w", label.Panel, err)
			}
			i++
		}
	}

	return pdf.OutputFileAndClose(path)
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	imgName := fmt.Sprintf("qr_panel_%d", info.Panel)
	if pdf.GetImageInfo(imgName) == nil {
		qrData, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to marshal label info: %w", err)
		}
		qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
		if err != nil {
			return fmt.Errorf("failed to generate QR code: %w", err)
		}
		pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))
	}

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, truncate(pdf, fmt.Sprintf("%s #%d", info.Title, info.Panel), textW), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	dims := fmt.Sprintf("%.1f x %.1f mm", info.Width, info.Height)
	pdf.CellFormat(textW, 3.5, dims, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	counts := fmt.Sprintf("%d boards, %d V-cuts, %d holes", info.Boards, info.VCuts, info.Holes)
	pdf.CellFormat(textW, 3, counts, "", 1, "L", false, 0, "")

	if len(info.Labels) > 0 {
		pdf.SetXY(textX, y+labelPadding+12.5)
		pdf.SetFont("Helvetica", "I", 6)
		pdf.SetTextColor(150, 100, 0)
		pdf.CellFormat(textW, 3, truncate(pdf, strings.Join(info.Labels, ", "), textW), "", 0, "L", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	return nil
}

func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts one label per panel of a report. Board labels
// are only known for automatic layouts and are listed once each.
func CollectLabelInfos(r Report) []LabelInfo {
	labels := make([]LabelInfo, 0, len(r.Panels))
	for i, p := range r.Panels {
		bb := p.Substrate().BoundingBox()
		hCuts, vCuts := p.VCuts()
		info := LabelInfo{
			Title:  reportTitle(r),
			Panel:  i + 1,
			Preset: r.Preset.Name,
			Width:  geom.ToMM(bb.W),
			Height: geom.ToMM(bb.H),
			Boards: p.BoardCount(),
			VCuts:  len(hCuts) + len(vCuts),
			Holes:  countKind(CollectHoles(p), "NPTH"),
		}
		if i < len(r.Layout.Panels) {
			pl := r.Layout.Panels[i]
			info.Blank = pl.Blank.Label
			info.Efficiency = pl.Efficiency()
			seen := make(map[string]bool)
			for _, placed := range pl.Placements {
				if !seen[placed.Board.Label] {
					seen[placed.Board.Label] = true
					info.Labels = append(info.Labels, placed.Board.Label)
				}
			}
		}
		labels = append(labels, info)
	}
	return labels
}
