package export

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/engine"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/model"
)

func rectBoard(w, h float64) *board.Board {
	b := board.New()
	c := []geom.Point{
		geom.Pt(0, 0),
		geom.Pt(geom.FromMM(w), 0),
		geom.Pt(geom.FromMM(w), geom.FromMM(h)),
		geom.Pt(0, geom.FromMM(h)),
	}
	for i := range c {
		b.Add(&board.Segment{Start: c[i], End: c[(i+1)%4], Width: geom.FromMM(0.1), OnLayer: board.EdgeCuts})
	}
	return b
}

func testStore() *board.Store {
	s := board.NewStore()
	s.Put("sensor.dxf", rectBoard(20, 20))
	s.Put("driver.dxf", rectBoard(30, 20))
	return s
}

// buildFrameReport panels a 2×2 grid of one board inside a frame.
func buildFrameReport(t *testing.T) Report {
	t.Helper()
	pr := model.GetPreset("frame")
	pr.Layout.Rows, pr.Layout.Cols = 2, 2
	res, err := engine.NewPanelizer(testStore(), nil).Build(engine.Job{
		Preset: pr,
		Boards: []model.Board{{Label: "Sensor", Path: "sensor.dxf"}},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return Report{Title: "Sensor", Preset: pr, Panels: res.Panels}
}

// buildAutoReport packs two board designs onto blanks.
func buildAutoReport(t *testing.T) Report {
	t.Helper()
	pr := model.DefaultPreset()
	pr.Layout.Type = model.LayoutAuto
	res, err := engine.NewPanelizer(testStore(), nil).Build(engine.Job{
		Preset: pr,
		Boards: []model.Board{
			{Label: "Sensor", Path: "sensor.dxf", Quantity: 3, Rotatable: true},
			{Label: "Driver", Path: "driver.dxf", Quantity: 2, Rotatable: true},
		},
		Blanks: []model.Blank{model.NewBlank("Blank 100x80", 100, 80, 2)},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return Report{Preset: pr, Panels: res.Panels, Layout: res.Layout}
}

func assertPDF(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("PDF file was not created: %v", err)
	}
	if info.Size() < 500 {
		t.Errorf("PDF file seems too small: %d bytes", info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:5]) != "%PDF-" {
		t.Errorf("missing PDF header, got %q", data[:5])
	}
}

func TestExportPDF_FramePanel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.pdf")
	if err := ExportPDF(path, buildFrameReport(t)); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportPDF_AutoLayoutWithUnplacedBoards(t *testing.T) {
	r := buildAutoReport(t)
	r.Layout.Unplaced = append(r.Layout.Unplaced, model.NewBoard("Too Big", "big.dxf", 300, 200, 1))

	path := filepath.Join(t.TempDir(), "auto.pdf")
	if err := ExportPDF(path, r); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportPDF_VCutPanel(t *testing.T) {
	pr := model.GetPreset("vcuts")
	pr.Layout.Rows, pr.Layout.Cols = 2, 3
	res, err := engine.NewPanelizer(testStore(), nil).Build(engine.Job{
		Preset: pr,
		Boards: []model.Board{{Path: "driver.dxf"}},
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "vcuts.pdf")
	if err := ExportPDF(path, Report{Preset: pr, Panels: res.Panels}); err != nil {
		t.Fatalf("ExportPDF returned error: %v", err)
	}
	assertPDF(t, path)
}

func TestExportPDF_NoPanels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := ExportPDF(path, Report{}); err == nil {
		t.Fatal("expected error for a report without panels, got nil")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be written for an empty report")
	}
}

func TestCollectHoles(t *testing.T) {
	r := buildFrameReport(t)
	holes := CollectHoles(r.Panels[0])

	fiducials := 0
	sides := map[string]int{}
	for i, h := range holes {
		if i > 0 {
			prev := holes[i-1]
			if prev.Kind > h.Kind || (prev.Kind == h.Kind && prev.Y > h.Y) {
				t.Fatalf("holes not sorted at %d: %+v after %+v", i, h, prev)
			}
		}
		if h.Kind == "Fiducial" {
			fiducials++
			sides[h.Side]++
			if math.Abs(h.Diameter-r.Preset.Fiducials.CopperSize) > 1e-9 {
				t.Errorf("fiducial diameter = %g, want %g", h.Diameter, r.Preset.Fiducials.CopperSize)
			}
		}
	}
	if fiducials != 6 {
		t.Errorf("expected 6 fiducials, got %d", fiducials)
	}
	if sides["top"] != 3 || sides["bottom"] != 3 {
		t.Errorf("expected 3 fiducials per side, got %v", sides)
	}
	if countKind(holes, "NPTH") < 4 {
		t.Errorf("expected tooling and mouse-bite holes, got %d", countKind(holes, "NPTH"))
	}
}

func TestReportTitle(t *testing.T) {
	tests := []struct {
		r    Report
		want string
	}{
		{Report{Title: "Sensor", Preset: model.Preset{Name: "frame"}}, "Sensor"},
		{Report{Preset: model.Preset{Name: "frame"}}, "frame"},
		{Report{}, "Panel"},
	}
	for _, tt := range tests {
		if got := reportTitle(tt.r); got != tt.want {
			t.Errorf("reportTitle() = %q, want %q", got, tt.want)
		}
	}
}

func TestDescribeCuts(t *testing.T) {
	got := describeCuts(model.CutSettings{Type: model.CutsMouseBites, Drill: 0.5, Spacing: 0.8})
	if got != "mouse bites 0.50 mm every 0.80 mm" {
		t.Errorf("unexpected description %q", got)
	}
	if got := describeCuts(model.CutSettings{Type: model.CutsNone}); got != "none" {
		t.Errorf("unexpected description %q", got)
	}
}
