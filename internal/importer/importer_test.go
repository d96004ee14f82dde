package importer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/PanelCut/internal/geom"
)

// ─── DetectCSVDelimiter Tests ──────────────────────────────

func TestDetectCSVDelimiter(t *testing.T) {
	tests := []struct {
		name string
		data string
		want rune
	}{
		{"comma", "Label,Path,Qty\nSensor,sensor.dxf,2\nLED,led.dxf,1\n", ','},
		{"semicolon", "Label;Path;Qty\nSensor;sensor.dxf;2\nLED;led.dxf;1\n", ';'},
		{"tab", "Label\tPath\tQty\nSensor\tsensor.dxf\t2\nLED\tled.dxf\t1\n", '\t'},
		{"pipe", "Label|Path|Qty\nSensor|sensor.dxf|2\nLED|led.dxf|1\n", '|'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectCSVDelimiter([]byte(tt.data)); got != tt.want {
				t.Errorf("expected %q delimiter, got %q", tt.want, got)
			}
		})
	}
}

// ─── DetectColumns Tests ───────────────────────────────────

func TestDetectColumns_BoardHeaders(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Name", "FILE", "Qty", "Thickness", "Rotatable"}, KindBoards)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	for role, want := range map[string]int{"label": 0, "path": 1, "quantity": 2, "thickness": 3, "rotatable": 4} {
		if got := mapping.Index(role); got != want {
			t.Errorf("expected %s at %d, got %d", role, want, got)
		}
	}
}

func TestDetectColumns_RolesOfOtherKindsIgnored(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Path", "X", "Y", "Width"}, KindLayout)

	if !isHeader {
		t.Fatal("expected header to be detected")
	}
	if mapping.Index("width") != -1 {
		t.Error("width is not a layout column")
	}
	if mapping.Index("y") != 2 {
		t.Errorf("expected y at 2, got %d", mapping.Index("y"))
	}
}

func TestDetectColumns_NoHeader(t *testing.T) {
	mapping, isHeader := DetectColumns([]string{"Main", "600", "300", "2"}, KindBlanks)

	if isHeader {
		t.Error("expected no header")
	}
	if mapping.Index("width") != 1 || mapping.Index("quantity") != 3 {
		t.Errorf("expected positional mapping, got %v", mapping)
	}
}

// ─── Board Lists ───────────────────────────────────────────

func TestImportBoards_WithHeaders(t *testing.T) {
	input := "Label,Path,Qty,Thickness,Rotatable\nSensor,boards/sensor.dxf,4,1.6,no\n,boards/led.dxf,,,\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',', KindBoards)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Boards) != 2 {
		t.Fatalf("expected 2 boards, got %d", len(result.Boards))
	}
	b := result.Boards[0]
	if b.Label != "Sensor" || b.Path != "boards/sensor.dxf" || b.Quantity != 4 {
		t.Errorf("unexpected board %+v", b)
	}
	if b.Thickness != 1.6 {
		t.Errorf("expected thickness 1.6, got %f", b.Thickness)
	}
	if b.Rotatable {
		t.Error("expected fixed orientation")
	}

	led := result.Boards[1]
	if led.Label != "led" {
		t.Errorf("expected label from file name, got %q", led.Label)
	}
	if led.Quantity != 1 || !led.Rotatable {
		t.Errorf("expected defaults, got %+v", led)
	}
}

func TestImportBoards_WithoutHeaders(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Sensor,sensor.dxf,2\nLED,led.dxf,3\n"), ',', KindBoards)

	if len(result.Boards) != 2 {
		t.Fatalf("expected 2 boards, got %d (errors: %v)", len(result.Boards), result.Errors)
	}
	if result.Boards[1].Quantity != 3 {
		t.Errorf("expected quantity 3, got %d", result.Boards[1].Quantity)
	}
}

func TestImportBoards_UnknownRotatableWarns(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Path,Rotatable\na.dxf,maybe\n"), ',', KindBoards)

	if len(result.Boards) != 1 {
		t.Fatalf("expected 1 board, got %d", len(result.Boards))
	}
	if !result.Boards[0].Rotatable {
		t.Error("expected rotatable default")
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "maybe") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a warning about 'maybe', got %v", result.Warnings)
	}
}

func TestImportBoards_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing path column", "Label,Qty\nSensor,2\n", "Required columns"},
		{"missing path", "Label,Path\nSensor,\n", "Missing path"},
		{"invalid quantity", "Path,Qty\na.dxf,abc\n", "Invalid quantity"},
		{"zero quantity", "Path,Qty\na.dxf,0\n", "must be positive"},
		{"negative thickness", "Path,Thickness\na.dxf,-1\n", "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ImportCSVFromReader(strings.NewReader(tt.input), ',', KindBoards)
			if len(result.Errors) == 0 {
				t.Fatal("expected an error")
			}
			if !strings.Contains(result.Errors[0], tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, result.Errors[0])
			}
		})
	}
}

// ─── Blank Lists ───────────────────────────────────────────

func TestImportBlanks(t *testing.T) {
	input := "Name;Width;Height;Qty;Thickness\nStandard;160;100;5;1.6\n;100;80;2;\n"
	result := ImportCSVFromReader(strings.NewReader(input), ';', KindBlanks)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Blanks) != 2 {
		t.Fatalf("expected 2 blanks, got %d", len(result.Blanks))
	}
	if result.Blanks[0].Width != 160 || result.Blanks[0].Thickness != 1.6 {
		t.Errorf("unexpected blank %+v", result.Blanks[0])
	}
	if result.Blanks[1].Label != "Blank 2" {
		t.Errorf("expected generated label, got %q", result.Blanks[1].Label)
	}
}

func TestImportBlanks_UnknownHeaderSkipped(t *testing.T) {
	input := "Panel,Breite,Hoehe,Anzahl\nMain,160,100,1\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',', KindBlanks)

	if len(result.Blanks) != 1 {
		t.Fatalf("expected 1 blank, got %d (errors: %v)", len(result.Blanks), result.Errors)
	}
}

func TestImportBlanks_MixedValidAndInvalid(t *testing.T) {
	input := "Label,Width,Height,Qty\nA,160,100,1\nB,abc,100,1\nC,-5,100,1\n\nD,100,80,1\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',', KindBlanks)

	if len(result.Blanks) != 2 {
		t.Errorf("expected 2 valid blanks, got %d", len(result.Blanks))
	}
	if len(result.Errors) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(result.Errors), result.Errors)
	}
}

// ─── Layouts ───────────────────────────────────────────────

func TestImportLayout(t *testing.T) {
	input := "Path,X,Y,Rotation\na.dxf,10,20,\nb.dxf,40.5,20,90\n"
	result := ImportCSVFromReader(strings.NewReader(input), ',', KindLayout)

	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(result.Items))
	}
	if got := result.Items[0].Destination; got != geom.Pt(geom.FromMM(10), geom.FromMM(20)) {
		t.Errorf("unexpected destination %v", got)
	}
	if result.Items[1].Rotation != 90 {
		t.Errorf("expected rotation 90, got %f", result.Items[1].Rotation)
	}
}

func TestImportLayout_MissingCoordinate(t *testing.T) {
	result := ImportCSVFromReader(strings.NewReader("Path,X,Y\na.dxf,10,\n"), ',', KindLayout)

	if len(result.Items) != 0 || len(result.Errors) != 1 {
		t.Errorf("expected a single error, got items %v errors %v", result.Items, result.Errors)
	}
}

// ─── Files ─────────────────────────────────────────────────

func TestImportCSV_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boards.csv")
	if err := os.WriteFile(path, []byte("Label;Path;Qty\nSensor;sensor.dxf;2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result := Import(path, KindBoards)
	if len(result.Boards) != 1 {
		t.Fatalf("expected 1 board, got %d (errors: %v)", len(result.Boards), result.Errors)
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "semicolon") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected semicolon warning, got %v", result.Warnings)
	}
}

func TestImportCSV_FileNotFound(t *testing.T) {
	if result := ImportCSV("/nonexistent/boards.csv", KindBoards); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestImportCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	if result := ImportCSV(path, KindBoards); len(result.Errors) == 0 {
		t.Error("expected error for empty file")
	}
}

func createTestExcel(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "list.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			cellRef, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("failed to create cell reference: %v", err)
			}
			if err := f.SetCellValue(sheet, cellRef, cell); err != nil {
				t.Fatalf("failed to set cell value: %v", err)
			}
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save Excel file: %v", err)
	}
	return path
}

func TestImportExcel_Layout(t *testing.T) {
	path := createTestExcel(t, [][]interface{}{
		{"Rotation", "File", "Left", "Top"},
		{180, "a.dxf", 5, 5},
	})

	result := Import(path, KindLayout)
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if result.Items[0].Path != "a.dxf" || result.Items[0].Rotation != 180 {
		t.Errorf("unexpected item %+v", result.Items[0])
	}
}

func TestImportExcel_FileNotFound(t *testing.T) {
	if result := ImportExcel("/nonexistent/list.xlsx", KindBlanks); len(result.Errors) == 0 {
		t.Error("expected error for nonexistent file")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindBoards, KindBlanks, KindLayout} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}
	if _, err := ParseKind("parts"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
