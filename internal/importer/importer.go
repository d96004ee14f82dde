// Package importer reads board lists, blank lists and board layouts from CSV
// and Excel files. It supports automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/model"
	"github.com/piwi3910/PanelCut/internal/panel"
)

// Kind selects what a list describes.
type Kind int

const (
	KindBoards Kind = iota // Boards for an automatic layout
	KindBlanks             // Panel blanks for an automatic layout
	KindLayout             // Boards at fixed positions
)

func (k Kind) String() string {
	switch k {
	case KindBlanks:
		return "blanks"
	case KindLayout:
		return "layout"
	default:
		return "boards"
	}
}

// ParseKind reads a kind name as printed by String.
func ParseKind(s string) (Kind, error) {
	for k := KindBoards; k <= KindLayout; k++ {
		if k.String() == strings.ToLower(strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return KindBoards, fmt.Errorf("unknown list kind %q", s)
}

// ImportResult holds the results of an import operation. Only the slice
// matching the imported kind is filled.
type ImportResult struct {
	Boards   []model.Board
	Blanks   []model.Blank
	Items    []panel.LayoutItem
	Errors   []string
	Warnings []string
}

// ColumnMapping maps column roles to their indices in the data. Roles absent
// from the data map to -1.
type ColumnMapping map[string]int

// Index returns the column of role, or -1.
func (m ColumnMapping) Index(role string) int {
	if i, ok := m[role]; ok {
		return i
	}
	return -1
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"label":     {"label", "name", "board", "description", "desc", "item"},
	"path":      {"path", "file", "filename", "board file", "dxf"},
	"width":     {"width", "w"},
	"height":    {"height", "h"},
	"quantity":  {"quantity", "qty", "count", "num", "amount", "pcs"},
	"thickness": {"thickness", "thick", "t"},
	"rotatable": {"rotatable", "rotate", "can rotate"},
	"x":         {"x", "left"},
	"y":         {"y", "top"},
	"rotation":  {"rotation", "rot", "angle"},
}

var numericRoles = map[string]bool{
	"width": true, "height": true, "quantity": true, "thickness": true,
	"x": true, "y": true, "rotation": true,
}

type kindSpec struct {
	positional []string // Column order without a header
	required   []string
}

var kindSpecs = map[Kind]kindSpec{
	KindBoards: {
		positional: []string{"label", "path", "quantity", "thickness", "rotatable"},
		required:   []string{"path"},
	},
	KindBlanks: {
		positional: []string{"label", "width", "height", "quantity", "thickness"},
		required:   []string{"width", "height", "quantity"},
	},
	KindLayout: {
		positional: []string{"path", "x", "y", "rotation"},
		required:   []string{"path", "x", "y"},
	},
}

// DetectCSVDelimiter picks the delimiter among comma, semicolon, tab and
// pipe that splits the data into the most rows of the header's width, wider
// headers breaking ties. Comma wins when nothing splits.
func DetectCSVDelimiter(data []byte) rune {
	best, bestScore := ',', 0
	for _, delim := range []rune{',', ';', '\t', '|'} {
		if s := delimiterScore(data, delim); s > bestScore {
			best, bestScore = delim, s
		}
	}
	return best
}

func delimiterScore(data []byte, delim rune) int {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil || len(rows) == 0 || len(rows[0]) < 2 {
		return 0
	}
	width := len(rows[0])
	score := width
	for _, row := range rows {
		if len(row) == width {
			score += 10
		}
	}
	return score
}

// DetectColumns examines a header row and returns the mapping of the roles
// of kind. Returns the mapping and true if a header was detected, or the
// positional mapping of kind and false if no header was found.
func DetectColumns(row []string, kind Kind) (ColumnMapping, bool) {
	spec := kindSpecs[kind]
	mapping := ColumnMapping{}
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for _, role := range spec.positional {
			if _, taken := mapping[role]; taken {
				continue
			}
			for _, alias := range headerAliases[role] {
				if normalized == alias {
					mapping[role] = i
					break
				}
			}
		}
	}

	if len(mapping) == 0 {
		positional := ColumnMapping{}
		for i, role := range spec.positional {
			positional[role] = i
		}
		return positional, false
	}
	return mapping, true
}

// looksLikeHeader reports whether a row without known column names still
// holds text where the positional mapping expects numbers.
func looksLikeHeader(row []string, mapping ColumnMapping) bool {
	for role, i := range mapping {
		if !numericRoles[role] {
			continue
		}
		cell := getCell(row, i)
		if cell == "" {
			continue
		}
		if _, err := strconv.ParseFloat(cell, 64); err != nil {
			return true
		}
	}
	return false
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseBool accepts the usual spellings of yes and no.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1", "x":
		return true, true
	case "no", "n", "false", "0", "-":
		return false, true
	default:
		return false, false
	}
}

// rowParser reads one row. Its methods return an error message, or a warning
// message for data it could read with a default.
type rowParser struct {
	row      []string
	mapping  ColumnMapping
	rowLabel string
}

func (p rowParser) cell(role string) string {
	return getCell(p.row, p.mapping.Index(role))
}

// float reads a number; missing optional numbers read as def.
func (p rowParser) float(role string, required bool, def float64) (float64, string) {
	s := p.cell(role)
	if s == "" {
		if required {
			return 0, fmt.Sprintf("%s: Missing %s value", p.rowLabel, role)
		}
		return def, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", p.rowLabel, role, s)
	}
	return v, ""
}

func (p rowParser) quantity(required bool) (int, string) {
	s := p.cell("quantity")
	if s == "" {
		if required {
			return 0, fmt.Sprintf("%s: Missing quantity value", p.rowLabel)
		}
		return 1, ""
	}
	qty, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid quantity '%s'", p.rowLabel, s)
	}
	if qty <= 0 {
		return 0, fmt.Sprintf("%s: Quantity must be positive", p.rowLabel)
	}
	return qty, ""
}

func (p rowParser) board() (model.Board, string, string) {
	path := p.cell("path")
	if path == "" {
		return model.Board{}, fmt.Sprintf("%s: Missing path value", p.rowLabel), ""
	}
	label := p.cell("label")
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	qty, msg := p.quantity(false)
	if msg != "" {
		return model.Board{}, msg, ""
	}
	thickness, msg := p.float("thickness", false, 0)
	if msg != "" {
		return model.Board{}, msg, ""
	}
	if thickness < 0 {
		return model.Board{}, fmt.Sprintf("%s: Thickness must not be negative", p.rowLabel), ""
	}

	b := model.NewBoard(label, path, 0, 0, qty)
	b.Thickness = thickness
	var warning string
	if s := p.cell("rotatable"); s != "" {
		if v, ok := parseBool(s); ok {
			b.Rotatable = v
		} else {
			warning = fmt.Sprintf("%s: Unknown rotatable value '%s', defaulting to yes", p.rowLabel, s)
		}
	}
	return b, "", warning
}

func (p rowParser) blank(count int) (model.Blank, string) {
	label := p.cell("label")
	if label == "" {
		label = fmt.Sprintf("Blank %d", count+1)
	}
	width, msg := p.float("width", true, 0)
	if msg != "" {
		return model.Blank{}, msg
	}
	height, msg := p.float("height", true, 0)
	if msg != "" {
		return model.Blank{}, msg
	}
	qty, msg := p.quantity(true)
	if msg != "" {
		return model.Blank{}, msg
	}
	if width <= 0 || height <= 0 {
		return model.Blank{}, fmt.Sprintf("%s: Width and height must be positive", p.rowLabel)
	}
	thickness, msg := p.float("thickness", false, 0)
	if msg != "" {
		return model.Blank{}, msg
	}
	b := model.NewBlank(label, width, height, qty)
	b.Thickness = thickness
	return b, ""
}

func (p rowParser) item() (panel.LayoutItem, string) {
	path := p.cell("path")
	if path == "" {
		return panel.LayoutItem{}, fmt.Sprintf("%s: Missing path value", p.rowLabel)
	}
	x, msg := p.float("x", true, 0)
	if msg != "" {
		return panel.LayoutItem{}, msg
	}
	y, msg := p.float("y", true, 0)
	if msg != "" {
		return panel.LayoutItem{}, msg
	}
	rotation, msg := p.float("rotation", false, 0)
	if msg != "" {
		return panel.LayoutItem{}, msg
	}
	return panel.LayoutItem{
		Path:        path,
		Destination: geom.Pt(geom.FromMM(x), geom.FromMM(y)),
		Rotation:    rotation,
	}, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Import reads a list of the given kind, as Excel for .xlsx files and as
// CSV otherwise.
func Import(path string, kind Kind) ImportResult {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return ImportExcel(path, kind)
	default:
		return ImportCSV(path, kind)
	}
}

// ImportCSV imports a list from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string, kind Kind) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(records, kind, "Line", result.Warnings)
}

// ImportCSVFromReader imports a list from a CSV reader with a specific delimiter.
// This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune, kind Kind) ImportResult {
	result := ImportResult{}

	csvReader := csv.NewReader(reader)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, kind, "Line", nil)
}

// ImportExcel imports a list from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string, kind Kind) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, kind, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row.
func importFromRows(rows [][]string, kind Kind, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0], kind)
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		for _, role := range kindSpecs[kind].required {
			if mapping.Index(role) == -1 {
				missing = append(missing, role)
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if looksLikeHeader(rows[0], mapping) {
		// Unknown header names: skip the row but keep the positional mapping
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")
	}

	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		p := rowParser{row: row, mapping: mapping, rowLabel: fmt.Sprintf("%s %d", rowPrefix, i+1)}
		var errMsg, warning string
		switch kind {
		case KindBlanks:
			var b model.Blank
			if b, errMsg = p.blank(len(result.Blanks)); errMsg == "" {
				result.Blanks = append(result.Blanks, b)
			}
		case KindLayout:
			var it panel.LayoutItem
			if it, errMsg = p.item(); errMsg == "" {
				result.Items = append(result.Items, it)
			}
		default:
			var b model.Board
			if b, errMsg, warning = p.board(); errMsg == "" {
				result.Boards = append(result.Boards, b)
			}
		}
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, warning)
		}
	}

	return result
}
