package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LayoutType selects how boards are arranged on the panel.
type LayoutType string

const (
	LayoutGrid LayoutType = "grid" // One board repeated in rows and columns
	LayoutAuto LayoutType = "auto" // Heterogeneous boards packed onto a blank
)

// Algorithm selects the automatic layout packer.
type Algorithm string

const (
	AlgorithmGuillotine Algorithm = "guillotine" // Greedy best-area-fit (fast)
	AlgorithmGenetic    Algorithm = "genetic"    // Genetic ordering search (slower, often denser)
)

// TabType selects how boards are held in the panel.
type TabType string

const (
	TabsNone       TabType = "none"
	TabsGrid       TabType = "grid"       // Discrete tabs generated with the grid
	TabsGridFull   TabType = "gridfull"   // Full-width tabs generated with the grid
	TabsFixed      TabType = "fixed"      // Fixed count per board side
	TabsSpacing    TabType = "spacing"    // One tab every Spacing mm
	TabsCorner     TabType = "corner"     // One tab at every board corner
	TabsFull       TabType = "full"       // Everything between boards is material
	TabsAnnotation TabType = "annotation" // Tab footprints placed in the board
)

// CutType selects how tabs are separated from the boards.
type CutType string

const (
	CutsNone       CutType = "none"
	CutsVCuts      CutType = "vcuts"
	CutsMouseBites CutType = "mousebites"
)

// FramingType selects the material added around the boards.
type FramingType string

const (
	FramingNone      FramingType = "none"
	FramingFrame     FramingType = "frame"
	FramingTight     FramingType = "tightframe"
	FramingTightGrid FramingType = "tightgrid"
	FramingRailsTB   FramingType = "railstb"
	FramingRailsLR   FramingType = "railslr"
)

// LayoutSettings controls board placement. All sizes in mm.
type LayoutSettings struct {
	Type        LayoutType `json:"type" mapstructure:"type"`
	Rows        int        `json:"rows" mapstructure:"rows"`
	Cols        int        `json:"cols" mapstructure:"cols"`
	HSpace      float64    `json:"hspace" mapstructure:"hspace"`           // Gap between columns
	VSpace      float64    `json:"vspace" mapstructure:"vspace"`           // Gap between rows
	Rotation    float64    `json:"rotation" mapstructure:"rotation"`       // Degrees, applied to every board
	Alternation string     `json:"alternation" mapstructure:"alternation"` // "grid", "rows", "columns", "rowscols"
	Origin      string     `json:"origin" mapstructure:"origin"`           // "center", "top-left", "top-right", "bottom-left", "bottom-right"
	RenameNet   string     `json:"renamenet" mapstructure:"renamenet"`     // Pattern with {n} and {orig}
	RenameRef   string     `json:"renameref" mapstructure:"renameref"`
	Tolerance   float64    `json:"tolerance" mapstructure:"tolerance"` // Extra source area around the outline

	// Automatic layout
	Algorithm Algorithm `json:"algorithm" mapstructure:"algorithm"`
	Spacing   float64   `json:"spacing" mapstructure:"spacing"`     // Minimum gap between boards
	EdgeTrim  float64   `json:"edge_trim" mapstructure:"edge_trim"` // Blank border kept free

	// Backbone rendered along the partition lines, 0 = none
	VBackbone      float64 `json:"vbackbone" mapstructure:"vbackbone"`
	HBackbone      float64 `json:"hbackbone" mapstructure:"hbackbone"`
	VBoneCut       bool    `json:"vbonecut" mapstructure:"vbonecut"`
	HBoneCut       bool    `json:"hbonecut" mapstructure:"hbonecut"`
	SafeMargin     float64 `json:"safe_margin" mapstructure:"safe_margin"` // Partition offset on sides without neighbours
	ForceOuterCuts bool    `json:"force_outer_cuts" mapstructure:"force_outer_cuts"`
}

// TabSettings controls tab generation. All sizes in mm.
type TabSettings struct {
	Type        TabType `json:"type" mapstructure:"type"`
	VWidth      float64 `json:"vwidth" mapstructure:"vwidth"` // Width of tabs on horizontal edges
	HWidth      float64 `json:"hwidth" mapstructure:"hwidth"` // Width of tabs on vertical edges
	VCount      int     `json:"vcount" mapstructure:"vcount"`
	HCount      int     `json:"hcount" mapstructure:"hcount"`
	MinDistance float64 `json:"mindistance" mapstructure:"mindistance"`
	Spacing     float64 `json:"spacing" mapstructure:"spacing"`
	Width       float64 `json:"width" mapstructure:"width"` // Corner tab width
}

// CutSettings controls how tabs are separated. All sizes in mm.
type CutSettings struct {
	Type      CutType `json:"type" mapstructure:"type"`
	Drill     float64 `json:"drill" mapstructure:"drill"`         // Mouse-bite hole diameter
	Spacing   float64 `json:"spacing" mapstructure:"spacing"`     // Mouse-bite hole spacing
	Offset    float64 `json:"offset" mapstructure:"offset"`       // Mouse-bite row offset into the board
	Prolong   float64 `json:"prolong" mapstructure:"prolong"`     // Mouse-bite cut prolongation
	Clearance float64 `json:"clearance" mapstructure:"clearance"` // Copper keepout along V-cuts
	Layer     string  `json:"layer" mapstructure:"layer"`         // V-cut drawing layer
	CutCurves bool    `json:"cutcurves" mapstructure:"cutcurves"` // Approximate slightly curved V-cuts
}

// FramingSettings controls frames and rails. All sizes in mm.
type FramingSettings struct {
	Type   FramingType `json:"type" mapstructure:"type"`
	Width  float64     `json:"width" mapstructure:"width"`               // Frame or rail width
	Space  float64     `json:"space" mapstructure:"space"`               // Gap between boards and frame
	Slot   float64     `json:"slot" mapstructure:"slot"`                 // Tight frame slot width
	Cuts   bool        `json:"cuts" mapstructure:"cuts"`                 // Cut the frame into breakable pieces
	PanelW float64     `json:"panel_width" mapstructure:"panel_width"`   // Tight grid outer size
	PanelH float64     `json:"panel_height" mapstructure:"panel_height"` // Tight grid outer size
}

// ToolingSettings controls tooling holes in the panel corners. All sizes in mm.
type ToolingSettings struct {
	Count   int     `json:"count" mapstructure:"count"` // 0 to 4
	HOffset float64 `json:"hoffset" mapstructure:"hoffset"`
	VOffset float64 `json:"voffset" mapstructure:"voffset"`
	Size    float64 `json:"size" mapstructure:"size"`
	Paste   bool    `json:"paste" mapstructure:"paste"`
}

// FiducialSettings controls fiducials in the panel corners. All sizes in mm.
type FiducialSettings struct {
	Count      int     `json:"count" mapstructure:"count"` // 0 to 4
	HOffset    float64 `json:"hoffset" mapstructure:"hoffset"`
	VOffset    float64 `json:"voffset" mapstructure:"voffset"`
	CopperSize float64 `json:"coppersize" mapstructure:"coppersize"`
	Opening    float64 `json:"opening" mapstructure:"opening"`
}

// PostSettings controls finishing steps.
type PostSettings struct {
	MillRadius float64 `json:"millradius" mapstructure:"millradius"` // mm, 0 = sharp corners
	CopperFill bool    `json:"copperfill" mapstructure:"copperfill"`
}

// TextSettings places a label on the panel.
type TextSettings struct {
	Text   string  `json:"text" mapstructure:"text"`
	X      float64 `json:"x" mapstructure:"x"` // Relative to the panel top-left, mm
	Y      float64 `json:"y" mapstructure:"y"`
	Angle  float64 `json:"angle" mapstructure:"angle"`
	Height float64 `json:"height" mapstructure:"height"`
	Layer  string  `json:"layer" mapstructure:"layer"`
}

// Preset is a complete, reusable panelization recipe.
type Preset struct {
	ID          string           `json:"id" mapstructure:"id"`
	Name        string           `json:"name" mapstructure:"name"`
	Description string           `json:"description" mapstructure:"description"`
	UpdatedAt   string           `json:"updated_at" mapstructure:"updated_at"`
	Layout      LayoutSettings   `json:"layout" mapstructure:"layout"`
	Tabs        TabSettings      `json:"tabs" mapstructure:"tabs"`
	Cuts        CutSettings      `json:"cuts" mapstructure:"cuts"`
	Framing     FramingSettings  `json:"framing" mapstructure:"framing"`
	Tooling     ToolingSettings  `json:"tooling" mapstructure:"tooling"`
	Fiducials   FiducialSettings `json:"fiducials" mapstructure:"fiducials"`
	Post        PostSettings     `json:"post" mapstructure:"post"`
	Text        TextSettings     `json:"text" mapstructure:"text"`
}

// DefaultPreset returns a 1×1 grid with a single tab per side separated by
// mouse bites.
func DefaultPreset() Preset {
	return Preset{
		ID:   uuid.New().String()[:8],
		Name: "default",
		Layout: LayoutSettings{
			Type:        LayoutGrid,
			Rows:        1,
			Cols:        1,
			HSpace:      2.0,
			VSpace:      2.0,
			Alternation: "grid",
			Origin:      "center",
			RenameNet:   "Board_{n}-{orig}",
			RenameRef:   "{orig}",
			Algorithm:   AlgorithmGuillotine,
			Spacing:     2.0,
			EdgeTrim:    5.0,
		},
		Tabs: TabSettings{
			Type:        TabsFixed,
			VWidth:      3.0,
			HWidth:      3.0,
			VCount:      1,
			HCount:      1,
			MinDistance: 0,
			Spacing:     10.0,
			Width:       3.0,
		},
		Cuts: CutSettings{
			Type:    CutsMouseBites,
			Drill:   0.5,
			Spacing: 0.8,
			Offset:  0.25,
			Prolong: 0.5,
			Layer:   "Cmts.User",
		},
		Framing: FramingSettings{
			Type:  FramingNone,
			Width: 5.0,
			Space: 2.0,
			Slot:  2.0,
		},
		Tooling: ToolingSettings{
			HOffset: 5.0,
			VOffset: 2.5,
			Size:    1.5,
		},
		Fiducials: FiducialSettings{
			HOffset:    10.0,
			VOffset:    2.5,
			CopperSize: 1.0,
			Opening:    2.0,
		},
		Text: TextSettings{Height: 1.5, Layer: "F.SilkS"},
	}
}

// BuiltInPresets are always available by name.
var BuiltInPresets = []Preset{
	DefaultPreset(),
	func() Preset {
		p := DefaultPreset()
		p.Name = "vcuts"
		p.Description = "Grid of boards with full tabs and V-cuts between them"
		p.Tabs.Type = TabsGridFull
		p.Cuts.Type = CutsVCuts
		p.Layout.HSpace, p.Layout.VSpace = 0, 0
		return p
	}(),
	func() Preset {
		p := DefaultPreset()
		p.Name = "frame"
		p.Description = "Mouse-bite tabs to a breakable frame with tooling holes"
		p.Framing.Type = FramingFrame
		p.Framing.Cuts = true
		p.Tooling.Count = 4
		p.Fiducials.Count = 3
		return p
	}(),
	func() Preset {
		p := DefaultPreset()
		p.Name = "rails"
		p.Description = "Rails on top and bottom for assembly conveyors"
		p.Framing.Type = FramingRailsTB
		p.Tooling.Count = 4
		return p
	}(),
}

// GetPreset returns a built-in preset by name, or the default preset if not found.
func GetPreset(name string) Preset {
	for _, p := range BuiltInPresets {
		if p.Name == name {
			return p
		}
	}
	return BuiltInPresets[0]
}

// GetPresetNames returns the names of all built-in presets.
func GetPresetNames() []string {
	var names []string
	for _, p := range BuiltInPresets {
		names = append(names, p.Name)
	}
	return names
}

// Touch stamps the preset as modified now.
func (p *Preset) Touch() {
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
}

// Validate checks the preset for values the panelizer cannot honour.
func (p Preset) Validate() error {
	var errs []error
	switch p.Layout.Type {
	case LayoutGrid:
		if p.Layout.Rows < 1 || p.Layout.Cols < 1 {
			errs = append(errs, fmt.Errorf("layout: grid needs at least 1 row and 1 column, got %dx%d", p.Layout.Rows, p.Layout.Cols))
		}
	case LayoutAuto:
		if p.Layout.Algorithm != AlgorithmGuillotine && p.Layout.Algorithm != AlgorithmGenetic {
			errs = append(errs, fmt.Errorf("layout: unknown algorithm %q", p.Layout.Algorithm))
		}
		if p.Tabs.Type == TabsGrid || p.Tabs.Type == TabsGridFull {
			errs = append(errs, fmt.Errorf("tabs: %q needs a grid layout", p.Tabs.Type))
		}
		if p.Framing.Type == FramingTightGrid {
			errs = append(errs, errors.New("framing: tightgrid needs a grid layout"))
		}
	default:
		errs = append(errs, fmt.Errorf("layout: unknown type %q", p.Layout.Type))
	}
	if p.Layout.HSpace < 0 || p.Layout.VSpace < 0 || p.Layout.Spacing < 0 {
		errs = append(errs, errors.New("layout: spacing cannot be negative"))
	}

	switch p.Tabs.Type {
	case TabsNone, TabsFull, TabsAnnotation, TabsGridFull:
	case TabsFixed, TabsGrid:
		if p.Tabs.VCount < 0 || p.Tabs.HCount < 0 {
			errs = append(errs, errors.New("tabs: count cannot be negative"))
		}
	case TabsSpacing:
		if p.Tabs.Spacing <= 0 {
			errs = append(errs, errors.New("tabs: spacing must be positive"))
		}
	case TabsCorner:
		if p.Tabs.Width <= 0 {
			errs = append(errs, errors.New("tabs: corner width must be positive"))
		}
	default:
		errs = append(errs, fmt.Errorf("tabs: unknown type %q", p.Tabs.Type))
	}

	switch p.Cuts.Type {
	case CutsNone, CutsVCuts:
	case CutsMouseBites:
		if p.Cuts.Drill <= 0 || p.Cuts.Spacing <= 0 {
			errs = append(errs, errors.New("cuts: mouse bites need a positive drill and spacing"))
		}
	default:
		errs = append(errs, fmt.Errorf("cuts: unknown type %q", p.Cuts.Type))
	}

	switch p.Framing.Type {
	case FramingNone:
	case FramingFrame, FramingTight, FramingRailsTB, FramingRailsLR:
		if p.Framing.Width <= 0 {
			errs = append(errs, errors.New("framing: width must be positive"))
		}
	case FramingTightGrid:
		if p.Framing.PanelW <= 0 || p.Framing.PanelH <= 0 {
			errs = append(errs, errors.New("framing: tightgrid needs the panel size"))
		}
	default:
		errs = append(errs, fmt.Errorf("framing: unknown type %q", p.Framing.Type))
	}

	if p.Tooling.Count < 0 || p.Tooling.Count > 4 || p.Fiducials.Count < 0 || p.Fiducials.Count > 4 {
		errs = append(errs, errors.New("tooling and fiducial counts must be between 0 and 4"))
	}
	return errors.Join(errs...)
}
