package model

import "github.com/google/uuid"

// Board is a board design to be placed on a panel. Sizes are the outline
// bounding box in mm.
type Board struct {
	ID        string  `json:"id" mapstructure:"id"`
	Label     string  `json:"label" mapstructure:"label"`
	Path      string  `json:"path" mapstructure:"path"`
	Width     float64 `json:"width" mapstructure:"width"`
	Height    float64 `json:"height" mapstructure:"height"`
	Quantity  int     `json:"quantity" mapstructure:"quantity"`
	Thickness float64 `json:"thickness,omitempty" mapstructure:"thickness"` // mm, 0 = any
	Rotatable bool    `json:"rotatable" mapstructure:"rotatable"`
}

func NewBoard(label, path string, w, h float64, qty int) Board {
	return Board{
		ID:        uuid.New().String()[:8],
		Label:     label,
		Path:      path,
		Width:     w,
		Height:    h,
		Quantity:  qty,
		Rotatable: true,
	}
}

// Area is the bounding-box area in mm².
func (b Board) Area() float64 { return b.Width * b.Height }

// Blank is an available panel size for automatic layouts.
type Blank struct {
	ID        string  `json:"id" mapstructure:"id"`
	Label     string  `json:"label" mapstructure:"label"`
	Width     float64 `json:"width" mapstructure:"width"`   // mm
	Height    float64 `json:"height" mapstructure:"height"` // mm
	Quantity  int     `json:"quantity" mapstructure:"quantity"`
	Thickness float64 `json:"thickness,omitempty" mapstructure:"thickness"` // mm, 0 = any
}

func NewBlank(label string, w, h float64, qty int) Blank {
	return Blank{
		ID:       uuid.New().String()[:8],
		Label:    label,
		Width:    w,
		Height:   h,
		Quantity: qty,
	}
}

// Placement is a single board placed on a blank.
type Placement struct {
	Board   Board   `json:"board"`
	X       float64 `json:"x"`       // Position from left edge (mm)
	Y       float64 `json:"y"`       // Position from top edge (mm)
	Rotated bool    `json:"rotated"` // Whether the board was rotated 90°
}

// PlacedWidth returns the effective width considering rotation.
func (p Placement) PlacedWidth() float64 {
	if p.Rotated {
		return p.Board.Height
	}
	return p.Board.Width
}

// PlacedHeight returns the effective height considering rotation.
func (p Placement) PlacedHeight() float64 {
	if p.Rotated {
		return p.Board.Width
	}
	return p.Board.Height
}

// PanelLayout is one blank with the boards placed on it.
type PanelLayout struct {
	Blank      Blank       `json:"blank"`
	Placements []Placement `json:"placements"`
}

// UsedArea returns the total area covered by boards.
func (pl PanelLayout) UsedArea() float64 {
	var total float64
	for _, p := range pl.Placements {
		total += p.PlacedWidth() * p.PlacedHeight()
	}
	return total
}

// TotalArea returns the blank area.
func (pl PanelLayout) TotalArea() float64 {
	return pl.Blank.Width * pl.Blank.Height
}

// Efficiency returns the usage percentage.
func (pl PanelLayout) Efficiency() float64 {
	ta := pl.TotalArea()
	if ta == 0 {
		return 0
	}
	return (pl.UsedArea() / ta) * 100.0
}

// LayoutResult holds a full automatic layout.
type LayoutResult struct {
	Panels   []PanelLayout `json:"panels"`
	Unplaced []Board       `json:"unplaced"`
}

// TotalEfficiency returns overall blank usage percentage.
func (lr LayoutResult) TotalEfficiency() float64 {
	var usedArea, totalArea float64
	for _, p := range lr.Panels {
		usedArea += p.UsedArea()
		totalArea += p.TotalArea()
	}
	if totalArea == 0 {
		return 0
	}
	return (usedArea / totalArea) * 100.0
}

// CanShare reports whether a board can go on a blank of the given thickness.
// A zero thickness on either side matches anything.
func CanShare(board, blank float64) bool {
	return board == 0 || blank == 0 || board == blank
}
