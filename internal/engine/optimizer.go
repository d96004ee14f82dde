package engine

import (
	"sort"

	"github.com/piwi3910/PanelCut/internal/model"
)

// Zone is a rectangle of a blank kept free of boards, in mm from the blank's
// top-left corner.
type Zone struct {
	X, Y, Width, Height float64
}

// Optimizer packs boards onto panel blanks.
type Optimizer struct {
	Settings model.LayoutSettings
	// Keepouts apply to every blank.
	Keepouts []Zone
	// CornerW × CornerH is kept free in all four corners of every blank,
	// e.g. for tooling holes.
	CornerW, CornerH float64
}

func New(settings model.LayoutSettings, keepouts ...Zone) *Optimizer {
	return &Optimizer{Settings: settings, Keepouts: keepouts}
}

// Optimize takes boards and blanks and returns a layout. Boards of a
// specific thickness are only placed on blanks that accept it, since a panel
// cannot mix thicknesses. A zero thickness matches anything.
func (o *Optimizer) Optimize(boards []model.Board, blanks []model.Blank) model.LayoutResult {
	groups := groupByThickness(boards, blanks)

	combined := model.LayoutResult{}
	for _, g := range groups {
		var groupResult model.LayoutResult
		if o.Settings.Algorithm == model.AlgorithmGenetic {
			groupResult = OptimizeGenetic(o, g.boards, g.blanks)
		} else {
			groupResult = o.optimizeGuillotine(g.boards, g.blanks)
		}
		combined.Panels = append(combined.Panels, groupResult.Panels...)
		combined.Unplaced = append(combined.Unplaced, groupResult.Unplaced...)
	}
	return combined
}

type thicknessGroup struct {
	thickness float64
	boards    []model.Board
	blanks    []model.Blank
}

// groupByThickness splits boards and blanks into groups by thickness. Blanks
// without a thickness join every group; boards without one form their own
// group over all blanks.
func groupByThickness(boards []model.Board, blanks []model.Blank) []thicknessGroup {
	set := make(map[float64]bool)
	for _, b := range boards {
		if b.Thickness != 0 {
			set[b.Thickness] = true
		}
	}
	for _, s := range blanks {
		if s.Thickness != 0 {
			set[s.Thickness] = true
		}
	}
	if len(set) == 0 {
		return []thicknessGroup{{boards: boards, blanks: blanks}}
	}

	thicknesses := make([]float64, 0, len(set))
	for t := range set {
		thicknesses = append(thicknesses, t)
	}
	sort.Float64s(thicknesses)

	var anyBoards []model.Board
	for _, b := range boards {
		if b.Thickness == 0 {
			anyBoards = append(anyBoards, b)
		}
	}

	groups := make([]thicknessGroup, 0, len(thicknesses)+1)
	for _, t := range thicknesses {
		g := thicknessGroup{thickness: t}
		for _, b := range boards {
			if b.Thickness == t {
				g.boards = append(g.boards, b)
			}
		}
		for _, s := range blanks {
			if model.CanShare(t, s.Thickness) {
				g.blanks = append(g.blanks, s)
			}
		}
		if len(g.boards) > 0 {
			groups = append(groups, g)
		}
	}
	if len(anyBoards) > 0 {
		groups = append(groups, thicknessGroup{boards: anyBoards, blanks: blanks})
	}
	return groups
}

// expandBoards turns quantities into individual boards.
func expandBoards(boards []model.Board) []model.Board {
	var expanded []model.Board
	for _, b := range boards {
		for i := 0; i < b.Quantity; i++ {
			cp := b
			cp.Quantity = 1
			expanded = append(expanded, cp)
		}
	}
	return expanded
}

func expandBlanks(blanks []model.Blank) []model.Blank {
	var pool []model.Blank
	for _, s := range blanks {
		for i := 0; i < s.Quantity; i++ {
			cp := s
			cp.Quantity = 1
			pool = append(pool, cp)
		}
	}
	return pool
}

// optimizeGuillotine packs the largest boards first, filling one blank at a
// time.
func (o *Optimizer) optimizeGuillotine(boards []model.Board, blanks []model.Blank) model.LayoutResult {
	expanded := expandBoards(boards)
	sort.SliceStable(expanded, func(i, j int) bool {
		return expanded[i].Width*expanded[i].Height > expanded[j].Width*expanded[j].Height
	})

	pool := expandBlanks(blanks)
	result := model.LayoutResult{}
	remaining := expanded

	for len(remaining) > 0 && len(pool) > 0 {
		idx := o.selectBestBlank(pool, remaining)
		if idx < 0 {
			break
		}
		blank := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)

		best, unplaced := o.packBlankBestStrategy(blank, remaining)
		if len(best.Placements) > 0 {
			result.Panels = append(result.Panels, best)
		}
		remaining = unplaced
	}

	result.Unplaced = remaining
	return result
}

// rotationStrategy controls how boards are rotated during packing.
type rotationStrategy int

const (
	rotBestFit    rotationStrategy = iota // Compare both orientations, pick tighter fit
	rotAllNormal                          // Normal orientation, rotated as fallback
	rotAllRotated                         // Rotated orientation, normal as fallback
)

// packBlankBestStrategy tries every rotation strategy and keeps the one
// placing the most boards, then the densest.
func (o *Optimizer) packBlankBestStrategy(blank model.Blank, boards []model.Board) (model.PanelLayout, []model.Board) {
	var best model.PanelLayout
	var bestUnplaced []model.Board
	bestPlaced := -1

	for _, strat := range []rotationStrategy{rotBestFit, rotAllNormal, rotAllRotated} {
		layout, unplaced := o.packBlank(blank, boards, strat)
		placed := len(layout.Placements)
		if placed > bestPlaced || (placed == bestPlaced && placed > 0 && layout.Efficiency() > best.Efficiency()) {
			bestPlaced = placed
			best = layout
			bestUnplaced = unplaced
		}
	}
	return best, bestUnplaced
}

// packBlank packs boards into a single blank with the given strategy.
func (o *Optimizer) packBlank(blank model.Blank, boards []model.Board, strategy rotationStrategy) (model.PanelLayout, []model.Board) {
	layout := model.PanelLayout{Blank: blank}
	var unplaced []model.Board
	packer := newGuillotinePackerWithRects(o.calculateFreeRects(blank), o.Settings.Spacing)

	try := func(b model.Board, rotated bool) bool {
		w, h := b.Width, b.Height
		if rotated {
			w, h = h, w
		}
		ok, x, y := packer.insert(w, h)
		if ok {
			layout.Placements = append(layout.Placements, model.Placement{Board: b, X: x, Y: y, Rotated: rotated})
		}
		return ok
	}

	for _, b := range boards {
		canRotate := b.Rotatable && b.Width != b.Height
		placed := false
		switch strategy {
		case rotAllRotated:
			placed = (canRotate && try(b, true)) || try(b, false)
		case rotBestFit:
			if canRotate {
				normalFit := packer.bestFit(b.Width, b.Height)
				rotatedFit := packer.bestFit(b.Height, b.Width)
				if rotatedFit >= 0 && (normalFit < 0 || rotatedFit < normalFit) {
					placed = try(b, true)
				}
			}
			placed = placed || try(b, false) || (canRotate && try(b, true))
		default:
			placed = try(b, false) || (canRotate && try(b, true))
		}
		if !placed {
			unplaced = append(unplaced, b)
		}
	}
	return layout, unplaced
}

// calculateFreeRects computes the initial free rectangles of a blank: the
// blank minus the edge trim and the keepouts.
func (o *Optimizer) calculateFreeRects(blank model.Blank) []rect {
	base := rect{
		x: o.Settings.EdgeTrim,
		y: o.Settings.EdgeTrim,
		w: blank.Width - 2*o.Settings.EdgeTrim,
		h: blank.Height - 2*o.Settings.EdgeTrim,
	}
	keepouts := append(o.cornerZones(blank), o.Keepouts...)
	if len(keepouts) == 0 {
		return []rect{base}
	}
	return subtractKeepouts(base, keepouts)
}

func (o *Optimizer) cornerZones(blank model.Blank) []Zone {
	w, h := o.CornerW, o.CornerH
	if w <= 0 || h <= 0 {
		return nil
	}
	return []Zone{
		{X: 0, Y: 0, Width: w, Height: h},
		{X: blank.Width - w, Y: 0, Width: w, Height: h},
		{X: 0, Y: blank.Height - h, Width: w, Height: h},
		{X: blank.Width - w, Y: blank.Height - h, Width: w, Height: h},
	}
}

// subtractKeepouts subtracts keepout zones from a base rectangle, returning
// the remaining free rectangles.
func subtractKeepouts(base rect, keepouts []Zone) []rect {
	freeRects := []rect{base}
	for _, k := range keepouts {
		kr := rect{x: k.X, y: k.Y, w: k.Width, h: k.Height}
		var next []rect
		for _, free := range freeRects {
			next = append(next, subtractRect(free, kr)...)
		}
		if len(next) > 0 {
			freeRects = next
		}
	}

	var result []rect
	for _, r := range freeRects {
		if r.w > 1 && r.h > 1 { // Minimum 1mm
			result = append(result, r)
		}
	}
	return result
}

// subtractRect subtracts one rectangle from another, returning up to 4 rectangles.
func subtractRect(base, sub rect) []rect {
	if !intersects(base, sub) {
		return []rect{base}
	}
	ix := max(base.x, sub.x)
	iy := max(base.y, sub.y)
	iRight := min(base.x+base.w, sub.x+sub.w)
	iBottom := min(base.y+base.h, sub.y+sub.h)
	if iRight <= ix || iBottom <= iy {
		return []rect{base}
	}

	var result []rect
	if ix > base.x {
		result = append(result, rect{x: base.x, y: base.y, w: ix - base.x, h: base.h})
	}
	if iRight < base.x+base.w {
		result = append(result, rect{x: iRight, y: base.y, w: base.x + base.w - iRight, h: base.h})
	}
	if iy > base.y {
		result = append(result, rect{x: ix, y: base.y, w: iRight - ix, h: iy - base.y})
	}
	if iBottom < base.y+base.h {
		result = append(result, rect{x: ix, y: iBottom, w: iRight - ix, h: base.y + base.h - iBottom})
	}
	return result
}

func intersects(r1, r2 rect) bool {
	return r1.x < r2.x+r2.w && r1.x+r1.w > r2.x &&
		r1.y < r2.y+r2.h && r1.y+r1.h > r2.y
}

// selectBestBlank finds the best blank for the remaining boards. Among the
// blanks that can hold the largest remaining board it trial-packs one of
// each size and picks the densest.
func (o *Optimizer) selectBestBlank(blanks []model.Blank, boards []model.Board) int {
	if len(blanks) == 0 || len(boards) == 0 {
		return -1
	}

	largest := boards[0]
	for _, b := range boards[1:] {
		if b.Width*b.Height > largest.Width*largest.Height {
			largest = b
		}
	}

	trim, gap := o.Settings.EdgeTrim, o.Settings.Spacing
	var candidates []int
	for i, s := range blanks {
		uw, uh := s.Width-2*trim, s.Height-2*trim
		fitsNormal := largest.Width+gap <= uw && largest.Height+gap <= uh
		fitsRotated := largest.Rotatable && largest.Height+gap <= uw && largest.Width+gap <= uh
		if fitsNormal || fitsRotated {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	type blankKey struct{ w, h float64 }
	seen := make(map[blankKey]bool)
	bestIdx, bestScore := -1, -1.0
	for _, idx := range candidates {
		s := blanks[idx]
		key := blankKey{s.Width, s.Height}
		if seen[key] {
			continue
		}
		seen[key] = true

		packer := newGuillotinePackerWithRects(o.calculateFreeRects(s), gap)
		placedArea := 0.0
		for _, b := range boards {
			if ok, _, _ := packer.insert(b.Width, b.Height); ok {
				placedArea += b.Width * b.Height
			} else if b.Rotatable {
				if ok, _, _ := packer.insert(b.Height, b.Width); ok {
					placedArea += b.Width * b.Height
				}
			}
		}
		area := s.Width * s.Height
		if area == 0 {
			continue
		}
		if score := placedArea / area; score > bestScore {
			bestScore = score
			bestIdx = idx
		}
	}
	if bestIdx < 0 {
		return candidates[0]
	}
	return bestIdx
}

// guillotinePacker keeps the free rectangles of a blank and splits them on
// every insertion.
type guillotinePacker struct {
	freeRects []rect
	gap       float64
}

type rect struct {
	x, y, w, h float64
}

func newGuillotinePacker(width, height, gap float64) *guillotinePacker {
	return &guillotinePacker{
		freeRects: []rect{{0, 0, width, height}},
		gap:       gap,
	}
}

func newGuillotinePackerWithRects(initialRects []rect, gap float64) *guillotinePacker {
	return &guillotinePacker{
		freeRects: initialRects,
		gap:       gap,
	}
}

// insert places a w × h board by best area fit and returns its position.
func (gp *guillotinePacker) insert(w, h float64) (bool, float64, float64) {
	bestIdx := -1
	bestAreaFit := float64(-1)
	wg := w + gp.gap
	hg := h + gp.gap

	for i, r := range gp.freeRects {
		if fits(wg, hg, r) {
			areaFit := (r.w * r.h) - (w * h)
			if bestIdx < 0 || areaFit < bestAreaFit {
				bestIdx = i
				bestAreaFit = areaFit
			}
		}
	}
	if bestIdx < 0 {
		return false, 0, 0
	}

	chosen := gp.freeRects[bestIdx]
	gp.splitAroundPlacement(rect{x: chosen.x, y: chosen.y, w: wg, h: hg})
	return true, chosen.x, chosen.y
}

// fits reports whether a w × h piece, gap included, fits into r.
func fits(w, h float64, r rect) bool {
	return w <= r.w+0.001 && h <= r.h+0.001
}

// splitAroundPlacement removes all free rects that overlap the placed rect
// and keeps the maximal strips around it.
func (gp *guillotinePacker) splitAroundPlacement(placed rect) {
	var newRects []rect
	for _, r := range gp.freeRects {
		if !rectsOverlap(r, placed) {
			newRects = append(newRects, r)
			continue
		}
		if placed.x > r.x+0.001 {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: placed.x - r.x, h: r.h})
		}
		if placed.x+placed.w < r.x+r.w-0.001 {
			newRects = append(newRects, rect{x: placed.x + placed.w, y: r.y, w: (r.x + r.w) - (placed.x + placed.w), h: r.h})
		}
		if placed.y > r.y+0.001 {
			newRects = append(newRects, rect{x: r.x, y: r.y, w: r.w, h: placed.y - r.y})
		}
		if placed.y+placed.h < r.y+r.h-0.001 {
			newRects = append(newRects, rect{x: r.x, y: placed.y + placed.h, w: r.w, h: (r.y + r.h) - (placed.y + placed.h)})
		}
	}
	gp.freeRects = pruneContained(newRects)
}

// rectsOverlap returns true if two rectangles overlap (not just touch).
func rectsOverlap(a, b rect) bool {
	return a.x < b.x+b.w-0.001 && a.x+a.w > b.x+0.001 &&
		a.y < b.y+b.h-0.001 && a.y+a.h > b.y+0.001
}

// pruneContained removes any rect that is fully contained within another.
func pruneContained(rects []rect) []rect {
	if len(rects) <= 1 {
		return rects
	}
	kept := make([]rect, 0, len(rects))
	for i, a := range rects {
		contained := false
		for j, b := range rects {
			// Of two identical rects keep the first.
			if i != j && containsRect(b, a) && !(containsRect(a, b) && i < j) {
				contained = true
				break
			}
		}
		if !contained {
			kept = append(kept, a)
		}
	}
	return kept
}

// containsRect returns true if outer fully contains inner.
func containsRect(outer, inner rect) bool {
	return outer.x <= inner.x+0.001 && outer.y <= inner.y+0.001 &&
		outer.x+outer.w >= inner.x+inner.w-0.001 &&
		outer.y+outer.h >= inner.y+inner.h-0.001
}

// bestFit returns the area waste for inserting a w × h board without
// modifying the packer, or -1 if it does not fit.
func (gp *guillotinePacker) bestFit(w, h float64) float64 {
	wg := w + gp.gap
	hg := h + gp.gap
	best := float64(-1)
	for _, r := range gp.freeRects {
		if fits(wg, hg, r) {
			areaFit := (r.w * r.h) - (w * h)
			if best < 0 || areaFit < best {
				best = areaFit
			}
		}
	}
	return best
}
