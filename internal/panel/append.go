package panel

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// Origin selects the point of the source area that is placed at the
// destination and that the board is rotated about.
type Origin int

const (
	Center Origin = iota
	TopLeft
	TopRight
	BottomLeft
	BottomRight
)

func (o Origin) String() string {
	switch o {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	case BottomRight:
		return "bottom-right"
	default:
		return "center"
	}
}

// ParseOrigin reads an origin name as printed by String.
func ParseOrigin(s string) (Origin, error) {
	for o := Center; o <= BottomRight; o++ {
		if o.String() == strings.ToLower(strings.TrimSpace(s)) {
			return o, nil
		}
	}
	return Center, fmt.Errorf("unknown origin %q", s)
}

// Coord returns the origin point of r.
func (o Origin) Coord(r geom.Rect) geom.Point {
	r = r.Normalize()
	switch o {
	case TopLeft:
		return geom.Pt(r.X, r.Y)
	case TopRight:
		return geom.Pt(r.X+r.W, r.Y)
	case BottomLeft:
		return geom.Pt(r.X, r.Y+r.H)
	case BottomRight:
		return geom.Pt(r.X+r.W, r.Y+r.H)
	default:
		return r.Center()
	}
}

// DefaultBufferOutline is the amount board outlines are grown by before they
// join the panel substrate, so boards touching edge to edge fuse.
var DefaultBufferOutline = geom.FromMM(0.001)

// DefaultRenamePattern renames nets of appended boards.
const DefaultRenamePattern = "Board_{n}-{orig}"

// Renamer maps an original net or reference name of the n-th appended board
// to its name in the panel.
type Renamer func(n int, orig string) string

// PatternRenamer expands "{n}" and "{orig}" in pattern.
func PatternRenamer(pattern string) Renamer {
	return func(n int, orig string) string {
		return strings.NewReplacer("{n}", strconv.Itoa(n), "{orig}", orig).Replace(pattern)
	}
}

// AppendOptions control how a board is taken from its file.
type AppendOptions struct {
	// SourceArea limits the items taken; nil means the board outline's
	// bounding box. With Shrink set, the area shrinks to the outline inside.
	SourceArea *geom.Rect
	Origin     Origin
	Rotation   float64
	Shrink     bool
	// Tolerance enlarges the source area when collecting items, so zones
	// poking out of the outline come along.
	Tolerance float64
	// BufferOutline defaults to DefaultBufferOutline when zero.
	BufferOutline float64
	NetRenamer    Renamer
	RefRenamer    Renamer
}

// AppendBoard copies the board at path into the panel with the origin of its
// source area placed at dest. It returns the bounding box of the placed board
// outline.
func (p *Panel) AppendBoard(path string, dest geom.Point, opts AppendOptions) (geom.Rect, error) {
	b, err := p.loader.Load(path)
	if err != nil {
		return geom.Rect{}, fmt.Errorf("failed to append board: %w", err)
	}
	if err := p.checkStackup(path, b); err != nil {
		return geom.Rect{}, err
	}

	var sourceArea geom.Rect
	switch {
	case opts.SourceArea == nil:
		sourceArea, err = b.EdgeBoundingBox(nil)
	case opts.Shrink:
		sourceArea, err = b.EdgeBoundingBox(opts.SourceArea)
	default:
		sourceArea = opts.SourceArea.Normalize()
	}
	if err != nil {
		return geom.Rect{}, fmt.Errorf("failed to find source area of %s: %w", path, err)
	}
	enlarged := sourceArea.ExpandAll(opts.Tolerance)
	originPoint := opts.Origin.Coord(sourceArea)
	tf := geom.Transform{Rotation: opts.Rotation, Origin: originPoint, Translation: dest.Sub(originPoint)}

	netRenamer := opts.NetRenamer
	if netRenamer == nil {
		netRenamer = PatternRenamer(DefaultRenamePattern)
	}
	n := p.boardCounter + 1
	b.RenameNets(func(s string) string { return netRenamer(n, s) })
	if opts.RefRenamer != nil {
		b.RenameRefs(func(s string) string { return opts.RefRenamer(n, s) })
	}

	sel := b.Collect(enlarged)
	place := func(it board.Item) {
		it.Rotate(tf.Origin, tf.Rotation)
		it.Move(tf.Translation)
	}

	// Nothing reaches the panel until both substrates are built.
	var edges, copper []board.Item
	var annotations []TabAnnotation
	for _, f := range sel.Footprints {
		place(f)
		edges = append(edges, f.TakeEdgeCuts()...)
		if !f.IsAnnotation() {
			copper = append(copper, f)
			continue
		}
		a, err := annotationsFromFootprint(f)
		if err != nil {
			return geom.Rect{}, fmt.Errorf("%s: %w", path, err)
		}
		annotations = append(annotations, a...)
	}
	for _, t := range sel.Tracks {
		place(t)
		copper = append(copper, t)
	}
	for _, z := range sel.Zones {
		place(z)
		copper = append(copper, z)
	}

	var others []board.Item
	for _, d := range sel.Drawings {
		place(d)
		if d.Layer() == board.EdgeCuts {
			edges = append(edges, d)
		} else {
			others = append(others, d)
		}
	}

	buffer := opts.BufferOutline
	if buffer == 0 {
		buffer = DefaultBufferOutline
	}
	strokes := board.Strokes(edges)
	inner, err := substrate.FromStrokes(strokes, -buffer)
	var outer *substrate.Substrate
	if err == nil {
		outer, err = substrate.FromStrokes(strokes, buffer)
	}
	if err != nil {
		var pe *substrate.PositionError
		if errors.As(err, &pe) {
			return geom.Rect{}, pe.Reframe(tf.Undo, path)
		}
		return geom.Rect{}, fmt.Errorf("failed to build substrate of %s: %w", path, err)
	}
	p.adoptStackup(b)
	p.boardCounter = n
	p.boardSubstrate.Union(outer)
	p.substrates = append(p.substrates, inner)
	p.annotations = append(p.annotations, annotations)
	for _, it := range copper {
		p.board.Append(it)
	}
	for _, net := range b.Nets {
		p.board.AddNet(net)
	}
	for _, d := range others {
		p.board.Append(d)
	}

	bb := edgesBoundingBox(edges)
	p.log.Debug("board appended", "path", path, "n", n, "rotation", opts.Rotation,
		"bbox", bb.String(), "annotations", len(annotations))
	return bb, nil
}

func edgesBoundingBox(edges []board.Item) geom.Rect {
	var bb geom.Rect
	for i, e := range edges {
		if i == 0 {
			bb = e.BoundingBox()
			continue
		}
		bb = bb.Union(e.BoundingBox())
	}
	return bb
}

// checkStackup rejects a board whose thickness or copper layer count differs
// from the boards already in the panel. The first board sets the baseline.
func (p *Panel) checkStackup(path string, b *board.Board) error {
	if p.boardCounter == 0 {
		return nil
	}
	if b.Thickness != p.board.Thickness {
		return panelErrorf("cannot append board %s as its thickness (%g mm) differs from thickness of the panel (%g mm)",
			path, geom.ToMM(b.Thickness), geom.ToMM(p.board.Thickness))
	}
	if p.copperLayers != b.CopperLayers {
		return panelErrorf("attempting to panelize boards together of mixed layer counts (%d and %d)",
			p.copperLayers, b.CopperLayers)
	}
	return nil
}

func (p *Panel) adoptStackup(b *board.Board) {
	if p.boardCounter > 0 {
		return
	}
	p.board.Thickness = b.Thickness
	p.copperLayers = b.CopperLayers
	p.board.CopperLayers = b.CopperLayers
}

// LayoutItem places one board of an arbitrary layout.
type LayoutItem struct {
	Path        string     `json:"path"`
	Destination geom.Point `json:"destination"`
	Rotation    float64    `json:"rotation"`
}

// AppendLayout appends every board of a layout using opts for everything the
// items do not set. It stops at the first failing board.
func (p *Panel) AppendLayout(items []LayoutItem, opts AppendOptions) ([]geom.Rect, error) {
	boxes := make([]geom.Rect, 0, len(items))
	for _, it := range items {
		o := opts
		o.Rotation = opts.Rotation + it.Rotation
		bb, err := p.AppendBoard(it.Path, it.Destination, o)
		if err != nil {
			return boxes, err
		}
		boxes = append(boxes, bb)
	}
	return boxes, nil
}
