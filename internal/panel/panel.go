// Package panel assembles boards into a manufacturing panel. A Panel keeps the
// panel substrate as polygons while boards, tabs, frames and rails are added,
// and renders it onto the output board only when saved. Cuts between boards
// are returned to the caller, who turns them into V-cuts or mouse bites.
package panel

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

// Panel is a single panel under construction. It is not safe for concurrent
// use.
type Panel struct {
	board  *board.Board
	loader board.Loader
	log    *slog.Logger

	// substrates holds the outline of every appended board, shrunk by the
	// outline buffer; annotations and partitionLines are indexed alike.
	substrates     []*substrate.Substrate
	annotations    [][]TabAnnotation
	partitionLines [][]geom.Polyline
	backboneLines  []geom.Polyline
	boardSubstrate *substrate.Substrate
	tabs           []substrate.Tab

	hVCuts        map[float64]struct{}
	vVCuts        map[float64]struct{}
	vCutLayer     board.Layer
	vCutClearance float64

	boardCounter int
	copperLayers int
}

// Option configures a Panel.
type Option func(*Panel)

// WithLogger sets the logger receiving debug records about placement, tabs
// and cuts.
func WithLogger(l *slog.Logger) Option {
	return func(p *Panel) { p.log = l }
}

// WithVCutLayer sets the layer V-cuts are drawn on; Cmts.User by default.
func WithVCutLayer(l board.Layer) Option {
	return func(p *Panel) { p.vCutLayer = l }
}

// WithVCutClearance adds a copper keepout of the given width around every
// V-cut.
func WithVCutClearance(c float64) Option {
	return func(p *Panel) { p.vCutClearance = c }
}

// New creates an empty panel reading boards through loader.
func New(loader board.Loader, opts ...Option) *Panel {
	p := &Panel{
		board:          board.New(),
		loader:         loader,
		log:            slog.New(slog.DiscardHandler),
		boardSubstrate: substrate.New(),
		hVCuts:         make(map[float64]struct{}),
		vVCuts:         make(map[float64]struct{}),
		vCutLayer:      board.CmtsUser,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Board returns the output board holding everything copied so far. The panel
// outline and V-cuts are added only by Save.
func (p *Panel) Board() *board.Board { return p.board }

// Substrate returns a copy of the panel substrate.
func (p *Panel) Substrate() *substrate.Substrate { return p.boardSubstrate.Clone() }

// Substrates returns copies of the per-board substrates in append order.
func (p *Panel) Substrates() []*substrate.Substrate {
	out := make([]*substrate.Substrate, len(p.substrates))
	for i, s := range p.substrates {
		out[i] = s.Clone()
	}
	return out
}

// BoardCount returns the number of boards appended.
func (p *Panel) BoardCount() int { return p.boardCounter }

// Tabs returns the tabs built so far.
func (p *Panel) Tabs() []substrate.Tab {
	return append([]substrate.Tab(nil), p.tabs...)
}

// Annotations returns the tab annotations of board i.
func (p *Panel) Annotations(i int) []TabAnnotation {
	return append([]TabAnnotation(nil), p.annotations[i]...)
}

// PartitionLines returns the partition lines of board i, or nil before
// BuildPartitionLineFromBB.
func (p *Panel) PartitionLines(i int) []geom.Polyline {
	if i >= len(p.partitionLines) {
		return nil
	}
	return append([]geom.Polyline(nil), p.partitionLines[i]...)
}

// BackboneLines returns the backbone lines computed by
// BuildPartitionLineFromBB.
func (p *Panel) BackboneLines() []geom.Polyline {
	return append([]geom.Polyline(nil), p.backboneLines...)
}

// VCuts returns the horizontal (Y) and vertical (X) V-cut coordinates in
// ascending order.
func (p *Panel) VCuts() (h, v []float64) {
	return sortedKeys(p.hVCuts), sortedKeys(p.vVCuts)
}

func sortedKeys(m map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Float64s(out)
	return out
}

// AppendSubstrate adds material to the panel.
func (p *Panel) AppendSubstrate(s *substrate.Substrate) {
	p.boardSubstrate.Union(s)
}

// appendPieces adds convex pieces such as tabs and rails, grown slightly so
// they overlap whatever they touch.
func (p *Panel) appendPieces(rings []geom.Ring) {
	grow := geom.FromMM(0.01)
	pieces := make([]*substrate.Substrate, 0, len(rings))
	for _, r := range rings {
		pieces = append(pieces, substrate.FromRing(r).BufferMitre(grow))
	}
	p.boardSubstrate.Union(pieces...)
}

// Save renders the panel outline, V-cuts and their keepouts onto a copy of
// the output board and writes it with saver. The panel stays editable.
func (p *Panel) Save(saver board.Saver, path string) error {
	out := p.board.Clone()
	for _, ring := range p.boardSubstrate.Serialize() {
		out.Add(&board.Polygon{Points: ring, Width: geom.FromMM(0.1), OnLayer: board.EdgeCuts})
	}
	items, keepouts := p.renderVCuts()
	for _, it := range items {
		out.Add(it)
	}
	for _, k := range keepouts {
		out.Add(keepoutZone(substrate.Shape{Exterior: k}, board.KeepoutRules{NoTracks: true, NoVias: true, NoCopper: true}))
	}
	p.log.Debug("saving panel", "path", path, "boards", p.boardCounter, "vcuts", len(p.hVCuts)+len(p.vVCuts))
	if err := saver.Save(out, path); err != nil {
		return fmt.Errorf("failed to save panel: %w", err)
	}
	return nil
}
