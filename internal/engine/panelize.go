package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/model"
	"github.com/piwi3910/PanelCut/internal/panel"
	"github.com/piwi3910/PanelCut/internal/substrate"
)

var mm = geom.FromMM

// Job is one panelization request.
type Job struct {
	Preset model.Preset
	// Boards holds the board of a grid layout, or every board of an
	// automatic layout.
	Boards []model.Board
	// Blanks are the panel sizes an automatic layout packs onto.
	Blanks []model.Blank
	// Items, when set, places the boards exactly as listed whatever the
	// layout type.
	Items []panel.LayoutItem
}

// Result holds the panels built for a job. Layout is set for automatic
// layouts only, with one packed blank per panel.
type Result struct {
	Panels []*panel.Panel
	Layout model.LayoutResult
}

// Panelizer runs presets against boards read through Loader.
type Panelizer struct {
	Loader board.Loader
	Log    *slog.Logger
}

func NewPanelizer(loader board.Loader, log *slog.Logger) *Panelizer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Panelizer{Loader: loader, Log: log}
}

// Build validates the job's preset and builds its panels: boards placed,
// tabs, backbone and framing added, tooling, fiducials and text placed, and
// cuts turned into V-cuts or mouse bites.
func (z *Panelizer) Build(job Job) (*Result, error) {
	if err := job.Preset.Validate(); err != nil {
		return nil, fmt.Errorf("invalid preset %q: %w", job.Preset.Name, err)
	}
	switch {
	case len(job.Items) > 0:
		p, err := z.buildItems(job)
		if err != nil {
			return nil, err
		}
		return &Result{Panels: []*panel.Panel{p}}, nil
	case job.Preset.Layout.Type == model.LayoutAuto:
		return z.buildAuto(job)
	default:
		p, err := z.buildGrid(job)
		if err != nil {
			return nil, err
		}
		return &Result{Panels: []*panel.Panel{p}}, nil
	}
}

func (z *Panelizer) newPanel(pr model.Preset) *panel.Panel {
	opts := []panel.Option{panel.WithLogger(z.Log)}
	if pr.Cuts.Layer != "" {
		opts = append(opts, panel.WithVCutLayer(board.Layer(pr.Cuts.Layer)))
	}
	if pr.Cuts.Clearance > 0 {
		opts = append(opts, panel.WithVCutClearance(mm(pr.Cuts.Clearance)))
	}
	return panel.New(z.Loader, opts...)
}

func appendOptions(l model.LayoutSettings, origin panel.Origin) panel.AppendOptions {
	o := panel.AppendOptions{Origin: origin, Tolerance: mm(l.Tolerance)}
	if l.RenameNet != "" {
		o.NetRenamer = panel.PatternRenamer(l.RenameNet)
	}
	if l.RenameRef != "" {
		o.RefRenamer = panel.PatternRenamer(l.RenameRef)
	}
	return o
}

func (z *Panelizer) buildGrid(job Job) (*panel.Panel, error) {
	if len(job.Boards) == 0 {
		return nil, errors.New("grid layout needs a board")
	}
	pr := job.Preset
	l := pr.Layout
	alternation := l.Alternation
	if alternation == "" {
		alternation = "grid"
	}
	placement, err := panel.ParsePlacementClass(alternation)
	if err != nil {
		return nil, err
	}

	o := panel.GridOptions{
		Rows:             l.Rows,
		Cols:             l.Cols,
		Tolerance:        mm(l.Tolerance),
		Rotation:         l.Rotation,
		Placement:        placement,
		VerSpace:         mm(l.VSpace),
		HorSpace:         mm(l.HSpace),
		ForceOuterCutsH:  l.ForceOuterCuts,
		ForceOuterCutsV:  l.ForceOuterCuts,
		NetRenamePattern: l.RenameNet,
		RefRenamePattern: l.RenameRef,
	}
	switch pr.Tabs.Type {
	case model.TabsGrid:
		o.VerTabCount, o.HorTabCount = pr.Tabs.VCount, pr.Tabs.HCount
		o.VerTabWidth, o.HorTabWidth = mm(pr.Tabs.VWidth), mm(pr.Tabs.HWidth)
	case model.TabsGridFull:
		o.VerTabCount, o.HorTabCount = 1, 1
	}
	if pr.Tabs.Type == model.TabsGrid || pr.Tabs.Type == model.TabsGridFull {
		space := mm(pr.Framing.Space)
		switch pr.Framing.Type {
		case model.FramingFrame, model.FramingTight:
			o.OuterVerTabThickness, o.OuterHorTabThickness = space, space
		case model.FramingRailsTB:
			o.OuterVerTabThickness = space
		case model.FramingRailsLR:
			o.OuterHorTabThickness = space
		}
	}

	p := z.newPanel(pr)
	path := job.Boards[0].Path
	var cuts []geom.Polyline
	if pr.Framing.Type == model.FramingTightGrid {
		_, cuts, err = p.MakeTightGrid(path, o, mm(pr.Framing.Slot), mm(pr.Framing.PanelW), mm(pr.Framing.PanelH))
	} else {
		_, cuts, err = p.MakeGrid(path, o)
	}
	if err != nil {
		return nil, err
	}
	if err := z.finish(p, pr, cuts); err != nil {
		return nil, err
	}
	return p, nil
}

func (z *Panelizer) buildItems(job Job) (*panel.Panel, error) {
	pr := job.Preset
	origin, err := panel.ParseOrigin(pr.Layout.Origin)
	if err != nil {
		return nil, err
	}
	opts := appendOptions(pr.Layout, origin)
	opts.Rotation = pr.Layout.Rotation

	p := z.newPanel(pr)
	if _, err := p.AppendLayout(job.Items, opts); err != nil {
		return nil, err
	}
	if err := z.finish(p, pr, nil); err != nil {
		return nil, err
	}
	return p, nil
}

func (z *Panelizer) buildAuto(job Job) (*Result, error) {
	if len(job.Blanks) == 0 {
		return nil, errors.New("automatic layout needs at least one blank")
	}
	boards, err := MeasureBoards(z.Loader, job.Boards)
	if err != nil {
		return nil, err
	}
	pr := job.Preset
	opt := New(pr.Layout)
	if pr.Framing.Type == model.FramingNone {
		opt.CornerW, opt.CornerH = cornerClearance(pr.Tooling, pr.Fiducials)
	}

	lr := opt.Optimize(boards, job.Blanks)
	if len(lr.Panels) == 0 {
		return nil, fmt.Errorf("none of %d boards fits any blank", len(boards))
	}
	if len(lr.Unplaced) > 0 {
		z.Log.Warn("boards left unplaced", "count", len(lr.Unplaced))
	}

	res := &Result{Layout: lr}
	for i, pl := range lr.Panels {
		p := z.newPanel(pr)
		if _, err := p.AppendLayout(ToLayoutItems(pl, geom.Point{}), appendOptions(pr.Layout, panel.TopLeft)); err != nil {
			return nil, fmt.Errorf("failed to build panel %d: %w", i+1, err)
		}
		if err := z.finish(p, pr, nil); err != nil {
			return nil, fmt.Errorf("failed to build panel %d: %w", i+1, err)
		}
		res.Panels = append(res.Panels, p)
	}
	z.Log.Info("automatic layout", "panels", len(res.Panels), "efficiency", lr.TotalEfficiency())
	return res, nil
}

// finish runs everything after placement on a panel. cuts are the cuts the
// layout produced itself, such as grid tabs.
func (z *Panelizer) finish(p *panel.Panel, pr model.Preset, cuts []geom.Polyline) error {
	ghosts := framingGhosts(p.Substrates(), pr.Framing)
	p.BuildPartitionLineFromBB(ghosts, mm(pr.Layout.SafeMargin))

	tabCuts, err := buildTabs(p, pr.Tabs, ghosts)
	if err != nil {
		return err
	}
	cuts = append(cuts, tabCuts...)

	l := pr.Layout
	if l.VBackbone > 0 || l.HBackbone > 0 {
		cuts = append(cuts, p.RenderBackbone(mm(l.VBackbone), mm(l.HBackbone), l.VBoneCut, l.HBoneCut)...)
	}

	f := pr.Framing
	space := mm(f.Space)
	switch f.Type {
	case model.FramingFrame:
		frameCuts := p.MakeFrame(mm(f.Width), space, space)
		if f.Cuts {
			cuts = append(cuts, frameCuts...)
		}
	case model.FramingTight:
		p.MakeTightFrame(mm(f.Width), mm(f.Slot), space, space)
	case model.FramingRailsTB:
		p.MakeRailsTB(mm(f.Width))
	case model.FramingRailsLR:
		p.MakeRailsLR(mm(f.Width))
	}

	if t := pr.Tooling; t.Count > 0 {
		p.AddCornerTooling(t.Count, mm(t.HOffset), mm(t.VOffset), mm(t.Size), t.Paste)
	}
	if fd := pr.Fiducials; fd.Count > 0 {
		p.AddCornerFiducials(fd.Count, mm(fd.HOffset), mm(fd.VOffset), mm(fd.CopperSize), mm(fd.Opening))
	}
	if t := pr.Text; t.Text != "" {
		bb := p.Substrate().BoundingBox()
		pos := geom.Pt(bb.MinX()+mm(t.X), bb.MinY()+mm(t.Y))
		p.AddText(t.Text, pos, t.Angle, mm(t.Height), board.Layer(t.Layer))
	}

	c := pr.Cuts
	switch c.Type {
	case model.CutsVCuts:
		if err := p.MakeVCuts(cuts, c.CutCurves); err != nil {
			return err
		}
	case model.CutsMouseBites:
		p.MakeMouseBites(cuts, mm(c.Drill), mm(c.Spacing), mm(c.Offset), mm(c.Prolong))
	}

	if pr.Post.MillRadius > 0 {
		p.AddMillFillets(mm(pr.Post.MillRadius))
	}
	if pr.Post.CopperFill {
		if err := p.CopperFillNonBoardAreas(); err != nil {
			return err
		}
	}
	z.Log.Debug("panel finished", "preset", pr.Name, "boards", p.BoardCount(), "cuts", len(cuts))
	return nil
}

// buildTabs builds the tabs the layout did not build itself and returns
// their cuts.
func buildTabs(p *panel.Panel, t model.TabSettings, ghosts []*substrate.Substrate) ([]geom.Polyline, error) {
	switch t.Type {
	case model.TabsFixed:
		p.ClearTabAnnotations()
		p.BuildTabAnnotationsFixed(t.HCount, t.VCount, mm(t.HWidth), mm(t.VWidth), mm(t.MinDistance), ghosts)
	case model.TabsSpacing:
		p.ClearTabAnnotations()
		p.BuildTabAnnotationsSpacing(mm(t.Spacing), mm(t.HWidth), mm(t.VWidth), ghosts)
	case model.TabsCorner:
		p.ClearTabAnnotations()
		p.BuildTabAnnotationsCorners(mm(t.Width))
	case model.TabsAnnotation:
	case model.TabsFull:
		return p.BuildFullTabs()
	default:
		return nil, nil
	}
	return p.BuildTabsFromAnnotations(), nil
}

// framingGhosts stands in for the frame or rails before they exist: strips
// twice the framing space away from the boards, so that the partition lines
// between boards and framing run at the framing space.
func framingGhosts(boards []*substrate.Substrate, f model.FramingSettings) []*substrate.Substrate {
	var top, bottom, left, right bool
	switch f.Type {
	case model.FramingFrame, model.FramingTight:
		top, bottom, left, right = true, true, true, true
	case model.FramingRailsTB:
		top, bottom = true, true
	case model.FramingRailsLR:
		left, right = true, true
	default:
		return nil
	}
	if len(boards) == 0 {
		return nil
	}
	bb := boards[0].BoundingBox()
	for _, s := range boards[1:] {
		bb = bb.Union(s.BoundingBox())
	}

	gap := 2 * mm(f.Space)
	w := max(mm(f.Width), mm(1))
	minX, minY, maxX, maxY := bb.Bounds()
	var ghosts []*substrate.Substrate
	add := func(r geom.Rect) { ghosts = append(ghosts, substrate.FromRect(r)) }
	if top {
		add(geom.RectFromBounds(minX-gap-w, minY-gap-w, maxX+gap+w, minY-gap))
	}
	if bottom {
		add(geom.RectFromBounds(minX-gap-w, maxY+gap, maxX+gap+w, maxY+gap+w))
	}
	if left {
		add(geom.RectFromBounds(minX-gap-w, minY-gap, minX-gap, maxY+gap))
	}
	if right {
		add(geom.RectFromBounds(maxX+gap, minY-gap, maxX+gap+w, maxY+gap))
	}
	return ghosts
}
