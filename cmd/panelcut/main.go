// PanelCut builds fabrication panels from board outlines.
//
// A panel is described by a preset (built-in, saved in the library, or a
// preset file) and either a single board repeated in a grid, a list of
// boards with fixed positions, or a board list packed onto panel blanks.
//
// Usage:
//
//	panelcut -p frame --rows 2 --cols 3 -o panel.dxf board.dxf
//	panelcut -p default --boards boards.csv --blanks blanks.xlsx -o out/panel.dxf
//	panelcut -p vcuts --layout positions.csv -o panel.dxf --sheet panel.pdf
//	panelcut -p frame -o panel.dxf --gcode panel.nc board.dxf
//	panelcut --export-settings settings.json
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/piwi3910/PanelCut/internal/board"
	"github.com/piwi3910/PanelCut/internal/engine"
	"github.com/piwi3910/PanelCut/internal/export"
	"github.com/piwi3910/PanelCut/internal/gcode"
	"github.com/piwi3910/PanelCut/internal/geom"
	"github.com/piwi3910/PanelCut/internal/importer"
	"github.com/piwi3910/PanelCut/internal/model"
	"github.com/piwi3910/PanelCut/internal/project"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "panelcut:", err)
		}
		os.Exit(1)
	}
}

type options struct {
	preset      string
	rows, cols  int
	boardList   string
	blankList   string
	layoutList  string
	out         string
	sheet       string
	labels      string
	gcode       string
	copies      int
	configPath  string
	libraryPath string
	logLevel    string
	listPresets bool
	exportTo    string
	importFrom  string
}

func parseFlags(args []string, stderr io.Writer) (options, []string, error) {
	var o options
	fs := pflag.NewFlagSet("panelcut", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&o.preset, "preset", "p", "", "preset name or preset file (default from config)")
	fs.IntVar(&o.rows, "rows", 0, "grid rows, overrides the preset")
	fs.IntVar(&o.cols, "cols", 0, "grid columns, overrides the preset")
	fs.StringVar(&o.boardList, "boards", "", "CSV/XLSX board list for an automatic layout")
	fs.StringVar(&o.blankList, "blanks", "", "CSV/XLSX panel blank list for an automatic layout")
	fs.StringVar(&o.layoutList, "layout", "", "CSV/XLSX list of boards at fixed positions")
	fs.StringVarP(&o.out, "out", "o", "panel.dxf", "output panel file")
	fs.StringVar(&o.sheet, "sheet", "", "fabrication sheet PDF (default next to the panel when enabled in config)")
	fs.StringVar(&o.labels, "labels", "", "traveler label PDF")
	fs.IntVar(&o.copies, "copies", 1, "labels per panel")
	fs.StringVar(&o.gcode, "gcode", "", "router program that mills the panels out of laminate")
	fs.StringVar(&o.configPath, "config", project.DefaultConfigPath(), "application config file")
	fs.StringVar(&o.libraryPath, "library", project.DefaultLibraryPath(), "saved preset library")
	fs.StringVar(&o.logLevel, "log-level", "", "debug, info, warn or error (default from config)")
	fs.BoolVar(&o.listPresets, "list-presets", false, "list available presets and exit")
	fs.StringVar(&o.exportTo, "export-settings", "", "write config and saved presets to a bundle file and exit")
	fs.StringVar(&o.importFrom, "import-settings", "", "restore config and saved presets from a bundle file and exit")
	if err := fs.Parse(args); err != nil {
		return o, nil, err
	}
	return o, fs.Args(), nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, boardFiles, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := project.LoadAppConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", o.configPath, err)
	}
	if o.logLevel == "" {
		o.logLevel = cfg.LogLevel
	}
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLevel(o.logLevel)}))

	lib, err := project.LoadLibrary(o.libraryPath)
	if err != nil {
		return fmt.Errorf("failed to load preset library %s: %w", o.libraryPath, err)
	}
	if o.listPresets {
		return listPresets(stdout, lib)
	}
	if o.exportTo != "" {
		if err := project.ExportSettings(o.exportTo, cfg, lib); err != nil {
			return err
		}
		log.Info("settings exported", "path", o.exportTo, "presets", len(lib.Presets))
		return nil
	}
	if o.importFrom != "" {
		n, err := project.RestoreSettings(o.importFrom, o.configPath, o.libraryPath)
		if err != nil {
			return err
		}
		log.Info("settings restored", "path", o.importFrom, "presets", n)
		return nil
	}

	if o.preset == "" {
		o.preset = cfg.DefaultPreset
	}
	preset, err := project.ResolvePreset(o.preset, lib)
	if err != nil {
		return err
	}
	if o.rows > 0 {
		preset.Layout.Rows = o.rows
	}
	if o.cols > 0 {
		preset.Layout.Cols = o.cols
	}

	job, err := buildJob(o, boardFiles, preset, log)
	if err != nil {
		return err
	}

	loader := board.NewDXF()
	res, err := engine.NewPanelizer(loader, log).Build(job)
	if err != nil {
		return err
	}

	out := o.out
	if cfg.OutputDir != "" && !filepath.IsAbs(out) {
		out = filepath.Join(cfg.OutputDir, out)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := panelPaths(out, len(res.Panels))
	for i, p := range res.Panels {
		if err := p.Save(loader, paths[i]); err != nil {
			return fmt.Errorf("failed to save panel %d: %w", i+1, err)
		}
		bb := p.Substrate().BoundingBox()
		log.Info("panel written", "path", paths[i], "boards", p.BoardCount(),
			"width_mm", roundMM(bb.W), "height_mm", roundMM(bb.H))
		fmt.Fprintln(stdout, paths[i])
	}

	report := export.Report{
		Title:  strings.TrimSuffix(filepath.Base(out), filepath.Ext(out)),
		Preset: job.Preset,
		Panels: res.Panels,
		Layout: res.Layout,
	}
	sheet := o.sheet
	if sheet == "" && cfg.WriteSheet {
		sheet = strings.TrimSuffix(out, filepath.Ext(out)) + ".pdf"
	}
	if sheet != "" {
		if err := export.ExportPDF(sheet, report); err != nil {
			return fmt.Errorf("failed to write fabrication sheet: %w", err)
		}
		log.Info("fabrication sheet written", "path", sheet)
	}
	if o.labels != "" {
		if err := export.ExportLabels(o.labels, report, o.copies); err != nil {
			return fmt.Errorf("failed to write labels: %w", err)
		}
		log.Info("labels written", "path", o.labels)
	}

	if o.gcode != "" {
		if err := writeRouterPrograms(o.gcode, report, cfg.Router, log); err != nil {
			return err
		}
	}

	cfg.AddRecentPanel(out)
	if err := project.SaveAppConfig(o.configPath, cfg); err != nil {
		log.Warn("could not update config", "path", o.configPath, "err", err)
	}
	return nil
}

// buildJob collects the boards of a run from positional arguments and list
// files. A blank list switches the preset to an automatic layout.
func buildJob(o options, boardFiles []string, preset model.Preset, log *slog.Logger) (engine.Job, error) {
	job := engine.Job{Preset: preset}
	for _, f := range boardFiles {
		label := strings.TrimSuffix(filepath.Base(f), filepath.Ext(f))
		b := model.NewBoard(label, f, 0, 0, 1)
		job.Boards = append(job.Boards, b)
	}

	lists := []struct {
		path string
		kind importer.Kind
	}{
		{o.boardList, importer.KindBoards},
		{o.blankList, importer.KindBlanks},
		{o.layoutList, importer.KindLayout},
	}
	for _, l := range lists {
		if l.path == "" {
			continue
		}
		res := importer.Import(l.path, l.kind)
		for _, w := range res.Warnings {
			log.Warn("import", "file", l.path, "msg", w)
		}
		if len(res.Errors) > 0 {
			return job, fmt.Errorf("%s list %s: %s", l.kind, l.path, strings.Join(res.Errors, "; "))
		}
		job.Boards = append(job.Boards, res.Boards...)
		job.Blanks = append(job.Blanks, res.Blanks...)
		job.Items = append(job.Items, res.Items...)
	}

	if len(job.Blanks) > 0 && job.Preset.Layout.Type != model.LayoutAuto {
		log.Debug("blank list given, using automatic layout", "preset", job.Preset.Name)
		job.Preset.Layout.Type = model.LayoutAuto
	}
	if len(job.Boards) == 0 && len(job.Items) == 0 {
		return job, errors.New("no boards given")
	}
	if job.Preset.Layout.Type != model.LayoutAuto && len(job.Items) == 0 && len(job.Boards) > 1 {
		log.Warn("grid layouts repeat the first board only", "board", job.Boards[0].Path, "ignored", len(job.Boards)-1)
	}
	return job, nil
}

// writeRouterPrograms writes one router program per panel.
func writeRouterPrograms(path string, r export.Report, s model.RouterSettings, log *slog.Logger) error {
	gen := gcode.New(s)
	paths := panelPaths(path, len(r.Panels))
	for i, code := range gen.GenerateAll(r.Panels, r.Title) {
		if err := os.WriteFile(paths[i], []byte(code), 0644); err != nil {
			return fmt.Errorf("failed to write router program: %w", err)
		}
		st := gcode.Summarize(gcode.Parse(code), s)
		log.Info("router program written", "path", paths[i], "plunges", st.Plunges,
			"cut_mm", math.Round(st.CutLength), "estimate", st.Duration.Round(time.Second))
	}
	return nil
}

// panelPaths numbers the output file when a run produces several panels.
func panelPaths(out string, n int) []string {
	if n == 1 {
		return []string{out}
	}
	ext := filepath.Ext(out)
	base := strings.TrimSuffix(out, ext)
	paths := make([]string, n)
	for i := range paths {
		paths[i] = fmt.Sprintf("%s-%d%s", base, i+1, ext)
	}
	return paths
}

func listPresets(w io.Writer, lib model.PresetLibrary) error {
	for _, p := range model.BuiltInPresets {
		if _, err := fmt.Fprintf(w, "%-12s %s\n", p.Name, p.Description); err != nil {
			return err
		}
	}
	for _, p := range lib.Presets {
		if _, err := fmt.Fprintf(w, "%-12s %s (saved)\n", p.Name, p.Description); err != nil {
			return err
		}
	}
	return nil
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func roundMM(v float64) float64 {
	return math.Round(geom.ToMM(v)*1000) / 1000
}
