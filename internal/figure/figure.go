// Package figure renders turnaround-time figures.
//
// Each transition gets one figure with two vertically stacked plots: the
// turnaround time by sample index, and a histogram of the distribution.
// Both are bounded by the largest observed value.
package figure

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// DefaultBins is the default histogram bin count.
const DefaultBins = 50

// FigureSize is the width and height of a figure.
const FigureSize = 16 * vg.Inch

// Supported output formats.
var Formats = []string{"pdf", "png", "svg"}

// Options controls figure rendering.
type Options struct {
	Bins   int    // histogram bins, DefaultBins if < 1
	Format string // one of Formats, "pdf" if empty
	OutDir string // output directory, "." if empty
}

func (o Options) withDefaults() Options {
	if o.Bins < 1 {
		o.Bins = DefaultBins
	}
	if o.Format == "" {
		o.Format = "pdf"
	}
	if o.OutDir == "" {
		o.OutDir = "."
	}
	return o
}

// FileName returns the figure file name for a transition.
func FileName(session string, part int, format string) string {
	return fmt.Sprintf("%s.part%d_histgram.%s", session, part, format)
}

// Plotter writes one figure per transition.
type Plotter struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Plotter.
func New(opts Options, logger *slog.Logger) (*Plotter, error) {
	opts = opts.withDefaults()
	if !slices.Contains(Formats, opts.Format) {
		return nil, fmt.Errorf("unsupported plot format %q (want one of %v)", opts.Format, Formats)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Plotter{opts: opts, logger: logger}, nil
}

// WriteAll renders every transition and returns the written paths.
// It stops at the first failure.
func (p *Plotter) WriteAll(session string, series [][]int64) ([]string, error) {
	paths := make([]string, 0, len(series))
	for i, values := range series {
		path := filepath.Join(p.opts.OutDir, FileName(session, i, p.opts.Format))
		if err := p.WriteFile(path, session, i, values); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteFile renders one transition to path.
func (p *Plotter) WriteFile(path, session string, part int, values []int64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create figure: %w", err)
	}

	if err := p.Render(f, session, part, values); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close figure: %w", err)
	}

	p.logger.Debug("plot_written", "path", path, "part", part, "samples", len(values))
	return nil
}

// Render draws one figure to w in the configured format.
func (p *Plotter) Render(w io.Writer, session string, part int, values []int64) error {
	if len(values) == 0 {
		return fmt.Errorf("part %d: no samples", part)
	}

	series, err := timeSeries(session, part, values)
	if err != nil {
		return err
	}
	hist, err := histogram(session, part, values, p.opts.Bins)
	if err != nil {
		return err
	}

	canvas, err := draw.NewFormattedCanvas(FigureSize, FigureSize, p.opts.Format)
	if err != nil {
		return fmt.Errorf("create canvas: %w", err)
	}

	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadTop:    vg.Points(20),
		PadBottom: vg.Points(20),
		PadLeft:   vg.Points(20),
		PadRight:  vg.Points(20),
		PadY:      vg.Points(40),
	}
	plots := [][]*plot.Plot{{series}, {hist}}
	canvases := plot.Align(plots, tiles, draw.New(canvas))
	for row := range plots {
		plots[row][0].Draw(canvases[row][0])
	}

	if _, err := canvas.WriteTo(w); err != nil {
		return fmt.Errorf("write %s: %w", p.opts.Format, err)
	}
	return nil
}

// upperBound is the axis limit shared by both plots.
func upperBound(values []int64) float64 {
	hi := float64(slices.Max(values))
	if hi <= 0 {
		return 1
	}
	return hi
}

func timeSeries(session string, part int, values []int64) (*plot.Plot, error) {
	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = float64(v)
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("part %d: time series: %w", part, err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: part %d - elapsed time time-series", session, part)
	p.X.Label.Text = "sample index"
	p.Y.Label.Text = "turn-around time (us)"
	p.Add(line)
	p.Y.Min = 0
	p.Y.Max = upperBound(values)
	return p, nil
}

func histogram(session string, part int, values []int64, bins int) (*plot.Plot, error) {
	vals := make(plotter.Values, len(values))
	for i, v := range values {
		vals[i] = float64(v)
	}

	h, err := plotter.NewHist(vals, bins)
	if err != nil {
		return nil, fmt.Errorf("part %d: histogram: %w", part, err)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: part %d - elapsed time histgram", session, part)
	p.X.Label.Text = "turn-around time (us)"
	p.Y.Label.Text = "the number of samples"
	p.Add(h)
	p.X.Min = 0
	p.X.Max = upperBound(values)
	return p, nil
}
