// Package charts renders the standard BARS chart set as PNGs: per-variable
// baseline/follow-up distributions, boxplots, and treatment-group slope
// charts.
package charts

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/respiratools/bars/internal/dataset"
	"github.com/respiratools/bars/internal/scoring"
	"github.com/respiratools/bars/internal/types"
)

// Palette: dodgerblue for baseline, limegreen for follow-up, green/red for
// improving/worsening slopes.
var (
	baselineColor = color.NRGBA{R: 30, G: 144, B: 255, A: 180}
	followUpColor = color.NRGBA{R: 50, G: 205, B: 50, A: 180}
	upColor       = color.NRGBA{R: 0, G: 128, B: 0, A: 255}
	downColor     = color.NRGBA{R: 220, G: 20, B: 20, A: 255}
)

const histogramBins = 10

// Renderer renders charts at fixed sizes.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer with the default chart size.
func NewRenderer() *Renderer {
	return &Renderer{Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

// Distribution renders overlaid baseline and follow-up histograms for one
// variable. NaN samples are dropped; at least one series must be non-empty.
func (r *Renderer) Distribution(v dataset.Variable, bl, fu []float64) ([]byte, error) {
	bl = scoring.Finite(bl)
	fu = scoring.Finite(fu)
	if len(bl) == 0 && len(fu) == 0 {
		return nil, fmt.Errorf("no numeric data for %s distribution", v)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Distribution", v)
	p.X.Label.Text = "Value"
	p.Y.Label.Text = "Frequency"
	p.Legend.Top = true

	if len(bl) > 0 {
		h, err := plotter.NewHist(plotter.Values(bl), histogramBins)
		if err != nil {
			return nil, fmt.Errorf("baseline histogram for %s: %w", v, err)
		}
		h.FillColor = baselineColor
		p.Add(h)
		if err := addLegendSwatch(p, fmt.Sprintf("%s.BL", v), baselineColor); err != nil {
			return nil, err
		}
	}
	if len(fu) > 0 {
		h, err := plotter.NewHist(plotter.Values(fu), histogramBins)
		if err != nil {
			return nil, fmt.Errorf("follow-up histogram for %s: %w", v, err)
		}
		h.FillColor = followUpColor
		p.Add(h)
		if err := addLegendSwatch(p, fmt.Sprintf("%s.FU", v), followUpColor); err != nil {
			return nil, err
		}
	}

	return r.encode(p)
}

// BoxPlot renders baseline and follow-up boxplots side by side for one
// variable.
func (r *Renderer) BoxPlot(v dataset.Variable, bl, fu []float64) ([]byte, error) {
	bl = scoring.Finite(bl)
	fu = scoring.Finite(fu)
	if len(bl) == 0 || len(fu) == 0 {
		return nil, fmt.Errorf("no numeric data for %s boxplot", v)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Box Plot", v)
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Value"

	blBox, err := plotter.NewBoxPlot(vg.Points(40), 0, plotter.Values(bl))
	if err != nil {
		return nil, fmt.Errorf("baseline boxplot for %s: %w", v, err)
	}
	blBox.FillColor = baselineColor

	fuBox, err := plotter.NewBoxPlot(vg.Points(40), 1, plotter.Values(fu))
	if err != nil {
		return nil, fmt.Errorf("follow-up boxplot for %s: %w", v, err)
	}
	fuBox.FillColor = followUpColor

	p.Add(blBox, fuBox)
	p.NominalX("BL", "FU")

	return r.encode(p)
}

// addLegendSwatch attaches a colored legend entry. Histograms do not draw
// legend thumbnails themselves, so a detached line stands in.
func addLegendSwatch(p *plot.Plot, label string, c color.Color) error {
	swatch, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 0}})
	if err != nil {
		return fmt.Errorf("legend swatch: %w", err)
	}
	swatch.LineStyle.Color = c
	swatch.LineStyle.Width = vg.Points(6)
	p.Legend.Add(label, swatch)
	return nil
}

// encode renders the plot to PNG bytes.
func (r *Renderer) encode(p *plot.Plot) ([]byte, error) {
	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write png: %w", err)
	}
	return buf.Bytes(), nil
}

// Names of the rendered charts for one variable.
func distName(v dataset.Variable) string  { return fmt.Sprintf("%s_dist.png", v) }
func boxName(v dataset.Variable) string   { return fmt.Sprintf("%s_box.png", v) }
func slopeName(v dataset.Variable) string { return fmt.Sprintf("%s_slope.png", v) }

// ChartOrder lists all chart names in report order: slope charts first,
// then distributions, then boxplots.
func ChartOrder() []string {
	var names []string
	for _, v := range dataset.Variables {
		names = append(names, slopeName(v))
	}
	for _, v := range dataset.Variables {
		names = append(names, distName(v))
	}
	for _, v := range dataset.Variables {
		names = append(names, boxName(v))
	}
	return names
}

// RenderAll renders the full chart set concurrently. A variable whose
// samples are entirely missing fails the whole set; partially missing data
// is tolerated per chart rules.
func (r *Renderer) RenderAll(ctx context.Context, records []dataset.Record, groupMeans map[string][]types.GroupMean) (map[string][]byte, error) {
	out := make(map[string][]byte, 3*len(dataset.Variables))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)

	put := func(name string, render func() ([]byte, error)) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			png, err := render()
			if err != nil {
				return err
			}
			mu.Lock()
			out[name] = png
			mu.Unlock()
			return nil
		})
	}

	for _, v := range dataset.Variables {
		v := v
		bl, fu := scoring.VariableSamples(records, v)
		put(distName(v), func() ([]byte, error) { return r.Distribution(v, bl, fu) })
		put(boxName(v), func() ([]byte, error) { return r.BoxPlot(v, bl, fu) })
		put(slopeName(v), func() ([]byte, error) { return r.SlopeChart(v, groupMeans[string(v)]) })
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
