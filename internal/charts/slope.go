package charts

import (
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/respiratools/bars/internal/dataset"
	"github.com/respiratools/bars/internal/types"
)

// Horizontal positions of the two timepoint columns.
const (
	slopeLeftX  = 1.0
	slopeRightX = 3.0
)

// slopeTitle returns the chart title for one variable.
func slopeTitle(v dataset.Variable) string {
	name := string(v)
	if v == dataset.VarExacerbation {
		name = "Exacerbations"
	}
	return fmt.Sprintf("Slope Chart of Means by Biologic: %s", name)
}

// SlopeChart renders one segment per treatment group from baseline mean to
// follow-up mean. Rising segments are green, falling ones red; both ends
// carry the group name and value.
func (r *Renderer) SlopeChart(v dataset.Variable, means []types.GroupMean) ([]byte, error) {
	if len(means) == 0 {
		return nil, fmt.Errorf("no treatment groups for %s slope chart", v)
	}

	p := plot.New()
	p.Title.Text = slopeTitle(v)
	p.X.Min, p.X.Max = 0, 4
	p.X.Tick.Marker = plot.ConstantTicks([]plot.Tick{
		{Value: slopeLeftX, Label: fmt.Sprintf("%s_BL", v)},
		{Value: slopeRightX, Label: fmt.Sprintf("%s_FU", v)},
	})

	yMin, yMax := math.Inf(1), math.Inf(-1)

	labelXYs := make(plotter.XYs, 0, 2*len(means))
	labelText := make([]string, 0, 2*len(means))

	for _, gm := range means {
		c := upColor
		if gm.Delta < 0 {
			c = downColor
		}

		seg, err := plotter.NewLine(plotter.XYs{
			{X: slopeLeftX, Y: gm.Baseline},
			{X: slopeRightX, Y: gm.FollowUp},
		})
		if err != nil {
			return nil, fmt.Errorf("slope segment for %q: %w", gm.Treatment, err)
		}
		seg.LineStyle.Color = c
		seg.LineStyle.Width = vg.Points(2)
		p.Add(seg)

		pts, err := plotter.NewScatter(plotter.XYs{
			{X: slopeLeftX, Y: gm.Baseline},
			{X: slopeRightX, Y: gm.FollowUp},
		})
		if err != nil {
			return nil, fmt.Errorf("slope points for %q: %w", gm.Treatment, err)
		}
		pts.GlyphStyle.Color = c
		pts.GlyphStyle.Radius = vg.Points(3)
		p.Add(pts)

		labelXYs = append(labelXYs,
			plotter.XY{X: slopeLeftX - 0.9, Y: gm.Baseline},
			plotter.XY{X: slopeRightX + 0.1, Y: gm.FollowUp},
		)
		labelText = append(labelText,
			fmt.Sprintf("%s, %.2f", gm.Treatment, gm.Baseline),
			fmt.Sprintf("%s, %.2f", gm.Treatment, gm.FollowUp),
		)

		yMin = math.Min(yMin, math.Min(gm.Baseline, gm.FollowUp))
		yMax = math.Max(yMax, math.Max(gm.Baseline, gm.FollowUp))
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{XYs: labelXYs, Labels: labelText})
	if err != nil {
		return nil, fmt.Errorf("slope labels: %w", err)
	}
	p.Add(labels)

	// Pad the vertical range so end labels stay inside the frame.
	pad := 0.08 * (yMax - yMin)
	if pad < 1 {
		pad = 1
	}
	p.Y.Min = yMin - pad
	p.Y.Max = yMax + pad

	wide := &Renderer{Width: r.Width + 2*vg.Inch, Height: r.Height + vg.Inch}
	return wide.encode(p)
}
